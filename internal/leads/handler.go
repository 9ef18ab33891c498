package leads

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/followuphq/followup/internal/observability/metrics"
	"github.com/followuphq/followup/internal/session"
	"github.com/followuphq/followup/pkg/logging"
)

// Handler exposes lead CRUD over HTTP. Every route requires a resolved
// session; ownership scoping happens in the repository queries.
type Handler struct {
	repo    Repository
	metrics *metrics.LeadMetrics
	logger  *logging.Logger
}

// NewHandler creates a leads handler.
func NewHandler(repo Repository, m *metrics.LeadMetrics, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{repo: repo, metrics: m, logger: logger}
}

// List handles GET /api/leads.
// Query params: search, status (enum or ALL), sort (created_desc|name_asc|name_desc).
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	sess, ok := session.FromContext(r.Context())
	if !ok {
		jsonError(w, "unauthenticated", http.StatusUnauthorized)
		return
	}

	q := r.URL.Query()
	statusFilter := strings.TrimSpace(q.Get("status"))
	if statusFilter != "" && statusFilter != StatusAll && !Status(statusFilter).Valid() {
		jsonError(w, "invalid status filter", http.StatusBadRequest)
		return
	}

	filter := ListFilter{
		Search: q.Get("search"),
		Status: statusFilter,
		Sort:   ParseSort(q.Get("sort")),
	}

	out, err := h.repo.List(r.Context(), sess.UserID, filter)
	if err != nil {
		h.logger.Error("failed to list leads", "user_id", sess.UserID, "error", err)
		h.metrics.ObserveOperation("list", "error")
		jsonError(w, "internal error", http.StatusInternalServerError)
		return
	}

	h.metrics.ObserveOperation("list", "ok")
	writeJSON(w, http.StatusOK, out)
}

// Save handles POST /api/leads. A payload carrying an id updates that lead
// (legacy client form); otherwise a new lead is created for the caller.
func (h *Handler) Save(w http.ResponseWriter, r *http.Request) {
	sess, ok := session.FromContext(r.Context())
	if !ok {
		jsonError(w, "unauthenticated", http.StatusUnauthorized)
		return
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		jsonError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	var envelope struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		jsonError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	if envelope.ID != "" {
		var req UpdateLeadRequest
		if err := json.Unmarshal(body, &req); err != nil {
			jsonError(w, "invalid request body", http.StatusBadRequest)
			return
		}
		h.applyUpdate(w, r, sess, envelope.ID, &req)
		return
	}

	var req CreateLeadRequest
	if err := json.Unmarshal(body, &req); err != nil {
		jsonError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	req.UserID = sess.UserID

	lead, err := h.repo.Create(r.Context(), &req)
	if err != nil {
		var ve *ValidationError
		if errors.As(err, &ve) {
			h.metrics.ObserveOperation("create", "invalid")
			writeValidation(w, ve)
			return
		}
		h.logger.Error("failed to create lead", "user_id", sess.UserID, "error", err)
		h.metrics.ObserveOperation("create", "error")
		jsonError(w, "internal error", http.StatusInternalServerError)
		return
	}

	h.logger.Info("lead created", "user_id", sess.UserID, "lead_id", lead.ID)
	h.metrics.ObserveOperation("create", "ok")
	writeJSON(w, http.StatusCreated, lead)
}

// Get handles GET /api/leads/{id}.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	sess, ok := session.FromContext(r.Context())
	if !ok {
		jsonError(w, "unauthenticated", http.StatusUnauthorized)
		return
	}

	lead, err := h.repo.Get(r.Context(), sess.UserID, chi.URLParam(r, "id"))
	if err == ErrLeadNotFound {
		jsonError(w, "lead not found", http.StatusNotFound)
		return
	}
	if err != nil {
		h.logger.Error("failed to get lead", "user_id", sess.UserID, "error", err)
		jsonError(w, "internal error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, lead)
}

// Update handles PATCH /api/leads/{id}.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	sess, ok := session.FromContext(r.Context())
	if !ok {
		jsonError(w, "unauthenticated", http.StatusUnauthorized)
		return
	}

	var req UpdateLeadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	h.applyUpdate(w, r, sess, chi.URLParam(r, "id"), &req)
}

func (h *Handler) applyUpdate(w http.ResponseWriter, r *http.Request, sess session.Session, id string, req *UpdateLeadRequest) {
	lead, err := h.repo.Update(r.Context(), sess.UserID, id, req)
	if err != nil {
		var ve *ValidationError
		switch {
		case errors.As(err, &ve):
			h.metrics.ObserveOperation("update", "invalid")
			writeValidation(w, ve)
		case err == ErrLeadNotFound:
			h.metrics.ObserveOperation("update", "not_found")
			jsonError(w, "lead not found", http.StatusNotFound)
		default:
			h.logger.Error("failed to update lead", "user_id", sess.UserID, "lead_id", id, "error", err)
			h.metrics.ObserveOperation("update", "error")
			jsonError(w, "internal error", http.StatusInternalServerError)
		}
		return
	}

	h.metrics.ObserveOperation("update", "ok")
	writeJSON(w, http.StatusOK, lead)
}

// Delete handles DELETE /api/leads/{id} and the legacy DELETE /api/leads?id= form.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	sess, ok := session.FromContext(r.Context())
	if !ok {
		jsonError(w, "unauthenticated", http.StatusUnauthorized)
		return
	}

	id := chi.URLParam(r, "id")
	if id == "" {
		id = r.URL.Query().Get("id")
	}
	if id == "" {
		jsonError(w, "lead id is required", http.StatusBadRequest)
		return
	}

	err := h.repo.Delete(r.Context(), sess.UserID, id)
	if err == ErrLeadNotFound {
		h.metrics.ObserveOperation("delete", "not_found")
		jsonError(w, "lead not found", http.StatusNotFound)
		return
	}
	if err != nil {
		h.logger.Error("failed to delete lead", "user_id", sess.UserID, "lead_id", id, "error", err)
		h.metrics.ObserveOperation("delete", "error")
		jsonError(w, "internal error", http.StatusInternalServerError)
		return
	}

	h.logger.Info("lead deleted", "user_id", sess.UserID, "lead_id", id)
	h.metrics.ObserveOperation("delete", "ok")
	writeJSON(w, http.StatusOK, map[string]string{"message": "lead deleted"})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func jsonError(w http.ResponseWriter, msg string, status int) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func writeValidation(w http.ResponseWriter, ve *ValidationError) {
	writeJSON(w, http.StatusBadRequest, map[string]any{
		"error":  "validation failed",
		"fields": ve.Fields,
	})
}
