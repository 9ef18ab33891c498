package handlers

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"time"

	"github.com/followuphq/followup/internal/leads"
	"github.com/followuphq/followup/internal/observability/metrics"
	"github.com/followuphq/followup/internal/session"
	"github.com/followuphq/followup/pkg/logging"
)

// recentLeadsLimit is how many of the newest leads the dashboard shows.
const recentLeadsLimit = 5

// newLeadWindow is how far back a lead still counts as "new".
const newLeadWindow = 7 * 24 * time.Hour

// DashboardHandler serves the per-user lead overview.
type DashboardHandler struct {
	db      *sql.DB
	metrics *metrics.LeadMetrics
	logger  *logging.Logger
	now     func() time.Time
}

// DashboardResponse aggregates the caller's lead counters and latest leads.
type DashboardResponse struct {
	TotalLeads    int64        `json:"totalLeads"`
	NewLeads      int64        `json:"newLeads"`
	FollowUpLeads int64        `json:"followUpLeads"`
	RecentLeads   []leads.Lead `json:"recentLeads"`
}

// NewDashboardHandler creates a dashboard handler backed by db.
func NewDashboardHandler(db *sql.DB, m *metrics.LeadMetrics, logger *logging.Logger) *DashboardHandler {
	if logger == nil {
		logger = logging.Default()
	}
	return &DashboardHandler{db: db, metrics: m, logger: logger, now: time.Now}
}

// GetDashboard returns the caller's dashboard.
// GET /api/dashboard
//
// Each counter is computed independently; under concurrent writes the numbers
// may reflect slightly different instants, which is acceptable for an
// overview screen.
func (h *DashboardHandler) GetDashboard(w http.ResponseWriter, r *http.Request) {
	sess, ok := session.FromContext(r.Context())
	if !ok {
		jsonError(w, "unauthenticated", http.StatusUnauthorized)
		return
	}
	if h.db == nil {
		jsonError(w, "dashboard disabled", http.StatusServiceUnavailable)
		return
	}

	now := h.now().UTC()
	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	dayEnd := dayStart.Add(24 * time.Hour)

	total, err := h.countLeads(r.Context(), `SELECT COUNT(*) FROM leads WHERE user_id = $1`, sess.UserID)
	if err != nil {
		h.fail(w, sess.UserID, "failed to count leads", err)
		return
	}

	newLeads, err := h.countLeads(r.Context(),
		`SELECT COUNT(*) FROM leads WHERE user_id = $1 AND created_at >= $2`,
		sess.UserID, now.Add(-newLeadWindow))
	if err != nil {
		h.fail(w, sess.UserID, "failed to count new leads", err)
		return
	}

	followUps, err := h.countLeads(r.Context(),
		`SELECT COUNT(*) FROM leads WHERE user_id = $1 AND follow_up_on >= $2 AND follow_up_on < $3`,
		sess.UserID, dayStart, dayEnd)
	if err != nil {
		h.fail(w, sess.UserID, "failed to count follow-ups", err)
		return
	}

	recent, err := h.recentLeads(r.Context(), sess.UserID)
	if err != nil {
		h.fail(w, sess.UserID, "failed to load recent leads", err)
		return
	}

	h.metrics.ObserveDashboard("ok")
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(DashboardResponse{
		TotalLeads:    total,
		NewLeads:      newLeads,
		FollowUpLeads: followUps,
		RecentLeads:   recent,
	})
}

func (h *DashboardHandler) countLeads(ctx context.Context, query string, args ...any) (int64, error) {
	var count int64
	if err := h.db.QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

func (h *DashboardHandler) recentLeads(ctx context.Context, userID string) ([]leads.Lead, error) {
	query := `
		SELECT id, user_id, name, phone, email, service, status, source, notes, follow_up_on, created_at, updated_at
		FROM leads WHERE user_id = $1 ORDER BY created_at DESC LIMIT $2
	`
	rows, err := h.db.QueryContext(ctx, query, userID, recentLeadsLimit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []leads.Lead{}
	for rows.Next() {
		var l leads.Lead
		if err := rows.Scan(&l.ID, &l.UserID, &l.Name, &l.Phone, &l.Email, &l.Service,
			&l.Status, &l.Source, &l.Notes, &l.FollowUpOn, &l.CreatedAt, &l.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

func (h *DashboardHandler) fail(w http.ResponseWriter, userID, msg string, err error) {
	h.logger.Error(msg, "user_id", userID, "error", err)
	h.metrics.ObserveDashboard("error")
	jsonError(w, "internal error", http.StatusInternalServerError)
}

func jsonError(w http.ResponseWriter, msg string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
