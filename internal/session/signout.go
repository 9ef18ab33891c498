package session

import (
	"encoding/json"
	"net/http"

	"github.com/followuphq/followup/pkg/logging"
)

// SignoutHandler revokes opaque sessions. JWT sessions simply expire; revoking
// one is a no-op here.
type SignoutHandler struct {
	store  *Store
	logger *logging.Logger
}

// NewSignoutHandler creates a signout handler. store may be nil when only JWT
// sessions are in use.
func NewSignoutHandler(store *Store, logger *logging.Logger) *SignoutHandler {
	if logger == nil {
		logger = logging.Default()
	}
	return &SignoutHandler{store: store, logger: logger}
}

// Signout handles POST /api/auth/signout.
func (h *SignoutHandler) Signout(w http.ResponseWriter, r *http.Request) {
	sess, ok := FromContext(r.Context())
	if !ok {
		http.Error(w, `{"error":"unauthenticated"}`, http.StatusUnauthorized)
		return
	}

	if token, ok := TokenFromContext(r.Context()); ok && h.store != nil && !looksLikeJWT(token) {
		if err := h.store.Delete(r.Context(), token); err != nil {
			h.logger.Error("failed to revoke session", "user_id", sess.UserID, "error", err)
			http.Error(w, `{"error":"internal error"}`, http.StatusInternalServerError)
			return
		}
	}

	h.logger.Info("session signed out", "user_id", sess.UserID)
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{"message": "signed out"})
}
