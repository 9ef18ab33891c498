package session

import "context"

type ctxKey string

const (
	sessionKey ctxKey = "followup.session"
	tokenKey   ctxKey = "followup.session_token"
)

// WithSession stores the resolved session in context.
func WithSession(ctx context.Context, s Session) context.Context {
	return context.WithValue(ctx, sessionKey, s)
}

// FromContext extracts the session if present.
func FromContext(ctx context.Context) (Session, bool) {
	val := ctx.Value(sessionKey)
	if val == nil {
		return Session{}, false
	}
	s, ok := val.(Session)
	return s, ok && s.UserID != ""
}

// WithToken stores the raw bearer token in context so signout can revoke it.
func WithToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, tokenKey, token)
}

// TokenFromContext extracts the raw bearer token if present.
func TokenFromContext(ctx context.Context) (string, bool) {
	val := ctx.Value(tokenKey)
	if val == nil {
		return "", false
	}
	token, ok := val.(string)
	return token, ok && token != ""
}
