package session

import (
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

// Claims represents the claims carried by a signed session JWT.
type Claims struct {
	jwt.RegisteredClaims
	Email string `json:"email"`
}

// Auth resolves the bearer token on each request into a Session in context.
// HMAC-signed JWTs are verified against secret; anything else is treated as an
// opaque token and looked up in the store when one is configured. Requests
// without a valid session get a 401.
func Auth(secret string, store *Store) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			auth := r.Header.Get("Authorization")
			if auth == "" || !strings.HasPrefix(auth, "Bearer ") {
				http.Error(w, `{"error":"missing authorization header"}`, http.StatusUnauthorized)
				return
			}
			tokenString := strings.TrimPrefix(auth, "Bearer ")

			if looksLikeJWT(tokenString) {
				if secret == "" {
					http.Error(w, `{"error":"session auth not configured"}`, http.StatusUnauthorized)
					return
				}
				claims := &Claims{}
				token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (any, error) {
					if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
						return nil, jwt.ErrSignatureInvalid
					}
					return []byte(secret), nil
				})
				if err != nil || !token.Valid || claims.Subject == "" {
					http.Error(w, `{"error":"invalid token"}`, http.StatusUnauthorized)
					return
				}
				ctx := WithSession(r.Context(), Session{UserID: claims.Subject, Email: claims.Email})
				ctx = WithToken(ctx, tokenString)
				next.ServeHTTP(w, r.WithContext(ctx))
				return
			}

			if store == nil {
				http.Error(w, `{"error":"invalid token"}`, http.StatusUnauthorized)
				return
			}
			sess, err := store.Get(r.Context(), tokenString)
			if err == ErrNoSession {
				http.Error(w, `{"error":"invalid token"}`, http.StatusUnauthorized)
				return
			}
			if err != nil {
				http.Error(w, `{"error":"session lookup failed"}`, http.StatusServiceUnavailable)
				return
			}
			ctx := WithSession(r.Context(), *sess)
			ctx = WithToken(ctx, tokenString)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// looksLikeJWT reports whether the token has the three-part dotted shape of a
// signed JWT. Opaque session tokens never contain dots.
func looksLikeJWT(token string) bool {
	return strings.Count(token, ".") == 2
}
