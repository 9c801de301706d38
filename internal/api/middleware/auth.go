package middleware

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/rs/zerolog/log"
)

// PublicRoute is a method and path that skips authentication. An empty
// method matches any method.
type PublicRoute struct {
	Method string
	Path   string
}

// DefaultPublicRoutes are reachable without an admin token
var DefaultPublicRoutes = []PublicRoute{
	{Method: "", Path: "/health"},
	{Method: http.MethodPost, Path: "/api/feedback"},
}

// AdminAuth requires a bearer token from tokens on every route except the
// public ones. CORS preflights pass through. When disabled every request is
// let in.
func AdminAuth(tokens []string, disabled bool, public []PublicRoute) func(http.Handler) http.Handler {
	digests := make([][sha256.Size]byte, 0, len(tokens))
	for _, t := range tokens {
		if t = strings.TrimSpace(t); t != "" {
			digests = append(digests, sha256.Sum256([]byte(t)))
		}
	}

	return func(next http.Handler) http.Handler {
		if disabled {
			log.Warn().Msg("admin authentication is disabled")
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodOptions || isPublic(r, public) {
				next.ServeHTTP(w, r)
				return
			}

			token, ok := bearerToken(r)
			if !ok {
				w.Header().Set("WWW-Authenticate", `Bearer realm="admin"`)
				writeAuthError(w, http.StatusUnauthorized, "missing bearer token")
				return
			}
			if !validToken(token, digests) {
				log.Warn().Str("path", r.URL.Path).Str("remote_addr", r.RemoteAddr).Msg("rejected admin token")
				writeAuthError(w, http.StatusUnauthorized, "invalid bearer token")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func isPublic(r *http.Request, public []PublicRoute) bool {
	for _, p := range public {
		if p.Path == r.URL.Path && (p.Method == "" || p.Method == r.Method) {
			return true
		}
	}
	return false
}

func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

// validToken compares digests so that every comparison has the same length
// and runs in constant time
func validToken(token string, digests [][sha256.Size]byte) bool {
	got := sha256.Sum256([]byte(token))
	match := 0
	for _, d := range digests {
		match |= subtle.ConstantTimeCompare(got[:], d[:])
	}
	return match == 1
}

func writeAuthError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
