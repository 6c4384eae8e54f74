package middleware

import (
	"crypto/sha256"
	"crypto/subtle"
	"net/http"
	"sync"

	"github.com/2beens/macrotrack/internal/telemetry/tracing"
	"github.com/2beens/macrotrack/pkg"

	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/codes"
)

type Admin struct {
	Username     string
	PasswordHash string
}

// AuthMiddlewareHandler guards the API with HTTP basic auth against a single
// admin account. With no admin configured every request is let through.
type AuthMiddlewareHandler struct {
	admin        Admin
	allowedPaths map[string]bool

	// bcrypt is slow on purpose, so known good credentials are remembered
	mu       sync.RWMutex
	verified map[[sha256.Size]byte]bool
}

func NewAuthMiddlewareHandler(admin Admin) *AuthMiddlewareHandler {
	if admin.Username == "" || admin.PasswordHash == "" {
		log.Warnln("admin credentials not set, API auth disabled")
	}
	return &AuthMiddlewareHandler{
		admin: admin,
		allowedPaths: map[string]bool{
			"/health": true,
		},
		verified: make(map[[sha256.Size]byte]bool),
	}
}

func (h *AuthMiddlewareHandler) enabled() bool {
	return h.admin.Username != "" && h.admin.PasswordHash != ""
}

func (h *AuthMiddlewareHandler) checkCredentials(username, password string) bool {
	if subtle.ConstantTimeCompare([]byte(username), []byte(h.admin.Username)) != 1 {
		return false
	}

	key := sha256.Sum256([]byte(username + ":" + password))
	h.mu.RLock()
	ok := h.verified[key]
	h.mu.RUnlock()
	if ok {
		return true
	}

	if !pkg.CheckPasswordHash(password, h.admin.PasswordHash) {
		return false
	}
	h.mu.Lock()
	h.verified[key] = true
	h.mu.Unlock()
	return true
}

func (h *AuthMiddlewareHandler) AuthCheck() func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, span := tracing.GlobalTracer.Start(r.Context(), "middleware.auth")
			defer span.End()

			if r.Method == http.MethodOptions {
				w.Header().Add("Allow", "GET, POST, PUT, DELETE, OPTIONS")
				w.WriteHeader(http.StatusOK)
				span.SetStatus(codes.Ok, "options-ok")
				return
			}

			if !h.enabled() || h.allowedPaths[r.URL.Path] {
				span.SetStatus(codes.Ok, "ok")
				next.ServeHTTP(w, r)
				return
			}

			username, password, ok := r.BasicAuth()
			if !ok {
				log.Tracef("[missing credentials] [auth middleware] unauthorized => %s", r.URL.Path)
				w.Header().Set("WWW-Authenticate", `Basic realm="macrotrack"`)
				http.Error(w, "no can do", http.StatusUnauthorized)
				span.SetStatus(codes.Error, "missing-credentials")
				return
			}

			if !h.checkCredentials(username, password) {
				log.Warnf("[invalid credentials] [auth middleware] user [%s] unauthorized => %s", username, r.URL.Path)
				http.Error(w, "no can do", http.StatusUnauthorized)
				span.SetStatus(codes.Error, "invalid-credentials")
				return
			}

			span.SetStatus(codes.Ok, "ok")
			next.ServeHTTP(w, r)
		})
	}
}
