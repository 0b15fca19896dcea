// Package http exposes the JSON API: auth, transactions, categories,
// dashboard, CSV export and the provisioning webhook.
package http

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"financas/internal/service"
)

const sessionCookieName = "session"

type Server struct {
	http.Server
	ledger      *service.Ledger
	accounts    *service.Accounts
	rateLimiter *rateLimiter
	ips         *ipExtractor

	secureCookies bool
	shutdownOnce  sync.Once
}

// NewServer configures routes and middleware, returning a ready-to-run
// http.Server.
func NewServer(addr string, ledger *service.Ledger, accounts *service.Accounts, secureCookies bool) *Server {
	mux := http.NewServeMux()

	s := &Server{
		Server: http.Server{
			Addr:    addr,
			Handler: mux,
		},
		ledger:        ledger,
		accounts:      accounts,
		rateLimiter:   newRateLimiter(),
		ips:           newIPExtractor(),
		secureCookies: secureCookies,
	}

	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", handleReady)

	mux.HandleFunc("POST /api/auth/signup", s.withSecurityHeaders(s.handleSignUp))
	mux.HandleFunc("POST /api/auth/signin", s.withSecurityHeaders(s.handleSignIn))
	mux.HandleFunc("POST /api/auth/signout", s.withSecurityHeaders(s.handleSignOut))
	mux.HandleFunc("GET /api/auth/session", s.withSecurityHeaders(s.requireUser(s.handleSession)))
	mux.HandleFunc("PATCH /api/auth/user", s.withSecurityHeaders(s.requireUser(s.handleUpdateUser)))

	mux.HandleFunc("GET /api/transactions", s.withSecurityHeaders(s.requireUser(s.handleListTransactions)))
	mux.HandleFunc("POST /api/transactions", s.withSecurityHeaders(s.requireUser(s.handleCreateTransaction)))
	mux.HandleFunc("PUT /api/transactions/{id}", s.withSecurityHeaders(s.requireUser(s.handleUpdateTransaction)))
	mux.HandleFunc("DELETE /api/transactions/{id}", s.withSecurityHeaders(s.requireUser(s.handleDeleteTransaction)))
	mux.HandleFunc("GET /api/transactions/export", s.withSecurityHeaders(s.requireUser(s.handleExportTransactions)))

	mux.HandleFunc("GET /api/categories", s.withSecurityHeaders(s.requireUser(s.handleListCategories)))
	mux.HandleFunc("POST /api/categories", s.withSecurityHeaders(s.requireUser(s.handleCreateCategory)))
	mux.HandleFunc("PUT /api/categories/{id}", s.withSecurityHeaders(s.requireUser(s.handleUpdateCategory)))
	mux.HandleFunc("DELETE /api/categories/{id}", s.withSecurityHeaders(s.requireUser(s.handleDeleteCategory)))

	mux.HandleFunc("GET /api/dashboard", s.withSecurityHeaders(s.requireUser(s.handleDashboard)))

	mux.HandleFunc("POST /webhook/ticto", s.withSecurityHeaders(s.handleTictoWebhook))

	return s
}

// Shutdown stops the HTTP server and background cleanup routines.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		if s.rateLimiter != nil {
			s.rateLimiter.stop()
		}
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

// withSecurityHeaders adds security headers, rate limiting on writes and
// request logging.
func (s *Server) withSecurityHeaders(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		clientIP := s.ips.clientIP(r)

		requestID := generateRequestID()
		ctx := context.WithValue(r.Context(), requestIDKey, requestID)
		r = r.WithContext(ctx)

		slog.InfoContext(ctx, "Request started",
			"request_id", requestID,
			"method", r.Method,
			"url", r.URL.Path,
			"client_ip", clientIP,
			"user_agent", r.Header.Get("User-Agent"))

		if r.Method != http.MethodGet && !s.rateLimiter.allow(clientIP) {
			slog.WarnContext(ctx, "Rate limit exceeded", "client_ip", clientIP, "method", r.Method, "url", r.URL.Path)
			w.Header().Set("Retry-After", "60")
			writeError(w, r, http.StatusTooManyRequests, "rate limit exceeded, try again later")
			return
		}

		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Content-Security-Policy", "default-src 'none'")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next(rw, r)

		duration := time.Since(start)
		slog.InfoContext(ctx, "Request completed",
			"request_id", requestID,
			"method", r.Method,
			"url", r.URL.Path,
			"status", rw.statusCode,
			"duration_ms", duration.Milliseconds(),
			"client_ip", clientIP)
	}
}

type contextKey string

const (
	requestIDKey contextKey = "request_id"
	userKey      contextKey = "user"
)

// requireUser resolves the session cookie to a user and stores it in the
// request context. Requests without a valid session get 401.
func (s *Server) requireUser(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie(sessionCookieName)
		if err != nil || cookie.Value == "" {
			writeError(w, r, http.StatusUnauthorized, "authentication required")
			return
		}

		user, err := s.accounts.UserFromSession(r.Context(), cookie.Value)
		if err != nil {
			writeError(w, r, http.StatusUnauthorized, "session expired or invalid")
			return
		}

		ctx := context.WithValue(r.Context(), userKey, user)
		next(w, r.WithContext(ctx))
	}
}

func (s *Server) setSessionCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(s.accounts.SessionTTL().Seconds()),
		HttpOnly: true,
		Secure:   s.secureCookies,
		SameSite: http.SameSiteLaxMode,
	})
}

func (s *Server) clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   s.secureCookies,
		SameSite: http.SameSiteLaxMode,
	})
}

// responseWriter wraps http.ResponseWriter to capture the status code.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func generateRequestID() string {
	bytes := make([]byte, 8)
	if _, err := rand.Read(bytes); err != nil {
		return fmt.Sprintf("req_%d", time.Now().UnixNano())
	}
	return "req_" + hex.EncodeToString(bytes)
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func handleReady(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}
