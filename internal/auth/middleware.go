package auth

import (
	"context"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

type contextKey struct{}

// ResidentID returns the resident authenticated for the request, or 0.
func ResidentID(ctx context.Context) int64 {
	id, _ := ctx.Value(contextKey{}).(int64)
	return id
}

// WithResidentID returns a context carrying the resident ID.
func WithResidentID(ctx context.Context, id int64) context.Context {
	return context.WithValue(ctx, contextKey{}, id)
}

const (
	rateLimitWindow  = 1 * time.Minute
	rateLimitMaxFail = 10
)

// failureLimiter tracks failed API key attempts per IP.
type failureLimiter struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
}

func newFailureLimiter() *failureLimiter {
	return &failureLimiter{limiters: make(map[string]*rate.Limiter)}
}

func (fl *failureLimiter) get(ip string) *rate.Limiter {
	fl.mu.Lock()
	defer fl.mu.Unlock()

	lim, ok := fl.limiters[ip]
	if !ok {
		lim = rate.NewLimiter(rate.Every(rateLimitWindow/rateLimitMaxFail), rateLimitMaxFail)
		fl.limiters[ip] = lim
	}
	return lim
}

// blocked reports whether ip has used up its failure budget.
func (fl *failureLimiter) blocked(ip string) bool {
	return fl.get(ip).Tokens() < 1
}

func (fl *failureLimiter) recordFailure(ip string) {
	fl.get(ip).Allow()
}

// RequireAPIKey is middleware that validates Bearer token auth for /api/ routes.
// Non-API routes pass through untouched. The resident owning the key is
// stored in the request context.
// Returns 401 for missing/invalid keys, 429 for rate-limited IPs.
// onFailure, if set, is called for every rejected key.
func RequireAPIKey(apiKeys *APIKeyStore, onFailure func(), next http.Handler) http.Handler {
	limiter := newFailureLimiter()
	fail := func() {
		if onFailure != nil {
			onFailure()
		}
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasPrefix(r.URL.Path, "/api/") {
			next.ServeHTTP(w, r)
			return
		}

		ip := clientIP(r)

		authHeader := r.Header.Get("Authorization")
		if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
			fail()
			http.Error(w, "Authorization required", http.StatusUnauthorized)
			return
		}

		key := strings.TrimPrefix(authHeader, "Bearer ")

		if limiter.blocked(ip) {
			http.Error(w, "Too many requests", http.StatusTooManyRequests)
			return
		}

		residentID, err := apiKeys.Validate(key)
		if err != nil {
			http.Error(w, "Internal error", http.StatusInternalServerError)
			return
		}
		if residentID == 0 {
			limiter.recordFailure(ip)
			fail()
			http.Error(w, "Invalid API key", http.StatusUnauthorized)
			return
		}

		next.ServeHTTP(w, r.WithContext(WithResidentID(r.Context(), residentID)))
	})
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
