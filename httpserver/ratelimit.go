package httpserver

import (
	"errors"
	"net"
	"net/http"
	"sync"

	"golang.org/x/time/rate"
)

var errRateLimited = errors.New("rate limit exceeded")

// maxTrackedClients bounds the limiter table; it is reset when full.
const maxTrackedClients = 10000

// clientLimiter applies a token bucket per client IP.
type clientLimiter struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	limit    rate.Limit
	burst    int
}

func newClientLimiter(perSecond float64, burst int) *clientLimiter {
	if burst < 1 {
		burst = 1
	}
	return &clientLimiter{
		limiters: make(map[string]*rate.Limiter),
		limit:    rate.Limit(perSecond),
		burst:    burst,
	}
}

func (cl *clientLimiter) allow(client string) bool {
	cl.mu.Lock()
	defer cl.mu.Unlock()

	limiter, ok := cl.limiters[client]
	if !ok {
		if len(cl.limiters) >= maxTrackedClients {
			cl.limiters = make(map[string]*rate.Limiter)
		}
		limiter = rate.NewLimiter(cl.limit, cl.burst)
		cl.limiters[client] = limiter
	}
	return limiter.Allow()
}

// rateLimit rejects requests over the configured per-client rate with 429.
// It is a no-op when no rate is configured.
func (srv *Server) rateLimit(next http.Handler) http.Handler {
	if srv.limiter == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		client := r.RemoteAddr
		if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
			client = host
		}
		if !srv.limiter.allow(client) {
			srv.handler.writeError(w, r, &RequestError{StatusCode: http.StatusTooManyRequests, Err: errRateLimited})
			return
		}
		next.ServeHTTP(w, r)
	})
}
