package api

import (
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// clientLimiter applies a token-bucket rate limit per client IP.
// Limiters for idle clients are dropped after an hour.
type clientLimiter struct {
	mu       sync.Mutex
	clients  map[string]*clientEntry
	limit    rate.Limit
	burst    int
	done     chan struct{}
	stopOnce sync.Once
}

type clientEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

func newClientLimiter(requests int, window time.Duration) *clientLimiter {
	cl := &clientLimiter{
		clients: make(map[string]*clientEntry),
		limit:   rate.Limit(float64(requests) / window.Seconds()),
		burst:   requests,
		done:    make(chan struct{}),
	}
	go cl.reap()
	return cl
}

// stop ends the reap goroutine. Safe to call more than once.
func (cl *clientLimiter) stop() {
	cl.stopOnce.Do(func() { close(cl.done) })
}

func (cl *clientLimiter) allow(clientIP string) bool {
	cl.mu.Lock()
	defer cl.mu.Unlock()

	e, ok := cl.clients[clientIP]
	if !ok {
		e = &clientEntry{limiter: rate.NewLimiter(cl.limit, cl.burst)}
		cl.clients[clientIP] = e
	}
	e.lastSeen = time.Now()
	return e.limiter.Allow()
}

func (cl *clientLimiter) reap() {
	ticker := time.NewTicker(10 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-cl.done:
			return
		case <-ticker.C:
			cl.mu.Lock()
			for ip, e := range cl.clients {
				if time.Since(e.lastSeen) > time.Hour {
					delete(cl.clients, ip)
				}
			}
			cl.mu.Unlock()
		}
	}
}

func (cl *clientLimiter) middleware(next http.Handler, logger *slog.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip, _, err := net.SplitHostPort(r.RemoteAddr)
		if err != nil {
			ip = r.RemoteAddr
		}

		if !cl.allow(ip) {
			logger.Warn("rate limit exceeded", "client", ip, "path", r.URL.Path)
			writeError(w, http.StatusTooManyRequests, "rate limit exceeded", logger)
			return
		}
		next.ServeHTTP(w, r)
	})
}
