// Package middleware provides the HTTP middleware stack of the API.
package middleware

import (
	"fmt"
	"net"
	"net/http"
	"net/netip"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/shashiranjanraj/parcelhub/pkg/response"
	"golang.org/x/time/rate"
)

// visitor is one client's token bucket.
type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter holds a token bucket per client IP.
type RateLimiter struct {
	rps   rate.Limit
	burst int

	mu       sync.Mutex
	visitors map[string]*visitor
}

// NewRateLimiter allows rps requests per second per IP with the given burst.
func NewRateLimiter(rps float64, burst int) *RateLimiter {
	return &RateLimiter{
		rps:      rate.Limit(rps),
		burst:    burst,
		visitors: make(map[string]*visitor),
	}
}

// Allow reports whether a request from ip may proceed now.
func (l *RateLimiter) Allow(ip string) bool {
	l.mu.Lock()
	v, ok := l.visitors[ip]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(l.rps, l.burst)}
		l.visitors[ip] = v
	}
	v.lastSeen = time.Now()
	l.mu.Unlock()

	return v.limiter.Allow()
}

// Sweep drops visitors idle for longer than idle. Returns how many were removed.
func (l *RateLimiter) Sweep(idle time.Duration) int {
	cutoff := time.Now().Add(-idle)

	l.mu.Lock()
	defer l.mu.Unlock()

	n := 0
	for ip, v := range l.visitors {
		if v.lastSeen.Before(cutoff) {
			delete(l.visitors, ip)
			n++
		}
	}
	return n
}

// Run sweeps idle visitors every minute until stop is closed.
func (l *RateLimiter) Run(stop <-chan struct{}) {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			l.Sweep(3 * time.Minute)
		case <-stop:
			return
		}
	}
}

// Middleware rejects requests over the limit with 429.
func (l *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !l.Allow(ClientIP(r)) {
			response.TooManyRequests(w)
			return
		}
		next.ServeHTTP(w, r)
	})
}

var trustedProxies atomic.Pointer[[]netip.Prefix]

// SetTrustedProxies lists the reverse proxies (IPs or CIDRs) whose
// X-Forwarded-For and X-Real-Ip headers ClientIP honours. An empty list
// means forwarding headers are ignored.
func SetTrustedProxies(entries []string) error {
	prefixes := make([]netip.Prefix, 0, len(entries))
	for _, e := range entries {
		e = strings.TrimSpace(e)
		if e == "" {
			continue
		}
		if !strings.Contains(e, "/") {
			addr, err := netip.ParseAddr(e)
			if err != nil {
				return fmt.Errorf("middleware: trusted proxy %q: %w", e, err)
			}
			prefixes = append(prefixes, netip.PrefixFrom(addr.Unmap(), addr.Unmap().BitLen()))
			continue
		}
		p, err := netip.ParsePrefix(e)
		if err != nil {
			return fmt.Errorf("middleware: trusted proxy %q: %w", e, err)
		}
		prefixes = append(prefixes, p.Masked())
	}
	trustedProxies.Store(&prefixes)
	return nil
}

func isTrustedProxy(ip string) bool {
	list := trustedProxies.Load()
	if list == nil || len(*list) == 0 {
		return false
	}
	addr, err := netip.ParseAddr(strings.TrimSpace(ip))
	if err != nil {
		return false
	}
	addr = addr.Unmap()
	for _, p := range *list {
		if p.Contains(addr) {
			return true
		}
	}
	return false
}

// ClientIP returns the caller's address. Forwarding headers count only when
// the request comes from a trusted proxy; X-Forwarded-For is then walked from
// the right and the first hop that is not itself a trusted proxy wins.
func ClientIP(r *http.Request) string {
	remote := r.RemoteAddr
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		remote = host
	}
	if !isTrustedProxy(remote) {
		return remote
	}

	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		hops := strings.Split(fwd, ",")
		for i := len(hops) - 1; i >= 0; i-- {
			hop := strings.TrimSpace(hops[i])
			if hop != "" && !isTrustedProxy(hop) {
				return hop
			}
		}
	}
	if real := strings.TrimSpace(r.Header.Get("X-Real-Ip")); real != "" {
		return real
	}
	return remote
}
