package api

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/alexivanou/sportslocations/internal/config"
	"github.com/alexivanou/sportslocations/internal/metrics"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// RequestIDHeader carries the request id in both directions
const RequestIDHeader = "X-Request-ID"

type ctxKey int

const requestIDKey ctxKey = iota

// RequestIDFromContext returns the id set by RequestID or ""
func RequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}

// statusRecorder captures the status code written by a handler
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// RequestID reuses an incoming X-Request-ID or generates a new one
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(RequestIDHeader, id)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), requestIDKey, id)))
	})
}

// RequestLogger logs every request with timing and records prometheus metrics
func RequestLogger(logger *zap.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

			next.ServeHTTP(rec, r)

			latency := time.Since(start)
			path := routePath(r)
			if path != "/metrics" {
				metrics.HTTPRequestsTotal.WithLabelValues(r.Method, path, strconv.Itoa(rec.status)).Inc()
				metrics.HTTPRequestDuration.WithLabelValues(r.Method, path).Observe(latency.Seconds())
			}

			logger.Info("HTTP request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", rec.status),
				zap.Duration("latency", latency),
				zap.String("request_id", RequestIDFromContext(r.Context())),
				zap.String("remote_ip", remoteHost(r)),
			)
		})
	}
}

// routePath prefers the route template so ids do not explode label cardinality
func routePath(r *http.Request) string {
	if route := mux.CurrentRoute(r); route != nil {
		if tpl, err := route.GetPathTemplate(); err == nil {
			return tpl
		}
	}
	return r.URL.Path
}

// limiterEntry is the bucket of one client plus when it was last used
type limiterEntry struct {
	limiter  *rate.Limiter
	lastSeen atomic.Int64
}

// IPRateLimiter manages per-IP rate limiters. Forwarding headers are only
// honoured when the direct peer is a trusted proxy.
type IPRateLimiter struct {
	limiters sync.Map
	rate     rate.Limit
	burst    int
	trusted  []*net.IPNet
	now      func() time.Time
	logger   *zap.Logger
}

// NewIPRateLimiter creates a limiter from the server rate limit settings.
// Trusted proxies are IPs or CIDRs; unparsable entries are logged and skipped.
func NewIPRateLimiter(cfg config.ServerConfig, logger *zap.Logger) *IPRateLimiter {
	if logger == nil {
		logger = zap.NewNop()
	}
	i := &IPRateLimiter{
		rate:   rate.Limit(cfg.RateLimitRPS),
		burst:  cfg.RateLimitBurst,
		now:    time.Now,
		logger: logger,
	}
	for _, p := range cfg.TrustedProxies {
		network, err := parseNetwork(p)
		if err != nil {
			logger.Warn("Ignoring trusted proxy", zap.String("value", p), zap.Error(err))
			continue
		}
		i.trusted = append(i.trusted, network)
	}
	return i
}

func parseNetwork(s string) (*net.IPNet, error) {
	if strings.Contains(s, "/") {
		_, network, err := net.ParseCIDR(s)
		return network, err
	}
	ip := net.ParseIP(s)
	if ip == nil {
		return nil, fmt.Errorf("invalid ip %q", s)
	}
	bits := 128
	if v4 := ip.To4(); v4 != nil {
		ip, bits = v4, 32
	}
	return &net.IPNet{IP: ip, Mask: net.CIDRMask(bits, bits)}, nil
}

func (i *IPRateLimiter) getLimiter(ip string) *rate.Limiter {
	v, ok := i.limiters.Load(ip)
	if !ok {
		v, _ = i.limiters.LoadOrStore(ip, &limiterEntry{limiter: rate.NewLimiter(i.rate, i.burst)})
	}
	entry := v.(*limiterEntry)
	entry.lastSeen.Store(i.now().UnixNano())
	return entry.limiter
}

// Evict drops limiters not used for longer than idle and returns how many were removed
func (i *IPRateLimiter) Evict(idle time.Duration) int {
	cutoff := i.now().Add(-idle).UnixNano()
	removed := 0
	i.limiters.Range(func(key, v any) bool {
		if v.(*limiterEntry).lastSeen.Load() < cutoff {
			i.limiters.Delete(key)
			removed++
		}
		return true
	})
	return removed
}

// Len returns the number of tracked clients
func (i *IPRateLimiter) Len() int {
	n := 0
	i.limiters.Range(func(_, _ any) bool {
		n++
		return true
	})
	return n
}

// Middleware rejects requests over the per-IP budget with 429
func (i *IPRateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := i.clientIP(r)
		if !i.getLimiter(ip).Allow() {
			i.logger.Warn("Rate limit exceeded", zap.String("ip", ip), zap.String("path", r.URL.Path))
			http.Error(w, "rate limit exceeded", http.StatusTooManyRequests)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// clientIP returns the peer address, or the first untrusted hop of
// X-Forwarded-For (then X-Real-IP) when the peer is a trusted proxy.
func (i *IPRateLimiter) clientIP(r *http.Request) string {
	host := remoteHost(r)
	if !i.isTrusted(host) {
		return host
	}

	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		hops := strings.Split(fwd, ",")
		for j := len(hops) - 1; j >= 0; j-- {
			hop := strings.TrimSpace(hops[j])
			if net.ParseIP(hop) == nil {
				break
			}
			if !i.isTrusted(hop) {
				return hop
			}
		}
	}
	if real := strings.TrimSpace(r.Header.Get("X-Real-IP")); net.ParseIP(real) != nil {
		return real
	}
	return host
}

func (i *IPRateLimiter) isTrusted(addr string) bool {
	ip := net.ParseIP(addr)
	if ip == nil {
		return false
	}
	for _, network := range i.trusted {
		if network.Contains(ip) {
			return true
		}
	}
	return false
}

func remoteHost(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
