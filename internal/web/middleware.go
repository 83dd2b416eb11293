package web

import (
	"net"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/puzpuzpuz/xsync/v3"
	"golang.org/x/time/rate"
)

// Middleware decorates a handler.
type Middleware func(http.HandlerFunc) http.HandlerFunc

// use wraps h so the first middleware runs outermost.
func use(h http.HandlerFunc, middleware ...Middleware) http.HandlerFunc {
	for i := len(middleware) - 1; i >= 0; i-- {
		h = middleware[i](h)
	}
	return h
}

type statusRecorder struct {
	http.ResponseWriter
	status int
	bytes  int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (r *statusRecorder) Write(b []byte) (int, error) {
	if r.status == 0 {
		r.status = http.StatusOK
	}
	n, err := r.ResponseWriter.Write(b)
	r.bytes += n
	return n, err
}

func (h *Handler) accessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w}
		next.ServeHTTP(rec, r)

		if rec.status == 0 {
			rec.status = http.StatusOK
		}
		h.logger.Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"bytes", rec.bytes,
			"duration", time.Since(start),
			"remote", clientIP(r),
		)
	})
}

// requireAuth answers 401 with a login redirect when no user is logged in,
// remembering the requested path so login can send the user back.
func (h *Handler) requireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess := h.session(r)
		if sess.username() != "" {
			next(w, r)
			return
		}

		sess.setRelayState(r.URL.RequestURI())
		if err := sess.save(w); err != nil {
			h.writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusUnauthorized, redirectBody{Redirect: "/login"})
	}
}

func (h *Handler) rateLimitLogin(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !h.limiter.Allow(clientIP(r)) {
			h.logger.Warn("login rate limited", "remote", clientIP(r))
			writeJSON(w, http.StatusTooManyRequests, errorBody{Error: "too many login attempts, try again later"})
			return
		}
		next(w, r)
	}
}

// loginLimiter keeps one token bucket per client. A bucket left alone for
// longer than burst/rate is full again, so it is dropped; the next attempt
// from that client starts a fresh, identical one.
type loginLimiter struct {
	limit    rate.Limit
	burst    int
	idle     time.Duration
	now      func() time.Time
	limiters *xsync.MapOf[string, *clientLimiter]

	lastSweep atomic.Int64
}

type clientLimiter struct {
	limiter  *rate.Limiter
	lastSeen atomic.Int64
}

// newLoginLimiter allows perSecond attempts with the given burst. A
// non-positive rate disables limiting.
func newLoginLimiter(perSecond float64, burst int) *loginLimiter {
	limit := rate.Limit(perSecond)
	if perSecond <= 0 {
		limit = rate.Inf
	}
	if burst < 1 {
		burst = 1
	}

	l := &loginLimiter{
		limit:    limit,
		burst:    burst,
		now:      time.Now,
		limiters: xsync.NewMapOf[string, *clientLimiter](),
	}
	if limit != rate.Inf {
		l.idle = time.Duration(float64(burst) / perSecond * float64(time.Second))
	}
	l.lastSweep.Store(l.now().UnixNano())
	return l
}

func (l *loginLimiter) Allow(client string) bool {
	if l.limit == rate.Inf {
		return true
	}

	now := l.now()
	entry, _ := l.limiters.LoadOrCompute(client, func() *clientLimiter {
		return &clientLimiter{limiter: rate.NewLimiter(l.limit, l.burst)}
	})
	entry.lastSeen.Store(now.UnixNano())
	allowed := entry.limiter.AllowN(now, 1)

	l.sweep(now)
	return allowed
}

// sweep drops idle buckets, at most once per idle period.
func (l *loginLimiter) sweep(now time.Time) {
	last := l.lastSweep.Load()
	if now.UnixNano()-last < int64(l.idle) || !l.lastSweep.CompareAndSwap(last, now.UnixNano()) {
		return
	}

	cutoff := now.Add(-l.idle).UnixNano()
	l.limiters.Range(func(client string, entry *clientLimiter) bool {
		l.limiters.Compute(client, func(current *clientLimiter, loaded bool) (*clientLimiter, bool) {
			return current, !loaded || current.lastSeen.Load() < cutoff
		})
		return true
	})
}

func (l *loginLimiter) size() int {
	return l.limiters.Size()
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
