package mockapi

import (
	"context"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/PHJ369906/aox-miniapp/internal/core/domain"
	"github.com/PHJ369906/aox-miniapp/internal/telemetry/logger"
	"github.com/PHJ369906/aox-miniapp/pkg/cmap"
)

type contextKey string

const (
	ctxKeyRequestID contextKey = "request_id"
	ctxKeyUserID    contextKey = "user_id"
)

// RequestIDHeader carries the server-side request id.
const RequestIDHeader = "X-Request-ID"

func requestIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(ctxKeyRequestID).(string)
	return id
}

func userIDFrom(ctx context.Context) int64 {
	id, _ := ctx.Value(ctxKeyUserID).(int64)
	return id
}

// requestID echoes the caller's id or stamps a fresh UUID.
func requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(RequestIDHeader, id)
		ctx := context.WithValue(r.Context(), ctxKeyRequestID, id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

func accessLog(log logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(sw, r)

			attrs := []any{
				"request_id", requestIDFrom(r.Context()),
				"method", r.Method,
				"path", r.URL.Path,
				"status", sw.status,
				"duration_ms", time.Since(start).Milliseconds(),
			}
			if sw.status >= 500 {
				log.Error("request completed with error", attrs...)
			} else {
				log.Debug("request completed", attrs...)
			}
		})
	}
}

func recoverer(log logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					log.Error("panic recovered",
						"request_id", requestIDFrom(r.Context()),
						"path", r.URL.Path,
						"error", rec,
					)
					writeEnvelope(w, http.StatusInternalServerError, 500, "internal server error", nil)
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// requireAuth rejects requests without a valid credential.
func (s *Server) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw := domain.StripBearerScheme(strings.TrimSpace(r.Header.Get("Authorization")))
		if raw == "" {
			s.writeExpired(w, "missing credential")
			return
		}
		id, err := s.tokens.verify(raw, s.generation.Load())
		if err != nil {
			s.log.Debug("credential rejected", "request_id", requestIDFrom(r.Context()), "error", err)
			s.writeExpired(w, "session expired, please log in again")
			return
		}
		if _, ok := s.profile(id); !ok {
			s.writeExpired(w, "unknown user")
			return
		}
		ctx := context.WithValue(r.Context(), ctxKeyUserID, id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// maxIdleLimiters bounds the registry before refilled buckets are pruned.
const maxIdleLimiters = 1024

// limiterRegistry hands out one token bucket per client.
type limiterRegistry struct {
	limiters *cmap.Map[string, *rate.Limiter]
	limit    rate.Limit
	burst    int
}

func newLimiterRegistry(perSecond float64, burst int) *limiterRegistry {
	return &limiterRegistry{
		limiters: cmap.New[string, *rate.Limiter](),
		limit:    rate.Limit(perSecond),
		burst:    burst,
	}
}

func (r *limiterRegistry) get(key string) *rate.Limiter {
	if r.limiters.Count() > maxIdleLimiters {
		r.prune()
	}
	return r.limiters.GetOrCompute(key, func() *rate.Limiter {
		return rate.NewLimiter(r.limit, r.burst)
	})
}

// prune drops buckets that have refilled; a fresh one behaves the same.
func (r *limiterRegistry) prune() int {
	return r.limiters.DeleteFunc(func(_ string, l *rate.Limiter) bool {
		return l.Tokens() >= float64(r.burst)
	})
}

// throttle limits login attempts per client address.
func (s *Server) throttle(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !s.limiters.get(clientIP(r)).Allow() {
			w.Header().Set("Retry-After", "1")
			writeEnvelope(w, http.StatusTooManyRequests, http.StatusTooManyRequests, "too many login attempts", nil)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func clientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		return strings.TrimSpace(first)
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
