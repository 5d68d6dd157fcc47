package httpapi

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/manup/agenda/internal/common"
)

type ctxKey string

const accountIDKey ctxKey = "accountID"

func accountIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(accountIDKey).(string)
	return id
}

// requireAuth rejects requests without a bearer header with 401 and
// requests carrying an unusable token with 403.
func (rt *Router) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, err := bearerToken(r.Header.Get(common.AuthorizationHeaderName))
		if err != nil {
			writeError(w, http.StatusUnauthorized, msgAuthRequired)
			return
		}

		claims, err := rt.auth.Authenticate(r.Context(), token)
		if err != nil {
			rt.logger.Warn(r.Context(), "token rejected", "path", r.URL.Path, "request_id", middleware.GetReqID(r.Context()))
			writeError(w, http.StatusForbidden, msgForbidden)
			return
		}

		ctx := context.WithValue(r.Context(), accountIDKey, claims.AccountID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func bearerToken(header string) (string, error) {
	if strings.TrimSpace(header) == "" {
		return "", errors.New("missing authorization header")
	}
	parts := strings.Fields(header)
	if len(parts) != 2 || !strings.EqualFold(parts[0], common.BearerScheme) {
		return "", errors.New("invalid authorization header format")
	}
	return parts[1], nil
}

// rateLimit caps requests per client address for one route.
func (rt *Router) rateLimit(route string, limit int) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if rt.limiter == nil {
				next.ServeHTTP(w, r)
				return
			}

			d := rt.limiter.Allow(route+":"+clientIP(r), limit, rateWindow)
			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(limit))
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(d.Remaining(limit)))
			if !d.Allowed {
				retry := d.RetryAfter(rt.now())
				w.Header().Set("Retry-After", strconv.Itoa(int(retry/time.Second)))
				rt.metrics.recordRateLimitHit(route)
				rt.logger.Warn(r.Context(), "rate limit exceeded", "route", route, "request_id", middleware.GetReqID(r.Context()))
				writeError(w, http.StatusTooManyRequests, msgTooManyRequests)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	if host == "" {
		return "unknown"
	}
	return host
}

func (rt *Router) accessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := rt.now()

		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		elapsed := rt.now().Sub(start)
		rt.metrics.recordRequest(r, status, elapsed)
		rt.logger.Info(r.Context(), "request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", status,
			"bytes", ww.BytesWritten(),
			"duration", elapsed,
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}
