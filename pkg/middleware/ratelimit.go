package middleware

import (
	"encoding/json"
	"log/slog"
	"math"
	"net"
	"net/http"
	"strconv"
	"strings"

	"github.com/JaimeStill/intake/pkg/ratelimit"
)

type rateLimitBody struct {
	Success    bool   `json:"success"`
	Message    string `json:"message"`
	RetryAfter int    `json:"retryAfter"`
}

// RateLimit returns middleware that rejects requests over the limiter's allowance
// with 429 and a retryAfter hint in seconds. Store failures let the request through.
func RateLimit(limiter *ratelimit.Limiter, trustProxy bool, logger *slog.Logger) func(http.Handler) http.Handler {
	rule := limiter.Rule()

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			res, err := limiter.Allow(r.Context(), ClientAddr(r, trustProxy))
			if err != nil {
				logger.Warn("rate limit check failed", "error", err)
			}

			w.Header().Set("RateLimit-Limit", strconv.Itoa(res.Limit))
			w.Header().Set("RateLimit-Remaining", strconv.Itoa(res.Remaining))

			if !res.Allowed {
				retry := max(int(math.Ceil(res.RetryAfter.Seconds())), 1)
				w.Header().Set("Retry-After", strconv.Itoa(retry))
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusTooManyRequests)
				json.NewEncoder(w).Encode(rateLimitBody{
					Success:    false,
					Message:    rule.Message,
					RetryAfter: retry,
				})
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// ClientAddr returns the requesting client's IP. When trustProxy is set the
// first X-Forwarded-For entry wins over the socket address.
func ClientAddr(r *http.Request, trustProxy bool) string {
	if trustProxy {
		if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
			first, _, _ := strings.Cut(fwd, ",")
			if ip := strings.TrimSpace(first); ip != "" {
				return ip
			}
		}
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
