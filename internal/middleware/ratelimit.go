package middleware

import (
	"log/slog"
	"math"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/keyxmakerx/promptshelf/internal/apperror"
	"github.com/keyxmakerx/promptshelf/internal/ratelimit"
)

// RateLimit returns middleware that counts mutating requests per client IP
// against the limiter. Reads are never counted. When the limiter backend is
// unreachable the request goes through and the failure is logged.
func RateLimit(limiter ratelimit.Limiter) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			if isSafeMethod(req.Method) {
				return next(c)
			}

			ip := c.RealIP()
			res, err := limiter.Allow(req.Context(), ip)
			if err != nil {
				slog.Warn("rate limiter unavailable, allowing request",
					slog.String("remote_ip", ip),
					slog.Any("error", err),
				)
				return next(c)
			}

			if !res.Allowed {
				seconds := int(math.Ceil(res.RetryAfter.Seconds()))
				if seconds < 1 {
					seconds = 1
				}
				c.Response().Header().Set("Retry-After", strconv.Itoa(seconds))
				return apperror.NewTooManyRequests("Too many requests. Please wait a moment and try again.")
			}

			return next(c)
		}
	}
}
