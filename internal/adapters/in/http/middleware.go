package http

import (
	"strconv"
	"time"

	"dispatch/internal/pkg/metrics"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// requestMetrics records count and latency per matched route.
func requestMetrics() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			started := time.Now()
			err := next(ctx)
			if err != nil {
				ctx.Error(err)
			}

			route := ctx.Path()
			if route == "" {
				route = "unmatched"
			}
			method := ctx.Request().Method
			metrics.HTTPRequestsTotal.WithLabelValues(route, method, strconv.Itoa(ctx.Response().Status)).Inc()
			metrics.HTTPRequestDuration.WithLabelValues(route, method).Observe(time.Since(started).Seconds())
			return nil
		}
	}
}

// requestLogger logs one debug line per request.
func requestLogger(logger *zap.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			started := time.Now()
			err := next(ctx)
			logger.Debug("request",
				zap.String("method", ctx.Request().Method),
				zap.String("path", ctx.Request().URL.Path),
				zap.Int("status", ctx.Response().Status),
				zap.Duration("duration", time.Since(started)),
			)
			return err
		}
	}
}
