package http

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/bradstire/wst-reader/internal/telemetry"
)

const headerRequestID = "X-Request-Id"

type requestIDKey struct{}

// RequestID returns the id RequestIDMiddleware stored in ctx, or "".
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

// RequestIDMiddleware keeps the caller's X-Request-Id or assigns a UUID,
// echoes it back and stores it on the request context.
func RequestIDMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			id := req.Header.Get(headerRequestID)
			if id == "" {
				id = uuid.NewString()
			}
			c.Response().Header().Set(headerRequestID, id)
			c.SetRequest(req.WithContext(context.WithValue(req.Context(), requestIDKey{}, id)))
			return next(c)
		}
	}
}

// TracingMiddleware opens one span per request, named after the route.
func TracingMiddleware() echo.MiddlewareFunc {
	tracer := telemetry.Tracer("github.com/bradstire/wst-reader/http")
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			ctx, span := tracer.Start(req.Context(), req.Method+" "+c.Path())
			defer span.End()
			c.SetRequest(req.WithContext(ctx))

			err := next(c)
			status := c.Response().Status
			span.SetAttributes(
				attribute.String("http.request.method", req.Method),
				attribute.String("http.route", c.Path()),
				attribute.Int("http.response.status_code", status),
				attribute.String("wst.request_id", RequestID(ctx)),
			)
			if status >= http.StatusInternalServerError {
				span.SetStatus(codes.Error, http.StatusText(status))
			}
			return err
		}
	}
}

// LoggingMiddleware logs each request once. Server errors log at error
// level, client errors at warn.
func LoggingMiddleware(logger *slog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)

			status := c.Response().Status
			level := slog.LevelInfo
			switch {
			case status >= http.StatusInternalServerError:
				level = slog.LevelError
			case status >= http.StatusBadRequest:
				level = slog.LevelWarn
			}
			logger.Log(c.Request().Context(), level, "request",
				"request_id", RequestID(c.Request().Context()),
				"method", c.Request().Method,
				"route", c.Path(),
				"path", c.Request().URL.Path,
				"status", status,
				"bytes_out", c.Response().Size,
				"latency_ms", time.Since(start).Milliseconds(),
			)
			return err
		}
	}
}
