package middleware

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.opentelemetry.io/otel/codes"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
)

// OTelStatusMiddleware records the response status on the request span and
// marks 5xx responses as errors. It runs after otelecho.Middleware.
func OTelStatusMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			err := next(c)

			span := trace.SpanFromContext(c.Request().Context())
			if !span.SpanContext().IsValid() {
				return err
			}

			status := c.Response().Status
			// An error not yet written by the HTTP error handler still
			// carries its eventual status.
			var he *echo.HTTPError
			if !c.Response().Committed && errors.As(err, &he) {
				status = he.Code
			} else if !c.Response().Committed && err != nil {
				status = http.StatusInternalServerError
			}

			span.SetAttributes(semconv.HTTPResponseStatusCode(status))
			if status >= http.StatusInternalServerError {
				span.SetStatus(codes.Error, http.StatusText(status))
				if err != nil {
					span.RecordError(err)
				}
			}

			return err
		}
	}
}
