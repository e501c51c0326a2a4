package middleware

import (
	"context"
	"errors"
	"net/http"

	"github.com/a-h/templ"
	"github.com/labstack/echo/v4"

	"github.com/keyxmakerx/promptshelf/internal/apperror"
)

// LayoutInjector copies layout data (CSRF token, active path) from the Echo
// context into the context.Context pages render with. Registered once at
// startup in app.New so this package does not import the templates.
var LayoutInjector func(echo.Context, context.Context) context.Context

// Render writes a component to the response with the given status code,
// running the LayoutInjector first when one is registered.
func Render(c echo.Context, statusCode int, component templ.Component) error {
	ctx := c.Request().Context()
	if LayoutInjector != nil {
		ctx = LayoutInjector(c, ctx)
	}

	c.Response().Header().Set(echo.HeaderContentType, echo.MIMETextHTMLCharsetUTF8)
	c.Response().WriteHeader(statusCode)
	return component.Render(ctx, c.Response().Writer)
}

// statusFromError maps a handler error to the status the error handler
// will answer with.
func statusFromError(err error) int {
	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	var httpErr *echo.HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.Code
	}
	return http.StatusInternalServerError
}
