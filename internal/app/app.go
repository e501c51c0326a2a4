// Package app is the application bootstrap and dependency injection root.
// It holds the shared infrastructure (database pool, prompt store, rate
// limiter, Echo instance) and wires the feature plugins onto it.
package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/keyxmakerx/promptshelf/internal/apperror"
	"github.com/keyxmakerx/promptshelf/internal/config"
	"github.com/keyxmakerx/promptshelf/internal/middleware"
	"github.com/keyxmakerx/promptshelf/internal/ratelimit"
	"github.com/keyxmakerx/promptshelf/internal/store"
	"github.com/keyxmakerx/promptshelf/internal/templates"
	"github.com/keyxmakerx/promptshelf/internal/templates/layouts"
)

// App holds all shared dependencies and the Echo HTTP server instance.
// Created once at startup in main.go.
type App struct {
	// Config holds the loaded application configuration.
	Config *config.Config

	// DB is the SQLite connection pool behind Store. Used directly only by
	// the health check.
	DB *sql.DB

	// Store is the prompt and tag data layer.
	Store store.PromptStore

	// Limiter counts mutating requests per client.
	Limiter ratelimit.Limiter

	// Echo is the HTTP server instance.
	Echo *echo.Echo
}

// New creates an App and configures the Echo server with global middleware,
// error handling, and static assets. Call RegisterRoutes before Start.
func New(cfg *config.Config, db *sql.DB, s store.PromptStore, limiter ratelimit.Limiter) *App {
	e := echo.New()

	// We log our own startup line.
	e.HideBanner = true
	e.HidePort = true

	// c.RealIP() must return the client, not the proxy, for rate limiting.
	middleware.TrustedProxies(e, middleware.DefaultTrustedProxies)

	app := &App{
		Config:  cfg,
		DB:      db,
		Store:   s,
		Limiter: limiter,
		Echo:    e,
	}

	middleware.LayoutInjector = injectLayout

	app.setupMiddleware()
	e.HTTPErrorHandler = app.errorHandler
	e.StaticFS("/static", templates.Static)

	return app
}

// setupMiddleware registers global middleware on the Echo instance.
// Order matters: outermost (recovery) runs first, innermost (rate limit) last.
func (a *App) setupMiddleware() {
	a.Echo.Use(middleware.Recovery())
	a.Echo.Use(middleware.RequestLogger())
	a.Echo.Use(middleware.SecurityHeaders())
	a.Echo.Use(middleware.CSRF())

	// After CSRF, so forged requests never consume a client's budget.
	a.Echo.Use(middleware.RateLimit(a.Limiter))
}

// injectLayout copies the CSRF token, path, and request id into the render
// context for the page shell.
func injectLayout(c echo.Context, ctx context.Context) context.Context {
	ctx = layouts.SetCSRFToken(ctx, middleware.GetCSRFToken(c))
	ctx = layouts.SetActivePath(ctx, c.Request().URL.Path)
	ctx = layouts.SetRequestID(ctx, middleware.GetRequestID(c))
	return ctx
}

// errorHandler is the custom Echo error handler. It maps AppErrors and
// Echo's own HTTP errors to a status page, or to JSON for clients that ask
// for it. Causes are logged here and never reach the page.
func (a *App) errorHandler(err error, c echo.Context) {
	// Don't double-write if response is already committed.
	if c.Response().Committed {
		return
	}

	code := http.StatusInternalServerError
	message := defaultErrorMessage(code)

	var appErr *apperror.AppError
	var echoErr *echo.HTTPError
	switch {
	case errors.As(err, &appErr):
		code = appErr.Code
		message = appErr.Message
		if appErr.Internal != nil {
			slog.Error("internal error",
				slog.String("type", appErr.Type),
				slog.Any("internal", appErr.Internal),
				slog.String("request_id", middleware.GetRequestID(c)),
				slog.String("path", c.Request().URL.Path),
			)
		}
	case errors.As(err, &echoErr):
		code = echoErr.Code
		if msg, ok := echoErr.Message.(string); ok && code < 500 {
			message = msg
		} else {
			message = defaultErrorMessage(code)
		}
	default:
		slog.Error("unhandled error",
			slog.Any("error", err),
			slog.String("request_id", middleware.GetRequestID(c)),
			slog.String("path", c.Request().URL.Path),
		)
	}

	if c.Request().Method == http.MethodHead {
		_ = c.NoContent(code)
		return
	}

	if wantsJSON(c) {
		_ = c.JSON(code, map[string]string{
			"error":   http.StatusText(code),
			"message": message,
		})
		return
	}

	if renderErr := middleware.Render(c, code, templates.ErrorPage(code, message)); renderErr != nil {
		slog.Error("rendering error page", slog.Any("error", renderErr))
	}
}

// defaultErrorMessage returns a user-friendly message for common HTTP status
// codes when the error carried none.
func defaultErrorMessage(code int) string {
	switch code {
	case http.StatusBadRequest:
		return "The request was invalid or cannot be processed."
	case http.StatusForbidden:
		return "The form expired. Reload the page and try again."
	case http.StatusNotFound:
		return "The page you're looking for doesn't exist."
	case http.StatusMethodNotAllowed:
		return "This action is not allowed."
	case http.StatusUnprocessableEntity:
		return "The submitted data could not be processed."
	case http.StatusTooManyRequests:
		return "You're making too many requests. Please slow down."
	case http.StatusServiceUnavailable:
		return "The service is temporarily unavailable. Please try again later."
	default:
		return "Something went wrong on our end. Please try again."
	}
}

// wantsJSON reports whether the client prefers JSON over an HTML page.
func wantsJSON(c echo.Context) bool {
	accept := c.Request().Header.Get(echo.HeaderAccept)
	return accept == echo.MIMEApplicationJSON ||
		c.Request().URL.Path == "/healthz"
}

// Start begins listening for HTTP requests on the configured port.
func (a *App) Start() error {
	addr := fmt.Sprintf(":%d", a.Config.Port)
	slog.Info("starting prompt shelf server",
		slog.String("addr", addr),
		slog.String("env", a.Config.Env),
		slog.String("base_url", a.Config.BaseURL),
	)
	return a.Echo.Start(addr)
}

// Shutdown drains in-flight requests until ctx expires.
func (a *App) Shutdown(ctx context.Context) error {
	return a.Echo.Shutdown(ctx)
}
