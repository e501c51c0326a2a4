package app

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/keyxmakerx/promptshelf/internal/plugins/prompts"
	"github.com/keyxmakerx/promptshelf/internal/plugins/tags"
)

// healthTimeout bounds the database ping of /healthz.
const healthTimeout = 2 * time.Second

// RegisterRoutes sets up all application routes. This is the single place
// where feature routes are aggregated.
func (a *App) RegisterRoutes() {
	e := a.Echo

	e.GET("/healthz", a.healthz)

	promptHandler := prompts.NewHandler(prompts.NewPromptService(a.Store))
	prompts.RegisterRoutes(e, promptHandler)

	tagHandler := tags.NewHandler(tags.NewTagService(a.Store))
	tags.RegisterRoutes(e, tagHandler)
}

// healthz reports whether the database answers (GET /healthz).
func (a *App) healthz(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), healthTimeout)
	defer cancel()

	if err := a.DB.PingContext(ctx); err != nil {
		slog.Error("health check failed", slog.Any("error", err))
		return c.JSON(http.StatusServiceUnavailable, map[string]string{
			"status":   "unavailable",
			"database": "unreachable",
		})
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "ok", "database": "ok"})
}
