package prompts

import (
	"github.com/labstack/echo/v4"
)

// RegisterRoutes adds the prompt pages and actions. /prompts/new is
// registered as a static route, so it always wins over /prompts/:id.
func RegisterRoutes(e *echo.Echo, h *Handler) {
	e.GET("/", h.Index)
	e.GET("/prompts/new", h.NewPrompt)
	e.POST("/prompts", h.CreatePrompt)
	e.GET("/prompts/:id", h.Detail)
	e.GET("/prompts/:id/edit", h.EditPrompt)
	e.POST("/prompts/:id", h.UpdatePrompt)
	e.POST("/prompts/:id/touch", h.TouchPrompt)
	e.POST("/prompts/:id/delete", h.DeletePrompt)
}
