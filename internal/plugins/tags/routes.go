package tags

import (
	"github.com/labstack/echo/v4"
)

// RegisterRoutes adds tag management routes. Mutations are POSTs so plain
// HTML forms can reach them.
func RegisterRoutes(e *echo.Echo, h *Handler) {
	e.GET("/tags", h.TagsPage)
	e.POST("/tags", h.CreateTag)
	e.POST("/tags/:id/update", h.UpdateTag)
	e.POST("/tags/:id/delete", h.DeleteTag)
}
