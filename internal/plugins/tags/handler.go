package tags

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/keyxmakerx/promptshelf/internal/apperror"
	"github.com/keyxmakerx/promptshelf/internal/middleware"
	"github.com/keyxmakerx/promptshelf/internal/templates"
)

// Handler handles tag management HTTP requests.
type Handler struct {
	service TagService
}

// NewHandler creates a new tag handler.
func NewHandler(service TagService) *Handler {
	return &Handler{service: service}
}

// TagsPage renders tag management (GET /tags).
func (h *Handler) TagsPage(c echo.Context) error {
	return h.renderPage(c, http.StatusOK, templates.TagsData{})
}

// CreateTag handles POST /tags.
func (h *Handler) CreateTag(c echo.Context) error {
	var form CreateTagForm
	if err := c.Bind(&form); err != nil {
		return apperror.NewBadRequest("invalid tag form")
	}

	if _, err := h.service.Create(c.Request().Context(), form); err != nil {
		if msg, ok := validationMessage(err); ok {
			return h.renderPage(c, http.StatusUnprocessableEntity, templates.TagsData{
				Error: msg,
				Name:  form.Name,
				Color: form.Color,
			})
		}
		return err
	}

	return c.Redirect(http.StatusSeeOther, "/tags")
}

// UpdateTag handles POST /tags/:id/update.
func (h *Handler) UpdateTag(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}

	var form UpdateTagForm
	if err := c.Bind(&form); err != nil {
		return apperror.NewBadRequest("invalid tag form")
	}

	if err := h.service.UpdateColor(c.Request().Context(), id, form); err != nil {
		if msg, ok := validationMessage(err); ok {
			return h.renderPage(c, http.StatusUnprocessableEntity, templates.TagsData{Error: msg})
		}
		return err
	}

	return c.Redirect(http.StatusSeeOther, "/tags")
}

// DeleteTag handles POST /tags/:id/delete.
func (h *Handler) DeleteTag(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}

	if err := h.service.Delete(c.Request().Context(), id); err != nil {
		return err
	}

	return c.Redirect(http.StatusSeeOther, "/tags")
}

// renderPage fills in the tag list and renders the page with status code.
func (h *Handler) renderPage(c echo.Context, code int, data templates.TagsData) error {
	tags, err := h.service.List(c.Request().Context())
	if err != nil {
		return err
	}

	data.Title = "Tags"
	data.Tags = tags
	data.DefaultColor = templates.DefaultTagColor
	return middleware.Render(c, code, templates.TagsPage(data))
}

// parseID reads the :id path parameter.
func parseID(c echo.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return 0, apperror.NewBadRequest("invalid tag ID")
	}
	return id, nil
}

// validationMessage returns the message of a 422 AppError.
func validationMessage(err error) (string, bool) {
	var appErr *apperror.AppError
	if errors.As(err, &appErr) && appErr.Code == http.StatusUnprocessableEntity {
		return appErr.Message, true
	}
	return "", false
}
