package prompts

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/keyxmakerx/promptshelf/internal/apperror"
	"github.com/keyxmakerx/promptshelf/internal/middleware"
	"github.com/keyxmakerx/promptshelf/internal/store"
	"github.com/keyxmakerx/promptshelf/internal/templates"
)

// Handler handles prompt HTTP requests. Pages for a prompt that does not
// exist redirect to the list instead of showing a 404.
type Handler struct {
	service PromptService
}

// NewHandler creates a new prompt handler.
func NewHandler(service PromptService) *Handler {
	return &Handler{service: service}
}

// Index renders the prompt list (GET /). Accepts ?sort=updated_desc|created_desc
// and ?tag=<tag id>; unknown values are ignored.
func (h *Handler) Index(c echo.Context) error {
	ctx := c.Request().Context()

	opts := store.ListOptions{Sort: store.ParseSortOrder(c.QueryParam("sort"))}
	var tagID int64
	if id, err := strconv.ParseInt(c.QueryParam("tag"), 10, 64); err == nil && id > 0 {
		tagID = id
		opts.TagID = &tagID
	}

	prompts, err := h.service.List(ctx, opts)
	if err != nil {
		return err
	}
	allTags, err := h.service.AllTags(ctx)
	if err != nil {
		return err
	}

	return middleware.Render(c, http.StatusOK, templates.IndexPage(templates.IndexData{
		Title:   "Prompts",
		Prompts: prompts,
		Tags:    allTags,
		Sort:    string(opts.Sort),
		Sorts:   templates.SortOptions,
		TagID:   tagID,
	}))
}

// NewPrompt renders the create form (GET /prompts/new).
func (h *Handler) NewPrompt(c echo.Context) error {
	return h.renderCreate(c, http.StatusOK, templates.FormData{})
}

// CreatePrompt handles POST /prompts.
func (h *Handler) CreatePrompt(c echo.Context) error {
	var form PromptForm
	if err := c.Bind(&form); err != nil {
		return apperror.NewBadRequest("invalid prompt form")
	}

	id, err := h.service.Create(c.Request().Context(), form)
	if err != nil {
		if msg, ok := validationMessage(err); ok {
			return h.renderCreate(c, http.StatusUnprocessableEntity, templates.FormData{
				Values:      form.values(),
				SelectedIDs: form.TagIDs,
				Error:       msg,
			})
		}
		return err
	}

	return c.Redirect(http.StatusSeeOther, promptURL(id))
}

// Detail renders one prompt (GET /prompts/:id).
func (h *Handler) Detail(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	ctx := c.Request().Context()

	p, err := h.service.Get(ctx, id)
	if err != nil {
		return redirectIfNotFound(c, err)
	}
	promptTags, err := h.service.TagsFor(ctx, id)
	if err != nil {
		return err
	}
	allTags, err := h.service.AllTags(ctx)
	if err != nil {
		return err
	}

	return middleware.Render(c, http.StatusOK, templates.DetailPage(templates.DetailData{
		Title:        p.Title,
		Prompt:       p,
		Tags:         promptTags,
		AllTags:      allTags,
		TagIDs:       tagIDs(promptTags),
		DefaultColor: templates.DefaultTagColor,
	}))
}

// EditPrompt renders the edit form (GET /prompts/:id/edit).
func (h *Handler) EditPrompt(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	ctx := c.Request().Context()

	p, err := h.service.Get(ctx, id)
	if err != nil {
		return redirectIfNotFound(c, err)
	}
	promptTags, err := h.service.TagsFor(ctx, id)
	if err != nil {
		return err
	}

	return h.renderEdit(c, http.StatusOK, templates.FormData{
		PromptID:    id,
		Values:      valuesOf(p),
		SelectedIDs: tagIDs(promptTags),
	})
}

// UpdatePrompt handles POST /prompts/:id.
func (h *Handler) UpdatePrompt(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}

	var form PromptForm
	if err := c.Bind(&form); err != nil {
		return apperror.NewBadRequest("invalid prompt form")
	}

	if err := h.service.Update(c.Request().Context(), id, form); err != nil {
		if msg, ok := validationMessage(err); ok {
			return h.renderEdit(c, http.StatusUnprocessableEntity, templates.FormData{
				PromptID:    id,
				Values:      form.values(),
				SelectedIDs: form.TagIDs,
				Error:       msg,
			})
		}
		return redirectIfNotFound(c, err)
	}

	return c.Redirect(http.StatusSeeOther, promptURL(id))
}

// TouchPrompt handles POST /prompts/:id/touch.
func (h *Handler) TouchPrompt(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}

	if err := h.service.Touch(c.Request().Context(), id); err != nil {
		return redirectIfNotFound(c, err)
	}

	return c.Redirect(http.StatusSeeOther, promptURL(id))
}

// DeletePrompt handles POST /prompts/:id/delete.
func (h *Handler) DeletePrompt(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}

	if err := h.service.Delete(c.Request().Context(), id); err != nil {
		return err
	}

	return c.Redirect(http.StatusSeeOther, "/")
}

// --- Helpers ---

func (h *Handler) renderCreate(c echo.Context, code int, data templates.FormData) error {
	if err := h.fillForm(c, &data); err != nil {
		return err
	}
	data.Title = "New prompt"
	return middleware.Render(c, code, templates.CreatePage(data))
}

func (h *Handler) renderEdit(c echo.Context, code int, data templates.FormData) error {
	if err := h.fillForm(c, &data); err != nil {
		return err
	}
	data.Title = "Edit prompt"
	return middleware.Render(c, code, templates.EditPage(data))
}

// fillForm adds what every prompt form shows regardless of input.
func (h *Handler) fillForm(c echo.Context, data *templates.FormData) error {
	allTags, err := h.service.AllTags(c.Request().Context())
	if err != nil {
		return err
	}
	data.AllTags = allTags
	data.DefaultColor = templates.DefaultTagColor
	return nil
}

// parseID reads the :id path parameter.
func parseID(c echo.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return 0, apperror.NewBadRequest("invalid prompt ID")
	}
	return id, nil
}

// redirectIfNotFound sends the browser back to the list for a missing
// prompt and passes any other error through.
func redirectIfNotFound(c echo.Context, err error) error {
	if apperror.IsNotFound(err) {
		return c.Redirect(http.StatusSeeOther, "/")
	}
	return err
}

// validationMessage returns the message of a 422 AppError.
func validationMessage(err error) (string, bool) {
	var appErr *apperror.AppError
	if errors.As(err, &appErr) && appErr.Code == http.StatusUnprocessableEntity {
		return appErr.Message, true
	}
	return "", false
}

func promptURL(id int64) string {
	return fmt.Sprintf("/prompts/%d", id)
}
