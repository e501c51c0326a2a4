package prompts

import (
	"context"
	"fmt"
	"log/slog"
	"slices"

	"github.com/keyxmakerx/promptshelf/internal/apperror"
	"github.com/keyxmakerx/promptshelf/internal/plugins/tags"
	"github.com/keyxmakerx/promptshelf/internal/store"
	"github.com/keyxmakerx/promptshelf/internal/validate"
)

// PromptService handles business logic for prompt operations. Lookups of a
// missing prompt fail with a NotFound AppError; mutations of a missing
// prompt do too, so nothing is written on its behalf.
type PromptService interface {
	List(ctx context.Context, opts store.ListOptions) ([]store.PromptWithTags, error)
	Get(ctx context.Context, id int64) (store.Prompt, error)
	TagsFor(ctx context.Context, id int64) ([]store.Tag, error)
	AllTags(ctx context.Context) ([]store.Tag, error)
	Create(ctx context.Context, form PromptForm) (int64, error)
	Update(ctx context.Context, id int64, form PromptForm) error
	Touch(ctx context.Context, id int64) error
	Delete(ctx context.Context, id int64) error
}

// promptService implements PromptService.
type promptService struct {
	store store.PromptStore
}

// NewPromptService creates a new prompt service.
func NewPromptService(s store.PromptStore) PromptService {
	return &promptService{store: s}
}

// List returns prompts with their tags in the requested order.
func (s *promptService) List(ctx context.Context, opts store.ListOptions) ([]store.PromptWithTags, error) {
	prompts, err := s.store.ListPromptsWithTags(ctx, opts)
	if err != nil {
		return nil, apperror.NewInternal(fmt.Errorf("listing prompts: %w", err))
	}
	return prompts, nil
}

// Get returns one prompt.
func (s *promptService) Get(ctx context.Context, id int64) (store.Prompt, error) {
	p, found, err := s.store.GetPrompt(ctx, id)
	if err != nil {
		return store.Prompt{}, apperror.NewInternal(fmt.Errorf("getting prompt: %w", err))
	}
	if !found {
		return store.Prompt{}, apperror.NewNotFound("prompt not found")
	}
	return p, nil
}

// TagsFor returns a prompt's tags ordered by name.
func (s *promptService) TagsFor(ctx context.Context, id int64) ([]store.Tag, error) {
	t, err := s.store.GetTagsForPrompt(ctx, id)
	if err != nil {
		return nil, apperror.NewInternal(fmt.Errorf("getting prompt tags: %w", err))
	}
	return t, nil
}

// AllTags returns every tag for the tag pickers.
func (s *promptService) AllTags(ctx context.Context) ([]store.Tag, error) {
	t, err := s.store.ListTags(ctx)
	if err != nil {
		return nil, apperror.NewInternal(fmt.Errorf("listing tags: %w", err))
	}
	return t, nil
}

// Create stores a new prompt and attaches the selected and newly typed
// tags. An empty tag selection leaves the new prompt untagged without
// touching prompt_tags.
func (s *promptService) Create(ctx context.Context, form PromptForm) (int64, error) {
	if err := validate.Struct(form); err != nil {
		return 0, apperror.NewValidation(err.Error())
	}

	id, err := s.store.CreatePrompt(ctx, form.Input())
	if err != nil {
		return 0, apperror.NewInternal(fmt.Errorf("creating prompt: %w", err))
	}

	ids, err := s.resolveTags(ctx, form)
	if err != nil {
		return 0, err
	}
	if len(ids) > 0 {
		if err := s.store.SetPromptTags(ctx, id, ids); err != nil {
			return 0, apperror.NewInternal(fmt.Errorf("tagging new prompt: %w", err))
		}
	}

	slog.Info("prompt created", slog.Int64("id", id), slog.Int("tags", len(ids)))
	return id, nil
}

// Update rewrites the prompt's text and replaces its tag set with the
// resolved selection, which may be empty.
func (s *promptService) Update(ctx context.Context, id int64, form PromptForm) error {
	if err := validate.Struct(form); err != nil {
		return apperror.NewValidation(err.Error())
	}
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}

	if err := s.store.UpdatePrompt(ctx, id, form.Input()); err != nil {
		return apperror.NewInternal(fmt.Errorf("updating prompt: %w", err))
	}

	ids, err := s.resolveTags(ctx, form)
	if err != nil {
		return err
	}
	if err := s.store.SetPromptTags(ctx, id, ids); err != nil {
		return apperror.NewInternal(fmt.Errorf("replacing prompt tags: %w", err))
	}

	slog.Info("prompt updated", slog.Int64("id", id), slog.Int("tags", len(ids)))
	return nil
}

// Touch moves a prompt to the top of the recently-updated order.
func (s *promptService) Touch(ctx context.Context, id int64) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	if err := s.store.TouchPrompt(ctx, id); err != nil {
		return apperror.NewInternal(fmt.Errorf("touching prompt: %w", err))
	}
	return nil
}

// Delete removes a prompt. Deleting a missing prompt succeeds.
func (s *promptService) Delete(ctx context.Context, id int64) error {
	if err := s.store.DeletePrompt(ctx, id); err != nil {
		return apperror.NewInternal(fmt.Errorf("deleting prompt: %w", err))
	}

	slog.Info("prompt deleted", slog.Int64("id", id))
	return nil
}

// resolveTags merges the checked tag ids with the ids of the extra tag rows,
// upserting each row by name. Rows with a blank name are skipped, a missing
// or malformed color becomes the default, and each id appears once in
// first-seen order.
func (s *promptService) resolveTags(ctx context.Context, form PromptForm) ([]int64, error) {
	ids := make([]int64, 0, len(form.TagIDs)+len(form.NewTagNames))
	for _, id := range form.TagIDs {
		if !slices.Contains(ids, id) {
			ids = append(ids, id)
		}
	}

	for i, raw := range form.NewTagNames {
		name := tags.NormalizeName(raw)
		if name == "" {
			continue
		}
		color := ""
		if i < len(form.NewTagColors) {
			color = form.NewTagColors[i]
		}

		id, err := s.store.UpsertTag(ctx, name, tags.ColorOrDefault(color))
		if err != nil {
			return nil, apperror.NewInternal(fmt.Errorf("upserting tag %q: %w", name, err))
		}
		if !slices.Contains(ids, id) {
			ids = append(ids, id)
		}
	}

	return ids, nil
}
