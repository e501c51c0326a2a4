package tags

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/keyxmakerx/promptshelf/internal/apperror"
	"github.com/keyxmakerx/promptshelf/internal/store"
	"github.com/keyxmakerx/promptshelf/internal/validate"
)

// TagService handles business logic for tag management.
type TagService interface {
	List(ctx context.Context) ([]store.Tag, error)
	Create(ctx context.Context, form CreateTagForm) (int64, error)
	UpdateColor(ctx context.Context, id int64, form UpdateTagForm) error
	Delete(ctx context.Context, id int64) error
}

// tagService implements TagService.
type tagService struct {
	store TagStore
}

// NewTagService creates a new tag service.
func NewTagService(s TagStore) TagService {
	return &tagService{store: s}
}

// List returns all tags ordered by name.
func (s *tagService) List(ctx context.Context) ([]store.Tag, error) {
	tags, err := s.store.ListTags(ctx)
	if err != nil {
		return nil, apperror.NewInternal(fmt.Errorf("listing tags: %w", err))
	}
	return tags, nil
}

// Create upserts a tag by its normalized name. Creating a name that already
// exists returns the existing tag's id and leaves its color alone.
func (s *tagService) Create(ctx context.Context, form CreateTagForm) (int64, error) {
	form.Name = NormalizeName(form.Name)
	form.Color = NormalizeColor(form.Color)
	if err := validate.Struct(form); err != nil {
		return 0, apperror.NewValidation(err.Error())
	}

	id, err := s.store.UpsertTag(ctx, form.Name, form.Color)
	if err != nil {
		return 0, apperror.NewInternal(fmt.Errorf("upserting tag: %w", err))
	}

	slog.Info("tag saved", slog.Int64("id", id), slog.String("name", form.Name))
	return id, nil
}

// UpdateColor recolors a tag. A missing tag is not an error.
func (s *tagService) UpdateColor(ctx context.Context, id int64, form UpdateTagForm) error {
	form.Color = NormalizeColor(form.Color)
	if err := validate.Struct(form); err != nil {
		return apperror.NewValidation(err.Error())
	}

	if err := s.store.UpdateTagColor(ctx, id, form.Color); err != nil {
		return apperror.NewInternal(fmt.Errorf("updating tag color: %w", err))
	}
	return nil
}

// Delete removes a tag from the shelf and from every prompt carrying it.
func (s *tagService) Delete(ctx context.Context, id int64) error {
	if err := s.store.DeleteTag(ctx, id); err != nil {
		return apperror.NewInternal(fmt.Errorf("deleting tag: %w", err))
	}

	slog.Info("tag deleted", slog.Int64("id", id))
	return nil
}
