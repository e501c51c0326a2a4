// Package tags manages the colored labels attached to prompts: listing,
// creating by name, recoloring, and deleting them.
package tags

import (
	"context"
	"strings"

	"github.com/keyxmakerx/promptshelf/internal/sanitize"
	"github.com/keyxmakerx/promptshelf/internal/store"
	"github.com/keyxmakerx/promptshelf/internal/validate"
)

// TagStore is the slice of store.PromptStore this package needs.
type TagStore interface {
	ListTags(ctx context.Context) ([]store.Tag, error)
	UpsertTag(ctx context.Context, name, color string) (int64, error)
	UpdateTagColor(ctx context.Context, id int64, color string) error
	DeleteTag(ctx context.Context, id int64) error
}

// CreateTagForm is the body of POST /tags.
type CreateTagForm struct {
	Name  string `form:"name" validate:"notblank"`
	Color string `form:"color" validate:"omitempty,tagcolor"`
}

// UpdateTagForm is the body of POST /tags/:id/update.
type UpdateTagForm struct {
	Color string `form:"color" validate:"omitempty,tagcolor"`
}

// NormalizeName reduces a submitted tag name to trimmed plain text.
func NormalizeName(name string) string {
	return sanitize.PlainText(name)
}

// NormalizeColor trims a submitted color and substitutes the default for
// an empty one. The result is not validated.
func NormalizeColor(color string) string {
	color = strings.TrimSpace(color)
	if color == "" {
		return store.DefaultTagColor
	}
	return color
}

// ColorOrDefault is NormalizeColor for inputs that cannot be rejected, such
// as the extra tag rows of a prompt form: anything that is not #rrggbb
// becomes the default color.
func ColorOrDefault(color string) string {
	color = NormalizeColor(color)
	if !validate.IsTagColor(color) {
		return store.DefaultTagColor
	}
	return color
}
