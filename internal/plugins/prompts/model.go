// Package prompts serves the prompt pages: the list, create and edit
// forms, detail view, and the touch and delete actions. Tag rows typed into
// a prompt form are created on the fly through the tags package rules.
package prompts

import (
	"strings"

	"github.com/keyxmakerx/promptshelf/internal/store"
	"github.com/keyxmakerx/promptshelf/internal/templates"
)

// PromptForm is the body of POST /prompts and POST /prompts/:id.
// NewTagNames and NewTagColors are parallel lists, one entry per extra
// tag row on the form.
type PromptForm struct {
	Title        string   `form:"title" validate:"notblank"`
	Summary      string   `form:"summary" validate:"notblank"`
	Purpose      string   `form:"purpose" validate:"notblank"`
	Content      string   `form:"content" validate:"notblank"`
	TagIDs       []int64  `form:"tag_ids"`
	NewTagNames  []string `form:"new_tag_names"`
	NewTagColors []string `form:"new_tag_colors"`
}

// Input returns the text fields to store. Title and summary are single-line
// and get trimmed; purpose and content keep their whitespace.
func (f PromptForm) Input() store.PromptInput {
	return store.PromptInput{
		Title:   strings.TrimSpace(f.Title),
		Summary: strings.TrimSpace(f.Summary),
		Purpose: f.Purpose,
		Content: f.Content,
	}
}

// values echoes the submitted text back into a re-rendered form.
func (f PromptForm) values() templates.FormValues {
	return templates.FormValues{
		Title:   f.Title,
		Summary: f.Summary,
		Purpose: f.Purpose,
		Content: f.Content,
	}
}

// valuesOf fills an edit form from a stored prompt.
func valuesOf(p store.Prompt) templates.FormValues {
	return templates.FormValues{
		Title:   p.Title,
		Summary: p.Summary,
		Purpose: p.Purpose,
		Content: p.Content,
	}
}

// tagIDs lists the ids of tags.
func tagIDs(tags []store.Tag) []int64 {
	ids := make([]int64, 0, len(tags))
	for _, t := range tags {
		ids = append(ids, t.ID)
	}
	return ids
}
