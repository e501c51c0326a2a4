// Package store is the prompt shelf's data-access layer. It owns the
// prompts, tags, and prompt_tags tables and the consistency rules between
// them: tags are unique by name and created through an upsert, and a
// prompt's tag set is only ever replaced as a whole inside one transaction.
//
// Absence is a normal result here, never an error. Every error returned by
// this package is an infrastructure fault (storage or constraint) wrapped
// with %w so callers can still inspect the driver error.
package store

import (
	"fmt"
	"time"
)

// TimestampLayout is the persisted form of created_at and updated_at:
// ISO-8601, UTC, second precision, "Z" suffix. Values in this layout sort
// lexically in chronological order, which the list queries rely on.
const TimestampLayout = "2006-01-02T15:04:05Z"

// DefaultTagColor is the color given to a tag created without one.
const DefaultTagColor = "#6b7280"

// Prompt is a stored prompt record.
type Prompt struct {
	ID        int64     `json:"id"`
	Title     string    `json:"title"`
	Summary   string    `json:"summary"`
	Purpose   string    `json:"purpose"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// PromptInput carries the four user-editable text fields. Create and update
// always write all four together.
type PromptInput struct {
	Title   string
	Summary string
	Purpose string
	Content string
}

// Tag is a named, colored label, unique by name.
type Tag struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Color string `json:"color"`
}

// PromptWithTags pairs a prompt with its tags, sorted case-insensitively by name.
type PromptWithTags struct {
	Prompt
	Tags []Tag `json:"tags"`
}

// SortOrder selects the ordering of prompt lists.
type SortOrder string

const (
	// SortUpdatedDesc lists the most recently edited or touched prompts first.
	SortUpdatedDesc SortOrder = "updated_desc"

	// SortCreatedDesc lists the newest prompts first.
	SortCreatedDesc SortOrder = "created_desc"
)

// ParseSortOrder maps a query-string value to a SortOrder. Unknown or empty
// values fall back to SortUpdatedDesc instead of failing.
func ParseSortOrder(s string) SortOrder {
	switch SortOrder(s) {
	case SortCreatedDesc:
		return SortCreatedDesc
	default:
		return SortUpdatedDesc
	}
}

// orderByClause returns the ORDER BY expression for the sort order. Ties
// inside the same second fall back to id so the order is stable.
func (s SortOrder) orderByClause() string {
	switch s {
	case SortCreatedDesc:
		return "p.created_at DESC, p.id DESC"
	default:
		return "p.updated_at DESC, p.id DESC"
	}
}

// ListOptions filters and orders prompt lists.
type ListOptions struct {
	Sort SortOrder

	// TagID, when set, restricts the list to prompts carrying that tag.
	TagID *int64
}

// formatTimestamp renders t in the persisted layout.
func formatTimestamp(t time.Time) string {
	return t.UTC().Truncate(time.Second).Format(TimestampLayout)
}

// parseTimestamp reads a persisted timestamp. Rows written by older code
// with an explicit "+00:00" offset are accepted too.
func parseTimestamp(s string) (time.Time, error) {
	t, err := time.Parse(TimestampLayout, s)
	if err == nil {
		return t, nil
	}
	t, err = time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parsing timestamp %q: %w", s, err)
	}
	return t.UTC(), nil
}
