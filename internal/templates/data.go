package templates

import (
	"github.com/keyxmakerx/promptshelf/internal/store"
)

// DefaultTagColor is preselected in every tag color input.
const DefaultTagColor = store.DefaultTagColor

// SortOption is one entry of the index sort selector.
type SortOption struct {
	Value string
	Label string
}

// SortOptions are the orderings the index page offers.
var SortOptions = []SortOption{
	{Value: string(store.SortUpdatedDesc), Label: "Recently updated"},
	{Value: string(store.SortCreatedDesc), Label: "Newest"},
}

// IndexData feeds the prompt list.
type IndexData struct {
	Title   string
	Prompts []store.PromptWithTags
	Tags    []store.Tag
	Sort    string
	Sorts   []SortOption

	// TagID is the active tag filter; zero means none.
	TagID int64
}

// FormValues are the text fields of a prompt form, echoed back on a
// rejected submission.
type FormValues struct {
	Title   string
	Summary string
	Purpose string
	Content string
}

// FormData feeds the create and edit forms.
type FormData struct {
	Title        string
	PromptID     int64
	Values       FormValues
	AllTags      []store.Tag
	SelectedIDs  []int64
	Error        string
	DefaultColor string
}

// DetailData feeds the prompt detail page.
type DetailData struct {
	Title        string
	Prompt       store.Prompt
	Tags         []store.Tag
	AllTags      []store.Tag
	TagIDs       []int64
	DefaultColor string
}

// TagsData feeds tag management.
type TagsData struct {
	Title        string
	Tags         []store.Tag
	Error        string
	Name         string
	Color        string
	DefaultColor string
}

// ErrorData feeds the error page.
type ErrorData struct {
	Title   string
	Code    int
	Message string
}
