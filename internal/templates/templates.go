// Package templates renders the prompt shelf's HTML pages. Pages are
// html/template files embedded in the binary, each parsed together with the
// shared layout, and exposed as templ.Component values so handlers render
// them through middleware.Render like any other component.
package templates

import (
	"context"
	"embed"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"slices"
	"time"

	"github.com/a-h/templ"

	"github.com/keyxmakerx/promptshelf/internal/templates/layouts"
)

//go:embed views/*.html
var viewFiles embed.FS

//go:embed static
var staticFiles embed.FS

// Static is the asset tree served under /static.
var Static = mustSub(staticFiles, "static")

// pageNames lists every view that renders inside the layout.
var pageNames = []string{"index", "create", "edit", "detail", "tags", "error"}

var pages = mustParsePages()

// view is what every page template executes against.
type view struct {
	Layout layouts.Data
	Page   any
}

var funcs = template.FuncMap{
	"date": func(t time.Time) string {
		return t.Format("2006-01-02")
	},
	"contains": func(ids []int64, id int64) bool {
		return slices.Contains(ids, id)
	},
	"isActive": func(active, path string) bool {
		return active == path
	},
}

func mustParsePages() map[string]*template.Template {
	base := template.Must(template.New("layout.html").Funcs(funcs).ParseFS(viewFiles,
		"views/layout.html", "views/partials.html"))

	parsed := make(map[string]*template.Template, len(pageNames))
	for _, name := range pageNames {
		t := template.Must(base.Clone())
		parsed[name] = template.Must(t.ParseFS(viewFiles, "views/"+name+".html"))
	}
	return parsed
}

func mustSub(fsys fs.FS, dir string) fs.FS {
	sub, err := fs.Sub(fsys, dir)
	if err != nil {
		panic(err)
	}
	return sub
}

// page returns a component that executes the named view inside the layout.
func page(name string, data any) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		t, ok := pages[name]
		if !ok {
			return fmt.Errorf("unknown page %q", name)
		}
		if err := t.ExecuteTemplate(w, "layout", view{Layout: layouts.FromContext(ctx), Page: data}); err != nil {
			return fmt.Errorf("rendering %s page: %w", name, err)
		}
		return nil
	})
}

// IndexPage lists prompts as cards.
func IndexPage(d IndexData) templ.Component { return page("index", d) }

// CreatePage is the new-prompt form.
func CreatePage(d FormData) templ.Component { return page("create", d) }

// EditPage is the edit form of an existing prompt.
func EditPage(d FormData) templ.Component { return page("edit", d) }

// DetailPage shows one prompt with its tags.
func DetailPage(d DetailData) templ.Component { return page("detail", d) }

// TagsPage is tag management.
func TagsPage(d TagsData) templ.Component { return page("tags", d) }

// ErrorPage renders a status page for code with a client-safe message.
func ErrorPage(code int, message string) templ.Component {
	return page("error", ErrorData{Title: fmt.Sprintf("%d", code), Code: code, Message: message})
}
