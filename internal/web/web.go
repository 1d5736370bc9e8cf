// Package web renders the site's pages from embedded html/template files.
//
// Files starting with "_" hold the layout and shared components; every other
// file is a page defining a "content" template that the layout wraps. Pages
// are executed with a *Page, whose methods give templates translations,
// direction-aware classes and image URLs.
package web

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"net/http"
	"slices"
	"strings"

	"github.com/gin-gonic/gin/render"

	"archway-web/internal/locale"
	"archway-web/internal/logger"
	"archway-web/internal/urls"
)

//go:embed templates/*.html
var templatesFS embed.FS

//go:embed static
var staticFS embed.FS

const (
	layoutTemplate = "layout"
	NotFoundPage   = "404"
)

// requiredTemplates must be defined by the shared files.
var requiredTemplates = []string{layoutTemplate, "header", "footer", "error", "empty", "img"}

// Renderer holds one parsed template set per page. It implements gin's
// render.HTMLRender, so handlers call c.HTML(status, "about", page).
type Renderer struct {
	pages   map[string]*template.Template
	catalog *locale.Catalog
	urls    *urls.Normalizer
	lggr    logger.Logger
}

var _ render.HTMLRender = (*Renderer)(nil)

func New(catalog *locale.Catalog, norm *urls.Normalizer, lggr logger.Logger) (*Renderer, error) {
	entries, err := templatesFS.ReadDir("templates")
	if err != nil {
		return nil, fmt.Errorf("failed to read embedded templates: %w", err)
	}

	base := template.New("root")
	var pageFiles []string
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ".html") {
			continue
		}
		if !strings.HasPrefix(name, "_") {
			pageFiles = append(pageFiles, name)
			continue
		}
		content, err := templatesFS.ReadFile("templates/" + name)
		if err != nil {
			return nil, fmt.Errorf("failed to read template %s: %w", name, err)
		}
		if base, err = base.New(name).Parse(string(content)); err != nil {
			return nil, fmt.Errorf("failed to parse template %s: %w", name, err)
		}
	}
	if err := validateRequiredTemplates(base); err != nil {
		return nil, err
	}

	r := &Renderer{
		pages:   make(map[string]*template.Template, len(pageFiles)),
		catalog: catalog,
		urls:    norm,
		lggr:    lggr.Named("web"),
	}
	for _, file := range pageFiles {
		content, err := templatesFS.ReadFile("templates/" + file)
		if err != nil {
			return nil, fmt.Errorf("failed to read template %s: %w", file, err)
		}
		tmpl, err := base.Clone()
		if err != nil {
			return nil, err
		}
		if _, err := tmpl.New(file).Parse(string(content)); err != nil {
			return nil, fmt.Errorf("failed to parse page %s: %w", file, err)
		}
		r.pages[strings.TrimSuffix(file, ".html")] = tmpl
	}
	if _, ok := r.pages[NotFoundPage]; !ok {
		return nil, fmt.Errorf("page %q is missing", NotFoundPage)
	}

	return r, nil
}

func validateRequiredTemplates(tmpl *template.Template) error {
	var missing []string
	for _, name := range requiredTemplates {
		if tmpl.Lookup(name) == nil {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		slices.Sort(missing)
		return fmt.Errorf("template set is missing required template definitions: %s", strings.Join(missing, ", "))
	}
	return nil
}

// Pages lists the names of the parsed pages.
func (r *Renderer) Pages() []string {
	names := make([]string, 0, len(r.pages))
	for name := range r.pages {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Instance implements render.HTMLRender. Unknown pages render the 404 page.
func (r *Renderer) Instance(name string, data any) render.Render {
	tmpl, ok := r.pages[name]
	if !ok {
		r.lggr.Errorw("Unknown page", "page", name)
		tmpl = r.pages[NotFoundPage]
	}
	if p, ok := data.(*Page); ok {
		r.bind(p)
	}
	return render.HTML{Template: tmpl, Name: layoutTemplate, Data: data}
}

// Render writes page name to w. The page is rendered into a buffer first so a
// template error never leaves half a document behind.
func (r *Renderer) Render(w io.Writer, name string, p *Page) error {
	tmpl, ok := r.pages[name]
	if !ok {
		return fmt.Errorf("unknown page %q", name)
	}
	r.bind(p)

	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, layoutTemplate, p); err != nil {
		return fmt.Errorf("failed to render page %s: %w", name, err)
	}
	_, err := buf.WriteTo(w)
	return err
}

func (r *Renderer) bind(p *Page) {
	p.catalog = r.catalog
	p.urls = r.urls
}

// Static returns the embedded stylesheet and site images.
func Static() http.FileSystem {
	sub, err := fs.Sub(staticFS, "static")
	if err != nil {
		panic(err)
	}
	return http.FS(sub)
}

// PlaceholderImage returns the embedded image served for missing site images.
func PlaceholderImage() ([]byte, string) {
	data, err := staticFS.ReadFile("static/images/placeholder.svg")
	if err != nil {
		panic(err)
	}
	return data, "image/svg+xml"
}
