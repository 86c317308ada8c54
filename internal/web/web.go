// Package web renders the portfolio pages.
package web

import (
	"embed"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"net/http"
	"strings"

	"portfolio-site/internal/content"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static
var staticFS embed.FS

// NavItem is one entry of the site navigation.
type NavItem struct {
	Name   string
	Label  string
	Path   string
	Active bool
}

// Page is the data passed to every template.
type Page struct {
	Section    string
	Title      string
	Nav        []NavItem
	Style      template.HTML
	Site       content.Site
	Doc        *content.Document
	Highlights map[string]int
}

// Renderer holds one parsed template set per section.
type Renderer struct {
	doc   *content.Document
	pages map[string]*template.Template
}

var funcs = template.FuncMap{
	"join":  strings.Join,
	"title": sectionLabel,
}

// NewRenderer parses the embedded templates for every navigable section.
func NewRenderer(doc *content.Document) (*Renderer, error) {
	r := &Renderer{doc: doc, pages: map[string]*template.Template{}}
	for _, section := range content.Sections() {
		tmpl, err := template.New("layout.html").Funcs(funcs).ParseFS(templateFS,
			"templates/layout.html",
			"templates/"+section+".html",
		)
		if err != nil {
			return nil, fmt.Errorf("parse %s template: %w", section, err)
		}
		r.pages[section] = tmpl
	}
	return r, nil
}

// Render writes the page for section. style is the session's custom palette style element,
// empty for the default theme.
func (r *Renderer) Render(w io.Writer, section string, style template.HTML) error {
	tmpl, ok := r.pages[section]
	if !ok {
		return fmt.Errorf("%w: %q", content.ErrUnknownSection, section)
	}

	title := r.doc.Site.Title
	if section != content.SectionHome {
		title = sectionLabel(section) + " | " + r.doc.Site.Author
	}

	return tmpl.Execute(w, Page{
		Section:    section,
		Title:      title,
		Nav:        navigation(section),
		Style:      style,
		Site:       r.doc.Site,
		Doc:        r.doc,
		Highlights: r.doc.Highlights(),
	})
}

// PathFor returns the URL path of section.
func PathFor(section string) string {
	if section == content.SectionHome {
		return "/"
	}
	return "/" + section
}

// SectionForPath maps a request path to its section.
func SectionForPath(path string) (string, bool) {
	trimmed := strings.Trim(path, "/")
	if trimmed == "" {
		return content.SectionHome, true
	}
	for _, s := range content.Sections() {
		if s == trimmed && s != content.SectionHome {
			return s, true
		}
	}
	return "", false
}

func navigation(active string) []NavItem {
	sections := content.Sections()
	out := make([]NavItem, 0, len(sections))
	for _, s := range sections {
		out = append(out, NavItem{Name: s, Label: sectionLabel(s), Path: PathFor(s), Active: s == active})
	}
	return out
}

func sectionLabel(s string) string {
	if s == "" {
		return ""
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// Static serves the embedded stylesheet and assets under /static/.
func Static() http.Handler {
	sub, err := fs.Sub(staticFS, "static")
	if err != nil {
		panic(err)
	}
	return http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
}
