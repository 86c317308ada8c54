package palette

import (
	"html/template"
	"sync"
)

// StyleID identifies the single theme-override style element.
const StyleID = "custom-palette-style"

// Injector owns the one theme-override stylesheet of a document.
type Injector interface {
	// Inject creates the style element if needed and replaces its content.
	Inject(css string)
	// Remove drops the style element; it is a no-op when none exists.
	Remove()
	// CSS reports the current content and whether the element exists.
	CSS() (string, bool)
}

// Document is an in-memory page head holding at most one element with StyleID.
type Document struct {
	mu      sync.Mutex
	css     string
	present bool
}

// NewDocument returns a document with no override stylesheet.
func NewDocument() *Document { return &Document{} }

func (d *Document) Inject(css string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.css = css
	d.present = true
}

func (d *Document) Remove() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.css = ""
	d.present = false
}

func (d *Document) CSS() (string, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.css, d.present
}

// StyleElement renders the override element for a page head, or nothing when absent.
func (d *Document) StyleElement() template.HTML {
	css, ok := d.CSS()
	if !ok {
		return ""
	}
	// CSS is generated from validated hex colors only, so it never contains markup.
	return template.HTML(`<style id="` + StyleID + `">` + css + `</style>`)
}
