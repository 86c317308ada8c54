// Package content loads the portfolio document: the sections shown on the web pages, the JSON
// API and the terminal portfolio.
package content

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"portfolio-site/internal/colorutil"
	"portfolio-site/internal/forms"
	"portfolio-site/internal/palette"
)

//go:embed content.yaml
var defaultDocument []byte

var (
	// ErrUnknownSection is returned by Section for names outside Sections and "moods".
	ErrUnknownSection = errors.New("unknown content section")
	// ErrInvalidDocument wraps decode and validation failures.
	ErrInvalidDocument = errors.New("invalid content document")
)

// Section names in navigation order.
const (
	SectionHome          = "home"
	SectionAbout         = "about"
	SectionProjects      = "projects"
	SectionCompetitions  = "competitions"
	SectionOrganizations = "organizations"
	SectionGallery       = "gallery"
	SectionContact       = "contact"
	SectionMoods         = "moods"
)

var navigation = []string{
	SectionHome,
	SectionAbout,
	SectionProjects,
	SectionCompetitions,
	SectionOrganizations,
	SectionGallery,
	SectionContact,
}

// Sections returns the navigable section names in display order.
func Sections() []string {
	return append([]string(nil), navigation...)
}

type Site struct {
	Title          string   `yaml:"title" json:"title" validate:"required"`
	Description    string   `yaml:"description" json:"description" validate:"required"`
	URL            string   `yaml:"url" json:"url" validate:"required,url"`
	Author         string   `yaml:"author" json:"author" validate:"required"`
	DefaultPalette []string `yaml:"default_palette" json:"default_palette" validate:"omitempty,len=6,dive,hexcolor"`
}

type Hero struct {
	Greeting string `yaml:"greeting" json:"greeting" validate:"required"`
	Message  string `yaml:"message" json:"message" validate:"required"`
	Image    string `yaml:"image" json:"image,omitempty"`
}

type Focus struct {
	Title       string `yaml:"title" json:"title" validate:"required"`
	Description string `yaml:"description" json:"description" validate:"required"`
}

type Milestone struct {
	Year        string `yaml:"year" json:"year" validate:"required"`
	Title       string `yaml:"title" json:"title" validate:"required"`
	Description string `yaml:"description" json:"description"`
}

type Skill struct {
	Name  string `yaml:"name" json:"name" validate:"required"`
	Level int    `yaml:"level" json:"level" validate:"gte=0,lte=100"`
}

type SkillGroup struct {
	Group string  `yaml:"group" json:"group" validate:"required"`
	Items []Skill `yaml:"items" json:"items" validate:"required,dive"`
}

type About struct {
	Location string       `yaml:"location" json:"location"`
	Bio      []string     `yaml:"bio" json:"bio" validate:"required,dive,required"`
	Focus    []Focus      `yaml:"focus" json:"focus" validate:"dive"`
	Timeline []Milestone  `yaml:"timeline" json:"timeline" validate:"dive"`
	Skills   []SkillGroup `yaml:"skills" json:"skills" validate:"dive"`
}

type Project struct {
	Title       string   `yaml:"title" json:"title" validate:"required"`
	Description string   `yaml:"description" json:"description" validate:"required"`
	Tags        []string `yaml:"tags" json:"tags"`
	GitHub      string   `yaml:"github" json:"github,omitempty" validate:"omitempty,url"`
	Demo        string   `yaml:"demo" json:"demo,omitempty" validate:"omitempty,url"`
}

type Link struct {
	Type  string `yaml:"type" json:"type" validate:"required"`
	URL   string `yaml:"url" json:"url" validate:"required"`
	Label string `yaml:"label" json:"label" validate:"required"`
}

type Photo struct {
	URL     string `yaml:"url" json:"url" validate:"required"`
	Caption string `yaml:"caption" json:"caption"`
}

type Competition struct {
	Name         string   `yaml:"name" json:"name" validate:"required"`
	Venue        string   `yaml:"venue" json:"venue"`
	Result       string   `yaml:"result" json:"result" validate:"required"`
	Date         string   `yaml:"date" json:"date" validate:"required"`
	Project      string   `yaml:"project" json:"project,omitempty"`
	Description  string   `yaml:"description" json:"description"`
	Technologies []string `yaml:"technologies" json:"technologies,omitempty"`
	TeamSize     string   `yaml:"team_size" json:"team_size,omitempty"`
	TeamName     string   `yaml:"team_name" json:"team_name,omitempty"`
	Type         string   `yaml:"type" json:"type"`
	Status       string   `yaml:"status" json:"status,omitempty"`
	Thumbnail    string   `yaml:"thumbnail" json:"thumbnail,omitempty"`
	Links        []Link   `yaml:"links" json:"links,omitempty" validate:"dive"`
	Images       []Photo  `yaml:"images" json:"images,omitempty" validate:"dive"`
}

type Organization struct {
	Name        string `yaml:"name" json:"name" validate:"required"`
	Role        string `yaml:"role" json:"role" validate:"required"`
	Period      string `yaml:"period" json:"period"`
	Description string `yaml:"description" json:"description"`
	Type        string `yaml:"type" json:"type"`
	Thumbnail   string `yaml:"thumbnail" json:"thumbnail,omitempty"`
}

type GalleryImage struct {
	Src         string `yaml:"src" json:"src" validate:"required"`
	Title       string `yaml:"title" json:"title" validate:"required"`
	Description string `yaml:"description" json:"description,omitempty"`
	Category    string `yaml:"category" json:"category"`
}

type Album struct {
	Title       string         `yaml:"title" json:"title" validate:"required"`
	Description string         `yaml:"description" json:"description"`
	Category    string         `yaml:"category" json:"category"`
	Images      []GalleryImage `yaml:"images" json:"images" validate:"required,dive"`
}

type Social struct {
	Name string `yaml:"name" json:"name" validate:"required"`
	URL  string `yaml:"url" json:"url" validate:"required,url"`
}

type Contact struct {
	Email    string   `yaml:"email" json:"email" validate:"required,email"`
	Location string   `yaml:"location" json:"location"`
	Socials  []Social `yaml:"socials" json:"socials" validate:"dive"`
}

type Track struct {
	Title  string `yaml:"title" json:"title" validate:"required"`
	Artist string `yaml:"artist" json:"artist"`
	URL    string `yaml:"url" json:"url" validate:"required,url"`
}

type Mood struct {
	ID     string  `yaml:"id" json:"id" validate:"required"`
	Label  string  `yaml:"label" json:"label" validate:"required"`
	Tracks []Track `yaml:"tracks" json:"tracks" validate:"required,dive"`
}

// Document is the whole portfolio.
type Document struct {
	Site          Site           `yaml:"site" json:"site"`
	Hero          Hero           `yaml:"hero" json:"hero"`
	About         About          `yaml:"about" json:"about"`
	Projects      []Project      `yaml:"projects" json:"projects" validate:"dive"`
	Competitions  []Competition  `yaml:"competitions" json:"competitions" validate:"dive"`
	Organizations []Organization `yaml:"organizations" json:"organizations" validate:"dive"`
	Gallery       []Album        `yaml:"gallery" json:"gallery" validate:"dive"`
	Contact       Contact        `yaml:"contact" json:"contact"`
	Moods         []Mood         `yaml:"moods" json:"moods" validate:"dive"`
}

// Default returns the embedded document.
func Default() (*Document, error) {
	return Decode(bytes.NewReader(defaultDocument))
}

// Load reads the document at path, or the embedded default when path is empty.
func Load(path string) (*Document, error) {
	if path == "" {
		return Default()
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open content: %w", err)
	}
	defer f.Close()
	return Decode(f)
}

// Decode parses and validates a YAML document. Unknown keys are rejected.
func Decode(r io.Reader) (*Document, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var doc Document
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDocument, err)
	}
	if err := forms.Validator().Struct(doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDocument, err)
	}
	if len(doc.Site.DefaultPalette) > 0 {
		if _, err := palette.Parse(doc.Site.DefaultPalette); err != nil {
			return nil, fmt.Errorf("%w: default_palette: %v", ErrInvalidDocument, err)
		}
	}
	return &doc, nil
}

// Section returns the value rendered for name.
func (d *Document) Section(name string) (any, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case SectionHome:
		return d.Hero, nil
	case SectionAbout:
		return d.About, nil
	case SectionProjects:
		return d.Projects, nil
	case SectionCompetitions:
		return d.Competitions, nil
	case SectionOrganizations:
		return d.Organizations, nil
	case SectionGallery:
		return d.Gallery, nil
	case SectionContact:
		return d.Contact, nil
	case SectionMoods:
		return d.Moods, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownSection, name)
	}
}

// DefaultPalette returns the site's default palette colors, nil when none is configured.
func (d *Document) DefaultPalette() []colorutil.Hex {
	if len(d.Site.DefaultPalette) == 0 {
		return nil
	}
	p, err := palette.Parse(d.Site.DefaultPalette)
	if err != nil {
		return nil
	}
	return p.Colors()
}

// Mood returns the mood with id.
func (d *Document) Mood(id string) (Mood, bool) {
	for _, m := range d.Moods {
		if m.ID == id {
			return m, true
		}
	}
	return Mood{}, false
}

// Highlights returns the counters shown on the landing page.
func (d *Document) Highlights() map[string]int {
	return map[string]int{
		"projects":      len(d.Projects),
		"organizations": len(d.Organizations),
		"competitions":  len(d.Competitions),
	}
}
