package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"portfolio-site/internal/content"
)

// sectionLines renders one section as viewport lines wrapped to width.
func sectionLines(doc *content.Document, section string, width int, st Styles) []string {
	if doc == nil {
		return []string{"Nothing to show yet."}
	}
	w := &lineWriter{width: max(width, 20), st: st}

	switch section {
	case content.SectionHome:
		w.heading(doc.Hero.Greeting)
		w.para(doc.Hero.Message)
		w.blank()
		h := doc.Highlights()
		w.accent(fmt.Sprintf("%d projects · %d competitions · %d organizations", h["projects"], h["competitions"], h["organizations"]))
		w.blank()
		w.muted("Press → to explore, or visit " + doc.Site.URL)
	case content.SectionAbout:
		w.heading("About")
		if doc.About.Location != "" {
			w.muted(doc.About.Location)
		}
		for _, p := range doc.About.Bio {
			w.para(p)
			w.blank()
		}
		if len(doc.About.Focus) > 0 {
			w.heading("Focus")
			for _, f := range doc.About.Focus {
				w.accent(f.Title)
				w.para(f.Description)
			}
			w.blank()
		}
		if len(doc.About.Timeline) > 0 {
			w.heading("Journey")
			for _, ms := range doc.About.Timeline {
				w.accent(ms.Year + "  " + ms.Title)
				if ms.Description != "" {
					w.para(ms.Description)
				}
			}
			w.blank()
		}
		for _, g := range doc.About.Skills {
			w.heading(g.Group)
			for _, s := range g.Items {
				w.line(fmt.Sprintf("%-22s %s %d%%", s.Name, meter(s.Level), s.Level))
			}
			w.blank()
		}
	case content.SectionProjects:
		w.heading("Projects")
		for _, p := range doc.Projects {
			w.accent(p.Title)
			w.para(p.Description)
			if len(p.Tags) > 0 {
				w.muted(strings.Join(p.Tags, " · "))
			}
			if p.GitHub != "" {
				w.muted("code  " + p.GitHub)
			}
			if p.Demo != "" {
				w.muted("demo  " + p.Demo)
			}
			w.blank()
		}
	case content.SectionCompetitions:
		w.heading("Competitions")
		for _, c := range doc.Competitions {
			w.accent(c.Name)
			w.muted(joinNonEmpty(" · ", c.Result, c.Date, c.Venue))
			if c.Project != "" {
				w.line("Project: " + c.Project)
			}
			if c.Description != "" {
				w.para(c.Description)
			}
			if len(c.Technologies) > 0 {
				w.muted(strings.Join(c.Technologies, " · "))
			}
			if team := joinNonEmpty(", ", c.TeamName, c.TeamSize); team != "" {
				w.muted("Team: " + team)
			}
			for _, l := range c.Links {
				w.muted(l.Label + "  " + l.URL)
			}
			w.blank()
		}
	case content.SectionOrganizations:
		w.heading("Organizations")
		for _, o := range doc.Organizations {
			w.accent(o.Name)
			w.muted(joinNonEmpty(" · ", o.Role, o.Period))
			if o.Description != "" {
				w.para(o.Description)
			}
			w.blank()
		}
	case content.SectionGallery:
		w.heading("Gallery")
		for _, a := range doc.Gallery {
			w.accent(fmt.Sprintf("%s (%d)", a.Title, len(a.Images)))
			if a.Description != "" {
				w.para(a.Description)
			}
			for _, img := range a.Images {
				w.line("  " + img.Title)
			}
			w.blank()
		}
	case content.SectionContact:
		w.heading("Get in touch")
		w.line("Email     " + doc.Contact.Email)
		if doc.Contact.Location != "" {
			w.line("Location  " + doc.Contact.Location)
		}
		w.blank()
		for _, s := range doc.Contact.Socials {
			w.line(fmt.Sprintf("%-9s %s", s.Name, s.URL))
		}
		w.blank()
		w.muted("The contact form lives at " + strings.TrimRight(doc.Site.URL, "/") + "/contact")
	}
	return w.lines
}

type lineWriter struct {
	width int
	st    Styles
	lines []string
}

func (w *lineWriter) line(s string) { w.styled(s, nil) }

func (w *lineWriter) blank() { w.lines = append(w.lines, "") }

func (w *lineWriter) heading(s string) { w.styled(s, &w.st.Heading) }

func (w *lineWriter) accent(s string) { w.styled(s, &w.st.Accent) }

func (w *lineWriter) muted(s string) { w.styled(s, &w.st.Muted) }

func (w *lineWriter) para(s string) { w.styled(s, nil) }

func (w *lineWriter) styled(s string, style *lipgloss.Style) {
	for _, l := range wrap(s, w.width) {
		if style != nil {
			l = style.Render(l)
		}
		w.lines = append(w.lines, l)
	}
}

func wrap(s string, width int) []string {
	wrapped := lipgloss.NewStyle().Width(width).Render(s)
	out := strings.Split(wrapped, "\n")
	for i := range out {
		out[i] = strings.TrimRight(out[i], " ")
	}
	return out
}

func meter(level int) string {
	filled := min(max(level, 0), 100) / 10
	return strings.Repeat("■", filled) + strings.Repeat("·", 10-filled)
}

func joinNonEmpty(sep string, parts ...string) string {
	kept := make([]string, 0, len(parts))
	for _, p := range parts {
		if strings.TrimSpace(p) != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, sep)
}
