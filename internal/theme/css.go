package theme

import (
	"fmt"
	"sort"
	"strings"

	"portfolio-site/internal/colorutil"
)

const (
	minAccentLightness  = 30
	maxAccentLightness  = 55
	lightPrimaryCutoff  = 55
	darkTextLightness   = 5
	lightTextLightness  = 98
	minVividSaturation  = 50
	primaryFgSaturation = 100
)

// Derived is every value the theme generators compute from a palette.
type Derived struct {
	Triad Triad

	// Sorted holds the palette ordered darkest to lightest by luminance.
	Sorted []colorutil.HSL

	Primary colorutil.HSL
	Accent  colorutil.HSL
	Third   colorutil.HSL

	PrimaryL   float64
	AccentL    float64
	ThirdL     float64
	PrimaryFgL float64

	PrimaryRGB colorutil.RGB
	AccentRGB  colorutil.RGB
	ThirdRGB   colorutil.RGB
	C4RGB      colorutil.RGB
	C5RGB      colorutil.RGB
}

// Derive runs the selector and computes the shared intermediate values. colors is
// expected to be a full six-color palette.
func Derive(colors []colorutil.Hex) Derived {
	sorted := append([]colorutil.Hex(nil), colors...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return colorutil.Luminance(sorted[i]) < colorutil.Luminance(sorted[j])
	})
	hsls := make([]colorutil.HSL, len(sorted))
	for i, hex := range sorted {
		hsls[i] = colorutil.ToHSL(hex)
	}

	triad := PickDiverse(colors)
	d := Derived{
		Triad:      triad,
		Sorted:     hsls,
		Primary:    colorutil.ToHSL(triad.Primary),
		Accent:     colorutil.ToHSL(triad.Accent),
		Third:      colorutil.ToHSL(triad.Third),
		PrimaryRGB: colorutil.ToRGB(triad.Primary),
		AccentRGB:  colorutil.ToRGB(triad.Accent),
		ThirdRGB:   colorutil.ToRGB(triad.Third),
	}
	d.PrimaryL = clampLightness(d.Primary.L)
	d.AccentL = clampLightness(d.Accent.L)
	d.ThirdL = clampLightness(d.Third.L)
	d.PrimaryFgL = lightTextLightness
	if d.Primary.L > lightPrimaryCutoff {
		d.PrimaryFgL = darkTextLightness
	}

	var remaining []colorutil.RGB
	for _, hex := range colors {
		if hex != triad.Primary && hex != triad.Accent && hex != triad.Third {
			remaining = append(remaining, colorutil.ToRGB(hex))
		}
	}
	d.C4RGB = d.PrimaryRGB
	d.C5RGB = d.AccentRGB
	if len(remaining) > 0 {
		d.C4RGB = remaining[0]
	}
	if len(remaining) > 1 {
		d.C5RGB = remaining[1]
	}
	return d
}

func clampLightness(l float64) float64 {
	return max(min(l, maxAccentLightness), minAccentLightness)
}

// shade returns the i-th luminance-sorted color, clamping for short palettes.
func (d Derived) shade(i int) colorutil.HSL {
	if len(d.Sorted) == 0 {
		return colorutil.HSL{}
	}
	return d.Sorted[min(i, len(d.Sorted)-1)]
}

type cssVar struct {
	name  string
	value string
}

func hsl(h, s, l float64) string { return colorutil.HSLString(h, s, l) }

func (d Derived) lightVars() []cssVar {
	c0, c2, c4, c5 := d.shade(0), d.shade(2), d.shade(4), d.shade(5)
	p, a, t := d.Primary, d.Accent, d.Third
	fg := hsl(c0.H, min(c0.S, 20), 8)
	card := hsl(c4.H, min(c4.S, 25), 96)
	return []cssVar{
		{"background", hsl(c5.H, min(c5.S, 30), 97)},
		{"foreground", fg},
		{"card", card},
		{"card-foreground", fg},
		{"popover", card},
		{"popover-foreground", fg},
		{"primary", hsl(p.H, max(p.S, minVividSaturation), d.PrimaryL)},
		{"primary-foreground", hsl(p.H, primaryFgSaturation, d.PrimaryFgL)},
		{"secondary", hsl(a.H, max(min(a.S, 50), 20), 90)},
		{"secondary-foreground", hsl(c0.H, min(c0.S, 15), 12)},
		{"muted", hsl(t.H, min(t.S, 20), 92)},
		{"muted-foreground", hsl(c2.H, min(c2.S, 30), 40)},
		{"accent", hsl(a.H, max(min(a.S, 40), 18), 89)},
		{"accent-foreground", hsl(c0.H, min(c0.S, 15), 12)},
		{"destructive", "0 84.2% 60.2%"},
		{"destructive-foreground", "0 0% 98%"},
		{"border", hsl(t.H, min(t.S, 18), 85)},
		{"input", hsl(t.H, min(t.S, 18), 85)},
		{"ring", hsl(a.H, max(a.S, minVividSaturation), d.AccentL)},
		{"theme-primary", colorutil.RGBString(d.PrimaryRGB)},
		{"theme-accent", colorutil.RGBString(d.AccentRGB)},
		{"theme-secondary", colorutil.RGBString(d.ThirdRGB)},
	}
}

func (d Derived) darkVars() []cssVar {
	c0, c1, c2, c3, c5 := d.shade(0), d.shade(1), d.shade(2), d.shade(3), d.shade(5)
	p, a, t := d.Primary, d.Accent, d.Third
	fg := hsl(c5.H, min(c5.S, 15), 96)
	card := hsl(c1.H, min(c1.S, 20), 8)
	return []cssVar{
		{"background", hsl(c0.H, min(c0.S, 25), 5)},
		{"foreground", fg},
		{"card", card},
		{"card-foreground", fg},
		{"popover", card},
		{"popover-foreground", fg},
		{"primary", hsl(p.H, max(p.S, minVividSaturation), d.PrimaryL)},
		{"primary-foreground", hsl(p.H, primaryFgSaturation, d.PrimaryFgL)},
		{"secondary", hsl(a.H, min(a.S, 25), 15)},
		{"secondary-foreground", fg},
		{"muted", hsl(t.H, min(t.S, 15), 16)},
		{"muted-foreground", hsl(c3.H, min(c3.S, 20), 62)},
		{"accent", hsl(a.H, min(a.S, 25), 15)},
		{"accent-foreground", fg},
		{"destructive", "0 62.8% 30.6%"},
		{"destructive-foreground", "0 0% 98%"},
		{"border", hsl(c2.H, min(c2.S, 15), 18)},
		{"input", hsl(c2.H, min(c2.S, 15), 18)},
		{"ring", hsl(a.H, max(a.S, minVividSaturation), d.AccentL)},
		{"theme-primary", colorutil.RGBString(d.PrimaryRGB)},
		{"theme-accent", colorutil.RGBString(d.AccentRGB)},
		{"theme-secondary", colorutil.RGBString(d.ThirdRGB)},
	}
}

// BuildCSS renders the custom-property overrides for the light and dark variants followed
// by the utility-class overrides for the site's static stylesheet. The output depends only
// on colors.
func BuildCSS(colors []colorutil.Hex) string {
	return Derive(colors).CSS()
}

// CSS renders the stylesheet for an already derived palette.
func (d Derived) CSS() string {
	var b strings.Builder
	writeVarBlock(&b, ":root", d.lightVars())
	writeVarBlock(&b, ".dark", d.darkVars())
	d.writeUtilities(&b)
	return b.String()
}

func writeVarBlock(b *strings.Builder, selector string, vars []cssVar) {
	fmt.Fprintf(b, "%s {\n", selector)
	for _, v := range vars {
		fmt.Fprintf(b, "  --%s: %s;\n", v.name, v.value)
	}
	b.WriteString("}\n")
}

// writeUtilities rewires the named classes of the static stylesheet onto the palette.
// The class list mirrors that stylesheet exactly, duplicates included; later rules win.
func (d Derived) writeUtilities(b *strings.Builder) {
	p := colorutil.RGBString(d.PrimaryRGB)
	a := colorutil.RGBString(d.AccentRGB)
	t := colorutil.RGBString(d.ThirdRGB)
	c4 := colorutil.RGBString(d.C4RGB)
	c5 := colorutil.RGBString(d.C5RGB)
	primaryHSL := fmt.Sprintf("hsl(%s, %s%%, %s%%)", colorutil.Num(d.Primary.H), colorutil.Num(max(d.Primary.S, minVividSaturation)), colorutil.Num(d.PrimaryL))
	accentHSL := fmt.Sprintf("hsl(%s, %s%%, %s%%)", colorutil.Num(d.Accent.H), colorutil.Num(max(d.Accent.S, minVividSaturation)), colorutil.Num(d.AccentL))

	rgb := func(c string) string { return "rgb(" + c + ")" }
	rgba := func(c, alpha string) string { return "rgba(" + c + ", " + alpha + ")" }
	clipText := func(gradient, size string) string {
		return "  background: " + gradient + " !important;\n" +
			"  -webkit-background-clip: text !important;\n" +
			"  background-clip: text !important;\n" +
			"  -webkit-text-fill-color: transparent !important;\n" +
			"  background-size: " + size + " !important;\n"
	}
	rule := func(selector, body string) {
		fmt.Fprintf(b, "%s {\n%s}\n", selector, body)
	}
	decl := func(selector, property, value string) {
		fmt.Fprintf(b, "%s { %s: %s !important; }\n", selector, property, value)
	}

	rule(".gradient-text", clipText("linear-gradient(to right, "+rgb(p)+", "+rgb(a)+", "+rgb(t)+")", "300% 300%"))
	rule(".about-heading, .projects-heading, .ministries-heading, .contact-heading", clipText("linear-gradient(135deg, "+rgb(p)+", "+rgb(a)+")", "200% 200%"))
	rule(".gradient-text-blue", clipText("linear-gradient(to right, "+rgb(a)+", "+rgb(t)+", "+rgb(p)+")", "300% 300%"))
	rule(".gradient-text-green", clipText("linear-gradient(to right, "+rgb(t)+", "+rgb(p)+", "+rgb(a)+")", "300% 300%"))

	rule(".card", "  background: "+rgba(a, "0.04")+" !important;\n  border-color: "+rgba(p, "0.12")+" !important;\n")
	rule(".dark .card", "  background: "+rgba(a, "0.07")+" !important;\n  border-color: "+rgba(p, "0.15")+" !important;\n")
	rule(".navbar-glass", "  border-bottom-color: "+rgba(a, "0.15")+" !important;\n")
	rule(".dark .navbar-glass", "  border-bottom-color: "+rgba(a, "0.2")+" !important;\n")

	decl(".text-primary", "color", primaryHSL)
	decl(".text-pink-400, .text-pink-500", "color", rgb(p))
	decl(".text-purple-400, .text-purple-500", "color", rgb(a))
	decl(".text-rose-400, .text-rose-500", "color", rgb(t))
	decl(".text-blue-400, .text-blue-500", "color", rgb(a))
	decl(".text-cyan-400, .text-cyan-500", "color", rgb(t))
	decl(".text-yellow-400", "color", rgb(t))

	decl(".bg-primary", "background-color", primaryHSL)
	decl(".bg-pink-500", "background-color", rgb(p))
	decl(".bg-purple-500", "background-color", rgb(a))

	decl(".from-primary", "--tw-gradient-from", primaryHSL)
	decl(".to-primary", "--tw-gradient-to", accentHSL)
	decl(".from-pink-500", "--tw-gradient-from", rgb(p))
	decl(".to-pink-500", "--tw-gradient-to", rgb(a))
	decl(".via-purple-500", "--tw-gradient-stops", "var(--tw-gradient-from), "+rgb(t)+", var(--tw-gradient-to)")
	decl(`.from-purple-500\/20`, "--tw-gradient-from", rgba(a, "0.2"))
	decl(`.to-pink-500\/20`, "--tw-gradient-to", rgba(p, "0.2"))

	decl(`.border-primary\/20`, "border-color", rgba(p, "0.2"))
	decl(`.border-primary\/30`, "border-color", rgba(p, "0.3"))
	decl(`.border-primary\/50`, "border-color", rgba(p, "0.5"))
	decl(`.border-pink-500\/30`, "border-color", rgba(a, "0.3"))
	decl(`.border-purple-500\/30`, "border-color", rgba(t, "0.3"))

	decl(`.bg-primary\/5`, "background-color", rgba(p, "0.05"))
	decl(`.bg-primary\/10`, "background-color", rgba(p, "0.1"))
	decl(`.bg-primary\/20`, "background-color", rgba(p, "0.2"))
	decl(`.bg-primary\/30`, "background-color", rgba(a, "0.3"))
	decl(`.bg-pink-500\/20`, "background-color", rgba(a, "0.2"))
	decl(`.bg-purple-500\/20`, "background-color", rgba(t, "0.2"))

	decl(`.shadow-primary\/30`, "--tw-shadow-color", rgba(a, "0.3"))
	decl(`.hover\:shadow-primary\/30:hover`, "--tw-shadow-color", rgba(p, "0.3"))
	decl(`.ring-primary\/20`, "--tw-ring-color", rgba(a, "0.2"))

	decl(`.border-blue-500\/30`, "border-color", rgba(p, "0.35"))
	decl(`.border-purple-500\/30`, "border-color", rgba(a, "0.35"))
	decl(`.border-yellow-500\/30`, "border-color", rgba(t, "0.35"))
	decl(`.border-green-500\/30`, "border-color", rgba(c4, "0.35"))

	decl(`.from-blue-500\/20`, "--tw-gradient-from", rgba(p, "0.2"))
	decl(`.to-cyan-500\/20`, "--tw-gradient-to", rgba(a, "0.15"))
	decl(`.from-purple-500\/20`, "--tw-gradient-from", rgba(a, "0.2"))
	decl(`.to-pink-500\/20`, "--tw-gradient-to", rgba(t, "0.15"))
	decl(`.from-yellow-500\/20`, "--tw-gradient-from", rgba(t, "0.2"))
	decl(`.to-orange-500\/20`, "--tw-gradient-to", rgba(c4, "0.15"))
	decl(`.from-green-500\/20`, "--tw-gradient-from", rgba(c4, "0.2"))
	decl(`.to-emerald-500\/20`, "--tw-gradient-to", rgba(c5, "0.15"))

	rule("*:focus-visible", "  outline-color: "+rgb(a)+" !important;\n")
	rule("::selection", "  background: "+rgba(a, "0.35")+" !important;\n")
}
