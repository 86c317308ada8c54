package theme

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/lucasb-eyer/go-colorful"

	"portfolio-site/internal/colorutil"
)

// Variant names a built-in six-color palette.
type Variant string

const (
	VariantSunset Variant = "sunset"
	VariantOcean  Variant = "ocean"
	VariantForest Variant = "forest"
	VariantMono   Variant = "mono"
)

// SemanticRoles defines stable semantic color slots used across the terminal UI.
//
// Components should generally depend on these semantic roles rather than
// palette-specific color literals.
type SemanticRoles struct {
	Primary    string
	Accent     string
	Third      string
	Muted      string
	Border     string
	Foreground string
	Background string
}

// Style describes presentational attributes for a UI element.
type Style struct {
	Foreground string
	Background string
	Bold       bool
}

// StyleSet provides strongly-typed styles for the terminal portfolio surfaces.
type StyleSet struct {
	Header   Style
	Viewport Style
	Prompt   Style
	Warning  Style
	Card     Style
}

// Bundle contains all display styles needed by the terminal UI.
type Bundle struct {
	StyleSet
	Roles SemanticRoles
	Mono  bool
}

// TermProfile describes terminal rendering capabilities derived from TERM.
type TermProfile struct {
	Colors    int
	TrueColor bool
	IsTTY     bool
}

// TermProfileDetector maps a TERM value to a terminal capability profile.
type TermProfileDetector func(term string) TermProfile

// ErrUnknownVariant is returned when a requested variant is not known.
var ErrUnknownVariant = errors.New("unknown theme variant")

var (
	termProfileCache sync.Map
	knownProfiles    = map[string]TermProfile{
		"dumb":           {Colors: 0, TrueColor: false, IsTTY: false},
		"ansi":           {Colors: 8, TrueColor: false, IsTTY: true},
		"linux":          {Colors: 16, TrueColor: false, IsTTY: true},
		"xterm":          {Colors: 16, TrueColor: false, IsTTY: true},
		"xterm-256color": {Colors: 256, TrueColor: false, IsTTY: true},
		"screen":         {Colors: 8, TrueColor: false, IsTTY: true},
		"tmux":           {Colors: 256, TrueColor: false, IsTTY: true},
		"vt100":          {Colors: 8, TrueColor: false, IsTTY: true},
		"xterm-kitty":    {Colors: 1 << 24, TrueColor: true, IsTTY: true},
		"wezterm":        {Colors: 1 << 24, TrueColor: true, IsTTY: true},
	}
)

var presets = map[Variant][]colorutil.Hex{
	VariantSunset: {"#2B1B3D", "#E4572E", "#F3A712", "#A8C686", "#669BBC", "#FBEFE1"},
	VariantOcean:  {"#0B1F3A", "#0F4C75", "#3282B8", "#1FAB89", "#F2C14E", "#E8F1F8"},
	VariantForest: {"#1B2E1F", "#2D6A4F", "#52B788", "#D4A373", "#9B2226", "#F1FAEE"},
	VariantMono:   {"#111111", "#333333", "#5C5C5C", "#8F8F8F", "#CFCFCF", "#F2F2F2"},
}

// Variants lists the built-in palettes in a stable order.
func Variants() []Variant {
	out := make([]Variant, 0, len(presets))
	for v := range presets {
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Palette returns a copy of the built-in palette for variant.
func Palette(variant Variant) ([]colorutil.Hex, error) {
	colors, ok := presets[Variant(strings.ToLower(string(variant)))]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownVariant, variant)
	}
	return append([]colorutil.Hex(nil), colors...), nil
}

// ResolveOptions controls how a bundle is selected once a TERM profile exists.
type ResolveOptions struct {
	Term       string
	ForceColor bool
	ForceMono  bool
}

// Resolve builds the terminal bundle for colors and a TERM value.
//
// For lower-capability terminals (xterm-256color and below), Resolve returns
// a monochrome/high-contrast bundle unless color is explicitly forced.
func Resolve(colors []colorutil.Hex, opts ResolveOptions) Bundle {
	bundle, _ := resolveWithProfile(colors, opts, detectTermProfile)
	return bundle
}

// ResolveWithDetector resolves a bundle using a caller-provided TERM detector.
//
// This is primarily intended for tests and advanced integrations that want
// custom TERM/profile mapping behavior without changing palette logic.
func ResolveWithDetector(colors []colorutil.Hex, opts ResolveOptions, detector TermProfileDetector) Bundle {
	if detector == nil {
		detector = detectTermProfile
	}
	bundle, _ := resolveWithProfile(colors, opts, detector)
	return bundle
}

// DetectTermProfile maps TERM to a terminal capability profile.
func DetectTermProfile(term string) TermProfile {
	return detectTermProfile(term)
}

func resolveWithProfile(colors []colorutil.Hex, opts ResolveOptions, detector TermProfileDetector) (Bundle, TermProfile) {
	profile := detector(strings.TrimSpace(opts.Term))
	if shouldUseMonochrome(profile, opts) || len(colors) == 0 {
		return grayscaleBundle(), profile
	}
	return paletteBundle(Derive(colors)), profile
}

func paletteBundle(d Derived) Bundle {
	primary := hexFromHSL(d.Primary.H, max(d.Primary.S, minVividSaturation), d.PrimaryL)
	primaryFg := hexFromHSL(d.Primary.H, primaryFgSaturation, d.PrimaryFgL)
	accent := hexFromHSL(d.Accent.H, max(d.Accent.S, minVividSaturation), d.AccentL)
	third := hexFromHSL(d.Third.H, max(d.Third.S, minVividSaturation), d.ThirdL)

	c0, c1, c2, c3, c5 := d.shade(0), d.shade(1), d.shade(2), d.shade(3), d.shade(5)
	background := hexFromHSL(c0.H, min(c0.S, 25), 5)
	foreground := hexFromHSL(c5.H, min(c5.S, 15), 96)
	card := hexFromHSL(c1.H, min(c1.S, 20), 8)
	muted := hexFromHSL(c3.H, min(c3.S, 20), 62)
	border := hexFromHSL(c2.H, min(c2.S, 15), 18)

	return Bundle{
		StyleSet: StyleSet{
			Header:   Style{Foreground: primaryFg, Background: primary, Bold: true},
			Viewport: Style{Foreground: foreground, Background: background},
			Prompt:   Style{Foreground: accent, Background: background, Bold: true},
			Warning:  Style{Foreground: "#FAFAFA", Background: hexFromHSL(0, 62.8, 30.6), Bold: true},
			Card:     Style{Foreground: foreground, Background: card},
		},
		Roles: SemanticRoles{
			Primary:    primary,
			Accent:     accent,
			Third:      third,
			Muted:      muted,
			Border:     border,
			Foreground: foreground,
			Background: background,
		},
	}
}

func hexFromHSL(h, s, l float64) string {
	return strings.ToUpper(colorful.Hsl(h, s/100, l/100).Clamped().Hex())
}

func shouldUseMonochrome(profile TermProfile, opts ResolveOptions) bool {
	if opts.ForceMono {
		return true
	}
	if opts.ForceColor {
		return false
	}
	if !profile.IsTTY {
		return true
	}
	if !profile.TrueColor && profile.Colors <= 256 {
		return true
	}
	return false
}

func detectTermProfile(term string) TermProfile {
	norm := strings.ToLower(strings.TrimSpace(term))
	if cached, ok := termProfileCache.Load(norm); ok {
		return cached.(TermProfile)
	}

	profile := detectTermProfileUncached(norm)
	termProfileCache.Store(norm, profile)
	return profile
}

func detectTermProfileUncached(norm string) TermProfile {
	if norm == "" {
		return TermProfile{Colors: 0, TrueColor: false, IsTTY: false}
	}

	if p, ok := knownProfiles[norm]; ok {
		return p
	}

	profile := TermProfile{Colors: 16, TrueColor: false, IsTTY: true}
	if strings.Contains(norm, "truecolor") || strings.Contains(norm, "24bit") || strings.Contains(norm, "kitty") || strings.Contains(norm, "wezterm") {
		profile.TrueColor = true
		profile.Colors = 1 << 24
	}
	if strings.Contains(norm, "256") {
		profile.Colors = 256
	}
	if strings.Contains(norm, "dumb") {
		profile = TermProfile{Colors: 0, TrueColor: false, IsTTY: false}
	}
	if strings.Contains(norm, "screen") {
		profile.Colors = 8
	}

	return profile
}

func grayscaleBundle() Bundle {
	return Bundle{
		StyleSet: StyleSet{
			Header:   Style{Foreground: "#FFFFFF", Background: "#111111", Bold: true},
			Viewport: Style{Foreground: "#F2F2F2", Background: "#1A1A1A"},
			Prompt:   Style{Foreground: "#FFFFFF", Background: "#000000", Bold: true},
			Warning:  Style{Foreground: "#000000", Background: "#E6E6E6", Bold: true},
			Card:     Style{Foreground: "#FFFFFF", Background: "#222222"},
		},
		Roles: SemanticRoles{Primary: "#FFFFFF", Accent: "#CFCFCF", Third: "#8F8F8F", Muted: "#8F8F8F", Border: "#5C5C5C", Foreground: "#F2F2F2", Background: "#1A1A1A"},
		Mono:  true,
	}
}
