package theme

import (
	"errors"
	"testing"

	"portfolio-site/internal/colorutil"
)

func TestDetectTermProfileTable(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		term string
		want TermProfile
	}{
		{name: "xterm", term: "xterm", want: TermProfile{Colors: 16, IsTTY: true}},
		{name: "xterm-256color", term: "xterm-256color", want: TermProfile{Colors: 256, IsTTY: true}},
		{name: "screen", term: "screen", want: TermProfile{Colors: 8, IsTTY: true}},
		{name: "tmux", term: "tmux", want: TermProfile{Colors: 256, IsTTY: true}},
		{name: "linux", term: "linux", want: TermProfile{Colors: 16, IsTTY: true}},
		{name: "dumb", term: "dumb", want: TermProfile{Colors: 0, IsTTY: false}},
		{name: "empty", term: "", want: TermProfile{Colors: 0, IsTTY: false}},
		{name: "kitty truecolor", term: "xterm-kitty", want: TermProfile{Colors: 1 << 24, TrueColor: true, IsTTY: true}},
		{name: "wezterm truecolor", term: "wezterm", want: TermProfile{Colors: 1 << 24, TrueColor: true, IsTTY: true}},
		{name: "unknown truecolor", term: "foot-truecolor", want: TermProfile{Colors: 1 << 24, TrueColor: true, IsTTY: true}},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := detectTermProfile(tt.term)
			if got != tt.want {
				t.Fatalf("detectTermProfile(%q) = %+v, want %+v", tt.term, got, tt.want)
			}
		})
	}
}

func TestResolveLowCapabilityTerminalsAreMonochrome(t *testing.T) {
	t.Parallel()

	colors, err := Palette(VariantOcean)
	if err != nil {
		t.Fatalf("Palette() unexpected error: %v", err)
	}
	gray := grayscaleBundle()

	for _, term := range []string{"xterm", "xterm-256color", "screen", "tmux", "linux", "dumb", ""} {
		if got := Resolve(colors, ResolveOptions{Term: term}); got != gray {
			t.Fatalf("Resolve(%q) should be grayscale, got %+v", term, got)
		}
	}
}

func TestResolveTrueColorDerivesFromPalette(t *testing.T) {
	t.Parallel()

	colors, err := Palette(VariantSunset)
	if err != nil {
		t.Fatalf("Palette() unexpected error: %v", err)
	}
	got := Resolve(colors, ResolveOptions{Term: "wezterm"})
	if got.Mono {
		t.Fatalf("truecolor terminal should not be monochrome")
	}
	// #F3A712 is the primary: hsl(39.7, 90.4%, 51.2%).
	want := hexFromHSL(39.7, 90.4, 51.2)
	if got.Roles.Primary != want || got.Header.Background != want {
		t.Fatalf("primary role = %q header bg = %q, want %q", got.Roles.Primary, got.Header.Background, want)
	}
	if _, err := colorutil.ParseHex(got.Roles.Accent); err != nil {
		t.Fatalf("accent role is not a hex color: %v", err)
	}
}

func TestResolveIsDeterministic(t *testing.T) {
	t.Parallel()

	colors, _ := Palette(VariantForest)
	first := Resolve(colors, ResolveOptions{Term: "xterm-kitty"})
	second := Resolve(colors, ResolveOptions{Term: "xterm-kitty"})
	if first != second {
		t.Fatalf("bundles differ:\n first=%+v\nsecond=%+v", first, second)
	}
}

func TestPaletteReturnsCopy(t *testing.T) {
	t.Parallel()

	first, err := Palette(VariantOcean)
	if err != nil {
		t.Fatalf("Palette() unexpected error: %v", err)
	}
	first[0] = "#000000"

	second, _ := Palette(VariantOcean)
	if second[0] != "#0B1F3A" {
		t.Fatalf("expected immutable preset, got %q", second[0])
	}
}

func TestPaletteUnknownVariant(t *testing.T) {
	t.Parallel()

	_, err := Palette(Variant("mystery"))
	if !errors.Is(err, ErrUnknownVariant) {
		t.Fatalf("expected ErrUnknownVariant, got %v", err)
	}
}

func TestVariantCoverage(t *testing.T) {
	t.Parallel()

	variants := Variants()
	if len(variants) != len(presets) {
		t.Fatalf("variant coverage mismatch: presets=%d variants=%d", len(presets), len(variants))
	}
	for _, v := range variants {
		colors := presets[v]
		if len(colors) != 6 {
			t.Fatalf("preset %q has %d colors", v, len(colors))
		}
		seen := map[colorutil.Hex]bool{}
		for _, c := range colors {
			if _, err := colorutil.ParseHex(string(c)); err != nil {
				t.Fatalf("preset %q: %v", v, err)
			}
			if seen[c] {
				t.Fatalf("preset %q repeats %s", v, c)
			}
			seen[c] = true
		}
	}
}

func TestResolveForceOverrides(t *testing.T) {
	t.Parallel()

	colors, _ := Palette(VariantOcean)
	color := Resolve(colors, ResolveOptions{Term: "xterm-256color", ForceColor: true})
	if color == grayscaleBundle() {
		t.Fatalf("force color should not return grayscale bundle")
	}

	mono := Resolve(colors, ResolveOptions{Term: "wezterm", ForceMono: true})
	if mono != grayscaleBundle() {
		t.Fatalf("force mono should return grayscale bundle")
	}
}

func TestResolveWithDetector(t *testing.T) {
	t.Parallel()

	colors, _ := Palette(VariantOcean)
	calls := 0
	detector := func(term string) TermProfile {
		calls++
		return TermProfile{Colors: 1 << 24, TrueColor: true, IsTTY: true}
	}
	got := ResolveWithDetector(colors, ResolveOptions{Term: "dumb"}, detector)
	if calls != 1 || got.Mono {
		t.Fatalf("custom detector not honored: calls=%d mono=%t", calls, got.Mono)
	}
}
