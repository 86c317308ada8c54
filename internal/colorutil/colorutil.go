// Package colorutil converts between hex, RGB and HSL color forms and provides the
// small amount of color math used when deriving a site theme from a palette.
package colorutil

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/lucasb-eyer/go-colorful"
)

// ErrInvalidHex is returned when a string is not a 6-digit hex color.
var ErrInvalidHex = errors.New("invalid hex color")

var hexPattern = regexp.MustCompile(`^#?[0-9a-fA-F]{6}$`)

// Hex is a normalized "#RRGGBB" color.
type Hex string

// HSL holds hue in degrees and saturation/lightness in percent, each rounded to one decimal.
type HSL struct {
	H float64 `json:"h"`
	S float64 `json:"s"`
	L float64 `json:"l"`
}

// RGB holds 8-bit channel values.
type RGB struct {
	R int `json:"r"`
	G int `json:"g"`
	B int `json:"b"`
}

// ParseHex validates s and returns its normalized form.
func ParseHex(s string) (Hex, error) {
	trimmed := strings.TrimSpace(s)
	if !hexPattern.MatchString(trimmed) {
		return "", fmt.Errorf("%w: %q", ErrInvalidHex, s)
	}
	trimmed = "#" + strings.ToUpper(strings.TrimPrefix(trimmed, "#"))
	if _, err := colorful.Hex(trimmed); err != nil {
		return "", fmt.Errorf("%w: %q", ErrInvalidHex, s)
	}
	return Hex(trimmed), nil
}

// MustParseHex is ParseHex for literals known to be valid.
func MustParseHex(s string) Hex {
	h, err := ParseHex(s)
	if err != nil {
		panic(err)
	}
	return h
}

func (h Hex) String() string { return string(h) }

// Color returns the go-colorful representation. Malformed values yield black.
func (h Hex) Color() colorful.Color {
	c, err := colorful.Hex("#" + strings.TrimPrefix(string(h), "#"))
	if err != nil {
		return colorful.Color{}
	}
	return c
}

// ToRGB returns the 8-bit channels of h.
func ToRGB(h Hex) RGB {
	r, g, b := h.Color().RGB255()
	return RGB{R: int(r), G: int(g), B: int(b)}
}

// ToHSL converts h using the standard RGB to HSL formula. Achromatic colors get hue and
// saturation 0.
func ToHSL(h Hex) HSL {
	r, g, b := normalized(h)
	hi := math.Max(r, math.Max(g, b))
	lo := math.Min(r, math.Min(g, b))
	l := (hi + lo) / 2

	var hue, sat float64
	if hi != lo {
		d := hi - lo
		if l > 0.5 {
			sat = d / (2 - hi - lo)
		} else {
			sat = d / (hi + lo)
		}
		switch hi {
		case r:
			offset := 0.0
			if g < b {
				offset = 6
			}
			hue = ((g-b)/d + offset) / 6
		case g:
			hue = ((b-r)/d + 2) / 6
		default:
			hue = ((r-g)/d + 4) / 6
		}
	}

	return HSL{H: round1(hue * 360), S: round1(sat * 100), L: round1(l * 100)}
}

// Luminance is the weighted luma 0.299r + 0.587g + 0.114b over normalized channels. It is not
// WCAG relative luminance.
func Luminance(h Hex) float64 {
	r, g, b := normalized(h)
	return 0.299*r + 0.587*g + 0.114*b
}

// Saturation returns the HSL saturation of h in percent.
func Saturation(h Hex) float64 {
	return ToHSL(h).S
}

// HueDist is the distance between two hues on the 360 degree wheel.
func HueDist(h1, h2 float64) float64 {
	d := math.Abs(h1 - h2)
	return math.Min(d, 360-d)
}

// HSLString formats components as a CSS custom-property value: "h s% l%".
func HSLString(h, s, l float64) string {
	return Num(h) + " " + Num(s) + "% " + Num(l) + "%"
}

// RGBString formats c as "r, g, b" for use inside rgb() and rgba().
func RGBString(c RGB) string {
	return strconv.Itoa(c.R) + ", " + strconv.Itoa(c.G) + ", " + strconv.Itoa(c.B)
}

// Num formats f with the shortest representation that round-trips (0, 84.2, 97).
func Num(f float64) string {
	if f == 0 {
		return "0"
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}

func normalized(h Hex) (float64, float64, float64) {
	rgb := ToRGB(h)
	return float64(rgb.R) / 255, float64(rgb.G) / 255, float64(rgb.B) / 255
}

// round1 rounds half up to one decimal place.
func round1(v float64) float64 {
	return math.Floor(v*10+0.5) / 10
}
