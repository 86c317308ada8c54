// Package palette applies, persists and restores a custom site palette for one browser
// session.
package palette

import (
	"encoding/json"
	"errors"
	"fmt"

	"portfolio-site/internal/colorutil"
)

// Size is the number of colors in a palette.
const Size = 6

var (
	ErrPaletteSize    = errors.New("palette must contain exactly 6 colors")
	ErrDuplicateColor = errors.New("palette colors must be distinct")
	ErrMalformed      = errors.New("malformed palette")
)

// Palette is six distinct colors as returned by the image analysis service. Order carries
// no meaning.
type Palette [Size]colorutil.Hex

// Parse validates raw hex strings into a Palette.
func Parse(raw []string) (Palette, error) {
	var p Palette
	if len(raw) != Size {
		return p, fmt.Errorf("%w: got %d", ErrPaletteSize, len(raw))
	}
	seen := make(map[colorutil.Hex]struct{}, Size)
	for i, s := range raw {
		hex, err := colorutil.ParseHex(s)
		if err != nil {
			return Palette{}, err
		}
		if _, dup := seen[hex]; dup {
			return Palette{}, fmt.Errorf("%w: %s", ErrDuplicateColor, hex)
		}
		seen[hex] = struct{}{}
		p[i] = hex
	}
	return p, nil
}

// Decode parses the persisted JSON array form.
func Decode(data []byte) (Palette, error) {
	var raw []string
	if err := json.Unmarshal(data, &raw); err != nil {
		return Palette{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return Parse(raw)
}

// Encode returns the JSON array form stored in session storage.
func (p Palette) Encode() string {
	data, _ := json.Marshal(p.Strings())
	return string(data)
}

// Colors returns the palette as a slice for the theme generators.
func (p Palette) Colors() []colorutil.Hex {
	return append([]colorutil.Hex(nil), p[:]...)
}

// Strings returns the palette as plain hex strings.
func (p Palette) Strings() []string {
	out := make([]string, Size)
	for i, c := range p {
		out[i] = string(c)
	}
	return out
}
