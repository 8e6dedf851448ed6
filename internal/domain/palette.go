package domain

import (
	"errors"
	"fmt"
	"strings"
)

const (
	// DefaultScheme and DefaultPaletteSize reproduce the published map.
	DefaultScheme      = "greens"
	DefaultPaletteSize = 6

	minPaletteSize = 3
	maxPaletteSize = 9
)

var (
	ErrUnknownScheme   = errors.New("unknown color scheme")
	ErrPaletteSize     = errors.New("palette size out of range")
	ErrPaletteTooSmall = errors.New("palette needs at least two colors")
)

// Palette is an ordered list of fill colors, lightest first.
type Palette struct {
	Name   string
	Colors []string
}

// Size returns the number of colors (legend buckets).
func (p Palette) Size() int { return len(p.Colors) }

// Key identifies the palette for caching and message headers, e.g. "greens-6".
func (p Palette) Key() string { return fmt.Sprintf("%s-%d", p.Name, len(p.Colors)) }

// Sequential single-hue schemes from ColorBrewer as packaged by d3-scale-chromatic,
// indexed by size. Each entry is a run of 6-digit hex colors.
var schemes = map[string]map[int]string{
	"greens": {
		3: "e5f5e0a1d99b31a354",
		4: "edf8e9bae4b374c476238b45",
		5: "edf8e9bae4b374c47631a354006d2c",
		6: "edf8e9c7e9c0a1d99b74c47631a354006d2c",
		7: "edf8e9c7e9c0a1d99b74c47641ab5d238b45005a32",
		8: "f7fcf5e5f5e0c7e9c0a1d99b74c47641ab5d238b45005a32",
		9: "f7fcf5e5f5e0c7e9c0a1d99b74c47641ab5d238b45006d2c00441b",
	},
	"blues": {
		3: "deebf79ecae13182bd",
		4: "eff3ffbdd7e76baed62171b5",
		5: "eff3ffbdd7e76baed63182bd08519c",
		6: "eff3ffc6dbef9ecae16baed63182bd08519c",
		7: "eff3ffc6dbef9ecae16baed64292c62171b5084594",
		8: "f7fbffdeebf7c6dbef9ecae16baed64292c62171b5084594",
		9: "f7fbffdeebf7c6dbef9ecae16baed64292c62171b508519c08306b",
	},
}

// Schemes lists the known scheme names.
func Schemes() []string {
	return []string{"blues", "greens"}
}

// PaletteFor returns the named scheme at the requested size.
func PaletteFor(name string, size int) (Palette, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	sizes, ok := schemes[name]
	if !ok {
		return Palette{}, fmt.Errorf("%w: %q", ErrUnknownScheme, name)
	}
	if size < minPaletteSize || size > maxPaletteSize {
		return Palette{}, fmt.Errorf("%w: %d (want %d-%d)", ErrPaletteSize, size, minPaletteSize, maxPaletteSize)
	}
	return Palette{Name: name, Colors: splitHex(sizes[size])}, nil
}

// DefaultPalette returns greens-6.
func DefaultPalette() Palette {
	p, _ := PaletteFor(DefaultScheme, DefaultPaletteSize)
	return p
}

func splitHex(run string) []string {
	colors := make([]string, 0, len(run)/6)
	for i := 0; i+6 <= len(run); i += 6 {
		colors = append(colors, "#"+run[i:i+6])
	}
	return colors
}
