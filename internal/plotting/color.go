package plotting

import (
	"fmt"
	"image/color"
	"strconv"
	"strings"

	"golang.org/x/image/colornames"
)

// Cycle is the default color sequence for successive series on one axes
var Cycle = []string{
	"#1f77b4", "#ff7f0e", "#2ca02c", "#d62728", "#9467bd",
	"#8c564b", "#e377c2", "#7f7f7f", "#bcbd22", "#17becf",
}

var shortNames = map[string]string{
	"b": "#1f77b4",
	"g": "#2ca02c",
	"r": "#d62728",
	"c": "#17becf",
	"m": "#e377c2",
	"y": "#bcbd22",
	"k": "#000000",
	"w": "#ffffff",
}

// ParseColor accepts #rgb, #rrggbb, #rrggbbaa, single-letter codes,
// tab:<name> entries of the default cycle and CSS color names.
func ParseColor(s string) (color.Color, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	if hex, ok := shortNames[name]; ok {
		name = hex
	}
	if strings.HasPrefix(name, "tab:") {
		if hex, ok := tabColors[strings.TrimPrefix(name, "tab:")]; ok {
			name = hex
		}
	}
	if strings.HasPrefix(name, "#") {
		return parseHex(name)
	}
	if c, ok := colornames.Map[name]; ok {
		return c, nil
	}
	return nil, fmt.Errorf("unknown color '%s'", s)
}

var tabColors = map[string]string{
	"blue": Cycle[0], "orange": Cycle[1], "green": Cycle[2], "red": Cycle[3], "purple": Cycle[4],
	"brown": Cycle[5], "pink": Cycle[6], "gray": Cycle[7], "olive": Cycle[8], "cyan": Cycle[9],
}

func parseHex(s string) (color.Color, error) {
	hex := strings.TrimPrefix(s, "#")
	if len(hex) == 3 {
		hex = string([]byte{hex[0], hex[0], hex[1], hex[1], hex[2], hex[2]})
	}
	if len(hex) == 6 {
		hex += "ff"
	}
	if len(hex) != 8 {
		return nil, fmt.Errorf("invalid hex color '%s'", s)
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return nil, fmt.Errorf("invalid hex color '%s': %w", s, err)
	}
	return color.NRGBA{R: uint8(v >> 24), G: uint8(v >> 16), B: uint8(v >> 8), A: uint8(v)}, nil
}

// ColorOrCycle parses s, falling back to the n-th cycle color when s is empty
func ColorOrCycle(s string, n int) (color.Color, error) {
	if s == "" {
		return parseHex(Cycle[n%len(Cycle)])
	}
	return ParseColor(s)
}
