package text

import "github.com/rivo/uniseg"

// Graphemes splits s into user-perceived characters, so a flag or a skin-toned
// emoji stays a single element.
func Graphemes(s string) []string {
	out := make([]string, 0, len(s))
	g := uniseg.NewGraphemes(s)
	for g.Next() {
		out = append(out, g.Str())
	}
	return out
}
