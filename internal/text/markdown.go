package text

import (
	"strings"
	"unicode/utf8"
)

// Span is a run of text with inline emphasis flags.
type Span struct {
	Text   string
	Bold   bool
	Italic bool
}

// emphasis markers in the order they are tried.
var emphasisMarkers = []struct {
	marker       string
	bold, italic bool
}{
	{"***", true, true},
	{"**", true, false},
	{"*", false, true},
}

// ParseMarkdown splits s into emphasis spans. It scans left to right and at
// every position tries ***x***, **x** and *x* in that order, each closing at the
// nearest matching marker with non-empty content. When nothing matches it takes
// a plain run up to the next '*' (at least one rune), so an unmatched '*' is
// kept as literal text.
func ParseMarkdown(s string) []Span {
	var spans []Span
	rest := s
	for len(rest) > 0 {
		if sp, n, ok := matchEmphasis(rest); ok {
			spans = append(spans, sp)
			rest = rest[n:]
			continue
		}

		_, first := utf8.DecodeRuneInString(rest)
		end := len(rest)
		if i := strings.IndexByte(rest[first:], '*'); i >= 0 {
			end = first + i
		}
		spans = append(spans, Span{Text: rest[:end]})
		rest = rest[end:]
	}
	if len(spans) == 0 {
		return []Span{{Text: s}}
	}
	return spans
}

func matchEmphasis(s string) (Span, int, bool) {
	for _, m := range emphasisMarkers {
		if !strings.HasPrefix(s, m.marker) {
			continue
		}
		body := s[len(m.marker):]
		// Content must be at least one rune; the close is searched after it.
		if len(body) == 0 {
			continue
		}
		_, first := utf8.DecodeRuneInString(body)
		i := strings.Index(body[first:], m.marker)
		if i < 0 {
			continue
		}
		content := body[:first+i]
		if strings.ContainsRune(content, '\n') {
			continue
		}
		return Span{Text: content, Bold: m.bold, Italic: m.italic}, len(m.marker) + len(content) + len(m.marker), true
	}
	return Span{}, 0, false
}

// StripMarkdown returns s with emphasis markers removed.
func StripMarkdown(s string) string {
	var b strings.Builder
	for _, sp := range ParseMarkdown(s) {
		b.WriteString(sp.Text)
	}
	return b.String()
}
