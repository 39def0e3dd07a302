package text

import "strings"

// Measurer returns the advance width of s drawn with the given emphasis.
// Implementations account for emoji runs themselves.
type Measurer interface {
	Measure(s string, bold, italic bool) float64
}

// MeasureFunc adapts a plain function to Measurer.
type MeasureFunc func(s string, bold, italic bool) float64

func (f MeasureFunc) Measure(s string, bold, italic bool) float64 { return f(s, bold, italic) }

// Line is one wrapped line. Width is the sum of span widths as measured by
// the Measurer passed to Wrap. Last marks the final line of a paragraph.
type Line struct {
	Spans []Span
	Width float64
	Last  bool
}

func (l Line) String() string {
	var b strings.Builder
	for _, sp := range l.Spans {
		b.WriteString(sp.Text)
	}
	return b.String()
}

// word is a run of spans without spaces, e.g. "ab**cd**" is one word of two spans.
type word []Span

// Wrap breaks text into lines no wider than maxWidth. Paragraphs split on '\n'
// and markdown emphasis is resolved per paragraph. Words are never broken: a
// word wider than maxWidth sits alone on its line. Runs of spaces are kept.
func Wrap(text string, maxWidth float64, m Measurer) []Line {
	var lines []Line
	for _, para := range strings.Split(text, "\n") {
		if strings.TrimSpace(para) == "" {
			lines = append(lines, Line{Last: true})
			continue
		}

		var cur []Span
		for _, w := range splitWords(ParseMarkdown(para)) {
			if len(cur) == 0 {
				cur = appendWord(nil, w)
				continue
			}
			candidate := appendWord(joinSpace(cloneSpans(cur), w), w)
			// A line holding only leading spaces never breaks.
			if measureSpans(candidate, m) <= maxWidth || strings.TrimSpace(Line{Spans: cur}.String()) == "" {
				cur = candidate
				continue
			}
			lines = append(lines, Line{Spans: cur, Width: measureSpans(cur, m)})
			cur = appendWord(nil, w)
		}
		lines = append(lines, Line{Spans: cur, Width: measureSpans(cur, m), Last: true})
	}
	return lines
}

// splitWords splits on single spaces. Empty tokens from repeated, leading or
// trailing spaces stay as zero-width words so the typed spacing survives.
func splitWords(spans []Span) []word {
	words := []word{nil}
	for _, sp := range spans {
		for i, p := range strings.Split(sp.Text, " ") {
			if i > 0 {
				words = append(words, nil)
			}
			if p != "" {
				n := len(words) - 1
				words[n] = append(words[n], Span{Text: p, Bold: sp.Bold, Italic: sp.Italic})
			}
		}
	}
	for i, w := range words {
		if len(w) == 0 {
			words[i] = word{{}}
		}
	}
	return words
}

// joinSpace appends the separator before w. The space keeps the emphasis when
// both neighbours share it.
func joinSpace(line []Span, w word) []Span {
	last := line[len(line)-1]
	first := w[0]
	space := Span{Text: " "}
	if last.Bold == first.Bold && last.Italic == first.Italic {
		space.Bold, space.Italic = last.Bold, last.Italic
	}
	return appendSpan(line, space)
}

func appendWord(line []Span, w word) []Span {
	for _, sp := range w {
		line = appendSpan(line, sp)
	}
	return line
}

// appendSpan merges sp into the last span when the emphasis matches.
func appendSpan(line []Span, sp Span) []Span {
	if n := len(line); n > 0 && line[n-1].Bold == sp.Bold && line[n-1].Italic == sp.Italic {
		line[n-1].Text += sp.Text
		return line
	}
	return append(line, sp)
}

func cloneSpans(s []Span) []Span {
	return append([]Span(nil), s...)
}

func measureSpans(spans []Span, m Measurer) float64 {
	var w float64
	for _, sp := range spans {
		w += m.Measure(sp.Text, sp.Bold, sp.Italic)
	}
	return w
}
