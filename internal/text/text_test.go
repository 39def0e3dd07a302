package text

import (
	"reflect"
	"strings"
	"testing"
	"unicode/utf8"
)

func TestParseMarkdownSegments(t *testing.T) {
	got := ParseMarkdown("Hello **World** *now*")
	want := []Span{
		{Text: "Hello "},
		{Text: "World", Bold: true},
		{Text: " "},
		{Text: "now", Italic: true},
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("ParseMarkdown = %#v, want %#v", got, want)
	}
}

func TestParseMarkdownMarkers(t *testing.T) {
	tests := []struct {
		in   string
		want []Span
	}{
		{"***both***", []Span{{Text: "both", Bold: true, Italic: true}}},
		{"a * b", []Span{{Text: "a "}, {Text: "* b"}}},
		{"a *b c", []Span{{Text: "a "}, {Text: "*b c"}}},
		{"**", []Span{{Text: "*"}, {Text: "*"}}},
		{"****", []Span{{Text: "*", Italic: true}, {Text: "*"}}},
		{"", []Span{{Text: ""}}},
		{"*x\ny*", []Span{{Text: "*x\ny"}, {Text: "*"}}},
		{"pre**fix**", []Span{{Text: "pre"}, {Text: "fix", Bold: true}}},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got := ParseMarkdown(tt.in)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ParseMarkdown(%q) = %#v, want %#v", tt.in, got, tt.want)
			}
		})
	}
}

// Joining span texts equals the input with only the consumed markers removed.
func TestMarkdownRoundTrip(t *testing.T) {
	inputs := []string{
		"plain text",
		"Hello **World** *now*",
		"***a*** **b** *c* d",
		"* lone star",
		"trailing *",
		"mixed **bold *inner* text**",
		"emoji 🔴 **inside**",
	}
	for _, in := range inputs {
		stripped := StripMarkdown(in)
		var b strings.Builder
		for _, sp := range ParseMarkdown(in) {
			b.WriteString(sp.Text)
		}
		if b.String() != stripped {
			t.Errorf("%q: joined %q != stripped %q", in, b.String(), stripped)
		}
		if utf8.RuneCountInString(stripped) > utf8.RuneCountInString(in) {
			t.Errorf("%q: stripped text grew", in)
		}
		if strings.ReplaceAll(stripped, "*", "") != strings.ReplaceAll(in, "*", "") {
			t.Errorf("%q: non-marker characters changed: %q", in, stripped)
		}
	}
}

func TestTransformCase(t *testing.T) {
	tests := []struct {
		in   string
		mode Case
		want string
	}{
		{"hello world. next sentence", CaseSentence, "Hello world. Next sentence"},
		{"WHAT? yes! ok", CaseSentence, "What? Yes! Ok"},
		{"  leading space", CaseSentence, "  Leading space"},
		{"hello WORLD", CaseTitle, "Hello World"},
		{"**bold** move", CaseTitle, "**Bold** Move"},
		{"Mixed Case", CaseUpper, "MIXED CASE"},
		{"Mixed Case", CaseLower, "mixed case"},
		{"Keep As Is", CaseDefault, "Keep As Is"},
	}
	for _, tt := range tests {
		t.Run(tt.mode.String()+"/"+tt.in, func(t *testing.T) {
			if got := TransformCase(tt.in, tt.mode); got != tt.want {
				t.Errorf("TransformCase(%q, %v) = %q, want %q", tt.in, tt.mode, got, tt.want)
			}
		})
	}
}

func TestTransformCaseIdempotent(t *testing.T) {
	inputs := []string{
		"hello world. next sentence",
		"ÜBER straße! déjà vu?",
		"already Title Case",
		"  spaced   out  ",
	}
	for _, mode := range []Case{CaseDefault, CaseUpper, CaseLower, CaseTitle, CaseSentence} {
		for _, in := range inputs {
			once := TransformCase(in, mode)
			twice := TransformCase(once, mode)
			if once != twice {
				t.Errorf("%v not idempotent on %q: %q then %q", mode, in, once, twice)
			}
		}
	}
}

func TestParseCase(t *testing.T) {
	for _, c := range []Case{CaseDefault, CaseUpper, CaseLower, CaseTitle, CaseSentence} {
		got, err := ParseCase(c.String())
		if err != nil || got != c {
			t.Errorf("ParseCase(%q) = %v, %v", c.String(), got, err)
		}
	}
	if got, _ := ParseCase("capitalize"); got != CaseTitle {
		t.Errorf("capitalize = %v, want titlecase", got)
	}
	if _, err := ParseCase("shout"); err == nil {
		t.Error("expected error for unknown case")
	}
}

func TestSegmentEmoji(t *testing.T) {
	got := SegmentEmoji("\U0001F534 Breaking")
	want := []Segment{
		{Kind: KindEmoji, Content: "\U0001F534", CodePoint: "1f534"},
		{Kind: KindText, Content: " Breaking"},
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("SegmentEmoji = %#v, want %#v", got, want)
	}
}

func TestSegmentEmojiKinds(t *testing.T) {
	tests := []struct {
		name      string
		in        string
		codes     []string
		textParts int
	}{
		{"flag", "go \U0001F1FA\U0001F1F8 now", []string{"1f1fa-1f1f8"}, 2},
		{"vs16", "love \u2764\ufe0f", []string{"2764-fe0f"}, 1},
		{"bare heart is text", "love \u2764", nil, 1},
		{"adjacent", "\U0001F525\U0001F525", []string{"1f525", "1f525"}, 0},
		{"plain", "no emoji here", nil, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			segs := SegmentEmoji(tt.in)
			var codes []string
			textParts := 0
			var joined strings.Builder
			for _, s := range segs {
				joined.WriteString(s.Content)
				if s.Kind == KindEmoji {
					codes = append(codes, s.CodePoint)
				} else {
					textParts++
				}
			}
			if joined.String() != tt.in {
				t.Errorf("segments do not reconstruct input: %q", joined.String())
			}
			if !reflect.DeepEqual(codes, tt.codes) {
				t.Errorf("codes = %v, want %v", codes, tt.codes)
			}
			if textParts != tt.textParts {
				t.Errorf("text segments = %d, want %d", textParts, tt.textParts)
			}
		})
	}
}

func TestGraphemes(t *testing.T) {
	got := Graphemes("A\U0001F1FA\U0001F1F8\u00e9")
	if len(got) != 3 {
		t.Fatalf("Graphemes = %q, want 3 clusters", got)
	}
	if got[1] != "\U0001F1FA\U0001F1F8" {
		t.Errorf("flag split: %q", got[1])
	}
}

// runeWidth measures 10 per rune, 12 when bold.
var runeWidth = MeasureFunc(func(s string, bold, italic bool) float64 {
	w := 10.0
	if bold {
		w = 12
	}
	return w * float64(utf8.RuneCountInString(s))
})

func TestWrapNeverSplitsWords(t *testing.T) {
	in := "the quick brown fox jumps over the lazy dog"
	lines := Wrap(in, 100, runeWidth)
	words := strings.Fields(in)

	var got []string
	for _, l := range lines {
		got = append(got, strings.Fields(l.String())...)
		if l.Width > 100 && len(strings.Fields(l.String())) > 1 {
			t.Errorf("line %q exceeds width: %.0f", l.String(), l.Width)
		}
	}
	if !reflect.DeepEqual(got, words) {
		t.Errorf("words changed: %v", got)
	}
}

func TestWrapOverlongWordAlone(t *testing.T) {
	lines := Wrap("a supercalifragilistic b", 80, runeWidth)
	if len(lines) != 3 {
		t.Fatalf("got %d lines: %v", len(lines), lines)
	}
	if lines[1].String() != "supercalifragilistic" {
		t.Errorf("overlong word not alone: %q", lines[1].String())
	}
	if lines[1].Width != 200 {
		t.Errorf("width = %v, want 200", lines[1].Width)
	}
}

func TestWrapParagraphsAndEmphasis(t *testing.T) {
	lines := Wrap("**bold words** here\n \nend", 1000, runeWidth)
	if len(lines) != 3 {
		t.Fatalf("got %d lines", len(lines))
	}
	first := lines[0]
	wantSpans := []Span{{Text: "bold words", Bold: true}, {Text: " here"}}
	if !reflect.DeepEqual(first.Spans, wantSpans) {
		t.Errorf("spans = %#v", first.Spans)
	}
	if first.Width != 10*12+5*10 {
		t.Errorf("width = %v", first.Width)
	}
	if lines[1].String() != "" || lines[1].Width != 0 {
		t.Errorf("blank paragraph = %#v", lines[1])
	}
}

func TestWrapKeepsTypedSpacing(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"a  b   c", "a  b   c"},
		{"  indented", "  indented"},
		{"trailing ", "trailing "},
		{"**bold**  gap", "bold  gap"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			lines := Wrap(tt.in, 1000, runeWidth)
			if len(lines) != 1 {
				t.Fatalf("Expected 1 line, got %d: %v", len(lines), lines)
			}
			if got := lines[0].String(); got != tt.want {
				t.Errorf("Expected %q, got %q", tt.want, got)
			}
		})
	}

	lines := Wrap("  supercalifragilistic", 80, runeWidth)
	if len(lines) != 1 || lines[0].String() != "  supercalifragilistic" {
		t.Errorf("Expected leading spaces to stay with the overlong word, got %v", lines)
	}
}
