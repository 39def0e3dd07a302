package text

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Case selects how text is re-cased before layout.
type Case int

const (
	CaseDefault Case = iota
	CaseUpper
	CaseLower
	CaseTitle
	CaseSentence
)

var caseNames = map[Case]string{
	CaseDefault:  "default",
	CaseUpper:    "uppercase",
	CaseLower:    "lowercase",
	CaseTitle:    "titlecase",
	CaseSentence: "sentencecase",
}

func (c Case) String() string {
	if s, ok := caseNames[c]; ok {
		return s
	}
	return fmt.Sprintf("Case(%d)", int(c))
}

// ParseCase accepts the names produced by String. "capitalize" is an alias of titlecase.
func ParseCase(s string) (Case, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "default", "none":
		return CaseDefault, nil
	case "uppercase", "upper":
		return CaseUpper, nil
	case "lowercase", "lower":
		return CaseLower, nil
	case "titlecase", "title", "capitalize":
		return CaseTitle, nil
	case "sentencecase", "sentence":
		return CaseSentence, nil
	default:
		return CaseDefault, fmt.Errorf("unknown text case: %q", s)
	}
}

func (c Case) MarshalText() ([]byte, error) { return []byte(c.String()), nil }

func (c *Case) UnmarshalText(b []byte) error {
	v, err := ParseCase(string(b))
	if err != nil {
		return err
	}
	*c = v
	return nil
}

var (
	upperCaser = cases.Upper(language.Und)
	lowerCaser = cases.Lower(language.Und)
)

// TransformCase applies mode to s. Every mode is idempotent.
func TransformCase(s string, mode Case) string {
	switch mode {
	case CaseUpper:
		return upperCaser.String(s)
	case CaseLower:
		return lowerCaser.String(s)
	case CaseTitle:
		return titleCase(s)
	case CaseSentence:
		return sentenceCase(s)
	default:
		return s
	}
}

// titleCase uppercases the first letter or digit of every whitespace-delimited
// token and lowercases the rest of the token. Leading punctuation such as
// markdown markers is kept as is.
func titleCase(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	seenWordRune := false
	for _, r := range s {
		switch {
		case unicode.IsSpace(r):
			seenWordRune = false
		case !seenWordRune && (unicode.IsLetter(r) || unicode.IsDigit(r)):
			r = unicode.ToUpper(r)
			seenWordRune = true
		case seenWordRune:
			r = unicode.ToLower(r)
		}
		b.WriteRune(r)
	}
	return b.String()
}

// sentenceCase lowercases s, then uppercases the first letter of the string and
// the first letter following a '.', '!' or '?' that is itself followed by whitespace.
func sentenceCase(s string) string {
	lower := lowerCaser.String(s)
	var b strings.Builder
	b.Grow(len(lower))

	// capNext is set at the start and after terminal punctuation + whitespace.
	capNext := true
	sawTerminal := false
	for i, r := range lower {
		switch {
		case capNext && unicode.IsLetter(r):
			b.WriteRune(unicode.ToUpper(r))
			capNext = false
			sawTerminal = false
			continue
		case r == '.' || r == '!' || r == '?':
			sawTerminal = true
			capNext = false
		case unicode.IsSpace(r):
			if sawTerminal || i == 0 || allSpace(lower[:i]) {
				capNext = true
			}
		default:
			sawTerminal = false
			if !unicode.IsLetter(r) {
				capNext = false
			}
		}
		b.WriteRune(r)
	}
	return b.String()
}

func allSpace(s string) bool {
	for len(s) > 0 {
		r, size := utf8.DecodeRuneInString(s)
		if !unicode.IsSpace(r) {
			return false
		}
		s = s[size:]
	}
	return true
}
