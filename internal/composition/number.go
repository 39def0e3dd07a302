package composition

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Number is a numeric field that may be empty or unparsable. The zero value
// is invalid; the pipeline checks Valid before using a value.
type Number struct {
	v  float64
	ok bool
}

// Num returns a valid Number holding v. NaN and infinities are invalid.
func Num(v float64) Number {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return Number{}
	}
	return Number{v: v, ok: true}
}

// Invalid is the empty value.
var Invalid = Number{}

// ParseNumber parses user input. Empty or non-numeric input is Invalid.
func ParseNumber(s string) Number {
	s = strings.TrimSpace(s)
	if s == "" {
		return Invalid
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return Invalid
	}
	return Num(v)
}

func (n Number) Valid() bool { return n.ok }

// Float returns the value and whether it is valid.
func (n Number) Float() (float64, bool) { return n.v, n.ok }

// Or returns the value, or fallback when invalid.
func (n Number) Or(fallback float64) float64 {
	if !n.ok {
		return fallback
	}
	return n.v
}

func (n Number) String() string {
	if !n.ok {
		return ""
	}
	return strconv.FormatFloat(n.v, 'f', -1, 64)
}

func (n Number) MarshalYAML() (interface{}, error) {
	if !n.ok {
		return nil, nil
	}
	return n.v, nil
}

func (n *Number) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode || node.Tag == "!!null" {
		*n = Invalid
		return nil
	}
	*n = ParseNumber(node.Value)
	return nil
}

func (n Number) MarshalJSON() ([]byte, error) {
	if !n.ok {
		return []byte("null"), nil
	}
	return []byte(n.String()), nil
}

func (n *Number) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*n = Invalid
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*n = ParseNumber(s)
		return nil
	}
	*n = ParseNumber(string(b))
	return nil
}
