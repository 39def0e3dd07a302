package composition

import "github.com/google/uuid"

const DefaultBoxText = "Your text here"

// TextBox is one card of user text. Its position is derived at render time.
type TextBox struct {
	ID                  string `yaml:"id" json:"id"`
	Text                string `yaml:"text" json:"text"`
	UseCustomFormatting bool   `yaml:"custom" json:"custom"`
	Style               Style  `yaml:"style" json:"style"`
}

// NewTextBox returns a box with default text and formatting and a fresh ID.
func NewTextBox() TextBox {
	return TextBox{
		ID:    uuid.NewString(),
		Text:  DefaultBoxText,
		Style: DefaultStyle(),
	}
}

// Effective returns the formatting the box renders with.
func (b TextBox) Effective(defaults Style) Style {
	if b.UseCustomFormatting {
		return b.Style
	}
	return defaults
}
