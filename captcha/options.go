package captcha

import "fmt"

// Type selects what kind of challenge is generated.
type Type string

const (
	TypeText Type = "text"
	TypeMath Type = "math"
)

// TextMode selects the charset used by text challenges.
type TextMode string

const (
	TextNumbers TextMode = "numbers"
	TextLetters TextMode = "letters"
	TextUpper   TextMode = "upper"
	TextLower   TextMode = "lower"
	TextMixed   TextMode = "mixed"
)

// MaxOperandLimit bounds max_operand so that every result fits a
// displayable, non-overflowing integer.
const MaxOperandLimit = 1_000_000

// Options is the immutable bundle consumed by one generation call.
type Options struct {
	Type       Type     `json:"type" yaml:"type"`
	TextMode   TextMode `json:"text_mode" yaml:"text_mode"`
	Length     int      `json:"length" yaml:"length"`
	MaxOperand int      `json:"max_operand" yaml:"max_operand"`
	Width      int      `json:"width" yaml:"width"`
	Height     int      `json:"height" yaml:"height"`
	FontSize   int      `json:"font_size" yaml:"font_size"`
	Font       string   `json:"font" yaml:"font"`
	Lines      int      `json:"lines" yaml:"lines"`
	Dots       int      `json:"dots" yaml:"dots"`
}

// DefaultOptions returns the options used when nothing is configured.
func DefaultOptions() Options {
	return Options{
		Type:       TypeText,
		TextMode:   TextMixed,
		Length:     5,
		MaxOperand: 9,
		Width:      160,
		Height:     50,
		FontSize:   28,
		Lines:      6,
		Dots:       80,
	}
}

// WithDefaults fills an empty Type with text and an empty TextMode with
// mixed. Values that are set but unknown are left alone so Validate can
// reject them.
func (o Options) WithDefaults() Options {
	if o.Type == "" {
		o.Type = TypeText
	}
	if o.TextMode == "" {
		o.TextMode = TextMixed
	}
	return o
}

// Validate checks the fields the selected challenge type depends on.
func (o Options) Validate() error {
	switch o.Type {
	case TypeText:
		if _, err := charset(o.TextMode); err != nil {
			return err
		}
		if o.Length <= 0 {
			return fmt.Errorf("%w: length must be positive, got %d", ErrConfig, o.Length)
		}
	case TypeMath:
		if o.MaxOperand <= 0 || o.MaxOperand > MaxOperandLimit {
			return fmt.Errorf("%w: max_operand must be in [1, %d], got %d", ErrConfig, MaxOperandLimit, o.MaxOperand)
		}
	default:
		return fmt.Errorf("%w: unknown type %q", ErrConfig, o.Type)
	}
	return nil
}
