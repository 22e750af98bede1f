package captcha

import (
	"fmt"
	"strconv"
	"strings"
)

const (
	numbers = "23456789"
	lower   = "abcdefghjkmnpqrstuvwxyz"
	upper   = "ABCDEFGHJKMNPQRSTUVWXYZ"

	// maxProductOperand keeps multiplication answers mentally tractable.
	maxProductOperand = 5
)

// Challenge is a freshly generated (secret, display) pair.
type Challenge struct {
	Secret  string
	Display string
}

// Operator is one of the arithmetic operations used by math challenges.
type Operator int

const (
	OpAdd Operator = iota
	OpSub
	OpMul
)

var operators = [...]Operator{OpAdd, OpSub, OpMul}

func (op Operator) String() string {
	switch op {
	case OpAdd:
		return "+"
	case OpSub:
		return "-"
	case OpMul:
		return "×"
	default:
		return "?"
	}
}

// Apply computes a op b.
func (op Operator) Apply(a, b int) int {
	switch op {
	case OpSub:
		return a - b
	case OpMul:
		return a * b
	default:
		return a + b
	}
}

// ParseOperator is the inverse of Operator.String. It also accepts
// ASCII "*" for multiplication.
func ParseOperator(s string) (Operator, bool) {
	switch s {
	case "+":
		return OpAdd, true
	case "-":
		return OpSub, true
	case "×", "*":
		return OpMul, true
	}
	return 0, false
}

func charset(mode TextMode) (string, error) {
	switch mode {
	case TextNumbers:
		return numbers, nil
	case TextLetters:
		return lower + upper, nil
	case TextUpper:
		return upper, nil
	case TextLower:
		return lower, nil
	case TextMixed:
		return numbers + lower + upper, nil
	}
	return "", fmt.Errorf("%w: unknown text_mode %q", ErrConfig, mode)
}

// Charset returns the characters a text challenge in the given mode draws from.
func Charset(mode TextMode) (string, error) {
	return charset(mode)
}

// Generator produces challenges from a random Source.
type Generator struct {
	src Source
}

// NewGenerator returns a Generator backed by crypto/rand.
func NewGenerator() *Generator {
	return &Generator{src: CryptoSource}
}

// NewGeneratorWithSource is for callers (mostly tests) that need
// control over the draws.
func NewGeneratorWithSource(src Source) *Generator {
	return &Generator{src: src}
}

// Generate branches on opts.Type. Options are validated first so a
// misconfiguration never yields a challenge.
func (g *Generator) Generate(opts Options) (Challenge, error) {
	if err := opts.Validate(); err != nil {
		return Challenge{}, err
	}
	if opts.Type == TypeMath {
		return g.math(opts.MaxOperand)
	}
	return g.text(opts.TextMode, opts.Length)
}

func (g *Generator) text(mode TextMode, length int) (Challenge, error) {
	chars, err := charset(mode)
	if err != nil {
		return Challenge{}, err
	}
	var b strings.Builder
	b.Grow(length)
	for i := 0; i < length; i++ {
		n, err := g.src.Intn(len(chars))
		if err != nil {
			return Challenge{}, err
		}
		b.WriteByte(chars[n])
	}
	code := b.String()
	return Challenge{Secret: code, Display: code}, nil
}

func (g *Generator) math(maxOperand int) (Challenge, error) {
	a, err := between(g.src, 1, maxOperand)
	if err != nil {
		return Challenge{}, err
	}
	b, err := between(g.src, 1, maxOperand)
	if err != nil {
		return Challenge{}, err
	}
	n, err := g.src.Intn(len(operators))
	if err != nil {
		return Challenge{}, err
	}
	op := operators[n]

	switch op {
	case OpSub:
		if a < b {
			a, b = b, a
		}
	case OpMul:
		limit := min(maxProductOperand, maxOperand)
		if a, err = between(g.src, 1, limit); err != nil {
			return Challenge{}, err
		}
		if b, err = between(g.src, 1, limit); err != nil {
			return Challenge{}, err
		}
	}

	return Challenge{
		Secret:  strconv.Itoa(op.Apply(a, b)),
		Display: fmt.Sprintf("%d %s %d = ?", a, op, b),
	}, nil
}
