// Package rowspec parses symbolic row references such as "first", "last-1"
// or "%last% + 2" and resolves them to zero-based row indexes.
//
// A specifier is an operand followed by at most one integer offset. The
// operand is either an anchor (first, last) or an integer literal. Literals
// are returned as written; only anchors depend on the row count.
package rowspec

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode"
)

var ErrMalformedRowSpecifier = errors.New("malformed row specifier")

// MaxOffset bounds the offset so anchored specifiers resolve without overflow.
const MaxOffset = math.MaxInt32

type Anchor int

const (
	NoAnchor Anchor = iota
	First
	Last
)

func (a Anchor) String() string {
	switch a {
	case First:
		return "first"
	case Last:
		return "last"
	default:
		return "literal"
	}
}

// Spec is a parsed row specifier.
type Spec struct {
	Raw    string
	Anchor Anchor
	// Literal holds the operand when Anchor is NoAnchor.
	Literal int
	Offset  int
}

func (s Spec) String() string {
	return s.Raw
}

// Resolve returns the zero-based row index for a sheet holding lastRowCount rows.
// The result is not range checked.
func (s Spec) Resolve(lastRowCount int) int {
	base := s.Literal
	switch s.Anchor {
	case First:
		base = 0
	case Last:
		base = lastRowCount - 1
	}
	return base + s.Offset
}

// Resolve parses raw and resolves it against lastRowCount in one step.
func Resolve(raw string, lastRowCount int) (int, error) {
	spec, err := Parse(raw)
	if err != nil {
		return 0, err
	}
	return spec.Resolve(lastRowCount), nil
}

// MustParse is like Parse but panics on error. Intended for constants and tests.
func MustParse(raw string) Spec {
	spec, err := Parse(raw)
	if err != nil {
		panic(err)
	}
	return spec
}

// Parse tokenizes raw and checks it against the operand [op integer] grammar.
func Parse(raw string) (Spec, error) {
	tokens, err := lex(raw)
	if err != nil {
		return Spec{}, malformed(raw, err.Error())
	}

	spec := Spec{Raw: strings.TrimSpace(raw)}
	switch len(tokens) {
	case 0:
		return Spec{}, malformed(raw, "empty")
	case 1, 3:
	default:
		if hasBothOperators(tokens) {
			return Spec{}, malformed(raw, "mixes + and -")
		}
		return Spec{}, malformed(raw, "expected an anchor or integer with at most one offset")
	}

	operand := tokens[0]
	switch operand.kind {
	case tokenAnchor:
		spec.Anchor = operand.anchor
	case tokenNumber:
		spec.Literal = operand.value
	default:
		return Spec{}, malformed(raw, fmt.Sprintf("unexpected %q at start", operand.text))
	}

	if len(tokens) == 1 {
		return spec, nil
	}

	op, offset := tokens[1], tokens[2]
	if op.kind != tokenPlus && op.kind != tokenMinus {
		return Spec{}, malformed(raw, fmt.Sprintf("expected + or - after %q, got %q", operand.text, op.text))
	}
	if offset.kind != tokenNumber {
		return Spec{}, malformed(raw, fmt.Sprintf("offset %q is not an integer", offset.text))
	}

	if offset.value > MaxOffset {
		return Spec{}, malformed(raw, fmt.Sprintf("offset %s exceeds %d", offset.text, MaxOffset))
	}
	spec.Offset = offset.value
	if op.kind == tokenMinus {
		spec.Offset = -offset.value
	}
	if spec.Anchor == NoAnchor && spec.Offset > math.MaxInt-spec.Literal {
		return Spec{}, malformed(raw, "row overflows")
	}
	return spec, nil
}

func malformed(raw, reason string) error {
	return fmt.Errorf("%w %q: %s", ErrMalformedRowSpecifier, raw, reason)
}

func hasBothOperators(tokens []token) bool {
	var plus, minus bool
	for _, t := range tokens {
		plus = plus || t.kind == tokenPlus
		minus = minus || t.kind == tokenMinus
	}
	return plus && minus
}

type tokenKind int

const (
	tokenAnchor tokenKind = iota
	tokenNumber
	tokenPlus
	tokenMinus
)

type token struct {
	kind   tokenKind
	text   string
	anchor Anchor
	value  int
}

func lex(raw string) ([]token, error) {
	var tokens []token
	runes := []rune(raw)

	for i := 0; i < len(runes); {
		r := runes[i]
		switch {
		case unicode.IsSpace(r):
			i++

		case r == '+':
			tokens = append(tokens, token{kind: tokenPlus, text: "+"})
			i++

		case r == '-':
			tokens = append(tokens, token{kind: tokenMinus, text: "-"})
			i++

		case r == '%':
			end := indexRune(runes, i+1, '%')
			if end < 0 {
				return nil, fmt.Errorf("unterminated %%anchor%% at offset %d", i)
			}
			word := string(runes[i+1 : end])
			anchor, ok := lookupAnchor(word)
			if !ok {
				return nil, fmt.Errorf("unknown anchor %q", "%"+word+"%")
			}
			tokens = append(tokens, token{kind: tokenAnchor, text: string(runes[i : end+1]), anchor: anchor})
			i = end + 1

		case r >= '0' && r <= '9':
			start := i
			for i < len(runes) && runes[i] >= '0' && runes[i] <= '9' {
				i++
			}
			text := string(runes[start:i])
			value, err := strconv.Atoi(text)
			if err != nil {
				return nil, fmt.Errorf("integer %q out of range", text)
			}
			tokens = append(tokens, token{kind: tokenNumber, text: text, value: value})

		case unicode.IsLetter(r):
			start := i
			for i < len(runes) && unicode.IsLetter(runes[i]) {
				i++
			}
			word := string(runes[start:i])
			anchor, ok := lookupAnchor(word)
			if !ok {
				return nil, fmt.Errorf("unknown anchor %q", word)
			}
			// "first-row" and "last_row" spell the same anchors.
			if rest := strings.ToLower(string(runes[i:])); strings.HasPrefix(rest, "-row") || strings.HasPrefix(rest, "_row") {
				if len(runes) == i+4 || !unicode.IsLetter(runes[i+4]) {
					i += 4
				}
			}
			tokens = append(tokens, token{kind: tokenAnchor, text: string(runes[start:i]), anchor: anchor})

		default:
			return nil, fmt.Errorf("unexpected character %q at offset %d", r, i)
		}
	}
	return tokens, nil
}

func lookupAnchor(word string) (Anchor, bool) {
	switch strings.ToLower(word) {
	case "first":
		return First, true
	case "last":
		return Last, true
	}
	return NoAnchor, false
}

func indexRune(runes []rune, from int, r rune) int {
	for i := from; i < len(runes); i++ {
		if runes[i] == r {
			return i
		}
	}
	return -1
}
