package scpi

import (
	"fmt"
	"strings"
)

// Token binds one value of an enumerated type to its wire literal.
type Token[T comparable] struct {
	Value   T
	Literal string
}

// Tokens is a closed set of values, each bound to one fixed literal.
//
// Decoding tries the literals in declaration order and the first match wins, so a literal
// that is a prefix of another must be declared after it.
type Tokens[T comparable] struct {
	name   string
	tokens []Token[T]
}

// NewTokens creates a token table. name identifies the type in decode faults and panics.
func NewTokens[T comparable](name string, tokens ...Token[T]) *Tokens[T] {
	seen := make(map[T]struct{}, len(tokens))
	for _, tok := range tokens {
		if _, dup := seen[tok.Value]; dup {
			panic(fmt.Sprintf("scpi: duplicate %s value %v", name, tok.Value))
		}
		seen[tok.Value] = struct{}{}
	}

	return &Tokens[T]{name: name, tokens: tokens}
}

// Name returns the table name.
func (t *Tokens[T]) Name() string {
	return t.name
}

// Values returns the values in declaration order.
func (t *Tokens[T]) Values() []T {
	values := make([]T, len(t.tokens))
	for i, tok := range t.tokens {
		values[i] = tok.Value
	}

	return values
}

// Literal returns the literal bound to v.
func (t *Tokens[T]) Literal(v T) (string, bool) {
	for _, tok := range t.tokens {
		if tok.Value == v {
			return tok.Literal, true
		}
	}

	return "", false
}

// Append appends the literal of v. It panics if v is not in the table: such a value
// can only be produced by converting an arbitrary integer.
func (t *Tokens[T]) Append(b []byte, v T) []byte {
	lit, ok := t.Literal(v)
	if !ok {
		panic(fmt.Sprintf("scpi: %s value %v has no wire literal", t.name, v))
	}

	return append(b, lit...)
}

// Decode consumes the first literal matching the remaining input.
func (t *Tokens[T]) Decode(c *Cursor) (T, error) {
	for _, tok := range t.tokens {
		if c.MatchLiteral(tok.Literal) == nil {
			return tok.Value, nil
		}
	}

	var zero T
	literals := make([]string, len(t.tokens))
	for i, tok := range t.tokens {
		literals[i] = tok.Literal
	}

	return zero, NewDecodeError(c, strings.Join(literals, "|"), "unexpected token for "+t.name)
}

// DecodeInto decodes a value into dst. dst is untouched on failure.
func (t *Tokens[T]) DecodeInto(c *Cursor, dst *T) error {
	v, err := t.Decode(c)
	if err != nil {
		return err
	}
	*dst = v

	return nil
}

// Format returns the literal of v, or "Name(v)" when v is not in the table.
func (t *Tokens[T]) Format(v T) string {
	if lit, ok := t.Literal(v); ok {
		return lit
	}

	return fmt.Sprintf("%s(%v)", t.name, v)
}
