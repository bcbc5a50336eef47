package scpi

// Optional is a field that may be omitted from the wire form.
type Optional[T any] struct {
	value T
	valid bool
}

// Some returns a present Optional holding v.
func Some[T any](v T) Optional[T] {
	return Optional[T]{value: v, valid: true}
}

// None returns an absent Optional.
func None[T any]() Optional[T] {
	return Optional[T]{}
}

// Get returns the value and whether it is present.
func (o Optional[T]) Get() (T, bool) {
	return o.value, o.valid
}

// IsSome reports whether the value is present.
func (o Optional[T]) IsSome() bool {
	return o.valid
}

// AppendOptional appends prefix, the value and suffix when o is present, and nothing otherwise.
func AppendOptional[T Encoder](b []byte, o Optional[T], prefix string, suffix string) []byte {
	v, ok := o.Get()
	if !ok {
		return b
	}
	b = append(b, prefix...)
	b = v.AppendSCPI(b)

	return append(b, suffix...)
}

// DecodeOptional decodes prefix, value and suffix as a unit. An absent field yields None and
// leaves the cursor unchanged.
//
// When prefix is not empty and matches, the field is taken to be present: a value or suffix
// that then fails to decode is returned as the error, with the cursor unchanged. With an empty
// prefix any mismatch means absent.
func DecodeOptional[T any, PT interface {
	*T
	Decoder
}](c *Cursor, prefix string, suffix string) (Optional[T], error) {
	var v T

	if prefix == "" {
		if err := c.DecodeAll(PT(&v), Lit(suffix)); err != nil {
			return None[T](), nil //nolint:nilerr // a mismatch means the field is absent
		}

		return Some(v), nil
	}

	mark := c.Mark()
	if c.MatchLiteral(prefix) != nil {
		return None[T](), nil
	}
	if err := c.DecodeAll(PT(&v), Lit(suffix)); err != nil {
		c.Rewind(mark)
		return None[T](), err
	}

	return Some(v), nil
}
