package dynjson

import (
	"encoding"
	"fmt"
	"strconv"
	"time"

	"github.com/cockroachdb/apd/v3"

	"tickvault/pkg/core"
)

// Ctx is the diagnostic breadcrumb threaded through a decode. It carries the
// operation label and the path from the response root to the value under
// inspection. Ctx is a value; At and Index return extended copies, so one
// context can fan out over nested values without interference.
type Ctx struct {
	path string
}

// Op returns the root context for a response, labeled with the operation
// name.
func Op(label string) Ctx {
	return Ctx{path: label}
}

// At returns a context one object level deeper, under the given key.
func (c Ctx) At(key string) Ctx {
	c.path += "." + key
	return c
}

// Index returns a context one array level deeper, at the given index.
func (c Ctx) Index(i int) Ctx {
	c.path += "[" + strconv.Itoa(i) + "]"
	return c
}

// Path returns the diagnostic path accumulated so far.
func (c Ctx) Path() string { return c.path }

func (c Ctx) mismatch(expected string, v Value, key string) error {
	return &core.TypeMismatchError{
		Path:     c.path,
		Expected: expected,
		Actual:   v.kind.String(),
		Value:    render(v),
		Key:      key,
	}
}

// object asserts the inspected value is an object and returns its members.
func (c Ctx) object(doc Value) (map[string]Value, error) {
	if doc.kind != KindObject {
		return nil, c.mismatch(KindObject.String(), doc, "")
	}
	return doc.obj, nil
}

// member looks up a required key in an object.
func (c Ctx) member(doc Value, key string) (Value, error) {
	obj, err := c.object(doc)
	if err != nil {
		return Value{}, err
	}
	v, ok := obj[key]
	if !ok {
		return Value{}, &core.MissingKeyError{Path: c.path, Key: key}
	}
	return v, nil
}

// Bool reads a required boolean under key.
func (c Ctx) Bool(doc Value, key string) (bool, error) {
	v, err := c.member(doc, key)
	if err != nil {
		return false, err
	}
	if v.kind != KindBool {
		return false, c.mismatch(KindBool.String(), v, key)
	}
	return v.b, nil
}

// String reads a required string under key.
func (c Ctx) String(doc Value, key string) (string, error) {
	v, err := c.member(doc, key)
	if err != nil {
		return "", err
	}
	if v.kind != KindString {
		return "", c.mismatch(KindString.String(), v, key)
	}
	return v.str, nil
}

// Uint reads a required unsigned integer under key. A numeric value that is
// not a non-negative integral fitting uint64 is rejected, not truncated.
func (c Ctx) Uint(doc Value, key string) (uint64, error) {
	v, err := c.member(doc, key)
	if err != nil {
		return 0, err
	}
	if v.kind != KindUint {
		return 0, c.mismatch(KindUint.String(), v, key)
	}
	return v.u, nil
}

// Float reads a required number under key. Both numeric kinds qualify.
func (c Ctx) Float(doc Value, key string) (float64, error) {
	v, err := c.member(doc, key)
	if err != nil {
		return 0, err
	}
	switch v.kind {
	case KindUint:
		return float64(v.u), nil
	case KindFloat:
		return v.f, nil
	default:
		return 0, c.mismatch(KindFloat.String(), v, key)
	}
}

// Decimal reads a required number under key as an exact decimal, parsed from
// the raw literal rather than a float round trip.
func (c Ctx) Decimal(doc Value, key string) (apd.Decimal, error) {
	v, err := c.member(doc, key)
	if err != nil {
		return apd.Decimal{}, err
	}
	return c.decimal(v, key)
}

func (c Ctx) decimal(v Value, key string) (apd.Decimal, error) {
	if v.kind != KindUint && v.kind != KindFloat {
		return apd.Decimal{}, c.mismatch(KindFloat.String(), v, key)
	}
	var d apd.Decimal
	if _, _, err := d.SetString(v.num); err != nil {
		return apd.Decimal{}, c.mismatch(KindFloat.String(), v, key)
	}
	return d, nil
}

// TimeNanos reads a required unsigned integer under key and interprets it as
// nanoseconds since the Unix epoch, in UTC.
func (c Ctx) TimeNanos(doc Value, key string) (time.Time, error) {
	ns, err := c.Uint(doc, key)
	if err != nil {
		return time.Time{}, err
	}
	return time.Unix(0, int64(ns)).UTC(), nil
}

// Strings reads a required array of strings under key. Elements are checked
// one by one, with the element index as the reported key.
func (c Ctx) Strings(doc Value, key string) ([]string, error) {
	v, err := c.member(doc, key)
	if err != nil {
		return nil, err
	}
	if v.kind != KindArray {
		return nil, c.mismatch(KindArray.String(), v, key)
	}
	elemCtx := c.At(key)
	out := make([]string, len(v.arr))
	for i, e := range v.arr {
		if e.kind != KindString {
			return nil, elemCtx.mismatch(KindString.String(), e, strconv.Itoa(i))
		}
		out[i] = e.str
	}
	return out, nil
}

// Array reads a required array under key and returns its elements.
func (c Ctx) Array(doc Value, key string) ([]Value, error) {
	v, err := c.member(doc, key)
	if err != nil {
		return nil, err
	}
	if v.kind != KindArray {
		return nil, c.mismatch(KindArray.String(), v, key)
	}
	return v.arr, nil
}

// Object reads a required object under key and returns it for nested
// decoding, typically with a context extended by At(key).
func (c Ctx) Object(doc Value, key string) (Value, error) {
	v, err := c.member(doc, key)
	if err != nil {
		return Value{}, err
	}
	if v.kind != KindObject {
		return Value{}, c.mismatch(KindObject.String(), v, key)
	}
	return v, nil
}

// StringOr reads an optional string under key, returning def when the key is
// absent. A present value of the wrong shape still fails.
func (c Ctx) StringOr(doc Value, key, def string) (string, error) {
	obj, err := c.object(doc)
	if err != nil {
		return "", err
	}
	v, ok := obj[key]
	if !ok {
		return def, nil
	}
	if v.kind != KindString {
		return "", c.mismatch(KindString.String(), v, key)
	}
	return v.str, nil
}

// UintOr reads an optional unsigned integer under key, returning def when
// the key is absent. A present value of the wrong shape still fails.
func (c Ctx) UintOr(doc Value, key string, def uint64) (uint64, error) {
	obj, err := c.object(doc)
	if err != nil {
		return 0, err
	}
	v, ok := obj[key]
	if !ok {
		return def, nil
	}
	if v.kind != KindUint {
		return 0, c.mismatch(KindUint.String(), v, key)
	}
	return v.u, nil
}

// Fields asserts the response root is an object and returns its members for
// iteration.
func (c Ctx) Fields(doc Value) (map[string]Value, error) {
	return c.object(doc)
}

// Elements asserts the response root is an array and returns its elements.
func (c Ctx) Elements(doc Value) ([]Value, error) {
	if doc.kind != KindArray {
		return nil, c.mismatch(KindArray.String(), doc, "")
	}
	return doc.arr, nil
}

// AsStrings asserts the response root is an array of strings. Elements are
// checked one by one, with the element index as the reported key.
func (c Ctx) AsStrings(doc Value) ([]string, error) {
	elems, err := c.Elements(doc)
	if err != nil {
		return nil, err
	}
	out := make([]string, len(elems))
	for i, e := range elems {
		if e.kind != KindString {
			return nil, c.mismatch(KindString.String(), e, strconv.Itoa(i))
		}
		out[i] = e.str
	}
	return out, nil
}

// AsUint asserts the response root is an unsigned integer.
func (c Ctx) AsUint(doc Value) (uint64, error) {
	if doc.kind != KindUint {
		return 0, c.mismatch(KindUint.String(), doc, "")
	}
	return doc.u, nil
}

// AsDecimal asserts the response root is a number and returns it as an exact
// decimal.
func (c Ctx) AsDecimal(doc Value) (apd.Decimal, error) {
	return c.decimal(doc, "")
}

// Enum reads a required string under key and maps it through the enum's
// bijective text table. Unrecognized text fails as a type mismatch naming
// the enum type, so enum violations travel the same channel as every other
// shape violation.
func Enum[E any, PE interface {
	*E
	encoding.TextUnmarshaler
}](c Ctx, doc Value, key string) (E, error) {
	var e E
	s, err := c.String(doc, key)
	if err != nil {
		return e, err
	}
	if uerr := PE(&e).UnmarshalText([]byte(s)); uerr != nil {
		return e, &core.TypeMismatchError{
			Path:     c.path,
			Expected: fmt.Sprintf("%T", e),
			Actual:   KindString.String(),
			Value:    strconv.Quote(s),
			Key:      key,
		}
	}
	return e, nil
}
