// Package dynjson parses JSON response bodies into an immutable tagged
// document and provides checked accessors over it. Shape violations surface
// as the decode errors in pkg/core, each carrying the operation name and the
// path to the offending value.
package dynjson

import (
	"encoding/json"
	"fmt"
	"maps"
	"slices"
	"strconv"
	"strings"

	"github.com/bytedance/sonic"

	"tickvault/pkg/core"
)

// Kind is the type tag of a Value. The tag is assigned once at parse time
// and never changes.
type Kind int

// Kind constants cover every shape a parsed value can take. Numbers are
// split eagerly: a non-negative integral literal that fits uint64 is tagged
// KindUint, every other numeric literal is tagged KindFloat.
const (
	KindNull Kind = iota
	KindBool
	KindUint
	KindFloat
	KindString
	KindArray
	KindObject
)

// String returns the name used for the kind in decode errors.
func (k Kind) String() string {
	return [...]string{
		"null",
		"boolean",
		"unsigned number",
		"number",
		"string",
		"array",
		"object",
	}[k]
}

// Value is one node of a parsed document. A Value is immutable after Parse
// returns; accessors read it without copying.
type Value struct {
	kind Kind
	b    bool
	u    uint64
	f    float64
	num  string // raw literal for numeric kinds, kept for exact decimals
	str  string
	arr  []Value
	obj  map[string]Value
}

// Kind returns the type tag of the value.
func (v Value) Kind() Kind { return v.kind }

var parser = sonic.Config{UseNumber: true}.Froze()

// Parse decodes a JSON body into a document. The op label names the
// operation the body answers; it becomes the root of every diagnostic path.
// Malformed JSON fails with a ParseError carrying that label.
func Parse(op string, data []byte) (Value, error) {
	var raw any
	if err := parser.Unmarshal(data, &raw); err != nil {
		return Value{}, &core.ParseError{Op: op, Err: err}
	}
	v, err := fromAny(raw)
	if err != nil {
		return Value{}, &core.ParseError{Op: op, Err: err}
	}
	return v, nil
}

func fromAny(raw any) (Value, error) {
	switch x := raw.(type) {
	case nil:
		return Value{kind: KindNull}, nil
	case bool:
		return Value{kind: KindBool, b: x}, nil
	case json.Number:
		return fromNumber(x)
	case string:
		return Value{kind: KindString, str: x}, nil
	case []any:
		arr := make([]Value, len(x))
		for i, e := range x {
			v, err := fromAny(e)
			if err != nil {
				return Value{}, err
			}
			arr[i] = v
		}
		return Value{kind: KindArray, arr: arr}, nil
	case map[string]any:
		obj := make(map[string]Value, len(x))
		for k, e := range x {
			v, err := fromAny(e)
			if err != nil {
				return Value{}, err
			}
			obj[k] = v
		}
		return Value{kind: KindObject, obj: obj}, nil
	default:
		return Value{}, fmt.Errorf("unsupported JSON value of type %T", raw)
	}
}

func fromNumber(n json.Number) (Value, error) {
	s := string(n)
	if u, err := strconv.ParseUint(s, 10, 64); err == nil {
		return Value{kind: KindUint, u: u, num: s}, nil
	}
	f, err := n.Float64()
	if err != nil {
		return Value{}, err
	}
	return Value{kind: KindFloat, f: f, num: s}, nil
}

// render produces the deterministic representation of a value used in decode
// errors. Object keys are sorted so that the same failure always yields the
// same message.
func render(v Value) string {
	switch v.kind {
	case KindNull:
		return "null"
	case KindBool:
		if v.b {
			return "true"
		}
		return "false"
	case KindUint, KindFloat:
		return v.num
	case KindString:
		return strconv.Quote(v.str)
	case KindArray:
		var b strings.Builder
		b.WriteByte('[')
		for i, e := range v.arr {
			if i > 0 {
				b.WriteByte(',')
			}
			b.WriteString(render(e))
		}
		b.WriteByte(']')
		return b.String()
	default:
		var b strings.Builder
		b.WriteByte('{')
		for i, k := range slices.Sorted(maps.Keys(v.obj)) {
			if i > 0 {
				b.WriteByte(',')
			}
			b.WriteString(strconv.Quote(k))
			b.WriteByte(':')
			b.WriteString(render(v.obj[k]))
		}
		b.WriteByte('}')
		return b.String()
	}
}
