// Package jsondoc implements the generic ordered document value used by all
// query operations. A Value is a tagged union over null, booleans, numbers
// (kept as validated decimal text so the external representation is exact),
// strings, insertion-ordered objects and arrays.
package jsondoc

import (
	"bytes"
	"encoding/json"
	"strconv"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/pkg/errors"
)

// Kind identifies which variant of the union a Value holds.
type Kind byte

// The seven value kinds.
const (
	KindNull Kind = iota
	KindFalse
	KindTrue
	KindNum
	KindStr
	KindObj
	KindArr
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindFalse, KindTrue:
		return "bool"
	case KindNum:
		return "number"
	case KindStr:
		return "string"
	case KindObj:
		return "object"
	case KindArr:
		return "array"
	}
	return "unknown"
}

// Value is a single node of a document tree. Values are tree-shaped, built
// fresh per query response and consumed immediately by serialization.
//
// Object entries preserve insertion order and are looked up by linear scan.
// Keys are not deduplicated on insert; well-formed producers never push the
// same key twice.
type Value struct {
	kind Kind
	text string // payload for KindNum and KindStr
	keys []string
	vals []*Value // object entry values, or array elements
}

// NewNull returns a fresh null value.
func NewNull() *Value { return &Value{kind: KindNull} }

// NewBool returns a boolean value.
func NewBool(b bool) *Value {
	if b {
		return &Value{kind: KindTrue}
	}
	return &Value{kind: KindFalse}
}

// NewString returns a string value.
func NewString(s string) *Value { return &Value{kind: KindStr, text: s} }

// NewNumber returns a numeric value holding the given decimal text. The text
// must be a well-formed JSON number; anything else is a parameter error.
func NewNumber(text string) (*Value, error) {
	if !validNumText(text) {
		return nil, errors.Errorf("invalid numeric text %q", text)
	}
	return &Value{kind: KindNum, text: text}, nil
}

// NewInt returns a numeric value for a signed integer.
func NewInt(i int64) *Value {
	return &Value{kind: KindNum, text: strconv.FormatInt(i, 10)}
}

// NewUint returns a numeric value for an unsigned integer.
func NewUint(u uint64) *Value {
	return &Value{kind: KindNum, text: strconv.FormatUint(u, 10)}
}

// NewAmount renders a monetary amount with exactly eight decimal places.
// Amounts never pass through binary floating point.
func NewAmount(amt btcutil.Amount) *Value {
	n := int64(amt)
	sign := ""
	if n < 0 {
		sign = "-"
		n = -n
	}
	whole := n / btcutil.SatoshiPerBitcoin
	frac := n % btcutil.SatoshiPerBitcoin
	text := sign + strconv.FormatInt(whole, 10) + "." + pad8(frac)
	return &Value{kind: KindNum, text: text}
}

func pad8(n int64) string {
	s := strconv.FormatInt(n, 10)
	for len(s) < 8 {
		s = "0" + s
	}
	return s
}

// NewObject returns an empty ordered object.
func NewObject() *Value { return &Value{kind: KindObj} }

// NewArray returns an empty array.
func NewArray() *Value { return &Value{kind: KindArr} }

// Kind returns the variant tag of the value.
func (v *Value) Kind() Kind { return v.kind }

// IsNull reports whether the value is the null variant.
func (v *Value) IsNull() bool { return v.kind == KindNull }

// PushKV appends an entry to an object. It is a no-op on non-objects.
func (v *Value) PushKV(key string, val *Value) {
	if v.kind != KindObj {
		return
	}
	v.keys = append(v.keys, key)
	v.vals = append(v.vals, val)
}

// Append adds an element to an array. It is a no-op on non-arrays.
func (v *Value) Append(val *Value) {
	if v.kind != KindArr {
		return
	}
	v.vals = append(v.vals, val)
}

// Len returns the number of object entries or array elements.
func (v *Value) Len() int { return len(v.vals) }

// Keys returns the object's keys in insertion order.
func (v *Value) Keys() []string { return v.keys }

// Key is the non-throwing object lookup. It returns a null value when the
// receiver is not an object or the key is absent. The first entry wins when
// a producer has inserted a duplicate key.
func (v *Value) Key(key string) *Value {
	if v.kind == KindObj {
		for i, k := range v.keys {
			if k == key {
				return v.vals[i]
			}
		}
	}
	return NewNull()
}

// At is the non-throwing array lookup, returning a null value when the index
// is out of range or the receiver is not an array.
func (v *Value) At(i int) *Value {
	if v.kind == KindArr && i >= 0 && i < len(v.vals) {
		return v.vals[i]
	}
	return NewNull()
}

// StrictKey is the strict object lookup. Unlike Key it reports an error
// naming the missing key or the kind mismatch.
func (v *Value) StrictKey(key string) (*Value, error) {
	if v.kind != KindObj {
		return nil, errors.Errorf("cannot look up key %q in a %s value", key, v.kind)
	}
	for i, k := range v.keys {
		if k == key {
			return v.vals[i], nil
		}
	}
	return nil, errors.Errorf("key %q not found", key)
}

// Str returns the string payload, or an error on kind mismatch.
func (v *Value) Str() (string, error) {
	if v.kind != KindStr {
		return "", errors.Errorf("value is a %s, not a string", v.kind)
	}
	return v.text, nil
}

// NumText returns the exact decimal text of a numeric value.
func (v *Value) NumText() (string, error) {
	if v.kind != KindNum {
		return "", errors.Errorf("value is a %s, not a number", v.kind)
	}
	return v.text, nil
}

// Int returns the value as a signed integer, failing on kind mismatch or a
// non-integral payload.
func (v *Value) Int() (int64, error) {
	if v.kind != KindNum {
		return 0, errors.Errorf("value is a %s, not a number", v.kind)
	}
	i, err := strconv.ParseInt(v.text, 10, 64)
	if err != nil {
		return 0, errors.Wrapf(err, "numeric value %q is not integral", v.text)
	}
	return i, nil
}

// Bool returns the boolean payload, or an error on kind mismatch.
func (v *Value) Bool() (bool, error) {
	switch v.kind {
	case KindTrue:
		return true, nil
	case KindFalse:
		return false, nil
	}
	return false, errors.Errorf("value is a %s, not a bool", v.kind)
}

// Elems returns the array's elements in order, or an error on kind mismatch.
func (v *Value) Elems() ([]*Value, error) {
	if v.kind != KindArr {
		return nil, errors.Errorf("value is a %s, not an array", v.kind)
	}
	return v.vals, nil
}

// Equal reports deep equality. Null and boolean variants compare by tag
// alone; numbers and strings compare by their textual form; objects and
// arrays compare entries and elements recursively.
func (v *Value) Equal(other *Value) bool {
	if v.kind != other.kind {
		return false
	}
	switch v.kind {
	case KindNull, KindFalse, KindTrue:
		return true
	case KindNum, KindStr:
		return v.text == other.text
	case KindArr:
		if len(v.vals) != len(other.vals) {
			return false
		}
		for i := range v.vals {
			if !v.vals[i].Equal(other.vals[i]) {
				return false
			}
		}
		return true
	case KindObj:
		if len(v.vals) != len(other.vals) {
			return false
		}
		for i := range v.vals {
			if v.keys[i] != other.keys[i] || !v.vals[i].Equal(other.vals[i]) {
				return false
			}
		}
		return true
	}
	return false
}

// MarshalJSON renders the value, preserving object entry order.
func (v *Value) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	if err := v.write(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (v *Value) write(buf *bytes.Buffer) error {
	switch v.kind {
	case KindNull:
		buf.WriteString("null")
	case KindFalse:
		buf.WriteString("false")
	case KindTrue:
		buf.WriteString("true")
	case KindNum:
		buf.WriteString(v.text)
	case KindStr:
		escaped, err := json.Marshal(v.text)
		if err != nil {
			return err
		}
		buf.Write(escaped)
	case KindArr:
		buf.WriteByte('[')
		for i, elem := range v.vals {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := elem.write(buf); err != nil {
				return err
			}
		}
		buf.WriteByte(']')
	case KindObj:
		buf.WriteByte('{')
		for i, key := range v.keys {
			if i > 0 {
				buf.WriteByte(',')
			}
			escaped, err := json.Marshal(key)
			if err != nil {
				return err
			}
			buf.Write(escaped)
			buf.WriteByte(':')
			if err := v.vals[i].write(buf); err != nil {
				return err
			}
		}
		buf.WriteByte('}')
	}
	return nil
}

// validNumText checks the JSON number grammar: an optional minus sign, an
// integer part with no redundant leading zero, an optional fraction and an
// optional exponent.
func validNumText(s string) bool {
	i := 0
	if i < len(s) && s[i] == '-' {
		i++
	}
	start := i
	for i < len(s) && s[i] >= '0' && s[i] <= '9' {
		i++
	}
	switch {
	case i == start:
		return false
	case i-start > 1 && s[start] == '0':
		return false
	}
	if i < len(s) && s[i] == '.' {
		i++
		fracStart := i
		for i < len(s) && s[i] >= '0' && s[i] <= '9' {
			i++
		}
		if i == fracStart {
			return false
		}
	}
	if i < len(s) && (s[i] == 'e' || s[i] == 'E') {
		i++
		if i < len(s) && (s[i] == '+' || s[i] == '-') {
			i++
		}
		expStart := i
		for i < len(s) && s[i] >= '0' && s[i] <= '9' {
			i++
		}
		if i == expStart {
			return false
		}
	}
	return i == len(s)
}
