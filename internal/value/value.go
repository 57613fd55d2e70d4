// Package value provides the in-memory tree exchanged between formats.
//
// A Value is one of null, boolean, number, string, an ordered sequence or an
// ordered mapping of unique string keys. Mapping keys keep insertion order so
// a document survives a round trip through any of the converters unchanged.
// The tree must be acyclic; nothing in this package or its consumers detects
// cycles.
package value

import (
	"fmt"
	"math"
)

// Kind identifies the variant held by a Value.
type Kind int

const (
	KindNull Kind = iota
	KindBool
	KindNumber
	KindString
	KindSequence
	KindMapping
)

// String returns the lowercase name of the kind.
func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindBool:
		return "bool"
	case KindNumber:
		return "number"
	case KindString:
		return "string"
	case KindSequence:
		return "sequence"
	case KindMapping:
		return "mapping"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Pair is one key/value entry of a mapping.
type Pair struct {
	Key   string
	Value *Value
}

// Value is a JSON-like tagged union. The zero value is null.
type Value struct {
	kind  Kind
	b     bool
	n     float64
	s     string
	items []*Value
	pairs []Pair
	index map[string]int
}

// Null returns a null value.
func Null() *Value { return &Value{kind: KindNull} }

// Bool returns a boolean value.
func Bool(b bool) *Value { return &Value{kind: KindBool, b: b} }

// Number returns a numeric value.
func Number(n float64) *Value { return &Value{kind: KindNumber, n: n} }

// String returns a string value.
func String(s string) *Value { return &Value{kind: KindString, s: s} }

// Sequence returns a sequence holding items in order.
func Sequence(items ...*Value) *Value {
	v := &Value{kind: KindSequence, items: make([]*Value, 0, len(items))}
	for _, item := range items {
		v.Append(item)
	}
	return v
}

// Mapping returns a mapping holding pairs in order. A repeated key replaces
// the earlier value at the earlier position.
func Mapping(pairs ...Pair) *Value {
	v := &Value{kind: KindMapping, pairs: make([]Pair, 0, len(pairs))}
	for _, p := range pairs {
		v.Set(p.Key, p.Value)
	}
	return v
}

// Kind returns the variant held by v. A nil Value reports KindNull.
func (v *Value) Kind() Kind {
	if v == nil {
		return KindNull
	}
	return v.kind
}

// IsNull reports whether v is null.
func (v *Value) IsNull() bool { return v.Kind() == KindNull }

// IsContainer reports whether v is a sequence or a mapping.
func (v *Value) IsContainer() bool {
	k := v.Kind()
	return k == KindSequence || k == KindMapping
}

// Bool returns the boolean held by v, or false for other kinds.
func (v *Value) Bool() bool {
	if v.Kind() != KindBool {
		return false
	}
	return v.b
}

// Number returns the number held by v, or 0 for other kinds.
func (v *Value) Number() float64 {
	if v.Kind() != KindNumber {
		return 0
	}
	return v.n
}

// Str returns the string held by v, or "" for other kinds.
func (v *Value) Str() string {
	if v.Kind() != KindString {
		return ""
	}
	return v.s
}

// Len returns the number of items or entries of a container, 0 otherwise.
func (v *Value) Len() int {
	switch v.Kind() {
	case KindSequence:
		return len(v.items)
	case KindMapping:
		return len(v.pairs)
	default:
		return 0
	}
}

// Items returns the items of a sequence. The slice must not be modified.
func (v *Value) Items() []*Value {
	if v.Kind() != KindSequence {
		return nil
	}
	return v.items
}

// Index returns the i-th item of a sequence, or nil when out of range.
func (v *Value) Index(i int) *Value {
	if v.Kind() != KindSequence || i < 0 || i >= len(v.items) {
		return nil
	}
	return v.items[i]
}

// Pairs returns the entries of a mapping in insertion order. The slice must
// not be modified.
func (v *Value) Pairs() []Pair {
	if v.Kind() != KindMapping {
		return nil
	}
	return v.pairs
}

// Keys returns the keys of a mapping in insertion order.
func (v *Value) Keys() []string {
	pairs := v.Pairs()
	keys := make([]string, len(pairs))
	for i, p := range pairs {
		keys[i] = p.Key
	}
	return keys
}

// Get returns the value stored under key in a mapping.
func (v *Value) Get(key string) (*Value, bool) {
	if v.Kind() != KindMapping {
		return nil, false
	}
	i, ok := v.index[key]
	if !ok {
		return nil, false
	}
	return v.pairs[i].Value, true
}

// Append adds item to the end of a sequence. It is a no-op on other kinds.
// A nil item is stored as null.
func (v *Value) Append(item *Value) {
	if v.Kind() != KindSequence {
		return
	}
	if item == nil {
		item = Null()
	}
	v.items = append(v.items, item)
}

// SetIndex replaces the i-th item of a sequence. Out-of-range indexes and
// other kinds are ignored.
func (v *Value) SetIndex(i int, item *Value) {
	if v.Kind() != KindSequence || i < 0 || i >= len(v.items) {
		return
	}
	if item == nil {
		item = Null()
	}
	v.items[i] = item
}

// Set stores val under key in a mapping. An existing key keeps its position.
// It is a no-op on other kinds. A nil val is stored as null.
func (v *Value) Set(key string, val *Value) {
	if v.Kind() != KindMapping {
		return
	}
	if val == nil {
		val = Null()
	}
	if v.index == nil {
		v.index = make(map[string]int)
	}
	if i, ok := v.index[key]; ok {
		v.pairs[i].Value = val
		return
	}
	v.index[key] = len(v.pairs)
	v.pairs = append(v.pairs, Pair{Key: key, Value: val})
}

// Equal reports whether v and other hold the same tree. Sequences and mapping
// keys are compared in order. Numbers compare with ==, except that NaN equals
// NaN so that a tree is always equal to itself.
func (v *Value) Equal(other *Value) bool {
	if v.Kind() != other.Kind() {
		return false
	}
	switch v.Kind() {
	case KindNull:
		return true
	case KindBool:
		return v.b == other.b
	case KindNumber:
		if math.IsNaN(v.n) && math.IsNaN(other.n) {
			return true
		}
		return v.n == other.n
	case KindString:
		return v.s == other.s
	case KindSequence:
		if len(v.items) != len(other.items) {
			return false
		}
		for i := range v.items {
			if !v.items[i].Equal(other.items[i]) {
				return false
			}
		}
		return true
	case KindMapping:
		if len(v.pairs) != len(other.pairs) {
			return false
		}
		for i := range v.pairs {
			if v.pairs[i].Key != other.pairs[i].Key || !v.pairs[i].Value.Equal(other.pairs[i].Value) {
				return false
			}
		}
		return true
	}
	return false
}

// String renders v as compact JSON for debugging and test failure output.
func (v *Value) String() string {
	b, err := v.MarshalJSON()
	if err != nil {
		return fmt.Sprintf("<%s: %v>", v.Kind(), err)
	}
	return string(b)
}
