package value

import (
	"fmt"
	"reflect"
	"sort"

	"github.com/goccy/go-json"
)

// FromInterface converts the output of generic decoders (encoding/json,
// yaml.v3, structpb.Value.AsInterface) into a Value. Go maps carry no order,
// so their keys are sorted; non-string keys are rendered with fmt.Sprint.
// Types with no JSON counterpart become their fmt.Sprint string.
func FromInterface(in any) *Value {
	switch v := in.(type) {
	case nil:
		return Null()
	case *Value:
		return v
	case bool:
		return Bool(v)
	case string:
		return String(v)
	case float64:
		return Number(v)
	case float32:
		return Number(float64(v))
	case int:
		return Number(float64(v))
	case int8:
		return Number(float64(v))
	case int16:
		return Number(float64(v))
	case int32:
		return Number(float64(v))
	case int64:
		return Number(float64(v))
	case uint:
		return Number(float64(v))
	case uint8:
		return Number(float64(v))
	case uint16:
		return Number(float64(v))
	case uint32:
		return Number(float64(v))
	case uint64:
		return Number(float64(v))
	case json.Number:
		f, err := v.Float64()
		if err != nil {
			return String(v.String())
		}
		return Number(f)
	case []any:
		seq := Sequence()
		for _, item := range v {
			seq.Append(FromInterface(item))
		}
		return seq
	case map[string]any:
		keys := make([]string, 0, len(v))
		for k := range v {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		m := Mapping()
		for _, k := range keys {
			m.Set(k, FromInterface(v[k]))
		}
		return m
	case map[any]any:
		keyed := make(map[string]any, len(v))
		for k, val := range v {
			keyed[fmt.Sprint(k)] = val
		}
		return FromInterface(keyed)
	}

	// Typed slices such as []string from callers building values by hand.
	rv := reflect.ValueOf(in)
	if rv.Kind() == reflect.Slice || rv.Kind() == reflect.Array {
		seq := Sequence()
		for i := 0; i < rv.Len(); i++ {
			seq.Append(FromInterface(rv.Index(i).Interface()))
		}
		return seq
	}

	return String(fmt.Sprint(in))
}

// Interface converts v into plain Go values: nil, bool, float64, string,
// []any and map[string]any. Mapping order is lost.
func (v *Value) Interface() any {
	switch v.Kind() {
	case KindBool:
		return v.b
	case KindNumber:
		return v.n
	case KindString:
		return v.s
	case KindSequence:
		out := make([]any, len(v.items))
		for i, item := range v.items {
			out[i] = item.Interface()
		}
		return out
	case KindMapping:
		out := make(map[string]any, len(v.pairs))
		for _, p := range v.pairs {
			out[p.Key] = p.Value.Interface()
		}
		return out
	default:
		return nil
	}
}
