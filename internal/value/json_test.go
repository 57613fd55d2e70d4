package value

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseJSON(t *testing.T) {
	t.Run("keeps key order", func(t *testing.T) {
		v, err := ParseJSON([]byte(`{"zeta": 1, "alpha": {"y": true, "x": null}, "mid": [1, "two", 3.5]}`))
		require.NoError(t, err)

		assert.Equal(t, []string{"zeta", "alpha", "mid"}, v.Keys())
		alpha, _ := v.Get("alpha")
		assert.Equal(t, []string{"y", "x"}, alpha.Keys())

		mid, _ := v.Get("mid")
		require.Equal(t, 3, mid.Len())
		assert.Equal(t, 1.0, mid.Index(0).Number())
		assert.Equal(t, "two", mid.Index(1).Str())
		assert.Equal(t, 3.5, mid.Index(2).Number())
	})

	t.Run("scalars at top level", func(t *testing.T) {
		v, err := ParseJSON([]byte(`"hello"`))
		require.NoError(t, err)
		assert.True(t, v.Equal(String("hello")))

		v, err = ParseJSON([]byte(`null`))
		require.NoError(t, err)
		assert.True(t, v.IsNull())
	})

	t.Run("duplicate key keeps first position and last value", func(t *testing.T) {
		v, err := ParseJSON([]byte(`{"a": 1, "b": 2, "a": 3}`))
		require.NoError(t, err)
		assert.Equal(t, []string{"a", "b"}, v.Keys())
		a, _ := v.Get("a")
		assert.Equal(t, 3.0, a.Number())
	})

	t.Run("empty containers", func(t *testing.T) {
		v, err := ParseJSON([]byte(`{"m": {}, "s": []}`))
		require.NoError(t, err)
		m, _ := v.Get("m")
		s, _ := v.Get("s")
		assert.Equal(t, KindMapping, m.Kind())
		assert.Equal(t, KindSequence, s.Kind())
	})

	errCases := map[string]string{
		"empty input":    ``,
		"truncated":      `{"a": [1, 2`,
		"trailing value": `{"a": 1} {"b": 2}`,
		"not json":       `name: toolcat`,
	}
	for name, input := range errCases {
		t.Run(name, func(t *testing.T) {
			_, err := ParseJSON([]byte(input))
			assert.Error(t, err)
		})
	}
}

func TestValue_MarshalJSON(t *testing.T) {
	t.Run("ordered output", func(t *testing.T) {
		v := Mapping(
			Pair{"name", String("toolcat")},
			Pair{"count", Number(3)},
			Pair{"ratio", Number(0.25)},
			Pair{"tags", Sequence(String("a"), String("b"))},
			Pair{"empty", Mapping()},
		)
		b, err := json.Marshal(v)
		require.NoError(t, err)
		assert.Equal(t, `{"name":"toolcat","count":3,"ratio":0.25,"tags":["a","b"],"empty":{}}`, string(b))
	})

	t.Run("html is not escaped", func(t *testing.T) {
		b, err := String("<a & b>").MarshalJSON()
		require.NoError(t, err)
		assert.Equal(t, `"<a & b>"`, string(b))
	})

	t.Run("non-finite numbers become null", func(t *testing.T) {
		b, err := Sequence(Number(math.Inf(1)), Number(math.NaN())).MarshalJSON()
		require.NoError(t, err)
		assert.Equal(t, `[null,null]`, string(b))
	})

	t.Run("round trip", func(t *testing.T) {
		in := `{"b":[1,{"c":"d"}],"a":false,"z":null}`
		v, err := ParseJSON([]byte(in))
		require.NoError(t, err)
		out, err := v.MarshalJSON()
		require.NoError(t, err)
		assert.Equal(t, in, string(out))
	})
}

func TestFormatNumber(t *testing.T) {
	tests := map[float64]string{
		0:       "0",
		1:       "1",
		-7:      "-7",
		1.5:     "1.5",
		0.1:     "0.1",
		1e20:    "100000000000000000000",
		1e21:    "1e+21",
		1.25e-7: "1.25e-07",
	}
	for in, want := range tests {
		assert.Equal(t, want, FormatNumber(in), "FormatNumber(%v)", in)
	}
}
