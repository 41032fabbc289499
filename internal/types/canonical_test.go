package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarshalCanonical_SortsKeys(t *testing.T) {
	obj := Object{
		"zebra": Int(1),
		"alpha": Int(2),
		"mango": Int(3),
	}

	data, err := MarshalCanonical(obj)
	require.NoError(t, err)
	assert.Equal(t, `{"alpha":2,"mango":3,"zebra":1}`, string(data))
}

func TestMarshalCanonical_NoHTMLEscaping(t *testing.T) {
	data, err := MarshalCanonical(String("<a> & <b>"))
	require.NoError(t, err)
	assert.Equal(t, `"<a> & <b>"`, string(data))
}

func TestMarshalCanonical_EscapesControlCharacters(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"newline", "a\nb", `"a\nb"`},
		{"tab", "a\tb", `"a\tb"`},
		{"quote", `a"b`, `"a\"b"`},
		{"backslash", `a\b`, `"a\\b"`},
		{"null byte", "a\x00b", "\"a\\u0000b\""},
		{"line separator stays literal", "a b", "\"a b\""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := MarshalCanonical(String(tt.input))
			require.NoError(t, err)
			assert.Equal(t, tt.want, string(data))
		})
	}
}

func TestMarshalCanonical_NFCNormalization(t *testing.T) {
	// e + combining acute accent normalizes to precomposed é
	decomposed := "é"
	precomposed := "é"

	d1, err := MarshalCanonical(String(decomposed))
	require.NoError(t, err)
	d2, err := MarshalCanonical(String(precomposed))
	require.NoError(t, err)
	assert.Equal(t, string(d2), string(d1))
}

func TestMarshalCanonical_RejectsFloats(t *testing.T) {
	_, err := MarshalCanonical(3.14)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "floats are forbidden")
}

func TestMarshalCanonical_RejectsNull(t *testing.T) {
	_, err := MarshalCanonical(nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "null is forbidden")
}

func TestMarshalCanonical_NestedStructures(t *testing.T) {
	obj := Object{
		"outer": Object{
			"b": Array{Int(1), String("two"), Bool(true)},
			"a": String("x"),
		},
	}

	data, err := MarshalCanonical(obj)
	require.NoError(t, err)
	assert.Equal(t, `{"outer":{"a":"x","b":[1,"two",true]}}`, string(data))
}

func TestMarshalCanonical_Deterministic(t *testing.T) {
	obj := Object{
		"balance": Int(1000),
		"owner":   String("validator-1"),
		"flags":   Array{Bool(true), Bool(false)},
	}

	first, err := MarshalCanonical(obj)
	require.NoError(t, err)

	for i := 0; i < 50; i++ {
		again, err := MarshalCanonical(obj)
		require.NoError(t, err)
		assert.Equal(t, string(first), string(again))
	}
}

func TestValueFromJSON(t *testing.T) {
	t.Run("integers stay integers", func(t *testing.T) {
		v, err := ValueFromJSON([]byte(`{"n": 42}`))
		require.NoError(t, err)
		obj := v.(Object)
		assert.Equal(t, Int(42), obj["n"])
	})

	t.Run("floats rejected", func(t *testing.T) {
		_, err := ValueFromJSON([]byte(`{"n": 1.5}`))
		require.Error(t, err)
	})

	t.Run("null rejected", func(t *testing.T) {
		_, err := ValueFromJSON([]byte(`{"n": null}`))
		require.Error(t, err)
	})

	t.Run("roundtrip through canonical form", func(t *testing.T) {
		original := Object{
			"id":    String("0xabc"),
			"count": Int(7),
			"tags":  Array{String("a"), String("b")},
		}
		data, err := MarshalCanonical(original)
		require.NoError(t, err)

		decoded, err := ObjectFromJSON(data)
		require.NoError(t, err)
		assert.Equal(t, original, decoded)
	})
}

func TestObjectClone_Isolated(t *testing.T) {
	original := Object{
		"nested": Object{"n": Int(1)},
		"list":   Array{Int(1), Int(2)},
	}

	clone := original.Clone()
	clone["nested"].(Object)["n"] = Int(99)
	clone["list"].(Array)[0] = Int(99)

	assert.Equal(t, Int(1), original["nested"].(Object)["n"])
	assert.Equal(t, Int(1), original["list"].(Array)[0])
}
