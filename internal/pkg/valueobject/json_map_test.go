package valueobject

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJSONMap_Value(t *testing.T) {
	v, err := JSONMap(nil).Value()
	require.NoError(t, err)
	assert.Equal(t, []byte("{}"), v)

	v, err = JSONMap{"channel": "app"}.Value()
	require.NoError(t, err)
	assert.JSONEq(t, `{"channel":"app"}`, string(v.([]byte)))
}

func TestJSONMap_Scan(t *testing.T) {
	tests := []struct {
		name  string
		value any
		want  JSONMap
	}{
		{"nil", nil, JSONMap{}},
		{"bytes", []byte(`{"a":"b"}`), JSONMap{"a": "b"}},
		{"string", `{"a":"b"}`, JSONMap{"a": "b"}},
		{"raw", json.RawMessage(`{"a":"b"}`), JSONMap{"a": "b"}},
		{"map", map[string]any{"a": "b"}, JSONMap{"a": "b"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var j JSONMap
			require.NoError(t, j.Scan(tt.value))
			assert.Equal(t, tt.want, j)
		})
	}

	var j JSONMap
	assert.ErrorIs(t, j.Scan(42), ErrScanValueNotBytes)
}

func TestJSONMap_CloneAndGet(t *testing.T) {
	src := JSONMap{"device": "ios", "n": 1}
	c := src.Clone()
	c["device"] = "android"

	assert.Equal(t, "ios", src.GetString("device"))
	assert.Equal(t, "", src.GetString("n"))
	assert.Nil(t, JSONMap(nil).Clone())
}
