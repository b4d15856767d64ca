package types

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewID(t *testing.T) {
	id := NewID()
	assert.False(t, id.IsZero())
	require.NoError(t, id.Validate())

	// Two generated IDs must differ
	assert.NotEqual(t, id, NewID())
}

func TestParseID(t *testing.T) {
	t.Run("valid UUID", func(t *testing.T) {
		original := NewID()
		parsed, err := ParseID(original.String())
		require.NoError(t, err)
		assert.Equal(t, original, parsed)
	})

	t.Run("empty string", func(t *testing.T) {
		_, err := ParseID("")
		assert.Error(t, err)
	})

	t.Run("malformed UUID", func(t *testing.T) {
		_, err := ParseID("not-a-uuid")
		assert.Error(t, err)
	})
}

func TestID_Validate(t *testing.T) {
	assert.Error(t, ID("").Validate())
	assert.Error(t, ID("garbage").Validate())
	assert.NoError(t, NewID().Validate())
}

func TestID_JSONRoundTrip(t *testing.T) {
	id := NewID()

	data, err := json.Marshal(id)
	require.NoError(t, err)

	var decoded ID
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, id, decoded)
}

func TestID_MarshalJSON_Zero(t *testing.T) {
	data, err := json.Marshal(ID(""))
	require.NoError(t, err)
	assert.Equal(t, "null", string(data))
}
