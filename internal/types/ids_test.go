package types

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewIDIsUniqueAndValid(t *testing.T) {
	a := NewID()
	b := NewID()
	require.NoError(t, a.Validate())
	require.NoError(t, b.Validate())
	assert.NotEqual(t, a, b)
	assert.False(t, a.IsZero())
}

func TestParseID(t *testing.T) {
	id := NewID()
	parsed, err := ParseID(id.String())
	require.NoError(t, err)
	assert.Equal(t, id, parsed)

	_, err = ParseID("")
	assert.Error(t, err)

	_, err = ParseID("not-a-uuid")
	assert.Error(t, err)
}

func TestIDJSONRoundTrip(t *testing.T) {
	id := NewID()
	data, err := json.Marshal(id)
	require.NoError(t, err)

	var decoded ID
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, id, decoded)
}

func TestZeroIDMarshalsAsNull(t *testing.T) {
	var id ID
	data, err := json.Marshal(id)
	require.NoError(t, err)
	assert.Equal(t, "null", string(data))
}

func TestIDUnmarshalRejectsMalformed(t *testing.T) {
	var id ID
	err := json.Unmarshal([]byte(`"definitely-not-a-uuid"`), &id)
	assert.Error(t, err)
}
