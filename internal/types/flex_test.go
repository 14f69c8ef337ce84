package types

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFlexUint64(t *testing.T) {
	var body struct {
		Addon FlexUint64 `json:"addon"`
	}

	require.NoError(t, json.Unmarshal([]byte(`{"addon": 3615}`), &body))
	assert.Equal(t, uint64(3615), body.Addon.Uint64())

	require.NoError(t, json.Unmarshal([]byte(`{"addon": "1865"}`), &body))
	assert.Equal(t, uint64(1865), body.Addon.Uint64())

	assert.Error(t, json.Unmarshal([]byte(`{"addon": "firebug"}`), &body))
	assert.Error(t, json.Unmarshal([]byte(`{"addon": true}`), &body))

	out, err := json.Marshal(FlexUint64(7))
	require.NoError(t, err)
	assert.Equal(t, "7", string(out))
}

func TestIDList(t *testing.T) {
	var body struct {
		IDs IDList `json:"ids"`
	}

	require.NoError(t, json.Unmarshal([]byte(`{"ids": [1, "2", 0, 3, 1]}`), &body))
	assert.Equal(t, IDList{1, 2, 3}, body.IDs)

	require.NoError(t, json.Unmarshal([]byte(`{"ids": "42"}`), &body))
	assert.Equal(t, IDList{42}, body.IDs)

	require.NoError(t, json.Unmarshal([]byte(`{"ids": 7}`), &body))
	assert.Equal(t, IDList{7}, body.IDs)

	require.NoError(t, json.Unmarshal([]byte(`{"ids": "3615, 1865,,3615"}`), &body))
	assert.Equal(t, IDList{3615, 1865}, body.IDs)

	require.NoError(t, json.Unmarshal([]byte(`{"ids": null}`), &body))
	assert.Empty(t, body.IDs)

	assert.Error(t, json.Unmarshal([]byte(`{"ids": "1,firebug"}`), &body))
	assert.Error(t, json.Unmarshal([]byte(`{"ids": [true]}`), &body))
}

func TestCustomError(t *testing.T) {
	err := NewCustomError(403, "catalog.authorization.admin", "role %q is not allowed", "user")
	assert.Equal(t, `403: role "user" is not allowed [type: catalog.authorization.admin]`, err.Error())
}
