package internal

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApplyPatchSetsNestedKey(t *testing.T) {
	base := json.RawMessage(`{"address":{"city":"old"}}`)
	out, err := applyPatch(base, "address.city", "new")
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(out, &decoded))
	assert.Equal(t, "new", decoded["address"].(map[string]interface{})["city"])
}

func TestApplyPatchCreatesMissingIntermediates(t *testing.T) {
	base := json.RawMessage(`{}`)
	out, err := applyPatch(base, "a.b.c", 3)
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(out, &decoded))
	a := decoded["a"].(map[string]interface{})
	b := a["b"].(map[string]interface{})
	assert.Equal(t, float64(3), b["c"])
}

func TestApplyPatchArrayIndexGrowsWithNil(t *testing.T) {
	base := json.RawMessage(`{"tags":[]}`)
	out, err := applyPatch(base, "tags[2]", "x")
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(out, &decoded))
	tags := decoded["tags"].([]interface{})
	require.Len(t, tags, 3)
	assert.Nil(t, tags[0])
	assert.Nil(t, tags[1])
	assert.Equal(t, "x", tags[2])
}

func TestApplyPatchEmptyPathReplacesWholeDocument(t *testing.T) {
	base := json.RawMessage(`{"old":true}`)
	out, err := applyPatch(base, "", map[string]interface{}{"new": true})
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(out, &decoded))
	assert.Equal(t, true, decoded["new"])
	_, hasOld := decoded["old"]
	assert.False(t, hasOld)
}

func TestApplyEraseRemovesKey(t *testing.T) {
	base := json.RawMessage(`{"a":1,"b":2}`)
	out, err := applyErase(base, "a")
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(out, &decoded))
	_, hasA := decoded["a"]
	assert.False(t, hasA)
	assert.Equal(t, float64(2), decoded["b"])
}

func TestApplyEraseMissingPathIsError(t *testing.T) {
	base := json.RawMessage(`{"a":1}`)
	_, err := applyErase(base, "missing.deeper")
	assert.ErrorIs(t, err, ErrInvalidPatchPath)
}

func TestApplyEraseArrayElement(t *testing.T) {
	base := json.RawMessage(`{"tags":["a","b","c"]}`)
	out, err := applyErase(base, "tags[1]")
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(out, &decoded))
	tags := decoded["tags"].([]interface{})
	require.Len(t, tags, 2)
	assert.Equal(t, "a", tags[0])
	assert.Equal(t, "c", tags[1])
}
