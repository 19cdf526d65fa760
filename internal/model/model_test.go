package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestItemURL_MarshalJSON_Finished(t *testing.T) {
	u := Finished(1, "<html></html>", "hello")
	b, err := json.Marshal(u)
	require.NoError(t, err)

	var got map[string]any
	require.NoError(t, json.Unmarshal(b, &got))
	assert.Equal(t, "finished", got["status"])
	assert.Equal(t, "<html></html>", got["html"])
	assert.Equal(t, "hello", got["text"])
	_, hasNote := got["note"]
	assert.False(t, hasNote, "finished shape must not carry a note field")
}

func TestItemURL_MarshalJSON_Skipped(t *testing.T) {
	u := Skipped(1, "content-type application/pdf")
	b, err := json.Marshal(u)
	require.NoError(t, err)

	var got map[string]any
	require.NoError(t, json.Unmarshal(b, &got))
	assert.Equal(t, "skipped", got["status"])
	assert.Equal(t, "content-type application/pdf", got["note"])
	_, hasHTML := got["html"]
	assert.False(t, hasHTML, "skipped shape must not carry html/text fields")
}

func TestItemURL_MarshalJSON_Canceled(t *testing.T) {
	u := Canceled(1, "timed out")
	b, err := json.Marshal(u)
	require.NoError(t, err)

	var got map[string]any
	require.NoError(t, json.Unmarshal(b, &got))
	assert.Equal(t, "canceled", got["status"])
	assert.Equal(t, "timed out", got["note"])
}

func TestItemURL_ConstructorsSetDistinctStatuses(t *testing.T) {
	assert.Equal(t, StatusFinished, Finished(1, "h", "t").Status)
	assert.Equal(t, StatusSkipped, Skipped(1, "n").Status)
	assert.Equal(t, StatusCanceled, Canceled(1, "n").Status)
}
