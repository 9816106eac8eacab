package docs

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTopics(t *testing.T) {
	assert.Equal(t, []string{"config", "payload", "picker", "web"}, Topics())
}

func TestGet(t *testing.T) {
	src, ok := Get(" Picker ")
	require.True(t, ok)
	assert.Contains(t, src, "12 AM")

	_, ok = Get("../docs")
	assert.False(t, ok)
	_, ok = Get("missing")
	assert.False(t, ok)
}

func TestTitle(t *testing.T) {
	assert.Equal(t, "Payload format", Title("payload"))
	assert.Equal(t, "nope", Title("nope"))
}
