package backend

import (
	"crypto/sha256"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetadataEntriesFixedOrder(t *testing.T) {
	meta := Metadata{Name: "alice", Domain: "example.com"}

	var entries [][]string
	require.NoError(t, json.Unmarshal([]byte(meta.String()), &entries))
	require.Len(t, entries, 3)

	assert.Equal(t, []string{"text/identifier", "alice@example.com"}, entries[0])
	assert.Equal(t, []string{"text/plain", "Satoshis for alice@example.com."}, entries[1])
	assert.Equal(t, "image/png;base64", entries[2][0])
	assert.NotEmpty(t, entries[2][1])
}

func TestMetadataStringIsCompactJSON(t *testing.T) {
	meta := Metadata{Name: "alice", Domain: "example.com"}
	s := meta.String()

	assert.True(t, strings.HasPrefix(s, `[["text/identifier","alice@example.com"],`))
	assert.NotContains(t, s, "\n")
	assert.NotContains(t, s, ": ")
}

func TestMetadataHashMatchesString(t *testing.T) {
	meta := Metadata{Name: "bob", Domain: "example.org"}

	want := sha256.Sum256([]byte(meta.String()))
	assert.Equal(t, want, meta.Hash())
}
