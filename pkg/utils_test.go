package pkg

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContains(t *testing.T) {
	assert.True(t, Contains([]string{"a", "b"}, "b"))
	assert.False(t, Contains([]string{"a", "b"}, "c"))
	assert.True(t, Contains([]int{1, 2, 3}, 2))
}

func TestIsNilOrEmpty(t *testing.T) {
	blank := "   "
	value := "x"

	assert.True(t, IsNilOrEmpty(nil))
	assert.True(t, IsNilOrEmpty(&blank))
	assert.False(t, IsNilOrEmpty(&value))
}

func TestGenerateUUIDv7IsOrdered(t *testing.T) {
	first := GenerateUUIDv7()
	second := GenerateUUIDv7()

	assert.NotEqual(t, first, second)
	assert.True(t, first.String() < second.String())
}

func TestCanonicalJSONOrdersKeys(t *testing.T) {
	type payload struct {
		Zebra string `json:"zebra"`
		Alpha string `json:"alpha"`
		Mid   int    `json:"mid"`
	}

	raw, err := CanonicalJSON(payload{Zebra: "z", Alpha: "a", Mid: 1})
	require.NoError(t, err)

	assert.Equal(t, `{"alpha":"a","mid":1,"zebra":"z"}`, string(raw))

	// Canonicalization is stable across equivalent inputs.
	var m map[string]any
	require.NoError(t, json.Unmarshal(raw, &m))

	again, err := CanonicalJSON(m)
	require.NoError(t, err)
	assert.Equal(t, raw, again)
}

func TestHMACSHA256Hex(t *testing.T) {
	signature := HMACSHA256Hex([]byte("secret"), []byte("payload"))

	assert.Len(t, signature, 64)
	assert.Equal(t, signature, HMACSHA256Hex([]byte("secret"), []byte("payload")))
	assert.NotEqual(t, signature, HMACSHA256Hex([]byte("other"), []byte("payload")))
}

func TestSecureCompare(t *testing.T) {
	assert.True(t, SecureCompare("abc", "abc"))
	assert.False(t, SecureCompare("abc", "abd"))
	assert.False(t, SecureCompare("abc", "abcd"))
}

func TestTruncateWithEllipsis(t *testing.T) {
	assert.Equal(t, "short", TruncateWithEllipsis("short", 10))
	assert.Equal(t, "long…", TruncateWithEllipsis("longer", 5))
	assert.Equal(t, "…", TruncateWithEllipsis("anything", 1))
	assert.Equal(t, "", TruncateWithEllipsis("anything", 0))
}
