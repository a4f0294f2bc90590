package security

import (
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateToken(t *testing.T) {
	a, err := GenerateToken(DefaultTokenBytes)
	require.NoError(t, err)
	b, err := GenerateToken(DefaultTokenBytes)
	require.NoError(t, err)

	assert.Len(t, a, 2*DefaultTokenBytes)
	assert.NotEqual(t, a, b)
	_, err = hex.DecodeString(a)
	assert.NoError(t, err)

	_, err = GenerateToken(0)
	assert.Error(t, err)
}

func TestTokensEqual(t *testing.T) {
	assert.True(t, TokensEqual("abc", "abc"))
	assert.False(t, TokensEqual("abd", "abc"))
	assert.False(t, TokensEqual("ab", "abc"))
	assert.False(t, TokensEqual("abc ", "abc"))
	assert.False(t, TokensEqual("ABC", "abc"))
	assert.True(t, TokensEqual("", ""))
}

func TestIsHeaderText(t *testing.T) {
	assert.True(t, IsHeaderText("Push Hook"))
	assert.True(t, IsHeaderText("a\tb"))
	assert.True(t, IsHeaderText(""))
	assert.False(t, IsHeaderText("café"))
	assert.False(t, IsHeaderText("a\x00b"))
	assert.False(t, IsHeaderText("a\x7fb"))
}
