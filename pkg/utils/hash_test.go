package utils

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashFileMatchesHashBytes(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pipeline.yaml")
	data := []byte("kind: pipeline\nname: build\n")
	require.NoError(t, os.WriteFile(path, data, 0644))

	got, err := HashFile(path)
	require.NoError(t, err)
	assert.Equal(t, HashBytes(data), got)
	assert.Len(t, got, 64)
}

func TestHashFileMissing(t *testing.T) {
	_, err := HashFile(filepath.Join(t.TempDir(), "nope"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestShort(t *testing.T) {
	assert.Equal(t, "e3b0c44298fc", Short(HashBytes(nil)))
	assert.Equal(t, "abc", Short("abc"))
}
