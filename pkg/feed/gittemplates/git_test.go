package gittemplates

import (
	"path/filepath"
	"testing"

	"github.com/go-git/go-git/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newLocalOrigin(t *testing.T) string {
	t.Helper()
	originPath := t.TempDir()
	_, err := git.PlainInit(originPath, false)
	require.NoError(t, err)
	commitFile(t, originPath, "README.md", "initial")
	return originPath
}

func TestClientSyncClonesThenPulls(t *testing.T) {
	origin := newLocalOrigin(t)
	target := filepath.Join(t.TempDir(), "clone")

	c := NewClient(origin, target)
	require.NoError(t, c.Sync())

	contents, err := c.ReadFile("README.md")
	require.NoError(t, err)
	assert.Equal(t, "initial", string(contents))

	commitFile(t, origin, "README.md", "updated")
	require.NoError(t, c.Sync())

	contents, err = c.ReadFile("README.md")
	require.NoError(t, err)
	assert.Equal(t, "updated", string(contents))
}

func TestClientReadFileMissing(t *testing.T) {
	origin := newLocalOrigin(t)
	target := filepath.Join(t.TempDir(), "clone")

	c := NewClient(origin, target)
	require.NoError(t, c.Sync())

	_, err := c.ReadFile("does-not-exist.txt")
	assert.Error(t, err)
}
