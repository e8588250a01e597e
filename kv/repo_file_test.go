package kv_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mathcodehq/mathcode-client/kv"
)

func TestFileRepoRoundTrip(t *testing.T) {
	dir := t.TempDir()

	repo, err := kv.NewFileRepo(dir)
	require.NoError(t, err)

	_, err = repo.Get("auth")
	require.ErrorIs(t, err, kv.ErrNotFound)

	require.NoError(t, repo.Set("auth", `{"id":"u1"}`))
	require.NoError(t, repo.Set("token", `"abc"`))

	v, err := repo.Get("token")
	require.NoError(t, err)
	require.Equal(t, `"abc"`, v)

	// Values survive a reopen.
	reopened, err := kv.NewFileRepo(dir)
	require.NoError(t, err)
	v, err = reopened.Get("auth")
	require.NoError(t, err)
	require.Equal(t, `{"id":"u1"}`, v)
}

func TestFileRepoDelete(t *testing.T) {
	repo, err := kv.NewFileRepo(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, repo.Set("token", `"abc"`))
	require.NoError(t, repo.Delete("token"))
	require.NoError(t, repo.Delete("token")) // absent key is fine

	_, err = repo.Get("token")
	require.ErrorIs(t, err, kv.ErrNotFound)
}

func TestFileRepoCorruptedFileTreatedAsEmpty(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "store.json"), []byte("{not json"), 0o600))

	repo, err := kv.NewFileRepo(dir)
	require.NoError(t, err)

	_, err = repo.Get("auth")
	require.ErrorIs(t, err, kv.ErrNotFound)
}
