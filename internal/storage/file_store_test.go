package storage

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalFileStore_SaveListRemove(t *testing.T) {
	dir := t.TempDir()
	fs, err := NewLocalFileStore(dir)
	require.NoError(t, err)
	ctx := context.Background()

	url, err := fs.Save(ctx, "123-abc-house.png", []byte("png-bytes"))
	require.NoError(t, err)
	assert.Equal(t, "/uploads/123-abc-house.png", url)

	data, err := os.ReadFile(filepath.Join(dir, "123-abc-house.png"))
	require.NoError(t, err)
	assert.Equal(t, "png-bytes", string(data))

	files, err := fs.List(ctx)
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Equal(t, url, files[0].URL)
	assert.False(t, files[0].ModTime.IsZero())

	require.NoError(t, fs.Remove(ctx, url))
	_, err = os.Stat(filepath.Join(dir, "123-abc-house.png"))
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestLocalFileStore_SaveRefusesOverwrite(t *testing.T) {
	fs, err := NewLocalFileStore(t.TempDir())
	require.NoError(t, err)

	_, err = fs.Save(context.Background(), "a.png", []byte("1"))
	require.NoError(t, err)
	_, err = fs.Save(context.Background(), "a.png", []byte("2"))
	assert.True(t, errors.Is(err, os.ErrExist))
}

func TestLocalFileStore_RejectsPathTraversal(t *testing.T) {
	fs, err := NewLocalFileStore(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	_, err = fs.Save(ctx, "../escape.png", []byte("x"))
	assert.Error(t, err)

	assert.Error(t, fs.Remove(ctx, "/uploads/../secret"))
	assert.Error(t, fs.Remove(ctx, "/etc/passwd"))
	assert.Error(t, fs.Remove(ctx, "/uploads/"))
}

func TestLocalFileStore_RemoveMissingFile(t *testing.T) {
	fs, err := NewLocalFileStore(t.TempDir())
	require.NoError(t, err)

	err = fs.Remove(context.Background(), "/uploads/nope.png")
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestLocalFileStore_ListSkipsDirectories(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub"), 0o755))
	fs, err := NewLocalFileStore(dir)
	require.NoError(t, err)

	files, err := fs.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, files)
}
