package fileutil_test

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/cameronsjo/toolcat/internal/fileutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteFileAtomic(t *testing.T) {
	t.Parallel()

	t.Run("writes new file", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "out.yaml")
		require.NoError(t, fileutil.WriteFileAtomic(path, []byte("a: 1\n"), 0644))

		got, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Equal(t, "a: 1\n", string(got))
	})

	t.Run("creates parent directories", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "nested", "deep", "out.json")
		require.NoError(t, fileutil.WriteFileAtomic(path, []byte("{}"), 0644))

		got, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Equal(t, "{}", string(got))
	})

	t.Run("replaces existing file and keeps its permissions", func(t *testing.T) {
		t.Parallel()
		if runtime.GOOS == "windows" {
			t.Skip("permission bits are not preserved on windows")
		}

		path := filepath.Join(t.TempDir(), "out.yaml")
		require.NoError(t, os.WriteFile(path, []byte("old content that is longer"), 0600))

		require.NoError(t, fileutil.WriteFileAtomic(path, []byte("new"), 0644))

		got, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Equal(t, "new", string(got))

		info, err := os.Stat(path)
		require.NoError(t, err)
		assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
	})

	t.Run("leaves no temp files behind", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		require.NoError(t, fileutil.WriteFileAtomic(filepath.Join(dir, "a"), []byte("x"), 0644))

		entries, err := os.ReadDir(dir)
		require.NoError(t, err)
		require.Len(t, entries, 1)
		assert.Equal(t, "a", entries[0].Name())
	})

	t.Run("refuses symlink destination", func(t *testing.T) {
		t.Parallel()
		if runtime.GOOS == "windows" {
			t.Skip("symlinks require elevated privileges on windows")
		}

		dir := t.TempDir()
		target := filepath.Join(dir, "target")
		link := filepath.Join(dir, "link")
		require.NoError(t, os.WriteFile(target, []byte("keep"), 0644))
		require.NoError(t, os.Symlink(target, link))

		err := fileutil.WriteFileAtomic(link, []byte("x"), 0644)
		assert.ErrorIs(t, err, fileutil.ErrSymlinkNotSupported)

		got, err := os.ReadFile(target)
		require.NoError(t, err)
		assert.Equal(t, "keep", string(got))
	})

	t.Run("fails when parent is a file", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		blocker := filepath.Join(dir, "file")
		require.NoError(t, os.WriteFile(blocker, []byte("x"), 0644))

		err := fileutil.WriteFileAtomic(filepath.Join(blocker, "out"), []byte("x"), 0644)
		assert.Error(t, err)
	})
}

func TestReadInput(t *testing.T) {
	t.Parallel()

	t.Run("stdin for empty path and dash", func(t *testing.T) {
		t.Parallel()

		for _, path := range []string{"", "-"} {
			data, err := fileutil.ReadInput(path, strings.NewReader(`{"a":1}`))
			require.NoError(t, err)
			assert.Equal(t, `{"a":1}`, string(data))
		}
	})

	t.Run("file", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "in.json")
		require.NoError(t, os.WriteFile(path, []byte("[1]"), 0644))

		data, err := fileutil.ReadInput(path, strings.NewReader("ignored"))
		require.NoError(t, err)
		assert.Equal(t, "[1]", string(data))
	})

	t.Run("missing file", func(t *testing.T) {
		t.Parallel()

		_, err := fileutil.ReadInput(filepath.Join(t.TempDir(), "nope"), nil)
		assert.ErrorIs(t, err, os.ErrNotExist)
	})
}
