package workspace

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEmptyDirGuard(t *testing.T) {
	t.Run("removes created empty directory", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "processing")
		guard := NewEmptyDirGuard(path)
		assert.NoError(t, os.Mkdir(path, 0o755))

		assert.NoError(t, guard.Close())
		_, err := os.Stat(path)
		assert.True(t, os.IsNotExist(err))
	})

	t.Run("keeps pre-existing directory even when empty", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "processing")
		assert.NoError(t, os.Mkdir(path, 0o755))
		guard := NewEmptyDirGuard(path)

		assert.NoError(t, guard.Close())
		info, err := os.Stat(path)
		assert.NoError(t, err)
		assert.True(t, info.IsDir())
	})

	t.Run("keeps created directory holding files", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "processing")
		guard := NewEmptyDirGuard(path)
		assert.NoError(t, os.Mkdir(path, 0o755))
		assert.NoError(t, os.WriteFile(filepath.Join(path, "leftover.dv"), []byte("x"), 0o644))

		assert.NoError(t, guard.Close())
		_, err := os.Stat(path)
		assert.NoError(t, err)
	})

	t.Run("tolerates directory never created", func(t *testing.T) {
		guard := NewEmptyDirGuard(filepath.Join(t.TempDir(), "never"))
		assert.NoError(t, guard.Close())
	})

	t.Run("empty path is a no-op", func(t *testing.T) {
		guard := NewEmptyDirGuard("")
		assert.NoError(t, guard.Close())
	})
}
