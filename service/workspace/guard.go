package workspace

import "os"

// EmptyDirGuard removes a directory at guard exit only if it did not exist
// before the guarded operation began and is empty afterwards. Pre-existing
// directories are never removed, regardless of emptiness: they belong to the
// caller, not to this layer.
type EmptyDirGuard struct {
	path        string
	preexisting bool
}

// NewEmptyDirGuard records whether path already exists. An empty path yields
// a no-op guard.
func NewEmptyDirGuard(path string) *EmptyDirGuard {
	g := &EmptyDirGuard{path: path}
	if path == "" {
		return g
	}
	if info, err := os.Stat(path); err == nil && info.IsDir() {
		g.preexisting = true
	}
	return g
}

// Close applies the guard.
func (g *EmptyDirGuard) Close() error {
	if g.path == "" || g.preexisting {
		return nil
	}
	entries, err := os.ReadDir(g.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	if len(entries) > 0 {
		return nil
	}
	logger.Info("removing empty directory", "path", g.path)
	return os.Remove(g.path)
}
