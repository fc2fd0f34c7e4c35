package task

import (
	"os"
	"path/filepath"
)

// The functions in this file are thin OS primitives with no domain logic
// of their own; none of the pack's third-party libraries cover directory
// and file plumbing any better than os/path-filepath do, so they stay on
// the standard library.

func mkdirAll(path string) error {
	return os.MkdirAll(path, 0o750)
}

func pathExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func renamePath(oldPath, newPath string) error {
	return os.Rename(oldPath, newPath)
}

func removePath(path string) error {
	if !pathExists(path) {
		return nil
	}
	return os.RemoveAll(path)
}

// fsyncDir opens path as a directory and fsyncs it, forcing the directory
// entry changes made by a preceding rename to hit stable storage.
func fsyncDir(path string) error {
	d, err := os.Open(path)
	if err != nil {
		return err
	}
	defer d.Close()
	return d.Sync()
}

// fsyncFile fsyncs a regular file's contents and metadata.
func fsyncFile(path string) error {
	f, err := os.OpenFile(path, os.O_RDWR, 0o640)
	if err != nil {
		return err
	}
	defer f.Close()
	return f.Sync()
}

// globResourceFiles returns the base names (without the .resource
// extension) of every resource file persisted under dir.
func globResourceFiles(dir string) ([]string, error) {
	matches, err := filepath.Glob(filepath.Join(dir, "*"+ResourceExt))
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(matches))
	for _, m := range matches {
		base := filepath.Base(m)
		names = append(names, base[:len(base)-len(ResourceExt)])
	}
	return names, nil
}
