package pack

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// DefaultDirMode is used for staged directory trees.
const DefaultDirMode os.FileMode = 0o755

// ResourceDirName is the staging folder for fetched feature resources.
// Assemblers that produce a self-contained bundle ship its contents.
const ResourceDirName = "resources"

var errMissingBuildOutput = errors.New("expected build output is missing")

// ensureDirs creates every directory under root.
func ensureDirs(root string, dirs ...string) error {
	for _, dir := range dirs {
		if err := os.MkdirAll(filepath.Join(root, dir), DefaultDirMode); err != nil {
			return err
		}
	}

	return nil
}

// copyFile copies a regular file, preserving its mode.
func copyFile(src, dst string) error {
	info, err := os.Stat(src)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("%s: %w", src, errMissingBuildOutput)
		}

		return err
	}

	source, err := os.Open(filepath.Clean(src))
	if err != nil {
		return err
	}

	defer func() {
		_ = source.Close()
	}()

	out, err := os.OpenFile(filepath.Clean(dst), os.O_WRONLY|os.O_CREATE|os.O_TRUNC, info.Mode())
	if err != nil {
		return err
	}

	_, err = io.Copy(out, source)
	if closeErr := out.Close(); err == nil {
		err = closeErr
	}

	return err
}

// copyTree copies a directory tree recursively, preserving file modes.
func copyTree(src, dst string) error {
	info, err := os.Stat(src)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("%s: %w", src, errMissingBuildOutput)
		}

		return err
	}

	if !info.IsDir() {
		return copyFile(src, dst)
	}

	if err := os.MkdirAll(dst, info.Mode()); err != nil {
		return err
	}

	entries, err := os.ReadDir(src)
	if err != nil {
		return err
	}

	for _, entry := range entries {
		source := filepath.Join(src, entry.Name())
		target := filepath.Join(dst, entry.Name())

		if entry.IsDir() {
			if err := copyTree(source, target); err != nil {
				return err
			}

			continue
		}

		if err := copyFile(source, target); err != nil {
			return err
		}
	}

	return nil
}

// moveFile moves src to dst, replacing any existing file. It falls back to
// copy+remove when rename crosses filesystems (rpmbuild writes under the
// user's home directory).
func moveFile(src, dst string) error {
	if _, err := os.Stat(src); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("%s: %w", src, errMissingBuildOutput)
		}

		return err
	}

	_ = os.Remove(dst)

	if err := os.Rename(src, dst); err == nil {
		return nil
	}

	if err := copyFile(src, dst); err != nil {
		return err
	}

	return os.Remove(src)
}

// recreateDir removes a directory if present and makes it fresh.
func recreateDir(path string) error {
	if err := os.RemoveAll(path); err != nil {
		return err
	}

	return os.MkdirAll(path, DefaultDirMode)
}

// writeExecutable writes a small executable script file.
func writeExecutable(path, contents string) error {
	return os.WriteFile(filepath.Clean(path), []byte(contents), DefaultDirMode)
}
