package pack

import (
	"crypto/md5" //nolint:gosec // Package manifests use MD5 by convention.
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// AppendChecksumEntries appends one MD5 line per staged file (relative to
// the staging root) to the package's internal checksum manifest, so the
// listed files stay verifiable after installation.
func AppendChecksumEntries(stagingRoot, manifestPath string, files []string) error {
	manifest, err := os.OpenFile(filepath.Clean(manifestPath), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open checksum manifest: %w", err)
	}

	for _, rel := range files {
		digest, err := FileMD5(filepath.Join(stagingRoot, rel))
		if err != nil {
			_ = manifest.Close()
			return fmt.Errorf("checksum %s: %w", rel, err)
		}

		if _, err := fmt.Fprintf(manifest, "%s %s\n", digest, rel); err != nil {
			_ = manifest.Close()
			return err
		}
	}

	return manifest.Close()
}

// FileMD5 returns the hex MD5 digest of a file.
func FileMD5(path string) (string, error) {
	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return "", err
	}

	defer func() {
		_ = f.Close()
	}()

	hasher := md5.New() //nolint:gosec // Manifest format, not security.
	if _, err := io.Copy(hasher, f); err != nil {
		return "", err
	}

	return hex.EncodeToString(hasher.Sum(nil)), nil
}
