package fetch

import (
	"archive/zip"
	"bufio"
	"context"
	"crypto/md5" //nolint:gosec // The published manifests are MD5 by contract.
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/rustdesk/rustdesk-packager/internal/feature"
	"github.com/rustdesk/rustdesk-packager/internal/logger"
)

// DefaultDirMode is used for staging directories and extracted trees.
const DefaultDirMode os.FileMode = 0o755

var (
	errChecksumMissing  = errors.New("no published checksum for archive")
	errChecksumMismatch = errors.New("archive checksum mismatch")
	errNotADirectory    = errors.New("staging path exists and is not a directory")
	errBadHTTPStatus    = errors.New("unexpected http status")
	errUnsafeMemberPath = errors.New("archive member escapes staging directory")
)

// Fetcher downloads feature archives, verifies them against their published
// MD5 manifests, and extracts filtered contents into a staging directory.
type Fetcher struct {
	client *http.Client
}

// New returns a Fetcher using the provided HTTP client,
// or http.DefaultClient when nil.
func New(client *http.Client) *Fetcher {
	if client == nil {
		client = http.DefaultClient
	}

	return &Fetcher{client: client}
}

// Fetch processes every resolved feature in name order. The staging
// directory is recreated before the first feature so repeated runs never
// accumulate stale files. Any checksum failure aborts the whole run before
// extraction; there is no per-feature partial success.
func (f *Fetcher) Fetch(ctx context.Context, features feature.Set, stagingDir string) error {
	if len(features) == 0 {
		return nil
	}

	if err := recreateDir(stagingDir); err != nil {
		return err
	}

	for _, name := range features.Names() {
		if err := f.fetchFeature(ctx, features[name], stagingDir); err != nil {
			return fmt.Errorf("feature %s: %w", name, err)
		}
	}

	return nil
}

// fetchFeature verifies and extracts a single feature archive.
func (f *Fetcher) fetchFeature(ctx context.Context, feat feature.Feature, stagingDir string) error {
	archiveName, err := archiveBaseName(feat.ArchiveURL)
	if err != nil {
		return err
	}

	logger.InfoKV(ctx, "Feature download begin", "feature", feat.Name, "archive", archiveName)

	published, err := f.publishedChecksum(ctx, feat.ChecksumURL, archiveName)
	if err != nil {
		return err
	}

	downloadDir, err := os.MkdirTemp("", "packager-fetch-")
	if err != nil {
		return err
	}

	defer func() {
		_ = os.RemoveAll(downloadDir)
	}()

	archivePath := filepath.Join(downloadDir, archiveName)

	computed, err := f.downloadArchive(ctx, feat.ArchiveURL, archivePath)
	if err != nil {
		return err
	}

	if !strings.EqualFold(computed, published) {
		return fmt.Errorf("%s: computed %s, published %s: %w",
			archiveName, computed, published, errChecksumMismatch)
	}

	logger.InfoKV(ctx, "Feature download end, extract begin", "feature", feat.Name)

	if err := extractArchive(ctx, archivePath, stagingDir, feat.Include, feat.Exclude); err != nil {
		return err
	}

	// The verified archive is not kept around after extraction.
	if err := os.Remove(archivePath); err != nil {
		return err
	}

	logger.InfoKV(ctx, "Feature extract end", "feature", feat.Name)

	return nil
}

// publishedChecksum fetches the checksum manifest and returns the digest
// published for the archive name. Manifest lines are whitespace-separated:
// first token is the MD5 hex digest, second is the exact download filename.
func (f *Fetcher) publishedChecksum(ctx context.Context, manifestURL, archiveName string) (string, error) {
	body, err := f.get(ctx, manifestURL)
	if err != nil {
		return "", err
	}

	defer func() {
		_ = body.Close()
	}()

	scanner := bufio.NewScanner(body)
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) >= 2 && fields[1] == archiveName {
			return fields[0], nil
		}
	}

	if err := scanner.Err(); err != nil {
		return "", err
	}

	return "", fmt.Errorf("%s: %w", archiveName, errChecksumMissing)
}

// downloadArchive streams the archive to disk and returns its MD5 hex digest.
func (f *Fetcher) downloadArchive(ctx context.Context, archiveURL, destination string) (string, error) {
	body, err := f.get(ctx, archiveURL)
	if err != nil {
		return "", err
	}

	defer func() {
		_ = body.Close()
	}()

	out, err := os.Create(filepath.Clean(destination))
	if err != nil {
		return "", err
	}

	hasher := md5.New() //nolint:gosec // Matching the published manifest format.

	_, err = io.Copy(io.MultiWriter(out, hasher), body)
	if closeErr := out.Close(); err == nil {
		err = closeErr
	}

	if err != nil {
		return "", err
	}

	return hex.EncodeToString(hasher.Sum(nil)), nil
}

// get issues a GET request and returns the body for 200 responses.
func (f *Fetcher) get(ctx context.Context, rawURL string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, http.NoBody)
	if err != nil {
		return nil, err
	}

	response, err := f.client.Do(req)
	if err != nil {
		return nil, err
	}

	if response.StatusCode != http.StatusOK {
		_ = response.Body.Close()
		return nil, fmt.Errorf("%s, %s: %w", rawURL, response.Status, errBadHTTPStatus)
	}

	return response.Body, nil
}

// archiveBaseName returns the download filename from the archive URL.
func archiveBaseName(rawURL string) (string, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("parse archive url: %w", err)
	}

	return path.Base(parsed.Path), nil
}

// extractArchive unpacks the zip members passing the include/exclude
// filters into the staging directory. A member matching any exclude pattern
// is skipped even when it also matches an include pattern; with a non-empty
// include list only matching members are extracted.
func extractArchive(ctx context.Context, archivePath, stagingDir string, include, exclude []string) error {
	includes, err := compilePatterns(include)
	if err != nil {
		return err
	}

	excludes, err := compilePatterns(exclude)
	if err != nil {
		return err
	}

	reader, err := zip.OpenReader(archivePath)
	if err != nil {
		return err
	}

	defer func() {
		_ = reader.Close()
	}()

	for _, member := range reader.File {
		if matchesAny(excludes, member.Name) {
			continue
		}

		if len(includes) > 0 && !matchesAny(includes, member.Name) {
			continue
		}

		logger.DebugKV(ctx, "Extracting member", "path", member.Name)

		if err := extractMember(member, stagingDir); err != nil {
			return err
		}
	}

	return nil
}

// extractMember writes one archive member under the staging root.
func extractMember(member *zip.File, stagingDir string) error {
	target := filepath.Join(stagingDir, filepath.FromSlash(member.Name))
	if !strings.HasPrefix(target, filepath.Clean(stagingDir)+string(os.PathSeparator)) {
		return fmt.Errorf("%s: %w", member.Name, errUnsafeMemberPath)
	}

	if member.FileInfo().IsDir() {
		return os.MkdirAll(target, DefaultDirMode)
	}

	if err := os.MkdirAll(filepath.Dir(target), DefaultDirMode); err != nil {
		return err
	}

	source, err := member.Open()
	if err != nil {
		return err
	}

	defer func() {
		_ = source.Close()
	}()

	out, err := os.OpenFile(filepath.Clean(target), os.O_WRONLY|os.O_CREATE|os.O_TRUNC, member.Mode())
	if err != nil {
		return err
	}

	_, err = io.Copy(out, source) //nolint:gosec // Archives come from checksum-verified sources.
	if closeErr := out.Close(); err == nil {
		err = closeErr
	}

	return err
}

// compilePatterns compiles filter patterns anchored at the start of the
// member path, matching the manifest's filter semantics.
func compilePatterns(patterns []string) ([]*regexp.Regexp, error) {
	compiled := make([]*regexp.Regexp, 0, len(patterns))

	for _, pattern := range patterns {
		re, err := regexp.Compile("^(?:" + pattern + ")")
		if err != nil {
			return nil, fmt.Errorf("filter pattern %q: %w", pattern, err)
		}

		compiled = append(compiled, re)
	}

	return compiled, nil
}

// matchesAny reports whether the name matches at least one pattern.
func matchesAny(patterns []*regexp.Regexp, name string) bool {
	for _, re := range patterns {
		if re.MatchString(name) {
			return true
		}
	}

	return false
}

// recreateDir removes a pre-existing staging directory and makes it fresh.
// A pre-existing non-directory (including a symlink) at the staging path is
// a fatal filesystem error.
func recreateDir(path string) error {
	info, err := os.Lstat(path)

	switch {
	case err == nil && info.IsDir():
		if err := os.RemoveAll(path); err != nil {
			return err
		}
	case err == nil:
		return fmt.Errorf("%s: %w", path, errNotADirectory)
	case !errors.Is(err, os.ErrNotExist):
		return err
	}

	return os.MkdirAll(path, DefaultDirMode)
}
