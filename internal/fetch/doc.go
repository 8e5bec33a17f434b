// Package fetch acquires external feature resources.
//
// For every resolved feature it downloads the archive, verifies it against
// the feature's published MD5 manifest, and extracts the filtered contents
// into a freshly recreated staging directory. A checksum mismatch or a
// missing manifest entry aborts the whole pipeline before any extraction.
package fetch
