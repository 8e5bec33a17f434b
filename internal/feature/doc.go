// Package feature holds the static add-on catalog and resolves feature
// requests against it, filtered by the build platform.
package feature
