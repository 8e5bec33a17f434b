// Package platform detects the host OS and Linux package-manager identity
// used by the packaging dispatcher.
package platform
