package chain

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
)

// DefaultFileReader reads chain File sources from the local filesystem,
// expanding a leading `~` the way a shell would (spec.md §4.5). Grounded
// on the path-handling discipline of internal/gitprovider/scope.go, which
// likewise validates and normalizes user-supplied paths before touching
// the filesystem.
type DefaultFileReader struct{}

// ReadFile reads path after expanding a leading `~` or `~/` to the current
// user's home directory.
func (DefaultFileReader) ReadFile(path string) ([]byte, error) {
	expanded, err := ExpandHome(path)
	if err != nil {
		return nil, &ChainSourceError{Kind: SourceErrorFileMissing, Detail: err.Error(), Cause: err}
	}
	data, err := os.ReadFile(expanded)
	if err != nil {
		return nil, &ChainSourceError{Kind: SourceErrorFileMissing, Detail: expanded, Cause: err}
	}
	return data, nil
}

// ExpandHome expands a leading "~" or "~/..." to the current user's home
// directory. Paths like "~other" (another user's home) are left
// unexpanded and passed through as-is, matching typical shell behavior for
// the common case without requiring an /etc/passwd lookup.
func ExpandHome(path string) (string, error) {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", errors.New("resolve home directory: " + err.Error())
	}
	if path == "~" {
		return home, nil
	}
	return filepath.Join(home, path[2:]), nil
}
