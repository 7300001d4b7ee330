// Package target derives the local path a download is saved to.
package target

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/mitchellh/go-homedir"
)

// ErrNoFileName is returned when a URL has no usable last path segment
var ErrNoFileName = errors.New("cannot derive a file name from URL")

// FileNameFromURL returns the last non-empty path segment of rawURL with
// characters that are invalid in file names replaced by '_'
func FileNameFromURL(rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("invalid URL %q: %w", rawURL, err)
	}

	segments := strings.Split(u.Path, "/")
	for i := len(segments) - 1; i >= 0; i-- {
		name := sanitize(segments[i])
		if name != "" && name != "." && name != ".." {
			return name, nil
		}
	}
	return "", fmt.Errorf("%w: %s", ErrNoFileName, rawURL)
}

func sanitize(name string) string {
	return strings.Map(func(r rune) rune {
		if r < 0x20 || r == 0x7f || strings.ContainsRune(`<>:"/\|?*`, r) {
			return '_'
		}
		return r
	}, strings.TrimSpace(name))
}

// Resolve returns the path rawURL should be saved to.
// An empty arg saves into the working directory under the URL's file name;
// an existing directory, or an arg ending in a separator, receives the
// URL's file name; anything else is taken as the file path. A leading
// '~' is expanded to the home directory.
func Resolve(rawURL, arg string) (string, error) {
	if arg == "" {
		return FileNameFromURL(rawURL)
	}

	expanded, err := homedir.Expand(arg)
	if err != nil {
		return "", fmt.Errorf("failed to expand %q: %w", arg, err)
	}

	if isDir(expanded) {
		name, err := FileNameFromURL(rawURL)
		if err != nil {
			return "", err
		}
		return filepath.Join(expanded, name), nil
	}

	return filepath.Clean(expanded), nil
}

func isDir(path string) bool {
	if strings.HasSuffix(path, "/") || strings.HasSuffix(path, string(filepath.Separator)) {
		return true
	}
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
