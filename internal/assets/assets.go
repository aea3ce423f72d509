// Package assets is the file access collaborator: it reads HTML templates
// and stylesheet/script assets from disk and validates the paths it is
// given. Everything else in the pipeline works on already-loaded content.
package assets

import (
	"errors"
	"fmt"
	"os"
)

// Sentinel errors for file access. The root package re-exports these as
// part of its error taxonomy.
var (
	ErrTemplateRead = errors.New("cannot read template file")
	ErrAssetRead    = errors.New("cannot read asset file")
	ErrInvalidPath  = errors.New("invalid file path")
)

// MaxFileSize caps template and asset reads (default 16MB). Rendering
// inlines everything into one document, so unbounded inputs would be held
// in memory several times over.
var MaxFileSize int64 = 16 << 20

// ReadTemplate returns the HTML template content at path.
func ReadTemplate(path string) (string, error) {
	content, err := readBounded(path)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrTemplateRead, err)
	}
	return content, nil
}

// ReadAsset returns the content of a stylesheet or script asset at path.
func ReadAsset(path string) (string, error) {
	content, err := readBounded(path)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrAssetRead, err)
	}
	return content, nil
}

// ValidatePath rejects empty paths and null bytes before any filesystem
// access.
func ValidatePath(path string) error {
	if path == "" {
		return fmt.Errorf("%w: empty path", ErrInvalidPath)
	}
	for i := 0; i < len(path); i++ {
		if path[i] == 0 {
			return fmt.Errorf("%w: %q", ErrInvalidPath, path)
		}
	}
	return nil
}

func readBounded(path string) (string, error) {
	if err := ValidatePath(path); err != nil {
		return "", err
	}

	info, err := os.Stat(path)
	if err != nil {
		return "", err
	}
	if info.IsDir() {
		return "", fmt.Errorf("%s is a directory", path)
	}
	if info.Size() > MaxFileSize {
		return "", fmt.Errorf("%s exceeds maximum size (%d bytes)", path, MaxFileSize)
	}

	content, err := os.ReadFile(path) // #nosec G304 -- caller-provided path, validated above
	if err != nil {
		return "", err
	}
	return string(content), nil
}
