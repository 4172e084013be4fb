package models

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// ErrMalformedName is returned for file names that do not split into exactly
// one stem and one extension.
var ErrMalformedName = errors.New("file name must contain exactly one '.' between stem and extension")

// MediaFile is a job target. Its extension decides the output container.
type MediaFile struct {
	Path string
	Dir  string
	Stem string
	Ext  string
}

// ParseMediaFile splits path into directory, stem and extension.
func ParseMediaFile(path string) (MediaFile, error) {
	name := filepath.Base(path)
	parts := strings.Split(name, ".")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return MediaFile{}, fmt.Errorf("%q: %w", name, ErrMalformedName)
	}
	return MediaFile{
		Path: path,
		Dir:  filepath.Dir(path),
		Stem: parts[0],
		Ext:  parts[1],
	}, nil
}

// WithSuffix returns "<stem><suffix>.<ext>".
func (m MediaFile) WithSuffix(suffix string) string {
	return m.Stem + suffix + "." + m.Ext
}
