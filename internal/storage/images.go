// Package storage keeps uploaded images on the local filesystem.
package storage

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/google/uuid"
)

var ErrEmpty = errors.New("storage: empty file")

// Images stores blobs under baseDir and names them uuid + extension.
// Stored objects are served under publicURL.
type Images struct {
	baseDir   string
	publicURL string
}

func New(baseDir, publicURL string) *Images {
	return &Images{baseDir: baseDir, publicURL: strings.TrimRight(publicURL, "/")}
}

func (s *Images) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

// Save writes data and returns its public URL.
func (s *Images) Save(originalName string, data []byte) (string, error) {
	if len(data) == 0 {
		return "", ErrEmpty
	}
	name := uuid.NewString() + extension(originalName)
	if err := os.WriteFile(filepath.Join(s.baseDir, name), data, 0644); err != nil {
		return "", fmt.Errorf("storage: write %s: %w", name, err)
	}
	return s.publicURL + "/" + name, nil
}

// extension keeps the original suffix only when it is a plain one.
func extension(name string) string {
	ext := strings.ToLower(path.Ext(filepath.Base(name)))
	if len(ext) < 2 || len(ext) > 8 {
		return ""
	}
	for _, r := range ext[1:] {
		if (r < 'a' || r > 'z') && (r < '0' || r > '9') {
			return ""
		}
	}
	return ext
}

// List returns the stored object names, sorted.
func (s *Images) List() ([]string, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []string{}, nil
		}
		return nil, err
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}

// Handler serves stored objects; mount it at publicURL.
func (s *Images) Handler() http.Handler {
	return http.StripPrefix(s.publicURL+"/", http.FileServer(http.Dir(s.baseDir)))
}

func (s *Images) PublicURL() string { return s.publicURL }
