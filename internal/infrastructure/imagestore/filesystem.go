package imagestore

import (
	"context"
	"fmt"
	"path"
	"strings"

	"github.com/spf13/afero"
)

// FilesystemStore persists image tiers on an afero filesystem and serves
// them back as URLs under a configured public base
type FilesystemStore struct {
	fs      afero.Fs
	baseDir string
	baseURL string
}

// NewFilesystemStore creates a store rooted at baseDir. URLs are formed by
// joining baseURL with the storage key.
func NewFilesystemStore(fs afero.Fs, baseDir, baseURL string) *FilesystemStore {
	return &FilesystemStore{
		fs:      fs,
		baseDir: baseDir,
		baseURL: strings.TrimRight(baseURL, "/"),
	}
}

// Save writes the blob under its key and returns the public URL
func (s *FilesystemStore) Save(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	if key == "" || strings.Contains(key, "..") {
		return "", fmt.Errorf("invalid storage key %q", key)
	}

	fullPath := path.Join(s.baseDir, key)
	if err := s.fs.MkdirAll(path.Dir(fullPath), 0o755); err != nil {
		return "", fmt.Errorf("create image directory: %w", err)
	}
	if err := afero.WriteFile(s.fs, fullPath, data, 0o644); err != nil {
		return "", fmt.Errorf("write image: %w", err)
	}

	return s.baseURL + "/" + key, nil
}
