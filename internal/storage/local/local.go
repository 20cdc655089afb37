// Package local stores certificates on the local filesystem.
package local

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"astrotalk/internal/storage"
)

type CertificateStore struct {
	dir          string
	publicPrefix string
}

// New creates dir if needed. Saved files are addressed as publicPrefix/<name>.
func New(dir string, publicPrefix string) (*CertificateStore, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, fmt.Errorf("storage/local: directory is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("storage/local: create %s: %w", dir, err)
	}
	if publicPrefix == "" {
		publicPrefix = "/uploads"
	}
	return &CertificateStore{dir: dir, publicPrefix: "/" + strings.Trim(publicPrefix, "/")}, nil
}

func (s *CertificateStore) Save(ctx context.Context, name string, _ string, data []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if name == "" || name != filepath.Base(name) || strings.HasPrefix(name, ".") {
		return "", storage.ErrInvalidImage
	}

	target := filepath.Join(s.dir, name)
	tmp, err := os.CreateTemp(s.dir, ".upload-*")
	if err != nil {
		return "", fmt.Errorf("storage/local: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return "", fmt.Errorf("storage/local: write %s: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("storage/local: close %s: %w", name, err)
	}
	if err := os.Rename(tmp.Name(), target); err != nil {
		return "", fmt.Errorf("storage/local: rename %s: %w", name, err)
	}
	return path.Join(s.publicPrefix, name), nil
}

var _ storage.CertificateStore = (*CertificateStore)(nil)
