package local

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/vbonduro/islandlife/internal/objectstore"
)

// LocalObjectStore keeps objects as files below basePath. It stands in for a
// real bucket in development and tests.
type LocalObjectStore struct {
	basePath  string
	publicURL string
}

// NewLocalObjectStore creates basePath if needed. publicURL is the prefix
// returned by URL, e.g. "/objects".
func NewLocalObjectStore(basePath, publicURL string) (*LocalObjectStore, error) {
	if err := os.MkdirAll(basePath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create object directory: %w", err)
	}
	return &LocalObjectStore{basePath: basePath, publicURL: strings.TrimSuffix(publicURL, "/")}, nil
}

func (s *LocalObjectStore) Put(ctx context.Context, key, contentType string, r io.Reader) error {
	filePath, err := s.safeJoin(key)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(filePath), 0755); err != nil {
		return fmt.Errorf("failed to create object directory: %w", err)
	}

	f, err := os.Create(filePath)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	if _, err := io.Copy(f, r); err != nil {
		if cerr := f.Close(); cerr != nil {
			slog.Error("failed to close file after write error", "error", cerr)
		}
		if rerr := os.Remove(filePath); rerr != nil {
			slog.Error("failed to remove file after write error", "error", rerr)
		}
		return fmt.Errorf("failed to write file: %w", err)
	}
	if err := f.Close(); err != nil {
		if rerr := os.Remove(filePath); rerr != nil {
			slog.Error("failed to remove file after close error", "error", rerr)
		}
		return fmt.Errorf("failed to close file: %w", err)
	}
	return nil
}

func (s *LocalObjectStore) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	filePath, err := s.safeJoin(key)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, objectstore.ErrNotFound
		}
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	return f, nil
}

func (s *LocalObjectStore) URL(key string) string {
	return s.publicURL + "/" + key
}

// safeJoin resolves key relative to basePath and rejects directory traversal.
func (s *LocalObjectStore) safeJoin(key string) (string, error) {
	absBase, err := filepath.Abs(s.basePath)
	if err != nil {
		return "", fmt.Errorf("invalid base path: %w", err)
	}

	absPath, err := filepath.Abs(filepath.Join(s.basePath, filepath.FromSlash(key)))
	if err != nil {
		return "", fmt.Errorf("invalid path: %w", err)
	}

	if !strings.HasPrefix(absPath, absBase+string(filepath.Separator)) {
		return "", fmt.Errorf("path traversal attempt")
	}
	return absPath, nil
}
