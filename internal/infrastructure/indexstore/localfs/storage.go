package localfs

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"

	"github.com/kirillkom/hybrid-search/internal/core/domain"
)

const artifactExt = ".idx"

var artifactNamePattern = regexp.MustCompile(`^[A-Za-z0-9_.-]+$`)

// Storage keeps index artifacts as files in a single directory.
type Storage struct {
	basePath string
}

func New(basePath string) (*Storage, error) {
	if basePath == "" {
		basePath = "./data/index"
	}
	if err := os.MkdirAll(basePath, 0o755); err != nil {
		return nil, fmt.Errorf("create index dir: %w", err)
	}
	return &Storage{basePath: basePath}, nil
}

func (s *Storage) path(name string) (string, error) {
	if !artifactNamePattern.MatchString(name) {
		return "", domain.WrapError(domain.ErrInvalidInput, "index artifact path", fmt.Errorf("bad artifact name %q", name))
	}
	return filepath.Join(s.basePath, name+artifactExt), nil
}

func (s *Storage) Exists(_ context.Context, name string) (bool, error) {
	path, err := s.path(name)
	if err != nil {
		return false, err
	}
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("stat artifact: %w", err)
	}
	return true, nil
}

// Save writes to a temp file in the same directory, syncs it and renames it
// over the target, so readers never see a partial artifact.
func (s *Storage) Save(ctx context.Context, name string, artifact []byte) error {
	path, err := s.path(name)
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	f, err := os.CreateTemp(s.basePath, name+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmp := f.Name()
	cleanup := func() { _ = os.Remove(tmp) }

	if _, err := f.Write(artifact); err != nil {
		_ = f.Close()
		cleanup()
		return fmt.Errorf("write artifact: %w", err)
	}
	if err := f.Sync(); err != nil {
		_ = f.Close()
		cleanup()
		return fmt.Errorf("sync artifact: %w", err)
	}
	if err := f.Close(); err != nil {
		cleanup()
		return fmt.Errorf("close artifact: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		cleanup()
		return fmt.Errorf("rename artifact: %w", err)
	}
	return nil
}

func (s *Storage) Load(_ context.Context, name string) ([]byte, error) {
	path, err := s.path(name)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, domain.WrapError(domain.ErrNotFound, "load artifact", err)
		}
		return nil, fmt.Errorf("read artifact: %w", err)
	}
	return data, nil
}
