// Package badger stores index artifacts in an embedded BadgerDB.
package badger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/dgraph-io/badger/v4"
	"github.com/dgraph-io/badger/v4/options"

	"github.com/kirillkom/hybrid-search/internal/core/domain"
)

const keyPrefix = "index/"

// Store implements the index store over a single BadgerDB instance.
type Store struct {
	db     *badger.DB
	logger *slog.Logger
}

type loggerAdapter struct {
	logger *slog.Logger
}

var _ badger.Logger = (*loggerAdapter)(nil)

func (l *loggerAdapter) Errorf(msg string, items ...any) {
	l.logger.Error(fmt.Sprintf(msg, items...))
}

func (l *loggerAdapter) Warningf(msg string, items ...any) {
	l.logger.Warn(fmt.Sprintf(msg, items...))
}

func (l *loggerAdapter) Infof(msg string, items ...any) {
	l.logger.Debug(fmt.Sprintf(msg, items...))
}

func (l *loggerAdapter) Debugf(msg string, items ...any) {
	l.logger.Debug(fmt.Sprintf(msg, items...))
}

// Open opens (or creates) the database directory. An empty path opens an
// in-memory database.
func Open(path string, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "badger")

	var opts badger.Options
	if path == "" {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if err := os.MkdirAll(path, 0o755); err != nil {
			return nil, fmt.Errorf("create badger dir: %w", err)
		}
		opts = badger.DefaultOptions(path)
	}
	opts.Logger = &loggerAdapter{logger: logger}
	opts.Compression = options.None

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger: %w", err)
	}
	return &Store{db: db, logger: logger}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func artifactKey(name string) []byte {
	return []byte(keyPrefix + name)
}

func (s *Store) Exists(_ context.Context, name string) (bool, error) {
	err := s.db.View(func(tx *badger.Txn) error {
		_, err := tx.Get(artifactKey(name))
		return err
	})
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, badger.ErrKeyNotFound):
		return false, nil
	default:
		return false, fmt.Errorf("lookup artifact %s: %w", name, err)
	}
}

// Save replaces the artifact in a single read-write transaction.
func (s *Store) Save(ctx context.Context, name string, artifact []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	err := s.db.Update(func(tx *badger.Txn) error {
		return tx.Set(artifactKey(name), artifact)
	})
	if err != nil {
		return fmt.Errorf("save artifact %s: %w", name, err)
	}
	return nil
}

func (s *Store) Load(_ context.Context, name string) ([]byte, error) {
	var out []byte
	err := s.db.View(func(tx *badger.Txn) error {
		item, err := tx.Get(artifactKey(name))
		if err != nil {
			return err
		}
		out, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, domain.WrapError(domain.ErrNotFound, "load artifact", err)
	}
	if err != nil {
		return nil, fmt.Errorf("load artifact %s: %w", name, err)
	}
	return out, nil
}
