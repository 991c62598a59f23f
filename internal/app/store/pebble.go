package store

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/cockroachdb/pebble"

	"portalsync/internal/pkg/logx"
)

// Pebble is a Store backed by an embedded pebble database.
type Pebble struct {
	db   *pebble.DB
	path string
}

// OpenPebble opens or creates the database at path. Every write is synced so it
// survives the process.
func OpenPebble(path string, opts *pebble.Options) (*Pebble, error) {
	if opts == nil {
		opts = &pebble.Options{}
	}

	db, err := pebble.Open(path, opts)
	if err != nil {
		logx.Error(err, "Failed to open pebble store", "path", path)
		return nil, fmt.Errorf("failed to open pebble store at %s: %w", path, err)
	}

	return &Pebble{db: db, path: path}, nil
}

func (p *Pebble) Get(_ context.Context, key string) ([]byte, bool, error) {
	v, closer, err := p.db.Get([]byte(key))
	if errors.Is(err, pebble.ErrNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("pebble get %s: %w", key, err)
	}
	defer closer.Close()

	// v is only valid until closer.Close.
	return slices.Clone(v), true, nil
}

func (p *Pebble) Set(_ context.Context, key string, value []byte) error {
	if err := p.db.Set([]byte(key), value, pebble.Sync); err != nil {
		return fmt.Errorf("pebble set %s: %w", key, err)
	}
	return nil
}

func (p *Pebble) Remove(_ context.Context, key string) error {
	if err := p.db.Delete([]byte(key), pebble.Sync); err != nil {
		return fmt.Errorf("pebble delete %s: %w", key, err)
	}
	return nil
}

func (p *Pebble) Close() error {
	if p.db == nil {
		return nil
	}
	err := p.db.Close()
	p.db = nil
	return err
}
