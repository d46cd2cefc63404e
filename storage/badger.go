package storage

import (
	"context"

	"github.com/dgraph-io/badger/v4"
	"github.com/pkg/errors"
)

// Badger stores the value under one key of a Badger database.
type Badger struct {
	db  *badger.DB
	key []byte
}

// OpenBadger opens (or creates) the database in dir. An empty dir runs the
// database in memory.
func OpenBadger(dir, key string) (*Badger, error) {
	opts := badger.DefaultOptions(dir)
	if dir == "" {
		opts = opts.WithInMemory(true)
	}
	opts.Logger = nil
	opts.SyncWrites = true
	opts.CompactL0OnClose = true

	db, err := badger.Open(opts)
	if err != nil {
		return nil, errors.Wrap(err, "open badger db")
	}
	return &Badger{db: db, key: []byte(key)}, nil
}

func (b *Badger) Available(_ context.Context) error {
	if b.db == nil || b.db.IsClosed() {
		return errors.Wrap(ErrUnavailable, "badger medium closed")
	}
	return nil
}

func (b *Badger) Read(_ context.Context) ([]byte, error) {
	var out []byte
	err := b.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(b.key)
		if err != nil {
			return err
		}
		out, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrapf(err, "badger get %s", b.key)
	}
	return out, nil
}

func (b *Badger) Write(_ context.Context, data []byte) error {
	err := b.db.Update(func(txn *badger.Txn) error {
		return txn.Set(b.key, data)
	})
	return errors.Wrapf(err, "badger set %s", b.key)
}

func (b *Badger) Close() error {
	if b.db == nil || b.db.IsClosed() {
		return nil
	}
	return b.db.Close()
}
