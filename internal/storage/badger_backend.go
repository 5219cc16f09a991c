package storage

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/dgraph-io/badger/v4"
)

// Key prefixes for different data types
const (
	prefixEdit   = "edit:" // edit record data
	prefixSource = "src:"  // source -> edit id index
)

// BadgerBackend is a BadgerDB-backed storage implementation.
type BadgerBackend struct {
	db          *badger.DB
	initialized bool
	mu          sync.RWMutex
}

// NewBadgerBackend creates a new BadgerDB backend.
func NewBadgerBackend() *BadgerBackend {
	return &BadgerBackend{}
}

// Initialize opens or creates the BadgerDB database at the given path.
func (b *BadgerBackend) Initialize(path string, readOnly bool) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	opts := badger.DefaultOptions(path).
		WithNumCompactors(2).
		WithLoggingLevel(badger.ERROR) // Suppress INFO/WARNING logs

	if readOnly {
		opts = opts.WithReadOnly(true)
	}

	var err error
	b.db, err = badger.Open(opts)
	if err != nil {
		return fmt.Errorf("opening badger DB: %w", err)
	}

	b.initialized = true
	return nil
}

// Close releases all resources held by the backend.
func (b *BadgerBackend) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.db == nil {
		return nil
	}

	err := b.db.Close()
	b.db = nil
	b.initialized = false
	return err
}

func (b *BadgerBackend) editKey(id string) []byte {
	return []byte(prefixEdit + id)
}

func (b *BadgerBackend) sourcePrefix(source string) []byte {
	return []byte(prefixSource + source + ":")
}

func (b *BadgerBackend) sourceKey(source, id string) []byte {
	return append(b.sourcePrefix(source), id...)
}

// SaveEdit stores the record and its source index entry in one transaction.
func (b *BadgerBackend) SaveEdit(ctx context.Context, rec *EditRecord) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	prepare(rec)
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshaling edit: %w", err)
	}

	return b.db.Update(func(txn *badger.Txn) error {
		if err := txn.Set(b.editKey(rec.ID), data); err != nil {
			return fmt.Errorf("setting edit: %w", err)
		}
		if err := txn.Set(b.sourceKey(rec.Source, rec.ID), []byte(rec.ID)); err != nil {
			return fmt.Errorf("setting source index: %w", err)
		}
		return nil
	})
}

// GetEdit returns a single record by id.
func (b *BadgerBackend) GetEdit(ctx context.Context, id string) (*EditRecord, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	var rec *EditRecord
	err := b.db.View(func(txn *badger.Txn) error {
		var err error
		rec, err = b.readEdit(txn, id)
		return err
	})
	return rec, err
}

func (b *BadgerBackend) readEdit(txn *badger.Txn, id string) (*EditRecord, error) {
	item, err := txn.Get(b.editKey(id))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrEditNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("getting edit: %w", err)
	}

	var rec EditRecord
	if err := item.Value(func(val []byte) error {
		return json.Unmarshal(val, &rec)
	}); err != nil {
		return nil, fmt.Errorf("unmarshaling edit: %w", err)
	}
	return &rec, nil
}

// ListEdits returns the records for source, newest first.
func (b *BadgerBackend) ListEdits(ctx context.Context, source string) ([]*EditRecord, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	var recs []*EditRecord
	err := b.db.View(func(txn *badger.Txn) error {
		if source == "" {
			return b.scanEdits(ctx, txn, func(rec *EditRecord) { recs = append(recs, rec) })
		}

		ids, err := b.sourceIDs(ctx, txn, source)
		if err != nil {
			return err
		}
		for _, id := range ids {
			rec, err := b.readEdit(txn, id)
			if err != nil {
				return err
			}
			// A source containing ':' can share a prefix with another.
			if rec.Source == source {
				recs = append(recs, rec)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	newestFirst(recs)
	return recs, nil
}

func (b *BadgerBackend) scanEdits(ctx context.Context, txn *badger.Txn, fn func(*EditRecord)) error {
	opts := badger.DefaultIteratorOptions
	opts.Prefix = []byte(prefixEdit)
	it := txn.NewIterator(opts)
	defer it.Close()

	for it.Rewind(); it.Valid(); it.Next() {
		if err := ctx.Err(); err != nil {
			return err
		}
		var rec EditRecord
		if err := it.Item().Value(func(val []byte) error {
			return json.Unmarshal(val, &rec)
		}); err != nil {
			return fmt.Errorf("unmarshaling edit: %w", err)
		}
		fn(&rec)
	}
	return nil
}

func (b *BadgerBackend) sourceIDs(ctx context.Context, txn *badger.Txn, source string) ([]string, error) {
	opts := badger.DefaultIteratorOptions
	opts.Prefix = b.sourcePrefix(source)
	it := txn.NewIterator(opts)
	defer it.Close()

	var ids []string
	for it.Rewind(); it.Valid(); it.Next() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		val, err := it.Item().ValueCopy(nil)
		if err != nil {
			return nil, fmt.Errorf("reading source index: %w", err)
		}
		ids = append(ids, string(val))
	}
	return ids, nil
}

// DeleteEdits removes every record of source along with its index entries.
func (b *BadgerBackend) DeleteEdits(ctx context.Context, source string) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	count := 0
	err := b.db.Update(func(txn *badger.Txn) error {
		ids, err := b.sourceIDs(ctx, txn, source)
		if err != nil {
			return err
		}
		for _, id := range ids {
			rec, err := b.readEdit(txn, id)
			if err != nil {
				return err
			}
			if rec.Source != source {
				continue
			}
			if err := txn.Delete(b.editKey(id)); err != nil {
				return fmt.Errorf("deleting edit: %w", err)
			}
			if err := txn.Delete(b.sourceKey(source, id)); err != nil {
				return fmt.Errorf("deleting source index: %w", err)
			}
			count++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return count, nil
}
