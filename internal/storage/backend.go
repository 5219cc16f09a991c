// Package storage persists the edit history: one record per edit applied to
// a skeleton file.
//
// It defines the StorageBackend interface that all implementations satisfy,
// along with the record type they store.
package storage

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/google/uuid"
	jsoniter "github.com/json-iterator/go"

	"github.com/Benny93/spine-editor/internal/config"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// ErrEditNotFound is returned by GetEdit for unknown ids.
var ErrEditNotFound = errors.New("edit not found")

// EditRecord describes one edit applied to one skeleton file.
type EditRecord struct {
	// ID is assigned by SaveEdit when empty.
	ID string `json:"id"`

	// Source is the path of the edited skeleton file.
	Source string `json:"source"`

	// Operation is the edit name, e.g. "clean" or "erase-animations".
	Operation string `json:"operation"`

	// Args are the operation arguments (animation or skin names, factors).
	Args []string `json:"args,omitempty"`

	RemovedSlots       []string `json:"removed_slots,omitempty"`
	RemovedAttachments []string `json:"removed_attachments,omitempty"`
	RemovedImages      []string `json:"removed_images,omitempty"`

	// Output is where the result was written, empty for in-place edits.
	Output string `json:"output,omitempty"`

	// CreatedAt is set by SaveEdit when zero.
	CreatedAt time.Time `json:"created_at"`
}

// StorageBackend defines the interface for storage implementations.
//
// Implementations must be thread-safe and support concurrent access.
type StorageBackend interface {
	// Lifecycle methods

	// Initialize opens or creates the storage backend at the given path.
	// If readOnly is true, the backend is opened in read-only mode.
	Initialize(path string, readOnly bool) error

	// Close releases all resources held by the backend.
	Close() error

	// Edit history

	// SaveEdit stores a record, filling in ID and CreatedAt when unset.
	SaveEdit(ctx context.Context, rec *EditRecord) error

	// GetEdit returns a record by id or ErrEditNotFound.
	GetEdit(ctx context.Context, id string) (*EditRecord, error)

	// ListEdits returns the records for source, newest first. An empty
	// source lists every record.
	ListEdits(ctx context.Context, source string) ([]*EditRecord, error)

	// DeleteEdits removes the records for source and returns how many
	// were removed.
	DeleteEdits(ctx context.Context, source string) (int, error)
}

// Open returns an initialized backend for cfg: in memory when
// cfg.InMemory is set, Badger at cfg.Path otherwise.
func Open(cfg config.StorageConfig, readOnly bool) (StorageBackend, error) {
	var b StorageBackend = NewBadgerBackend()
	if cfg.InMemory {
		b = NewMemoryBackend()
	}
	if err := b.Initialize(cfg.Path, readOnly); err != nil {
		return nil, err
	}
	return b, nil
}

func prepare(rec *EditRecord) {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
}

func newestFirst(recs []*EditRecord) {
	sort.SliceStable(recs, func(i, j int) bool {
		if !recs[i].CreatedAt.Equal(recs[j].CreatedAt) {
			return recs[i].CreatedAt.After(recs[j].CreatedAt)
		}
		return recs[i].ID > recs[j].ID
	})
}

func clone(rec *EditRecord) *EditRecord {
	c := *rec
	c.Args = append([]string(nil), rec.Args...)
	c.RemovedSlots = append([]string(nil), rec.RemovedSlots...)
	c.RemovedAttachments = append([]string(nil), rec.RemovedAttachments...)
	c.RemovedImages = append([]string(nil), rec.RemovedImages...)
	return &c
}
