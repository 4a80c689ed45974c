package storage

import (
	"fmt"
	"sync/atomic"

	memdb "github.com/hashicorp/go-memdb"
	"github.com/on-the-ground/effect_ive_loop/shared/helper"
)

const (
	itemTable = "items"
	idIndex   = "id"
)

type item struct {
	Key   string
	Value string
}

var itemSchema = &memdb.DBSchema{
	Tables: map[string]*memdb.TableSchema{
		itemTable: {
			Name: itemTable,
			Indexes: map[string]*memdb.IndexSchema{
				idIndex: {
					Name:    idIndex,
					Unique:  true,
					Indexer: &memdb.StringFieldIndex{Field: "Key"},
				},
			},
		},
	},
}

// MemoryBackend keeps items in a transactional in-memory table.
type MemoryBackend struct {
	db     *memdb.MemDB
	closed atomic.Bool
}

func NewMemoryBackend() (*MemoryBackend, error) {
	db, err := memdb.NewMemDB(itemSchema)
	if err != nil {
		return nil, fmt.Errorf("create memdb: %w", err)
	}
	return &MemoryBackend{db: db}, nil
}

func (m *MemoryBackend) Get(key string) (string, bool, error) {
	if m.closed.Load() {
		return "", false, ErrClosed
	}
	txn := m.db.Txn(false)
	defer txn.Abort()

	raw, err := txn.First(itemTable, idIndex, key)
	if err != nil {
		return "", false, err
	}
	it, ok := helper.GetTypedValueOf2[*item](func() (any, bool) {
		return raw, raw != nil
	})
	if !ok {
		return "", false, nil
	}
	return it.Value, true, nil
}

func (m *MemoryBackend) Set(key, value string) error {
	if m.closed.Load() {
		return ErrClosed
	}
	txn := m.db.Txn(true)
	defer txn.Abort()

	if err := txn.Insert(itemTable, &item{Key: key, Value: value}); err != nil {
		return err
	}
	txn.Commit()
	return nil
}

func (m *MemoryBackend) Delete(key string) error {
	if m.closed.Load() {
		return ErrClosed
	}
	txn := m.db.Txn(true)
	defer txn.Abort()

	if _, err := txn.DeleteAll(itemTable, idIndex, key); err != nil {
		return err
	}
	txn.Commit()
	return nil
}

func (m *MemoryBackend) Close() error {
	m.closed.Store(true)
	return nil
}
