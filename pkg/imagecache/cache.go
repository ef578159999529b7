// Package imagecache provides a content-addressed, BadgerDB-backed store of
// loaded program images, keyed by internal/image.ID (the SHA-256 digest of
// the raw bytecode file): an LSM-tree key/value store addressed by a fixed
// 32-byte key, with an atomic closed flag and an RWMutex guarding writes.
package imagecache

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/dgraph-io/badger/v4"

	"github.com/haloforge/kioskvm/internal/image"
	progimage "github.com/haloforge/kioskvm/pkg/image"
)

// ErrClosed is returned by any operation after Close.
var ErrClosed = errors.New("imagecache: closed")

// ErrNotFound is returned when an ID has no cached entry.
var ErrNotFound = errors.New("imagecache: not found")

var prefixImage = []byte{0x01}

// Config configures the underlying BadgerDB instance.
type Config struct {
	Path       string
	InMemory   bool
	SyncWrites bool
}

// Cache is a content-addressed store of decoded program images.
type Cache struct {
	db     *badger.DB
	mu     sync.RWMutex
	closed atomic.Bool
}

// Open opens or creates the image cache at cfg.Path.
func Open(cfg Config) (*Cache, error) {
	opts := badger.DefaultOptions(cfg.Path).
		WithSyncWrites(cfg.SyncWrites).
		WithLogger(nil)
	if cfg.InMemory {
		opts = opts.WithInMemory(true)
	}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger: %w", err)
	}
	return &Cache{db: db}, nil
}

func imageKey(id image.ID) []byte {
	key := make([]byte, 1+image.IDSize)
	key[0] = prefixImage[0]
	copy(key[1:], id[:])
	return key
}

// Put stores raw (the original bytecode file bytes) under its content
// digest and returns the assigned ID.
func (c *Cache) Put(raw []byte) (image.ID, error) {
	if c.closed.Load() {
		return image.ID{}, ErrClosed
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	id := image.IDFromBytes(raw)
	err := c.db.Update(func(txn *badger.Txn) error {
		return txn.Set(imageKey(id), raw)
	})
	if err != nil {
		return image.ID{}, fmt.Errorf("put image: %w", err)
	}
	return id, nil
}

// Get retrieves and decodes the program image stored under id.
func (c *Cache) Get(id image.ID) (*progimage.Program, error) {
	if c.closed.Load() {
		return nil, ErrClosed
	}
	c.mu.RLock()
	defer c.mu.RUnlock()

	var raw []byte
	err := c.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(imageKey(id))
		if err == badger.ErrKeyNotFound {
			return ErrNotFound
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			raw = append([]byte(nil), val...)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return progimage.Load(raw)
}

// Has reports whether id is present in the cache.
func (c *Cache) Has(id image.ID) (bool, error) {
	if c.closed.Load() {
		return false, ErrClosed
	}
	c.mu.RLock()
	defer c.mu.RUnlock()

	var exists bool
	err := c.db.View(func(txn *badger.Txn) error {
		_, err := txn.Get(imageKey(id))
		if err == badger.ErrKeyNotFound {
			return nil
		}
		if err != nil {
			return err
		}
		exists = true
		return nil
	})
	return exists, err
}

// Close closes the underlying BadgerDB instance.
func (c *Cache) Close() error {
	if c.closed.Swap(true) {
		return ErrClosed
	}
	return c.db.Close()
}
