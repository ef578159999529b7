// Package eventlog durably records scheduler events in delivery order for
// deterministic replay (pkg/replay): one bbolt bucket keyed by an
// auto-incrementing sequence number, gob-encoded records, wrapped in
// Update/View transactions.
package eventlog

import (
	"bytes"
	"encoding/binary"
	"encoding/gob"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/haloforge/kioskvm/pkg/scheduler"
)

var bucketEvents = []byte("events")

// ErrClosed is returned by any operation after Close.
var ErrClosed = errors.New("eventlog: closed")

// Record is one durably-logged dispatch: the event and the callback entry
// it resolved to at the time it fired.
type Record struct {
	Event scheduler.Event
	Entry uint64
}

// Log is an append-only, durable record of delivered scheduler events.
type Log struct {
	db     *bolt.DB
	closed bool
}

// Open creates or opens an event log at path.
func Open(path string) (*Log, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create directory: %w", err)
		}
	}
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: 5 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("open bbolt: %w", err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketEvents)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("init bucket: %w", err)
	}
	return &Log{db: db}, nil
}

func seqKey(seq uint64) []byte {
	key := make([]byte, 8)
	binary.BigEndian.PutUint64(key, seq)
	return key
}

// Append records a dispatched event under the next sequence number.
func (l *Log) Append(rec Record) error {
	if l.closed {
		return ErrClosed
	}
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(rec); err != nil {
		return fmt.Errorf("encode record: %w", err)
	}
	return l.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketEvents)
		seq, err := b.NextSequence()
		if err != nil {
			return err
		}
		return b.Put(seqKey(seq), buf.Bytes())
	})
}

// All returns every recorded dispatch in delivery order, for pkg/replay.
func (l *Log) All() ([]Record, error) {
	if l.closed {
		return nil, ErrClosed
	}
	var records []Record
	err := l.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketEvents)
		return b.ForEach(func(k, v []byte) error {
			var rec Record
			if err := gob.NewDecoder(bytes.NewReader(v)).Decode(&rec); err != nil {
				return fmt.Errorf("decode record: %w", err)
			}
			records = append(records, rec)
			return nil
		})
	})
	return records, err
}

// Count returns the number of recorded dispatches.
func (l *Log) Count() (int, error) {
	if l.closed {
		return 0, ErrClosed
	}
	n := 0
	err := l.db.View(func(tx *bolt.Tx) error {
		n = tx.Bucket(bucketEvents).Stats().KeyN
		return nil
	})
	return n, err
}

// Close closes the underlying database.
func (l *Log) Close() error {
	if l.closed {
		return ErrClosed
	}
	l.closed = true
	return l.db.Close()
}
