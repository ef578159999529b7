package eventlog

import (
	"path/filepath"
	"testing"

	"github.com/haloforge/kioskvm/pkg/scheduler"
	"github.com/haloforge/kioskvm/pkg/vm"
)

func TestAppendAndAll(t *testing.T) {
	path := filepath.Join(t.TempDir(), "events.bolt")
	l, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer l.Close()

	recs := []Record{
		{Event: scheduler.Event{Class: scheduler.ClassKeydown, WindowID: 1, Args: []vm.Value{1, 65}}, Entry: 100},
		{Event: scheduler.Event{Class: scheduler.ClassTimer, Callback: 55}, Entry: 55},
	}
	for _, r := range recs {
		if err := l.Append(r); err != nil {
			t.Fatalf("Append: %v", err)
		}
	}

	got, err := l.All()
	if err != nil {
		t.Fatalf("All: %v", err)
	}
	if len(got) != len(recs) {
		t.Fatalf("All() returned %d records, want %d", len(got), len(recs))
	}
	for i, r := range recs {
		if got[i].Entry != r.Entry || got[i].Event.Class != r.Event.Class {
			t.Errorf("record[%d] = %+v, want %+v", i, got[i], r)
		}
	}

	n, err := l.Count()
	if err != nil {
		t.Fatalf("Count: %v", err)
	}
	if n != len(recs) {
		t.Errorf("Count() = %d, want %d", n, len(recs))
	}
}

func TestClosedLogRejectsOps(t *testing.T) {
	path := filepath.Join(t.TempDir(), "events.bolt")
	l, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	l.Close()

	if err := l.Append(Record{}); err != ErrClosed {
		t.Errorf("Append on closed log = %v, want ErrClosed", err)
	}
}
