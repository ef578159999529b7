// Package replay deterministically reproduces a recorded run: given a
// program image and the pkg/eventlog recording of everything dispatched
// during a prior execution, it re-runs the program from a fresh heap,
// feeding back the exact same (callback, args) pairs in the exact same
// order instead of re-deriving them from live timers/input, so the
// resulting state can be compared against what was recorded.
package replay

import (
	"bytes"
	"io"

	progimage "github.com/haloforge/kioskvm/pkg/image"
	"github.com/haloforge/kioskvm/pkg/eventlog"
	"github.com/haloforge/kioskvm/pkg/syscall"
	"github.com/haloforge/kioskvm/pkg/vm"
)

// Result is the observable outcome of a replayed run.
type Result struct {
	Stdout []byte
	Heap   []byte
}

// replayWaiter implements vm.Waiter by draining a fixed, pre-recorded
// sequence of dispatches instead of blocking on live events. The first
// `wait` drains every recorded dispatch, mirroring how the live scheduler
// drains everything pending on a queue; once drained, further `wait`
// calls are no-ops so a program's event loop doesn't block forever
// replaying against an exhausted log.
type replayWaiter struct {
	records []eventlog.Record
	i       int
}

func (w *replayWaiter) Wait(invoke func(entry uint64, args []vm.Value) (vm.Value, error)) error {
	for w.i < len(w.records) {
		r := w.records[w.i]
		w.i++
		if _, err := invoke(r.Entry, r.Event.Args); err != nil {
			return err
		}
	}
	return nil
}

// minimalContext satisfies syscall.Context with just enough behavior to
// run a program deterministically: stdout capture, and no-op window/audio/
// timer registration (those surfaces are what the recorded log already
// captured the effects of; replay doesn't need to re-arm them).
type minimalContext struct {
	stdout bytes.Buffer
}

func (c *minimalContext) Stdout() io.Writer         { return &c.stdout }
func (c *minimalContext) ReadInt64() (int64, error) { return 0, io.EOF }
func (c *minimalContext) NowMillis() uint64         { return 0 }
func (c *minimalContext) ScheduleTimer(uint64, uint64) error { return nil }
func (c *minimalContext) CreateWindow(w, h uint32, title string, flags uint64) (uint32, error) {
	return 1, nil
}
func (c *minimalContext) WindowPixelLen(wid uint32) (uint64, error) { return 0, nil }
func (c *minimalContext) OnKeydown(uint32, uint64) error            { return nil }
func (c *minimalContext) OnKeyup(uint32, uint64) error              { return nil }
func (c *minimalContext) OnMousemove(uint32, uint64) error          { return nil }
func (c *minimalContext) OnMousedown(uint32, uint64) error          { return nil }
func (c *minimalContext) OnMouseup(uint32, uint64) error            { return nil }
func (c *minimalContext) OnTextInput(uint32, uint64) error          { return nil }
func (c *minimalContext) DrawFrame(uint32, []byte) error            { return nil }
func (c *minimalContext) OpenAudioOutput(uint32, uint16, uint16, uint64) (uint32, error) {
	return 1, nil
}
func (c *minimalContext) SaveState(string) error { return nil }
func (c *minimalContext) LoadState(string) error { return nil }

var _ syscall.Context = (*minimalContext)(nil)

// Run re-executes prog from a fresh heap, replaying records in recorded
// order through the `wait` opcode instead of a live scheduler.
func Run(prog *progimage.Program, perms syscall.PermissionSet, records []eventlog.Record) (*Result, error) {
	ctx := &minimalContext{}
	registry := syscall.NewRegistry(ctx, perms)
	waiter := &replayWaiter{records: records}
	interp := prog.NewInterpreter(registry, waiter)

	if err := interp.Run(); err != nil {
		return nil, err
	}

	return &Result{
		Stdout: append([]byte(nil), ctx.stdout.Bytes()...),
		Heap:   append([]byte(nil), interp.Heap().Bytes()...),
	}, nil
}
