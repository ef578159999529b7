// Package executor wires a loaded program image, its interpreter, the
// syscall registry, and the event scheduler into one runnable unit. Host
// implements syscall.Context directly: the one place that owns every
// host-side resource a running program can touch (windows, audio streams,
// stdio, the clock, snapshots).
package executor

import (
	"bufio"
	"fmt"
	"io"
	"sync"
	"time"

	progimage "github.com/haloforge/kioskvm/pkg/image"
	"github.com/haloforge/kioskvm/pkg/scheduler"
	"github.com/haloforge/kioskvm/pkg/snapshot"
	"github.com/haloforge/kioskvm/pkg/syscall"
	"github.com/haloforge/kioskvm/pkg/vm"
)

// windowState tracks a created window's dimensions, used to compute the
// pixel buffer length window_draw_frame expects (w*h*4, BGRA8).
type windowState struct {
	Width, Height uint32
	Title         string
	Flags         uint64
}

// audioState tracks an opened audio output stream's format.
type audioState struct {
	Rate     uint32
	Channels uint16
	Format   uint16
}

// Config configures a Host.
type Config struct {
	Stdout      io.Writer
	Stdin       io.Reader
	Permissions syscall.PermissionSet
}

// Host runs one loaded program to completion (or until it blocks forever
// in wait on an empty scheduler that is never shut down). It implements
// syscall.Context so the registry can reach back into window/audio/timer
// state without depending on this package.
type Host struct {
	prog  *progimage.Program
	interp *vm.Interpreter
	sched *scheduler.Scheduler

	stdout io.Writer
	stdin  *bufio.Reader
	start  time.Time

	mu           sync.Mutex
	windows      map[uint32]windowState
	nextWindowID uint32
	audios       map[uint32]audioState
	nextAudioID  uint32
}

// New loads prog into a fresh interpreter and wires up the scheduler and
// syscall registry. cfg.Stdout/Stdin default to nothing written/EOF if nil.
func New(prog *progimage.Program, cfg Config) *Host {
	h := &Host{
		prog:    prog,
		stdout:  cfg.Stdout,
		start:   time.Time{},
		windows: make(map[uint32]windowState),
		audios:  make(map[uint32]audioState),
	}
	if cfg.Stdin != nil {
		h.stdin = bufio.NewReader(cfg.Stdin)
	}

	h.sched = scheduler.New(prog.ResolveCallback)
	registry := syscall.NewRegistry(h, cfg.Permissions)
	h.interp = prog.NewInterpreter(registry, h.sched)
	h.start = time.Now()
	return h
}

// Run executes the program to completion (an `exit`/`ret`-out-of-entry
// halt, or a fatal fault).
func (h *Host) Run() error {
	return h.interp.Run()
}

// Status is introspection for tooling (cmd/kioskvm's -status flag):
// program counter, operand stack depth, and current heap size.
type Status struct {
	PC         int
	StackDepth int
	HeapSize   uint64
}

// Status reports the interpreter's current runtime state.
func (h *Host) Status() Status {
	return Status{
		PC:         h.interp.PC(),
		StackDepth: h.interp.StackDepth(),
		HeapSize:   h.interp.Heap().Size(),
	}
}

// Scheduler exposes the event loop so callers can inject synthetic input
// through its Inject* methods (window/audio bindings to a real OS surface
// live outside this package). cmd/kioskvm uses it only to call Shutdown.
func (h *Host) Scheduler() *scheduler.Scheduler { return h.sched }

// Interpreter exposes the underlying interpreter for tests that need
// direct heap/stack introspection beyond Status.
func (h *Host) Interpreter() *vm.Interpreter { return h.interp }

// --- syscall.Context implementation ---

func (h *Host) Stdout() io.Writer {
	if h.stdout == nil {
		return io.Discard
	}
	return h.stdout
}

func (h *Host) ReadInt64() (int64, error) {
	if h.stdin == nil {
		return 0, io.EOF
	}
	line, err := h.stdin.ReadString('\n')
	if err != nil && line == "" {
		return 0, err
	}
	var v int64
	if _, scanErr := fmt.Sscanf(line, "%d", &v); scanErr != nil {
		return 0, fmt.Errorf("read_i64: %w", scanErr)
	}
	return v, nil
}

func (h *Host) NowMillis() uint64 {
	return uint64(time.Since(h.start).Milliseconds())
}

func (h *Host) ScheduleTimer(delayMs, cb uint64) error {
	return h.sched.ScheduleTimer(delayMs, cb)
}

func (h *Host) CreateWindow(w, height uint32, title string, flags uint64) (uint32, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.nextWindowID++
	id := h.nextWindowID
	h.windows[id] = windowState{Width: w, Height: height, Title: title, Flags: flags}
	return id, nil
}

func (h *Host) WindowPixelLen(wid uint32) (uint64, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	w, ok := h.windows[wid]
	if !ok {
		return 0, fmt.Errorf("window %d does not exist", wid)
	}
	return uint64(w.Width) * uint64(w.Height) * 4, nil
}

func (h *Host) OnKeydown(wid uint32, cb uint64) error    { return h.sched.OnKeydown(wid, cb) }
func (h *Host) OnKeyup(wid uint32, cb uint64) error      { return h.sched.OnKeyup(wid, cb) }
func (h *Host) OnMousemove(wid uint32, cb uint64) error  { return h.sched.OnMousemove(wid, cb) }
func (h *Host) OnMousedown(wid uint32, cb uint64) error  { return h.sched.OnMousedown(wid, cb) }
func (h *Host) OnMouseup(wid uint32, cb uint64) error    { return h.sched.OnMouseup(wid, cb) }
func (h *Host) OnTextInput(wid uint32, cb uint64) error  { return h.sched.OnTextInput(wid, cb) }

// DrawFrame is a no-op sink for the pixel buffer: the real OS window
// binding that would blit it to screen is an external collaborator this
// package doesn't own. It still validates the window exists so garbage
// window ids surface as errors rather than being silently eaten.
func (h *Host) DrawFrame(wid uint32, pixels []byte) error {
	h.mu.Lock()
	_, ok := h.windows[wid]
	h.mu.Unlock()
	if !ok {
		return fmt.Errorf("window %d does not exist", wid)
	}
	return nil
}

func (h *Host) OpenAudioOutput(rate uint32, channels, format uint16, cb uint64) (uint32, error) {
	h.mu.Lock()
	h.nextAudioID++
	id := h.nextAudioID
	h.audios[id] = audioState{Rate: rate, Channels: channels, Format: format}
	h.mu.Unlock()
	return id, h.sched.RegisterAudioFill(id, cb)
}

func (h *Host) SaveState(path string) error {
	return snapshot.Save(path, h.interp.Snapshot())
}

func (h *Host) LoadState(path string) error {
	s, err := snapshot.Load(path)
	if err != nil {
		return err
	}
	return h.interp.Restore(s)
}

var _ syscall.Context = (*Host)(nil)
