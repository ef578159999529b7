package scheduler

import (
	"sync"
	"time"

	"github.com/haloforge/kioskvm/pkg/vm"
)

// Scheduler buffers host-originated events and dispatches them into
// bytecode callbacks, one at a time, only when invoked via Wait (the
// interpreter's `wait` opcode handler). The event queue is the sole
// cross-thread structure: timers fire on their own goroutine via
// time.AfterFunc and enqueue under the same mutex window/audio injection
// uses.
type Scheduler struct {
	mu     sync.Mutex
	cond   *sync.Cond
	queue  []Event
	closed bool

	keydown   map[uint32]uint64
	keyup     map[uint32]uint64
	mousemove map[uint32]uint64
	mousedown map[uint32]uint64
	mouseup   map[uint32]uint64
	textinput map[uint32]uint64
	audioFill map[uint32]uint64

	validate func(uint64) bool
}

// New creates a Scheduler. validate checks that a callback token is a
// known code offset in the loaded image; registration calls reject
// unknown offsets with vm.ErrBadLabel.
func New(validate func(uint64) bool) *Scheduler {
	s := &Scheduler{
		keydown:   make(map[uint32]uint64),
		keyup:     make(map[uint32]uint64),
		mousemove: make(map[uint32]uint64),
		mousedown: make(map[uint32]uint64),
		mouseup:   make(map[uint32]uint64),
		textinput: make(map[uint32]uint64),
		audioFill: make(map[uint32]uint64),
		validate:  validate,
	}
	s.cond = sync.NewCond(&s.mu)
	return s
}

func (s *Scheduler) checkCallback(cb uint64) error {
	if s.validate != nil && !s.validate(cb) {
		return vm.ErrBadLabel
	}
	return nil
}

func (s *Scheduler) OnKeydown(wid uint32, cb uint64) error {
	if err := s.checkCallback(cb); err != nil {
		return err
	}
	s.mu.Lock()
	s.keydown[wid] = cb
	s.mu.Unlock()
	return nil
}

func (s *Scheduler) OnKeyup(wid uint32, cb uint64) error {
	if err := s.checkCallback(cb); err != nil {
		return err
	}
	s.mu.Lock()
	s.keyup[wid] = cb
	s.mu.Unlock()
	return nil
}

func (s *Scheduler) OnMousemove(wid uint32, cb uint64) error {
	if err := s.checkCallback(cb); err != nil {
		return err
	}
	s.mu.Lock()
	s.mousemove[wid] = cb
	s.mu.Unlock()
	return nil
}

func (s *Scheduler) OnMousedown(wid uint32, cb uint64) error {
	if err := s.checkCallback(cb); err != nil {
		return err
	}
	s.mu.Lock()
	s.mousedown[wid] = cb
	s.mu.Unlock()
	return nil
}

func (s *Scheduler) OnMouseup(wid uint32, cb uint64) error {
	if err := s.checkCallback(cb); err != nil {
		return err
	}
	s.mu.Lock()
	s.mouseup[wid] = cb
	s.mu.Unlock()
	return nil
}

func (s *Scheduler) OnTextInput(wid uint32, cb uint64) error {
	if err := s.checkCallback(cb); err != nil {
		return err
	}
	s.mu.Lock()
	s.textinput[wid] = cb
	s.mu.Unlock()
	return nil
}

// RegisterAudioFill records the fill callback for an audio stream id
// (returned by audio_open_output).
func (s *Scheduler) RegisterAudioFill(streamID uint32, cb uint64) error {
	if err := s.checkCallback(cb); err != nil {
		return err
	}
	s.mu.Lock()
	s.audioFill[streamID] = cb
	s.mu.Unlock()
	return nil
}

// ScheduleTimer registers a one-shot callback to fire after delayMs,
// consumed on delivery. Pending timers are discarded on Shutdown rather
// than fired against a program that has already exited.
func (s *Scheduler) ScheduleTimer(delayMs uint64, cb uint64) error {
	if err := s.checkCallback(cb); err != nil {
		return err
	}
	time.AfterFunc(time.Duration(delayMs)*time.Millisecond, func() {
		s.enqueue(Event{Class: ClassTimer, Callback: cb})
	})
	return nil
}

// InjectKeydown/InjectKeyup/... simulate host-originated input arriving
// from an OS window binding this package doesn't own; these are the
// interface this scheduler exposes to whatever feeds it.
func (s *Scheduler) InjectKeydown(wid uint32, keycode uint16) {
	s.enqueue(Event{Class: ClassKeydown, WindowID: wid, Args: []vm.Value{uint64(wid), uint64(keycode)}})
}

func (s *Scheduler) InjectKeyup(wid uint32, keycode uint16) {
	s.enqueue(Event{Class: ClassKeyup, WindowID: wid, Args: []vm.Value{uint64(wid), uint64(keycode)}})
}

func (s *Scheduler) InjectMousemove(wid uint32, x, y int32) {
	s.enqueue(Event{Class: ClassMousemove, WindowID: wid, Args: []vm.Value{uint64(wid), uint64(uint32(x)), uint64(uint32(y))}})
}

func (s *Scheduler) InjectMousedown(wid uint32, x, y int32, button uint8) {
	s.enqueue(Event{Class: ClassMousedown, WindowID: wid, Args: []vm.Value{uint64(wid), uint64(uint32(x)), uint64(uint32(y)), uint64(button)}})
}

func (s *Scheduler) InjectMouseup(wid uint32, x, y int32, button uint8) {
	s.enqueue(Event{Class: ClassMouseup, WindowID: wid, Args: []vm.Value{uint64(wid), uint64(uint32(x)), uint64(uint32(y)), uint64(button)}})
}

func (s *Scheduler) InjectTextInput(wid uint32, b byte) {
	s.enqueue(Event{Class: ClassTextInput, WindowID: wid, Args: []vm.Value{uint64(wid), uint64(b)}})
}

func (s *Scheduler) InjectAudioFill(streamID uint32, outPtr uint64, numSamples uint64) {
	s.enqueue(Event{Class: ClassAudioFill, WindowID: streamID, Args: []vm.Value{outPtr, numSamples}})
}

func (s *Scheduler) enqueue(ev Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	i := 0
	for ; i < len(s.queue); i++ {
		if s.queue[i].Class.priority() > ev.Class.priority() {
			break
		}
	}
	s.queue = append(s.queue, Event{})
	copy(s.queue[i+1:], s.queue[i:])
	s.queue[i] = ev
	s.cond.Signal()
}

func (s *Scheduler) resolveCallback(ev Event) (uint64, bool) {
	switch ev.Class {
	case ClassTimer:
		return ev.Callback, ev.Callback != 0
	case ClassKeydown:
		cb, ok := s.keydown[ev.WindowID]
		return cb, ok
	case ClassKeyup:
		cb, ok := s.keyup[ev.WindowID]
		return cb, ok
	case ClassMousemove:
		cb, ok := s.mousemove[ev.WindowID]
		return cb, ok
	case ClassMousedown:
		cb, ok := s.mousedown[ev.WindowID]
		return cb, ok
	case ClassMouseup:
		cb, ok := s.mouseup[ev.WindowID]
		return cb, ok
	case ClassTextInput:
		cb, ok := s.textinput[ev.WindowID]
		return cb, ok
	case ClassAudioFill:
		cb, ok := s.audioFill[ev.WindowID]
		return cb, ok
	default:
		return 0, false
	}
}

// Wait implements vm.Waiter: block until at least one event is pending,
// then dispatch events (including ones that arrive mid-dispatch) until
// none remain.
func (s *Scheduler) Wait(invoke func(entry uint64, args []vm.Value) (vm.Value, error)) error {
	s.mu.Lock()
	for len(s.queue) == 0 && !s.closed {
		s.cond.Wait()
	}
	for len(s.queue) > 0 {
		ev := s.queue[0]
		s.queue = s.queue[1:]
		cb, ok := s.resolveCallback(ev)
		s.mu.Unlock()
		if ok {
			if _, err := invoke(cb, ev.Args); err != nil {
				return err
			}
		}
		s.mu.Lock()
	}
	s.mu.Unlock()
	return nil
}

// Shutdown discards the pending queue, marks the scheduler closed so later
// events are dropped, and releases any blocked Wait call. cmd/kioskvm
// calls it when its context is cancelled.
func (s *Scheduler) Shutdown() {
	s.mu.Lock()
	s.queue = nil
	s.closed = true
	s.cond.Broadcast()
	s.mu.Unlock()
}
