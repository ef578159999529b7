// Package scheduler implements the cooperative, single-threaded event
// loop: host-originated input, timer, and audio-fill events are buffered
// on a mutex-guarded queue and delivered into bytecode callbacks only
// when the interpreter executes `wait`.
package scheduler

import "github.com/haloforge/kioskvm/pkg/vm"

// EventClass names the callback category an event is dispatched to.
type EventClass int

const (
	ClassKeydown EventClass = iota
	ClassKeyup
	ClassMousemove
	ClassMousedown
	ClassMouseup
	ClassTextInput
	ClassTimer
	ClassAudioFill
)

// priority ranks event classes: input > timer > audio-fill. Events carry
// no timestamp; enqueue places a new event ahead of every pending event of
// a lower-ranked class, so the queue is ordered by class first and by
// arrival only within equal rank.
func (c EventClass) priority() int {
	switch c {
	case ClassTimer:
		return 1
	case ClassAudioFill:
		return 2
	default:
		return 0
	}
}

// Event is one buffered occurrence awaiting dispatch. Args are in the
// declared callback argument order, leftmost first. They are not pushed
// onto the operand stack: dispatch (vm.Interpreter.Invoke) copies them
// into the callback's locals, so Args[0] becomes local 0.
type Event struct {
	Class    EventClass
	WindowID uint32
	Args     []vm.Value
	Callback uint64 // set directly for one-shot timer events; 0 otherwise
}
