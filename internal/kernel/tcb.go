package kernel

import "github.com/sandocean-ovo/ovos/internal/port"

// State is the life-cycle state of a task.
type State int

const (
	// StateReady means the task is linked into its priority's ready queue.
	StateReady State = iota
	// StateBlocked means the task is linked into a delay list or a
	// primitive's wait set.
	StateBlocked
	// StateDeleted is terminal; deleted TCBs are never reclaimed (no
	// dynamic heap allocation — see spec Non-goals).
	StateDeleted
)

func (s State) String() string {
	switch s {
	case StateReady:
		return "READY"
	case StateBlocked:
		return "BLOCKED"
	case StateDeleted:
		return "DELETED"
	default:
		return "UNKNOWN"
	}
}

// mutexSave records one mutex a task currently holds, so that
// releasing any one of several held mutexes can recompute the task's
// restored priority from the rest rather than relying solely on
// TCB.OriginalPrio (spec §9 subtlety).
type mutexSave struct {
	mutex *Mutex
}

// TCB is a Task Control Block. Its storage is owned by the caller of
// CreateTask; the kernel borrows it for the task's lifetime and never
// frees it. A TCB is an intrusive list node: at any moment it belongs
// to at most one list (a ready queue, the delay list, or a wait set).
type TCB struct {
	Name string // for logging only; not part of the scheduling contract

	// StackPtr is the stack pointer value returned by the port's
	// InitTaskStack; its meaning belongs to the port (simport returns
	// the task's slot index, testport a counter). The port is the only code that should move it during an actual
	// context switch; the kernel only reads it (tick-handler sentinel
	// check) and seeds it at creation time.
	StackPtr int
	Stack    port.Stack

	State State

	// DelayTicks is this node's delta while linked into the delay
	// list: the gap between the previous node's wakeup and this one's
	// (or, for the head, the gap from "now"). Meaningless off the
	// delay list.
	DelayTicks uint32

	Priority     uint8 // current (possibly inherited) priority, 0 = highest
	OriginalPrio uint8 // priority given at creation

	heldMutexes []mutexSave // mutexes currently held, most recently claimed last

	prev, next *TCB
	owner      *tcbList // list currently holding this node, nil if none
}

// inList reports whether t is currently linked into any list.
func (t *TCB) inList() bool {
	return t.owner != nil
}
