// Package kernel implements the scheduler core, timebase, and
// synchronization primitives of a small preemptive real-time
// executive (spec §2-§5). The core has zero dependency on any
// particular architecture: it talks to the outside world only through
// the port.Port capability boundary (internal/port).
package kernel

import (
	"github.com/sandocean-ovo/ovos/internal/klog"
	"github.com/sandocean-ovo/ovos/internal/port"
)

// Compile-time configuration (spec §6.3). These are fixed constants:
// MaxPriorities sizes the ready-queue array, and CreateTask and the
// tick handler use StackMagic directly. Option sets only the logger and
// the tick frequency.
const (
	MaxPriorities  = 32
	IdleStackWords = 128
	StackMagic     = 0xDEADBEEF
)

// Kernel is the process-wide scheduling state (spec §9: "Isolate them
// behind a single kernel singleton whose mutation is gated by
// enter_critical/exit_critical"). It is modeled as a struct rather
// than package-level globals so tests can run several independent
// kernels concurrently without shared state.
type Kernel struct {
	port port.Port
	log  *klog.Logger

	readyQueues [MaxPriorities]tcbList
	bitmap      uint32

	delayList tcbList

	current *TCB
	next    *TCB

	criticalNesting int
	running         bool

	tickCount uint32 // intentionally 32-bit; see spec §5 torn-read note

	idlePriority uint8
	tickHz       int
}

// Option configures a Kernel at construction.
type Option func(*Kernel)

// WithLogger overrides the default stderr logger.
func WithLogger(l *klog.Logger) Option {
	return func(k *Kernel) { k.log = l }
}

// WithTickHz overrides the tick timer frequency programmed by
// StartScheduler (spec §6.3). Default 1000 Hz (1ms tick).
func WithTickHz(hz int) Option {
	return func(k *Kernel) { k.tickHz = hz }
}

// NewKernel builds a Kernel bound to the given architecture port. The
// port must not be used by more than one Kernel at a time.
func NewKernel(p port.Port, opts ...Option) *Kernel {
	k := &Kernel{port: p, log: klog.New(), tickHz: 1000}
	for i := range k.readyQueues {
		k.readyQueues[i].init()
	}
	k.delayList.init()
	for _, opt := range opts {
		opt(k)
	}
	return k
}

// Log exposes the kernel's logger to other packages in this module
// (primitives, the simulation port) that want to use the same sink.
func (k *Kernel) Log() *klog.Logger { return k.log }

// Current returns the currently running task, or nil before
// StartScheduler has been called.
func (k *Kernel) Current() *TCB { return k.current }

// TickCount returns the number of tick interrupts processed so far.
func (k *Kernel) TickCount() uint32 { return k.tickCount }

// fatal logs msg as an assertion failure and halts. Used for
// conditions that should never happen given the invariants in spec
// §3 and §8: a corrupt list, a bitmap/ready-queue mismatch, a stack
// sentinel violation.
func (k *Kernel) fatal(msg string, kv ...any) {
	k.log.Fatal(msg, kv...)
}

// ---- ready queue manager (spec §4.3) --------------------------------
//
// readyAdd and readyRemove are the *only* paths that mutate k.bitmap.

func (k *Kernel) readyAdd(t *TCB) {
	t.State = StateReady
	k.bitmap |= 1 << t.Priority
	k.readyQueues[t.Priority].pushBack(t)
}

func (k *Kernel) readyRemove(t *TCB) {
	q := &k.readyQueues[t.Priority]
	q.remove(t)
	if q.empty() {
		k.bitmap &^= 1 << t.Priority
	}
}

// ---- scheduler core (spec §4.4) -------------------------------------

// findNext returns the head of the ready queue at the highest ready
// priority. Never nil: the idle task invariant (§5) guarantees the
// lowest priority is always ready once the kernel is running.
func (k *Kernel) findNext() *TCB {
	if k.bitmap == 0 {
		k.fatal("scheduler: ready bitmap empty — idle task invariant violated")
		return nil
	}
	top := k.topPrio()
	head := k.readyQueues[top].head
	if head == nil {
		k.fatal("scheduler: bitmap/ready-queue mismatch", "prio", top)
	}
	return head
}

// topPrio delegates to the port when available (a real target may have
// a hardware CTZ instruction) and otherwise to the portable table in
// bitmap.go.
func (k *Kernel) topPrio() int {
	if k.port != nil {
		return k.port.TopPrio(k.bitmap)
	}
	return topPrio(k.bitmap)
}

// requestSwitch asks the port for a context switch if the scheduler's
// choice differs from the currently running task. This is the single
// preemption point every blocking and waking primitive funnels through
// (spec §4.4).
//
// k.current is updated here, not by the port: the scheduling decision
// is final the instant it is made, since nothing else can run between
// here and the port eventually realizing it — the same guarantee a
// real target's critical section gives the assembly context-switch
// sequence that updates CurrentTCB.
func (k *Kernel) requestSwitch() {
	n := k.findNext()
	if n != k.current {
		k.next = n
		k.current = n
		k.port.TriggerSWI()
	}
}

// ---- critical section (spec §4.7) -----------------------------------

// EnterCritical disables global interrupts on first entry and
// increments the nesting counter on every entry. Must be exactly
// balanced by ExitCritical along every call path.
func (k *Kernel) EnterCritical() {
	if k.criticalNesting == 0 {
		k.port.DisableIRQ()
	}
	k.criticalNesting++
}

// ExitCritical decrements the nesting counter and re-enables global
// interrupts once it reaches zero.
func (k *Kernel) ExitCritical() {
	if k.criticalNesting == 0 {
		k.fatal("critical section: exit without matching enter")
		return
	}
	k.criticalNesting--
	if k.criticalNesting == 0 {
		k.port.EnableIRQ()
	}
}

// CriticalNesting reports the current nesting depth; exported for
// tests asserting the balanced round-trip property in spec §8.
func (k *Kernel) CriticalNesting() int { return k.criticalNesting }
