// Package port describes the architecture port contract (spec §6.1).
//
// Only the contract is defined here — not its instruction-level
// realization. Each supported MCU (or, for this repository, each
// supported host simulation) supplies a Port. The kernel core never
// assumes anything about how a Port is implemented beyond what is
// written below.
package port

// EntryFunc is a task's entry point. It receives the argument given at
// task creation and must not return; the port arranges for the initial
// stack frame's return address to land on a "task return" trap that
// halts if the function does return.
type EntryFunc func(arg any)

// Stack is the caller-provided backing memory for one task's stack,
// addressed low-to-high by word index. Word 0 is the lowest address and
// is where the kernel paints its overflow sentinel.
type Stack []uint32

// Port is the capability boundary between the scheduler-agnostic
// kernel core and one concrete architecture (or simulated) backing.
type Port interface {
	// InitTaskStack builds an initial stack frame in stack such that,
	// were the context-restore sequence to run against the returned
	// stack pointer, it would enter entry with arg as its argument and
	// interrupts enabled. depthWords bounds how much of stack the frame
	// may use below len(stack); depthWords must be <= len(stack).
	InitTaskStack(entry EntryFunc, arg any, stack Stack, depthWords int) (sp int, err error)

	// TriggerSWI requests a context switch at the next interrupt
	// boundary where interrupts are enabled. Non-blocking; may be
	// called from task or ISR context. Edge-triggered: multiple calls
	// before the boundary collapse into one switch.
	TriggerSWI()

	// ProgramTick arranges for handler to be invoked at approximately
	// hz times per second, simulating the hardware tick timer. Called
	// exactly once, from StartScheduler.
	ProgramTick(hz int, handler func())

	// DisableIRQ and EnableIRQ gate global interrupts. They are called
	// only at critical-section nesting edges (0->1 and 1->0
	// respectively) — the kernel itself owns the nesting count.
	DisableIRQ()
	EnableIRQ()

	// TopPrio returns the lowest-numbered set bit in bitmap (bitmap
	// must be nonzero). Exposed through the port so a target with a
	// count-leading/trailing-zeros instruction can use it directly
	// instead of the portable 256-entry lookup table.
	TopPrio(bitmap uint32) int

	// StartFirst performs the first-task dispatch: load the stack
	// pointer sp and enter the context-restore return sequence. Called
	// exactly once, from StartScheduler, and by contract never returns.
	StartFirst(sp int)
}
