package kernel

import "github.com/sandocean-ovo/ovos/internal/port"

/*------------------------------------------------------------------
 *
 * Purpose:	Task creation and the scheduler's first/only entry
 *		point, OS_StartScheduler (spec §4.4, §6.2).
 *
 *------------------------------------------------------------------*/

// CreateTask initializes tcb to run entry(arg) on stack at priority
// prio (0 = highest, MaxPriorities-1 = lowest) and makes it READY.
// tcb's storage is owned by the caller for the task's lifetime; the
// kernel never frees it (Non-goals: no dynamic heap allocation).
func (k *Kernel) CreateTask(tcb *TCB, entry port.EntryFunc, arg any, stack port.Stack, stackDepthWords int, prio uint8) Status {
	if tcb == nil || entry == nil || len(stack) == 0 {
		return PARAM
	}
	if int(prio) >= MaxPriorities {
		return PARAM
	}
	if stackDepthWords <= 0 || stackDepthWords > len(stack) {
		return PARAM
	}

	sp, err := k.port.InitTaskStack(entry, arg, stack, stackDepthWords)
	if err != nil {
		return PARAM
	}

	stack[0] = StackMagic // overflow sentinel, painted at the low address

	*tcb = TCB{
		StackPtr:     sp,
		Stack:        stack,
		State:        StateReady,
		Priority:     prio,
		OriginalPrio: prio,
	}

	k.EnterCritical()
	k.readyAdd(tcb)
	k.ExitCritical()
	return OK
}

// StartScheduler programs the tick timer, performs the initial
// dispatch (pick the highest priority ready task), and hands control
// to the port's first-task dispatch. By contract this never returns.
func (k *Kernel) StartScheduler() {
	k.port.ProgramTick(k.tickHz, k.TickHandler)

	k.EnterCritical()
	k.current = k.findNext()
	k.running = true
	sp := k.current.StackPtr
	k.ExitCritical()
	k.port.StartFirst(sp)
}

// Running reports whether StartScheduler has been called — the same
// flag the tick handler's "kernel not yet running" guard reads
// (spec §4.5 step 1).
func (k *Kernel) Running() bool { return k.running }

// setCurrentForTest lets unit tests drive the scheduler without a real
// port-level context switch: it simply declares which TCB is "running"
// right now, the way a test harness stands in for the SWI handler.
func (k *Kernel) setCurrentForTest(t *TCB) { k.current = t; k.running = true }

// NextTCB returns the scheduler's most recent switch decision (may
// equal Current if no switch was requested). Exposed for tests that
// assert on find_next()'s choice without a real context switch.
func (k *Kernel) NextTCB() *TCB { return k.next }
