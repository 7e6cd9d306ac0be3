package kernel

/*------------------------------------------------------------------
 *
 * Purpose:	OS_Tick_Handler, driven by the port's periodic tick
 *		timer interrupt (spec §4.5).
 *
 * Description:	Steps, in order: bail out if not running yet; validate
 *		the running task's stack sentinel and bounds; advance the
 *		tick counter; wake every delay-list node whose cumulative
 *		delta reached zero this tick; round-robin the still-ready
 *		running task among its peers; request a switch if the
 *		scheduler's choice changed.
 *
 *		Reference implementation subtlety (spec §9): the original
 *		checks "DelayList.Head->DelayTicks == 0 && Head != NULL",
 *		dereferencing before the null check. TickHandler below
 *		null-checks first.
 *
 *------------------------------------------------------------------*/

// TickHandler must be called from the tick ISR at the configured
// frequency. It is a no-op until StartScheduler has run.
func (k *Kernel) TickHandler() {
	if !k.running {
		return
	}

	k.checkStackSentinel(k.current)

	k.tickCount++

	k.advanceDelayList()

	if k.current.State == StateReady {
		k.roundRobin(k.current)
	}

	k.requestSwitch()
}

// checkStackSentinel validates the overflow guard for t: the magic
// word painted at the stack's low address must be intact, and the
// current stack pointer must not have crossed below the stack base.
// Either violation is fatal (spec §5).
func (k *Kernel) checkStackSentinel(t *TCB) {
	if t == nil || len(t.Stack) == 0 {
		return
	}
	if t.Stack[0] != StackMagic {
		k.fatal("stack overflow: sentinel corrupted", "task", t.Name)
		return
	}
	if t.StackPtr < 0 {
		k.fatal("stack overflow: stack pointer below base", "task", t.Name)
	}
}

// advanceDelayList decrements the head's delta by one tick, then
// promotes every node whose delta has now reached zero to its
// priority's ready queue. Nodes with a zero delta after the head share
// the head's wake instant and must all move in the same tick (spec
// §4.5 step 4, §5 "Delay list wakeups... processed in delta order...
// all moved to ready before find_next()").
func (k *Kernel) advanceDelayList() {
	if k.delayList.head == nil {
		return
	}
	k.delayList.head.DelayTicks--

	for k.delayList.head != nil && k.delayList.head.DelayTicks == 0 {
		woken := k.delayList.popFront()
		woken.State = StateReady
		k.readyAdd(woken)
	}
}
