package kernel

/*------------------------------------------------------------------
 *
 * Purpose:	Recursive mutex with priority inheritance (spec §4.9).
 *
 * Description:	Holds a priority-ordered wait set (highest priority
 *		first, FIFO among equals) and boosts its owner's effective
 *		priority to the highest pending waiter's while held.
 *
 *		Reference implementation subtlety (spec §9): the naive
 *		design restores a releasing owner's priority from
 *		CurrentTCB->OriginalPrio, which is wrong once a task holds
 *		more than one mutex acquired under different inherited
 *		priorities. This implementation instead tracks every
 *		mutex a task currently holds (TCB.heldMutexes) and, on
 *		release, recomputes the owner's effective priority as the
 *		minimum (numerically — highest logical priority) of its
 *		original priority and the head-of-wait-set priority of
 *		every *other* mutex it still holds. That is exactly the
 *		invariant spec §8 requires to hold for every held mutex at
 *		once, not just the one being released.
 *
 *------------------------------------------------------------------*/

// maxNest bounds recursive MutexPend depth (spec §8: "nesting up to a
// safe bound (>= 255) works; at bound+1, returns NESTING").
const maxNest = 255

// Mutex is a recursive, priority-inheriting mutual exclusion lock.
type Mutex struct {
	k     *Kernel
	owner *TCB
	nest  uint32
	wait  tcbList
}

// MutexInit attaches mtx to k, unowned.
func (k *Kernel) MutexInit(mtx *Mutex) Status {
	if mtx == nil {
		return PARAM
	}
	mtx.k = k
	mtx.owner = nil
	mtx.nest = 0
	mtx.wait.init()
	return OK
}

// MutexPend acquires mtx for current, blocking if it is already held
// by a different task. Recursive: the owner's nesting depth may reach
// maxNest; a pend at that depth returns NESTING rather than wrapping
// the counter.
func (mtx *Mutex) MutexPend(current *TCB) Status {
	k := mtx.k
	k.EnterCritical()
	defer k.ExitCritical()

	if mtx.owner == nil {
		mtx.claim(current)
		return OK
	}
	if mtx.owner == current {
		if mtx.nest >= maxNest {
			return NESTING
		}
		mtx.nest++
		return OK
	}

	if current.Priority < mtx.owner.Priority {
		k.boostPriority(mtx.owner, current.Priority)
	}

	current.State = StateBlocked
	k.readyRemove(current)
	insertByPriority(&mtx.wait, current)
	k.requestSwitch()
	return OK
}

// MutexPost releases one level of recursion on mtx. Returns NOT_OWNER
// if called by a task that does not hold it. Every path returns a
// Status explicitly (spec §9 subtlety: the reference implementation
// has a path with no explicit return).
func (mtx *Mutex) MutexPost(current *TCB) Status {
	k := mtx.k
	k.EnterCritical()
	defer k.ExitCritical()

	if mtx.owner != current {
		return NOT_OWNER
	}

	mtx.nest--
	if mtx.nest > 0 {
		return OK
	}

	mtx.release(current)

	if mtx.wait.empty() {
		mtx.owner = nil
		return OK
	}

	waiter := mtx.wait.popFront()
	mtx.claim(waiter)
	waiter.State = StateReady
	k.readyAdd(waiter)
	k.requestSwitch()
	return OK
}

// claim records t as mtx's new owner at nesting depth 1 and remembers
// that t now holds mtx, for priority restoration on release.
func (mtx *Mutex) claim(t *TCB) {
	mtx.owner = t
	mtx.nest = 1
	t.heldMutexes = append(t.heldMutexes, mutexSave{mutex: mtx})
}

// release forgets that owner holds mtx and restores owner's effective
// priority to the highest level still required by every mutex it
// continues to hold (or its original priority if none require more).
func (mtx *Mutex) release(owner *TCB) {
	k := mtx.k
	held := owner.heldMutexes
	for i, hm := range held {
		if hm.mutex == mtx {
			owner.heldMutexes = append(held[:i], held[i+1:]...)
			break
		}
	}

	target := owner.OriginalPrio
	for _, hm := range owner.heldMutexes {
		if !hm.mutex.wait.empty() && hm.mutex.wait.head.Priority < target {
			target = hm.mutex.wait.head.Priority
		}
	}

	if target != owner.Priority {
		k.boostPriority(owner, target)
	}
}

// boostPriority changes t's priority, keeping the ready queues and
// bitmap consistent if t is currently READY (spec §4.9: "If owner is
// currently READY, remove-and-reinsert into ready queues... else just
// update the field"). Despite the name, this is used for both raising
// (inheritance) and lowering (restoration) a task's priority.
func (k *Kernel) boostPriority(t *TCB, newPrio uint8) {
	if t.State == StateReady {
		k.readyRemove(t)
		t.Priority = newPrio
		k.readyAdd(t)
	} else {
		t.Priority = newPrio
	}
}

// insertByPriority links t into l ordered by priority: strictly higher
// priority (lower number) precedes; equal priority goes after any
// equal-priority incumbents (FIFO among equals).
func insertByPriority(l *tcbList, t *TCB) {
	mark := l.head
	for mark != nil && mark.Priority <= t.Priority {
		mark = mark.next
	}
	l.insertBefore(t, mark)
}
