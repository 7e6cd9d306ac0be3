package kernel

/*------------------------------------------------------------------
 *
 * Purpose:	OS_Delay and the delta-encoded delay list insertion
 *		(spec §4.6).
 *
 * Description:	The delay list is a single FIFO keyed by relative
 *		delta; only the head's counter is ever decremented, by
 *		the tick handler. Insertion walks the list subtracting
 *		each node's delta from the remaining ticks until it finds
 *		where the new node belongs, then re-normalizes the
 *		successor's delta so the invariant "sum of deltas from
 *		head to node k == node k's time-to-wake" keeps holding.
 *
 *------------------------------------------------------------------*/

// Delay blocks the calling task for ticks timer ticks. ticks == 0 is
// defined (spec §9 Open Question): it performs exactly the tick
// handler's round-robin step — yield to any other ready task at the
// same priority — and returns immediately without ever leaving the
// READY state or touching the delay list.
func (k *Kernel) Delay(current *TCB, ticks uint32) {
	k.EnterCritical()
	defer k.ExitCritical()

	if ticks == 0 {
		k.roundRobin(current)
		k.requestSwitch()
		return
	}

	current.State = StateBlocked
	k.readyRemove(current)
	k.insertDelay(current, ticks)
	k.requestSwitch()
}

// insertDelay links t into the delay list so that the sum of deltas
// from the head to t equals ticks, renormalizing whichever node t
// lands in front of.
func (k *Kernel) insertDelay(t *TCB, ticks uint32) {
	if k.delayList.empty() {
		t.DelayTicks = ticks
		k.delayList.pushBack(t)
		return
	}

	remaining := ticks
	iter := k.delayList.head
	for iter != nil {
		if remaining < iter.DelayTicks {
			break
		}
		remaining -= iter.DelayTicks
		iter = iter.next
	}

	if iter == nil {
		// Walked off the tail: append with the leftover as delta.
		t.DelayTicks = remaining
		k.delayList.pushBack(t)
		return
	}

	// Insert before iter: t absorbs the leftover, iter's delta shrinks
	// by the same amount so the running sum is unchanged for iter and
	// everyone after it.
	t.DelayTicks = remaining
	iter.DelayTicks -= remaining
	k.delayList.insertBefore(t, iter)
}

// roundRobin rotates t to the tail of its own priority's ready queue
// if, and only if, that queue currently holds more than one task
// (spec §4.5 step 5). t must still be READY.
func (k *Kernel) roundRobin(t *TCB) {
	q := &k.readyQueues[t.Priority]
	if q.length > 1 {
		q.remove(t)
		q.pushBack(t)
	}
}
