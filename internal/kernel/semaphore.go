package kernel

/*------------------------------------------------------------------
 *
 * Purpose:	Counting semaphore with a FIFO wait set (spec §4.8).
 *
 *------------------------------------------------------------------*/

// Semaphore is a counting semaphore. SemInit must be called before
// use: it attaches the semaphore to a Kernel and sets its initial count.
type Semaphore struct {
	k     *Kernel
	count uint32
	wait  tcbList
}

// SemInit attaches sem to k and sets its initial count.
func (k *Kernel) SemInit(sem *Semaphore, count uint32) Status {
	if sem == nil {
		return PARAM
	}
	sem.k = k
	sem.count = count
	sem.wait.init()
	return OK
}

// SemWait blocks current until sem's count is nonzero, then consumes
// one unit. No timeout — the only time-bounded wait in this kernel is
// Delay.
func (sem *Semaphore) SemWait(current *TCB) Status {
	k := sem.k
	k.EnterCritical()
	defer k.ExitCritical()

	if sem.count > 0 {
		sem.count--
		return OK
	}

	current.State = StateBlocked
	k.readyRemove(current)
	sem.wait.pushBack(current)
	k.requestSwitch()
	return OK
}

// SemPost releases one unit: if a task is waiting, it is woken
// directly (the count is not incremented in that case — ownership of
// the unit passes straight to the waiter); otherwise the count goes up
// by one.
func (sem *Semaphore) SemPost() Status {
	k := sem.k
	k.EnterCritical()
	defer k.ExitCritical()

	if sem.wait.empty() {
		sem.count++
		return OK
	}

	woken := sem.wait.popFront()
	woken.State = StateReady
	k.readyAdd(woken)
	k.requestSwitch()
	return OK
}

// SemPostFromISR is SemPost's ISR-safe variant: it never recurses into
// the critical-section counter and never triggers a switch itself. See
// isr.go for the *FromISR convention.
func (sem *Semaphore) SemPostFromISR(higherPrioWoken *bool) Status {
	k := sem.k

	if sem.wait.empty() {
		sem.count++
		return OK
	}

	woken := sem.wait.popFront()
	woken.State = StateReady
	k.readyAdd(woken)
	if woken.Priority < k.currentPriorityOrIdle() {
		*higherPrioWoken = true
	}
	return OK
}

// currentPriorityOrIdle returns Current's priority, or the lowest
// possible priority if the scheduler has not started yet (so that any
// task above the lowest priority woken during early boot is reported
// as higher priority).
func (k *Kernel) currentPriorityOrIdle() uint8 {
	if k.current == nil {
		return MaxPriorities - 1
	}
	return k.current.Priority
}
