package kernel

/*------------------------------------------------------------------
 *
 * Purpose:	Generic intrusive doubly-linked list over *TCB, used for
 *		every ready queue, the delay list, and every wait set.
 *
 * Description:	O(1) insert-at-tail, remove given a node reference, and
 *		pop-head. Not thread-safe on its own — every caller holds
 *		the kernel's critical section first (spec §4.1).
 *
 *------------------------------------------------------------------*/

type tcbList struct {
	head, tail *TCB
	length     int
}

func (l *tcbList) init() {
	l.head, l.tail, l.length = nil, nil, 0
}

func (l *tcbList) empty() bool {
	return l.head == nil
}

// pushBack appends t at the tail. Panics if t is already on a list —
// that would violate the one-list-at-a-time invariant and is always a
// kernel bug, not a caller error.
func (l *tcbList) pushBack(t *TCB) {
	if t.inList() {
		panic("kernel: tcb already linked into a list")
	}
	t.prev, t.next = l.tail, nil
	if l.tail != nil {
		l.tail.next = t
	} else {
		l.head = t
	}
	l.tail = t
	t.owner = l
	l.length++
}

// remove unlinks t from l. t must currently belong to l.
func (l *tcbList) remove(t *TCB) {
	if t.owner != l {
		panic("kernel: remove from a list that does not own this tcb")
	}
	if t.prev != nil {
		t.prev.next = t.next
	} else {
		l.head = t.next
	}
	if t.next != nil {
		t.next.prev = t.prev
	} else {
		l.tail = t.prev
	}
	t.prev, t.next, t.owner = nil, nil, nil
	l.length--
}

// popFront removes and returns the head of l, or nil if l is empty.
func (l *tcbList) popFront() *TCB {
	h := l.head
	if h == nil {
		return nil
	}
	l.remove(h)
	return h
}

// insertBefore links t directly ahead of mark. If mark is nil, t is
// appended at the tail.
func (l *tcbList) insertBefore(t *TCB, mark *TCB) {
	if t.inList() {
		panic("kernel: tcb already linked into a list")
	}
	if mark == nil {
		l.pushBack(t)
		return
	}
	if mark.owner != l {
		panic("kernel: insertBefore mark not owned by this list")
	}
	t.prev = mark.prev
	t.next = mark
	if mark.prev != nil {
		mark.prev.next = t
	} else {
		l.head = t
	}
	mark.prev = t
	t.owner = l
	l.length++
}
