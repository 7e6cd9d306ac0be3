// Package simport is a host simulation realization of the architecture
// port contract (internal/port): every task is a goroutine, and the
// "single hart" invariant the kernel core relies on is enforced by a
// single mutex handed off between exactly one goroutine at a time,
// rather than by real hardware having only one instruction stream.
//
// Limitation, stated plainly rather than hidden: a tick (or any other
// simulated interrupt) can only be delivered at a point where the
// currently running task calls into the kernel core and its critical
// section nesting returns to zero (i.e. at an EnableIRQ call). A task
// that runs a long stretch of ordinary Go code without touching the
// kernel will not be time-sliced away by this simulation, unlike on
// real hardware where the tick timer is a true asynchronous interrupt.
// Every scenario this repository drives through simport yields often
// enough (Delay, semaphore, mutex, queue, and pool calls all do) that
// this never matters in practice here.
package simport

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sys/unix"

	"github.com/sandocean-ovo/ovos/internal/kernel"
	"github.com/sandocean-ovo/ovos/internal/klog"
	"github.com/sandocean-ovo/ovos/internal/port"
)

// slot is one task's simulated execution context.
type slot struct {
	entry  port.EntryFunc
	arg    any
	resume chan struct{} // buffered 1: signaled to (re)dispatch this task
}

// Port is a goroutine-backed port.Port. Construct with New, register
// tasks via the usual kernel.CreateTask calls (which invoke
// InitTaskStack below), call SetKernel once the Kernel exists, then
// StartScheduler.
type Port struct {
	log *klog.Logger
	k   *kernel.Kernel

	grp *errgroup.Group
	ctx context.Context

	hart sync.Mutex // held by whichever goroutine is "the running hart"

	mu          sync.Mutex
	slots       []*slot
	currentIdx  int
	irqDepth    int
	swiPending  bool
	tickHandler func()
	tickPending bool

	tickStop chan struct{}
	tickDone chan struct{}
}

// New builds a Port whose task goroutines are supervised by an
// errgroup.Group bound to ctx.
func New(ctx context.Context, log *klog.Logger) *Port {
	grp, gctx := errgroup.WithContext(ctx)
	return &Port{log: log, grp: grp, ctx: gctx, currentIdx: -1}
}

// SetKernel gives the port a back-reference to the Kernel it serves,
// so the dispatch logic can read NextTCB/Current directly the way a
// real target's assembly SWI handler reads the kernel's globals
// straight out of memory rather than through any port abstraction.
func (p *Port) SetKernel(k *kernel.Kernel) { p.k = k }

// Wait blocks until every task goroutine has exited — normally only
// once ctx is canceled — and returns the first error, if any.
func (p *Port) Wait() error { return p.grp.Wait() }

// InitTaskStack registers entry/arg as a new simulated task and
// returns its slot index as the opaque stack pointer handle.
func (p *Port) InitTaskStack(entry port.EntryFunc, arg any, stack port.Stack, depthWords int) (int, error) {
	if entry == nil {
		return 0, fmt.Errorf("simport: nil entry function")
	}
	if depthWords <= 0 || depthWords > len(stack) {
		return 0, fmt.Errorf("simport: depthWords %d out of range for a %d-word stack", depthWords, len(stack))
	}

	p.mu.Lock()
	s := &slot{entry: entry, arg: arg, resume: make(chan struct{}, 1)}
	p.slots = append(p.slots, s)
	sp := len(p.slots) - 1
	p.mu.Unlock()

	p.grp.Go(func() error {
		select {
		case <-s.resume:
		case <-p.ctx.Done():
			return nil
		}
		p.hart.Lock()
		defer p.hart.Unlock()
		s.entry(s.arg)
		return fmt.Errorf("simport: task entry function returned, which the port contract forbids")
	})

	return sp, nil
}

// TriggerSWI marks a context switch as pending. The dispatcher only
// acts on it once interrupts are next re-enabled (EnableIRQ), per the
// port contract.
func (p *Port) TriggerSWI() {
	p.mu.Lock()
	p.swiPending = true
	p.mu.Unlock()
}

// ProgramTick starts a Linux timerfd-driven tick source. The timer
// goroutine only ever sets a pending flag — actual delivery happens
// inside EnableIRQ, on whichever task goroutine is current, so that
// TickHandler never runs concurrently with task code (see the package
// doc's limitation note).
func (p *Port) ProgramTick(hz int, handler func()) {
	p.mu.Lock()
	p.tickHandler = handler
	p.mu.Unlock()

	p.tickStop = make(chan struct{})
	p.tickDone = make(chan struct{})

	fd, err := unix.TimerfdCreate(unix.CLOCK_MONOTONIC, 0)
	if err != nil {
		p.log.Fatal("simport: timerfd_create failed", "err", err)
		return
	}

	period := unix.NsecToTimespec(int64(1e9) / int64(hz))
	spec := &unix.ItimerSpec{Value: period, Interval: period}
	if err := unix.TimerfdSettime(fd, 0, spec, nil); err != nil {
		p.log.Fatal("simport: timerfd_settime failed", "err", err)
		return
	}

	go func() {
		defer close(p.tickDone)
		defer unix.Close(fd)
		buf := make([]byte, 8)
		for {
			select {
			case <-p.tickStop:
				return
			default:
			}
			if _, err := unix.Read(fd, buf); err != nil {
				if err == unix.EINTR {
					continue
				}
				return
			}
			p.mu.Lock()
			p.tickPending = true
			p.mu.Unlock()
		}
	}()
}

// StopTick halts the tick goroutine started by ProgramTick. Not part
// of the port.Port contract — a real MCU is never asked to stop
// ticking — but the simulator needs a clean way to end a scenario run.
func (p *Port) StopTick() {
	if p.tickStop == nil {
		return
	}
	close(p.tickStop)
	<-p.tickDone
}

// DisableIRQ increments the nesting depth; EnableIRQ decrements it and,
// on the 1->0 edge, delivers any pending tick and then any pending
// context switch, in that order — mirroring a real target where the
// tick ISR would itself have run (and possibly requested a switch)
// before the original critical section's matching interrupt-enable
// instruction retires.
func (p *Port) DisableIRQ() {
	p.mu.Lock()
	p.irqDepth++
	p.mu.Unlock()
}

func (p *Port) EnableIRQ() {
	p.mu.Lock()
	p.irqDepth--
	reenabled := p.irqDepth <= 0
	p.mu.Unlock()
	if !reenabled {
		return
	}

	p.deliverPendingTick()
	p.deliverPendingSwitch()
}

func (p *Port) deliverPendingTick() {
	p.mu.Lock()
	pending := p.tickPending
	p.tickPending = false
	handler := p.tickHandler
	p.mu.Unlock()
	if pending && handler != nil {
		handler()
	}
}

func (p *Port) deliverPendingSwitch() {
	p.mu.Lock()
	pending := p.swiPending
	p.swiPending = false
	p.mu.Unlock()
	if !pending || p.k == nil {
		return
	}
	next := p.k.NextTCB()
	if next == nil {
		return
	}
	p.switchTo(next.StackPtr)
}

// switchTo hands the hart to the task at slot next, parking the
// currently running goroutine until some future switch resumes it.
func (p *Port) switchTo(next int) {
	p.mu.Lock()
	from := p.currentIdx
	p.currentIdx = next
	p.mu.Unlock()

	if from == next {
		return
	}

	p.slots[next].resume <- struct{}{}
	p.hart.Unlock()
	<-p.slots[from].resume
	p.hart.Lock()
}

// TopPrio scans the bitmap directly; a real target would wire this to
// a CTZ instruction instead, which this host simulation has no analog
// for.
func (p *Port) TopPrio(bitmap uint32) int {
	for i := 0; i < 32; i++ {
		if bitmap&(1<<uint(i)) != 0 {
			return i
		}
	}
	panic("simport: TopPrio called with empty bitmap")
}

// StartFirst hands the hart to the task at slot sp for the first time
// and blocks until the simulation's context is canceled, per contract.
func (p *Port) StartFirst(sp int) {
	p.mu.Lock()
	p.currentIdx = sp
	p.mu.Unlock()
	p.slots[sp].resume <- struct{}{}
	<-p.ctx.Done()
}
