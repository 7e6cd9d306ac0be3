// Command ovos-sim is a host demonstration harness: it wires the
// kernel core to the goroutine-backed simport.Port and drives the
// concrete scenarios from the specification's worked examples against
// real (if simulated) concurrent dispatch, rather than the direct
// method-call driving the kernel package's own tests use.
//
// This is the simulator analog of the teacher's own direwolf command:
// same pflag-driven CLI shape (see internal/config), same
// text-to-stderr logging discipline, much narrower scope.
package main

import (
	"context"
	"fmt"
	"os"
	"sync/atomic"
	"time"

	"github.com/sandocean-ovo/ovos/internal/config"
	"github.com/sandocean-ovo/ovos/internal/kernel"
	"github.com/sandocean-ovo/ovos/internal/klog"
	"github.com/sandocean-ovo/ovos/internal/port"
	"github.com/sandocean-ovo/ovos/internal/simport"
)

// currentKernel lets the debug console report on whichever scenario's
// kernel is presently running, without threading a kernel reference
// through every scenario function's signature.
var currentKernel atomic.Pointer[kernel.Kernel]

func kernelStats() string {
	k := currentKernel.Load()
	if k == nil {
		return "no kernel running"
	}
	cur := k.Current()
	if cur == nil {
		return fmt.Sprintf("tick=%d current=<none>", k.TickCount())
	}
	return fmt.Sprintf("tick=%d current_priority=%d", k.TickCount(), cur.Priority)
}

func main() {
	cfg, err := config.Load(os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	log := klog.New(klog.WithLevel(klog.ParseLevel(cfg.LogLevel)))

	if console, err := simport.OpenConsole(log, kernelStats); err != nil {
		log.Error("debug console unavailable", "err", err)
	} else {
		go console.Serve()
		defer console.Close()
	}

	scenarios := []struct {
		name string
		run  func(*klog.Logger, int)
	}{
		{"preemption", runPreemptionScenario},
		{"delay", runDelayScenario},
	}

	if cfg.Scenario != "all" {
		for _, s := range scenarios {
			if s.name == cfg.Scenario {
				s.run(log, cfg.TickHz)
				return
			}
		}
		log.Fatal("unknown scenario", "name", cfg.Scenario)
		return
	}

	for _, s := range scenarios {
		log.Info("running scenario", "name", s.name)
		s.run(log, cfg.TickHz)
	}
}

// runPreemptionScenario reproduces the specification's concrete
// scenario 1 over a real goroutine-backed kernel: a low-priority task
// B posts a semaphore a high-priority task A is blocked on, and B's
// own remaining work must not run to completion first.
func runPreemptionScenario(log *klog.Logger, tickHz int) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	p := simport.New(ctx, log)
	k := kernel.NewKernel(p, kernel.WithLogger(log), kernel.WithTickHz(tickHz))
	p.SetKernel(k)
	currentKernel.Store(k)

	var sem kernel.Semaphore
	k.SemInit(&sem, 0)

	events := make(chan string, 8)

	var aTCB, bTCB kernel.TCB
	aStack := make(port.Stack, 64)
	bStack := make(port.Stack, 64)

	k.CreateTask(&aTCB, func(any) {
		sem.SemWait(&aTCB)
		events <- "A-wake"
		// Yield the hart back so B can finish its own post-processing,
		// the same way a real task goes back to sleep after handling
		// the event it was woken for.
		k.Delay(&aTCB, 1<<30)
		<-ctx.Done()
	}, nil, aStack, len(aStack), 5)

	k.CreateTask(&bTCB, func(any) {
		events <- "B-pre-post"
		sem.SemPost()
		events <- "B-post-post"
		<-ctx.Done()
	}, nil, bStack, len(bStack), 10)

	createIdleTask(k, ctx)

	go k.StartScheduler()

	var order []string
	for i := 0; i < 3; i++ {
		select {
		case e := <-events:
			order = append(order, e)
		case <-ctx.Done():
			log.Error("preemption scenario timed out", "observed", order)
			return
		}
	}
	log.Info("priority preemption observed order", "order", order)
}

// createIdleTask satisfies the kernel's idle-task invariant (there is
// always a ready task at the lowest priority): it never calls back
// into the kernel at all, so it stays READY for as long as the
// scenario runs and is only ever dispatched when every other task has
// blocked.
func createIdleTask(k *kernel.Kernel, ctx context.Context) {
	var idleTCB kernel.TCB
	idleStack := make(port.Stack, 64)
	k.CreateTask(&idleTCB, func(any) {
		<-ctx.Done()
	}, nil, idleStack, len(idleStack), kernel.MaxPriorities-1)
}

// runDelayScenario reproduces the specification's concrete scenario 4:
// three tasks request delays of 30, 10, and 50 ticks in that order,
// and must wake in ascending absolute-tick order regardless of request
// order, driven by the real tick source this time rather than manual
// TickHandler calls.
func runDelayScenario(log *klog.Logger, tickHz int) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	p := simport.New(ctx, log)
	k := kernel.NewKernel(p, kernel.WithLogger(log), kernel.WithTickHz(tickHz))
	p.SetKernel(k)
	currentKernel.Store(k)

	events := make(chan string, 8)
	delays := []struct {
		name  string
		ticks uint32
	}{
		{"T30", 30}, {"T10", 10}, {"T50", 50},
	}

	tcbs := make([]kernel.TCB, len(delays))
	for i, d := range delays {
		i, d := i, d
		stack := make(port.Stack, 64)
		k.CreateTask(&tcbs[i], func(any) {
			k.Delay(&tcbs[i], d.ticks)
			events <- d.name
			<-ctx.Done()
		}, nil, stack, len(stack), 5)
	}

	createIdleTask(k, ctx)

	go k.StartScheduler()

	var order []string
	for range delays {
		select {
		case e := <-events:
			order = append(order, e)
		case <-ctx.Done():
			log.Error("delay scenario timed out", "observed", order)
			return
		}
	}
	log.Info("delay wake order", "order", order)
}
