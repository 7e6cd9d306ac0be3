package kernel

import (
	"testing"

	"github.com/sandocean-ovo/ovos/internal/kernel/testport"
	"github.com/sandocean-ovo/ovos/internal/klog"
	"github.com/sandocean-ovo/ovos/internal/port"
)

// newTestKernel wires a halt hook that fails the test instead of
// exiting the process, since the default Logger calls os.Exit(1) on a
// fatal assertion — exactly what a real target should do, but fatal
// for a test binary.
func newTestKernel(t *testing.T) (*Kernel, *testport.Port) {
	t.Helper()
	var p = testport.New()
	var lg = klog.New(klog.WithHaltHook(func() {
		t.Helper()
		t.Fatal("kernel: fatal assertion raised")
	}))
	var k = NewKernel(p, WithLogger(lg))
	return k, p
}

// noopEntry is never actually invoked by these tests — the fake port
// does not run goroutines — but CreateTask requires a non-nil entry.
func noopEntry(arg any) {}

func makeTask(t *testing.T, k *Kernel, name string, prio uint8) *TCB {
	t.Helper()
	var tcb TCB
	var stack = make(port.Stack, 16)
	var st = k.CreateTask(&tcb, noopEntry, nil, stack, len(stack), prio)
	if st != OK {
		t.Fatalf("CreateTask(%s): %v", name, st)
	}
	tcb.Name = name
	return &tcb
}

func assertReady(t *testing.T, k *Kernel, tcb *TCB) {
	t.Helper()
	if tcb.State != StateReady {
		t.Fatalf("%s: expected READY, got %v", tcb.Name, tcb.State)
	}
	if k.bitmap&(1<<tcb.Priority) == 0 {
		t.Fatalf("%s: priority %d bit not set in bitmap", tcb.Name, tcb.Priority)
	}
}
