// Package testport is a minimal port.Port fake used by the kernel
// package's own unit and property tests. It does no actual stack-frame
// or register manipulation — InitTaskStack simply returns an
// incrementing counter as the stack pointer, and TriggerSWI/StartFirst
// just count calls — because
// the kernel core's tests drive scheduling decisions directly (calling
// Delay, SemWait, MutexPend, ...) rather than through a real executing
// task. See internal/simport for a port that actually runs tasks.
package testport

import "github.com/sandocean-ovo/ovos/internal/port"

// Port is a fake architecture port recording what the kernel asked of
// it, for assertions in tests.
type Port struct {
	SWIRequests   int
	FirstDispatch int
	IRQDisabled   bool
	DisableCount  int
	EnableCount   int

	nextSP int
}

// New returns a ready-to-use fake port.
func New() *Port { return &Port{} }

func (p *Port) InitTaskStack(entry port.EntryFunc, arg any, stack port.Stack, depthWords int) (int, error) {
	p.nextSP++
	return p.nextSP, nil
}

func (p *Port) TriggerSWI() { p.SWIRequests++ }

func (p *Port) ProgramTick(hz int, handler func()) {}

func (p *Port) DisableIRQ() {
	p.IRQDisabled = true
	p.DisableCount++
}

func (p *Port) EnableIRQ() {
	p.IRQDisabled = false
	p.EnableCount++
}

func (p *Port) TopPrio(bitmap uint32) int {
	for i := 0; i < 32; i++ {
		if bitmap&(1<<uint(i)) != 0 {
			return i
		}
	}
	panic("testport: TopPrio called with empty bitmap")
}

func (p *Port) StartFirst(sp int) { p.FirstDispatch++ }
