package kernel

import (
	"testing"

	"github.com/sandocean-ovo/ovos/internal/kernel/testport"
	"github.com/sandocean-ovo/ovos/internal/klog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestCritical_NestingDisablesIRQOnlyOnOuterEntry(t *testing.T) {
	var k, p = newTestKernel(t)

	k.EnterCritical()
	assert.Equal(t, 1, k.CriticalNesting())
	assert.True(t, p.IRQDisabled)
	assert.Equal(t, 1, p.DisableCount)

	k.EnterCritical()
	k.EnterCritical()
	assert.Equal(t, 3, k.CriticalNesting())
	assert.Equal(t, 1, p.DisableCount) // inner entries are no-ops on the port

	k.ExitCritical()
	k.ExitCritical()
	assert.True(t, p.IRQDisabled) // still nested one deep

	k.ExitCritical()
	assert.Equal(t, 0, k.CriticalNesting())
	assert.False(t, p.IRQDisabled)
	assert.Equal(t, 1, p.EnableCount)
}

func TestCritical_UnbalancedExitIsFatal(t *testing.T) {
	var halted bool
	var lg = klog.New(klog.WithHaltHook(func() { halted = true }))
	var k = NewKernel(testport.New(), WithLogger(lg))

	k.ExitCritical()
	assert.True(t, halted)
}

// Property (spec §8): for any depth, that many enter calls followed by
// the same number of exit calls leave the nesting counter at zero and
// the port's IRQ state exactly as it started.
func TestCritical_BalancedNestingRoundTrip(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		var k, p = newTestKernel(t)
		var depth = rapid.IntRange(0, 20).Draw(rt, "depth")

		for i := 0; i < depth; i++ {
			k.EnterCritical()
		}
		require.Equal(t, depth, k.CriticalNesting())
		require.Equal(t, depth > 0, p.IRQDisabled)

		for i := 0; i < depth; i++ {
			k.ExitCritical()
		}
		assert.Equal(t, 0, k.CriticalNesting())
		assert.False(t, p.IRQDisabled)
	})
}
