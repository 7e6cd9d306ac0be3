package kernel

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Concrete scenario 4 (spec §8): delay list delta correctness. Delays
// of 30, 10, 50 ms are scheduled in that call order; expected deltas
// head-to-tail are [10, 20, 20].
func TestScenario_DelayListDeltaCorrectness(t *testing.T) {
	var k, _ = newTestKernel(t)
	makeTask(t, k, "idle", 31)
	var t30 = makeTask(t, k, "T30", 5)
	var t10 = makeTask(t, k, "T10", 5)
	var t50 = makeTask(t, k, "T50", 5)

	k.setCurrentForTest(t30)
	k.Delay(t30, 30)
	k.setCurrentForTest(t10)
	k.Delay(t10, 10)
	k.setCurrentForTest(t50)
	k.Delay(t50, 50)

	require.Equal(t, 3, k.delayList.length)

	var node = k.delayList.head
	assert.Equal(t, t10, node)
	assert.Equal(t, uint32(10), node.DelayTicks)

	node = node.next
	assert.Equal(t, t30, node)
	assert.Equal(t, uint32(20), node.DelayTicks)

	node = node.next
	assert.Equal(t, t50, node)
	assert.Equal(t, uint32(20), node.DelayTicks)

	// Absolute wake ticks: sum of deltas from head to each node.
	assert.Equal(t, uint32(10), sumDeltasTo(k, t10))
	assert.Equal(t, uint32(30), sumDeltasTo(k, t30))
	assert.Equal(t, uint32(50), sumDeltasTo(k, t50))
}

func sumDeltasTo(k *Kernel, target *TCB) uint32 {
	var sum uint32
	for n := k.delayList.head; n != nil; n = n.next {
		sum += n.DelayTicks
		if n == target {
			return sum
		}
	}
	return sum
}

func TestTickHandler_WakesExpiredDelaysTogether(t *testing.T) {
	var k, _ = newTestKernel(t)
	makeTask(t, k, "idle", 31)
	var a = makeTask(t, k, "a", 5)
	var b = makeTask(t, k, "b", 6)

	k.setCurrentForTest(a)
	k.Delay(a, 3)
	k.setCurrentForTest(b)
	k.Delay(b, 3) // same absolute wake tick as a: delta after a should be 0

	require.Equal(t, uint32(3), k.delayList.head.DelayTicks)
	require.Equal(t, uint32(0), k.delayList.head.next.DelayTicks)

	var idleTCB = k.readyQueues[31].head
	k.setCurrentForTest(idleTCB)
	k.TickHandler()
	k.TickHandler()
	k.TickHandler()

	assert.Equal(t, StateReady, a.State)
	assert.Equal(t, StateReady, b.State)
	assert.True(t, k.delayList.empty())
	assert.Equal(t, uint32(3), k.TickCount())
}

func TestDelay_ZeroTicksRoundRobinsAndReturnsImmediately(t *testing.T) {
	var k, _ = newTestKernel(t)
	makeTask(t, k, "idle", 31)
	var x = makeTask(t, k, "x", 7)
	var y = makeTask(t, k, "y", 7)

	k.setCurrentForTest(x)
	k.Delay(x, 0)

	assert.Equal(t, StateReady, x.State)
	assert.True(t, x.inList())
	// x had company at its priority, so it rotated to the tail behind y.
	assert.Equal(t, y, k.readyQueues[7].head)
	assert.Equal(t, x, k.readyQueues[7].tail)
	assert.True(t, k.delayList.empty())
}

func TestDelay_ZeroTicksAloneAtPriorityStaysPut(t *testing.T) {
	var k, _ = newTestKernel(t)
	makeTask(t, k, "idle", 31)
	var x = makeTask(t, k, "x", 7)

	k.setCurrentForTest(x)
	k.Delay(x, 0)

	assert.Equal(t, x, k.readyQueues[7].head)
	assert.Equal(t, x, k.readyQueues[7].tail)
}
