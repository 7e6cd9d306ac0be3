package kernel

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSemaphore_WaitConsumesCount(t *testing.T) {
	var k, _ = newTestKernel(t)
	makeTask(t, k, "idle", 31)
	var a = makeTask(t, k, "a", 5)

	var sem Semaphore
	require.Equal(t, OK, k.SemInit(&sem, 2))

	k.setCurrentForTest(a)
	require.Equal(t, OK, sem.SemWait(a))
	assert.Equal(t, uint32(1), sem.count)
	assert.Equal(t, StateReady, a.State)
}

func TestSemaphore_WaitBlocksOnZeroCount(t *testing.T) {
	var k, _ = newTestKernel(t)
	makeTask(t, k, "idle", 31)
	var a = makeTask(t, k, "a", 5)

	var sem Semaphore
	require.Equal(t, OK, k.SemInit(&sem, 0))

	k.setCurrentForTest(a)
	require.Equal(t, OK, sem.SemWait(a))
	assert.Equal(t, StateBlocked, a.State)
	assert.Equal(t, &sem.wait, a.owner)
	assert.Equal(t, a, sem.wait.head)
}

// N posts followed by N same-priority waiters release in strict FIFO
// order (spec §8 round-trip property).
func TestSemaphore_FIFOWakeOrder(t *testing.T) {
	var k, _ = newTestKernel(t)
	makeTask(t, k, "idle", 31)
	var sem Semaphore
	require.Equal(t, OK, k.SemInit(&sem, 0))

	var tasks = []*TCB{
		makeTask(t, k, "t0", 5),
		makeTask(t, k, "t1", 5),
		makeTask(t, k, "t2", 5),
	}
	for _, tk := range tasks {
		k.setCurrentForTest(tk)
		require.Equal(t, OK, sem.SemWait(tk))
	}

	var released []string
	for i := 0; i < len(tasks); i++ {
		var head = sem.wait.head
		require.NotNil(t, head)
		require.Equal(t, OK, sem.SemPost())
		released = append(released, head.Name)
	}
	assert.Equal(t, []string{"t0", "t1", "t2"}, released)
}

func TestSemaphore_PostFromISRSetsHigherPrioWoken(t *testing.T) {
	var k, _ = newTestKernel(t)
	makeTask(t, k, "idle", 31)
	var lo = makeTask(t, k, "lo", 20)
	var hi = makeTask(t, k, "hi", 1)

	var sem Semaphore
	require.Equal(t, OK, k.SemInit(&sem, 0))

	k.setCurrentForTest(hi)
	require.Equal(t, OK, sem.SemWait(hi))
	k.setCurrentForTest(lo)

	var woken bool
	require.Equal(t, OK, sem.SemPostFromISR(&woken))
	assert.True(t, woken)
	assert.Equal(t, StateReady, hi.State)
}
