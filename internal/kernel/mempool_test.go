package kernel

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPool_InitRejectsBadParams(t *testing.T) {
	var k, _ = newTestKernel(t)
	var p Pool
	assert.Equal(t, PARAM, k.PoolInit(&p, make([]byte, 32), 2, 3))  // unaligned
	assert.Equal(t, PARAM, k.PoolInit(&p, make([]byte, 32), 2, 2))  // < wordSize
	assert.Equal(t, PARAM, k.PoolInit(&p, make([]byte, 8), 2, 8))   // arena too small
	assert.Equal(t, PARAM, k.PoolInit(&p, make([]byte, 32), 0, 16)) // zero blocks
}

func TestPool_GetAndPutRoundTrip(t *testing.T) {
	var k, _ = newTestKernel(t)
	makeTask(t, k, "idle", 31)
	var tk = makeTask(t, k, "tk", 5)

	var p Pool
	var base = make([]byte, 2*16)
	require.Equal(t, OK, k.PoolInit(&p, base, 2, 16))
	assert.Equal(t, 2, p.FreeBlocks())

	k.setCurrentForTest(tk)
	var b1 = p.Get(tk)
	assert.Equal(t, 1, p.FreeBlocks())
	var b2 = p.Get(tk)
	assert.Equal(t, 0, p.FreeBlocks())
	assert.NotEqual(t, &b1[0], &b2[0])

	require.Equal(t, OK, p.Put(b1))
	assert.Equal(t, 1, p.FreeBlocks())
}

func TestPool_PutRejectsForeignAndMisalignedAddresses(t *testing.T) {
	var k, _ = newTestKernel(t)
	var p Pool
	var base = make([]byte, 2*16)
	require.Equal(t, OK, k.PoolInit(&p, base, 2, 16))

	var foreign = make([]byte, 16)
	assert.Equal(t, INVALID_ADDR, p.Put(foreign))
	assert.Equal(t, NOT_ALIGN, p.Put(base[1:17]))
}

// Concrete scenario 6 (spec §8): a pool of two 16-byte blocks. P1 gets
// b1, P2 gets b2, P3 blocks on Get (pool exhausted). P1 puts b1 back;
// P3 wakes and receives it. Final state: free_blocks=0, free list
// empty, wait list empty.
func TestScenario_PoolWakesBlockedGetter(t *testing.T) {
	var k, _ = newTestKernel(t)
	makeTask(t, k, "idle", 31)
	var p1 = makeTask(t, k, "P1", 5)
	var p2 = makeTask(t, k, "P2", 6)
	var p3 = makeTask(t, k, "P3", 7)

	var pool Pool
	var base = make([]byte, 2*16)
	require.Equal(t, OK, k.PoolInit(&pool, base, 2, 16))

	k.setCurrentForTest(p1)
	var b1 = pool.Get(p1)
	k.setCurrentForTest(p2)
	pool.Get(p2)
	require.Equal(t, 0, pool.FreeBlocks())

	// P3 finds the pool exhausted; drive it into Get's blocked state by
	// hand, mirroring the first iteration of its wait loop.
	k.setCurrentForTest(p3)
	p3.State = StateBlocked
	k.readyRemove(p3)
	pool.wait.pushBack(p3)

	k.setCurrentForTest(p1)
	require.Equal(t, OK, pool.Put(b1))

	assert.Equal(t, StateReady, p3.State)
	assert.True(t, pool.wait.empty())
	// b1's block was handed straight back onto the free list and then
	// immediately claimed again once P3 resumes into the loop.
	assert.Equal(t, 1, pool.FreeBlocks())

	k.setCurrentForTest(p3)
	var b3 = pool.Get(p3)
	assert.Equal(t, &b1[0], &b3[0])

	assert.Equal(t, 0, pool.FreeBlocks())
	assert.Equal(t, -1, pool.freeHead)
	assert.True(t, pool.wait.empty())
}
