package kernel

import "unsafe"

/*------------------------------------------------------------------
 *
 * Purpose:	Fixed-block memory pool: O(1) alloc/free over a
 *		caller-provided arena, blocking on exhaustion (spec
 *		§4.11).
 *
 * Description:	The free list is threaded through the first machine
 *		word of each free block — no sidecar metadata. Requires
 *		blockSize >= 4 (a uint32) and base/blockSize alignment
 *		sufficient for a word store.
 *
 *------------------------------------------------------------------*/

const wordSize = int(unsafe.Sizeof(uint32(0)))

// Pool is a fixed-block allocator over a single caller-provided arena.
type Pool struct {
	k          *Kernel
	base       []byte
	blockSize  int
	totalBlks  int
	freeHead   int // byte offset into base of the first free block, or -1
	freeBlocks int
	wait       tcbList
}

// PoolInit threads a free list through base, dividing it into
// blockCount blocks of blockSize bytes each. base must be at least
// blockCount*blockSize bytes, and blockSize must be a nonzero multiple
// of wordSize (4 bytes) so every block can hold the 4-byte free-list link.
func (k *Kernel) PoolInit(p *Pool, base []byte, blockCount, blockSize int) Status {
	if p == nil || blockCount <= 0 || blockSize < wordSize || blockSize%wordSize != 0 {
		return PARAM
	}
	if len(base) < blockCount*blockSize {
		return PARAM
	}

	p.k = k
	p.base = base
	p.blockSize = blockSize
	p.totalBlks = blockCount
	p.freeBlocks = blockCount
	p.wait.init()

	for i := 0; i < blockCount; i++ {
		off := i * blockSize
		var next int32 = -1
		if i < blockCount-1 {
			next = int32(off + blockSize)
		}
		writeLink(base[off:], next)
	}
	p.freeHead = 0
	return OK
}

// FreeBlocks reports the number of blocks currently on the free list.
func (p *Pool) FreeBlocks() int { return p.freeBlocks }

// Get blocks current while the pool is exhausted, then returns a
// pointer to a free block (a byte slice of length blockSize, aliasing
// the pool's arena).
func (p *Pool) Get(current *TCB) []byte {
	k := p.k
	k.EnterCritical()

	for p.freeBlocks == 0 {
		current.State = StateBlocked
		k.readyRemove(current)
		p.wait.pushBack(current)
		k.requestSwitch()
		k.ExitCritical()
		k.EnterCritical()
	}

	off := p.freeHead
	p.freeHead = int(readLink(p.base[off:]))
	p.freeBlocks--

	k.ExitCritical()
	return p.base[off : off+p.blockSize]
}

// Put returns block to the free list. block must be a slice obtained
// from this pool's Get (or aliasing exactly one of its blocks).
// Returns INVALID_ADDR if block does not lie within the pool's arena,
// or NOT_ALIGN if it does not start on a block boundary.
func (p *Pool) Put(block []byte) Status {
	k := p.k
	k.EnterCritical()
	defer k.ExitCritical()

	off, status := p.offsetOf(block)
	if status != OK {
		return status
	}

	writeLink(p.base[off:], int32(p.freeHead))
	p.freeHead = off
	p.freeBlocks++

	if !p.wait.empty() {
		woken := p.wait.popFront()
		woken.State = StateReady
		k.readyAdd(woken)
		k.requestSwitch()
	}
	return OK
}

func (p *Pool) offsetOf(block []byte) (int, Status) {
	basePtr := uintptr(unsafe.Pointer(&p.base[0]))
	blockPtr := uintptr(unsafe.Pointer(&block[0]))
	arenaLen := uintptr(p.totalBlks * p.blockSize)
	if blockPtr < basePtr || blockPtr >= basePtr+arenaLen {
		return 0, INVALID_ADDR
	}
	off := int(blockPtr - basePtr)
	if off%p.blockSize != 0 {
		return 0, NOT_ALIGN
	}
	return off, OK
}

func writeLink(b []byte, v int32) {
	u := uint32(v)
	b[0] = byte(u)
	b[1] = byte(u >> 8)
	b[2] = byte(u >> 16)
	b[3] = byte(u >> 24)
}

func readLink(b []byte) int32 {
	u := uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16 | uint32(b[3])<<24
	return int32(u)
}
