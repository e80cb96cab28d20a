package buffer

import (
	"strconv"
	"sync"

	"upage/configs"
)

// Buffer is the fixed-capacity coordinator owning all page descriptors and
// the three views over them: the present-index (address -> descriptor), the
// free list, and the FIFO busy queue in admission order.
//
// Coarse grain lock against the entire buffer. We may need to make this finer
// grained later if needed. Callers bracket one or more operations with
// Lock/Unlock; both blocking operations release the lock while suspended and
// re-check their condition on every wake.
type Buffer struct {
	size             int
	fillWaitingCount int // # of fills waiting for a free descriptor
	lastPdWaiting    *PageDescriptor

	array        []PageDescriptor
	presentPages map[PageAddr]*PageDescriptor
	freePages    []*PageDescriptor
	busyPages    []*PageDescriptor

	flushLowWater  int // level eviction drains down to
	flushHighWater int // level at which eviction starts

	mu                  sync.Mutex
	availableDescriptor *sync.Cond
	oldestPageReady     *sync.Cond
}

// NewBuffer preallocates size descriptors, all FREE and on the free list.
// The low and high water thresholds are integer percentages of the capacity;
// 0 or 100 both mean eviction only runs when the buffer is completely full.
func NewBuffer(size int, lowWaterThreshold int, highWaterThreshold int) *Buffer {
	configs.Assert(size > 0, "buffer requires a positive number of page descriptors")
	b := &Buffer{
		size:         size,
		array:        make([]PageDescriptor, size),
		presentPages: make(map[PageAddr]*PageDescriptor, size),
		freePages:    make([]*PageDescriptor, 0, size),
		busyPages:    make([]*PageDescriptor, 0, size),
	}
	for i := 0; i < size; i++ {
		b.freePages = append(b.freePages, &b.array[i])
	}
	b.availableDescriptor = sync.NewCond(&b.mu)
	b.oldestPageReady = sync.NewCond(&b.mu)

	b.flushLowWater = applyIntPercentage(lowWaterThreshold, size)
	b.flushHighWater = applyIntPercentage(highWaterThreshold, size)
	return b
}

// Destroy asserts the shutdown contract: every page must have been evicted
// before the buffer goes away.
func (b *Buffer) Destroy() {
	configs.Assert(len(b.presentPages) == 0, "pages are still present")
	b.array = nil
	b.freePages = nil
	b.busyPages = nil
	b.presentPages = nil
}

func (b *Buffer) Lock() {
	b.mu.Lock()
}

func (b *Buffer) Unlock() {
	b.mu.Unlock()
}

func (b *Buffer) FlushThresholdReached() bool {
	return len(b.busyPages) >= b.flushHighWater
}

func (b *Buffer) FlushLowThresholdReached() bool {
	return len(b.busyPages) <= b.flushLowWater
}

// PageAlreadyPresent returns the descriptor bound to pageAddr, nil if the
// page is not resident.
func (b *Buffer) PageAlreadyPresent(pageAddr PageAddr) *PageDescriptor {
	if pd, ok := b.presentPages[pageAddr]; ok {
		return pd
	}
	return nil
}

func (b *Buffer) MarkPagePresent(pd *PageDescriptor) {
	b.presentPages[pd.GetPageAddr()] = pd
}

// MarkPageNotPresent completes the LEAVING->FREE bookkeeping: the descriptor
// leaves the present-index and goes back on the free list.
func (b *Buffer) MarkPageNotPresent(pd *PageDescriptor) {
	delete(b.presentPages, pd.GetPageAddr())
	b.FreePageDescriptor(pd)
}

// GetPageDescriptor blocks until a free descriptor is available, binds it to
// pageAddr with a clean dirty flag, and appends it to the tail of the busy
// queue. The descriptor is returned still FREE; the caller transitions it to
// FILLING before releasing the lock.
func (b *Buffer) GetPageDescriptor(pageAddr PageAddr) *PageDescriptor {
	b.fillWaitingCount++

	for len(b.freePages) == 0 {
		b.availableDescriptor.Wait()
	}

	b.fillWaitingCount--
	rval := b.freePages[len(b.freePages)-1]
	b.freePages = b.freePages[:len(b.freePages)-1]

	rval.page = pageAddr
	rval.dirty = false

	b.busyPages = append(b.busyPages, rval)

	return rval
}

// WakeUpWaitersForOldestPage signals the eviction waiter, but only if pd is
// the exact descriptor it is blocked on. Completions of any other fill or
// update leave the waiter suspended.
func (b *Buffer) WakeUpWaitersForOldestPage(pd *PageDescriptor) {
	if b.lastPdWaiting == pd {
		b.oldestPageReady.Signal()
	}
}

// GetOldestPresentPageDescriptor pops the head of the busy queue once it has
// reached PRESENT, blocking while it is still FILLING or UPDATING. Returns
// nil when the busy queue is empty. The caller transitions the returned
// descriptor PRESENT->LEAVING itself.
//
// Single consumer: concurrent eviction workers must coordinate externally.
func (b *Buffer) GetOldestPresentPageDescriptor() *PageDescriptor {
	if len(b.busyPages) == 0 {
		return nil
	}

	rval := b.busyPages[0]

	for rval.state != Present {
		b.lastPdWaiting = rval
		b.oldestPageReady.Wait()
	}
	b.lastPdWaiting = nil

	b.busyPages = b.busyPages[1:]

	return rval
}

// FreePageDescriptor returns an already-FREE descriptor to the free list and
// releases one blocked GetPageDescriptor caller if there is one. The lock is
// dropped and reacquired after signaling so the woken fill does not stay
// parked behind the signaler's own hold.
func (b *Buffer) FreePageDescriptor(pd *PageDescriptor) {
	b.freePages = append(b.freePages, pd)

	if b.fillWaitingCount > 0 {
		b.availableDescriptor.Signal()
		b.Unlock()
		b.Lock()
	}
}

func (b *Buffer) GetNumberOfPresentPages() int {
	return len(b.presentPages)
}

func (b *Buffer) Size() int {
	return b.size
}

func (b *Buffer) LowWaterMark() int {
	return b.flushLowWater
}

func (b *Buffer) HighWaterMark() int {
	return b.flushHighWater
}

func (b *Buffer) String() string {
	return "{ size: " + strconv.Itoa(b.size) +
		", fillWaitingCount: " + strconv.Itoa(b.fillWaitingCount) +
		", presentPages: " + strconv.Itoa(len(b.presentPages)) +
		", freePages: " + strconv.Itoa(len(b.freePages)) +
		", busyPages: " + strconv.Itoa(len(b.busyPages)) +
		", flushLowWater: " + strconv.Itoa(b.flushLowWater) +
		", flushHighWater: " + strconv.Itoa(b.flushHighWater) + " }"
}

func applyIntPercentage(percentage int, item int) int {
	configs.Assert(percentage >= 0 && percentage <= 100,
		"invalid percentage ("+strconv.Itoa(percentage)+") given")

	if percentage == 0 || percentage == 100 {
		return item
	}
	return item * percentage / 100
}
