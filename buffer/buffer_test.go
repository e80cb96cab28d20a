package buffer

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/magiconair/properties/assert"
)

const settleTime = 50 * time.Millisecond

// admit runs the fault-handler side of one page fill to completion.
func admit(b *Buffer, addr PageAddr) *PageDescriptor {
	b.Lock()
	defer b.Unlock()
	pd := b.GetPageDescriptor(addr)
	pd.SetStateFilling()
	pd.SetStatePresent()
	b.MarkPagePresent(pd)
	b.WakeUpWaitersForOldestPage(pd)
	return pd
}

// evictOldest runs the eviction side for the head of the busy queue.
func evictOldest(b *Buffer) *PageDescriptor {
	b.Lock()
	defer b.Unlock()
	pd := b.GetOldestPresentPageDescriptor()
	if pd == nil {
		return nil
	}
	pd.SetStateLeaving()
	pd.SetStateFree()
	b.MarkPageNotPresent(pd)
	return pd
}

func TestWatermarkArithmetic(t *testing.T) {
	b := NewBuffer(100, 20, 80)
	assert.Equal(t, b.LowWaterMark(), 20, "low water of 20% of 100")
	assert.Equal(t, b.HighWaterMark(), 80, "high water of 80% of 100")

	b = NewBuffer(10, 100, 100)
	assert.Equal(t, b.LowWaterMark(), 10, "percentage 100 means full capacity")

	b = NewBuffer(10, 0, 0)
	assert.Equal(t, b.HighWaterMark(), 10, "percentage 0 means full capacity")

	b = NewBuffer(3, 33, 66)
	assert.Equal(t, b.LowWaterMark(), 0, "watermarks round down")
	assert.Equal(t, b.HighWaterMark(), 1, "watermarks round down")

	mustPanic(t, "percentage above 100", func() { NewBuffer(10, 20, 101) })
	mustPanic(t, "negative percentage", func() { NewBuffer(10, -1, 80) })
	mustPanic(t, "zero capacity", func() { NewBuffer(0, 20, 80) })
}

func TestFreshBufferLayout(t *testing.T) {
	b := NewBuffer(4, 25, 75)
	b.Lock()
	assert.Equal(t, len(b.freePages), 4, "all descriptors start on the free list")
	assert.Equal(t, len(b.busyPages), 0, "busy queue starts empty")
	assert.Equal(t, b.GetNumberOfPresentPages(), 0, "present-index starts empty")
	for i := range b.array {
		assert.Equal(t, b.array[i].GetState(), Free, "descriptors start FREE")
	}
	b.Unlock()
	b.Destroy()
}

func TestFIFOEvictionOrder(t *testing.T) {
	b := NewBuffer(3, 0, 0)
	a := admit(b, 0x1000)
	bb := admit(b, 0x2000)
	c := admit(b, 0x3000)

	assert.Equal(t, evictOldest(b), a, "oldest admitted page leaves first")
	assert.Equal(t, evictOldest(b), bb, "second admitted page leaves second")
	assert.Equal(t, evictOldest(b), c, "third admitted page leaves third")
	assert.Equal(t, evictOldest(b), (*PageDescriptor)(nil), "empty busy queue yields not-found")
	b.Destroy()
}

func TestPresentIndexConsistency(t *testing.T) {
	b := NewBuffer(2, 0, 0)
	pd := admit(b, 0x4000)

	b.Lock()
	assert.Equal(t, b.PageAlreadyPresent(0x4000), pd, "present-index hit after MarkPagePresent")
	assert.Equal(t, b.PageAlreadyPresent(0x5000), (*PageDescriptor)(nil), "unbound address misses")
	b.Unlock()

	b.Lock()
	got := b.GetOldestPresentPageDescriptor()
	got.SetStateLeaving()
	got.SetStateFree()
	b.MarkPageNotPresent(got)
	assert.Equal(t, b.PageAlreadyPresent(0x4000), (*PageDescriptor)(nil), "present-index miss after MarkPageNotPresent")
	onFreeList := false
	for _, f := range b.freePages {
		if f == pd {
			onFreeList = true
		}
	}
	assert.Equal(t, onFreeList, true, "descriptor returns to the free list")
	b.Unlock()
	b.Destroy()
}

// |free| + |busy| never exceeds the capacity and no descriptor sits in both.
func TestPoolInvariant(t *testing.T) {
	b := NewBuffer(4, 0, 0)
	check := func() {
		b.Lock()
		defer b.Unlock()
		if len(b.freePages)+len(b.busyPages) > b.Size() {
			t.Fatalf("free %d + busy %d exceeds capacity %d",
				len(b.freePages), len(b.busyPages), b.Size())
		}
		for _, f := range b.freePages {
			for _, q := range b.busyPages {
				if f == q {
					t.Fatalf("descriptor %s on both free list and busy queue", f)
				}
			}
		}
	}

	check()
	admit(b, 0x1000)
	check()
	admit(b, 0x2000)
	check()
	evictOldest(b)
	check()
	admit(b, 0x3000)
	check()
	for evictOldest(b) != nil {
	}
	check()
	b.Destroy()
}

// With capacity 1 a second fill must suspend until the only descriptor is
// freed, and exactly one waiter is released per free event.
func TestBlockingAcquisition(t *testing.T) {
	b := NewBuffer(1, 0, 0)
	admit(b, 0x1000)

	var acquired int32
	done := make(chan *PageDescriptor, 2)
	for i := 0; i < 2; i++ {
		addr := PageAddr(0x2000 + 0x1000*i)
		go func() {
			b.Lock()
			pd := b.GetPageDescriptor(addr)
			atomic.AddInt32(&acquired, 1)
			pd.SetStateFilling()
			pd.SetStatePresent()
			b.MarkPagePresent(pd)
			b.Unlock()
			done <- pd
		}()
	}

	time.Sleep(settleTime)
	assert.Equal(t, atomic.LoadInt32(&acquired), int32(0), "fills must block while the free list is empty")

	evictOldest(b)
	time.Sleep(settleTime)
	assert.Equal(t, atomic.LoadInt32(&acquired), int32(1), "exactly one waiter is released per free event")

	evictOldest(b)
	time.Sleep(settleTime)
	assert.Equal(t, atomic.LoadInt32(&acquired), int32(2), "the second free event releases the second waiter")
	<-done
	<-done
}

// Completing any page other than the one the eviction path is blocked on must
// not release it.
func TestEvictionWakeupIsIdentityFiltered(t *testing.T) {
	b := NewBuffer(2, 0, 0)

	b.Lock()
	a := b.GetPageDescriptor(0x1000)
	a.SetStateFilling()
	bb := b.GetPageDescriptor(0x2000)
	bb.SetStateFilling()
	b.Unlock()

	var got *PageDescriptor
	var returned int32
	go func() {
		b.Lock()
		got = b.GetOldestPresentPageDescriptor()
		atomic.StoreInt32(&returned, 1)
		b.Unlock()
	}()

	time.Sleep(settleTime)
	assert.Equal(t, atomic.LoadInt32(&returned), int32(0), "eviction must block while the oldest page is FILLING")

	// Completing the newer page B wakes nobody.
	b.Lock()
	bb.SetStatePresent()
	b.MarkPagePresent(bb)
	b.WakeUpWaitersForOldestPage(bb)
	b.Unlock()

	time.Sleep(settleTime)
	assert.Equal(t, atomic.LoadInt32(&returned), int32(0), "completing another page must not release the eviction waiter")

	// Completing the awaited page A releases it.
	b.Lock()
	a.SetStatePresent()
	b.MarkPagePresent(a)
	b.WakeUpWaitersForOldestPage(a)
	b.Unlock()

	time.Sleep(settleTime)
	assert.Equal(t, atomic.LoadInt32(&returned), int32(1), "completing the awaited page releases the eviction waiter")
	assert.Equal(t, got, a, "the oldest admitted page is returned")
}

func TestRebindClearsDirtyFlag(t *testing.T) {
	b := NewBuffer(1, 0, 0)
	pd := admit(b, 0x1000)
	b.Lock()
	pd.MarkPageDirty()
	b.Unlock()
	evictOldest(b)

	reused := admit(b, 0x9000)
	assert.Equal(t, reused, pd, "capacity 1 reuses the single slot")
	assert.Equal(t, reused.PageIsDirty(), false, "rebinding clears the dirty flag")
	assert.Equal(t, reused.GetPageAddr(), PageAddr(0x9000), "rebinding rebinds the address")
}

func TestFlushThresholds(t *testing.T) {
	b := NewBuffer(10, 20, 80)

	b.Lock()
	assert.Equal(t, b.FlushLowThresholdReached(), true, "empty buffer is below the low water mark")
	assert.Equal(t, b.FlushThresholdReached(), false, "empty buffer is below the high water mark")
	b.Unlock()

	for i := 0; i < 8; i++ {
		admit(b, PageAddr(0x1000*(i+1)))
	}
	b.Lock()
	assert.Equal(t, b.FlushThresholdReached(), true, "8 of 10 busy pages reaches the high water mark")
	assert.Equal(t, b.FlushLowThresholdReached(), false, "8 busy pages is above the low water mark")
	b.Unlock()

	for i := 0; i < 6; i++ {
		evictOldest(b)
	}
	b.Lock()
	assert.Equal(t, b.FlushLowThresholdReached(), true, "2 of 10 busy pages reaches the low water mark")
	b.Unlock()
}

func TestDestroyWithPresentPages(t *testing.T) {
	b := NewBuffer(2, 0, 0)
	admit(b, 0x1000)
	mustPanic(t, "destroy with resident pages", func() { b.Destroy() })
}
