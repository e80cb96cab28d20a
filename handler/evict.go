package handler

import (
	"time"

	"upage/buffer"
	"upage/configs"
)

func (m *Manager) evictLoop() {
	defer m.evictWg.Done()
	ticker := time.NewTicker(configs.EvictInterval)
	defer ticker.Stop()
	for {
		select {
		case <-m.evictStop:
			return
		case <-ticker.C:
			m.evictPass()
		}
	}
}

// evictPass flushes from the high water mark down to the low water mark,
// oldest admitted page first. The gap between the two marks keeps eviction
// from flapping on every single page.
func (m *Manager) evictPass() {
	m.buf.Lock()
	defer m.buf.Unlock()
	if !m.buf.FlushThresholdReached() {
		return
	}
	configs.DPrintf("eviction starting: %s", m.buf.String())
	// Stop-check after each victim: with the 0/100 "full capacity" marks the
	// low threshold already holds when the pass starts, yet one slot must
	// still be freed for the fill that is waiting on it.
	for {
		pd := m.buf.GetOldestPresentPageDescriptor()
		if pd == nil {
			return
		}
		m.evictPage(pd)
		if m.buf.FlushLowThresholdReached() {
			return
		}
	}
}

// FlushBuffers evicts every resident page regardless of the watermarks, as
// on region unmap. Callers must ensure no fills are in flight.
func (m *Manager) FlushBuffers() {
	m.buf.Lock()
	defer m.buf.Unlock()
	for {
		pd := m.buf.GetOldestPresentPageDescriptor()
		if pd == nil {
			return
		}
		m.evictPage(pd)
	}
}

// SyncDirty writes every dirty resident page back in place without evicting
// it, moving each through PRESENT -> UPDATING -> PRESENT.
func (m *Manager) SyncDirty() {
	m.buf.Lock()
	defer m.buf.Unlock()

	dirty := make([]*buffer.PageDescriptor, 0)
	for _, blk := range m.blocks {
		for addr := blk.Base; blk.Contains(addr); addr += buffer.PageAddr(m.region.PageSize()) {
			if pd := m.buf.PageAlreadyPresent(addr); pd != nil && pd.PageIsDirty() {
				dirty = append(dirty, pd)
			}
		}
	}

	for _, pd := range dirty {
		// The eviction worker may have retired the page while the lock was
		// dropped for a previous write-back.
		if pd.GetState() != buffer.Present || !pd.PageIsDirty() {
			continue
		}
		pd.SetStateUpdating()
		// Clear the dirty bit before the write: a write fault landing while
		// the lock is released re-dirties the page and keeps it scheduled
		// for the next write-back.
		pd.MarkPageClean()
		addr := pd.GetPageAddr()
		m.buf.Unlock()
		err := m.backing.WritePage(m.region.PageSlice(addr), m.region.Offset(addr))
		m.buf.Lock()
		configs.CheckError(err)
		pd.SetStatePresent()
		m.buf.WakeUpWaitersForOldestPage(pd)
	}
}

// evictPage retires one descriptor: PRESENT -> LEAVING, dirty write-back with
// the lock released, then LEAVING -> FREE and the present-index removal. The
// caller holds the buffer lock.
func (m *Manager) evictPage(pd *buffer.PageDescriptor) {
	pd.SetStateLeaving()
	addr := pd.GetPageAddr()
	m.bump(&m.stat.EvictVictims)

	if pd.PageIsDirty() {
		m.bump(&m.stat.DirtyEvicts)
		m.buf.Unlock()
		err := m.backing.WritePage(m.region.PageSlice(addr), m.region.Offset(addr))
		m.buf.Lock()
		configs.CheckError(err)
	}

	m.region.DropPage(addr)
	pd.MarkPageClean()
	pd.SetStateFree()
	m.buf.MarkPageNotPresent(pd)
	configs.FaultPrint(uint64(addr), "evicted")
}
