package handler

import (
	"sync"
	"time"

	"go.uber.org/zap"

	"upage/buffer"
	"upage/configs"
	upageErr "upage/errors"
	"upage/region"
	"upage/store"
)

// FaultEvent is one page-fault notification delivered by the trap mechanism.
// Write reports whether the faulting access was a store.
type FaultEvent struct {
	Addr  buffer.PageAddr
	Write bool
}

// Manager drives fault handling and eviction for one mapped region. Faults
// are routed to a fixed worker per page block, so events for the same page
// are always handled in order by the same goroutine; all workers share the
// single Buffer monitor.
type Manager struct {
	region  *region.Region
	backing store.Store
	buf     *buffer.Buffer
	blocks  []region.PageBlock
	queues  []chan FaultEvent

	stat   Stats
	statMu sync.Mutex

	// copyinPool recycles the page-sized scratch buffers fills read into.
	copyinPool sync.Pool

	stopMu    sync.RWMutex
	stopped   bool
	evictStop chan struct{}
	workerWg  sync.WaitGroup
	evictWg   sync.WaitGroup
	log       *zap.SugaredLogger
}

// NewManager sizes the buffer from the configs knobs (shrunk to fit the
// region), splits the region across the fault workers and starts them
// together with the eviction worker.
func NewManager(r *region.Region) *Manager {
	bufPages := configs.Min(configs.BufferPages, r.Pages())
	workers := configs.Min(configs.FaultWorkers, bufPages)

	m := &Manager{
		region:    r,
		backing:   r.Store(),
		buf:       buffer.NewBuffer(bufPages, configs.LowWaterPercentage, configs.HighWaterPercentage),
		blocks:    r.SplitBlocks(workers),
		evictStop: make(chan struct{}),
		log:       configs.Logger,
	}
	m.copyinPool.New = func() interface{} {
		return make([]byte, r.PageSize())
	}

	m.queues = make([]chan FaultEvent, len(m.blocks))
	for i := range m.blocks {
		m.queues[i] = make(chan FaultEvent, configs.MaxFaultBatch)
		m.workerWg.Add(1)
		go m.serveFaults(i)
	}

	m.evictWg.Add(1)
	go m.evictLoop()

	m.log.Infow("fault manager started",
		"regionBase", m.region.Base(),
		"regionPages", m.region.Pages(),
		"bufferPages", bufPages,
		"faultWorkers", len(m.blocks),
		"lowWater", m.buf.LowWaterMark(),
		"highWater", m.buf.HighWaterMark())
	return m
}

// Fault queues one fault notification. Blocks when the owning worker's queue
// is full, which backpressures the trap delivery. Safe to call concurrently
// with Stop: the read lock keeps the queues open across the send.
func (m *Manager) Fault(addr buffer.PageAddr, write bool) error {
	m.stopMu.RLock()
	defer m.stopMu.RUnlock()
	if m.stopped {
		return upageErr.ErrStopped
	}
	pageBegin := m.region.PageBegin(addr)
	for i, blk := range m.blocks {
		if blk.Contains(pageBegin) {
			m.queues[i] <- FaultEvent{Addr: addr, Write: write}
			return nil
		}
	}
	return upageErr.ErrNotMapped
}

// Stop drains the fault queues, evicts every resident page and retires the
// buffer. The manager cannot be restarted. Faults racing Stop either land
// before the queues close or are rejected with ErrStopped.
func (m *Manager) Stop() {
	m.stopMu.Lock()
	if m.stopped {
		m.stopMu.Unlock()
		return
	}
	m.stopped = true
	m.stopMu.Unlock()
	for _, q := range m.queues {
		close(q)
	}
	m.workerWg.Wait()
	close(m.evictStop)
	m.evictWg.Wait()
	m.FlushBuffers()

	stat := m.GetStats()
	m.log.Infow("fault manager stopped",
		"dirtyEvicts", stat.DirtyEvicts,
		"evictVictims", stat.EvictVictims,
		"wpMessages", stat.WPMessages,
		"readFaults", stat.ReadFaults,
		"writeFaults", stat.WriteFaults)

	m.buf.Destroy()
}

// PresentPages reports how many pages are currently resident.
func (m *Manager) PresentPages() int {
	m.buf.Lock()
	defer m.buf.Unlock()
	return m.buf.GetNumberOfPresentPages()
}

func (m *Manager) serveFaults(idx int) {
	defer m.workerWg.Done()
	for ev := range m.queues[idx] {
		m.pagefaultEvent(ev)
	}
}

func (m *Manager) pagefaultEvent(ev FaultEvent) {
	pageBegin := m.region.PageBegin(ev.Addr)

	m.buf.Lock()
	pd := m.buf.PageAlreadyPresent(pageBegin)
	for pd != nil && pd.GetState() == buffer.Leaving {
		// Eviction is writing this page back with the lock released. The
		// fault must not resolve against the departing descriptor: wait for
		// the eviction to finish, then admit the page again.
		m.buf.Unlock()
		time.Sleep(configs.FaultRetryInterval)
		m.buf.Lock()
		pd = m.buf.PageAlreadyPresent(pageBegin)
	}
	if pd != nil {
		if ev.Write && !pd.PageIsDirty() {
			pd.MarkPageDirty()
			m.bump(&m.stat.WPMessages)
			configs.FaultPrint(uint64(pageBegin), "present page written, marking dirty")
		} else {
			configs.FaultPrint(uint64(pageBegin), "spurious fault for page already present")
		}
		m.buf.Unlock()
		return
	}

	// Page not present: take a descriptor (blocking under pressure) and fill.
	pd = m.buf.GetPageDescriptor(pageBegin)
	pd.SetStateFilling()
	if ev.Write {
		pd.MarkPageDirty()
		m.bump(&m.stat.WriteFaults)
	} else {
		m.bump(&m.stat.ReadFaults)
	}
	m.buf.Unlock()

	copyin := m.copyinPool.Get().([]byte)
	configs.CheckError(m.backing.ReadPage(copyin, m.region.Offset(pageBegin)))
	m.region.FillPage(pageBegin, copyin)
	m.copyinPool.Put(copyin)
	configs.FaultPrint(uint64(pageBegin), "filled from store")

	m.buf.Lock()
	pd.SetStatePresent()
	m.buf.MarkPagePresent(pd)
	m.buf.WakeUpWaitersForOldestPage(pd)
	m.buf.Unlock()
}

func (m *Manager) bump(field *uint64) {
	m.statMu.Lock()
	*field++
	m.statMu.Unlock()
}
