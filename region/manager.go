package region

import (
	set "github.com/deckarep/golang-set"
	"github.com/viney-shih/go-lock"

	"upage/buffer"
	upageErr "upage/errors"
)

// Manager is the registry of mapped regions, keyed by base address. Lookups
// by faulting address scan the registry, so the latch is a reader/writer one.
type Manager struct {
	latch   lock.RWMutex
	regions map[buffer.PageAddr]*Region
	active  set.Set // base addresses currently mapped
}

func NewManager() *Manager {
	return &Manager{
		latch:   lock.NewCASMutex(),
		regions: make(map[buffer.PageAddr]*Region),
		active:  set.NewSet(),
	}
}

// Map registers a region, rejecting overlaps with anything already mapped.
func (m *Manager) Map(r *Region) error {
	m.latch.Lock()
	defer m.latch.Unlock()
	if m.active.Contains(r.Base()) {
		return upageErr.ErrRegionOverlap
	}
	for _, cur := range m.regions {
		if r.Base() < cur.Base()+buffer.PageAddr(cur.Size()) &&
			cur.Base() < r.Base()+buffer.PageAddr(r.Size()) {
			return upageErr.ErrRegionOverlap
		}
	}
	m.regions[r.Base()] = r
	m.active.Add(r.Base())
	return nil
}

// Unmap removes and returns the region mapped at base.
func (m *Manager) Unmap(base buffer.PageAddr) (*Region, error) {
	m.latch.Lock()
	defer m.latch.Unlock()
	r, ok := m.regions[base]
	if !ok {
		return nil, upageErr.ErrNotMapped
	}
	delete(m.regions, base)
	m.active.Remove(base)
	return r, nil
}

// Find returns the region containing addr, nil when addr is unmapped.
func (m *Manager) Find(addr buffer.PageAddr) *Region {
	m.latch.RLock()
	defer m.latch.RUnlock()
	for _, r := range m.regions {
		if r.Contains(addr) {
			return r
		}
	}
	return nil
}

func (m *Manager) Count() int {
	m.latch.RLock()
	defer m.latch.RUnlock()
	return m.active.Cardinality()
}
