package handler

import (
	"github.com/jinzhu/copier"

	"upage/configs"
)

// Stats counts fault and eviction traffic for one manager.
type Stats struct {
	DirtyEvicts  uint64
	EvictVictims uint64
	WPMessages   uint64
	ReadFaults   uint64
	WriteFaults  uint64
}

// GetStats returns a deep-copied snapshot, detached from the live counters.
func (m *Manager) GetStats() *Stats {
	m.statMu.Lock()
	defer m.statMu.Unlock()
	snap := &Stats{}
	configs.CheckError(copier.CopyWithOption(snap, &m.stat, copier.Option{DeepCopy: true}))
	return snap
}

func (m *Manager) ResetStats() {
	m.statMu.Lock()
	defer m.statMu.Unlock()
	m.stat = Stats{}
}
