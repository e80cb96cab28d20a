package benchmark

import (
	"testing"
	"time"

	"github.com/magiconair/properties/assert"
	"upage/buffer"
	"upage/configs"
	"upage/handler"
	"upage/region"
	"upage/store"
)

func TestYCSBSmoke(t *testing.T) {
	oldBuf, oldWorkers := configs.BufferPages, configs.FaultWorkers
	oldWarm, oldMeasure := configs.WarmUpTime, configs.MeasureTime
	oldCon := configs.ClientRoutineNumber
	defer func() {
		configs.BufferPages = oldBuf
		configs.FaultWorkers = oldWorkers
		configs.WarmUpTime, configs.MeasureTime = oldWarm, oldMeasure
		configs.SetConcurrency(oldCon)
	}()
	configs.BufferPages = 8
	configs.SetFaultWorkers(2)
	configs.WarmUpTime = 50 * time.Millisecond
	configs.MeasureTime = 100 * time.Millisecond
	configs.SetConcurrency(4)

	pages := 32
	backing := store.NewMemStore(int64(pages) * configs.PageSize)
	reg, err := region.NewRegion(buffer.PageAddr(0x400000), uint64(pages)*uint64(configs.PageSize), backing)
	if err != nil {
		t.Fatalf("NewRegion failed: %v", err)
	}
	mgr := handler.NewManager(reg)

	stmt := NewYCSBStmt(mgr, reg)
	stmt.YCSBTest()

	if n := mgr.PresentPages(); n > 8 {
		t.Fatalf("present pages %d exceeds buffer capacity", n)
	}
	mgr.Stop()

	st := mgr.GetStats()
	assert.Equal(t, st.ReadFaults+st.WriteFaults > 0, true, "the workload produced faults")
	assert.Equal(t, st.EvictVictims > 0, true, "capacity pressure produced evictions")
}
