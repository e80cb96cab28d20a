package benchmark

import (
	"math/rand"
	"sync"
	"sync/atomic"
	"time"

	"github.com/pingcap/go-ycsb/pkg/generator"

	"upage/buffer"
	"upage/configs"
	"upage/handler"
	"upage/region"
	"upage/utils"
)

// YCSBStmt drives a zipfian page-fault workload against one mapped region,
// standing in for the application touching its mapping.
type YCSBStmt struct {
	stat *utils.Stat
	mgr  *handler.Manager
	reg  *region.Region
	stop int32
	wg   sync.WaitGroup
}

func NewYCSBStmt(mgr *handler.Manager, reg *region.Region) *YCSBStmt {
	return &YCSBStmt{mgr: mgr, reg: reg}
}

type YCSBClient struct {
	from *YCSBStmt
	r    *rand.Rand
	zip  *generator.Zipfian
}

// nextFault picks the next page to touch and issues the fault, timing the
// submission (queue backpressure included).
func (c *YCSBClient) nextFault(stats *utils.Stat) {
	pageNo := c.zip.Next(c.r)
	addr := c.from.reg.Base() +
		buffer.PageAddr(uint64(pageNo)*c.from.reg.PageSize()) +
		buffer.PageAddr(c.r.Intn(int(c.from.reg.PageSize())))
	isWrite := c.r.Intn(100) < configs.WritePercentage

	info := utils.NewInfo(isWrite)
	start := time.Now()
	if err := c.from.mgr.Fault(addr, isWrite); err != nil {
		info.Failure = true
	}
	info.Latency = time.Since(start)
	stats.Append(info)
}

func (stmt *YCSBStmt) Stopped() bool {
	return atomic.LoadInt32(&stmt.stop) != 0
}

func (stmt *YCSBStmt) startYCSBClient(seed int) {
	defer stmt.wg.Done()
	client := YCSBClient{from: stmt}
	client.r = rand.New(rand.NewSource(int64(seed)*11 + 31))
	client.zip = generator.NewZipfianWithRange(0, int64(stmt.reg.Pages()-1), configs.YCSBDataSkewness)
	for !stmt.Stopped() {
		client.nextFault(stmt.stat)
	}
}

func (stmt *YCSBStmt) Stop() {
	atomic.StoreInt32(&stmt.stop, 1)
}

// YCSBTest runs the configured number of clients: a warm-up window, then a
// measured window whose latencies are printed. All clients have exited by the
// time it returns, so the fault manager may be stopped right after.
func (stmt *YCSBStmt) YCSBTest() {
	stmt.stat = utils.NewStat()
	for i := 0; i < configs.ClientRoutineNumber; i++ {
		stmt.wg.Add(1)
		go stmt.startYCSBClient(i*11 + 13)
	}
	configs.TPrintf("All clients started")
	time.Sleep(configs.WarmUpTime)
	stmt.stat.Clear()
	time.Sleep(configs.MeasureTime)
	stmt.stat.Log()
	stmt.stat.Clear()
	stmt.Stop()
	stmt.wg.Wait()
}
