package main

import (
	"flag"
	"os"
	"path/filepath"

	"upage/benchmark"
	"upage/buffer"
	"upage/configs"
	"upage/handler"
	"upage/region"
	"upage/store"
)

var (
	file        string
	pageSize    int64
	regionPages int
	bufPages    int
	low         int
	high        int
	workers     int
	con         int
	sk          float64
	write       int
	confFile    string
)

const regionBase = buffer.PageAddr(0x100000000)

func usage() {
	flag.PrintDefaults()
}

func init() {
	flag.StringVar(&file, "file", "", "the backing file (a temporary file when empty)")
	flag.Int64Var(&pageSize, "pagesize", 4096, "the page size in bytes")
	flag.IntVar(&regionPages, "pages", 4096, "the number of pages in the mapped region")
	flag.IntVar(&bufPages, "buf", 1024, "the buffer capacity in pages")
	flag.IntVar(&low, "low", 20, "the low water percentage where eviction stops")
	flag.IntVar(&high, "high", 80, "the high water percentage where eviction starts")
	flag.IntVar(&workers, "workers", 4, "the number of fault workers")
	flag.IntVar(&con, "c", 10, "the number of benchmark clients")
	flag.Float64Var(&sk, "skew", 0.8, "the skew factor for ycsb zipf")
	flag.IntVar(&write, "write", 25, "the write fault percentage")
	flag.StringVar(&confFile, "conf", configs.ConfigFileLocation, "properties file with upage.* knobs")

	flag.Usage = usage
}

func main() {
	flag.Parse()

	if confFile != "" {
		configs.LoadConfigFile(confFile)
	}
	configs.GetEnv()
	configs.SetPageSize(pageSize)
	configs.SetBufferPages(bufPages)
	configs.SetWatermarks(low, high)
	configs.SetFaultWorkers(workers)
	configs.SetConcurrency(con)
	configs.SetSkewness(sk)
	configs.SetWritePercentage(write)

	path := file
	if path == "" {
		dir, err := os.MkdirTemp("", "upage")
		configs.CheckError(err)
		defer os.RemoveAll(dir)
		path = filepath.Join(dir, "backing.dat")
	}

	backing, err := store.OpenFile(path, 0600, false)
	configs.CheckError(err)
	defer backing.Close()

	reg, err := region.NewRegion(regionBase, uint64(regionPages)*uint64(configs.PageSize), backing)
	configs.CheckError(err)

	manager := region.NewManager()
	configs.CheckError(manager.Map(reg))

	mgr := handler.NewManager(reg)

	stmt := benchmark.NewYCSBStmt(mgr, reg)
	stmt.YCSBTest()

	mgr.SyncDirty()
	mgr.Stop()

	_, err = manager.Unmap(reg.Base())
	configs.CheckError(err)
}
