package configs

import "time"

// //// System parameters //////
const (
	FlockDefaultTimeout time.Duration = 50 * time.Millisecond
	FlockMaximumRetry   time.Duration = 10
	MaxFaultBatch       int           = 256
	FaultRetryInterval  time.Duration = 50 * time.Microsecond
	MaxMemoryPercentage int           = 80
	MaxFaultRecords     int           = 1 << 20
)

// //// Debugging parameters //////
const (
	ShowDebugInfo  = false
	ShowWarnings   = false || ShowDebugInfo
	ShowTestInfo   = false || ShowDebugInfo
	ShowFaultTrace = false || ShowDebugInfo
)

// //// Environment variables checked at startup ///////
const (
	EnvBufferPages  = "UPAGE_BUFSIZE"
	EnvPageSize     = "UPAGE_PAGESIZE"
	EnvFaultWorkers = "UPAGE_FAULT_WORKERS"
	EnvLowWater     = "UPAGE_LOW_WATER"
	EnvHighWater    = "UPAGE_HIGH_WATER"
)

// //// Parameters need to be tuned according to your system ///////
var (
	PageSize           int64 = 4096
	BufferPages              = 1024
	LowWaterPercentage       = 20
	HighWaterPercentage      = 80
	FaultWorkers             = 4
	EvictInterval            = time.Millisecond
	ConfigFileLocation       = "./configs/upage.properties"
)

// //// Workload (could be changed by args) ///////
var (
	ClientRoutineNumber = 10
	WritePercentage     = 25
	YCSBDataSkewness    = 0.8
	WarmUpTime          = 2 * time.Second
	MeasureTime         = 2 * time.Second
)

func SetConcurrency(con int) {
	if con <= 0 {
		con = 1
	}
	ClientRoutineNumber = con
}

func SetSkewness(sk float64) {
	YCSBDataSkewness = sk
}

func SetWritePercentage(pct int) {
	Assert(pct >= 0 && pct <= 100, "invalid write percentage given")
	WritePercentage = pct
}

func SetBufferPages(n int) {
	max := MaxBufferPages()
	if max > 0 && n > max {
		DPrintf("buffer size of %d pages larger than maximum of %d, setting to %d", n, max, max)
		n = max
	}
	BufferPages = n
}

func SetPageSize(psize int64) bool {
	if psize <= 0 || psize%SystemPageSize() != 0 {
		Warn(false, "page size "+itoa64(psize)+" must be a multiple of the system page size")
		return false
	}
	DPrintf("adjusting page size from %d to %d", PageSize, psize)
	PageSize = psize
	return true
}

func SetWatermarks(low int, high int) {
	Assert(low >= 0 && low <= 100, "invalid low water percentage given")
	Assert(high >= 0 && high <= 100, "invalid high water percentage given")
	LowWaterPercentage = low
	HighWaterPercentage = high
}

func SetFaultWorkers(n int) {
	if n <= 0 {
		n = 1
	}
	FaultWorkers = n
}
