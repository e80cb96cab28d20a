package configs

import (
	"bufio"
	"os"
	"strconv"
	"strings"

	"github.com/magiconair/properties"
)

var totalMemKB int64 = 0

func SystemPageSize() int64 {
	return int64(os.Getpagesize())
}

// MaxBufferPages returns the largest buffer the host can carry, sized so that
// at most MaxMemoryPercentage of physical memory is consumed by page frames.
// Returns 0 when the memory size cannot be determined.
func MaxBufferPages() int {
	if totalMemKB == 0 {
		file, err := os.Open("/proc/meminfo")
		if err != nil {
			return 0
		}
		defer file.Close()
		sc := bufio.NewScanner(file)
		for sc.Scan() {
			line := sc.Text()
			if strings.HasPrefix(line, "MemTotal:") {
				fields := strings.Fields(line)
				if len(fields) >= 2 {
					mem, err := strconv.ParseInt(fields[1], 10, 64)
					if err == nil {
						totalMemKB = mem
					}
				}
				break
			}
		}
		if totalMemKB == 0 {
			Warn(false, "unable to determine system memory size")
			totalMemKB = 1024 * 1024
		}
	}
	return int((totalMemKB / (PageSize / 1024)) * int64(MaxMemoryPercentage) / 100)
}

func readEnv(env string) (int64, bool) {
	raw := os.Getenv(env)
	if raw == "" {
		return 0, false
	}
	val, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		Warn(false, "ignoring malformed "+env+"="+raw)
		return 0, false
	}
	return val, true
}

// GetEnv applies the UPAGE_* environment overrides on top of the compiled-in
// (or properties-file) defaults.
func GetEnv() {
	if val, ok := readEnv(EnvBufferPages); ok {
		SetBufferPages(int(val))
	}
	if val, ok := readEnv(EnvPageSize); ok {
		SetPageSize(val)
	}
	if val, ok := readEnv(EnvFaultWorkers); ok {
		SetFaultWorkers(int(val))
	}
	low, okLow := readEnv(EnvLowWater)
	high, okHigh := readEnv(EnvHighWater)
	if okLow || okHigh {
		if !okLow {
			low = int64(LowWaterPercentage)
		}
		if !okHigh {
			high = int64(HighWaterPercentage)
		}
		SetWatermarks(int(low), int(high))
	}
}

// LoadConfigFile reads knobs from a properties file. Missing file is not an
// error: the compiled-in defaults stay in effect.
func LoadConfigFile(loc string) {
	p, err := properties.LoadFile(loc, properties.UTF8)
	if err != nil {
		DPrintf("no config file at %s, keeping defaults", loc)
		return
	}
	SetBufferPages(p.GetInt("upage.bufsize", BufferPages))
	SetPageSize(int64(p.GetInt("upage.pagesize", int(PageSize))))
	SetFaultWorkers(p.GetInt("upage.faultworkers", FaultWorkers))
	SetWatermarks(
		p.GetInt("upage.lowwater", LowWaterPercentage),
		p.GetInt("upage.highwater", HighWaterPercentage))
}
