package utils

import (
	"fmt"
	"sort"
	"strconv"
	"sync"
	"time"

	"upage/configs"
)

// Stat collects per-fault latency records from the benchmark clients and
// prints aggregate numbers for the measured window.
type Stat struct {
	mu         *sync.Mutex
	faultInfos []*Info
	beginTS    int
	endTS      int
}

func NewStat() *Stat {
	res := &Stat{
		faultInfos: make([]*Info, configs.MaxFaultRecords),
		mu:         &sync.Mutex{},
		beginTS:    0,
		endTS:      0,
	}
	return res
}

func (st *Stat) Append(info *Info) {
	st.mu.Lock()
	defer st.mu.Unlock()
	if st.endTS+1 >= len(st.faultInfos) {
		return
	}
	st.endTS++
	st.faultInfos[st.endTS] = info
}

func (st *Stat) Log() {
	st.mu.Lock()
	defer st.mu.Unlock()
	faultCnt, writes, fail := 0, 0, 0
	latencySum := 0
	latencies := make([]int, 0)
	for i := st.beginTS; i < st.endTS; i++ {
		if st.faultInfos[i] != nil {
			tmp := st.faultInfos[i]
			faultCnt++
			if tmp.IsWrite {
				writes++
			}
			if tmp.Failure {
				fail++
			}
			if tmp.Latency > 0 {
				latencySum += int(tmp.Latency)
				latencies = append(latencies, int(tmp.Latency))
			}
		}
	}
	msg := "count:" + strconv.Itoa(faultCnt) + ";"
	msg += "writes:" + strconv.Itoa(writes) + ";"
	msg += "error:" + strconv.Itoa(fail) + ";"
	sort.Ints(latencies)
	if len(latencies) > 0 {
		i := configs.Min((len(latencies)*99+99)/100, len(latencies)-1)
		msg += "p99:" + time.Duration(latencies[i]).String() + ";"
		i = configs.Min((len(latencies)*9+9)/10, len(latencies)-1)
		msg += "p90:" + time.Duration(latencies[i]).String() + ";"
		i = configs.Min((len(latencies)+1)/2, len(latencies)-1)
		msg += "p50:" + time.Duration(latencies[i]).String() + ";"
		msg += "ave:" + time.Duration(latencySum/len(latencies)).String() + ";"
	} else {
		msg += "p99:nil;"
		msg += "p90:nil;"
		msg += "p50:nil;"
		msg += "ave:nil;"
	}
	fmt.Println(msg)
}

func (st *Stat) Clear() {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.beginTS = st.endTS + 1
}

// Count reports how many records sit in the current measurement window.
func (st *Stat) Count() int {
	st.mu.Lock()
	defer st.mu.Unlock()
	cnt := 0
	for i := st.beginTS; i < st.endTS; i++ {
		if st.faultInfos[i] != nil {
			cnt++
		}
	}
	return cnt
}

type Info struct {
	IsWrite bool
	Failure bool
	Latency time.Duration
}

func NewInfo(isWrite bool) *Info {
	return &Info{IsWrite: isWrite, Failure: false, Latency: 0}
}
