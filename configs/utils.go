package configs

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

func itoa64(v int64) string {
	return strconv.FormatInt(v, 10)
}

func DPrintf(format string, a ...interface{}) {
	if ShowDebugInfo {
		fmt.Printf(time.Now().Format("15:04:05.00")+" <---> "+format+"\n", a...)
	}
	return
}

// FaultPrint traces the handling of one page fault address.
func FaultPrint(addr uint64, format string, a ...interface{}) {
	if ShowFaultTrace {
		fmt.Printf(time.Now().Format("15:04:05.00")+" <---> "+"PAGE0x"+strconv.FormatUint(addr, 16)+":"+format+"\n", a...)
	}
}

func TPrintf(format string, a ...interface{}) {
	if ShowTestInfo {
		fmt.Printf(time.Now().Format("15:04:05.00")+" <---> "+format+"\n", a...)
	}
	return
}

func Assert(cond bool, msg string) bool {
	if !cond {
		panic("[ERROR] Assert error at " + msg + "\n")
	}
	return cond
}

func Warn(cond bool, msg string) bool {
	if ShowWarnings && !cond {
		fmt.Printf("[WARNNING] :" + msg + "\n")
	}
	return cond
}

func CheckError(err error) {
	if err != nil {
		fmt.Fprintf(os.Stderr, "Fatal error: %s", err.Error())
		os.Exit(1)
	}
}

func Min(a int, b int) int {
	if a < b {
		return a
	}
	return b
}
