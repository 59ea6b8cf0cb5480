package extract

import (
	"strconv"
	"strings"
)

// parseCPUMax parses a cgroup v2 cpu.max line ("<quota> <period>" or
// "max <period>") into a whole number of CPUs, rounded up.
func parseCPUMax(line string) (int, bool) {
	fields := strings.Fields(line)
	if len(fields) != 2 || fields[0] == "max" {
		return 0, false
	}
	quota, err := strconv.ParseInt(fields[0], 10, 64)
	if err != nil {
		return 0, false
	}
	period, err := strconv.ParseInt(fields[1], 10, 64)
	if err != nil {
		return 0, false
	}
	return quotaCPUs(quota, period)
}

func quotaCPUs(quota, period int64) (int, bool) {
	if quota <= 0 || period <= 0 {
		return 0, false
	}
	return int((quota + period - 1) / period), true
}
