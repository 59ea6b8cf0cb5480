//go:build linux

package extract

import (
	"os"
	"runtime"
	"strconv"
	"strings"
)

// detectOptimalWorkers returns the CPU count available to this process,
// honouring a cgroup CPU quota when one is set (containers, batch schedulers).
func detectOptimalWorkers() int {
	n := runtime.NumCPU()
	if quota, ok := cgroupCPUs(); ok && quota < n {
		return quota
	}
	return n
}

func cgroupCPUs() (int, bool) {
	// cgroup v2
	if data, err := os.ReadFile("/sys/fs/cgroup/cpu.max"); err == nil {
		return parseCPUMax(string(data))
	}

	// cgroup v1
	quota, err := readInt("/sys/fs/cgroup/cpu/cpu.cfs_quota_us")
	if err != nil {
		return 0, false
	}
	period, err := readInt("/sys/fs/cgroup/cpu/cpu.cfs_period_us")
	if err != nil {
		return 0, false
	}
	return quotaCPUs(quota, period)
}

func readInt(path string) (int64, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	return strconv.ParseInt(strings.TrimSpace(string(data)), 10, 64)
}
