package system

import (
	"runtime"
	"syscall"

	"github.com/charmbracelet/log"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"
)

// InitResourceLimits raises the open file limit so many sources and temp
// outputs can be open at once.
func InitResourceLimits(logger *log.Logger) {
	var rLimit syscall.Rlimit
	if err := syscall.Getrlimit(syscall.RLIMIT_NOFILE, &rLimit); err != nil {
		logger.Warn("cannot read open file limit", "err", err)
		return
	}

	cur, ok := raisedLimit(rLimit.Cur, rLimit.Max)
	if !ok {
		return
	}
	rLimit.Cur = cur

	if err := syscall.Setrlimit(syscall.RLIMIT_NOFILE, &rLimit); err != nil {
		logger.Warn("cannot raise open file limit", "err", err)
		return
	}
	logger.Debug("open file limit raised", "limit", rLimit.Cur)
}

const wantOpenFiles = 2048

// raisedLimit returns the soft limit to set, or false when cur is already
// high enough or cannot go up.
func raisedLimit(cur, hard uint64) (uint64, bool) {
	if cur >= wantOpenFiles {
		return cur, false
	}
	next := min(uint64(wantOpenFiles), hard)
	return next, next > cur
}

// DefaultWorkers is the number of physical cores, or the logical CPU count
// when the platform does not report cores.
func DefaultWorkers() int {
	n, err := cpu.Counts(false)
	if err != nil || n < 1 {
		return runtime.NumCPU()
	}
	return n
}

// MemoryUsage returns used and total system memory in MiB.
func MemoryUsage() (used, total uint64, err error) {
	vm, err := mem.VirtualMemory()
	if err != nil {
		return 0, 0, err
	}
	return vm.Used >> 20, vm.Total >> 20, nil
}
