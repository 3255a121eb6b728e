// Package sysinfo reports process and host memory usage.
package sysinfo

import (
	"runtime"

	"github.com/shirou/gopsutil/v3/mem"
)

type Usage struct {
	AllocMB              int64   `json:"alloc_mb"`
	SysMB                int64   `json:"sys_mb"`
	Goroutines           int     `json:"goroutines"`
	SystemMemUsedMB      int64   `json:"system_mem_used_mb,omitempty"`
	SystemMemTotalMB     int64   `json:"system_mem_total_mb,omitempty"`
	SystemMemUsedPercent float64 `json:"system_mem_used_percent,omitempty"`
}

// Snapshot reads runtime stats and, when available, host memory.
func Snapshot() Usage {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	u := Usage{
		AllocMB:    int64(m.Alloc / 1024 / 1024),
		SysMB:      int64(m.Sys / 1024 / 1024),
		Goroutines: runtime.NumGoroutine(),
	}

	if vm, err := mem.VirtualMemory(); err == nil {
		u.SystemMemUsedMB = int64(vm.Used / 1024 / 1024)
		u.SystemMemTotalMB = int64(vm.Total / 1024 / 1024)
		u.SystemMemUsedPercent = vm.UsedPercent
	}

	return u
}
