// Package hoststats samples the machine the server runs on for the admin dashboard
package hoststats

import (
	"context"
	"runtime"
	"time"

	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/host"
	"github.com/shirou/gopsutil/v4/load"
	"github.com/shirou/gopsutil/v4/mem"
)

// cpuSampleWindow is how long CPU usage is measured for one snapshot
const cpuSampleWindow = 200 * time.Millisecond

var processStart = time.Now()

// Snapshot is one reading of host resources. Metrics the platform cannot
// provide stay zero and are listed in Unavailable.
type Snapshot struct {
	CPUPercent    float64  `json:"cpu_percent"`
	CPUCount      int      `json:"cpu_count"`
	MemoryPercent float64  `json:"memory_percent"`
	MemoryUsed    uint64   `json:"memory_used"`
	MemoryTotal   uint64   `json:"memory_total"`
	Load1         float64  `json:"load_1"`
	HostUptime    uint64   `json:"host_uptime_seconds"`
	ProcessUptime int64    `json:"process_uptime_seconds"`
	Goroutines    int      `json:"goroutines"`
	GoVersion     string   `json:"go_version"`
	Unavailable   []string `json:"unavailable,omitempty"`
}

// Collect takes a snapshot. It never fails; unreadable metrics are reported
// in Unavailable instead.
func Collect(ctx context.Context) Snapshot {
	snap := Snapshot{
		CPUCount:      runtime.NumCPU(),
		ProcessUptime: int64(time.Since(processStart).Seconds()),
		Goroutines:    runtime.NumGoroutine(),
		GoVersion:     runtime.Version(),
	}

	if percents, err := cpu.PercentWithContext(ctx, cpuSampleWindow, false); err == nil && len(percents) > 0 {
		snap.CPUPercent = percents[0]
	} else {
		snap.Unavailable = append(snap.Unavailable, "cpu")
	}

	if vm, err := mem.VirtualMemoryWithContext(ctx); err == nil {
		snap.MemoryPercent = vm.UsedPercent
		snap.MemoryUsed = vm.Used
		snap.MemoryTotal = vm.Total
	} else {
		snap.Unavailable = append(snap.Unavailable, "memory")
	}

	if avg, err := load.AvgWithContext(ctx); err == nil {
		snap.Load1 = avg.Load1
	} else {
		snap.Unavailable = append(snap.Unavailable, "load")
	}

	if uptime, err := host.UptimeWithContext(ctx); err == nil {
		snap.HostUptime = uptime
	} else {
		snap.Unavailable = append(snap.Unavailable, "uptime")
	}

	return snap
}
