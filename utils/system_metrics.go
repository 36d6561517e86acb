package utils

import (
	"context"
	"time"

	"tonotes/contextutil"

	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/mem"
)

type SystemStats struct {
	CPUPercent    float64 `json:"cpu_percent"`
	MemoryPercent float64 `json:"memory_percent"`
	MemoryUsedMB  uint64  `json:"memory_used_mb"`
}

// GetCPUUsage returns the current CPU usage as a percentage
func GetCPUUsage(ctx context.Context, interval time.Duration) float64 {
	percentage, err := cpu.PercentWithContext(ctx, interval, false)
	if err != nil {
		contextutil.LoggerFromContext(ctx).Warn("failed to read cpu usage", "error", err)
		return 0
	}
	if len(percentage) > 0 {
		return percentage[0]
	}
	return 0
}

// GetSystemStats samples CPU over interval along with memory usage.
func GetSystemStats(ctx context.Context, interval time.Duration) SystemStats {
	stats := SystemStats{CPUPercent: GetCPUUsage(ctx, interval)}

	vm, err := mem.VirtualMemoryWithContext(ctx)
	if err != nil {
		contextutil.LoggerFromContext(ctx).Warn("failed to read memory usage", "error", err)
		return stats
	}
	stats.MemoryPercent = vm.UsedPercent
	stats.MemoryUsedMB = vm.Used / 1024 / 1024
	return stats
}
