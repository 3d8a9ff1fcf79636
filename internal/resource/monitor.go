// Package resource monitors system CPU and RAM usage and throttles the
// transcription loop when configured caps are exceeded.
package resource

import (
	"context"
	"log/slog"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"
)

// throttleSleep is the pause applied per check while over a cap.
const throttleSleep = 100 * time.Millisecond

// Snapshot is a point-in-time view of system resource usage.
type Snapshot struct {
	CPUPercent float64
	RAMPercent float64
	RAMUsedMB  float64
	RAMTotalMB float64
}

// Monitor checks usage against CPU and RAM percentage caps.
type Monitor struct {
	maxCPUPercent float64
	maxRAMPercent float64

	throttling bool

	// snapshot is swappable for tests.
	snapshot func() (Snapshot, error)
}

// NewMonitor creates a Monitor with the given caps (0-100). The first CPU
// reading primes gopsutil's internal counters so later non-blocking reads
// return real values.
func NewMonitor(maxCPUPercent, maxRAMPercent float64) *Monitor {
	_, _ = cpu.Percent(0, false)
	return &Monitor{
		maxCPUPercent: maxCPUPercent,
		maxRAMPercent: maxRAMPercent,
		snapshot:      systemSnapshot,
	}
}

// systemSnapshot reads current usage without blocking.
func systemSnapshot() (Snapshot, error) {
	percents, err := cpu.Percent(0, false)
	if err != nil {
		return Snapshot{}, err
	}
	var cpuPct float64
	if len(percents) > 0 {
		cpuPct = percents[0]
	}

	vm, err := mem.VirtualMemory()
	if err != nil {
		return Snapshot{}, err
	}

	return Snapshot{
		CPUPercent: cpuPct,
		RAMPercent: vm.UsedPercent,
		RAMUsedMB:  float64(vm.Used) / (1024 * 1024),
		RAMTotalMB: float64(vm.Total) / (1024 * 1024),
	}, nil
}

// Usage returns the current snapshot. Read errors yield a zero snapshot
// rather than failing the caller; monitoring is best-effort.
func (m *Monitor) Usage() Snapshot {
	s, err := m.snapshot()
	if err != nil {
		slog.Warn("resource usage read failed", "error", err)
		return Snapshot{}
	}
	return s
}

// CheckAndThrottle sleeps briefly when usage exceeds a cap and reports
// whether throttling was applied. Transitions in and out of the throttled
// state are logged once each.
func (m *Monitor) CheckAndThrottle(ctx context.Context) bool {
	s := m.Usage()

	if s.CPUPercent > m.maxCPUPercent || s.RAMPercent > m.maxRAMPercent {
		if !m.throttling {
			slog.Warn("resource cap reached, throttling",
				"cpu_percent", s.CPUPercent, "max_cpu_percent", m.maxCPUPercent,
				"ram_percent", s.RAMPercent, "max_ram_percent", m.maxRAMPercent)
			m.throttling = true
		}

		select {
		case <-time.After(throttleSleep):
		case <-ctx.Done():
		}
		return true
	}

	if m.throttling {
		slog.Info("resource usage back under caps")
		m.throttling = false
	}
	return false
}

// Watch polls usage at the given interval until ctx is cancelled, passing
// each snapshot to fn. Used for live status displays.
func (m *Monitor) Watch(ctx context.Context, interval time.Duration, fn func(Snapshot)) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			fn(m.Usage())
		}
	}
}
