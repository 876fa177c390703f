package observability

import (
	"log/slog"
	"os"
	"runtime"
	"time"

	"github.com/shirou/gopsutil/process"
)

// Stats aggregates process and runtime metrics for the status endpoint.
type Stats struct {
	PidStatus     string  `json:"pid_status"`
	CpuPercent    float64 `json:"cpu_percent"`
	RamBytes      uint64  `json:"ram_bytes"`
	AllocMemMb    uint64  `json:"alloc_mem_mb"`
	NumGC         uint32  `json:"num_gc"`
	Goroutines    int     `json:"goroutines"`
	UptimeSeconds int64   `json:"uptime_seconds"`
	OnlinePlayers int     `json:"online_players"`
}

// Monitor samples the server's own process.
type Monitor struct {
	log     *slog.Logger
	proc    *process.Process
	started time.Time
}

func NewMonitor(log *slog.Logger) (*Monitor, error) {
	p, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		return nil, err
	}
	return &Monitor{log: log, proc: p, started: time.Now()}, nil
}

// Snapshot collects current metrics. onlinePlayers is supplied by the
// caller so the monitor stays decoupled from the registry.
func (m *Monitor) Snapshot(onlinePlayers int) (Stats, error) {
	memInfo, err := m.proc.MemoryInfo()
	if err != nil {
		return Stats{}, err
	}
	cpuPercent, err := m.proc.CPUPercent()
	if err != nil {
		return Stats{}, err
	}
	status, err := m.proc.Status()
	if err != nil {
		return Stats{}, err
	}

	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)

	return Stats{
		PidStatus:     status,
		CpuPercent:    cpuPercent,
		RamBytes:      memInfo.RSS,
		AllocMemMb:    ms.Alloc / 1024 / 1024,
		NumGC:         ms.NumGC,
		Goroutines:    runtime.NumGoroutine(),
		UptimeSeconds: int64(time.Since(m.started).Seconds()),
		OnlinePlayers: onlinePlayers,
	}, nil
}
