package workers

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/shirou/gopsutil/process"

	"talkboard/contract"
	"talkboard/domain/event"
)

// OnlineStatsWorker broadcasts the online total to every connection on a
// fixed interval and logs process self-stats alongside it.
type OnlineStatsWorker struct {
	log      *slog.Logger
	presence contract.IPresence
	router   contract.IRouter
	interval time.Duration
}

func NewOnlineStatsWorker(log *slog.Logger, presence contract.IPresence,
	router contract.IRouter, interval time.Duration) *OnlineStatsWorker {
	return &OnlineStatsWorker{log: log, presence: presence, router: router, interval: interval}
}

func (w *OnlineStatsWorker) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	p, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			w.log.Debug("Stopping worker")
			return nil
		case <-ticker.C:
			online := w.presence.Count()
			w.router.PublishGlobal(event.Envelope{
				Name:    event.OnlineStats,
				Payload: event.OnlineStatsPayload{OnlineUsers: online, At: time.Now().UTC()},
			})

			rss, cpu, err := selfStats(p)
			if err != nil {
				w.log.Error("Failed to collect self stats", "err", err)
				continue
			}
			w.log.Debug("Online stats tick",
				"online_users", online,
				"rss_bytes", rss,
				"cpu_percent", cpu)
		}
	}
}

// selfStats retrieves memory and CPU usage for the given process.
func selfStats(p *process.Process) (uint64, float64, error) {
	memInfo, err := p.MemoryInfo()
	if err != nil {
		return 0, 0, err
	}
	cpuPercent, err := p.CPUPercent()
	if err != nil {
		return 0, 0, err
	}
	return memInfo.RSS, cpuPercent, nil
}
