package workers

import (
	"context"
	"log/slog"

	"talkboard/contract"
	"talkboard/domain/event"
)

// Ensure the workers satisfy contract.Worker at compile time.
var (
	_ contract.Worker = (*FanoutWorker)(nil)
	_ contract.Worker = (*OnlineStatsWorker)(nil)
)

// FanoutWorker drains the dispatcher's outbound queue and performs the
// actual delivery through the router. Keeping delivery on its own goroutine
// means a slow consumer can never stall a record store mutation.
//
// Best-effort only: no ordering guarantee between topics, no retries.
type FanoutWorker struct {
	log    *slog.Logger
	router contract.IRouter
	queue  <-chan event.Outbound
}

func NewFanoutWorker(log *slog.Logger, router contract.IRouter, queue <-chan event.Outbound) *FanoutWorker {
	return &FanoutWorker{log: log, router: router, queue: queue}
}

func (w *FanoutWorker) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			w.log.Debug("Stopping worker")
			return nil
		case out, ok := <-w.queue:
			if !ok {
				return nil
			}
			w.Fanout(out)
		}
	}
}

// Fanout routes one outbound event to its target set.
func (w *FanoutWorker) Fanout(out event.Outbound) {
	switch {
	case out.Global:
		w.router.PublishGlobal(out.Env)
	case out.UserID != "":
		w.router.PublishToUser(out.UserID, out.Env)
	default:
		w.router.Publish(out.Topic, out.Env)
	}
}
