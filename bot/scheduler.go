package bot

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"lemmy-mod-bot/tasks"
	"lemmy-mod-bot/utils"
)

// Scheduler drives the periodic work: the fetch/reconcile cycle, the hourly
// stats report, and draining of per-item reconcile errors.
type Scheduler struct {
	bot    *Bot
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewScheduler(b *Bot) *Scheduler {
	return &Scheduler{bot: b}
}

func (s *Scheduler) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel

	go func() {
		<-s.bot.Done()
		cancel()
	}()

	s.wg.Add(3)
	go s.runFetchLoop(ctx)
	go s.runStatsLoop(ctx)
	go s.drainReconcileErrors(ctx)
	log.Println("[Scheduler] Started.")
}

func (s *Scheduler) Stop() {
	if s.cancel != nil {
		s.cancel()
	}
	s.wg.Wait()
	log.Println("[Scheduler] Stopped.")
}

func (s *Scheduler) runFetchLoop(ctx context.Context) {
	defer s.wg.Done()

	// First cycle immediately, then on the configured interval.
	s.bot.Fetcher.FetchCycle(ctx)

	ticker := time.NewTicker(s.bot.GetConfig().PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.bot.Fetcher.FetchCycle(ctx)
		}
	}
}

func (s *Scheduler) runStatsLoop(ctx context.Context) {
	defer s.wg.Done()

	ticker := time.NewTicker(1 * time.Hour)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			tasks.SendQueueStats(s.bot)
		}
	}
}

// drainReconcileErrors forwards per-item reconcile failures to the Discord
// log channel. The reconciler already wrote them to stdout.
func (s *Scheduler) drainReconcileErrors(ctx context.Context) {
	defer s.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case item := <-s.bot.Reconciler.Errors():
			cfg := s.bot.GetConfig()
			utils.LogWarn(s.bot.GetSession(), cfg.LogChannelID, "Reconciler",
				fmt.Sprintf("reconcile %s %d", item.Kind, item.ID), item.Err.Error())
		}
	}
}
