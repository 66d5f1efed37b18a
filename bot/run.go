package bot

import (
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"lemmy-mod-bot/utils"
)

// Run opens the Discord session, starts the scheduler, and blocks until an
// interrupt arrives.
func (b *Bot) Run() error {
	if err := b.Session.Open(); err != nil {
		return fmt.Errorf("error opening connection: %w", err)
	}

	cfg := b.GetConfig()
	utils.LogInfo(b.Session, cfg.LogChannelID, "Bot", "Startup",
		fmt.Sprintf("Watching %d communities on %s", len(cfg.Communities), cfg.LemmyInstance))

	b.GetScheduler().Start()

	log.Println("Bot is now running. Press CTRL-C to exit.")
	sc := make(chan os.Signal, 1)
	signal.Notify(sc, syscall.SIGINT, syscall.SIGTERM, os.Interrupt)
	<-sc

	return nil
}
