package bot

import (
	"log"
	"sync/atomic"

	"github.com/bwmarrin/discordgo"
	"github.com/jmoiron/sqlx"

	"lemmy-mod-bot/config"
	"lemmy-mod-bot/events"
	"lemmy-mod-bot/lemmy"
	"lemmy-mod-bot/model"
	"lemmy-mod-bot/modqueue"
	"lemmy-mod-bot/reconciler"
	"lemmy-mod-bot/workflow"
)

// Bot aggregates the Discord session, the Lemmy pipeline, and the services
// built by the composition root in main.
type Bot struct {
	Session    *discordgo.Session
	DB         *sqlx.DB
	Client     lemmy.Client
	Bus        *events.Bus
	Queue      *modqueue.Service
	Engine     *workflow.Engine
	Fetcher    *reconciler.Fetcher
	Reconciler *reconciler.Reconciler
	Recheck    *workflow.RecheckScheduler

	config    atomic.Value // *model.Config
	auth      atomic.Value // string, the bot's Lemmy JWT
	scheduler *Scheduler
	done      chan struct{}
}

func New(cfg *model.Config, db *sqlx.DB) (*Bot, error) {
	dg, err := discordgo.New("Bot " + cfg.BotToken)
	if err != nil {
		return nil, err
	}
	dg.Identify.Intents = discordgo.IntentsGuilds | discordgo.IntentsGuildMessages
	dg.StateEnabled = false

	b := &Bot{
		Session: dg,
		DB:      db,
		done:    make(chan struct{}),
	}
	b.config.Store(cfg)
	b.auth.Store("")
	return b, nil
}

func (b *Bot) GetConfig() *model.Config {
	return b.config.Load().(*model.Config)
}

func (b *Bot) GetSession() *discordgo.Session {
	return b.Session
}

func (b *Bot) GetDB() *sqlx.DB {
	return b.DB
}

// GetAuth returns the bot's Lemmy token; empty when not logged in.
func (b *Bot) GetAuth() string {
	return b.auth.Load().(string)
}

func (b *Bot) SetAuth(jwt string) {
	b.auth.Store(jwt)
}

func (b *Bot) Done() <-chan struct{} {
	return b.done
}

func (b *Bot) GetScheduler() *Scheduler {
	if b.scheduler == nil {
		b.scheduler = NewScheduler(b)
	}
	return b.scheduler
}

// ReloadConfig re-reads the configuration from disk and swaps it in. The
// pipeline picks the new config up through the bot's provider funcs.
func (b *Bot) ReloadConfig() error {
	log.Println("Reloading configuration...")
	newCfg, err := config.Load()
	if err != nil {
		log.Printf("Error reloading config: %v", err)
		return err
	}
	b.config.Store(newCfg)
	log.Println("Configuration reloaded successfully.")
	return nil
}

func (b *Bot) Close() {
	log.Println("Gracefully shutting down.")
	close(b.done) // Signal all goroutines to stop

	if b.scheduler != nil {
		b.scheduler.Stop()
	}
	if b.Recheck != nil {
		b.Recheck.Stop()
	}
	b.Session.Close()
	if b.DB != nil {
		b.DB.Close()
	}
}
