package main

import (
	"context"
	"log"
	"os"

	"lemmy-mod-bot/bot"
	"lemmy-mod-bot/config"
	"lemmy-mod-bot/events"
	"lemmy-mod-bot/handlers"
	"lemmy-mod-bot/lemmy"
	"lemmy-mod-bot/modqueue"
	"lemmy-mod-bot/reconciler"
	"lemmy-mod-bot/utils/database"
	queuedb "lemmy-mod-bot/utils/database/modqueue"
	"lemmy-mod-bot/utils/database/records"
	"lemmy-mod-bot/workflow"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Error loading config: %v", err)
	}
	if err := os.MkdirAll("./data", os.ModePerm); err != nil {
		log.Fatalf("Failed to create data directory: %v", err)
	}

	db, err := database.Open(cfg.DBPath)
	if err != nil {
		log.Fatalf("Error initializing database: %v", err)
	}
	if err := records.Init(db); err != nil {
		log.Fatalf("Error creating record tables: %v", err)
	}
	if err := queuedb.Init(db); err != nil {
		log.Fatalf("Error creating mod queue tables: %v", err)
	}

	b, err := bot.New(cfg, db)
	if err != nil {
		log.Fatalf("Error creating bot: %v", err)
	}

	client := lemmy.NewHTTPClient(cfg.LemmyInstance)
	if cfg.LemmyUsername != "" && cfg.LemmyPassword != "" {
		jwt, err := client.Login(context.Background(), cfg.LemmyUsername, cfg.LemmyPassword)
		if err != nil {
			log.Fatalf("Error logging in to Lemmy: %v", err)
		}
		b.SetAuth(jwt)
	} else {
		log.Println("Warning: no Lemmy credentials set, running with public data only")
	}

	bus := events.NewBus()
	queue := modqueue.New(db)
	queue.Register(bus)

	rec := reconciler.New(db, bus, b.GetConfig)
	recheck := workflow.NewRecheckScheduler()
	engine := workflow.NewEngine(client, queue, recheck, b.GetConfig, b.GetAuth)

	b.Client = client
	b.Bus = bus
	b.Queue = queue
	b.Engine = engine
	b.Reconciler = rec
	b.Fetcher = reconciler.NewFetcher(client, rec, b.GetConfig, b.GetAuth)
	b.Recheck = recheck

	handlers.Register(b)

	defer b.Close()
	if err := b.Run(); err != nil {
		log.Fatalf("Error running bot: %v", err)
	}
}
