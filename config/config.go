package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"lemmy-mod-bot/model"
)

// Load loads the configuration from environment variables, the config file,
// and the per-community JSON file.
func Load() (*model.Config, error) {
	// Load .env file
	if err := godotenv.Load(); err != nil {
		log.Println("Info: .env file not found, relying on environment variables")
	}

	token := os.Getenv("BOT_TOKEN")
	if token == "" {
		return nil, fmt.Errorf("BOT_TOKEN environment variable not set")
	}

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("data")

	v.SetDefault("lemmy.instance", "")
	v.SetDefault("database.path", "data/lemmy-mod.db")
	v.SetDefault("scheduler.poll_interval", "5m")
	v.SetDefault("scheduler.fetch_delay", "5s")
	v.SetDefault("scheduler.recheck_delay", "5s")
	v.SetDefault("discord.log_channel", "")
	v.SetDefault("discord.stats_channel", "")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		log.Println("Warning: config file not found, using defaults")
	}

	instance := v.GetString("lemmy.instance")
	if env := os.Getenv("LEMMY_INSTANCE"); env != "" {
		instance = env
	}
	if instance == "" {
		return nil, fmt.Errorf("lemmy.instance not configured")
	}

	cfg := &model.Config{
		BotToken:       token,
		LogChannelID:   v.GetString("discord.log_channel"),
		StatsChannelID: v.GetString("discord.stats_channel"),
		LemmyInstance:  instance,
		LemmyUsername:  os.Getenv("LEMMY_USERNAME"),
		LemmyPassword:  os.Getenv("LEMMY_PASSWORD"),
		DBPath:         v.GetString("database.path"),
		PollInterval:   parseDuration(v.GetString("scheduler.poll_interval"), 5*time.Minute),
		FetchDelay:     parseDuration(v.GetString("scheduler.fetch_delay"), 5*time.Second),
		RecheckDelay:   parseDuration(v.GetString("scheduler.recheck_delay"), 5*time.Second),
		Communities:    make(map[string]model.CommunityConfig),
	}

	// Load community configs
	if err := loadJSON("data/communities.json", &cfg.Communities); err != nil {
		return nil, err
	}

	return cfg, nil
}

func parseDuration(value string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(value)
	if err != nil {
		log.Printf("Warning: invalid duration %q, using default of %v. Error: %v", value, fallback, err)
		return fallback
	}
	return d
}

func loadJSON(path string, v interface{}) error {
	configFile, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			log.Printf("Warning: Config file not found at %s, skipping.", path)
			return nil
		}
		return err
	}
	return json.Unmarshal(configFile, v)
}
