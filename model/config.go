package model

import (
	"strconv"
	"time"
)

// ModQueueType selects the community's queue policy. Active queues admit
// every new post and comment; passive queues only admit items that are
// already removed or reported.
type ModQueueType string

const (
	ModQueueActive  ModQueueType = "active"
	ModQueuePassive ModQueueType = "passive"
)

// FeatureFlag enables reconciliation for one entity kind in a community.
type FeatureFlag struct {
	Enabled bool `json:"enabled"`
}

// ModQueueSettings 定义了社区的审核队列策略
type ModQueueSettings struct {
	Enabled bool         `json:"enabled"`
	Type    ModQueueType `json:"type"`
}

// DiscordFeedConfig routes one event feed to a Discord channel.
type DiscordFeedConfig struct {
	Enabled bool   `json:"enabled"`
	Channel string `json:"channel,omitempty"`
}

// DiscordLogConfig holds the per-community Discord presentation settings.
type DiscordLogConfig struct {
	Enabled    bool              `json:"enabled"`
	LogGuild   string            `json:"log_guild"`
	LogChannel string            `json:"log_channel"`
	Posts      DiscordFeedConfig `json:"posts"`
	Comments   DiscordFeedConfig `json:"comments"`
	Reports    DiscordFeedConfig `json:"reports"`
}

// CommunityConfig 定义了每个社区的配置
type CommunityConfig struct {
	Name        string           `json:"name"`
	CommunityID int              `json:"community_id"`
	Posts       FeatureFlag      `json:"posts"`
	Comments    FeatureFlag      `json:"comments"`
	Reports     FeatureFlag      `json:"reports"`
	ModQueue    ModQueueSettings `json:"mod_queue"`
	Discord     DiscordLogConfig `json:"discord"`
}

// FeedChannel resolves the channel for a feed, falling back to the
// community's log channel.
func (c *DiscordLogConfig) FeedChannel(feed DiscordFeedConfig) string {
	if feed.Channel != "" {
		return feed.Channel
	}
	return c.LogChannel
}

// Config 存储应用程序的配置
type Config struct {
	BotToken       string
	LogChannelID   string
	StatsChannelID string

	LemmyInstance string
	LemmyUsername string
	LemmyPassword string

	DBPath       string
	PollInterval time.Duration
	FetchDelay   time.Duration // pause between communities within one cycle
	RecheckDelay time.Duration // deferred re-check after a decision
	Communities  map[string]CommunityConfig
}

// CommunityConfig looks up the config for a community id. nil means the
// community is not moderated by this bot.
func (c *Config) CommunityConfig(communityID int) *CommunityConfig {
	if cc, ok := c.Communities[strconv.Itoa(communityID)]; ok {
		return &cc
	}
	return nil
}
