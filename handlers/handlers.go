package handlers

import (
	"github.com/bwmarrin/discordgo"

	"lemmy-mod-bot/bot"
)

// Register wires the Discord presentation layer: the per-community change
// feeds on the event bus and the moderation button interactions.
func Register(b *bot.Bot) {
	registerFeeds(b)
	b.Session.AddHandler(func(s *discordgo.Session, i *discordgo.InteractionCreate) {
		handleInteraction(b, s, i)
	})
}
