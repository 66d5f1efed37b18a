package handlers

import (
	"log"

	"github.com/bwmarrin/discordgo"

	"lemmy-mod-bot/bot"
	"lemmy-mod-bot/events"
)

// registerFeeds subscribes the Discord change feed to the bus. The send runs
// in its own goroutine so a slow Discord API never stalls reconciliation.
func registerFeeds(b *bot.Bot) {
	handler := func(chg events.Change) error {
		dc := chg.Config.Discord
		if !dc.Enabled {
			return nil
		}

		embed, components, feed := feedMessage(chg)
		if embed == nil || !feed.Enabled {
			return nil
		}
		channel := dc.FeedChannel(feed)
		if channel == "" {
			return nil
		}

		go func() {
			_, err := b.Session.ChannelMessageSendComplex(channel, &discordgo.MessageSend{
				Embeds:     []*discordgo.MessageEmbed{embed},
				Components: components,
			})
			if err != nil {
				log.Printf("[Feed] Error sending %s to channel %s: %v", chg.Name, channel, err)
			}
		}()
		return nil
	}

	for _, name := range []events.EventName{
		events.PostCreated, events.PostUpdated, events.PostDeleted,
		events.CommentCreated, events.CommentUpdated, events.CommentDeleted,
		events.PostReportCreated, events.CommentReportCreated,
	} {
		b.Bus.Subscribe(name, "discordfeed", handler)
	}
}
