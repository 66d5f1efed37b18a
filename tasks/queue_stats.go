package tasks

import (
	"fmt"
	"log"
	"runtime"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/jmoiron/sqlx"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"

	"lemmy-mod-bot/model"
	queuedb "lemmy-mod-bot/utils/database/modqueue"
	"lemmy-mod-bot/utils/database/records"
)

// BotProvider is the slice of the bot the stats task needs.
type BotProvider interface {
	GetSession() *discordgo.Session
	GetConfig() *model.Config
	GetDB() *sqlx.DB
}

// SendQueueStats posts the hourly queue and host statistics embed to the
// configured stats channel. Missing channel means the task is disabled.
func SendQueueStats(b BotProvider) {
	cfg := b.GetConfig()
	if cfg.StatsChannelID == "" {
		return
	}
	db := b.GetDB()

	counts, err := queuedb.CountByStatus(db, 0)
	if err != nil {
		log.Printf("[Stats] Error counting queue entries: %v", err)
		return
	}
	postCount, err := records.CountPostRecords(db)
	if err != nil {
		log.Printf("[Stats] Error counting post records: %v", err)
		return
	}
	commentCount, err := records.CountCommentRecords(db)
	if err != nil {
		log.Printf("[Stats] Error counting comment records: %v", err)
		return
	}

	embed := &discordgo.MessageEmbed{
		Title: "Mod Queue Statistics",
		Color: 3447003,
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Pending", Value: fmt.Sprintf("%d", counts[string(model.StatusPending)]), Inline: true},
			{Name: "Completed", Value: fmt.Sprintf("%d", counts[string(model.StatusCompleted)]), Inline: true},
			{Name: "Tracked Posts", Value: fmt.Sprintf("%d", postCount), Inline: true},
			{Name: "Tracked Comments", Value: fmt.Sprintf("%d", commentCount), Inline: true},
			{Name: "Communities", Value: fmt.Sprintf("%d", len(cfg.Communities)), Inline: true},
		},
		Timestamp: time.Now().Format(time.RFC3339),
	}

	if percents, err := cpu.Percent(time.Second, false); err == nil && len(percents) > 0 {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name: "CPU", Value: fmt.Sprintf("%.1f%%", percents[0]), Inline: true,
		})
	}
	if vm, err := mem.VirtualMemory(); err == nil {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name: "Memory", Value: fmt.Sprintf("%.1f%% of %.1f GB", vm.UsedPercent, float64(vm.Total)/1024/1024/1024), Inline: true,
		})
	}

	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)
	embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
		Name: "Goroutines", Value: fmt.Sprintf("%d (heap %.1f MB)", runtime.NumGoroutine(), float64(ms.HeapAlloc)/1024/1024), Inline: true,
	})

	if _, err := b.GetSession().ChannelMessageSendEmbed(cfg.StatsChannelID, embed); err != nil {
		log.Printf("[Stats] Error sending stats embed: %v", err)
	}
}
