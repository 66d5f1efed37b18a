package handlers

import (
	"fmt"

	"github.com/bwmarrin/discordgo"

	"lemmy-mod-bot/events"
	"lemmy-mod-bot/model"
)

const (
	colorCreated = 3066993  // Green
	colorUpdated = 3447003  // Blue
	colorDeleted = 10038562 // Dark red
	colorReport  = 15105570 // Orange
)

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}

func flagSummary(removed, deleted, locked bool) string {
	flags := ""
	if removed {
		flags += "removed "
	}
	if deleted {
		flags += "deleted "
	}
	if locked {
		flags += "locked "
	}
	if flags == "" {
		return "none"
	}
	return flags
}

func postEmbed(title string, color int, view *model.PostView) *discordgo.MessageEmbed {
	embed := &discordgo.MessageEmbed{
		Title: title + ": " + truncate(view.Post.Name, 200),
		Color: color,
		URL:   view.Post.URL,
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Author", Value: view.Creator.Name, Inline: true},
			{Name: "Community", Value: view.Community.Name, Inline: true},
			{Name: "Flags", Value: flagSummary(view.Post.Removed, view.Post.Deleted, view.Post.Locked), Inline: true},
		},
		Footer: &discordgo.MessageEmbedFooter{Text: fmt.Sprintf("Post ID: %d", view.Post.ID)},
	}
	if view.Post.Body != "" {
		embed.Description = truncate(view.Post.Body, 500)
	}
	return embed
}

func commentEmbed(title string, color int, view *model.CommentView) *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{
		Title:       title + " on: " + truncate(view.Post.Name, 200),
		Color:       color,
		Description: truncate(view.Comment.Content, 500),
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Author", Value: view.Creator.Name, Inline: true},
			{Name: "Community", Value: view.Community.Name, Inline: true},
			{Name: "Flags", Value: flagSummary(view.Comment.Removed, view.Comment.Deleted, false), Inline: true},
		},
		Footer: &discordgo.MessageEmbedFooter{Text: fmt.Sprintf("Comment ID: %d", view.Comment.ID)},
	}
}

func postReportEmbed(view *model.PostReportView) *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{
		Title:       "Post Reported: " + truncate(view.Post.Name, 200),
		Color:       colorReport,
		Description: truncate(view.PostReport.Reason, 500),
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Reporter", Value: view.Creator.Name, Inline: true},
			{Name: "Post Author", Value: view.PostCreator.Name, Inline: true},
			{Name: "Community", Value: view.Community.Name, Inline: true},
		},
		Footer: &discordgo.MessageEmbedFooter{Text: fmt.Sprintf("Report ID: %d | Post ID: %d", view.PostReport.ID, view.Post.ID)},
	}
}

func commentReportEmbed(view *model.CommentReportView) *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{
		Title:       "Comment Reported on: " + truncate(view.Post.Name, 200),
		Color:       colorReport,
		Description: truncate(view.CommentReport.Reason, 500),
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Reporter", Value: view.Creator.Name, Inline: true},
			{Name: "Comment", Value: truncate(view.Comment.Content, 200), Inline: false},
			{Name: "Community", Value: view.Community.Name, Inline: true},
		},
		Footer: &discordgo.MessageEmbedFooter{Text: fmt.Sprintf("Report ID: %d | Comment ID: %d", view.CommentReport.ID, view.Comment.ID)},
	}
}

func postButtons(postID int) []discordgo.MessageComponent {
	return []discordgo.MessageComponent{
		discordgo.ActionsRow{
			Components: []discordgo.MessageComponent{
				discordgo.Button{Label: "Remove", Style: discordgo.DangerButton, CustomID: fmt.Sprintf("remove_post_true_%d", postID)},
				discordgo.Button{Label: "Restore", Style: discordgo.SuccessButton, CustomID: fmt.Sprintf("remove_post_false_%d", postID)},
				discordgo.Button{Label: "Lock", Style: discordgo.SecondaryButton, CustomID: fmt.Sprintf("lock_post_true_%d", postID)},
				discordgo.Button{Label: "Ban Author", Style: discordgo.DangerButton, CustomID: fmt.Sprintf("ban_post_true_%d", postID)},
				discordgo.Button{Label: "Refresh", Style: discordgo.SecondaryButton, CustomID: fmt.Sprintf("refresh_post_%d", postID)},
			},
		},
	}
}

func commentButtons(commentID int) []discordgo.MessageComponent {
	return []discordgo.MessageComponent{
		discordgo.ActionsRow{
			Components: []discordgo.MessageComponent{
				discordgo.Button{Label: "Remove", Style: discordgo.DangerButton, CustomID: fmt.Sprintf("remove_comment_true_%d", commentID)},
				discordgo.Button{Label: "Restore", Style: discordgo.SuccessButton, CustomID: fmt.Sprintf("remove_comment_false_%d", commentID)},
				discordgo.Button{Label: "Ban Author", Style: discordgo.DangerButton, CustomID: fmt.Sprintf("ban_comment_true_%d", commentID)},
				discordgo.Button{Label: "Refresh", Style: discordgo.SecondaryButton, CustomID: fmt.Sprintf("refresh_comment_%d", commentID)},
			},
		},
	}
}

func postReportButtons(reportID, postID int) []discordgo.MessageComponent {
	return []discordgo.MessageComponent{
		discordgo.ActionsRow{
			Components: []discordgo.MessageComponent{
				discordgo.Button{Label: "Approve", Style: discordgo.SuccessButton, CustomID: fmt.Sprintf("resolve_postreport_true_%d_%d", reportID, postID)},
				discordgo.Button{Label: "Reopen", Style: discordgo.SecondaryButton, CustomID: fmt.Sprintf("resolve_postreport_false_%d_%d", reportID, postID)},
				discordgo.Button{Label: "Remove Post", Style: discordgo.DangerButton, CustomID: fmt.Sprintf("remove_post_true_%d", postID)},
				discordgo.Button{Label: "Ban Author", Style: discordgo.DangerButton, CustomID: fmt.Sprintf("ban_post_true_%d", postID)},
			},
		},
	}
}

func commentReportButtons(reportID, commentID int) []discordgo.MessageComponent {
	return []discordgo.MessageComponent{
		discordgo.ActionsRow{
			Components: []discordgo.MessageComponent{
				discordgo.Button{Label: "Approve", Style: discordgo.SuccessButton, CustomID: fmt.Sprintf("resolve_commentreport_true_%d_%d", reportID, commentID)},
				discordgo.Button{Label: "Reopen", Style: discordgo.SecondaryButton, CustomID: fmt.Sprintf("resolve_commentreport_false_%d_%d", reportID, commentID)},
				discordgo.Button{Label: "Remove Comment", Style: discordgo.DangerButton, CustomID: fmt.Sprintf("remove_comment_true_%d", commentID)},
				discordgo.Button{Label: "Ban Author", Style: discordgo.DangerButton, CustomID: fmt.Sprintf("ban_comment_true_%d", commentID)},
			},
		},
	}
}

// feedMessage maps a change event onto the embed, buttons, and feed config
// used to post it.
func feedMessage(chg events.Change) (*discordgo.MessageEmbed, []discordgo.MessageComponent, model.DiscordFeedConfig) {
	dc := chg.Config.Discord
	switch chg.Name {
	case events.PostCreated:
		return postEmbed("New Post", colorCreated, chg.Post), postButtons(chg.Post.Post.ID), dc.Posts
	case events.PostUpdated:
		return postEmbed("Post Updated", colorUpdated, chg.Post), postButtons(chg.Post.Post.ID), dc.Posts
	case events.PostDeleted:
		return postEmbed("Post Deletion Toggled", colorDeleted, chg.Post), postButtons(chg.Post.Post.ID), dc.Posts
	case events.CommentCreated:
		return commentEmbed("New Comment", colorCreated, chg.Comment), commentButtons(chg.Comment.Comment.ID), dc.Comments
	case events.CommentUpdated:
		return commentEmbed("Comment Updated", colorUpdated, chg.Comment), commentButtons(chg.Comment.Comment.ID), dc.Comments
	case events.CommentDeleted:
		return commentEmbed("Comment Deletion Toggled", colorDeleted, chg.Comment), commentButtons(chg.Comment.Comment.ID), dc.Comments
	case events.PostReportCreated:
		return postReportEmbed(chg.PostReport), postReportButtons(chg.PostReport.PostReport.ID, chg.PostReport.Post.ID), dc.Reports
	case events.CommentReportCreated:
		return commentReportEmbed(chg.CommentReport), commentReportButtons(chg.CommentReport.CommentReport.ID, chg.CommentReport.Comment.ID), dc.Reports
	}
	return nil, nil, model.DiscordFeedConfig{}
}
