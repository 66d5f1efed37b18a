package handlers

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"

	"lemmy-mod-bot/bot"
	"lemmy-mod-bot/model"
	"lemmy-mod-bot/modqueue"
)

const interactionTimeout = 30 * time.Second

func handleInteraction(b *bot.Bot, s *discordgo.Session, i *discordgo.InteractionCreate) {
	if i.Type != discordgo.InteractionMessageComponent {
		return
	}

	customID := i.MessageComponentData().CustomID
	parts := strings.Split(customID, "_")
	if len(parts) < 3 {
		return
	}

	auth := b.GetAuth()
	if auth == "" {
		respondEphemeral(s, i, "Bot is not logged in to Lemmy; cannot perform moderation actions.")
		return
	}

	actor := actorFrom(i)
	ctx, cancel := context.WithTimeout(context.Background(), interactionTimeout)
	defer cancel()

	var (
		msg string
		err error
	)
	switch parts[0] {
	case "remove", "lock", "ban":
		msg, err = handleContentAction(ctx, b, parts, actor, auth)
	case "resolve":
		msg, err = handleReportAction(ctx, b, parts, actor, auth)
	case "refresh":
		msg, err = handleRefresh(ctx, b, parts)
	default:
		return
	}

	if err != nil {
		log.Printf("[Interaction] Error handling %s: %v", customID, err)
		respondEphemeral(s, i, "Action failed: "+err.Error())
		return
	}
	respondEphemeral(s, i, msg)
}

func actorFrom(i *discordgo.InteractionCreate) model.Actor {
	user := i.User
	if i.Member != nil {
		user = i.Member.User
	}
	if user == nil {
		return model.Actor{Name: "unknown"}
	}
	// Discord reviewers have no Lemmy person id; the note history carries
	// their username instead.
	return model.Actor{Name: user.Username}
}

// handleContentAction covers remove_{post|comment}_{bool}_{id},
// lock_post_{bool}_{id}, and ban_{post|comment}_{bool}_{id}. When the target
// has a queue entry the decision goes through the workflow engine; otherwise
// the Lemmy command is issued directly with the bot's credential.
func handleContentAction(ctx context.Context, b *bot.Bot, parts []string, actor model.Actor, auth string) (string, error) {
	if len(parts) != 4 {
		return "", fmt.Errorf("malformed custom id")
	}
	action, kind := parts[0], parts[1]
	flag := parts[2] == "true"
	id, err := strconv.Atoi(parts[3])
	if err != nil {
		return "", fmt.Errorf("malformed target id %q", parts[3])
	}

	targetKind := model.TargetPost
	if kind == "comment" {
		targetKind = model.TargetComment
	}

	var decision *model.QueueEntryResult
	switch action {
	case "remove":
		if flag {
			decision = resultPtr(model.ResultRemoved)
		} else {
			decision = resultPtr(model.ResultApproved)
		}
	case "lock":
		decision = resultPtr(model.ResultLocked)
	case "ban":
		if flag {
			decision = resultPtr(model.ResultBanned)
		} else {
			decision = resultPtr(model.ResultApproved)
		}
	}

	entry, err := b.Queue.GetByTarget(targetKind, id, 0)
	if err == nil {
		if _, err := b.Engine.ApplyDecision(ctx, entry.ID, decision, "", actor, auth); err != nil {
			return "", err
		}
		return fmt.Sprintf("Queue entry %d marked %s.", entry.ID, *decision), nil
	}
	if !errors.Is(err, modqueue.ErrNotFound) {
		return "", err
	}

	return directContentAction(ctx, b, action, kind, id, flag, auth)
}

// directContentAction issues a moderation command for content that never
// entered the queue.
func directContentAction(ctx context.Context, b *bot.Bot, action, kind string, id int, flag bool, auth string) (string, error) {
	switch action {
	case "remove":
		if kind == "comment" {
			if err := b.Client.RemoveComment(ctx, auth, id, flag, ""); err != nil {
				return "", err
			}
			return fmt.Sprintf("Comment %d removed=%v.", id, flag), nil
		}
		if err := b.Client.RemovePost(ctx, auth, id, flag, ""); err != nil {
			return "", err
		}
		return fmt.Sprintf("Post %d removed=%v.", id, flag), nil
	case "lock":
		if err := b.Client.LockPost(ctx, auth, id, flag); err != nil {
			return "", err
		}
		return fmt.Sprintf("Post %d locked=%v.", id, flag), nil
	case "ban":
		// The ban needs the community and author, which the custom id does
		// not carry. Look the content up first.
		communityID, creatorID, err := lookupOwnership(ctx, b, kind, id, auth)
		if err != nil {
			return "", err
		}
		if err := b.Client.BanFromCommunity(ctx, auth, communityID, creatorID, flag, ""); err != nil {
			return "", err
		}
		return fmt.Sprintf("User %d banned=%v from community %d.", creatorID, flag, communityID), nil
	}
	return "", fmt.Errorf("unknown action %q", action)
}

func lookupOwnership(ctx context.Context, b *bot.Bot, kind string, id int, auth string) (communityID, creatorID int, err error) {
	if kind == "comment" {
		view, err := b.Client.GetComment(ctx, auth, id)
		if err != nil {
			return 0, 0, err
		}
		return view.Community.ID, view.Comment.CreatorID, nil
	}
	view, err := b.Client.GetPost(ctx, auth, id)
	if err != nil {
		return 0, 0, err
	}
	return view.Community.ID, view.Post.CreatorID, nil
}

// handleReportAction covers resolve_{postreport|commentreport}_{bool}_{reportID}_{targetID}.
// true approves the report's entry, false reopens it.
func handleReportAction(ctx context.Context, b *bot.Bot, parts []string, actor model.Actor, auth string) (string, error) {
	if len(parts) != 5 {
		return "", fmt.Errorf("malformed custom id")
	}
	approve := parts[2] == "true"
	reportID, err := strconv.Atoi(parts[3])
	if err != nil {
		return "", fmt.Errorf("malformed report id %q", parts[3])
	}
	targetID, err := strconv.Atoi(parts[4])
	if err != nil {
		return "", fmt.Errorf("malformed target id %q", parts[4])
	}

	targetKind := model.TargetPostReport
	if parts[1] == "commentreport" {
		targetKind = model.TargetCommentReport
	}

	entry, err := b.Queue.GetByTarget(targetKind, targetID, reportID)
	if err == nil {
		var decision *model.QueueEntryResult
		if approve {
			decision = resultPtr(model.ResultApproved)
		}
		if _, err := b.Engine.ApplyDecision(ctx, entry.ID, decision, "", actor, auth); err != nil {
			return "", err
		}
		if approve {
			return fmt.Sprintf("Report entry %d approved and resolved.", entry.ID), nil
		}
		return fmt.Sprintf("Report entry %d reopened.", entry.ID), nil
	}
	if !errors.Is(err, modqueue.ErrNotFound) {
		return "", err
	}

	if targetKind == model.TargetCommentReport {
		err = b.Client.ResolveCommentReport(ctx, auth, reportID, approve)
	} else {
		err = b.Client.ResolvePostReport(ctx, auth, reportID, approve)
	}
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("Report %d resolved=%v.", reportID, approve), nil
}

// handleRefresh covers refresh_{post|comment}_{id}: re-pull the current view
// into the queue entry without changing its state.
func handleRefresh(ctx context.Context, b *bot.Bot, parts []string) (string, error) {
	if len(parts) != 3 {
		return "", fmt.Errorf("malformed custom id")
	}
	id, err := strconv.Atoi(parts[2])
	if err != nil {
		return "", fmt.Errorf("malformed target id %q", parts[2])
	}

	targetKind := model.TargetPost
	if parts[1] == "comment" {
		targetKind = model.TargetComment
	}

	entry, err := b.Queue.GetByTarget(targetKind, id, 0)
	if err != nil {
		if errors.Is(err, modqueue.ErrNotFound) {
			return "No queue entry tracks this item; nothing to refresh.", nil
		}
		return "", err
	}
	if _, err := b.Engine.Refresh(ctx, entry.ID); err != nil {
		return "", err
	}
	return fmt.Sprintf("Queue entry %d refreshed.", entry.ID), nil
}

func resultPtr(r model.QueueEntryResult) *model.QueueEntryResult {
	return &r
}

func respondEphemeral(s *discordgo.Session, i *discordgo.InteractionCreate, content string) {
	err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: content,
			Flags:   discordgo.MessageFlagsEphemeral,
		},
	})
	if err != nil {
		log.Printf("[Interaction] Error responding to interaction: %v", err)
	}
}
