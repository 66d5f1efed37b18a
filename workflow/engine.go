package workflow

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"lemmy-mod-bot/lemmy"
	"lemmy-mod-bot/model"
	"lemmy-mod-bot/modqueue"
)

// DefaultReason is recorded when a moderator decides without giving one.
const DefaultReason = "No Reason given"

// ErrInvalidDecision is returned for an unrecognized decision value. It is
// rejected before any external call is made.
var ErrInvalidDecision = errors.New("invalid mod queue decision")

// ConfigProvider returns the current config.
type ConfigProvider func() *model.Config

// AuthProvider returns the bot's own Lemmy token, used only for re-check
// reads. Decision side effects always use the caller's credential.
type AuthProvider func() string

// Engine maps reviewer decisions onto Lemmy commands and queue entry
// transitions. External commands run first, least-reversible last; the first
// failure aborts the transition and leaves the entry untouched.
type Engine struct {
	client  lemmy.Client
	queue   *modqueue.Service
	recheck *RecheckScheduler
	config  ConfigProvider
	auth    AuthProvider
}

func NewEngine(client lemmy.Client, queue *modqueue.Service, recheck *RecheckScheduler, config ConfigProvider, auth AuthProvider) *Engine {
	return &Engine{
		client:  client,
		queue:   queue,
		recheck: recheck,
		config:  config,
		auth:    auth,
	}
}

// ApplyDecision processes one reviewer decision. decision == nil reopens the
// entry. auth is the acting moderator's token, passed through to every
// external command; the engine holds no credentials of its own. The caller
// is responsible for having checked that the actor moderates the entry's
// community.
func (e *Engine) ApplyDecision(ctx context.Context, entryID int64, decision *model.QueueEntryResult, reason string, actor model.Actor, auth string) (*model.QueueEntry, error) {
	if decision != nil && !model.ValidResult(*decision) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidDecision, *decision)
	}

	entry, err := e.queue.GetByID(entryID)
	if err != nil {
		return nil, err
	}

	cfg := e.config().CommunityConfig(entry.Target.CommunityID())
	if cfg == nil {
		return nil, fmt.Errorf("community %d has no moderation config", entry.Target.CommunityID())
	}

	if reason == "" {
		reason = DefaultReason
	}

	if err := e.issueCommands(ctx, entry, *cfg, decision, reason, auth); err != nil {
		return nil, fmt.Errorf("failed to apply decision: %w", err)
	}

	if decision == nil {
		entry.Status = model.StatusPending
		entry.Result = nil
	} else {
		result := *decision
		entry.Result = &result
		entry.Status = model.StatusCompleted
	}
	entry.ResultData = &model.ResultData{ActorID: actor.ID, Reason: reason}

	label := "reopened"
	if decision != nil {
		label = string(*decision)
	}
	entry.ModNotes = append(entry.ModNotes, model.ModNote{
		ActorID:   actor.ID,
		ActorName: actor.Name,
		Note:      label + " - " + reason,
		CreatedAt: time.Now().Unix(),
	})

	updated, err := e.queue.Update(entry)
	if err != nil {
		return nil, err
	}

	e.scheduleRecheck(updated)
	return updated, nil
}

// issueCommands sends the external commands a transition requires, in order,
// stopping at the first failure.
func (e *Engine) issueCommands(ctx context.Context, entry *model.QueueEntry, cfg model.CommunityConfig, decision *model.QueueEntryResult, reason, auth string) error {
	wasBan := entry.Result != nil && *entry.Result == model.ResultBanned
	isReport := model.IsReport(entry.Target)

	if decision == nil {
		if !isReport && e.shouldToggleRemoval(cfg, entry.Target) {
			removed := cfg.ModQueue.Type == model.ModQueueActive
			if err := e.setRemoved(ctx, auth, entry.Target, removed, "Reopened mod queue entry with the reason:- "+reason); err != nil {
				return err
			}
		}
		if wasBan {
			if err := e.client.BanFromCommunity(ctx, auth, entry.Target.CommunityID(), entry.Target.CreatorID(), false, ""); err != nil {
				return err
			}
		}
		if isReport {
			if err := e.resolveReport(ctx, auth, entry.Target, false); err != nil {
				return err
			}
		}
		return nil
	}

	switch *decision {
	case model.ResultApproved:
		if !isReport && e.shouldToggleRemoval(cfg, entry.Target) {
			if err := e.setRemoved(ctx, auth, entry.Target, false, "Approved with the reason:- "+reason); err != nil {
				return err
			}
		}
		if wasBan {
			if err := e.client.BanFromCommunity(ctx, auth, entry.Target.CommunityID(), entry.Target.CreatorID(), false, ""); err != nil {
				return err
			}
		}
		if isReport {
			if err := e.resolveReport(ctx, auth, entry.Target, true); err != nil {
				return err
			}
		}
	case model.ResultRemoved:
		if err := e.setRemoved(ctx, auth, entry.Target, true, "Removed with the reason:- "+reason); err != nil {
			return err
		}
	case model.ResultLocked:
		// Comment-backed entries lock the parent post; Lemmy has no
		// comment-level lock.
		if err := e.client.LockPost(ctx, auth, entry.Target.PostID(), true); err != nil {
			return err
		}
	case model.ResultBanned:
		if err := e.client.BanFromCommunity(ctx, auth, entry.Target.CommunityID(), entry.Target.CreatorID(), true, "Banned with the reason:- "+reason); err != nil {
			return err
		}
	}
	return nil
}

// shouldToggleRemoval reports whether a decision on a non-report entry needs
// to touch the item's removed state: always under an active queue, and under
// a passive queue only when the item is currently removed.
func (e *Engine) shouldToggleRemoval(cfg model.CommunityConfig, target model.QueueTarget) bool {
	if cfg.ModQueue.Type == model.ModQueueActive {
		return true
	}
	return cfg.ModQueue.Type == model.ModQueuePassive && target.Removed()
}

func (e *Engine) setRemoved(ctx context.Context, auth string, target model.QueueTarget, removed bool, reason string) error {
	if target.Kind() == model.TargetComment {
		return e.client.RemoveComment(ctx, auth, target.TargetID(), removed, reason)
	}
	return e.client.RemovePost(ctx, auth, target.PostID(), removed, reason)
}

func (e *Engine) resolveReport(ctx context.Context, auth string, target model.QueueTarget, resolved bool) error {
	switch t := target.(type) {
	case model.PostReportTarget:
		return e.client.ResolvePostReport(ctx, auth, t.ReportID(), resolved)
	case model.CommentReportTarget:
		return e.client.ResolveCommentReport(ctx, auth, t.ReportID(), resolved)
	}
	return nil
}

// scheduleRecheck arms the deferred re-verification for the entry, replacing
// any pending timer for the same underlying post.
func (e *Engine) scheduleRecheck(entry *model.QueueEntry) {
	delay := e.config().RecheckDelay
	if delay <= 0 {
		delay = 5 * time.Second
	}
	entryID := entry.ID
	e.recheck.Schedule(entry.Target.PostID(), delay, func() {
		if _, err := e.Refresh(context.Background(), entryID); err != nil {
			log.Printf("[Workflow] Error re-checking entry %d: %v", entryID, err)
		}
	})
}

// Refresh re-fetches the entry's underlying item from Lemmy and merges the
// fresh view into the entry, leaving status, result, and notes alone. Used
// by the deferred re-check to catch eventual-consistency lag.
func (e *Engine) Refresh(ctx context.Context, entryID int64) (*model.QueueEntry, error) {
	entry, err := e.queue.GetByID(entryID)
	if err != nil {
		return nil, err
	}
	auth := e.auth()

	switch t := entry.Target.(type) {
	case model.PostTarget:
		view, err := e.client.GetPost(ctx, auth, t.View.Post.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to re-fetch post %d: %w", t.View.Post.ID, err)
		}
		entry.Target = model.PostTarget{View: *view}
	case model.CommentTarget:
		view, err := e.client.GetComment(ctx, auth, t.View.Comment.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to re-fetch comment %d: %w", t.View.Comment.ID, err)
		}
		entry.Target = model.CommentTarget{View: *view}
	case model.PostReportTarget:
		view, err := e.client.GetPost(ctx, auth, t.View.Post.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to re-fetch post %d: %w", t.View.Post.ID, err)
		}
		t.View.Post = view.Post
		entry.Target = t
	case model.CommentReportTarget:
		view, err := e.client.GetComment(ctx, auth, t.View.Comment.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to re-fetch comment %d: %w", t.View.Comment.ID, err)
		}
		t.View.Comment = view.Comment
		entry.Target = t
	}

	return e.queue.Update(entry)
}
