package reconciler

import (
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/jmoiron/sqlx"

	"lemmy-mod-bot/events"
	"lemmy-mod-bot/model"
	"lemmy-mod-bot/utils"
	queuedb "lemmy-mod-bot/utils/database/modqueue"
	"lemmy-mod-bot/utils/database/records"
)

// maxConcurrentReconciles caps in-flight reconciliations per entity kind.
const maxConcurrentReconciles = 4

// ConfigProvider returns the current config. Wired to bot.GetConfig so
// reloads take effect without restarting the pipeline.
type ConfigProvider func() *model.Config

// ItemError is a per-item reconciliation failure. Failures never abort the
// batch; they are delivered on the Errors channel instead.
type ItemError struct {
	Kind model.EntityKind
	ID   int
	Err  error
}

// Reconciler diffs incoming snapshots against stored records, persists the
// merge, and publishes classified change events.
type Reconciler struct {
	db     *sqlx.DB
	bus    *events.Bus
	config ConfigProvider

	postSem      chan struct{}
	commentSem   chan struct{}
	postLocks    *utils.KeyedMutex
	commentLocks *utils.KeyedMutex

	errCh chan ItemError
}

func New(db *sqlx.DB, bus *events.Bus, config ConfigProvider) *Reconciler {
	return &Reconciler{
		db:           db,
		bus:          bus,
		config:       config,
		postSem:      make(chan struct{}, maxConcurrentReconciles),
		commentSem:   make(chan struct{}, maxConcurrentReconciles),
		postLocks:    utils.NewKeyedMutex(),
		commentLocks: utils.NewKeyedMutex(),
		errCh:        make(chan ItemError, 64),
	}
}

// Errors exposes per-item failures. The channel is buffered; when nobody
// drains it, errors are still logged and then dropped.
func (r *Reconciler) Errors() <-chan ItemError {
	return r.errCh
}

func (r *Reconciler) reportError(kind model.EntityKind, id int, err error) {
	log.Printf("[Reconciler] Error handling %s %d: %v", kind, id, err)
	select {
	case r.errCh <- ItemError{Kind: kind, ID: id, Err: err}:
	default:
	}
}

// ProcessPosts reconciles a batch of post snapshots with bounded
// concurrency. Each identity is serialized by a keyed lock.
func (r *Reconciler) ProcessPosts(views []model.PostView) {
	var wg sync.WaitGroup
	for _, view := range views {
		wg.Add(1)
		r.postSem <- struct{}{}

		go func(view model.PostView) {
			defer func() {
				<-r.postSem
				wg.Done()
			}()
			if _, err := r.ReconcilePost(view); err != nil {
				r.reportError(model.EntityPost, view.Post.ID, err)
			}
		}(view)
	}
	wg.Wait()
}

// ProcessComments reconciles a batch of comment snapshots.
func (r *Reconciler) ProcessComments(views []model.CommentView) {
	var wg sync.WaitGroup
	for _, view := range views {
		wg.Add(1)
		r.commentSem <- struct{}{}

		go func(view model.CommentView) {
			defer func() {
				<-r.commentSem
				wg.Done()
			}()
			if _, err := r.ReconcileComment(view); err != nil {
				r.reportError(model.EntityComment, view.Comment.ID, err)
			}
		}(view)
	}
	wg.Wait()
}

// ReconcilePost merges one post snapshot into the stored record and returns
// the classified change, or nil for a silent skip / identical resubmission.
func (r *Reconciler) ReconcilePost(view model.PostView) (*events.Change, error) {
	cfg := r.config().CommunityConfig(view.Community.ID)
	if cfg == nil || !cfg.Posts.Enabled {
		return nil, nil
	}

	r.postLocks.Lock(view.Post.ID)
	defer r.postLocks.Unlock(view.Post.ID)

	existing, err := records.GetPostRecord(r.db, view.Post.ID)
	if err != nil {
		return nil, err
	}

	snapshot, err := json.Marshal(view)
	if err != nil {
		return nil, fmt.Errorf("failed to encode post snapshot %d: %w", view.Post.ID, err)
	}

	now := time.Now().Unix()
	record := &model.PostRecord{
		ID:          view.Post.ID,
		CommunityID: view.Community.ID,
		Removed:     view.Post.Removed,
		Deleted:     view.Post.Deleted,
		Locked:      view.Post.Locked,
		UpdatedAt:   view.Post.Updated,
		Snapshot:    string(snapshot),
		FirstSeen:   now,
		LastSeen:    now,
	}

	var name events.EventName
	if existing == nil {
		name = events.PostCreated
	} else {
		record.FirstSeen = existing.FirstSeen
		switch {
		case existing.Deleted != view.Post.Deleted:
			name = events.PostDeleted
		case !equalTimestamp(existing.UpdatedAt, view.Post.Updated):
			name = events.PostUpdated
		}
	}

	if err := records.UpsertPostRecord(r.db, record); err != nil {
		return nil, err
	}
	if name == "" {
		return nil, nil
	}

	chg := events.Change{
		Name:        name,
		CommunityID: view.Community.ID,
		Config:      *cfg,
		Post:        &view,
	}
	r.bus.Publish(chg)
	return &chg, nil
}

// ReconcileComment merges one comment snapshot into the stored record.
func (r *Reconciler) ReconcileComment(view model.CommentView) (*events.Change, error) {
	cfg := r.config().CommunityConfig(view.Community.ID)
	if cfg == nil || !cfg.Comments.Enabled {
		return nil, nil
	}

	r.commentLocks.Lock(view.Comment.ID)
	defer r.commentLocks.Unlock(view.Comment.ID)

	existing, err := records.GetCommentRecord(r.db, view.Comment.ID)
	if err != nil {
		return nil, err
	}

	snapshot, err := json.Marshal(view)
	if err != nil {
		return nil, fmt.Errorf("failed to encode comment snapshot %d: %w", view.Comment.ID, err)
	}

	now := time.Now().Unix()
	record := &model.CommentRecord{
		ID:          view.Comment.ID,
		PostID:      view.Post.ID,
		CommunityID: view.Community.ID,
		Removed:     view.Comment.Removed,
		Deleted:     view.Comment.Deleted,
		UpdatedAt:   view.Comment.Updated,
		Snapshot:    string(snapshot),
		FirstSeen:   now,
		LastSeen:    now,
	}

	var name events.EventName
	if existing == nil {
		name = events.CommentCreated
	} else {
		record.FirstSeen = existing.FirstSeen
		switch {
		case existing.Deleted != view.Comment.Deleted:
			name = events.CommentDeleted
		case !equalTimestamp(existing.UpdatedAt, view.Comment.Updated):
			name = events.CommentUpdated
		}
	}

	if err := records.UpsertCommentRecord(r.db, record); err != nil {
		return nil, err
	}
	if name == "" {
		return nil, nil
	}

	chg := events.Change{
		Name:        name,
		CommunityID: view.Community.ID,
		Config:      *cfg,
		Comment:     &view,
	}
	r.bus.Publish(chg)
	return &chg, nil
}

// ProcessPostReports publishes a created event for every report not yet
// known to the queue. Reports are deduped against the queue itself; their
// lifecycle is owned by their entry.
func (r *Reconciler) ProcessPostReports(views []model.PostReportView) {
	for _, view := range views {
		cfg := r.config().CommunityConfig(view.Community.ID)
		if cfg == nil || !cfg.Reports.Enabled {
			continue
		}
		existing, err := queuedb.GetEntryByTarget(r.db, model.TargetPostReport, view.Post.ID, view.PostReport.ID)
		if err != nil {
			r.reportError(model.EntityPost, view.Post.ID, err)
			continue
		}
		if existing != nil {
			continue
		}
		view := view
		r.bus.Publish(events.Change{
			Name:        events.PostReportCreated,
			CommunityID: view.Community.ID,
			Config:      *cfg,
			PostReport:  &view,
		})
	}
}

// ProcessCommentReports mirrors ProcessPostReports for comment reports.
func (r *Reconciler) ProcessCommentReports(views []model.CommentReportView) {
	for _, view := range views {
		cfg := r.config().CommunityConfig(view.Community.ID)
		if cfg == nil || !cfg.Reports.Enabled {
			continue
		}
		existing, err := queuedb.GetEntryByTarget(r.db, model.TargetCommentReport, view.Comment.ID, view.CommentReport.ID)
		if err != nil {
			r.reportError(model.EntityComment, view.Comment.ID, err)
			continue
		}
		if existing != nil {
			continue
		}
		view := view
		r.bus.Publish(events.Change{
			Name:          events.CommentReportCreated,
			CommunityID:   view.Community.ID,
			Config:        *cfg,
			CommentReport: &view,
		})
	}
}

func equalTimestamp(a, b *string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}
