package modqueue

import (
	"errors"
	"sync"
	"time"

	"github.com/jmoiron/sqlx"

	"lemmy-mod-bot/events"
	"lemmy-mod-bot/model"
	queuedb "lemmy-mod-bot/utils/database/modqueue"
)

// ErrNotFound is returned for lookups of unknown queue entries.
var ErrNotFound = errors.New("mod queue entry not found")

// Service owns the moderation queue: admission of change events, lookups,
// and entry updates. Entries are only ever mutated through the workflow
// engine or AddNote; they are never deleted.
type Service struct {
	db *sqlx.DB
	mu sync.Mutex
}

func New(db *sqlx.DB) *Service {
	return &Service{db: db}
}

// Register subscribes the queue to every change feed. Admission runs
// synchronously within the publisher.
func (s *Service) Register(bus *events.Bus) {
	admit := func(chg events.Change) error {
		_, err := s.Admit(chg)
		return err
	}
	for _, name := range []events.EventName{
		events.PostCreated, events.PostUpdated, events.PostDeleted,
		events.CommentCreated, events.CommentUpdated, events.CommentDeleted,
		events.PostReportCreated, events.CommentReportCreated,
	} {
		bus.Subscribe(name, "modqueue", admit)
	}
}

func targetForChange(chg events.Change) model.QueueTarget {
	switch {
	case chg.PostReport != nil:
		return model.PostReportTarget{View: *chg.PostReport}
	case chg.CommentReport != nil:
		return model.CommentReportTarget{View: *chg.CommentReport}
	case chg.Post != nil:
		return model.PostTarget{View: *chg.Post}
	case chg.Comment != nil:
		return model.CommentTarget{View: *chg.Comment}
	}
	return nil
}

// Admit applies the admission rule to one change event. Report creations
// always admit; post and comment events admit under the community's queue
// policy. An event for an already-queued item merges the fresh view into the
// existing entry without touching status, result, or notes. Returns
// (nil, nil) when nothing was admitted.
func (s *Service) Admit(chg events.Change) (*model.QueueEntry, error) {
	target := targetForChange(chg)
	if target == nil {
		return nil, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	reportID := 0
	if report, ok := target.(model.ReportTarget); ok {
		reportID = report.ReportID()
	}

	existing, err := queuedb.GetEntryByTarget(s.db, target.Kind(), target.TargetID(), reportID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		existing.Target = target
		return queuedb.UpdateEntry(s.db, existing)
	}

	if !model.IsReport(target) {
		settings := chg.Config.ModQueue
		if !settings.Enabled {
			return nil, nil
		}
		if settings.Type == model.ModQueuePassive && !target.Removed() {
			return nil, nil
		}
	}

	entry := &model.QueueEntry{
		Target:   target,
		Status:   model.StatusPending,
		ModNotes: []model.ModNote{},
	}
	return queuedb.InsertEntry(s.db, entry)
}

// GetByID retrieves an entry or ErrNotFound.
func (s *Service) GetByID(id int64) (*model.QueueEntry, error) {
	entry, err := queuedb.GetEntryByID(s.db, id)
	if err != nil {
		return nil, err
	}
	if entry == nil {
		return nil, ErrNotFound
	}
	return entry, nil
}

// GetByTarget retrieves the entry for an underlying entity+report
// combination, or ErrNotFound.
func (s *Service) GetByTarget(kind model.TargetKind, targetID, reportID int) (*model.QueueEntry, error) {
	entry, err := queuedb.GetEntryByTarget(s.db, kind, targetID, reportID)
	if err != nil {
		return nil, err
	}
	if entry == nil {
		return nil, ErrNotFound
	}
	return entry, nil
}

// List returns all entries, newest first.
func (s *Service) List() ([]*model.QueueEntry, error) {
	return queuedb.ListEntries(s.db)
}

// ListVisibleTo filters the queue by a moderator's scope. Scope resolution
// itself happens upstream; this only applies the community filter.
func (s *Service) ListVisibleTo(scope model.ModeratorScope) ([]*model.QueueEntry, error) {
	entries, err := queuedb.ListEntries(s.db)
	if err != nil {
		return nil, err
	}
	visible := make([]*model.QueueEntry, 0, len(entries))
	for _, entry := range entries {
		if scope.Allows(entry.Target.CommunityID()) {
			visible = append(visible, entry)
		}
	}
	return visible, nil
}

// Update persists an entry mutated by the workflow engine.
func (s *Service) Update(entry *model.QueueEntry) (*model.QueueEntry, error) {
	return queuedb.UpdateEntry(s.db, entry)
}

// AddNote appends to the entry's note history. Notes are append-only and
// never truncated.
func (s *Service) AddNote(entryID int64, actor model.Actor, note string) (*model.QueueEntry, error) {
	entry, err := s.GetByID(entryID)
	if err != nil {
		return nil, err
	}
	entry.ModNotes = append(entry.ModNotes, model.ModNote{
		ActorID:   actor.ID,
		ActorName: actor.Name,
		Note:      note,
		CreatedAt: time.Now().Unix(),
	})
	return queuedb.UpdateEntry(s.db, entry)
}
