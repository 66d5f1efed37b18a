package modqueue

import (
	"testing"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lemmy-mod-bot/events"
	"lemmy-mod-bot/model"
	queuedb "lemmy-mod-bot/utils/database/modqueue"
	"lemmy-mod-bot/utils/database/records"
)

func testDB(t *testing.T) *sqlx.DB {
	t.Helper()
	db, err := sqlx.Connect("sqlite3", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	require.NoError(t, records.Init(db))
	require.NoError(t, queuedb.Init(db))
	t.Cleanup(func() { db.Close() })
	return db
}

func communityConfig(queueType model.ModQueueType, enabled bool) model.CommunityConfig {
	return model.CommunityConfig{
		Name:        "testing",
		CommunityID: 7,
		ModQueue:    model.ModQueueSettings{Enabled: enabled, Type: queueType},
	}
}

func postChange(name events.EventName, cfg model.CommunityConfig, removed bool) events.Change {
	return events.Change{
		Name:        name,
		CommunityID: 7,
		Config:      cfg,
		Post: &model.PostView{
			Post:      model.Post{ID: 1, CreatorID: 11, CommunityID: 7, Removed: removed},
			Creator:   model.Person{ID: 11, Name: "author"},
			Community: model.Community{ID: 7},
		},
	}
}

func reportChange(cfg model.CommunityConfig) events.Change {
	return events.Change{
		Name:        events.PostReportCreated,
		CommunityID: 7,
		Config:      cfg,
		PostReport: &model.PostReportView{
			PostReport: model.PostReport{ID: 40, PostID: 1, Reason: "spam"},
			Post:       model.Post{ID: 1, CreatorID: 11, CommunityID: 7},
			Community:  model.Community{ID: 7},
			Creator:    model.Person{ID: 12, Name: "reporter"},
		},
	}
}

func TestAdmitActiveQueueAdmitsEverything(t *testing.T) {
	svc := New(testDB(t))
	cfg := communityConfig(model.ModQueueActive, true)

	entry, err := svc.Admit(postChange(events.PostCreated, cfg, false))
	require.NoError(t, err)
	require.NotNil(t, entry)
	assert.Equal(t, model.StatusPending, entry.Status)
	assert.Nil(t, entry.Result)
}

func TestAdmitPassiveQueueNeedsRemoval(t *testing.T) {
	svc := New(testDB(t))
	cfg := communityConfig(model.ModQueuePassive, true)

	entry, err := svc.Admit(postChange(events.PostCreated, cfg, false))
	require.NoError(t, err)
	assert.Nil(t, entry, "passive queues ignore items that are not removed")

	entry, err = svc.Admit(postChange(events.PostUpdated, cfg, true))
	require.NoError(t, err)
	require.NotNil(t, entry)
	assert.Equal(t, model.TargetPost, entry.Target.Kind())
}

func TestAdmitDisabledQueueRejectsContent(t *testing.T) {
	svc := New(testDB(t))
	cfg := communityConfig(model.ModQueueActive, false)

	entry, err := svc.Admit(postChange(events.PostCreated, cfg, false))
	require.NoError(t, err)
	assert.Nil(t, entry)
}

func TestAdmitReportBypassesQueuePolicy(t *testing.T) {
	svc := New(testDB(t))
	cfg := communityConfig(model.ModQueuePassive, false)

	entry, err := svc.Admit(reportChange(cfg))
	require.NoError(t, err)
	require.NotNil(t, entry, "reports admit regardless of queue settings")
	assert.Equal(t, model.TargetPostReport, entry.Target.Kind())
}

func TestAdmitMergePreservesDecisionState(t *testing.T) {
	svc := New(testDB(t))
	cfg := communityConfig(model.ModQueueActive, true)

	entry, err := svc.Admit(postChange(events.PostCreated, cfg, false))
	require.NoError(t, err)
	require.NotNil(t, entry)

	result := model.ResultRemoved
	entry.Status = model.StatusCompleted
	entry.Result = &result
	entry.ModNotes = append(entry.ModNotes, model.ModNote{ActorName: "mod", Note: "removed - spam"})
	_, err = svc.Update(entry)
	require.NoError(t, err)

	// A later snapshot of the same post must refresh the view only.
	merged, err := svc.Admit(postChange(events.PostUpdated, cfg, true))
	require.NoError(t, err)
	require.NotNil(t, merged)
	assert.Equal(t, entry.ID, merged.ID)
	assert.Equal(t, model.StatusCompleted, merged.Status)
	require.NotNil(t, merged.Result)
	assert.Equal(t, model.ResultRemoved, *merged.Result)
	assert.Len(t, merged.ModNotes, 1)
	assert.True(t, merged.Target.Removed(), "fresh view must be merged in")
}

func TestAdmitSameReportTwiceKeepsOneEntry(t *testing.T) {
	svc := New(testDB(t))
	cfg := communityConfig(model.ModQueueActive, true)

	first, err := svc.Admit(reportChange(cfg))
	require.NoError(t, err)
	second, err := svc.Admit(reportChange(cfg))
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)

	entries, err := svc.List()
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestReportAndPostEntriesCoexist(t *testing.T) {
	svc := New(testDB(t))
	cfg := communityConfig(model.ModQueueActive, true)

	postEntry, err := svc.Admit(postChange(events.PostCreated, cfg, false))
	require.NoError(t, err)
	reportEntry, err := svc.Admit(reportChange(cfg))
	require.NoError(t, err)

	// Same underlying post, distinct entries.
	assert.NotEqual(t, postEntry.ID, reportEntry.ID)

	entries, err := svc.List()
	require.NoError(t, err)
	assert.Len(t, entries, 2)
}

func TestGetByIDNotFound(t *testing.T) {
	svc := New(testDB(t))
	_, err := svc.GetByID(42)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestGetByTarget(t *testing.T) {
	svc := New(testDB(t))
	cfg := communityConfig(model.ModQueueActive, true)

	entry, err := svc.Admit(postChange(events.PostCreated, cfg, false))
	require.NoError(t, err)

	got, err := svc.GetByTarget(model.TargetPost, 1, 0)
	require.NoError(t, err)
	assert.Equal(t, entry.ID, got.ID)

	_, err = svc.GetByTarget(model.TargetComment, 1, 0)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestListVisibleTo(t *testing.T) {
	svc := New(testDB(t))
	cfg := communityConfig(model.ModQueueActive, true)

	_, err := svc.Admit(postChange(events.PostCreated, cfg, false))
	require.NoError(t, err)

	visible, err := svc.ListVisibleTo(model.ModeratorScope{CommunityIDs: []int{7}})
	require.NoError(t, err)
	assert.Len(t, visible, 1)

	visible, err = svc.ListVisibleTo(model.ModeratorScope{CommunityIDs: []int{8}})
	require.NoError(t, err)
	assert.Empty(t, visible)

	visible, err = svc.ListVisibleTo(model.ModeratorScope{Admin: true})
	require.NoError(t, err)
	assert.Len(t, visible, 1)
}

func TestAddNoteAppends(t *testing.T) {
	svc := New(testDB(t))
	cfg := communityConfig(model.ModQueueActive, true)

	entry, err := svc.Admit(postChange(events.PostCreated, cfg, false))
	require.NoError(t, err)

	actor := model.Actor{ID: 99, Name: "mod"}
	updated, err := svc.AddNote(entry.ID, actor, "looks fine")
	require.NoError(t, err)
	require.Len(t, updated.ModNotes, 1)

	updated, err = svc.AddNote(entry.ID, actor, "second look")
	require.NoError(t, err)
	require.Len(t, updated.ModNotes, 2)
	assert.Equal(t, "looks fine", updated.ModNotes[0].Note)
	assert.Equal(t, "second look", updated.ModNotes[1].Note)
}
