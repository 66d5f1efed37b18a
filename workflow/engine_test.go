package workflow

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lemmy-mod-bot/events"
	"lemmy-mod-bot/lemmy"
	"lemmy-mod-bot/model"
	"lemmy-mod-bot/modqueue"
	queuedb "lemmy-mod-bot/utils/database/modqueue"
	"lemmy-mod-bot/utils/database/records"
)

// recordingClient logs every moderation command in order and can be told to
// fail specific methods.
type recordingClient struct {
	calls    []string
	failOn   string
	postView *model.PostView
}

func (c *recordingClient) record(format string, args ...interface{}) {
	c.calls = append(c.calls, fmt.Sprintf(format, args...))
}

func (c *recordingClient) fail(method string) error {
	if c.failOn == method {
		return errors.New(method + " failed")
	}
	return nil
}

func (c *recordingClient) Login(ctx context.Context, username, password string) (string, error) {
	return "", errors.New("not implemented")
}

func (c *recordingClient) GetPosts(ctx context.Context, req lemmy.GetPosts) ([]model.PostView, error) {
	return nil, errors.New("not implemented")
}

func (c *recordingClient) GetComments(ctx context.Context, req lemmy.GetComments) ([]model.CommentView, error) {
	return nil, errors.New("not implemented")
}

func (c *recordingClient) ListPostReports(ctx context.Context, req lemmy.ListReports) ([]model.PostReportView, error) {
	return nil, errors.New("not implemented")
}

func (c *recordingClient) ListCommentReports(ctx context.Context, req lemmy.ListReports) ([]model.CommentReportView, error) {
	return nil, errors.New("not implemented")
}

func (c *recordingClient) GetPost(ctx context.Context, auth string, postID int) (*model.PostView, error) {
	if c.postView == nil {
		return nil, errors.New("no post view configured")
	}
	return c.postView, nil
}

func (c *recordingClient) GetComment(ctx context.Context, auth string, commentID int) (*model.CommentView, error) {
	return nil, errors.New("no comment view configured")
}

func (c *recordingClient) RemovePost(ctx context.Context, auth string, postID int, removed bool, reason string) error {
	if err := c.fail("RemovePost"); err != nil {
		return err
	}
	c.record("RemovePost auth=%s id=%d removed=%v reason=%q", auth, postID, removed, reason)
	return nil
}

func (c *recordingClient) RemoveComment(ctx context.Context, auth string, commentID int, removed bool, reason string) error {
	if err := c.fail("RemoveComment"); err != nil {
		return err
	}
	c.record("RemoveComment auth=%s id=%d removed=%v reason=%q", auth, commentID, removed, reason)
	return nil
}

func (c *recordingClient) LockPost(ctx context.Context, auth string, postID int, locked bool) error {
	if err := c.fail("LockPost"); err != nil {
		return err
	}
	c.record("LockPost auth=%s id=%d locked=%v", auth, postID, locked)
	return nil
}

func (c *recordingClient) BanFromCommunity(ctx context.Context, auth string, communityID, personID int, ban bool, reason string) error {
	if err := c.fail("BanFromCommunity"); err != nil {
		return err
	}
	c.record("BanFromCommunity auth=%s community=%d person=%d ban=%v reason=%q", auth, communityID, personID, ban, reason)
	return nil
}

func (c *recordingClient) ResolvePostReport(ctx context.Context, auth string, reportID int, resolved bool) error {
	if err := c.fail("ResolvePostReport"); err != nil {
		return err
	}
	c.record("ResolvePostReport auth=%s id=%d resolved=%v", auth, reportID, resolved)
	return nil
}

func (c *recordingClient) ResolveCommentReport(ctx context.Context, auth string, reportID int, resolved bool) error {
	if err := c.fail("ResolveCommentReport"); err != nil {
		return err
	}
	c.record("ResolveCommentReport auth=%s id=%d resolved=%v", auth, reportID, resolved)
	return nil
}

type engineFixture struct {
	engine  *Engine
	client  *recordingClient
	queue   *modqueue.Service
	recheck *RecheckScheduler
	cfg     *model.Config
}

func newEngineFixture(t *testing.T, queueType model.ModQueueType) *engineFixture {
	t.Helper()

	db, err := sqlx.Connect("sqlite3", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	require.NoError(t, records.Init(db))
	require.NoError(t, queuedb.Init(db))
	t.Cleanup(func() { db.Close() })

	cfg := &model.Config{
		Communities: map[string]model.CommunityConfig{
			"7": {
				Name:        "testing",
				CommunityID: 7,
				ModQueue:    model.ModQueueSettings{Enabled: true, Type: queueType},
			},
		},
	}

	client := &recordingClient{}
	queue := modqueue.New(db)
	recheck := NewRecheckScheduler()
	t.Cleanup(recheck.Stop)

	engine := NewEngine(client, queue, recheck,
		func() *model.Config { return cfg },
		func() string { return "bot-jwt" })

	return &engineFixture{engine: engine, client: client, queue: queue, recheck: recheck, cfg: cfg}
}

func (f *engineFixture) admitPost(t *testing.T, removed bool) *model.QueueEntry {
	t.Helper()
	entry, err := f.queue.Admit(events.Change{
		Name:        events.PostCreated,
		CommunityID: 7,
		Config:      f.cfg.Communities["7"],
		Post: &model.PostView{
			Post:      model.Post{ID: 1, CreatorID: 11, CommunityID: 7, Removed: removed},
			Creator:   model.Person{ID: 11, Name: "author"},
			Community: model.Community{ID: 7},
		},
	})
	require.NoError(t, err)
	require.NotNil(t, entry)
	return entry
}

func (f *engineFixture) admitPostReport(t *testing.T) *model.QueueEntry {
	t.Helper()
	entry, err := f.queue.Admit(events.Change{
		Name:        events.PostReportCreated,
		CommunityID: 7,
		Config:      f.cfg.Communities["7"],
		PostReport: &model.PostReportView{
			PostReport: model.PostReport{ID: 40, PostID: 1, Reason: "spam"},
			Post:       model.Post{ID: 1, CreatorID: 11, CommunityID: 7},
			Community:  model.Community{ID: 7},
			Creator:    model.Person{ID: 12, Name: "reporter"},
		},
	})
	require.NoError(t, err)
	require.NotNil(t, entry)
	return entry
}

func decision(r model.QueueEntryResult) *model.QueueEntryResult { return &r }

var mod = model.Actor{ID: 99, Name: "mod"}

func TestApplyDecisionInvalidRejectedBeforeCommands(t *testing.T) {
	f := newEngineFixture(t, model.ModQueueActive)
	entry := f.admitPost(t, false)

	bad := model.QueueEntryResult("escalated")
	_, err := f.engine.ApplyDecision(context.Background(), entry.ID, &bad, "", mod, "mod-jwt")
	assert.ErrorIs(t, err, ErrInvalidDecision)
	assert.Empty(t, f.client.calls)
	assert.Zero(t, f.recheck.ActiveCount())
}

func TestApplyDecisionRemove(t *testing.T) {
	f := newEngineFixture(t, model.ModQueueActive)
	entry := f.admitPost(t, false)

	updated, err := f.engine.ApplyDecision(context.Background(), entry.ID, decision(model.ResultRemoved), "spam", mod, "mod-jwt")
	require.NoError(t, err)

	assert.Equal(t, model.StatusCompleted, updated.Status)
	require.NotNil(t, updated.Result)
	assert.Equal(t, model.ResultRemoved, *updated.Result)
	require.NotNil(t, updated.ResultData)
	assert.Equal(t, 99, updated.ResultData.ActorID)
	assert.Equal(t, "spam", updated.ResultData.Reason)

	require.Len(t, f.client.calls, 1)
	assert.Equal(t, `RemovePost auth=mod-jwt id=1 removed=true reason="Removed with the reason:- spam"`, f.client.calls[0])

	require.Len(t, updated.ModNotes, 1)
	assert.Equal(t, "removed - spam", updated.ModNotes[0].Note)
	assert.Equal(t, 1, f.recheck.ActiveCount())
}

func TestApplyDecisionDefaultsReason(t *testing.T) {
	f := newEngineFixture(t, model.ModQueueActive)
	entry := f.admitPost(t, false)

	updated, err := f.engine.ApplyDecision(context.Background(), entry.ID, decision(model.ResultRemoved), "", mod, "mod-jwt")
	require.NoError(t, err)

	assert.Equal(t, DefaultReason, updated.ResultData.Reason)
	require.Len(t, f.client.calls, 1)
	assert.Contains(t, f.client.calls[0], "Removed with the reason:- No Reason given")
}

func TestApplyDecisionApproveLiftsBan(t *testing.T) {
	f := newEngineFixture(t, model.ModQueueActive)
	entry := f.admitPost(t, false)

	_, err := f.engine.ApplyDecision(context.Background(), entry.ID, decision(model.ResultBanned), "abuse", mod, "mod-jwt")
	require.NoError(t, err)
	require.Len(t, f.client.calls, 1)
	assert.Equal(t, `BanFromCommunity auth=mod-jwt community=7 person=11 ban=true reason="Banned with the reason:- abuse"`, f.client.calls[0])

	f.client.calls = nil
	updated, err := f.engine.ApplyDecision(context.Background(), entry.ID, decision(model.ResultApproved), "appeal accepted", mod, "mod-jwt")
	require.NoError(t, err)

	// Active queue: approval un-removes, then lifts the ban. Exactly one
	// unban, no report resolution.
	require.Len(t, f.client.calls, 2)
	assert.Equal(t, `RemovePost auth=mod-jwt id=1 removed=false reason="Approved with the reason:- appeal accepted"`, f.client.calls[0])
	assert.Equal(t, `BanFromCommunity auth=mod-jwt community=7 person=11 ban=false reason=""`, f.client.calls[1])

	require.NotNil(t, updated.Result)
	assert.Equal(t, model.ResultApproved, *updated.Result)
	assert.Len(t, updated.ModNotes, 2)
}

func TestApplyDecisionPassiveApproveSkipsRemoval(t *testing.T) {
	f := newEngineFixture(t, model.ModQueuePassive)
	entry := f.admitPost(t, true)

	// The stored view says removed, so passive approval toggles it back.
	_, err := f.engine.ApplyDecision(context.Background(), entry.ID, decision(model.ResultApproved), "fine", mod, "mod-jwt")
	require.NoError(t, err)
	require.Len(t, f.client.calls, 1)
	assert.Contains(t, f.client.calls[0], "removed=false")
}

func TestApplyDecisionApproveReportResolves(t *testing.T) {
	f := newEngineFixture(t, model.ModQueueActive)
	entry := f.admitPostReport(t)

	updated, err := f.engine.ApplyDecision(context.Background(), entry.ID, decision(model.ResultApproved), "not spam", mod, "mod-jwt")
	require.NoError(t, err)

	// Reports resolve; the content itself is left alone.
	require.Len(t, f.client.calls, 1)
	assert.Equal(t, `ResolvePostReport auth=mod-jwt id=40 resolved=true`, f.client.calls[0])
	assert.Equal(t, model.StatusCompleted, updated.Status)
}

func TestApplyDecisionReopen(t *testing.T) {
	f := newEngineFixture(t, model.ModQueueActive)
	entry := f.admitPost(t, false)

	_, err := f.engine.ApplyDecision(context.Background(), entry.ID, decision(model.ResultApproved), "ok", mod, "mod-jwt")
	require.NoError(t, err)
	f.client.calls = nil

	updated, err := f.engine.ApplyDecision(context.Background(), entry.ID, nil, "second look", mod, "mod-jwt")
	require.NoError(t, err)

	assert.Equal(t, model.StatusPending, updated.Status)
	assert.Nil(t, updated.Result)
	require.Len(t, f.client.calls, 1)
	assert.Equal(t, `RemovePost auth=mod-jwt id=1 removed=true reason="Reopened mod queue entry with the reason:- second look"`, f.client.calls[0])

	require.Len(t, updated.ModNotes, 2)
	assert.Equal(t, "reopened - second look", updated.ModNotes[1].Note)
}

func TestApplyDecisionReopenReportUnresolves(t *testing.T) {
	f := newEngineFixture(t, model.ModQueueActive)
	entry := f.admitPostReport(t)

	_, err := f.engine.ApplyDecision(context.Background(), entry.ID, decision(model.ResultApproved), "ok", mod, "mod-jwt")
	require.NoError(t, err)
	f.client.calls = nil

	_, err = f.engine.ApplyDecision(context.Background(), entry.ID, nil, "", mod, "mod-jwt")
	require.NoError(t, err)

	require.Len(t, f.client.calls, 1)
	assert.Equal(t, `ResolvePostReport auth=mod-jwt id=40 resolved=false`, f.client.calls[0])
}

func TestApplyDecisionCommandFailureLeavesEntryUntouched(t *testing.T) {
	f := newEngineFixture(t, model.ModQueueActive)
	entry := f.admitPost(t, false)
	f.client.failOn = "RemovePost"

	_, err := f.engine.ApplyDecision(context.Background(), entry.ID, decision(model.ResultRemoved), "spam", mod, "mod-jwt")
	require.Error(t, err)

	stored, err := f.queue.GetByID(entry.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusPending, stored.Status)
	assert.Nil(t, stored.Result)
	assert.Empty(t, stored.ModNotes)
	assert.Zero(t, f.recheck.ActiveCount(), "failed decisions must not arm a re-check")
}

func TestApplyDecisionLockOnComment(t *testing.T) {
	f := newEngineFixture(t, model.ModQueueActive)

	entry, err := f.queue.Admit(events.Change{
		Name:        events.CommentCreated,
		CommunityID: 7,
		Config:      f.cfg.Communities["7"],
		Comment: &model.CommentView{
			Comment:   model.Comment{ID: 5, CreatorID: 11, PostID: 1},
			Creator:   model.Person{ID: 11, Name: "author"},
			Post:      model.Post{ID: 1, CommunityID: 7},
			Community: model.Community{ID: 7},
		},
	})
	require.NoError(t, err)
	require.NotNil(t, entry)

	_, err = f.engine.ApplyDecision(context.Background(), entry.ID, decision(model.ResultLocked), "heated", mod, "mod-jwt")
	require.NoError(t, err)

	// Locking a comment entry locks the parent post.
	require.Len(t, f.client.calls, 1)
	assert.Equal(t, `LockPost auth=mod-jwt id=1 locked=true`, f.client.calls[0])
}

func TestRefreshMergesViewOnly(t *testing.T) {
	f := newEngineFixture(t, model.ModQueueActive)
	entry := f.admitPost(t, false)

	_, err := f.engine.ApplyDecision(context.Background(), entry.ID, decision(model.ResultRemoved), "spam", mod, "mod-jwt")
	require.NoError(t, err)

	f.client.postView = &model.PostView{
		Post:      model.Post{ID: 1, CreatorID: 11, CommunityID: 7, Removed: true},
		Creator:   model.Person{ID: 11, Name: "author"},
		Community: model.Community{ID: 7},
	}

	refreshed, err := f.engine.Refresh(context.Background(), entry.ID)
	require.NoError(t, err)

	assert.True(t, refreshed.Target.Removed())
	assert.Equal(t, model.StatusCompleted, refreshed.Status)
	require.NotNil(t, refreshed.Result)
	assert.Equal(t, model.ResultRemoved, *refreshed.Result)
	require.Len(t, refreshed.ModNotes, 1)
}
