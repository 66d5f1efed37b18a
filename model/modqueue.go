package model

// TargetKind tags the variant held by a queue entry.
type TargetKind string

const (
	TargetPost          TargetKind = "post"
	TargetComment       TargetKind = "comment"
	TargetPostReport    TargetKind = "post_report"
	TargetCommentReport TargetKind = "comment_report"
)

type QueueEntryStatus string

const (
	StatusPending   QueueEntryStatus = "pending"
	StatusCompleted QueueEntryStatus = "completed"
)

type QueueEntryResult string

const (
	ResultApproved QueueEntryResult = "approved"
	ResultRemoved  QueueEntryResult = "removed"
	ResultLocked   QueueEntryResult = "locked"
	ResultBanned   QueueEntryResult = "banned"
)

// ValidResult reports whether r is a decision the workflow engine accepts.
// A nil decision (reopen) is handled separately by the caller.
func ValidResult(r QueueEntryResult) bool {
	switch r {
	case ResultApproved, ResultRemoved, ResultLocked, ResultBanned:
		return true
	}
	return false
}

// QueueTarget is the tagged variant a queue entry wraps: a post, a comment, or
// a report on one of them. Each variant carries its own view; callers never
// probe view fields to tell variants apart.
type QueueTarget interface {
	Kind() TargetKind
	// TargetID is the id of the underlying post or comment.
	TargetID() int
	// PostID is the id the re-check scheduler keys timers by. For comments
	// and comment reports this is the parent post.
	PostID() int
	CommunityID() int
	// CreatorID is the author of the underlying content, the ban target.
	CreatorID() int
	// Removed reports the removed flag of the underlying content.
	Removed() bool
}

// ReportTarget is implemented by the two report variants.
type ReportTarget interface {
	QueueTarget
	ReportID() int
	Resolved() bool
}

type PostTarget struct {
	View PostView `json:"view"`
}

func (t PostTarget) Kind() TargetKind { return TargetPost }
func (t PostTarget) TargetID() int    { return t.View.Post.ID }
func (t PostTarget) PostID() int      { return t.View.Post.ID }
func (t PostTarget) CommunityID() int { return t.View.Community.ID }
func (t PostTarget) CreatorID() int   { return t.View.Post.CreatorID }
func (t PostTarget) Removed() bool    { return t.View.Post.Removed }

type CommentTarget struct {
	View CommentView `json:"view"`
}

func (t CommentTarget) Kind() TargetKind { return TargetComment }
func (t CommentTarget) TargetID() int    { return t.View.Comment.ID }
func (t CommentTarget) PostID() int      { return t.View.Post.ID }
func (t CommentTarget) CommunityID() int { return t.View.Community.ID }
func (t CommentTarget) CreatorID() int   { return t.View.Comment.CreatorID }
func (t CommentTarget) Removed() bool    { return t.View.Comment.Removed }

type PostReportTarget struct {
	View PostReportView `json:"view"`
}

func (t PostReportTarget) Kind() TargetKind { return TargetPostReport }
func (t PostReportTarget) TargetID() int    { return t.View.Post.ID }
func (t PostReportTarget) PostID() int      { return t.View.Post.ID }
func (t PostReportTarget) CommunityID() int { return t.View.Community.ID }
func (t PostReportTarget) CreatorID() int   { return t.View.Post.CreatorID }
func (t PostReportTarget) Removed() bool    { return t.View.Post.Removed }
func (t PostReportTarget) ReportID() int    { return t.View.PostReport.ID }
func (t PostReportTarget) Resolved() bool   { return t.View.PostReport.Resolved }

type CommentReportTarget struct {
	View CommentReportView `json:"view"`
}

func (t CommentReportTarget) Kind() TargetKind { return TargetCommentReport }
func (t CommentReportTarget) TargetID() int    { return t.View.Comment.ID }
func (t CommentReportTarget) PostID() int      { return t.View.Post.ID }
func (t CommentReportTarget) CommunityID() int { return t.View.Community.ID }
func (t CommentReportTarget) CreatorID() int   { return t.View.Comment.CreatorID }
func (t CommentReportTarget) Removed() bool    { return t.View.Comment.Removed }
func (t CommentReportTarget) ReportID() int    { return t.View.CommentReport.ID }
func (t CommentReportTarget) Resolved() bool   { return t.View.CommentReport.Resolved }

// IsReport reports whether the target wraps a report rather than the content
// itself.
func IsReport(t QueueTarget) bool {
	_, ok := t.(ReportTarget)
	return ok
}

// ModNote is one entry of the append-only note history on a queue entry.
type ModNote struct {
	ActorID   int    `json:"actor_id"`
	ActorName string `json:"actor_name"`
	Note      string `json:"note"`
	CreatedAt int64  `json:"created_at"`
}

// ResultData records who decided and why. Overwritten on every decision.
type ResultData struct {
	ActorID int    `json:"actor_id"`
	Reason  string `json:"reason"`
}

// QueueEntry is the unit of review. result == nil implies StatusPending; a
// set result implies StatusCompleted. Entries are never deleted, a reopened
// entry goes back to pending.
type QueueEntry struct {
	ID         int64
	Target     QueueTarget
	Status     QueueEntryStatus
	Result     *QueueEntryResult
	ResultData *ResultData
	ModNotes   []ModNote
	CreatedAt  int64
	UpdatedAt  int64
}

// Actor identifies the moderator performing a decision or note.
type Actor struct {
	ID   int
	Name string
}

// ModeratorScope limits which queue entries a moderator may see.
type ModeratorScope struct {
	Admin        bool
	CommunityIDs []int
}

// Allows reports whether the scope covers the given community.
func (s ModeratorScope) Allows(communityID int) bool {
	if s.Admin {
		return true
	}
	for _, id := range s.CommunityIDs {
		if id == communityID {
			return true
		}
	}
	return false
}
