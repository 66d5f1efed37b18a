package model

// EntityKind identifies which table an entity record lives in.
type EntityKind string

const (
	EntityPost    EntityKind = "post"
	EntityComment EntityKind = "comment"
)

// PostRecord is the last known state of a post. One row per post id; rows are
// mutated in place on every reconciliation and never deleted. A platform-side
// deletion only flips the deleted column.
type PostRecord struct {
	ID          int     `db:"id"` // Primary Key, the Lemmy post id
	CommunityID int     `db:"community_id"`
	Removed     bool    `db:"removed"`
	Deleted     bool    `db:"deleted"`
	Locked      bool    `db:"locked"`
	UpdatedAt   *string `db:"updated_at"` // nil means never edited
	Snapshot    string  `db:"snapshot"`   // JSON of the full merged PostView
	FirstSeen   int64   `db:"first_seen"`
	LastSeen    int64   `db:"last_seen"`
}

// CommentRecord is the last known state of a comment.
type CommentRecord struct {
	ID          int     `db:"id"` // Primary Key, the Lemmy comment id
	PostID      int     `db:"post_id"`
	CommunityID int     `db:"community_id"`
	Removed     bool    `db:"removed"`
	Deleted     bool    `db:"deleted"`
	UpdatedAt   *string `db:"updated_at"`
	Snapshot    string  `db:"snapshot"` // JSON of the full merged CommentView
	FirstSeen   int64   `db:"first_seen"`
	LastSeen    int64   `db:"last_seen"`
}
