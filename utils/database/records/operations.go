package records

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"lemmy-mod-bot/model"
)

// GetPostRecord retrieves the stored record for a post id. Returns (nil, nil)
// when the post has never been seen.
func GetPostRecord(db *sqlx.DB, id int) (*model.PostRecord, error) {
	var record model.PostRecord
	err := db.Get(&record, "SELECT * FROM post_records WHERE id = ?", id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get post record %d: %w", id, err)
	}
	return &record, nil
}

// UpsertPostRecord inserts the record or replaces the existing row for the
// same post id.
func UpsertPostRecord(db *sqlx.DB, record *model.PostRecord) error {
	query := `INSERT INTO post_records (id, community_id, removed, deleted, locked, updated_at, snapshot, first_seen, last_seen)
			  VALUES (:id, :community_id, :removed, :deleted, :locked, :updated_at, :snapshot, :first_seen, :last_seen)
			  ON CONFLICT(id) DO UPDATE SET
			      community_id = excluded.community_id,
			      removed = excluded.removed,
			      deleted = excluded.deleted,
			      locked = excluded.locked,
			      updated_at = excluded.updated_at,
			      snapshot = excluded.snapshot,
			      last_seen = excluded.last_seen`
	if _, err := db.NamedExec(query, record); err != nil {
		return fmt.Errorf("failed to upsert post record %d: %w", record.ID, err)
	}
	return nil
}

// GetCommentRecord retrieves the stored record for a comment id. Returns
// (nil, nil) when the comment has never been seen.
func GetCommentRecord(db *sqlx.DB, id int) (*model.CommentRecord, error) {
	var record model.CommentRecord
	err := db.Get(&record, "SELECT * FROM comment_records WHERE id = ?", id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get comment record %d: %w", id, err)
	}
	return &record, nil
}

// UpsertCommentRecord inserts the record or replaces the existing row for the
// same comment id.
func UpsertCommentRecord(db *sqlx.DB, record *model.CommentRecord) error {
	query := `INSERT INTO comment_records (id, post_id, community_id, removed, deleted, updated_at, snapshot, first_seen, last_seen)
			  VALUES (:id, :post_id, :community_id, :removed, :deleted, :updated_at, :snapshot, :first_seen, :last_seen)
			  ON CONFLICT(id) DO UPDATE SET
			      post_id = excluded.post_id,
			      community_id = excluded.community_id,
			      removed = excluded.removed,
			      deleted = excluded.deleted,
			      updated_at = excluded.updated_at,
			      snapshot = excluded.snapshot,
			      last_seen = excluded.last_seen`
	if _, err := db.NamedExec(query, record); err != nil {
		return fmt.Errorf("failed to upsert comment record %d: %w", record.ID, err)
	}
	return nil
}

// CountPostRecords returns the number of tracked posts.
func CountPostRecords(db *sqlx.DB) (int, error) {
	var count int
	if err := db.Get(&count, "SELECT COUNT(*) FROM post_records"); err != nil {
		return 0, fmt.Errorf("failed to count post records: %w", err)
	}
	return count, nil
}

// CountCommentRecords returns the number of tracked comments.
func CountCommentRecords(db *sqlx.DB) (int, error) {
	var count int
	if err := db.Get(&count, "SELECT COUNT(*) FROM comment_records"); err != nil {
		return 0, fmt.Errorf("failed to count comment records: %w", err)
	}
	return count, nil
}
