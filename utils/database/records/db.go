package records

import (
	"fmt"

	"github.com/jmoiron/sqlx"
)

// Init ensures the entity record tables exist.
func Init(db *sqlx.DB) error {
	postSchema := `CREATE TABLE IF NOT EXISTS post_records (
	          id INTEGER PRIMARY KEY,
	          community_id INTEGER NOT NULL,
	          removed INTEGER NOT NULL DEFAULT 0,
	          deleted INTEGER NOT NULL DEFAULT 0,
	          locked INTEGER NOT NULL DEFAULT 0,
	          updated_at TEXT,
	          snapshot TEXT NOT NULL,
	          first_seen INTEGER NOT NULL,
	          last_seen INTEGER NOT NULL
	      );`
	if _, err := db.Exec(postSchema); err != nil {
		return fmt.Errorf("failed to create post_records table: %w", err)
	}

	commentSchema := `CREATE TABLE IF NOT EXISTS comment_records (
	          id INTEGER PRIMARY KEY,
	          post_id INTEGER NOT NULL,
	          community_id INTEGER NOT NULL,
	          removed INTEGER NOT NULL DEFAULT 0,
	          deleted INTEGER NOT NULL DEFAULT 0,
	          updated_at TEXT,
	          snapshot TEXT NOT NULL,
	          first_seen INTEGER NOT NULL,
	          last_seen INTEGER NOT NULL
	      );`
	if _, err := db.Exec(commentSchema); err != nil {
		return fmt.Errorf("failed to create comment_records table: %w", err)
	}

	return nil
}
