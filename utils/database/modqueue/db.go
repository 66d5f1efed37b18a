package modqueue

import (
	"fmt"

	"github.com/jmoiron/sqlx"
)

// Init ensures the mod queue table exists.
func Init(db *sqlx.DB) error {
	schema := `CREATE TABLE IF NOT EXISTS mod_queue (
	          id INTEGER PRIMARY KEY AUTOINCREMENT,
	          kind TEXT NOT NULL,
	          target_id INTEGER NOT NULL,
	          report_id INTEGER NOT NULL DEFAULT 0,
	          post_id INTEGER NOT NULL,
	          community_id INTEGER NOT NULL,
	          creator_id INTEGER NOT NULL,
	          status TEXT NOT NULL,
	          result TEXT,
	          result_actor_id INTEGER,
	          result_reason TEXT,
	          target_json TEXT NOT NULL,
	          mod_notes_json TEXT NOT NULL DEFAULT '[]',
	          created_at INTEGER NOT NULL,
	          updated_at INTEGER NOT NULL,
	          UNIQUE(kind, target_id, report_id)
	      );`
	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("failed to create mod_queue table: %w", err)
	}
	return nil
}
