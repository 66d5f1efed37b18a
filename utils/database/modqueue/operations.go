package modqueue

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"lemmy-mod-bot/model"
)

// entryRow is the persisted shape of a queue entry. The target view and the
// note history are stored as JSON blobs beside the indexed columns.
type entryRow struct {
	ID            int64   `db:"id"`
	Kind          string  `db:"kind"`
	TargetID      int     `db:"target_id"`
	ReportID      int     `db:"report_id"`
	PostID        int     `db:"post_id"`
	CommunityID   int     `db:"community_id"`
	CreatorID     int     `db:"creator_id"`
	Status        string  `db:"status"`
	Result        *string `db:"result"`
	ResultActorID *int64  `db:"result_actor_id"`
	ResultReason  *string `db:"result_reason"`
	TargetJSON    string  `db:"target_json"`
	ModNotesJSON  string  `db:"mod_notes_json"`
	CreatedAt     int64   `db:"created_at"`
	UpdatedAt     int64   `db:"updated_at"`
}

func toRow(entry *model.QueueEntry) (*entryRow, error) {
	targetJSON, err := json.Marshal(entry.Target)
	if err != nil {
		return nil, fmt.Errorf("failed to encode queue target: %w", err)
	}
	notes := entry.ModNotes
	if notes == nil {
		notes = []model.ModNote{}
	}
	notesJSON, err := json.Marshal(notes)
	if err != nil {
		return nil, fmt.Errorf("failed to encode mod notes: %w", err)
	}

	row := &entryRow{
		ID:           entry.ID,
		Kind:         string(entry.Target.Kind()),
		TargetID:     entry.Target.TargetID(),
		PostID:       entry.Target.PostID(),
		CommunityID:  entry.Target.CommunityID(),
		CreatorID:    entry.Target.CreatorID(),
		Status:       string(entry.Status),
		TargetJSON:   string(targetJSON),
		ModNotesJSON: string(notesJSON),
		CreatedAt:    entry.CreatedAt,
		UpdatedAt:    entry.UpdatedAt,
	}
	if report, ok := entry.Target.(model.ReportTarget); ok {
		row.ReportID = report.ReportID()
	}
	if entry.Result != nil {
		result := string(*entry.Result)
		row.Result = &result
	}
	if entry.ResultData != nil {
		actorID := int64(entry.ResultData.ActorID)
		row.ResultActorID = &actorID
		row.ResultReason = &entry.ResultData.Reason
	}
	return row, nil
}

func fromRow(row *entryRow) (*model.QueueEntry, error) {
	target, err := decodeTarget(model.TargetKind(row.Kind), row.TargetJSON)
	if err != nil {
		return nil, err
	}

	entry := &model.QueueEntry{
		ID:        row.ID,
		Target:    target,
		Status:    model.QueueEntryStatus(row.Status),
		CreatedAt: row.CreatedAt,
		UpdatedAt: row.UpdatedAt,
	}
	if row.Result != nil {
		result := model.QueueEntryResult(*row.Result)
		entry.Result = &result
	}
	if row.ResultActorID != nil {
		entry.ResultData = &model.ResultData{ActorID: int(*row.ResultActorID)}
		if row.ResultReason != nil {
			entry.ResultData.Reason = *row.ResultReason
		}
	}
	if err := json.Unmarshal([]byte(row.ModNotesJSON), &entry.ModNotes); err != nil {
		return nil, fmt.Errorf("failed to decode mod notes for entry %d: %w", row.ID, err)
	}
	return entry, nil
}

func decodeTarget(kind model.TargetKind, raw string) (model.QueueTarget, error) {
	switch kind {
	case model.TargetPost:
		var t model.PostTarget
		if err := json.Unmarshal([]byte(raw), &t); err != nil {
			return nil, fmt.Errorf("failed to decode post target: %w", err)
		}
		return t, nil
	case model.TargetComment:
		var t model.CommentTarget
		if err := json.Unmarshal([]byte(raw), &t); err != nil {
			return nil, fmt.Errorf("failed to decode comment target: %w", err)
		}
		return t, nil
	case model.TargetPostReport:
		var t model.PostReportTarget
		if err := json.Unmarshal([]byte(raw), &t); err != nil {
			return nil, fmt.Errorf("failed to decode post report target: %w", err)
		}
		return t, nil
	case model.TargetCommentReport:
		var t model.CommentReportTarget
		if err := json.Unmarshal([]byte(raw), &t); err != nil {
			return nil, fmt.Errorf("failed to decode comment report target: %w", err)
		}
		return t, nil
	}
	return nil, fmt.Errorf("unknown queue target kind %q", kind)
}

// InsertEntry adds a new queue entry and returns it with the assigned id.
func InsertEntry(db *sqlx.DB, entry *model.QueueEntry) (*model.QueueEntry, error) {
	now := time.Now().Unix()
	entry.CreatedAt = now
	entry.UpdatedAt = now

	row, err := toRow(entry)
	if err != nil {
		return nil, err
	}
	query := `INSERT INTO mod_queue (kind, target_id, report_id, post_id, community_id, creator_id, status, result, result_actor_id, result_reason, target_json, mod_notes_json, created_at, updated_at)
			  VALUES (:kind, :target_id, :report_id, :post_id, :community_id, :creator_id, :status, :result, :result_actor_id, :result_reason, :target_json, :mod_notes_json, :created_at, :updated_at)`
	result, err := db.NamedExec(query, row)
	if err != nil {
		return nil, fmt.Errorf("failed to insert queue entry: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to get last insert ID: %w", err)
	}
	entry.ID = id
	return entry, nil
}

// UpdateEntry overwrites a queue entry's mutable columns.
func UpdateEntry(db *sqlx.DB, entry *model.QueueEntry) (*model.QueueEntry, error) {
	entry.UpdatedAt = time.Now().Unix()

	row, err := toRow(entry)
	if err != nil {
		return nil, err
	}
	query := `UPDATE mod_queue SET
			      status = :status,
			      result = :result,
			      result_actor_id = :result_actor_id,
			      result_reason = :result_reason,
			      target_json = :target_json,
			      mod_notes_json = :mod_notes_json,
			      updated_at = :updated_at
			  WHERE id = :id`
	res, err := db.NamedExec(query, row)
	if err != nil {
		return nil, fmt.Errorf("failed to update queue entry %d: %w", entry.ID, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("failed to check rows affected for entry %d: %w", entry.ID, err)
	}
	if affected == 0 {
		return nil, fmt.Errorf("no queue entry found with id %d", entry.ID)
	}
	return entry, nil
}

// GetEntryByID retrieves a queue entry by primary key. Returns (nil, nil)
// when no entry exists.
func GetEntryByID(db *sqlx.DB, id int64) (*model.QueueEntry, error) {
	var row entryRow
	err := db.Get(&row, "SELECT * FROM mod_queue WHERE id = ?", id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get queue entry %d: %w", id, err)
	}
	return fromRow(&row)
}

// GetEntryByTarget retrieves the single entry for an underlying
// entity+report combination. Returns (nil, nil) when no entry exists.
func GetEntryByTarget(db *sqlx.DB, kind model.TargetKind, targetID, reportID int) (*model.QueueEntry, error) {
	var row entryRow
	err := db.Get(&row, "SELECT * FROM mod_queue WHERE kind = ? AND target_id = ? AND report_id = ?", string(kind), targetID, reportID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get queue entry for %s/%d/%d: %w", kind, targetID, reportID, err)
	}
	return fromRow(&row)
}

// ListEntries returns all queue entries, newest first.
func ListEntries(db *sqlx.DB) ([]*model.QueueEntry, error) {
	var rows []entryRow
	if err := db.Select(&rows, "SELECT * FROM mod_queue ORDER BY created_at DESC"); err != nil {
		return nil, fmt.Errorf("failed to list queue entries: %w", err)
	}
	entries := make([]*model.QueueEntry, 0, len(rows))
	for i := range rows {
		entry, err := fromRow(&rows[i])
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// CountByStatus returns the number of entries per status for one community,
// or for all communities when communityID is 0.
func CountByStatus(db *sqlx.DB, communityID int) (map[string]int, error) {
	query := "SELECT status, COUNT(*) as count FROM mod_queue"
	args := []interface{}{}
	if communityID != 0 {
		query += " WHERE community_id = ?"
		args = append(args, communityID)
	}
	query += " GROUP BY status"

	rows, err := db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to count queue entries: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, fmt.Errorf("failed to scan queue count row: %w", err)
		}
		counts[status] = count
	}
	return counts, nil
}
