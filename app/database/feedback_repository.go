package database

import (
	"database/sql"
	"fmt"
)

// Default metadata stamped onto every feedback record
const (
	FeedbackGiverRole    = "buyer"
	FeedbackReceiverRole = "seller"
	FeedbackPlatform     = "INSTAGRAM"
	FeedbackMedium       = "DIRECT"
	FeedbackSource       = "REDDIT"
)

// FeedbackRepositoryImpl handles database operations for feedback records
// and the processing log
type FeedbackRepositoryImpl struct {
	db *DB
}

var _ FeedbackRepository = (*FeedbackRepositoryImpl)(nil)

// NewFeedbackRepository creates a new feedback repository
func NewFeedbackRepository(db *DB) *FeedbackRepositoryImpl {
	return &FeedbackRepositoryImpl{db: db}
}

// UpsertFeedback inserts a feedback record. The feedback table is unique on
// (giver, receiver); a conflicting insert falls back to updating the existing
// row's rating, comment and updated_at in place, within the same statement,
// so no partial write is ever visible.
func (r *FeedbackRepositoryImpl) UpsertFeedback(rec FeedbackRecord) error {
	_, err := r.db.Exec(`
		INSERT INTO feedback (
			giver, receiver, rating, comment,
			giver_role, receiver_role, platform, medium, source
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (giver, receiver) DO UPDATE SET
			rating = excluded.rating,
			comment = excluded.comment,
			updated_at = CURRENT_TIMESTAMP
	`, rec.Giver, rec.Receiver, rec.Rating, rec.Comment,
		rec.GiverRole, rec.ReceiverRole, rec.Platform, rec.Medium, rec.Source)

	if err != nil {
		return fmt.Errorf("failed to upsert feedback: %w", err)
	}

	return nil
}

// GetFeedback retrieves the feedback record for a (giver, receiver) pair
func (r *FeedbackRepositoryImpl) GetFeedback(giver, receiver string) (*FeedbackRecord, error) {
	var rec FeedbackRecord
	err := r.db.QueryRow(`
		SELECT id, giver, receiver, rating, comment,
		       giver_role, receiver_role, platform, medium, source,
		       created_at, updated_at
		FROM feedback
		WHERE giver = ? AND receiver = ?
	`, giver, receiver).Scan(
		&rec.ID, &rec.Giver, &rec.Receiver, &rec.Rating, &rec.Comment,
		&rec.GiverRole, &rec.ReceiverRole, &rec.Platform, &rec.Medium, &rec.Source,
		&rec.CreatedAt, &rec.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get feedback: %w", err)
	}

	return &rec, nil
}

// GetFeedbackCount returns the total number of feedback records
func (r *FeedbackRepositoryImpl) GetFeedbackCount() (int, error) {
	var count int
	err := r.db.QueryRow("SELECT COUNT(*) FROM feedback").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to get feedback count: %w", err)
	}
	return count, nil
}

// LogStage appends a processing log entry recording which pipeline stage
// last handled the post
func (r *FeedbackRepositoryImpl) LogStage(postID, stage, detail string) error {
	_, err := r.db.Exec(`
		INSERT INTO processing_log (post_id, stage, detail)
		VALUES (?, ?, ?)
	`, postID, stage, detail)

	if err != nil {
		return fmt.Errorf("failed to insert processing log entry: %w", err)
	}

	return nil
}

// GetLogForPost returns a post's processing log entries in insertion order
func (r *FeedbackRepositoryImpl) GetLogForPost(postID string) ([]LogEntry, error) {
	rows, err := r.db.Query(`
		SELECT id, post_id, stage, detail, created_at
		FROM processing_log
		WHERE post_id = ?
		ORDER BY id
	`, postID)
	if err != nil {
		return nil, fmt.Errorf("failed to get processing log: %w", err)
	}
	defer rows.Close()

	var entries []LogEntry
	for rows.Next() {
		var entry LogEntry
		if err := rows.Scan(&entry.ID, &entry.PostID, &entry.Stage, &entry.Detail, &entry.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan log row: %w", err)
		}
		entries = append(entries, entry)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating log rows: %w", err)
	}

	return entries, nil
}
