package database

import (
	"database/sql"
	"fmt"
)

// ChannelRepositoryImpl handles database operations for channels
type ChannelRepositoryImpl struct {
	db *DB
}

var _ ChannelRepository = (*ChannelRepositoryImpl)(nil)

// NewChannelRepository creates a new channel repository
func NewChannelRepository(db *DB) *ChannelRepositoryImpl {
	return &ChannelRepositoryImpl{db: db}
}

// UpsertChannel registers a configured channel, updating its subreddit and
// enabled flag when a row already exists. Checkpoint columns are untouched.
func (r *ChannelRepositoryImpl) UpsertChannel(channelID, subreddit string, enabled bool) error {
	_, err := r.db.Exec(`
		INSERT INTO channels (id, subreddit, enabled)
		VALUES (?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			subreddit = excluded.subreddit,
			enabled = excluded.enabled,
			updated_at = CURRENT_TIMESTAMP
	`, channelID, subreddit, enabled)

	if err != nil {
		return fmt.Errorf("failed to upsert channel: %w", err)
	}

	return nil
}

// GetChannel retrieves a channel by its identifier
func (r *ChannelRepositoryImpl) GetChannel(channelID string) (*Channel, error) {
	row := r.db.QueryRow(`
		SELECT id, subreddit, enabled, last_post_id, last_post_created_at,
		       last_fetched_at, next_fetch_at, created_at, updated_at
		FROM channels
		WHERE id = ?
	`, channelID)

	channel, err := scanChannel(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get channel: %w", err)
	}

	return channel, nil
}

// GetChannels returns all registered channels
func (r *ChannelRepositoryImpl) GetChannels() ([]Channel, error) {
	rows, err := r.db.Query(`
		SELECT id, subreddit, enabled, last_post_id, last_post_created_at,
		       last_fetched_at, next_fetch_at, created_at, updated_at
		FROM channels
		ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to get channels: %w", err)
	}
	defer rows.Close()

	return collectChannels(rows)
}

// GetChannelsDueForRefresh returns enabled channels whose next fetch time has passed
func (r *ChannelRepositoryImpl) GetChannelsDueForRefresh() ([]Channel, error) {
	rows, err := r.db.Query(`
		SELECT id, subreddit, enabled, last_post_id, last_post_created_at,
		       last_fetched_at, next_fetch_at, created_at, updated_at
		FROM channels
		WHERE enabled = 1
		  AND (next_fetch_at IS NULL OR datetime(next_fetch_at) <= datetime('now'))
		ORDER BY COALESCE(next_fetch_at, '1970-01-01')
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to get channels due for refresh: %w", err)
	}
	defer rows.Close()

	return collectChannels(rows)
}

// SetChannelEnabled sets the enabled flag of a channel
func (r *ChannelRepositoryImpl) SetChannelEnabled(channelID string, enabled bool) error {
	_, err := r.db.Exec(`
		UPDATE channels
		SET enabled = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`, enabled, channelID)

	if err != nil {
		return fmt.Errorf("failed to set channel enabled flag: %w", err)
	}

	return nil
}

// GetChannelCount returns the total number of channels
func (r *ChannelRepositoryImpl) GetChannelCount() (int, error) {
	var count int
	err := r.db.QueryRow("SELECT COUNT(*) FROM channels").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to get channel count: %w", err)
	}
	return count, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanChannel(row rowScanner) (*Channel, error) {
	var channel Channel
	var lastPostCreatedAt, lastFetchedAt, nextFetchAt sql.NullTime

	err := row.Scan(
		&channel.ID, &channel.Subreddit, &channel.Enabled, &channel.LastPostID,
		&lastPostCreatedAt, &lastFetchedAt, &nextFetchAt,
		&channel.CreatedAt, &channel.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if lastPostCreatedAt.Valid {
		channel.LastPostCreatedAt = &lastPostCreatedAt.Time
	}
	if lastFetchedAt.Valid {
		channel.LastFetchedAt = &lastFetchedAt.Time
	}
	if nextFetchAt.Valid {
		channel.NextFetchAt = &nextFetchAt.Time
	}

	return &channel, nil
}

func collectChannels(rows *sql.Rows) ([]Channel, error) {
	var channels []Channel
	for rows.Next() {
		channel, err := scanChannel(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan channel row: %w", err)
		}
		channels = append(channels, *channel)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating channel rows: %w", err)
	}

	return channels, nil
}
