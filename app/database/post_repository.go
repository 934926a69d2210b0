package database

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/purplecheck/purple-check/app/reddit"
)

// PostRepositoryImpl handles database operations for fetched posts
type PostRepositoryImpl struct {
	db *DB
}

var _ PostRepository = (*PostRepositoryImpl)(nil)

// NewPostRepository creates a new post repository
func NewPostRepository(db *DB) *PostRepositoryImpl {
	return &PostRepositoryImpl{db: db}
}

// SaveFetchCycle stores a fetch cycle's posts and advances the channel
// checkpoint in a single transaction, so a failed cycle leaves both the item
// set and the checkpoint at their previous state. Posts whose identifier is
// already known are left untouched. Returns the number of inserted posts.
func (r *PostRepositoryImpl) SaveFetchCycle(channelID string, posts []Post, lastPostID string, lastPostCreatedAt time.Time, nextFetchAt time.Time) (int, error) {
	tx, err := r.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	added := 0
	for _, post := range posts {
		mediaJSON, err := json.Marshal(post.MediaURLs)
		if err != nil {
			return 0, fmt.Errorf("failed to marshal media URLs: %w", err)
		}

		result, err := tx.Exec(`
			INSERT INTO posts (
				id, channel_id, title, body, author, permalink,
				created_at, media_urls, status
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT (id) DO NOTHING
		`, post.ID, channelID, post.Title, post.Body, post.Author,
			post.Permalink, post.CreatedAt, string(mediaJSON), StatusPending)
		if err != nil {
			return 0, fmt.Errorf("failed to insert post: %w", err)
		}

		affected, err := result.RowsAffected()
		if err != nil {
			return 0, fmt.Errorf("failed to read insert result: %w", err)
		}
		added += int(affected)
	}

	if lastPostID != "" {
		_, err = tx.Exec(`
			UPDATE channels
			SET last_post_id = ?, last_post_created_at = ?,
			    last_fetched_at = CURRENT_TIMESTAMP, next_fetch_at = ?,
			    updated_at = CURRENT_TIMESTAMP
			WHERE id = ?
		`, lastPostID, lastPostCreatedAt, nextFetchAt, channelID)
	} else {
		_, err = tx.Exec(`
			UPDATE channels
			SET last_fetched_at = CURRENT_TIMESTAMP, next_fetch_at = ?,
			    updated_at = CURRENT_TIMESTAMP
			WHERE id = ?
		`, nextFetchAt, channelID)
	}
	if err != nil {
		return 0, fmt.Errorf("failed to update channel checkpoint: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit fetch cycle: %w", err)
	}

	return added, nil
}

// GetPost retrieves a post by its identifier
func (r *PostRepositoryImpl) GetPost(postID string) (*Post, error) {
	row := r.db.QueryRow(selectPostColumns+` WHERE id = ?`, postID)

	post, err := scanPost(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get post: %w", err)
	}

	return post, nil
}

// GetUnprocessedPosts returns pending and previously skipped posts in
// creation-time order, post identifier breaking ties. A limit below one
// returns all of them.
func (r *PostRepositoryImpl) GetUnprocessedPosts(limit int) ([]Post, error) {
	if limit < 1 {
		limit = -1
	}

	rows, err := r.db.Query(selectPostColumns+`
		WHERE status IN (?, ?)
		ORDER BY created_at, id
		LIMIT ?
	`, StatusPending, StatusSkipped, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get unprocessed posts: %w", err)
	}
	defer rows.Close()

	var posts []Post
	for rows.Next() {
		post, err := scanPost(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan post row: %w", err)
		}
		posts = append(posts, *post)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating post rows: %w", err)
	}

	return posts, nil
}

// UpdateComments attaches the fetched comment sequence to a post
func (r *PostRepositoryImpl) UpdateComments(postID string, comments []reddit.Comment) error {
	if comments == nil {
		comments = []reddit.Comment{}
	}

	commentsJSON, err := json.Marshal(comments)
	if err != nil {
		return fmt.Errorf("failed to marshal comments: %w", err)
	}

	_, err = r.db.Exec(`UPDATE posts SET comments = ? WHERE id = ?`, string(commentsJSON), postID)
	if err != nil {
		return fmt.Errorf("failed to update post comments: %w", err)
	}

	return nil
}

// SetHandle records the extracted target handle on a post
func (r *PostRepositoryImpl) SetHandle(postID, handle string, verified bool) error {
	_, err := r.db.Exec(`UPDATE posts SET handle = ?, handle_verified = ? WHERE id = ?`, handle, verified, postID)
	if err != nil {
		return fmt.Errorf("failed to set post handle: %w", err)
	}
	return nil
}

// SetVerdict records the sentiment verdict on a post
func (r *PostRepositoryImpl) SetVerdict(postID, verdict string) error {
	_, err := r.db.Exec(`UPDATE posts SET verdict = ? WHERE id = ?`, verdict, postID)
	if err != nil {
		return fmt.Errorf("failed to set post verdict: %w", err)
	}
	return nil
}

// SetStatus transitions a post. Terminal statuses (rejected, done) stamp
// processed_at; skipped leaves it empty so the post stays re-eligible.
func (r *PostRepositoryImpl) SetStatus(postID, status string) error {
	var err error
	if status == StatusRejected || status == StatusDone {
		_, err = r.db.Exec(`UPDATE posts SET status = ?, processed_at = CURRENT_TIMESTAMP WHERE id = ?`, status, postID)
	} else {
		_, err = r.db.Exec(`UPDATE posts SET status = ? WHERE id = ?`, status, postID)
	}

	if err != nil {
		return fmt.Errorf("failed to set post status: %w", err)
	}
	return nil
}

// GetPostCount returns the total number of posts
func (r *PostRepositoryImpl) GetPostCount() (int, error) {
	var count int
	err := r.db.QueryRow("SELECT COUNT(*) FROM posts").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to get post count: %w", err)
	}
	return count, nil
}

// GetStatusCounts returns the number of posts per status
func (r *PostRepositoryImpl) GetStatusCounts() (map[string]int, error) {
	rows, err := r.db.Query("SELECT status, COUNT(*) FROM posts GROUP BY status")
	if err != nil {
		return nil, fmt.Errorf("failed to get status counts: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, fmt.Errorf("failed to scan status count row: %w", err)
		}
		counts[status] = count
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating status count rows: %w", err)
	}

	return counts, nil
}

const selectPostColumns = `
	SELECT id, channel_id, title, body, author, permalink, created_at,
	       media_urls, comments, handle, handle_verified, verdict,
	       status, processed_at, fetched_at
	FROM posts`

func scanPost(row rowScanner) (*Post, error) {
	var post Post
	var mediaJSON, commentsJSON string
	var processedAt sql.NullTime

	err := row.Scan(
		&post.ID, &post.ChannelID, &post.Title, &post.Body, &post.Author,
		&post.Permalink, &post.CreatedAt, &mediaJSON, &commentsJSON,
		&post.Handle, &post.HandleVerified, &post.Verdict,
		&post.Status, &processedAt, &post.FetchedAt,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(mediaJSON), &post.MediaURLs); err != nil {
		return nil, fmt.Errorf("failed to unmarshal media URLs: %w", err)
	}
	if err := json.Unmarshal([]byte(commentsJSON), &post.Comments); err != nil {
		return nil, fmt.Errorf("failed to unmarshal comments: %w", err)
	}

	if processedAt.Valid {
		post.ProcessedAt = &processedAt.Time
	}

	return &post, nil
}
