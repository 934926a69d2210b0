package database

import (
	"time"

	"github.com/purplecheck/purple-check/app/reddit"
)

type ChannelRepository interface {
	GetChannel(channelID string) (*Channel, error)
	GetChannels() ([]Channel, error)
	GetChannelsDueForRefresh() ([]Channel, error)
	GetChannelCount() (int, error)

	UpsertChannel(channelID, subreddit string, enabled bool) error
	SetChannelEnabled(channelID string, enabled bool) error
}

type PostRepository interface {
	GetPost(postID string) (*Post, error)
	GetUnprocessedPosts(limit int) ([]Post, error)
	GetPostCount() (int, error)
	GetStatusCounts() (map[string]int, error)

	// SaveFetchCycle stores a fetch cycle's posts and advances the channel
	// checkpoint in a single transaction. Returns the number of newly
	// inserted posts; already-known identifiers are left untouched.
	SaveFetchCycle(channelID string, posts []Post, lastPostID string, lastPostCreatedAt time.Time, nextFetchAt time.Time) (int, error)

	UpdateComments(postID string, comments []reddit.Comment) error
	SetHandle(postID, handle string, verified bool) error
	SetVerdict(postID, verdict string) error
	SetStatus(postID, status string) error
}

type FeedbackRepository interface {
	// UpsertFeedback inserts the record or, when a row for the same
	// (giver, receiver) pair exists, overwrites its rating, comment and
	// updated_at in place.
	UpsertFeedback(rec FeedbackRecord) error
	GetFeedback(giver, receiver string) (*FeedbackRecord, error)
	GetFeedbackCount() (int, error)

	LogStage(postID, stage, detail string) error
	GetLogForPost(postID string) ([]LogEntry, error)
}
