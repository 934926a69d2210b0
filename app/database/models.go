package database

import (
	"time"

	"github.com/purplecheck/purple-check/app/reddit"
)

// Post status values. Rejected and done are terminal; skipped posts are
// picked up again by later processing runs.
const (
	StatusPending  = "pending"
	StatusRejected = "rejected"
	StatusSkipped  = "skipped"
	StatusDone     = "done"
)

// Channel represents a tracked subreddit together with its fetch checkpoint.
// The checkpoint columns are written only by a successful fetch cycle, in the
// same transaction that stores the cycle's posts.
type Channel struct {
	ID                string // Configuration channel identifier derived from filename
	Subreddit         string
	Enabled           bool
	LastPostID        string // Fullname of the newest post known for this channel
	LastPostCreatedAt *time.Time
	LastFetchedAt     *time.Time
	NextFetchAt       *time.Time
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// Post represents a fetched post record in the database
type Post struct {
	ID             string // Reddit fullname (t3_...), immutable
	ChannelID      string
	Title          string
	Body           string
	Author         string
	Permalink      string
	CreatedAt      time.Time
	MediaURLs      []string
	Comments       []reddit.Comment
	Handle         string // Extracted Instagram handle, empty until accepted
	HandleVerified bool
	Verdict        string // POSITIVE, NEGATIVE or UNKNOWN once classified
	Status         string
	ProcessedAt    *time.Time
	FetchedAt      time.Time
}

// FeedbackRecord is the persisted pipeline output, unique on (giver, receiver)
type FeedbackRecord struct {
	ID           int64
	Giver        string
	Receiver     string
	Rating       string
	Comment      string
	GiverRole    string
	ReceiverRole string
	Platform     string
	Medium       string
	Source       string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// LogEntry is an append-only record of the last pipeline stage that touched a post
type LogEntry struct {
	ID        int64
	PostID    string
	Stage     string
	Detail    string
	CreatedAt time.Time
}
