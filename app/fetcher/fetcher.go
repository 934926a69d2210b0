package fetcher

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/purplecheck/purple-check/app/config"
	"github.com/purplecheck/purple-check/app/database"
	"github.com/purplecheck/purple-check/app/reddit"
)

// ListingClient is the slice of the feed API the fetcher needs
type ListingClient interface {
	ListNew(ctx context.Context, subreddit, after string, limit int) ([]reddit.Post, string, error)
}

// Fetcher walks a channel's listing backward from the top of the feed until
// it reaches the channel's checkpoint, merging new posts into the channel's
// item set and advancing the checkpoint to the newest post known.
type Fetcher struct {
	client      ListingClient
	channelRepo database.ChannelRepository
	postRepo    database.PostRepository
}

func NewFetcher(client ListingClient, channelRepo database.ChannelRepository, postRepo database.PostRepository) *Fetcher {
	return &Fetcher{
		client:      client,
		channelRepo: channelRepo,
		postRepo:    postRepo,
	}
}

// FetchChannel runs one incremental fetch cycle for the channel. Returns the
// number of newly stored posts. Any transport or auth error aborts the cycle
// before the checkpoint is touched, so a retry starts from the same state.
func (f *Fetcher) FetchChannel(ctx context.Context, channelCfg *config.ChannelConfig) (int, error) {
	channel, err := f.channelRepo.GetChannel(channelCfg.Channel.Name)
	if err != nil {
		return 0, fmt.Errorf("failed to load channel: %w", err)
	}
	if channel == nil {
		return 0, fmt.Errorf("channel %q is not registered", channelCfg.Channel.Name)
	}

	collected, err := f.walkListing(ctx, channel, channelCfg)
	if err != nil {
		return 0, err
	}

	posts := make([]database.Post, 0, len(collected))
	for _, p := range collected {
		posts = append(posts, database.Post{
			ID:        p.Name,
			ChannelID: channel.ID,
			Title:     p.Title,
			Body:      p.SelfText,
			Author:    p.Author,
			Permalink: p.Permalink,
			CreatedAt: p.Created(),
			MediaURLs: reddit.ResolveMediaURLs(&p),
		})
	}

	// Creation time ascending, identifier breaking ties
	sort.Slice(posts, func(i, j int) bool {
		if posts[i].CreatedAt.Equal(posts[j].CreatedAt) {
			return posts[i].ID < posts[j].ID
		}
		return posts[i].CreatedAt.Before(posts[j].CreatedAt)
	})

	lastPostID, lastPostCreatedAt := nextCheckpoint(channel, posts)
	nextFetchAt := time.Now().UTC().Add(time.Duration(channelCfg.Settings.RefreshInterval) * time.Second)

	added, err := f.postRepo.SaveFetchCycle(channel.ID, posts, lastPostID, lastPostCreatedAt, nextFetchAt)
	if err != nil {
		return 0, fmt.Errorf("failed to save fetch cycle: %w", err)
	}

	slog.Info("Fetch cycle completed",
		"channel", channel.ID,
		"collected", len(posts),
		"new", added,
		"checkpoint", lastPostID)

	return added, nil
}

// walkListing pages backward in time from the top of the feed. It stops when
// a page contains the checkpointed identifier, the page is empty, no further
// cursor is available, or the page-count safety limit is hit.
func (f *Fetcher) walkListing(ctx context.Context, channel *database.Channel, channelCfg *config.ChannelConfig) ([]reddit.Post, error) {
	var collected []reddit.Post
	seen := make(map[string]bool)

	after := ""
	for page := 0; page < channelCfg.Settings.MaxPages; page++ {
		posts, next, err := f.client.ListNew(ctx, channelCfg.Channel.Subreddit, after, channelCfg.Settings.RequestLimit)
		if err != nil {
			if errors.Is(err, reddit.ErrMalformedListing) {
				slog.Warn("Malformed listing page, skipping remainder of cycle",
					"channel", channel.ID, "error", err)
				break
			}
			return nil, fmt.Errorf("failed to fetch listing page: %w", err)
		}

		if len(posts) == 0 {
			break
		}

		reachedCheckpoint := false
		oldest := ""
		for _, post := range posts {
			if channel.LastPostID != "" && post.Name == channel.LastPostID {
				// Everything newer than the checkpoint is now collected
				reachedCheckpoint = true
				break
			}
			oldest = post.Name
			if seen[post.Name] {
				continue
			}
			seen[post.Name] = true
			collected = append(collected, post)
		}

		if reachedCheckpoint || next == "" {
			break
		}

		// Advance the cursor to the oldest identifier seen on this page
		after = oldest
		if after == "" {
			after = next
		}
	}

	return collected, nil
}

// nextCheckpoint returns the identifier and creation time of the newest post
// now known for the channel, considering both the previous checkpoint and the
// posts collected this cycle.
func nextCheckpoint(channel *database.Channel, posts []database.Post) (string, time.Time) {
	lastID := channel.LastPostID
	var lastCreated time.Time
	if channel.LastPostCreatedAt != nil {
		lastCreated = *channel.LastPostCreatedAt
	}

	for _, post := range posts {
		if post.CreatedAt.After(lastCreated) ||
			(post.CreatedAt.Equal(lastCreated) && post.ID > lastID) {
			lastID = post.ID
			lastCreated = post.CreatedAt
		}
	}

	return lastID, lastCreated
}
