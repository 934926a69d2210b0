package reddit

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strconv"

	"github.com/purplecheck/purple-check/app/transport"
)

// ErrMalformedListing indicates a response that could not be decoded into the
// expected listing shape. Callers skip the offending page and continue.
var ErrMalformedListing = errors.New("malformed listing response")

const DefaultBaseURL = "https://www.reddit.com"

// Client reads the public listing API through the authenticated transport
type Client struct {
	transport *transport.Client
	baseURL   string
}

func NewClient(t *transport.Client, baseURL string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{transport: t, baseURL: baseURL}
}

// ListNew fetches one page of a subreddit's newest posts. An empty after
// cursor requests the top of the feed; otherwise the page continues backward
// in time from the given fullname. Returns the page's posts in listing order
// (newest first) and the cursor for the next older page.
func (c *Client) ListNew(ctx context.Context, subreddit, after string, limit int) ([]Post, string, error) {
	query := url.Values{}
	query.Set("limit", strconv.Itoa(limit))
	query.Set("raw_json", "1")
	if after != "" {
		query.Set("after", after)
	}

	u := fmt.Sprintf("%s/r/%s/new.json?%s", c.baseURL, subreddit, query.Encode())

	data, err := c.transport.Get(ctx, u)
	if err != nil {
		return nil, "", fmt.Errorf("failed to fetch listing: %w", err)
	}

	var listing Listing
	if err := json.Unmarshal(data, &listing); err != nil {
		return nil, "", fmt.Errorf("%w: %v", ErrMalformedListing, err)
	}
	if listing.Kind != KindListing {
		return nil, "", fmt.Errorf("%w: unexpected kind %q", ErrMalformedListing, listing.Kind)
	}

	posts := make([]Post, 0, len(listing.Data.Children))
	for _, child := range listing.Data.Children {
		if child.Kind != KindPost {
			continue
		}

		var post Post
		if err := json.Unmarshal(child.Data, &post); err != nil {
			// Drop the entry, keep the page
			continue
		}
		if post.Name == "" {
			continue
		}

		posts = append(posts, post)
	}

	return posts, listing.Data.After, nil
}

// FetchComments fetches the discussion thread behind a permalink and flattens
// it into a single ordered sequence, preserving the thread's reply order.
func (c *Client) FetchComments(ctx context.Context, permalink string) ([]Comment, error) {
	u := fmt.Sprintf("%s%s.json?raw_json=1", c.baseURL, permalink)

	data, err := c.transport.Get(ctx, u)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch comments: %w", err)
	}

	// The thread endpoint returns [post listing, comment listing]
	var listings []Listing
	if err := json.Unmarshal(data, &listings); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedListing, err)
	}
	if len(listings) < 2 {
		return []Comment{}, nil
	}

	comments := []Comment{}
	flattenListing(&listings[1], &comments)
	return comments, nil
}
