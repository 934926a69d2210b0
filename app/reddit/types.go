package reddit

import (
	"encoding/json"
	"time"
)

// Thing kinds used by the listing API
const (
	KindPost    = "t3"
	KindComment = "t1"
	KindListing = "Listing"
)

// Listing is the envelope the listing API wraps every page in
type Listing struct {
	Kind string      `json:"kind"`
	Data ListingData `json:"data"`
}

type ListingData struct {
	After    string  `json:"after"`
	Children []Thing `json:"children"`
}

// Thing is one entry of a listing; Data is decoded according to Kind
type Thing struct {
	Kind string          `json:"kind"`
	Data json.RawMessage `json:"data"`
}

// Post holds the fields of a t3 thing we care about, including the optional
// gallery and preview metadata used for media URL resolution.
type Post struct {
	ID            string                   `json:"id"`
	Name          string                   `json:"name"` // fullname, e.g. t3_1abc2d
	Title         string                   `json:"title"`
	SelfText      string                   `json:"selftext"`
	Author        string                   `json:"author"`
	Subreddit     string                   `json:"subreddit"`
	CreatedUTC    float64                  `json:"created_utc"`
	Permalink     string                   `json:"permalink"`
	URL           string                   `json:"url"`
	GalleryData   *GalleryData             `json:"gallery_data"`
	MediaMetadata map[string]MediaMetadata `json:"media_metadata"`
	Preview       *Preview                 `json:"preview"`
}

// Created returns the post creation time in UTC
func (p *Post) Created() time.Time {
	return time.Unix(int64(p.CreatedUTC), 0).UTC()
}

type GalleryData struct {
	Items []GalleryItem `json:"items"`
}

type GalleryItem struct {
	MediaID string `json:"media_id"`
}

type MediaMetadata struct {
	Source MediaSource `json:"s"`
}

type MediaSource struct {
	URL string `json:"u"`
}

type Preview struct {
	Images []PreviewImage `json:"images"`
}

type PreviewImage struct {
	Source PreviewSource `json:"source"`
}

type PreviewSource struct {
	URL string `json:"url"`
}

// Comment is one flattened reply of a post's discussion thread
type Comment struct {
	Author     string  `json:"author"`
	Body       string  `json:"body"`
	Score      int     `json:"score"`
	CreatedUTC float64 `json:"created_utc"`
}

// commentNode is the wire shape of a t1 thing. Replies is either a nested
// Listing or the empty string, so it has to stay raw until inspected.
type commentNode struct {
	Author     string          `json:"author"`
	Body       string          `json:"body"`
	Score      int             `json:"score"`
	CreatedUTC float64         `json:"created_utc"`
	Replies    json.RawMessage `json:"replies"`
}
