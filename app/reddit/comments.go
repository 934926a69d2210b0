package reddit

import (
	"encoding/json"
)

// flattenListing walks a comment listing depth-first, appending each comment
// before its replies so the source's reply ordering is preserved.
// Deleted and removed comments are dropped.
func flattenListing(listing *Listing, out *[]Comment) {
	for _, child := range listing.Data.Children {
		if child.Kind != KindComment {
			continue
		}

		var node commentNode
		if err := json.Unmarshal(child.Data, &node); err != nil {
			continue
		}

		if node.Body != "[deleted]" && node.Body != "[removed]" && node.Author != "[deleted]" {
			*out = append(*out, Comment{
				Author:     node.Author,
				Body:       node.Body,
				Score:      node.Score,
				CreatedUTC: node.CreatedUTC,
			})
		}

		// Replies is "" when the comment has none
		if len(node.Replies) == 0 || string(node.Replies) == `""` {
			continue
		}

		var replies Listing
		if err := json.Unmarshal(node.Replies, &replies); err != nil {
			continue
		}
		flattenListing(&replies, out)
	}
}
