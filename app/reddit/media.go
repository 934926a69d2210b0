package reddit

import (
	"html"
)

// ResolveMediaURLs returns the post's image URLs as an ordered sequence.
// Gallery posts resolve the source URL of every image referenced by the
// gallery's item list, in gallery order; otherwise the source URL of every
// preview image is collected. URLs arrive HTML-escaped and are unescaped here.
func ResolveMediaURLs(p *Post) []string {
	var urls []string

	if p.GalleryData != nil {
		for _, item := range p.GalleryData.Items {
			meta, ok := p.MediaMetadata[item.MediaID]
			if !ok || meta.Source.URL == "" {
				continue
			}
			urls = append(urls, html.UnescapeString(meta.Source.URL))
		}
		return urls
	}

	if p.Preview != nil {
		for _, image := range p.Preview.Images {
			if image.Source.URL == "" {
				continue
			}
			urls = append(urls, html.UnescapeString(image.Source.URL))
		}
	}

	return urls
}
