package instagram

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/PuerkitoBio/goquery"
	"github.com/purplecheck/purple-check/app/transport"
)

const DefaultBaseURL = "https://www.instagram.com"

// Checker verifies that an extracted handle points at a live Instagram
// profile. Valid profile pages carry OpenGraph meta tags (og:title, og:type,
// og:url); their absence means the handle does not resolve to a profile.
type Checker struct {
	transport *transport.Client
	baseURL   string
}

func NewChecker(t *transport.Client, baseURL string) *Checker {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Checker{transport: t, baseURL: baseURL}
}

// Exists reports whether the handle resolves to an existing profile.
// A 404 is a definitive "no"; any other failure is returned as an error so
// the caller can decide how much to trust the unverified handle.
func (c *Checker) Exists(ctx context.Context, handle string) (bool, error) {
	url := fmt.Sprintf("%s/%s/", c.baseURL, handle)

	data, err := c.transport.Get(ctx, url)
	if err != nil {
		var statusErr *transport.StatusError
		if errors.As(err, &statusErr) && statusErr.Code == http.StatusNotFound {
			return false, nil
		}
		return false, fmt.Errorf("failed to fetch profile page: %w", err)
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(data))
	if err != nil {
		return false, fmt.Errorf("failed to parse profile page: %w", err)
	}

	return doc.Find(`meta[property^="og:"]`).Length() > 0, nil
}
