package classifier

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/purplecheck/purple-check/app/transport"
)

const (
	defaultModel   = "gemini-2.0-flash"
	defaultBaseURL = "https://generativelanguage.googleapis.com"
)

// Client issues classification calls against the Gemini generateContent API.
// Post images are fetched through the authenticated transport and attached
// inline, so classification confidence reflects text and media together.
type Client struct {
	apiKey     string
	model      string
	baseURL    string
	httpClient *http.Client
	transport  *transport.Client
}

// Option configures a Client
type Option func(*Client)

// WithModel sets the model to use
func WithModel(model string) Option {
	return func(c *Client) {
		c.model = model
	}
}

// WithBaseURL sets a custom base URL (for testing)
func WithBaseURL(url string) Option {
	return func(c *Client) {
		c.baseURL = url
	}
}

// NewClient creates a new classifier client
func NewClient(apiKey string, t *transport.Client, opts ...Option) *Client {
	c := &Client{
		apiKey:     apiKey,
		model:      defaultModel,
		baseURL:    defaultBaseURL,
		httpClient: &http.Client{Timeout: 60 * time.Second},
		transport:  t,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// generate sends the parts to the model and returns the reply text with any
// markdown code fence stripped
func (c *Client) generate(ctx context.Context, parts []geminiPart) (string, error) {
	reqBody := geminiRequest{
		Contents: []geminiContent{{Parts: parts}},
	}

	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/v1beta/models/%s:generateContent?key=%s", c.baseURL, c.model, c.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(bodyBytes))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}

	var geminiResp geminiResponse
	if err := json.NewDecoder(resp.Body).Decode(&geminiResp); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}

	if len(geminiResp.Candidates) == 0 {
		return "", fmt.Errorf("no candidates in response")
	}
	candidate := geminiResp.Candidates[0]
	if len(candidate.Content.Parts) == 0 {
		return "", fmt.Errorf("no parts in candidate")
	}

	return stripMarkdownCodeBlock(candidate.Content.Parts[0].Text), nil
}

// imageParts fetches up to maxImages of the given URLs through the transport
// and returns them as inline data parts. Unfetchable images are dropped.
func (c *Client) imageParts(ctx context.Context, mediaURLs []string, maxImages int) []geminiPart {
	var parts []geminiPart
	for _, url := range mediaURLs {
		if maxImages > 0 && len(parts) >= maxImages {
			break
		}

		data, err := c.transport.Get(ctx, url)
		if err != nil {
			slog.Debug("Failed to fetch post image, continuing without it", "url", url, "error", err)
			continue
		}

		parts = append(parts, geminiPart{
			InlineData: &geminiInlineData{
				MimeType: "image/jpeg",
				Data:     base64.StdEncoding.EncodeToString(data),
			},
		})
	}
	return parts
}

var codeBlockRegex = regexp.MustCompile("(?s)^\\s*```(?:json)?\\s*(.+?)\\s*```\\s*$")

func stripMarkdownCodeBlock(s string) string {
	s = strings.TrimSpace(s)
	if matches := codeBlockRegex.FindStringSubmatch(s); len(matches) > 1 {
		return strings.TrimSpace(matches[1])
	}
	return s
}
