package classifier

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
)

const relevancePromptTemplate = `Analyze this Reddit post to determine if it refers to an Instagram shopping page or account. The post is relevant if the author is talking about any individual Instagram based shop, either sharing their experience or asking for others' opinions.

Title: %s

Text: %s

Instructions:
1. Determine if this post is about an Instagram shop or seller by checking the text and the attached images
2. If yes, extract the exact Instagram username (handle); look for patterns like @username, instagram.com/username, "bought from username"
3. Rate how confident you are in the extracted username: high, medium or low
4. Return ONLY a JSON object with this exact format:
{"is_relevant": true/false, "username": "extracted_username_or_empty", "confidence": "high/medium/low"}

If no clear Instagram username can be extracted, leave username empty; is_relevant can still be true if the post clearly refers to Instagram.
Remove the @ symbol from the username if present. Return a lowercase username.`

// CheckRelevance asks the classifier whether the post concerns an Instagram
// shop and which handle it refers to. Abstention (not relevant, no handle, or
// low confidence) is a valid outcome, not an error; errors mean the provider
// call itself failed and may be retried.
func (c *Client) CheckRelevance(ctx context.Context, title, body string, mediaURLs []string) (Relevance, error) {
	prompt := fmt.Sprintf(relevancePromptTemplate, title, body)

	parts := []geminiPart{{Text: prompt}}
	parts = append(parts, c.imageParts(ctx, mediaURLs, 0)...)

	text, err := c.generate(ctx, parts)
	if err != nil {
		return Relevance{}, fmt.Errorf("relevance call failed: %w", err)
	}

	var reply relevanceReply
	if err := json.Unmarshal([]byte(text), &reply); err != nil {
		return Relevance{}, fmt.Errorf("failed to parse relevance reply: %w", err)
	}

	return Relevance{
		Relevant:   reply.IsRelevant,
		Handle:     NormalizeHandle(reply.Username),
		Confidence: normalizeConfidence(reply.Confidence),
	}, nil
}

// NormalizeHandle lowercases a handle and strips the @ prefix and surrounding
// whitespace. Placeholder values the model sometimes emits collapse to empty.
func NormalizeHandle(handle string) string {
	handle = strings.ToLower(strings.TrimSpace(handle))
	handle = strings.TrimPrefix(handle, "@")
	if handle == "null" || handle == "unknown" || handle == "none" {
		return ""
	}
	return handle
}

func normalizeConfidence(confidence string) string {
	switch strings.ToLower(strings.TrimSpace(confidence)) {
	case ConfidenceHigh:
		return ConfidenceHigh
	case ConfidenceMedium:
		return ConfidenceMedium
	default:
		return ConfidenceLow
	}
}
