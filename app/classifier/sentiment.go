package classifier

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/purplecheck/purple-check/app/reddit"
)

const maxSentimentImages = 3

const sentimentPromptTemplate = `Analyze the sentiment of this feedback about the Instagram seller %q.

Title: %s

By: %s

Post: %s

Comments:
%s

Instructions:
Determine whether the post and its comments express overall positive or negative feedback about the Instagram seller. If the evidence across the post and replies is insufficient or contradictory, say UNKNOWN rather than guessing.
Return ONLY a JSON object with this exact format:
{"verdict": "POSITIVE/NEGATIVE/UNKNOWN"}

Consider:
- Words like scam, fraud, fake, disappointed = negative
- Words like genuine, great, recommend, satisfied = positive
- Complaints about product quality, delivery, refunds = negative
- Praise about service, product, communication = positive`

// AnalyzeSentiment classifies the enriched post. The full context (title,
// body, images and the flattened comment thread) is sent so the verdict
// reflects evidence across the post and its replies. An unconfident or
// unexpected reply resolves to UNKNOWN.
func (c *Client) AnalyzeSentiment(ctx context.Context, handle, title, body, author string, comments []reddit.Comment, mediaURLs []string) (string, error) {
	prompt := fmt.Sprintf(sentimentPromptTemplate, handle, title, author, body, formatComments(comments))

	parts := []geminiPart{{Text: prompt}}
	parts = append(parts, c.imageParts(ctx, mediaURLs, maxSentimentImages)...)

	text, err := c.generate(ctx, parts)
	if err != nil {
		return "", fmt.Errorf("sentiment call failed: %w", err)
	}

	var reply sentimentReply
	if err := json.Unmarshal([]byte(text), &reply); err != nil {
		return "", fmt.Errorf("failed to parse sentiment reply: %w", err)
	}

	switch strings.ToUpper(strings.TrimSpace(reply.Verdict)) {
	case VerdictPositive:
		return VerdictPositive, nil
	case VerdictNegative:
		return VerdictNegative, nil
	default:
		return VerdictUnknown, nil
	}
}

func formatComments(comments []reddit.Comment) string {
	if len(comments) == 0 {
		return "No comments"
	}

	var b strings.Builder
	for i, comment := range comments {
		fmt.Fprintf(&b, "- Comment %d by %s (score %d): %s\n", i+1, comment.Author, comment.Score, truncate(comment.Body, 200))
	}
	return b.String()
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}
