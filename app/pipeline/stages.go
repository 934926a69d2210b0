package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/purplecheck/purple-check/app/classifier"
	"github.com/purplecheck/purple-check/app/database"
	"github.com/purplecheck/purple-check/app/reddit"
	"github.com/purplecheck/purple-check/app/transport"
)

// runRelevance decides topical relevance and extracts the target handle.
// Classifier abstention rejects the post for good; provider failure after
// retries leaves it skipped so a later run can try again.
func (p *Pipeline) runRelevance(ctx context.Context, post *database.Post) error {
	var rel classifier.Relevance

	err := p.retryCall(ctx, func() error {
		var callErr error
		rel, callErr = p.classifier.CheckRelevance(ctx, post.Title, post.Body, post.MediaURLs)
		return callErr
	})
	if err != nil {
		if errors.Is(err, transport.ErrAuth) || ctx.Err() != nil {
			return err
		}
		return &SkipError{
			Status: database.StatusSkipped,
			Reason: "relevance classifier unavailable",
			Err:    err,
		}
	}

	if !rel.Accepted() {
		return &SkipError{
			Status: database.StatusRejected,
			Reason: rejectionReason(rel),
		}
	}

	verified := false
	if p.checker != nil {
		exists, checkErr := p.checker.Exists(ctx, rel.Handle)
		if checkErr != nil {
			slog.Warn("Handle verification failed, recording handle as unverified",
				"post", post.ID, "handle", rel.Handle, "error", checkErr)
		} else {
			verified = exists
		}
	}

	post.Handle = rel.Handle
	post.HandleVerified = verified
	if err := p.postRepo.SetHandle(post.ID, rel.Handle, verified); err != nil {
		return err
	}

	return p.feedbackRepo.LogStage(post.ID, StageRelevance, "accepted, handle "+rel.Handle)
}

func rejectionReason(rel classifier.Relevance) string {
	switch {
	case !rel.Relevant:
		return "not relevant"
	case rel.Handle == "":
		return "relevant but no handle extracted"
	default:
		return "handle confidence too low"
	}
}

// runEnrich attaches the post's discussion thread. Persistent fetch failure
// degrades to an empty comment sequence instead of blocking the pipeline.
func (p *Pipeline) runEnrich(ctx context.Context, post *database.Post) error {
	var comments []reddit.Comment

	err := p.retryCall(ctx, func() error {
		var fetchErr error
		comments, fetchErr = p.comments.FetchComments(ctx, post.Permalink)
		return fetchErr
	})
	if err != nil {
		if errors.Is(err, transport.ErrAuth) || ctx.Err() != nil {
			return err
		}
		slog.Warn("Comment fetch failed, continuing with empty thread", "post", post.ID, "error", err)
		comments = []reddit.Comment{}
	}

	post.Comments = comments
	if err := p.postRepo.UpdateComments(post.ID, comments); err != nil {
		return err
	}

	return p.feedbackRepo.LogStage(post.ID, StageEnrich, fmt.Sprintf("%d comments attached", len(comments)))
}

// runSentiment classifies the enriched post. UNKNOWN ends the post as done
// without a feedback record: insufficient evidence is a valid final outcome.
func (p *Pipeline) runSentiment(ctx context.Context, post *database.Post) error {
	var verdict string

	err := p.retryCall(ctx, func() error {
		var callErr error
		verdict, callErr = p.classifier.AnalyzeSentiment(ctx, post.Handle, post.Title, post.Body, post.Author, post.Comments, post.MediaURLs)
		return callErr
	})
	if err != nil {
		if errors.Is(err, transport.ErrAuth) || ctx.Err() != nil {
			return err
		}
		return &SkipError{
			Status: database.StatusSkipped,
			Reason: "sentiment classifier unavailable",
			Err:    err,
		}
	}

	post.Verdict = verdict
	if err := p.postRepo.SetVerdict(post.ID, verdict); err != nil {
		return err
	}

	if verdict == classifier.VerdictUnknown {
		return &SkipError{
			Status: database.StatusDone,
			Reason: "verdict UNKNOWN, nothing persisted",
		}
	}

	return p.feedbackRepo.LogStage(post.ID, StageSentiment, "verdict "+verdict)
}

// runPersist upserts the feedback record keyed on (giver, receiver)
func (p *Pipeline) runPersist(ctx context.Context, post *database.Post) error {
	rec := buildFeedbackRecord(post)

	if err := p.feedbackRepo.UpsertFeedback(rec); err != nil {
		return err
	}

	return p.feedbackRepo.LogStage(post.ID, StagePersist, fmt.Sprintf("feedback %s -> %s (%s)", rec.Giver, rec.Receiver, rec.Rating))
}

func buildFeedbackRecord(post *database.Post) database.FeedbackRecord {
	parts := []string{"Title: " + post.Title}
	if post.Body != "" {
		parts = append(parts, "Post: "+truncate(post.Body, 500))
	}

	if len(post.Comments) > 0 {
		parts = append(parts, fmt.Sprintf("\nTop comments (%d):", len(post.Comments)))
		for i, comment := range post.Comments {
			if i >= 5 {
				break
			}
			parts = append(parts, "- "+truncate(comment.Body, 150))
		}
	}

	parts = append(parts, "\nReddit link: https://reddit.com"+post.Permalink)

	return database.FeedbackRecord{
		Giver:        post.Author,
		Receiver:     post.Handle,
		Rating:       post.Verdict,
		Comment:      strings.Join(parts, "\n"),
		GiverRole:    database.FeedbackGiverRole,
		ReceiverRole: database.FeedbackReceiverRole,
		Platform:     database.FeedbackPlatform,
		Medium:       database.FeedbackMedium,
		Source:       database.FeedbackSource,
	}
}
