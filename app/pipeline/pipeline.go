package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/purplecheck/purple-check/app/classifier"
	"github.com/purplecheck/purple-check/app/database"
	"github.com/purplecheck/purple-check/app/reddit"
	"github.com/purplecheck/purple-check/app/transport"
)

// Pipeline stage names, recorded in the processing log
const (
	StageRelevance = "relevance"
	StageEnrich    = "enrich"
	StageSentiment = "sentiment"
	StagePersist   = "persist"
)

// SkipError stops a post's pipeline with a terminal or retryable status.
// It is control flow, not a failure: rejected and done are final, skipped
// posts are picked up again by a later run.
type SkipError struct {
	Status string // database.StatusRejected, StatusSkipped or StatusDone
	Reason string
	Err    error
}

func (e *SkipError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Status, e.Reason, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Status, e.Reason)
}

func (e *SkipError) Unwrap() error {
	return e.Err
}

// Classifier is the slice of the classifier API the pipeline needs
type Classifier interface {
	CheckRelevance(ctx context.Context, title, body string, mediaURLs []string) (classifier.Relevance, error)
	AnalyzeSentiment(ctx context.Context, handle, title, body, author string, comments []reddit.Comment, mediaURLs []string) (string, error)
}

// CommentFetcher fetches and flattens a post's discussion thread
type CommentFetcher interface {
	FetchComments(ctx context.Context, permalink string) ([]reddit.Comment, error)
}

// HandleChecker verifies an extracted handle against the target platform
type HandleChecker interface {
	Exists(ctx context.Context, handle string) (bool, error)
}

// Stage is one step of the per-post pipeline. A returned *SkipError ends the
// post's processing with the carried status; any other error is an
// infrastructure failure surfaced to the caller.
type Stage struct {
	Name string
	Run  func(ctx context.Context, post *database.Post) error
}

// Pipeline runs each unprocessed post through relevance filtering, comment
// enrichment, sentiment classification and persistence, strictly one post at
// a time in creation-time order.
type Pipeline struct {
	classifier   Classifier
	comments     CommentFetcher
	checker      HandleChecker
	postRepo     database.PostRepository
	feedbackRepo database.FeedbackRepository

	// Retry policy for external classifier and comment calls
	MaxAttempts int
	RetryDelay  time.Duration
}

func NewPipeline(cls Classifier, comments CommentFetcher, checker HandleChecker,
	postRepo database.PostRepository, feedbackRepo database.FeedbackRepository) *Pipeline {
	return &Pipeline{
		classifier:   cls,
		comments:     comments,
		checker:      checker,
		postRepo:     postRepo,
		feedbackRepo: feedbackRepo,
		MaxAttempts:  3,
		RetryDelay:   5 * time.Second,
	}
}

// ProcessAll runs the pipeline over all unprocessed posts. Per-post outcomes
// never abort the run; only auth failures and store errors do.
func (p *Pipeline) ProcessAll(ctx context.Context, limit int) (int, error) {
	posts, err := p.postRepo.GetUnprocessedPosts(limit)
	if err != nil {
		return 0, fmt.Errorf("failed to load unprocessed posts: %w", err)
	}

	processed := 0
	for i := range posts {
		if err := ctx.Err(); err != nil {
			return processed, err
		}

		if err := p.ProcessPost(ctx, &posts[i]); err != nil {
			return processed, err
		}
		processed++
	}

	return processed, nil
}

// ProcessPost runs one post through the stages, short-circuiting on the first
// stage that ends it. Returns an error only for auth or store failures.
func (p *Pipeline) ProcessPost(ctx context.Context, post *database.Post) error {
	slog.Info("Processing post", "post", post.ID, "title", truncate(post.Title, 60))

	for _, stage := range p.stages() {
		err := stage.Run(ctx, post)
		if err == nil {
			continue
		}

		var skip *SkipError
		if errors.As(err, &skip) {
			if logErr := p.feedbackRepo.LogStage(post.ID, stage.Name, skip.Reason); logErr != nil {
				return logErr
			}
			if statusErr := p.postRepo.SetStatus(post.ID, skip.Status); statusErr != nil {
				return statusErr
			}
			slog.Info("Post left pipeline", "post", post.ID, "stage", stage.Name, "status", skip.Status, "reason", skip.Reason)
			return nil
		}

		return fmt.Errorf("stage %s failed for post %s: %w", stage.Name, post.ID, err)
	}

	if err := p.postRepo.SetStatus(post.ID, database.StatusDone); err != nil {
		return err
	}

	slog.Info("Post processed", "post", post.ID, "handle", post.Handle, "verdict", post.Verdict)
	return nil
}

func (p *Pipeline) stages() []Stage {
	return []Stage{
		{Name: StageRelevance, Run: p.runRelevance},
		{Name: StageEnrich, Run: p.runEnrich},
		{Name: StageSentiment, Run: p.runSentiment},
		{Name: StagePersist, Run: p.runPersist},
	}
}

// retryCall retries fn with a fixed delay. Auth errors are never retried.
func (p *Pipeline) retryCall(ctx context.Context, fn func() error) error {
	var err error
	for attempt := 1; attempt <= p.MaxAttempts; attempt++ {
		err = fn()
		if err == nil || errors.Is(err, transport.ErrAuth) {
			return err
		}
		if attempt < p.MaxAttempts {
			if sleepErr := sleep(ctx, p.RetryDelay); sleepErr != nil {
				return sleepErr
			}
		}
	}
	return err
}

func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}
