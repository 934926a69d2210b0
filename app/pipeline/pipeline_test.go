package pipeline

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/purplecheck/purple-check/app/classifier"
	"github.com/purplecheck/purple-check/app/database"
	"github.com/purplecheck/purple-check/app/reddit"
	"github.com/purplecheck/purple-check/app/transport"
)

type mockClassifier struct {
	relevance      classifier.Relevance
	relevanceErr   error
	relevanceCalls int

	verdict        string
	sentimentErr   error
	sentimentCalls int
}

func (m *mockClassifier) CheckRelevance(ctx context.Context, title, body string, mediaURLs []string) (classifier.Relevance, error) {
	m.relevanceCalls++
	return m.relevance, m.relevanceErr
}

func (m *mockClassifier) AnalyzeSentiment(ctx context.Context, handle, title, body, author string, comments []reddit.Comment, mediaURLs []string) (string, error) {
	m.sentimentCalls++
	return m.verdict, m.sentimentErr
}

type mockCommentFetcher struct {
	comments []reddit.Comment
	err      error
	calls    int
}

func (m *mockCommentFetcher) FetchComments(ctx context.Context, permalink string) ([]reddit.Comment, error) {
	m.calls++
	return m.comments, m.err
}

type mockChecker struct {
	exists bool
	err    error
	calls  int
}

func (m *mockChecker) Exists(ctx context.Context, handle string) (bool, error) {
	m.calls++
	return m.exists, m.err
}

type mockPostRepo struct {
	posts []database.Post

	handles        map[string]string
	verified       map[string]bool
	verdicts       map[string]string
	statuses       map[string]string
	updatedThreads map[string][]reddit.Comment
}

func newMockPostRepo(posts ...database.Post) *mockPostRepo {
	return &mockPostRepo{
		posts:          posts,
		handles:        map[string]string{},
		verified:       map[string]bool{},
		verdicts:       map[string]string{},
		statuses:       map[string]string{},
		updatedThreads: map[string][]reddit.Comment{},
	}
}

func (m *mockPostRepo) GetPost(postID string) (*database.Post, error) { return nil, nil }
func (m *mockPostRepo) GetUnprocessedPosts(limit int) ([]database.Post, error) {
	if limit > 0 && limit < len(m.posts) {
		return m.posts[:limit], nil
	}
	return m.posts, nil
}
func (m *mockPostRepo) GetPostCount() (int, error)               { return len(m.posts), nil }
func (m *mockPostRepo) GetStatusCounts() (map[string]int, error) { return nil, nil }
func (m *mockPostRepo) SaveFetchCycle(channelID string, posts []database.Post, lastPostID string, lastPostCreatedAt time.Time, nextFetchAt time.Time) (int, error) {
	return 0, nil
}
func (m *mockPostRepo) UpdateComments(postID string, comments []reddit.Comment) error {
	m.updatedThreads[postID] = comments
	return nil
}
func (m *mockPostRepo) SetHandle(postID, handle string, verified bool) error {
	m.handles[postID] = handle
	m.verified[postID] = verified
	return nil
}
func (m *mockPostRepo) SetVerdict(postID, verdict string) error {
	m.verdicts[postID] = verdict
	return nil
}
func (m *mockPostRepo) SetStatus(postID, status string) error {
	m.statuses[postID] = status
	return nil
}

type loggedStage struct {
	postID string
	stage  string
	detail string
}

type mockFeedbackRepo struct {
	upserts []database.FeedbackRecord
	log     []loggedStage
}

func (m *mockFeedbackRepo) UpsertFeedback(rec database.FeedbackRecord) error {
	m.upserts = append(m.upserts, rec)
	return nil
}
func (m *mockFeedbackRepo) GetFeedback(giver, receiver string) (*database.FeedbackRecord, error) {
	return nil, nil
}
func (m *mockFeedbackRepo) GetFeedbackCount() (int, error) { return len(m.upserts), nil }
func (m *mockFeedbackRepo) LogStage(postID, stage, detail string) error {
	m.log = append(m.log, loggedStage{postID: postID, stage: stage, detail: detail})
	return nil
}
func (m *mockFeedbackRepo) GetLogForPost(postID string) ([]database.LogEntry, error) {
	return nil, nil
}

func testPost() database.Post {
	return database.Post{
		ID:        "t3_abc",
		ChannelID: "shops",
		Title:     "Bought from @shopname, amazing service",
		Body:      "Ordered a dress, arrived in three days.",
		Author:    "happy_buyer",
		Permalink: "/r/InstagramShops/comments/abc/bought/",
		Status:    database.StatusPending,
	}
}

func newTestPipeline(cls Classifier, comments CommentFetcher, checker HandleChecker,
	postRepo database.PostRepository, feedbackRepo database.FeedbackRepository) *Pipeline {
	p := NewPipeline(cls, comments, checker, postRepo, feedbackRepo)
	p.RetryDelay = 0
	return p
}

func TestProcessPostHappyPath(t *testing.T) {
	cls := &mockClassifier{
		relevance: classifier.Relevance{Relevant: true, Handle: "shopname", Confidence: classifier.ConfidenceHigh},
		verdict:   classifier.VerdictPositive,
	}
	comments := &mockCommentFetcher{comments: []reddit.Comment{{Author: "alice", Body: "Can confirm, great shop"}}}
	checker := &mockChecker{exists: true}
	postRepo := newMockPostRepo()
	feedbackRepo := &mockFeedbackRepo{}

	pipe := newTestPipeline(cls, comments, checker, postRepo, feedbackRepo)

	post := testPost()
	if err := pipe.ProcessPost(context.Background(), &post); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if postRepo.statuses["t3_abc"] != database.StatusDone {
		t.Errorf("Expected status done, got %s", postRepo.statuses["t3_abc"])
	}
	if postRepo.handles["t3_abc"] != "shopname" {
		t.Errorf("Expected handle shopname, got %s", postRepo.handles["t3_abc"])
	}
	if !postRepo.verified["t3_abc"] {
		t.Error("Expected handle to be verified")
	}
	if postRepo.verdicts["t3_abc"] != classifier.VerdictPositive {
		t.Errorf("Expected POSITIVE verdict, got %s", postRepo.verdicts["t3_abc"])
	}

	if len(feedbackRepo.upserts) != 1 {
		t.Fatalf("Expected 1 feedback record, got %d", len(feedbackRepo.upserts))
	}
	rec := feedbackRepo.upserts[0]
	if rec.Giver != "happy_buyer" || rec.Receiver != "shopname" {
		t.Errorf("Unexpected feedback parties: %s -> %s", rec.Giver, rec.Receiver)
	}
	if rec.Rating != classifier.VerdictPositive {
		t.Errorf("Unexpected rating: %s", rec.Rating)
	}
	if rec.GiverRole != database.FeedbackGiverRole || rec.ReceiverRole != database.FeedbackReceiverRole {
		t.Errorf("Unexpected roles: %s / %s", rec.GiverRole, rec.ReceiverRole)
	}
	if rec.Platform != database.FeedbackPlatform || rec.Source != database.FeedbackSource {
		t.Errorf("Unexpected platform/source: %s / %s", rec.Platform, rec.Source)
	}
	if !strings.Contains(rec.Comment, "Can confirm, great shop") {
		t.Error("Expected comment excerpt in feedback comment")
	}
	if !strings.Contains(rec.Comment, post.Permalink) {
		t.Error("Expected permalink in feedback comment")
	}
}

func TestProcessPostNotRelevant(t *testing.T) {
	cls := &mockClassifier{
		relevance: classifier.Relevance{Relevant: false},
	}
	comments := &mockCommentFetcher{}
	postRepo := newMockPostRepo()
	feedbackRepo := &mockFeedbackRepo{}

	pipe := newTestPipeline(cls, comments, &mockChecker{}, postRepo, feedbackRepo)

	post := testPost()
	if err := pipe.ProcessPost(context.Background(), &post); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if postRepo.statuses["t3_abc"] != database.StatusRejected {
		t.Errorf("Expected status rejected, got %s", postRepo.statuses["t3_abc"])
	}
	if comments.calls != 0 {
		t.Error("Expected no comment fetch for a rejected post")
	}
	if cls.sentimentCalls != 0 {
		t.Error("Expected no sentiment call for a rejected post")
	}
	if len(feedbackRepo.upserts) != 0 {
		t.Error("Expected no feedback record for a rejected post")
	}
}

func TestProcessPostLowConfidenceRejected(t *testing.T) {
	cls := &mockClassifier{
		relevance: classifier.Relevance{Relevant: true, Handle: "shopname", Confidence: classifier.ConfidenceLow},
	}
	postRepo := newMockPostRepo()
	feedbackRepo := &mockFeedbackRepo{}

	pipe := newTestPipeline(cls, &mockCommentFetcher{}, &mockChecker{}, postRepo, feedbackRepo)

	post := testPost()
	if err := pipe.ProcessPost(context.Background(), &post); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if postRepo.statuses["t3_abc"] != database.StatusRejected {
		t.Errorf("Expected status rejected, got %s", postRepo.statuses["t3_abc"])
	}

	found := false
	for _, entry := range feedbackRepo.log {
		if entry.stage == StageRelevance && strings.Contains(entry.detail, "confidence too low") {
			found = true
		}
	}
	if !found {
		t.Error("Expected low-confidence rejection to be logged")
	}
}

func TestProcessPostClassifierDownSkipped(t *testing.T) {
	cls := &mockClassifier{
		relevanceErr: errors.New("upstream timeout"),
	}
	postRepo := newMockPostRepo()
	feedbackRepo := &mockFeedbackRepo{}

	pipe := newTestPipeline(cls, &mockCommentFetcher{}, &mockChecker{}, postRepo, feedbackRepo)

	post := testPost()
	if err := pipe.ProcessPost(context.Background(), &post); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if postRepo.statuses["t3_abc"] != database.StatusSkipped {
		t.Errorf("Expected status skipped, got %s", postRepo.statuses["t3_abc"])
	}
	if cls.relevanceCalls != pipe.MaxAttempts {
		t.Errorf("Expected %d attempts, got %d", pipe.MaxAttempts, cls.relevanceCalls)
	}
}

func TestProcessPostAuthErrorAborts(t *testing.T) {
	cls := &mockClassifier{
		relevanceErr: transport.ErrAuth,
	}
	postRepo := newMockPostRepo()
	feedbackRepo := &mockFeedbackRepo{}

	pipe := newTestPipeline(cls, &mockCommentFetcher{}, &mockChecker{}, postRepo, feedbackRepo)

	post := testPost()
	err := pipe.ProcessPost(context.Background(), &post)
	if !errors.Is(err, transport.ErrAuth) {
		t.Fatalf("Expected auth error to surface, got %v", err)
	}

	if cls.relevanceCalls != 1 {
		t.Errorf("Auth errors must not be retried, got %d attempts", cls.relevanceCalls)
	}
	if _, ok := postRepo.statuses["t3_abc"]; ok {
		t.Error("Post status must stay pending on an auth failure")
	}
}

func TestProcessPostUnknownVerdict(t *testing.T) {
	cls := &mockClassifier{
		relevance: classifier.Relevance{Relevant: true, Handle: "shopname", Confidence: classifier.ConfidenceHigh},
		verdict:   classifier.VerdictUnknown,
	}
	postRepo := newMockPostRepo()
	feedbackRepo := &mockFeedbackRepo{}

	pipe := newTestPipeline(cls, &mockCommentFetcher{}, &mockChecker{exists: true}, postRepo, feedbackRepo)

	post := testPost()
	if err := pipe.ProcessPost(context.Background(), &post); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if postRepo.statuses["t3_abc"] != database.StatusDone {
		t.Errorf("Expected status done, got %s", postRepo.statuses["t3_abc"])
	}
	if postRepo.verdicts["t3_abc"] != classifier.VerdictUnknown {
		t.Errorf("Expected recorded UNKNOWN verdict, got %s", postRepo.verdicts["t3_abc"])
	}
	if len(feedbackRepo.upserts) != 0 {
		t.Error("UNKNOWN verdict must not produce a feedback record")
	}
}

func TestProcessPostCommentFetchDegrades(t *testing.T) {
	cls := &mockClassifier{
		relevance: classifier.Relevance{Relevant: true, Handle: "shopname", Confidence: classifier.ConfidenceHigh},
		verdict:   classifier.VerdictNegative,
	}
	comments := &mockCommentFetcher{err: errors.New("thread unavailable")}
	postRepo := newMockPostRepo()
	feedbackRepo := &mockFeedbackRepo{}

	pipe := newTestPipeline(cls, comments, &mockChecker{exists: true}, postRepo, feedbackRepo)

	post := testPost()
	if err := pipe.ProcessPost(context.Background(), &post); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if postRepo.statuses["t3_abc"] != database.StatusDone {
		t.Errorf("Expected processing to finish despite thread failure, got %s", postRepo.statuses["t3_abc"])
	}
	if len(feedbackRepo.upserts) != 1 {
		t.Fatalf("Expected 1 feedback record, got %d", len(feedbackRepo.upserts))
	}
	if thread, ok := postRepo.updatedThreads["t3_abc"]; !ok || len(thread) != 0 {
		t.Error("Expected an empty comment thread to be recorded")
	}
}

func TestProcessPostUnverifiedHandleContinues(t *testing.T) {
	cls := &mockClassifier{
		relevance: classifier.Relevance{Relevant: true, Handle: "shopname", Confidence: classifier.ConfidenceHigh},
		verdict:   classifier.VerdictPositive,
	}
	checker := &mockChecker{err: errors.New("rate limited")}
	postRepo := newMockPostRepo()
	feedbackRepo := &mockFeedbackRepo{}

	pipe := newTestPipeline(cls, &mockCommentFetcher{}, checker, postRepo, feedbackRepo)

	post := testPost()
	if err := pipe.ProcessPost(context.Background(), &post); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if postRepo.handles["t3_abc"] != "shopname" {
		t.Errorf("Expected handle recorded despite verification failure, got %s", postRepo.handles["t3_abc"])
	}
	if postRepo.verified["t3_abc"] {
		t.Error("Expected handle to be recorded as unverified")
	}
	if postRepo.statuses["t3_abc"] != database.StatusDone {
		t.Errorf("Expected status done, got %s", postRepo.statuses["t3_abc"])
	}
}

func TestProcessAll(t *testing.T) {
	cls := &mockClassifier{
		relevance: classifier.Relevance{Relevant: true, Handle: "shopname", Confidence: classifier.ConfidenceHigh},
		verdict:   classifier.VerdictPositive,
	}
	postA := testPost()
	postB := testPost()
	postB.ID = "t3_def"
	postB.Author = "other_buyer"

	postRepo := newMockPostRepo(postA, postB)
	feedbackRepo := &mockFeedbackRepo{}

	pipe := newTestPipeline(cls, &mockCommentFetcher{}, &mockChecker{exists: true}, postRepo, feedbackRepo)

	processed, err := pipe.ProcessAll(context.Background(), 0)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if processed != 2 {
		t.Errorf("Expected 2 processed posts, got %d", processed)
	}
	if len(feedbackRepo.upserts) != 2 {
		t.Errorf("Expected 2 feedback records, got %d", len(feedbackRepo.upserts))
	}
}

func TestProcessAllHonorsLimit(t *testing.T) {
	cls := &mockClassifier{
		relevance: classifier.Relevance{Relevant: false},
	}
	postA := testPost()
	postB := testPost()
	postB.ID = "t3_def"

	postRepo := newMockPostRepo(postA, postB)

	pipe := newTestPipeline(cls, &mockCommentFetcher{}, &mockChecker{}, postRepo, &mockFeedbackRepo{})

	processed, err := pipe.ProcessAll(context.Background(), 1)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if processed != 1 {
		t.Errorf("Expected 1 processed post, got %d", processed)
	}
}
