package instagram

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/purplecheck/purple-check/app/transport"
)

func newTestChecker(server *httptest.Server) *Checker {
	t := transport.NewClient("test-agent/1.0", "", 5*time.Second)
	return NewChecker(t, server.URL)
}

func TestExistsProfilePage(t *testing.T) {
	var gotPath string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.Write([]byte(`<html><head>
			<meta property="og:title" content="Shop Name (@shopname)" />
			<meta property="og:type" content="profile" />
			<meta property="og:url" content="https://www.instagram.com/shopname/" />
		</head><body></body></html>`))
	}))
	defer server.Close()

	checker := newTestChecker(server)

	exists, err := checker.Exists(context.Background(), "shopname")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if !exists {
		t.Error("Expected profile to exist")
	}
	if gotPath != "/shopname/" {
		t.Errorf("Unexpected path: %s", gotPath)
	}
}

func TestExistsNoOpenGraphTags(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html><head><title>Page Not Found</title></head><body></body></html>`))
	}))
	defer server.Close()

	checker := newTestChecker(server)

	exists, err := checker.Exists(context.Background(), "ghost")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if exists {
		t.Error("Expected profile not to exist without OpenGraph tags")
	}
}

func TestExistsNotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	checker := newTestChecker(server)

	exists, err := checker.Exists(context.Background(), "ghost")
	if err != nil {
		t.Fatalf("404 must not be an error, got: %v", err)
	}
	if exists {
		t.Error("Expected profile not to exist on 404")
	}
}

func TestExistsServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	checker := newTestChecker(server)

	_, err := checker.Exists(context.Background(), "shopname")
	if err == nil {
		t.Fatal("Expected an error on server failure")
	}
}
