package classifier

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/purplecheck/purple-check/app/transport"
)

func newFakeGemini(t *testing.T, replyText string) (*httptest.Server, *Client) {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.Contains(r.URL.Path, ":generateContent") {
			t.Errorf("Unexpected path: %s", r.URL.Path)
		}
		if r.URL.Query().Get("key") != "test-key" {
			t.Errorf("Expected API key in query, got %q", r.URL.Query().Get("key"))
		}

		resp := map[string]interface{}{
			"candidates": []map[string]interface{}{
				{"content": map[string]interface{}{
					"parts": []map[string]interface{}{{"text": replyText}},
				}},
			},
		}
		json.NewEncoder(w).Encode(resp)
	}))

	tr := transport.NewClient("test-agent/1.0", "", 5*time.Second)
	client := NewClient("test-key", tr, WithBaseURL(server.URL))
	return server, client
}

func TestCheckRelevance(t *testing.T) {
	tests := []struct {
		name         string
		reply        string
		wantRelevant bool
		wantHandle   string
		wantAccepted bool
	}{
		{
			name:         "relevant with handle",
			reply:        `{"is_relevant": true, "username": "shopname", "confidence": "high"}`,
			wantRelevant: true,
			wantHandle:   "shopname",
			wantAccepted: true,
		},
		{
			name:         "relevant inside code fence",
			reply:        "```json\n{\"is_relevant\": true, \"username\": \"shopname\", \"confidence\": \"medium\"}\n```",
			wantRelevant: true,
			wantHandle:   "shopname",
			wantAccepted: true,
		},
		{
			name:         "not relevant",
			reply:        `{"is_relevant": false, "username": "", "confidence": "high"}`,
			wantRelevant: false,
			wantHandle:   "",
			wantAccepted: false,
		},
		{
			name:         "relevant without handle",
			reply:        `{"is_relevant": true, "username": "", "confidence": "high"}`,
			wantRelevant: true,
			wantHandle:   "",
			wantAccepted: false,
		},
		{
			name:         "low confidence is abstention",
			reply:        `{"is_relevant": true, "username": "shopname", "confidence": "low"}`,
			wantRelevant: true,
			wantHandle:   "shopname",
			wantAccepted: false,
		},
		{
			name:         "handle normalized",
			reply:        `{"is_relevant": true, "username": "@ShopName", "confidence": "high"}`,
			wantRelevant: true,
			wantHandle:   "shopname",
			wantAccepted: true,
		},
		{
			name:         "placeholder handle collapses to empty",
			reply:        `{"is_relevant": true, "username": "null", "confidence": "high"}`,
			wantRelevant: true,
			wantHandle:   "",
			wantAccepted: false,
		},
		{
			name:         "unknown confidence treated as low",
			reply:        `{"is_relevant": true, "username": "shopname", "confidence": "very sure"}`,
			wantRelevant: true,
			wantHandle:   "shopname",
			wantAccepted: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server, client := newFakeGemini(t, tt.reply)
			defer server.Close()

			relevance, err := client.CheckRelevance(context.Background(), "Title", "Body", nil)
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}

			if relevance.Relevant != tt.wantRelevant {
				t.Errorf("Relevant: expected %v, got %v", tt.wantRelevant, relevance.Relevant)
			}
			if relevance.Handle != tt.wantHandle {
				t.Errorf("Handle: expected %q, got %q", tt.wantHandle, relevance.Handle)
			}
			if relevance.Accepted() != tt.wantAccepted {
				t.Errorf("Accepted: expected %v, got %v", tt.wantAccepted, relevance.Accepted())
			}
		})
	}
}

func TestCheckRelevanceUnparseableReply(t *testing.T) {
	server, client := newFakeGemini(t, "I think this post is about an Instagram shop.")
	defer server.Close()

	_, err := client.CheckRelevance(context.Background(), "Title", "Body", nil)
	if err == nil {
		t.Fatal("Expected an error for an unparseable reply")
	}
}

func TestCheckRelevanceProviderError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	tr := transport.NewClient("test-agent/1.0", "", 5*time.Second)
	client := NewClient("test-key", tr, WithBaseURL(server.URL))

	_, err := client.CheckRelevance(context.Background(), "Title", "Body", nil)
	if err == nil {
		t.Fatal("Expected an error when the provider is down")
	}
}

func TestCheckRelevanceAttachesImages(t *testing.T) {
	imageServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("fake-image-bytes"))
	}))
	defer imageServer.Close()

	var gotParts int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req geminiRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("Failed to decode request: %v", err)
		}
		gotParts = len(req.Contents[0].Parts)

		resp := map[string]interface{}{
			"candidates": []map[string]interface{}{
				{"content": map[string]interface{}{
					"parts": []map[string]interface{}{{"text": `{"is_relevant": false, "username": "", "confidence": "high"}`}},
				}},
			},
		}
		json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	tr := transport.NewClient("test-agent/1.0", "", 5*time.Second)
	client := NewClient("test-key", tr, WithBaseURL(server.URL))

	urls := []string{imageServer.URL + "/one.jpg", imageServer.URL + "/two.jpg"}
	if _, err := client.CheckRelevance(context.Background(), "Title", "Body", urls); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	// Prompt text plus both images
	if gotParts != 3 {
		t.Errorf("Expected 3 parts, got %d", gotParts)
	}
}

func TestNormalizeHandle(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"ShopName", "shopname"},
		{"@shopname", "shopname"},
		{"  @Shop_Name  ", "shop_name"},
		{"null", ""},
		{"Unknown", ""},
		{"none", ""},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("%q", tt.in), func(t *testing.T) {
			if got := NormalizeHandle(tt.in); got != tt.want {
				t.Errorf("NormalizeHandle(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}
