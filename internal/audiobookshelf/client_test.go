package audiobookshelf

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"chapterize/internal/chapters"
	"chapterize/internal/services"
)

var sampleChapters = []chapters.BookChapter{
	{ID: 0, Start: 0, End: 600, Title: "Chapter One"},
	{ID: 1, Start: 600, End: 1800, Title: "Chapter Two"},
}

func TestNewRejectsBadSettings(t *testing.T) {
	if _, err := New("not a url", "key", 0); !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error for url, got %v", err)
	}
	if _, err := New("https://abs.example.com", "", 0); !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error for key, got %v", err)
	}
}

func TestUpdateChaptersPostsPayload(t *testing.T) {
	var gotPath, gotAuth string
	var gotBody updateChaptersRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("decode body: %v", err)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client, err := New(server.URL, "secret", time.Second)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := client.UpdateChapters(context.Background(), "li_abc123", sampleChapters); err != nil {
		t.Fatalf("UpdateChapters: %v", err)
	}

	if gotPath != "/api/items/li_abc123/chapters" {
		t.Fatalf("path = %q", gotPath)
	}
	if gotAuth != "Bearer secret" {
		t.Fatalf("authorization = %q", gotAuth)
	}
	if len(gotBody.Chapters) != 2 || gotBody.Chapters[1].Title != "Chapter Two" {
		t.Fatalf("unexpected payload: %+v", gotBody)
	}
}

func TestUpdateChaptersSurfacesServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "item not found", http.StatusNotFound)
	}))
	defer server.Close()

	client, err := New(server.URL, "secret", time.Second)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	err = client.UpdateChapters(context.Background(), "missing", sampleChapters)
	if !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("expected external tool error, got %v", err)
	}
}

func TestUpdateChaptersRefusesEmptyList(t *testing.T) {
	client, err := New("https://abs.example.com", "secret", time.Second)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := client.UpdateChapters(context.Background(), "item", nil); !errors.Is(err, services.ErrStructural) {
		t.Fatalf("expected structural error, got %v", err)
	}
}
