package http

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/gitpress/gitpress/blog/application"
	"github.com/gitpress/gitpress/blog/domain"
)

const testSecret = "hook-secret"

// countingSource is the minimal domain.SourceRepository the tree cache
// needs: a constant tree plus blob contents, with hydration counted.
type countingSource struct {
	mu        sync.Mutex
	blobCalls int
}

func (s *countingSource) GetTree(_ context.Context, ref string) (*domain.TreeListing, error) {
	return &domain.TreeListing{
		SHA:     "tree-1",
		Entries: []domain.TreeEntry{{Path: "posts/a.md", SHA: "blob-a", Type: "blob"}},
	}, nil
}

func (s *countingSource) GetBlob(_ context.Context, sha string) ([]byte, error) {
	s.mu.Lock()
	s.blobCalls++
	s.mu.Unlock()
	return []byte("---\ntitle: a\n---\nbody"), nil
}

func (s *countingSource) blobs() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.blobCalls
}

func (s *countingSource) GetRef(context.Context, string) (string, error) {
	return "", fmt.Errorf("unexpected GetRef")
}
func (s *countingSource) CreateRef(context.Context, string, string) error {
	return fmt.Errorf("unexpected CreateRef")
}
func (s *countingSource) DeleteRef(context.Context, string) error {
	return fmt.Errorf("unexpected DeleteRef")
}
func (s *countingSource) GetFileContents(context.Context, string, string) ([]byte, string, error) {
	return nil, "", fmt.Errorf("unexpected GetFileContents")
}
func (s *countingSource) PutFile(context.Context, string, []byte, string, string, string) (string, error) {
	return "", fmt.Errorf("unexpected PutFile")
}
func (s *countingSource) DeleteFile(context.Context, string, string, string, string) error {
	return fmt.Errorf("unexpected DeleteFile")
}
func (s *countingSource) ListCMSRefs(context.Context) ([]domain.BranchRef, error) {
	return nil, fmt.Errorf("unexpected ListCMSRefs")
}
func (s *countingSource) CreatePullRequest(context.Context, string, string, string, string) (int, error) {
	return 0, fmt.Errorf("unexpected CreatePullRequest")
}
func (s *countingSource) MergePullRequest(context.Context, int) error {
	return fmt.Errorf("unexpected MergePullRequest")
}

func signedPushRequest(t *testing.T, payload string) *http.Request {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/webhook/git", strings.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-GitHub-Event", "push")

	mac := hmac.New(sha256.New, []byte(testSecret))
	mac.Write([]byte(payload))
	req.Header.Set("X-Hub-Signature-256", "sha256="+hex.EncodeToString(mac.Sum(nil)))
	return req
}

func TestWebhookPushToMainInvalidatesCache(t *testing.T) {
	src := &countingSource{}
	cache := application.NewTreeCache(src, "main", 0)
	h := NewWebhookHandler(cache, "main", testSecret)

	if _, err := cache.Main(context.Background()); err != nil {
		t.Fatalf("Main() failed: %v", err)
	}
	if src.blobs() != 1 {
		t.Fatalf("setup hydration count = %d, want 1", src.blobs())
	}

	w := httptest.NewRecorder()
	h.HandleGitWebhook(w, signedPushRequest(t, `{"ref":"refs/heads/main"}`))
	if w.Code != http.StatusNoContent {
		t.Fatalf("webhook status = %d, want 204", w.Code)
	}

	if _, err := cache.Main(context.Background()); err != nil {
		t.Fatalf("Main() failed: %v", err)
	}
	if src.blobs() != 2 {
		t.Errorf("hydration count = %d, want rehydration after push to main", src.blobs())
	}
}

func TestWebhookPushToOtherBranchKeepsMainCache(t *testing.T) {
	src := &countingSource{}
	cache := application.NewTreeCache(src, "main", 0)
	h := NewWebhookHandler(cache, "main", testSecret)

	if _, err := cache.Main(context.Background()); err != nil {
		t.Fatalf("Main() failed: %v", err)
	}

	w := httptest.NewRecorder()
	h.HandleGitWebhook(w, signedPushRequest(t, `{"ref":"refs/heads/cms/foo"}`))
	if w.Code != http.StatusNoContent {
		t.Fatalf("webhook status = %d, want 204", w.Code)
	}

	if _, err := cache.Main(context.Background()); err != nil {
		t.Fatalf("Main() failed: %v", err)
	}
	if src.blobs() != 1 {
		t.Errorf("hydration count = %d, push to a cms branch must not drop the main snapshot", src.blobs())
	}
}

func TestWebhookRejectsBadSignature(t *testing.T) {
	cache := application.NewTreeCache(&countingSource{}, "main", 0)
	h := NewWebhookHandler(cache, "main", testSecret)

	req := httptest.NewRequest(http.MethodPost, "/webhook/git", strings.NewReader(`{"ref":"refs/heads/main"}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-GitHub-Event", "push")
	req.Header.Set("X-Hub-Signature-256", "sha256=deadbeef")

	w := httptest.NewRecorder()
	h.HandleGitWebhook(w, req)
	if w.Code != http.StatusBadRequest {
		t.Errorf("webhook with bad signature status = %d, want 400", w.Code)
	}
}
