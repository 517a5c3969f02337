package application

import (
	"context"
	"testing"
	"time"

	"github.com/gitpress/gitpress/blog/domain"
)

func postsTree(sha string) *domain.TreeListing {
	return &domain.TreeListing{
		SHA: sha,
		Entries: []domain.TreeEntry{
			{Path: "posts/alpha.md", SHA: "blob-alpha", Type: "blob"},
			{Path: "posts/wip_beta.md", SHA: "blob-beta", Type: "blob"},
			{Path: "posts/alpha/image.png", SHA: "blob-img", Type: "blob"},
			{Path: "posts/nested/deep.md", SHA: "blob-deep", Type: "blob"},
			{Path: "README.md", SHA: "blob-readme", Type: "blob"},
			{Path: "posts", SHA: "tree-posts", Type: "tree"},
		},
	}
}

func blobByName(sha string) ([]byte, error) {
	return []byte("content of " + sha), nil
}

func TestMainTreeCaching(t *testing.T) {
	src := newFakeSource()
	src.getTreeFn = func(ref string) (*domain.TreeListing, error) { return postsTree("tree-1"), nil }
	src.getBlobFn = blobByName

	cache := NewTreeCache(src, "main", 0)
	ctx := context.Background()

	snap, err := cache.Main(ctx)
	if err != nil {
		t.Fatalf("Main() failed: %v", err)
	}
	if len(snap.Files) != 2 {
		t.Fatalf("Main() hydrated %d files, want 2 (top-level .md only)", len(snap.Files))
	}
	if snap.Key != "tree-1" {
		t.Errorf("snapshot key = %q, want tree sha", snap.Key)
	}
	if got := src.count("GetBlob"); got != 2 {
		t.Fatalf("first read issued %d blob fetches, want 2", got)
	}

	// Second read inside the TTL with an unchanged tree is served from cache.
	if _, err := cache.Main(ctx); err != nil {
		t.Fatalf("Main() failed: %v", err)
	}
	if got := src.count("GetBlob"); got != 2 {
		t.Errorf("second read issued %d extra blob fetches, want 0", got-2)
	}
	if got := src.count("GetTree"); got != 2 {
		t.Errorf("GetTree calls = %d, want one per read", got)
	}
}

func TestMainTreeRefreshOnTreeChange(t *testing.T) {
	src := newFakeSource()
	sha := "tree-1"
	src.getTreeFn = func(ref string) (*domain.TreeListing, error) { return postsTree(sha), nil }
	src.getBlobFn = blobByName

	cache := NewTreeCache(src, "main", 0)
	ctx := context.Background()

	if _, err := cache.Main(ctx); err != nil {
		t.Fatalf("Main() failed: %v", err)
	}

	sha = "tree-2"
	snap, err := cache.Main(ctx)
	if err != nil {
		t.Fatalf("Main() failed: %v", err)
	}
	if snap.Key != "tree-2" {
		t.Errorf("snapshot key = %q, want refreshed tree sha", snap.Key)
	}
	if got := src.count("GetBlob"); got != 4 {
		t.Errorf("GetBlob calls = %d, want rehydration after tree change", got)
	}
}

func TestMainTreeRefreshOnTTLExpiry(t *testing.T) {
	src := newFakeSource()
	src.getTreeFn = func(ref string) (*domain.TreeListing, error) { return postsTree("tree-1"), nil }
	src.getBlobFn = blobByName

	cache := NewTreeCache(src, "main", 10*time.Millisecond)
	ctx := context.Background()

	if _, err := cache.Main(ctx); err != nil {
		t.Fatalf("Main() failed: %v", err)
	}
	time.Sleep(20 * time.Millisecond)
	if _, err := cache.Main(ctx); err != nil {
		t.Fatalf("Main() failed: %v", err)
	}
	if got := src.count("GetBlob"); got != 4 {
		t.Errorf("GetBlob calls = %d, want rehydration after TTL expiry", got)
	}
}

func TestInvalidateMainDropsSnapshot(t *testing.T) {
	src := newFakeSource()
	src.getTreeFn = func(ref string) (*domain.TreeListing, error) { return postsTree("tree-1"), nil }
	src.getBlobFn = blobByName

	cache := NewTreeCache(src, "main", 0)
	ctx := context.Background()

	if _, err := cache.Main(ctx); err != nil {
		t.Fatalf("Main() failed: %v", err)
	}
	cache.InvalidateMain()
	if _, err := cache.Main(ctx); err != nil {
		t.Fatalf("Main() failed: %v", err)
	}
	if got := src.count("GetBlob"); got != 4 {
		t.Errorf("GetBlob calls = %d, want rehydration after invalidation even with same tree sha", got)
	}
}

func TestBranchTreeKeyedByTip(t *testing.T) {
	src := newFakeSource()
	src.getTreeFn = func(ref string) (*domain.TreeListing, error) { return postsTree("bt-" + ref), nil }
	src.getBlobFn = blobByName

	cache := NewTreeCache(src, "main", 0)
	ctx := context.Background()

	if _, err := cache.Branch(ctx, "cms/foo", "tip-1"); err != nil {
		t.Fatalf("Branch() failed: %v", err)
	}
	if got := src.count("GetTree"); got != 1 {
		t.Fatalf("GetTree calls = %d, want 1", got)
	}

	// Same tip: no tree fetch, no hydration.
	if _, err := cache.Branch(ctx, "cms/foo", "tip-1"); err != nil {
		t.Fatalf("Branch() failed: %v", err)
	}
	if got := src.count("GetTree"); got != 1 {
		t.Errorf("GetTree calls = %d, want cached branch read to skip the tree fetch", got)
	}

	// Tip moved: stale entry is replaced.
	snap, err := cache.Branch(ctx, "cms/foo", "tip-2")
	if err != nil {
		t.Fatalf("Branch() failed: %v", err)
	}
	if snap.Key != "tip-2" {
		t.Errorf("snapshot key = %q, want new tip", snap.Key)
	}
	if got := src.count("GetBlob"); got != 4 {
		t.Errorf("GetBlob calls = %d, want rehydration for the new tip", got)
	}
}

func TestLookupMain(t *testing.T) {
	src := newFakeSource()
	src.getTreeFn = func(ref string) (*domain.TreeListing, error) { return postsTree("tree-1"), nil }
	src.getBlobFn = blobByName

	cache := NewTreeCache(src, "main", 0)

	if _, ok := cache.LookupMain("posts/alpha.md"); ok {
		t.Error("LookupMain() hit before any fill")
	}

	if _, err := cache.Main(context.Background()); err != nil {
		t.Fatalf("Main() failed: %v", err)
	}

	f, ok := cache.LookupMain("posts/alpha.md")
	if !ok {
		t.Fatal("LookupMain() missed a cached path")
	}
	if f.SHA != "blob-alpha" {
		t.Errorf("LookupMain() sha = %q, want blob-alpha", f.SHA)
	}
	if _, ok := cache.LookupMain("posts/missing.md"); ok {
		t.Error("LookupMain() hit for a path not in the snapshot")
	}
}
