package application

import (
	"context"
	"sync"
	"time"

	"github.com/gitpress/gitpress/blog/domain"
	"golang.org/x/sync/errgroup"
)

// DefaultCacheTTL bounds how long a tree snapshot may serve reads even when
// its freshness key still matches.
const DefaultCacheTTL = 5 * time.Minute

type snapshotEntry struct {
	snap      domain.TreeSnapshot
	fetchedAt time.Time
}

// TreeCache holds per-branch snapshots of hydrated post files, plus one
// dedicated slot for the main branch. A snapshot serves reads only while its
// freshness key (tree sha for main, tip commit sha for branches) matches the
// live value and its age is under the TTL. Writes never update a snapshot in
// place; they drop it entirely.
//
// The mutex guards the map for memory safety only. The check-then-hydrate
// sequence is deliberately not atomic: two concurrent stale refreshes both
// converge to equivalent content, so no lock is held across network calls.
type TreeCache struct {
	source     domain.SourceRepository
	mainBranch string
	ttl        time.Duration

	mu       sync.Mutex
	main     *snapshotEntry
	branches map[string]*snapshotEntry
}

// NewTreeCache creates a cache reading through source. The cache is owned by
// its constructor's caller; there is no package-level instance.
func NewTreeCache(source domain.SourceRepository, mainBranch string, ttl time.Duration) *TreeCache {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &TreeCache{
		source:     source,
		mainBranch: mainBranch,
		ttl:        ttl,
		branches:   make(map[string]*snapshotEntry),
	}
}

// Main returns the main branch's post snapshot. One tree read establishes
// the current tree sha; a cached snapshot with the same sha inside the TTL
// is served as-is, anything else triggers a full blob hydration.
func (c *TreeCache) Main(ctx context.Context) (domain.TreeSnapshot, error) {
	tree, err := c.source.GetTree(ctx, c.mainBranch)
	if err != nil {
		return domain.TreeSnapshot{}, err
	}

	c.mu.Lock()
	cached := c.main
	c.mu.Unlock()
	if cached != nil && cached.snap.Key == tree.SHA && time.Since(cached.fetchedAt) < c.ttl {
		return cached.snap, nil
	}

	files, err := c.hydrate(ctx, tree)
	if err != nil {
		return domain.TreeSnapshot{}, err
	}

	snap := domain.TreeSnapshot{Key: tree.SHA, Files: files}
	c.mu.Lock()
	c.main = &snapshotEntry{snap: snap, fetchedAt: time.Now()}
	c.mu.Unlock()
	return snap, nil
}

// Branch returns branch's post snapshot. The branch tip sha is the freshness
// key: the entry is stale whenever the live tip differs from the one
// recorded at fill time, or the TTL has elapsed.
func (c *TreeCache) Branch(ctx context.Context, branch string, tipSHA string) (domain.TreeSnapshot, error) {
	c.mu.Lock()
	cached := c.branches[branch]
	c.mu.Unlock()
	if cached != nil && cached.snap.Key == tipSHA && time.Since(cached.fetchedAt) < c.ttl {
		return cached.snap, nil
	}

	tree, err := c.source.GetTree(ctx, tipSHA)
	if err != nil {
		return domain.TreeSnapshot{}, err
	}

	files, err := c.hydrate(ctx, tree)
	if err != nil {
		return domain.TreeSnapshot{}, err
	}

	snap := domain.TreeSnapshot{Key: tipSHA, Files: files}
	c.mu.Lock()
	c.branches[branch] = &snapshotEntry{snap: snap, fetchedAt: time.Now()}
	c.mu.Unlock()
	return snap, nil
}

// LookupMain serves a single path from the cached main snapshot without any
// network traffic. ok is false when the snapshot is absent, expired, or does
// not contain the path.
func (c *TreeCache) LookupMain(path string) (domain.PostFile, bool) {
	c.mu.Lock()
	cached := c.main
	c.mu.Unlock()
	if cached == nil || time.Since(cached.fetchedAt) >= c.ttl {
		return domain.PostFile{}, false
	}
	for _, f := range cached.snap.Files {
		if f.Path == path {
			return f, true
		}
	}
	return domain.PostFile{}, false
}

// InvalidateMain drops the main snapshot unconditionally.
func (c *TreeCache) InvalidateMain() {
	c.mu.Lock()
	c.main = nil
	c.mu.Unlock()
}

// InvalidateBranch drops one branch's snapshot.
func (c *TreeCache) InvalidateBranch(branch string) {
	c.mu.Lock()
	delete(c.branches, branch)
	c.mu.Unlock()
}

// Reset drops every snapshot. Intended for tests and full reloads.
func (c *TreeCache) Reset() {
	c.mu.Lock()
	c.main = nil
	c.branches = make(map[string]*snapshotEntry)
	c.mu.Unlock()
}

// hydrate fetches every post blob in the listing as one concurrent fan-out
// and returns the files in tree order.
func (c *TreeCache) hydrate(ctx context.Context, tree *domain.TreeListing) ([]domain.PostFile, error) {
	var entries []domain.TreeEntry
	for _, e := range tree.Entries {
		if e.Type == "blob" && domain.IsPostPath(e.Path) {
			entries = append(entries, e)
		}
	}

	files := make([]domain.PostFile, len(entries))
	g, ctx := errgroup.WithContext(ctx)
	for i, entry := range entries {
		i, entry := i, entry
		g.Go(func() error {
			content, err := c.source.GetBlob(ctx, entry.SHA)
			if err != nil {
				return err
			}
			files[i] = domain.PostFile{Path: entry.Path, Content: string(content), SHA: entry.SHA}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return files, nil
}
