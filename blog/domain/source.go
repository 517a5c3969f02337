package domain

import "context"

// TreeEntry is one blob listed by a recursive tree read.
type TreeEntry struct {
	Path string
	SHA  string
	Size int
	Type string
}

// TreeListing is the result of reading a branch's tree recursively.
type TreeListing struct {
	SHA     string
	Entries []TreeEntry
}

// BranchRef pairs a branch name with its current tip commit sha.
type BranchRef struct {
	Branch string
	SHA    string
}

// SourceRepository defines the interface for the remote hosting API that
// stores the blog's content. This allows the application to be decoupled
// from a specific implementation.
//
// Every operation issues a single network call. Implementations surface
// failures as *Error with the status attached; no retries, no backoff.
type SourceRepository interface {
	// GetRef returns the tip commit sha of heads/<branch>, or a NotFound
	// error when the ref does not exist.
	GetRef(ctx context.Context, branch string) (string, error)

	// CreateRef creates heads/<branch> pointing at sha. A duplicate ref is
	// reported as a Conflict error.
	CreateRef(ctx context.Context, branch string, sha string) error

	// DeleteRef deletes heads/<branch>. Deleting a ref that is already gone
	// is success.
	DeleteRef(ctx context.Context, branch string) error

	// GetTree reads the tree of ref recursively.
	GetTree(ctx context.Context, ref string) (*TreeListing, error)

	// GetBlob fetches the raw content of a blob by sha.
	GetBlob(ctx context.Context, sha string) ([]byte, error)

	// GetFileContents reads one file at ref (branch, tag, or commit sha;
	// empty means the default branch) and returns its content and sha.
	GetFileContents(ctx context.Context, path string, ref string) ([]byte, string, error)

	// PutFile creates or updates a file on branch. sha must be empty for a
	// create and must carry the current version token for an update; a stale
	// token yields a Conflict error. Returns the new content sha.
	PutFile(ctx context.Context, path string, content []byte, sha string, branch string, message string) (string, error)

	// DeleteFile removes a file on branch; sha is the current version token.
	DeleteFile(ctx context.Context, path string, sha string, branch string, message string) error

	// ListCMSRefs lists all heads/cms/ refs with their tip shas.
	ListCMSRefs(ctx context.Context) ([]BranchRef, error)

	// CreatePullRequest opens a PR from head into base and returns its number.
	CreatePullRequest(ctx context.Context, head, base, title, body string) (int, error)

	// MergePullRequest squash-merges the PR.
	MergePullRequest(ctx context.Context, number int) error
}
