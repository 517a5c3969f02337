package application

import (
	"context"
	"fmt"
	"sync"

	"github.com/gitpress/gitpress/blog/domain"
)

// fakeSource is a hand-rolled domain.SourceRepository for tests. Behavior is
// injected per operation; every call is counted so tests can assert how much
// network traffic an operation would have generated.
type fakeSource struct {
	mu    sync.Mutex
	calls map[string]int

	getRefFn     func(branch string) (string, error)
	createRefFn  func(branch, sha string) error
	deleteRefFn  func(branch string) error
	getTreeFn    func(ref string) (*domain.TreeListing, error)
	getBlobFn    func(sha string) ([]byte, error)
	getFileFn    func(path, ref string) ([]byte, string, error)
	putFileFn    func(path string, content []byte, sha, branch, message string) (string, error)
	deleteFileFn func(path, sha, branch, message string) error
	listRefsFn   func() ([]domain.BranchRef, error)
	createPRFn   func(head, base, title, body string) (int, error)
	mergePRFn    func(number int) error
}

func newFakeSource() *fakeSource {
	return &fakeSource{calls: make(map[string]int)}
}

func (f *fakeSource) record(op string) {
	f.mu.Lock()
	f.calls[op]++
	f.mu.Unlock()
}

func (f *fakeSource) count(op string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[op]
}

func notFoundErr(op, branch string) error {
	return &domain.Error{Kind: domain.KindNotFound, Op: op, Branch: branch, Status: 404}
}

func conflictErr(op string) error {
	return &domain.Error{Kind: domain.KindConflict, Op: op, Status: 409}
}

func remoteErr(op string) error {
	return &domain.Error{Kind: domain.KindRemoteUnavailable, Op: op, Status: 500}
}

func (f *fakeSource) GetRef(_ context.Context, branch string) (string, error) {
	f.record("GetRef")
	if f.getRefFn == nil {
		return "", fmt.Errorf("unexpected GetRef(%s)", branch)
	}
	return f.getRefFn(branch)
}

func (f *fakeSource) CreateRef(_ context.Context, branch string, sha string) error {
	f.record("CreateRef")
	if f.createRefFn == nil {
		return fmt.Errorf("unexpected CreateRef(%s, %s)", branch, sha)
	}
	return f.createRefFn(branch, sha)
}

func (f *fakeSource) DeleteRef(_ context.Context, branch string) error {
	f.record("DeleteRef")
	if f.deleteRefFn == nil {
		return fmt.Errorf("unexpected DeleteRef(%s)", branch)
	}
	return f.deleteRefFn(branch)
}

func (f *fakeSource) GetTree(_ context.Context, ref string) (*domain.TreeListing, error) {
	f.record("GetTree")
	if f.getTreeFn == nil {
		return nil, fmt.Errorf("unexpected GetTree(%s)", ref)
	}
	return f.getTreeFn(ref)
}

func (f *fakeSource) GetBlob(_ context.Context, sha string) ([]byte, error) {
	f.record("GetBlob")
	if f.getBlobFn == nil {
		return nil, fmt.Errorf("unexpected GetBlob(%s)", sha)
	}
	return f.getBlobFn(sha)
}

func (f *fakeSource) GetFileContents(_ context.Context, path string, ref string) ([]byte, string, error) {
	f.record("GetFileContents")
	if f.getFileFn == nil {
		return nil, "", fmt.Errorf("unexpected GetFileContents(%s, %s)", path, ref)
	}
	return f.getFileFn(path, ref)
}

func (f *fakeSource) PutFile(_ context.Context, path string, content []byte, sha string, branch string, message string) (string, error) {
	f.record("PutFile")
	if f.putFileFn == nil {
		return "", fmt.Errorf("unexpected PutFile(%s)", path)
	}
	return f.putFileFn(path, content, sha, branch, message)
}

func (f *fakeSource) DeleteFile(_ context.Context, path string, sha string, branch string, message string) error {
	f.record("DeleteFile")
	if f.deleteFileFn == nil {
		return fmt.Errorf("unexpected DeleteFile(%s)", path)
	}
	return f.deleteFileFn(path, sha, branch, message)
}

func (f *fakeSource) ListCMSRefs(_ context.Context) ([]domain.BranchRef, error) {
	f.record("ListCMSRefs")
	if f.listRefsFn == nil {
		return nil, fmt.Errorf("unexpected ListCMSRefs")
	}
	return f.listRefsFn()
}

func (f *fakeSource) CreatePullRequest(_ context.Context, head, base, title, body string) (int, error) {
	f.record("CreatePullRequest")
	if f.createPRFn == nil {
		return 0, fmt.Errorf("unexpected CreatePullRequest(%s, %s)", head, base)
	}
	return f.createPRFn(head, base, title, body)
}

func (f *fakeSource) MergePullRequest(_ context.Context, number int) error {
	f.record("MergePullRequest")
	if f.mergePRFn == nil {
		return fmt.Errorf("unexpected MergePullRequest(%d)", number)
	}
	return f.mergePRFn(number)
}

var _ domain.SourceRepository = (*fakeSource)(nil)
