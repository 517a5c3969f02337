package application

import (
	"context"
	"regexp"

	"github.com/gitpress/gitpress/blog/domain"
	"github.com/rs/zerolog/log"
)

// CMSBranchPrefix is the namespace for per-slug working branches.
const CMSBranchPrefix = "cms/"

var slugRegex = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

// IsValidSlug reports whether slug is safe to embed in a path and a branch
// name: alphanumeric plus hyphens and underscores.
func IsValidSlug(slug string) bool {
	return slugRegex.MatchString(slug)
}

// BranchForSlug maps a slug to its working branch. The draft prefix is
// stripped first so posts/foo.md and posts/wip_foo.md share cms/foo.
func BranchForSlug(slug string) string {
	return CMSBranchPrefix + domain.BaseSlug(slug)
}

// SlugForBranch is the inverse of BranchForSlug: "cms/foo" -> "foo".
func SlugForBranch(branch string) string {
	if len(branch) > len(CMSBranchPrefix) && branch[:len(CMSBranchPrefix)] == CMSBranchPrefix {
		return branch[len(CMSBranchPrefix):]
	}
	return branch
}

// BranchWorkflow owns the slug to branch convention and the publish
// sequence. It never rolls back: the remote side's ref semantics are the
// only concurrency protection.
type BranchWorkflow struct {
	source     domain.SourceRepository
	cache      *TreeCache
	mainBranch string
}

// NewBranchWorkflow creates a workflow forking from and merging into
// mainBranch.
func NewBranchWorkflow(source domain.SourceRepository, cache *TreeCache, mainBranch string) *BranchWorkflow {
	return &BranchWorkflow{
		source:     source,
		cache:      cache,
		mainBranch: mainBranch,
	}
}

// GetOrCreate returns the working branch for slug and its tip sha, creating
// the branch from main's current tip when it does not exist yet.
//
// Two concurrent callers can both observe the branch missing and both
// attempt creation; the loser's duplicate-ref rejection is absorbed by
// re-reading the ref, so the race resolves to an already-exists outcome.
func (w *BranchWorkflow) GetOrCreate(ctx context.Context, slug string) (string, string, error) {
	if !IsValidSlug(slug) {
		return "", "", domain.Validationf("get or create branch", "invalid slug %q", slug)
	}

	branch := BranchForSlug(slug)

	sha, err := w.source.GetRef(ctx, branch)
	if err == nil {
		return branch, sha, nil
	}
	if !domain.IsNotFound(err) {
		return "", "", err
	}

	mainSHA, err := w.source.GetRef(ctx, w.mainBranch)
	if err != nil {
		return "", "", err
	}

	if err := w.source.CreateRef(ctx, branch, mainSHA); err != nil {
		if domain.IsConflict(err) {
			// Lost the creation race; the branch exists now.
			sha, err := w.source.GetRef(ctx, branch)
			if err != nil {
				return "", "", err
			}
			return branch, sha, nil
		}
		return "", "", err
	}

	return branch, mainSHA, nil
}

// Publish merges branch into main: open a pull request, squash-merge it,
// delete the source branch, invalidate the main tree cache. There is no
// compensating rollback. Once the merge succeeds the publish has succeeded;
// a failed branch deletion only leaves a stale branch occupying the naming
// slot and is logged rather than returned.
func (w *BranchWorkflow) Publish(ctx context.Context, branch string, title string) (int, error) {
	if branch == "" {
		return 0, domain.Validationf("publish", "branch is required")
	}

	prNumber, err := w.source.CreatePullRequest(ctx, branch, w.mainBranch, title, "")
	if err != nil {
		return 0, err
	}

	if err := w.source.MergePullRequest(ctx, prNumber); err != nil {
		return 0, err
	}

	if err := w.source.DeleteRef(ctx, branch); err != nil {
		log.Warn().Err(err).Str("branch", branch).Int("pr", prNumber).Msg("Merged but failed to delete branch")
	}

	w.cache.InvalidateBranch(branch)
	w.cache.InvalidateMain()

	return prNumber, nil
}
