package github

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gitpress/gitpress/blog/domain"
	"github.com/google/go-github/v68/github"
)

// GithubContentRepository is an implementation of domain.SourceRepository
// that uses the GitHub API. Each method issues exactly one API call (plus
// pagination where the endpoint pages); failures are surfaced as
// *domain.Error without retries.
type GithubContentRepository struct {
	client  *github.Client
	owner   string
	gitRepo string
}

// NewGithubContentRepository creates a new GithubContentRepository.
func NewGithubContentRepository(client *github.Client, owner string, gitRepo string) domain.SourceRepository {
	return &GithubContentRepository{
		client:  client,
		owner:   owner,
		gitRepo: gitRepo,
	}
}

// GetRef fetches the tip commit sha of heads/<branch>.
func (g *GithubContentRepository) GetRef(ctx context.Context, branch string) (string, error) {
	op := fmt.Sprintf("getting ref heads/%s", branch)
	ref, _, err := g.client.Git.GetRef(ctx, g.owner, g.gitRepo, "heads/"+branch)
	if err != nil {
		return "", classifyGithubError(op, "", branch, err)
	}
	return ref.GetObject().GetSHA(), nil
}

// CreateRef creates heads/<branch> at sha.
func (g *GithubContentRepository) CreateRef(ctx context.Context, branch string, sha string) error {
	op := fmt.Sprintf("creating ref heads/%s", branch)
	_, _, err := g.client.Git.CreateRef(ctx, g.owner, g.gitRepo, &github.Reference{
		Ref:    github.Ptr("refs/heads/" + branch),
		Object: &github.GitObject{SHA: github.Ptr(sha)},
	})
	if err != nil {
		return classifyGithubError(op, "", branch, err)
	}
	return nil
}

// DeleteRef deletes heads/<branch>. A 422 from GitHub means the ref is
// already gone, which is treated as success.
func (g *GithubContentRepository) DeleteRef(ctx context.Context, branch string) error {
	op := fmt.Sprintf("deleting ref heads/%s", branch)
	_, err := g.client.Git.DeleteRef(ctx, g.owner, g.gitRepo, "heads/"+branch)
	if err != nil {
		if statusOf(err) == http.StatusUnprocessableEntity {
			return nil
		}
		return classifyGithubError(op, "", branch, err)
	}
	return nil
}

// GetTree reads the tree of ref recursively.
func (g *GithubContentRepository) GetTree(ctx context.Context, ref string) (*domain.TreeListing, error) {
	op := fmt.Sprintf("getting tree %s", ref)
	tree, _, err := g.client.Git.GetTree(ctx, g.owner, g.gitRepo, ref, true)
	if err != nil {
		return nil, classifyGithubError(op, "", ref, err)
	}

	listing := &domain.TreeListing{SHA: tree.GetSHA()}
	for _, e := range tree.Entries {
		listing.Entries = append(listing.Entries, domain.TreeEntry{
			Path: e.GetPath(),
			SHA:  e.GetSHA(),
			Size: e.GetSize(),
			Type: e.GetType(),
		})
	}
	return listing, nil
}

// GetBlob fetches the raw content of a blob by sha.
func (g *GithubContentRepository) GetBlob(ctx context.Context, sha string) ([]byte, error) {
	op := fmt.Sprintf("getting blob %s", sha)
	content, _, err := g.client.Git.GetBlobRaw(ctx, g.owner, g.gitRepo, sha)
	if err != nil {
		return nil, classifyGithubError(op, "", "", err)
	}
	return content, nil
}

// GetFileContents fetches the contents and sha of a file at a specific ref
// (branch, tag, or commit sha; empty for the default branch).
func (g *GithubContentRepository) GetFileContents(ctx context.Context, path string, ref string) ([]byte, string, error) {
	op := fmt.Sprintf("getting file %s at ref %s", path, ref)
	fileContent, _, _, err := g.client.Repositories.GetContents(ctx, g.owner, g.gitRepo, path, &github.RepositoryContentGetOptions{
		Ref: ref,
	})
	if err != nil {
		return nil, "", classifyGithubError(op, path, ref, err)
	}

	if fileContent == nil {
		return nil, "", &domain.Error{Kind: domain.KindRemoteUnavailable, Op: op, Path: path, Msg: "path is a directory, not a file"}
	}

	content, err := fileContent.GetContent()
	if err != nil {
		return nil, "", &domain.Error{Kind: domain.KindRemoteUnavailable, Op: op, Path: path, Msg: "failed to decode content", Err: err}
	}

	return []byte(content), fileContent.GetSHA(), nil
}

// PutFile creates or updates a file on branch and returns the new content
// sha. An empty sha means create; otherwise sha must be the current version
// token and a stale one comes back as a Conflict.
func (g *GithubContentRepository) PutFile(ctx context.Context, path string, content []byte, sha string, branch string, message string) (string, error) {
	opts := &github.RepositoryContentFileOptions{
		Message: github.Ptr(message),
		Content: content,
		Branch:  github.Ptr(branch),
	}

	var (
		resp *github.RepositoryContentResponse
		err  error
	)
	if sha == "" {
		op := fmt.Sprintf("creating file %s", path)
		resp, _, err = g.client.Repositories.CreateFile(ctx, g.owner, g.gitRepo, path, opts)
		if err != nil {
			return "", classifyGithubError(op, path, branch, err)
		}
	} else {
		op := fmt.Sprintf("updating file %s", path)
		opts.SHA = github.Ptr(sha)
		resp, _, err = g.client.Repositories.UpdateFile(ctx, g.owner, g.gitRepo, path, opts)
		if err != nil {
			return "", classifyGithubError(op, path, branch, err)
		}
	}

	return resp.GetContent().GetSHA(), nil
}

// DeleteFile removes a file on branch; sha is the current version token.
func (g *GithubContentRepository) DeleteFile(ctx context.Context, path string, sha string, branch string, message string) error {
	op := fmt.Sprintf("deleting file %s", path)
	opts := &github.RepositoryContentFileOptions{
		Message: github.Ptr(message),
		SHA:     github.Ptr(sha),
		Branch:  github.Ptr(branch),
	}
	_, _, err := g.client.Repositories.DeleteFile(ctx, g.owner, g.gitRepo, path, opts)
	if err != nil {
		return classifyGithubError(op, path, branch, err)
	}
	return nil
}

// ListCMSRefs lists every heads/cms/ ref with its tip sha, handling
// pagination.
func (g *GithubContentRepository) ListCMSRefs(ctx context.Context) ([]domain.BranchRef, error) {
	op := fmt.Sprintf("listing cms refs for %s/%s", g.owner, g.gitRepo)
	var all []domain.BranchRef
	opts := &github.ReferenceListOptions{
		Ref:         "heads/cms/",
		ListOptions: github.ListOptions{PerPage: 100},
	}
	for {
		refs, resp, err := g.client.Git.ListMatchingRefs(ctx, g.owner, g.gitRepo, opts)
		if err != nil {
			return nil, classifyGithubError(op, "", "", err)
		}

		for _, r := range refs {
			all = append(all, domain.BranchRef{
				Branch: strings.TrimPrefix(r.GetRef(), "refs/heads/"),
				SHA:    r.GetObject().GetSHA(),
			})
		}
		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}
	return all, nil
}

// CreatePullRequest opens a pull request from head into base and returns
// its number.
func (g *GithubContentRepository) CreatePullRequest(ctx context.Context, head, base, title, body string) (int, error) {
	op := fmt.Sprintf("opening pull request %s -> %s", head, base)
	pr, _, err := g.client.PullRequests.Create(ctx, g.owner, g.gitRepo, &github.NewPullRequest{
		Title: github.Ptr(title),
		Head:  github.Ptr(head),
		Base:  github.Ptr(base),
		Body:  github.Ptr(body),
	})
	if err != nil {
		return 0, classifyGithubError(op, "", head, err)
	}
	return pr.GetNumber(), nil
}

// MergePullRequest squash-merges the pull request.
func (g *GithubContentRepository) MergePullRequest(ctx context.Context, number int) error {
	op := fmt.Sprintf("merging pull request #%d", number)
	_, _, err := g.client.PullRequests.Merge(ctx, g.owner, g.gitRepo, number, "", &github.PullRequestOptions{
		MergeMethod: "squash",
	})
	if err != nil {
		return classifyGithubError(op, "", "", err)
	}
	return nil
}

// statusOf extracts the HTTP status from a go-github error, or 0 when the
// failure never reached the remote side.
func statusOf(err error) int {
	var errResp *github.ErrorResponse
	if errors.As(err, &errResp) && errResp.Response != nil {
		return errResp.Response.StatusCode
	}
	return 0
}

// classifyGithubError inspects an error from the go-github client and maps
// it onto the domain error taxonomy: 404 is NotFound, 409 and 422 are
// Conflict (stale version token or duplicate ref), everything else is
// RemoteUnavailable.
func classifyGithubError(op string, path string, branch string, err error) error {
	if err == nil {
		return nil
	}

	de := &domain.Error{Kind: domain.KindRemoteUnavailable, Op: op, Path: path, Branch: branch, Err: err}

	var errResp *github.ErrorResponse
	if errors.As(err, &errResp) && errResp.Response != nil {
		de.Status = errResp.Response.StatusCode
		de.Msg = errResp.Message
		switch errResp.Response.StatusCode {
		case http.StatusNotFound:
			de.Kind = domain.KindNotFound
		case http.StatusConflict, http.StatusUnprocessableEntity:
			de.Kind = domain.KindConflict
		}
	}

	return de
}
