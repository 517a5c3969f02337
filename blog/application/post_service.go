package application

import (
	"context"
	"fmt"
	"regexp"
	"sort"

	"github.com/gitpress/gitpress/blog/domain"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

var filenameSanitizer = regexp.MustCompile(`[^a-zA-Z0-9._-]`)

// PostService exposes the CMS operations: reconciled listing, single-post
// reads, branch-scoped writes, rename, and image upload. All repository
// access goes through the tree cache or the source repository; there is no
// local persistence.
type PostService struct {
	source     domain.SourceRepository
	cache      *TreeCache
	codec      *FrontMatterCodec
	workflow   *BranchWorkflow
	mainBranch string
	baseURL    string
}

// NewPostService creates a PostService. baseURL is the public site root used
// to build uploaded image URLs.
func NewPostService(source domain.SourceRepository, cache *TreeCache, codec *FrontMatterCodec, workflow *BranchWorkflow, mainBranch string, baseURL string) *PostService {
	return &PostService{
		source:     source,
		cache:      cache,
		codec:      codec,
		workflow:   workflow,
		mainBranch: mainBranch,
		baseURL:    baseURL,
	}
}

// Codec returns the front matter codec the service was built with.
func (s *PostService) Codec() *FrontMatterCodec { return s.codec }

// ListPosts reconciles the published post set on main with the posts found
// across all cms branches into one deduplicated, annotated listing.
//
// Branch snapshots are gathered concurrently but merged in lexical branch
// order, so a path that appears on several branches resolves to the same
// winner on every call; the collision itself is logged since the
// one-branch-per-slug convention should prevent it.
func (s *PostService) ListPosts(ctx context.Context) ([]domain.PostSummary, error) {
	refs, err := s.source.ListCMSRefs(ctx)
	if err != nil {
		return nil, err
	}
	sort.Slice(refs, func(i, j int) bool { return refs[i].Branch < refs[j].Branch })

	var mainSnap domain.TreeSnapshot
	branchSnaps := make([]domain.TreeSnapshot, len(refs))

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		mainSnap, err = s.cache.Main(gctx)
		return err
	})
	for i, ref := range refs {
		i, ref := i, ref
		g.Go(func() error {
			var err error
			branchSnaps[i], err = s.cache.Branch(gctx, ref.Branch, ref.SHA)
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	branchSlugs := make(map[string]bool, len(refs))
	for _, ref := range refs {
		branchSlugs[SlugForBranch(ref.Branch)] = true
	}

	var posts []domain.PostSummary
	publishedPaths := make(map[string]bool, len(mainSnap.Files))
	for _, f := range mainSnap.Files {
		posts = append(posts, s.toSummary(f, false))
		publishedPaths[f.Path] = true
	}

	// Branch-only posts, deduplicated by path.
	seen := make(map[string]int)
	for bi, snap := range branchSnaps {
		for _, f := range snap.Files {
			if publishedPaths[f.Path] {
				continue
			}
			summary := s.toSummary(f, true)
			if idx, ok := seen[f.Path]; ok {
				log.Warn().Str("path", f.Path).Str("branch", refs[bi].Branch).Msg("Post path appears on multiple cms branches")
				posts[idx] = summary
				continue
			}
			seen[f.Path] = len(posts)
			posts = append(posts, summary)
		}
	}

	for i := range posts {
		slug := posts[i].Slug
		posts[i].Editing = posts[i].Editing || branchSlugs[slug] || branchSlugs[domain.BaseSlug(slug)]
	}

	// Lexical comparison, not calendar-aware: an empty date is the smallest
	// string and sorts last.
	sort.SliceStable(posts, func(i, j int) bool { return posts[i].Date > posts[j].Date })

	return posts, nil
}

func (s *PostService) toSummary(f domain.PostFile, branchOnly bool) domain.PostSummary {
	meta, _ := s.codec.Parse(f.Content)

	slug := domain.SlugFromPath(f.Path)
	title := meta.Title
	if title == "" {
		title = slug
	}
	tag := meta.Tag
	if tag == nil {
		tag = []string{}
	}

	return domain.PostSummary{
		Path:        f.Path,
		Slug:        slug,
		SHA:         f.SHA,
		Title:       title,
		Date:        meta.Date,
		Tag:         tag,
		Description: meta.Description,
		Featured:    meta.Featured,
		Draft:       branchOnly || domain.IsDraftPath(f.Path),
		Editing:     branchOnly,
		Unpublished: branchOnly,
	}
}

// GetPost reads one post. With an empty ref the cached main snapshot is
// consulted first; a miss falls through to the contents endpoint.
func (s *PostService) GetPost(ctx context.Context, path string, ref string) (*domain.Post, error) {
	if !domain.IsPostPath(path) {
		return nil, domain.Validationf("get post", "%q is not a post path", path)
	}

	var (
		content string
		sha     string
	)
	if ref == "" {
		if f, ok := s.cache.LookupMain(path); ok {
			content, sha = f.Content, f.SHA
		}
	}
	if sha == "" {
		raw, fileSHA, err := s.source.GetFileContents(ctx, path, ref)
		if err != nil {
			return nil, err
		}
		content, sha = string(raw), fileSHA
	}

	meta, body := s.codec.Parse(content)
	return &domain.Post{
		Path:   path,
		Meta:   meta,
		Body:   body,
		SHA:    sha,
		Branch: ref,
	}, nil
}

// CreatePost generates the post file for slug on its working branch,
// creating the branch from main's tip when needed. Returns the stored path,
// the branch, and the new version token.
func (s *PostService) CreatePost(ctx context.Context, slug string, meta domain.PostMeta, body string) (string, string, string, error) {
	if !IsValidSlug(slug) {
		return "", "", "", domain.Validationf("create post", "invalid slug %q", slug)
	}
	if meta.Title == "" {
		return "", "", "", domain.Validationf("create post", "title is required")
	}

	branch, _, err := s.workflow.GetOrCreate(ctx, slug)
	if err != nil {
		return "", "", "", err
	}

	path := domain.PathForSlug(slug)
	markdown := s.codec.Generate(meta, body, slug)
	sha, err := s.SavePost(ctx, path, markdown, "", branch, fmt.Sprintf("Add post: %s", meta.Title))
	if err != nil {
		return "", "", "", err
	}
	return path, branch, sha, nil
}

// SavePost writes raw content to path on branch. An empty sha creates the
// file; a non-empty sha must be the version token most recently returned for
// the path, and a stale one surfaces as a Conflict. Any write drops the
// branch's snapshot and, unconditionally, the main snapshot.
func (s *PostService) SavePost(ctx context.Context, path string, content string, sha string, branch string, message string) (string, error) {
	if !domain.IsPostPath(path) {
		return "", domain.Validationf("save post", "%q is not a post path", path)
	}
	if branch == "" {
		return "", domain.Validationf("save post", "branch is required")
	}
	if message == "" {
		message = fmt.Sprintf("Update %s", path)
	}

	newSHA, err := s.source.PutFile(ctx, path, []byte(content), sha, branch, message)
	if err != nil {
		return "", err
	}

	s.cache.InvalidateBranch(branch)
	s.cache.InvalidateMain()
	return newSHA, nil
}

// RenamePost moves a post to a new path on the same branch as create-new
// then delete-old; there is no atomic move on the remote side. When the
// delete fails after the create succeeded the old file dangles on the
// branch, so callers must treat rename as best-effort. sha is the version
// token of the old path.
func (s *PostService) RenamePost(ctx context.Context, oldPath string, newPath string, sha string, branch string) (string, error) {
	op := "rename post"
	if !domain.IsPostPath(oldPath) || !domain.IsPostPath(newPath) {
		return "", domain.Validationf(op, "%q -> %q is not a post rename", oldPath, newPath)
	}
	if sha == "" {
		return "", domain.Validationf(op, "sha is required")
	}
	if branch == "" {
		return "", domain.Validationf(op, "branch is required")
	}

	content, _, err := s.source.GetFileContents(ctx, oldPath, branch)
	if err != nil {
		return "", err
	}

	message := fmt.Sprintf("Rename %s to %s", oldPath, newPath)
	newSHA, err := s.source.PutFile(ctx, newPath, content, "", branch, message)
	if err != nil {
		return "", err
	}

	if err := s.source.DeleteFile(ctx, oldPath, sha, branch, message); err != nil {
		// The new file exists and the old one lingers on the branch.
		s.cache.InvalidateBranch(branch)
		s.cache.InvalidateMain()
		log.Error().Err(err).Str("oldPath", oldPath).Str("newPath", newPath).Str("branch", branch).Msg("Rename left the old file behind")
		return newSHA, err
	}

	s.cache.InvalidateBranch(branch)
	s.cache.InvalidateMain()
	return newSHA, nil
}

// SetDraft toggles the draft prefix of path on branch by renaming the file.
// Returns the new path and version token. Toggling to the already-current
// state is a no-op.
func (s *PostService) SetDraft(ctx context.Context, path string, draft bool, sha string, branch string) (string, string, error) {
	if !domain.IsPostPath(path) {
		return "", "", domain.Validationf("set draft", "%q is not a post path", path)
	}
	if domain.IsDraftPath(path) == draft {
		return path, sha, nil
	}

	base := domain.BaseSlug(domain.SlugFromPath(path))
	newSlug := base
	if draft {
		newSlug = domain.DraftPrefix + base
	}
	newPath := domain.PathForSlug(newSlug)

	newSHA, err := s.RenamePost(ctx, path, newPath, sha, branch)
	if err != nil {
		return "", "", err
	}
	return newPath, newSHA, nil
}

// UploadImage stores an image under the post's asset directory
// (posts/<slug>/<filename>) on the main branch and returns its public URL.
// The filename is sanitized to a safe character set.
func (s *PostService) UploadImage(ctx context.Context, slug string, filename string, data []byte) (string, error) {
	op := "upload image"
	if !IsValidSlug(slug) {
		return "", domain.Validationf(op, "invalid slug %q", slug)
	}
	if filename == "" {
		return "", domain.Validationf(op, "filename is required")
	}
	if len(data) == 0 {
		return "", domain.Validationf(op, "file is empty")
	}

	name := filenameSanitizer.ReplaceAllString(filename, "_")
	path := fmt.Sprintf("%s%s/%s", domain.PostsDir, slug, name)

	if _, err := s.source.PutFile(ctx, path, data, "", s.mainBranch, fmt.Sprintf("Upload image: %s", name)); err != nil {
		return "", err
	}

	s.cache.InvalidateMain()
	return fmt.Sprintf("%s/posts/%s/%s", s.baseURL, slug, name), nil
}

// ListBranches returns every live cms branch ref.
func (s *PostService) ListBranches(ctx context.Context) ([]domain.BranchRef, error) {
	return s.source.ListCMSRefs(ctx)
}
