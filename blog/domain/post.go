package domain

import (
	"path"
	"strings"
)

const (
	// PostsDir is the repository directory that holds post files.
	PostsDir = "posts/"

	// DraftPrefix marks a post file as a work-in-progress draft.
	DraftPrefix = "wip_"

	postExt = ".md"
)

// PostMeta is the structured metadata embedded in a post's front matter block.
// Values are kept as raw strings (dates included); only tag and featured have
// structure. Keys outside the recognized set survive a parse in Extra.
type PostMeta struct {
	Title       string
	Author      string
	Date        string
	Tag         []string
	TwitterID   string
	GitHubID    string
	Mail        string
	OGPURL      string
	Description string
	URL         string
	SiteName    string
	TwitterSite string
	Featured    bool

	Extra map[string]string
}

// Post is one Markdown file in the posts directory, on some branch.
// SHA is the content version token returned by the remote side; any
// overwrite or delete must present the SHA most recently observed.
type Post struct {
	Path   string
	Meta   PostMeta
	Body   string
	SHA    string
	Branch string
}

// PostSummary is the read-only listing projection. Draft means the stored
// filename carries the wip_ prefix; Editing means a cms/ branch currently
// exists for the post's slug; Unpublished means the file is visible only on
// a branch and not yet on main.
type PostSummary struct {
	Path        string   `json:"path"`
	Slug        string   `json:"slug"`
	SHA         string   `json:"sha"`
	Title       string   `json:"title"`
	Date        string   `json:"date"`
	Tag         []string `json:"tag"`
	Description string   `json:"description"`
	Featured    bool     `json:"featured"`
	Draft       bool     `json:"draft"`
	Editing     bool     `json:"editing"`
	Unpublished bool     `json:"unpublished"`
}

// PostFile is one hydrated entry of a tree snapshot.
type PostFile struct {
	Path    string
	Content string
	SHA     string
}

// TreeSnapshot is an immutable view of one branch's post files at a single
// tree instant. Key is the freshness token recorded at fill time: the tree
// sha for main, the branch tip sha for cms branches.
type TreeSnapshot struct {
	Key   string
	Files []PostFile
}

// IsPostPath reports whether p names a post file: directly under the posts
// directory (no nesting) with a .md extension.
func IsPostPath(p string) bool {
	if !strings.HasPrefix(p, PostsDir) || !strings.HasSuffix(p, postExt) {
		return false
	}
	return !strings.Contains(p[len(PostsDir):], "/")
}

// SlugFromPath extracts the slug from a post path, keeping any wip_ prefix.
// "posts/wip_foo.md" -> "wip_foo".
func SlugFromPath(p string) string {
	name := path.Base(p)
	return strings.TrimSuffix(name, postExt)
}

// BaseSlug strips the draft prefix, yielding the public slug used for the
// branch name and the canonical URL. "wip_foo" -> "foo".
func BaseSlug(slug string) string {
	return strings.TrimPrefix(slug, DraftPrefix)
}

// PathForSlug builds the stored path for a slug, which may carry the draft
// prefix. "wip_foo" -> "posts/wip_foo.md".
func PathForSlug(slug string) string {
	return PostsDir + slug + postExt
}

// IsDraftPath reports whether the stored filename carries the draft prefix.
func IsDraftPath(p string) bool {
	return strings.HasPrefix(path.Base(p), DraftPrefix)
}
