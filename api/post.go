package api

// CreatePostRequest creates a new post on its working branch.
type CreatePostRequest struct {
	Slug        string   `json:"slug"`
	Title       string   `json:"title"`
	Date        string   `json:"date"`
	Tag         []string `json:"tag"`
	Description string   `json:"description"`
	OGPURL      string   `json:"ogp_url"`
	Featured    bool     `json:"featured"`
	Content     string   `json:"content"`
}

// UpdatePostRequest overwrites an existing post. SHA must be the version
// token most recently returned for the path.
type UpdatePostRequest struct {
	SHA         string   `json:"sha"`
	Branch      string   `json:"branch"`
	Title       string   `json:"title"`
	Date        string   `json:"date"`
	Tag         []string `json:"tag"`
	Description string   `json:"description"`
	OGPURL      string   `json:"ogp_url"`
	Featured    bool     `json:"featured"`
	Body        string   `json:"body"`
}

// PostResponse is a single post with parsed metadata and raw body.
type PostResponse struct {
	Path        string   `json:"path"`
	Slug        string   `json:"slug"`
	SHA         string   `json:"sha"`
	Title       string   `json:"title"`
	Author      string   `json:"author"`
	Date        string   `json:"date"`
	Tag         []string `json:"tag"`
	Description string   `json:"description"`
	OGPURL      string   `json:"ogp_url"`
	URL         string   `json:"url"`
	Featured    bool     `json:"featured"`
	Body        string   `json:"body"`
}

// SaveResponse reports where a write landed and the new version token.
type SaveResponse struct {
	Path   string `json:"path"`
	Branch string `json:"branch"`
	SHA    string `json:"sha"`
}

// DraftRequest toggles a post's draft state by renaming it on its branch.
type DraftRequest struct {
	Draft  bool   `json:"draft"`
	SHA    string `json:"sha"`
	Branch string `json:"branch"`
}

// PublishRequest merges a working branch into main.
type PublishRequest struct {
	Branch string `json:"branch"`
	Title  string `json:"title"`
}

// PublishResponse reports the merged pull request.
type PublishResponse struct {
	Merged   bool `json:"merged"`
	PRNumber int  `json:"prNumber"`
}

// CreateBranchRequest gets or creates the working branch for a slug.
type CreateBranchRequest struct {
	Slug string `json:"slug"`
}

// BranchResponse is one working branch and its tip commit.
type BranchResponse struct {
	Branch string `json:"branch"`
	SHA    string `json:"sha"`
}

// BranchListResponse lists live working branches and their slugs.
type BranchListResponse struct {
	Branches []string `json:"branches"`
	Slugs    []string `json:"slugs"`
}

// ImageResponse is the public URL of an uploaded image.
type ImageResponse struct {
	URL string `json:"url"`
}

// PreviewRequest renders markdown to HTML for the editor preview.
type PreviewRequest struct {
	Markdown string `json:"markdown"`
}

// PreviewResponse carries the rendered preview.
type PreviewResponse struct {
	HTML string `json:"html"`
}
