package domain

import "testing"

func TestIsPostPath(t *testing.T) {
	tests := []struct {
		name     string
		path     string
		expected bool
	}{
		{
			name:     "Valid post file",
			path:     "posts/my-post.md",
			expected: true,
		},
		{
			name:     "Valid draft file",
			path:     "posts/wip_my-post.md",
			expected: true,
		},
		{
			name:     "Not a post - wrong directory",
			path:     "articles/my-post.md",
			expected: false,
		},
		{
			name:     "Not a post - nested path",
			path:     "posts/sub/my-post.md",
			expected: false,
		},
		{
			name:     "Not a post - wrong extension",
			path:     "posts/my-post.txt",
			expected: false,
		},
		{
			name:     "Not a post - image under post dir",
			path:     "posts/my-post/photo.jpg",
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsPostPath(tt.path); got != tt.expected {
				t.Errorf("IsPostPath(%q) = %v, want %v", tt.path, got, tt.expected)
			}
		})
	}
}

func TestSlugHelpers(t *testing.T) {
	if got := SlugFromPath("posts/wip_foo.md"); got != "wip_foo" {
		t.Errorf("SlugFromPath kept = %q, want wip_foo (draft prefix retained)", got)
	}
	if got := BaseSlug("wip_foo"); got != "foo" {
		t.Errorf("BaseSlug = %q, want foo", got)
	}
	if got := BaseSlug("foo"); got != "foo" {
		t.Errorf("BaseSlug = %q, want foo", got)
	}
	if got := PathForSlug("wip_foo"); got != "posts/wip_foo.md" {
		t.Errorf("PathForSlug = %q", got)
	}
	if !IsDraftPath("posts/wip_foo.md") {
		t.Error("IsDraftPath missed a draft file")
	}
	if IsDraftPath("posts/foo.md") {
		t.Error("IsDraftPath flagged a published file")
	}
}
