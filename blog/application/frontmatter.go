package application

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/gitpress/gitpress/blog/domain"
)

var (
	metaLineRegex   = regexp.MustCompile(`^(\w+):\s*(.*)$`)
	inlineListRegex = regexp.MustCompile(`^\[(.+)\]$`)
)

// SiteDefaults are the identity fields merged into generated front matter
// when the caller does not supply them. BaseURL is used to compute the
// canonical url field from the slug.
type SiteDefaults struct {
	Author      string
	TwitterID   string
	GitHubID    string
	Mail        string
	SiteName    string
	TwitterSite string
	BaseURL     string
}

// FrontMatterCodec parses and serializes the metadata block at the top of a
// post's Markdown file. It is pure: no repository or branch awareness.
type FrontMatterCodec struct {
	defaults SiteDefaults
}

// NewFrontMatterCodec creates a codec with the given site defaults.
func NewFrontMatterCodec(defaults SiteDefaults) *FrontMatterCodec {
	return &FrontMatterCodec{defaults: defaults}
}

// Parse splits raw content into metadata and body. Input without a leading
// --- delimiter line, or with no closing delimiter, has no front matter: the
// metadata comes back empty and the whole input is the body.
//
// Inside the block, lines of the form "key: value" are recorded. A value of
// exactly "[a, b, c]" becomes a list, the literals true/false become
// booleans for the featured field, and everything else stays a raw string;
// dates and numbers are never coerced. Unrecognized keys are preserved in
// Extra.
func (c *FrontMatterCodec) Parse(raw string) (domain.PostMeta, string) {
	var meta domain.PostMeta

	lines := strings.Split(raw, "\n")
	if strings.TrimSpace(lines[0]) != "---" {
		return meta, raw
	}

	endIdx := -1
	for i := 1; i < len(lines); i++ {
		if strings.TrimSpace(lines[i]) == "---" {
			endIdx = i
			break
		}
	}
	if endIdx == -1 {
		return meta, raw
	}

	for _, line := range lines[1:endIdx] {
		m := metaLineRegex.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		key, value := m[1], m[2]

		switch key {
		case "title":
			meta.Title = value
		case "author":
			meta.Author = value
		case "date":
			meta.Date = value
		case "tag":
			meta.Tag = parseInlineList(value)
		case "twitter_id":
			meta.TwitterID = value
		case "github_id":
			meta.GitHubID = value
		case "mail":
			meta.Mail = value
		case "ogp_url":
			meta.OGPURL = value
		case "description":
			meta.Description = value
		case "url":
			meta.URL = value
		case "site_name":
			meta.SiteName = value
		case "twitter_site":
			meta.TwitterSite = value
		case "featured":
			meta.Featured = value == "true"
		default:
			if meta.Extra == nil {
				meta.Extra = make(map[string]string)
			}
			meta.Extra[key] = value
		}
	}

	body := strings.Join(lines[endIdx+1:], "\n")
	body = strings.TrimPrefix(body, "\n")

	return meta, body
}

// Generate serializes meta and body into a complete post file. Site identity
// defaults fill in any fields the caller left empty, the canonical url is
// derived from the slug when not supplied, and fields are written in a fixed
// order with a blank line before the body.
func (c *FrontMatterCodec) Generate(meta domain.PostMeta, body string, slug string) string {
	m := meta
	if m.Author == "" {
		m.Author = c.defaults.Author
	}
	if m.TwitterID == "" {
		m.TwitterID = c.defaults.TwitterID
	}
	if m.GitHubID == "" {
		m.GitHubID = c.defaults.GitHubID
	}
	if m.Mail == "" {
		m.Mail = c.defaults.Mail
	}
	if m.SiteName == "" {
		m.SiteName = c.defaults.SiteName
	}
	if m.TwitterSite == "" {
		m.TwitterSite = c.defaults.TwitterSite
	}
	if m.URL == "" {
		m.URL = fmt.Sprintf("%s/posts/%s.html", c.defaults.BaseURL, slug)
	}

	lines := []string{
		"---",
		"title: " + m.Title,
		"author: " + m.Author,
		"date: " + m.Date,
		"tag: [" + strings.Join(m.Tag, ", ") + "]",
		"twitter_id: " + m.TwitterID,
		"github_id: " + m.GitHubID,
		"mail: " + m.Mail,
		"ogp_url: " + m.OGPURL,
		"description: " + m.Description,
		"url: " + m.URL,
		"site_name: " + m.SiteName,
		"twitter_site: " + m.TwitterSite,
		fmt.Sprintf("featured: %t", m.Featured),
		"---",
		"",
		body,
	}

	return strings.Join(lines, "\n")
}

func parseInlineList(value string) []string {
	m := inlineListRegex.FindStringSubmatch(value)
	if m == nil {
		return nil
	}
	parts := strings.Split(m[1], ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		out = append(out, strings.TrimSpace(p))
	}
	return out
}
