package linkedin

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"
)

// DefaultTitle is used whenever no better title can be found.
const DefaultTitle = "LinkedIn Post"

const trailingPunctuation = "),.;"

var (
	activityIDRegex = regexp.MustCompile(`(?i)-activity-(\d+)`)
	urnRegex        = regexp.MustCompile(`(?i)urn:li:(activity|share|ugcPost):(\d+)`)
	nonAlnumRegex   = regexp.MustCompile(`[^a-zA-Z0-9]+`)
	separatorsRegex = regexp.MustCompile(`[_-]+`)
)

// CanonicalURL strips the query, fragment and trailing slash from a raw URL.
// It returns an empty string when the input is not an absolute URL.
func CanonicalURL(raw string) string {
	cleaned := strings.TrimRight(strings.TrimSpace(raw), trailingPunctuation)

	if cleaned == "" {
		return ""
	}

	u, err := url.Parse(cleaned)

	if err != nil || u.Scheme == "" || u.Host == "" {
		return ""
	}

	u.RawQuery = ""
	u.ForceQuery = false
	u.Fragment = ""
	u.RawFragment = ""

	return strings.TrimSuffix(u.String(), "/")
}

// PostURLMatcher recognizes company post URLs such as
// https://www.linkedin.com/posts/dpax_some-title-activity-123.
type PostURLMatcher struct {
	prefix  string
	pathRe  *regexp.Regexp
	labelRe *regexp.Regexp
	bareRe  *regexp.Regexp
}

// NewPostURLMatcher builds a matcher for posts whose slug starts with prefix.
func NewPostURLMatcher(prefix string) *PostURLMatcher {
	quoted := regexp.QuoteMeta(prefix)

	return &PostURLMatcher{
		prefix:  prefix,
		pathRe:  regexp.MustCompile(`(?i)/posts/` + quoted),
		labelRe: regexp.MustCompile(`(?i)\[([^\]\n]{3,220})\]\((https://www\.linkedin\.com/posts/` + quoted + `[^)\s]+)(?:\s+"[^"\n]*")?\)`),
		bareRe:  regexp.MustCompile(`(?i)https://www\.linkedin\.com/posts/` + quoted + `[^\s)\]'"<>]+`),
	}
}

// Canonical returns the canonical form of a post URL, or an empty string when
// the URL is not a post of the configured company.
func (m *PostURLMatcher) Canonical(raw string) string {
	canonical := CanonicalURL(raw)

	if canonical == "" {
		return ""
	}

	u, err := url.Parse(canonical)

	if err != nil || !m.pathRe.MatchString(u.Path) {
		return ""
	}

	return canonical
}

// LabeledLinks returns [label, url] pairs of Markdown-style links to posts.
func (m *PostURLMatcher) LabeledLinks(content string) [][2]string {
	var links [][2]string

	for _, match := range m.labelRe.FindAllStringSubmatch(content, -1) {
		links = append(links, [2]string{match[1], match[2]})
	}

	return links
}

// BareLinks returns every post URL found in content.
func (m *PostURLMatcher) BareLinks(content string) []string {
	return m.bareRe.FindAllString(content, -1)
}

// TitleFromURL derives a readable title from the post slug.
func (m *PostURLMatcher) TitleFromURL(postURL string) string {
	u, err := url.Parse(postURL)

	if err != nil {
		return DefaultTitle
	}

	_, encodedSlug, _ := strings.Cut(u.EscapedPath(), "/posts/")
	slug, err := url.PathUnescape(encodedSlug)

	if err != nil {
		return DefaultTitle
	}

	seed, _, _ := strings.Cut(slug, "-activity-")

	if len(seed) >= len(m.prefix) && strings.EqualFold(seed[:len(m.prefix)], m.prefix) {
		seed = seed[len(m.prefix):]
	}

	seed = strings.TrimSpace(separatorsRegex.ReplaceAllString(seed, " "))

	if seed == "" {
		return DefaultTitle
	}

	first, size := utf8.DecodeRuneInString(seed)

	return string(unicode.ToUpper(first)) + seed[size:]
}

// NormalizeTitle collapses whitespace in a link label and falls back to the
// URL-derived title when the label is empty or is itself a URL.
func (m *PostURLMatcher) NormalizeTitle(label, postURL string) string {
	normalized := CollapseSpaces(label)

	if normalized == "" || isHTTPURL(normalized) {
		return m.TitleFromURL(postURL)
	}

	return normalized
}

func isHTTPURL(s string) bool {
	lower := strings.ToLower(s)
	return strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://")
}

// IDFromURN extracts the numeric part of urn:li:activity:123 style ids.
func IDFromURN(s string) (string, bool) {
	match := urnRegex.FindStringSubmatch(s)

	if match == nil {
		return "", false
	}

	return match[2], true
}

// URLFromURN builds the feed update URL for a post URN.
func URLFromURN(s string) string {
	match := urnRegex.FindStringSubmatch(s)

	if match == nil {
		return ""
	}

	return fmt.Sprintf("https://www.linkedin.com/feed/update/urn:li:%s:%s", match[1], match[2])
}

// IDFromURL derives a short id from a post URL: the activity number when
// present, else the tail of the URL's alphanumerics.
func IDFromURL(postURL string, now time.Time) string {
	if match := activityIDRegex.FindStringSubmatch(postURL); match != nil {
		return match[1]
	}

	if id, ok := IDFromURN(postURL); ok {
		return id
	}

	compact := nonAlnumRegex.ReplaceAllString(postURL, "")

	if len(compact) > 24 {
		compact = compact[len(compact)-24:]
	}

	if compact == "" {
		return fmt.Sprintf("post-%d", now.UnixMilli())
	}

	return compact
}

// IsLinkedInHost reports whether host is linkedin.com or one of its subdomains.
func IsLinkedInHost(host string) bool {
	host = strings.ToLower(host)
	return host == "linkedin.com" || strings.HasSuffix(host, ".linkedin.com")
}
