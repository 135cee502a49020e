package extract

import (
	"regexp"
	"strings"
	"time"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/dpax/linkedin-feed/internal/app"
	"github.com/dpax/linkedin-feed/internal/entity"
	"github.com/dpax/linkedin-feed/internal/linkedin"
)

// DefaultPostPrefix is the slug prefix of the company's post URLs.
const DefaultPostPrefix = "dpax_"

var (
	htmlMarkerRegex     = regexp.MustCompile(`(?i)<(?:!doctype|html|body|div|a\s)`)
	markdownEscapeRegex = regexp.MustCompile("\\\\([\\\\`*_{}\\[\\]()#+\\-.!])")
)

// ScrapeExtractor finds post links in scraped HTML, Markdown or plain text.
type ScrapeExtractor struct {
	matcher   *linkedin.PostURLMatcher
	converter *md.Converter
	limit     int
	now       func() time.Time
}

func NewScrapeExtractor(prefix string, limit int) *ScrapeExtractor {
	if prefix == "" {
		prefix = DefaultPostPrefix
	}

	return &ScrapeExtractor{
		matcher:   linkedin.NewPostURLMatcher(prefix),
		converter: md.NewConverter("", true, nil),
		limit:     limit,
		now:       time.Now,
	}
}

// Extract returns up to limit unique posts. Labeled links are collected
// first so their labels become titles; bare URLs fill the rest.
func (e *ScrapeExtractor) Extract(content string) []entity.Post {
	if strings.TrimSpace(content) == "" {
		return nil
	}

	texts := []string{content}

	if htmlMarkerRegex.MatchString(content) {
		if markdown, err := e.converter.ConvertString(content); err == nil {
			texts = []string{markdown, content}
		} else {
			app.Logger().Debug("Could not convert HTML to Markdown", "error", err)
		}
	}

	collector := NewCollector(e.limit)

	for _, text := range texts {
		for _, link := range e.matcher.LabeledLinks(text) {
			e.add(collector, link[1], unescapeMarkdown(link[0]))
		}
	}

	for _, text := range texts {
		for _, raw := range e.matcher.BareLinks(text) {
			e.add(collector, raw, "")
		}
	}

	return collector.Posts()
}

func (e *ScrapeExtractor) add(c *Collector, rawURL, label string) {
	if c.Full() {
		return
	}

	postURL := e.matcher.Canonical(rawURL)

	if postURL == "" || c.Seen(postURL) {
		return
	}

	c.Add(entity.Post{
		ID:    linkedin.IDFromURL(postURL, e.now()),
		URL:   postURL,
		Title: e.matcher.NormalizeTitle(label, postURL),
	})
}

func unescapeMarkdown(s string) string {
	return markdownEscapeRegex.ReplaceAllString(s, "$1")
}
