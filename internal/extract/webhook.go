package extract

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"
	"time"

	"github.com/dpax/linkedin-feed/internal/entity"
	"github.com/dpax/linkedin-feed/internal/linkedin"
)

// ErrMalformedPayload is returned when a webhook body is not JSON.
var ErrMalformedPayload = errors.New("malformed webhook payload")

// Field aliases in priority order. A dot walks into a nested object.
var (
	listFields        = []string{"posts", "data", "results"}
	idAliases         = []string{"postId", "post_id", "activityUrn", "activity_urn", "urn", "shareUrn", "id"}
	urlAliases        = []string{"postUrl", "post_url", "url", "link", "permalink", "shareUrl", "share_url"}
	textAliases       = []string{"postText", "post_text", "text", "commentary", "content", "body"}
	articleTitleAlias = []string{"articleTitle", "article_title", "article.title"}
	articleDescAlias  = []string{"articleDescription", "article_description", "article.description"}
	dateAliases       = []string{"publishedAt", "published_at", "postedAt", "posted_at", "createdAt", "created_at", "timestamp", "date"}
	repostAliases     = []string{"isRepost", "is_repost", "repost", "reposted", "isReshare", "is_reshare"}
	truthyTokens      = map[string]bool{"true": true, "1": true, "yes": true, "y": true, "on": true}
)

// DecodePayload parses a webhook body holding a single JSON value, keeping
// numbers exact.
func DecodePayload(body []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()

	var payload any

	if err := dec.Decode(&payload); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}

	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: trailing data after JSON value", ErrMalformedPayload)
	}

	return payload, nil
}

// WebhookNormalizer maps loosely shaped webhook items onto posts.
type WebhookNormalizer struct {
	limit int
	now   func() time.Time
}

func NewWebhookNormalizer(limit int, now func() time.Time) *WebhookNormalizer {
	if now == nil {
		now = time.Now
	}

	return &WebhookNormalizer{limit: limit, now: now}
}

// Normalize returns up to limit unique posts found in payload. Items without
// a resolvable LinkedIn URL are dropped.
func (n *WebhookNormalizer) Normalize(payload any) []entity.Post {
	collector := NewCollector(n.limit)
	now := n.now()

	for _, raw := range postList(payload) {
		for _, item := range unwrapEnvelope(raw) {
			if collector.Full() {
				return collector.Posts()
			}

			if post, ok := n.normalizeItem(item, now); ok {
				collector.Add(post)
			}
		}
	}

	return collector.Posts()
}

func (n *WebhookNormalizer) normalizeItem(item map[string]any, now time.Time) (entity.Post, bool) {
	rawID := stringValue(lookup(item, idAliases))
	postURL := webhookURL(stringValue(lookup(item, urlAliases)))

	if postURL == "" {
		postURL = linkedin.URLFromURN(rawID)
	}

	if postURL == "" {
		return entity.Post{}, false
	}

	id, ok := linkedin.IDFromURN(rawID)

	if !ok {
		id = strings.TrimSpace(rawID)
	}

	if id == "" {
		id = linkedin.IDFromURL(postURL, now)
	}

	text := flattenHTML(stringValue(lookup(item, textAliases)))
	articleTitle := linkedin.CollapseSpaces(stringValue(lookup(item, articleTitleAlias)))
	articleDesc := flattenHTML(stringValue(lookup(item, articleDescAlias)))

	title := linkedin.FirstLine(articleTitle)

	if title == "" {
		title = linkedin.FirstLine(text)
	}

	if title == "" {
		title = linkedin.DefaultTitle
	}

	excerpt := linkedin.Excerpt(text)

	if excerpt == "" {
		excerpt = linkedin.Excerpt(articleDesc)
	}

	var relativeDate string

	if published, ok := timeValue(lookup(item, dateAliases)); ok {
		relativeDate = linkedin.RelativeDate(published, now)
	}

	return entity.Post{
		ID:           id,
		IsRepost:     boolValue(lookup(item, repostAliases)),
		URL:          postURL,
		Title:        title,
		Excerpt:      excerpt,
		RelativeDate: relativeDate,
	}, true
}

// postList finds the item sequence: the payload itself or one of the
// conventional list fields.
func postList(payload any) []any {
	switch v := payload.(type) {
	case []any:
		return v
	case map[string]any:
		for _, field := range listFields {
			if list, ok := v[field].([]any); ok {
				return list
			}
		}
	}

	return nil
}

// unwrapEnvelope opens a single-key envelope around an item exactly once.
// The envelope may carry an object, an array, or either of those encoded as
// a JSON string.
func unwrapEnvelope(raw any) []map[string]any {
	obj, ok := raw.(map[string]any)

	if !ok {
		return nil
	}

	if len(obj) != 1 {
		return []map[string]any{obj}
	}

	for _, inner := range obj {
		if s, ok := inner.(string); ok {
			inner = decodeEmbedded(s)
		}

		switch v := inner.(type) {
		case map[string]any:
			return []map[string]any{v}
		case []any:
			return objectsOf(v)
		}
	}

	return []map[string]any{obj}
}

func objectsOf(list []any) []map[string]any {
	var items []map[string]any

	for _, el := range list {
		if s, ok := el.(string); ok {
			el = decodeEmbedded(s)
		}

		if m, ok := el.(map[string]any); ok {
			items = append(items, m)
		}
	}

	return items
}

// decodeEmbedded decodes a JSON object or array carried as a string. Any
// other string is returned unchanged.
func decodeEmbedded(s string) any {
	trimmed := strings.TrimSpace(s)

	if !strings.HasPrefix(trimmed, "{") && !strings.HasPrefix(trimmed, "[") {
		return s
	}

	decoded, err := DecodePayload([]byte(trimmed))

	if err != nil {
		return s
	}

	return decoded
}

func lookup(item map[string]any, aliases []string) any {
	for _, alias := range aliases {
		if v := lookupPath(item, alias); v != nil {
			return v
		}
	}

	return nil
}

func lookupPath(item map[string]any, path string) any {
	head, rest, nested := strings.Cut(path, ".")

	v, ok := item[head]

	if !ok || v == nil {
		return nil
	}

	if !nested {
		return v
	}

	child, ok := v.(map[string]any)

	if !ok {
		return nil
	}

	return lookupPath(child, rest)
}

func stringValue(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case json.Number:
		return t.String()
	case bool:
		return fmt.Sprint(t)
	}

	return ""
}

func boolValue(v any) bool {
	switch t := v.(type) {
	case bool:
		return t
	case string:
		return truthyTokens[strings.ToLower(strings.TrimSpace(t))]
	case json.Number:
		f, err := t.Float64()
		return err == nil && f != 0
	}

	return false
}

func timeValue(v any) (time.Time, bool) {
	switch t := v.(type) {
	case json.Number:
		f, err := t.Float64()

		if err != nil {
			return time.Time{}, false
		}

		return linkedin.FromEpoch(f), true
	case float64:
		return linkedin.FromEpoch(t), true
	case string:
		return linkedin.ParseTimestamp(t)
	}

	return time.Time{}, false
}

// webhookURL accepts only absolute linkedin.com URLs, canonicalized.
func webhookURL(raw string) string {
	canonical := linkedin.CanonicalURL(raw)

	if canonical == "" {
		return ""
	}

	u, err := url.Parse(canonical)

	if err != nil || !linkedin.IsLinkedInHost(u.Hostname()) {
		return ""
	}

	return canonical
}
