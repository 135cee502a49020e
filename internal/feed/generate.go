package feed

import (
	"fmt"
	"time"

	"github.com/dpax/linkedin-feed/internal/entity"
	"github.com/gorilla/feeds"
)

const feedTitle = "DPaX on LinkedIn"

// Generator renders feed documents as Atom or RSS.
type Generator struct {
	// Limit caps the number of rendered posts. Zero renders every post.
	Limit int
}

// Generate renders the posts of doc in the requested format
func (g *Generator) Generate(doc *entity.FeedDocument, params *entity.FeedParams) ([]byte, error) {
	limit := g.Limit

	if limit <= 0 {
		limit = len(doc.Posts)
	}

	synced, err := time.Parse(entity.TimestampLayout, doc.LastSyncedAt)

	if err != nil {
		synced = time.Now().UTC()
	}

	feed := &feeds.Feed{
		Title:   feedTitle,
		Link:    &feeds.Link{Href: doc.Source},
		Id:      doc.Source,
		Created: synced,
		Updated: synced,
	}

	posts := doc.Posts

	if !params.IncludeReposts {
		posts = Published(doc, limit)
	} else if len(posts) > limit {
		posts = posts[:limit]
	}

	for _, p := range posts {
		feed.Items = append(feed.Items, &feeds.Item{
			Id:          p.URL,
			Title:       p.Title,
			Link:        &feeds.Link{Href: p.URL},
			Description: p.Excerpt,
			Created:     synced,
		})
	}

	var content string

	switch params.Format {
	case entity.FormatRSS:
		content, err = feed.ToRss()
	case entity.FormatAtom:
		content, err = feed.ToAtom()
	default:
		return nil, fmt.Errorf("unsupported feed format: %s", params.Format)
	}

	if err != nil {
		return nil, fmt.Errorf("could not marshal %s feed: %w", params.Format, err)
	}

	return []byte(content), nil
}

// WriteAtom renders doc as Atom and saves it next to the JSON document.
func WriteAtom(outPath string, doc *entity.FeedDocument, limit int) error {
	g := &Generator{Limit: limit}

	content, err := g.Generate(doc, &entity.FeedParams{Format: entity.FormatAtom})

	if err != nil {
		return err
	}

	return save(outPath, content)
}
