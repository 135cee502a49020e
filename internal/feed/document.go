package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/dpax/linkedin-feed/internal/entity"
)

// NewDocument builds the feed document published at now.
func NewDocument(source string, posts []entity.Post, limit int, now time.Time) *entity.FeedDocument {
	if len(posts) > limit {
		posts = posts[:limit]
	}

	if posts == nil {
		posts = []entity.Post{}
	}

	return &entity.FeedDocument{
		Source:       source,
		LastSyncedAt: now.UTC().Format(entity.TimestampLayout),
		Posts:        posts,
	}
}

// Marshal renders the document with two-space indentation and a trailing newline.
func Marshal(doc *entity.FeedDocument) ([]byte, error) {
	data, err := json.MarshalIndent(doc, "", "  ")

	if err != nil {
		return nil, err
	}

	return append(data, '\n'), nil
}

// Write replaces the document at outPath, creating parent directories. The
// previous file stays intact if anything fails before the final rename.
func Write(outPath string, doc *entity.FeedDocument) error {
	data, err := Marshal(doc)

	if err != nil {
		return fmt.Errorf("could not marshal feed document: %w", err)
	}

	return save(outPath, data)
}

// Read loads a feed document. It returns an error for missing or invalid
// files as well as for documents without a posts array.
func Read(path string) (*entity.FeedDocument, error) {
	contents, err := os.ReadFile(path)

	if err != nil {
		return nil, fmt.Errorf("could not read feed document: %w", err)
	}

	var raw struct {
		entity.FeedDocument
		Posts *[]entity.Post `json:"posts"`
	}

	if err := json.Unmarshal(contents, &raw); err != nil {
		return nil, fmt.Errorf("could not parse feed document: %w", err)
	}

	if raw.Posts == nil {
		return nil, fmt.Errorf("feed document %s has no posts array", path)
	}

	doc := raw.FeedDocument
	doc.Posts = *raw.Posts

	return &doc, nil
}

// Published is the view rendered by the website: reposts dropped, at most
// limit posts.
func Published(doc *entity.FeedDocument, limit int) []entity.Post {
	posts := make([]entity.Post, 0, min(len(doc.Posts), limit))

	for _, p := range doc.Posts {
		if len(posts) >= limit {
			break
		}

		if !p.IsRepost {
			posts = append(posts, p)
		}
	}

	return posts
}

func save(outPath string, data []byte) error {
	dir := filepath.Dir(outPath)

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("could not create %s: %w", dir, err)
	}

	tmpFile, err := os.CreateTemp(dir, "."+filepath.Base(outPath)+".*")

	if err != nil {
		return fmt.Errorf("could not create a temp file: %w", err)
	}

	defer os.Remove(tmpFile.Name())

	if _, err := tmpFile.Write(data); err != nil {
		tmpFile.Close()
		return fmt.Errorf("could not write %s: %w", tmpFile.Name(), err)
	}

	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("could not write %s: %w", tmpFile.Name(), err)
	}

	if err := os.Chmod(tmpFile.Name(), 0o644); err != nil {
		return fmt.Errorf("could not chmod %s: %w", tmpFile.Name(), err)
	}

	if err := os.Rename(tmpFile.Name(), outPath); err != nil {
		return fmt.Errorf("could not replace %s: %w", outPath, err)
	}

	return nil
}

// FileLoader reads the feed document from disk on every call so that the
// server always reflects the latest sync run.
type FileLoader struct {
	Path string
}

func (l *FileLoader) Load(_ context.Context) (*entity.FeedDocument, error) {
	return Read(l.Path)
}
