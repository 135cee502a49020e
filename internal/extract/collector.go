package extract

import "github.com/dpax/linkedin-feed/internal/entity"

// DefaultLimit is the maximum number of posts in a feed document.
const DefaultLimit = 20

// Collector accumulates posts, dropping repeated canonical URLs and
// stopping once the limit is reached. The first occurrence of a URL wins.
type Collector struct {
	limit int
	seen  map[string]struct{}
	posts []entity.Post
}

func NewCollector(limit int) *Collector {
	if limit <= 0 {
		limit = DefaultLimit
	}

	return &Collector{
		limit: limit,
		seen:  make(map[string]struct{}),
	}
}

// Full reports whether the limit has been reached.
func (c *Collector) Full() bool {
	return len(c.posts) >= c.limit
}

// Seen reports whether a canonical URL was already collected.
func (c *Collector) Seen(url string) bool {
	_, ok := c.seen[url]
	return ok
}

// Add appends the post unless the collector is full, the URL is empty or
// already present. It reports whether the post was kept.
func (c *Collector) Add(post entity.Post) bool {
	if c.Full() || post.URL == "" || c.Seen(post.URL) {
		return false
	}

	c.seen[post.URL] = struct{}{}
	c.posts = append(c.posts, post)

	return true
}

// Posts returns the collected posts in insertion order.
func (c *Collector) Posts() []entity.Post {
	return c.posts
}
