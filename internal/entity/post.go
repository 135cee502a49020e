package entity

// Post is a single LinkedIn post as published in the feed document.
type Post struct {
	// Short stable identifier, e.g. the activity number of the post URN.
	ID       string `json:"id"`
	IsRepost bool   `json:"isRepost"`
	// Canonical URL: no query, no fragment, no trailing slash.
	URL     string `json:"url"`
	Title   string `json:"title"`
	Excerpt string `json:"excerpt"`
	// Coarse age such as "5m", "3h", "2d" or "1mo". Empty when unknown.
	RelativeDate string `json:"relativeDate"`
}

// FeedDocument is the JSON artifact consumed by the website.
type FeedDocument struct {
	Source       string `json:"source"`
	LastSyncedAt string `json:"lastSyncedAt"`
	Posts        []Post `json:"posts"`
}

// TimestampLayout is the ISO-8601 layout used for LastSyncedAt.
const TimestampLayout = "2006-01-02T15:04:05.000Z07:00"
