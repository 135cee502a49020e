package entity

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
)

const (
	FormatAtom = "atom"
	FormatRSS  = "rss"
)

const CacheTTLDefault = 15 // minutes

// FeedParams represents validated request parameters for feed rendering
type FeedParams struct {
	// Format is the feed format, either "atom" or "rss"
	Format string

	// IncludeReposts keeps reposts that are hidden from the website by default
	IncludeReposts bool

	// CacheTTL is the cache time-to-live in minutes
	// A value of 0 means no caching
	CacheTTL int
}

// NewFeedParamsFromRequest parses and validates request parameters and creates a new FeedParams
func NewFeedParamsFromRequest(r *http.Request) (*FeedParams, error) {
	qp := r.URL.Query()

	format := qp.Get("format")

	if format == "" {
		format = FormatRSS
	} else if format != FormatRSS && format != FormatAtom {
		return nil, fmt.Errorf("format must be %s or %s", FormatRSS, FormatAtom)
	}

	includeReposts := false

	if v := qp.Get("include_reposts"); v != "" {
		if v == "1" || strings.EqualFold(v, "true") {
			includeReposts = true
		}
	}

	cacheTTL := CacheTTLDefault

	if ttlStr := qp.Get("cache_ttl"); ttlStr != "" {
		var err error
		cacheTTL, err = strconv.Atoi(ttlStr)

		if err != nil {
			return nil, fmt.Errorf("cache_ttl must be a valid integer")
		}

		if cacheTTL < 0 {
			return nil, fmt.Errorf("cache_ttl must be non-negative")
		}
	}

	return &FeedParams{
		Format:         format,
		IncludeReposts: includeReposts,
		CacheTTL:       cacheTTL,
	}, nil
}
