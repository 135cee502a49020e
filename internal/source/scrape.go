package source

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"time"

	"github.com/dpax/linkedin-feed/internal/entity"
	"github.com/gocolly/colly/v2"
)

const (
	DefaultUserAgent = "Mozilla/5.0 (compatible; DPaXFeedSync/1.0; +https://www.dpax.fr)"
	acceptHTML       = "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8"
)

// DefaultScrapeURLs are the public pages tried in order by the scrape mode.
var DefaultScrapeURLs = []string{
	"https://www.linkedin.com/company/dpax/posts/?feedView=all",
	"https://www.linkedin.com/company/dpax/recent-activity/all/",
	"https://r.jina.ai/http://www.linkedin.com/company/dpax/posts/?feedView=all",
	"https://r.jina.ai/http://www.linkedin.com/company/dpax/recent-activity/all/",
}

// ErrLegalRestriction is returned when a proxy refuses the page for legal reasons.
var ErrLegalRestriction = errors.New("source returned legal restriction (451)")

var legalRestrictionRegex = regexp.MustCompile(`(?i)"code"\s*:\s*451|unavailable_for_legal_reasons`)

// ScrapeFetcher downloads public pages with a colly collector.
type ScrapeFetcher struct {
	userAgent string
	transport http.RoundTripper
}

func NewScrapeFetcher(userAgent string) *ScrapeFetcher {
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}

	return &ScrapeFetcher{userAgent: userAgent, transport: httpTransport}
}

// ScrapeCandidates turns page URLs into GET candidates.
func ScrapeCandidates(urls []string) []entity.Candidate {
	candidates := make([]entity.Candidate, 0, len(urls))

	for _, u := range urls {
		candidates = append(candidates, entity.Candidate{
			URL:     u,
			Method:  http.MethodGet,
			Headers: map[string]string{"Accept": acceptHTML},
		})
	}

	return candidates
}

// Fetch visits the candidate URL and returns the raw body.
func (f *ScrapeFetcher) Fetch(ctx context.Context, candidate entity.Candidate) ([]byte, error) {
	c := colly.NewCollector(
		colly.UserAgent(f.userAgent),
		colly.AllowURLRevisit(),
	)

	c.WithTransport(f.transport)

	if deadline, ok := ctx.Deadline(); ok {
		c.SetRequestTimeout(time.Until(deadline))
	}

	var (
		body   []byte
		reqErr error
	)

	c.OnRequest(func(r *colly.Request) {
		if ctx.Err() != nil {
			r.Abort()
			return
		}

		for k, v := range candidate.Headers {
			r.Headers.Set(k, v)
		}
	})

	c.OnResponse(func(r *colly.Response) {
		body = r.Body
	})

	c.OnError(func(r *colly.Response, err error) {
		if r != nil && r.StatusCode >= http.StatusMultipleChoices {
			reqErr = &StatusError{URL: candidate.URL, StatusCode: r.StatusCode}
			return
		}

		reqErr = err
	})

	visitErr := c.Visit(candidate.URL)

	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	if reqErr != nil {
		return nil, reqErr
	}

	if visitErr != nil {
		return nil, fmt.Errorf("could not visit %s: %w", candidate.URL, visitErr)
	}

	if legalRestrictionRegex.Match(body) {
		return nil, ErrLegalRestriction
	}

	return body, nil
}
