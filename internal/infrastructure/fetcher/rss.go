package fetcher

import (
	"context"
	"fmt"
	"time"

	"github.com/mmcdole/gofeed"

	"HuntScanner/internal/domain"
	"HuntScanner/internal/ports"
)

// RSS fetches candidate articles from RSS/Atom feeds.
type RSS struct {
	parser *gofeed.Parser
}

var _ ports.Fetcher = (*RSS)(nil)

func NewRSS() *RSS {
	return &RSS{parser: gofeed.NewParser()}
}

func (r *RSS) Mode() domain.FetchMode {
	return domain.ModeRSS
}

// Fetch parses the source's feed and maps each item to a candidate.
// Items carry whatever content the feed provides; full-text extraction
// is the web fetcher's job, not the feed reader's.
func (r *RSS) Fetch(ctx context.Context, src domain.Source) ([]domain.CandidateArticle, error) {
	feedURL := src.RSSURL
	if feedURL == "" {
		feedURL = src.URL
	}

	feed, err := r.parser.ParseURLWithContext(feedURL, ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: parse feed %s: %v", domain.ErrFetch, src.Identifier, err)
	}

	candidates := make([]domain.CandidateArticle, 0, len(feed.Items))
	for _, item := range feed.Items {
		var publishedAt time.Time
		if item.PublishedParsed != nil {
			publishedAt = *item.PublishedParsed
		} else if item.UpdatedParsed != nil {
			publishedAt = *item.UpdatedParsed
		}

		raw := item.Content
		if raw == "" {
			raw = item.Description
		}

		var authors []string
		if item.Author != nil && item.Author.Name != "" {
			authors = append(authors, item.Author.Name)
		}

		candidates = append(candidates, domain.CandidateArticle{
			URL:         item.Link,
			Title:       item.Title,
			Summary:     item.Description,
			Authors:     authors,
			RawText:     raw,
			PublishedAt: publishedAt,
			SourceID:    src.Identifier,
		})
	}

	return candidates, nil
}
