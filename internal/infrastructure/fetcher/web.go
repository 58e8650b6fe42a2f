package fetcher

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	readability "github.com/go-shiori/go-readability"

	"HuntScanner/internal/domain"
	"HuntScanner/internal/ports"
)

const (
	defaultMaxArticles = 10
	userAgent          = "HuntScanner/1.0"
)

// Web scrapes listing pages of sources without a feed. It discovers
// article links on the index page, then pulls each article body through
// readability extraction.
type Web struct {
	client      *http.Client
	maxArticles int
}

var _ ports.Fetcher = (*Web)(nil)

// NewWeb wires an HTTP client; a nil client gets a 20s-timeout default.
func NewWeb(client *http.Client) *Web {
	if client == nil {
		client = &http.Client{Timeout: 20 * time.Second}
	}
	return &Web{client: client, maxArticles: defaultMaxArticles}
}

func (w *Web) Mode() domain.FetchMode {
	return domain.ModeWeb
}

// Fetch scrapes the source index page and extracts up to maxArticles
// candidates. A failed extraction of one article skips that article
// only; the page-level fetch failing fails the whole check.
func (w *Web) Fetch(ctx context.Context, src domain.Source) ([]domain.CandidateArticle, error) {
	doc, err := w.fetchDocument(ctx, src.URL)
	if err != nil {
		return nil, fmt.Errorf("%w: index %s: %v", domain.ErrFetch, src.Identifier, err)
	}

	links := discoverArticleLinks(doc, src.URL)
	if len(links) > w.maxArticles {
		links = links[:w.maxArticles]
	}

	candidates := make([]domain.CandidateArticle, 0, len(links))
	for _, link := range links {
		c, err := w.fetchArticle(ctx, link, src.Identifier)
		if err != nil {
			continue
		}
		candidates = append(candidates, c)
	}

	return candidates, nil
}

func (w *Web) fetchDocument(ctx context.Context, pageURL string) (*goquery.Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := w.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request document: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("server returned %s", resp.Status)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse document: %w", err)
	}

	return doc, nil
}

func (w *Web) fetchArticle(ctx context.Context, link articleLink, sourceID string) (domain.CandidateArticle, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, link.url, nil)
	if err != nil {
		return domain.CandidateArticle{}, err
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := w.client.Do(req)
	if err != nil {
		return domain.CandidateArticle{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return domain.CandidateArticle{}, fmt.Errorf("server returned %s", resp.Status)
	}

	parsed, err := url.Parse(link.url)
	if err != nil {
		return domain.CandidateArticle{}, err
	}

	article, err := readability.FromReader(resp.Body, parsed)
	if err != nil {
		return domain.CandidateArticle{}, fmt.Errorf("readability: %w", err)
	}

	title := link.title
	if article.Title != "" {
		title = article.Title
	}

	var authors []string
	if article.Byline != "" {
		authors = append(authors, article.Byline)
	}

	return domain.CandidateArticle{
		URL:      link.url,
		Title:    title,
		Summary:  article.Excerpt,
		Authors:  authors,
		RawText:  article.Content,
		SourceID: sourceID,
	}, nil
}

type articleLink struct {
	url   string
	title string
}

// discoverArticleLinks looks for <article> elements first, then falls
// back to anchors whose path looks like a blog post.
func discoverArticleLinks(doc *goquery.Document, baseURL string) []articleLink {
	seen := map[string]struct{}{}
	var links []articleLink

	add := func(href, title string) {
		href = resolveURL(baseURL, href)
		if href == "" {
			return
		}
		if _, ok := seen[href]; ok {
			return
		}
		seen[href] = struct{}{}
		links = append(links, articleLink{url: href, title: strings.TrimSpace(title)})
	}

	doc.Find("article").Each(func(_ int, sel *goquery.Selection) {
		anchor := sel.Find("a[href]").First()
		href, ok := anchor.Attr("href")
		if !ok {
			return
		}
		title := sel.Find("h1, h2, h3").First().Text()
		if title == "" {
			title = anchor.Text()
		}
		add(href, title)
	})

	if len(links) > 0 {
		return links
	}

	doc.Find("a[href]").Each(func(_ int, sel *goquery.Selection) {
		href, _ := sel.Attr("href")
		if !looksLikeArticlePath(href) {
			return
		}
		add(href, sel.Text())
	})

	return links
}

func looksLikeArticlePath(href string) bool {
	lower := strings.ToLower(href)
	for _, marker := range []string{"/blog/", "/post/", "/posts/", "/article/", "/articles/", "/research/", "/advisories/"} {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}

func resolveURL(base, href string) string {
	if href == "" || strings.HasPrefix(href, "#") {
		return ""
	}
	baseParsed, err := url.Parse(base)
	if err != nil {
		return ""
	}
	ref, err := url.Parse(href)
	if err != nil {
		return ""
	}
	resolved := baseParsed.ResolveReference(ref)
	if resolved.Scheme != "http" && resolved.Scheme != "https" {
		return ""
	}
	return resolved.String()
}
