// Package normalize cleans raw article markup into plain text and
// derives the content hash used as the deduplication key.
package normalize

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"HuntScanner/internal/domain"
)

// Normalizer turns raw HTML or text into normalized text. It is
// stateless and safe for concurrent use.
type Normalizer struct{}

func New() *Normalizer {
	return &Normalizer{}
}

// Normalize strips markup, drops script/style content, and collapses
// whitespace. Input that is not HTML passes through with whitespace
// collapsed, so the result is deterministic for any string.
func (n *Normalizer) Normalize(raw string) string {
	if !strings.Contains(raw, "<") {
		return collapse(raw)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(raw))
	if err != nil {
		return collapse(raw)
	}
	doc.Find("script, style, noscript").Remove()
	return collapse(doc.Text())
}

// Hash returns the SHA-256 hex digest of the normalized text. Identical
// normalized text always yields an identical hash.
func Hash(normalized string) string {
	sum := sha256.Sum256([]byte(normalized))
	return hex.EncodeToString(sum[:])
}

// Apply builds a NormalizedArticle from a candidate. The hash is a
// function of the normalized text alone, so syndicated copies that
// normalize to the same body collapse to one hash regardless of which
// source produced them.
func (n *Normalizer) Apply(c domain.CandidateArticle) domain.NormalizedArticle {
	text := n.Normalize(c.RawText)
	if text == "" {
		text = collapse(c.Summary)
	}
	return domain.NormalizedArticle{
		CandidateArticle: c,
		NormalizedText:   text,
		ContentHash:      Hash(text),
	}
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
