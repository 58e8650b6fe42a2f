// Package taxonomy holds the versioned keyword configuration consumed
// by the hunt scorer. A Taxonomy is compiled once at load and is
// immutable afterwards; scoring never mutates it, so it needs no
// synchronization.
package taxonomy

import (
	"fmt"
	"regexp"
	"strings"
)

// DefaultVersion identifies the shipped keyword set.
const DefaultVersion = "2024.12"

// Category names are stable identifiers used in score breakdowns and
// persisted article metadata.
const (
	CategoryPerfect      = "perfect_discriminators"
	CategoryLOLBAS       = "lolbas_executables"
	CategoryIntelligence = "intelligence_indicators"
	CategoryGood         = "good_discriminators"
	CategoryNegative     = "negative_indicators"
)

// Polarity states whether a category adds to or subtracts from the score.
type Polarity int

const (
	Positive Polarity = iota
	Negative
)

// Entry is one compiled keyword, phrase, or regex pattern.
type Entry struct {
	Term string

	// Exactly one of re/sub is set: re for boundary-aware and regex
	// entries, sub for literal substring entries (phrases, symbols).
	re  *regexp.Regexp
	sub string
}

// Matches reports whether the entry occurs in the text. lowered must be
// strings.ToLower(text); callers lower once per document.
func (e *Entry) Matches(text, lowered string) bool {
	if e.re != nil {
		return e.re.MatchString(text)
	}
	return strings.Contains(lowered, e.sub)
}

// Category is a named keyword list with a points ceiling.
type Category struct {
	Name      string
	MaxPoints float64
	Polarity  Polarity
	Entries   []Entry
}

// Taxonomy is the full compiled keyword configuration.
type Taxonomy struct {
	Version    string
	Categories []Category
}

// Category returns the named category, or nil.
func (t *Taxonomy) Category(name string) *Category {
	for i := range t.Categories {
		if t.Categories[i].Name == name {
			return &t.Categories[i]
		}
	}
	return nil
}

// Default compiles the shipped keyword set. The obfuscation regex
// sub-pass is appended to the perfect-discriminator category.
func Default() (*Taxonomy, error) {
	perfect, err := compileKeywords(perfectDiscriminators)
	if err != nil {
		return nil, fmt.Errorf("perfect discriminators: %w", err)
	}
	obfuscation, err := compileRegexes(obfuscationPatterns)
	if err != nil {
		return nil, fmt.Errorf("obfuscation patterns: %w", err)
	}
	perfect = append(perfect, obfuscation...)

	lolbas, err := compileKeywords(lolbasExecutables)
	if err != nil {
		return nil, fmt.Errorf("lolbas executables: %w", err)
	}
	intel, err := compileKeywords(intelligenceIndicators)
	if err != nil {
		return nil, fmt.Errorf("intelligence indicators: %w", err)
	}
	good, err := compileKeywords(goodDiscriminators)
	if err != nil {
		return nil, fmt.Errorf("good discriminators: %w", err)
	}
	negative, err := compileKeywords(negativeIndicators)
	if err != nil {
		return nil, fmt.Errorf("negative indicators: %w", err)
	}

	return &Taxonomy{
		Version: DefaultVersion,
		Categories: []Category{
			{Name: CategoryPerfect, MaxPoints: 75, Polarity: Positive, Entries: perfect},
			{Name: CategoryLOLBAS, MaxPoints: 10, Polarity: Positive, Entries: lolbas},
			{Name: CategoryIntelligence, MaxPoints: 10, Polarity: Positive, Entries: intel},
			{Name: CategoryGood, MaxPoints: 5, Polarity: Positive, Entries: good},
			{Name: CategoryNegative, MaxPoints: 10, Polarity: Negative, Entries: negative},
		},
	}, nil
}

// MustDefault panics on a compile failure; the shipped lists are
// covered by tests, so this is only reachable with a broken build.
func MustDefault() *Taxonomy {
	t, err := Default()
	if err != nil {
		panic(err)
	}
	return t
}

// Compile builds a category from raw keyword terms. Used by tests and
// by callers that load alternative keyword sets.
func Compile(name string, maxPoints float64, polarity Polarity, terms []string) (Category, error) {
	entries, err := compileKeywords(terms)
	if err != nil {
		return Category{}, fmt.Errorf("category %s: %w", name, err)
	}
	return Category{Name: name, MaxPoints: maxPoints, Polarity: polarity, Entries: entries}, nil
}

func compileKeywords(terms []string) ([]Entry, error) {
	entries := make([]Entry, 0, len(terms))
	for _, term := range terms {
		entry, err := compileKeyword(term)
		if err != nil {
			return nil, fmt.Errorf("keyword %q: %w", term, err)
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

func compileRegexes(patterns []string) ([]Entry, error) {
	entries := make([]Entry, 0, len(patterns))
	for _, p := range patterns {
		re, err := regexp.Compile("(?i)" + p)
		if err != nil {
			return nil, fmt.Errorf("pattern %q: %w", p, err)
		}
		entries = append(entries, Entry{Term: p, re: re})
	}
	return entries, nil
}

// compileKeyword picks the matching rule for a term. Single tokens are
// word-boundary matched; multi-word phrases and operator-like symbols
// match as literal substrings; executable and library names carry
// extension-aware rules to avoid false positives on common words.
func compileKeyword(term string) (Entry, error) {
	lower := strings.ToLower(term)

	switch {
	case partialMatchTerms[lower]:
		return Entry{Term: term, sub: lower}, nil

	case prefixWildcardTerms[lower]:
		return compileEntry(term, `\b`+regexp.QuoteMeta(lower)+`\w*`)

	case symbolTerms[term] || !containsWordChar(term):
		return Entry{Term: term, sub: lower}, nil

	case strings.HasPrefix(term, "-") || strings.HasSuffix(term, "-"):
		// Letter boundaries instead of word boundaries so flags like
		// "-accepteula" and prefixes like "invoke-" still match.
		return compileEntry(term, `(^|[^a-z])`+regexp.QuoteMeta(lower)+`($|[^a-z])`)

	case strings.HasSuffix(lower, ".exe"):
		return compileExecutable(term, strings.TrimSuffix(lower, ".exe"), ".exe")

	case strings.HasSuffix(lower, ".dll"):
		return compileLibrary(term, strings.TrimSuffix(lower, ".dll"))

	case strings.Contains(term, " "):
		return Entry{Term: term, sub: lower}, nil

	default:
		return compileEntry(term, `\b`+regexp.QuoteMeta(lower)+`\b`)
	}
}

// compileExecutable requires the extension for long base names; short
// names (<= 3 chars) may also appear bare when followed by a non-word
// character, which covers command lines without matching inside words.
func compileExecutable(term, base, ext string) (Entry, error) {
	if len(base) <= 3 {
		return compileEntry(term, `\b`+regexp.QuoteMeta(base)+`(`+regexp.QuoteMeta(ext)+`\b|$|[^a-z0-9])`)
	}
	return compileEntry(term, `\b`+regexp.QuoteMeta(base)+regexp.QuoteMeta(ext)+`\b`)
}

// compileLibrary matches .dll names with or without the extension for
// long base names; short ones follow the executable rule.
func compileLibrary(term, base string) (Entry, error) {
	if len(base) <= 3 {
		return compileEntry(term, `\b`+regexp.QuoteMeta(base)+`(\.dll\b|$|[^a-z0-9])`)
	}
	return compileEntry(term, `\b`+regexp.QuoteMeta(base)+`(\.dll)?\b`)
}

func compileEntry(term, pattern string) (Entry, error) {
	re, err := regexp.Compile("(?i)" + pattern)
	if err != nil {
		return Entry{}, err
	}
	return Entry{Term: term, re: re}, nil
}

func containsWordChar(s string) bool {
	for _, r := range s {
		if r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9' || r == '_' {
			return true
		}
	}
	return false
}
