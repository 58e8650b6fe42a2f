package score

import (
	"math"
	"strings"
	"testing"

	"HuntScanner/internal/taxonomy"
)

func testTaxonomy(t *testing.T) *taxonomy.Taxonomy {
	t.Helper()

	perfect, err := taxonomy.Compile(taxonomy.CategoryPerfect, 75, taxonomy.Positive,
		[]string{"mimikatz", "rundll32.exe", "lateral movement"})
	if err != nil {
		t.Fatalf("compile perfect: %v", err)
	}
	negative, err := taxonomy.Compile(taxonomy.CategoryNegative, 10, taxonomy.Negative,
		[]string{"webinar", "free trial"})
	if err != nil {
		t.Fatalf("compile negative: %v", err)
	}

	return &taxonomy.Taxonomy{
		Version:    "test",
		Categories: []taxonomy.Category{perfect, negative},
	}
}

func approx(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestSingleMatchSubscore(t *testing.T) {
	t.Parallel()

	s := New(testTaxonomy(t))
	value, breakdown := s.Score("analysts observed mimikatz on the host")

	if !approx(value, 37.5) {
		t.Fatalf("expected 37.5 for one perfect match, got %v", value)
	}
	cat, ok := breakdown[taxonomy.CategoryPerfect]
	if !ok {
		t.Fatalf("expected perfect category in breakdown")
	}
	if len(cat.MatchedTerms) != 1 || cat.MatchedTerms[0] != "mimikatz" {
		t.Fatalf("unexpected matched terms: %v", cat.MatchedTerms)
	}
}

func TestRepeatedKeywordCountsOnce(t *testing.T) {
	t.Parallel()

	s := New(testTaxonomy(t))
	value, _ := s.Score("mimikatz mimikatz mimikatz")

	if !approx(value, 37.5) {
		t.Fatalf("repeats must not raise the score beyond one match, got %v", value)
	}
}

func TestNegativePenalty(t *testing.T) {
	t.Parallel()

	s := New(testTaxonomy(t))
	value, breakdown := s.Score("mimikatz details in our upcoming webinar")

	// 75*(1-0.5) - 10*(1-0.5) = 37.5 - 5 = 32.5
	if !approx(value, 32.5) {
		t.Fatalf("expected 32.5, got %v", value)
	}
	if _, ok := breakdown[taxonomy.CategoryNegative]; !ok {
		t.Fatalf("expected negative category in breakdown")
	}
}

func TestPenaltyFloorsAtZero(t *testing.T) {
	t.Parallel()

	s := New(testTaxonomy(t))
	value, _ := s.Score("join our webinar and start a free trial")

	if value != 0 {
		t.Fatalf("penalty-only text must floor at 0, got %v", value)
	}
}

func TestEmptyInput(t *testing.T) {
	t.Parallel()

	s := New(testTaxonomy(t))
	value, breakdown := s.Score("")

	if value != 0 {
		t.Fatalf("empty input must score 0, got %v", value)
	}
	if len(breakdown) != 0 {
		t.Fatalf("empty input must have an empty breakdown, got %v", breakdown)
	}
}

func TestScoreCappedBelowHundred(t *testing.T) {
	t.Parallel()

	// A category whose raw subscore exceeds the cap must clamp to 99.9
	// exactly, keeping the upper bound open.
	heavy, err := taxonomy.Compile(taxonomy.CategoryPerfect, 300, taxonomy.Positive,
		[]string{"alpha", "bravo", "charlie"})
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	s := New(&taxonomy.Taxonomy{Version: "test", Categories: []taxonomy.Category{heavy}})

	value, _ := s.Score("alpha bravo charlie")
	if !approx(value, 99.9) {
		t.Fatalf("expected the 99.9 cap, got %v", value)
	}
}

func TestDeterministic(t *testing.T) {
	t.Parallel()

	s := New(testTaxonomy(t))
	text := "rundll32.exe spawned after lateral movement, webinar link below"

	v1, b1 := s.Score(text)
	v2, b2 := s.Score(text)

	if v1 != v2 {
		t.Fatalf("score not deterministic: %v vs %v", v1, v2)
	}
	if len(b1) != len(b2) {
		t.Fatalf("breakdown not deterministic")
	}
}

func TestMonotonicInDistinctMatches(t *testing.T) {
	t.Parallel()

	s := New(testTaxonomy(t))
	one, _ := s.Score("mimikatz")
	two, _ := s.Score("mimikatz and rundll32.exe")
	three, _ := s.Score("mimikatz, rundll32.exe, then lateral movement")

	if !(one < two && two < three) {
		t.Fatalf("score must grow with distinct matches: %v %v %v", one, two, three)
	}
	if three >= 75 {
		t.Fatalf("subscore must stay below the category max, got %v", three)
	}
}

func TestPhraseMatchesAsSubstring(t *testing.T) {
	t.Parallel()

	s := New(testTaxonomy(t))
	value, _ := s.Score("evidence of Lateral Movement across the estate")

	if !approx(value, 37.5) {
		t.Fatalf("multi-word phrase should match case-insensitively, got %v", value)
	}
}

func TestBoundsOnDefaultTaxonomy(t *testing.T) {
	t.Parallel()

	s := New(taxonomy.MustDefault())

	inputs := []string{
		"",
		"\x00\x01\x02\xff binary garbage \x7f",
		"plain marketing text about nothing in particular",
		strings.Repeat("rundll32.exe powershell.exe lsass.exe certutil.exe cmd.exe "+
			"mimikatz APT29 ransomware lateral movement beacon exfiltration "+
			"Event ID process_creation DeviceProcessEvents hxxp ", 20),
	}

	for _, text := range inputs {
		value, _ := s.Score(text)
		if value < 0 || value >= 100 {
			t.Fatalf("score out of [0,100) for %q...: %v", truncateForLog(text), value)
		}
	}
}

func TestObfuscationSubPass(t *testing.T) {
	t.Parallel()

	s := New(taxonomy.MustDefault())
	value, breakdown := s.Score("the dropper ran cmd /V:ON with set q=%PATH:~0,5% staged expansion")

	cat, ok := breakdown[taxonomy.CategoryPerfect]
	if !ok {
		t.Fatalf("obfuscation patterns must fold into the perfect category, score=%v", value)
	}
	if len(cat.MatchedTerms) < 2 {
		t.Fatalf("expected multiple obfuscation matches, got %v", cat.MatchedTerms)
	}
}

func TestDualListedProcessNames(t *testing.T) {
	t.Parallel()

	// These binaries sit in both the perfect-discriminator and LOLBAS
	// lists; mentioning one must contribute to both categories.
	s := New(taxonomy.MustDefault())
	names := []string{
		"powershell.exe", "rundll32.exe", "lsass.exe", "svchost.exe",
		"conhost.exe", "wmic.exe", "findstr.exe", "reg.exe",
	}
	for _, name := range names {
		_, breakdown := s.Score("attackers launched " + name + " from the dropper")
		if _, ok := breakdown[taxonomy.CategoryPerfect]; !ok {
			t.Errorf("%s: expected perfect category match", name)
		}
		if _, ok := breakdown[taxonomy.CategoryLOLBAS]; !ok {
			t.Errorf("%s: expected lolbas category match", name)
		}
	}
}

func TestRescoringIsPure(t *testing.T) {
	t.Parallel()

	s := New(taxonomy.MustDefault())
	text := "APT29 used certutil.exe for ingress, then scheduled tasks for persistence"

	first, _ := s.Score(text)
	for i := 0; i < 5; i++ {
		again, _ := s.Score(text)
		if again != first {
			t.Fatalf("rescoring changed the result: %v vs %v", again, first)
		}
	}
}

func truncateForLog(s string) string {
	if len(s) > 40 {
		return s[:40]
	}
	return s
}
