package resolver

import (
	"testing"

	"tutor-import-service/internal/models"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"lowercase and trim", "  Jakarta Selatan  ", "jakarta selatan"},
		{"drops kabupaten prefix", "Kab. Bandung Barat", "bandung barat"},
		{"drops kota prefix", "Kota Surabaya", "surabaya"},
		{"drops dki prefix", "DKI Jakarta", "jakarta"},
		{"drops provinsi prefix", "Provinsi Jawa Barat", "jawa barat"},
		{"drops bank prefix", "Bank Mandiri", "mandiri"},
		{"punctuation becomes space", "jakarta-selatan", "jakarta selatan"},
		{"diacritics folded", "José", "jose"},
		{"only stop tokens kept verbatim", "Kota", "kota"},
		{"empty", "   ", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Normalize(tt.input); got != tt.expected {
				t.Errorf("Normalize(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestTokenSubset(t *testing.T) {
	tests := []struct {
		a, b     string
		expected bool
	}{
		{"jakarta", "jakarta selatan", true},
		{"jakarta selatan", "jakarta", false},
		{"selatan jakarta", "jakarta selatan barat", true},
		{"bandung", "jakarta selatan", false},
		{"", "jakarta", true},
	}

	for _, tt := range tests {
		if got := tokenSubset(tt.a, tt.b); got != tt.expected {
			t.Errorf("tokenSubset(%q, %q) = %v, want %v", tt.a, tt.b, got, tt.expected)
		}
	}
}

func testCandidates() []models.ReferenceEntity {
	return []models.ReferenceEntity{
		{ID: "p1", Name: "DKI Jakarta"},
		{ID: "p2", Name: "Jawa Barat"},
		{ID: "p3", Name: "Jawa Tengah"},
		{ID: "p4", Name: "Daerah Istimewa Yogyakarta", LocalName: "DIY"},
		{ID: "p5", Name: "Sumatera Utara"},
	}
}

func TestRankExactMatchScoresHundred(t *testing.T) {
	r := New()

	matches := r.Rank("DKI Jakarta", testCandidates())
	if len(matches) == 0 {
		t.Fatal("expected at least one match")
	}
	if matches[0].ReferenceID != "p1" {
		t.Errorf("top match = %s, want p1", matches[0].ReferenceID)
	}
	if matches[0].Score != 100 {
		t.Errorf("exact match score = %d, want 100", matches[0].Score)
	}
}

func TestRankNormalizedEquivalents(t *testing.T) {
	r := New()

	// The stop-token stripping makes these all the same entity.
	for _, input := range []string{"jakarta", "DKI JAKARTA", "Jakarta", "  dki jakarta  "} {
		match, ok := r.Best(input, testCandidates())
		if !ok {
			t.Fatalf("Best(%q): no match", input)
		}
		if match.ReferenceID != "p1" {
			t.Errorf("Best(%q) = %s, want p1", input, match.ReferenceID)
		}
		if match.Score != 100 {
			t.Errorf("Best(%q) score = %d, want 100", input, match.Score)
		}
	}
}

func TestRankTypoStillMatches(t *testing.T) {
	r := New()

	match, ok := r.Best("Jawa Barart", testCandidates())
	if !ok {
		t.Fatal("expected a match for a one-letter typo")
	}
	if match.ReferenceID != "p2" {
		t.Errorf("Best = %s, want p2", match.ReferenceID)
	}
	if match.Score >= 100 || match.Score < 75 {
		t.Errorf("typo score = %d, want within [75, 100)", match.Score)
	}
}

func TestRankLocalNameMatch(t *testing.T) {
	r := New()

	match, ok := r.Best("DIY", testCandidates())
	if !ok {
		t.Fatal("expected local-name match")
	}
	if match.ReferenceID != "p4" {
		t.Errorf("Best = %s, want p4", match.ReferenceID)
	}
	if match.Score != 100 {
		t.Errorf("local name exact score = %d, want 100", match.Score)
	}
}

func TestRankZeroOverlapOmitted(t *testing.T) {
	r := New()

	candidates := []models.ReferenceEntity{{ID: "b1", Name: "BCA"}}
	matches := r.Rank("zzz", candidates)
	if len(matches) != 0 {
		t.Errorf("expected no matches for zero rune overlap, got %d (score %d)",
			len(matches), matches[0].Score)
	}
}

func TestRankEmptyInputs(t *testing.T) {
	r := New()

	if matches := r.Rank("", testCandidates()); matches != nil {
		t.Errorf("empty input should yield nil, got %v", matches)
	}
	if matches := r.Rank("jakarta", nil); matches != nil {
		t.Errorf("empty candidate set should yield nil, got %v", matches)
	}
	if _, ok := r.Best("", testCandidates()); ok {
		t.Error("Best on empty input should report no match")
	}
}

func TestRankDeterministic(t *testing.T) {
	r := New()
	candidates := testCandidates()

	first := r.Rank("jawa", candidates)
	for i := 0; i < 10; i++ {
		again := r.Rank("jawa", candidates)
		if len(again) != len(first) {
			t.Fatalf("run %d: %d matches, want %d", i, len(again), len(first))
		}
		for j := range again {
			if again[j] != first[j] {
				t.Fatalf("run %d: match %d = %+v, want %+v", i, j, again[j], first[j])
			}
		}
	}
}

func TestRankOrderedByScore(t *testing.T) {
	r := New()

	matches := r.Rank("jawa barat", testCandidates())
	for i := 1; i < len(matches); i++ {
		if matches[i].Score > matches[i-1].Score {
			t.Errorf("matches not in descending score order: %d before %d",
				matches[i-1].Score, matches[i].Score)
		}
	}
	if len(matches) == 0 || matches[0].ReferenceID != "p2" {
		t.Errorf("expected p2 first, got %+v", matches)
	}
}

func TestRankTokenSubsetBeatsRatio(t *testing.T) {
	r := New()

	candidates := []models.ReferenceEntity{
		{ID: "c1", Name: "Jakarta Selatan"},
		{ID: "c2", Name: "Jakarta Barat"},
	}

	// "selatan jakarta" is a token subset of c1 regardless of word order.
	match, ok := r.Best("Selatan Jakarta", candidates)
	if !ok {
		t.Fatal("expected a match")
	}
	if match.ReferenceID != "c1" {
		t.Errorf("Best = %s, want c1", match.ReferenceID)
	}
	if match.Score < 90 {
		t.Errorf("token subset score = %d, want >= 90", match.Score)
	}
}

func TestRankAbbreviationFloor(t *testing.T) {
	r := New()

	// "yogya" is a truncation of "yogyakarta"; the subsequence floor keeps
	// it above the raw edit-distance ratio.
	match, ok := r.Best("Yogya", testCandidates())
	if !ok {
		t.Fatal("expected a subsequence match for the truncation")
	}
	if match.ReferenceID != "p4" {
		t.Errorf("Best = %s, want p4", match.ReferenceID)
	}
	if match.Score < 75 {
		t.Errorf("truncation score = %d, want >= 75", match.Score)
	}
}

func TestRankBankShortCode(t *testing.T) {
	r := New()

	candidates := []models.ReferenceEntity{
		{ID: "b1", Name: "Bank Central Asia", LocalName: "BCA"},
		{ID: "b2", Name: "Bank Mandiri"},
	}

	match, ok := r.Best("bca", candidates)
	if !ok {
		t.Fatal("expected a short-code match")
	}
	if match.ReferenceID != "b1" || match.Score != 100 {
		t.Errorf("Best = %s score %d, want b1 score 100", match.ReferenceID, match.Score)
	}
}
