// Package resolver implements fuzzy entity resolution: matching free-text
// upload values (province, city, bank, subject names) against reference
// entities using normalized string similarity.
//
// The resolver carries no rejection threshold of its own. It always returns
// its ranked candidates and leaves confidence policy to the caller, which
// knows the domain band appropriate for each field (locations and banks
// demand higher confidence than subject names).
package resolver

import (
	"sort"
	"strings"

	"github.com/agnivade/levenshtein"
	"github.com/lithammer/fuzzysearch/fuzzy"

	"tutor-import-service/internal/models"
)

// Strategy ranks candidates for a free-text input. It is a narrow seam so
// the similarity algorithm can be swapped or tuned without touching the
// validator.
type Strategy interface {
	Rank(input string, candidates []models.ReferenceEntity) []models.FieldMatch
}

// Resolver is the default Strategy: normalized exact and token-containment
// matching backed by a Levenshtein ratio, with subsequence matching as a
// floor for heavy abbreviations.
type Resolver struct{}

// New creates the default resolver.
func New() *Resolver {
	return &Resolver{}
}

const (
	// A normalized exact match on name or local name.
	scoreExact = 100
	// Base score when every token of the shorter side appears in the longer.
	scoreTokenSubset = 90
	// Floor for subsequence matches (e.g. "bdg" inside "bandung").
	scoreSubsequence = 75
)

// Rank scores every candidate against the input and returns them in
// descending order of similarity. Ties are broken by ascending edit
// distance, then by candidate name, so the same input always yields the
// same top match. Candidates with no usable similarity are omitted; an
// empty input or candidate set yields an empty result.
func (r *Resolver) Rank(input string, candidates []models.ReferenceEntity) []models.FieldMatch {
	norm := Normalize(input)
	if norm == "" || len(candidates) == 0 {
		return nil
	}

	matches := make([]models.FieldMatch, 0, len(candidates))
	for _, candidate := range candidates {
		score, distance, ok := scoreCandidate(norm, candidate)
		if !ok {
			continue
		}
		matches = append(matches, models.FieldMatch{
			ReferenceID: candidate.ID,
			MatchedName: candidate.Name,
			Score:       score,
			Distance:    distance,
		})
	}

	sort.Slice(matches, func(i, j int) bool {
		if matches[i].Score != matches[j].Score {
			return matches[i].Score > matches[j].Score
		}
		if matches[i].Distance != matches[j].Distance {
			return matches[i].Distance < matches[j].Distance
		}
		return matches[i].MatchedName < matches[j].MatchedName
	})

	return matches
}

// Best returns the top-ranked match for the input, if any.
func (r *Resolver) Best(input string, candidates []models.ReferenceEntity) (models.FieldMatch, bool) {
	matches := r.Rank(input, candidates)
	if len(matches) == 0 {
		return models.FieldMatch{}, false
	}
	return matches[0], true
}

// scoreCandidate scores the normalized input against both the candidate's
// canonical name and its local name, keeping the better of the two.
func scoreCandidate(norm string, candidate models.ReferenceEntity) (score, distance int, ok bool) {
	score, distance, ok = scoreStrings(norm, Normalize(candidate.Name))
	if candidate.LocalName != "" {
		if s, d, o := scoreStrings(norm, Normalize(candidate.LocalName)); o && (!ok || s > score || (s == score && d < distance)) {
			score, distance, ok = s, d, o
		}
	}
	return score, distance, ok
}

// scoreStrings produces a 0-100 similarity between two normalized strings.
// Zero-overlap pairs report ok=false rather than a meaningless low score.
func scoreStrings(a, b string) (score, distance int, ok bool) {
	if a == "" || b == "" {
		return 0, 0, false
	}

	distance = levenshtein.ComputeDistance(a, b)
	if a == b {
		return scoreExact, 0, true
	}

	if !sharesRunes(a, b) {
		return 0, distance, false
	}

	shorter, longer := a, b
	if len(shorter) > len(longer) {
		shorter, longer = longer, shorter
	}

	if tokenSubset(shorter, longer) {
		// Scale within [90, 99] by how much of the longer side is covered.
		bonus := (len(shorter) * 9) / len(longer)
		return scoreTokenSubset + bonus, distance, true
	}

	score = ratioScore(a, b, distance)

	// Abbreviation tolerance: an input whose characters appear in order
	// within the candidate (or vice versa) is a plausible shorthand even
	// when the raw edit distance is large.
	if len(shorter) >= 3 && fuzzy.MatchNormalizedFold(shorter, strings.ReplaceAll(longer, " ", "")) {
		if score < scoreSubsequence {
			score = scoreSubsequence
		}
	}

	if score <= 0 {
		return 0, distance, false
	}
	return score, distance, true
}

// ratioScore is the Levenshtein similarity ratio scaled to 0-100.
func ratioScore(a, b string, distance int) int {
	maxLen := len([]rune(a))
	if l := len([]rune(b)); l > maxLen {
		maxLen = l
	}
	if maxLen == 0 {
		return 0
	}
	return (100 * (maxLen - distance)) / maxLen
}
