package matching

import (
	"unicode/utf8"

	"github.com/zatekoja/vaccinefinder/backend/internal/domain/entities"
)

// DefaultMaxDistance is the cutoff used when none is configured
const DefaultMaxDistance = 3

// Outcome classifies a lookup
type Outcome string

const (
	// OutcomeMatched means a candidate was found within the cutoff
	OutcomeMatched Outcome = "matched"

	// OutcomeNoCandidates means there was nothing to compare against
	OutcomeNoCandidates Outcome = "no_candidates"

	// OutcomeBeyondCutoff means candidates existed but none was close enough
	OutcomeBeyondCutoff Outcome = "beyond_cutoff"
)

// MatchResult is the result of a single best-match lookup
type MatchResult struct {
	Site     *entities.VaccineSite
	Key      string
	Distance int
	Outcome  Outcome
}

// Found reports whether a site was matched
func (r MatchResult) Found() bool {
	return r.Outcome == OutcomeMatched && r.Site != nil
}

// Matcher selects the closest candidate to a query by edit distance.
type Matcher struct {
	normalizer  *Normalizer
	maxDistance int
}

// NewMatcher creates a matcher. A negative maxDistance disables the cutoff,
// including the rewrite check in BestMatch.
func NewMatcher(normalizer *Normalizer, maxDistance int) *Matcher {
	return &Matcher{normalizer: normalizer, maxDistance: maxDistance}
}

// Normalizer returns the normalizer used for queries
func (m *Matcher) Normalizer() *Normalizer {
	return m.normalizer
}

// MaxDistance returns the configured cutoff
func (m *Matcher) MaxDistance() int {
	return m.maxDistance
}

// BestMatch normalizes query and returns the candidate with the smallest distance
// to it. Ties go to the candidate that comes first in candidates; snapshots pass
// entries sorted by key, so that is the lexicographically smallest key.
//
// With the cutoff enabled, a best candidate whose distance reaches the rune
// length of the shorter of query and key is also beyond the cutoff: every
// character of that key would have to change, so it is not a near spelling.
//
// Cost is O(len(candidates) * len(query) * avg key length).
func (m *Matcher) BestMatch(query string, candidates []Entry) MatchResult {
	if len(candidates) == 0 {
		return MatchResult{Distance: -1, Outcome: OutcomeNoCandidates}
	}

	q := m.normalizer.Normalize(query)
	best := -1
	bestDistance := 0
	for i := range candidates {
		d := Distance(q, candidates[i].Key)
		if best == -1 || d < bestDistance {
			best, bestDistance = i, d
			if d == 0 {
				break
			}
		}
	}

	if m.maxDistance >= 0 && (bestDistance > m.maxDistance || isRewrite(q, candidates[best].Key, bestDistance)) {
		return MatchResult{Key: candidates[best].Key, Distance: bestDistance, Outcome: OutcomeBeyondCutoff}
	}

	site := candidates[best].Site
	return MatchResult{
		Site:     &site,
		Key:      candidates[best].Key,
		Distance: bestDistance,
		Outcome:  OutcomeMatched,
	}
}

func isRewrite(query, key string, distance int) bool {
	if distance == 0 {
		return false
	}
	shorter := utf8.RuneCountInString(query)
	if n := utf8.RuneCountInString(key); n < shorter {
		shorter = n
	}
	return distance >= shorter
}

// Lookup matches query against a snapshot
func (m *Matcher) Lookup(query string, snapshot *Snapshot) MatchResult {
	if snapshot == nil {
		return MatchResult{Distance: -1, Outcome: OutcomeNoCandidates}
	}
	return m.BestMatch(query, snapshot.entries)
}
