package metrics

import (
	"math"

	"github.com/patternlab/puf-engine/pkg/models"
)

// Pattern-set quality metrics.
//
// Used by the shadow runner to quantify agreement between two mining results
// and by operators to watch how tight the PUF cap bound is on their data. A
// healthy engine shows Jaccard 1.0 and zero support delta between the tree
// miner and the reference miner; candidate precision measures how much work
// the exact verifier has to throw away.

func patternKey(p models.Pattern) string {
	key := ""
	for i, item := range p.Items {
		if i > 0 {
			key += "\x1f"
		}
		key += item
	}
	return key
}

// PatternSetJaccard computes |A ∩ B| / |A ∪ B| over the itemsets of two
// results, ignoring supports. Two empty results count as identical.
func PatternSetJaccard(a, b []models.Pattern) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 1.0
	}

	seen := make(map[string]bool, len(a))
	for _, p := range a {
		seen[patternKey(p)] = true
	}

	intersection := 0
	union := len(seen)
	for _, p := range b {
		if seen[patternKey(p)] {
			intersection++
		} else {
			union++
		}
	}
	return float64(intersection) / float64(union)
}

// MaxSupportDelta returns the largest absolute support difference over the
// itemsets both results contain.
func MaxSupportDelta(a, b []models.Pattern) float64 {
	supports := make(map[string]float64, len(a))
	for _, p := range a {
		supports[patternKey(p)] = p.Support
	}

	maxDelta := 0.0
	for _, p := range b {
		if s, ok := supports[patternKey(p)]; ok {
			if d := math.Abs(s - p.Support); d > maxDelta {
				maxDelta = d
			}
		}
	}
	return maxDelta
}

// CandidatePrecision is the fraction of candidates that survived exact
// verification. Low precision means the cap bound is loose on this database
// and verification dominates runtime.
func CandidatePrecision(stats models.MiningStats) float64 {
	if stats.CandidateCount == 0 {
		return 1.0
	}
	return float64(stats.CandidateCount-stats.FalsePositives) / float64(stats.CandidateCount)
}

// FalsePositiveRate is the complementary fraction of candidates the exact
// verifier rejected.
func FalsePositiveRate(stats models.MiningStats) float64 {
	if stats.CandidateCount == 0 {
		return 0.0
	}
	return float64(stats.FalsePositives) / float64(stats.CandidateCount)
}
