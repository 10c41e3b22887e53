package metrics

import (
	"math"
	"testing"

	"github.com/patternlab/puf-engine/pkg/models"
)

func TestPatternSetJaccard_PerfectAgreement(t *testing.T) {
	a := []models.Pattern{
		{Items: []string{"a"}, Support: 1.0},
		{Items: []string{"a", "b"}, Support: 0.5},
	}
	b := []models.Pattern{
		{Items: []string{"a"}, Support: 1.0},
		{Items: []string{"a", "b"}, Support: 0.5},
	}

	jaccard := PatternSetJaccard(a, b)

	if math.Abs(jaccard-1.0) > 0.01 {
		t.Errorf("Expected Jaccard=1.0 for identical pattern sets. Got: %f", jaccard)
	}
}

func TestPatternSetJaccard_PartialOverlap(t *testing.T) {
	a := []models.Pattern{
		{Items: []string{"a"}},
		{Items: []string{"b"}},
		{Items: []string{"a", "b"}},
	}
	b := []models.Pattern{
		{Items: []string{"a"}},
		{Items: []string{"b"}},
		{Items: []string{"b", "c"}},
	}

	jaccard := PatternSetJaccard(a, b)

	// 2 shared itemsets out of 4 distinct.
	if math.Abs(jaccard-0.5) > 0.01 {
		t.Errorf("Expected Jaccard=0.5. Got: %f", jaccard)
	}
}

func TestPatternSetJaccard_BothEmpty(t *testing.T) {
	if jaccard := PatternSetJaccard(nil, nil); jaccard != 1.0 {
		t.Errorf("Expected Jaccard=1.0 for two empty results. Got: %f", jaccard)
	}
}

func TestMaxSupportDelta_SharedPatternsOnly(t *testing.T) {
	a := []models.Pattern{
		{Items: []string{"a"}, Support: 1.0},
		{Items: []string{"a", "b"}, Support: 0.5},
	}
	b := []models.Pattern{
		{Items: []string{"a"}, Support: 1.1},
		{Items: []string{"c"}, Support: 9.0}, // not shared, ignored
	}

	delta := MaxSupportDelta(a, b)

	if math.Abs(delta-0.1) > 1e-9 {
		t.Errorf("Expected max delta 0.1. Got: %f", delta)
	}
}

func TestCandidatePrecision(t *testing.T) {
	stats := models.MiningStats{CandidateCount: 10, FalsePositives: 3}

	if p := CandidatePrecision(stats); math.Abs(p-0.7) > 1e-9 {
		t.Errorf("Expected precision 0.7. Got: %f", p)
	}
	if r := FalsePositiveRate(stats); math.Abs(r-0.3) > 1e-9 {
		t.Errorf("Expected false-positive rate 0.3. Got: %f", r)
	}
}

func TestCandidatePrecision_NoCandidates(t *testing.T) {
	stats := models.MiningStats{}

	if p := CandidatePrecision(stats); p != 1.0 {
		t.Errorf("Expected precision 1.0 with no candidates. Got: %f", p)
	}
	if r := FalsePositiveRate(stats); r != 0.0 {
		t.Errorf("Expected false-positive rate 0 with no candidates. Got: %f", r)
	}
}
