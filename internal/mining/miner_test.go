package mining

import (
	"errors"
	"math"
	"reflect"
	"testing"

	"github.com/patternlab/puf-engine/pkg/models"
)

func tx(pairs ...models.ItemOccurrence) models.Transaction {
	return models.Transaction{Occurrences: pairs}
}

func occ(item string, p float64) models.ItemOccurrence {
	return models.ItemOccurrence{Item: item, Probability: p}
}

func assertPatterns(t *testing.T, result *models.MiningResult, want map[string]float64) {
	t.Helper()
	got := result.PatternMap()
	if len(got) != len(want) {
		t.Fatalf("Expected %d patterns, got %d: %v", len(want), len(got), got)
	}
	for key, support := range want {
		actual, ok := got[key]
		if !ok {
			t.Errorf("Expected pattern %q missing from output %v", key, got)
			continue
		}
		if math.Abs(actual-support) > 1e-9 {
			t.Errorf("Pattern %q: expected support %v, got %v", key, support, actual)
		}
	}
}

func TestMine_TrivialSingletons(t *testing.T) {
	// Only length-1 transactions: singletons must still come out of the
	// ranking pass even though the tree never sees them.
	db := []models.Transaction{
		tx(occ("a", 0.6)),
		tx(occ("a", 0.4)),
		tx(occ("b", 0.9)),
	}

	result, err := Mine(db, 0.8)
	if err != nil {
		t.Fatalf("Mine failed: %v", err)
	}
	assertPatterns(t, result, map[string]float64{"a": 1.0, "b": 0.9})
}

func TestMine_PairAtThreshold(t *testing.T) {
	db := []models.Transaction{
		tx(occ("a", 0.5), occ("b", 0.5)),
		tx(occ("a", 0.5), occ("b", 0.5)),
	}

	result, err := Mine(db, 0.5)
	if err != nil {
		t.Fatalf("Mine failed: %v", err)
	}
	assertPatterns(t, result, map[string]float64{"a": 1.0, "b": 1.0, "a b": 0.5})
}

func TestMine_VerifierRejectsCapFalsePositive(t *testing.T) {
	// The pair (a,b) has cap sum 0.9*0.1 + 0.9*0.1 = 0.18 and true expected
	// support 0.18, both below minSup. Item b itself sums to 0.2 and is
	// dropped before the tree is even built.
	db := []models.Transaction{
		tx(occ("a", 0.9), occ("b", 0.1)),
		tx(occ("a", 0.9), occ("b", 0.1)),
	}

	result, err := Mine(db, 0.5)
	if err != nil {
		t.Fatalf("Mine failed: %v", err)
	}
	assertPatterns(t, result, map[string]float64{"a": 1.8})
}

func TestMine_ThreeItemPattern(t *testing.T) {
	db := make([]models.Transaction, 5)
	for i := range db {
		db[i] = tx(occ("a", 1), occ("b", 1), occ("c", 1))
	}

	result, err := Mine(db, 4)
	if err != nil {
		t.Fatalf("Mine failed: %v", err)
	}
	assertPatterns(t, result, map[string]float64{
		"a": 5, "b": 5, "c": 5,
		"a b": 5, "a c": 5, "b c": 5,
		"a b c": 5,
	})
}

func TestMine_Deterministic(t *testing.T) {
	db := []models.Transaction{
		tx(occ("a", 0.5), occ("b", 0.5)),
		tx(occ("a", 0.5), occ("b", 0.5)),
	}

	first, err := Mine(db, 0.5)
	if err != nil {
		t.Fatalf("Mine failed: %v", err)
	}
	second, err := Mine(db, 0.5)
	if err != nil {
		t.Fatalf("Mine failed: %v", err)
	}

	if !reflect.DeepEqual(first.Patterns, second.Patterns) {
		t.Errorf("Identical inputs produced different outputs:\n%v\n%v",
			first.Patterns, second.Patterns)
	}
}

func TestMine_EmptyResult(t *testing.T) {
	db := []models.Transaction{
		tx(occ("a", 0.6)),
		tx(occ("a", 0.4)),
		tx(occ("b", 0.9)),
	}

	result, err := Mine(db, 2.0)
	if err != nil {
		t.Fatalf("Mine failed: %v", err)
	}
	if len(result.Patterns) != 0 {
		t.Errorf("Expected no patterns, got %v", result.Patterns)
	}
}

func TestMine_EmptyDatabase(t *testing.T) {
	_, err := Mine(nil, 0.5)
	if !errors.Is(err, ErrEmptyDatabase) {
		t.Errorf("Expected ErrEmptyDatabase, got %v", err)
	}
}

func TestMine_InvalidThreshold(t *testing.T) {
	db := []models.Transaction{tx(occ("a", 0.5))}
	for _, minSup := range []float64{0, -1} {
		_, err := Mine(db, minSup)
		if !errors.Is(err, ErrInvalidThreshold) {
			t.Errorf("minSup=%v: expected ErrInvalidThreshold, got %v", minSup, err)
		}
	}
}

func TestMine_ProbabilityOutOfRange(t *testing.T) {
	for _, p := range []float64{0, -0.2, 1.5} {
		db := []models.Transaction{tx(occ("a", p), occ("b", 0.5))}
		_, err := Mine(db, 0.1)
		if !errors.Is(err, ErrProbabilityOutOfRange) {
			t.Errorf("p=%v: expected ErrProbabilityOutOfRange, got %v", p, err)
		}
	}
}

// mixedDB is a small database with uneven probabilities, shared prefixes and
// an infrequent item, exercising cap accumulation and conditional recursion.
func mixedDB() []models.Transaction {
	return []models.Transaction{
		tx(occ("a", 0.9), occ("b", 0.8), occ("c", 0.7)),
		tx(occ("a", 0.8), occ("b", 0.6)),
		tx(occ("b", 0.9), occ("c", 0.9), occ("d", 0.1)),
		tx(occ("a", 0.7), occ("c", 0.6)),
		tx(occ("a", 0.5), occ("b", 0.4), occ("c", 0.3)),
	}
}

func TestMine_MatchesReferenceMiner(t *testing.T) {
	db := mixedDB()
	for _, minSup := range []float64{0.2, 0.5, 1.0, 1.5} {
		got, err := Mine(db, minSup)
		if err != nil {
			t.Fatalf("minSup=%v: Mine failed: %v", minSup, err)
		}
		want, err := MineReference(db, minSup)
		if err != nil {
			t.Fatalf("minSup=%v: MineReference failed: %v", minSup, err)
		}

		gotMap := got.PatternMap()
		wantMap := want.PatternMap()
		if len(gotMap) != len(wantMap) {
			t.Fatalf("minSup=%v: tree miner found %d patterns, reference found %d\ntree: %v\nref:  %v",
				minSup, len(gotMap), len(wantMap), gotMap, wantMap)
		}
		for key, support := range wantMap {
			actual, ok := gotMap[key]
			if !ok {
				t.Errorf("minSup=%v: pattern %q missing from tree miner output", minSup, key)
				continue
			}
			if math.Abs(actual-support) > 1e-9*float64(len(db)) {
				t.Errorf("minSup=%v: pattern %q support %v, reference %v", minSup, key, actual, support)
			}
		}
	}
}

func TestMine_OutputsMeetThreshold(t *testing.T) {
	result, err := Mine(mixedDB(), 0.5)
	if err != nil {
		t.Fatalf("Mine failed: %v", err)
	}
	for _, p := range result.Patterns {
		if p.Support < 0.5 {
			t.Errorf("Pattern %v emitted below minSup: %v", p.Items, p.Support)
		}
		if len(p.Items) == 0 {
			t.Error("Emitted an empty itemset")
		}
		seen := make(map[string]bool)
		for _, item := range p.Items {
			if seen[item] {
				t.Errorf("Pattern %v contains duplicate item %q", p.Items, item)
			}
			seen[item] = true
		}
	}
}

func TestMine_LowerThresholdYieldsSuperset(t *testing.T) {
	loose, err := Mine(mixedDB(), 0.2)
	if err != nil {
		t.Fatalf("Mine failed: %v", err)
	}
	tight, err := Mine(mixedDB(), 0.8)
	if err != nil {
		t.Fatalf("Mine failed: %v", err)
	}

	looseMap := loose.PatternMap()
	for key, support := range tight.PatternMap() {
		actual, ok := looseMap[key]
		if !ok {
			t.Errorf("Pattern %q found at minSup=0.8 but not at minSup=0.2", key)
			continue
		}
		if math.Abs(actual-support) > 1e-9 {
			t.Errorf("Pattern %q support differs across thresholds: %v vs %v", key, actual, support)
		}
	}
}

func TestMine_SingletonsMatchRanker(t *testing.T) {
	db := mixedDB()
	result, err := Mine(db, 0.5)
	if err != nil {
		t.Fatalf("Mine failed: %v", err)
	}

	ranking := rankItems(db, 0.5)
	var singles []string
	for _, p := range result.Patterns {
		if len(p.Items) == 1 {
			singles = append(singles, p.Items[0])
		}
	}
	if len(singles) != len(ranking.ordered) {
		t.Fatalf("Expected %d singletons %v, got %v", len(ranking.ordered), ranking.ordered, singles)
	}
	for i, item := range ranking.ordered {
		if singles[i] != item {
			t.Errorf("Singleton %d: expected %q, got %q", i, item, singles[i])
		}
	}
}

func TestMine_StatsCounters(t *testing.T) {
	result, err := Mine(mixedDB(), 0.5)
	if err != nil {
		t.Fatalf("Mine failed: %v", err)
	}
	stats := result.Stats
	if stats.TransactionCount != 5 {
		t.Errorf("Expected 5 transactions, got %d", stats.TransactionCount)
	}
	if stats.FrequentItemCount == 0 {
		t.Error("Expected nonzero frequent item count")
	}
	if stats.CandidateCount < len(result.Patterns) {
		t.Errorf("Candidate count %d below pattern count %d", stats.CandidateCount, len(result.Patterns))
	}
	if stats.CandidateCount-stats.FalsePositives != len(result.Patterns) {
		t.Errorf("Candidates (%d) - false positives (%d) should equal patterns (%d)",
			stats.CandidateCount, stats.FalsePositives, len(result.Patterns))
	}
}
