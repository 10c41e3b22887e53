package shadow

import (
	"testing"

	"github.com/patternlab/puf-engine/internal/mining"
	"github.com/patternlab/puf-engine/pkg/models"
)

func uncertainTx(pairs ...models.ItemOccurrence) models.Transaction {
	return models.Transaction{Occurrences: pairs}
}

func TestCompare_MinersAgree(t *testing.T) {
	db := []models.Transaction{
		uncertainTx(models.ItemOccurrence{Item: "a", Probability: 0.9}, models.ItemOccurrence{Item: "b", Probability: 0.8}),
		uncertainTx(models.ItemOccurrence{Item: "a", Probability: 0.7}, models.ItemOccurrence{Item: "b", Probability: 0.6}),
		uncertainTx(models.ItemOccurrence{Item: "b", Probability: 0.5}),
	}

	prod, err := mining.Mine(db, 0.5)
	if err != nil {
		t.Fatalf("Mine failed: %v", err)
	}
	ref, err := mining.MineReference(db, 0.5)
	if err != nil {
		t.Fatalf("MineReference failed: %v", err)
	}

	result := Compare(prod, ref)

	if result.Diverged {
		t.Errorf("Expected no divergence, got %+v", result)
	}
	if result.SetJaccard != 1.0 {
		t.Errorf("Expected Jaccard=1.0, got %f", result.SetJaccard)
	}
	if result.ProductionCount != result.ShadowCount {
		t.Errorf("Pattern counts differ: %d vs %d", result.ProductionCount, result.ShadowCount)
	}
}

func TestCompare_FlagsDivergence(t *testing.T) {
	prod := &models.MiningResult{Patterns: []models.Pattern{
		{Items: []string{"a"}, Support: 1.0},
	}}
	ref := &models.MiningResult{Patterns: []models.Pattern{
		{Items: []string{"a"}, Support: 1.0},
		{Items: []string{"a", "b"}, Support: 0.6},
	}}

	result := Compare(prod, ref)

	if !result.Diverged {
		t.Error("Expected divergence when the shadow miner finds an extra pattern")
	}
}
