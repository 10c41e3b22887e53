package dataset

import (
	"bytes"
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/patternlab/puf-engine/internal/mining"
	"github.com/patternlab/puf-engine/pkg/models"
)

func TestParseTransaction_ReferenceFormat(t *testing.T) {
	tx, err := ParseTransaction("a(0.9)\tb(0.1)\tlong_item(1)", "\t")
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if len(tx.Occurrences) != 3 {
		t.Fatalf("Expected 3 occurrences, got %d", len(tx.Occurrences))
	}
	if tx.Occurrences[0].Item != "a" || math.Abs(tx.Occurrences[0].Probability-0.9) > 1e-12 {
		t.Errorf("Unexpected first occurrence: %v", tx.Occurrences[0])
	}
	if tx.Occurrences[2].Item != "long_item" || tx.Occurrences[2].Probability != 1 {
		t.Errorf("Unexpected third occurrence: %v", tx.Occurrences[2])
	}
}

func TestParseTransaction_Malformed(t *testing.T) {
	cases := []string{
		"a",          // no probability
		"(0.5)",      // no item
		"a(0.5",      // unterminated
		"a(zebra)",   // non-numeric
		"a(0.5)\ta(0.3)", // duplicate item
	}
	for _, line := range cases {
		if _, err := ParseTransaction(line, "\t"); !errors.Is(err, mining.ErrMalformedRecord) {
			t.Errorf("Line %q: expected ErrMalformedRecord, got %v", line, err)
		}
	}
}

func TestParseTransaction_ProbabilityRange(t *testing.T) {
	for _, line := range []string{"a(0)", "a(1.2)", "a(-0.4)"} {
		if _, err := ParseTransaction(line, "\t"); !errors.Is(err, mining.ErrProbabilityOutOfRange) {
			t.Errorf("Line %q: expected ErrProbabilityOutOfRange, got %v", line, err)
		}
	}
}

func TestReadTransactions_SkipsBlankLines(t *testing.T) {
	input := "a(0.5)\tb(0.5)\n\n  \nb(0.9)\n"
	db, err := ReadTransactions(strings.NewReader(input), "\t")
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if len(db) != 2 {
		t.Fatalf("Expected 2 transactions, got %d", len(db))
	}
}

func TestReadTransactions_ReportsLineNumber(t *testing.T) {
	input := "a(0.5)\nb(broken\n"
	_, err := ReadTransactions(strings.NewReader(input), "\t")
	if err == nil || !strings.Contains(err.Error(), "line 2") {
		t.Errorf("Expected error naming line 2, got %v", err)
	}
}

func TestWritePatterns_ReferenceFormat(t *testing.T) {
	var buf bytes.Buffer
	err := WritePatterns(&buf, []models.Pattern{
		{Items: []string{"a"}, Support: 1.8},
		{Items: []string{"a", "b"}, Support: 0.5},
	})
	if err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	want := "a : 1.8\na b : 0.5\n"
	if buf.String() != want {
		t.Errorf("Expected %q, got %q", want, buf.String())
	}
}

func TestGenerate_RespectsConfigAndContract(t *testing.T) {
	cfg := GeneratorConfig{Transactions: 50, Items: 20, AvgLength: 5, Seed: 42}
	db := Generate(cfg)

	if len(db) != 50 {
		t.Fatalf("Expected 50 transactions, got %d", len(db))
	}
	for i, tx := range db {
		seen := make(map[string]bool)
		for _, occ := range tx.Occurrences {
			if occ.Probability <= 0 || occ.Probability > 1 {
				t.Fatalf("Transaction %d: probability %v outside (0,1]", i, occ.Probability)
			}
			if seen[occ.Item] {
				t.Fatalf("Transaction %d: duplicate item %q", i, occ.Item)
			}
			seen[occ.Item] = true
		}
	}
}

func TestGenerate_SeedReproducible(t *testing.T) {
	cfg := GeneratorConfig{Transactions: 10, Items: 8, AvgLength: 4, Seed: 7}
	first := Generate(cfg)
	second := Generate(cfg)

	if len(first) != len(second) {
		t.Fatal("Same seed produced different database sizes")
	}
	for i := range first {
		if len(first[i].Occurrences) != len(second[i].Occurrences) {
			t.Fatalf("Transaction %d differs between runs", i)
		}
		for j := range first[i].Occurrences {
			if first[i].Occurrences[j] != second[i].Occurrences[j] {
				t.Fatalf("Transaction %d occurrence %d differs between runs", i, j)
			}
		}
	}
}
