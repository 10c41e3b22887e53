package dataset

import (
	"fmt"
	"math/rand"
	"os"
	"strconv"

	"github.com/patternlab/puf-engine/pkg/models"
)

// Synthetic uncertain database generator. Transaction lengths vary around the
// configured average and items are drawn uniformly from a fixed universe,
// each occurrence tagged with a random existential probability in (0, 1].

type GeneratorConfig struct {
	Transactions int   // number of transactions to produce
	Items        int   // size of the item universe (items are "1".."N")
	AvgLength    int   // average transaction length
	Seed         int64 // RNG seed; fixed seeds reproduce the same database
}

// Generate produces a synthetic uncertain database in memory.
func Generate(cfg GeneratorConfig) []models.Transaction {
	rng := rand.New(rand.NewSource(cfg.Seed))
	db := make([]models.Transaction, 0, cfg.Transactions)
	for i := 0; i < cfg.Transactions; i++ {
		// Lengths are uniform on 1..2*AvgLength-1, whose mean is AvgLength.
		span := 2*cfg.AvgLength - 1
		if span < 1 {
			span = 1
		}
		length := 1 + rng.Intn(span)
		picked := make(map[string]bool, length)
		var tx models.Transaction
		for j := 0; j < length; j++ {
			item := strconv.Itoa(1 + rng.Intn(cfg.Items))
			if picked[item] {
				continue
			}
			picked[item] = true
			// Two-decimal probabilities in [0.01, 1].
			prob := float64(1+rng.Intn(100)) / 100
			tx.Occurrences = append(tx.Occurrences, models.ItemOccurrence{
				Item:        item,
				Probability: prob,
			})
		}
		db = append(db, tx)
	}
	return db
}

// GenerateFile writes a synthetic database to path in the reference line
// format with the given separator.
func GenerateFile(path, sep string, cfg GeneratorConfig) error {
	if sep == "" {
		sep = "\t"
	}
	db := Generate(cfg)

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create database file: %v", err)
	}
	for _, tx := range db {
		line := ""
		for i, occ := range tx.Occurrences {
			if i > 0 {
				line += sep
			}
			line += occ.Item + "(" + strconv.FormatFloat(occ.Probability, 'g', -1, 64) + ")"
		}
		if _, err := fmt.Fprintln(f, line); err != nil {
			f.Close()
			return err
		}
	}
	return f.Close()
}
