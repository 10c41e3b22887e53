package mining

import (
	"fmt"
	"time"

	"github.com/patternlab/puf-engine/pkg/models"
)

// Reference miner
//
// A levelwise (Apriori-style) enumeration that computes the exact expected
// support of every candidate directly from the database. Expected support is
// anti-monotone — extending an itemset can only shrink it — so extending only
// frequent itemsets is exhaustive. Far slower than the tree miner, but it has
// no approximation step at all, which makes it the ground truth the shadow
// runner and the tests compare against.

// MineReference mines db exhaustively and returns the same result mapping
// Mine produces. Output must be identical pattern-for-pattern; any divergence
// is a defect in the tree miner.
func MineReference(db []models.Transaction, minSup float64) (*models.MiningResult, error) {
	start := time.Now()

	if minSup <= 0 {
		return nil, fmt.Errorf("%w: got %v", ErrInvalidThreshold, minSup)
	}
	if len(db) == 0 {
		return nil, ErrEmptyDatabase
	}
	for i, tx := range db {
		for _, occ := range tx.Occurrences {
			if occ.Probability <= 0 || occ.Probability > 1 {
				return nil, fmt.Errorf("%w: item %q in transaction %d has p=%v",
					ErrProbabilityOutOfRange, occ.Item, i, occ.Probability)
			}
		}
	}

	ranking := rankItems(db, minSup)
	idx := indexTransactions(db)

	patterns := make([]models.Pattern, 0, len(ranking.ordered))
	for _, item := range ranking.ordered {
		patterns = append(patterns, models.Pattern{
			Items:   []string{item},
			Support: ranking.support[item],
		})
	}

	// Seed the levelwise frontier with singletons in rank order.
	frontier := make([][]string, 0, len(ranking.ordered))
	for _, item := range ranking.ordered {
		frontier = append(frontier, []string{item})
	}

	for len(frontier) > 0 {
		var next [][]string
		for _, itemset := range frontier {
			lastRank := ranking.rank[itemset[len(itemset)-1]]
			for _, item := range ranking.ordered[lastRank+1:] {
				extended := make([]string, len(itemset)+1)
				copy(extended, itemset)
				extended[len(itemset)] = item

				support := idx.expectedSupport(extended)
				if support >= minSup {
					patterns = append(patterns, models.Pattern{Items: extended, Support: support})
					next = append(next, extended)
				}
			}
		}
		frontier = next
	}

	sortPatterns(patterns, ranking.rank)

	return &models.MiningResult{
		MinSup:   minSup,
		Patterns: patterns,
		Stats: models.MiningStats{
			TransactionCount:  len(db),
			FrequentItemCount: len(ranking.ordered),
			CandidateCount:    len(patterns),
			RuntimeMs:         float64(time.Since(start).Microseconds()) / 1000.0,
		},
	}, nil
}
