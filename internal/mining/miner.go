// Package mining implements frequent-itemset mining over uncertain
// transactional databases with a PUF prefix tree.
//
// Given transactions of (item, existential probability) pairs and a minSup
// threshold, Mine returns every itemset whose expected support across the
// database reaches minSup, with its exact expected support. The pipeline is
// a single ranking pass, a rewrite of each transaction onto the frequent
// items, PUF-tree construction with max-based prefixed item caps, FP-growth
// style conditional recursion, and a mandatory exact second pass that removes
// the false positives the cap bound admits.
//
// The package is single-threaded and performs no logging; all errors surface
// to the caller of Mine.
package mining

import (
	"fmt"
	"time"

	"github.com/patternlab/puf-engine/pkg/models"
)

// Mine runs the PUF-growth algorithm over db with the given expected-support
// threshold. minSup is used as-is, an absolute expected-support count; callers
// working in proportions must scale by the database size themselves.
func Mine(db []models.Transaction, minSup float64) (*models.MiningResult, error) {
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
	rewritten := rewriteTransactions(db, ranking)

	tree := newPUFTree()
	for item, s := range ranking.support {
		tree.info[item] = s
	}
	for _, tx := range rewritten {
		tree.addTransaction(tx)
	}

	candidates := newCandidateSet()
	tree.growth(nil, minSup, ranking.rank, candidates)

	patterns, falsePositives := verifyCandidates(db, ranking, candidates, minSup)

	return &models.MiningResult{
		MinSup:   minSup,
		Patterns: patterns,
		Stats: models.MiningStats{
			TransactionCount:  len(db),
			FrequentItemCount: len(ranking.ordered),
			CandidateCount:    len(ranking.ordered) + candidates.len(),
			FalsePositives:    falsePositives,
			RuntimeMs:         float64(time.Since(start).Microseconds()) / 1000.0,
		},
	}, nil
}
