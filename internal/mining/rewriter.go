package mining

import (
	"sort"

	"github.com/patternlab/puf-engine/pkg/models"
)

// rewriteTransactions projects every transaction onto the frequent items and
// reorders the survivors by ascending global rank (most frequent item first).
// Transactions left with fewer than two occurrences are discarded: they
// contribute no multi-item path, and 1-item patterns are already captured by
// the ranker's summed supports.
//
// Occurrence probabilities pass through unchanged.
func rewriteTransactions(db []models.Transaction, ranking itemRanking) [][]models.ItemOccurrence {
	rewritten := make([][]models.ItemOccurrence, 0, len(db))
	for _, tx := range db {
		kept := make([]models.ItemOccurrence, 0, len(tx.Occurrences))
		for _, occ := range tx.Occurrences {
			if _, ok := ranking.rank[occ.Item]; ok {
				kept = append(kept, occ)
			}
		}
		if len(kept) < 2 {
			continue
		}
		sort.SliceStable(kept, func(i, j int) bool {
			return ranking.rank[kept[i].Item] < ranking.rank[kept[j].Item]
		})
		rewritten = append(rewritten, kept)
	}
	return rewritten
}
