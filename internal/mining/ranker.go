package mining

import (
	"sort"

	"github.com/patternlab/puf-engine/pkg/models"
)

// One-Pass Item Ranker
//
// First scan of the database. For every item, sums the existential
// probabilities across all transactions — the item's expected support.
// Items below minSup are dropped; survivors receive a global rank by
// descending expected support. Rank 0 is the most frequent item.
//
// Ties are broken by ascending item id, so ranking is deterministic for
// a given database regardless of map iteration order.

// itemRanking is the immutable outcome of the first database pass.
type itemRanking struct {
	support map[string]float64 // frequent item → summed probability
	rank    map[string]int     // frequent item → global rank
	ordered []string           // items in rank order
}

// rankItems performs the first database pass and computes the global ranking
// of frequent items.
func rankItems(db []models.Transaction, minSup float64) itemRanking {
	sums := make(map[string]float64)
	for _, tx := range db {
		for _, occ := range tx.Occurrences {
			sums[occ.Item] += occ.Probability
		}
	}

	support := make(map[string]float64)
	for item, s := range sums {
		if s >= minSup {
			support[item] = s
		}
	}

	ordered := make([]string, 0, len(support))
	for item := range support {
		ordered = append(ordered, item)
	}
	sort.Slice(ordered, func(i, j int) bool {
		si, sj := support[ordered[i]], support[ordered[j]]
		if si != sj {
			return si > sj
		}
		return ordered[i] < ordered[j]
	})

	rank := make(map[string]int, len(ordered))
	for pos, item := range ordered {
		rank[item] = pos
	}

	return itemRanking{support: support, rank: rank, ordered: ordered}
}
