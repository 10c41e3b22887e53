package mining

import (
	"sort"

	"github.com/RoaringBitmap/roaring/v2"

	"github.com/patternlab/puf-engine/pkg/models"
)

// Exact Verifier
//
// Cap sums are upper bounds: a candidate can clear minSup in the tree while
// its true expected support does not. The verifier makes a second pass over
// the database and computes, for every candidate X,
//
//	ES(X) = Σ_{T ⊇ X} Π_{x ∈ X} p(x in T)
//
// keeping only candidates with ES(X) >= minSup. Containment tests are
// accelerated with an inverted index from item to the bitmap of transaction
// indices containing it; intersecting the bitmaps of a candidate's items
// yields exactly the transactions that hold the whole itemset. The index
// changes nothing about the output, only how fast it is reached.

// txnIndex is the per-item inverted index plus per-transaction probability
// lookup tables built once for the verification pass.
type txnIndex struct {
	byItem map[string]*roaring.Bitmap
	probs  []map[string]float64
}

func indexTransactions(db []models.Transaction) *txnIndex {
	idx := &txnIndex{
		byItem: make(map[string]*roaring.Bitmap),
		probs:  make([]map[string]float64, len(db)),
	}
	for i, tx := range db {
		probs := make(map[string]float64, len(tx.Occurrences))
		for _, occ := range tx.Occurrences {
			probs[occ.Item] = occ.Probability
			bm, ok := idx.byItem[occ.Item]
			if !ok {
				bm = roaring.New()
				idx.byItem[occ.Item] = bm
			}
			bm.Add(uint32(i))
		}
		idx.probs[i] = probs
	}
	return idx
}

// expectedSupport computes the true expected support of a multi-item pattern.
func (idx *txnIndex) expectedSupport(items []string) float64 {
	bitmaps := make([]*roaring.Bitmap, len(items))
	for i, item := range items {
		bm, ok := idx.byItem[item]
		if !ok {
			return 0
		}
		bitmaps[i] = bm
	}

	holders := roaring.FastAnd(bitmaps...)
	support := 0.0
	it := holders.Iterator()
	for it.HasNext() {
		probs := idx.probs[it.Next()]
		product := 1.0
		for _, item := range items {
			product *= probs[item]
		}
		support += product
	}
	return support
}

// verifyCandidates runs the second database pass. Frequent singletons carry
// their ranker sums over unchanged (those are already exact); every longer
// candidate is recomputed against the database and dropped when its true
// expected support misses minSup. The returned patterns are sorted
// rank-lexicographically so output is deterministic.
func verifyCandidates(db []models.Transaction, ranking itemRanking, cands *candidateSet, minSup float64) (patterns []models.Pattern, falsePositives int) {
	patterns = make([]models.Pattern, 0, len(ranking.ordered)+cands.len())
	for _, item := range ranking.ordered {
		patterns = append(patterns, models.Pattern{
			Items:   []string{item},
			Support: ranking.support[item],
		})
	}

	idx := indexTransactions(db)
	for _, key := range cands.keys {
		items := cands.patterns[key]
		support := idx.expectedSupport(items)
		if support >= minSup {
			patterns = append(patterns, models.Pattern{Items: items, Support: support})
		} else {
			falsePositives++
		}
	}

	sortPatterns(patterns, ranking.rank)
	return patterns, falsePositives
}

// sortPatterns orders patterns rank-lexicographically: item by item on global
// rank, shorter prefixes first.
func sortPatterns(patterns []models.Pattern, rank map[string]int) {
	sort.Slice(patterns, func(i, j int) bool {
		a, b := patterns[i].Items, patterns[j].Items
		for k := 0; k < len(a) && k < len(b); k++ {
			if rank[a[k]] != rank[b[k]] {
				return rank[a[k]] < rank[b[k]]
			}
		}
		return len(a) < len(b)
	})
}
