package mining

import "sort"

// Conditional-Pattern Extraction (FP-growth style recursion)
//
// Items of a tree are mined in ascending order of their info weight — least
// promising first — so the tree shrinks as mined items are detached. For each
// item whose header cap sum clears minSup, the item extends the recursion
// prefix into a candidate, its conditional pattern base is projected onto the
// locally frequent items, and a conditional tree is built and mined with the
// extended prefix. Mined items are removed from the tree before the loop
// advances.

// candidateSet accumulates candidate itemsets with their cap sums, preserving
// first-insertion order so downstream passes are deterministic.
type candidateSet struct {
	keys     []string
	patterns map[string][]string
	caps     map[string]float64
}

// candidate keys join items with a unit separator, which cannot occur in
// whitespace-separated item tokens.
const keySep = "\x1f"

func newCandidateSet() *candidateSet {
	return &candidateSet{
		patterns: make(map[string][]string),
		caps:     make(map[string]float64),
	}
}

func (cs *candidateSet) add(items []string, capSum float64) {
	key := ""
	for i, item := range items {
		if i > 0 {
			key += keySep
		}
		key += item
	}
	if _, ok := cs.patterns[key]; !ok {
		cs.keys = append(cs.keys, key)
		cs.patterns[key] = items
	}
	cs.caps[key] = capSum
}

func (cs *candidateSet) len() int { return len(cs.keys) }

// miningOrder returns the tree's items sorted by ascending info weight,
// breaking ties by ascending global rank.
func (t *pufTree) miningOrder(rank map[string]int) []string {
	items := make([]string, len(t.headerOrder))
	copy(items, t.headerOrder)
	sort.Slice(items, func(i, j int) bool {
		wi, wj := t.info[items[i]], t.info[items[j]]
		if wi != wj {
			return wi < wj
		}
		return rank[items[i]] < rank[items[j]]
	})
	return items
}

// projectPaths aggregates per-item weights across a conditional pattern base,
// keeps items whose aggregate clears minSup, and projects each path onto the
// survivors sorted by descending aggregate weight (ascending global rank on
// ties). Each surviving path keeps its own weight.
func projectPaths(paths [][]string, weights []float64, minSup float64, rank map[string]int) (projected [][]string, projWeights []float64, info map[string]float64) {
	agg := make(map[string]float64)
	for i, path := range paths {
		for _, item := range path {
			agg[item] += weights[i]
		}
	}

	info = make(map[string]float64)
	for item, w := range agg {
		if w >= minSup {
			info[item] = w
		}
	}

	for i, path := range paths {
		kept := make([]string, 0, len(path))
		for _, item := range path {
			if _, ok := info[item]; ok {
				kept = append(kept, item)
			}
		}
		if len(kept) == 0 {
			continue
		}
		sort.SliceStable(kept, func(a, b int) bool {
			if info[kept[a]] != info[kept[b]] {
				return info[kept[a]] > info[kept[b]]
			}
			return rank[kept[a]] < rank[kept[b]]
		})
		projected = append(projected, kept)
		projWeights = append(projWeights, weights[i])
	}
	return projected, projWeights, info
}

// growth mines the tree, emitting every candidate of length >= 2 whose cap
// sum clears minSup. Singleton patterns are not emitted here; they come
// straight from the item ranker, whose sums are already exact.
func (t *pufTree) growth(prefix []string, minSup float64, rank map[string]int, out *candidateSet) {
	for _, item := range t.miningOrder(rank) {
		capSum := t.capSum(item)
		if capSum >= minSup {
			pattern := make([]string, 0, len(prefix)+1)
			pattern = append(pattern, prefix...)
			pattern = append(pattern, item)
			if len(pattern) >= 2 {
				canonical := make([]string, len(pattern))
				copy(canonical, pattern)
				sort.Slice(canonical, func(i, j int) bool {
					return rank[canonical[i]] < rank[canonical[j]]
				})
				out.add(canonical, capSum)
			}

			paths, weights := t.prefixPaths(item)
			projected, projWeights, info := projectPaths(paths, weights, minSup, rank)
			if len(projected) > 0 {
				cond := newPUFTree()
				cond.info = info
				for i := range projected {
					cond.addConditionalPath(projected[i], projWeights[i])
				}
				cond.growth(pattern, minSup, rank, out)
			}
		}
		t.removeItem(item)
	}
}
