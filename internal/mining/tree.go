package mining

import (
	"github.com/patternlab/puf-engine/pkg/models"
)

// PUF-Tree (Probabilistic/Possible Uncertain Frequent tree)
//
// A prefix tree over rank-ordered transactions. Each node accumulates a
// "prefixed item cap": for the k-th occurrence of a transaction the cap term
// is the occurrence's own probability at depth 0, and
//
//	max(p0..p_{k-1}) * p_k
//
// for k >= 1 — the maximum probability among strict ancestors on the path
// times the node's own probability. The sum of these terms over every
// transaction routed through a node is an upper bound on the contribution of
// any itemset of length >= 2 whose deepest element is the node's item, so a
// header-list cap sum never under-counts true expected support. False
// positives are removed by a second exact pass.
//
// Reference:
//   - Leung & Tanbeer, "PUF-Tree: A Compact Tree Structure for Frequent
//     Pattern Mining of Uncertain Data" (PAKDD 2013)

// pufNode is a single tree node. The parent pointer is a non-owning back
// reference used only to reconstruct prefix paths; children own their nodes.
type pufNode struct {
	item     string
	cap      float64
	parent   *pufNode
	children map[string]*pufNode
}

func (n *pufNode) addChild(child *pufNode) {
	n.children[child.item] = child
	child.parent = n
}

// pufTree is a PUF prefix tree with its header table. headers keeps every
// node of an item in insertion order; headerOrder remembers first-insertion
// order of items so iteration is deterministic. info carries the per-item
// weight sums used to order the mining recursion.
type pufTree struct {
	root        *pufNode
	headers     map[string][]*pufNode
	headerOrder []string
	info        map[string]float64
}

func newPUFTree() *pufTree {
	return &pufTree{
		root:    &pufNode{children: make(map[string]*pufNode)},
		headers: make(map[string][]*pufNode),
		info:    make(map[string]float64),
	}
}

func (t *pufTree) appendHeader(item string, n *pufNode) {
	if _, ok := t.headers[item]; !ok {
		t.headerOrder = append(t.headerOrder, item)
	}
	t.headers[item] = append(t.headers[item], n)
}

// addTransaction inserts one rewritten transaction, accumulating the prefixed
// item cap of each position into the visited (or created) nodes.
func (t *pufTree) addTransaction(tx []models.ItemOccurrence) {
	cur := t.root
	maxPrefix := 0.0
	for i, occ := range tx {
		capTerm := occ.Probability
		if i > 0 {
			capTerm = maxPrefix * occ.Probability
		}
		if child, ok := cur.children[occ.Item]; ok {
			child.cap += capTerm
			cur = child
		} else {
			child := &pufNode{
				item:     occ.Item,
				cap:      capTerm,
				children: make(map[string]*pufNode),
			}
			cur.addChild(child)
			t.appendHeader(occ.Item, child)
			cur = child
		}
		if occ.Probability > maxPrefix {
			maxPrefix = occ.Probability
		}
	}
}

// addConditionalPath inserts a projected prefix path into a conditional tree.
// The path's weight is added to every visited node: cap semantics are fixed
// at main-tree construction, so no max reweighting happens here.
func (t *pufTree) addConditionalPath(path []string, weight float64) {
	cur := t.root
	for _, item := range path {
		if child, ok := cur.children[item]; ok {
			child.cap += weight
			cur = child
		} else {
			child := &pufNode{
				item:     item,
				cap:      weight,
				children: make(map[string]*pufNode),
			}
			cur.addChild(child)
			t.appendHeader(item, child)
			cur = child
		}
	}
}

// capSum returns the summed cap over all nodes carrying item.
func (t *pufTree) capSum(item string) float64 {
	s := 0.0
	for _, n := range t.headers[item] {
		s += n.cap
	}
	return s
}

// prefixPaths materializes the conditional pattern base of item: for every
// node carrying the item, the ancestor path from just below the root down to
// the node's parent, weighted by the node's cap. Nodes hanging directly off
// the root contribute no path.
func (t *pufTree) prefixPaths(item string) (paths [][]string, weights []float64) {
	for _, n := range t.headers[item] {
		var reversed []string
		for p := n.parent; p != nil && p.parent != nil; p = p.parent {
			reversed = append(reversed, p.item)
		}
		if len(reversed) == 0 {
			continue
		}
		path := make([]string, len(reversed))
		for i, it := range reversed {
			path[len(reversed)-1-i] = it
		}
		paths = append(paths, path)
		weights = append(weights, n.cap)
	}
	return paths, weights
}

// removeItem detaches every node carrying item from its parent's children
// map. Header lists of other items are unaffected: their nodes stay reachable
// through their own parent chains, which sit above the removed nodes.
func (t *pufTree) removeItem(item string) {
	for _, n := range t.headers[item] {
		delete(n.parent.children, item)
	}
}
