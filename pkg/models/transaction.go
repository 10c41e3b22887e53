package models

// ItemOccurrence is a single (item, existential probability) pair inside an
// uncertain transaction. Probability is the likelihood that the item is
// actually present in the transaction and must lie in (0, 1].
type ItemOccurrence struct {
	Item        string  `json:"item"`
	Probability float64 `json:"probability"`
}

// Transaction is one record of an uncertain transactional database: a finite
// ordered sequence of item occurrences, each item appearing at most once.
type Transaction struct {
	Occurrences []ItemOccurrence `json:"occurrences"`
}

// Items returns the item identifiers of the transaction in occurrence order.
func (t Transaction) Items() []string {
	items := make([]string, len(t.Occurrences))
	for i, occ := range t.Occurrences {
		items[i] = occ.Item
	}
	return items
}

// Probability returns the existential probability of item in the transaction,
// or 0 when the item does not occur.
func (t Transaction) Probability(item string) float64 {
	for _, occ := range t.Occurrences {
		if occ.Item == item {
			return occ.Probability
		}
	}
	return 0
}

// Pattern is a mined itemset together with its expected support over the
// database. Items are ordered by descending global item frequency, so equal
// patterns always serialize identically.
type Pattern struct {
	Items   []string `json:"items"`
	Support float64  `json:"support"`
}

// MiningStats summarizes one mining run for reporting and persistence.
type MiningStats struct {
	TransactionCount  int     `json:"transactionCount"`
	FrequentItemCount int     `json:"frequentItemCount"`
	CandidateCount    int     `json:"candidateCount"`
	FalsePositives    int     `json:"falsePositives"`
	RuntimeMs         float64 `json:"runtimeMs"`
}

// MiningResult is the complete output of a mining run: every itemset whose
// true expected support meets the threshold, plus run statistics.
type MiningResult struct {
	MinSup   float64     `json:"minSup"`
	Patterns []Pattern   `json:"patterns"`
	Stats    MiningStats `json:"stats"`
}

// PatternMap flattens the result into an itemset-key → support map. Keys are
// the pattern items joined with a single space.
func (r *MiningResult) PatternMap() map[string]float64 {
	m := make(map[string]float64, len(r.Patterns))
	for _, p := range r.Patterns {
		key := ""
		for i, item := range p.Items {
			if i > 0 {
				key += " "
			}
			key += item
		}
		m[key] = p.Support
	}
	return m
}
