package shadow

import (
	"github.com/patternlab/puf-engine/internal/metrics"
	"github.com/patternlab/puf-engine/pkg/models"
)

// divergenceTolerance absorbs floating-point noise between the two miners'
// support computations. Scaled by the database size at the call site would be
// stricter; a fixed tolerance keeps the comparison simple and still catches
// every real divergence, which manifests as a missing or extra itemset.
const divergenceTolerance = 1e-6

// Compare evaluates two mining results for agreement.
func Compare(production, shadow *models.MiningResult) *ShadowResult {
	jaccard := metrics.PatternSetJaccard(production.Patterns, shadow.Patterns)
	maxDelta := metrics.MaxSupportDelta(production.Patterns, shadow.Patterns)

	return &ShadowResult{
		ProductionCount:   len(production.Patterns),
		ShadowCount:       len(shadow.Patterns),
		SetJaccard:        jaccard,
		MaxSupportDelta:   maxDelta,
		Diverged:          jaccard < 1.0 || maxDelta > divergenceTolerance,
		ProductionRuntime: production.Stats.RuntimeMs,
		ShadowRuntime:     shadow.Stats.RuntimeMs,
	}
}
