package shadow

import (
	"context"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/patternlab/puf-engine/internal/mining"
	"github.com/patternlab/puf-engine/pkg/models"
)

// ShadowRunner executes the reference miner after the production tree miner
// against the same dataset. The tree miner must reproduce the
// reference output exactly; any divergence observed here is a correctness
// defect, recorded for the observation window before the offending build is
// promoted.
type ShadowRunner struct {
	pool           *pgxpool.Pool
	productionFunc func(db []models.Transaction, minSup float64) (*models.MiningResult, error)
	shadowFunc     func(db []models.Transaction, minSup float64) (*models.MiningResult, error)
}

// ShadowResult captures the diff between the production and shadow miners.
type ShadowResult struct {
	DatasetID         string    `json:"datasetId"`
	MinSup            float64   `json:"minSup"`
	ProductionCount   int       `json:"productionCount"`
	ShadowCount       int       `json:"shadowCount"`
	SetJaccard        float64   `json:"setJaccard"`
	MaxSupportDelta   float64   `json:"maxSupportDelta"`
	Diverged          bool      `json:"diverged"`
	ProductionRuntime float64   `json:"productionRuntimeMs"`
	ShadowRuntime     float64   `json:"shadowRuntimeMs"`
	CreatedAt         time.Time `json:"createdAt"`
}

// NewShadowRunner creates a runner that compares the tree miner against the
// exhaustive reference miner.
func NewShadowRunner(pool *pgxpool.Pool) *ShadowRunner {
	return &ShadowRunner{
		pool:           pool,
		productionFunc: mining.Mine,
		shadowFunc:     mining.MineReference,
	}
}

// RunShadowAnalysis executes both miners on a dataset and persists the
// comparison to the shadow_results table.
func (sr *ShadowRunner) RunShadowAnalysis(ctx context.Context, datasetID uuid.UUID, transactions []models.Transaction, minSup float64) (*ShadowResult, error) {
	prod, err := sr.productionFunc(transactions, minSup)
	if err != nil {
		return nil, err
	}

	shdw, err := sr.shadowFunc(transactions, minSup)
	if err != nil {
		return nil, err
	}

	result := Compare(prod, shdw)
	result.DatasetID = datasetID.String()
	result.MinSup = minSup
	result.CreatedAt = time.Now()

	if result.Diverged {
		log.Printf("[Shadow] DIVERGENCE on dataset %s (minSup %v): jaccard=%.4f maxDelta=%g",
			datasetID, minSup, result.SetJaccard, result.MaxSupportDelta)
	}

	if sr.pool != nil {
		_, err = sr.pool.Exec(ctx, `
			INSERT INTO shadow_results
			(dataset_id, min_sup, production_count, shadow_count, set_jaccard, max_support_delta, diverged)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
		`, datasetID, minSup, result.ProductionCount, result.ShadowCount,
			result.SetJaccard, result.MaxSupportDelta, result.Diverged)
		if err != nil {
			return nil, err
		}
	}

	return result, nil
}
