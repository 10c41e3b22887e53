package runner

import (
	"context"
	"log"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/patternlab/puf-engine/internal/db"
	"github.com/patternlab/puf-engine/internal/mining"
)

// Runner executes mining jobs against stored datasets and persists their
// results, keeping progress counters the API can read while a job runs.
type Runner struct {
	dbStore   *db.PostgresStore
	alertFunc func(alert MiningAlert) // Optional broadcast callback

	// Progress tracking (atomic for safe concurrent reads)
	isRunning     atomic.Bool
	currentJob    atomic.Value // uuid.UUID
	jobsCompleted atomic.Int64
	jobsFailed    atomic.Int64
	patternsFound atomic.Int64
}

// MiningAlert is the real-time notification emitted when a job finishes.
type MiningAlert struct {
	JobID          string  `json:"jobId"`
	DatasetID      string  `json:"datasetId"`
	MinSup         float64 `json:"minSup"`
	PatternCount   int     `json:"patternCount"`
	FrequentItems  int     `json:"frequentItems"`
	FalsePositives int     `json:"falsePositives"`
	RuntimeMs      float64 `json:"runtimeMs"`
	Timestamp      string  `json:"timestamp"`
}

// Progress is the runner's current state for the API.
type Progress struct {
	IsRunning     bool   `json:"isRunning"`
	CurrentJobID  string `json:"currentJobId,omitempty"`
	JobsCompleted int64  `json:"jobsCompleted"`
	JobsFailed    int64  `json:"jobsFailed"`
	PatternsFound int64  `json:"patternsFound"`
}

func New(dbStore *db.PostgresStore, alertFunc func(MiningAlert)) *Runner {
	return &Runner{
		dbStore:   dbStore,
		alertFunc: alertFunc,
	}
}

// GetProgress returns the current state (thread-safe).
func (r *Runner) GetProgress() Progress {
	p := Progress{
		IsRunning:     r.isRunning.Load(),
		JobsCompleted: r.jobsCompleted.Load(),
		JobsFailed:    r.jobsFailed.Load(),
		PatternsFound: r.patternsFound.Load(),
	}
	if p.IsRunning {
		if id, ok := r.currentJob.Load().(uuid.UUID); ok {
			p.CurrentJobID = id.String()
		}
	}
	return p
}

// RunJob executes one claimed job synchronously: load the dataset, mine it,
// persist the result. The job row always ends in 'done' or 'failed'.
func (r *Runner) RunJob(ctx context.Context, job *db.MiningJob) {
	r.isRunning.Store(true)
	r.currentJob.Store(job.ID)
	defer r.isRunning.Store(false)

	log.Printf("[Runner] Starting job %s (dataset %s, minSup %v)", job.ID, job.DatasetID, job.MinSup)

	transactions, err := r.dbStore.LoadDataset(ctx, job.DatasetID)
	if err != nil {
		r.fail(ctx, job, err)
		return
	}

	result, err := mining.Mine(transactions, job.MinSup)
	if err != nil {
		r.fail(ctx, job, err)
		return
	}

	if err := r.dbStore.SaveMiningResult(ctx, job.ID, result); err != nil {
		r.fail(ctx, job, err)
		return
	}

	r.jobsCompleted.Add(1)
	r.patternsFound.Add(int64(len(result.Patterns)))
	log.Printf("[Runner] Job %s complete: %d patterns from %d transactions (%d false positives removed)",
		job.ID, len(result.Patterns), result.Stats.TransactionCount, result.Stats.FalsePositives)

	if r.alertFunc != nil {
		r.alertFunc(MiningAlert{
			JobID:          job.ID.String(),
			DatasetID:      job.DatasetID.String(),
			MinSup:         job.MinSup,
			PatternCount:   len(result.Patterns),
			FrequentItems:  result.Stats.FrequentItemCount,
			FalsePositives: result.Stats.FalsePositives,
			RuntimeMs:      result.Stats.RuntimeMs,
			Timestamp:      time.Now().Format(time.RFC3339),
		})
	}
}

func (r *Runner) fail(ctx context.Context, job *db.MiningJob, cause error) {
	r.jobsFailed.Add(1)
	log.Printf("[Runner] Job %s failed: %v", job.ID, cause)
	if err := r.dbStore.FailJob(ctx, job.ID, cause); err != nil {
		log.Printf("[Runner] Could not record failure for job %s: %v", job.ID, err)
	}
}
