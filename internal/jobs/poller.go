package jobs

import (
	"context"
	"log"
	"time"

	"github.com/patternlab/puf-engine/internal/api"
	"github.com/patternlab/puf-engine/internal/db"
	"github.com/patternlab/puf-engine/internal/runner"
)

// Poller drains the mining job queue. It claims the oldest queued job from
// Postgres, hands it to the runner, and pushes queue events to the websocket
// hub so dashboards see jobs start and finish in real time.
type Poller struct {
	dbStore   *db.PostgresStore
	wsHub     *api.Hub
	jobRunner *runner.Runner
	interval  time.Duration
}

// queueEvent is the real-time payload sent when the queue state changes.
type queueEvent struct {
	Type      string  `json:"type"` // "job_started"
	JobID     string  `json:"jobId"`
	DatasetID string  `json:"datasetId"`
	MinSup    float64 `json:"minSup"`
}

func NewPoller(dbStore *db.PostgresStore, wsHub *api.Hub, jobRunner *runner.Runner) *Poller {
	return &Poller{
		dbStore:   dbStore,
		wsHub:     wsHub,
		jobRunner: jobRunner,
		interval:  2 * time.Second,
	}
}

// Run polls until the context is cancelled. Jobs run one at a time; the
// single-claim loop plus SKIP LOCKED claiming keeps multiple engine instances
// from double-running a job.
func (p *Poller) Run(ctx context.Context) {
	log.Printf("[JobPoller] Watching mining job queue (interval %v)", p.interval)
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("[JobPoller] Stopped")
			return
		case <-ticker.C:
			p.drainQueue(ctx)
		}
	}
}

// drainQueue claims and runs jobs until the queue is empty.
func (p *Poller) drainQueue(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		job, err := p.dbStore.ClaimQueuedJob(ctx)
		if err != nil {
			log.Printf("[JobPoller] Claim failed: %v", err)
			return
		}
		if job == nil {
			return
		}

		p.broadcast(queueEvent{
			Type:      "job_started",
			JobID:     job.ID.String(),
			DatasetID: job.DatasetID.String(),
			MinSup:    job.MinSup,
		})
		p.jobRunner.RunJob(ctx, job)
	}
}

func (p *Poller) broadcast(event queueEvent) {
	if p.wsHub == nil {
		return
	}
	p.wsHub.BroadcastJSON(event)
}
