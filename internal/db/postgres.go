package db

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/patternlab/puf-engine/pkg/models"
)

type PostgresStore struct {
	pool *pgxpool.Pool
}

// schema holds the DDL executed by InitSchema. Embedded so a deployed binary
// has no filesystem dependency.
const schema = `
CREATE TABLE IF NOT EXISTS datasets (
	id          UUID PRIMARY KEY,
	name        TEXT NOT NULL,
	txn_count   INT NOT NULL,
	created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS dataset_transactions (
	dataset_id  UUID NOT NULL REFERENCES datasets(id) ON DELETE CASCADE,
	seq         INT NOT NULL,
	occurrences JSONB NOT NULL,
	PRIMARY KEY (dataset_id, seq)
);

CREATE TABLE IF NOT EXISTS mining_jobs (
	id           UUID PRIMARY KEY,
	dataset_id   UUID NOT NULL REFERENCES datasets(id) ON DELETE CASCADE,
	min_sup      DOUBLE PRECISION NOT NULL,
	status       TEXT NOT NULL DEFAULT 'queued',
	error        TEXT,
	created_at   TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	started_at   TIMESTAMPTZ,
	finished_at  TIMESTAMPTZ
);

CREATE INDEX IF NOT EXISTS mining_jobs_status_idx ON mining_jobs (status, created_at);

CREATE TABLE IF NOT EXISTS patterns (
	job_id   UUID NOT NULL REFERENCES mining_jobs(id) ON DELETE CASCADE,
	seq      INT NOT NULL,
	items    TEXT[] NOT NULL,
	support  DOUBLE PRECISION NOT NULL,
	PRIMARY KEY (job_id, seq)
);

CREATE TABLE IF NOT EXISTS shadow_results (
	id                 BIGSERIAL PRIMARY KEY,
	dataset_id         UUID NOT NULL,
	min_sup            DOUBLE PRECISION NOT NULL,
	production_count   INT NOT NULL,
	shadow_count       INT NOT NULL,
	set_jaccard        DOUBLE PRECISION NOT NULL,
	max_support_delta  DOUBLE PRECISION NOT NULL,
	diverged           BOOLEAN NOT NULL,
	created_at         TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
`

// Connect initializes the connection pool to PostgreSQL using pgx
func Connect(connStr string) (*PostgresStore, error) {
	pool, err := pgxpool.New(context.Background(), connStr)
	if err != nil {
		return nil, fmt.Errorf("unable to connect to database: %v", err)
	}

	if err := pool.Ping(context.Background()); err != nil {
		return nil, fmt.Errorf("ping failed: %v", err)
	}

	log.Println("Successfully connected to PostgreSQL for PUF Mining Engine")
	return &PostgresStore{pool: pool}, nil
}

// Close gracefully closes the connection pool
func (s *PostgresStore) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// InitSchema executes the embedded schema migrations
func (s *PostgresStore) InitSchema() error {
	_, err := s.pool.Exec(context.Background(), schema)
	if err != nil {
		return fmt.Errorf("failed to execute schema migrations: %v", err)
	}

	log.Println("PUF Mining Engine schema initialized")
	return nil
}

// SaveDataset persists an uncertain database and returns its id.
func (s *PostgresStore) SaveDataset(ctx context.Context, name string, txs []models.Transaction) (uuid.UUID, error) {
	id := uuid.New()

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return uuid.Nil, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	_, err = tx.Exec(ctx,
		`INSERT INTO datasets (id, name, txn_count) VALUES ($1, $2, $3)`,
		id, name, len(txs))
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to insert dataset: %v", err)
	}

	for seq, t := range txs {
		occJSON, err := json.Marshal(t.Occurrences)
		if err != nil {
			return uuid.Nil, fmt.Errorf("failed to encode transaction %d: %v", seq, err)
		}
		_, err = tx.Exec(ctx,
			`INSERT INTO dataset_transactions (dataset_id, seq, occurrences) VALUES ($1, $2, $3)`,
			id, seq, occJSON)
		if err != nil {
			return uuid.Nil, fmt.Errorf("failed to insert transaction %d: %v", seq, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return uuid.Nil, err
	}
	return id, nil
}

// LoadDataset reads a stored uncertain database back in insertion order.
func (s *PostgresStore) LoadDataset(ctx context.Context, id uuid.UUID) ([]models.Transaction, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT occurrences FROM dataset_transactions WHERE dataset_id = $1 ORDER BY seq`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var txs []models.Transaction
	for rows.Next() {
		var occJSON []byte
		if err := rows.Scan(&occJSON); err != nil {
			return nil, err
		}
		var occs []models.ItemOccurrence
		if err := json.Unmarshal(occJSON, &occs); err != nil {
			return nil, fmt.Errorf("failed to decode stored transaction: %v", err)
		}
		txs = append(txs, models.Transaction{Occurrences: occs})
	}
	return txs, rows.Err()
}

// MiningJob is one queued or finished mining run over a stored dataset.
type MiningJob struct {
	ID         uuid.UUID  `json:"id"`
	DatasetID  uuid.UUID  `json:"datasetId"`
	MinSup     float64    `json:"minSup"`
	Status     string     `json:"status"` // "queued"/"running"/"done"/"failed"
	Error      string     `json:"error,omitempty"`
	CreatedAt  time.Time  `json:"createdAt"`
	StartedAt  *time.Time `json:"startedAt,omitempty"`
	FinishedAt *time.Time `json:"finishedAt,omitempty"`
}

// EnqueueJob inserts a queued mining job and returns its id.
func (s *PostgresStore) EnqueueJob(ctx context.Context, datasetID uuid.UUID, minSup float64) (uuid.UUID, error) {
	id := uuid.New()
	_, err := s.pool.Exec(ctx,
		`INSERT INTO mining_jobs (id, dataset_id, min_sup) VALUES ($1, $2, $3)`,
		id, datasetID, minSup)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to enqueue job: %v", err)
	}
	return id, nil
}

// ClaimQueuedJob atomically marks the oldest queued job as running and
// returns it. Returns nil when the queue is empty.
func (s *PostgresStore) ClaimQueuedJob(ctx context.Context) (*MiningJob, error) {
	row := s.pool.QueryRow(ctx, `
		UPDATE mining_jobs SET status = 'running', started_at = NOW()
		WHERE id = (
			SELECT id FROM mining_jobs
			WHERE status = 'queued'
			ORDER BY created_at
			FOR UPDATE SKIP LOCKED
			LIMIT 1
		)
		RETURNING id, dataset_id, min_sup, status, created_at, started_at
	`)

	var job MiningJob
	err := row.Scan(&job.ID, &job.DatasetID, &job.MinSup, &job.Status, &job.CreatedAt, &job.StartedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &job, nil
}

// GetJob returns one job by id, or nil when unknown.
func (s *PostgresStore) GetJob(ctx context.Context, id uuid.UUID) (*MiningJob, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT id, dataset_id, min_sup, status, COALESCE(error, ''), created_at, started_at, finished_at
		FROM mining_jobs WHERE id = $1
	`, id)

	var job MiningJob
	err := row.Scan(&job.ID, &job.DatasetID, &job.MinSup, &job.Status, &job.Error,
		&job.CreatedAt, &job.StartedAt, &job.FinishedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &job, nil
}

// SaveMiningResult persists the final patterns of a finished job and marks it
// done in the same transaction, so a crash never leaves partial output.
func (s *PostgresStore) SaveMiningResult(ctx context.Context, jobID uuid.UUID, result *models.MiningResult) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	for seq, p := range result.Patterns {
		_, err = tx.Exec(ctx,
			`INSERT INTO patterns (job_id, seq, items, support) VALUES ($1, $2, $3, $4)`,
			jobID, seq, p.Items, p.Support)
		if err != nil {
			return fmt.Errorf("failed to insert pattern: %v", err)
		}
	}

	_, err = tx.Exec(ctx,
		`UPDATE mining_jobs SET status = 'done', finished_at = NOW() WHERE id = $1`, jobID)
	if err != nil {
		return fmt.Errorf("failed to finish job: %v", err)
	}

	return tx.Commit(ctx)
}

// FailJob records a job failure.
func (s *PostgresStore) FailJob(ctx context.Context, jobID uuid.UUID, cause error) error {
	_, err := s.pool.Exec(ctx,
		`UPDATE mining_jobs SET status = 'failed', error = $2, finished_at = NOW() WHERE id = $1`,
		jobID, cause.Error())
	return err
}

// GetPatterns returns one page of a job's mined patterns in stored order,
// plus the total count.
func (s *PostgresStore) GetPatterns(ctx context.Context, jobID uuid.UUID, page, limit int) ([]models.Pattern, int, error) {
	if limit <= 0 || limit > 500 {
		limit = 50
	}
	if page < 1 {
		page = 1
	}
	offset := (page - 1) * limit

	var totalCount int
	err := s.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM patterns WHERE job_id = $1`, jobID).Scan(&totalCount)
	if err != nil {
		return nil, 0, err
	}

	rows, err := s.pool.Query(ctx, `
		SELECT items, support FROM patterns
		WHERE job_id = $1
		ORDER BY seq
		LIMIT $2 OFFSET $3
	`, jobID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	patterns := []models.Pattern{}
	for rows.Next() {
		var p models.Pattern
		if err := rows.Scan(&p.Items, &p.Support); err != nil {
			return nil, 0, err
		}
		patterns = append(patterns, p)
	}
	return patterns, totalCount, rows.Err()
}

// GetPool exposes the connection pool for the shadow runner and other subsystems
func (s *PostgresStore) GetPool() *pgxpool.Pool {
	return s.pool
}
