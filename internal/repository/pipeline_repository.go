package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/devbyzero/flowlens-gateway/internal/domain"
)

// PipelineRunRepository persists per-change-request pipeline state.
type PipelineRunRepository interface {
	// EnsureExists creates the run row with default pending statuses if it
	// is absent, so later pipeline events always have a target row.
	EnsureExists(ctx context.Context, seed *domain.PipelineRun) error
	// ApplyTransition writes a single channel value and appends its history
	// entry in one guarded statement. It returns false when the guards
	// suppressed the write: value unchanged, integration already terminal,
	// or a stale build start after a completed conclusion. Concurrent
	// deliveries for the same key serialize on the row; exactly one of two
	// identical candidates wins.
	ApplyTransition(ctx context.Context, repoID string, number int, channel domain.Channel, next domain.Status, commitSHA string, entry domain.HistoryEntry) (bool, error)
	Get(ctx context.Context, repoID string, number int) (*domain.PipelineRun, error)
	ListRecent(ctx context.Context, limit int) ([]domain.PipelineRun, error)
}

type pipelineRunRepository struct {
	pool *pgxpool.Pool
}

// NewPipelineRunRepository instantiates repository.
func NewPipelineRunRepository(pool *pgxpool.Pool) PipelineRunRepository {
	return &pipelineRunRepository{pool: pool}
}

// channelColumns is the closed mapping from channel to status column; the
// column name is interpolated into SQL and must never come from input.
var channelColumns = map[domain.Channel]string{
	domain.ChannelSubmission:  "status_pr",
	domain.ChannelBuild:       "status_build",
	domain.ChannelApproval:    "status_approval",
	domain.ChannelIntegration: "status_merge",
}

func (r *pipelineRunRepository) EnsureExists(ctx context.Context, seed *domain.PipelineRun) error {
	const query = `
        INSERT INTO pipeline_runs (repo_id, pr_number, commit_sha, author, avatar_url, title)
        VALUES ($1,$2,$3,$4,$5,$6)
        ON CONFLICT (repo_id, pr_number) DO NOTHING`
	_, err := r.pool.Exec(ctx, query,
		seed.RepoID,
		seed.Number,
		seed.CommitSHA,
		seed.Author,
		seed.AvatarURL,
		seed.Title,
	)
	return err
}

func (r *pipelineRunRepository) ApplyTransition(ctx context.Context, repoID string, number int, channel domain.Channel, next domain.Status, commitSHA string, entry domain.HistoryEntry) (bool, error) {
	column, ok := channelColumns[channel]
	if !ok {
		return false, fmt.Errorf("unknown pipeline channel %q", channel)
	}
	entryJSON, err := json.Marshal(entry)
	if err != nil {
		return false, err
	}

	conditions := []string{
		"repo_id = $1",
		"pr_number = $2",
		column + " IS DISTINCT FROM $3",
	}
	switch channel {
	case domain.ChannelIntegration:
		conditions = append(conditions, "status_merge NOT IN ('merged','closed')")
	case domain.ChannelBuild:
		if next == domain.StatusBuilding {
			conditions = append(conditions, "status_build NOT IN ('buildPassed','buildFailed')")
		}
	}

	query := fmt.Sprintf(`
        UPDATE pipeline_runs SET
            %s = $3,
            history = history || $4::jsonb,
            commit_sha = COALESCE(NULLIF($5,''), commit_sha),
            updated_at = NOW()
        WHERE %s`, column, strings.Join(conditions, " AND "))

	cmd, err := r.pool.Exec(ctx, query, repoID, number, next, entryJSON, commitSHA)
	if err != nil {
		return false, err
	}
	return cmd.RowsAffected() > 0, nil
}

func (r *pipelineRunRepository) Get(ctx context.Context, repoID string, number int) (*domain.PipelineRun, error) {
	const query = pipelineRunColumns + ` WHERE repo_id=$1 AND pr_number=$2`
	row := r.pool.QueryRow(ctx, query, repoID, number)
	return scanPipelineRun(row)
}

func (r *pipelineRunRepository) ListRecent(ctx context.Context, limit int) ([]domain.PipelineRun, error) {
	if limit <= 0 {
		limit = 20
	}
	const query = pipelineRunColumns + ` ORDER BY updated_at DESC LIMIT $1`
	rows, err := r.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.PipelineRun
	for rows.Next() {
		run, err := scanPipelineRun(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *run)
	}
	return result, rows.Err()
}

const pipelineRunColumns = `
        SELECT id, repo_id, pr_number, commit_sha, author, avatar_url, title,
               status_pr, status_build, status_approval, status_merge, history,
               created_at, updated_at
        FROM pipeline_runs`

func scanPipelineRun(row pgx.Row) (*domain.PipelineRun, error) {
	var run domain.PipelineRun
	var historyJSON []byte
	if err := row.Scan(
		&run.ID,
		&run.RepoID,
		&run.Number,
		&run.CommitSHA,
		&run.Author,
		&run.AvatarURL,
		&run.Title,
		&run.Submission,
		&run.Build,
		&run.Approval,
		&run.Integration,
		&historyJSON,
		&run.CreatedAt,
		&run.UpdatedAt,
	); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(historyJSON, &run.History); err != nil {
		return nil, err
	}
	return &run, nil
}
