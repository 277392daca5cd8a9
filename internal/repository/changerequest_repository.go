package repository

import (
	"context"
	"encoding/json"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/devbyzero/flowlens-gateway/internal/domain"
)

// ChangeRequestRepository persists canonical change-request records.
type ChangeRequestRepository interface {
	// Upsert writes the full record keyed by (repository, sequence number)
	// and appends one history entry. The creation timestamp is never
	// touched on conflict. A record already in the merged state keeps it;
	// the lifecycle state mirrors the integration channel's terminal rule.
	Upsert(ctx context.Context, cr *domain.ChangeRequest, entry domain.HistoryEntry) error
	Get(ctx context.Context, repoID string, number int) (*domain.ChangeRequest, error)
	ListRecent(ctx context.Context, limit int) ([]domain.ChangeRequest, error)
}

type changeRequestRepository struct {
	pool *pgxpool.Pool
}

// NewChangeRequestRepository instantiates repository.
func NewChangeRequestRepository(pool *pgxpool.Pool) ChangeRequestRepository {
	return &changeRequestRepository{pool: pool}
}

func (r *changeRequestRepository) Upsert(ctx context.Context, cr *domain.ChangeRequest, entry domain.HistoryEntry) error {
	entryJSON, err := json.Marshal(entry)
	if err != nil {
		return err
	}
	filesJSON, err := json.Marshal(cr.FilesChanged)
	if err != nil {
		return err
	}
	if cr.FilesChanged == nil {
		filesJSON = []byte("[]")
	}

	const query = `
        INSERT INTO change_requests (repo_id, pr_number, title, description, author, author_avatar,
                                     commit_sha, branch_name, base_branch, pr_url, additions, deletions,
                                     changed_files, labels, assignees, reviewers, is_draft, state,
                                     files_changed, history, merged_at, closed_at)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,
                $19::jsonb, jsonb_build_array($20::jsonb), $21, $22)
        ON CONFLICT (repo_id, pr_number) DO UPDATE SET
            title=EXCLUDED.title,
            description=EXCLUDED.description,
            author=EXCLUDED.author,
            author_avatar=EXCLUDED.author_avatar,
            commit_sha=EXCLUDED.commit_sha,
            branch_name=EXCLUDED.branch_name,
            base_branch=EXCLUDED.base_branch,
            pr_url=EXCLUDED.pr_url,
            additions=EXCLUDED.additions,
            deletions=EXCLUDED.deletions,
            changed_files=EXCLUDED.changed_files,
            labels=EXCLUDED.labels,
            assignees=EXCLUDED.assignees,
            reviewers=EXCLUDED.reviewers,
            is_draft=EXCLUDED.is_draft,
            state=CASE WHEN change_requests.state = 'merged'
                       THEN change_requests.state
                       ELSE EXCLUDED.state END,
            files_changed=CASE WHEN jsonb_array_length(EXCLUDED.files_changed) > 0
                               THEN EXCLUDED.files_changed
                               ELSE change_requests.files_changed END,
            history=change_requests.history || $20::jsonb,
            merged_at=COALESCE(change_requests.merged_at, EXCLUDED.merged_at),
            closed_at=COALESCE(EXCLUDED.closed_at, change_requests.closed_at),
            updated_at=NOW()
        RETURNING id, state, created_at, updated_at`
	return r.pool.QueryRow(ctx, query,
		cr.RepoID,
		cr.Number,
		cr.Title,
		cr.Description,
		cr.Author,
		cr.AuthorAvatar,
		cr.CommitSHA,
		cr.BranchName,
		cr.BaseBranch,
		cr.URL,
		cr.Additions,
		cr.Deletions,
		cr.ChangedFiles,
		cr.Labels,
		cr.Assignees,
		cr.Reviewers,
		cr.IsDraft,
		cr.State,
		filesJSON,
		entryJSON,
		cr.MergedAt,
		cr.ClosedAt,
	).Scan(&cr.ID, &cr.State, &cr.CreatedAt, &cr.UpdatedAt)
}

func (r *changeRequestRepository) Get(ctx context.Context, repoID string, number int) (*domain.ChangeRequest, error) {
	const query = changeRequestColumns + ` WHERE repo_id=$1 AND pr_number=$2`
	row := r.pool.QueryRow(ctx, query, repoID, number)
	return scanChangeRequest(row)
}

func (r *changeRequestRepository) ListRecent(ctx context.Context, limit int) ([]domain.ChangeRequest, error) {
	if limit <= 0 {
		limit = 20
	}
	const query = changeRequestColumns + ` ORDER BY updated_at DESC LIMIT $1`
	rows, err := r.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.ChangeRequest
	for rows.Next() {
		cr, err := scanChangeRequest(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *cr)
	}
	return result, rows.Err()
}

const changeRequestColumns = `
        SELECT id, repo_id, pr_number, title, description, author, author_avatar, commit_sha,
               branch_name, base_branch, pr_url, additions, deletions, changed_files,
               labels, assignees, reviewers, is_draft, state, files_changed, history,
               merged_at, closed_at, created_at, updated_at
        FROM change_requests`

func scanChangeRequest(row pgx.Row) (*domain.ChangeRequest, error) {
	var cr domain.ChangeRequest
	var filesJSON, historyJSON []byte
	if err := row.Scan(
		&cr.ID,
		&cr.RepoID,
		&cr.Number,
		&cr.Title,
		&cr.Description,
		&cr.Author,
		&cr.AuthorAvatar,
		&cr.CommitSHA,
		&cr.BranchName,
		&cr.BaseBranch,
		&cr.URL,
		&cr.Additions,
		&cr.Deletions,
		&cr.ChangedFiles,
		&cr.Labels,
		&cr.Assignees,
		&cr.Reviewers,
		&cr.IsDraft,
		&cr.State,
		&filesJSON,
		&historyJSON,
		&cr.MergedAt,
		&cr.ClosedAt,
		&cr.CreatedAt,
		&cr.UpdatedAt,
	); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(filesJSON, &cr.FilesChanged); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(historyJSON, &cr.History); err != nil {
		return nil, err
	}
	return &cr, nil
}
