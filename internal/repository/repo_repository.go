package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/devbyzero/flowlens-gateway/internal/domain"
)

// RepoRepository resolves external repository identities to internal keys.
type RepoRepository interface {
	// Upsert inserts or refreshes the repository keyed by its external id
	// and fills in the internal key. Resolving the same external id twice
	// always yields the same internal key.
	Upsert(ctx context.Context, repo *domain.Repository) error
	GetByGithubID(ctx context.Context, githubID int64) (*domain.Repository, error)
	// RefreshCounters recomputes the cached open/total change-request
	// counters from the change_requests table.
	RefreshCounters(ctx context.Context, repoID string) error
}

type repoRepository struct {
	pool *pgxpool.Pool
}

// NewRepoRepository instantiates repository.
func NewRepoRepository(pool *pgxpool.Pool) RepoRepository {
	return &repoRepository{pool: pool}
}

func (r *repoRepository) Upsert(ctx context.Context, repo *domain.Repository) error {
	const query = `
        INSERT INTO repositories (github_id, name, full_name, description, owner, html_url, language,
                                  is_private, default_branch, stars, forks, last_activity)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
        ON CONFLICT (github_id) DO UPDATE SET
            name=EXCLUDED.name,
            full_name=EXCLUDED.full_name,
            description=EXCLUDED.description,
            owner=EXCLUDED.owner,
            html_url=EXCLUDED.html_url,
            language=EXCLUDED.language,
            is_private=EXCLUDED.is_private,
            default_branch=EXCLUDED.default_branch,
            stars=EXCLUDED.stars,
            forks=EXCLUDED.forks,
            last_activity=COALESCE(EXCLUDED.last_activity, repositories.last_activity),
            updated_at=NOW()
        RETURNING id, open_prs, total_prs, created_at, updated_at`
	return r.pool.QueryRow(ctx, query,
		repo.GithubID,
		repo.Name,
		repo.FullName,
		repo.Description,
		repo.Owner,
		repo.HTMLURL,
		repo.Language,
		repo.IsPrivate,
		repo.DefaultBranch,
		repo.Stars,
		repo.Forks,
		repo.LastActivity,
	).Scan(&repo.ID, &repo.OpenPRs, &repo.TotalPRs, &repo.CreatedAt, &repo.UpdatedAt)
}

func (r *repoRepository) GetByGithubID(ctx context.Context, githubID int64) (*domain.Repository, error) {
	const query = `
        SELECT id, github_id, name, full_name, description, owner, html_url, language,
               is_private, default_branch, stars, forks, open_prs, total_prs,
               last_activity, created_at, updated_at
        FROM repositories WHERE github_id=$1`
	var repo domain.Repository
	if err := r.pool.QueryRow(ctx, query, githubID).Scan(
		&repo.ID,
		&repo.GithubID,
		&repo.Name,
		&repo.FullName,
		&repo.Description,
		&repo.Owner,
		&repo.HTMLURL,
		&repo.Language,
		&repo.IsPrivate,
		&repo.DefaultBranch,
		&repo.Stars,
		&repo.Forks,
		&repo.OpenPRs,
		&repo.TotalPRs,
		&repo.LastActivity,
		&repo.CreatedAt,
		&repo.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &repo, nil
}

func (r *repoRepository) RefreshCounters(ctx context.Context, repoID string) error {
	const query = `
        UPDATE repositories SET
            open_prs = (SELECT COUNT(*) FROM change_requests WHERE repo_id=$1 AND state='open'),
            total_prs = (SELECT COUNT(*) FROM change_requests WHERE repo_id=$1),
            updated_at = NOW()
        WHERE id=$1`
	_, err := r.pool.Exec(ctx, query, repoID)
	return err
}
