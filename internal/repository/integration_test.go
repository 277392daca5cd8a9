//go:build integration

package repository

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go/modules/postgres"

	"github.com/devbyzero/flowlens-gateway/internal/domain"
)

func setupPool(t *testing.T) *pgxpool.Pool {
	t.Helper()
	ctx := context.Background()

	container, err := postgres.Run(ctx, "postgres:17.7",
		postgres.WithDatabase("flowlens_test"),
		postgres.WithUsername("flowlens"),
		postgres.WithPassword("flowlens"),
		postgres.BasicWaitStrategies(),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	pool, err := pgxpool.New(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	migration, err := os.ReadFile(filepath.Join("..", "..", "migrations", "000001_init.sql"))
	require.NoError(t, err)
	_, err = pool.Exec(ctx, string(migration))
	require.NoError(t, err)

	return pool
}

func seedRepo(t *testing.T, repos RepoRepository, githubID int64) *domain.Repository {
	t.Helper()
	repo := &domain.Repository{
		GithubID: githubID,
		Name:     "widgets",
		FullName: "acme/widgets",
		Owner:    "acme",
	}
	require.NoError(t, repos.Upsert(context.Background(), repo))
	require.NotEmpty(t, repo.ID)
	return repo
}

func TestRepoRepository_UpsertIsStableAcrossDeliveries(t *testing.T) {
	pool := setupPool(t)
	repos := NewRepoRepository(pool)
	ctx := context.Background()

	first := seedRepo(t, repos, 9001)

	second := &domain.Repository{GithubID: 9001, Name: "widgets", FullName: "acme/widgets", Owner: "acme", Stars: 7}
	require.NoError(t, repos.Upsert(ctx, second))

	assert.Equal(t, first.ID, second.ID)

	stored, err := repos.GetByGithubID(ctx, 9001)
	require.NoError(t, err)
	assert.Equal(t, 7, stored.Stars)
}

func TestChangeRequestRepository_UpsertAppendsHistory(t *testing.T) {
	pool := setupPool(t)
	repos := NewRepoRepository(pool)
	crs := NewChangeRequestRepository(pool)
	ctx := context.Background()

	repo := seedRepo(t, repos, 9001)

	cr := &domain.ChangeRequest{
		RepoID: repo.ID,
		Number: 42,
		Title:  "Add cache",
		Author: "octocat",
		State:  domain.ChangeRequestOpen,
		Labels: []string{"feature"},
	}
	entry := domain.HistoryEntry{State: "open", At: time.Now().UTC()}
	require.NoError(t, crs.Upsert(ctx, cr, entry))
	firstID := cr.ID

	cr.Title = "Add cache layer"
	require.NoError(t, crs.Upsert(ctx, cr, entry))
	assert.Equal(t, firstID, cr.ID)

	stored, err := crs.Get(ctx, repo.ID, 42)
	require.NoError(t, err)
	assert.Equal(t, "Add cache layer", stored.Title)
	assert.Len(t, stored.History, 2)
}

func TestChangeRequestRepository_MergedStateIsSticky(t *testing.T) {
	pool := setupPool(t)
	repos := NewRepoRepository(pool)
	crs := NewChangeRequestRepository(pool)
	ctx := context.Background()

	repo := seedRepo(t, repos, 9001)
	mergedAt := time.Now().UTC().Truncate(time.Second)
	entry := domain.HistoryEntry{State: "merged", At: mergedAt}

	cr := &domain.ChangeRequest{RepoID: repo.ID, Number: 42, State: domain.ChangeRequestMerged, MergedAt: &mergedAt}
	require.NoError(t, crs.Upsert(ctx, cr, entry))

	// a late closed event with merged=false must not demote the record
	late := &domain.ChangeRequest{RepoID: repo.ID, Number: 42, State: domain.ChangeRequestClosed}
	require.NoError(t, crs.Upsert(ctx, late, domain.HistoryEntry{State: "closed", At: time.Now().UTC()}))
	assert.Equal(t, domain.ChangeRequestMerged, late.State)

	stored, err := crs.Get(ctx, repo.ID, 42)
	require.NoError(t, err)
	assert.Equal(t, domain.ChangeRequestMerged, stored.State)
	require.NotNil(t, stored.MergedAt)
}

func TestPipelineRunRepository_GuardedTransitions(t *testing.T) {
	pool := setupPool(t)
	repos := NewRepoRepository(pool)
	runs := NewPipelineRunRepository(pool)
	ctx := context.Background()

	repo := seedRepo(t, repos, 9001)
	require.NoError(t, runs.EnsureExists(ctx, &domain.PipelineRun{RepoID: repo.ID, Number: 42, CommitSHA: "abc"}))

	entry := func(channel domain.Channel, value domain.Status) domain.HistoryEntry {
		return domain.HistoryEntry{Field: string(channel), Value: string(value), At: time.Now().UTC()}
	}

	applied, err := runs.ApplyTransition(ctx, repo.ID, 42, domain.ChannelSubmission, domain.StatusOpened, "abc", entry(domain.ChannelSubmission, domain.StatusOpened))
	require.NoError(t, err)
	assert.True(t, applied)

	// same value again is a no-op
	applied, err = runs.ApplyTransition(ctx, repo.ID, 42, domain.ChannelSubmission, domain.StatusOpened, "abc", entry(domain.ChannelSubmission, domain.StatusOpened))
	require.NoError(t, err)
	assert.False(t, applied)

	// build conclusion blocks a stale building start
	applied, err = runs.ApplyTransition(ctx, repo.ID, 42, domain.ChannelBuild, domain.StatusBuildPassed, "abc", entry(domain.ChannelBuild, domain.StatusBuildPassed))
	require.NoError(t, err)
	assert.True(t, applied)
	applied, err = runs.ApplyTransition(ctx, repo.ID, 42, domain.ChannelBuild, domain.StatusBuilding, "abc", entry(domain.ChannelBuild, domain.StatusBuilding))
	require.NoError(t, err)
	assert.False(t, applied)

	// integration terminal state rejects any later value
	applied, err = runs.ApplyTransition(ctx, repo.ID, 42, domain.ChannelIntegration, domain.StatusMerged, "abc", entry(domain.ChannelIntegration, domain.StatusMerged))
	require.NoError(t, err)
	assert.True(t, applied)
	applied, err = runs.ApplyTransition(ctx, repo.ID, 42, domain.ChannelIntegration, domain.StatusClosed, "abc", entry(domain.ChannelIntegration, domain.StatusClosed))
	require.NoError(t, err)
	assert.False(t, applied)

	run, err := runs.Get(ctx, repo.ID, 42)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusOpened, run.Submission)
	assert.Equal(t, domain.StatusBuildPassed, run.Build)
	assert.Equal(t, domain.StatusMerged, run.Integration)
	// one history entry per applied transition, none for suppressed ones
	assert.Len(t, run.History, 3)
}

func TestPipelineRunRepository_ConcurrentIdenticalTransitions(t *testing.T) {
	pool := setupPool(t)
	repos := NewRepoRepository(pool)
	runs := NewPipelineRunRepository(pool)
	ctx := context.Background()

	repo := seedRepo(t, repos, 9001)
	require.NoError(t, runs.EnsureExists(ctx, &domain.PipelineRun{RepoID: repo.ID, Number: 42}))

	const workers = 8
	var wg sync.WaitGroup
	appliedCount := make(chan bool, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			applied, err := runs.ApplyTransition(ctx, repo.ID, 42,
				domain.ChannelSubmission, domain.StatusOpened, "abc",
				domain.HistoryEntry{Field: "submission", Value: "opened", At: time.Now().UTC()})
			assert.NoError(t, err)
			appliedCount <- applied
		}()
	}
	wg.Wait()
	close(appliedCount)

	wins := 0
	for applied := range appliedCount {
		if applied {
			wins++
		}
	}
	assert.Equal(t, 1, wins, "exactly one concurrent identical transition may win")

	run, err := runs.Get(ctx, repo.ID, 42)
	require.NoError(t, err)
	assert.Len(t, run.History, 1)
}

func TestPipelineRunRepository_ConcurrentDifferentChannels(t *testing.T) {
	pool := setupPool(t)
	repos := NewRepoRepository(pool)
	runs := NewPipelineRunRepository(pool)
	ctx := context.Background()

	repo := seedRepo(t, repos, 9001)
	require.NoError(t, runs.EnsureExists(ctx, &domain.PipelineRun{RepoID: repo.ID, Number: 42}))

	transitions := []struct {
		channel domain.Channel
		value   domain.Status
	}{
		{domain.ChannelSubmission, domain.StatusOpened},
		{domain.ChannelBuild, domain.StatusBuilding},
		{domain.ChannelApproval, domain.StatusApproved},
	}

	var wg sync.WaitGroup
	for _, tr := range transitions {
		wg.Add(1)
		go func(channel domain.Channel, value domain.Status) {
			defer wg.Done()
			applied, err := runs.ApplyTransition(ctx, repo.ID, 42, channel, value, "abc",
				domain.HistoryEntry{Field: string(channel), Value: string(value), At: time.Now().UTC()})
			assert.NoError(t, err)
			assert.True(t, applied)
		}(tr.channel, tr.value)
	}
	wg.Wait()

	run, err := runs.Get(ctx, repo.ID, 42)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusOpened, run.Submission)
	assert.Equal(t, domain.StatusBuilding, run.Build)
	assert.Equal(t, domain.StatusApproved, run.Approval)
	assert.Len(t, run.History, 3)
}

func TestRepoRepository_RefreshCounters(t *testing.T) {
	pool := setupPool(t)
	repos := NewRepoRepository(pool)
	crs := NewChangeRequestRepository(pool)
	ctx := context.Background()

	repo := seedRepo(t, repos, 9001)
	entry := domain.HistoryEntry{State: "open", At: time.Now().UTC()}

	require.NoError(t, crs.Upsert(ctx, &domain.ChangeRequest{RepoID: repo.ID, Number: 1, State: domain.ChangeRequestOpen}, entry))
	require.NoError(t, crs.Upsert(ctx, &domain.ChangeRequest{RepoID: repo.ID, Number: 2, State: domain.ChangeRequestOpen}, entry))
	require.NoError(t, crs.Upsert(ctx, &domain.ChangeRequest{RepoID: repo.ID, Number: 3, State: domain.ChangeRequestMerged}, entry))

	require.NoError(t, repos.RefreshCounters(ctx, repo.ID))

	stored, err := repos.GetByGithubID(ctx, 9001)
	require.NoError(t, err)
	assert.Equal(t, 2, stored.OpenPRs)
	assert.Equal(t, 3, stored.TotalPRs)
}
