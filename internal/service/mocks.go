package service

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/devbyzero/flowlens-gateway/internal/domain"
)

// MockRepoRepository is a testify mock for repository.RepoRepository.
type MockRepoRepository struct {
	mock.Mock
}

func (m *MockRepoRepository) Upsert(ctx context.Context, repo *domain.Repository) error {
	args := m.Called(ctx, repo)
	return args.Error(0)
}

func (m *MockRepoRepository) GetByGithubID(ctx context.Context, githubID int64) (*domain.Repository, error) {
	args := m.Called(ctx, githubID)
	if repo, ok := args.Get(0).(*domain.Repository); ok {
		return repo, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockRepoRepository) RefreshCounters(ctx context.Context, repoID string) error {
	args := m.Called(ctx, repoID)
	return args.Error(0)
}

// MockChangeRequestRepository is a testify mock for repository.ChangeRequestRepository.
type MockChangeRequestRepository struct {
	mock.Mock
}

func (m *MockChangeRequestRepository) Upsert(ctx context.Context, cr *domain.ChangeRequest, entry domain.HistoryEntry) error {
	args := m.Called(ctx, cr, entry)
	return args.Error(0)
}

func (m *MockChangeRequestRepository) Get(ctx context.Context, repoID string, number int) (*domain.ChangeRequest, error) {
	args := m.Called(ctx, repoID, number)
	if cr, ok := args.Get(0).(*domain.ChangeRequest); ok {
		return cr, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockChangeRequestRepository) ListRecent(ctx context.Context, limit int) ([]domain.ChangeRequest, error) {
	args := m.Called(ctx, limit)
	if list, ok := args.Get(0).([]domain.ChangeRequest); ok {
		return list, args.Error(1)
	}
	return nil, args.Error(1)
}

// MockPipelineRunRepository is a testify mock for repository.PipelineRunRepository.
type MockPipelineRunRepository struct {
	mock.Mock
}

func (m *MockPipelineRunRepository) EnsureExists(ctx context.Context, seed *domain.PipelineRun) error {
	args := m.Called(ctx, seed)
	return args.Error(0)
}

func (m *MockPipelineRunRepository) ApplyTransition(ctx context.Context, repoID string, number int, channel domain.Channel, next domain.Status, commitSHA string, entry domain.HistoryEntry) (bool, error) {
	args := m.Called(ctx, repoID, number, channel, next, commitSHA, entry)
	return args.Bool(0), args.Error(1)
}

func (m *MockPipelineRunRepository) Get(ctx context.Context, repoID string, number int) (*domain.PipelineRun, error) {
	args := m.Called(ctx, repoID, number)
	if run, ok := args.Get(0).(*domain.PipelineRun); ok {
		return run, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockPipelineRunRepository) ListRecent(ctx context.Context, limit int) ([]domain.PipelineRun, error) {
	args := m.Called(ctx, limit)
	if list, ok := args.Get(0).([]domain.PipelineRun); ok {
		return list, args.Error(1)
	}
	return nil, args.Error(1)
}

// MockDiffFetcher is a testify mock for DiffFetcher.
type MockDiffFetcher struct {
	mock.Mock
}

func (m *MockDiffFetcher) ListChangedFiles(ctx context.Context, fullName string, number int) []domain.FileChange {
	args := m.Called(ctx, fullName, number)
	if files, ok := args.Get(0).([]domain.FileChange); ok {
		return files
	}
	return nil
}

// MockDeliveryDeduper is a testify mock for DeliveryDeduper.
type MockDeliveryDeduper struct {
	mock.Mock
}

func (m *MockDeliveryDeduper) MarkDelivery(ctx context.Context, deliveryID string) (bool, error) {
	args := m.Called(ctx, deliveryID)
	return args.Bool(0), args.Error(1)
}
