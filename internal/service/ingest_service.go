package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/devbyzero/flowlens-gateway/internal/domain"
	"github.com/devbyzero/flowlens-gateway/internal/events"
	"github.com/devbyzero/flowlens-gateway/internal/repository"
	"github.com/devbyzero/flowlens-gateway/internal/webhook"
	"github.com/devbyzero/flowlens-gateway/pkg/errorutil"
)

// DiffFetcher enriches change requests with file-level diff data.
// Implementations are best-effort and must never fail the caller.
type DiffFetcher interface {
	ListChangedFiles(ctx context.Context, fullName string, number int) []domain.FileChange
}

// DeliveryDeduper tracks seen delivery identifiers. MarkDelivery returns
// false when the identifier was already recorded.
type DeliveryDeduper interface {
	MarkDelivery(ctx context.Context, deliveryID string) (bool, error)
}

// IngestService turns authenticated webhook deliveries into durable
// change-request and pipeline state.
type IngestService struct {
	repos          repository.RepoRepository
	changeRequests repository.ChangeRequestRepository
	pipelines      repository.PipelineRunRepository
	diffs          DiffFetcher
	dedup          DeliveryDeduper
	dispatcher     events.Dispatcher
	logger         *zap.Logger
}

// IngestDependencies bundles collaborators for the ingest service.
type IngestDependencies struct {
	RepoRepo          repository.RepoRepository
	ChangeRequestRepo repository.ChangeRequestRepository
	PipelineRepo      repository.PipelineRunRepository
	Diffs             DiffFetcher
	Dedup             DeliveryDeduper
	Dispatcher        events.Dispatcher
	Logger            *zap.Logger
}

// IngestResult summarizes the outcome of one processed delivery.
type IngestResult struct {
	EventType  string
	Action     string
	Repository string
	Handled    bool
	Changed    bool
	Duplicate  bool
}

// NewIngestService constructs the service.
func NewIngestService(deps IngestDependencies) *IngestService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &IngestService{
		repos:          deps.RepoRepo,
		changeRequests: deps.ChangeRequestRepo,
		pipelines:      deps.PipelineRepo,
		diffs:          deps.Diffs,
		dedup:          deps.Dedup,
		dispatcher:     deps.Dispatcher,
		logger:         logger,
	}
}

// ProcessEvent parses, resolves, classifies, and applies one delivery. The
// body must already be authenticated by the signature verifier.
func (s *IngestService) ProcessEvent(ctx context.Context, eventType, deliveryID string, body []byte) (*IngestResult, error) {
	env, err := webhook.Parse(body)
	if err != nil {
		return nil, errorutil.NewValidationError("malformed event payload", nil)
	}
	if env.Repository == nil || env.Repository.ID == 0 {
		return nil, errorutil.NewValidationError("missing repository descriptor", nil)
	}

	result := &IngestResult{
		EventType:  eventType,
		Action:     env.Action,
		Repository: env.Repository.FullName,
	}

	if s.dedup != nil && deliveryID != "" {
		fresh, err := s.dedup.MarkDelivery(ctx, deliveryID)
		if err != nil {
			// dedup is advisory; a broken dedup store must not reject events
			s.logger.Warn("delivery dedup unavailable", zap.Error(err))
		} else if !fresh {
			s.logger.Info("duplicate delivery skipped",
				zap.String("delivery_id", deliveryID),
				zap.String("event_type", eventType))
			result.Duplicate = true
			return result, nil
		}
	}

	repo := repositoryFromPayload(env.Repository)
	if err := s.repos.Upsert(ctx, repo); err != nil {
		return nil, err
	}

	route := webhook.Classify(eventType, env.Action)
	var changed bool
	switch route {
	case webhook.RouteChangeRequestOpened, webhook.RouteChangeRequestUpdated, webhook.RouteChangeRequestClosed:
		changed, err = s.handleChangeRequest(ctx, repo, env, route)
	case webhook.RouteReviewSubmitted:
		changed, err = s.handleReview(ctx, repo, env)
	case webhook.RouteBuildStarted:
		changed, err = s.handleBuild(ctx, repo, env, domain.StatusBuilding)
	case webhook.RouteBuildCompleted:
		changed, err = s.handleBuild(ctx, repo, env, buildConclusion(env))
	default:
		s.logger.Debug("unhandled event",
			zap.String("event_type", eventType),
			zap.String("action", env.Action))
		return result, nil
	}
	if err != nil {
		return nil, err
	}

	result.Handled = true
	result.Changed = changed
	return result, nil
}

// handleChangeRequest is the record manager: it derives the lifecycle
// state, enriches the file list, upserts the canonical record with one
// history entry, guarantees a pipeline row, and drives the submission or
// integration channel.
func (s *IngestService) handleChangeRequest(ctx context.Context, repo *domain.Repository, env *webhook.Envelope, route webhook.Route) (bool, error) {
	pr := env.PullRequest
	if pr == nil || pr.Number == 0 {
		return false, errorutil.NewValidationError("missing pull_request payload", nil)
	}

	state := domain.ChangeRequestOpen
	if route == webhook.RouteChangeRequestClosed {
		if pr.Merged {
			state = domain.ChangeRequestMerged
		} else {
			state = domain.ChangeRequestClosed
		}
	}

	// best-effort enrichment; an empty result never aborts the upsert
	files := []domain.FileChange{}
	if s.diffs != nil {
		files = s.diffs.ListChangedFiles(ctx, repo.FullName, pr.Number)
	}

	cr := changeRequestFromPayload(repo.ID, pr, state, files)
	entry := domain.HistoryEntry{
		State: string(state),
		At:    time.Now().UTC(),
		Meta:  map[string]any{"action": env.Action},
	}
	if err := s.changeRequests.Upsert(ctx, cr, entry); err != nil {
		return false, err
	}

	if err := s.pipelines.EnsureExists(ctx, pipelineSeed(repo.ID, pr)); err != nil {
		return false, err
	}

	if err := s.repos.RefreshCounters(ctx, repo.ID); err != nil {
		// cached counters are advisory; the record itself is durable
		s.logger.Warn("counter refresh failed", zap.String("repository", repo.FullName), zap.Error(err))
	}

	s.publish(ctx, events.Event{
		Type:       events.EventChangeRequestUpserted,
		Repository: repo.FullName,
		Number:     pr.Number,
		Payload: events.ChangeRequestUpsertedPayload{
			State:  cr.State,
			Action: env.Action,
			Title:  cr.Title,
			Draft:  cr.IsDraft,
		},
	})

	channel := domain.ChannelSubmission
	var next domain.Status
	switch route {
	case webhook.RouteChangeRequestOpened:
		next = domain.StatusOpened
	case webhook.RouteChangeRequestUpdated:
		next = domain.StatusUpdated
	case webhook.RouteChangeRequestClosed:
		channel = domain.ChannelIntegration
		if pr.Merged {
			next = domain.StatusMerged
		} else {
			next = domain.StatusClosed
		}
	}
	return s.transition(ctx, repo, pr.Number, channel, next, pr.Head.SHA, env.Action)
}

func (s *IngestService) handleReview(ctx context.Context, repo *domain.Repository, env *webhook.Envelope) (bool, error) {
	number := env.ChangeRequestNumber()
	if env.Review == nil || number == 0 {
		return false, errorutil.NewValidationError("missing review payload", nil)
	}

	var next domain.Status
	switch env.Review.State {
	case "approved":
		next = domain.StatusApproved
	case "changes_requested":
		next = domain.StatusChangesRequested
	default:
		// commented / dismissed reviews carry no approval signal
		return false, nil
	}

	if err := s.ensureRun(ctx, repo, env); err != nil {
		return false, err
	}
	return s.transition(ctx, repo, number, domain.ChannelApproval, next, env.Review.CommitID, env.Action)
}

func (s *IngestService) handleBuild(ctx context.Context, repo *domain.Repository, env *webhook.Envelope, next domain.Status) (bool, error) {
	check := env.Check()
	number := env.ChangeRequestNumber()
	if check == nil || number == 0 {
		// builds on branches without a tracked change request are ignored
		s.logger.Debug("build event without change request", zap.String("repository", repo.FullName))
		return false, nil
	}

	if err := s.ensureRun(ctx, repo, env); err != nil {
		return false, err
	}
	return s.transition(ctx, repo, number, domain.ChannelBuild, next, check.HeadSHA, env.Action)
}

// transition applies one guarded channel update and publishes a
// notification when a change actually occurred. Guard rejections and
// duplicate values are successful no-change outcomes.
func (s *IngestService) transition(ctx context.Context, repo *domain.Repository, number int, channel domain.Channel, next domain.Status, commitSHA, action string) (bool, error) {
	entry := domain.HistoryEntry{
		Field: string(channel),
		Value: string(next),
		At:    time.Now().UTC(),
		Meta:  map[string]any{"action": action},
	}
	if commitSHA != "" {
		entry.Meta["commit_sha"] = commitSHA
	}

	applied, err := s.pipelines.ApplyTransition(ctx, repo.ID, number, channel, next, commitSHA, entry)
	if err != nil {
		return false, err
	}
	if !applied {
		s.logger.Debug("transition suppressed",
			zap.String("repository", repo.FullName),
			zap.Int("number", number),
			zap.String("channel", string(channel)),
			zap.String("value", string(next)),
			zap.String("reason", s.suppressionReason(ctx, repo.ID, number, channel, next)))
		return false, nil
	}

	s.publish(ctx, events.Event{
		Type:       events.EventPipelineTransitioned,
		Repository: repo.FullName,
		Number:     number,
		Payload: events.PipelineTransitionedPayload{
			Channel:   channel,
			Status:    next,
			CommitSHA: commitSHA,
			Action:    action,
		},
	})
	return true, nil
}

// suppressionReason re-reads the run and replays the channel guards to name
// why the store refused a write. Diagnostic only; a failed read degrades the
// log line, never the outcome.
func (s *IngestService) suppressionReason(ctx context.Context, repoID string, number int, channel domain.Channel, next domain.Status) string {
	run, err := s.pipelines.Get(ctx, repoID, number)
	if err != nil {
		return "unknown"
	}
	switch domain.CheckTransition(channel, run.StatusFor(channel), next) {
	case domain.TransitionNoop:
		return "duplicate_value"
	case domain.TransitionReject:
		return "guard_rejected"
	}
	// the guards passed on the fresh read, so a concurrent delivery won the row
	return "lost_race"
}

// ensureRun creates the pipeline row for events that may arrive before any
// change-request lifecycle event.
func (s *IngestService) ensureRun(ctx context.Context, repo *domain.Repository, env *webhook.Envelope) error {
	seed := &domain.PipelineRun{
		RepoID: repo.ID,
		Number: env.ChangeRequestNumber(),
	}
	if check := env.Check(); check != nil {
		seed.CommitSHA = check.HeadSHA
	}
	if env.Review != nil {
		seed.CommitSHA = env.Review.CommitID
		seed.Author = env.Review.User.Login
		seed.AvatarURL = env.Review.User.AvatarURL
	}
	if pr := env.PullRequest; pr != nil {
		seed.CommitSHA = pr.Head.SHA
		seed.Author = pr.User.Login
		seed.AvatarURL = pr.User.AvatarURL
		seed.Title = pr.Title
	}
	return s.pipelines.EnsureExists(ctx, seed)
}

func (s *IngestService) publish(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}
	_ = s.dispatcher.Publish(ctx, event)
}

func buildConclusion(env *webhook.Envelope) domain.Status {
	if check := env.Check(); check != nil && check.Conclusion == "success" {
		return domain.StatusBuildPassed
	}
	return domain.StatusBuildFailed
}

func repositoryFromPayload(p *webhook.RepositoryPayload) *domain.Repository {
	return &domain.Repository{
		GithubID:      p.ID,
		Name:          p.Name,
		FullName:      p.FullName,
		Description:   p.Description,
		Owner:         p.Owner.Login,
		HTMLURL:       p.HTMLURL,
		Language:      p.Language,
		IsPrivate:     p.Private,
		DefaultBranch: p.DefaultBranch,
		Stars:         p.StargazersCount,
		Forks:         p.ForksCount,
		LastActivity:  p.PushedAt,
	}
}

func changeRequestFromPayload(repoID string, pr *webhook.PullRequestPayload, state domain.ChangeRequestState, files []domain.FileChange) *domain.ChangeRequest {
	labels := make([]string, 0, len(pr.Labels))
	for _, l := range pr.Labels {
		labels = append(labels, l.Name)
	}
	assignees := make([]string, 0, len(pr.Assignees))
	for _, a := range pr.Assignees {
		assignees = append(assignees, a.Login)
	}
	reviewers := make([]string, 0, len(pr.RequestedReviewers))
	for _, rev := range pr.RequestedReviewers {
		reviewers = append(reviewers, rev.Login)
	}

	return &domain.ChangeRequest{
		RepoID:       repoID,
		Number:       pr.Number,
		Title:        pr.Title,
		Description:  pr.Body,
		Author:       pr.User.Login,
		AuthorAvatar: pr.User.AvatarURL,
		CommitSHA:    pr.Head.SHA,
		BranchName:   pr.Head.Ref,
		BaseBranch:   pr.Base.Ref,
		URL:          pr.HTMLURL,
		Additions:    pr.Additions,
		Deletions:    pr.Deletions,
		ChangedFiles: pr.ChangedFiles,
		Labels:       labels,
		Assignees:    assignees,
		Reviewers:    reviewers,
		IsDraft:      pr.Draft,
		State:        state,
		FilesChanged: files,
		MergedAt:     pr.MergedAt,
		ClosedAt:     pr.ClosedAt,
	}
}

func pipelineSeed(repoID string, pr *webhook.PullRequestPayload) *domain.PipelineRun {
	return &domain.PipelineRun{
		RepoID:    repoID,
		Number:    pr.Number,
		CommitSHA: pr.Head.SHA,
		Author:    pr.User.Login,
		AvatarURL: pr.User.AvatarURL,
		Title:     pr.Title,
	}
}
