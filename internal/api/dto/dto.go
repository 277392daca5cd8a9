package dto

import (
	"time"

	"github.com/devbyzero/flowlens-gateway/internal/domain"
)

// WebhookAck is the response body for an accepted delivery.
type WebhookAck struct {
	Success    bool   `json:"success"`
	EventType  string `json:"eventType"`
	Action     string `json:"action,omitempty"`
	Repository string `json:"repository,omitempty"`
	Handled    bool   `json:"handled"`
	Changed    bool   `json:"changed"`
	Duplicate  bool   `json:"duplicate,omitempty"`
}

// ErrorResponse is the uniform error body.
type ErrorResponse struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

// TokenRequest exchanges the shared debug secret for an operator token.
type TokenRequest struct {
	Secret  string `json:"secret"`
	Subject string `json:"subject"`
}

// TokenResponse carries an issued operator token.
type TokenResponse struct {
	Token string `json:"token"`
}

// ChangeRequestSummary is the debug view of a stored change request.
type ChangeRequestSummary struct {
	ID           string                    `json:"id"`
	RepoID       string                    `json:"repo_id"`
	Number       int                       `json:"number"`
	Title        string                    `json:"title"`
	Author       string                    `json:"author"`
	State        domain.ChangeRequestState `json:"state"`
	IsDraft      bool                      `json:"is_draft"`
	BranchName   string                    `json:"branch_name"`
	BaseBranch   string                    `json:"base_branch"`
	Additions    int                       `json:"additions"`
	Deletions    int                       `json:"deletions"`
	ChangedFiles int                       `json:"changed_files"`
	HistoryLen   int                       `json:"history_len"`
	UpdatedAt    time.Time                 `json:"updated_at"`
}

// PipelineRunSummary is the debug view of a pipeline run.
type PipelineRunSummary struct {
	ID          string        `json:"id"`
	RepoID      string        `json:"repo_id"`
	Number      int           `json:"number"`
	CommitSHA   string        `json:"commit_sha"`
	Submission  domain.Status `json:"submission"`
	Build       domain.Status `json:"build"`
	Approval    domain.Status `json:"approval"`
	Integration domain.Status `json:"integration"`
	HistoryLen  int           `json:"history_len"`
	UpdatedAt   time.Time     `json:"updated_at"`
}

// FromChangeRequest maps a domain record to its summary.
func FromChangeRequest(cr domain.ChangeRequest) ChangeRequestSummary {
	return ChangeRequestSummary{
		ID:           cr.ID,
		RepoID:       cr.RepoID,
		Number:       cr.Number,
		Title:        cr.Title,
		Author:       cr.Author,
		State:        cr.State,
		IsDraft:      cr.IsDraft,
		BranchName:   cr.BranchName,
		BaseBranch:   cr.BaseBranch,
		Additions:    cr.Additions,
		Deletions:    cr.Deletions,
		ChangedFiles: cr.ChangedFiles,
		HistoryLen:   len(cr.History),
		UpdatedAt:    cr.UpdatedAt,
	}
}

// FromPipelineRun maps a domain run to its summary.
func FromPipelineRun(run domain.PipelineRun) PipelineRunSummary {
	return PipelineRunSummary{
		ID:          run.ID,
		RepoID:      run.RepoID,
		Number:      run.Number,
		CommitSHA:   run.CommitSHA,
		Submission:  run.Submission,
		Build:       run.Build,
		Approval:    run.Approval,
		Integration: run.Integration,
		HistoryLen:  len(run.History),
		UpdatedAt:   run.UpdatedAt,
	}
}
