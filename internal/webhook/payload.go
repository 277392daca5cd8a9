package webhook

import (
	"encoding/json"
	"errors"
	"time"
)

// ErrMalformedPayload is returned when the body is not a JSON object.
var ErrMalformedPayload = errors.New("malformed event payload")

// Account identifies a platform user or organization.
type Account struct {
	Login     string `json:"login"`
	AvatarURL string `json:"avatar_url"`
}

// Label is a change-request label descriptor.
type Label struct {
	Name string `json:"name"`
}

// BranchRef points at a branch head.
type BranchRef struct {
	Ref string `json:"ref"`
	SHA string `json:"sha"`
}

// RepositoryPayload is the repository descriptor embedded in every event.
type RepositoryPayload struct {
	ID              int64      `json:"id"`
	Name            string     `json:"name"`
	FullName        string     `json:"full_name"`
	Description     string     `json:"description"`
	Private         bool       `json:"private"`
	HTMLURL         string     `json:"html_url"`
	Language        string     `json:"language"`
	DefaultBranch   string     `json:"default_branch"`
	StargazersCount int        `json:"stargazers_count"`
	ForksCount      int        `json:"forks_count"`
	PushedAt        *time.Time `json:"pushed_at"`
	Owner           Account    `json:"owner"`
}

// PullRequestPayload carries change-request lifecycle data.
type PullRequestPayload struct {
	Number             int        `json:"number"`
	Title              string     `json:"title"`
	Body               string     `json:"body"`
	User               Account    `json:"user"`
	Head               BranchRef  `json:"head"`
	Base               BranchRef  `json:"base"`
	HTMLURL            string     `json:"html_url"`
	Additions          int        `json:"additions"`
	Deletions          int        `json:"deletions"`
	ChangedFiles       int        `json:"changed_files"`
	Labels             []Label    `json:"labels"`
	Assignees          []Account  `json:"assignees"`
	RequestedReviewers []Account  `json:"requested_reviewers"`
	Draft              bool       `json:"draft"`
	Merged             bool       `json:"merged"`
	MergedAt           *time.Time `json:"merged_at"`
	ClosedAt           *time.Time `json:"closed_at"`
	CreatedAt          *time.Time `json:"created_at"`
	UpdatedAt          *time.Time `json:"updated_at"`
}

// ReviewPayload carries a submitted review.
type ReviewPayload struct {
	State    string  `json:"state"`
	User     Account `json:"user"`
	CommitID string  `json:"commit_id"`
}

// CheckPayload covers both check_run and workflow_run objects; the gateway
// only needs the shared fields.
type CheckPayload struct {
	Name         string `json:"name"`
	Status       string `json:"status"`
	Conclusion   string `json:"conclusion"`
	HeadSHA      string `json:"head_sha"`
	PullRequests []struct {
		Number int `json:"number"`
	} `json:"pull_requests"`
}

// Envelope is the decoded webhook body. Only the branches relevant to the
// declared event type are populated.
type Envelope struct {
	Action      string              `json:"action"`
	Number      int                 `json:"number"`
	Repository  *RepositoryPayload  `json:"repository"`
	PullRequest *PullRequestPayload `json:"pull_request"`
	Review      *ReviewPayload      `json:"review"`
	CheckRun    *CheckPayload       `json:"check_run"`
	WorkflowRun *CheckPayload       `json:"workflow_run"`
}

// Parse decodes a raw delivery body.
func Parse(body []byte) (*Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, ErrMalformedPayload
	}
	return &env, nil
}

// Check returns whichever build object the event carries.
func (e *Envelope) Check() *CheckPayload {
	if e.CheckRun != nil {
		return e.CheckRun
	}
	return e.WorkflowRun
}

// ChangeRequestNumber resolves the change-request sequence number from the
// envelope, whichever field the event type populates. Returns 0 when the
// event is not tied to a change request.
func (e *Envelope) ChangeRequestNumber() int {
	if e.Number > 0 {
		return e.Number
	}
	if e.PullRequest != nil && e.PullRequest.Number > 0 {
		return e.PullRequest.Number
	}
	if check := e.Check(); check != nil && len(check.PullRequests) > 0 {
		return check.PullRequests[0].Number
	}
	return 0
}
