package domain

import "time"

// ChangeRequestState enumerates lifecycle states for change requests.
type ChangeRequestState string

const (
	ChangeRequestOpen   ChangeRequestState = "open"
	ChangeRequestClosed ChangeRequestState = "closed"
	ChangeRequestMerged ChangeRequestState = "merged"
)

// FileChange is one file-level diff entry fetched from the origin platform.
type FileChange struct {
	Filename  string `json:"filename"`
	Status    string `json:"status"`
	Additions int    `json:"additions"`
	Deletions int    `json:"deletions"`
	Changes   int    `json:"changes"`
	Patch     string `json:"patch,omitempty"`
}

// HistoryEntry is one element of an append-only history log. ChangeRequest
// entries carry State; PipelineRun entries carry Field and Value.
type HistoryEntry struct {
	Field string         `json:"field,omitempty"`
	Value string         `json:"value,omitempty"`
	State string         `json:"state,omitempty"`
	At    time.Time      `json:"at"`
	Meta  map[string]any `json:"meta,omitempty"`
}

// ChangeRequest is the canonical record for a tracked change request,
// unique per (repository, sequence number).
type ChangeRequest struct {
	ID           string
	RepoID       string
	Number       int
	Title        string
	Description  string
	Author       string
	AuthorAvatar string
	CommitSHA    string
	BranchName   string
	BaseBranch   string
	URL          string
	Additions    int
	Deletions    int
	ChangedFiles int
	Labels       []string
	Assignees    []string
	Reviewers    []string
	IsDraft      bool
	State        ChangeRequestState
	FilesChanged []FileChange
	History      []HistoryEntry
	MergedAt     *time.Time
	ClosedAt     *time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
