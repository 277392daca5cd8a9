package domain

import "time"

// Channel identifies one of the four independent pipeline status tracks.
type Channel string

const (
	ChannelSubmission  Channel = "submission"
	ChannelBuild       Channel = "build"
	ChannelApproval    Channel = "approval"
	ChannelIntegration Channel = "integration"
)

// Status is an enum-like value carried by a pipeline channel.
type Status string

const (
	StatusPending          Status = "pending"
	StatusOpened           Status = "opened"
	StatusUpdated          Status = "updated"
	StatusBuilding         Status = "building"
	StatusBuildPassed      Status = "buildPassed"
	StatusBuildFailed      Status = "buildFailed"
	StatusApproved         Status = "approved"
	StatusChangesRequested Status = "changes_requested"
	StatusMerged           Status = "merged"
	StatusClosed           Status = "closed"
)

// PipelineRun holds the four channel statuses for one change request,
// unique per (repository, sequence number), plus an append-only history.
type PipelineRun struct {
	ID          string
	RepoID      string
	Number      int
	CommitSHA   string
	Author      string
	AvatarURL   string
	Title       string
	Submission  Status
	Build       Status
	Approval    Status
	Integration Status
	History     []HistoryEntry
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// StatusFor returns the current value of the given channel.
func (p *PipelineRun) StatusFor(channel Channel) Status {
	switch channel {
	case ChannelSubmission:
		return p.Submission
	case ChannelBuild:
		return p.Build
	case ChannelApproval:
		return p.Approval
	case ChannelIntegration:
		return p.Integration
	}
	return ""
}

// TransitionDecision is the outcome of guard evaluation for a candidate
// (channel, value) transition.
type TransitionDecision int

const (
	TransitionApply TransitionDecision = iota
	// TransitionNoop means the channel already carries the candidate value;
	// nothing is written and no history is appended.
	TransitionNoop
	// TransitionReject covers terminal integration states and the build
	// no-regression rule; the stored value stays untouched.
	TransitionReject
)

// IsTerminalIntegration reports whether an integration value permits no
// further transitions on that channel.
func IsTerminalIntegration(s Status) bool {
	return s == StatusMerged || s == StatusClosed
}

// IsBuildConclusion reports whether a build value is a completed conclusion.
func IsBuildConclusion(s Status) bool {
	return s == StatusBuildPassed || s == StatusBuildFailed
}

// CheckTransition evaluates the channel guards against the current value.
// The persistence layer enforces the same predicates inside a single
// conditional UPDATE; this form exists for callers that need to explain a
// rejected write and for tests.
func CheckTransition(channel Channel, current, next Status) TransitionDecision {
	if current == next {
		return TransitionNoop
	}
	if channel == ChannelIntegration && IsTerminalIntegration(current) {
		return TransitionReject
	}
	if channel == ChannelBuild && next == StatusBuilding && IsBuildConclusion(current) {
		return TransitionReject
	}
	return TransitionApply
}
