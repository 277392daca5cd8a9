package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCheckTransition_Noop(t *testing.T) {
	assert.Equal(t, TransitionNoop, CheckTransition(ChannelBuild, StatusBuilding, StatusBuilding))
	assert.Equal(t, TransitionNoop, CheckTransition(ChannelIntegration, StatusMerged, StatusMerged))
}

func TestCheckTransition_IntegrationTerminal(t *testing.T) {
	assert.Equal(t, TransitionReject, CheckTransition(ChannelIntegration, StatusMerged, StatusClosed))
	assert.Equal(t, TransitionReject, CheckTransition(ChannelIntegration, StatusClosed, StatusMerged))
	assert.Equal(t, TransitionApply, CheckTransition(ChannelIntegration, StatusPending, StatusMerged))
}

func TestCheckTransition_BuildNoRegression(t *testing.T) {
	assert.Equal(t, TransitionReject, CheckTransition(ChannelBuild, StatusBuildPassed, StatusBuilding))
	assert.Equal(t, TransitionReject, CheckTransition(ChannelBuild, StatusBuildFailed, StatusBuilding))

	// a completed conclusion may still flip on a genuine re-run result
	assert.Equal(t, TransitionApply, CheckTransition(ChannelBuild, StatusBuildPassed, StatusBuildFailed))
	assert.Equal(t, TransitionApply, CheckTransition(ChannelBuild, StatusBuilding, StatusBuildPassed))
}

func TestCheckTransition_OtherChannelsUnrestricted(t *testing.T) {
	assert.Equal(t, TransitionApply, CheckTransition(ChannelSubmission, StatusOpened, StatusUpdated))
	assert.Equal(t, TransitionApply, CheckTransition(ChannelApproval, StatusApproved, StatusChangesRequested))
}

func TestPipelineRun_StatusFor(t *testing.T) {
	run := &PipelineRun{
		Submission:  StatusOpened,
		Build:       StatusBuilding,
		Approval:    StatusPending,
		Integration: StatusPending,
	}
	assert.Equal(t, StatusOpened, run.StatusFor(ChannelSubmission))
	assert.Equal(t, StatusBuilding, run.StatusFor(ChannelBuild))
	assert.Equal(t, StatusPending, run.StatusFor(ChannelApproval))
	assert.Equal(t, StatusPending, run.StatusFor(ChannelIntegration))
}
