package webhook

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassify_KnownPairs(t *testing.T) {
	cases := []struct {
		event  string
		action string
		want   Route
	}{
		{"pull_request", "opened", RouteChangeRequestOpened},
		{"pull_request", "reopened", RouteChangeRequestOpened},
		{"pull_request", "synchronize", RouteChangeRequestUpdated},
		{"pull_request", "ready_for_review", RouteChangeRequestUpdated},
		{"pull_request", "closed", RouteChangeRequestClosed},
		{"pull_request_review", "submitted", RouteReviewSubmitted},
		{"check_run", "created", RouteBuildStarted},
		{"check_run", "in_progress", RouteBuildStarted},
		{"check_run", "completed", RouteBuildCompleted},
		{"workflow_run", "requested", RouteBuildStarted},
		{"workflow_run", "in_progress", RouteBuildStarted},
		{"workflow_run", "completed", RouteBuildCompleted},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, Classify(tc.event, tc.action), "%s/%s", tc.event, tc.action)
	}
}

func TestClassify_UnknownPairs(t *testing.T) {
	assert.Equal(t, RouteNone, Classify("pull_request", "locked"))
	assert.Equal(t, RouteNone, Classify("issues", "opened"))
	assert.Equal(t, RouteNone, Classify("push", ""))
	assert.Equal(t, RouteNone, Classify("", ""))
}

func TestClassify_Deterministic(t *testing.T) {
	first := Classify("pull_request", "opened")
	second := Classify("pull_request", "opened")
	assert.Equal(t, first, second)
}
