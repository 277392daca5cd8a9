package webhook

// Route names the handler responsible for a classified event.
type Route string

const (
	// RouteNone marks (type, action) pairs outside the dispatch table;
	// they are accepted but produce no state change.
	RouteNone                 Route = ""
	RouteChangeRequestOpened  Route = "change_request_opened"
	RouteChangeRequestUpdated Route = "change_request_updated"
	RouteChangeRequestClosed  Route = "change_request_closed"
	RouteReviewSubmitted      Route = "review_submitted"
	RouteBuildStarted         Route = "build_started"
	RouteBuildCompleted       Route = "build_completed"
)

type dispatchKey struct {
	event  string
	action string
}

// dispatchTable is the closed set of (type, action) pairs the gateway
// reacts to. Same input pair always yields the same route.
var dispatchTable = map[dispatchKey]Route{
	{"pull_request", "opened"}:                 RouteChangeRequestOpened,
	{"pull_request", "reopened"}:               RouteChangeRequestOpened,
	{"pull_request", "synchronize"}:            RouteChangeRequestUpdated,
	{"pull_request", "edited"}:                 RouteChangeRequestUpdated,
	{"pull_request", "labeled"}:                RouteChangeRequestUpdated,
	{"pull_request", "unlabeled"}:              RouteChangeRequestUpdated,
	{"pull_request", "assigned"}:               RouteChangeRequestUpdated,
	{"pull_request", "unassigned"}:             RouteChangeRequestUpdated,
	{"pull_request", "review_requested"}:       RouteChangeRequestUpdated,
	{"pull_request", "review_request_removed"}: RouteChangeRequestUpdated,
	{"pull_request", "ready_for_review"}:       RouteChangeRequestUpdated,
	{"pull_request", "converted_to_draft"}:     RouteChangeRequestUpdated,
	{"pull_request", "closed"}:                 RouteChangeRequestClosed,
	{"pull_request_review", "submitted"}:       RouteReviewSubmitted,
	{"check_run", "created"}:                   RouteBuildStarted,
	{"check_run", "in_progress"}:               RouteBuildStarted,
	{"check_run", "completed"}:                 RouteBuildCompleted,
	{"workflow_run", "requested"}:              RouteBuildStarted,
	{"workflow_run", "in_progress"}:            RouteBuildStarted,
	{"workflow_run", "completed"}:              RouteBuildCompleted,
}

// Classify maps a declared event type and action to a route. Unknown pairs
// return RouteNone.
func Classify(eventType, action string) Route {
	return dispatchTable[dispatchKey{event: eventType, action: action}]
}
