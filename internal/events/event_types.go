package events

import (
	"time"

	"github.com/devbyzero/flowlens-gateway/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventChangeRequestUpserted EventType = "change_request_upserted"
	EventPipelineTransitioned  EventType = "pipeline_transitioned"
)

// Event represents a state change emitted by the ingestion pipeline.
type Event struct {
	ID         string      `json:"id"`
	Type       EventType   `json:"type"`
	Repository string      `json:"repository"`
	Number     int         `json:"number"`
	Timestamp  time.Time   `json:"timestamp"`
	Payload    interface{} `json:"payload"`
}

// ChangeRequestUpsertedPayload payload.
type ChangeRequestUpsertedPayload struct {
	State  domain.ChangeRequestState `json:"state"`
	Action string                    `json:"action"`
	Title  string                    `json:"title"`
	Draft  bool                      `json:"draft"`
}

// PipelineTransitionedPayload payload.
type PipelineTransitionedPayload struct {
	Channel   domain.Channel `json:"channel"`
	Status    domain.Status  `json:"status"`
	CommitSHA string         `json:"commit_sha,omitempty"`
	Action    string         `json:"action,omitempty"`
}
