package events

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/workforce-api/internal/domain"
)

// EventType names a kind of task lifecycle change.
type EventType string

const (
	TaskCreated         EventType = "task.created"
	TaskAssigned        EventType = "task.assigned"
	TaskCancelled       EventType = "task.cancelled"
	TaskUpdated         EventType = "task.updated"
	TaskPriorityChanged EventType = "task.priority_changed"
	TaskCommentAdded    EventType = "task.comment_added"
)

// TaskEvent describes one change to one task.
type TaskEvent struct {
	// ID is a unique identifier for this event
	ID uuid.UUID `json:"id"`

	Type        EventType `json:"type"`
	TaskID      int64     `json:"task_id"`
	ReferenceID int64     `json:"reference_id"`
	AssigneeID  int64     `json:"assignee_id"`

	// Detail is the human-readable activity message, when the change has one
	Detail string `json:"detail,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

// NewTaskEvent builds an event for task at the given instant.
func NewTaskEvent(eventType EventType, task *domain.Task, detail string, at time.Time) *TaskEvent {
	e := &TaskEvent{
		ID:        uuid.New(),
		Type:      eventType,
		Detail:    detail,
		CreatedAt: at,
	}
	if task != nil {
		e.TaskID = task.ID
		e.ReferenceID = task.ReferenceID
		e.AssigneeID = task.AssigneeID
	}
	return e
}

// EventHandler defines an interface for components that can handle events.
type EventHandler interface {
	// HandleEvent processes the given event within the provided context.
	HandleEvent(ctx context.Context, event *TaskEvent) error
}

// EventHandlerFunc adapts a plain function to EventHandler.
type EventHandlerFunc func(ctx context.Context, event *TaskEvent) error

// HandleEvent calls f(ctx, event).
func (f EventHandlerFunc) HandleEvent(ctx context.Context, event *TaskEvent) error {
	return f(ctx, event)
}

// EventEmitter defines an interface for components that can emit events.
// This allows services to publish events without direct knowledge of handlers.
type EventEmitter interface {
	// EmitEvent publishes the given event to all registered handlers.
	EmitEvent(ctx context.Context, event *TaskEvent) error
}
