package domain

import (
	"errors"
	"time"
)

// DefaultDescription is the description every newly created task starts with.
const DefaultDescription = "New task created."

// TaskStatus represents the lifecycle state of a task.
type TaskStatus string

// Possible task status values
const (
	TaskStatusAssigned   TaskStatus = "ASSIGNED"
	TaskStatusInProgress TaskStatus = "IN_PROGRESS"
	TaskStatusCompleted  TaskStatus = "COMPLETED"
	TaskStatusCancelled  TaskStatus = "CANCELLED"
)

// Priority ranks how urgently a task should be worked on.
type Priority string

// Possible priority values
const (
	PriorityLow    Priority = "LOW"
	PriorityMedium Priority = "MEDIUM"
	PriorityHigh   Priority = "HIGH"
)

// ReferenceType identifies the kind of external business object a task serves.
type ReferenceType string

// Known reference types. The registry decides which task types each of them
// requires, so this list only provides names for the defaults.
const (
	ReferenceTypeOrder    ReferenceType = "ORDER"
	ReferenceTypeEntity   ReferenceType = "ENTITY"
	ReferenceTypeEnquiry  ReferenceType = "ENQUIRY"
	ReferenceTypeDelivery ReferenceType = "DELIVERY"
)

// TaskType is the kind of work a task represents (e.g. CREATE_INVOICE).
type TaskType string

// Task validation errors
var (
	ErrTaskReferenceIDInvalid = errors.New("task reference ID must be positive")
	ErrTaskReferenceTypeEmpty = errors.New("task reference type cannot be empty")
	ErrTaskTypeEmpty          = errors.New("task type cannot be empty")
	ErrTaskAssigneeInvalid    = errors.New("task assignee ID must be positive")
	ErrInvalidTaskStatus      = errors.New("invalid task status")
	ErrInvalidPriority        = errors.New("invalid priority")
	ErrTaskTypeNotAllowed     = errors.New("task type is not registered for reference type")
)

// Task is a unit of work tied to an external reference and assigned to a
// single assignee. Deadline is expressed in epoch milliseconds.
type Task struct {
	ID            int64         `json:"id"`
	ReferenceID   int64         `json:"reference_id"`
	ReferenceType ReferenceType `json:"reference_type"`
	TaskType      TaskType      `json:"task"`
	AssigneeID    int64         `json:"assignee_id"`
	Priority      Priority      `json:"priority"`
	Status        TaskStatus    `json:"status"`
	Deadline      int64         `json:"task_deadline_time"`
	Description   string        `json:"description"`
}

// NewTask creates an ASSIGNED task with the default description.
// Returns an error if validation fails.
func NewTask(
	referenceID int64,
	referenceType ReferenceType,
	taskType TaskType,
	assigneeID int64,
	priority Priority,
	deadline int64,
) (*Task, error) {
	task := &Task{
		ReferenceID:   referenceID,
		ReferenceType: referenceType,
		TaskType:      taskType,
		AssigneeID:    assigneeID,
		Priority:      priority,
		Status:        TaskStatusAssigned,
		Deadline:      deadline,
		Description:   DefaultDescription,
	}

	if err := task.Validate(); err != nil {
		return nil, err
	}

	return task, nil
}

// Validate checks if the Task has valid data. The ID is not checked because
// it is assigned by the store on first save.
func (t *Task) Validate() error {
	if t.ReferenceID <= 0 {
		return ErrTaskReferenceIDInvalid
	}

	if t.ReferenceType == "" {
		return ErrTaskReferenceTypeEmpty
	}

	if t.TaskType == "" {
		return ErrTaskTypeEmpty
	}

	if t.AssigneeID <= 0 {
		return ErrTaskAssigneeInvalid
	}

	if !t.Priority.Valid() {
		return ErrInvalidPriority
	}

	if !t.Status.Valid() {
		return ErrInvalidTaskStatus
	}

	return nil
}

// IsActive reports whether the task still counts as open work.
func (t *Task) IsActive() bool {
	return t.Status.IsActive()
}

// Cancel moves an active task to CANCELLED. Returns false when the task was
// already terminal and nothing changed.
func (t *Task) Cancel() bool {
	if !t.IsActive() {
		return false
	}
	t.Status = TaskStatusCancelled
	return true
}

// DueIn returns the epoch-millis deadline lying horizon after now.
func DueIn(now time.Time, horizon time.Duration) int64 {
	return now.Add(horizon).UnixMilli()
}

// Clone returns a copy of the task that shares no state with the receiver.
func (t *Task) Clone() *Task {
	if t == nil {
		return nil
	}
	c := *t
	return &c
}

// Valid reports whether s is one of the known task statuses.
func (s TaskStatus) Valid() bool {
	switch s {
	case TaskStatusAssigned, TaskStatusInProgress, TaskStatusCompleted, TaskStatusCancelled:
		return true
	default:
		return false
	}
}

// IsActive reports whether s is neither COMPLETED nor CANCELLED.
func (s TaskStatus) IsActive() bool {
	return s == TaskStatusAssigned || s == TaskStatusInProgress
}

// IsTerminal reports whether s is COMPLETED or CANCELLED.
func (s TaskStatus) IsTerminal() bool {
	return s == TaskStatusCompleted || s == TaskStatusCancelled
}

// Valid reports whether p is one of the known priorities.
func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	default:
		return false
	}
}

// ParseTaskStatus converts a raw string into a TaskStatus.
func ParseTaskStatus(raw string) (TaskStatus, error) {
	s := TaskStatus(raw)
	if !s.Valid() {
		return "", NewValidationError("status", "is not a known task status", ErrInvalidTaskStatus)
	}
	return s, nil
}

// ParsePriority converts a raw string into a Priority.
func ParsePriority(raw string) (Priority, error) {
	p := Priority(raw)
	if !p.Valid() {
		return "", NewValidationError("priority", "is not a known priority", ErrInvalidPriority)
	}
	return p, nil
}
