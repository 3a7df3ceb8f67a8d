package domain

import (
	"fmt"
	"time"
)

// Comment is a free-text note attached to a task. Comments are append-only
// and never edited once stored.
type Comment struct {
	TaskID    int64  `json:"task_id"`
	Text      string `json:"comment_text"`
	CreatedAt int64  `json:"timestamp"`
}

// ActivityLog is a single audit-trail entry recording a mutation of a task.
type ActivityLog struct {
	TaskID    int64  `json:"task_id"`
	Message   string `json:"message"`
	CreatedAt int64  `json:"timestamp"`
}

// TaskDetails bundles a task with its full comment and activity history,
// both in the order they were recorded.
type TaskDetails struct {
	Task       *Task
	Comments   []*Comment
	Activities []*ActivityLog
}

// NewComment creates a comment stamped with the given time.
func NewComment(taskID int64, text string, at time.Time) (*Comment, error) {
	if taskID <= 0 {
		return nil, NewValidationError("task_id", "must be positive", ErrInvalidID)
	}
	if text == "" {
		return nil, NewValidationError("comment_text", "is required", ErrEmptyContent)
	}
	return &Comment{TaskID: taskID, Text: text, CreatedAt: at.UnixMilli()}, nil
}

// NewActivityLog creates an activity entry stamped with the given time.
func NewActivityLog(taskID int64, message string, at time.Time) *ActivityLog {
	return &ActivityLog{TaskID: taskID, Message: message, CreatedAt: at.UnixMilli()}
}

// Activity messages written by the lifecycle engine.

// PriorityChangedMessage describes a priority change.
func PriorityChangedMessage(p Priority) string {
	return fmt.Sprintf("Priority changed to %s", p)
}

// CommentAddedMessage quotes a newly added comment.
func CommentAddedMessage(text string) string {
	return `User added comment: "` + text + `"`
}

// AssignedMessage records the assignee of a task created by reconciliation.
func AssignedMessage(assigneeID int64) string {
	return fmt.Sprintf("Task assigned to assignee %d", assigneeID)
}

// SupersededMessage records why reconciliation cancelled a task.
func SupersededMessage(assigneeID int64) string {
	return fmt.Sprintf("Task cancelled: superseded by reassignment to assignee %d", assigneeID)
}
