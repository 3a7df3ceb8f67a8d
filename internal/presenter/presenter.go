package presenter

import (
	"fmt"
	"time"

	"github.com/phrazzld/workforce-api/internal/domain"
)

// TimestampLayout is the rendering of every timestamp in API responses.
const TimestampLayout = "2006-01-02 15:04:05"

// DefaultTimezone is used when no zone is configured.
const DefaultTimezone = "Asia/Kolkata"

// TaskDTO is the outward shape of a task.
type TaskDTO struct {
	ID            int64  `json:"id"`
	ReferenceID   int64  `json:"reference_id"`
	ReferenceType string `json:"reference_type"`
	Task          string `json:"task"`
	AssigneeID    int64  `json:"assignee_id"`
	Status        string `json:"status"`
	Priority      string `json:"priority"`
	Description   string `json:"description"`
	Deadline      int64  `json:"task_deadline_time"`
}

// CommentDTO is a comment with its formatted creation time.
type CommentDTO struct {
	Comment   string `json:"comment"`
	Timestamp string `json:"timestamp"`
}

// ActivityLogDTO is an activity entry with its formatted creation time.
type ActivityLogDTO struct {
	Message   string `json:"message"`
	Timestamp string `json:"timestamp"`
}

// TaskDetailsDTO bundles a task with its history.
type TaskDetailsDTO struct {
	Task            TaskDTO          `json:"task"`
	Comments        []CommentDTO     `json:"comments"`
	ActivityHistory []ActivityLogDTO `json:"activity_history"`
}

// Formatter converts domain values into response DTOs. It is safe for
// concurrent use.
type Formatter struct {
	location *time.Location
}

// NewFormatter creates a Formatter rendering timestamps in the named IANA
// zone. An empty name selects DefaultTimezone.
func NewFormatter(timezone string) (*Formatter, error) {
	if timezone == "" {
		timezone = DefaultTimezone
	}
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return nil, fmt.Errorf("failed to load timezone %q: %w", timezone, err)
	}
	return &Formatter{location: loc}, nil
}

// FormatTimestamp renders epoch milliseconds in the formatter's zone.
func (f *Formatter) FormatTimestamp(millis int64) string {
	return time.UnixMilli(millis).In(f.location).Format(TimestampLayout)
}

// Task converts a single task.
func (f *Formatter) Task(t *domain.Task) TaskDTO {
	return TaskDTO{
		ID:            t.ID,
		ReferenceID:   t.ReferenceID,
		ReferenceType: string(t.ReferenceType),
		Task:          string(t.TaskType),
		AssigneeID:    t.AssigneeID,
		Status:        string(t.Status),
		Priority:      string(t.Priority),
		Description:   t.Description,
		Deadline:      t.Deadline,
	}
}

// Tasks converts a list of tasks, preserving order. The result is never nil.
func (f *Formatter) Tasks(tasks []*domain.Task) []TaskDTO {
	out := make([]TaskDTO, 0, len(tasks))
	for _, t := range tasks {
		out = append(out, f.Task(t))
	}
	return out
}

// Details converts a task with its comment and activity history.
func (f *Formatter) Details(d *domain.TaskDetails) TaskDetailsDTO {
	comments := make([]CommentDTO, 0, len(d.Comments))
	for _, c := range d.Comments {
		comments = append(comments, CommentDTO{
			Comment:   c.Text,
			Timestamp: f.FormatTimestamp(c.CreatedAt),
		})
	}

	activity := make([]ActivityLogDTO, 0, len(d.Activities))
	for _, a := range d.Activities {
		activity = append(activity, ActivityLogDTO{
			Message:   a.Message,
			Timestamp: f.FormatTimestamp(a.CreatedAt),
		})
	}

	return TaskDetailsDTO{
		Task:            f.Task(d.Task),
		Comments:        comments,
		ActivityHistory: activity,
	}
}
