package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/phrazzld/workforce-api/internal/domain"
	"github.com/phrazzld/workforce-api/internal/events"
	"github.com/phrazzld/workforce-api/internal/platform/logger"
	"github.com/phrazzld/workforce-api/internal/store"
)

// DefaultAssignmentHorizon is how far in the future reconciliation places the
// deadline of a newly assigned task.
const DefaultAssignmentHorizon = 24 * time.Hour

// Confirmation messages returned by mutating operations.
const (
	CommentAddedConfirmation = "Comment added"
)

// CreateTaskInput describes one task to create. Status and description are
// not accepted: new tasks always start ASSIGNED with the default description.
type CreateTaskInput struct {
	ReferenceID   int64
	ReferenceType domain.ReferenceType
	TaskType      domain.TaskType
	AssigneeID    int64
	Priority      domain.Priority
	Deadline      int64
}

// UpdateTaskInput is a partial update; nil fields are left untouched.
type UpdateTaskInput struct {
	TaskID      int64
	Status      *domain.TaskStatus
	Description *string
}

// FetchTasksQuery selects tasks for a deadline window.
type FetchTasksQuery struct {
	// AssigneeIDs restricts the source set when non-empty.
	AssigneeIDs []int64

	Start int64
	End   int64

	// Strict drops overdue work and returns only deadlines inside the window.
	Strict bool
}

// TaskService provides the task lifecycle operations.
type TaskService interface {
	// FindTaskByID retrieves a single task.
	FindTaskByID(ctx context.Context, id int64) (*domain.Task, error)

	// CreateTasks creates every item or none of them.
	CreateTasks(ctx context.Context, items []CreateTaskInput) ([]*domain.Task, error)

	// UpdateTasks applies every partial update or none of them.
	UpdateTasks(ctx context.Context, items []UpdateTaskInput) ([]*domain.Task, error)

	// AssignByReference makes assigneeID the single active owner of every task
	// type the reference type requires, cancelling superseded tasks.
	AssignByReference(
		ctx context.Context,
		referenceID int64,
		referenceType domain.ReferenceType,
		assigneeID int64,
	) (string, error)

	// FetchTasksByDate lists tasks relevant to a deadline window.
	FetchTasksByDate(ctx context.Context, query FetchTasksQuery) ([]*domain.Task, error)

	// GetTasksByPriority lists the tasks with the given priority.
	GetTasksByPriority(ctx context.Context, priority domain.Priority) ([]*domain.Task, error)

	// UpdateTaskPriority changes a task's priority and records the change.
	UpdateTaskPriority(ctx context.Context, taskID int64, priority domain.Priority) (string, error)

	// AddComment appends a comment and a matching activity entry.
	AddComment(ctx context.Context, taskID int64, text string) (string, error)

	// GetTaskDetails bundles a task with its comment and activity history.
	GetTaskDetails(ctx context.Context, taskID int64) (*domain.TaskDetails, error)
}

// Option configures a taskServiceImpl.
type Option func(*taskServiceImpl)

// WithClock replaces time.Now as the source of timestamps and deadlines.
func WithClock(now func() time.Time) Option {
	return func(s *taskServiceImpl) {
		if now != nil {
			s.now = now
		}
	}
}

// WithAssignmentHorizon sets the deadline offset for reconciled tasks.
// Non-positive values are ignored.
func WithAssignmentHorizon(d time.Duration) Option {
	return func(s *taskServiceImpl) {
		if d > 0 {
			s.horizon = d
		}
	}
}

// taskServiceImpl implements the TaskService interface
type taskServiceImpl struct {
	store    store.TaskStore
	registry *domain.Registry
	emitter  events.EventEmitter
	locks    *KeyedMutex
	now      func() time.Time
	horizon  time.Duration
	logger   *slog.Logger
}

// NewTaskService creates a new TaskService.
// It returns an error if any of the required dependencies are nil.
func NewTaskService(
	taskStore store.TaskStore,
	registry *domain.Registry,
	emitter events.EventEmitter,
	logger *slog.Logger,
	opts ...Option,
) (TaskService, error) {
	if taskStore == nil {
		return nil, &TaskServiceError{Operation: "create_service", Message: "taskStore cannot be nil"}
	}
	if registry == nil {
		return nil, &TaskServiceError{Operation: "create_service", Message: "registry cannot be nil"}
	}
	if emitter == nil {
		return nil, &TaskServiceError{Operation: "create_service", Message: "emitter cannot be nil"}
	}

	if logger == nil {
		logger = slog.Default()
	}

	s := &taskServiceImpl{
		store:    taskStore,
		registry: registry,
		emitter:  emitter,
		locks:    NewKeyedMutex(),
		now:      time.Now,
		horizon:  DefaultAssignmentHorizon,
		logger:   logger.With("component", "task_service"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// FindTaskByID implements TaskService.FindTaskByID
func (s *taskServiceImpl) FindTaskByID(ctx context.Context, id int64) (*domain.Task, error) {
	task, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, NewTaskServiceError("find_task", "failed to retrieve task", err)
	}
	return task, nil
}

// CreateTasks implements TaskService.CreateTasks
func (s *taskServiceImpl) CreateTasks(ctx context.Context, items []CreateTaskInput) ([]*domain.Task, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	pending := make([]*domain.Task, 0, len(items))
	for i, item := range items {
		task, err := domain.NewTask(
			item.ReferenceID,
			item.ReferenceType,
			item.TaskType,
			item.AssigneeID,
			item.Priority,
			item.Deadline,
		)
		if err != nil {
			return nil, domain.NewValidationError(fmt.Sprintf("items[%d]", i), "is not a valid task", err)
		}
		if !s.registry.Allows(task.ReferenceType, task.TaskType) {
			return nil, domain.NewValidationError(
				fmt.Sprintf("items[%d].task", i),
				fmt.Sprintf("%s is not registered for reference type %s", task.TaskType, task.ReferenceType),
				domain.ErrTaskTypeNotAllowed,
			)
		}
		pending = append(pending, task)
	}

	created := make([]*domain.Task, 0, len(pending))
	err := s.store.WithinTx(ctx, func(ctx context.Context, tx store.TaskStore) error {
		for _, task := range pending {
			saved, err := tx.Save(ctx, task)
			if err != nil {
				return err
			}
			created = append(created, saved)
		}
		return nil
	})
	if err != nil {
		log.Error("failed to create tasks",
			slog.Int("count", len(items)),
			slog.String("error", err.Error()))
		return nil, NewTaskServiceError("create_tasks", "failed to save tasks", err)
	}

	log.Info("tasks created", slog.Int("count", len(created)))
	for _, task := range created {
		s.emit(ctx, events.TaskCreated, task, "")
	}
	return created, nil
}

// UpdateTasks implements TaskService.UpdateTasks
func (s *taskServiceImpl) UpdateTasks(ctx context.Context, items []UpdateTaskInput) ([]*domain.Task, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	for i, item := range items {
		if item.Status != nil && !item.Status.Valid() {
			return nil, domain.NewValidationError(
				fmt.Sprintf("items[%d].status", i), "is not a known task status", domain.ErrInvalidTaskStatus)
		}
	}

	updated := make([]*domain.Task, 0, len(items))
	err := s.store.WithinTx(ctx, func(ctx context.Context, tx store.TaskStore) error {
		for _, item := range items {
			task, err := tx.GetByID(ctx, item.TaskID)
			if err != nil {
				return err
			}
			if item.Status != nil {
				task.Status = *item.Status
			}
			if item.Description != nil {
				task.Description = *item.Description
			}
			saved, err := tx.Save(ctx, task)
			if err != nil {
				return err
			}
			updated = append(updated, saved)
		}
		return nil
	})
	if err != nil {
		log.Warn("task update batch aborted",
			slog.Int("count", len(items)),
			slog.String("error", err.Error()))
		return nil, NewTaskServiceError("update_tasks", "failed to update tasks", err)
	}

	for _, task := range updated {
		s.emit(ctx, events.TaskUpdated, task, "")
	}
	return updated, nil
}

// FetchTasksByDate implements TaskService.FetchTasksByDate
func (s *taskServiceImpl) FetchTasksByDate(ctx context.Context, query FetchTasksQuery) ([]*domain.Task, error) {
	window, err := domain.NewDateWindow(query.Start, query.End)
	if err != nil {
		return nil, err
	}

	var source []*domain.Task
	if len(query.AssigneeIDs) > 0 {
		source, err = s.store.ListByAssignees(ctx, query.AssigneeIDs)
	} else {
		source, err = s.store.List(ctx)
	}
	if err != nil {
		return nil, NewTaskServiceError("fetch_tasks_by_date", "failed to list tasks", err)
	}

	keep := window.Selects
	if query.Strict {
		keep = window.SelectsStrict
	}

	selected := make([]*domain.Task, 0, len(source))
	for _, task := range source {
		if keep(task) {
			selected = append(selected, task)
		}
	}

	logger.FromContextOrDefault(ctx, s.logger).Debug("tasks fetched by date",
		slog.Int("candidates", len(source)),
		slog.Int("selected", len(selected)),
		slog.Bool("strict", query.Strict))
	return selected, nil
}

// GetTasksByPriority implements TaskService.GetTasksByPriority
func (s *taskServiceImpl) GetTasksByPriority(ctx context.Context, priority domain.Priority) ([]*domain.Task, error) {
	if !priority.Valid() {
		return nil, domain.NewValidationError("priority", "is not a known priority", domain.ErrInvalidPriority)
	}

	tasks, err := s.store.ListByPriority(ctx, priority)
	if err != nil {
		return nil, NewTaskServiceError("get_tasks_by_priority", "failed to list tasks", err)
	}
	return tasks, nil
}

// UpdateTaskPriority implements TaskService.UpdateTaskPriority
func (s *taskServiceImpl) UpdateTaskPriority(
	ctx context.Context,
	taskID int64,
	priority domain.Priority,
) (string, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if !priority.Valid() {
		return "", domain.NewValidationError("priority", "is not a known priority", domain.ErrInvalidPriority)
	}

	message := domain.PriorityChangedMessage(priority)
	var saved *domain.Task
	err := s.store.WithinTx(ctx, func(ctx context.Context, tx store.TaskStore) error {
		task, err := tx.GetByID(ctx, taskID)
		if err != nil {
			return err
		}
		task.Priority = priority
		if saved, err = tx.Save(ctx, task); err != nil {
			return err
		}
		return tx.AppendActivity(ctx, domain.NewActivityLog(taskID, message, s.now()))
	})
	if err != nil {
		return "", NewTaskServiceError("update_task_priority", "failed to update priority", err)
	}

	log.Info("task priority updated",
		slog.Int64("task_id", taskID),
		slog.String("priority", string(priority)))
	s.emit(ctx, events.TaskPriorityChanged, saved, message)
	return fmt.Sprintf("Priority updated successfully for task ID %d", taskID), nil
}

// AddComment implements TaskService.AddComment
func (s *taskServiceImpl) AddComment(ctx context.Context, taskID int64, text string) (string, error) {
	var task *domain.Task
	err := s.store.WithinTx(ctx, func(ctx context.Context, tx store.TaskStore) error {
		var err error
		if task, err = tx.GetByID(ctx, taskID); err != nil {
			return err
		}

		at := s.now()
		comment, err := domain.NewComment(taskID, text, at)
		if err != nil {
			return err
		}
		if err := tx.AppendComment(ctx, comment); err != nil {
			return err
		}
		return tx.AppendActivity(ctx, domain.NewActivityLog(taskID, domain.CommentAddedMessage(text), at))
	})
	if err != nil {
		return "", NewTaskServiceError("add_comment", "failed to add comment", err)
	}

	logger.FromContextOrDefault(ctx, s.logger).Info("comment added", slog.Int64("task_id", taskID))
	s.emit(ctx, events.TaskCommentAdded, task, domain.CommentAddedMessage(text))
	return CommentAddedConfirmation, nil
}

// GetTaskDetails implements TaskService.GetTaskDetails. The task and both
// logs are read from one snapshot so a concurrent AddComment is either fully
// visible or not at all.
func (s *taskServiceImpl) GetTaskDetails(ctx context.Context, taskID int64) (*domain.TaskDetails, error) {
	details := &domain.TaskDetails{}
	err := s.store.ReadSnapshot(ctx, func(ctx context.Context, tx store.TaskStore) error {
		var err error
		if details.Task, err = tx.GetByID(ctx, taskID); err != nil {
			return err
		}
		if details.Comments, err = tx.ListComments(ctx, taskID); err != nil {
			return err
		}
		details.Activities, err = tx.ListActivities(ctx, taskID)
		return err
	})
	if err != nil {
		return nil, NewTaskServiceError("get_task_details", "failed to retrieve task details", err)
	}
	return details, nil
}

// emit publishes an event for a committed change. Handler failures are
// logged and never undo the change.
func (s *taskServiceImpl) emit(ctx context.Context, eventType events.EventType, task *domain.Task, detail string) {
	event := events.NewTaskEvent(eventType, task, detail, s.now())
	if err := s.emitter.EmitEvent(ctx, event); err != nil {
		logger.FromContextOrDefault(ctx, s.logger).Warn("failed to emit task event",
			slog.String("event_type", string(eventType)),
			slog.Int64("task_id", event.TaskID),
			slog.String("error", err.Error()))
	}
}
