package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/phrazzld/workforce-api/internal/domain"
	"github.com/phrazzld/workforce-api/internal/platform/logger"
	"github.com/phrazzld/workforce-api/internal/store"
)

const taskColumns = `id, reference_id, reference_type, task_type, assignee_id, priority, status, deadline, description`

// PostgresTaskStore implements the store.TaskStore interface
// using a PostgreSQL database as the storage backend.
type PostgresTaskStore struct {
	db     store.DBTX
	sqlDB  *sql.DB // nil when the store is bound to a transaction
	logger *slog.Logger
}

// NewPostgresTaskStore creates a new PostgreSQL implementation of the TaskStore interface.
// If logger is nil, a default logger will be used.
func NewPostgresTaskStore(db *sql.DB, logger *slog.Logger) *PostgresTaskStore {
	if db == nil {
		panic("db cannot be nil")
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresTaskStore{
		db:     db,
		sqlDB:  db,
		logger: logger.With(slog.String("component", "task_store")),
	}
}

// Ensure PostgresTaskStore implements store.TaskStore interface
var _ store.TaskStore = (*PostgresTaskStore)(nil)

// WithTx returns a store that runs every query on tx.
func (s *PostgresTaskStore) WithTx(tx *sql.Tx) *PostgresTaskStore {
	return &PostgresTaskStore{
		db:     tx,
		logger: s.logger,
	}
}

// GetByID implements store.TaskStore.GetByID
func (s *PostgresTaskStore) GetByID(ctx context.Context, id int64) (*domain.Task, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `SELECT ` + taskColumns + ` FROM tasks WHERE id = $1`

	task, err := scanTask(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Debug("task not found", slog.Int64("task_id", id))
			return nil, store.NewTaskNotFoundError(id)
		}
		log.Error("failed to get task by ID",
			slog.Int64("task_id", id),
			slog.String("error", err.Error()))
		return nil, MapError(err)
	}

	return task, nil
}

// Save implements store.TaskStore.Save
func (s *PostgresTaskStore) Save(ctx context.Context, task *domain.Task) (*domain.Task, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if task == nil {
		return nil, fmt.Errorf("%w: nil task", store.ErrInvalidEntity)
	}
	if err := task.Validate(); err != nil {
		log.Warn("task validation failed during save",
			slog.Int64("task_id", task.ID),
			slog.String("error", err.Error()))
		return nil, fmt.Errorf("%w: %w", store.ErrInvalidEntity, err)
	}

	saved := task.Clone()
	if saved.ID == 0 {
		return s.insert(ctx, saved)
	}

	query := `
		UPDATE tasks
		SET reference_id = $2, reference_type = $3, task_type = $4, assignee_id = $5,
			priority = $6, status = $7, deadline = $8, description = $9, updated_at = NOW()
		WHERE id = $1
	`
	result, err := s.db.ExecContext(ctx, query,
		saved.ID,
		saved.ReferenceID,
		string(saved.ReferenceType),
		string(saved.TaskType),
		saved.AssigneeID,
		string(saved.Priority),
		string(saved.Status),
		saved.Deadline,
		saved.Description,
	)
	if err != nil {
		log.Error("failed to update task",
			slog.Int64("task_id", saved.ID),
			slog.String("error", err.Error()))
		return nil, MapError(err)
	}

	if err := CheckRowsAffected(result, "task"); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			log.Debug("task not found for update", slog.Int64("task_id", saved.ID))
			return nil, store.NewTaskNotFoundError(saved.ID)
		}
		return nil, err
	}

	log.Debug("task updated",
		slog.Int64("task_id", saved.ID),
		slog.String("status", string(saved.Status)))
	return saved, nil
}

func (s *PostgresTaskStore) insert(ctx context.Context, task *domain.Task) (*domain.Task, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		INSERT INTO tasks (reference_id, reference_type, task_type, assignee_id, priority, status, deadline, description)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id
	`
	err := s.db.QueryRowContext(ctx, query,
		task.ReferenceID,
		string(task.ReferenceType),
		string(task.TaskType),
		task.AssigneeID,
		string(task.Priority),
		string(task.Status),
		task.Deadline,
		task.Description,
	).Scan(&task.ID)
	if err != nil {
		log.Error("failed to insert task",
			slog.Int64("reference_id", task.ReferenceID),
			slog.String("task_type", string(task.TaskType)),
			slog.String("error", err.Error()))
		return nil, MapError(err)
	}

	log.Debug("task inserted",
		slog.Int64("task_id", task.ID),
		slog.Int64("assignee_id", task.AssigneeID))
	return task, nil
}

// List implements store.TaskStore.List
func (s *PostgresTaskStore) List(ctx context.Context) ([]*domain.Task, error) {
	return s.queryTasks(ctx, `SELECT `+taskColumns+` FROM tasks ORDER BY id`)
}

// ListByReference implements store.TaskStore.ListByReference
func (s *PostgresTaskStore) ListByReference(
	ctx context.Context,
	referenceID int64,
	referenceType domain.ReferenceType,
) ([]*domain.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE reference_id = $1 AND reference_type = $2 ORDER BY id`
	return s.queryTasks(ctx, query, referenceID, string(referenceType))
}

// ListByAssignees implements store.TaskStore.ListByAssignees
func (s *PostgresTaskStore) ListByAssignees(ctx context.Context, assigneeIDs []int64) ([]*domain.Task, error) {
	if len(assigneeIDs) == 0 {
		return []*domain.Task{}, nil
	}

	placeholders := make([]string, len(assigneeIDs))
	args := make([]any, len(assigneeIDs))
	for i, id := range assigneeIDs {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
		args[i] = id
	}

	query := `SELECT ` + taskColumns + ` FROM tasks WHERE assignee_id IN (` +
		strings.Join(placeholders, ", ") + `) ORDER BY id`
	return s.queryTasks(ctx, query, args...)
}

// ListByPriority implements store.TaskStore.ListByPriority
func (s *PostgresTaskStore) ListByPriority(ctx context.Context, priority domain.Priority) ([]*domain.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE priority = $1 ORDER BY id`
	return s.queryTasks(ctx, query, string(priority))
}

// AppendComment implements store.TaskStore.AppendComment
func (s *PostgresTaskStore) AppendComment(ctx context.Context, comment *domain.Comment) error {
	if comment == nil {
		return fmt.Errorf("%w: nil comment", store.ErrInvalidEntity)
	}

	query := `INSERT INTO task_comments (task_id, comment_text, created_at) VALUES ($1, $2, $3)`
	_, err := s.db.ExecContext(ctx, query, comment.TaskID, comment.Text, comment.CreatedAt)
	return s.appendError(ctx, "comment", comment.TaskID, err)
}

// AppendActivity implements store.TaskStore.AppendActivity
func (s *PostgresTaskStore) AppendActivity(ctx context.Context, entry *domain.ActivityLog) error {
	if entry == nil {
		return fmt.Errorf("%w: nil activity entry", store.ErrInvalidEntity)
	}

	query := `INSERT INTO task_activity_logs (task_id, message, created_at) VALUES ($1, $2, $3)`
	_, err := s.db.ExecContext(ctx, query, entry.TaskID, entry.Message, entry.CreatedAt)
	return s.appendError(ctx, "activity", entry.TaskID, err)
}

// appendError turns a missing parent task into TaskNotFoundError.
func (s *PostgresTaskStore) appendError(ctx context.Context, kind string, taskID int64, err error) error {
	if err == nil {
		return nil
	}
	if IsForeignKeyViolation(err) {
		return store.NewTaskNotFoundError(taskID)
	}
	logger.FromContextOrDefault(ctx, s.logger).Error("failed to append "+kind,
		slog.Int64("task_id", taskID),
		slog.String("error", err.Error()))
	return MapError(err)
}

// ListComments implements store.TaskStore.ListComments
func (s *PostgresTaskStore) ListComments(ctx context.Context, taskID int64) ([]*domain.Comment, error) {
	query := `SELECT task_id, comment_text, created_at FROM task_comments WHERE task_id = $1 ORDER BY id`

	rows, err := s.db.QueryContext(ctx, query, taskID)
	if err != nil {
		return nil, MapError(err)
	}
	defer func() { _ = rows.Close() }()

	comments := make([]*domain.Comment, 0)
	for rows.Next() {
		var c domain.Comment
		if err := rows.Scan(&c.TaskID, &c.Text, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan comment row: %w", err)
		}
		comments = append(comments, &c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating comment rows: %w", err)
	}
	return comments, nil
}

// ListActivities implements store.TaskStore.ListActivities
func (s *PostgresTaskStore) ListActivities(ctx context.Context, taskID int64) ([]*domain.ActivityLog, error) {
	query := `SELECT task_id, message, created_at FROM task_activity_logs WHERE task_id = $1 ORDER BY id`

	rows, err := s.db.QueryContext(ctx, query, taskID)
	if err != nil {
		return nil, MapError(err)
	}
	defer func() { _ = rows.Close() }()

	entries := make([]*domain.ActivityLog, 0)
	for rows.Next() {
		var a domain.ActivityLog
		if err := rows.Scan(&a.TaskID, &a.Message, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan activity row: %w", err)
		}
		entries = append(entries, &a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating activity rows: %w", err)
	}
	return entries, nil
}

// WithinTx implements store.TaskStore.WithinTx. A store already bound to a
// transaction joins it instead of opening a nested one.
func (s *PostgresTaskStore) WithinTx(ctx context.Context, fn store.TxFunc) error {
	if s.sqlDB == nil {
		return fn(ctx, s)
	}
	return store.RunInTransaction(ctx, s.sqlDB, func(ctx context.Context, tx *sql.Tx) error {
		return fn(ctx, s.WithTx(tx))
	})
}

// ReadSnapshot implements store.TaskStore.ReadSnapshot with a read-only
// REPEATABLE READ transaction, so every statement sees the same snapshot.
// A store already bound to a transaction reads through it.
func (s *PostgresTaskStore) ReadSnapshot(ctx context.Context, fn store.TxFunc) error {
	if s.sqlDB == nil {
		return fn(ctx, s)
	}
	opts := &sql.TxOptions{Isolation: sql.LevelRepeatableRead, ReadOnly: true}
	return store.RunInTransactionWithOptions(ctx, s.sqlDB, opts, func(ctx context.Context, tx *sql.Tx) error {
		return fn(ctx, s.WithTx(tx))
	})
}

// LockTuple implements store.TaskStore.LockTuple with a transaction-scoped
// advisory lock, released automatically on commit or rollback. On the root
// store the lock would be released as soon as it was taken, so the call is
// rejected.
func (s *PostgresTaskStore) LockTuple(ctx context.Context, key store.TupleKey) error {
	if s.sqlDB != nil {
		return fmt.Errorf("%w: lock tuple %s", store.ErrNotInTransaction, key)
	}
	if _, err := s.db.ExecContext(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, key.String()); err != nil {
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to acquire tuple lock",
			slog.String("tuple", key.String()),
			slog.String("error", err.Error()))
		return fmt.Errorf("failed to lock %s: %w", key, err)
	}
	return nil
}

func (s *PostgresTaskStore) queryTasks(ctx context.Context, query string, args ...any) ([]*domain.Task, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		log.Error("failed to query tasks", slog.String("error", err.Error()))
		return nil, MapError(err)
	}
	defer func() { _ = rows.Close() }()

	tasks := make([]*domain.Task, 0)
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			log.Error("failed to scan task row", slog.String("error", err.Error()))
			return nil, fmt.Errorf("failed to scan task row: %w", err)
		}
		tasks = append(tasks, task)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating task rows: %w", err)
	}
	return tasks, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTask(row rowScanner) (*domain.Task, error) {
	var task domain.Task
	var referenceType, taskType, priority, status string
	err := row.Scan(
		&task.ID,
		&task.ReferenceID,
		&referenceType,
		&taskType,
		&task.AssigneeID,
		&priority,
		&status,
		&task.Deadline,
		&task.Description,
	)
	if err != nil {
		return nil, err
	}
	task.ReferenceType = domain.ReferenceType(referenceType)
	task.TaskType = domain.TaskType(taskType)
	task.Priority = domain.Priority(priority)
	task.Status = domain.TaskStatus(status)
	return &task, nil
}
