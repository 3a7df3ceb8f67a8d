package store

import (
	"context"
	"fmt"

	"github.com/phrazzld/workforce-api/internal/domain"
)

// TupleKey identifies the unit of mutual exclusion for reconciliation: all
// tasks of one task type serving one reference.
type TupleKey struct {
	ReferenceID   int64
	ReferenceType domain.ReferenceType
	TaskType      domain.TaskType
}

// String renders the key in a stable form usable as a lock name.
func (k TupleKey) String() string {
	return fmt.Sprintf("%d|%s|%s", k.ReferenceID, k.ReferenceType, k.TaskType)
}

// TxFunc runs inside a store transaction. The store it receives must be used
// for every read and write that belongs to the unit of work.
type TxFunc func(ctx context.Context, tx TaskStore) error

// TaskStore defines the interface for task, comment and activity persistence.
// All list results are ordered by ascending task ID (tasks) or insertion
// order (comments, activities). Returned records are copies.
type TaskStore interface {
	// GetByID retrieves a task by its ID.
	// Returns a *TaskNotFoundError (matching ErrTaskNotFound) if it does not exist.
	GetByID(ctx context.Context, id int64) (*domain.Task, error)

	// Save inserts the task when its ID is zero, assigning a new ID, and
	// otherwise replaces the stored task with the same ID.
	// Returns ErrTaskNotFound when updating an ID that does not exist.
	Save(ctx context.Context, task *domain.Task) (*domain.Task, error)

	// List returns every task.
	List(ctx context.Context) ([]*domain.Task, error)

	// ListByReference returns the tasks serving one reference.
	ListByReference(ctx context.Context, referenceID int64, referenceType domain.ReferenceType) ([]*domain.Task, error)

	// ListByAssignees returns the tasks assigned to any of the given assignees.
	ListByAssignees(ctx context.Context, assigneeIDs []int64) ([]*domain.Task, error)

	// ListByPriority returns the tasks with the given priority.
	ListByPriority(ctx context.Context, priority domain.Priority) ([]*domain.Task, error)

	// AppendComment stores a comment. Comments are never updated or removed.
	AppendComment(ctx context.Context, comment *domain.Comment) error

	// AppendActivity stores an activity entry. Entries are never updated or removed.
	AppendActivity(ctx context.Context, entry *domain.ActivityLog) error

	// ListComments returns a task's comments in insertion order.
	ListComments(ctx context.Context, taskID int64) ([]*domain.Comment, error)

	// ListActivities returns a task's activity entries in insertion order.
	ListActivities(ctx context.Context, taskID int64) ([]*domain.ActivityLog, error)

	// WithinTx runs fn as one all-or-nothing unit of work. If fn returns an
	// error none of its writes are kept.
	WithinTx(ctx context.Context, fn TxFunc) error

	// ReadSnapshot runs fn against a read-only view in which every read
	// observes the same committed state. Writes through the view fail.
	ReadSnapshot(ctx context.Context, fn TxFunc) error

	// LockTuple blocks other transactions from reconciling the same tuple
	// until the current transaction ends. Called on a store that is not
	// bound to a transaction it returns ErrNotInTransaction.
	LockTuple(ctx context.Context, key TupleKey) error
}
