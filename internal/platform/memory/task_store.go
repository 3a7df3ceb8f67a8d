// Package memory provides the in-process implementation of store.TaskStore.
package memory

import (
	"cmp"
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"github.com/phrazzld/workforce-api/internal/domain"
	"github.com/phrazzld/workforce-api/internal/platform/logger"
	"github.com/phrazzld/workforce-api/internal/store"
)

// TaskStore keeps tasks, comments and activity entries in maps guarded by a
// single RWMutex. Every record crosses the API boundary as a copy.
//
// WithinTx and ReadSnapshot hold the lock for the whole callback, so the
// callback must only use the store it is handed; calling back into the outer
// TaskStore from inside either deadlocks.
type TaskStore struct {
	mu     sync.RWMutex
	data   *dataset
	logger *slog.Logger
}

// NewTaskStore creates an empty store. If logger is nil, slog.Default() is used.
func NewTaskStore(logger *slog.Logger) *TaskStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &TaskStore{
		data:   newDataset(),
		logger: logger.With(slog.String("component", "memory_task_store")),
	}
}

// Ensure TaskStore implements store.TaskStore interface
var _ store.TaskStore = (*TaskStore)(nil)

// GetByID implements store.TaskStore.GetByID
func (s *TaskStore) GetByID(ctx context.Context, id int64) (*domain.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.data.get(id)
}

// Save implements store.TaskStore.Save
func (s *TaskStore) Save(ctx context.Context, task *domain.Task) (*domain.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	saved, err := s.data.save(task)
	if err != nil {
		logger.FromContextOrDefault(ctx, s.logger).Debug("task save rejected",
			slog.String("error", err.Error()))
		return nil, err
	}
	return saved, nil
}

// List implements store.TaskStore.List
func (s *TaskStore) List(ctx context.Context) ([]*domain.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.data.filter(func(*domain.Task) bool { return true }), nil
}

// ListByReference implements store.TaskStore.ListByReference
func (s *TaskStore) ListByReference(
	ctx context.Context,
	referenceID int64,
	referenceType domain.ReferenceType,
) ([]*domain.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.data.byReference(referenceID, referenceType), nil
}

// ListByAssignees implements store.TaskStore.ListByAssignees
func (s *TaskStore) ListByAssignees(ctx context.Context, assigneeIDs []int64) ([]*domain.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.data.byAssignees(assigneeIDs), nil
}

// ListByPriority implements store.TaskStore.ListByPriority
func (s *TaskStore) ListByPriority(ctx context.Context, priority domain.Priority) ([]*domain.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.data.filter(func(t *domain.Task) bool { return t.Priority == priority }), nil
}

// AppendComment implements store.TaskStore.AppendComment
func (s *TaskStore) AppendComment(ctx context.Context, comment *domain.Comment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.data.appendComment(comment)
}

// AppendActivity implements store.TaskStore.AppendActivity
func (s *TaskStore) AppendActivity(ctx context.Context, entry *domain.ActivityLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.data.appendActivity(entry)
}

// ListComments implements store.TaskStore.ListComments
func (s *TaskStore) ListComments(ctx context.Context, taskID int64) ([]*domain.Comment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.data.comments(taskID), nil
}

// ListActivities implements store.TaskStore.ListActivities
func (s *TaskStore) ListActivities(ctx context.Context, taskID int64) ([]*domain.ActivityLog, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.data.activities(taskID), nil
}

// WithinTx implements store.TaskStore.WithinTx. The callback runs under the
// write lock against the live dataset; every write it makes is recorded in
// an undo log that is replayed in reverse when the callback fails.
func (s *TaskStore) WithinTx(ctx context.Context, fn store.TxFunc) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	s.mu.Lock()
	defer s.mu.Unlock()

	tx := &txStore{data: s.data, writable: true, startID: s.data.nextID}
	if err := fn(ctx, tx); err != nil {
		undone := tx.rollback()
		log.Debug("rolled back transaction due to error",
			slog.String("error", err.Error()),
			slog.Int("undone_writes", undone))
		return err
	}
	return nil
}

// ReadSnapshot implements store.TaskStore.ReadSnapshot. The read lock is held
// for the whole callback, so writers wait until it returns.
func (s *TaskStore) ReadSnapshot(ctx context.Context, fn store.TxFunc) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return fn(ctx, &txStore{data: s.data})
}

// LockTuple implements store.TaskStore.LockTuple. Tuple locks only exist
// inside WithinTx.
func (s *TaskStore) LockTuple(ctx context.Context, key store.TupleKey) error {
	return fmt.Errorf("%w: lock tuple %s", store.ErrNotInTransaction, key)
}

// txStore is the view handed to WithinTx and ReadSnapshot callbacks. The
// enclosing TaskStore already holds the lock, so it touches the dataset
// directly. Read-only views reject writes.
type txStore struct {
	data     *dataset
	writable bool
	startID  int64
	undo     []func(*dataset)
}

var _ store.TaskStore = (*txStore)(nil)

func (t *txStore) checkWritable() error {
	if !t.writable {
		return store.ErrReadOnly
	}
	return nil
}

// rollback undoes the recorded writes newest first, restores the ID
// sequence and reports how many writes were undone.
func (t *txStore) rollback() int {
	n := len(t.undo)
	for i := n - 1; i >= 0; i-- {
		t.undo[i](t.data)
	}
	t.undo = nil
	t.data.nextID = t.startID
	return n
}

func (t *txStore) GetByID(ctx context.Context, id int64) (*domain.Task, error) {
	return t.data.get(id)
}

func (t *txStore) Save(ctx context.Context, task *domain.Task) (*domain.Task, error) {
	if err := t.checkWritable(); err != nil {
		return nil, err
	}

	var previous *domain.Task
	if task != nil {
		previous = t.data.tasks[task.ID]
	}
	saved, err := t.data.save(task)
	if err != nil {
		return nil, err
	}

	id := saved.ID
	if previous == nil {
		t.undo = append(t.undo, func(d *dataset) { delete(d.tasks, id) })
	} else {
		// save stores a fresh clone, so previous is never mutated
		t.undo = append(t.undo, func(d *dataset) { d.tasks[id] = previous })
	}
	return saved, nil
}

func (t *txStore) List(ctx context.Context) ([]*domain.Task, error) {
	return t.data.filter(func(*domain.Task) bool { return true }), nil
}

func (t *txStore) ListByReference(
	ctx context.Context,
	referenceID int64,
	referenceType domain.ReferenceType,
) ([]*domain.Task, error) {
	return t.data.byReference(referenceID, referenceType), nil
}

func (t *txStore) ListByAssignees(ctx context.Context, assigneeIDs []int64) ([]*domain.Task, error) {
	return t.data.byAssignees(assigneeIDs), nil
}

func (t *txStore) ListByPriority(ctx context.Context, priority domain.Priority) ([]*domain.Task, error) {
	return t.data.filter(func(task *domain.Task) bool { return task.Priority == priority }), nil
}

func (t *txStore) AppendComment(ctx context.Context, comment *domain.Comment) error {
	if err := t.checkWritable(); err != nil {
		return err
	}
	if err := t.data.appendComment(comment); err != nil {
		return err
	}
	taskID := comment.TaskID
	t.undo = append(t.undo, func(d *dataset) { d.commentLog[taskID] = dropLast(d.commentLog[taskID]) })
	return nil
}

func (t *txStore) AppendActivity(ctx context.Context, entry *domain.ActivityLog) error {
	if err := t.checkWritable(); err != nil {
		return err
	}
	if err := t.data.appendActivity(entry); err != nil {
		return err
	}
	taskID := entry.TaskID
	t.undo = append(t.undo, func(d *dataset) { d.activityLog[taskID] = dropLast(d.activityLog[taskID]) })
	return nil
}

func (t *txStore) ListComments(ctx context.Context, taskID int64) ([]*domain.Comment, error) {
	return t.data.comments(taskID), nil
}

func (t *txStore) ListActivities(ctx context.Context, taskID int64) ([]*domain.ActivityLog, error) {
	return t.data.activities(taskID), nil
}

// WithinTx on a transaction view joins the enclosing transaction. A
// read-only view cannot be upgraded.
func (t *txStore) WithinTx(ctx context.Context, fn store.TxFunc) error {
	if err := t.checkWritable(); err != nil {
		return err
	}
	return fn(ctx, t)
}

// ReadSnapshot on a transaction view reads through the enclosing one.
func (t *txStore) ReadSnapshot(ctx context.Context, fn store.TxFunc) error {
	return fn(ctx, t)
}

// LockTuple holds nothing extra: the enclosing transaction is already
// exclusive. Read-only views are not transactions.
func (t *txStore) LockTuple(ctx context.Context, key store.TupleKey) error {
	return t.checkWritable()
}

// dropLast removes the newest entry of an append-only log.
func dropLast[T any](entries []T) []T {
	if len(entries) == 0 {
		return entries
	}
	return entries[:len(entries)-1]
}

// dataset is the unsynchronised state shared by TaskStore and txStore.
type dataset struct {
	nextID      int64
	tasks       map[int64]*domain.Task
	commentLog  map[int64][]domain.Comment
	activityLog map[int64][]domain.ActivityLog
}

func newDataset() *dataset {
	return &dataset{
		tasks:       make(map[int64]*domain.Task),
		commentLog:  make(map[int64][]domain.Comment),
		activityLog: make(map[int64][]domain.ActivityLog),
	}
}

func (d *dataset) get(id int64) (*domain.Task, error) {
	t, ok := d.tasks[id]
	if !ok {
		return nil, store.NewTaskNotFoundError(id)
	}
	return t.Clone(), nil
}

func (d *dataset) save(task *domain.Task) (*domain.Task, error) {
	if task == nil {
		return nil, fmt.Errorf("%w: nil task", store.ErrInvalidEntity)
	}
	if err := task.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", store.ErrInvalidEntity, err)
	}

	stored := task.Clone()
	if stored.ID == 0 {
		d.nextID++
		stored.ID = d.nextID
	} else if _, ok := d.tasks[stored.ID]; !ok {
		return nil, store.NewTaskNotFoundError(stored.ID)
	}

	d.tasks[stored.ID] = stored
	return stored.Clone(), nil
}

func (d *dataset) filter(keep func(*domain.Task) bool) []*domain.Task {
	out := make([]*domain.Task, 0)
	for _, t := range d.tasks {
		if keep(t) {
			out = append(out, t.Clone())
		}
	}
	slices.SortFunc(out, func(a, b *domain.Task) int { return cmp.Compare(a.ID, b.ID) })
	return out
}

func (d *dataset) byReference(referenceID int64, referenceType domain.ReferenceType) []*domain.Task {
	return d.filter(func(t *domain.Task) bool {
		return t.ReferenceID == referenceID && t.ReferenceType == referenceType
	})
}

func (d *dataset) byAssignees(assigneeIDs []int64) []*domain.Task {
	wanted := make(map[int64]bool, len(assigneeIDs))
	for _, id := range assigneeIDs {
		wanted[id] = true
	}
	return d.filter(func(t *domain.Task) bool { return wanted[t.AssigneeID] })
}

func (d *dataset) appendComment(c *domain.Comment) error {
	if c == nil {
		return fmt.Errorf("%w: nil comment", store.ErrInvalidEntity)
	}
	if _, ok := d.tasks[c.TaskID]; !ok {
		return store.NewTaskNotFoundError(c.TaskID)
	}
	d.commentLog[c.TaskID] = append(d.commentLog[c.TaskID], *c)
	return nil
}

func (d *dataset) appendActivity(a *domain.ActivityLog) error {
	if a == nil {
		return fmt.Errorf("%w: nil activity entry", store.ErrInvalidEntity)
	}
	if _, ok := d.tasks[a.TaskID]; !ok {
		return store.NewTaskNotFoundError(a.TaskID)
	}
	d.activityLog[a.TaskID] = append(d.activityLog[a.TaskID], *a)
	return nil
}

func (d *dataset) comments(taskID int64) []*domain.Comment {
	src := d.commentLog[taskID]
	out := make([]*domain.Comment, 0, len(src))
	for i := range src {
		c := src[i]
		out = append(out, &c)
	}
	return out
}

func (d *dataset) activities(taskID int64) []*domain.ActivityLog {
	src := d.activityLog[taskID]
	out := make([]*domain.ActivityLog, 0, len(src))
	for i := range src {
		a := src[i]
		out = append(out, &a)
	}
	return out
}
