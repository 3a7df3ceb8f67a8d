package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/phrazzld/workforce-api/internal/domain"
	"github.com/phrazzld/workforce-api/internal/events"
	"github.com/phrazzld/workforce-api/internal/platform/logger"
	"github.com/phrazzld/workforce-api/internal/store"
)

// reconciliation is the outcome of one task type's pass, kept so events can
// be emitted once the transaction has committed.
type reconciliation struct {
	cancelled []*domain.Task
	assigned  *domain.Task
}

// AssignByReference implements TaskService.AssignByReference.
//
// For each task type the registry requires, every active task of the
// (reference, type) tuple is cancelled and one new ASSIGNED task is created
// for assigneeID. All types are reconciled in one store transaction while
// holding the tuple locks, so no two active tasks of a tuple are ever
// observable together.
func (s *taskServiceImpl) AssignByReference(
	ctx context.Context,
	referenceID int64,
	referenceType domain.ReferenceType,
	assigneeID int64,
) (string, error) {
	log := logger.FromContextOrDefault(ctx, s.logger).With(
		slog.Int64("reference_id", referenceID),
		slog.String("reference_type", string(referenceType)),
		slog.Int64("assignee_id", assigneeID))

	confirmation := fmt.Sprintf("Tasks assigned successfully for reference %d", referenceID)

	if referenceID <= 0 {
		return "", domain.NewValidationError("reference_id", "must be positive", domain.ErrTaskReferenceIDInvalid)
	}
	if assigneeID <= 0 {
		return "", domain.NewValidationError("assignee_id", "must be positive", domain.ErrTaskAssigneeInvalid)
	}

	taskTypes := s.registry.TaskTypes(referenceType)
	if len(taskTypes) == 0 {
		log.Warn("reference type requires no task types; nothing to assign")
		return confirmation, nil
	}

	keys := make([]store.TupleKey, len(taskTypes))
	names := make([]string, len(taskTypes))
	for i, taskType := range taskTypes {
		keys[i] = store.TupleKey{ReferenceID: referenceID, ReferenceType: referenceType, TaskType: taskType}
		names[i] = keys[i].String()
	}

	unlock := s.locks.LockAll(names)
	defer unlock()

	var results []reconciliation
	err := s.store.WithinTx(ctx, func(ctx context.Context, tx store.TaskStore) error {
		results = results[:0]

		for _, key := range keys {
			if err := tx.LockTuple(ctx, key); err != nil {
				return err
			}
		}

		existing, err := tx.ListByReference(ctx, referenceID, referenceType)
		if err != nil {
			return err
		}

		for _, key := range keys {
			result, err := s.reconcile(ctx, tx, key, existing, assigneeID)
			if err != nil {
				return err
			}
			results = append(results, result)
		}
		return nil
	})
	if err != nil {
		log.Error("assignment by reference failed", slog.String("error", err.Error()))
		return "", NewTaskServiceError("assign_by_reference", "failed to reconcile tasks", err)
	}

	cancelled := 0
	for _, result := range results {
		cancelled += len(result.cancelled)
		for _, task := range result.cancelled {
			s.emit(ctx, events.TaskCancelled, task, domain.SupersededMessage(assigneeID))
		}
		s.emit(ctx, events.TaskAssigned, result.assigned, domain.AssignedMessage(assigneeID))
	}

	log.Info("tasks assigned by reference",
		slog.Int("task_types", len(results)),
		slog.Int("cancelled", cancelled))
	return confirmation, nil
}

// reconcile cancels the active tasks of one tuple and creates the
// replacement assignment.
func (s *taskServiceImpl) reconcile(
	ctx context.Context,
	tx store.TaskStore,
	key store.TupleKey,
	existing []*domain.Task,
	assigneeID int64,
) (reconciliation, error) {
	var result reconciliation
	now := s.now()

	for _, task := range existing {
		if task.TaskType != key.TaskType || !task.Cancel() {
			continue
		}
		saved, err := tx.Save(ctx, task)
		if err != nil {
			return result, err
		}
		result.cancelled = append(result.cancelled, saved)
	}

	fresh, err := domain.NewTask(
		key.ReferenceID,
		key.ReferenceType,
		key.TaskType,
		assigneeID,
		domain.PriorityMedium,
		domain.DueIn(now, s.horizon),
	)
	if err != nil {
		return result, err
	}
	if result.assigned, err = tx.Save(ctx, fresh); err != nil {
		return result, err
	}

	superseded := domain.SupersededMessage(assigneeID)
	for _, task := range result.cancelled {
		if err := tx.AppendActivity(ctx, domain.NewActivityLog(task.ID, superseded, now)); err != nil {
			return result, err
		}
	}
	if err := tx.AppendActivity(ctx, domain.NewActivityLog(
		result.assigned.ID, domain.AssignedMessage(assigneeID), now)); err != nil {
		return result, err
	}

	logger.FromContextOrDefault(ctx, s.logger).Debug("tuple reconciled",
		slog.String("tuple", key.String()),
		slog.Int("cancelled", len(result.cancelled)),
		slog.Int64("task_id", result.assigned.ID))
	return result, nil
}
