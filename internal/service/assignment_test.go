package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/phrazzld/workforce-api/internal/domain"
	"github.com/phrazzld/workforce-api/internal/events"
	"github.com/phrazzld/workforce-api/internal/platform/logger"
	"github.com/phrazzld/workforce-api/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestAssignByReference_ReassignDelivery(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	created, err := f.svc.CreateTasks(ctx, []CreateTaskInput{{
		ReferenceID: 10, ReferenceType: domain.ReferenceTypeDelivery, TaskType: "ARRANGE_DELIVERY",
		AssigneeID: 1, Priority: domain.PriorityHigh, Deadline: 1_000,
	}})
	require.NoError(t, err)
	require.Len(t, created, 1)

	msg, err := f.svc.AssignByReference(ctx, 10, domain.ReferenceTypeDelivery, 5)
	require.NoError(t, err)
	assert.Equal(t, "Tasks assigned successfully for reference 10", msg)

	_, err = f.svc.AssignByReference(ctx, 10, domain.ReferenceTypeDelivery, 7)
	require.NoError(t, err)

	tasks := f.tuple(t, 10, domain.ReferenceTypeDelivery, "ARRANGE_DELIVERY")
	require.Len(t, tasks, 3)
	assert.Equal(t, 1, countStatus(tasks, domain.TaskStatusAssigned))
	assert.Equal(t, 2, countStatus(tasks, domain.TaskStatusCancelled))

	assert.Equal(t, domain.TaskStatusCancelled, tasks[0].Status, "the created task was superseded")
	assert.Equal(t, int64(5), tasks[1].AssigneeID)
	assert.Equal(t, domain.TaskStatusCancelled, tasks[1].Status)
	assert.Equal(t, int64(7), tasks[2].AssigneeID)
	assert.Equal(t, domain.TaskStatusAssigned, tasks[2].Status)
	assert.Equal(t, domain.PriorityMedium, tasks[2].Priority)
	assert.Equal(t, domain.DefaultDescription, tasks[2].Description)
	assert.Equal(t, fixedNow.Add(DefaultAssignmentHorizon).UnixMilli(), tasks[2].Deadline)

	superseded, err := f.store.ListActivities(ctx, tasks[1].ID)
	require.NoError(t, err)
	require.Len(t, superseded, 2)
	assert.Equal(t, "Task assigned to assignee 5", superseded[0].Message)
	assert.Equal(t, "Task cancelled: superseded by reassignment to assignee 7", superseded[1].Message)

	assert.Equal(t, []events.EventType{
		events.TaskCreated,
		events.TaskCancelled, events.TaskAssigned,
		events.TaskCancelled, events.TaskAssigned,
	}, f.events.types())
}

func TestAssignByReference_OrderCreatesEveryRegisteredType(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	_, err := f.svc.AssignByReference(ctx, 3, domain.ReferenceTypeOrder, 9)
	require.NoError(t, err)

	all, err := f.store.ListByReference(ctx, 3, domain.ReferenceTypeOrder)
	require.NoError(t, err)
	require.Len(t, all, 3)

	want := []domain.TaskType{"CREATE_INVOICE", "ARRANGE_PICKUP", "COLLECT_PAYMENT"}
	for i, task := range all {
		assert.Equal(t, want[i], task.TaskType, "tasks are created in registry order")
		assert.Equal(t, int64(9), task.AssigneeID)
		assert.Equal(t, domain.TaskStatusAssigned, task.Status)
	}
}

func TestAssignByReference_LeavesCompletedAndOtherReferencesAlone(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	done := f.seed(t, 4, domain.ReferenceTypeEntity, "ASSIGN_CUSTOMER_TO_SALES_PERSON", 1, domain.TaskStatusCompleted, 10)
	inProgress := f.seed(t, 4, domain.ReferenceTypeEntity, "ASSIGN_CUSTOMER_TO_SALES_PERSON", 1, domain.TaskStatusInProgress, 10)
	otherRef := f.seed(t, 5, domain.ReferenceTypeEntity, "ASSIGN_CUSTOMER_TO_SALES_PERSON", 1, domain.TaskStatusAssigned, 10)
	otherType := f.seed(t, 4, domain.ReferenceTypeOrder, "CREATE_INVOICE", 1, domain.TaskStatusAssigned, 10)

	_, err := f.svc.AssignByReference(ctx, 4, domain.ReferenceTypeEntity, 2)
	require.NoError(t, err)

	for _, tc := range []struct {
		id   int64
		want domain.TaskStatus
	}{
		{done.ID, domain.TaskStatusCompleted},
		{inProgress.ID, domain.TaskStatusCancelled},
		{otherRef.ID, domain.TaskStatusAssigned},
		{otherType.ID, domain.TaskStatusAssigned},
	} {
		got, err := f.store.GetByID(ctx, tc.id)
		require.NoError(t, err)
		assert.Equal(t, tc.want, got.Status, "task %d", tc.id)
	}

	activities, err := f.store.ListActivities(ctx, done.ID)
	require.NoError(t, err)
	assert.Empty(t, activities, "terminal tasks get no superseded entry")
}

func TestAssignByReference_NoOps(t *testing.T) {
	ctx := context.Background()

	for _, refType := range []domain.ReferenceType{domain.ReferenceTypeEnquiry, "WAREHOUSE"} {
		t.Run(string(refType), func(t *testing.T) {
			f := newFixture(t)

			msg, err := f.svc.AssignByReference(ctx, 8, refType, 2)
			require.NoError(t, err)
			assert.Equal(t, "Tasks assigned successfully for reference 8", msg)

			all, err := f.store.List(ctx)
			require.NoError(t, err)
			assert.Empty(t, all)
			assert.Empty(t, f.events.types())
		})
	}
}

func TestAssignByReference_InvalidInput(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	_, err := f.svc.AssignByReference(ctx, 0, domain.ReferenceTypeOrder, 2)
	assert.ErrorIs(t, err, domain.ErrTaskReferenceIDInvalid)

	_, err = f.svc.AssignByReference(ctx, 1, domain.ReferenceTypeOrder, -1)
	assert.ErrorIs(t, err, domain.ErrValidation)
	assert.ErrorIs(t, err, domain.ErrTaskAssigneeInvalid)
}

func TestAssignByReference_CustomHorizon(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, WithAssignmentHorizon(2*time.Hour))

	_, err := f.svc.AssignByReference(ctx, 1, domain.ReferenceTypeDelivery, 3)
	require.NoError(t, err)

	tasks := f.tuple(t, 1, domain.ReferenceTypeDelivery, "ARRANGE_DELIVERY")
	require.Len(t, tasks, 1)
	assert.Equal(t, fixedNow.Add(2*time.Hour).UnixMilli(), tasks[0].Deadline)
}

func TestAssignByReference_StoreFailure(t *testing.T) {
	ctx := context.Background()
	m := &MockTaskStore{}
	lockErr := errors.New("lock timeout")
	m.On("WithinTx", mock.Anything).Return(nil)
	m.On("LockTuple", mock.Anything, store.TupleKey{
		ReferenceID: 2, ReferenceType: domain.ReferenceTypeDelivery, TaskType: "ARRANGE_DELIVERY",
	}).Return(lockErr)
	emitter := &MockEventEmitter{}

	svc, err := NewTaskService(m, domain.DefaultRegistry(), emitter, logger.Discard())
	require.NoError(t, err)

	_, err = svc.AssignByReference(ctx, 2, domain.ReferenceTypeDelivery, 3)
	var svcErr *TaskServiceError
	require.ErrorAs(t, err, &svcErr)
	assert.Equal(t, "assign_by_reference", svcErr.Operation)
	assert.ErrorIs(t, err, lockErr)

	m.AssertNotCalled(t, "ListByReference", mock.Anything, mock.Anything, mock.Anything)
	emitter.AssertNotCalled(t, "EmitEvent", mock.Anything, mock.Anything)
	m.AssertExpectations(t)
}

func TestAssignByReference_ConcurrentCallsLeaveOneActiveTask(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	const callers = 20
	var wg sync.WaitGroup
	errs := make(chan error, callers)
	for i := 1; i <= callers; i++ {
		wg.Add(1)
		go func(assignee int64) {
			defer wg.Done()
			_, err := f.svc.AssignByReference(ctx, 42, domain.ReferenceTypeOrder, assignee)
			errs <- err
		}(int64(i))
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		require.NoError(t, err)
	}

	for _, taskType := range domain.DefaultRegistry().TaskTypes(domain.ReferenceTypeOrder) {
		tasks := f.tuple(t, 42, domain.ReferenceTypeOrder, taskType)
		assert.Len(t, tasks, callers)
		active := countStatus(tasks, domain.TaskStatusAssigned) + countStatus(tasks, domain.TaskStatusInProgress)
		assert.Equal(t, 1, active, "task type %s", taskType)
		assert.True(t, tasks[len(tasks)-1].IsActive(), "the newest task is the active one")
	}
}
