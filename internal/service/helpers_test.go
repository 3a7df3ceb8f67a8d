package service

import (
	"context"
	"sync"
	"time"

	"github.com/phrazzld/workforce-api/internal/domain"
	"github.com/phrazzld/workforce-api/internal/events"
	"github.com/phrazzld/workforce-api/internal/platform/logger"
	"github.com/phrazzld/workforce-api/internal/platform/memory"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2024, time.March, 1, 10, 0, 0, 0, time.UTC)

// eventRecorder collects every emitted event.
type eventRecorder struct {
	mu     sync.Mutex
	events []*events.TaskEvent
}

func (r *eventRecorder) HandleEvent(ctx context.Context, event *events.TaskEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
	return nil
}

func (r *eventRecorder) types() []events.EventType {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]events.EventType, 0, len(r.events))
	for _, e := range r.events {
		out = append(out, e.Type)
	}
	return out
}

type fixture struct {
	svc    TaskService
	store  *memory.TaskStore
	events *eventRecorder
}

func newFixture(t require.TestingT, opts ...Option) fixture {
	taskStore := memory.NewTaskStore(logger.Discard())
	recorder := &eventRecorder{}
	emitter := events.NewInMemoryEventEmitter(logger.Discard())
	emitter.RegisterHandler(recorder)

	opts = append([]Option{WithClock(func() time.Time { return fixedNow })}, opts...)
	svc, err := NewTaskService(taskStore, domain.DefaultRegistry(), emitter, logger.Discard(), opts...)
	require.NoError(t, err)

	return fixture{svc: svc, store: taskStore, events: recorder}
}

// seed stores a task exactly as given, bypassing the service.
func (f fixture) seed(
	t require.TestingT,
	refID int64,
	refType domain.ReferenceType,
	taskType domain.TaskType,
	assignee int64,
	status domain.TaskStatus,
	deadline int64,
) *domain.Task {
	saved, err := f.store.Save(context.Background(), &domain.Task{
		ReferenceID:   refID,
		ReferenceType: refType,
		TaskType:      taskType,
		AssigneeID:    assignee,
		Priority:      domain.PriorityLow,
		Status:        status,
		Deadline:      deadline,
		Description:   domain.DefaultDescription,
	})
	require.NoError(t, err)
	return saved
}

// tuple returns every stored task of one (reference, type, task type).
func (f fixture) tuple(
	t require.TestingT,
	refID int64,
	refType domain.ReferenceType,
	taskType domain.TaskType,
) []*domain.Task {
	all, err := f.store.ListByReference(context.Background(), refID, refType)
	require.NoError(t, err)
	out := make([]*domain.Task, 0, len(all))
	for _, task := range all {
		if task.TaskType == taskType {
			out = append(out, task)
		}
	}
	return out
}

func countStatus(tasks []*domain.Task, status domain.TaskStatus) int {
	n := 0
	for _, task := range tasks {
		if task.Status == status {
			n++
		}
	}
	return n
}

func ids(tasks []*domain.Task) []int64 {
	out := make([]int64, 0, len(tasks))
	for _, task := range tasks {
		out = append(out, task.ID)
	}
	return out
}

func ptr[T any](v T) *T {
	return &v
}
