// Package service contains the task lifecycle engine. It orchestrates the
// domain model and the task store (defined in internal/store) to fulfil the
// operations exposed by the API.
//
// Key components:
//
// 1. TaskService:
//   - Creation, partial update, priority change and comments for single tasks
//   - Assignment by reference, which reconciles every task type a reference
//     type requires so that exactly one task per type stays active
//   - Selection of tasks for a deadline window, including overdue open work
//
// 2. Concurrency:
//   - A KeyedMutex serialises reconciliation per (reference, type, task type)
//     tuple inside the process
//   - Store transactions add LockTuple so SQL backends serialise across
//     processes
//
// 3. Error Handling:
//   - Validation failures are returned as *domain.ValidationError
//   - Missing tasks surface as store.ErrTaskNotFound
//   - Everything else is wrapped in *TaskServiceError with the failing operation
//
// Services receive the store, the task-type registry and an event emitter
// through constructor injection and never depend on a storage implementation.
package service
