// Package store defines the persistence contract of the task service.
//
// TaskStore is the only way the lifecycle engine reaches stored tasks,
// comments and activity entries. Implementations live under
// internal/platform (an in-memory store and a PostgreSQL store) and must
// hand out copies, so callers can mutate what they read without touching
// stored state until they Save it.
package store
