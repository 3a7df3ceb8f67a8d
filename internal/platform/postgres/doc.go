// Package postgres provides the PostgreSQL implementation of store.TaskStore,
// the embedded goose migrations that create its schema, and connection helpers.
package postgres
