// Package domain contains the task entities of the workforce service: tasks
// and their status machine, the append-only comment and activity records,
// and the registry deciding which task types a reference type requires.
// It has no knowledge of storage or transport.
package domain
