// Package events carries notifications about task lifecycle changes from the
// service layer to any number of handlers, such as the audit log wired in
// cmd/server. Services emit after the store write succeeds, so a handler never
// sees a change that was rolled back.
package events
