// Package logger provides structured logging functionality for the application.
//
// It configures a log/slog JSON logger from the server configuration and
// carries request-scoped loggers through context.Context so that trace ids
// and component names follow a request from the HTTP layer down to the
// store.
package logger
