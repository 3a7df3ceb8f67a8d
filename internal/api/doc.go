// Package api exposes the task service over HTTP. Handlers decode and
// validate JSON requests, call service.TaskService, and render results
// through the presenter package. All error responses go through
// HandleAPIError so status codes and messages are decided in one place.
package api
