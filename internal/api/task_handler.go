package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/phrazzld/workforce-api/internal/api/shared"
	"github.com/phrazzld/workforce-api/internal/domain"
	"github.com/phrazzld/workforce-api/internal/platform/logger"
	"github.com/phrazzld/workforce-api/internal/presenter"
	"github.com/phrazzld/workforce-api/internal/service"
)

// TaskHandler handles task-related HTTP requests
type TaskHandler struct {
	taskService service.TaskService
	formatter   *presenter.Formatter
	logger      *slog.Logger
}

// NewTaskHandler creates a new TaskHandler
func NewTaskHandler(
	taskService service.TaskService,
	formatter *presenter.Formatter,
	logger *slog.Logger,
) *TaskHandler {
	if taskService == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("taskService cannot be nil for TaskHandler")
	}
	if formatter == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("formatter cannot be nil for TaskHandler")
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &TaskHandler{
		taskService: taskService,
		formatter:   formatter,
		logger:      logger.With(slog.String("component", "task_handler")),
	}
}

// RegisterRoutes mounts every task endpoint on r. Static segments are
// registered before the {id} patterns they would otherwise shadow.
func (h *TaskHandler) RegisterRoutes(r chi.Router) {
	r.Post("/tasks", h.CreateTasks)
	r.Patch("/tasks", h.UpdateTasks)
	r.Post("/tasks/assign-by-reference", h.AssignByReference)
	r.Post("/tasks/fetch-by-date", h.FetchTasksByDate)
	r.Get("/tasks/priority/{priority}", h.GetTasksByPriority)
	r.Get("/tasks/{id}", h.GetTask)
	r.Put("/tasks/{id}/priority", h.UpdateTaskPriority)
	r.Post("/tasks/{id}/comments", h.AddComment)
	r.Get("/tasks/{id}/details", h.GetTaskDetails)
}

// GetTask handles GET /api/tasks/{id}
func (h *TaskHandler) GetTask(w http.ResponseWriter, r *http.Request) {
	id, err := getPathID(r, "id")
	if err != nil {
		HandleValidationError(w, r, err)
		return
	}

	task, err := h.taskService.FindTaskByID(r.Context(), id)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to get task")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, h.formatter.Task(task))
}

// CreateTasks handles POST /api/tasks
func (h *TaskHandler) CreateTasks(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	var req CreateTasksRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	items := make([]service.CreateTaskInput, 0, len(req.Requests))
	for _, item := range req.Requests {
		if item.Status != "" || item.Description != "" {
			log.Debug("ignoring status and description on create",
				slog.Int64("reference_id", item.ReferenceID))
		}
		items = append(items, service.CreateTaskInput{
			ReferenceID:   item.ReferenceID,
			ReferenceType: domain.ReferenceType(item.ReferenceType),
			TaskType:      domain.TaskType(item.Task),
			AssigneeID:    item.AssigneeID,
			Priority:      domain.Priority(item.Priority),
			Deadline:      item.Deadline,
		})
	}

	created, err := h.taskService.CreateTasks(r.Context(), items)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to create tasks")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusCreated, h.formatter.Tasks(created))
}

// UpdateTasks handles PATCH /api/tasks
func (h *TaskHandler) UpdateTasks(w http.ResponseWriter, r *http.Request) {
	var req UpdateTasksRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	items := make([]service.UpdateTaskInput, 0, len(req.Requests))
	for _, item := range req.Requests {
		input := service.UpdateTaskInput{TaskID: item.TaskID, Description: item.Description}
		if item.Status != nil {
			status := domain.TaskStatus(*item.Status)
			input.Status = &status
		}
		items = append(items, input)
	}

	updated, err := h.taskService.UpdateTasks(r.Context(), items)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to update tasks")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, h.formatter.Tasks(updated))
}

// AssignByReference handles POST /api/tasks/assign-by-reference
func (h *TaskHandler) AssignByReference(w http.ResponseWriter, r *http.Request) {
	var req AssignByReferenceRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	msg, err := h.taskService.AssignByReference(
		r.Context(),
		req.ReferenceID,
		domain.ReferenceType(req.ReferenceType),
		req.AssigneeID,
	)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to assign tasks")
		return
	}

	shared.RespondWithMessage(w, r, msg)
}

// FetchTasksByDate handles POST /api/tasks/fetch-by-date
func (h *TaskHandler) FetchTasksByDate(w http.ResponseWriter, r *http.Request) {
	var req FetchByDateRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	tasks, err := h.taskService.FetchTasksByDate(r.Context(), service.FetchTasksQuery{
		AssigneeIDs: req.AssigneeIDs,
		Start:       req.StartDate,
		End:         req.EndDate,
		Strict:      req.Strict,
	})
	if err != nil {
		HandleAPIError(w, r, err, "Failed to fetch tasks")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, h.formatter.Tasks(tasks))
}

// GetTasksByPriority handles GET /api/tasks/priority/{priority}
func (h *TaskHandler) GetTasksByPriority(w http.ResponseWriter, r *http.Request) {
	priority, err := domain.ParsePriority(chi.URLParam(r, "priority"))
	if err != nil {
		HandleValidationError(w, r, err)
		return
	}

	tasks, err := h.taskService.GetTasksByPriority(r.Context(), priority)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to list tasks")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, h.formatter.Tasks(tasks))
}

// UpdateTaskPriority handles PUT /api/tasks/{id}/priority
func (h *TaskHandler) UpdateTaskPriority(w http.ResponseWriter, r *http.Request) {
	id, err := getPathID(r, "id")
	if err != nil {
		HandleValidationError(w, r, err)
		return
	}

	var req UpdatePriorityRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	msg, err := h.taskService.UpdateTaskPriority(r.Context(), id, domain.Priority(req.Priority))
	if err != nil {
		HandleAPIError(w, r, err, "Failed to update priority")
		return
	}

	shared.RespondWithMessage(w, r, msg)
}

// AddComment handles POST /api/tasks/{id}/comments
func (h *TaskHandler) AddComment(w http.ResponseWriter, r *http.Request) {
	id, err := getPathID(r, "id")
	if err != nil {
		HandleValidationError(w, r, err)
		return
	}

	var req AddCommentRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	msg, err := h.taskService.AddComment(r.Context(), id, req.Text)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to add comment")
		return
	}

	shared.RespondWithMessage(w, r, msg)
}

// GetTaskDetails handles GET /api/tasks/{id}/details
func (h *TaskHandler) GetTaskDetails(w http.ResponseWriter, r *http.Request) {
	id, err := getPathID(r, "id")
	if err != nil {
		HandleValidationError(w, r, err)
		return
	}

	details, err := h.taskService.GetTaskDetails(r.Context(), id)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to get task details")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, h.formatter.Details(details))
}
