package api

// Request payloads. Enumerated values are checked here so that malformed
// requests are rejected before they reach the service.

// CreateTaskItem describes one task to create. Status and Description are
// accepted for compatibility with existing clients but ignored: new tasks
// always start ASSIGNED with the default description.
type CreateTaskItem struct {
	ReferenceID   int64  `json:"reference_id"       validate:"required,gt=0"`
	ReferenceType string `json:"reference_type"     validate:"required"`
	Task          string `json:"task"               validate:"required"`
	AssigneeID    int64  `json:"assignee_id"        validate:"required,gt=0"`
	Priority      string `json:"priority"           validate:"required,oneof=LOW MEDIUM HIGH"`
	Deadline      int64  `json:"task_deadline_time" validate:"gte=0"`
	Status        string `json:"status,omitempty"`
	Description   string `json:"description,omitempty"`
}

// CreateTasksRequest is the body of POST /api/tasks.
type CreateTasksRequest struct {
	Requests []CreateTaskItem `json:"requests" validate:"required,min=1,dive"`
}

// UpdateTaskItem is a partial update; omitted fields are left unchanged.
type UpdateTaskItem struct {
	TaskID      int64   `json:"task_id"     validate:"required,gt=0"`
	Status      *string `json:"task_status" validate:"omitempty,oneof=ASSIGNED IN_PROGRESS COMPLETED CANCELLED"`
	Description *string `json:"description"`
}

// UpdateTasksRequest is the body of PATCH /api/tasks.
type UpdateTasksRequest struct {
	Requests []UpdateTaskItem `json:"requests" validate:"required,min=1,dive"`
}

// AssignByReferenceRequest is the body of POST /api/tasks/assign-by-reference.
type AssignByReferenceRequest struct {
	ReferenceID   int64  `json:"reference_id"   validate:"required,gt=0"`
	ReferenceType string `json:"reference_type" validate:"required"`
	AssigneeID    int64  `json:"assignee_id"    validate:"required,gt=0"`
}

// FetchByDateRequest is the body of POST /api/tasks/fetch-by-date.
type FetchByDateRequest struct {
	AssigneeIDs []int64 `json:"assignee_ids" validate:"omitempty,dive,gt=0"`
	StartDate   int64   `json:"start_date"   validate:"gte=0"`
	EndDate     int64   `json:"end_date"     validate:"gte=0"`

	// Strict limits results to deadlines inside the window.
	Strict bool `json:"strict"`
}

// UpdatePriorityRequest is the body of PUT /api/tasks/{id}/priority.
type UpdatePriorityRequest struct {
	Priority string `json:"priority" validate:"required,oneof=LOW MEDIUM HIGH"`
}

// AddCommentRequest is the body of POST /api/tasks/{id}/comments.
type AddCommentRequest struct {
	Text string `json:"comment_text" validate:"required"`
}
