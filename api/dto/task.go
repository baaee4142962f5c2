package dto

import (
	"encoding/json"
	"errors"
)

var ErrTaskNotFound = errors.New("task not found")

// CreateTaskResponse is returned as soon as the upload is queued.
type CreateTaskResponse struct {
	ProcessID string `json:"process_id"`
	Status    string `json:"status"`
}

type TaskResponse struct {
	ProcessID string          `json:"process_id"`
	Status    string          `json:"status"`
	Stage     string          `json:"stage,omitempty"`
	Error     string          `json:"error,omitempty"`
	Result    json.RawMessage `json:"result,omitempty"`
	UpdatedAt string          `json:"updated_at,omitempty"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	TraceID string `json:"trace_id,omitempty"`
}
