package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"go.uber.org/zap"

	"voicesearch/api/dto"
	"voicesearch/api/service"
	"voicesearch/api/validation"
	"voicesearch/pkg/logger"
	"voicesearch/pkg/middleware"
	"voicesearch/pkg/tasks"
)

type TaskService interface {
	CreateTask(ctx context.Context, audio []byte) (*dto.CreateTaskResponse, error)
	GetStatusTask(ctx context.Context, processID string) (*dto.TaskResponse, error)
}

type TaskHandler struct {
	service     TaskService
	logger      *zap.Logger
	maxFileSize int64
}

func NewTaskHandler(service TaskService, logger *zap.Logger, maxFileSize int64) *TaskHandler {
	return &TaskHandler{
		service:     service,
		logger:      logger,
		maxFileSize: maxFileSize,
	}
}

// Upload accepts a multipart "file" with the spoken query and answers 202
// with the process id to poll.
func (h *TaskHandler) Upload(w http.ResponseWriter, r *http.Request) {
	traceID := middleware.GetTraceID(r.Context())

	r.Body = http.MaxBytesReader(w, r.Body, h.maxFileSize+1<<20)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		h.handleError(w, r, "Failed to parse form", err, traceID, http.StatusBadRequest)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		h.handleError(w, r, "Failed to get file", err, traceID, http.StatusBadRequest)
		return
	}
	defer file.Close()

	fileType, err := validation.ValidateAudio(header.Filename, header.Size, h.maxFileSize, file)
	if err != nil {
		status := http.StatusBadRequest
		if errors.Is(err, validation.ErrFileTooLarge) {
			status = http.StatusRequestEntityTooLarge
		}
		h.handleError(w, r, "Invalid file", err, traceID, status)
		return
	}

	audio, err := io.ReadAll(file)
	if err != nil {
		h.handleError(w, r, "Failed to read file", err, traceID, http.StatusBadRequest)
		return
	}

	resp, err := h.service.CreateTask(r.Context(), audio)
	if err != nil {
		if errors.Is(err, service.ErrEnqueueFailed) {
			h.handleError(w, r, "Search queue unavailable", err, traceID, http.StatusServiceUnavailable)
			return
		}
		h.handleError(w, r, "Failed to create task", err, traceID, http.StatusInternalServerError)
		return
	}

	logger.FromContext(r.Context(), h.logger).Info("Audio uploaded",
		zap.String("process_id", resp.ProcessID),
		zap.String("filename", header.Filename),
		zap.String("file_type", string(fileType)),
	)

	h.respondJSON(w, http.StatusAccepted, resp)
}

// Result reports the task state: 200 with the result once completed, 202
// while in flight, 200 with the reason when dropped or failed.
func (h *TaskHandler) Result(w http.ResponseWriter, r *http.Request) {
	traceID := middleware.GetTraceID(r.Context())

	processID := r.URL.Query().Get("process_id")
	if processID == "" {
		h.handleError(w, r, "process_id is required", nil, traceID, http.StatusBadRequest)
		return
	}

	resp, err := h.service.GetStatusTask(r.Context(), processID)
	if err != nil {
		if errors.Is(err, dto.ErrTaskNotFound) {
			h.respondJSON(w, http.StatusNotFound, dto.TaskResponse{
				ProcessID: processID,
				Status:    string(tasks.StatusExpired),
				Error:     "task not found or expired",
			})
			return
		}
		h.handleError(w, r, "Failed to get task status", err, traceID, http.StatusInternalServerError)
		return
	}

	status := http.StatusOK
	if !tasks.TaskStatus(resp.Status).Terminal() {
		status = http.StatusAccepted
	}
	h.respondJSON(w, status, resp)
}

func (h *TaskHandler) handleError(w http.ResponseWriter, r *http.Request, message string, err error, traceID string, status int) {
	log := logger.FromContext(r.Context(), h.logger)
	if status >= http.StatusInternalServerError {
		log.Error(message, zap.String("trace_id", traceID), zap.Error(err))
	} else {
		log.Warn(message, zap.String("trace_id", traceID), zap.Error(err))
	}

	h.respondJSON(w, status, dto.ErrorResponse{
		Error:   message,
		TraceID: traceID,
	})
}

func (h *TaskHandler) respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
