package service

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"voicesearch/api/dto"
	"voicesearch/pkg/broker"
	"voicesearch/pkg/logger"
	"voicesearch/pkg/metrics"
	"voicesearch/pkg/tasks"
)

// ErrEnqueueFailed means the task was created but could not be handed to the
// broker. The task is marked failed.
var ErrEnqueueFailed = errors.New("failed to enqueue task")

// TaskStore is the part of the correlation store the gateway uses.
type TaskStore interface {
	Create(ctx context.Context, id string) error
	Fail(ctx context.Context, id string, stage tasks.Stage, cause error) error
	Status(ctx context.Context, id string) (*tasks.Record, bool, error)
	Result(ctx context.Context, id string) (json.RawMessage, bool, error)
}

type TaskService struct {
	store    TaskStore
	producer broker.Publisher
	logger   *zap.Logger
	newID    func() string
}

func NewTaskService(store TaskStore, producer broker.Publisher, logger *zap.Logger) *TaskService {
	return &TaskService{
		store:    store,
		producer: producer,
		logger:   logger,
		newID:    func() string { return uuid.New().String() },
	}
}

// CreateTask registers a new search task for audio and queues it for the
// worker. It returns once the message is accepted by the broker.
func (s *TaskService) CreateTask(ctx context.Context, audio []byte) (*dto.CreateTaskResponse, error) {
	processID := s.newID()
	log := logger.FromContext(ctx, s.logger).With(zap.String("process_id", processID))

	if err := s.store.Create(ctx, processID); err != nil {
		metrics.TasksCreatedTotal.WithLabelValues("store_error").Inc()
		return nil, fmt.Errorf("create task: %w", err)
	}

	msg := tasks.FileMessage{
		ProcessID: processID,
		File:      base64.StdEncoding.EncodeToString(audio),
	}
	if err := s.producer.Send(ctx, tasks.RoutingKeyFiles, msg, processID); err != nil {
		log.Error("Failed to publish task", zap.Error(err))
		metrics.TasksCreatedTotal.WithLabelValues("enqueue_failed").Inc()

		// the request context may already be gone when the broker timed out
		failCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		if ferr := s.store.Fail(failCtx, processID, tasks.StageReceived, err); ferr != nil {
			log.Warn("Failed to mark task failed", zap.Error(ferr))
		}
		return nil, fmt.Errorf("%w: %v", ErrEnqueueFailed, err)
	}

	metrics.TasksCreatedTotal.WithLabelValues("queued").Inc()
	log.Info("Task queued", zap.Int("audio_bytes", len(audio)))

	return &dto.CreateTaskResponse{
		ProcessID: processID,
		Status:    string(tasks.StatusPending),
	}, nil
}

// GetStatusTask reports the state of processID. A stored result always wins
// over the status record; neither means the task is unknown or expired.
func (s *TaskService) GetStatusTask(ctx context.Context, processID string) (*dto.TaskResponse, error) {
	result, found, err := s.store.Result(ctx, processID)
	if err != nil {
		return nil, fmt.Errorf("read task result: %w", err)
	}
	if found {
		resp := &dto.TaskResponse{
			ProcessID: processID,
			Status:    string(tasks.StatusCompleted),
			Stage:     string(tasks.StageCompleted),
			Result:    result,
		}
		if rec, ok, err := s.store.Status(ctx, processID); err == nil && ok {
			resp.UpdatedAt = rec.UpdatedAt.Format(time.RFC3339)
		}
		return resp, nil
	}

	rec, found, err := s.store.Status(ctx, processID)
	if err != nil {
		return nil, fmt.Errorf("read task status: %w", err)
	}
	if !found {
		return nil, dto.ErrTaskNotFound
	}

	return &dto.TaskResponse{
		ProcessID: processID,
		Status:    string(rec.Status),
		Stage:     string(rec.Stage),
		Error:     rec.Error,
		UpdatedAt: rec.UpdatedAt.Format(time.RFC3339),
	}, nil
}
