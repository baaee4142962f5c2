package tasks

import (
	"time"
)

type TaskStatus string

const (
	StatusPending    TaskStatus = "pending"
	StatusProcessing TaskStatus = "processing"
	StatusCompleted  TaskStatus = "completed"
	StatusDropped    TaskStatus = "dropped"
	StatusFailed     TaskStatus = "failed"
	StatusExpired    TaskStatus = "expired"
)

// Terminal reports whether no further transition can follow s.
func (s TaskStatus) Terminal() bool {
	switch s {
	case StatusCompleted, StatusDropped, StatusFailed, StatusExpired:
		return true
	default:
		return false
	}
}

// Stage is the worker pipeline position of a task.
type Stage string

const (
	StageReceived    Stage = "received"
	StageDecoded     Stage = "decoded"
	StageTranscribed Stage = "transcribed"
	StageClassified  Stage = "classified"
	StageQueried     Stage = "queried"
	StageCompleted   Stage = "completed"
	StageDropped     Stage = "dropped"
)

// Record is the status document kept next to a task's result.
type Record struct {
	ID        string     `json:"id"`
	Status    TaskStatus `json:"status"`
	Stage     Stage      `json:"stage"`
	Error     string     `json:"error,omitempty"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// RoutingKeyFiles is the routing key uploaded audio is published under.
const RoutingKeyFiles = "events.files"

// FileMessage is the queued work item for one upload.
type FileMessage struct {
	ProcessID string `json:"process_id"`
	File      string `json:"file"`
}
