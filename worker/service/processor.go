package service

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"voicesearch/pkg/broker"
	"voicesearch/pkg/metrics"
	"voicesearch/pkg/tasks"
	"voicesearch/worker/catalog"
	"voicesearch/worker/intent"
	"voicesearch/worker/speech"
)

// ErrMalformedMessage means the queued payload cannot be decoded.
var ErrMalformedMessage = errors.New("malformed task message")

type Recognizer interface {
	Transcribe(ctx context.Context, audio []byte) (string, error)
}

type Catalog interface {
	Search(ctx context.Context, in intent.Intent, processID string) error
}

type TaskStore interface {
	Advance(ctx context.Context, id string, stage tasks.Stage) error
	Complete(ctx context.Context, id string) error
	Drop(ctx context.Context, id, reason string) error
	Fail(ctx context.Context, id string, stage tasks.Stage, cause error) error
	Status(ctx context.Context, id string) (*tasks.Record, bool, error)
}

// Processor runs one queued upload through transcription, classification
// and the catalog query.
type Processor struct {
	recognizer Recognizer
	searcher   Catalog
	store      TaskStore
	logger     *zap.Logger
}

func NewProcessor(recognizer Recognizer, searcher Catalog, store TaskStore, logger *zap.Logger) *Processor {
	return &Processor{
		recognizer: recognizer,
		searcher:   searcher,
		store:      store,
		logger:     logger,
	}
}

// Handle is the broker handler for files routed under tasks.RoutingKeyFiles.
// Payloads that can never succeed are returned as broker.Permanent after the
// task is marked failed; transient faults are returned as is so the message
// is redelivered.
func (p *Processor) Handle(ctx context.Context, d *broker.Delivery) error {
	log := p.logger.With(
		zap.String("correlation_id", d.CorrelationID),
		zap.Int("attempt", d.Attempt),
	)

	var msg tasks.FileMessage
	if err := json.Unmarshal(d.Body, &msg); err != nil || msg.ProcessID == "" {
		if err == nil {
			err = errors.New("missing process_id")
		}
		return p.poison(ctx, log, d.CorrelationID, tasks.StageReceived, fmt.Errorf("%w: %v", ErrMalformedMessage, err))
	}
	id := msg.ProcessID
	log = log.With(zap.String("process_id", id))

	audio, err := base64.StdEncoding.DecodeString(msg.File)
	if err != nil || len(audio) == 0 {
		if err == nil {
			err = errors.New("empty file")
		}
		return p.poison(ctx, log, id, tasks.StageReceived, fmt.Errorf("%w: decode file: %v", ErrMalformedMessage, err))
	}
	if err := p.store.Advance(ctx, id, tasks.StageDecoded); err != nil {
		return err
	}

	text, err := p.recognizer.Transcribe(ctx, audio)
	if err != nil {
		if errors.Is(err, speech.ErrInvalidAudio) {
			return p.poison(ctx, log, id, tasks.StageDecoded, err)
		}
		metrics.WorkerMessagesTotal.WithLabelValues("retry", "").Inc()
		return fmt.Errorf("transcribe: %w", err)
	}
	if err := p.store.Advance(ctx, id, tasks.StageTranscribed); err != nil {
		return err
	}
	log.Debug("Audio transcribed", zap.String("transcript", text))

	in, ok := intent.Classify(text)
	if !ok {
		log.Info("No intent matched, dropping task", zap.String("transcript", text))
		metrics.WorkerMessagesTotal.WithLabelValues("dropped", "").Inc()
		return p.store.Drop(ctx, id, "no intent matched")
	}
	if err := p.store.Advance(ctx, id, tasks.StageClassified); err != nil {
		return err
	}

	if err := p.searcher.Search(ctx, in, id); err != nil {
		if errors.Is(err, catalog.ErrRejected) || errors.Is(err, catalog.ErrUnknownIntent) {
			return p.poison(ctx, log, id, tasks.StageClassified, err)
		}
		metrics.WorkerMessagesTotal.WithLabelValues("retry", string(in.Kind)).Inc()
		return fmt.Errorf("catalog search: %w", err)
	}
	if err := p.store.Advance(ctx, id, tasks.StageQueried); err != nil {
		return err
	}

	if err := p.store.Complete(ctx, id); err != nil {
		return err
	}
	metrics.WorkerMessagesTotal.WithLabelValues("completed", string(in.Kind)).Inc()
	log.Info("Task completed",
		zap.String("intent", string(in.Kind)),
		zap.String("subject", in.Subject),
	)
	return nil
}

func (p *Processor) poison(ctx context.Context, log *zap.Logger, id string, stage tasks.Stage, cause error) error {
	log.Warn("Dropping unprocessable message", zap.String("stage", string(stage)), zap.Error(cause))
	metrics.WorkerMessagesTotal.WithLabelValues("failed", "").Inc()
	if id != "" {
		if err := p.store.Fail(ctx, id, stage, cause); err != nil {
			log.Warn("Failed to mark task failed", zap.Error(err))
		}
	}
	return broker.Permanent(cause)
}

// OnDeadLetter marks the task failed at the stage it last reached once the
// broker gave up redelivering it.
func (p *Processor) OnDeadLetter(ctx context.Context, d *broker.Delivery, cause error) {
	id := d.CorrelationID
	if id == "" {
		return
	}

	stage := tasks.StageReceived
	if rec, found, err := p.store.Status(ctx, id); err == nil && found {
		stage = rec.Stage
	}

	metrics.WorkerMessagesTotal.WithLabelValues("dead_lettered", "").Inc()
	if err := p.store.Fail(ctx, id, stage, cause); err != nil {
		p.logger.Warn("Failed to mark dead-lettered task failed",
			zap.String("process_id", id),
			zap.Error(err),
		)
	}
}
