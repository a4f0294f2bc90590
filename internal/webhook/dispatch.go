package webhook

import (
	"context"
	"encoding/json"
	"net/http"
	"sync/atomic"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"hookci/internal/log"
	"hookci/internal/storage"
	"hookci/pkg/utils"
)

var tracer = otel.Tracer("hookci/internal/webhook")

// Trigger is an authenticated, classified webhook. It can only be built by
// HandleWebhook and is consumed by a single TriggerPipeline call.
type Trigger struct {
	pipelineID string
	event      EventKind
	payload    json.RawMessage
	consumed   atomic.Bool
}

func newTrigger(pipelineID string, event EventKind, payload json.RawMessage) *Trigger {
	return &Trigger{
		pipelineID: pipelineID,
		event:      event,
		payload:    append(json.RawMessage(nil), payload...),
	}
}

func (t *Trigger) PipelineID() string { return t.pipelineID }

func (t *Trigger) Event() EventKind { return t.event }

// Payload returns a copy of the request body.
func (t *Trigger) Payload() json.RawMessage {
	return append(json.RawMessage(nil), t.payload...)
}

// Executor starts the pipeline a trigger addresses.
type Executor interface {
	Execute(ctx context.Context, t *Trigger) error
}

// Dispatcher authenticates and classifies webhooks, then hands the
// resulting triggers to an Executor.
type Dispatcher struct {
	gate     *Gate
	executor Executor
}

// NewDispatcher builds a Dispatcher. A nil executor only records triggers.
func NewDispatcher(gate *Gate, executor Executor) *Dispatcher {
	return &Dispatcher{gate: gate, executor: executor}
}

// HandleWebhook authenticates the request, then classifies its event.
// Authentication runs first so unauthenticated callers cannot probe which
// events are supported. A pipeline id that could not name a pipeline
// directory is rejected before either, whatever the token source.
func (d *Dispatcher) HandleWebhook(ctx context.Context, h http.Header, pipelineID string, payload json.RawMessage) (*Trigger, error) {
	ctx, span := tracer.Start(ctx, "webhook.handle", trace.WithAttributes(
		attribute.String("pipeline.id", pipelineID),
	))
	defer span.End()

	if err := storage.ValidatePipelineID(pipelineID); err != nil {
		span.SetStatus(codes.Error, "invalid pipeline id")
		return nil, err
	}
	if err := d.gate.Authenticate(ctx, h, pipelineID); err != nil {
		span.SetStatus(codes.Error, "unauthenticated")
		return nil, err
	}

	event, err := EventFromHeaders(h)
	if err != nil {
		span.SetStatus(codes.Error, "unclassified")
		return nil, err
	}
	span.SetAttributes(attribute.String("webhook.event", event.String()))

	return newTrigger(pipelineID, event, payload), nil
}

// TriggerPipeline records the trigger in the log and passes it to the
// executor.
func (d *Dispatcher) TriggerPipeline(ctx context.Context, t *Trigger) error {
	if !t.consumed.CompareAndSwap(false, true) {
		return ErrTriggerConsumed
	}

	l := log.FromContext(ctx).With("component", "dispatcher")
	l.Info("trigger pipeline", "pipeline", t.pipelineID, "event", t.event.String(),
		"payload_sha256", utils.Short(utils.HashBytes(t.payload)))
	l.Info("payload", "pipeline", t.pipelineID, "payload", string(t.payload))

	if d.executor == nil {
		return nil
	}
	return d.executor.Execute(ctx, t)
}
