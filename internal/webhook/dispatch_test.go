package webhook

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hookci/internal/storage"
)

type recordingExecutor struct {
	triggers []*Trigger
	err      error
}

func (e *recordingExecutor) Execute(_ context.Context, t *Trigger) error {
	e.triggers = append(e.triggers, t)
	return e.err
}

func webhookHeaders(event, token string) http.Header {
	h := http.Header{}
	if event != "" {
		h.Set(EventHeader, event)
	}
	if token != "" {
		h.Set(TokenHeader, token)
	}
	return h
}

func TestHandleWebhook(t *testing.T) {
	d := NewDispatcher(NewGate(NewStaticTokenSource("abc")), nil)
	payload := json.RawMessage(`{"ref":"refs/heads/main"}`)

	trigger, err := d.HandleWebhook(context.Background(), webhookHeaders("Push Hook", "abc"), "web", payload)
	require.NoError(t, err)
	assert.Equal(t, "web", trigger.PipelineID())
	assert.Equal(t, EventPush, trigger.Event())
	assert.JSONEq(t, string(payload), string(trigger.Payload()))

	// the trigger keeps its own copy of the payload
	payload[2] = 'X'
	got := trigger.Payload()
	got[3] = 'Y'
	assert.JSONEq(t, `{"ref":"refs/heads/main"}`, string(trigger.Payload()))
}

func TestHandleWebhookErrors(t *testing.T) {
	d := NewDispatcher(NewGate(NewStaticTokenSource("abc")), nil)

	tests := []struct {
		name    string
		headers http.Header
		check   func(error) bool
	}{
		{"missing event", webhookHeaders("", "abc"), func(err error) bool { return errors.Is(err, ErrMissingEventHeader) }},
		{"unsupported event", webhookHeaders("Issue Hook", "abc"), func(err error) bool {
			var u *UnsupportedEventError
			return errors.As(err, &u) && u.Value == "Issue Hook"
		}},
		{"missing token", webhookHeaders("Push Hook", ""), func(err error) bool { return errors.Is(err, ErrMissingTokenHeader) }},
		{"wrong token", webhookHeaders("Push Hook", "abd"), func(err error) bool { return errors.Is(err, ErrInvalidToken) }},
		// authentication is decided before the event is looked at
		{"wrong token unsupported event", webhookHeaders("Issue Hook", "abd"), func(err error) bool { return errors.Is(err, ErrInvalidToken) }},
		{"no token missing event", webhookHeaders("", ""), func(err error) bool { return errors.Is(err, ErrMissingTokenHeader) }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			trigger, err := d.HandleWebhook(context.Background(), tt.headers, "web", json.RawMessage(`{}`))
			assert.Nil(t, trigger)
			assert.True(t, tt.check(err), "unexpected error: %v", err)
		})
	}
}

func TestHandleWebhookRejectsInvalidPipelineID(t *testing.T) {
	// the static source accepts the token for any id
	d := NewDispatcher(NewGate(NewStaticTokenSource("abc")), nil)

	for _, id := range []string{"..", ".", "", "a/b", "../web"} {
		t.Run(id, func(t *testing.T) {
			trigger, err := d.HandleWebhook(context.Background(), webhookHeaders("Push Hook", "abc"), id, json.RawMessage(`{}`))
			assert.Nil(t, trigger)
			assert.ErrorIs(t, err, storage.ErrInvalidPipelineID)
			assert.Equal(t, http.StatusUnauthorized, StatusCode(err))
		})
	}
}

func TestTriggerPipeline(t *testing.T) {
	exec := &recordingExecutor{}
	d := NewDispatcher(NewGate(NewStaticTokenSource("abc")), exec)

	trigger, err := d.HandleWebhook(context.Background(), webhookHeaders("Merge Request Hook", "abc"), "web", json.RawMessage(`{"object_kind":"merge_request"}`))
	require.NoError(t, err)

	require.NoError(t, d.TriggerPipeline(context.Background(), trigger))
	require.Len(t, exec.triggers, 1)
	assert.Same(t, trigger, exec.triggers[0])

	assert.ErrorIs(t, d.TriggerPipeline(context.Background(), trigger), ErrTriggerConsumed)
	assert.Len(t, exec.triggers, 1)
}

func TestTriggerPipelineExecutorError(t *testing.T) {
	boom := errors.New("boom")
	d := NewDispatcher(NewGate(NewStaticTokenSource("abc")), &recordingExecutor{err: boom})

	trigger, err := d.HandleWebhook(context.Background(), webhookHeaders("Push Hook", "abc"), "web", nil)
	require.NoError(t, err)
	assert.ErrorIs(t, d.TriggerPipeline(context.Background(), trigger), boom)
}

func TestTriggerPipelineWithoutExecutor(t *testing.T) {
	d := NewDispatcher(NewGate(NewStaticTokenSource("abc")), nil)

	trigger, err := d.HandleWebhook(context.Background(), webhookHeaders("Push Hook", "abc"), "web", json.RawMessage(`{}`))
	require.NoError(t, err)
	assert.NoError(t, d.TriggerPipeline(context.Background(), trigger))
}
