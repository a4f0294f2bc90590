package server

import (
	"context"
	"encoding/json"
	"net/http"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hookci/internal/core"
	"hookci/internal/storage"
	"hookci/internal/webhook"
)

func trigger(t *testing.T, pipelineID, event string) *webhook.Trigger {
	t.Helper()
	d := webhook.NewDispatcher(webhook.NewGate(webhook.NewStaticTokenSource("abc")), nil)
	h := http.Header{}
	h.Set(webhook.EventHeader, event)
	h.Set(webhook.TokenHeader, "abc")
	tr, err := d.HandleWebhook(context.Background(), h, pipelineID, json.RawMessage(`{}`))
	require.NoError(t, err)
	return tr
}

func TestPipelineExecutorRunsInBackground(t *testing.T) {
	root := t.TempDir()
	dir := filepath.Join(root, "env")
	require.NoError(t, os.MkdirAll(dir, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, storage.PipelineFile), []byte(`
kind: pipeline
name: env
steps:
  - name: dump
    commands:
      - 'echo "$HOOKCI_PIPELINE $HOOKCI_EVENT" > out'
      - 'test -n "$HOOKCI_RUN_ID"'
`), 0644))

	e := &PipelineExecutor{Runner: core.NewRunner(), Layout: storage.NewLayout(root)}

	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, e.Execute(ctx, trigger(t, "env", "Merge Request Hook")))
	// the run must survive the request context going away
	cancel()
	e.Wait()

	data, err := os.ReadFile(filepath.Join(dir, "out"))
	require.NoError(t, err)
	assert.Equal(t, "env merge_request\n", string(data))
}

func TestPipelineExecutorRejectsInvalidID(t *testing.T) {
	e := &PipelineExecutor{Runner: core.NewRunner(), Layout: storage.NewLayout(t.TempDir())}

	err := e.Execute(context.Background(), trigger(t, "..", "Push Hook"))
	assert.ErrorIs(t, err, storage.ErrInvalidPipelineID)
	e.Wait()
}
