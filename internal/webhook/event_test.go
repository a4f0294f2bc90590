package webhook

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassifyEvent(t *testing.T) {
	tests := []struct {
		name    string
		value   string
		present bool
		want    EventKind
		wantErr error
	}{
		{name: "push", value: "Push Hook", present: true, want: EventPush},
		{name: "merge request", value: "Merge Request Hook", present: true, want: EventMergeRequest},
		{name: "missing", present: false, wantErr: ErrMissingEventHeader},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ClassifyEvent(tt.value, tt.present)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestClassifyEventUnsupported(t *testing.T) {
	for _, value := range []string{"Issue Hook", "push hook", "Push Hook ", ""} {
		_, err := ClassifyEvent(value, true)

		var uerr *UnsupportedEventError
		require.ErrorAs(t, err, &uerr, value)
		assert.Equal(t, value, uerr.Value)
	}
}

func TestEventFromHeaders(t *testing.T) {
	h := http.Header{}
	_, err := EventFromHeaders(h)
	assert.ErrorIs(t, err, ErrMissingEventHeader)

	h.Set(EventHeader, "Merge Request Hook")
	got, err := EventFromHeaders(h)
	require.NoError(t, err)
	assert.Equal(t, EventMergeRequest, got)

	h.Set(EventHeader, "Push\x00Hook")
	_, err = EventFromHeaders(h)
	assert.ErrorIs(t, err, ErrInvalidEventHeader)
}

func TestEventKindString(t *testing.T) {
	assert.Equal(t, "push", EventPush.String())
	assert.Equal(t, "merge_request", EventMergeRequest.String())
	assert.Equal(t, "unknown", EventKind(0).String())
}
