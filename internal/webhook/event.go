package webhook

import (
	"net/http"

	"hookci/internal/security"
)

const (
	EventHeader = "X-Gitlab-Event"
	TokenHeader = "X-Gitlab-Token"
)

// EventKind is the closed set of events that can trigger a pipeline.
type EventKind int

const (
	EventPush EventKind = iota + 1
	EventMergeRequest
)

func (k EventKind) String() string {
	switch k {
	case EventPush:
		return "push"
	case EventMergeRequest:
		return "merge_request"
	}
	return "unknown"
}

// ClassifyEvent maps an event header value to an EventKind. present is
// false when the request carried no event header at all.
func ClassifyEvent(value string, present bool) (EventKind, error) {
	if !present {
		return 0, ErrMissingEventHeader
	}

	switch value {
	case "Push Hook":
		return EventPush, nil
	case "Merge Request Hook":
		return EventMergeRequest, nil
	}
	return 0, &UnsupportedEventError{Value: value}
}

// EventFromHeaders classifies the event named by the X-Gitlab-Event header.
func EventFromHeaders(h http.Header) (EventKind, error) {
	value, present := headerValue(h, EventHeader)
	if present && !security.IsHeaderText(value) {
		return 0, ErrInvalidEventHeader
	}
	return ClassifyEvent(value, present)
}

// headerValue returns the first value of key. present is false when the
// header is absent, which is distinct from present but empty.
func headerValue(h http.Header, key string) (value string, present bool) {
	values := h.Values(key)
	if len(values) == 0 {
		return "", false
	}
	return values[0], true
}
