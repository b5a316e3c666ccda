package progress

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/benvon/study-planner/internal/validation"
	"github.com/google/uuid"
)

// EventType names the kind of progress signal
type EventType string

const (
	EventVideoWatched  EventType = "video_watched"
	EventTodoCompleted EventType = "todo_completed"
)

// ErrInvalidEvent is returned for events that cannot be decoded or fail validation
var ErrInvalidEvent = errors.New("invalid progress event")

// Event is a progress signal. It is either VideoWatched or TodoCompleted.
type Event interface {
	Type() EventType
}

// VideoWatched reports how much of a video the user has watched
type VideoWatched struct {
	YoutubeID      string  `json:"youtube_id" validate:"required"`
	WatchedSeconds float64 `json:"watched_seconds" validate:"gte=0"`
	TotalSeconds   float64 `json:"total_seconds" validate:"gt=0"`
}

// Type returns video_watched
func (VideoWatched) Type() EventType { return EventVideoWatched }

// Complete reports whether enough of the video was watched to count it as done
func (v VideoWatched) Complete() bool {
	return v.WatchedSeconds >= CompletionThreshold*v.TotalSeconds
}

// TodoCompleted reports that a todo linked to the path was completed
type TodoCompleted struct {
	TodoID uuid.UUID `json:"todo_id" validate:"required"`
}

// Type returns todo_completed
func (TodoCompleted) Type() EventType { return EventTodoCompleted }

type envelope struct {
	Type EventType       `json:"type"`
	Data json.RawMessage `json:"data"`
}

// DecodeEvent parses the {"type": ..., "data": {...}} wire form and validates the payload
func DecodeEvent(raw []byte) (Event, error) {
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidEvent, err)
	}
	if len(env.Data) == 0 {
		return nil, fmt.Errorf("%w: data is required", ErrInvalidEvent)
	}

	var event Event
	switch env.Type {
	case EventVideoWatched:
		var v VideoWatched
		if err := json.Unmarshal(env.Data, &v); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidEvent, err)
		}
		event = v
	case EventTodoCompleted:
		var t TodoCompleted
		if err := json.Unmarshal(env.Data, &t); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidEvent, err)
		}
		event = t
	default:
		return nil, fmt.Errorf("%w: unknown type %q", ErrInvalidEvent, env.Type)
	}

	if err := validation.Validate.Struct(event); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidEvent, validation.FormatErrors(err))
	}
	return event, nil
}

// EncodeEvent renders an event in the wire form DecodeEvent accepts
func EncodeEvent(event Event) ([]byte, error) {
	data, err := json.Marshal(event)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal event data: %w", err)
	}
	return json.Marshal(envelope{Type: event.Type(), Data: data})
}
