package models

import (
	"encoding/json"

	"github.com/google/uuid"
)

// TodoSource records where a todo came from
type TodoSource string

const (
	TodoSourceUser TodoSource = "user"
	TodoSourceAI   TodoSource = "ai"
	TodoSourcePath TodoSource = "learning_path"
)

// VideoReference links a todo or path step to a video
type VideoReference struct {
	VideoID          string `json:"video_id,omitempty"`
	YoutubeID        string `json:"youtube_id" validate:"required"`
	Title            string `json:"title,omitempty"`
	TimestampSeconds *int   `json:"timestamp_seconds,omitempty"`
	ThumbnailURL     string `json:"thumbnail_url,omitempty"`
}

// PathStepReference tags a todo with the learning path (and optionally the step) it belongs to
type PathStepReference struct {
	PathID uuid.UUID  `json:"path_id" validate:"required"`
	StepID *uuid.UUID `json:"step_id,omitempty"`
}

// TodoMetadata carries the typed join keys of a todo plus free-form extras
type TodoMetadata struct {
	PathRef *PathStepReference         `json:"path_ref,omitempty"`
	Source  TodoSource                 `json:"source,omitempty"`
	Extra   map[string]json.RawMessage `json:"extra,omitempty"`
}

// HasVideo reports whether any reference points at youtubeID
func HasVideo(refs []VideoReference, youtubeID string) bool {
	for _, ref := range refs {
		if ref.YoutubeID == youtubeID {
			return true
		}
	}
	return false
}
