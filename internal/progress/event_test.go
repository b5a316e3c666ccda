package progress

import (
	"errors"
	"testing"

	"github.com/google/uuid"
)

func TestDecodeEvent(t *testing.T) {
	t.Parallel()

	todoID := uuid.New()

	tests := []struct {
		name    string
		raw     string
		want    Event
		wantErr bool
	}{
		{
			name: "video watched",
			raw:  `{"type":"video_watched","data":{"youtube_id":"abc","watched_seconds":90,"total_seconds":100}}`,
			want: VideoWatched{YoutubeID: "abc", WatchedSeconds: 90, TotalSeconds: 100},
		},
		{
			name: "todo completed",
			raw:  `{"type":"todo_completed","data":{"todo_id":"` + todoID.String() + `"}}`,
			want: TodoCompleted{TodoID: todoID},
		},
		{name: "unknown type", raw: `{"type":"step_skipped","data":{}}`, wantErr: true},
		{name: "missing data", raw: `{"type":"video_watched"}`, wantErr: true},
		{name: "missing youtube id", raw: `{"type":"video_watched","data":{"watched_seconds":1,"total_seconds":2}}`, wantErr: true},
		{name: "zero total", raw: `{"type":"video_watched","data":{"youtube_id":"abc","watched_seconds":1,"total_seconds":0}}`, wantErr: true},
		{name: "missing todo id", raw: `{"type":"todo_completed","data":{}}`, wantErr: true},
		{name: "not json", raw: `video_watched`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := DecodeEvent([]byte(tt.raw))
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidEvent) {
					t.Fatalf("DecodeEvent() error = %v, want ErrInvalidEvent", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("DecodeEvent() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("DecodeEvent() = %#v, want %#v", got, tt.want)
			}
		})
	}
}

func TestEncodeEventRoundTrip(t *testing.T) {
	t.Parallel()

	in := TodoCompleted{TodoID: uuid.New()}
	raw, err := EncodeEvent(in)
	if err != nil {
		t.Fatalf("EncodeEvent() error = %v", err)
	}
	out, err := DecodeEvent(raw)
	if err != nil {
		t.Fatalf("DecodeEvent() error = %v", err)
	}
	if out != in {
		t.Errorf("round trip = %#v, want %#v", out, in)
	}
}

func TestVideoWatchedComplete(t *testing.T) {
	t.Parallel()

	if !(VideoWatched{WatchedSeconds: 480, TotalSeconds: 600}).Complete() {
		t.Error("80% should complete")
	}
	if (VideoWatched{WatchedSeconds: 479, TotalSeconds: 600}).Complete() {
		t.Error("just under 80% should not complete")
	}
}
