package parentcast

import (
	"io"

	"github.com/google/uuid"
)

// CreateCastRequest contains parameters for creating a cast.
type CreateCastRequest struct {
	OwnerID uuid.UUID
	Title   string
}

// UploadAudioRequest contains parameters for attaching an audio recording to
// an entry. The object is stored at the entry's canonical active key.
type UploadAudioRequest struct {
	EntryID     uuid.UUID
	FileName    string
	ContentType string
	Reader      io.Reader
}

// UploadImageRequest contains parameters for attaching an image to an entry.
type UploadImageRequest struct {
	EntryID     uuid.UUID
	FileName    string
	ContentType string
	Reader      io.Reader
}

// TodayEntryResult reports the outcome of a find-or-create for today's entry.
type TodayEntryResult struct {
	EntryID uuid.UUID
	Created bool
}
