package parentcast

import (
	"time"

	"github.com/google/uuid"
)

// Cast is a named collection of dated entries belonging to one owner. A
// cast's identity is immutable once created.
type Cast struct {
	ID        uuid.UUID `json:"id"`
	OwnerID   uuid.UUID `json:"owner_id"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CastWithMeta is a cast plus per-cast aggregates used by listing surfaces.
// The aggregates ignore trashed entries.
type CastWithMeta struct {
	Cast
	EntryCount  int        `json:"entry_count"`
	LastEntryAt *time.Time `json:"last_entry_at,omitempty"`
}

// Entry is one dated record within a cast. All attachment fields are
// optional; AudioPath, when set, names an object that exists in the store at
// that key. DeletedAt non-nil means the entry is trashed and its audio key
// (if any) lies under the owner's trash namespace.
type Entry struct {
	ID         uuid.UUID  `json:"id"`
	CastID     uuid.UUID  `json:"cast_id"`
	OwnerID    uuid.UUID  `json:"owner_id"`
	Title      string     `json:"title,omitempty"`
	Reflection string     `json:"reflection,omitempty"`
	Transcript string     `json:"transcript,omitempty"`
	AudioPath  string     `json:"audio_path,omitempty"`
	AudioURL   string     `json:"audio_url,omitempty"`
	ImagePath  string     `json:"image_path,omitempty"`
	DurationMS *int64     `json:"duration_ms,omitempty"`
	EntryDate  string     `json:"entry_date"` // YYYY-MM-DD
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
	DeletedAt  *time.Time `json:"deleted_at,omitempty"`
}

// Trashed reports whether the entry is soft-deleted.
func (e *Entry) Trashed() bool { return e.DeletedAt != nil }

// Rule is a per-owner journaling guideline entries can be tagged with.
type Rule struct {
	ID          uuid.UUID `json:"id"`
	OwnerID     uuid.UUID `json:"owner_id"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// DefaultRules is the fixed seed set created lazily the first time an owner
// requests rules.
var DefaultRules = []Rule{
	{Title: "Listen First", Description: "Ask before advising."},
	{Title: "One Story per Entry", Description: "Keep entries focused."},
	{Title: "Assume Positive Intent", Description: "Lead with empathy."},
}

// Summary is the fixed four-field AI summary of an entry transcript.
type Summary struct {
	Good   string `json:"good"`
	Bad    string `json:"bad"`
	Ugly   string `json:"ugly"`
	Lesson string `json:"lesson"`
}

// EntryDateFormat is the layout of Entry.EntryDate tags.
const EntryDateFormat = "2006-01-02"

// AudioExtension is the only audio extension reconciliation imports.
const AudioExtension = ".mp3"
