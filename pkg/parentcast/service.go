package parentcast

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Service is the lifecycle orchestrator for casts, entries and their stored
// audio. Every operation is a short sequential chain of calls to the
// repository and the blob store; the two stores share no transaction, and
// drift between them is repaired by ReconcileOrphans/NormalizePaths rather
// than prevented.
type Service interface {
	// Cast operations
	CreateCast(ctx context.Context, req CreateCastRequest) (*Cast, error)
	GetCast(ctx context.Context, id uuid.UUID) (*Cast, error)
	ListCasts(ctx context.Context, ownerID uuid.UUID) ([]*CastWithMeta, error)

	// Entry operations
	GetEntry(ctx context.Context, id uuid.UUID) (*Entry, error)
	ListEntries(ctx context.Context, castID uuid.UUID) ([]*Entry, error)
	ListTrash(ctx context.Context, ownerID uuid.UUID) ([]*Entry, error)
	// FindOrCreateTodayEntry returns the cast's entry for today's date tag,
	// creating a minimal row when none exists.
	FindOrCreateTodayEntry(ctx context.Context, ownerID, castID uuid.UUID) (*TodayEntryResult, error)
	SetEntryDuration(ctx context.Context, id uuid.UUID, durationMS int64) error
	UpdateEntryReflection(ctx context.Context, id uuid.UUID, reflection string) error

	// Attachment operations
	UploadAudio(ctx context.Context, req UploadAudioRequest) (*Entry, error)
	UploadImage(ctx context.Context, req UploadImageRequest) (*Entry, error)

	// GetPlaybackURL exchanges a stored key for a time-limited retrieval
	// URL. An empty key returns "" without contacting the store; store-side
	// failures are logged and also return "" (unavailable, retry later).
	GetPlaybackURL(ctx context.Context, rawKey string, ttl time.Duration) string

	// Lifecycle operations
	SoftDeleteEntry(ctx context.Context, id uuid.UUID) (*Entry, error)
	// RestoreEntry moves a trashed entry's audio back to the canonical
	// active key and clears deleted_at. When the stored key is not in the
	// trash shape the row is cleared without a move and restored is false.
	RestoreEntry(ctx context.Context, id uuid.UUID) (entry *Entry, restored bool, err error)
	// ReconcileOrphans imports store objects with no referencing row as
	// minimal entries. Idempotent: already-referenced keys are skipped.
	ReconcileOrphans(ctx context.Context, ownerID, castID uuid.UUID) (imported int, err error)
	// NormalizePaths relocates legacy-shaped keys of the cast's live
	// entries to the canonical active shape. Best-effort per row.
	NormalizePaths(ctx context.Context, ownerID, castID uuid.UUID) (moved int, err error)

	// Rule operations
	ListRules(ctx context.Context, ownerID uuid.UUID) ([]*Rule, error)
	ReplaceEntryRules(ctx context.Context, entryID uuid.UUID, ruleIDs []uuid.UUID) error
	ListEntryRules(ctx context.Context, entryID uuid.UUID) ([]uuid.UUID, error)
}
