package parentcast

import (
	"context"
	"io"
	"time"

	"github.com/google/uuid"
)

// BlobStore defines the object-store operations the service needs. All keys
// are relative to the store's single fixed bucket. The service never deletes
// objects outright: soft delete and restore only relocate them.
type BlobStore interface {
	// Upload stores an object at the given key, replacing any existing one.
	Upload(ctx context.Context, objectKey string, reader io.Reader, contentType string) error

	// Move relocates a single object from srcKey to dstKey. It fails when
	// the source does not exist or the store rejects the relocation.
	Move(ctx context.Context, srcKey, dstKey string) error

	// List returns the objects directly under the given folder prefix.
	List(ctx context.Context, folder string) ([]ObjectInfo, error)

	// SignedURL returns a time-limited retrieval URL for the object.
	SignedURL(ctx context.Context, objectKey string, ttl time.Duration) (string, error)
}

// ObjectInfo describes one listed object.
type ObjectInfo struct {
	// Name is the object's filename relative to the listed folder.
	Name string
	Size int64
}

// Repository defines row-level persistence for casts, entries, rules and
// entry-rule links. Implementations scope every read and write by the
// equality/null filters the method names imply; no raw query surface leaks
// out.
type Repository interface {
	// Cast operations
	CreateCast(ctx context.Context, cast *Cast) error
	GetCast(ctx context.Context, id uuid.UUID) (*Cast, error)
	ListCastsByOwner(ctx context.Context, ownerID uuid.UUID) ([]*Cast, error)

	// Entry operations
	CreateEntry(ctx context.Context, entry *Entry) error
	GetEntry(ctx context.Context, id uuid.UUID) (*Entry, error)
	UpdateEntry(ctx context.Context, entry *Entry) error
	// ListEntriesByCast returns the cast's entries newest-first. Trashed
	// entries are excluded unless includeDeleted is set.
	ListEntriesByCast(ctx context.Context, castID uuid.UUID, includeDeleted bool) ([]*Entry, error)
	// ListTrashedByOwner returns the owner's trashed entries newest-first.
	ListTrashedByOwner(ctx context.Context, ownerID uuid.UUID) ([]*Entry, error)
	// GetEntryByCastAndDate finds the entry carrying the given date tag, or
	// ErrEntryNotFound. Date tags are a find-or-create convention, not a
	// uniqueness constraint; when duplicates exist any one may be returned.
	GetEntryByCastAndDate(ctx context.Context, castID uuid.UUID, entryDate string) (*Entry, error)
	// SetEntryDuration writes duration_ms only while it is still null.
	SetEntryDuration(ctx context.Context, id uuid.UUID, durationMS int64) error

	// Rule operations
	CreateRules(ctx context.Context, rules []*Rule) error
	ListRulesByOwner(ctx context.Context, ownerID uuid.UUID) ([]*Rule, error)

	// Entry-rule link operations. Links are replaced wholesale on save.
	DeleteEntryRuleLinks(ctx context.Context, entryID uuid.UUID) error
	CreateEntryRuleLinks(ctx context.Context, entryID uuid.UUID, ruleIDs []uuid.UUID) error
	ListEntryRuleLinks(ctx context.Context, entryID uuid.UUID) ([]uuid.UUID, error)
}
