package parentcast

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/parentcast/parentcast/pkg/parentcast/objectkey"
)

// DefaultSignedURLTTL is the playback URL lifetime when the caller does not
// supply one. Clients refresh roughly 60 seconds before expiry.
const DefaultSignedURLTTL = 900 * time.Second

// service implements the Service interface
type service struct {
	repository Repository
	store      BlobStore
	bucket     string
	logger     *slog.Logger
}

// Option represents a functional option for configuring the service
type Option func(*service)

// WithRepository sets the repository for the service
func WithRepository(repo Repository) Option {
	return func(s *service) {
		s.repository = repo
	}
}

// WithBlobStore sets the blob store and the bucket name its keys may be
// accidentally prefixed with.
func WithBlobStore(bucket string, store BlobStore) Option {
	return func(s *service) {
		s.bucket = bucket
		s.store = store
	}
}

// WithLogger sets the structured logger used for best-effort diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(s *service) {
		s.logger = logger
	}
}

// New creates a new service instance with the given options
func New(options ...Option) (Service, error) {
	s := &service{}

	for _, option := range options {
		option(s)
	}

	if s.repository == nil {
		return nil, fmt.Errorf("repository is required")
	}
	if s.store == nil {
		return nil, fmt.Errorf("blob store is required")
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}

	return s, nil
}

// Cast operations

func (s *service) CreateCast(ctx context.Context, req CreateCastRequest) (*Cast, error) {
	now := time.Now().UTC()
	cast := &Cast{
		ID:        uuid.New(),
		OwnerID:   req.OwnerID,
		Title:     req.Title,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.repository.CreateCast(ctx, cast); err != nil {
		return nil, fmt.Errorf("create cast: %w", err)
	}

	return cast, nil
}

func (s *service) GetCast(ctx context.Context, id uuid.UUID) (*Cast, error) {
	return s.repository.GetCast(ctx, id)
}

func (s *service) ListCasts(ctx context.Context, ownerID uuid.UUID) ([]*CastWithMeta, error) {
	casts, err := s.repository.ListCastsByOwner(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list casts: %w", err)
	}

	results := make([]*CastWithMeta, 0, len(casts))
	for _, c := range casts {
		entries, err := s.repository.ListEntriesByCast(ctx, c.ID, false)
		if err != nil {
			return nil, fmt.Errorf("list entries for cast %s: %w", c.ID, err)
		}
		meta := &CastWithMeta{Cast: *c, EntryCount: len(entries)}
		if len(entries) > 0 {
			// Entries come back newest-first.
			last := entries[0].CreatedAt
			meta.LastEntryAt = &last
		}
		results = append(results, meta)
	}
	return results, nil
}

// Entry operations

func (s *service) GetEntry(ctx context.Context, id uuid.UUID) (*Entry, error) {
	return s.repository.GetEntry(ctx, id)
}

func (s *service) ListEntries(ctx context.Context, castID uuid.UUID) ([]*Entry, error) {
	return s.repository.ListEntriesByCast(ctx, castID, false)
}

func (s *service) ListTrash(ctx context.Context, ownerID uuid.UUID) ([]*Entry, error) {
	return s.repository.ListTrashedByOwner(ctx, ownerID)
}

func (s *service) FindOrCreateTodayEntry(ctx context.Context, ownerID, castID uuid.UUID) (*TodayEntryResult, error) {
	today := time.Now().Format(EntryDateFormat)

	existing, err := s.repository.GetEntryByCastAndDate(ctx, castID, today)
	if err == nil {
		return &TodayEntryResult{EntryID: existing.ID, Created: false}, nil
	}
	if !errors.Is(err, ErrEntryNotFound) {
		return nil, fmt.Errorf("look up today's entry: %w", err)
	}

	now := time.Now().UTC()
	entry := &Entry{
		ID:        uuid.New(),
		CastID:    castID,
		OwnerID:   ownerID,
		EntryDate: today,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repository.CreateEntry(ctx, entry); err != nil {
		return nil, fmt.Errorf("create today's entry: %w", err)
	}

	return &TodayEntryResult{EntryID: entry.ID, Created: true}, nil
}

func (s *service) SetEntryDuration(ctx context.Context, id uuid.UUID, durationMS int64) error {
	if durationMS < 0 {
		durationMS = 0
	}
	return s.repository.SetEntryDuration(ctx, id, durationMS)
}

func (s *service) UpdateEntryReflection(ctx context.Context, id uuid.UUID, reflection string) error {
	entry, err := s.repository.GetEntry(ctx, id)
	if err != nil {
		return err
	}
	entry.Reflection = reflection
	entry.UpdatedAt = time.Now().UTC()
	return s.repository.UpdateEntry(ctx, entry)
}

// Attachment operations

func (s *service) UploadAudio(ctx context.Context, req UploadAudioRequest) (*Entry, error) {
	entry, err := s.repository.GetEntry(ctx, req.EntryID)
	if err != nil {
		return nil, err
	}

	key := objectkey.BuildActiveKey(entry.OwnerID.String(), entry.CastID.String(), req.FileName)
	if err := s.store.Upload(ctx, key, req.Reader, req.ContentType); err != nil {
		return nil, &StorageError{Bucket: s.bucket, Key: key, Op: "upload", Err: err}
	}

	entry.AudioPath = key
	entry.AudioURL = ""
	entry.UpdatedAt = time.Now().UTC()
	if err := s.repository.UpdateEntry(ctx, entry); err != nil {
		return nil, &EntryError{EntryID: entry.ID, Op: "upload-audio", Err: err}
	}
	return entry, nil
}

func (s *service) UploadImage(ctx context.Context, req UploadImageRequest) (*Entry, error) {
	entry, err := s.repository.GetEntry(ctx, req.EntryID)
	if err != nil {
		return nil, err
	}

	key := objectkey.BuildActiveKey(entry.OwnerID.String(), entry.CastID.String(), req.FileName)
	if err := s.store.Upload(ctx, key, req.Reader, req.ContentType); err != nil {
		return nil, &StorageError{Bucket: s.bucket, Key: key, Op: "upload", Err: err}
	}

	entry.ImagePath = key
	entry.UpdatedAt = time.Now().UTC()
	if err := s.repository.UpdateEntry(ctx, entry); err != nil {
		return nil, &EntryError{EntryID: entry.ID, Op: "upload-image", Err: err}
	}
	return entry, nil
}

// GetPlaybackURL implements the signed-URL issuer contract: "" means
// unavailable, never an error. Issuance has no side effects, so redundant
// concurrent calls (proactive timer plus failure-triggered refresh) are safe.
func (s *service) GetPlaybackURL(ctx context.Context, rawKey string, ttl time.Duration) string {
	if rawKey == "" {
		return ""
	}
	if ttl <= 0 {
		ttl = DefaultSignedURLTTL
	}

	key := objectkey.Normalize(rawKey, s.bucket)
	url, err := s.store.SignedURL(ctx, key, ttl)
	if err != nil {
		s.logger.Error("signed url issuance failed",
			"bucket", s.bucket, "raw_key", rawKey, "normalized", key, "error", err)
		return ""
	}
	if url == "" {
		s.logger.Warn("signed url response missing url",
			"bucket", s.bucket, "raw_key", rawKey, "normalized", key)
		return ""
	}
	return url
}

// Lifecycle operations

func (s *service) SoftDeleteEntry(ctx context.Context, id uuid.UUID) (*Entry, error) {
	entry, err := s.repository.GetEntry(ctx, id)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()

	if entry.AudioPath != "" {
		src := objectkey.Normalize(entry.AudioPath, s.bucket)
		trashKey := objectkey.BuildTrashKey(
			entry.OwnerID.String(), entry.CastID.String(), objectkey.Basename(src))

		s.logger.Info("moving audio to trash", "entry_id", id, "from", src, "to", trashKey)
		if err := s.store.Move(ctx, src, trashKey); err != nil {
			return nil, &StorageError{Bucket: s.bucket, Key: src, Op: "move", Err: fmt.Errorf("%w: %v", ErrMoveFailed, err)}
		}
		entry.AudioPath = trashKey
	}

	entry.DeletedAt = &now
	entry.UpdatedAt = now
	// If this update fails after the move succeeded the row still claims the
	// old key. There is no rollback; NormalizePaths/ReconcileOrphans are the
	// recovery path.
	if err := s.repository.UpdateEntry(ctx, entry); err != nil {
		return nil, &EntryError{EntryID: id, Op: "soft-delete", Err: err}
	}
	return entry, nil
}

func (s *service) RestoreEntry(ctx context.Context, id uuid.UUID) (*Entry, bool, error) {
	entry, err := s.repository.GetEntry(ctx, id)
	if err != nil {
		return nil, false, err
	}

	now := time.Now().UTC()
	key := objectkey.Normalize(entry.AudioPath, s.bucket)
	loc := objectkey.Parse(key)

	if key == "" || !loc.Trashed() {
		// Already recovered (or never had trashed audio): just clear the
		// mark without touching the store.
		entry.DeletedAt = nil
		entry.UpdatedAt = now
		if err := s.repository.UpdateEntry(ctx, entry); err != nil {
			return nil, false, &EntryError{EntryID: id, Op: "restore", Err: err}
		}
		return entry, false, nil
	}

	// Restore always lands on the canonical active shape, regardless of what
	// the pre-trash key looked like.
	activeKey := loc.ActiveKey()
	s.logger.Info("restoring audio from trash", "entry_id", id, "from", key, "to", activeKey)
	if err := s.store.Move(ctx, key, activeKey); err != nil {
		return nil, false, &StorageError{Bucket: s.bucket, Key: key, Op: "move", Err: fmt.Errorf("%w: %v", ErrMoveFailed, err)}
	}

	entry.AudioPath = activeKey
	entry.DeletedAt = nil
	entry.UpdatedAt = now
	if err := s.repository.UpdateEntry(ctx, entry); err != nil {
		return nil, false, &EntryError{EntryID: id, Op: "restore", Err: err}
	}
	return entry, true, nil
}

func (s *service) ReconcileOrphans(ctx context.Context, ownerID, castID uuid.UUID) (int, error) {
	owner := ownerID.String()
	cast := castID.String()

	// Candidate folders cover the current per-cast layout and both legacy
	// layouts.
	folders := []string{
		objectkey.Join(owner, cast),
		cast,
		owner,
	}

	rows, err := s.repository.ListEntriesByCast(ctx, castID, false)
	if err != nil {
		return 0, fmt.Errorf("list entries: %w", err)
	}
	referenced := make(map[string]struct{}, len(rows))
	for _, r := range rows {
		if r.AudioPath == "" {
			continue
		}
		referenced[objectkey.Normalize(r.AudioPath, s.bucket)] = struct{}{}
	}

	imported := 0
	for _, folder := range folders {
		objects, err := s.store.List(ctx, folder)
		if err != nil {
			// A missing folder is expected drift, not a batch failure.
			s.logger.Warn("orphan scan list failed", "folder", folder, "error", err)
			continue
		}

		for _, obj := range objects {
			if !strings.HasSuffix(strings.ToLower(obj.Name), AudioExtension) {
				continue
			}
			key := objectkey.Join(folder, obj.Name)
			if _, ok := referenced[key]; ok {
				continue
			}

			now := time.Now().UTC()
			entry := &Entry{
				ID:        uuid.New(),
				CastID:    castID,
				OwnerID:   ownerID,
				AudioPath: key,
				EntryDate: now.Format(EntryDateFormat),
				CreatedAt: now,
				UpdatedAt: now,
			}
			if err := s.repository.CreateEntry(ctx, entry); err != nil {
				s.logger.Error("orphan import insert failed", "key", key, "error", err)
				continue
			}
			referenced[key] = struct{}{}
			imported++
		}
	}

	return imported, nil
}

func (s *service) NormalizePaths(ctx context.Context, ownerID, castID uuid.UUID) (int, error) {
	owner := ownerID.String()
	cast := castID.String()

	rows, err := s.repository.ListEntriesByCast(ctx, castID, false)
	if err != nil {
		return 0, fmt.Errorf("list entries: %w", err)
	}

	moved := 0
	for _, entry := range rows {
		key := objectkey.Normalize(entry.AudioPath, s.bucket)
		if key == "" {
			continue
		}

		kind := objectkey.Classify(key, owner, cast)
		switch kind {
		case objectkey.KindActive, objectkey.KindTrash:
			continue
		case objectkey.KindLegacyOwner, objectkey.KindLegacyCast:
			target := objectkey.BuildActiveKey(owner, cast, objectkey.Basename(key))
			s.logger.Info("normalizing audio path",
				"entry_id", entry.ID, "kind", kind.String(), "from", key, "to", target)
			if err := s.store.Move(ctx, key, target); err != nil {
				s.logger.Error("normalize move failed", "entry_id", entry.ID, "from", key, "error", err)
				continue
			}
			entry.AudioPath = target
			entry.UpdatedAt = time.Now().UTC()
			if err := s.repository.UpdateEntry(ctx, entry); err != nil {
				s.logger.Error("normalize row update failed", "entry_id", entry.ID, "key", target, "error", err)
				continue
			}
			moved++
		default:
			s.logger.Warn("skipping key with unexpected shape", "entry_id", entry.ID, "key", key)
		}
	}

	return moved, nil
}

// Rule operations

func (s *service) ListRules(ctx context.Context, ownerID uuid.UUID) ([]*Rule, error) {
	rules, err := s.repository.ListRulesByOwner(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list rules: %w", err)
	}

	if len(rules) == 0 {
		now := time.Now().UTC()
		seed := make([]*Rule, 0, len(DefaultRules))
		for _, r := range DefaultRules {
			seed = append(seed, &Rule{
				ID:          uuid.New(),
				OwnerID:     ownerID,
				Title:       r.Title,
				Description: r.Description,
				CreatedAt:   now,
			})
		}
		if err := s.repository.CreateRules(ctx, seed); err != nil {
			return nil, fmt.Errorf("seed rules: %w", err)
		}
		rules = seed
	}

	sort.Slice(rules, func(i, j int) bool { return rules[i].Title < rules[j].Title })
	return rules, nil
}

func (s *service) ReplaceEntryRules(ctx context.Context, entryID uuid.UUID, ruleIDs []uuid.UUID) error {
	if err := s.repository.DeleteEntryRuleLinks(ctx, entryID); err != nil {
		return &EntryError{EntryID: entryID, Op: "replace-rules", Err: err}
	}
	if len(ruleIDs) == 0 {
		return nil
	}
	if err := s.repository.CreateEntryRuleLinks(ctx, entryID, ruleIDs); err != nil {
		return &EntryError{EntryID: entryID, Op: "replace-rules", Err: err}
	}
	return nil
}

func (s *service) ListEntryRules(ctx context.Context, entryID uuid.UUID) ([]uuid.UUID, error) {
	return s.repository.ListEntryRuleLinks(ctx, entryID)
}
