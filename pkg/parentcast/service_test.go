package parentcast_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/parentcast/parentcast/pkg/parentcast"
	"github.com/parentcast/parentcast/pkg/parentcast/repo/memory"
	memorystorage "github.com/parentcast/parentcast/pkg/parentcast/storage/memory"
)

func newTestService(t *testing.T) (parentcast.Service, parentcast.Repository, *memorystorage.Backend) {
	t.Helper()

	repo := memory.New()
	store := memorystorage.New()
	svc, err := parentcast.New(
		parentcast.WithRepository(repo),
		parentcast.WithBlobStore("audio", store),
	)
	require.NoError(t, err)
	return svc, repo, store
}

func seedEntry(t *testing.T, repo parentcast.Repository, ownerID, castID uuid.UUID, audioPath string) *parentcast.Entry {
	t.Helper()

	now := time.Now().UTC()
	entry := &parentcast.Entry{
		ID:        uuid.New(),
		CastID:    castID,
		OwnerID:   ownerID,
		AudioPath: audioPath,
		EntryDate: now.Format(parentcast.EntryDateFormat),
		CreatedAt: now,
		UpdatedAt: now,
	}
	require.NoError(t, repo.CreateEntry(context.Background(), entry))
	return entry
}

func TestServiceCreation(t *testing.T) {
	tests := []struct {
		name        string
		options     []parentcast.Option
		expectError bool
	}{
		{
			name:        "no options should fail",
			options:     []parentcast.Option{},
			expectError: true,
		},
		{
			name: "repository alone should fail",
			options: []parentcast.Option{
				parentcast.WithRepository(memory.New()),
			},
			expectError: true,
		},
		{
			name: "repository and blob store should succeed",
			options: []parentcast.Option{
				parentcast.WithRepository(memory.New()),
				parentcast.WithBlobStore("audio", memorystorage.New()),
			},
			expectError: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, err := parentcast.New(tt.options...)
			if tt.expectError {
				assert.Error(t, err)
				assert.Nil(t, svc)
			} else {
				assert.NoError(t, err)
				assert.NotNil(t, svc)
			}
		})
	}
}

func TestSoftDeleteMovesAudioToTrash(t *testing.T) {
	svc, repo, store := newTestService(t)
	ctx := context.Background()

	ownerID := uuid.New()
	castID := uuid.New()
	activeKey := ownerID.String() + "/" + castID.String() + "/morning.mp3"
	require.NoError(t, store.Upload(ctx, activeKey, strings.NewReader("mp3"), "audio/mpeg"))
	entry := seedEntry(t, repo, ownerID, castID, activeKey)

	deleted, err := svc.SoftDeleteEntry(ctx, entry.ID)
	require.NoError(t, err)

	trashKey := ownerID.String() + "/trash/" + castID.String() + "/morning.mp3"
	assert.Equal(t, trashKey, deleted.AudioPath)
	assert.NotNil(t, deleted.DeletedAt)
	assert.False(t, store.Exists(activeKey))
	assert.True(t, store.Exists(trashKey))
}

func TestSoftDeleteWithoutAudioOnlyMarks(t *testing.T) {
	svc, repo, _ := newTestService(t)
	ctx := context.Background()

	entry := seedEntry(t, repo, uuid.New(), uuid.New(), "")

	deleted, err := svc.SoftDeleteEntry(ctx, entry.ID)
	require.NoError(t, err)
	assert.Empty(t, deleted.AudioPath)
	assert.NotNil(t, deleted.DeletedAt)
}

func TestSoftDeleteLegacyKeyLandsInTrashByBasename(t *testing.T) {
	svc, repo, store := newTestService(t)
	ctx := context.Background()

	ownerID := uuid.New()
	castID := uuid.New()
	// Pre-migration flat layout: the file sits directly under the cast id.
	legacyKey := castID.String() + "/old-take.mp3"
	require.NoError(t, store.Upload(ctx, legacyKey, strings.NewReader("mp3"), "audio/mpeg"))
	entry := seedEntry(t, repo, ownerID, castID, legacyKey)

	deleted, err := svc.SoftDeleteEntry(ctx, entry.ID)
	require.NoError(t, err)

	trashKey := ownerID.String() + "/trash/" + castID.String() + "/old-take.mp3"
	assert.Equal(t, trashKey, deleted.AudioPath)
	assert.True(t, store.Exists(trashKey))
	assert.False(t, store.Exists(legacyKey))
}

func TestSoftDeleteFailsWhenObjectMissing(t *testing.T) {
	svc, repo, _ := newTestService(t)
	ctx := context.Background()

	entry := seedEntry(t, repo, uuid.New(), uuid.New(), "nobody/home.mp3")

	_, err := svc.SoftDeleteEntry(ctx, entry.ID)
	require.Error(t, err)
	assert.ErrorIs(t, err, parentcast.ErrMoveFailed)

	// Row is untouched when the move fails.
	reloaded, err := svc.GetEntry(ctx, entry.ID)
	require.NoError(t, err)
	assert.Nil(t, reloaded.DeletedAt)
	assert.Equal(t, "nobody/home.mp3", reloaded.AudioPath)
}

func TestRestoreRoundTrip(t *testing.T) {
	svc, repo, store := newTestService(t)
	ctx := context.Background()

	ownerID := uuid.New()
	castID := uuid.New()
	activeKey := ownerID.String() + "/" + castID.String() + "/evening.mp3"
	require.NoError(t, store.Upload(ctx, activeKey, strings.NewReader("mp3"), "audio/mpeg"))
	entry := seedEntry(t, repo, ownerID, castID, activeKey)

	_, err := svc.SoftDeleteEntry(ctx, entry.ID)
	require.NoError(t, err)

	restored, movedBack, err := svc.RestoreEntry(ctx, entry.ID)
	require.NoError(t, err)
	assert.True(t, movedBack)
	assert.Nil(t, restored.DeletedAt)
	assert.Equal(t, activeKey, restored.AudioPath)
	assert.True(t, store.Exists(activeKey))
}

func TestRestoreLegacyDeleteLandsOnCanonicalKey(t *testing.T) {
	svc, repo, store := newTestService(t)
	ctx := context.Background()

	ownerID := uuid.New()
	castID := uuid.New()
	legacyKey := castID.String() + "/from-before.mp3"
	require.NoError(t, store.Upload(ctx, legacyKey, strings.NewReader("mp3"), "audio/mpeg"))
	entry := seedEntry(t, repo, ownerID, castID, legacyKey)

	_, err := svc.SoftDeleteEntry(ctx, entry.ID)
	require.NoError(t, err)

	restored, movedBack, err := svc.RestoreEntry(ctx, entry.ID)
	require.NoError(t, err)
	assert.True(t, movedBack)

	// Restore never reproduces the legacy shape.
	canonical := ownerID.String() + "/" + castID.String() + "/from-before.mp3"
	assert.Equal(t, canonical, restored.AudioPath)
	assert.True(t, store.Exists(canonical))
}

func TestRestoreWithActiveKeyClearsMarkWithoutMove(t *testing.T) {
	svc, repo, store := newTestService(t)
	ctx := context.Background()

	ownerID := uuid.New()
	castID := uuid.New()
	activeKey := ownerID.String() + "/" + castID.String() + "/still-here.mp3"
	require.NoError(t, store.Upload(ctx, activeKey, strings.NewReader("mp3"), "audio/mpeg"))

	// Trashed row whose object was already recovered out of band.
	entry := seedEntry(t, repo, ownerID, castID, activeKey)
	now := time.Now().UTC()
	entry.DeletedAt = &now
	require.NoError(t, repo.UpdateEntry(ctx, entry))

	restored, movedBack, err := svc.RestoreEntry(ctx, entry.ID)
	require.NoError(t, err)
	assert.False(t, movedBack)
	assert.Nil(t, restored.DeletedAt)
	assert.Equal(t, activeKey, restored.AudioPath)
}

func TestGetPlaybackURL(t *testing.T) {
	svc, _, store := newTestService(t)
	ctx := context.Background()

	key := "owner/cast/take.mp3"
	require.NoError(t, store.Upload(ctx, key, strings.NewReader("mp3"), "audio/mpeg"))

	t.Run("empty key short-circuits", func(t *testing.T) {
		assert.Empty(t, svc.GetPlaybackURL(ctx, "", 0))
	})

	t.Run("plain key resolves", func(t *testing.T) {
		url := svc.GetPlaybackURL(ctx, key, 0)
		assert.Contains(t, url, key)
	})

	t.Run("bucket-prefixed key is normalized", func(t *testing.T) {
		url := svc.GetPlaybackURL(ctx, "audio/"+key, 0)
		assert.Contains(t, url, key)
		assert.NotContains(t, url, "audio/owner")
	})

	t.Run("missing object yields empty url, not an error", func(t *testing.T) {
		assert.Empty(t, svc.GetPlaybackURL(ctx, "owner/cast/missing.mp3", 0))
	})
}

func TestReconcileOrphansImportsOnce(t *testing.T) {
	svc, repo, store := newTestService(t)
	ctx := context.Background()

	ownerID := uuid.New()
	castID := uuid.New()
	folder := ownerID.String() + "/" + castID.String()

	referencedKey := folder + "/known.mp3"
	require.NoError(t, store.Upload(ctx, referencedKey, strings.NewReader("mp3"), "audio/mpeg"))
	seedEntry(t, repo, ownerID, castID, referencedKey)

	require.NoError(t, store.Upload(ctx, folder+"/orphan.mp3", strings.NewReader("mp3"), "audio/mpeg"))
	require.NoError(t, store.Upload(ctx, folder+"/notes.txt", strings.NewReader("txt"), "text/plain"))
	// Legacy flat layout folder is scanned too.
	require.NoError(t, store.Upload(ctx, castID.String()+"/flat.mp3", strings.NewReader("mp3"), "audio/mpeg"))

	imported, err := svc.ReconcileOrphans(ctx, ownerID, castID)
	require.NoError(t, err)
	assert.Equal(t, 2, imported)

	entries, err := svc.ListEntries(ctx, castID)
	require.NoError(t, err)
	assert.Len(t, entries, 3)

	// A second pass finds nothing new.
	imported, err = svc.ReconcileOrphans(ctx, ownerID, castID)
	require.NoError(t, err)
	assert.Zero(t, imported)
}

func TestNormalizePaths(t *testing.T) {
	svc, repo, store := newTestService(t)
	ctx := context.Background()

	ownerID := uuid.New()
	castID := uuid.New()
	owner := ownerID.String()
	cast := castID.String()

	activeKey := owner + "/" + cast + "/already-fine.mp3"
	legacyCastKey := cast + "/by-cast.mp3"
	legacyOwnerKey := owner + "/by-owner.mp3"
	for _, key := range []string{activeKey, legacyCastKey, legacyOwnerKey} {
		require.NoError(t, store.Upload(ctx, key, strings.NewReader("mp3"), "audio/mpeg"))
	}

	seedEntry(t, repo, ownerID, castID, activeKey)
	fromCast := seedEntry(t, repo, ownerID, castID, legacyCastKey)
	fromOwner := seedEntry(t, repo, ownerID, castID, legacyOwnerKey)

	moved, err := svc.NormalizePaths(ctx, ownerID, castID)
	require.NoError(t, err)
	assert.Equal(t, 2, moved)

	reloaded, err := svc.GetEntry(ctx, fromCast.ID)
	require.NoError(t, err)
	assert.Equal(t, owner+"/"+cast+"/by-cast.mp3", reloaded.AudioPath)

	reloaded, err = svc.GetEntry(ctx, fromOwner.ID)
	require.NoError(t, err)
	assert.Equal(t, owner+"/"+cast+"/by-owner.mp3", reloaded.AudioPath)

	assert.True(t, store.Exists(activeKey))
	assert.False(t, store.Exists(legacyCastKey))
	assert.False(t, store.Exists(legacyOwnerKey))

	// Second run is a no-op.
	moved, err = svc.NormalizePaths(ctx, ownerID, castID)
	require.NoError(t, err)
	assert.Zero(t, moved)
}

func TestListRulesSeedsDefaultsOnce(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()
	ownerID := uuid.New()

	rules, err := svc.ListRules(ctx, ownerID)
	require.NoError(t, err)
	require.Len(t, rules, 3)
	assert.Equal(t, "Assume Positive Intent", rules[0].Title)
	assert.Equal(t, "Listen First", rules[1].Title)
	assert.Equal(t, "One Story per Entry", rules[2].Title)

	again, err := svc.ListRules(ctx, ownerID)
	require.NoError(t, err)
	require.Len(t, again, 3)
	assert.Equal(t, rules[0].ID, again[0].ID)
}

func TestReplaceEntryRules(t *testing.T) {
	svc, repo, _ := newTestService(t)
	ctx := context.Background()

	ownerID := uuid.New()
	entry := seedEntry(t, repo, ownerID, uuid.New(), "")

	rules, err := svc.ListRules(ctx, ownerID)
	require.NoError(t, err)

	want := []uuid.UUID{rules[0].ID, rules[2].ID}
	require.NoError(t, svc.ReplaceEntryRules(ctx, entry.ID, want))

	got, err := svc.ListEntryRules(ctx, entry.ID)
	require.NoError(t, err)
	assert.ElementsMatch(t, want, got)

	// Replacement is total, not additive.
	require.NoError(t, svc.ReplaceEntryRules(ctx, entry.ID, []uuid.UUID{rules[1].ID}))
	got, err = svc.ListEntryRules(ctx, entry.ID)
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{rules[1].ID}, got)

	require.NoError(t, svc.ReplaceEntryRules(ctx, entry.ID, nil))
	got, err = svc.ListEntryRules(ctx, entry.ID)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestFindOrCreateTodayEntry(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	ownerID := uuid.New()
	cast, err := svc.CreateCast(ctx, parentcast.CreateCastRequest{OwnerID: ownerID, Title: "Family"})
	require.NoError(t, err)

	first, err := svc.FindOrCreateTodayEntry(ctx, ownerID, cast.ID)
	require.NoError(t, err)
	assert.True(t, first.Created)

	second, err := svc.FindOrCreateTodayEntry(ctx, ownerID, cast.ID)
	require.NoError(t, err)
	assert.False(t, second.Created)
	assert.Equal(t, first.EntryID, second.EntryID)
}

func TestSetEntryDurationIsWriteOnce(t *testing.T) {
	svc, repo, _ := newTestService(t)
	ctx := context.Background()

	entry := seedEntry(t, repo, uuid.New(), uuid.New(), "")

	require.NoError(t, svc.SetEntryDuration(ctx, entry.ID, 42_000))
	reloaded, err := svc.GetEntry(ctx, entry.ID)
	require.NoError(t, err)
	require.NotNil(t, reloaded.DurationMS)
	assert.EqualValues(t, 42_000, *reloaded.DurationMS)

	require.NoError(t, svc.SetEntryDuration(ctx, entry.ID, 99))
	reloaded, err = svc.GetEntry(ctx, entry.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 42_000, *reloaded.DurationMS)
}

func TestUploadAudioStoresAtCanonicalKey(t *testing.T) {
	svc, repo, store := newTestService(t)
	ctx := context.Background()

	ownerID := uuid.New()
	castID := uuid.New()
	entry := seedEntry(t, repo, ownerID, castID, "")

	updated, err := svc.UploadAudio(ctx, parentcast.UploadAudioRequest{
		EntryID:     entry.ID,
		FileName:    "recording.mp3",
		ContentType: "audio/mpeg",
		Reader:      strings.NewReader("mp3 bytes"),
	})
	require.NoError(t, err)

	wantKey := ownerID.String() + "/" + castID.String() + "/recording.mp3"
	assert.Equal(t, wantKey, updated.AudioPath)
	assert.True(t, store.Exists(wantKey))
}

func TestListCastsAggregates(t *testing.T) {
	svc, repo, store := newTestService(t)
	ctx := context.Background()

	ownerID := uuid.New()
	cast, err := svc.CreateCast(ctx, parentcast.CreateCastRequest{OwnerID: ownerID, Title: "Daily"})
	require.NoError(t, err)

	seedEntry(t, repo, ownerID, cast.ID, "")
	key := ownerID.String() + "/" + cast.ID.String() + "/gone.mp3"
	require.NoError(t, store.Upload(ctx, key, strings.NewReader("mp3"), "audio/mpeg"))
	trashed := seedEntry(t, repo, ownerID, cast.ID, key)
	_, err = svc.SoftDeleteEntry(ctx, trashed.ID)
	require.NoError(t, err)

	casts, err := svc.ListCasts(ctx, ownerID)
	require.NoError(t, err)
	require.Len(t, casts, 1)
	assert.Equal(t, 1, casts[0].EntryCount)
	require.NotNil(t, casts[0].LastEntryAt)

	trash, err := svc.ListTrash(ctx, ownerID)
	require.NoError(t, err)
	require.Len(t, trash, 1)
	assert.Equal(t, trashed.ID, trash[0].ID)
}
