package objectkey

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestJoin(t *testing.T) {
	tests := []struct {
		name  string
		parts []string
		want  string
	}{
		{"plain segments", []string{"u1", "c1", "f.mp3"}, "u1/c1/f.mp3"},
		{"leading slashes stripped", []string{"/u1", "//c1", "f.mp3"}, "u1/c1/f.mp3"},
		{"trailing slashes stripped", []string{"u1/", "c1/", "f.mp3"}, "u1/c1/f.mp3"},
		{"empty segments dropped", []string{"u1", "", "f.mp3"}, "u1/f.mp3"},
		{"all empty", []string{"", ""}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Join(tt.parts...))
		})
	}
}

func TestBasename(t *testing.T) {
	assert.Equal(t, "", Basename(""))
	assert.Equal(t, "", Basename("///"))
	assert.Equal(t, "c.mp3", Basename("a/b/c.mp3"))
	assert.Equal(t, "f.mp3", Basename("f.mp3"))
	assert.Equal(t, "f.mp3", Basename("/u1/f.mp3"))
}

func TestTrashKeyRoundTrip(t *testing.T) {
	// Building a trash key and parsing it back must be lossless.
	key := BuildTrashKey("owner-1", "cast-9", "take.mp3")
	assert.Equal(t, "owner-1/trash/cast-9/take.mp3", key)

	loc := Parse(key)
	assert.True(t, loc.Trashed())
	assert.Equal(t, "owner-1", loc.OwnerID)
	assert.Equal(t, "cast-9", loc.CastID)
	assert.Equal(t, "take.mp3", loc.Rest)
	assert.Equal(t, "owner-1/cast-9/take.mp3", loc.ActiveKey())
}

func TestNormalize(t *testing.T) {
	assert.Equal(t, "u1/f.mp3", Normalize("/u1/f.mp3", "audio"))
	assert.Equal(t, "u1/f.mp3", Normalize("audio/u1/f.mp3", "audio"))
	assert.Equal(t, "u1/f.mp3", Normalize("AUDIO/u1/f.mp3", "audio"))
	assert.Equal(t, "audiobook/f.mp3", Normalize("audiobook/f.mp3", "audio"))
	assert.Equal(t, "u1/f.mp3", Normalize("u1/f.mp3", ""))
}

func TestParse(t *testing.T) {
	tests := []struct {
		name    string
		key     string
		trashed bool
		flat    bool
		active  string
	}{
		{"active", "u1/c1/f.mp3", false, false, "u1/c1/f.mp3"},
		{"trashed", "u1/trash/c1/f.mp3", true, false, "u1/c1/f.mp3"},
		{"trashed nested", "u1/trash/c1/sub/f.mp3", true, false, "u1/c1/sub/f.mp3"},
		{"owner-only legacy", "u1/f.mp3", false, true, "f.mp3"},
		{"bare filename", "f.mp3", false, true, "f.mp3"},
		// Three segments with "trash" second still parse as active: there is
		// no cast segment to recover, so restore treats it as not-in-trash.
		{"short trash-like", "u1/trash/f.mp3", false, false, "u1/trash/f.mp3"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			loc := Parse(tt.key)
			assert.Equal(t, tt.trashed, loc.Trashed())
			assert.Equal(t, tt.flat, loc.Flat())
			assert.Equal(t, tt.active, loc.ActiveKey())
		})
	}
}

func TestClassify(t *testing.T) {
	const owner, cast = "u1", "c1"
	tests := []struct {
		key  string
		want Kind
	}{
		{"u1/c1/f.mp3", KindActive},
		{"u1/trash/c1/f.mp3", KindTrash},
		{"u1/f.mp3", KindLegacyOwner},
		{"c1/f.mp3", KindLegacyCast},
		{"someone-else/f.mp3", KindUnknown},
		{"/u1/c1/f.mp3", KindActive},
	}
	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.key, owner, cast))
		})
	}
}
