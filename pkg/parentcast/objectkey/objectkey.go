// Package objectkey builds and parses audio object keys.
//
// Keys live in a single flat bucket namespace. The canonical shapes are:
//
//	active:  {ownerID}/{castID}/{filename}
//	trashed: {ownerID}/trash/{castID}/{filename}
//
// Two legacy shapes survive from earlier layouts and are normalized away by
// the path-repair operations:
//
//	{ownerID}/{filename}
//	{castID}/{filename}
package objectkey

import "strings"

// TrashSegment is the namespace segment that marks a trashed key.
const TrashSegment = "trash"

// Join assembles key segments with a single separator. Empty segments are
// dropped and leading/trailing slashes are stripped from each segment so a
// malformed input cannot produce doubled separators or absolute keys.
func Join(parts ...string) string {
	cleaned := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.Trim(p, "/")
		if p == "" {
			continue
		}
		cleaned = append(cleaned, p)
	}
	return strings.Join(cleaned, "/")
}

// Basename returns the last segment of a key, or "" for an empty or
// malformed key.
func Basename(key string) string {
	key = strings.TrimLeft(key, "/")
	if key == "" {
		return ""
	}
	segs := strings.Split(key, "/")
	return segs[len(segs)-1]
}

// BuildActiveKey returns the canonical active key {owner}/{cast}/{filename}.
func BuildActiveKey(ownerID, castID, filename string) string {
	return Join(ownerID, castID, filename)
}

// BuildTrashKey returns the trash key {owner}/trash/{cast}/{filename}.
func BuildTrashKey(ownerID, castID, filename string) string {
	return Join(ownerID, TrashSegment, castID, filename)
}

// Normalize strips leading slashes and, when the key was accidentally stored
// with the bucket name in front ("audio/u1/f.mp3"), removes that prefix. The
// comparison is case-insensitive to match how the keys were written.
func Normalize(key, bucket string) string {
	key = strings.TrimLeft(key, "/")
	if bucket == "" {
		return key
	}
	prefix := bucket + "/"
	if len(key) >= len(prefix) && strings.EqualFold(key[:len(prefix)], prefix) {
		key = key[len(prefix):]
	}
	return key
}

// Kind classifies a key relative to a known owner and cast.
type Kind int

const (
	// KindUnknown is a key that matches none of the recognized shapes.
	KindUnknown Kind = iota
	// KindActive is the canonical {owner}/{cast}/... shape.
	KindActive
	// KindTrash is any key under {owner}/trash/.
	KindTrash
	// KindLegacyOwner is the old {owner}/{filename} shape.
	KindLegacyOwner
	// KindLegacyCast is the old {cast}/{filename} shape.
	KindLegacyCast
)

func (k Kind) String() string {
	switch k {
	case KindActive:
		return "active"
	case KindTrash:
		return "trash"
	case KindLegacyOwner:
		return "legacy-owner"
	case KindLegacyCast:
		return "legacy-cast"
	default:
		return "unknown"
	}
}

// Classify determines which lifecycle shape a key is in for the given owner
// and cast. The legacy shapes are only distinguishable with that context: a
// two-segment key could belong to either namespace.
func Classify(key, ownerID, castID string) Kind {
	key = strings.TrimLeft(key, "/")
	switch {
	case strings.HasPrefix(key, ownerID+"/"+castID+"/"):
		return KindActive
	case strings.HasPrefix(key, ownerID+"/"+TrashSegment+"/"):
		return KindTrash
	case strings.HasPrefix(key, castID+"/"):
		return KindLegacyCast
	case strings.HasPrefix(key, ownerID+"/"):
		return KindLegacyOwner
	default:
		return KindUnknown
	}
}

// Location is the parsed form of a stored key. Exactly one of the shape
// predicates holds for any parsed value.
type Location struct {
	OwnerID string
	CastID  string
	// Rest is everything after the owner/cast (or owner/trash/cast) prefix,
	// usually a bare filename but possibly deeper.
	Rest    string
	trashed bool
	flat    bool
}

// Trashed reports whether the key lies under the owner's trash namespace.
func (l Location) Trashed() bool { return l.trashed }

// Flat reports whether the key had too few segments to carry both an owner
// and a cast (one of the legacy shapes, or a bare filename).
func (l Location) Flat() bool { return l.flat }

// ActiveKey returns the canonical active shape for this location.
func (l Location) ActiveKey() string {
	return Join(l.OwnerID, l.CastID, l.Rest)
}

// Parse splits a key into its Location. A key with four or more segments
// whose second segment is "trash" parses as trashed; three or more segments
// parse as active {owner}/{cast}/{rest}; anything shorter is flat.
func Parse(key string) Location {
	key = strings.TrimLeft(key, "/")
	segs := strings.Split(key, "/")
	if len(segs) >= 4 && segs[1] == TrashSegment {
		return Location{
			OwnerID: segs[0],
			CastID:  segs[2],
			Rest:    strings.Join(segs[3:], "/"),
			trashed: true,
		}
	}
	if len(segs) >= 3 {
		return Location{
			OwnerID: segs[0],
			CastID:  segs[1],
			Rest:    strings.Join(segs[2:], "/"),
		}
	}
	return Location{Rest: key, flat: true}
}
