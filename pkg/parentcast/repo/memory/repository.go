// Package memory provides an in-memory parentcast.Repository used by tests
// and local development.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/parentcast/parentcast/pkg/parentcast"
)

// Repository implements parentcast.Repository using in-memory maps.
type Repository struct {
	mu           sync.RWMutex
	casts        map[uuid.UUID]*parentcast.Cast
	entries      map[uuid.UUID]*parentcast.Entry
	rules        map[uuid.UUID]*parentcast.Rule
	linksByEntry map[uuid.UUID][]uuid.UUID
}

// New creates a new in-memory repository
func New() parentcast.Repository {
	return &Repository{
		casts:        make(map[uuid.UUID]*parentcast.Cast),
		entries:      make(map[uuid.UUID]*parentcast.Entry),
		rules:        make(map[uuid.UUID]*parentcast.Rule),
		linksByEntry: make(map[uuid.UUID][]uuid.UUID),
	}
}

// Cast operations

func (r *Repository) CreateCast(ctx context.Context, cast *parentcast.Cast) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	// Store a copy to avoid external modifications
	castCopy := *cast
	r.casts[cast.ID] = &castCopy
	return nil
}

func (r *Repository) GetCast(ctx context.Context, id uuid.UUID) (*parentcast.Cast, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	cast, exists := r.casts[id]
	if !exists {
		return nil, parentcast.ErrCastNotFound
	}
	castCopy := *cast
	return &castCopy, nil
}

func (r *Repository) ListCastsByOwner(ctx context.Context, ownerID uuid.UUID) ([]*parentcast.Cast, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []*parentcast.Cast
	for _, c := range r.casts {
		if c.OwnerID == ownerID {
			castCopy := *c
			out = append(out, &castCopy)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

// Entry operations

func (r *Repository) CreateEntry(ctx context.Context, entry *parentcast.Entry) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	entryCopy := *entry
	r.entries[entry.ID] = &entryCopy
	return nil
}

func (r *Repository) GetEntry(ctx context.Context, id uuid.UUID) (*parentcast.Entry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	entry, exists := r.entries[id]
	if !exists {
		return nil, parentcast.ErrEntryNotFound
	}
	entryCopy := *entry
	return &entryCopy, nil
}

func (r *Repository) UpdateEntry(ctx context.Context, entry *parentcast.Entry) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.entries[entry.ID]; !exists {
		return parentcast.ErrEntryNotFound
	}
	entryCopy := *entry
	r.entries[entry.ID] = &entryCopy
	return nil
}

func (r *Repository) ListEntriesByCast(ctx context.Context, castID uuid.UUID, includeDeleted bool) ([]*parentcast.Entry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []*parentcast.Entry
	for _, e := range r.entries {
		if e.CastID != castID {
			continue
		}
		if e.DeletedAt != nil && !includeDeleted {
			continue
		}
		entryCopy := *e
		out = append(out, &entryCopy)
	}
	sortNewestFirst(out)
	return out, nil
}

func (r *Repository) ListTrashedByOwner(ctx context.Context, ownerID uuid.UUID) ([]*parentcast.Entry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []*parentcast.Entry
	for _, e := range r.entries {
		if e.OwnerID == ownerID && e.DeletedAt != nil {
			entryCopy := *e
			out = append(out, &entryCopy)
		}
	}
	sortNewestFirst(out)
	return out, nil
}

func (r *Repository) GetEntryByCastAndDate(ctx context.Context, castID uuid.UUID, entryDate string) (*parentcast.Entry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, e := range r.entries {
		if e.CastID == castID && e.EntryDate == entryDate && e.DeletedAt == nil {
			entryCopy := *e
			return &entryCopy, nil
		}
	}
	return nil, parentcast.ErrEntryNotFound
}

func (r *Repository) SetEntryDuration(ctx context.Context, id uuid.UUID, durationMS int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry, exists := r.entries[id]
	if !exists {
		return parentcast.ErrEntryNotFound
	}
	if entry.DurationMS != nil {
		// Write-once: a recorded duration is never overwritten.
		return nil
	}
	entry.DurationMS = &durationMS
	entry.UpdatedAt = time.Now().UTC()
	return nil
}

// Rule operations

func (r *Repository) CreateRules(ctx context.Context, rules []*parentcast.Rule) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, rule := range rules {
		ruleCopy := *rule
		r.rules[rule.ID] = &ruleCopy
	}
	return nil
}

func (r *Repository) ListRulesByOwner(ctx context.Context, ownerID uuid.UUID) ([]*parentcast.Rule, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []*parentcast.Rule
	for _, rule := range r.rules {
		if rule.OwnerID == ownerID {
			ruleCopy := *rule
			out = append(out, &ruleCopy)
		}
	}
	return out, nil
}

// Entry-rule link operations

func (r *Repository) DeleteEntryRuleLinks(ctx context.Context, entryID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.linksByEntry, entryID)
	return nil
}

func (r *Repository) CreateEntryRuleLinks(ctx context.Context, entryID uuid.UUID, ruleIDs []uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, rid := range ruleIDs {
		if _, exists := r.rules[rid]; !exists {
			return parentcast.ErrRuleNotFound
		}
	}
	links := make([]uuid.UUID, len(ruleIDs))
	copy(links, ruleIDs)
	r.linksByEntry[entryID] = links
	return nil
}

func (r *Repository) ListEntryRuleLinks(ctx context.Context, entryID uuid.UUID) ([]uuid.UUID, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	links := r.linksByEntry[entryID]
	out := make([]uuid.UUID, len(links))
	copy(out, links)
	return out, nil
}

func sortNewestFirst(entries []*parentcast.Entry) {
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].CreatedAt.After(entries[j].CreatedAt)
	})
}
