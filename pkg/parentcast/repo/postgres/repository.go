// Package postgres provides a pgx-backed parentcast.Repository.
package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/parentcast/parentcast/pkg/parentcast"
)

// DBTX is an interface that allows us to use either a database connection or
// a transaction.
type DBTX interface {
	Exec(context.Context, string, ...interface{}) (pgconn.CommandTag, error)
	Query(context.Context, string, ...interface{}) (pgx.Rows, error)
	QueryRow(context.Context, string, ...interface{}) pgx.Row
}

// Repository implements parentcast.Repository using PostgreSQL.
type Repository struct {
	db DBTX
}

// New creates a new PostgreSQL repository
func New(db DBTX) parentcast.Repository {
	return &Repository{db: db}
}

// NewWithPool creates a new PostgreSQL repository with connection pool
func NewWithPool(pool *pgxpool.Pool) parentcast.Repository {
	return &Repository{db: pool}
}

// handlePostgresError maps low-level pg errors onto readable failures.
func handlePostgresError(operation string, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505": // unique_violation
			return fmt.Errorf("duplicate entry in %s", operation)
		case "23503": // foreign_key_violation
			return fmt.Errorf("referenced record not found in %s", operation)
		case "23502": // not_null_violation
			return fmt.Errorf("required field %s is missing", pgErr.ColumnName)
		case "42P01": // undefined_table
			return errors.New("table does not exist - database migration required")
		default:
			return fmt.Errorf("database error in %s: %s (code: %s)", operation, pgErr.Message, pgErr.Code)
		}
	}
	return fmt.Errorf("database error in %s: %w", operation, err)
}

// Cast operations

func (r *Repository) CreateCast(ctx context.Context, cast *parentcast.Cast) error {
	query := `
		INSERT INTO casts (id, owner_id, title, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)`

	_, err := r.db.Exec(ctx, query,
		cast.ID, cast.OwnerID, cast.Title, cast.CreatedAt, cast.UpdatedAt)
	if err != nil {
		return handlePostgresError("create cast", err)
	}
	return nil
}

func (r *Repository) GetCast(ctx context.Context, id uuid.UUID) (*parentcast.Cast, error) {
	query := `
		SELECT id, owner_id, title, created_at, updated_at
		FROM casts WHERE id = $1`

	var cast parentcast.Cast
	err := r.db.QueryRow(ctx, query, id).Scan(
		&cast.ID, &cast.OwnerID, &cast.Title, &cast.CreatedAt, &cast.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, parentcast.ErrCastNotFound
		}
		return nil, handlePostgresError("get cast", err)
	}
	return &cast, nil
}

func (r *Repository) ListCastsByOwner(ctx context.Context, ownerID uuid.UUID) ([]*parentcast.Cast, error) {
	query := `
		SELECT id, owner_id, title, created_at, updated_at
		FROM casts WHERE owner_id = $1
		ORDER BY created_at ASC`

	rows, err := r.db.Query(ctx, query, ownerID)
	if err != nil {
		return nil, handlePostgresError("list casts", err)
	}
	defer rows.Close()

	var out []*parentcast.Cast
	for rows.Next() {
		var cast parentcast.Cast
		if err := rows.Scan(&cast.ID, &cast.OwnerID, &cast.Title, &cast.CreatedAt, &cast.UpdatedAt); err != nil {
			return nil, handlePostgresError("scan cast", err)
		}
		out = append(out, &cast)
	}
	return out, rows.Err()
}

// Entry operations

const entryColumns = `id, cast_id, owner_id, title, reflection, transcript,
	audio_path, audio_url, image_path, duration_ms, entry_date,
	created_at, updated_at, deleted_at`

func scanEntry(row pgx.Row) (*parentcast.Entry, error) {
	var e parentcast.Entry
	err := row.Scan(
		&e.ID, &e.CastID, &e.OwnerID, &e.Title, &e.Reflection, &e.Transcript,
		&e.AudioPath, &e.AudioURL, &e.ImagePath, &e.DurationMS, &e.EntryDate,
		&e.CreatedAt, &e.UpdatedAt, &e.DeletedAt)
	if err != nil {
		return nil, err
	}
	return &e, nil
}

func (r *Repository) CreateEntry(ctx context.Context, entry *parentcast.Entry) error {
	query := `
		INSERT INTO entries (
			id, cast_id, owner_id, title, reflection, transcript,
			audio_path, audio_url, image_path, duration_ms, entry_date,
			created_at, updated_at, deleted_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`

	_, err := r.db.Exec(ctx, query,
		entry.ID, entry.CastID, entry.OwnerID, entry.Title, entry.Reflection,
		entry.Transcript, entry.AudioPath, entry.AudioURL, entry.ImagePath,
		entry.DurationMS, entry.EntryDate, entry.CreatedAt, entry.UpdatedAt,
		entry.DeletedAt)
	if err != nil {
		return handlePostgresError("create entry", err)
	}
	return nil
}

func (r *Repository) GetEntry(ctx context.Context, id uuid.UUID) (*parentcast.Entry, error) {
	query := `SELECT ` + entryColumns + ` FROM entries WHERE id = $1`

	entry, err := scanEntry(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, parentcast.ErrEntryNotFound
		}
		return nil, handlePostgresError("get entry", err)
	}
	return entry, nil
}

func (r *Repository) UpdateEntry(ctx context.Context, entry *parentcast.Entry) error {
	query := `
		UPDATE entries SET
			title = $2, reflection = $3, transcript = $4, audio_path = $5,
			audio_url = $6, image_path = $7, duration_ms = $8, entry_date = $9,
			updated_at = $10, deleted_at = $11
		WHERE id = $1`

	tag, err := r.db.Exec(ctx, query,
		entry.ID, entry.Title, entry.Reflection, entry.Transcript,
		entry.AudioPath, entry.AudioURL, entry.ImagePath, entry.DurationMS,
		entry.EntryDate, entry.UpdatedAt, entry.DeletedAt)
	if err != nil {
		return handlePostgresError("update entry", err)
	}
	if tag.RowsAffected() == 0 {
		return parentcast.ErrEntryNotFound
	}
	return nil
}

func (r *Repository) ListEntriesByCast(ctx context.Context, castID uuid.UUID, includeDeleted bool) ([]*parentcast.Entry, error) {
	query := `SELECT ` + entryColumns + ` FROM entries WHERE cast_id = $1`
	if !includeDeleted {
		query += ` AND deleted_at IS NULL`
	}
	query += ` ORDER BY created_at DESC`

	rows, err := r.db.Query(ctx, query, castID)
	if err != nil {
		return nil, handlePostgresError("list entries", err)
	}
	defer rows.Close()

	return collectEntries(rows)
}

func (r *Repository) ListTrashedByOwner(ctx context.Context, ownerID uuid.UUID) ([]*parentcast.Entry, error) {
	query := `SELECT ` + entryColumns + ` FROM entries
		WHERE owner_id = $1 AND deleted_at IS NOT NULL
		ORDER BY created_at DESC`

	rows, err := r.db.Query(ctx, query, ownerID)
	if err != nil {
		return nil, handlePostgresError("list trashed entries", err)
	}
	defer rows.Close()

	return collectEntries(rows)
}

func (r *Repository) GetEntryByCastAndDate(ctx context.Context, castID uuid.UUID, entryDate string) (*parentcast.Entry, error) {
	query := `SELECT ` + entryColumns + ` FROM entries
		WHERE cast_id = $1 AND entry_date = $2 AND deleted_at IS NULL
		LIMIT 1`

	entry, err := scanEntry(r.db.QueryRow(ctx, query, castID, entryDate))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, parentcast.ErrEntryNotFound
		}
		return nil, handlePostgresError("get entry by date", err)
	}
	return entry, nil
}

func (r *Repository) SetEntryDuration(ctx context.Context, id uuid.UUID, durationMS int64) error {
	query := `
		UPDATE entries SET duration_ms = $2, updated_at = now()
		WHERE id = $1 AND duration_ms IS NULL`

	if _, err := r.db.Exec(ctx, query, id, durationMS); err != nil {
		return handlePostgresError("set entry duration", err)
	}
	// Zero rows affected means the duration was already recorded; that is
	// not an error for a write-once field.
	return nil
}

func collectEntries(rows pgx.Rows) ([]*parentcast.Entry, error) {
	var out []*parentcast.Entry
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, handlePostgresError("scan entry", err)
		}
		out = append(out, entry)
	}
	return out, rows.Err()
}

// Rule operations

func (r *Repository) CreateRules(ctx context.Context, rules []*parentcast.Rule) error {
	query := `
		INSERT INTO rules (id, owner_id, title, description, created_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (owner_id, title) DO NOTHING`

	for _, rule := range rules {
		_, err := r.db.Exec(ctx, query,
			rule.ID, rule.OwnerID, rule.Title, rule.Description, rule.CreatedAt)
		if err != nil {
			return handlePostgresError("create rule", err)
		}
	}
	return nil
}

func (r *Repository) ListRulesByOwner(ctx context.Context, ownerID uuid.UUID) ([]*parentcast.Rule, error) {
	query := `
		SELECT id, owner_id, title, description, created_at
		FROM rules WHERE owner_id = $1
		ORDER BY title ASC`

	rows, err := r.db.Query(ctx, query, ownerID)
	if err != nil {
		return nil, handlePostgresError("list rules", err)
	}
	defer rows.Close()

	var out []*parentcast.Rule
	for rows.Next() {
		var rule parentcast.Rule
		if err := rows.Scan(&rule.ID, &rule.OwnerID, &rule.Title, &rule.Description, &rule.CreatedAt); err != nil {
			return nil, handlePostgresError("scan rule", err)
		}
		out = append(out, &rule)
	}
	return out, rows.Err()
}

// Entry-rule link operations

func (r *Repository) DeleteEntryRuleLinks(ctx context.Context, entryID uuid.UUID) error {
	if _, err := r.db.Exec(ctx, `DELETE FROM entry_rule_links WHERE entry_id = $1`, entryID); err != nil {
		return handlePostgresError("delete entry rule links", err)
	}
	return nil
}

func (r *Repository) CreateEntryRuleLinks(ctx context.Context, entryID uuid.UUID, ruleIDs []uuid.UUID) error {
	query := `INSERT INTO entry_rule_links (entry_id, rule_id) VALUES ($1, $2)`
	for _, rid := range ruleIDs {
		if _, err := r.db.Exec(ctx, query, entryID, rid); err != nil {
			return handlePostgresError("create entry rule link", err)
		}
	}
	return nil
}

func (r *Repository) ListEntryRuleLinks(ctx context.Context, entryID uuid.UUID) ([]uuid.UUID, error) {
	rows, err := r.db.Query(ctx, `SELECT rule_id FROM entry_rule_links WHERE entry_id = $1`, entryID)
	if err != nil {
		return nil, handlePostgresError("list entry rule links", err)
	}
	defer rows.Close()

	var out []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, handlePostgresError("scan entry rule link", err)
		}
		out = append(out, id)
	}
	return out, rows.Err()
}
