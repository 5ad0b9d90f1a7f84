package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"warden/internal/profile/models"
	"warden/pkg/sentinel"
)

// Postgres persists profiles as JSONB documents keyed by id. The document is
// the source of truth; email and timestamps are lifted into columns for
// indexing and ops queries only.
type Postgres struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

// Schema returns the DDL this store expects. Kept next to the queries so the
// two cannot drift apart silently.
func Schema() string {
	return `
		CREATE TABLE IF NOT EXISTS profiles (
			id          TEXT PRIMARY KEY,
			email       TEXT NOT NULL,
			document    JSONB NOT NULL,
			created_at  TIMESTAMPTZ NOT NULL,
			last_update TIMESTAMPTZ NOT NULL
		);
		CREATE INDEX IF NOT EXISTS profiles_email_idx ON profiles (email);
	`
}

func (s *Postgres) Save(ctx context.Context, p *models.Profile) error {
	payload, err := p.ToJSON()
	if err != nil {
		return fmt.Errorf("serialize profile: %w", err)
	}

	query := `
		INSERT INTO profiles (id, email, document, created_at, last_update)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO UPDATE SET
			email = EXCLUDED.email,
			document = EXCLUDED.document,
			last_update = EXCLUDED.last_update
	`
	_, err = s.db.ExecContext(ctx, query,
		p.ID(), p.Email(), payload, p.CreatedAt().UTC(), p.LastUpdate().UTC(),
	)
	if err != nil {
		return fmt.Errorf("upsert profile: %w", err)
	}
	return nil
}

func (s *Postgres) FindByID(ctx context.Context, id string) (*models.Profile, error) {
	var payload []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT document FROM profiles WHERE id = $1`, id,
	).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query profile: %w", err)
	}
	return models.FromJSON(payload)
}

func (s *Postgres) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM profiles WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete profile: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete profile: %w", err)
	}
	if affected == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

// Ping verifies connectivity for health checks.
func (s *Postgres) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	return s.db.PingContext(ctx)
}
