package database

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Serverket/hermon-radio/internal/domain"
)

// overlayRowID is the fixed identity of the singleton overlay row.
const overlayRowID = 1

// OverlayRepo stores the single overlay state row.
type OverlayRepo struct {
	pool *pgxpool.Pool
}

func NewOverlayRepo(pool *pgxpool.Pool) *OverlayRepo {
	return &OverlayRepo{pool: pool}
}

// Initialize ensures the table exists, applies additive column migrations,
// and guarantees exactly one row: seeding def when none is present,
// otherwise returning the stored row with any unrecognized type coerced.
func (r *OverlayRepo) Initialize(ctx context.Context, def domain.OverlayState) (domain.OverlayState, error) {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS overlay_state (
			id INT PRIMARY KEY,
			visible BOOLEAN NOT NULL,
			type TEXT NOT NULL,
			url TEXT NOT NULL,
			"position" TEXT NOT NULL,
			fit TEXT NOT NULL,
			source TEXT NOT NULL,
			title TEXT NOT NULL,
			"text" TEXT,
			bg_color TEXT,
			text_color TEXT,
			updated_at TIMESTAMPTZ NOT NULL
		)`,
		// Columns added after the first deployed schema revision. Rows
		// written by older versions keep their data.
		`ALTER TABLE overlay_state ADD COLUMN IF NOT EXISTS "text" TEXT`,
		`ALTER TABLE overlay_state ADD COLUMN IF NOT EXISTS bg_color TEXT`,
		`ALTER TABLE overlay_state ADD COLUMN IF NOT EXISTS text_color TEXT`,
	}
	for _, migration := range migrations {
		if _, err := r.pool.Exec(ctx, migration); err != nil {
			return domain.OverlayState{}, fmt.Errorf("failed to run migration: %w", err)
		}
	}

	state, found, err := r.Load(ctx)
	if err != nil {
		return domain.OverlayState{}, err
	}
	if !found {
		if err := r.Save(ctx, def); err != nil {
			return domain.OverlayState{}, fmt.Errorf("failed to seed overlay state: %w", err)
		}
		slog.Info("Seeded default overlay state")
		return def, nil
	}

	if !domain.ValidType(state.Type) {
		slog.Warn("Coercing unrecognized overlay type", "type", state.Type)
		state.Type = domain.CoerceType(state.Type)
	}
	return state, nil
}

// Load reads the singleton row. found is false when the table is empty.
func (r *OverlayRepo) Load(ctx context.Context) (state domain.OverlayState, found bool, err error) {
	err = r.pool.QueryRow(ctx, `
		SELECT visible, type, url, "position", fit, source, title,
		       COALESCE("text", ''), COALESCE(bg_color, ''), COALESCE(text_color, ''),
		       updated_at
		FROM overlay_state
		WHERE id = $1
	`, overlayRowID).Scan(
		&state.Visible, &state.Type, &state.URL, &state.Position, &state.Fit,
		&state.Source, &state.Title, &state.Text, &state.BgColor, &state.TextColor,
		&state.UpdatedAt,
	)
	if err == pgx.ErrNoRows {
		return domain.OverlayState{}, false, nil
	}
	if err != nil {
		return domain.OverlayState{}, false, fmt.Errorf("failed to load overlay state: %w", err)
	}
	return state, true, nil
}

// Save upserts the singleton row with the full state.
func (r *OverlayRepo) Save(ctx context.Context, state domain.OverlayState) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO overlay_state (id, visible, type, url, "position", fit, source, title, "text", bg_color, text_color, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (id) DO UPDATE SET
			visible = EXCLUDED.visible,
			type = EXCLUDED.type,
			url = EXCLUDED.url,
			"position" = EXCLUDED."position",
			fit = EXCLUDED.fit,
			source = EXCLUDED.source,
			title = EXCLUDED.title,
			"text" = EXCLUDED."text",
			bg_color = EXCLUDED.bg_color,
			text_color = EXCLUDED.text_color,
			updated_at = EXCLUDED.updated_at
	`, overlayRowID, state.Visible, state.Type, state.URL, state.Position, state.Fit,
		state.Source, state.Title, state.Text, state.BgColor, state.TextColor, state.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to save overlay state: %w", err)
	}
	return nil
}
