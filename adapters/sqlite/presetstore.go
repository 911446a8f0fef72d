package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/goccy/go-json"

	"github.com/movesion/cardsim/domain/scenario"
	"github.com/movesion/cardsim/ports"
)

// PresetStore implements ports.PresetStore with SQLite. Scenarios are stored
// as JSON blobs keyed by preset name.
type PresetStore struct {
	db *DB
}

// NewPresetStore creates a new SQLite preset store.
func NewPresetStore(db *DB) *PresetStore {
	return &PresetStore{db: db}
}

// List returns all presets ordered by name.
func (s *PresetStore) List(ctx context.Context) ([]ports.Preset, error) {
	rows, err := s.db.DB.QueryContext(ctx, `
		SELECT name, description, scenario, created_at, updated_at
		FROM presets
		ORDER BY name ASC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var presets []ports.Preset
	for rows.Next() {
		p, err := scanPreset(rows)
		if err != nil {
			return nil, err
		}
		presets = append(presets, p)
	}
	return presets, rows.Err()
}

// Get retrieves a preset by name.
func (s *PresetStore) Get(ctx context.Context, name string) (ports.Preset, error) {
	row := s.db.DB.QueryRowContext(ctx, `
		SELECT name, description, scenario, created_at, updated_at
		FROM presets
		WHERE name = ?
	`, name)

	p, err := scanPreset(row)
	if errors.Is(err, sql.ErrNoRows) {
		return ports.Preset{}, ports.ErrNotFound
	}
	return p, err
}

// Put stores a new preset or replaces an existing one.
func (s *PresetStore) Put(ctx context.Context, p ports.Preset) error {
	blob, err := json.Marshal(p.Scenario)
	if err != nil {
		return fmt.Errorf("marshal scenario: %w", err)
	}

	_, err = s.db.DB.ExecContext(ctx, `
		INSERT INTO presets (name, description, scenario)
		VALUES (?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET
			description = excluded.description,
			scenario = excluded.scenario,
			updated_at = CURRENT_TIMESTAMP
	`, p.Name, p.Description, string(blob))
	return err
}

// Delete removes a preset.
func (s *PresetStore) Delete(ctx context.Context, name string) error {
	res, err := s.db.DB.ExecContext(ctx, "DELETE FROM presets WHERE name = ?", name)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ports.ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPreset(row rowScanner) (ports.Preset, error) {
	var p ports.Preset
	var blob string
	if err := row.Scan(&p.Name, &p.Description, &blob, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return ports.Preset{}, err
	}

	var sc scenario.Scenario
	if err := json.Unmarshal([]byte(blob), &sc); err != nil {
		return ports.Preset{}, fmt.Errorf("unmarshal scenario for %q: %w", p.Name, err)
	}
	p.Scenario = sc
	return p, nil
}
