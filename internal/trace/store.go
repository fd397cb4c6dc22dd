package trace

import (
	"bytes"
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

//go:embed schema.sql
var schemaSQL string

// Store persists decision records to a SQLite audit database so downstream
// tooling can query lowering choices per compilation unit.
// Uses WAL mode with a single writer connection.
type Store struct {
	db *sql.DB
}

// Open creates or opens the audit database at path. Idempotent: pragmas
// and schema apply on every open.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open audit database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to audit database: %w", err)
	}

	// SQLite supports one writer at a time.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := applyPragmas(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply pragmas: %w", err)
	}
	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

func applyPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("failed to execute %q: %w", pragma, err)
		}
	}
	return nil
}

// Flush writes a recorder's full decision sequence in one transaction.
// Re-flushing the same unit is idempotent (ON CONFLICT DO NOTHING on the
// (unit, seq) key).
func (s *Store) Flush(ctx context.Context, r *Recorder) error {
	if r == nil {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("flush trace: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO units (token) VALUES (?)
		ON CONFLICT(token) DO NOTHING
	`, r.Unit()); err != nil {
		return fmt.Errorf("flush trace: %w", err)
	}

	for seq, d := range r.Decisions() {
		alts, err := marshalAlternatives(d.Alternatives)
		if err != nil {
			return fmt.Errorf("flush trace: decision %d: %w", seq, err)
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO decisions
			(unit_token, seq, category, name, chosen, alternatives, confidence_bp)
			VALUES (?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT DO NOTHING
		`,
			r.Unit(),
			seq,
			string(d.Category),
			d.Name,
			d.Chosen,
			alts,
			ConfidenceBasisPoints(d.Confidence),
		); err != nil {
			return fmt.Errorf("flush trace: decision %d: %w", seq, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("flush trace: %w", err)
	}
	return nil
}

// ReadUnit returns the decisions of one unit in lowering order.
// Returns an empty slice, not nil, when the unit has no records.
func (s *Store) ReadUnit(ctx context.Context, unitToken string) ([]Decision, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT category, name, chosen, alternatives, confidence_bp
		FROM decisions
		WHERE unit_token = ?
		ORDER BY seq ASC
	`, unitToken)
	if err != nil {
		return nil, fmt.Errorf("read unit: %w", err)
	}
	defer rows.Close()

	decisions := []Decision{}
	for rows.Next() {
		var d Decision
		var alts string
		var bp int
		if err := rows.Scan(&d.Category, &d.Name, &d.Chosen, &alts, &bp); err != nil {
			return nil, fmt.Errorf("read unit: %w", err)
		}
		d.Alternatives, err = unmarshalAlternatives(alts)
		if err != nil {
			return nil, fmt.Errorf("read unit: %w", err)
		}
		d.Confidence = float64(bp) / 100
		decisions = append(decisions, d)
	}
	return decisions, rows.Err()
}

// CategoryCounts returns per-category decision counts across all units,
// ordered by category name for deterministic output.
func (s *Store) CategoryCounts(ctx context.Context) (map[Category]int, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT category, COUNT(*)
		FROM decisions
		GROUP BY category
		ORDER BY category ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("category counts: %w", err)
	}
	defer rows.Close()

	counts := make(map[Category]int)
	for rows.Next() {
		var cat string
		var n int
		if err := rows.Scan(&cat, &n); err != nil {
			return nil, fmt.Errorf("category counts: %w", err)
		}
		counts[Category(cat)] = n
	}
	return counts, rows.Err()
}

func marshalAlternatives(alts []string) (string, error) {
	var buf bytes.Buffer
	buf.WriteByte('[')
	for i, a := range alts {
		if i > 0 {
			buf.WriteByte(',')
		}
		if err := writeCanonicalString(&buf, a); err != nil {
			return "", err
		}
	}
	buf.WriteByte(']')
	return buf.String(), nil
}

func unmarshalAlternatives(text string) ([]string, error) {
	var out []string
	if err := json.Unmarshal([]byte(text), &out); err != nil {
		return nil, err
	}
	return out, nil
}
