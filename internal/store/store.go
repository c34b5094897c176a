package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/openappraisal/appraisal-engine/internal/appraisal"
)

// ErrNotFound is returned when no appraisal run exists for the given ID.
var ErrNotFound = errors.New("appraisal not found")

// Store persists completed appraisal runs to SQLite. The full result is
// stored as a JSON document alongside indexed summary columns, so retrieval
// never recomputes anything.
type Store struct {
	db *sqlx.DB
}

const schema = `
CREATE TABLE IF NOT EXISTS appraisals (
	id             TEXT PRIMARY KEY,
	property_name  TEXT NOT NULL DEFAULT '',
	property_type  TEXT NOT NULL DEFAULT '',
	city           TEXT NOT NULL DEFAULT '',
	state          TEXT NOT NULL DEFAULT '',
	final_value    REAL NOT NULL DEFAULT 0,
	confidence     REAL NOT NULL DEFAULT 0,
	quality_score  INTEGER NOT NULL DEFAULT 0,
	effective_date TEXT NOT NULL DEFAULT '',
	created_at     TEXT NOT NULL,
	result         TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_appraisals_created_at ON appraisals (created_at DESC);
CREATE INDEX IF NOT EXISTS idx_appraisals_property_name ON appraisals (property_name);
`

// Summary is the list-view projection of a stored run.
type Summary struct {
	ID            string    `db:"id" json:"id"`
	PropertyName  string    `db:"property_name" json:"property_name"`
	PropertyType  string    `db:"property_type" json:"property_type"`
	City          string    `db:"city" json:"city"`
	State         string    `db:"state" json:"state"`
	FinalValue    float64   `db:"final_value" json:"final_value"`
	Confidence    float64   `db:"confidence" json:"confidence"`
	QualityScore  int       `db:"quality_score" json:"quality_score"`
	EffectiveDate string    `db:"effective_date" json:"effective_date"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
}

func Open(path string) (*Store, error) {
	db, err := sqlx.Open("sqlite", path+"?_pragma=journal_mode(wal)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error { return s.db.Close() }

func (s *Store) Save(ctx context.Context, r *appraisal.AppraisalResult) error {
	blob, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("marshal result: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO appraisals (id, property_name, property_type, city, state,
			final_value, confidence, quality_score, effective_date, created_at, result)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			final_value = excluded.final_value,
			confidence = excluded.confidence,
			quality_score = excluded.quality_score,
			result = excluded.result`,
		r.ID, r.Subject.Name, string(r.Subject.PropertyType),
		r.Subject.Location.City, r.Subject.Location.State,
		r.FinalValue, r.Confidence, r.Validation.QualityScore,
		r.Metadata.EffectiveDate.Format("2006-01-02"),
		r.CreatedAt.UTC().Format(time.RFC3339Nano), string(blob))
	if err != nil {
		return fmt.Errorf("insert appraisal: %w", err)
	}
	return nil
}

func (s *Store) Get(ctx context.Context, id string) (*appraisal.AppraisalResult, error) {
	var blob string
	err := s.db.QueryRowContext(ctx, "SELECT result FROM appraisals WHERE id = ?", id).Scan(&blob)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query appraisal: %w", err)
	}
	var result appraisal.AppraisalResult
	if err := json.Unmarshal([]byte(blob), &result); err != nil {
		return nil, fmt.Errorf("unmarshal result: %w", err)
	}
	return &result, nil
}

func (s *Store) List(ctx context.Context, limit, offset int) ([]Summary, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, property_name, property_type, city, state, final_value,
			confidence, quality_score, effective_date, created_at
		FROM appraisals ORDER BY created_at DESC LIMIT ? OFFSET ?`, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list appraisals: %w", err)
	}
	defer rows.Close()

	summaries := []Summary{}
	for rows.Next() {
		var (
			s2        Summary
			createdAt string
		)
		if err := rows.Scan(&s2.ID, &s2.PropertyName, &s2.PropertyType, &s2.City, &s2.State,
			&s2.FinalValue, &s2.Confidence, &s2.QualityScore, &s2.EffectiveDate, &createdAt); err != nil {
			return nil, fmt.Errorf("scan appraisal: %w", err)
		}
		if t, err := time.Parse(time.RFC3339Nano, createdAt); err == nil {
			s2.CreatedAt = t
		}
		summaries = append(summaries, s2)
	}
	return summaries, rows.Err()
}

func (s *Store) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM appraisals WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete appraisal: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}
