package vectorstore

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
)

const sqliteSchema = `CREATE TABLE IF NOT EXISTS units (
	id TEXT PRIMARY KEY,
	text TEXT NOT NULL,
	rating REAL NOT NULL,
	date TEXT NOT NULL,
	embedding TEXT NOT NULL
)`

type unitRow struct {
	ID        string  `db:"id"`
	Text      string  `db:"text"`
	Rating    float64 `db:"rating"`
	Date      string  `db:"date"`
	Embedding string  `db:"embedding"`
}

// SQLite stores units in <dir>/<collection>.db. Embeddings are kept as JSON text
// and scanned in full on every query.
type SQLite struct {
	dir        string
	collection string
	db         *sqlx.DB
}

// NewSQLite returns a store backed by <dir>/<collection>.db. The database is
// opened lazily.
func NewSQLite(dir, collection string) *SQLite {
	return &SQLite{dir: dir, collection: collection}
}

// Name identifies the backend in status output.
func (s *SQLite) Name() string { return "sqlite" }

func (s *SQLite) path() string {
	return filepath.Join(s.dir, s.collection+".db")
}

// Exists reports whether the database directory is present.
func (s *SQLite) Exists(ctx context.Context) (bool, error) {
	return dirExists(s.dir)
}

// open connects on first use. With create unset a missing database is an error
// instead of an empty file.
func (s *SQLite) open(ctx context.Context, create bool) (*sqlx.DB, error) {
	if s.db != nil {
		return s.db, nil
	}
	if create {
		if err := os.MkdirAll(s.dir, 0o755); err != nil {
			return nil, fmt.Errorf("create index directory: %w", err)
		}
	} else if _, err := os.Stat(s.path()); err != nil {
		return nil, fmt.Errorf("open index: %w", err)
	}

	db, err := sqlx.ConnectContext(ctx, "sqlite3", s.path())
	if err != nil {
		return nil, fmt.Errorf("connect sqlite index: %w", err)
	}
	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("initialize sqlite schema: %w", err)
	}
	s.db = db
	return db, nil
}

// Add inserts every unit in a single transaction.
func (s *SQLite) Add(ctx context.Context, units []Unit, vectors [][]float64) error {
	if err := checkBatch(units, vectors); err != nil {
		return err
	}
	db, err := s.open(ctx, true)
	if err != nil {
		return err
	}

	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	for i, unit := range units {
		embedding, err := json.Marshal(vectors[i])
		if err != nil {
			return fmt.Errorf("encode embedding for unit %s: %w", unit.ID, err)
		}
		row := unitRow{
			ID:        unit.ID,
			Text:      unit.Text,
			Rating:    unit.Metadata.Rating,
			Date:      unit.Metadata.Date,
			Embedding: string(embedding),
		}
		if _, err := tx.NamedExecContext(ctx,
			`INSERT OR REPLACE INTO units (id, text, rating, date, embedding) VALUES (:id, :text, :rating, :date, :embedding)`,
			row); err != nil {
			return fmt.Errorf("insert unit %s: %w", unit.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit units: %w", err)
	}
	return nil
}

// Query scans all rows and ranks them in process.
func (s *SQLite) Query(ctx context.Context, vector []float64, k int) ([]Match, error) {
	db, err := s.open(ctx, false)
	if err != nil {
		return nil, err
	}

	var rows []unitRow
	if err := db.SelectContext(ctx, &rows, `SELECT id, text, rating, date, embedding FROM units ORDER BY rowid`); err != nil {
		return nil, fmt.Errorf("select units: %w", err)
	}

	units := make([]Unit, len(rows))
	vectors := make([][]float64, len(rows))
	for i, row := range rows {
		if err := json.Unmarshal([]byte(row.Embedding), &vectors[i]); err != nil {
			return nil, fmt.Errorf("decode embedding for unit %s: %w", row.ID, err)
		}
		units[i] = Unit{
			ID:       row.ID,
			Text:     row.Text,
			Metadata: Metadata{Rating: row.Rating, Date: row.Date},
		}
	}
	return rank(units, vectors, vector, k)
}

// Drop closes the database and removes its directory.
func (s *SQLite) Drop(ctx context.Context) error {
	if err := s.Close(); err != nil {
		return err
	}
	return os.RemoveAll(s.dir)
}

func (s *SQLite) Close() error {
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}
