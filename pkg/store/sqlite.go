package store

import (
	"context"
	"database/sql"
	"encoding/binary"
	"errors"
	"fmt"
	"math"

	_ "modernc.org/sqlite"

	"github.com/xhad/intentprep/internal/models"
)

// SQLiteStore keeps token vectors and the context dataset in a local file,
// for runs without a database server.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLite opens (or creates) the database at path with WAL mode enabled.
func OpenSQLite(ctx context.Context, path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, err
	}

	if err := initSchema(ctx, db); err != nil {
		db.Close()
		return nil, err
	}

	return &SQLiteStore{db: db}, nil
}

func initSchema(ctx context.Context, db *sql.DB) error {
	schema := `
CREATE TABLE IF NOT EXISTS vectors (
	token TEXT PRIMARY KEY,
	embedding BLOB NOT NULL
);

CREATE TABLE IF NOT EXISTS contexts (
	document_index INTEGER NOT NULL,
	context_index INTEGER NOT NULL,
	contexts TEXT NOT NULL,
	PRIMARY KEY (document_index, context_index)
);
`
	_, err := db.ExecContext(ctx, schema)
	return err
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) LookupVector(ctx context.Context, token string) ([]float32, bool, error) {
	var blob []byte
	err := s.db.QueryRowContext(ctx, `SELECT embedding FROM vectors WHERE token = ?`, token).Scan(&blob)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to query vector: %w", err)
	}

	vector, err := decodeVector(blob)
	if err != nil {
		return nil, false, err
	}
	return vector, true, nil
}

func (s *SQLiteStore) SaveVector(ctx context.Context, token string, vector []float32) error {
	_, err := s.db.ExecContext(ctx, `
INSERT INTO vectors (token, embedding) VALUES (?, ?)
ON CONFLICT(token) DO UPDATE SET embedding = excluded.embedding`,
		token, encodeVector(vector))
	if err != nil {
		return fmt.Errorf("failed to insert vector: %w", err)
	}
	return nil
}

// SaveContexts replaces the stored context dataset.
func (s *SQLiteStore) SaveContexts(ctx context.Context, set *models.ContextSet) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM contexts`); err != nil {
		return fmt.Errorf("failed to clear contexts: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO contexts (document_index, context_index, contexts) VALUES (?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for i, index := range set.Indexes {
		if _, err := stmt.ExecContext(ctx, index.DocumentIndex, index.ContextIndex, set.Contexts[i]); err != nil {
			return fmt.Errorf("failed to insert context %d: %w", i, err)
		}
	}

	return tx.Commit()
}

func (s *SQLiteStore) LoadContexts(ctx context.Context) (*models.ContextSet, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT document_index, context_index, contexts
FROM contexts
ORDER BY document_index, context_index`)
	if err != nil {
		return nil, fmt.Errorf("failed to query contexts: %w", err)
	}
	defer rows.Close()

	set := &models.ContextSet{}
	for rows.Next() {
		var index models.ContextIndex
		var text string
		if err := rows.Scan(&index.DocumentIndex, &index.ContextIndex, &text); err != nil {
			return nil, err
		}
		set.Contexts = append(set.Contexts, text)
		set.Indexes = append(set.Indexes, index)
	}

	return set, rows.Err()
}

// Vectors are stored as little-endian float32 arrays.
func encodeVector(vector []float32) []byte {
	buf := make([]byte, 4*len(vector))
	for i, v := range vector {
		binary.LittleEndian.PutUint32(buf[4*i:], math.Float32bits(v))
	}
	return buf
}

func decodeVector(buf []byte) ([]float32, error) {
	if len(buf)%4 != 0 {
		return nil, fmt.Errorf("corrupt vector: %d bytes", len(buf))
	}

	vector := make([]float32, len(buf)/4)
	for i := range vector {
		vector[i] = math.Float32frombits(binary.LittleEndian.Uint32(buf[4*i:]))
	}
	return vector, nil
}
