package store

import (
	"context"
	"errors"
	"fmt"
	"unicode/utf8"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"
	"github.com/xhad/intentprep/internal/models"
)

type VectorStoreConfig struct {
	ConnString string
	TableName  string
	VectorDim  int
}

// VectorStore keeps token vectors and the context dataset in PostgreSQL.
type VectorStore struct {
	config VectorStoreConfig
	pool   *pgxpool.Pool
}

func NewWithConfig(config VectorStoreConfig) (*VectorStore, error) {
	if config.TableName == "" {
		config.TableName = "tokens"
	}
	if config.VectorDim == 0 {
		config.VectorDim = 300
	}

	pool, err := pgxpool.New(context.Background(), config.ConnString)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %v", err)
	}

	vs := &VectorStore{
		config: config,
		pool:   pool,
	}

	if err := vs.initialize(); err != nil {
		pool.Close()
		return nil, err
	}

	return vs, nil
}

func (vs *VectorStore) vectorsTable() string {
	return vs.config.TableName + "_vectors"
}

func (vs *VectorStore) contextsTable() string {
	return vs.config.TableName + "_contexts"
}

func (vs *VectorStore) initialize() error {
	ctx := context.Background()

	// Enable pgvector extension
	_, err := vs.pool.Exec(ctx, "CREATE EXTENSION IF NOT EXISTS vector")
	if err != nil {
		return fmt.Errorf("failed to create vector extension: %v", err)
	}

	createVectors := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			token TEXT PRIMARY KEY,
			embedding vector(%d) NOT NULL
		)`, vs.vectorsTable(), vs.config.VectorDim)

	if _, err := vs.pool.Exec(ctx, createVectors); err != nil {
		return fmt.Errorf("failed to create table: %v", err)
	}

	createContexts := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			document_index INTEGER NOT NULL,
			context_index INTEGER NOT NULL,
			contexts TEXT NOT NULL,
			PRIMARY KEY (document_index, context_index)
		)`, vs.contextsTable())

	if _, err := vs.pool.Exec(ctx, createContexts); err != nil {
		return fmt.Errorf("failed to create table: %v", err)
	}

	return nil
}

func (vs *VectorStore) LookupVector(ctx context.Context, token string) ([]float32, bool, error) {
	query := fmt.Sprintf(`SELECT embedding FROM %s WHERE token = $1`, vs.vectorsTable())

	var embedding pgvector.Vector
	err := vs.pool.QueryRow(ctx, query, sanitizeUTF8(token)).Scan(&embedding)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to query vector: %v", err)
	}

	return embedding.Slice(), true, nil
}

func (vs *VectorStore) SaveVector(ctx context.Context, token string, vector []float32) error {
	stmt := fmt.Sprintf(`
		INSERT INTO %s (token, embedding)
		VALUES ($1, $2)
		ON CONFLICT (token) DO UPDATE SET
			embedding = EXCLUDED.embedding`,
		vs.vectorsTable())

	if _, err := vs.pool.Exec(ctx, stmt, sanitizeUTF8(token), pgvector.NewVector(vector)); err != nil {
		return fmt.Errorf("failed to insert vector: %v", err)
	}
	return nil
}

// SaveContexts replaces the stored context dataset.
func (vs *VectorStore) SaveContexts(ctx context.Context, set *models.ContextSet) error {
	// Begin transaction
	tx, err := vs.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %v", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, fmt.Sprintf("DELETE FROM %s", vs.contextsTable())); err != nil {
		return fmt.Errorf("failed to clear contexts: %v", err)
	}

	rows := make([][]any, set.Len())
	for i, index := range set.Indexes {
		rows[i] = []any{index.DocumentIndex, index.ContextIndex, sanitizeUTF8(set.Contexts[i])}
	}

	_, err = tx.CopyFrom(ctx,
		pgx.Identifier{vs.contextsTable()},
		[]string{"document_index", "context_index", "contexts"},
		pgx.CopyFromRows(rows),
	)
	if err != nil {
		return fmt.Errorf("failed to insert contexts: %v", err)
	}

	// Commit transaction
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %v", err)
	}

	return nil
}

func (vs *VectorStore) LoadContexts(ctx context.Context) (*models.ContextSet, error) {
	query := fmt.Sprintf(`
		SELECT document_index, context_index, contexts
		FROM %s
		ORDER BY document_index, context_index`,
		vs.contextsTable())

	rows, err := vs.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query contexts: %v", err)
	}
	defer rows.Close()

	set := &models.ContextSet{}
	for rows.Next() {
		var index models.ContextIndex
		var text string
		if err := rows.Scan(&index.DocumentIndex, &index.ContextIndex, &text); err != nil {
			return nil, fmt.Errorf("failed to scan row: %v", err)
		}
		set.Contexts = append(set.Contexts, text)
		set.Indexes = append(set.Indexes, index)
	}

	return set, rows.Err()
}

func (vs *VectorStore) Close() error {
	if vs.pool != nil {
		vs.pool.Close()
	}
	return nil
}

// PostgreSQL rejects invalid UTF-8 in TEXT columns.
func sanitizeUTF8(s string) string {
	if !utf8.ValidString(s) {
		v := make([]rune, 0, len(s))
		for i, r := range s {
			if r == utf8.RuneError {
				_, size := utf8.DecodeRuneInString(s[i:])
				if size == 1 {
					continue
				}
			}
			v = append(v, r)
		}
		return string(v)
	}
	return s
}
