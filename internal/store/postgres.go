package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/lib/pq"
	"github.com/pgvector/pgvector-go"

	"doc-embeddings/internal/embeddings"
	"doc-embeddings/internal/nonempty"
)

const defaultDimensions = 1536

type PostgresStore struct {
	db *sql.DB
}

// NewPostgres opens the database and creates the schema. dims is the vector
// width of the embedding model.
func NewPostgres(dsn string, dims int) (*PostgresStore, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	if dims <= 0 {
		dims = defaultDimensions
	}
	s := &PostgresStore{db: db}
	if err := s.migrate(context.Background(), dims); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *PostgresStore) migrate(ctx context.Context, dims int) error {
	// Advisory lock keeps gateway and worker from migrating at the same time.
	const lockID = 418273645

	var acquired bool
	if err := s.db.QueryRowContext(ctx, `SELECT pg_try_advisory_lock($1)`, lockID).Scan(&acquired); err != nil {
		return fmt.Errorf("failed to acquire migration lock: %w", err)
	}
	if !acquired {
		time.Sleep(2 * time.Second)
		return nil
	}
	defer func() {
		_, _ = s.db.ExecContext(context.Background(), `SELECT pg_advisory_unlock($1)`, lockID)
	}()

	stmts := []string{
		`CREATE EXTENSION IF NOT EXISTS vector`,
		`CREATE TABLE IF NOT EXISTS documents (
			id UUID PRIMARY KEY,
			title TEXT,
			content JSONB NOT NULL,
			chunked BOOLEAN NOT NULL DEFAULT false,
			status TEXT NOT NULL,
			created_at TIMESTAMPTZ DEFAULT now()
		)`,
		`CREATE TABLE IF NOT EXISTS fragments (
			id UUID PRIMARY KEY,
			document_id UUID REFERENCES documents(id) ON DELETE CASCADE,
			position INT NOT NULL,
			text TEXT NOT NULL,
			UNIQUE (document_id, position)
		)`,
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS embeddings (
			fragment_id UUID PRIMARY KEY REFERENCES fragments(id) ON DELETE CASCADE,
			vector vector(%d),
			model TEXT
		)`, dims),
		`CREATE INDEX IF NOT EXISTS embeddings_vector_idx
			ON embeddings USING ivfflat (vector vector_cosine_ops)
			WITH (lists = 100)`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}

func (s *PostgresStore) CreateDocument(ctx context.Context, doc Document) (Document, error) {
	doc.ID = uuid.New()
	doc.Status = StatusPending
	doc.CreatedAt = time.Now()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO documents(id, title, content, chunked, status, created_at) VALUES($1,$2,$3,$4,$5,$6)`,
		doc.ID, doc.Title, []byte(doc.Content), doc.Chunked, doc.Status, doc.CreatedAt)
	if err != nil {
		return Document{}, fmt.Errorf("create document: %w", err)
	}
	return doc, nil
}

func (s *PostgresStore) GetDocument(ctx context.Context, id uuid.UUID) (Document, error) {
	doc := Document{ID: id}
	var content []byte
	row := s.db.QueryRowContext(ctx,
		`SELECT title, content, chunked, status, created_at FROM documents WHERE id=$1`, id)
	if err := row.Scan(&doc.Title, &content, &doc.Chunked, &doc.Status, &doc.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Document{}, ErrDocumentNotFound
		}
		return Document{}, fmt.Errorf("get document %s: %w", id, err)
	}
	doc.Content = content
	return doc, nil
}

func (s *PostgresStore) UpdateDocumentStatus(ctx context.Context, id uuid.UUID, status DocumentStatus) error {
	res, err := s.db.ExecContext(ctx, `UPDATE documents SET status=$1 WHERE id=$2`, status, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrDocumentNotFound
	}
	return nil
}

func (s *PostgresStore) SaveEmbeddings(ctx context.Context, docID uuid.UUID, model string, embs nonempty.Collection[embeddings.Embedding]) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	// Re-embedding replaces the previous fragment list entirely.
	if _, err := tx.ExecContext(ctx, `DELETE FROM fragments WHERE document_id=$1`, docID); err != nil {
		return fmt.Errorf("clear fragments: %w", err)
	}
	for pos, emb := range embs.All() {
		fid := uuid.New()
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO fragments(id, document_id, position, text) VALUES($1,$2,$3,$4)`,
			fid, docID, pos, emb.Fragment); err != nil {
			return fmt.Errorf("insert fragment %d: %w", pos, err)
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO embeddings(fragment_id, vector, model) VALUES($1,$2,$3)`,
			fid, pgvector.NewVector(emb.Vector), model); err != nil {
			return fmt.Errorf("insert embedding %d: %w", pos, err)
		}
	}
	return tx.Commit()
}

func (s *PostgresStore) ListFragments(ctx context.Context, docID uuid.UUID) ([]Fragment, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, position, text FROM fragments WHERE document_id=$1 ORDER BY position`, docID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Fragment
	for rows.Next() {
		f := Fragment{DocumentID: docID}
		if err := rows.Scan(&f.ID, &f.Position, &f.Text); err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

func (s *PostgresStore) Search(ctx context.Context, vector embeddings.Vector, docIDs []uuid.UUID, k int) ([]SearchResult, error) {
	ids := make([]string, len(docIDs))
	for i, id := range docIDs {
		ids[i] = id.String()
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT f.id, f.document_id, f.position, f.text,
			1 - (e.vector <=> $1) AS similarity
		FROM embeddings e
		JOIN fragments f ON f.id = e.fragment_id
		WHERE cardinality($2::uuid[]) = 0 OR f.document_id = ANY($2::uuid[])
		ORDER BY e.vector <=> $1
		LIMIT $3
	`, pgvector.NewVector(vector), pq.Array(ids), k)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []SearchResult
	for rows.Next() {
		var r SearchResult
		if err := rows.Scan(&r.Fragment.ID, &r.Fragment.DocumentID, &r.Fragment.Position, &r.Fragment.Text, &r.Score); err != nil {
			return nil, err
		}
		results = append(results, r)
	}
	return results, rows.Err()
}
