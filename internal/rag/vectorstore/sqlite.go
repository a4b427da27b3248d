package vectorstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	_ "modernc.org/sqlite"

	"finsight/internal/rag/interfaces"
	"finsight/internal/rag/ragerr"
	"finsight/internal/rag/schema"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS index_meta (
	key   TEXT PRIMARY KEY,
	value TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS entries (
	id           TEXT PRIMARY KEY,
	doc_id       TEXT NOT NULL,
	namespace    TEXT NOT NULL,
	source       TEXT NOT NULL,
	start_offset INTEGER NOT NULL,
	end_offset   INTEGER NOT NULL,
	content      TEXT NOT NULL,
	metadata     TEXT,
	embedding    BLOB NOT NULL,
	seq          INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_entries_namespace ON entries(namespace);
CREATE INDEX IF NOT EXISTS idx_entries_doc ON entries(doc_id);
`

// SQLiteStore is the default VectorStore: a file-backed brute-force index
// whose entries survive process restart. Vectors are stored as
// little-endian float32 BLOBs. The dimension and metric of the index are
// recorded in index_meta at creation; reopening the file with a different
// configuration fails fast.
//
// Each Upsert entry executes as its own statement, so a concurrent reader
// either sees a complete entry or none of it, independent of the batch.
type SQLiteStore struct {
	db        *sql.DB
	dimension int
	metric    Metric
}

// NewSQLiteStore opens (or creates) the index at path.
func NewSQLiteStore(path string, dimension int, metric Metric) (*SQLiteStore, error) {
	if dimension <= 0 {
		return nil, ragerr.NewConfigurationError("vectorStore.dimension", "must be positive, got %d", dimension)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite index %q: %w", path, err)
	}
	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create index schema: %w", err)
	}

	s := &SQLiteStore{db: db, dimension: dimension, metric: metric}
	if err := s.checkMeta(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// checkMeta pins dimension and metric on first use and rejects any
// mismatching reopen.
func (s *SQLiteStore) checkMeta() error {
	for key, want := range map[string]string{
		"dimension": fmt.Sprintf("%d", s.dimension),
		"metric":    string(s.metric),
	} {
		var got string
		err := s.db.QueryRow(`SELECT value FROM index_meta WHERE key = ?`, key).Scan(&got)
		switch {
		case err == sql.ErrNoRows:
			if _, err := s.db.Exec(`INSERT INTO index_meta(key, value) VALUES(?, ?)`, key, want); err != nil {
				return fmt.Errorf("failed to record index %s: %w", key, err)
			}
		case err != nil:
			return fmt.Errorf("failed to read index meta: %w", err)
		case got != want:
			return ragerr.NewConfigurationError("vectorStore."+key,
				"index was created with %s %q, configured %q", key, got, want)
		}
	}
	return nil
}

// Upsert inserts chunks under the namespace. Re-inserting an existing
// chunk ID replaces its content and vector but keeps its original
// insertion position, so tie-breaking stays stable across re-ingests.
func (s *SQLiteStore) Upsert(ctx context.Context, namespace string, chunks []schema.Chunk) error {
	for _, chunk := range chunks {
		if len(chunk.Embedding) != s.dimension {
			return ragerr.NewConfigurationError("vectorStore.dimension",
				"chunk %s has vector dimension %d, index expects %d", chunk.ID, len(chunk.Embedding), s.dimension)
		}
		meta, err := json.Marshal(chunk.Metadata)
		if err != nil {
			return fmt.Errorf("failed to encode chunk metadata: %w", err)
		}
		_, err = s.db.ExecContext(ctx, `
			INSERT INTO entries (id, doc_id, namespace, source, start_offset, end_offset, content, metadata, embedding, seq)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, (SELECT COALESCE(MAX(seq), 0) + 1 FROM entries))
			ON CONFLICT(id) DO UPDATE SET
				doc_id = excluded.doc_id,
				namespace = excluded.namespace,
				source = excluded.source,
				start_offset = excluded.start_offset,
				end_offset = excluded.end_offset,
				content = excluded.content,
				metadata = excluded.metadata,
				embedding = excluded.embedding`,
			chunk.ID, chunk.DocumentID, namespace, chunk.Source,
			chunk.Start, chunk.End, chunk.Text, string(meta), encodeVector(chunk.Embedding))
		if err != nil {
			return fmt.Errorf("failed to upsert chunk %s: %w", chunk.ID, err)
		}
	}
	return nil
}

// Search scans the requested namespaces and returns the k best candidates,
// ordered by descending similarity with ties broken by insertion order.
// With no namespaces given, all namespaces are searched as a union.
func (s *SQLiteStore) Search(ctx context.Context, vector []float32, k int, namespaces ...string) ([]schema.Candidate, error) {
	if len(vector) != s.dimension {
		return nil, ragerr.NewConfigurationError("vectorStore.dimension",
			"query vector dimension %d, index expects %d", len(vector), s.dimension)
	}
	if k <= 0 {
		return nil, nil
	}

	query := `SELECT id, doc_id, source, start_offset, end_offset, content, metadata, embedding, seq FROM entries`
	var args []interface{}
	if len(namespaces) > 0 {
		placeholders := strings.Repeat("?,", len(namespaces))
		query += ` WHERE namespace IN (` + placeholders[:len(placeholders)-1] + `)`
		for _, ns := range namespaces {
			args = append(args, ns)
		}
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to scan index: %w", err)
	}
	defer rows.Close()

	type scored struct {
		candidate schema.Candidate
		seq       int64
	}
	var results []scored
	for rows.Next() {
		var (
			chunk schema.Chunk
			meta  sql.NullString
			blob  []byte
			seq   int64
		)
		if err := rows.Scan(&chunk.ID, &chunk.DocumentID, &chunk.Source,
			&chunk.Start, &chunk.End, &chunk.Text, &meta, &blob, &seq); err != nil {
			return nil, fmt.Errorf("failed to read index entry: %w", err)
		}
		entryVec, err := decodeVector(blob)
		if err != nil {
			return nil, fmt.Errorf("corrupt entry %s: %w", chunk.ID, err)
		}
		if meta.Valid && meta.String != "" && meta.String != "null" {
			if err := json.Unmarshal([]byte(meta.String), &chunk.Metadata); err != nil {
				return nil, fmt.Errorf("corrupt metadata on entry %s: %w", chunk.ID, err)
			}
		}
		chunk.Embedding = entryVec
		results = append(results, scored{
			candidate: schema.Candidate{Chunk: chunk, Score: s.metric.Score(vector, entryVec)},
			seq:       seq,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].candidate.Score != results[j].candidate.Score {
			return results[i].candidate.Score > results[j].candidate.Score
		}
		return results[i].seq < results[j].seq
	})
	if len(results) > k {
		results = results[:k]
	}

	candidates := make([]schema.Candidate, len(results))
	for i, r := range results {
		candidates[i] = r.candidate
	}
	return candidates, nil
}

// DeleteByDocument removes every chunk belonging to the document.
func (s *SQLiteStore) DeleteByDocument(ctx context.Context, docID string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM entries WHERE doc_id = ?`, docID)
	if err != nil {
		return fmt.Errorf("failed to delete document %s: %w", docID, err)
	}
	return nil
}

// Count reports the total number of entries across all namespaces.
func (s *SQLiteStore) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM entries`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count index entries: %w", err)
	}
	return n, nil
}

// Close releases the underlying database handle.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// compile-time check to ensure SQLiteStore implements the VectorStore interface
var _ interfaces.VectorStore = (*SQLiteStore)(nil)
