package store

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"sync"

	"github.com/hiroq/audionotes/internal/model"
	_ "modernc.org/sqlite"
)

// SQLiteStore はSQLiteを使用したStore実装
// 埋め込みはBLOBとして保存し、検索は全件走査のcosine計算で行う
// （インデックスなし。ローカル・オフライン用途向け）
type SQLiteStore struct {
	mu         sync.RWMutex
	db         *sql.DB
	dbPath     string
	collection string
	ready      bool
}

// NewSQLiteStore はSQLiteStoreを作成する
func NewSQLiteStore(dbPath, collection string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// WALモードを有効化
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to set WAL mode: %w", err)
	}

	return &SQLiteStore{
		db:         db,
		dbPath:     dbPath,
		collection: collection,
	}, nil
}

// EnsureReady はnotesテーブルを作成する（冪等）
func (s *SQLiteStore) EnsureReady(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.ready {
		return nil
	}

	notesSQL := `
	CREATE TABLE IF NOT EXISTS notes (
		id TEXT NOT NULL,
		collection TEXT NOT NULL,
		text TEXT NOT NULL,
		embedding BLOB,
		PRIMARY KEY (collection, id)
	);
	CREATE INDEX IF NOT EXISTS idx_notes_collection ON notes(collection);
	`

	if _, err := s.db.ExecContext(ctx, notesSQL); err != nil {
		return fmt.Errorf("failed to create notes table: %w", err)
	}

	s.ready = true
	return nil
}

// Close はストアをクローズする
func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.ready = false
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Count はノート件数を返す
func (s *SQLiteStore) Count(ctx context.Context) (uint64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.ready {
		return 0, ErrNotReady
	}

	var count uint64
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM notes WHERE collection = ?
	`, s.collection).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count notes: %w", err)
	}

	return count, nil
}

// Upsert はノートを追加または上書きする
func (s *SQLiteStore) Upsert(ctx context.Context, note *model.Note, embedding []float32) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.ready {
		return ErrNotReady
	}

	embeddingBlob := encodeEmbedding(embedding)

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO notes (id, collection, text, embedding)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(collection, id) DO UPDATE SET
			text = excluded.text,
			embedding = excluded.embedding
	`, note.ID, s.collection, note.Text, embeddingBlob)

	if err != nil {
		return fmt.Errorf("failed to upsert note: %w", err)
	}

	return nil
}

// List はノートをlimit件まで返す（rowid順）
func (s *SQLiteStore) List(ctx context.Context, limit int) ([]*model.Note, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.ready {
		return nil, ErrNotReady
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, text FROM notes WHERE collection = ? LIMIT ?
	`, s.collection, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query notes: %w", err)
	}
	defer rows.Close()

	var notes []*model.Note
	for rows.Next() {
		var id, text string
		if err := rows.Scan(&id, &text); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		notes = append(notes, &model.Note{ID: id, Text: text})
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return notes, nil
}

// Search はベクトル検索を実行する（全件走査）
func (s *SQLiteStore) Search(ctx context.Context, embedding []float32, limit int) ([]SearchResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.ready {
		return nil, ErrNotReady
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, text, embedding FROM notes WHERE collection = ?
	`, s.collection)
	if err != nil {
		return nil, fmt.Errorf("failed to query notes: %w", err)
	}
	defer rows.Close()

	var results []SearchResult
	for rows.Next() {
		var (
			id, text      string
			embeddingBlob []byte
		)
		if err := rows.Scan(&id, &text, &embeddingBlob); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}

		noteEmbedding := decodeEmbedding(embeddingBlob)
		score := CosineSimilarity(embedding, noteEmbedding)

		results = append(results, SearchResult{
			Note:  &model.Note{ID: id, Text: text},
			Score: score,
		})
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	// スコア降順でソート
	sort.Slice(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})

	if limit > 0 && len(results) > limit {
		results = results[:limit]
	}

	return results, nil
}
