package store

import (
	"context"
	"sort"
	"sync"

	"github.com/hiroq/audionotes/internal/model"
)

// MemoryStore はテスト用のインメモリStore実装
type MemoryStore struct {
	mu      sync.RWMutex
	entries []*memoryEntry
	byID    map[string]int // note.ID → entriesインデックス
	ready   bool
}

type memoryEntry struct {
	note      *model.Note
	embedding []float32
}

// NewMemoryStore はMemoryStoreを作成する
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		byID: make(map[string]int),
	}
}

// EnsureReady はストアを使用可能にする（冪等）
func (s *MemoryStore) EnsureReady(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.ready = true
	return nil
}

// Close はストアをクローズする
func (s *MemoryStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries = nil
	s.byID = make(map[string]int)
	s.ready = false
	return nil
}

// Count はノート件数を返す
func (s *MemoryStore) Count(ctx context.Context) (uint64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.ready {
		return 0, ErrNotReady
	}

	return uint64(len(s.entries)), nil
}

// Upsert はノートを追加または上書きする
func (s *MemoryStore) Upsert(ctx context.Context, note *model.Note, embedding []float32) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.ready {
		return ErrNotReady
	}

	// ディープコピー
	noteCopy := &model.Note{ID: note.ID, Text: note.Text}
	embeddingCopy := make([]float32, len(embedding))
	copy(embeddingCopy, embedding)

	entry := &memoryEntry{note: noteCopy, embedding: embeddingCopy}

	// 同一IDは上書き（upsertセマンティクス）
	if idx, ok := s.byID[note.ID]; ok {
		s.entries[idx] = entry
		return nil
	}

	s.byID[note.ID] = len(s.entries)
	s.entries = append(s.entries, entry)
	return nil
}

// List はノートを挿入順にlimit件まで返す
func (s *MemoryStore) List(ctx context.Context, limit int) ([]*model.Note, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.ready {
		return nil, ErrNotReady
	}

	var notes []*model.Note
	for _, entry := range s.entries {
		notes = append(notes, &model.Note{ID: entry.note.ID, Text: entry.note.Text})
		if limit > 0 && len(notes) >= limit {
			break
		}
	}

	return notes, nil
}

// Search はコサイン類似度降順にノートをlimit件まで返す
func (s *MemoryStore) Search(ctx context.Context, embedding []float32, limit int) ([]SearchResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.ready {
		return nil, ErrNotReady
	}

	var results []SearchResult
	for _, entry := range s.entries {
		score := CosineSimilarity(embedding, entry.embedding)
		results = append(results, SearchResult{
			Note:  &model.Note{ID: entry.note.ID, Text: entry.note.Text},
			Score: score,
		})
	}

	// スコア降順でソート（同点間の順序は保証しない）
	sort.Slice(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})

	if limit > 0 && len(results) > limit {
		results = results[:limit]
	}

	return results, nil
}
