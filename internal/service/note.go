package service

import (
	"context"
	"fmt"
	"strconv"

	"github.com/google/uuid"
	"github.com/hiroq/audionotes/internal/embedder"
	"github.com/hiroq/audionotes/internal/model"
	"github.com/hiroq/audionotes/internal/store"
)

// noteService はNoteServiceの実装
type noteService struct {
	embedder embedder.Embedder
	store    store.Store
	idMode   string
	limit    int
}

// NewNoteService はNoteServiceの新しいインスタンスを作成
// idModeはmodel.IDModeSequentialまたはmodel.IDModeUUID。
// limitが0以下の場合はmodel.DefaultListLimitを使用
func NewNoteService(emb embedder.Embedder, s store.Store, idMode string, limit int) NoteService {
	if idMode == "" {
		idMode = model.IDModeSequential
	}
	if limit <= 0 {
		limit = model.DefaultListLimit
	}
	return &noteService{
		embedder: emb,
		store:    s,
		idMode:   idMode,
		limit:    limit,
	}
}

// Add はノートを保存する
//
// 埋め込み→ID割り当て→upsertの順で実行する。埋め込みが失敗した場合は
// IDを消費しない（連番モードは都度件数を読み直すため）。upsertが失敗した
// 場合、ノートは保存されていない。リトライすると新しい件数からIDを再計算する
func (s *noteService) Add(ctx context.Context, text string) (*model.Note, error) {
	if text == "" {
		return nil, ErrTextRequired
	}

	if err := s.store.EnsureReady(ctx); err != nil {
		return nil, fmt.Errorf("failed to prepare store: %w", err)
	}

	// 埋め込み生成
	embedding, err := s.embedder.Embed(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("failed to generate embedding: %w", err)
	}

	// ID割り当て
	id, err := s.assignID(ctx)
	if err != nil {
		return nil, err
	}

	note := &model.Note{
		ID:   id,
		Text: text,
	}

	// Storeに保存（成功を返した時点で検索可能）
	if err := s.store.Upsert(ctx, note, embedding); err != nil {
		return nil, fmt.Errorf("failed to add note to store: %w", err)
	}

	return note, nil
}

// assignID は設定されたモードでノートIDを割り当てる
//
// 連番モードは元実装互換の「正確な件数+1」。読み取りと書き込みの間に
// ロックは無いため、並行する2つのAddが同じIDを得て片方を上書きし得る
// （既知の制限）。並行書き込みが必要な運用ではUUIDモードを使うこと
func (s *noteService) assignID(ctx context.Context) (string, error) {
	switch s.idMode {
	case model.IDModeSequential:
		count, err := s.store.Count(ctx)
		if err != nil {
			return "", fmt.Errorf("failed to count notes: %w", err)
		}
		return strconv.FormatUint(count+1, 10), nil

	case model.IDModeUUID:
		return uuid.New().String(), nil

	default:
		return "", fmt.Errorf("%w: %s", ErrUnknownIDMode, s.idMode)
	}
}

// ListOrSearch はノートの一覧または検索を実行する
func (s *noteService) ListOrSearch(ctx context.Context, query string) ([]model.Result, error) {
	if err := s.store.EnsureReady(ctx); err != nil {
		return nil, fmt.Errorf("failed to prepare store: %w", err)
	}

	// クエリなし: 一覧（順序は実装依存、スコアはnull）
	if query == "" {
		notes, err := s.store.List(ctx, s.limit)
		if err != nil {
			return nil, fmt.Errorf("failed to list notes: %w", err)
		}

		results := make([]model.Result, 0, len(notes))
		for _, note := range notes {
			results = append(results, model.Result{Text: note.Text, Score: nil})
		}
		return results, nil
	}

	// クエリあり: 埋め込み→類似度検索
	embedding, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to generate embedding: %w", err)
	}

	found, err := s.store.Search(ctx, embedding, s.limit)
	if err != nil {
		return nil, fmt.Errorf("failed to search: %w", err)
	}

	results := make([]model.Result, 0, len(found))
	for _, r := range found {
		score := r.Score
		results = append(results, model.Result{Text: r.Note.Text, Score: &score})
	}
	return results, nil
}
