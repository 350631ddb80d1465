// Package store provides vector storage interfaces and implementations.
package store

import (
	"context"
	"errors"

	"github.com/hiroq/audionotes/internal/model"
)

// Store はノート用ベクトルストアの抽象インターフェース
//
// コレクションの存在状態は Unknown → (確認) → Created / Present と遷移し、
// EnsureReadyが終端状態への遷移を担う。他の操作はEnsureReady成功後にのみ有効
type Store interface {
	// EnsureReady はコレクションの存在を確認し、無ければ作成する
	// 冪等であり、リクエストごとに呼んで安全
	EnsureReady(ctx context.Context) error

	// Count はコレクション内のノート件数（正確値）を返す
	Count(ctx context.Context) (uint64, error)

	// Upsert はノートとその埋め込みベクトルを保存する
	// 呼び出しが成功を返した時点で検索可能になる
	Upsert(ctx context.Context, note *model.Note, embedding []float32) error

	// List はノートをlimit件まで返す（順序は実装依存、スコアなし）
	List(ctx context.Context, limit int) ([]*model.Note, error)

	// Search はクエリベクトルに近い順にノートをlimit件まで返す
	Search(ctx context.Context, embedding []float32, limit int) ([]SearchResult, error)

	// Close はストアをクローズする
	Close() error
}

// SearchResult はベクトル検索結果の1件を表す
type SearchResult struct {
	Note  *model.Note
	Score float64 // cosine類似度（概ね -1〜1、1が最も類似）
}

// エラー定義
var (
	ErrNotReady         = errors.New("store not ready")
	ErrConnectionFailed = errors.New("failed to connect to store")
)
