// Package service implements the note workflows over embedder and store.
package service

import (
	"context"
	"errors"

	"github.com/hiroq/audionotes/internal/model"
)

// NoteService はノートの保存と一覧・検索を提供
type NoteService interface {
	// Add はテキストを埋め込み、IDを割り当ててストアに保存する
	Add(ctx context.Context, text string) (*model.Note, error)

	// ListOrSearch はqueryが空なら一覧（スコアなし）、
	// 非空なら類似度検索（スコア降順）を返す。いずれも上限件数まで
	ListOrSearch(ctx context.Context, query string) ([]model.Result, error)
}

// エラー定義
var (
	ErrTextRequired  = errors.New("text is required")
	ErrUnknownIDMode = errors.New("unknown id mode")
)
