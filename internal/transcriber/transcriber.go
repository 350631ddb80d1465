// Package transcriber provides speech-to-text clients.
package transcriber

import (
	"context"
	"errors"
	"fmt"
)

// Transcriber は音声データから文字起こしテキストを生成するインターフェース
type Transcriber interface {
	// Transcribe は音声バイト列をテキストに変換する
	// audioは外部サービスが受理するエンコード済み音声（例: mp3）。
	// ローカルでの音声検証は行わず、不正なデータはサービス側エラーとして返る
	Transcribe(ctx context.Context, audio []byte) (string, error)
}

// エラー定義
var (
	ErrAPIKeyRequired   = errors.New("api key is required")
	ErrAPIRequestFailed = errors.New("API request failed")
	ErrInvalidResponse  = errors.New("invalid API response")
	ErrEmptyAudio       = errors.New("empty audio data")
)

// APIError は詳細なAPIエラー情報を保持
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("API error (status %d): %s", e.StatusCode, e.Message)
}

func (e *APIError) Is(target error) bool {
	return target == ErrAPIRequestFailed
}
