package model

import "fmt"

// Note は保存されるノートを表す（内部データモデル）
// ベクトル本体はストア側が保持するため、モデルには含めない
type Note struct {
	ID   string `json:"id"`   // 連番（"1", "2", ...）またはUUID形式
	Text string `json:"text"` // 必須
}

// Result は一覧・検索結果の1件を表す
// Scoreは検索時のみ設定され、一覧取得時はnil（JSON上はnull）
type Result struct {
	Text  string   `json:"text"`
	Score *float64 `json:"score"` // cosine類似度（概ね -1〜1、高いほど類似）
}

// Validate はNoteのバリデーションを実行する
func (n *Note) Validate() error {
	if n.ID == "" {
		return fmt.Errorf("ID must not be empty")
	}

	if n.Text == "" {
		return fmt.Errorf("Text must not be empty")
	}

	return nil
}
