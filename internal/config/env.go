package config

import (
	"os"

	"github.com/hiroq/audionotes/internal/model"
	"github.com/joho/godotenv"
)

// 環境変数名の定数
const (
	EnvOpenAIAPIKey = "OPENAI_API_KEY"
	EnvQdrantURL    = "QDRANT_URL"
	EnvQdrantAPIKey = "QDRANT_API_KEY"
)

// LoadDotenv はカレントディレクトリの.envファイルを環境変数に読み込む
// ファイルが存在しない場合はエラーにしない（環境変数直接指定を許容）
func LoadDotenv() {
	_ = godotenv.Load()
}

// ApplyEnvOverrides は環境変数による設定上書きを適用する
// config を直接変更する。環境変数は設定ファイルの値より優先
func ApplyEnvOverrides(config *model.Config) {
	if apiKey := os.Getenv(EnvOpenAIAPIKey); apiKey != "" {
		config.Embedder.APIKey = &apiKey
	}
	if url := os.Getenv(EnvQdrantURL); url != "" {
		config.Store.URL = &url
	}
	if apiKey := os.Getenv(EnvQdrantAPIKey); apiKey != "" {
		config.Store.APIKey = &apiKey
	}
}

// GetOpenAIAPIKey は環境変数からOpenAI APIキーを取得する
// 設定ファイルの値より環境変数を優先
func GetOpenAIAPIKey(config *model.Config) string {
	if apiKey := os.Getenv(EnvOpenAIAPIKey); apiKey != "" {
		return apiKey
	}
	if config.Embedder.APIKey != nil {
		return *config.Embedder.APIKey
	}
	return ""
}
