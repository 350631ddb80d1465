package model

// Config はサーバー全体の設定を表す
type Config struct {
	Server      ServerConfig      `json:"server"`
	Embedder    EmbedderConfig    `json:"embedder"`
	Transcriber TranscriberConfig `json:"transcriber"`
	Store       StoreConfig       `json:"store"`
	Notes       NotesConfig       `json:"notes"`
}

// ServerConfig はHTTPサーバー設定
type ServerConfig struct {
	Host string `json:"host"` // listen host（例: "127.0.0.1"）
	Port int    `json:"port"` // listen port
}

// EmbedderConfig はembedder設定
type EmbedderConfig struct {
	Provider string  `json:"provider"`          // "openai" | "local"
	Model    string  `json:"model"`             // モデル名
	Dim      int     `json:"dim"`               // ベクトル次元（コレクションの次元と一致させること）
	BaseURL  *string `json:"baseUrl,omitempty"` // nullable、省略可
	APIKey   *string `json:"apiKey,omitempty"`  // nullable、省略可（セキュリティ注意）
}

// TranscriberConfig は音声文字起こし設定
type TranscriberConfig struct {
	Model   string  `json:"model"`             // モデル名（例: "whisper-1"）
	BaseURL *string `json:"baseUrl,omitempty"` // nullable、省略可
}

// StoreConfig はvector store設定
type StoreConfig struct {
	Type       string  `json:"type"`             // "qdrant" | "sqlite" | "memory"
	Collection string  `json:"collection"`       // コレクション名
	URL        *string `json:"url,omitempty"`    // nullable（Qdrant用）
	APIKey     *string `json:"apiKey,omitempty"` // nullable（Qdrant Cloud用）
	Path       *string `json:"path,omitempty"`   // nullable（SQLite用）
}

// NotesConfig はノート動作設定
type NotesConfig struct {
	IDMode    string `json:"idMode"`    // "sequential" | "uuid"
	ListLimit int    `json:"listLimit"` // 一覧・検索の最大件数
}

// Embedder Provider定数
const (
	ProviderOpenAI = "openai"
	ProviderLocal  = "local"
)

// Store Type定数
const (
	StoreTypeQdrant = "qdrant"
	StoreTypeSQLite = "sqlite"
	StoreTypeMemory = "memory"
)

// ID割り当てモード定数
// IDModeSequentialは元実装互換の「件数+1」方式で、並行書き込みでは
// 同一IDが割り当てられ得る（既知の制限）。IDModeUUIDは衝突耐性あり。
const (
	IDModeSequential = "sequential"
	IDModeUUID       = "uuid"
)

// DefaultListLimit は一覧・検索結果の既定上限
const DefaultListLimit = 10
