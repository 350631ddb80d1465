// Package config provides configuration loading for audionotes.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/hiroq/audionotes/internal/model"
)

// Manager は設定の読み書きを管理する
type Manager struct {
	mu         sync.RWMutex
	config     *model.Config
	configPath string
}

// NewManager は新しいManagerを作成する
// configPathが空文字の場合、デフォルトパス（~/.audionotes/config.json）を使用
func NewManager(configPath string) (*Manager, error) {
	if configPath == "" {
		defaultPath, err := GetDefaultConfigPath()
		if err != nil {
			return nil, fmt.Errorf("failed to get default config path: %w", err)
		}
		configPath = defaultPath
	}

	dataDir, err := GetDefaultDataDir()
	if err != nil {
		return nil, fmt.Errorf("failed to get default data dir: %w", err)
	}

	// デフォルト設定で初期化
	config := DefaultConfig(dataDir)

	return &Manager{
		config:     config,
		configPath: configPath,
	}, nil
}

// Load は設定ファイルを読み込み、環境変数上書きを適用する
// ファイルが存在しない場合はデフォルト設定を使用（エラーなし）
func (m *Manager) Load() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, err := os.Stat(m.configPath); os.IsNotExist(err) {
		// デフォルト設定は既に設定されているのでそのまま使う
		ApplyEnvOverrides(m.config)
		return nil
	}

	data, err := os.ReadFile(m.configPath)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	var config model.Config
	if err := json.Unmarshal(data, &config); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	// 設定ファイルに無い項目はデフォルトで補完
	applyDefaults(&config)
	ApplyEnvOverrides(&config)

	m.config = &config
	return nil
}

// Save は設定ファイルを保存する
// APIキーは保存対象から除外する（.env / 環境変数で管理）
func (m *Manager) Save() error {
	m.mu.RLock()
	configCopy := *m.config
	m.mu.RUnlock()

	configCopy.Embedder.APIKey = nil
	configCopy.Store.APIKey = nil

	configDir := filepath.Dir(m.configPath)
	if err := EnsureDir(configDir); err != nil {
		return err
	}

	data, err := json.MarshalIndent(&configCopy, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	// 一時ファイルに書き込み（atomicな保存のため）
	tmpFile := m.configPath + ".tmp"
	if err := os.WriteFile(tmpFile, data, 0644); err != nil {
		return fmt.Errorf("failed to write temp config file: %w", err)
	}

	if err := os.Rename(tmpFile, m.configPath); err != nil {
		os.Remove(tmpFile) // クリーンアップ
		return fmt.Errorf("failed to rename config file: %w", err)
	}

	return nil
}

// GetConfig は現在の設定を返す
func (m *Manager) GetConfig() *model.Config {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.config
}

// GetConfigPath は設定ファイルパスを返す
func (m *Manager) GetConfigPath() string {
	return m.configPath
}

// NewManagerWithConfig は指定した設定でManagerを作成する（テスト用）
func NewManagerWithConfig(cfg *model.Config) *Manager {
	return &Manager{
		config:     cfg,
		configPath: "", // テスト用なので空
	}
}

// DefaultConfig はデフォルト設定を返す
// 埋め込みモデルと次元は元運用に合わせ text-embedding-3-large / 3072
func DefaultConfig(dataDir string) *model.Config {
	sqlitePath := filepath.Join(dataDir, "notes.db")
	return &model.Config{
		Server: model.ServerConfig{
			Host: "127.0.0.1",
			Port: 8765,
		},
		Embedder: model.EmbedderConfig{
			Provider: model.ProviderOpenAI,
			Model:    "text-embedding-3-large",
			Dim:      3072,
			BaseURL:  nil,
			APIKey:   nil,
		},
		Transcriber: model.TranscriberConfig{
			Model:   "whisper-1",
			BaseURL: nil,
		},
		Store: model.StoreConfig{
			Type:       model.StoreTypeQdrant,
			Collection: "notes",
			Path:       &sqlitePath,
		},
		Notes: model.NotesConfig{
			IDMode:    model.IDModeSequential,
			ListLimit: model.DefaultListLimit,
		},
	}
}

// applyDefaults はゼロ値のままの必須項目をデフォルトで埋める
func applyDefaults(config *model.Config) {
	if config.Server.Host == "" {
		config.Server.Host = "127.0.0.1"
	}
	if config.Server.Port == 0 {
		config.Server.Port = 8765
	}
	if config.Embedder.Provider == "" {
		config.Embedder.Provider = model.ProviderOpenAI
	}
	if config.Embedder.Model == "" {
		config.Embedder.Model = "text-embedding-3-large"
	}
	if config.Embedder.Dim == 0 {
		config.Embedder.Dim = 3072
	}
	if config.Transcriber.Model == "" {
		config.Transcriber.Model = "whisper-1"
	}
	if config.Store.Type == "" {
		config.Store.Type = model.StoreTypeQdrant
	}
	if config.Store.Collection == "" {
		config.Store.Collection = "notes"
	}
	if config.Notes.IDMode == "" {
		config.Notes.IDMode = model.IDModeSequential
	}
	if config.Notes.ListLimit == 0 {
		config.Notes.ListLimit = model.DefaultListLimit
	}
}
