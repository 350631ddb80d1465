// Package bootstrap provides common initialization logic for audionotes.
package bootstrap

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/hiroq/audionotes/internal/config"
	"github.com/hiroq/audionotes/internal/embedder"
	"github.com/hiroq/audionotes/internal/model"
	"github.com/hiroq/audionotes/internal/service"
	"github.com/hiroq/audionotes/internal/store"
	"github.com/hiroq/audionotes/internal/transcriber"
)

// Services は初期化されたサービス群を保持
type Services struct {
	NoteService service.NoteService
	Transcriber transcriber.Transcriber
	Config      *model.Config
}

// Initialize は設定を読み込み、必要なサービスを初期化する
// APIキー不足などの資格情報エラーはここで返り、ワークフローは開始されない
func Initialize(ctx context.Context, configPath string) (*Services, func(), error) {
	// .envの読み込み（無ければ環境変数のみ）
	config.LoadDotenv()

	configManager, err := config.NewManager(configPath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create config manager: %w", err)
	}

	if err := configManager.Load(); err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}

	cfg := configManager.GetConfig()
	apiKey := config.GetOpenAIAPIKey(cfg)

	// 1. Embedder初期化
	emb, err := embedder.NewEmbedder(&cfg.Embedder, apiKey)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create embedder: %w", err)
	}

	// 2. Transcriber初期化
	transcriberOpts := []transcriber.OpenAIOption{}
	if cfg.Transcriber.BaseURL != nil && *cfg.Transcriber.BaseURL != "" {
		transcriberOpts = append(transcriberOpts, transcriber.WithBaseURL(*cfg.Transcriber.BaseURL))
	}
	if cfg.Transcriber.Model != "" {
		transcriberOpts = append(transcriberOpts, transcriber.WithModel(cfg.Transcriber.Model))
	}
	transc, err := transcriber.NewOpenAITranscriber(apiKey, transcriberOpts...)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create transcriber: %w", err)
	}

	// 3. Store初期化
	st, err := newStore(cfg)
	if err != nil {
		return nil, nil, err
	}

	// 4. コレクション準備（冪等。サービス側もリクエストごとに呼ぶ）
	if err := st.EnsureReady(ctx); err != nil {
		st.Close()
		return nil, nil, fmt.Errorf("failed to prepare store: %w", err)
	}

	noteService := service.NewNoteService(emb, st, cfg.Notes.IDMode, cfg.Notes.ListLimit)

	cleanup := func() {
		st.Close()
	}

	return &Services{
		NoteService: noteService,
		Transcriber: transc,
		Config:      cfg,
	}, cleanup, nil
}

// newStore は設定に応じたStore実装を作成する
func newStore(cfg *model.Config) (store.Store, error) {
	switch cfg.Store.Type {
	case model.StoreTypeQdrant:
		url := "http://localhost:6333"
		if cfg.Store.URL != nil && *cfg.Store.URL != "" {
			url = *cfg.Store.URL
		}
		apiKey := ""
		if cfg.Store.APIKey != nil {
			apiKey = *cfg.Store.APIKey
		}
		st, err := store.NewQdrantStore(store.QdrantConfig{
			URL:        url,
			APIKey:     apiKey,
			Collection: cfg.Store.Collection,
			VectorDim:  uint64(cfg.Embedder.Dim),
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create qdrant store: %w", err)
		}
		return st, nil

	case model.StoreTypeSQLite:
		dbPath := ""
		if cfg.Store.Path != nil && *cfg.Store.Path != "" {
			dbPath = *cfg.Store.Path
		} else {
			dataDir, err := config.GetDefaultDataDir()
			if err != nil {
				return nil, fmt.Errorf("failed to get default data dir: %w", err)
			}
			dbPath = filepath.Join(dataDir, "notes.db")
		}
		if err := config.EnsureDir(filepath.Dir(dbPath)); err != nil {
			return nil, fmt.Errorf("failed to create data directory: %w", err)
		}
		st, err := store.NewSQLiteStore(dbPath, cfg.Store.Collection)
		if err != nil {
			return nil, fmt.Errorf("failed to create sqlite store: %w", err)
		}
		return st, nil

	case model.StoreTypeMemory:
		return store.NewMemoryStore(), nil

	default:
		return nil, fmt.Errorf("unknown store type: %s", cfg.Store.Type)
	}
}
