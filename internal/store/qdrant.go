package store

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"sync"
	"time"

	"github.com/hiroq/audionotes/internal/model"
	"github.com/qdrant/go-client/qdrant"
)

// QdrantStore はQdrantを使用したStore実装
type QdrantStore struct {
	client     *qdrant.Client
	collection string
	vectorDim  uint64
	ready      bool
	mu         sync.RWMutex // readyフラグの保護
}

// QdrantConfig はQdrantStoreの接続設定
type QdrantConfig struct {
	URL        string // 例: "http://localhost:6333"、"https://xyz.cloud.qdrant.io:6334"
	APIKey     string // Qdrant Cloud用、ローカルでは空
	Collection string // コレクション名
	VectorDim  uint64 // ベクトル次元（コレクション作成時に使用）
}

// NewQdrantStore はQdrantStoreを作成する
func NewQdrantStore(cfg QdrantConfig) (*QdrantStore, error) {
	parsedURL, err := url.Parse(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse URL: %w", err)
	}

	host := parsedURL.Hostname()
	portStr := parsedURL.Port()
	// Qdrant gRPCポートはデフォルト6334（HTTPは6333）
	port := 6334
	if portStr != "" {
		// URLにポートが明示されている場合は、gRPCポートに変換
		// 例: http://localhost:6333 -> 6334
		if p, err := strconv.Atoi(portStr); err == nil {
			if p == 6333 {
				port = 6334 // HTTPポート指定の場合はgRPCポートに変換
			} else {
				port = p
			}
		}
	}

	client, err := qdrant.NewClient(&qdrant.Config{
		Host:                   host,
		Port:                   port,
		APIKey:                 cfg.APIKey,
		UseTLS:                 parsedURL.Scheme == "https",
		SkipCompatibilityCheck: true, // バージョンチェックをスキップ
	})
	if err != nil {
		return nil, ErrConnectionFailed
	}

	// 接続確認
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if _, err := client.HealthCheck(ctx); err != nil {
		return nil, ErrConnectionFailed
	}

	return &QdrantStore{
		client:     client,
		collection: cfg.Collection,
		vectorDim:  cfg.VectorDim,
	}, nil
}

// EnsureReady はコレクションの存在を確認し、無ければ作成する（冪等）
// 既存コレクションの次元が設定と食い違っていてもここでは検出されず、
// upsert時にベクトルサイズ不一致として外部サービス側で拒否される
func (s *QdrantStore) EnsureReady(ctx context.Context) error {
	s.mu.RLock()
	ready := s.ready
	s.mu.RUnlock()
	if ready {
		return nil
	}

	exists, err := s.client.CollectionExists(ctx, s.collection)
	if err != nil {
		return fmt.Errorf("failed to check collection existence: %w", err)
	}

	if !exists {
		err = s.client.CreateCollection(ctx, &qdrant.CreateCollection{
			CollectionName: s.collection,
			VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
				Size:     s.vectorDim,
				Distance: qdrant.Distance_Cosine,
			}),
		})
		if err != nil {
			return fmt.Errorf("failed to create collection: %w", err)
		}
	}

	s.mu.Lock()
	s.ready = true
	s.mu.Unlock()
	return nil
}

// Close はストアをクローズする
func (s *QdrantStore) Close() error {
	s.mu.Lock()
	s.ready = false
	s.mu.Unlock()
	if s.client != nil {
		s.client.Close()
	}
	return nil
}

// isReady は準備状態を安全に取得する
func (s *QdrantStore) isReady() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ready
}

// Count はコレクション内のポイント件数（正確値）を返す
func (s *QdrantStore) Count(ctx context.Context) (uint64, error) {
	if !s.isReady() {
		return 0, ErrNotReady
	}

	count, err := s.client.Count(ctx, &qdrant.CountPoints{
		CollectionName: s.collection,
		Exact:          qdrant.PtrOf(true),
	})
	if err != nil {
		return 0, fmt.Errorf("failed to count points: %w", err)
	}

	return count, nil
}

// Upsert はノートとベクトルを保存する
// Wait=trueのため、成功を返した時点で検索可能になっている
func (s *QdrantStore) Upsert(ctx context.Context, note *model.Note, embedding []float32) error {
	if !s.isReady() {
		return ErrNotReady
	}

	text, err := qdrant.NewValue(note.Text)
	if err != nil {
		return fmt.Errorf("failed to build payload: %w", err)
	}
	payload := map[string]*qdrant.Value{"text": text}

	_, err = s.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: s.collection,
		Wait:           qdrant.PtrOf(true),
		Points: []*qdrant.PointStruct{
			{
				Id:      pointID(note.ID),
				Vectors: qdrant.NewVectors(embedding...),
				Payload: payload,
			},
		},
	})

	if err != nil {
		return fmt.Errorf("failed to upsert point: %w", err)
	}

	return nil
}

// List はノートをlimit件まで返す（Scrollの返却順のまま、順序保証なし）
func (s *QdrantStore) List(ctx context.Context, limit int) ([]*model.Note, error) {
	if !s.isReady() {
		return nil, ErrNotReady
	}

	scrollResp, err := s.client.Scroll(ctx, &qdrant.ScrollPoints{
		CollectionName: s.collection,
		Limit:          qdrant.PtrOf(uint32(limit)),
		WithPayload:    qdrant.NewWithPayload(true),
		WithVectors:    qdrant.NewWithVectors(false),
	})

	if err != nil {
		return nil, fmt.Errorf("failed to scroll points: %w", err)
	}

	var notes []*model.Note
	for _, point := range scrollResp {
		notes = append(notes, &model.Note{
			ID:   formatPointID(point.Id),
			Text: payloadText(point.Payload),
		})
	}

	return notes, nil
}

// Search はベクトル検索を実行する
// スコアはQdrantのcosine類似度をそのまま返す（-1〜1、高いほど類似）
func (s *QdrantStore) Search(ctx context.Context, embedding []float32, limit int) ([]SearchResult, error) {
	if !s.isReady() {
		return nil, ErrNotReady
	}

	queryResp, err := s.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: s.collection,
		Query:          qdrant.NewQuery(embedding...),
		Limit:          qdrant.PtrOf(uint64(limit)),
		WithPayload:    qdrant.NewWithPayload(true),
	})

	if err != nil {
		return nil, fmt.Errorf("failed to query points: %w", err)
	}

	var results []SearchResult
	for _, point := range queryResp {
		results = append(results, SearchResult{
			Note: &model.Note{
				ID:   formatPointID(point.Id),
				Text: payloadText(point.Payload),
			},
			Score: float64(point.Score),
		})
	}

	return results, nil
}

// Helper functions

// pointID はノートIDをQdrantのポイントIDに変換する
// 数値文字列（連番モード）は数値ID、それ以外（UUIDモード）はUUID IDとして扱う
func pointID(id string) *qdrant.PointId {
	if n, err := strconv.ParseUint(id, 10, 64); err == nil {
		return qdrant.NewIDNum(n)
	}
	return qdrant.NewID(id)
}

// formatPointID はQdrantのポイントIDをノートIDに変換する
func formatPointID(id *qdrant.PointId) string {
	if id == nil {
		return ""
	}
	if uuid := id.GetUuid(); uuid != "" {
		return uuid
	}
	return strconv.FormatUint(id.GetNum(), 10)
}

// payloadText はpayloadからノート本文を取り出す
func payloadText(payload map[string]*qdrant.Value) string {
	if v, ok := payload["text"]; ok {
		return v.GetStringValue()
	}
	return ""
}
