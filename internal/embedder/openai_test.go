package embedder

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

// openAIResponse はOpenAI API応答の構造
type openAIResponse struct {
	Data  []openAIEmbeddingData `json:"data"`
	Model string                `json:"model"`
}

type openAIEmbeddingData struct {
	Embedding []float32 `json:"embedding"`
	Index     int       `json:"index"`
}

// successHandler は正常応答を返すハンドラ
func successHandler(embedding []float32) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp := openAIResponse{
			Data: []openAIEmbeddingData{
				{Embedding: embedding, Index: 0},
			},
			Model: "text-embedding-3-large",
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(resp)
	}
}

func TestOpenAIEmbedder_NewEmbedder_APIKeyRequired(t *testing.T) {
	_, err := NewOpenAIEmbedder("")
	if !errors.Is(err, ErrAPIKeyRequired) {
		t.Errorf("expected ErrAPIKeyRequired, got %v", err)
	}
}

func TestOpenAIEmbedder_Embed_Success(t *testing.T) {
	expected := []float32{0.1, 0.2, 0.3}
	server := httptest.NewServer(successHandler(expected))
	defer server.Close()

	emb, err := NewOpenAIEmbedder("test-api-key",
		WithBaseURL(server.URL),
		WithHTTPClient(server.Client()),
		WithDim(3))
	if err != nil {
		t.Fatalf("failed to create embedder: %v", err)
	}

	result, err := emb.Embed(context.Background(), "test text")
	if err != nil {
		t.Fatalf("Embed failed: %v", err)
	}

	if len(result) != len(expected) {
		t.Errorf("expected %d elements, got %d", len(expected), len(result))
	}
	for i, v := range result {
		if v != expected[i] {
			t.Errorf("element %d: expected %f, got %f", i, expected[i], v)
		}
	}
}

func TestOpenAIEmbedder_Embed_RequestContainsDimensions(t *testing.T) {
	var gotReq map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&gotReq)
		successHandler([]float32{0.1, 0.2, 0.3})(w, r)
	}))
	defer server.Close()

	emb, err := NewOpenAIEmbedder("test-api-key",
		WithBaseURL(server.URL),
		WithHTTPClient(server.Client()),
		WithModel("text-embedding-3-large"),
		WithDim(3))
	if err != nil {
		t.Fatalf("failed to create embedder: %v", err)
	}

	if _, err := emb.Embed(context.Background(), "test text"); err != nil {
		t.Fatalf("Embed failed: %v", err)
	}

	if gotReq["model"] != "text-embedding-3-large" {
		t.Errorf("expected model in request, got %v", gotReq["model"])
	}
	if gotReq["dimensions"] != float64(3) {
		t.Errorf("expected dimensions 3 in request, got %v", gotReq["dimensions"])
	}
}

// 空文字列もクラッシュせずそのままAPIに渡す（応答の扱いはサービス側に委譲）
func TestOpenAIEmbedder_Embed_EmptyText(t *testing.T) {
	server := httptest.NewServer(successHandler([]float32{0, 0, 0}))
	defer server.Close()

	emb, err := NewOpenAIEmbedder("test-api-key",
		WithBaseURL(server.URL),
		WithHTTPClient(server.Client()),
		WithDim(3))
	if err != nil {
		t.Fatalf("failed to create embedder: %v", err)
	}

	result, err := emb.Embed(context.Background(), "")
	if err != nil {
		t.Fatalf("Embed failed: %v", err)
	}
	if len(result) != 3 {
		t.Errorf("expected 3 elements, got %d", len(result))
	}
}

func TestOpenAIEmbedder_Embed_DimensionMismatch(t *testing.T) {
	// dim=3の設定に対して5要素のベクトルを返すサーバー
	server := httptest.NewServer(successHandler([]float32{0.1, 0.2, 0.3, 0.4, 0.5}))
	defer server.Close()

	emb, err := NewOpenAIEmbedder("test-api-key",
		WithBaseURL(server.URL),
		WithHTTPClient(server.Client()),
		WithDim(3))
	if err != nil {
		t.Fatalf("failed to create embedder: %v", err)
	}

	_, err = emb.Embed(context.Background(), "test text")
	if !errors.Is(err, ErrDimensionMismatch) {
		t.Errorf("expected ErrDimensionMismatch, got %v", err)
	}
}

func TestOpenAIEmbedder_Embed_APIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error": {"message": "invalid api key"}}`))
	}))
	defer server.Close()

	emb, err := NewOpenAIEmbedder("bad-api-key",
		WithBaseURL(server.URL),
		WithHTTPClient(server.Client()))
	if err != nil {
		t.Fatalf("failed to create embedder: %v", err)
	}

	_, err = emb.Embed(context.Background(), "test text")
	if !errors.Is(err, ErrAPIRequestFailed) {
		t.Errorf("expected ErrAPIRequestFailed, got %v", err)
	}

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *APIError, got %T", err)
	}
	if apiErr.StatusCode != http.StatusUnauthorized {
		t.Errorf("expected status 401, got %d", apiErr.StatusCode)
	}
}

func TestOpenAIEmbedder_Embed_EmptyData(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"data": [], "model": "text-embedding-3-large"}`))
	}))
	defer server.Close()

	emb, err := NewOpenAIEmbedder("test-api-key",
		WithBaseURL(server.URL),
		WithHTTPClient(server.Client()))
	if err != nil {
		t.Fatalf("failed to create embedder: %v", err)
	}

	_, err = emb.Embed(context.Background(), "test text")
	if !errors.Is(err, ErrEmptyEmbedding) {
		t.Errorf("expected ErrEmptyEmbedding, got %v", err)
	}
}

func TestOpenAIEmbedder_Embed_InvalidJSON(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`not json`))
	}))
	defer server.Close()

	emb, err := NewOpenAIEmbedder("test-api-key",
		WithBaseURL(server.URL),
		WithHTTPClient(server.Client()))
	if err != nil {
		t.Fatalf("failed to create embedder: %v", err)
	}

	_, err = emb.Embed(context.Background(), "test text")
	if !errors.Is(err, ErrInvalidResponse) {
		t.Errorf("expected ErrInvalidResponse, got %v", err)
	}
}

func TestOpenAIEmbedder_Embed_ContextCanceled(t *testing.T) {
	server := httptest.NewServer(successHandler([]float32{0.1}))
	defer server.Close()

	emb, err := NewOpenAIEmbedder("test-api-key",
		WithBaseURL(server.URL),
		WithHTTPClient(server.Client()))
	if err != nil {
		t.Fatalf("failed to create embedder: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = emb.Embed(ctx, "test text")
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}
