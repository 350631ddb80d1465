package embedder

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const (
	DefaultOpenAIBaseURL = "https://api.openai.com/v1"
	DefaultOpenAIModel   = "text-embedding-3-large"
	DefaultOpenAIDim     = 3072

	// defaultTimeout はHTTPクライアント未指定時のタイムアウト
	defaultTimeout = 60 * time.Second
)

// OpenAIEmbedder はOpenAI APIを使用するEmbedder実装
type OpenAIEmbedder struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	model      string
	dim        int
}

// OpenAIOption はOpenAIEmbedderのオプション
type OpenAIOption func(*OpenAIEmbedder)

// WithBaseURL はベースURLを設定
func WithBaseURL(url string) OpenAIOption {
	return func(e *OpenAIEmbedder) {
		e.baseURL = url
	}
}

// WithModel はモデルを設定
func WithModel(model string) OpenAIOption {
	return func(e *OpenAIEmbedder) {
		e.model = model
	}
}

// WithDim は出力次元を設定
// コレクション側の次元と一致させるのは呼び出し側の責務
func WithDim(dim int) OpenAIOption {
	return func(e *OpenAIEmbedder) {
		e.dim = dim
	}
}

// WithHTTPClient はHTTPクライアントを設定
func WithHTTPClient(client *http.Client) OpenAIOption {
	return func(e *OpenAIEmbedder) {
		e.httpClient = client
	}
}

// NewOpenAIEmbedder は新しいOpenAIEmbedderを作成
func NewOpenAIEmbedder(apiKey string, opts ...OpenAIOption) (*OpenAIEmbedder, error) {
	if apiKey == "" {
		return nil, ErrAPIKeyRequired
	}

	e := &OpenAIEmbedder{
		httpClient: &http.Client{Timeout: defaultTimeout},
		baseURL:    DefaultOpenAIBaseURL,
		apiKey:     apiKey,
		model:      DefaultOpenAIModel,
		dim:        DefaultOpenAIDim,
	}

	for _, opt := range opts {
		opt(e)
	}

	return e, nil
}

// embeddingRequest はOpenAI APIリクエストの構造
type embeddingRequest struct {
	Model          string   `json:"model"`
	Input          []string `json:"input"`
	Dimensions     int      `json:"dimensions"`
	EncodingFormat string   `json:"encoding_format"`
}

// embeddingResponse はOpenAI APIレスポンスの構造
type embeddingResponse struct {
	Data  []embeddingData `json:"data"`
	Model string          `json:"model"`
}

type embeddingData struct {
	Embedding []float32 `json:"embedding"`
	Index     int       `json:"index"`
}

// Embed はテキストを埋め込みベクトルに変換
// 空文字列もそのままAPIに渡す（縮退ベクトルの扱いはサービス側に委譲）
func (e *OpenAIEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	reqBody := embeddingRequest{
		Model:          e.model,
		Input:          []string{text},
		Dimensions:     e.dim,
		EncodingFormat: "float",
	}

	reqJSON, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}

	url := e.baseURL + "/embeddings"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(reqJSON))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrAPIRequestFailed, err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+e.apiKey)

	resp, err := e.httpClient.Do(req)
	if err != nil {
		// context.Canceledやcontext.DeadlineExceededはそのまま返す
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("%w: %v", ErrAPIRequestFailed, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read response: %v", ErrAPIRequestFailed, err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, &APIError{
			StatusCode: resp.StatusCode,
			Message:    string(body),
		}
	}

	var embResp embeddingResponse
	if err := json.Unmarshal(body, &embResp); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}

	if len(embResp.Data) == 0 {
		return nil, ErrEmptyEmbedding
	}

	embedding := embResp.Data[0].Embedding
	if len(embedding) == 0 {
		return nil, ErrEmptyEmbedding
	}

	// コレクション次元と不一致のままupsertすると書き込み時に拒否されるため、
	// ここで検出して返す
	if len(embedding) != e.dim {
		return nil, fmt.Errorf("%w: expected %d, got %d", ErrDimensionMismatch, e.dim, len(embedding))
	}

	return embedding, nil
}

// Dimension は次元を返す
func (e *OpenAIEmbedder) Dimension() int {
	return e.dim
}
