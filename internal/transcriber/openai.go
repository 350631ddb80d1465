package transcriber

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"
)

const (
	DefaultOpenAIBaseURL = "https://api.openai.com/v1"
	DefaultOpenAIModel   = "whisper-1"

	// audioFileName はmultipartのファイル名
	// APIはこの拡張子からコンテナ形式を推定する
	audioFileName = "audio.mp3"

	// defaultTimeout はHTTPクライアント未指定時のタイムアウト
	defaultTimeout = 60 * time.Second
)

// OpenAITranscriber はOpenAI音声文字起こしAPIを使用するTranscriber実装
type OpenAITranscriber struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	model      string
}

// OpenAIOption はOpenAITranscriberのオプション
type OpenAIOption func(*OpenAITranscriber)

// WithBaseURL はベースURLを設定
func WithBaseURL(url string) OpenAIOption {
	return func(t *OpenAITranscriber) {
		t.baseURL = url
	}
}

// WithModel はモデルを設定
func WithModel(model string) OpenAIOption {
	return func(t *OpenAITranscriber) {
		t.model = model
	}
}

// WithHTTPClient はHTTPクライアントを設定
func WithHTTPClient(client *http.Client) OpenAIOption {
	return func(t *OpenAITranscriber) {
		t.httpClient = client
	}
}

// NewOpenAITranscriber は新しいOpenAITranscriberを作成
func NewOpenAITranscriber(apiKey string, opts ...OpenAIOption) (*OpenAITranscriber, error) {
	if apiKey == "" {
		return nil, ErrAPIKeyRequired
	}

	t := &OpenAITranscriber{
		httpClient: &http.Client{Timeout: defaultTimeout},
		baseURL:    DefaultOpenAIBaseURL,
		apiKey:     apiKey,
		model:      DefaultOpenAIModel,
	}

	for _, opt := range opts {
		opt(t)
	}

	return t, nil
}

// transcriptionResponse はverbose_json応答のうち使用するフィールド
// セグメント情報や言語判定などの他フィールドは無視する
type transcriptionResponse struct {
	Text string `json:"text"`
}

// Transcribe は音声バイト列をテキストに変換する
func (t *OpenAITranscriber) Transcribe(ctx context.Context, audio []byte) (string, error) {
	if len(audio) == 0 {
		return "", ErrEmptyAudio
	}

	// multipart/form-dataリクエストボディ作成
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	part, err := writer.CreateFormFile("file", audioFileName)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrAPIRequestFailed, err)
	}
	if _, err := part.Write(audio); err != nil {
		return "", fmt.Errorf("%w: %v", ErrAPIRequestFailed, err)
	}

	if err := writer.WriteField("model", t.model); err != nil {
		return "", fmt.Errorf("%w: %v", ErrAPIRequestFailed, err)
	}
	if err := writer.WriteField("response_format", "verbose_json"); err != nil {
		return "", fmt.Errorf("%w: %v", ErrAPIRequestFailed, err)
	}

	if err := writer.Close(); err != nil {
		return "", fmt.Errorf("%w: %v", ErrAPIRequestFailed, err)
	}

	url := t.baseURL + "/audio/transcriptions"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, &buf)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrAPIRequestFailed, err)
	}

	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+t.apiKey)

	resp, err := t.httpClient.Do(req)
	if err != nil {
		// context.Canceledやcontext.DeadlineExceededはそのまま返す
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", fmt.Errorf("%w: %v", ErrAPIRequestFailed, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("%w: failed to read response: %v", ErrAPIRequestFailed, err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", &APIError{
			StatusCode: resp.StatusCode,
			Message:    string(body),
		}
	}

	var transcResp transcriptionResponse
	if err := json.Unmarshal(body, &transcResp); err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}

	return transcResp.Text, nil
}
