package transcriber

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
)

// transcriptionHandler はverbose_json応答を返すハンドラ
func transcriptionHandler(text string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"task": "transcribe", "language": "japanese", "duration": 4.2, "text": "` + text + `"}`))
	}
}

func TestOpenAITranscriber_NewTranscriber_APIKeyRequired(t *testing.T) {
	_, err := NewOpenAITranscriber("")
	if !errors.Is(err, ErrAPIKeyRequired) {
		t.Errorf("expected ErrAPIKeyRequired, got %v", err)
	}
}

func TestOpenAITranscriber_Transcribe_Success(t *testing.T) {
	server := httptest.NewServer(transcriptionHandler("hello world"))
	defer server.Close()

	tr, err := NewOpenAITranscriber("test-api-key",
		WithBaseURL(server.URL),
		WithHTTPClient(server.Client()))
	if err != nil {
		t.Fatalf("failed to create transcriber: %v", err)
	}

	text, err := tr.Transcribe(context.Background(), []byte("fake audio bytes"))
	if err != nil {
		t.Fatalf("Transcribe failed: %v", err)
	}
	if text != "hello world" {
		t.Errorf("expected %q, got %q", "hello world", text)
	}
}

func TestOpenAITranscriber_Transcribe_RequestFormat(t *testing.T) {
	audio := []byte{0xFF, 0xFB, 0x90, 0x00}

	var gotModel, gotFormat, gotFileName string
	var gotFile []byte
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("failed to parse multipart form: %v", err)
		}
		gotModel = r.FormValue("model")
		gotFormat = r.FormValue("response_format")

		file, header, err := r.FormFile("file")
		if err != nil {
			t.Errorf("missing file part: %v", err)
		} else {
			gotFileName = header.Filename
			gotFile, _ = io.ReadAll(file)
			file.Close()
		}

		transcriptionHandler("ok")(w, r)
	}))
	defer server.Close()

	tr, err := NewOpenAITranscriber("test-api-key",
		WithBaseURL(server.URL),
		WithHTTPClient(server.Client()),
		WithModel("whisper-1"))
	if err != nil {
		t.Fatalf("failed to create transcriber: %v", err)
	}

	if _, err := tr.Transcribe(context.Background(), audio); err != nil {
		t.Fatalf("Transcribe failed: %v", err)
	}

	if gotModel != "whisper-1" {
		t.Errorf("expected model whisper-1, got %q", gotModel)
	}
	if gotFormat != "verbose_json" {
		t.Errorf("expected response_format verbose_json, got %q", gotFormat)
	}
	if gotFileName != "audio.mp3" {
		t.Errorf("expected filename audio.mp3, got %q", gotFileName)
	}
	if !bytes.Equal(gotFile, audio) {
		t.Errorf("uploaded audio bytes do not match original")
	}
}

func TestOpenAITranscriber_Transcribe_EmptyAudio(t *testing.T) {
	tr, err := NewOpenAITranscriber("test-api-key")
	if err != nil {
		t.Fatalf("failed to create transcriber: %v", err)
	}

	_, err = tr.Transcribe(context.Background(), nil)
	if !errors.Is(err, ErrEmptyAudio) {
		t.Errorf("expected ErrEmptyAudio, got %v", err)
	}
}

func TestOpenAITranscriber_Transcribe_APIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error": {"message": "unsupported audio format"}}`))
	}))
	defer server.Close()

	tr, err := NewOpenAITranscriber("test-api-key",
		WithBaseURL(server.URL),
		WithHTTPClient(server.Client()))
	if err != nil {
		t.Fatalf("failed to create transcriber: %v", err)
	}

	_, err = tr.Transcribe(context.Background(), []byte("bad audio"))
	if !errors.Is(err, ErrAPIRequestFailed) {
		t.Errorf("expected ErrAPIRequestFailed, got %v", err)
	}

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *APIError, got %T", err)
	}
	if apiErr.StatusCode != http.StatusBadRequest {
		t.Errorf("expected status 400, got %d", apiErr.StatusCode)
	}
}

func TestOpenAITranscriber_Transcribe_InvalidJSON(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`not json`))
	}))
	defer server.Close()

	tr, err := NewOpenAITranscriber("test-api-key",
		WithBaseURL(server.URL),
		WithHTTPClient(server.Client()))
	if err != nil {
		t.Fatalf("failed to create transcriber: %v", err)
	}

	_, err = tr.Transcribe(context.Background(), []byte("audio"))
	if !errors.Is(err, ErrInvalidResponse) {
		t.Errorf("expected ErrInvalidResponse, got %v", err)
	}
}
