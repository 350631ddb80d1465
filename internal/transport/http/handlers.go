package http

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/hiroq/audionotes/internal/embedder"
	"github.com/hiroq/audionotes/internal/service"
	"github.com/hiroq/audionotes/internal/session"
	"github.com/hiroq/audionotes/internal/transcriber"
	"go.uber.org/zap"
)

const (
	// sessionCookie はセッションIDを保持するcookie名
	sessionCookie = "audionotes_session"

	// maxAudioBytes は受け付ける音声アップロードの上限
	maxAudioBytes = 25 << 20 // 25MB（外部APIの上限に合わせる）
)

// audioResponse はPOST /api/audioの応答
type audioResponse struct {
	Checksum string `json:"checksum"`
	Changed  bool   `json:"changed"` // 前回と異なる録音だったか
}

// transcribeResponse はPOST /api/transcribeの応答
type transcribeResponse struct {
	Transcript string `json:"transcript"`
}

// addNoteRequest はPOST /api/notesのリクエスト
type addNoteRequest struct {
	Text string `json:"text"`
}

// addNoteResponse はPOST /api/notesの応答
type addNoteResponse struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

// listResponse はGET /api/notesの応答
type listResponse struct {
	Results []resultItem `json:"results"`
}

type resultItem struct {
	Text  string   `json:"text"`
	Score *float64 `json:"score"`
}

// errorResponse はエラー応答
type errorResponse struct {
	Error string `json:"error"`
}

// handleAudio は録音データを受け取りセッションに保存する
// 同一録音の再送では文字起こし・編集状態を消さない
func (s *Server) handleAudio(w http.ResponseWriter, r *http.Request) {
	sess := s.ensureSession(w, r)

	r.Body = http.MaxBytesReader(w, r.Body, maxAudioBytes)
	if err := r.ParseMultipartForm(maxAudioBytes); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}

	file, _, err := r.FormFile("audio")
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "audio file is required")
		return
	}
	defer file.Close()

	audio, err := io.ReadAll(file)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "failed to read audio")
		return
	}

	changed := sess.SetAudio(audio)

	s.writeJSON(w, http.StatusOK, audioResponse{
		Checksum: sess.AudioChecksum(),
		Changed:  changed,
	})
}

// handleTranscribe はセッション内の録音を文字起こしする
func (s *Server) handleTranscribe(w http.ResponseWriter, r *http.Request) {
	sess := s.ensureSession(w, r)

	audio := sess.Audio()
	if len(audio) == 0 {
		s.writeError(w, http.StatusBadRequest, "no audio recorded")
		return
	}

	transcript, err := s.transc.Transcribe(r.Context(), audio)
	if err != nil {
		s.writeExternalError(w, "transcribe", err)
		return
	}

	sess.SetTranscript(transcript)

	s.writeJSON(w, http.StatusOK, transcribeResponse{Transcript: transcript})
}

// handleAddNote は編集済みテキストをノートとして保存する
func (s *Server) handleAddNote(w http.ResponseWriter, r *http.Request) {
	sess := s.ensureSession(w, r)

	var req addNoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	sess.SetDraft(req.Text)

	note, err := s.notes.Add(r.Context(), req.Text)
	if err != nil {
		if errors.Is(err, service.ErrTextRequired) {
			s.writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		s.writeExternalError(w, "add note", err)
		return
	}

	s.writeJSON(w, http.StatusOK, addNoteResponse{ID: note.ID, Text: note.Text})
}

// handleListOrSearch はノートの一覧または検索結果を返す
func (s *Server) handleListOrSearch(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("query")

	results, err := s.notes.ListOrSearch(r.Context(), query)
	if err != nil {
		s.writeExternalError(w, "list or search", err)
		return
	}

	items := make([]resultItem, 0, len(results))
	for _, result := range results {
		items = append(items, resultItem{Text: result.Text, Score: result.Score})
	}

	s.writeJSON(w, http.StatusOK, listResponse{Results: items})
}

// ensureSession はcookieからセッションを取得し、無ければ新規作成する
func (s *Server) ensureSession(w http.ResponseWriter, r *http.Request) *session.Session {
	if cookie, err := r.Cookie(sessionCookie); err == nil {
		if sess := s.sessions.Get(cookie.Value); sess != nil {
			return sess
		}
	}

	id, sess := s.sessions.Create()
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return sess
}

// writeJSON はJSON応答を書き込む
func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError はエラー応答を書き込む
func (s *Server) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, errorResponse{Error: message})
}

// writeExternalError は外部サービス起因のエラーを応答に変換する
// ローカルでのリトライやフォールバックは行わない。セッション状態は
// 保持されたままなので、ユーザーは同じ操作を再試行できる
func (s *Server) writeExternalError(w http.ResponseWriter, op string, err error) {
	s.logger.Error("external call failed", zap.String("op", op), zap.Error(err))

	switch {
	case errors.Is(err, embedder.ErrAPIKeyRequired), errors.Is(err, transcriber.ErrAPIKeyRequired):
		s.writeError(w, http.StatusUnauthorized, "api key is not configured")
	case errors.Is(err, transcriber.ErrEmptyAudio):
		s.writeError(w, http.StatusBadRequest, err.Error())
	default:
		s.writeError(w, http.StatusBadGateway, err.Error())
	}
}
