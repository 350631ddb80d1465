// Package http implements the HTTP presentation layer for audionotes.
package http

import (
	"context"
	"embed"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/hiroq/audionotes/internal/service"
	"github.com/hiroq/audionotes/internal/session"
	"github.com/hiroq/audionotes/internal/transcriber"
	"go.uber.org/zap"
)

//go:embed static
var staticFS embed.FS

// Config はHTTPサーバー設定
type Config struct {
	Addr string // listen address (例: "127.0.0.1:8765")
}

// Server はノートUIとJSON APIを提供するHTTPサーバー
type Server struct {
	notes    service.NoteService
	transc   transcriber.Transcriber
	sessions *session.Manager
	logger   *zap.Logger
	config   Config
	srv      *http.Server
}

// New は新しいServerを生成
func New(notes service.NoteService, transc transcriber.Transcriber, logger *zap.Logger, config Config) *Server {
	s := &Server{
		notes:    notes,
		transc:   transc,
		sessions: session.NewManager(0),
		logger:   logger,
		config:   config,
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/", s.handleIndex)
	r.Get("/healthz", s.handleHealth)
	r.Post("/api/audio", s.handleAudio)
	r.Post("/api/transcribe", s.handleTranscribe)
	r.Post("/api/notes", s.handleAddNote)
	r.Get("/api/notes", s.handleListOrSearch)

	s.srv = &http.Server{
		Addr:    config.Addr,
		Handler: r,
	}

	return s
}

// Run はサーバーを起動し、contextがキャンセルされるまで実行
func (s *Server) Run(ctx context.Context) error {
	// contextキャンセル時にShutdownを呼ぶ
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.srv.Shutdown(shutdownCtx)
	}()

	s.logger.Info("starting server", zap.String("addr", s.config.Addr))

	err := s.srv.ListenAndServe()
	if err == http.ErrServerClosed {
		// Graceful shutdownはエラーではない
		return nil
	}
	return err
}

// handleIndex は埋め込みのシングルページUIを返す
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	page, err := staticFS.ReadFile("static/index.html")
	if err != nil {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(page)
}

// handleHealth はヘルスチェック応答を返す
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}
