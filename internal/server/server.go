// Пакет server — HTTP-слой сервиса: маршруты, аутентификация запросов
// и привязка разбора, детектора и хранилища к API.
package server

import (
	"context"
	"fmt"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/cors"
	"go.uber.org/zap"

	"LogAnalyzer/internal/ai"
	"LogAnalyzer/internal/auth"
	"LogAnalyzer/internal/config"
	"LogAnalyzer/internal/detector"
	"LogAnalyzer/internal/parser"
	"LogAnalyzer/internal/storage"
)

// components — части сервера, зависящие от конфигурации.
// Пересобираются целиком при горячей перезагрузке настроек.
type components struct {
	cfg      *config.Config
	detector *detector.Detector
	auth     *auth.Service
	ai       *ai.Helper
}

// Server связывает все подсистемы сервиса под HTTP API.
// Хранилище фиксируется при запуске: смена бэкенда требует рестарта.
type Server struct {
	logger *zap.Logger
	store  storage.Store
	files  *parser.FileParser
	parts  atomic.Pointer[components]
}

func New(cfg *config.Config, store storage.Store, logger *zap.Logger) *Server {
	s := &Server{
		logger: logger.Named("http"),
		store:  store,
		files:  parser.NewFileParser(store, logger),
	}
	s.parts.Store(buildComponents(cfg, logger))
	return s
}

func buildComponents(cfg *config.Config, logger *zap.Logger) *components {
	return &components{
		cfg: cfg,
		detector: detector.New(detector.Config{
			SpikeStdDevs:     cfg.Detector.SpikeStdDevs,
			BurstStdDevs:     cfg.Detector.BurstStdDevs,
			BusinessStart:    cfg.Detector.BusinessStart,
			BusinessEnd:      cfg.Detector.BusinessEnd,
			IPMinRequests:    cfg.Detector.IPMinRequests,
			IPErrorRate:      cfg.Detector.IPErrorRate,
			StatusFraction:   cfg.Detector.StatusFraction,
			PatternMinErrors: detector.DefaultConfig().PatternMinErrors,
		}),
		auth: auth.New(cfg.Auth.JWTSecret),
		ai:   ai.New(cfg.AI, logger),
	}
}

// UpdateConfig применяет перечитанную конфигурацию без рестарта.
// Бэкенд хранилища и адрес прослушивания при этом не меняются.
func (s *Server) UpdateConfig(cfg *config.Config) {
	s.parts.Store(buildComponents(cfg, s.logger))
	s.logger.Info("Конфигурация сервера применена")
}

func (s *Server) current() *components {
	return s.parts.Load()
}

// Router собирает дерево маршрутов и оборачивает его в CORS.
func (s *Server) Router() http.Handler {
	r := mux.NewRouter()

	r.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	r.HandleFunc("/api/auth/verify", s.handleAuthVerify).Methods(http.MethodPost)
	r.HandleFunc("/api/auth/user", s.requireAuth(s.handleAuthUser)).Methods(http.MethodGet)

	r.HandleFunc("/api/upload/file", s.requireAuth(s.handleUploadFile)).Methods(http.MethodPost)
	r.HandleFunc("/api/upload/files", s.requireAuth(s.handleListFiles)).Methods(http.MethodGet)
	r.HandleFunc("/api/upload/file/{filename}", s.requireAuth(s.handleDeleteFile)).Methods(http.MethodDelete)

	r.HandleFunc("/api/analysis/analyze", s.requireAuth(s.handleAnalyze)).Methods(http.MethodPost)
	r.HandleFunc("/api/analysis/anomalies", s.requireAuth(s.handleAnomalies)).Methods(http.MethodPost)
	r.HandleFunc("/api/analysis/timeline", s.requireAuth(s.handleTimeline)).Methods(http.MethodPost)

	c := cors.New(cors.Options{
		AllowedOrigins:   s.current().cfg.Server.CORSOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		AllowCredentials: true,
	})
	return c.Handler(r)
}

// Run запускает HTTP-сервер и останавливает его при отмене ctx.
func (s *Server) Run(ctx context.Context) error {
	cfg := s.current().cfg
	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      s.Router(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("HTTP-сервер запущен", zap.String("addr", srv.Addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown http server: %w", err)
		}
		s.logger.Info("HTTP-сервер остановлен")
		return nil
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "healthy",
		"service": "log-analyzer",
	})
}
