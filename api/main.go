package main

import (
	"context"
	"encoding/json"
	"errors"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"

	"github.com/DeafMist/incident-radar/internal/config"
	"github.com/DeafMist/incident-radar/internal/elasticsearch"
	"github.com/DeafMist/incident-radar/internal/logger"
	"github.com/DeafMist/incident-radar/internal/models"
	"github.com/DeafMist/incident-radar/internal/pipeline"
)

const maxClassifyBody = 1 << 20

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		slog.Error("load .env", slog.Any("err", err))
		os.Exit(1)
	}

	log := logger.New("api")
	cfg, err := config.LoadAPI()
	if err != nil {
		log.Error("load config", slog.Any("err", err))
		os.Exit(1)
	}

	lex, err := cfg.Lexicon()
	if err != nil {
		log.Error("load lexicon", slog.Any("err", err))
		os.Exit(1)
	}

	esClient, err := elasticsearch.New(cfg.ElasticsearchAddr, cfg.ElasticsearchIndex, log)
	if err != nil {
		log.Error("init elasticsearch", slog.Any("err", err))
		os.Exit(1)
	}

	srv := &server{
		log:       log,
		cfg:       cfg,
		es:        esClient,
		annotator: pipeline.NewAnnotator(lex, cfg.Threshold, 1),
	}

	httpServer := &http.Server{
		Addr:              cfg.BindAddr,
		Handler:           srv.routes(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      15 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	go func() {
		log.Info("api server starting", slog.String("addr", cfg.BindAddr))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server stopped", slog.Any("err", err))
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	log.Info("shutdown signal received")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error("server shutdown", slog.Any("err", err))
	}
}

type incidentSearcher interface {
	Health(ctx context.Context) error
	SearchIncidents(ctx context.Context, params elasticsearch.SearchParams) (*elasticsearch.SearchResult, error)
}

type server struct {
	log       *slog.Logger
	cfg       *config.API
	es        incidentSearcher
	annotator *pipeline.Annotator
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Get("/health", s.handleHealth)
	r.Get("/incidents", s.handleSearch)
	r.Post("/classify", s.handleClassify)
	return r
}

func (s *server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := s.es.Health(ctx); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *server) handleSearch(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	q := r.URL.Query()
	topic := models.ParseTopic(strings.TrimSpace(q.Get("topic")))
	if raw := strings.TrimSpace(q.Get("topic")); raw != "" && topic == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "unknown topic " + strconv.Quote(raw)})
		return
	}

	params := elasticsearch.SearchParams{
		Query:  strings.TrimSpace(q.Get("q")),
		Topic:  topic,
		Action: strings.ToLower(strings.TrimSpace(q.Get("action"))),
		From:   clampInt(q.Get("from"), 0, 10_000),
		Size:   clampInt(q.Get("size"), s.cfg.DefaultPage, s.cfg.MaxPage),
		Sort:   strings.TrimSpace(q.Get("sort")),
	}

	result, err := s.es.SearchIncidents(ctx, params)
	if err != nil {
		s.log.Warn("search incidents", slog.Any("err", err))
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, result)
}

func (s *server) handleClassify(w http.ResponseWriter, r *http.Request) {
	var doc models.RawDocument
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxClassifyBody))
	if err := dec.Decode(&doc); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON body: " + err.Error()})
		return
	}
	if strings.TrimSpace(doc.Title) == "" && strings.TrimSpace(doc.Text) == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "title or text is required"})
		return
	}

	writeJSON(w, http.StatusOK, s.annotator.Annotate(doc))
}

func clampInt(raw string, fallback, max int) int {
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	if value <= 0 {
		return fallback
	}
	if value > max {
		return max
	}
	return value
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
