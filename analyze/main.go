package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"

	"github.com/DeafMist/incident-radar/internal/config"
	"github.com/DeafMist/incident-radar/internal/dataset"
	"github.com/DeafMist/incident-radar/internal/elasticsearch"
	"github.com/DeafMist/incident-radar/internal/events"
	"github.com/DeafMist/incident-radar/internal/logger"
	"github.com/DeafMist/incident-radar/internal/merge"
	"github.com/DeafMist/incident-radar/internal/models"
	"github.com/DeafMist/incident-radar/internal/pipeline"
)

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "load .env: %v\n", err)
		os.Exit(1)
	}

	runID := uuid.NewString()
	log := logger.New("analyze").With(slog.String("run_id", runID))

	cfg, err := config.LoadAnalyze()
	if err != nil {
		log.Error("load config", slog.Any("err", err))
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	var sinks []merge.Sink
	if cfg.ElasticsearchAddr != "" {
		esClient, err := connectElasticsearch(ctx, log, cfg)
		if err != nil {
			log.Error("elasticsearch unavailable", slog.Any("err", err))
			os.Exit(1)
		}
		sinks = append(sinks, timeoutSink{Sink: esClient, timeout: cfg.SinkTimeout})
	}
	if len(cfg.KafkaBrokers) > 0 {
		publisher := events.NewPublisher(cfg.KafkaBrokers, cfg.KafkaTopic, runID, log)
		defer publisher.Close()
		sinks = append(sinks, timeoutSink{Sink: publisher, timeout: cfg.SinkTimeout})
	}

	if err := run(ctx, log, cfg, sinks...); err != nil {
		log.Error("run failed, master left unchanged", slog.Any("err", err))
		os.Exit(1)
	}
}

// run processes one batch: load the input tables, write the per-run audit
// table and merge the relevant reports into the master dataset.
func run(ctx context.Context, log *slog.Logger, cfg *config.Analyze, sinks ...merge.Sink) error {
	lex, err := cfg.Lexicon()
	if err != nil {
		return fmt.Errorf("load lexicon: %w", err)
	}

	docs, err := dataset.LoadDir(cfg.InputDir)
	if err != nil {
		return fmt.Errorf("load input: %w", err)
	}
	log.Info("loaded input", slog.String("dir", cfg.InputDir), slog.Int("rows", len(docs)))

	annotator := pipeline.NewAnnotator(lex, cfg.Threshold, cfg.Workers)
	merger := merge.New(annotator, log).WithAudit(func(_ context.Context, annotated []models.AnnotatedDocument) error {
		if err := dataset.WriteTable(cfg.RunOutputPath(), annotated); err != nil {
			return fmt.Errorf("write run output: %w", err)
		}
		return nil
	})
	store := dataset.NewCSVStore(cfg.MasterPath)

	res, err := merger.Run(ctx, store, docs, sinks...)
	if err != nil {
		return err
	}

	log.Info("run complete",
		slog.Int("master_rows", len(res.Master)),
		slog.Int("added", res.Added()),
		slog.Int("skipped", res.Skipped),
		slog.Int("irrelevant", res.Irrelevant),
		slog.Int("right_wing", countTopic(res.Appended, models.TopicRightWing)),
		slog.Int("general_crime", countTopic(res.Appended, models.TopicGeneralCrime)),
		slog.String("master", cfg.MasterPath),
	)
	return nil
}

// connectElasticsearch pings the cluster until it answers, backing off
// exponentially between attempts up to 30s.
func connectElasticsearch(ctx context.Context, log *slog.Logger, cfg *config.Analyze) (*elasticsearch.Client, error) {
	esClient, err := elasticsearch.New(cfg.ElasticsearchAddr, cfg.ElasticsearchIndex, log)
	if err != nil {
		return nil, err
	}

	retryDelay := cfg.ConnectBackoff
	for attempt := 1; ; attempt++ {
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		err = esClient.Ping(pingCtx)
		cancel()
		if err == nil {
			log.Info("connected to elasticsearch", slog.Int("attempt", attempt))
			return esClient, nil
		}
		if attempt >= cfg.ConnectRetries {
			return nil, fmt.Errorf("after %d attempts: %w", attempt, err)
		}
		log.Warn("elasticsearch ping failed, retrying",
			slog.Any("err", err),
			slog.Int("attempt", attempt),
			slog.Int("max_retries", cfg.ConnectRetries),
			slog.Duration("retry_in", retryDelay),
		)

		select {
		case <-time.After(retryDelay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
		retryDelay *= 2
		if retryDelay > 30*time.Second {
			retryDelay = 30 * time.Second
		}
	}
}

type timeoutSink struct {
	merge.Sink
	timeout time.Duration
}

func (s timeoutSink) Publish(ctx context.Context, docs []models.AnnotatedDocument) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	return s.Sink.Publish(ctx, docs)
}

func countTopic(docs []models.AnnotatedDocument, topic models.Topic) int {
	n := 0
	for _, doc := range docs {
		if doc.Topic == topic {
			n++
		}
	}
	return n
}
