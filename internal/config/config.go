package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/DeafMist/incident-radar/internal/fuzzy"
	"github.com/DeafMist/incident-radar/internal/lexicon"
)

// Matching configures the lexicon and similarity threshold shared by every service.
type Matching struct {
	LexiconPath string
	Threshold   float64
}

// Lexicon loads the configured lexicon, or the built-in one when no path is set.
func (m Matching) Lexicon() (lexicon.Lexicon, error) {
	if m.LexiconPath == "" {
		return lexicon.Default(), nil
	}
	return lexicon.Load(m.LexiconPath)
}

// Analyze holds configuration for the batch classification run.
type Analyze struct {
	Matching
	InputDir           string
	OutputDir          string
	MasterPath         string
	RunOutputName      string
	Workers            int
	ElasticsearchAddr  string
	ElasticsearchIndex string
	KafkaBrokers       []string
	KafkaTopic         string
	SinkTimeout        time.Duration
	ConnectRetries     int
	ConnectBackoff     time.Duration
}

// RunOutputPath is the location of the per-run audit table.
func (c *Analyze) RunOutputPath() string {
	return filepath.Join(c.OutputDir, c.RunOutputName)
}

// API describes HTTP-layer configuration.
type API struct {
	Matching
	ElasticsearchAddr  string
	ElasticsearchIndex string
	BindAddr           string
	DefaultPage        int
	MaxPage            int
}

// LoadAnalyze builds an Analyze config from environment variables. Empty
// ELASTICSEARCH_ADDR or KAFKA_BROKERS disable the matching sink.
func LoadAnalyze() (*Analyze, error) {
	matching, err := loadMatching()
	if err != nil {
		return nil, err
	}

	outputDir := getEnv("OUTPUT_DIR", "output")
	c := &Analyze{
		Matching:           matching,
		InputDir:           getEnv("INPUT_DIR", "data"),
		OutputDir:          outputDir,
		MasterPath:         getEnv("MASTER_PATH", filepath.Join(outputDir, "master_dataset.csv")),
		RunOutputName:      getEnv("RUN_OUTPUT_NAME", "merged_topic_documents.csv"),
		Workers:            getInt("WORKERS", 4),
		ElasticsearchAddr:  getEnv("ELASTICSEARCH_ADDR", ""),
		ElasticsearchIndex: getEnv("ELASTICSEARCH_INDEX", "incidents"),
		KafkaBrokers:       splitAndTrim(getEnv("KAFKA_BROKERS", "")),
		KafkaTopic:         getEnv("KAFKA_TOPIC", "incidents_merged"),
		SinkTimeout:        getDuration("SINK_TIMEOUT", "30s"),
		ConnectRetries:     getInt("ES_CONNECT_RETRIES", 5),
		ConnectBackoff:     getDuration("ES_CONNECT_BACKOFF", "2s"),
	}

	if c.Workers <= 0 {
		return nil, fmt.Errorf("WORKERS must be positive")
	}
	if c.SinkTimeout <= 0 {
		return nil, fmt.Errorf("SINK_TIMEOUT must be positive")
	}
	if c.ConnectRetries <= 0 {
		return nil, fmt.Errorf("ES_CONNECT_RETRIES must be positive")
	}
	if c.ConnectBackoff <= 0 {
		return nil, fmt.Errorf("ES_CONNECT_BACKOFF must be positive")
	}
	if len(c.KafkaBrokers) > 0 && c.KafkaTopic == "" {
		return nil, fmt.Errorf("KAFKA_TOPIC must be set when KAFKA_BROKERS is")
	}

	return c, nil
}

// LoadAPI builds an API config from environment variables.
func LoadAPI() (*API, error) {
	matching, err := loadMatching()
	if err != nil {
		return nil, err
	}

	c := &API{
		Matching:           matching,
		ElasticsearchAddr:  getEnv("ELASTICSEARCH_ADDR", "http://elasticsearch:9200"),
		ElasticsearchIndex: getEnv("ELASTICSEARCH_INDEX", "incidents"),
		BindAddr:           getEnv("API_BIND_ADDR", "0.0.0.0:8080"),
		DefaultPage:        getInt("API_PAGE_SIZE", 20),
		MaxPage:            getInt("API_MAX_PAGE_SIZE", 100),
	}

	if c.DefaultPage <= 0 {
		return nil, fmt.Errorf("API_PAGE_SIZE must be positive")
	}
	if c.MaxPage <= 0 {
		return nil, fmt.Errorf("API_MAX_PAGE_SIZE must be positive")
	}
	if c.DefaultPage > c.MaxPage {
		return nil, fmt.Errorf("API_PAGE_SIZE cannot exceed API_MAX_PAGE_SIZE")
	}

	return c, nil
}

// loadMatching reads the lexicon path and threshold. A threshold that does
// not parse as a number in (0, 1] is an error.
func loadMatching() (Matching, error) {
	threshold, err := getFloat("MATCH_THRESHOLD", fuzzy.DefaultThreshold)
	if err != nil {
		return Matching{}, err
	}
	if !(threshold > 0 && threshold <= 1) {
		return Matching{}, fmt.Errorf("MATCH_THRESHOLD must be in (0, 1]")
	}
	return Matching{
		LexiconPath: getEnv("LEXICON_PATH", ""),
		Threshold:   threshold,
	}, nil
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) int {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			return parsed
		}
	}
	return fallback
}

func getFloat(key string, fallback float64) (float64, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback, nil
	}
	parsed, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("%s: invalid number %q", key, v)
	}
	return parsed, nil
}

func getDuration(key, fallback string) time.Duration {
	raw := getEnv(key, fallback)
	d, err := time.ParseDuration(raw)
	if err != nil {
		fd, ferr := time.ParseDuration(fallback)
		if ferr != nil {
			panic(fmt.Sprintf("invalid fallback duration %q: %v", fallback, ferr))
		}
		return fd
	}
	return d
}

func splitAndTrim(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
