package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/DeafMist/incident-radar/internal/config"
)

func TestLoadAnalyzeDefaults(t *testing.T) {
	for _, key := range []string{
		"INPUT_DIR", "OUTPUT_DIR", "MASTER_PATH", "RUN_OUTPUT_NAME", "WORKERS",
		"LEXICON_PATH", "MATCH_THRESHOLD", "ELASTICSEARCH_ADDR", "ELASTICSEARCH_INDEX",
		"KAFKA_BROKERS", "KAFKA_TOPIC", "SINK_TIMEOUT", "ES_CONNECT_RETRIES", "ES_CONNECT_BACKOFF",
	} {
		t.Setenv(key, "")
	}

	cfg, err := config.LoadAnalyze()
	require.NoError(t, err)

	require.Equal(t, "data", cfg.InputDir)
	require.Equal(t, "output", cfg.OutputDir)
	require.Equal(t, filepath.Join("output", "master_dataset.csv"), cfg.MasterPath)
	require.Equal(t, filepath.Join("output", "merged_topic_documents.csv"), cfg.RunOutputPath())
	require.Equal(t, 4, cfg.Workers)
	require.InDelta(t, 0.85, cfg.Threshold, 1e-9)
	require.Empty(t, cfg.ElasticsearchAddr)
	require.Equal(t, "incidents", cfg.ElasticsearchIndex)
	require.Empty(t, cfg.KafkaBrokers)
	require.Equal(t, 30*time.Second, cfg.SinkTimeout)
	require.Equal(t, 5, cfg.ConnectRetries)
	require.Equal(t, 2*time.Second, cfg.ConnectBackoff)
}

func TestLoadAnalyzeOverrides(t *testing.T) {
	t.Setenv("INPUT_DIR", "/in")
	t.Setenv("OUTPUT_DIR", "/out")
	t.Setenv("MASTER_PATH", "/state/master.csv")
	t.Setenv("WORKERS", "2")
	t.Setenv("MATCH_THRESHOLD", "0.9")
	t.Setenv("ELASTICSEARCH_ADDR", "http://localhost:9200")
	t.Setenv("KAFKA_BROKERS", "broker-a:29092, broker-b:29093")
	t.Setenv("KAFKA_TOPIC", "custom_topic")
	t.Setenv("SINK_TIMEOUT", "5s")

	cfg, err := config.LoadAnalyze()
	require.NoError(t, err)

	require.Equal(t, "/in", cfg.InputDir)
	require.Equal(t, "/state/master.csv", cfg.MasterPath)
	require.Equal(t, 2, cfg.Workers)
	require.InDelta(t, 0.9, cfg.Threshold, 1e-9)
	require.Equal(t, "http://localhost:9200", cfg.ElasticsearchAddr)
	require.Equal(t, []string{"broker-a:29092", "broker-b:29093"}, cfg.KafkaBrokers)
	require.Equal(t, "custom_topic", cfg.KafkaTopic)
	require.Equal(t, 5*time.Second, cfg.SinkTimeout)
}

func TestLoadAnalyzeRejectsThreshold(t *testing.T) {
	tests := []struct {
		name  string
		value string
		want  string
	}{
		{name: "above one", value: "1.5", want: "(0, 1]"},
		{name: "zero", value: "0", want: "(0, 1]"},
		{name: "not a number", value: "abc", want: `invalid number "abc"`},
		{name: "nan", value: "NaN", want: "(0, 1]"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("MATCH_THRESHOLD", tt.value)
			_, err := config.LoadAnalyze()
			require.ErrorContains(t, err, tt.want)
		})
	}
}

func TestLoadAPIRejectsMalformedThreshold(t *testing.T) {
	t.Setenv("MATCH_THRESHOLD", "0,9")
	_, err := config.LoadAPI()
	require.ErrorContains(t, err, "MATCH_THRESHOLD")
}

func TestLoadAPI(t *testing.T) {
	t.Setenv("API_BIND_ADDR", ":9090")
	t.Setenv("API_PAGE_SIZE", "15")
	t.Setenv("API_MAX_PAGE_SIZE", "200")
	t.Setenv("ELASTICSEARCH_ADDR", "http://api-es:9200")
	t.Setenv("ELASTICSEARCH_INDEX", "api-index")
	t.Setenv("MATCH_THRESHOLD", "")

	cfg, err := config.LoadAPI()
	require.NoError(t, err)
	require.Equal(t, ":9090", cfg.BindAddr)
	require.Equal(t, 15, cfg.DefaultPage)
	require.Equal(t, 200, cfg.MaxPage)
	require.Equal(t, "http://api-es:9200", cfg.ElasticsearchAddr)
	require.Equal(t, "api-index", cfg.ElasticsearchIndex)
	require.InDelta(t, 0.85, cfg.Threshold, 1e-9)
}

func TestLoadAPIRejectsPageSizes(t *testing.T) {
	t.Setenv("API_PAGE_SIZE", "50")
	t.Setenv("API_MAX_PAGE_SIZE", "10")
	_, err := config.LoadAPI()
	require.Error(t, err)
}

func TestMatchingLexicon(t *testing.T) {
	def, err := config.Matching{}.Lexicon()
	require.NoError(t, err)
	require.Contains(t, def.RightWing, "hitlergruß")

	path := filepath.Join(t.TempDir(), "lexicon.yaml")
	require.NoError(t, os.WriteFile(path, []byte("right_wing: [reichsbürger]\n"), 0o644))

	lex, err := config.Matching{LexiconPath: path}.Lexicon()
	require.NoError(t, err)
	require.Equal(t, []string{"reichsbürger"}, lex.RightWing)
	require.Equal(t, def.GeneralCrime, lex.GeneralCrime)
}
