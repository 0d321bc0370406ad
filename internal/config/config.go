package config

import (
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// configPathEnv names an optional YAML file of KEY: value pairs using the
// same keys as the environment. Environment variables win over the file.
const configPathEnv = "HYBRID_SEARCH_CONFIG"

type Config struct {
	APIPort  string
	LogLevel string

	CorpusSource string
	CorpusPath   string
	CorpusSheet  string
	CorpusDSN    string
	CorpusTable  string

	IndexStoreBackend string
	IndexDir          string

	EmbedProvider     string
	OllamaURL         string
	OllamaEmbedModels []string
	OpenAIBaseURL     string
	OpenAIEmbedModel  string
	OpenAIAPIKey      string
	EmbedBatchSize    int
	EmbedConcurrency  int

	EmbedRetryMaxAttempts int
	EmbedRetryBackoff     time.Duration
	EmbedBreakerEnabled   bool

	DedupKey          string
	DefaultTopK       int
	MaxTopK           int
	RetrievalTimeout  time.Duration
	IndexBuildTimeout time.Duration

	NATSURL           string
	NATSReloadSubject string

	APIRateLimitRPS     float64
	APIRateLimitBurst   int
	APIMaxInFlight      int
	APIBackpressureWait time.Duration
}

func Load() Config {
	env := newLookup(os.Getenv(configPathEnv))
	return Config{
		APIPort:  env.str("API_PORT", "8080"),
		LogLevel: env.str("LOG_LEVEL", "info"),

		CorpusSource: env.str("CORPUS_SOURCE", "csv"),
		CorpusPath:   env.str("CORPUS_PATH", "./data/corpus.csv"),
		CorpusSheet:  env.str("CORPUS_SHEET", ""),
		CorpusDSN:    env.str("CORPUS_DSN", ""),
		CorpusTable:  env.str("CORPUS_TABLE", "documents"),

		IndexStoreBackend: env.str("INDEX_STORE_BACKEND", "localfs"),
		IndexDir:          env.str("INDEX_DIR", "./data/index"),

		EmbedProvider:     env.str("EMBED_PROVIDER", "ollama"),
		OllamaURL:         env.str("OLLAMA_URL", "http://localhost:11434"),
		OllamaEmbedModels: env.list("OLLAMA_EMBED_MODELS", []string{"all-minilm", "nomic-embed-text"}),
		OpenAIBaseURL:     env.str("OPENAI_BASE_URL", ""),
		OpenAIEmbedModel:  env.str("OPENAI_EMBED_MODEL", "text-embedding-3-small"),
		OpenAIAPIKey:      env.str("OPENAI_API_KEY", ""),
		EmbedBatchSize:    env.integer("EMBED_BATCH_SIZE", 32),
		EmbedConcurrency:  env.integer("EMBED_CONCURRENCY", 2),

		EmbedRetryMaxAttempts: env.integer("EMBED_RETRY_MAX_ATTEMPTS", 3),
		EmbedRetryBackoff:     env.duration("EMBED_RETRY_BACKOFF", 250*time.Millisecond),
		EmbedBreakerEnabled:   env.boolean("EMBED_BREAKER_ENABLED", true),

		DedupKey:          env.str("DEDUP_KEY", "title"),
		DefaultTopK:       env.integer("DEFAULT_TOP_K", 10),
		MaxTopK:           env.integer("MAX_TOP_K", 50),
		RetrievalTimeout:  env.duration("RETRIEVAL_TIMEOUT", 5*time.Second),
		IndexBuildTimeout: env.duration("INDEX_BUILD_TIMEOUT", 10*time.Minute),

		NATSURL:           env.str("NATS_URL", ""),
		NATSReloadSubject: env.str("NATS_RELOAD_SUBJECT", "hybridsearch.index.reload"),

		APIRateLimitRPS:     env.float("API_RATE_LIMIT_RPS", 20),
		APIRateLimitBurst:   env.integer("API_RATE_LIMIT_BURST", 40),
		APIMaxInFlight:      env.integer("API_MAX_IN_FLIGHT", 32),
		APIBackpressureWait: env.duration("API_BACKPRESSURE_WAIT", 250*time.Millisecond),
	}
}

type lookup struct {
	file map[string]string
}

func newLookup(path string) lookup {
	l := lookup{file: map[string]string{}}
	if path == "" {
		return l
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		slog.Warn("config_file_unreadable", "path", path, "error", err)
		return l
	}
	var values map[string]any
	if err := yaml.Unmarshal(raw, &values); err != nil {
		slog.Warn("config_file_invalid", "path", path, "error", err)
		return l
	}
	for key, value := range values {
		switch v := value.(type) {
		case nil:
		case []any:
			parts := make([]string, 0, len(v))
			for _, item := range v {
				parts = append(parts, strings.TrimSpace(toString(item)))
			}
			l.file[strings.ToUpper(key)] = strings.Join(parts, ",")
		default:
			l.file[strings.ToUpper(key)] = toString(v)
		}
	}
	return l
}

func toString(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case bool:
		return strconv.FormatBool(t)
	case int:
		return strconv.Itoa(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	default:
		out, err := yaml.Marshal(t)
		if err != nil {
			return ""
		}
		return strings.TrimSpace(string(out))
	}
}

func (l lookup) raw(key string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return l.file[key]
}

func (l lookup) str(key, fallback string) string {
	return mustEnv(l.raw(key), fallback)
}

func (l lookup) integer(key string, fallback int) int {
	return mustEnvInt(l.raw(key), fallback)
}

func (l lookup) float(key string, fallback float64) float64 {
	return mustEnvFloat(l.raw(key), fallback)
}

func (l lookup) boolean(key string, fallback bool) bool {
	return mustEnvBool(l.raw(key), fallback)
}

func (l lookup) duration(key string, fallback time.Duration) time.Duration {
	return mustEnvDuration(l.raw(key), fallback)
}

func (l lookup) list(key string, fallback []string) []string {
	v := l.raw(key)
	if v == "" {
		return fallback
	}
	out := make([]string, 0, 4)
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return fallback
	}
	return out
}

func mustEnv(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}

func mustEnvInt(v string, fallback int) int {
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func mustEnvFloat(v string, fallback float64) float64 {
	if v == "" {
		return fallback
	}
	n, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fallback
	}
	return n
}

func mustEnvBool(v string, fallback bool) bool {
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}

// mustEnvDuration accepts Go durations ("750ms") and bare seconds ("30").
func mustEnvDuration(v string, fallback time.Duration) time.Duration {
	if v == "" {
		return fallback
	}
	if d, err := time.ParseDuration(v); err == nil {
		return d
	}
	if secs, err := strconv.ParseFloat(v, 64); err == nil && secs >= 0 {
		return time.Duration(secs * float64(time.Second))
	}
	return fallback
}
