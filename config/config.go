// Package config loads service settings from the environment, an optional
// .env file and an optional YAML overlay file.
//
// Precedence, lowest first: built-in defaults, the YAML file named by
// LEXSAKSHAM_CONFIG, then environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// FileEnv names the environment variable holding the YAML overlay path
const FileEnv = "LEXSAKSHAM_CONFIG"

// Config is the complete service configuration
type Config struct {
	Server      ServerConfig      `yaml:"server"`
	Database    DatabaseConfig    `yaml:"database"`
	ModelServer ModelServerConfig `yaml:"model_server"`
	Gemini      GeminiConfig      `yaml:"gemini"`
	OpenRouter  OpenRouterConfig  `yaml:"openrouter"`
	Redis       RedisConfig       `yaml:"redis"`
	Analysis    AnalysisConfig    `yaml:"analysis"`
	Storage     StorageConfig     `yaml:"storage"`
	Telemetry   TelemetryConfig   `yaml:"telemetry"`
	Auth        AuthConfig        `yaml:"auth"`
}

// ServerConfig holds HTTP listener settings
type ServerConfig struct {
	Port            string        `yaml:"port" validate:"required,numeric"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" validate:"gt=0"`
	GinMode         string        `yaml:"gin_mode" validate:"omitempty,oneof=debug release test"`
}

// DatabaseConfig holds the Postgres connection. An empty URL disables the
// judgment index, document records and the Postgres analysis log.
type DatabaseConfig struct {
	URL string `yaml:"url"`
}

// ModelServerConfig points at the classifier and summarizer HTTP server
type ModelServerConfig struct {
	URL         string        `yaml:"url" validate:"omitempty,url"`
	Temperature float64       `yaml:"temperature" validate:"gt=0"`
	Timeout     time.Duration `yaml:"timeout" validate:"gt=0"`
}

// GeminiConfig holds the genai settings used for translation, summaries and embeddings
type GeminiConfig struct {
	APIKey         string `yaml:"api_key"`
	TextModel      string `yaml:"text_model" validate:"required"`
	EmbeddingModel string `yaml:"embedding_model" validate:"required"`
}

// OpenRouterConfig holds the refinement LLM settings.
// An empty API key disables refinement.
type OpenRouterConfig struct {
	APIKey  string        `yaml:"api_key"`
	BaseURL string        `yaml:"base_url" validate:"required,url"`
	Model   string        `yaml:"model" validate:"required"`
	Timeout time.Duration `yaml:"timeout" validate:"gt=0"`
}

// RedisConfig holds the translation and summary cache. An empty address disables caching.
type RedisConfig struct {
	Addr     string        `yaml:"addr"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db" validate:"gte=0"`
	TTL      time.Duration `yaml:"ttl" validate:"gte=0"`
}

// AnalysisConfig tunes the clause pipeline
type AnalysisConfig struct {
	RulesPath         string `yaml:"rules_path"`
	Concurrency       int    `yaml:"concurrency" validate:"min=1,max=64"`
	SummarizerBackend string `yaml:"summarizer_backend" validate:"oneof=modelserver gemini none"`
	ExplainSamples    int    `yaml:"explain_samples" validate:"min=2"`
	ExplainFeatures   int    `yaml:"explain_features" validate:"min=1"`
	LogPath           string `yaml:"log_path"`
	LogSink           string `yaml:"log_sink" validate:"oneof=file postgres none"`
}

// StorageConfig selects where uploaded contracts are kept
type StorageConfig struct {
	Backend      string `yaml:"backend" validate:"oneof=local s3"`
	LocalPath    string `yaml:"local_path"`
	S3Bucket     string `yaml:"s3_bucket" validate:"required_if=Backend s3"`
	S3Region     string `yaml:"s3_region"`
	S3Prefix     string `yaml:"s3_prefix"`
	S3Endpoint   string `yaml:"s3_endpoint" validate:"omitempty,url"`
	AWSAccessKey string `yaml:"aws_access_key"`
	AWSSecretKey string `yaml:"aws_secret_key"`
}

// TelemetryConfig holds logging and tracing settings
type TelemetryConfig struct {
	ServiceName  string `yaml:"service_name" validate:"required"`
	OTLPEndpoint string `yaml:"otlp_endpoint"`
	LogFormat    string `yaml:"log_format" validate:"oneof=json text"`
	LogLevel     string `yaml:"log_level" validate:"oneof=debug info warn error"`
}

// AuthConfig enables API key checks on the analysis routes
type AuthConfig struct {
	Enabled bool `yaml:"enabled"`
	// KeyHashes are bcrypt hashes accepted in addition to the api_keys table
	KeyHashes []string `yaml:"key_hashes"`
}

// Default returns the built-in configuration
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            "8080",
			ShutdownTimeout: 15 * time.Second,
		},
		ModelServer: ModelServerConfig{
			Temperature: 1.0,
			Timeout:     60 * time.Second,
		},
		Gemini: GeminiConfig{
			TextModel:      "gemini-2.0-flash",
			EmbeddingModel: "text-embedding-004",
		},
		OpenRouter: OpenRouterConfig{
			BaseURL: "https://openrouter.ai/api/v1",
			Model:   "google/gemini-2.5-flash-lite",
			Timeout: 30 * time.Second,
		},
		Redis: RedisConfig{
			TTL: 7 * 24 * time.Hour,
		},
		Analysis: AnalysisConfig{
			RulesPath:         "rule_keywords.json",
			Concurrency:       1,
			SummarizerBackend: "modelserver",
			ExplainSamples:    20,
			ExplainFeatures:   5,
			LogPath:           "logs/predictions.jsonl",
			LogSink:           "file",
		},
		Storage: StorageConfig{
			Backend:   "local",
			LocalPath: "./storage/contracts",
			S3Region:  "ap-south-1",
		},
		Telemetry: TelemetryConfig{
			ServiceName: "lexsaksham-backend",
			LogFormat:   "json",
			LogLevel:    "info",
		},
	}
}

// Load reads .env, the YAML overlay and the environment, then validates
func Load() (*Config, error) {
	// .env is optional
	_ = godotenv.Load()

	cfg := Default()
	if path := os.Getenv(FileEnv); path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}
	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

// lookupFunc matches os.LookupEnv
type lookupFunc func(key string) (string, bool)

func (c *Config) applyEnv(lookup lookupFunc) error {
	e := envReader{lookup: lookup}

	e.str("PORT", &c.Server.Port)
	e.duration("SHUTDOWN_TIMEOUT", &c.Server.ShutdownTimeout)
	e.str("GIN_MODE", &c.Server.GinMode)

	e.str("DATABASE_URL", &c.Database.URL)

	e.str("MODEL_SERVER_URL", &c.ModelServer.URL)
	e.float("CLASSIFIER_TEMPERATURE", &c.ModelServer.Temperature)
	e.duration("MODEL_SERVER_TIMEOUT", &c.ModelServer.Timeout)

	e.str("GEMINI_API_KEY", &c.Gemini.APIKey)
	e.str("GEMINI_TEXT_MODEL", &c.Gemini.TextModel)
	e.str("GEMINI_EMBEDDING_MODEL", &c.Gemini.EmbeddingModel)

	e.str("OPENROUTER_API_KEY", &c.OpenRouter.APIKey)
	e.str("OPENROUTER_URL", &c.OpenRouter.BaseURL)
	e.str("OPENROUTER_MODEL", &c.OpenRouter.Model)
	e.duration("LLM_TIMEOUT", &c.OpenRouter.Timeout)

	e.str("REDIS_ADDR", &c.Redis.Addr)
	e.str("REDIS_PASSWORD", &c.Redis.Password)
	e.integer("REDIS_DB", &c.Redis.DB)
	e.duration("CACHE_TTL", &c.Redis.TTL)

	e.str("RISK_RULES_PATH", &c.Analysis.RulesPath)
	e.integer("ANALYSIS_CONCURRENCY", &c.Analysis.Concurrency)
	e.str("SUMMARIZER_BACKEND", &c.Analysis.SummarizerBackend)
	e.integer("EXPLAIN_SAMPLES", &c.Analysis.ExplainSamples)
	e.integer("EXPLAIN_FEATURES", &c.Analysis.ExplainFeatures)
	e.str("ANALYSIS_LOG_PATH", &c.Analysis.LogPath)
	e.str("ANALYSIS_LOG_SINK", &c.Analysis.LogSink)

	e.str("STORAGE_BACKEND", &c.Storage.Backend)
	e.str("STORAGE_LOCAL_PATH", &c.Storage.LocalPath)
	e.str("S3_BUCKET", &c.Storage.S3Bucket)
	e.str("AWS_REGION", &c.Storage.S3Region)
	e.str("S3_PREFIX", &c.Storage.S3Prefix)
	e.str("S3_ENDPOINT", &c.Storage.S3Endpoint)
	e.str("AWS_ACCESS_KEY_ID", &c.Storage.AWSAccessKey)
	e.str("AWS_SECRET_ACCESS_KEY", &c.Storage.AWSSecretKey)

	e.str("OTEL_SERVICE_NAME", &c.Telemetry.ServiceName)
	e.str("OTEL_EXPORTER_OTLP_ENDPOINT", &c.Telemetry.OTLPEndpoint)
	e.str("LOG_FORMAT", &c.Telemetry.LogFormat)
	e.str("LOG_LEVEL", &c.Telemetry.LogLevel)

	e.boolean("AUTH_ENABLED", &c.Auth.Enabled)
	e.list("API_KEY_HASHES", &c.Auth.KeyHashes)

	return errors.Join(e.errs...)
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks field constraints
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s: failed %q", fe.Namespace(), fe.Tag()))
			}
			return fmt.Errorf("invalid config: %s", strings.Join(msgs, "; "))
		}
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// envReader copies set variables into fields and collects parse errors
type envReader struct {
	lookup lookupFunc
	errs   []error
}

func (e *envReader) get(key string) (string, bool) {
	v, ok := e.lookup(key)
	if !ok {
		return "", false
	}
	v = strings.TrimSpace(v)
	return v, v != ""
}

func (e *envReader) str(key string, dst *string) {
	if v, ok := e.get(key); ok {
		*dst = v
	}
}

func (e *envReader) integer(key string, dst *int) {
	if v, ok := e.get(key); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			e.errs = append(e.errs, fmt.Errorf("%s: %w", key, err))
			return
		}
		*dst = n
	}
}

func (e *envReader) float(key string, dst *float64) {
	if v, ok := e.get(key); ok {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			e.errs = append(e.errs, fmt.Errorf("%s: %w", key, err))
			return
		}
		*dst = f
	}
}

func (e *envReader) boolean(key string, dst *bool) {
	if v, ok := e.get(key); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			e.errs = append(e.errs, fmt.Errorf("%s: %w", key, err))
			return
		}
		*dst = b
	}
}

// duration accepts Go durations ("30s") or plain seconds ("30")
func (e *envReader) duration(key string, dst *time.Duration) {
	if v, ok := e.get(key); ok {
		if secs, err := strconv.Atoi(v); err == nil {
			*dst = time.Duration(secs) * time.Second
			return
		}
		d, err := time.ParseDuration(v)
		if err != nil {
			e.errs = append(e.errs, fmt.Errorf("%s: %w", key, err))
			return
		}
		*dst = d
	}
}

func (e *envReader) list(key string, dst *[]string) {
	if v, ok := e.get(key); ok {
		var out []string
		for _, item := range strings.Split(v, ",") {
			if item = strings.TrimSpace(item); item != "" {
				out = append(out, item)
			}
		}
		*dst = out
	}
}
