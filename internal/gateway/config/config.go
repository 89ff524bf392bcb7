package config

import (
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	defaultMaxUploadBytes  int64 = 10 << 20
	defaultDraftMemorySize       = 256
	defaultDraftMemoryTTL        = 24 * time.Hour
)

type Config struct {
	Port           string
	Env            string
	LLM            LLMConfig
	Draft          DraftConfig
	MaxUploadBytes int64
}

type LLMConfig struct {
	Provider string
	APIKey   string
	Model    string
	BaseURL  string
	RPS      float64
	Burst    int
}

// DraftConfig selects the S3 draft store. Enabled is false when no endpoint
// is configured, in which case drafts stay in a bounded in-memory cache.
type DraftConfig struct {
	MemorySize int
	MemoryTTL  time.Duration

	Enabled   bool
	Endpoint  string
	Region    string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

// Load reads .env (when present), flags and the environment.
func Load() (*Config, error) {
	_ = godotenv.Load()

	port := flag.String("port", ":8081", "server port")
	flag.Parse()
	return FromEnv(*port)
}

// FromEnv builds the config from environment variables only. port is the
// default listen address, replaced by PORT when set.
func FromEnv(port string) (*Config, error) {
	if envPort := strings.TrimSpace(os.Getenv("PORT")); envPort != "" {
		if strings.HasPrefix(envPort, ":") {
			port = envPort
		} else {
			port = ":" + envPort
		}
	}

	env := strings.TrimSpace(os.Getenv("APP_ENV"))
	if env == "" {
		env = "local"
	}

	llmCfg, err := loadLLMConfig()
	if err != nil {
		return nil, err
	}

	maxUpload := defaultMaxUploadBytes
	if raw := strings.TrimSpace(os.Getenv("MAX_UPLOAD_BYTES")); raw != "" {
		v, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || v <= 0 {
			return nil, fmt.Errorf("invalid MAX_UPLOAD_BYTES %q", raw)
		}
		maxUpload = v
	}

	draftCfg, err := loadDraftConfig()
	if err != nil {
		return nil, err
	}

	return &Config{
		Port:           port,
		Env:            env,
		LLM:            llmCfg,
		Draft:          draftCfg,
		MaxUploadBytes: maxUpload,
	}, nil
}

func loadLLMConfig() (LLMConfig, error) {
	provider := strings.ToLower(firstNonEmpty(strings.TrimSpace(os.Getenv("LLM_PROVIDER")), "groq"))
	cfg := LLMConfig{Provider: provider}
	switch provider {
	case "groq":
		cfg.APIKey = strings.TrimSpace(os.Getenv("GROQ_API_KEY"))
		cfg.Model = strings.TrimSpace(os.Getenv("GROQ_MODEL"))
		cfg.BaseURL = strings.TrimSpace(os.Getenv("GROQ_BASE_URL"))
	case "gemini":
		cfg.APIKey = strings.TrimSpace(os.Getenv("GEMINI_API_KEY"))
		cfg.Model = strings.TrimSpace(os.Getenv("GEMINI_MODEL"))
		cfg.BaseURL = strings.TrimSpace(os.Getenv("GEMINI_BASE_URL"))
	case "openai":
		cfg.APIKey = strings.TrimSpace(os.Getenv("OPENAI_API_KEY"))
		cfg.Model = strings.TrimSpace(os.Getenv("OPENAI_MODEL"))
		cfg.BaseURL = strings.TrimSpace(os.Getenv("OPENAI_BASE_URL"))
	}

	if raw := strings.TrimSpace(os.Getenv("LLM_RPS")); raw != "" {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil || v < 0 {
			return LLMConfig{}, fmt.Errorf("invalid LLM_RPS %q", raw)
		}
		cfg.RPS = v
		cfg.Burst = 1
	}
	if raw := strings.TrimSpace(os.Getenv("LLM_BURST")); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v < 1 {
			return LLMConfig{}, fmt.Errorf("invalid LLM_BURST %q", raw)
		}
		cfg.Burst = v
	}
	return cfg, nil
}

func loadDraftConfig() (DraftConfig, error) {
	size := defaultDraftMemorySize
	if raw := strings.TrimSpace(os.Getenv("DRAFT_MEMORY_SIZE")); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v < 1 {
			return DraftConfig{}, fmt.Errorf("invalid DRAFT_MEMORY_SIZE %q", raw)
		}
		size = v
	}
	ttl := defaultDraftMemoryTTL
	if raw := strings.TrimSpace(os.Getenv("DRAFT_MEMORY_TTL")); raw != "" {
		v, err := time.ParseDuration(raw)
		if err != nil || v <= 0 {
			return DraftConfig{}, fmt.Errorf("invalid DRAFT_MEMORY_TTL %q", raw)
		}
		ttl = v
	}

	endpoint := strings.TrimSpace(os.Getenv("DRAFT_S3_ENDPOINT"))
	return DraftConfig{
		MemorySize: size,
		MemoryTTL:  ttl,
		Enabled:   endpoint != "",
		Endpoint:  endpoint,
		Region:    firstNonEmpty(strings.TrimSpace(os.Getenv("DRAFT_S3_REGION")), "us-east-1"),
		AccessKey: firstNonEmpty(strings.TrimSpace(os.Getenv("DRAFT_S3_ACCESS_KEY")), strings.TrimSpace(os.Getenv("MINIO_ROOT_USER"))),
		SecretKey: firstNonEmpty(strings.TrimSpace(os.Getenv("DRAFT_S3_SECRET_KEY")), strings.TrimSpace(os.Getenv("MINIO_ROOT_PASSWORD"))),
		Bucket:    firstNonEmpty(strings.TrimSpace(os.Getenv("DRAFT_S3_BUCKET")), "patentai-drafts"),
		UseSSL:    parseBoolDefault(os.Getenv("DRAFT_S3_USE_SSL"), true),
	}, nil
}

func parseBoolDefault(raw string, def bool) bool {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return def
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return def
	}
	return v
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
