package config

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/cloudwego/eino-ext/components/model/ark"
	"github.com/cloudwego/eino/components/model"
)

// Analysis provider identifiers.
const (
	ProviderOllama = "ollama"
	ProviderArk    = "ark"
)

// Config aggregates all service configuration.
type Config struct {
	Server   ServerConfig
	Analysis AnalysisConfig
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	server, err := loadServerConfig()
	if err != nil {
		return nil, err
	}

	analysis, err := loadAnalysisConfig()
	if err != nil {
		return nil, err
	}

	return &Config{Server: server, Analysis: analysis}, nil
}

// ServerConfig describes the HTTP listener.
type ServerConfig struct {
	Addr string
}

func loadServerConfig() (ServerConfig, error) {
	port := strings.TrimSpace(os.Getenv("PORT"))
	if port == "" {
		port = "8000"
	}

	if strings.Contains(port, ":") {
		// Allow passing ":8000" or "127.0.0.1:8000" directly.
		return ServerConfig{Addr: port}, nil
	}

	if strings.Contains(port, " ") {
		return ServerConfig{}, fmt.Errorf("invalid PORT value: %q", port)
	}

	return ServerConfig{Addr: ":" + port}, nil
}

// AnalysisConfig describes the sentiment analysis model and thresholds.
type AnalysisConfig struct {
	Provider    string
	Model       string
	BaseURL     string
	APIKey      string
	AccessKey   string
	SecretKey   string
	Region      string
	Temperature *float64
	MaxTokens   *int
	Threshold   float64
	Timeout     time.Duration
}

// Enabled reports whether enough configuration is present to reach a model.
func (c AnalysisConfig) Enabled() bool {
	switch c.Provider {
	case ProviderOllama:
		return c.Model != ""
	case ProviderArk:
		return c.Model != "" && (c.APIKey != "" || (c.AccessKey != "" && c.SecretKey != ""))
	default:
		return false
	}
}

// NewChatModel builds an Ark chat model instance from the configuration.
func (c AnalysisConfig) NewChatModel(ctx context.Context) (model.ChatModel, error) {
	if c.Provider != ProviderArk || !c.Enabled() {
		return nil, fmt.Errorf("ark credentials or model missing; provide ARK_API_KEY + ANALYSIS_MODEL or the AK/SK pair")
	}

	var temperature *float32
	if c.Temperature != nil {
		val := float32(*c.Temperature)
		temperature = &val
	}

	cfg := &ark.ChatModelConfig{
		BaseURL:     c.BaseURL,
		Region:      c.Region,
		APIKey:      c.APIKey,
		AccessKey:   c.AccessKey,
		SecretKey:   c.SecretKey,
		Model:       c.Model,
		MaxTokens:   c.MaxTokens,
		Temperature: temperature,
	}

	return ark.NewChatModel(ctx, cfg)
}

func loadAnalysisConfig() (AnalysisConfig, error) {
	provider := strings.ToLower(getEnvOrDefault("ANALYSIS_PROVIDER", ProviderOllama))
	if provider != ProviderOllama && provider != ProviderArk {
		return AnalysisConfig{}, fmt.Errorf("invalid ANALYSIS_PROVIDER value %q", provider)
	}

	temperature, err := parseOptionalFloatEnv("ANALYSIS_TEMPERATURE")
	if err != nil {
		return AnalysisConfig{}, err
	}

	maxTokens, err := parseOptionalIntEnv("ANALYSIS_MAX_TOKENS")
	if err != nil {
		return AnalysisConfig{}, err
	}

	threshold := -0.2
	if override, err := parseOptionalFloatEnv("SENTIMENT_THRESHOLD"); err != nil {
		return AnalysisConfig{}, err
	} else if override != nil {
		threshold = *override
	}

	timeoutSeconds := 30
	if override, err := parseOptionalIntEnv("ANALYSIS_TIMEOUT"); err != nil {
		return AnalysisConfig{}, err
	} else if override != nil {
		if *override < 1 {
			return AnalysisConfig{}, fmt.Errorf("ANALYSIS_TIMEOUT must be at least 1 second, got %d", *override)
		}
		timeoutSeconds = *override
	}

	baseURL := getEnvOrDefault("OLLAMA_BASE_URL", "http://localhost:11434")
	if provider == ProviderArk {
		baseURL = getEnvOrDefault("ARK_BASE_URL", "https://ark.cn-beijing.volces.com/api/v3")
	}

	return AnalysisConfig{
		Provider:    provider,
		Model:       getEnvOrDefault("ANALYSIS_MODEL", "llama2"),
		BaseURL:     baseURL,
		APIKey:      strings.TrimSpace(os.Getenv("ARK_API_KEY")),
		AccessKey:   strings.TrimSpace(os.Getenv("ARK_ACCESS_KEY")),
		SecretKey:   strings.TrimSpace(os.Getenv("ARK_SECRET_KEY")),
		Region:      getEnvOrDefault("ARK_REGION", "cn-beijing"),
		Temperature: temperature,
		MaxTokens:   maxTokens,
		Threshold:   threshold,
		Timeout:     time.Duration(timeoutSeconds) * time.Second,
	}, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func parseOptionalFloatEnv(key string) (*float64, error) {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return nil, nil
	}

	value := strings.TrimSpace(raw)
	if value == "" {
		return nil, nil
	}

	val, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid %s value %q: %w", key, value, err)
	}
	return &val, nil
}

func parseOptionalIntEnv(key string) (*int, error) {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return nil, nil
	}

	value := strings.TrimSpace(raw)
	if value == "" {
		return nil, nil
	}

	val, err := strconv.Atoi(value)
	if err != nil {
		return nil, fmt.Errorf("invalid %s value %q: %w", key, value, err)
	}
	return &val, nil
}
