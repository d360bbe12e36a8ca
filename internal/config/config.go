// internal/config/config.go

package config

import (
	"fmt"
	"os"

	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"
)

type ServiceConfig struct {
	Name      string   `yaml:"name"`
	Host      string   `yaml:"host"`
	Port      int      `yaml:"port"`
	Command   string   `yaml:"command"`
	GPULayers string   `yaml:"gpu_layers,omitempty"`
	Args      []string `yaml:"args,omitempty"`
	Model     string   `yaml:"model,omitempty"`
}

type ToolConfig struct {
	Name       string                 `yaml:"name"`
	Parameters map[string]interface{} `yaml:"parameters"`
}

type DatabaseConfig struct {
	ConnectionString string `yaml:"connection_string"`
}

type ReactAgentConfig struct {
	MaxSteps int  `yaml:"max_steps"`
	Memory   bool `yaml:"memory"`
	NumTools int  `yaml:"num_tools"`
}

type FleetWorker struct {
	Name         string  `json:"name"`
	Model        string  `json:"model,omitempty"`
	Role         string  `json:"role"`
	Endpoint     string  `json:"endpoint"`
	CtxSize      int     `json:"ctx_size"`
	Temperature  float64 `json:"temperature"`
	ApiKey       string  `json:"api_key,omitempty"`
	Instructions string  `json:"instructions"`
	MaxSteps     int     `json:"max_steps"`
	Memory       bool    `json:"memory"`
}

type AgentFleet struct {
	Workers []FleetWorker `json:"workers"`
}

type AgenticMemoryConfig struct {
	Enabled bool `yaml:"enabled"`
}

// A2AConfig defines settings for the Agent2Agent protocol.
type A2AConfig struct {
	// Role specifies the node's role in the cluster ("master" or "worker").
	Role string `yaml:"role"`
	// Token is the shared secret used for authenticating A2A requests.
	Token string `yaml:"token"`
	// Nodes lists the URLs of remote nodes participating in the cluster.
	Nodes []string `yaml:"nodes"`
}

type CompletionsConfig struct {
	DefaultHost      string           `yaml:"default_host"`
	SummaryHost      string           `yaml:"summary_host,omitempty"`
	KeywordsHost     string           `yaml:"keywords_host,omitempty"`
	Backend          string           `yaml:"backend"` // e.g., "openai", "llamacpp", "mlx"
	CompletionsModel string           `yaml:"completions_model"`
	Temperature      float64          `yaml:"temperature"`
	CtxSize          int              `yaml:"ctx_size"`
	APIKey           string           `yaml:"api_key"`
	ReactAgentConfig ReactAgentConfig `yaml:"agent"`
}

type EmbeddingsConfig struct {
	Host         string `yaml:"host"`
	APIKey       string `yaml:"api_key"`
	Dimensions   int    `yaml:"dimensions"`
	EmbedPrefix  string `yaml:"embed_prefix"`
	SearchPrefix string `yaml:"search_prefix"`
}

type RerankerConfig struct {
	Host string `yaml:"host"`
}

// RedisConfig configures the redis.UniversalClient behind the KV store
// (C5, internal/store/kv).
type RedisConfig struct {
	Enabled               bool   `yaml:"enabled"`
	Addr                  string `yaml:"addr"`
	Password              string `yaml:"password,omitempty"`
	DB                    int    `yaml:"db"`
	TLSInsecureSkipVerify bool   `yaml:"tlsInsecureSkipVerify,omitempty"`
}

// GraphConfig configures the Neo4j driver behind internal/store/graph.
type GraphConfig struct {
	URI      string `yaml:"uri"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
}

// VectorConfig configures the Qdrant client behind internal/store/vector.
type VectorConfig struct {
	DSN string `yaml:"dsn"`
}

// OpenAIConfig configures internal/llm/openai.Client.
type OpenAIConfig struct {
	APIKey         string            `yaml:"apiKey"`
	Model          string            `yaml:"model"`
	BaseURL        string            `yaml:"baseURL"`
	SummaryModel   string            `yaml:"summaryModel,omitempty"`
	SummaryBaseURL string            `yaml:"summaryBaseURL,omitempty"`
	API            string            `yaml:"api,omitempty"`
	ExtraHeaders   map[string]string `yaml:"extraHeaders,omitempty"`
	ExtraParams    map[string]any    `yaml:"extraParams,omitempty"`
	LogPayloads    bool              `yaml:"logPayloads,omitempty"`
}

// AnthropicPromptCacheConfig controls which message roles get Anthropic's
// prompt-caching breakpoints.
type AnthropicPromptCacheConfig struct {
	Enabled       bool `yaml:"enabled"`
	CacheSystem   bool `yaml:"cacheSystem"`
	CacheTools    bool `yaml:"cacheTools"`
	CacheMessages bool `yaml:"cacheMessages"`
}

// AnthropicConfig configures internal/llm/anthropic.Client.
type AnthropicConfig struct {
	APIKey      string                     `yaml:"apiKey"`
	Model       string                     `yaml:"model"`
	BaseURL     string                     `yaml:"baseURL,omitempty"`
	ExtraParams map[string]any             `yaml:"extraParams,omitempty"`
	PromptCache AnthropicPromptCacheConfig `yaml:"promptCache,omitempty"`
}

// LLMClientConfig selects and configures the backend internal/llm/providers
// builds a Provider from.
type LLMClientConfig struct {
	Provider  string          `yaml:"provider"`
	OpenAI    OpenAIConfig    `yaml:"openai"`
	Anthropic AnthropicConfig `yaml:"anthropic"`
}

// EmbeddingConfig configures the HTTP client internal/embedding and
// internal/rag/embedder use to call an OpenAI-compatible /embeddings
// endpoint. Distinct from the legacy EmbeddingsConfig (Config.Embeddings),
// which no code in this module reads.
type EmbeddingConfig struct {
	BaseURL   string            `yaml:"baseURL"`
	Model     string            `yaml:"model"`
	APIKey    string            `yaml:"apiKey"`
	APIHeader string            `yaml:"apiHeader"`
	Headers   map[string]string `yaml:"headers,omitempty"`
	Path      string            `yaml:"path"`
	Timeout   int               `yaml:"timeoutSeconds"`
}

type AuthConfig struct {
	SecretKey   string `yaml:"secret_key"`
	TokenExpiry int    `yaml:"token_expiry"` // Token expiry in hours
}

type WebSearchToolConfig struct {
	Enabled    bool   `yaml:"enabled"`
	Backend    string `yaml:"backend"`            // e.g., "serpapi", "bing"
	Endpoint   string `yaml:"endpoint,omniempty"` // API endpoint for the search service
	ResultSize int    `yaml:"result_size"`        // Number of results to fetch
}

type IngestionConfig struct {
	MaxWorkers  int  `yaml:"max_workers"`
	UseAdvanced bool `yaml:"use_advanced_splitting"`
	// ChunkSize/ChunkOverlap feed internal/rag/chunker's sliding window.
	ChunkSize    int `yaml:"chunk_size"`
	ChunkOverlap int `yaml:"chunk_overlap"`
	// PDFExportBucket, when set, enables uploading the PDF parser's
	// CSV/JSON sidecars (internal/rag/pdfparse) to S3-compatible storage.
	PDFExportBucket string `yaml:"pdf_export_bucket,omitempty"`
	PDFExportRegion string `yaml:"pdf_export_region,omitempty"`
	PDFExportPrefix string `yaml:"pdf_export_prefix,omitempty"`
}

type ToolsConfig struct {
	Search WebSearchToolConfig
}

// KafkaMetricsFeedConfig configures the optional background consumer that
// feeds system-monitoring metrics into the operations specialist
// (internal/specialists/metricsfeed). Empty Brokers disables the feed.
type KafkaMetricsFeedConfig struct {
	Brokers []string `yaml:"brokers,omitempty"`
	GroupID string   `yaml:"group_id,omitempty"`
	Topic   string   `yaml:"topic,omitempty"`
}

// ClickHouseConfig configures the generation-record sink in
// internal/observability (internal/llm.Client writes one row per call).
// An empty DSN disables the sink entirely.
type ClickHouseConfig struct {
	DSN            string `yaml:"dsn,omitempty"`
	Database       string `yaml:"database,omitempty"`
	Table          string `yaml:"table,omitempty"`
	TimeoutSeconds int    `yaml:"timeout_seconds,omitempty"`
}

// TelemetryConfig controls OpenTelemetry settings.
type TelemetryConfig struct {
	Enabled        bool   `yaml:"enabled"`
	Endpoint       string `yaml:"endpoint"`
	Insecure       bool   `yaml:"insecure"`
	ServiceName    string `yaml:"service_name"`
	ServiceVersion string `yaml:"service_version,omitempty"`
	Environment    string `yaml:"environment,omitempty"`
}

type Config struct {
	Host                      string                 `yaml:"host"`
	Port                      int                    `yaml:"port"`
	DataPath                  string                 `yaml:"data_path"`
	SingleNodeInstance        bool                   `yaml:"single_node_instance,omitempty"`
	GitHubPersonalAccessToken string                 `yaml:"github_personal_access_token"`
	AnthropicKey              string                 `yaml:"anthropic_key,omitempty"`
	OpenAIAPIKey              string                 `yaml:"openai_api_key,omitempty"`
	GoogleGeminiKey           string                 `yaml:"google_gemini_key,omitempty"`
	HuggingFaceToken          string                 `yaml:"hf_token,omitempty"`
	Database                  DatabaseConfig         `yaml:"database"`
	Completions               CompletionsConfig      `yaml:"completions"`
	Embeddings                EmbeddingsConfig       `yaml:"embeddings"`
	Embedding                 EmbeddingConfig        `yaml:"embedding"`
	Reranker                  RerankerConfig         `yaml:"reranker"`
	Redis                     RedisConfig            `yaml:"redis"`
	Graph                     GraphConfig            `yaml:"graph"`
	Vector                    VectorConfig           `yaml:"vector"`
	LLMClient                 LLMClientConfig        `yaml:"llmClient"`
	Auth                      AuthConfig             `yaml:"auth"`
	AgentFleet                AgentFleet             `yaml:"agent_fleet,omitempty"`
	AgenticMemory             AgenticMemoryConfig    `yaml:"agentic_memory"`
	A2A                       A2AConfig              `yaml:"a2a,omitempty"`
	Tools                     ToolsConfig            `yaml:"tools,omitempty"`
	OTel                      TelemetryConfig        `yaml:"otel"`
	Ingestion                 IngestionConfig        `yaml:"ingestion"`
	ClickHouse                ClickHouseConfig       `yaml:"clickhouse,omitempty"`
	KafkaMetricsFeed          KafkaMetricsFeedConfig `yaml:"kafka_metrics_feed,omitempty"`
}

// LoadConfig reads the configuration from a YAML file, unmarshals it into a Config struct,
func LoadConfig(filename string) (*Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		log.Error().Err(err).Str("file", filename).Msg("config_read_failed")
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	var config Config
	err = yaml.Unmarshal(data, &config)
	if err != nil {
		log.Error().Err(err).Msg("config_unmarshal_failed")
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	// Set default values for Auth if not provided
	if config.Auth.SecretKey == "" {
		config.Auth.SecretKey = "your-secret-key" // Default fallback (should be changed in production)
		log.Warn().Msg("no JWT secret key provided in config, using default (insecure)")
	}

	if config.Auth.TokenExpiry <= 0 {
		config.Auth.TokenExpiry = 72 // Default to 72 hours
		log.Info().Msg("no token expiry specified, using default (72 hours)")
	}

	// Set default values for Ingestion if not provided
	if config.Ingestion.MaxWorkers <= 0 {
		config.Ingestion.MaxWorkers = 4 // Default to 4 workers
		log.Info().Msg("no max_workers specified for ingestion, using default (4)")
	}

	// Default to using advanced splitting for better code structure awareness
	if !config.Ingestion.UseAdvanced {
		config.Ingestion.UseAdvanced = true
		log.Info().Msg("advanced splitting enabled by default for better code structure preservation")
	}

	if config.OTel.ServiceName == "" {
		config.OTel.ServiceName = "singularityio"
	}

	log.Info().Str("file", filename).Msg("config_loaded")
	return &config, nil
}
