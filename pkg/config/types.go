package config

import "time"

// Config is the umbrella configuration object produced by Initialize and
// threaded explicitly through every component at startup — there are no
// package-level config globals.
type Config struct {
	configDir string

	StoragePath string        `yaml:"storage_path"`
	HTTPAddr    string        `yaml:"http_addr"`
	FrontendURL string        `yaml:"frontend_url"`
	Demo        *DemoConfig   `yaml:"demo"`
	Tuning      *TuningConfig `yaml:"tuning"`
	Adapters    *Adapters     `yaml:"adapters"`
}

// ConfigDir returns the directory the configuration was loaded from.
func (c *Config) ConfigDir() string { return c.configDir }

// DemoConfig toggles the deterministic-fallback and background-deepening
// behaviors described in spec §4.E.
type DemoConfig struct {
	FallbackEnabled     bool `yaml:"fallback_enabled"`
	BackgroundDeepening bool `yaml:"background_deepening"`
}

// TuningConfig carries the Cluster Coordinator's MAPE-K constants (§4.G) and
// the Knowledge Store's pattern-similarity thresholds (§9 open question),
// all overridable from forge.yaml but defaulting to the spec's values.
type TuningConfig struct {
	MaxServicesPerAgent  int `yaml:"max_services_per_agent"`
	QueueHighWatermark   int `yaml:"queue_high_watermark"`
	QueueLowWatermark    int `yaml:"queue_low_watermark"`
	MaxReplicas          int `yaml:"max_replicas"`
	MinReplicas          int `yaml:"min_replicas"`
	ScaleCooldownSeconds int `yaml:"scale_cooldown_seconds"`

	PatternSimilarityJaccard  float64 `yaml:"pattern_similarity_jaccard"`
	PatternSimilarityPrefixLen int    `yaml:"pattern_similarity_prefix_len"`

	LLMBackgroundTimeoutSeconds int `yaml:"llm_background_timeout_seconds"`
}

// ScaleCooldown returns the cooldown as a time.Duration for direct use in
// the coordinator's tick comparisons.
func (t *TuningConfig) ScaleCooldown() time.Duration {
	return time.Duration(t.ScaleCooldownSeconds) * time.Second
}

// LLMBackgroundTimeout returns the background-deepening hard cap (§4.E).
func (t *TuningConfig) LLMBackgroundTimeout() time.Duration {
	return time.Duration(t.LLMBackgroundTimeoutSeconds) * time.Second
}

// Adapters groups the external collaborator endpoints/credentials (§6 env vars).
type Adapters struct {
	Graph       *GraphAdapterConfig       `yaml:"graph"`
	Metrics     *MetricsAdapterConfig     `yaml:"metrics"`
	Remediation *RemediationAdapterConfig `yaml:"remediation"`
	Validation  *ValidationAdapterConfig  `yaml:"validation"`
	LLM         *LLMAdapterConfig         `yaml:"llm"`
}

// GraphAdapterConfig configures the service-topology graph client.
type GraphAdapterConfig struct {
	Endpoint string `yaml:"endpoint"`
	TokenEnv string `yaml:"token_env"`
}

// MetricsAdapterConfig configures the observability/metrics client.
type MetricsAdapterConfig struct {
	Endpoint        string `yaml:"endpoint"`
	APIKeyEnv       string `yaml:"api_key_env"`
	AppKeyEnv       string `yaml:"app_key_env"`
}

// RemediationAdapterConfig configures the AWS ECS/SSM remediation client.
type RemediationAdapterConfig struct {
	Region         string `yaml:"region"`
	DefaultCluster string `yaml:"default_cluster"`
}

// ValidationAdapterConfig configures the network-probe validation client.
type ValidationAdapterConfig struct {
	Endpoint           string `yaml:"endpoint"`
	ProbeTimeoutSeconds int   `yaml:"probe_timeout_seconds"`
}

// LLMAdapterConfig configures the primary (foreground) and secondary
// (background-deepening) LLM providers.
type LLMAdapterConfig struct {
	Provider         string `yaml:"provider"`
	Model            string `yaml:"model"`
	APIKeyEnv        string `yaml:"api_key_env"`
	BackgroundModel  string `yaml:"background_model"`
}

// ProbeTimeout returns the validation probe timeout as a time.Duration.
func (v *ValidationAdapterConfig) ProbeTimeout() time.Duration {
	return time.Duration(v.ProbeTimeoutSeconds) * time.Second
}
