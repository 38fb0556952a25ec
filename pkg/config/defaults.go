package config

// defaultConfig mirrors the spec's documented constants (§4.G tuning,
// §9 similarity thresholds, §4.E background timeout) so a deployment with
// no forge.yaml at all still runs with the spec-of-record behavior.
func defaultConfig() *Config {
	return &Config{
		StoragePath: "./data/insights.json",
		HTTPAddr:    ":8080",
		FrontendURL: "http://localhost:5173",
		Demo: &DemoConfig{
			FallbackEnabled:     true,
			BackgroundDeepening: true,
		},
		Tuning: &TuningConfig{
			MaxServicesPerAgent:         5,
			QueueHighWatermark:          3,
			QueueLowWatermark:           1,
			MaxReplicas:                 6,
			MinReplicas:                 1,
			ScaleCooldownSeconds:        15,
			PatternSimilarityJaccard:    0.6,
			PatternSimilarityPrefixLen:  40,
			LLMBackgroundTimeoutSeconds: 60,
		},
		Adapters: &Adapters{
			Graph: &GraphAdapterConfig{
				Endpoint: "http://localhost:7474",
				TokenEnv: "GRAPH_TOKEN",
			},
			Metrics: &MetricsAdapterConfig{
				Endpoint:  "https://api.datadoghq.com",
				APIKeyEnv: "DATADOG_API_KEY",
				AppKeyEnv: "DATADOG_APP_KEY",
			},
			Remediation: &RemediationAdapterConfig{
				Region:         "us-east-1",
				DefaultCluster: "forge-services",
			},
			Validation: &ValidationAdapterConfig{
				Endpoint:            "http://localhost:8080",
				ProbeTimeoutSeconds: 8,
			},
			LLM: &LLMAdapterConfig{
				Provider:        "anthropic",
				Model:           "claude-sonnet-4-5",
				APIKeyEnv:       "ANTHROPIC_API_KEY",
				BackgroundModel: "claude-haiku-4-5",
			},
		},
	}
}
