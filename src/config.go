package src

import (
	"eino_data_analyst/src/model"
	"fmt"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// EnvPrefix namespaces every environment variable, e.g. ANALYST_LLM_MODEL
const EnvPrefix = "ANALYST"

// Config embeds every section so variables read as ANALYST_<NAME>; the bare
// <NAME> is accepted as a fallback.
type Config struct {
	model.LogConfig
	model.LLMConfig
	model.WorkflowConfig
	model.ExecutorConfig
	model.StorageConfig
	model.MetricsConfig
}

// LoadConfig reads an optional .env file and then the process environment
func LoadConfig(envFiles ...string) (*Config, error) {
	// A missing .env is fine; the environment may already be populated.
	_ = godotenv.Load(envFiles...)

	var config Config
	err := envconfig.Process(EnvPrefix, &config)
	if err != nil {
		return nil, fmt.Errorf("error processing environment configuration: %w", err)
	}

	if config.WorkflowConfig.RetryLimit < 0 {
		return nil, fmt.Errorf("retry limit must not be negative, got %d", config.WorkflowConfig.RetryLimit)
	}

	return &config, nil
}
