package model

import "time"

// ----------------------------------------------------
// ================ Config ================

// LogConfig controls the global zerolog logger
type LogConfig struct {
	Level      string `envconfig:"LOG_LEVEL" default:"info"`
	Format     string `envconfig:"LOG_FORMAT" default:"console"` // console | json
	Output     string `envconfig:"LOG_OUTPUT" default:"stdout"`  // stdout | stderr | file
	FilePath   string `envconfig:"LOG_FILE_PATH" default:"logs/analyst.log"`
	TimeFormat string `envconfig:"LOG_TIME_FORMAT" default:"rfc3339"`
}

// LLMConfig selects the chat model behind the text generator
type LLMConfig struct {
	Provider    string  `envconfig:"LLM_PROVIDER" default:"openai"` // openai | ollama | deepseek | ark
	Model       string  `envconfig:"LLM_MODEL" default:"gpt-4o-mini"`
	APIKey      string  `envconfig:"LLM_API_KEY"`
	BaseURL     string  `envconfig:"LLM_BASE_URL"`
	MaxTokens   int     `envconfig:"LLM_MAX_TOKENS" default:"2048"`
	Temperature float64 `envconfig:"LLM_TEMPERATURE" default:"0.1"`
	PromptsFile string  `envconfig:"PROMPTS_FILE"`
}

// WorkflowConfig bounds the plan/code/execute/repair loop
type WorkflowConfig struct {
	RetryLimit   int `envconfig:"RETRY_LIMIT" default:"3"`
	HistoryTurns int `envconfig:"HISTORY_TURNS" default:"6"`

	// per message token budget for planner history, 0 disables truncation
	HistoryTokens int `envconfig:"HISTORY_TOKENS" default:"512"`
}

// ExecutorConfig configures the code execution engine
type ExecutorConfig struct {
	UploadDir string        `envconfig:"UPLOAD_DIR" default:"uploads"`
	Timeout   time.Duration `envconfig:"EXEC_TIMEOUT" default:"0s"`
}

// StorageConfig selects the session store backend
type StorageConfig struct {
	Backend    string        `envconfig:"STORAGE_BACKEND" default:"memory"` // memory | redis
	RedisURL   string        `envconfig:"REDIS_URL"`
	SessionTTL time.Duration `envconfig:"SESSION_TTL" default:"60m"`
}

// MetricsConfig exposes Prometheus metrics when Addr is set
type MetricsConfig struct {
	Addr string `envconfig:"METRICS_ADDR"`
}
