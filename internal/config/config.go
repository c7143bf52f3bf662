package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	LLM      LLMConfig      `yaml:"llm" mapstructure:"llm"`
	Input    InputConfig    `yaml:"input" mapstructure:"input"`
	Analysis AnalysisConfig `yaml:"analysis" mapstructure:"analysis"`
	Output   OutputConfig   `yaml:"output" mapstructure:"output"`
	Store    StoreConfig    `yaml:"store" mapstructure:"store"`
	Log      LogConfig      `yaml:"log" mapstructure:"log"`
}

// LLMConfig selects and configures the oracle backend.
type LLMConfig struct {
	Provider  string          `yaml:"provider" mapstructure:"provider"`
	Anthropic AnthropicConfig `yaml:"anthropic" mapstructure:"anthropic"`
}

// AnthropicConfig holds Anthropic API settings.
type AnthropicConfig struct {
	Key         string  `yaml:"key" mapstructure:"key"`
	Model       string  `yaml:"model" mapstructure:"model"`
	Temperature float64 `yaml:"temperature" mapstructure:"temperature"`
	MaxTokens   int64   `yaml:"max_tokens" mapstructure:"max_tokens"`
}

// InputConfig describes the reflections source.
type InputConfig struct {
	Format        string `yaml:"format" mapstructure:"format"`
	Path          string `yaml:"path" mapstructure:"path"`
	TxtSeparator  string `yaml:"txt_separator" mapstructure:"txt_separator"`
	CSVColumn     string `yaml:"csv_column" mapstructure:"csv_column"`
	CSVIDColumn   string `yaml:"csv_id_column" mapstructure:"csv_id_column"`
	JSONTextField string `yaml:"json_text_field" mapstructure:"json_text_field"`
	JSONIDField   string `yaml:"json_id_field" mapstructure:"json_id_field"`
}

// AnalysisConfig configures the analysis passes. The theme sample size and
// per-item text limit are context-budget heuristics, not oracle-derived
// limits; they are configurable for that reason.
type AnalysisConfig struct {
	TargetThemes      int  `yaml:"target_themes" mapstructure:"target_themes"`
	MinParsedThemes   int  `yaml:"min_parsed_themes" mapstructure:"min_parsed_themes"`
	ThemeSampleSize   int  `yaml:"theme_sample_size" mapstructure:"theme_sample_size"`
	ThemeTextLimit    int  `yaml:"theme_text_limit" mapstructure:"theme_text_limit"`
	KeywordsPerItem   int  `yaml:"keywords_per_reflection" mapstructure:"keywords_per_reflection"`
	MemoSentences     int  `yaml:"memo_sentences" mapstructure:"memo_sentences"`
	AssignConcurrency int  `yaml:"assign_concurrency" mapstructure:"assign_concurrency"`
	OracleRatePerSec  int  `yaml:"oracle_rate_per_sec" mapstructure:"oracle_rate_per_sec"`
	UseContext        bool `yaml:"use_context" mapstructure:"use_context"`
	CallTimeoutSecs   int  `yaml:"call_timeout_secs" mapstructure:"call_timeout_secs"`
	RetryMaxAttempts  int  `yaml:"retry_max_attempts" mapstructure:"retry_max_attempts"`
}

// OutputConfig configures artifact locations.
type OutputConfig struct {
	BasePath   string `yaml:"base_path" mapstructure:"base_path"`
	ResultsDir string `yaml:"results_dir" mapstructure:"results_dir"`
	AuditDir   string `yaml:"audit_dir" mapstructure:"audit_dir"`
}

// StoreConfig configures run persistence.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("REFLECT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("llm.provider", "anthropic")
	v.SetDefault("llm.anthropic.model", "claude-haiku-4-5-20251001")
	v.SetDefault("llm.anthropic.temperature", 0.7)
	v.SetDefault("input.format", "txt")
	v.SetDefault("input.path", "reflections.txt")
	v.SetDefault("input.txt_separator", "\n\n---\n\n")
	v.SetDefault("input.csv_column", "reflection")
	v.SetDefault("input.json_text_field", "text")
	v.SetDefault("input.json_id_field", "id")
	v.SetDefault("analysis.target_themes", 8)
	v.SetDefault("analysis.min_parsed_themes", 3)
	v.SetDefault("analysis.theme_sample_size", 100)
	v.SetDefault("analysis.theme_text_limit", 500)
	v.SetDefault("analysis.keywords_per_reflection", 5)
	v.SetDefault("analysis.memo_sentences", 3)
	v.SetDefault("analysis.assign_concurrency", 4)
	v.SetDefault("analysis.oracle_rate_per_sec", 5)
	v.SetDefault("analysis.retry_max_attempts", 3)
	v.SetDefault("output.base_path", "output")
	v.SetDefault("output.results_dir", "results")
	v.SetDefault("output.audit_dir", "audit")
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.database_url", "reflect.db")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
