package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/dd0wney/cluso-contingency/pkg/centrality"
)

// EnvPrefix is the prefix of environment variables that override settings,
// e.g. CONTINGENCY_NUM_PROCESSORS or CONTINGENCY_LABELING_STRATEGY.
const EnvPrefix = "CONTINGENCY"

// Input formats
const (
	FormatEdgelist = "edgelist"
	FormatGraph6   = "graph6"
)

// LabelingConfig selects how criticality scores are turned into classes.
type LabelingConfig struct {
	Strategy string  `mapstructure:"strategy" validate:"omitempty,oneof=threshold quantile"`
	Value    float64 `mapstructure:"value" validate:"gte=0,lte=1"`
}

// Config holds all runtime configuration for a screening run.
// Values are populated from .contingency.yaml, CONTINGENCY_* env vars, and CLI flags.
type Config struct {
	Input            string         `mapstructure:"input"`
	Format           string         `mapstructure:"format" validate:"oneof=edgelist graph6"`
	Delimiter        string         `mapstructure:"delimiter"`
	Orders           []int          `mapstructure:"orders" validate:"required,min=1,dive,gte=1"`
	NumProcessors    int            `mapstructure:"num_processors" validate:"gte=1"`
	TaskTimeout      time.Duration  `mapstructure:"task_timeout" validate:"gt=0"`
	Metric           string         `mapstructure:"metric" validate:"required,metric"`
	MaxContingencies uint64         `mapstructure:"max_contingencies"`
	OutputDir        string         `mapstructure:"output_dir" validate:"required"`
	Normalize        bool           `mapstructure:"normalize"`
	TopEdges         int            `mapstructure:"top_edges" validate:"gte=0"`
	CheckpointDir    string         `mapstructure:"checkpoint_dir"`
	LogLevel         string         `mapstructure:"log_level" validate:"loglevel"`
	MetricsAddr      string         `mapstructure:"metrics_addr" validate:"omitempty,hostname_port"`
	Labeling         LabelingConfig `mapstructure:"labeling"`
}

// ErrNoInput is returned by RequireInput when no network file is configured.
var ErrNoInput = errors.New("input: no network file configured")

// SetDefaults registers built-in defaults on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("input", "")
	v.SetDefault("format", FormatEdgelist)
	v.SetDefault("delimiter", "")
	v.SetDefault("orders", []int{1})
	v.SetDefault("num_processors", 1)
	v.SetDefault("task_timeout", 30*time.Second)
	v.SetDefault("metric", centrality.CurrentFlowBetweennessName)
	v.SetDefault("max_contingencies", uint64(0))
	v.SetDefault("output_dir", ".")
	v.SetDefault("normalize", false)
	v.SetDefault("top_edges", 10)
	v.SetDefault("checkpoint_dir", "")
	v.SetDefault("log_level", "INFO")
	v.SetDefault("metrics_addr", "")
	v.SetDefault("labeling.strategy", "")
	v.SetDefault("labeling.value", 0.1)
}

// Init points v at the config file and environment. With an empty cfgFile it
// looks for .contingency.yaml in the working directory and then the home
// directory; a missing file is not an error.
func Init(v *viper.Viper, cfgFile string) error {
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName(".contingency")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(home)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) && cfgFile == "" {
			return nil
		}
		return fmt.Errorf("read config: %w", err)
	}
	return nil
}

// Load reads configuration from v, applying built-in defaults for any values
// not set by config file, environment, or flags, and validates the result.
func Load(v *viper.Viper) (*Config, error) {
	if v == nil {
		v = viper.GetViper()
	}
	SetDefaults(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// RequireInput reports ErrNoInput when Input is empty.
func (c *Config) RequireInput() error {
	if strings.TrimSpace(c.Input) == "" {
		return ErrNoInput
	}
	return nil
}

// ConfigFileUsed returns the file v read, or "" when running on defaults.
func ConfigFileUsed(v *viper.Viper) string {
	return v.ConfigFileUsed()
}
