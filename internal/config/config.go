package config

import (
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/alamesa/catalog-cli/internal/model"
	"github.com/alamesa/catalog-cli/pkg/vtex"
)

// Config holds the full application configuration. All pipeline tuning
// (worker counts, page size, retries, progress interval) lives here and is
// passed into constructors; nothing reads package-level knobs.
type Config struct {
	Store      StoreConfig      `yaml:"store" mapstructure:"store"`
	VTEX       vtex.Config      `yaml:"vtex" mapstructure:"vtex"`
	Accounts   []model.Account  `yaml:"accounts" mapstructure:"accounts"`
	Export     ExportConfig     `yaml:"export" mapstructure:"export"`
	Visibility VisibilityConfig `yaml:"visibility" mapstructure:"visibility"`
	Output     OutputConfig     `yaml:"output" mapstructure:"output"`
	Server     ServerConfig     `yaml:"server" mapstructure:"server"`
	Log        LogConfig        `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the task/audit database backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
}

// ExportConfig configures the catalog export pipeline.
type ExportConfig struct {
	// Workers is the phase concurrency for detail and lookup fetches; the
	// price/stock phase uses it as well.
	Workers int `yaml:"workers" mapstructure:"workers"`

	// PageSize is the discovery page size. Independent of Workers:
	// discovery is sequential.
	PageSize int `yaml:"page_size" mapstructure:"page_size"`

	// ProgressInterval is how many completions accumulate before a
	// progress write reaches the store.
	ProgressInterval int `yaml:"progress_interval" mapstructure:"progress_interval"`

	// SalesChannels is the default channel allow-list when a run does not
	// specify one.
	SalesChannels []int `yaml:"sales_channels" mapstructure:"sales_channels"`
}

// VisibilityConfig configures the visibility-check workflow.
type VisibilityConfig struct {
	Workers int `yaml:"workers" mapstructure:"workers"`
}

// OutputConfig configures where result spreadsheets land.
type OutputConfig struct {
	Dir string `yaml:"dir" mapstructure:"dir"`
}

// ServerConfig configures the status API server.
type ServerConfig struct {
	Port int `yaml:"port" mapstructure:"port"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Account finds a configured account by name.
func (c *Config) Account(name string) (*model.Account, error) {
	for i := range c.Accounts {
		if c.Accounts[i].Name == name || c.Accounts[i].AccountName == name {
			return &c.Accounts[i], nil
		}
	}
	return nil, eris.Errorf("config: account %q not configured", name)
}

// Marketplace resolves the marketplace account for a seller. A seller with
// no parent is its own marketplace.
func (c *Config) Marketplace(seller *model.Account) (*model.Account, error) {
	if seller.Marketplace == "" {
		return seller, nil
	}
	return c.Account(seller.Marketplace)
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("CATALOG")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.database_url", "catalog.db")
	v.SetDefault("vtex.domain", "vtexcommercestable.com.br")
	v.SetDefault("vtex.timeout", 30*time.Second)
	v.SetDefault("vtex.max_retries", 3)
	v.SetDefault("vtex.retry_wait", 2*time.Second)
	v.SetDefault("vtex.max_conns", 100)
	v.SetDefault("export.workers", 100)
	v.SetDefault("export.page_size", 200)
	v.SetDefault("export.progress_interval", 200)
	v.SetDefault("export.sales_channels", []int{1, 3})
	v.SetDefault("visibility.workers", 5)
	v.SetDefault("output.dir", "output")
	v.SetDefault("server.port", 8080)
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
