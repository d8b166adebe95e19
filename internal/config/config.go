package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	DefaultConfigDir   = ".promptshield"
	DefaultConfigName  = "promptshield"
	DefaultLogDir      = ".claude/logs"
	DefaultAuditFile   = "security-audit.json"
	DefaultFilterLog   = "security-filter.log"
	DefaultExperiments = ".claude/experiments"
	DefaultServerAddr  = "127.0.0.1:8087"
	EnvPrefix          = "PROMPTSHIELD"
)

type Config struct {
	Log         LogConfig         `mapstructure:"log"`
	Audit       AuditConfig       `mapstructure:"audit"`
	Packs       PacksConfig       `mapstructure:"packs"`
	Experiments ExperimentsConfig `mapstructure:"experiments"`
	Server      ServerConfig      `mapstructure:"server"`
	// Bypass makes every hook allow without classifying.
	Bypass bool `mapstructure:"bypass"`

	// ConfigFile is the file that was read, empty when running on defaults.
	ConfigFile string `mapstructure:"-"`
}

type LogConfig struct {
	Dir   string `mapstructure:"dir"`
	Level string `mapstructure:"level"`
	File  string `mapstructure:"file"`
}

type AuditConfig struct {
	File     string      `mapstructure:"file"`
	MaxBytes int64       `mapstructure:"max_bytes"`
	Redis    RedisConfig `mapstructure:"redis"`
}

type RedisConfig struct {
	Addr     string        `mapstructure:"addr"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	Stream   string        `mapstructure:"stream"`
	MaxLen   int64         `mapstructure:"max_len"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

type PacksConfig struct {
	Dir string `mapstructure:"dir"`
}

type ExperimentsConfig struct {
	Dir string `mapstructure:"dir"`
}

type ServerConfig struct {
	Addr string `mapstructure:"addr"`
}

// AuditPath is the audit log file, defaulting to the log directory.
func (c *Config) AuditPath() string {
	if c.Audit.File != "" {
		return c.Audit.File
	}
	return filepath.Join(c.Log.Dir, DefaultAuditFile)
}

// FilterLogPath is the diagnostic log file, defaulting to the log directory.
func (c *Config) FilterLogPath() string {
	if c.Log.File != "" {
		return c.Log.File
	}
	return filepath.Join(c.Log.Dir, DefaultFilterLog)
}

// Load reads configuration from an optional YAML file, a .env file in the
// working directory and PROMPTSHIELD_* environment variables, in increasing
// order of precedence. When configFile is empty, promptshield.yaml is looked
// up in ./.claude and ~/.promptshield; not finding it is not an error.
func Load(configFile string) (*Config, error) {
	// A missing .env is the normal case.
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)

	v.SetConfigType("yaml")
	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName(DefaultConfigName)
		v.AddConfigPath(".claude")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, DefaultConfigDir))
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}
	cfg.ConfigFile = v.ConfigFileUsed()

	return &cfg, nil
}

// Default returns the built-in configuration without reading any file or
// environment variable. Hooks fall back to it when Load fails so the
// invocation is still audited.
func Default() *Config {
	v := viper.New()
	setDefaults(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		// Defaults are static; decoding them cannot fail.
		panic(err)
	}
	return &cfg
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("log.dir", DefaultLogDir)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.file", "")
	v.SetDefault("audit.file", "")
	v.SetDefault("audit.max_bytes", int64(10<<20))
	v.SetDefault("audit.redis.addr", "")
	v.SetDefault("audit.redis.password", "")
	v.SetDefault("audit.redis.db", 0)
	v.SetDefault("audit.redis.stream", "promptshield:audit")
	v.SetDefault("audit.redis.max_len", int64(10000))
	v.SetDefault("audit.redis.timeout", 2*time.Second)
	v.SetDefault("packs.dir", defaultPacksDir())
	v.SetDefault("experiments.dir", DefaultExperiments)
	v.SetDefault("server.addr", DefaultServerAddr)
	v.SetDefault("bypass", false)
}

func defaultPacksDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(DefaultConfigDir, "packs")
	}
	return filepath.Join(home, DefaultConfigDir, "packs")
}
