// Package config loads pagetran settings from defaults, an optional YAML
// file, a .env file and PAGETRAN_* environment variables.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const EnvPrefix = "PAGETRAN"

type Config struct {
	Server    ServerConfig          `mapstructure:"server"`
	Ollama    OllamaConfig          `mapstructure:"ollama"`
	DB        DBConfig              `mapstructure:"db"`
	Languages LanguageConfig        `mapstructure:"languages"`
	Tiers     map[string]TierConfig `mapstructure:"tiers"`
	Translate TranslateConfig       `mapstructure:"translate"`
	Proofread ProofreadConfig       `mapstructure:"proofread"`
	Log       LogConfig             `mapstructure:"log"`
}

type ServerConfig struct {
	Addr        string   `mapstructure:"addr"`
	CORSOrigins []string `mapstructure:"cors_origins"`
	// PreloadTier, when set, is made resident before the server accepts requests.
	PreloadTier string `mapstructure:"preload_tier"`
}

type OllamaConfig struct {
	URL     string        `mapstructure:"url"`
	Timeout time.Duration `mapstructure:"timeout"`
}

type DBConfig struct {
	Path string `mapstructure:"path"`
}

type LanguageConfig struct {
	Source string `mapstructure:"source"`
	Target string `mapstructure:"target"`
}

type TierConfig struct {
	Model string `mapstructure:"model"`
}

type TranslateConfig struct {
	Quality          string        `mapstructure:"quality"`
	FailurePolicy    string        `mapstructure:"failure_policy"`
	MaxChunkChars    int           `mapstructure:"max_chunk_chars"`
	ProtectMarkup    bool          `mapstructure:"protect_markup"`
	ValidateLanguage bool          `mapstructure:"validate_language"`
	Cache            bool          `mapstructure:"cache"`
	PageTimeout      time.Duration `mapstructure:"page_timeout"`
}

type ProofreadConfig struct {
	Model string `mapstructure:"model"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
	File  string `mapstructure:"file"`
}

// SetDefaults registers every key so that environment variables can
// override any of them.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("server.addr", "127.0.0.1:8002")
	v.SetDefault("server.cors_origins", []string{"http://localhost:5173", "http://localhost:3000"})
	v.SetDefault("server.preload_tier", "")

	v.SetDefault("ollama.url", "http://localhost:11434")
	v.SetDefault("ollama.timeout", 5*time.Minute)

	v.SetDefault("db.path", defaultDBPath())

	v.SetDefault("languages.source", "en")
	v.SetDefault("languages.target", "ja")

	v.SetDefault("tiers.high.model", "qwen3:14b")
	v.SetDefault("tiers.balanced.model", "qwen2.5:7b-instruct")
	v.SetDefault("tiers.fast.model", "qwen2.5:3b-instruct")

	v.SetDefault("translate.quality", "balanced")
	v.SetDefault("translate.failure_policy", "abort")
	v.SetDefault("translate.max_chunk_chars", 0)
	v.SetDefault("translate.protect_markup", true)
	v.SetDefault("translate.validate_language", false)
	v.SetDefault("translate.cache", true)
	v.SetDefault("translate.page_timeout", 0)

	v.SetDefault("proofread.model", "qwen2.5:7b-instruct")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.file", "")
}

func defaultDBPath() string {
	if dir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(dir, "pagetran", "pagetran.db")
	}
	return "pagetran.db"
}

// NewViper returns a viper instance with defaults and env binding set up.
func NewViper() *viper.Viper {
	v := viper.New()
	SetDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// LoadDotEnv loads a .env file into the process environment. A missing
// file is not an error.
func LoadDotEnv(path string) error {
	if path == "" {
		path = ".env"
	}
	if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}

// Load reads configFile (or searches for pagetran.yaml when empty) and
// decodes the merged settings.
func Load(v *viper.Viper, configFile string) (*Config, error) {
	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("pagetran")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if dir, err := os.UserConfigDir(); err == nil {
			v.AddConfigPath(filepath.Join(dir, "pagetran"))
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	switch c.Translate.FailurePolicy {
	case "abort", "skip":
	default:
		return fmt.Errorf("invalid translate.failure_policy %q (want abort or skip)", c.Translate.FailurePolicy)
	}
	if c.Translate.MaxChunkChars < 0 {
		return fmt.Errorf("translate.max_chunk_chars must not be negative")
	}
	if c.Languages.Source == "" || c.Languages.Target == "" {
		return fmt.Errorf("languages.source and languages.target are required")
	}
	for _, tier := range []string{"high", "balanced", "fast"} {
		if strings.TrimSpace(c.Tiers[tier].Model) == "" {
			return fmt.Errorf("tiers.%s.model is required", tier)
		}
	}
	if c.Ollama.URL == "" {
		return fmt.Errorf("ollama.url is required")
	}
	return nil
}
