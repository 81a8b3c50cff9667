// Package config loads depmeta settings from defaults, a YAML config file,
// DEPMETA_* environment variables (optionally from .env), and command-line flags.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/git-pkgs/depmeta/internal/core"
)

const (
	EnvPrefix  = "DEPMETA"
	configName = ".depmeta"
)

type Config struct {
	FormatVersion    int                   `mapstructure:"format_version"`
	LocalRepository  string                `mapstructure:"local_repository"`
	Repositories     []core.RepositorySpec `mapstructure:"repositories"`
	DependenciesFile string                `mapstructure:"dependencies_file"`
	OutputDir        string                `mapstructure:"output_dir"`
	Concurrency      int                   `mapstructure:"concurrency"`
	Timeout          time.Duration         `mapstructure:"timeout"`
	MaxRetries       int                   `mapstructure:"max_retries"`
	UserAgent        string                `mapstructure:"user_agent"`
	Deploy           DeployConfig          `mapstructure:"deploy"`
	S3               S3Config              `mapstructure:"s3"`
}

// DeployConfig selects the repository records are published to.
// Alternate repositories use the id::layout::url syntax.
type DeployConfig struct {
	Repository            string `mapstructure:"repository"`
	AltRepository         string `mapstructure:"alt_repository"`
	AltSnapshotRepository string `mapstructure:"alt_snapshot_repository"`
	AltReleaseRepository  string `mapstructure:"alt_release_repository"`
}

type S3Config struct {
	Endpoint  string `mapstructure:"endpoint"`
	Region    string `mapstructure:"region"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
	UseSSL    bool   `mapstructure:"use_ssl"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		FormatVersion:    core.DefaultFormatVersion,
		LocalRepository:  "~/.m2/repository",
		Repositories:     []core.RepositorySpec{{ID: "central", URL: "https://repo1.maven.org/maven2"}},
		DependenciesFile: "depmeta.lock.yaml",
		OutputDir:        "target",
		Concurrency:      8,
		Timeout:          30 * time.Second,
		MaxRetries:       3,
		UserAgent:        "depmeta/1.0",
		S3:               S3Config{Region: "us-east-1", UseSSL: true},
	}
}

// SetDefaults registers every key with v so environment variables can override them.
func SetDefaults(v *viper.Viper) {
	d := Default()
	v.SetDefault("format_version", d.FormatVersion)
	v.SetDefault("local_repository", d.LocalRepository)
	v.SetDefault("repositories", []map[string]any{{"id": d.Repositories[0].ID, "url": d.Repositories[0].URL}})
	v.SetDefault("dependencies_file", d.DependenciesFile)
	v.SetDefault("output_dir", d.OutputDir)
	v.SetDefault("concurrency", d.Concurrency)
	v.SetDefault("timeout", d.Timeout)
	v.SetDefault("max_retries", d.MaxRetries)
	v.SetDefault("user_agent", d.UserAgent)
	v.SetDefault("deploy.repository", "")
	v.SetDefault("deploy.alt_repository", "")
	v.SetDefault("deploy.alt_snapshot_repository", "")
	v.SetDefault("deploy.alt_release_repository", "")
	v.SetDefault("s3.endpoint", "")
	v.SetDefault("s3.region", d.S3.Region)
	v.SetDefault("s3.access_key", "")
	v.SetDefault("s3.secret_key", "")
	v.SetDefault("s3.use_ssl", d.S3.UseSSL)
}

// Load reads configuration into v and decodes it. When cfgFile is empty,
// ./.depmeta.yaml and then ~/.depmeta.yaml are tried; a missing file is not an error.
// Flags should be bound to v before calling Load.
func Load(v *viper.Viper, cfgFile string) (*Config, error) {
	_ = godotenv.Load()

	SetDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config %s: %w", cfgFile, err)
		}
	} else {
		v.SetConfigName(configName)
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(home)
		}
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("reading config: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks for settings no command can work with.
func (c *Config) Validate() error {
	var errs []error
	if c.FormatVersion <= 0 {
		errs = append(errs, fmt.Errorf("format_version must be positive, got %d", c.FormatVersion))
	}
	if c.Concurrency <= 0 {
		errs = append(errs, fmt.Errorf("concurrency must be positive, got %d", c.Concurrency))
	}
	if c.Timeout < 0 {
		errs = append(errs, fmt.Errorf("timeout must not be negative, got %s", c.Timeout))
	}
	if c.MaxRetries < 0 {
		errs = append(errs, fmt.Errorf("max_retries must not be negative, got %d", c.MaxRetries))
	}
	for i, r := range c.Repositories {
		if strings.TrimSpace(r.URL) == "" {
			errs = append(errs, fmt.Errorf("repositories[%d] (%s) has no url", i, r.ID))
		}
	}
	return errors.Join(errs...)
}

// RepositoryOptions returns the backend options derived from c.
func (c *Config) RepositoryOptions(logger *slog.Logger) core.Options {
	return core.Options{
		Logger:     logger,
		UserAgent:  c.UserAgent,
		MaxRetries: c.MaxRetries,
		Timeout:    c.Timeout,
		S3: core.S3Options{
			Endpoint:  c.S3.Endpoint,
			Region:    c.S3.Region,
			AccessKey: c.S3.AccessKey,
			SecretKey: c.S3.SecretKey,
			UseSSL:    c.S3.UseSSL,
		},
	}
}

// LocalSpec describes the local repository used as the resolution cache.
func (c *Config) LocalSpec() core.RepositorySpec {
	return core.RepositorySpec{ID: "local", URL: c.LocalRepository}
}
