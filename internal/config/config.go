package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// GitHubConfig locates the content repository and authenticates the service
// against the hosting API.
type GitHubConfig struct {
	Token      string `mapstructure:"token"`
	Owner      string `mapstructure:"owner"`
	Repo       string `mapstructure:"repo"`
	MainBranch string `mapstructure:"main_branch"`
}

// AuthConfig is the editor allow-list. Every request must resolve to one of
// these GitHub logins or it is rejected.
type AuthConfig struct {
	AllowedUsers []string `mapstructure:"allowed_users"`
}

// SiteConfig holds the published site's identity: the base URL posts render
// under and the author fields merged into generated front matter.
type SiteConfig struct {
	BaseURL     string `mapstructure:"base_url"`
	Name        string `mapstructure:"name"`
	Author      string `mapstructure:"author"`
	TwitterID   string `mapstructure:"twitter_id"`
	GitHubID    string `mapstructure:"github_id"`
	Mail        string `mapstructure:"mail"`
	TwitterSite string `mapstructure:"twitter_site"`
}

// WebhookConfig configures push event validation.
type WebhookConfig struct {
	Secret string `mapstructure:"secret"`
}

// CacheConfig bounds tree snapshot freshness.
type CacheConfig struct {
	TTL time.Duration `mapstructure:"ttl"`
}

// Config is the process configuration, loaded from an optional YAML file
// with GITPRESS_* environment overrides.
type Config struct {
	Listen  string        `mapstructure:"listen"`
	GitHub  GitHubConfig  `mapstructure:"github"`
	Auth    AuthConfig    `mapstructure:"auth"`
	Site    SiteConfig    `mapstructure:"site"`
	Webhook WebhookConfig `mapstructure:"webhook"`
	Cache   CacheConfig   `mapstructure:"cache"`
}

// Load reads configuration from file (optional; empty means env only) and
// the environment.
func Load(file string) (*Config, error) {
	v := viper.New()

	v.SetDefault("listen", ":8080")
	v.SetDefault("github.main_branch", "main")
	v.SetDefault("cache.ttl", 5*time.Minute)

	v.SetEnvPrefix("gitpress")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Unmarshal only sees keys viper already knows about, so env-only keys
	// must be bound explicitly.
	for _, key := range []string{
		"listen",
		"github.token", "github.owner", "github.repo", "github.main_branch",
		"auth.allowed_users",
		"site.base_url", "site.name", "site.author", "site.twitter_id",
		"site.github_id", "site.mail", "site.twitter_site",
		"webhook.secret",
		"cache.ttl",
	} {
		if err := v.BindEnv(key); err != nil {
			return nil, fmt.Errorf("failed to bind env for %s: %w", key, err)
		}
	}

	if file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", file, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if cfg.GitHub.Token == "" {
		return nil, fmt.Errorf("github.token is required")
	}
	if cfg.GitHub.Owner == "" || cfg.GitHub.Repo == "" {
		return nil, fmt.Errorf("github.owner and github.repo are required")
	}
	if len(cfg.Auth.AllowedUsers) == 0 {
		return nil, fmt.Errorf("auth.allowed_users must not be empty")
	}

	return &cfg, nil
}
