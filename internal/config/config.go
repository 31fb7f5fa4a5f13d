package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Storage  StorageConfig  `yaml:"storage"`
	Provider ProviderConfig `yaml:"provider"`
	Notify   NotifyConfig   `yaml:"notify"`
}

type ServerConfig struct {
	Name    string `yaml:"name"`
	Host    string `yaml:"host"`
	Port    int    `yaml:"port"`
	BaseURL string `yaml:"base_url"`
}

type DatabaseConfig struct {
	Path string `yaml:"path"`
}

type StorageConfig struct {
	AvatarRoot     string `yaml:"avatar_root"`
	AvatarMaxBytes int64  `yaml:"avatar_max_bytes"`
	StatePath      string `yaml:"state_path"`
}

// ProviderConfig points at the external identity provider. JWTSecret is the
// HS256 secret the provider signs access tokens with; WebhookSecret
// authenticates auth events the provider pushes back to us.
type ProviderConfig struct {
	BaseURL       string `yaml:"base_url"`
	JWTSecret     string `yaml:"jwt_secret"`
	WebhookSecret string `yaml:"webhook_secret"`
	RedirectURL   string `yaml:"redirect_url"`
}

type NotifyConfig struct {
	Endpoint  string `yaml:"endpoint"`
	AccessKey string `yaml:"access_key"`
	FromName  string `yaml:"from_name"`
	To        string `yaml:"to"`
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	cfg.applyEnvOverrides()

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	cfg.setDefaults()

	return &cfg, nil
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("FRIDGE_PROVIDER_JWT_SECRET"); v != "" {
		c.Provider.JWTSecret = v
	}
	if v := os.Getenv("FRIDGE_PROVIDER_WEBHOOK_SECRET"); v != "" {
		c.Provider.WebhookSecret = v
	}
	if v := os.Getenv("FRIDGE_NOTIFY_ACCESS_KEY"); v != "" {
		c.Notify.AccessKey = v
	}
}

func (c *Config) validate() error {
	if c.Provider.BaseURL == "" {
		return fmt.Errorf("provider.base_url is required")
	}
	if c.Provider.JWTSecret == "" {
		return fmt.Errorf("provider.jwt_secret is required")
	}
	if len(c.Provider.JWTSecret) < 32 {
		return fmt.Errorf("provider.jwt_secret must be at least 32 characters")
	}
	if c.Provider.WebhookSecret == "" {
		return fmt.Errorf("provider.webhook_secret is required")
	}
	if c.Notify.AccessKey != "" && c.Notify.To == "" {
		return fmt.Errorf("notify.to is required when notify.access_key is set")
	}
	return nil
}

func (c *Config) setDefaults() {
	if c.Server.Host == "" {
		c.Server.Host = "0.0.0.0"
	}
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Server.Name == "" {
		c.Server.Name = "Community Fridge Platform"
	}
	if c.Server.BaseURL == "" {
		c.Server.BaseURL = fmt.Sprintf("http://%s:%d", c.Server.Host, c.Server.Port)
	}
	if c.Database.Path == "" {
		c.Database.Path = "./data/fridge.db"
	}
	if c.Storage.AvatarRoot == "" {
		c.Storage.AvatarRoot = "./data/avatars"
	}
	if c.Storage.AvatarMaxBytes == 0 {
		c.Storage.AvatarMaxBytes = 5 << 20
	}
	if c.Storage.StatePath == "" {
		c.Storage.StatePath = "./data/client_state.json"
	}
	if c.Provider.RedirectURL == "" {
		c.Provider.RedirectURL = c.Server.BaseURL + "/"
	}
	if c.Notify.Endpoint == "" {
		c.Notify.Endpoint = "https://api.web3forms.com/submit"
	}
	if c.Notify.FromName == "" {
		c.Notify.FromName = c.Server.Name
	}
}

func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}
