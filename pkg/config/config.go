// Package config loads the server configuration from a YAML file with
// ${ENV} expansion, falling back to plain environment variables when
// no file is given.
package config

import (
	"fmt"
	"os"
	"reflect"

	"github.com/go-playground/validator/v10"
	"github.com/virajpatidar10/tiktok-ads-creative-flow/pkg/tiktok/oauth"
	"github.com/virajpatidar10/tiktok-ads-creative-flow/pkg/util"
	"gopkg.in/yaml.v3"
)

type StorageConfig struct {
	// Type selects the token store backend.
	Type string `yaml:"type" validate:"omitempty,oneof=memory file redis"`
	// Path is the snapshot file for the file backend.
	Path string `yaml:"path"`
	// RedisAddr and RedisPrefix configure the redis backend.
	RedisAddr   string `yaml:"redis_addr"`
	RedisPrefix string `yaml:"redis_prefix"`
}

type Config struct {
	Address             string        `yaml:"address"`
	FrontendRedirectURI string        `yaml:"frontend_redirect_uri"`
	OAuth               oauth.Config  `yaml:"oauth"`
	Storage             StorageConfig `yaml:"storage"`
	DemoMode            bool          `yaml:"demo_mode"`
}

func applyDefaults(cfg *Config) {
	if cfg.Address == "" {
		cfg.Address = ":8080"
	}
	if cfg.FrontendRedirectURI == "" {
		cfg.FrontendRedirectURI = "/"
	}
	if cfg.Storage.Type == "" {
		cfg.Storage.Type = "memory"
	}
	if cfg.Storage.Type == "file" && cfg.Storage.Path == "" {
		cfg.Storage.Path = "adsflow-store.cbor"
	}
	if cfg.Storage.RedisPrefix == "" {
		cfg.Storage.RedisPrefix = "adsflow:"
	}
}

// LoadConfigFile reads and validates a YAML config. Environment
// references like ${TIKTOK_CLIENT_SECRET} are expanded before
// decoding. Missing OAuth credentials are not an error here; they
// surface at login time.
func LoadConfigFile(path string) (*Config, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	expanded := os.ExpandEnv(string(content))

	cfg := new(Config)
	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return nil, fmt.Errorf("decode config file: %w", err)
	}

	applyDefaults(cfg)

	validate := validator.New()
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		return fld.Tag.Get("yaml")
	})
	if err := validate.Struct(cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return cfg, nil
}

// FromEnv builds a config purely from environment variables.
func FromEnv() *Config {
	cfg := &Config{
		Address:             util.GetEnv("ADSFLOW_ADDRESS", ":8080"),
		FrontendRedirectURI: util.GetEnv("ADSFLOW_FRONTEND_REDIRECT_URI", "/"),
		OAuth: oauth.Config{
			ClientKey:    os.Getenv("TIKTOK_CLIENT_KEY"),
			ClientSecret: os.Getenv("TIKTOK_CLIENT_SECRET"),
			RedirectURI:  os.Getenv("TIKTOK_REDIRECT_URI"),
			BaseURL:      os.Getenv("TIKTOK_BASE_URL"),
			AuthorizeURL: os.Getenv("TIKTOK_AUTHORIZE_URL"),
		},
		Storage: StorageConfig{
			Type:        util.GetEnv("ADSFLOW_STORAGE_TYPE", "memory"),
			Path:        os.Getenv("ADSFLOW_STORAGE_PATH"),
			RedisAddr:   os.Getenv("ADSFLOW_REDIS_ADDR"),
			RedisPrefix: os.Getenv("ADSFLOW_REDIS_PREFIX"),
		},
		DemoMode: os.Getenv("ADSFLOW_DEMO_MODE") == "true",
	}
	applyDefaults(cfg)
	return cfg
}
