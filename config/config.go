// Package config reads server and client settings from the environment.
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Server configures the planner backend.
type Server struct {
	StorageType      string        `env:"STORAGE_TYPE"       envDefault:"memory"`
	DataSourceName   string        `env:"DATA_SOURCE_NAME"   envDefault:"planner.db"`
	AssetStorageType string        `env:"ASSET_STORAGE_TYPE" envDefault:"filesystem"`
	LocalStoragePath string        `env:"LOCAL_STORAGE_PATH" envDefault:"./assets"`
	S3BucketName     string        `env:"S3_BUCKET_NAME"`
	JWTSecret        string        `env:"JWT_SECRET"`
	AllowedOrigins   []string      `env:"ALLOWED_ORIGINS"    envDefault:"http://*,https://*" envSeparator:","`
	TokenTTL         time.Duration `env:"TOKEN_TTL"          envDefault:"24h"`
}

// Client configures the placement client.
type Client struct {
	APIURL         string        `env:"PLANNER_API_URL"         envDefault:"http://localhost:8080/api"`
	AssetURL       string        `env:"PLANNER_ASSET_URL"       envDefault:"http://localhost:8080/api/assets"`
	RequestTimeout time.Duration `env:"PLANNER_REQUEST_TIMEOUT" envDefault:"10s"`
	ClickWindow    time.Duration `env:"PLANNER_CLICK_WINDOW"    envDefault:"200ms"`
}

func LoadServer() (Server, error) {
	var cfg Server
	if err := env.Parse(&cfg); err != nil {
		return Server{}, fmt.Errorf("parse server env: %w", err)
	}
	if cfg.StorageType == "s3" || cfg.AssetStorageType == "s3" {
		if cfg.S3BucketName == "" {
			return Server{}, fmt.Errorf("S3_BUCKET_NAME must be set for s3 asset storage")
		}
	}
	if cfg.TokenTTL <= 0 {
		cfg.TokenTTL = 24 * time.Hour
	}
	return cfg, nil
}

func LoadClient() (Client, error) {
	var cfg Client
	if err := env.Parse(&cfg); err != nil {
		return Client{}, fmt.Errorf("parse client env: %w", err)
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 10 * time.Second
	}
	if cfg.ClickWindow <= 0 {
		cfg.ClickWindow = 200 * time.Millisecond
	}
	return cfg, nil
}
