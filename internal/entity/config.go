package entity

import "time"

const (
	ModeScrape  = "scrape"
	ModeWebhook = "webhook"
)

type Config struct {
	Mode            string        `yaml:"mode" validate:"oneof=scrape webhook"`
	Output          string        `yaml:"output" validate:"required"`
	AtomOutput      string        `yaml:"atomOutput"`
	Source          string        `yaml:"source" validate:"required,url"`
	Limit           int           `yaml:"limit" validate:"min=1"`
	Timeout         time.Duration `yaml:"timeout" validate:"gt=0"`
	Scrape          ScrapeConfig  `yaml:"scrape"`
	Webhook         WebhookConfig `yaml:"webhook"`
	History         string        `yaml:"history"`
	MetricsTextfile string        `yaml:"metricsTextfile"`
	RedisAddr       string        `yaml:"redisAddr"`
	Port            string        `yaml:"port"`
}

type ScrapeConfig struct {
	URLs       []string `yaml:"urls" validate:"omitempty,dive,url"`
	UserAgent  string   `yaml:"userAgent"`
	PostPrefix string   `yaml:"postPrefix"`
}

type WebhookConfig struct {
	Endpoint     string `yaml:"endpoint" validate:"required,url"`
	Method       string `yaml:"method" validate:"oneof=GET POST PUT PATCH"`
	APIKey       string `yaml:"apiKey"`
	APIKeyHeader string `yaml:"apiKeyHeader"`
	SendLimit    bool   `yaml:"sendLimit"`
}
