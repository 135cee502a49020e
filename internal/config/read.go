package config

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/dpax/linkedin-feed/internal/entity"
	"github.com/dpax/linkedin-feed/internal/extract"
	"github.com/dpax/linkedin-feed/internal/source"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	DefaultPath   = "linkedin-sync.yaml"
	DefaultOutput = "assets/data/linkedin-posts.json"
	DefaultSource = "https://www.linkedin.com/company/dpax/"
	DefaultPort   = "8080"
)

// ErrMissingWebhook is returned in webhook mode when no endpoint is configured.
var ErrMissingWebhook = errors.New("webhook endpoint is not configured (set LINKEDIN_WEBHOOK_URL)")

var validate = validator.New()

// Default returns the configuration used when nothing else is provided.
func Default() *entity.Config {
	return &entity.Config{
		Mode:    entity.ModeScrape,
		Output:  DefaultOutput,
		Source:  DefaultSource,
		Limit:   extract.DefaultLimit,
		Timeout: source.DefaultTimeout,
		Scrape: entity.ScrapeConfig{
			URLs:       append([]string(nil), source.DefaultScrapeURLs...),
			UserAgent:  source.DefaultUserAgent,
			PostPrefix: extract.DefaultPostPrefix,
		},
		Webhook: entity.WebhookConfig{
			Method:       http.MethodGet,
			APIKeyHeader: source.DefaultAPIKeyHeader,
		},
		Port: DefaultPort,
	}
}

// Read loads the YAML file at configPath over the defaults, then applies
// .env and environment overrides and checks the settings shared by every
// command. The webhook section is left to Validate. A missing file is not an
// error.
func Read(configPath string) (*entity.Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("could not load .env file: %w", err)
	}

	config := Default()

	contents, err := os.ReadFile(configPath)

	switch {
	case err == nil:
		if err = yaml.Unmarshal(contents, config); err != nil {
			return nil, fmt.Errorf("could not parse config file: %w", err)
		}
	case os.IsNotExist(err):
	default:
		return nil, fmt.Errorf("could not read config file: %w", err)
	}

	applyEnv(config, os.Getenv)

	if err := validateCommon(config); err != nil {
		return nil, err
	}

	return config, nil
}

func applyEnv(config *entity.Config, getenv func(string) string) {
	overrides := []struct {
		key    string
		target *string
	}{
		{"LINKEDIN_SYNC_MODE", &config.Mode},
		{"LINKEDIN_POSTS_OUTPUT", &config.Output},
		{"LINKEDIN_WEBHOOK_URL", &config.Webhook.Endpoint},
		{"LINKEDIN_WEBHOOK_METHOD", &config.Webhook.Method},
		{"LINKEDIN_WEBHOOK_API_KEY", &config.Webhook.APIKey},
		{"LINKEDIN_WEBHOOK_API_KEY_HEADER", &config.Webhook.APIKeyHeader},
		{"REDIS_ADDR", &config.RedisAddr},
		{"HTTP_SERVER_PORT", &config.Port},
	}

	for _, o := range overrides {
		if v := strings.TrimSpace(getenv(o.key)); v != "" {
			*o.target = v
		}
	}
}

// Validate normalizes and checks config for a sync run. In webhook mode the
// endpoint is required before any request is made.
func Validate(config *entity.Config) error {
	if err := validateCommon(config); err != nil {
		return err
	}

	if config.Mode == entity.ModeWebhook {
		if strings.TrimSpace(config.Webhook.Endpoint) == "" {
			return ErrMissingWebhook
		}

		if err := validate.Struct(config.Webhook); err != nil {
			return fmt.Errorf("invalid webhook configuration: %w", err)
		}
	}

	return nil
}

// validateCommon normalizes config and checks everything but the webhook
// section, which only matters to a webhook sync.
func validateCommon(config *entity.Config) error {
	config.Mode = strings.ToLower(strings.TrimSpace(config.Mode))
	config.Webhook.Method = strings.ToUpper(strings.TrimSpace(config.Webhook.Method))

	if config.Webhook.Method == "" {
		config.Webhook.Method = http.MethodGet
	}

	if err := validate.Struct(config); err != nil && !onlyWebhookErrors(err) {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	return nil
}

// onlyWebhookErrors reports whether every validation failure belongs to the
// webhook section.
func onlyWebhookErrors(err error) bool {
	var verrs validator.ValidationErrors

	if !errors.As(err, &verrs) {
		return false
	}

	for _, fe := range verrs {
		if !strings.HasPrefix(fe.Namespace(), "Config.Webhook.") {
			return false
		}
	}

	return true
}
