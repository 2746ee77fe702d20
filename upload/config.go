package upload

import (
	"fmt"
	"time"

	"github.com/bitrise-io/go-utils/v2/env"
)

const (
	defaultPollInterval = 10 * time.Second
	defaultPollAttempts = 60
)

// Secret is a configuration value that must not end up in logs.
type Secret string

// String redacts the secret.
func (s Secret) String() string {
	if s == "" {
		return ""
	}
	return "*****"
}

// Config holds the client configuration for one upload target.
type Config struct {
	// APIBaseURL is the vendor API endpoint, e.g. https://api.vimeo.com.
	APIBaseURL string
	// AccessToken is sent as a bearer credential on every vendor API call.
	AccessToken Secret
	// PollInterval is the wait between playback-link status polls.
	PollInterval time.Duration
	// PollAttempts bounds the playback-link status polling. Zero means the
	// default bound, not unlimited.
	PollAttempts uint
}

// DefaultConfig ...
func DefaultConfig(apiBaseURL string, accessToken Secret) Config {
	return Config{
		APIBaseURL:   apiBaseURL,
		AccessToken:  accessToken,
		PollInterval: defaultPollInterval,
		PollAttempts: defaultPollAttempts,
	}
}

// ConfigFromEnv reads the upload configuration from the environment:
// VIMEO_API_BASE_URL (optional, defaults to the public API) and
// VIMEO_ACCESS_TOKEN (required).
func ConfigFromEnv(envRepo env.Repository) (Config, error) {
	token := envRepo.Get("VIMEO_ACCESS_TOKEN")
	if token == "" {
		return Config{}, fmt.Errorf("VIMEO_ACCESS_TOKEN is not set")
	}

	baseURL := envRepo.Get("VIMEO_API_BASE_URL")
	if baseURL == "" {
		baseURL = "https://api.vimeo.com"
	}

	return DefaultConfig(baseURL, Secret(token)), nil
}

func (c Config) validate() error {
	if c.APIBaseURL == "" {
		return fmt.Errorf("API base URL is empty")
	}
	if c.AccessToken == "" {
		return fmt.Errorf("access token is empty")
	}
	return nil
}

func (c Config) pollAttempts() uint {
	if c.PollAttempts == 0 {
		return defaultPollAttempts
	}
	return c.PollAttempts
}
