package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	coreconfig "github.com/m3rciful/cowinbot/core/config"
)

const (
	defaultCowinBaseURL = "https://cdn-api.co-vin.in/api"
	defaultUserAgent    = "Mozilla/5.0 (Windows; Intel Mac OS X 10_15_4) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/83.0.4103.61 Safari/537.36"
)

// CowinConfig configures access to the CoWIN public API.
type CowinConfig struct {
	BaseURL string `yaml:"base_url" envconfig:"COWIN_BASE_URL"`
	// Secret is the shared secret sent with OTP requests.
	Secret         string `yaml:"secret" envconfig:"API_SECRET"`
	UserAgent      string `yaml:"user_agent" envconfig:"COWIN_USER_AGENT"`
	TimeoutSeconds int    `yaml:"timeout_seconds" envconfig:"COWIN_TIMEOUT_SECONDS"`
}

// Timeout returns the per-request timeout; 0 leaves it to the transport.
func (c CowinConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// CertificatesConfig controls where downloaded certificates live until they are sent.
type CertificatesConfig struct {
	TempDir string `yaml:"temp_dir" envconfig:"CERTIFICATES_TEMP_DIR"`
}

// Config is the application configuration.
type Config struct {
	coreconfig.Config `yaml:",inline"`

	Cowin        CowinConfig        `yaml:"cowin"`
	Certificates CertificatesConfig `yaml:"certificates"`
}

// CoreConfig exposes the embedded core configuration.
func (c *Config) CoreConfig() *coreconfig.Config {
	if c == nil {
		return nil
	}
	return &c.Config
}

// Load reads the configuration from a YAML file and environment variables.
func Load(path string) (*Config, error) {
	var cfg Config
	if err := coreconfig.Decode(path, &cfg); err != nil {
		return nil, err
	}
	if err := coreconfig.Normalize(&cfg.Config); err != nil {
		return nil, err
	}
	if err := normalize(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func normalize(cfg *Config) error {
	if strings.TrimSpace(cfg.Cowin.Secret) == "" {
		return fmt.Errorf("cowin secret is required (API_SECRET)")
	}
	cfg.Cowin.BaseURL = strings.TrimRight(strings.TrimSpace(cfg.Cowin.BaseURL), "/")
	if cfg.Cowin.BaseURL == "" {
		cfg.Cowin.BaseURL = defaultCowinBaseURL
	}
	if strings.TrimSpace(cfg.Cowin.UserAgent) == "" {
		cfg.Cowin.UserAgent = defaultUserAgent
	}
	if cfg.Cowin.TimeoutSeconds < 0 {
		return fmt.Errorf("cowin.timeout_seconds must be >= 0")
	}
	if strings.TrimSpace(cfg.Certificates.TempDir) == "" {
		cfg.Certificates.TempDir = os.TempDir()
	}
	return nil
}
