// Package config loads the CLI configuration. Values are layered:
// defaults, then an optional TOML file, then APICLIENT_ environment
// variables. The result is validated before use.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/kelseyhightower/envconfig"

	"github.com/adamwoolhether/apiclient/client"
	"github.com/adamwoolhether/apiclient/client/throttle"
)

// EnvPrefix is prepended to every environment override, e.g.
// APICLIENT_BASE_URL or APICLIENT_PINNING_MODE.
const EnvPrefix = "APICLIENT"

// DefaultBaseURL is the public JSON API the sample repository talks to.
const DefaultBaseURL = "https://jsonplaceholder.typicode.com"

// Pinning modes.
const (
	PinningNone        = "none"
	PinningCertificate = "certificate"
	PinningPublicKey   = "publickey"
)

var ErrInvalid = errors.New("invalid configuration")

// Config is the full CLI configuration.
type Config struct {
	BaseURL   string          `toml:"base_url" envconfig:"BASE_URL" validate:"required,url"`
	Timeout   time.Duration   `toml:"timeout" envconfig:"TIMEOUT" validate:"gte=0"`
	UserAgent string          `toml:"user_agent" envconfig:"USER_AGENT"`
	Backend   string          `toml:"backend" envconfig:"BACKEND" validate:"oneof=nethttp resty"`
	Log       Log             `toml:"log" envconfig:"LOG"`
	Throttle  throttle.Config `toml:"throttle" envconfig:"THROTTLE"`
	Pinning   Pinning         `toml:"pinning" envconfig:"PINNING"`
}

// Log configures the CLI logger.
type Log struct {
	Level  string `toml:"level" envconfig:"LEVEL" validate:"oneof=debug info warn error"`
	Format string `toml:"format" envconfig:"FORMAT" validate:"oneof=text json"`
}

// Pinning selects the TLS trust policy. CertFile is used in
// certificate mode and KeyHashes (base64 SHA-256) in publickey mode.
type Pinning struct {
	Mode       string   `toml:"mode" envconfig:"MODE" validate:"oneof=none certificate publickey"`
	CertFile   string   `toml:"cert_file" envconfig:"CERT_FILE" validate:"required_if=Mode certificate"`
	KeyHashes  []string `toml:"key_hashes" envconfig:"KEY_HASHES" validate:"required_if=Mode publickey,dive,base64"`
	PinnedOnly bool     `toml:"pinned_only" envconfig:"PINNED_ONLY"`
}

// Default returns the configuration used when nothing is overridden.
func Default() Config {
	return Config{
		BaseURL:   DefaultBaseURL,
		Timeout:   30 * time.Second,
		UserAgent: "apiclient/1.0",
		Backend:   string(client.BackendNetHTTP),
		Log: Log{
			Level:  "info",
			Format: "text",
		},
		Pinning: Pinning{Mode: PinningNone},
	}
}

// Load builds the configuration from defaults, the TOML file at path
// (skipped when path is empty) and the environment. Unknown TOML keys
// are logged, not rejected.
func Load(path string, logger *slog.Logger) (Config, error) {
	if logger == nil {
		logger = slog.Default()
	}

	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("reading config file %s: %w", path, err)
		}

		md, err := toml.Decode(string(data), &cfg)
		if err != nil {
			return Config{}, fmt.Errorf("parsing config file %s: %w", path, err)
		}

		if undecoded := md.Undecoded(); len(undecoded) > 0 {
			keys := make([]string, len(undecoded))
			for i, k := range undecoded {
				keys[i] = k.String()
			}
			logger.Warn("config file contains undecoded keys", "path", path, "keys", keys)
		}
	}

	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return Config{}, fmt.Errorf("reading environment: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// Validate checks cfg against its field rules. Throttle values are
// optional but must come as a positive pair.
func (c Config) Validate() error {
	if err := check(c); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalid, err)
	}

	if c.throttled() {
		if err := c.Throttle.Validate(); err != nil {
			return fmt.Errorf("%w: throttle: %w", ErrInvalid, err)
		}
	}

	return nil
}

func (c Config) throttled() bool {
	return c.Throttle.RPS != 0 || c.Throttle.Burst != 0
}

// ClientOptions maps the configuration onto client options.
func (c Config) ClientOptions(logger *slog.Logger) []client.Option {
	opts := []client.Option{
		client.WithBaseURL(c.BaseURL),
		client.WithTimeout(c.Timeout),
		client.WithBackend(client.BackendKind(c.Backend)),
	}

	if c.UserAgent != "" {
		opts = append(opts, client.WithUserAgent(c.UserAgent))
	}
	if logger != nil {
		opts = append(opts, client.WithLogger(logger))
	}
	if c.throttled() {
		opts = append(opts, client.WithThrottle(c.Throttle.RPS, c.Throttle.Burst))
	}

	switch c.Pinning.Mode {
	case PinningCertificate:
		opts = append(opts, client.WithCertificatePinFile(c.Pinning.CertFile))
	case PinningPublicKey:
		opts = append(opts, client.WithPublicKeyPins(c.Pinning.KeyHashes...))
	}
	if c.Pinning.Mode != PinningNone && c.Pinning.PinnedOnly {
		opts = append(opts, client.WithPinnedOnly())
	}

	return opts
}
