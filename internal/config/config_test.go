package config_test

import (
	"bytes"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adamwoolhether/apiclient/client"
	"github.com/adamwoolhether/apiclient/client/pinning"
	"github.com/adamwoolhether/apiclient/client/throttle"
	"github.com/adamwoolhether/apiclient/internal/config"
)

const validHash = "AAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA="

func writeConfig(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "apiclient.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := config.Load("", nil)
	require.NoError(t, err)

	assert.Equal(t, config.Default(), cfg)
	assert.Equal(t, config.DefaultBaseURL, cfg.BaseURL)
	assert.Equal(t, config.PinningNone, cfg.Pinning.Mode)
}

func TestLoad_FileThenEnvironment(t *testing.T) {
	path := writeConfig(t, `
base_url = "https://api.example.com/v2"
timeout = "5s"
backend = "resty"

[log]
level = "debug"
format = "json"

[throttle]
rps = 10
burst = 2

[pinning]
mode = "publickey"
key_hashes = ["`+validHash+`"]
`)

	t.Setenv("APICLIENT_USER_AGENT", "env-agent/2.0")
	t.Setenv("APICLIENT_TIMEOUT", "750ms")
	t.Setenv("APICLIENT_PINNING_PINNED_ONLY", "true")

	cfg, err := config.Load(path, nil)
	require.NoError(t, err)

	assert.Equal(t, "https://api.example.com/v2", cfg.BaseURL)
	assert.Equal(t, 750*time.Millisecond, cfg.Timeout, "environment must win over the file")
	assert.Equal(t, "env-agent/2.0", cfg.UserAgent)
	assert.Equal(t, "resty", cfg.Backend)
	assert.Equal(t, config.Log{Level: "debug", Format: "json"}, cfg.Log)
	assert.Equal(t, throttle.Config{RPS: 10, Burst: 2}, cfg.Throttle)
	assert.Equal(t, []string{validHash}, cfg.Pinning.KeyHashes)
	assert.True(t, cfg.Pinning.PinnedOnly)
}

func TestLoad_UndecodedKeysWarn(t *testing.T) {
	path := writeConfig(t, `
base_url = "https://api.example.com"
retries = 3
`)

	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	_, err := config.Load(path, logger)
	require.NoError(t, err)

	assert.Contains(t, buf.String(), "undecoded keys")
	assert.Contains(t, buf.String(), "retries")
}

func TestLoad_FileErrors(t *testing.T) {
	_, err := config.Load(filepath.Join(t.TempDir(), "missing.toml"), nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)

	_, err = config.Load(writeConfig(t, `base_url = `), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parsing config file")
}

func TestValidate(t *testing.T) {
	testCases := []struct {
		name      string
		mutate    func(*config.Config)
		expFields []string
		expErr    error
	}{
		{
			name:      "relative base url",
			mutate:    func(c *config.Config) { c.BaseURL = "api/v1" },
			expFields: []string{"base_url"},
		},
		{
			name:      "unknown backend",
			mutate:    func(c *config.Config) { c.Backend = "curl" },
			expFields: []string{"backend"},
		},
		{
			name: "bad log settings",
			mutate: func(c *config.Config) {
				c.Log.Level = "loud"
				c.Log.Format = "xml"
			},
			expFields: []string{"log.level", "log.format"},
		},
		{
			name:      "certificate mode needs a file",
			mutate:    func(c *config.Config) { c.Pinning.Mode = config.PinningCertificate },
			expFields: []string{"pinning.cert_file"},
		},
		{
			name:      "publickey mode needs hashes",
			mutate:    func(c *config.Config) { c.Pinning.Mode = config.PinningPublicKey },
			expFields: []string{"pinning.key_hashes"},
		},
		{
			name: "hashes must be base64",
			mutate: func(c *config.Config) {
				c.Pinning.Mode = config.PinningPublicKey
				c.Pinning.KeyHashes = []string{"not base64!"}
			},
			expFields: []string{"pinning.key_hashes[0]"},
		},
		{
			name:   "half configured throttle",
			mutate: func(c *config.Config) { c.Throttle.RPS = 5 },
			expErr: throttle.ErrMustNotBeZero,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := config.Default()
			tc.mutate(&cfg)

			err := cfg.Validate()
			require.ErrorIs(t, err, config.ErrInvalid)

			if tc.expErr != nil {
				assert.ErrorIs(t, err, tc.expErr)
			}

			if tc.expFields != nil {
				var fields config.FieldErrors
				require.True(t, errors.As(err, &fields), "expected field errors, got %v", err)

				got := make([]string, len(fields))
				for i, f := range fields {
					got[i] = f.Field
				}
				assert.ElementsMatch(t, tc.expFields, got)
			}
		})
	}
}

func TestClientOptions(t *testing.T) {
	t.Run("defaults build", func(t *testing.T) {
		c, err := client.Build(config.Default().ClientOptions(slog.Default())...)
		require.NoError(t, err)
		assert.False(t, c.Pinned())
	})

	t.Run("public key pinning", func(t *testing.T) {
		cfg := config.Default()
		cfg.Backend = string(client.BackendResty)
		cfg.Throttle = throttle.Config{RPS: 5, Burst: 1}
		cfg.Pinning = config.Pinning{Mode: config.PinningPublicKey, KeyHashes: []string{validHash}, PinnedOnly: true}
		require.NoError(t, cfg.Validate())

		c, err := client.Build(cfg.ClientOptions(nil)...)
		require.NoError(t, err)
		assert.True(t, c.Pinned())
	})

	t.Run("missing certificate fails build", func(t *testing.T) {
		cfg := config.Default()
		cfg.Pinning = config.Pinning{Mode: config.PinningCertificate, CertFile: filepath.Join(t.TempDir(), "server.cer")}
		require.NoError(t, cfg.Validate())

		_, err := client.Build(cfg.ClientOptions(nil)...)
		assert.ErrorIs(t, err, pinning.ErrPolicyLoad)
	})
}
