package pinning

import (
	"crypto/tls"
	"encoding/pem"
	"fmt"
	"os"
)

// Option configures [TLSConfig].
type Option func(*tlsOptions)

type tlsOptions struct {
	pinnedOnly bool
}

// WithPinnedOnly skips system chain verification so that trust rests on
// the pin alone. Use it for self-signed servers.
func WithPinnedOnly() Option {
	return func(o *tlsOptions) {
		o.pinnedOnly = true
	}
}

// TLSConfig returns a copy of base with p installed as the connection
// verifier. A nil base starts from an empty config with TLS 1.2 minimum.
// Any VerifyConnection already on base runs first.
func TLSConfig(base *tls.Config, p Policy, optFns ...Option) *tls.Config {
	var opts tlsOptions
	for _, opt := range optFns {
		opt(&opts)
	}

	var cfg *tls.Config
	if base != nil {
		cfg = base.Clone()
	} else {
		cfg = &tls.Config{MinVersion: tls.VersionTLS12}
	}

	if opts.pinnedOnly {
		cfg.InsecureSkipVerify = true
	}

	prior := cfg.VerifyConnection
	cfg.VerifyConnection = func(cs tls.ConnectionState) error {
		if prior != nil {
			if err := prior(cs); err != nil {
				return err
			}
		}

		return p.Evaluate(cs.PeerCertificates)
	}

	return cfg
}

// LoadCertificatePin reads a DER or PEM certificate from path. Missing,
// unreadable or unparsable files are errors.
func LoadCertificatePin(path string) (*CertificatePin, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrPolicyLoad, err)
	}

	if block, _ := pem.Decode(b); block != nil {
		if block.Type != "CERTIFICATE" {
			return nil, fmt.Errorf("%w: unexpected PEM block %q", ErrPolicyLoad, block.Type)
		}
		b = block.Bytes
	}

	return NewCertificatePin(b)
}
