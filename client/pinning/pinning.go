package pinning

import (
	"bytes"
	"crypto/ecdsa"
	"crypto/ed25519"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/x509"
	"encoding/base64"
	"errors"
	"fmt"
)

var (
	ErrTrustEvaluation = errors.New("server trust evaluation failed")
	ErrEmptyChain      = errors.New("empty certificate chain")
	ErrPinMismatch     = errors.New("no pin matched")
	ErrKeyExtraction   = errors.New("public key extraction failed")
	ErrPolicyLoad      = errors.New("loading pinning policy")
)

// Policy decides whether a presented certificate chain is trusted.
// chain[0] is the leaf.
type Policy interface {
	Evaluate(chain []*x509.Certificate) error
}

func reject(reason error) error {
	return fmt.Errorf("%w: %w", ErrTrustEvaluation, reason)
}

// CertificatePin trusts a chain whose leaf is byte-identical to the
// pinned DER certificate.
type CertificatePin struct {
	der []byte
}

// NewCertificatePin pins the given DER-encoded certificate.
func NewCertificatePin(der []byte) (*CertificatePin, error) {
	if len(der) == 0 {
		return nil, fmt.Errorf("%w: empty certificate", ErrPolicyLoad)
	}

	if _, err := x509.ParseCertificate(der); err != nil {
		return nil, fmt.Errorf("%w: parsing certificate: %w", ErrPolicyLoad, err)
	}

	return &CertificatePin{der: bytes.Clone(der)}, nil
}

func (p *CertificatePin) Evaluate(chain []*x509.Certificate) error {
	if len(chain) == 0 || chain[0] == nil {
		return reject(ErrEmptyChain)
	}

	if !bytes.Equal(chain[0].Raw, p.der) {
		return reject(ErrPinMismatch)
	}

	return nil
}

// PublicKeyPin trusts a chain whose leaf public key hashes to one of
// the pinned SHA-256 digests.
type PublicKeyPin struct {
	hashes map[[sha256.Size]byte]struct{}
}

// NewPublicKeyPin pins the given base64 SHA-256 key hashes. Every
// entry must decode to exactly 32 bytes.
func NewPublicKeyPin(b64Hashes ...string) (*PublicKeyPin, error) {
	if len(b64Hashes) == 0 {
		return nil, fmt.Errorf("%w: no public key hashes", ErrPolicyLoad)
	}

	p := PublicKeyPin{hashes: make(map[[sha256.Size]byte]struct{}, len(b64Hashes))}
	for i, h := range b64Hashes {
		raw, err := base64.StdEncoding.DecodeString(h)
		if err != nil {
			return nil, fmt.Errorf("%w: hash[%d]: %w", ErrPolicyLoad, i, err)
		}
		if len(raw) != sha256.Size {
			return nil, fmt.Errorf("%w: hash[%d]: want %d bytes, got %d", ErrPolicyLoad, i, sha256.Size, len(raw))
		}

		p.hashes[[sha256.Size]byte(raw)] = struct{}{}
	}

	return &p, nil
}

func (p *PublicKeyPin) Evaluate(chain []*x509.Certificate) error {
	if len(chain) == 0 || chain[0] == nil {
		return reject(ErrEmptyChain)
	}

	sum, err := HashPublicKey(chain[0])
	if err != nil {
		return reject(err)
	}

	if _, ok := p.hashes[sum]; !ok {
		return reject(ErrPinMismatch)
	}

	return nil
}

// HashPublicKey returns the SHA-256 digest of the certificate's public
// key in its external representation: PKCS#1 DER for RSA, the
// uncompressed point for ECDSA and the raw key for Ed25519.
func HashPublicKey(cert *x509.Certificate) ([sha256.Size]byte, error) {
	raw, err := externalKeyBytes(cert.PublicKey)
	if err != nil {
		return [sha256.Size]byte{}, err
	}

	return sha256.Sum256(raw), nil
}

// KeyHash is [HashPublicKey] encoded as base64, the form accepted by
// [NewPublicKeyPin].
func KeyHash(cert *x509.Certificate) (string, error) {
	sum, err := HashPublicKey(cert)
	if err != nil {
		return "", err
	}

	return base64.StdEncoding.EncodeToString(sum[:]), nil
}

func externalKeyBytes(pub any) ([]byte, error) {
	switch k := pub.(type) {
	case *rsa.PublicKey:
		return x509.MarshalPKCS1PublicKey(k), nil
	case *ecdsa.PublicKey:
		ek, err := k.ECDH()
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrKeyExtraction, err)
		}
		return ek.Bytes(), nil
	case ed25519.PublicKey:
		return []byte(k), nil
	default:
		return nil, fmt.Errorf("%w: unsupported key type %T", ErrKeyExtraction, pub)
	}
}
