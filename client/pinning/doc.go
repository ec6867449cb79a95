// Package pinning evaluates a server's certificate chain against a
// pinned leaf certificate or a set of pinned public-key hashes.
//
// A [Policy] is installed into a [tls.Config] with [TLSConfig], where it
// runs once per TLS handshake, before any request bytes are sent:
//
//	pin, err := pinning.NewPublicKeyPin("R3vE2…base64…=")
//	cfg := pinning.TLSConfig(nil, pin)
//	transport := &http.Transport{TLSClientConfig: cfg}
//
// A rejected handshake surfaces as an error wrapping [ErrTrustEvaluation].
// Public-key hashes are the base64 SHA-256 digest of the key's external
// representation; [KeyHash] computes one from a certificate.
package pinning
