package download

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"hash"
)

// checksum hashes the body as it is written and compares the digest
// with want once the copy completes.
type checksum struct {
	h    hash.Hash
	want []byte
}

func newChecksum(h hash.Hash, expectedHex string) (*checksum, error) {
	want, err := hex.DecodeString(expectedHex)
	if err != nil {
		return nil, fmt.Errorf("expected checksum is not hex: %w", err)
	}
	if len(want) != h.Size() {
		return nil, fmt.Errorf("expected checksum has %d bytes, hash produces %d", len(want), h.Size())
	}

	h.Reset()

	return &checksum{h: h, want: want}, nil
}

func (c *checksum) Write(p []byte) (int, error) { return c.h.Write(p) }

// verify is a no-op on a nil checksum.
func (c *checksum) verify() error {
	if c == nil {
		return nil
	}

	got := c.h.Sum(nil)
	if !bytes.Equal(got, c.want) {
		return &Error{
			Err:    ErrChecksumMismatch,
			Detail: fmt.Sprintf("expected %x, got %x", c.want, got),
		}
	}

	return nil
}
