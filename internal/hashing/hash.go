// Package hashing computes content fingerprints for downloaded media.
package hashing

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"hash"
	"io"
	"os"
)

// Stream consumes r and returns the hex-encoded SHA-256 fingerprint and the
// number of bytes read. The payload is never buffered whole.
func Stream(r io.Reader) (fingerprint string, n int64, err error) {
	h := sha256.New()
	n, err = io.Copy(h, r)
	if err != nil {
		return "", n, fmt.Errorf("failed to hash stream: %w", err)
	}
	return hex.EncodeToString(h.Sum(nil)), n, nil
}

// File re-hashes an on-disk file using the same algorithm and encoding as
// Stream. Verification depends on the two matching exactly.
func File(path string) (fingerprint string, n int64, err error) {
	f, err := os.Open(path)
	if err != nil {
		return "", 0, err
	}
	defer f.Close()

	return Stream(f)
}

// Digest accumulates a fingerprint while bytes pass through a writer, used
// to tee downloads into a hash alongside the file write.
type Digest struct {
	h hash.Hash
	n int64
}

// NewDigest returns an empty accumulator.
func NewDigest() *Digest {
	return &Digest{h: sha256.New()}
}

// Write implements io.Writer.
func (d *Digest) Write(p []byte) (int, error) {
	n, err := d.h.Write(p)
	d.n += int64(n)
	return n, err
}

// Fingerprint returns the hex digest of everything written so far.
func (d *Digest) Fingerprint() string {
	return hex.EncodeToString(d.h.Sum(nil))
}

// Size returns the number of bytes written.
func (d *Digest) Size() int64 {
	return d.n
}
