// Package payload encodes credential identifiers into the compact,
// self-checking strings printed on certificates and embedded in QR codes.
//
// FORMAT
// ──────
//
//	<credentialId>.<checksum>
//
// checksum is the low 32 bits of an xxhash64 over a versioned prefix plus
// the identifier, written as 8 lower-case hex characters. Decoding needs
// no database or network access, so a verifier can reject a mistyped or
// damaged code before a lookup is attempted.
package payload

import (
	"fmt"
	"strings"

	"github.com/aanand-mishra/degree-registry/internal/types"

	"github.com/cespare/xxhash/v2"
	"github.com/skip2/go-qrcode"
)

const (
	separator   = "."
	checksumLen = 8
	hashPrefix  = "degree-payload:v1:"
)

// Encode returns the payload for credentialID. The same id always yields
// the same payload.
func Encode(credentialID string) string {
	return credentialID + separator + checksum(credentialID)
}

// Decode recovers the credential id from p. Any structural problem or a
// checksum mismatch returns an error wrapping types.ErrMalformed.
func Decode(p string) (string, error) {
	p = strings.TrimSpace(p)

	idx := strings.LastIndex(p, separator)
	if idx < 0 {
		return "", fmt.Errorf("missing checksum separator: %w", types.ErrMalformed)
	}

	id, sum := p[:idx], p[idx+1:]
	if id == "" {
		return "", fmt.Errorf("empty credential id: %w", types.ErrMalformed)
	}
	if len(sum) != checksumLen {
		return "", fmt.Errorf("checksum must be %d characters: %w", checksumLen, types.ErrMalformed)
	}
	if sum != checksum(id) {
		return "", fmt.Errorf("checksum mismatch: %w", types.ErrMalformed)
	}
	return id, nil
}

// IsPayload reports whether s looks like an encoded payload rather than a
// raw credential id. Credential ids are UUIDs and never contain the
// separator.
func IsPayload(s string) bool {
	return strings.Contains(s, separator)
}

// QRCode renders p as a PNG image of size×size pixels.
func QRCode(p string, size int) ([]byte, error) {
	png, err := qrcode.Encode(p, qrcode.Medium, size)
	if err != nil {
		return nil, fmt.Errorf("payload.QRCode: %w", err)
	}
	return png, nil
}

func checksum(id string) string {
	return fmt.Sprintf("%08x", uint32(xxhash.Sum64String(hashPrefix+id)))
}
