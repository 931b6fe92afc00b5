package cryptox

import (
	"encoding/hex"

	"golang.org/x/crypto/blake2b"
)

// DeviceFingerprint derives a stable digest from the request headers that
// characterise a browser install: User-Agent, Accept-Language and
// Accept-Encoding. The digest is compared on remember-me validation to spot
// a cookie presented from a different device.
//
// BLAKE2b is used rather than SHA-256 purely for speed; the value is an
// equality check, not a stored secret.
func DeviceFingerprint(userAgent, acceptLanguage, acceptEncoding string) string {
	sum := blake2b.Sum256([]byte(userAgent + "\x00" + acceptLanguage + "\x00" + acceptEncoding))
	return hex.EncodeToString(sum[:16])
}
