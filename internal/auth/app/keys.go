package app

import (
	"crypto/ed25519"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"log/slog"
	"os"

	"github.com/D-Arox/BluFox-Studio-sub000/pkg/jwtx"
)

// InitSigningKey loads the Ed25519 signing key from the configured PEM
// file, or generates an ephemeral one when no path is set. Ephemeral keys
// invalidate all outstanding tokens on restart, which is acceptable for a
// single-instance site but logged loudly.
func InitSigningKey(cfg Config, logger *slog.Logger) (*jwtx.EdDSASigner, error) {
	if cfg.SigningKey != "" {
		pemBytes, err := os.ReadFile(cfg.SigningKey)
		if err != nil {
			return nil, fmt.Errorf("failed to read signing key: %w", err)
		}

		signer, err := jwtx.NewEdDSASignerFromPEM(kidForPEM(pemBytes), pemBytes)
		if err != nil {
			return nil, err
		}
		logger.Info("loaded signing key", "path", cfg.SigningKey, "kid", signer.KID())
		return signer, nil
	}

	_, key, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("failed to generate signing key: %w", err)
	}

	signer, err := jwtx.NewEdDSASigner(kidForKey(key.Public().(ed25519.PublicKey)), key)
	if err != nil {
		return nil, err
	}

	logger.Warn("using ephemeral signing key, tokens will not survive restart", "kid", signer.KID())
	return signer, nil
}

// kidForKey derives a stable key id from the public key bytes.
func kidForKey(pub ed25519.PublicKey) string {
	sum := sha256.Sum256(pub)
	return base64.RawURLEncoding.EncodeToString(sum[:8])
}

func kidForPEM(pemBytes []byte) string {
	sum := sha256.Sum256(pemBytes)
	return base64.RawURLEncoding.EncodeToString(sum[:8])
}
