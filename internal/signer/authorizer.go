package signer

import (
	"crypto/ed25519"
	"encoding/hex"
	"fmt"

	"github.com/MJE43/nearkarts-go/internal/kart"
)

// Verify checks a hex encoded ed25519 signature over the UTF-8 bytes of
// message. Input that is not valid hex or has the wrong length fails with
// kart.ErrSignatureMalformed; a well formed signature that does not match
// returns false.
func Verify(message, signatureHex, publicKeyHex string) (bool, error) {
	sig, err := hex.DecodeString(signatureHex)
	if err != nil {
		return false, fmt.Errorf("%w: signature: %v", kart.ErrSignatureMalformed, err)
	}
	if len(sig) != ed25519.SignatureSize {
		return false, fmt.Errorf("%w: signature is %d bytes", kart.ErrSignatureMalformed, len(sig))
	}
	pub, err := hex.DecodeString(publicKeyHex)
	if err != nil {
		return false, fmt.Errorf("%w: public key: %v", kart.ErrSignatureMalformed, err)
	}
	if len(pub) != ed25519.PublicKeySize {
		return false, fmt.Errorf("%w: public key is %d bytes", kart.ErrSignatureMalformed, len(pub))
	}
	return ed25519.Verify(ed25519.PublicKey(pub), []byte(message), sig), nil
}

// Authorize verifies the signature and folds a mismatch into
// kart.ErrSignatureVerification.
func Authorize(message, signatureHex, publicKeyHex string) error {
	ok, err := Verify(message, signatureHex, publicKeyHex)
	if err != nil {
		return err
	}
	if !ok {
		return kart.ErrSignatureVerification
	}
	return nil
}

// Sign produces the hex signature Verify accepts.
func Sign(priv ed25519.PrivateKey, message string) string {
	return hex.EncodeToString(ed25519.Sign(priv, []byte(message)))
}

// PublicKeyHex renders the public half of priv.
func PublicKeyHex(priv ed25519.PrivateKey) string {
	return hex.EncodeToString(priv.Public().(ed25519.PublicKey))
}

// ParsePrivateKey accepts a hex encoded 32-byte seed or 64-byte private key.
func ParsePrivateKey(s string) (ed25519.PrivateKey, error) {
	raw, err := hex.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("signer: decode private key: %w", err)
	}
	switch len(raw) {
	case ed25519.SeedSize:
		return ed25519.NewKeyFromSeed(raw), nil
	case ed25519.PrivateKeySize:
		return ed25519.PrivateKey(raw), nil
	default:
		return nil, fmt.Errorf("signer: private key is %d bytes", len(raw))
	}
}
