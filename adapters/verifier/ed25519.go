package verifier

import (
	"crypto/ed25519"
	"encoding/base64"

	"github.com/mr-tron/base58"

	"github.com/jonasXchen/magicblock-hacker-house/ports"
)

// Ed25519Verifier checks signatures from Solana-style wallets.
// The wallet is a base58 public key and the signature is standard base64.
type Ed25519Verifier struct{}

// NewEd25519Verifier creates a new ed25519 verifier
func NewEd25519Verifier() ports.SignatureVerifier {
	return &Ed25519Verifier{}
}

// Verify reports whether signature is a valid ed25519 signature of message by walletIdentity
func (v *Ed25519Verifier) Verify(walletIdentity, signature, message string) bool {
	pub, err := base58.Decode(walletIdentity)
	if err != nil || len(pub) != ed25519.PublicKeySize {
		return false
	}
	sig, err := base64.StdEncoding.DecodeString(signature)
	if err != nil || len(sig) != ed25519.SignatureSize {
		return false
	}
	return ed25519.Verify(ed25519.PublicKey(pub), []byte(message), sig)
}
