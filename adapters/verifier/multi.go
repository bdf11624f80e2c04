package verifier

import (
	"strings"

	"github.com/jonasXchen/magicblock-hacker-house/ports"
)

// MultiVerifier dispatches on the wallet format: 0x-prefixed wallets use
// personal_sign, everything else ed25519.
type MultiVerifier struct {
	ed25519  ports.SignatureVerifier
	ethereum ports.SignatureVerifier
}

// NewMultiVerifier creates a verifier accepting both wallet families
func NewMultiVerifier() ports.SignatureVerifier {
	return &MultiVerifier{
		ed25519:  NewEd25519Verifier(),
		ethereum: NewEthereumVerifier(),
	}
}

func (v *MultiVerifier) Verify(walletIdentity, signature, message string) bool {
	if strings.HasPrefix(walletIdentity, "0x") {
		return v.ethereum.Verify(walletIdentity, signature, message)
	}
	return v.ed25519.Verify(walletIdentity, signature, message)
}
