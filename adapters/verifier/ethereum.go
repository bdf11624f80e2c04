package verifier

import (
	"encoding/base64"
	"strings"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/jonasXchen/magicblock-hacker-house/ports"
)

// EthereumVerifier checks personal_sign signatures from EVM wallets
type EthereumVerifier struct{}

// NewEthereumVerifier creates a new personal_sign verifier
func NewEthereumVerifier() ports.SignatureVerifier {
	return &EthereumVerifier{}
}

// Verify recovers the signer of message and compares it to walletIdentity
func (v *EthereumVerifier) Verify(walletIdentity, signature, message string) bool {
	if !common.IsHexAddress(walletIdentity) {
		return false
	}
	sig := decodeSignature(signature)
	if len(sig) != crypto.SignatureLength {
		return false
	}
	// personal_sign emits V as 27/28 only; SigToPub expects 0/1.
	switch sig[crypto.RecoveryIDOffset] {
	case 27, 28:
		sig[crypto.RecoveryIDOffset] -= 27
	default:
		return false
	}

	pub, err := crypto.SigToPub(accounts.TextHash([]byte(message)), sig)
	if err != nil {
		return false
	}
	recovered := crypto.PubkeyToAddress(*pub)
	return strings.EqualFold(recovered.Hex(), common.HexToAddress(walletIdentity).Hex())
}

// decodeSignature accepts 0x-hex as produced by personal_sign and falls back to base64.
func decodeSignature(signature string) []byte {
	if strings.HasPrefix(signature, "0x") {
		sig, err := hexutil.Decode(signature)
		if err != nil {
			return nil
		}
		return sig
	}
	sig, err := base64.StdEncoding.DecodeString(signature)
	if err != nil {
		return nil
	}
	return sig
}
