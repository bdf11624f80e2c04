package ports

// SignatureVerifier checks a detached signature over a message.
// Malformed inputs verify as false rather than erroring.
type SignatureVerifier interface {
	Verify(walletIdentity, signature, message string) bool
}
