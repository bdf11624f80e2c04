package tokenizer

import "github.com/golang-jwt/jwt/v5"

// SessionClaims are the registered claims of a session handle.
// Subject is left empty so the token never names the wallet.
type SessionClaims struct {
	jwt.RegisteredClaims
}
