package ports

import "github.com/jonasXchen/magicblock-hacker-house/core"

// Tokenizer converts between sessions and opaque session tokens.
// Tokens reference a session by ID only and never carry the wallet.
type Tokenizer interface {
	SessionToToken(session *core.Session) (string, error)
	TokenToSessionID(token string) (string, error)
}
