package tokenizer

import (
	"encoding/base64"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonasXchen/magicblock-hacker-house/core"
)

var secret = []byte("test-secret-0123456789abcdef0123")

func testSession(ttl time.Duration) *core.Session {
	now := time.Now()
	return &core.Session{
		ID:             "3f0b1c9a-sess",
		WalletIdentity: "9xQeWvG816bUx9EPjHmaT23yvVM2ZWbrrpZb9PusVFin",
		IssuedAt:       now,
		ExpiresAt:      now.Add(ttl),
	}
}

func TestJWTTokenizer_RoundTrip(t *testing.T) {
	tk := NewJWTTokenizer(secret)
	session := testSession(time.Hour)

	token, err := tk.SessionToToken(session)
	require.NoError(t, err)

	id, err := tk.TokenToSessionID(token)
	require.NoError(t, err)
	assert.Equal(t, session.ID, id)
}

func TestJWTTokenizer_TokenCarriesNoWallet(t *testing.T) {
	tk := NewJWTTokenizer(secret)
	session := testSession(time.Hour)

	token, err := tk.SessionToToken(session)
	require.NoError(t, err)

	parts := strings.Split(token, ".")
	require.Len(t, parts, 3)
	payload, err := base64.RawURLEncoding.DecodeString(parts[1])
	require.NoError(t, err)
	assert.NotContains(t, string(payload), session.WalletIdentity)
	assert.NotContains(t, string(payload), `"sub"`)
}

func TestJWTTokenizer_Rejects(t *testing.T) {
	tk := NewJWTTokenizer(secret)

	t.Run("empty", func(t *testing.T) {
		_, err := tk.TokenToSessionID("")
		assert.ErrorIs(t, err, core.ErrInvalidToken)
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := tk.TokenToSessionID("not.a.token")
		assert.ErrorIs(t, err, core.ErrInvalidToken)
	})

	t.Run("expired", func(t *testing.T) {
		s := testSession(-time.Minute)
		token, err := tk.SessionToToken(s)
		require.NoError(t, err)
		_, err = tk.TokenToSessionID(token)
		assert.ErrorIs(t, err, core.ErrSessionExpired)
	})

	t.Run("other secret", func(t *testing.T) {
		token, err := NewJWTTokenizer([]byte("another-secret")).SessionToToken(testSession(time.Hour))
		require.NoError(t, err)
		_, err = tk.TokenToSessionID(token)
		assert.ErrorIs(t, err, core.ErrInvalidToken)
	})

	t.Run("wrong audience", func(t *testing.T) {
		claims := jwt.RegisteredClaims{
			ID:        "s1",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
			Audience:  jwt.ClaimStrings{"someone-else"},
		}
		token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
		require.NoError(t, err)
		_, err = tk.TokenToSessionID(token)
		assert.ErrorIs(t, err, core.ErrInvalidToken)
	})

	t.Run("no expiry", func(t *testing.T) {
		claims := jwt.RegisteredClaims{ID: "s1", Audience: jwt.ClaimStrings{AudienceSession}}
		token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
		require.NoError(t, err)
		_, err = tk.TokenToSessionID(token)
		assert.ErrorIs(t, err, core.ErrInvalidToken)
	})

	t.Run("unsigned", func(t *testing.T) {
		claims := jwt.RegisteredClaims{
			ID:        "s1",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
			Audience:  jwt.ClaimStrings{AudienceSession},
		}
		token, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
		require.NoError(t, err)
		_, err = tk.TokenToSessionID(token)
		assert.ErrorIs(t, err, core.ErrInvalidToken)
	})
}

func TestJWTTokenizer_ExpiryMatchesSession(t *testing.T) {
	session := testSession(time.Hour)
	session.ExpiresAt = session.ExpiresAt.Truncate(time.Second)

	token, err := NewJWTTokenizer(secret).SessionToToken(session)
	require.NoError(t, err)

	claims := &SessionClaims{}
	_, _, err = jwt.NewParser().ParseUnverified(token, claims)
	require.NoError(t, err)
	assert.True(t, claims.ExpiresAt.Time.Equal(session.ExpiresAt))
}
