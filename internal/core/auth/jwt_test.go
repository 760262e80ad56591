package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestIssueParse(t *testing.T) {
	j := &JWTer{Secret: []byte("s1"), Issuer: "library", TTL: time.Hour}

	tok, err := j.Issue(42, "admin")
	require.NoError(t, err)

	claims, err := j.Parse(tok)
	require.NoError(t, err)
	require.EqualValues(t, 42, claims.UID)
	require.Equal(t, "admin", claims.Role)
}

func TestParseRejectsWrongSecret(t *testing.T) {
	a := &JWTer{Secret: []byte("s1"), Issuer: "library", TTL: time.Hour}
	b := &JWTer{Secret: []byte("s2"), Issuer: "library", TTL: time.Hour}

	tok, err := a.Issue(1, "user")
	require.NoError(t, err)
	_, err = b.Parse(tok)
	require.Error(t, err)
}

func TestParseRejectsExpired(t *testing.T) {
	// 负 TTL 直接签出过期 token（超过 60s 的宽限）
	j := &JWTer{Secret: []byte("s1"), Issuer: "library", TTL: -2 * time.Minute}

	tok, err := j.Issue(1, "user")
	require.NoError(t, err)
	_, err = j.Parse(tok)
	require.Error(t, err)
}

func TestParseRejectsWrongIssuer(t *testing.T) {
	a := &JWTer{Secret: []byte("s1"), Issuer: "other-app", TTL: time.Hour}
	b := &JWTer{Secret: []byte("s1"), Issuer: "library", TTL: time.Hour}

	tok, err := a.Issue(1, "user")
	require.NoError(t, err)
	_, err = b.Parse(tok)
	require.Error(t, err)
}
