package tokens

import (
	"crypto/ed25519"
	"crypto/rand"
	"crypto/x509"
	"encoding/pem"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func testCodec(t *testing.T) *Codec {
	t.Helper()

	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)

	return NewCodec(Config{
		PrivateKey: priv,
		PublicKey:  pub,
		Issuer:     "auth-service",
		AccessTTL:  time.Minute,
		RefreshTTL: 24 * time.Hour,
	})
}

func TestCodec_AccessRoundTrip(t *testing.T) {
	t.Parallel()

	c := testCodec(t)
	now := time.Now().UTC()

	signed, exp, err := c.EncodeAccess("user-123", map[string]any{"email": "u@e.com", "tier": "free"}, now)
	require.NoError(t, err)
	require.WithinDuration(t, now.Add(time.Minute), exp, time.Second)

	p, err := c.Decode(signed)
	require.NoError(t, err)
	require.Equal(t, "user-123", p.Subject)
	require.Equal(t, TypeAccess, p.Type)
	require.Equal(t, "u@e.com", p.Claims["email"])
	require.Equal(t, "free", p.Claims["tier"])
	require.WithinDuration(t, now, p.IssuedAt, time.Second)
	require.WithinDuration(t, exp, p.ExpiresAt, time.Second)
}

func TestCodec_RefreshRoundTrip(t *testing.T) {
	t.Parallel()

	c := testCodec(t)
	now := time.Now().UTC()

	signed, err := c.EncodeRefresh("user-123", now)
	require.NoError(t, err)

	p, err := c.Decode(signed)
	require.NoError(t, err)
	require.Equal(t, "user-123", p.Subject)
	require.Equal(t, TypeRefresh, p.Type)
	require.Empty(t, p.Claims)
}

func TestCodec_WrongKeyFails(t *testing.T) {
	t.Parallel()

	c1 := testCodec(t)
	c2 := testCodec(t)

	signed, _, err := c1.EncodeAccess("user-123", nil, time.Now().UTC())
	require.NoError(t, err)

	_, err = c2.Decode(signed)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestCodec_ExpiredFails(t *testing.T) {
	t.Parallel()

	c := testCodec(t)

	// iat в прошлом за пределами TTL и leeway.
	signed, _, err := c.EncodeAccess("user-123", nil, time.Now().UTC().Add(-time.Hour))
	require.NoError(t, err)

	_, err = c.Decode(signed)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestCodec_MalformedFails(t *testing.T) {
	t.Parallel()

	c := testCodec(t)

	for _, tok := range []string{"", "garbage", "a.b.c", "eyJhbGciOiJub25lIn0.e30."} {
		_, err := c.Decode(tok)
		require.ErrorIs(t, err, ErrInvalidToken, "token: %q", tok)
	}
}

func TestCodec_ReservedClaimsNotOverridable(t *testing.T) {
	t.Parallel()

	c := testCodec(t)
	now := time.Now().UTC()

	signed, _, err := c.EncodeAccess("real-subject", map[string]any{
		"sub":  "spoofed",
		"type": TypeRefresh,
		"tier": "pro",
	}, now)
	require.NoError(t, err)

	p, err := c.Decode(signed)
	require.NoError(t, err)
	require.Equal(t, "real-subject", p.Subject)
	require.Equal(t, TypeAccess, p.Type)
	require.Equal(t, "pro", p.Claims["tier"])
}

func TestLoadKeys_OK(t *testing.T) {
	t.Parallel()

	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)

	dir := t.TempDir()

	privDER, err := x509.MarshalPKCS8PrivateKey(priv)
	require.NoError(t, err)
	privPath := filepath.Join(dir, "private.pem")
	require.NoError(t, os.WriteFile(privPath,
		pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: privDER}), 0o600))

	pubDER, err := x509.MarshalPKIXPublicKey(pub)
	require.NoError(t, err)
	pubPath := filepath.Join(dir, "public.pem")
	require.NoError(t, os.WriteFile(pubPath,
		pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: pubDER}), 0o600))

	gotPriv, gotPub, err := LoadKeys(privPath, pubPath)
	require.NoError(t, err)
	require.True(t, priv.Equal(gotPriv))
	require.True(t, pub.Equal(gotPub))

	// Ключи из файлов должны работать в кодеке.
	c := NewCodec(Config{PrivateKey: gotPriv, PublicKey: gotPub, AccessTTL: time.Minute})
	signed, _, err := c.EncodeAccess("user-123", nil, time.Now().UTC())
	require.NoError(t, err)
	_, err = c.Decode(signed)
	require.NoError(t, err)
}

func TestLoadKeys_MissingFile(t *testing.T) {
	t.Parallel()

	_, _, err := LoadKeys("no-such-private.pem", "no-such-public.pem")
	require.Error(t, err)
}
