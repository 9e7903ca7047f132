package tokens

import (
	"crypto/ed25519"
	"fmt"
	"os"

	"github.com/golang-jwt/jwt/v5"
)

// LoadKeys читает пару ключей Ed25519 из PEM-файлов (PKCS#8/PKIX).
// Вызывается один раз при старте; результат передаётся в Config кодека.
func LoadKeys(privateKeyPath, publicKeyPath string) (ed25519.PrivateKey, ed25519.PublicKey, error) {
	const op = "tokens.LoadKeys"

	privPEM, err := os.ReadFile(privateKeyPath)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: read private key: %w", op, err)
	}

	priv, err := jwt.ParseEdPrivateKeyFromPEM(privPEM)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: parse private key: %w", op, err)
	}

	edPriv, ok := priv.(ed25519.PrivateKey)
	if !ok {
		return nil, nil, fmt.Errorf("%s: private key is not ed25519", op)
	}

	pubPEM, err := os.ReadFile(publicKeyPath)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: read public key: %w", op, err)
	}

	pub, err := jwt.ParseEdPublicKeyFromPEM(pubPEM)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: parse public key: %w", op, err)
	}

	edPub, ok := pub.(ed25519.PublicKey)
	if !ok {
		return nil, nil, fmt.Errorf("%s: public key is not ed25519", op)
	}

	return edPriv, edPub, nil
}
