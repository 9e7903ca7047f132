// tokens реализует кодек подписанных токенов (JWT, EdDSA/Ed25519).
//
// Кодек самодостаточен: подпись — приватным ключом, проверка — публичным,
// поэтому другие сервисы могут валидировать токены, не владея секретом подписи.
// Ключи и TTL передаются явным Config при конструировании — без глобального
// состояния, в тестах подменяются на сгенерированные in-memory ключи.
//
// Payload содержит обязательные поля (sub, iat, exp, type) и открытую карту
// дополнительных claims; их семантику кодек не проверяет — это делает
// потребляющий слой (service).
package tokens

import (
	"crypto/ed25519"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrInvalidToken — токен не прошёл проверку: битая подпись, просроченный exp
// или некорректная структура. Причина намеренно не различается, чтобы ответ
// не служил оракулом для перебора.
var ErrInvalidToken = errors.New("invalid token")

// Типы токенов, встраиваемые в claim "type".
const (
	TypeAccess  = "access"
	TypeRefresh = "refresh"
)

// Зарегистрированные поля payload; всё прочее при декодировании попадает в Claims.
var registeredClaims = map[string]struct{}{
	"sub": {}, "iat": {}, "exp": {}, "iss": {}, "type": {},
}

// Config — параметры выпуска и проверки токенов.
type Config struct {
	PrivateKey ed25519.PrivateKey
	PublicKey  ed25519.PublicKey
	Issuer     string
	AccessTTL  time.Duration
	RefreshTTL time.Duration
}

// Payload — типизированное содержимое проверенного токена.
type Payload struct {
	Subject   string
	Type      string
	IssuedAt  time.Time
	ExpiresAt time.Time
	// Claims — дополнительные claims, заданные при выпуске (например email, tier).
	Claims map[string]any
}

// Codec выпускает и проверяет подписанные токены. Потокобезопасен.
type Codec struct {
	cfg Config
}

// NewCodec создаёт кодек с заданными ключами и TTL.
func NewCodec(cfg Config) *Codec {
	return &Codec{cfg: cfg}
}

// EncodeAccess выпускает короткоживущий access-токен с дополнительными claims.
// Возвращает токен и момент его истечения.
func (c *Codec) EncodeAccess(subject string, claims map[string]any, now time.Time) (string, time.Time, error) {
	const op = "tokens.EncodeAccess"

	exp := now.Add(c.cfg.AccessTTL)

	signed, err := c.encode(subject, TypeAccess, claims, now, exp)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("%s: %w", op, err)
	}

	return signed, exp, nil
}

// EncodeRefresh выпускает долгоживущий refresh-токен (без дополнительных claims).
func (c *Codec) EncodeRefresh(subject string, now time.Time) (string, error) {
	const op = "tokens.EncodeRefresh"

	signed, err := c.encode(subject, TypeRefresh, nil, now, now.Add(c.cfg.RefreshTTL))
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	return signed, nil
}

func (c *Codec) encode(subject, typ string, claims map[string]any, now, exp time.Time) (string, error) {
	mc := jwt.MapClaims{}

	for k, v := range claims {
		if _, reserved := registeredClaims[k]; reserved {
			continue
		}
		mc[k] = v
	}

	mc["sub"] = subject
	mc["iat"] = jwt.NewNumericDate(now)
	mc["exp"] = jwt.NewNumericDate(exp)
	mc["type"] = typ
	if c.cfg.Issuer != "" {
		mc["iss"] = c.cfg.Issuer
	}

	token := jwt.NewWithClaims(jwt.SigningMethodEdDSA, mc)

	return token.SignedString(c.cfg.PrivateKey)
}

// Decode проверяет подпись и срок действия токена и возвращает payload.
// Любая причина отказа (подпись/exp/структура) — единый ErrInvalidToken.
func (c *Codec) Decode(tokenStr string) (*Payload, error) {
	const op = "tokens.Decode"

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodEdDSA.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(5 * time.Second),
	}
	if c.cfg.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(c.cfg.Issuer))
	}

	mc := jwt.MapClaims{}
	token, err := jwt.ParseWithClaims(tokenStr, mc,
		func(t *jwt.Token) (interface{}, error) {
			return c.cfg.PublicKey, nil
		},
		opts...,
	)
	if err != nil || !token.Valid {
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidToken)
	}

	sub, err := mc.GetSubject()
	if err != nil || sub == "" {
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidToken)
	}

	iat, err := mc.GetIssuedAt()
	if err != nil || iat == nil {
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidToken)
	}

	exp, err := mc.GetExpirationTime()
	if err != nil || exp == nil {
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidToken)
	}

	typ, ok := mc["type"].(string)
	if !ok || typ == "" {
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidToken)
	}

	extra := make(map[string]any)
	for k, v := range mc {
		if _, reserved := registeredClaims[k]; reserved {
			continue
		}
		extra[k] = v
	}

	return &Payload{
		Subject:   sub,
		Type:      typ,
		IssuedAt:  iat.Time.UTC(),
		ExpiresAt: exp.Time.UTC(),
		Claims:    extra,
	}, nil
}
