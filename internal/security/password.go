// security реализует одностороннее хэширование секретов (пароли, refresh-токены)
// на Argon2id.
//
// Формат хэша — стандартная PHC-строка:
//
//	$argon2id$v=19$m=65536,t=1,p=4$<base64 salt>$<base64 key>
//
// Параметры при проверке берутся из самой строки, поэтому их можно менять,
// не инвалидируя ранее выданные хэши.
package security

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
)

// Параметры Argon2id по умолчанию (memory-hard, 64 MiB).
const (
	argonTime    = 1
	argonMemory  = 64 * 1024
	argonThreads = 4
	argonKeyLen  = 32
	saltLen      = 16
)

// HashSecret хэширует секрет с криптографически случайной солью.
// Результат недетерминирован: два вызова с одним и тем же входом дают разные строки.
func HashSecret(secret string) (string, error) {
	const op = "security.HashSecret"

	salt := make([]byte, saltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	key := argon2.IDKey([]byte(secret), salt, argonTime, argonMemory, argonThreads, argonKeyLen)

	encoded := fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version,
		argonMemory, argonTime, argonThreads,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key),
	)

	return encoded, nil
}

// VerifySecret сравнивает секрет с хэшем за константное время.
// На некорректный/пустой хэш не паникует и не возвращает ошибку — просто false.
func VerifySecret(secret, encoded string) bool {
	salt, key, m, t, p, ok := decodeHash(encoded)
	if !ok {
		return false
	}

	probe := argon2.IDKey([]byte(secret), salt, t, m, p, uint32(len(key)))

	return subtle.ConstantTimeCompare(key, probe) == 1
}

// decodeHash разбирает PHC-строку Argon2id.
func decodeHash(encoded string) (salt, key []byte, m, t uint32, p uint8, ok bool) {
	parts := strings.Split(encoded, "$")
	if len(parts) != 6 || parts[0] != "" || parts[1] != "argon2id" {
		return nil, nil, 0, 0, 0, false
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil || version != argon2.Version {
		return nil, nil, 0, 0, 0, false
	}

	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &m, &t, &p); err != nil {
		return nil, nil, 0, 0, 0, false
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil || len(salt) == 0 {
		return nil, nil, 0, 0, 0, false
	}

	key, err = base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil || len(key) == 0 {
		return nil, nil, 0, 0, 0, false
	}

	return salt, key, m, t, p, true
}
