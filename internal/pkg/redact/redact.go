// redact прячет чувствительные значения в логах: адреса, токены, пароли.
// Всё, что попадает в структурированный лог, проходит через этот пакет.
package redact

import "strings"

// Email маскирует локальную часть адреса, сохраняя домен:
// "foobar@example.com" -> "fo***@example.com". Невалидный адрес
// маскируется целиком. Локальная часть считается в рунах, чтобы не
// резать многобайтовые символы посередине.
func Email(s string) string {
	parts := strings.Split(s, "@")
	if len(parts) != 2 {
		return "***"
	}

	local, domain := []rune(parts[0]), parts[1]
	masked := "***"
	if len(local) > 2 {
		masked = string(local[:2]) + "***"
	}

	return masked + "@" + domain
}

func Token() string    { return "[REDACTED_TOKEN]" }
func Password() string { return "[REDACTED_PASSWORD]" }
