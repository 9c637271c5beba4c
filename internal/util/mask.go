// Package util agrupa helpers chicos sin dependencias de dominio.
package util

import "strings"

// MaskEmail reduce un email a una forma segura para logs: conserva la primera
// letra del usuario y del dominio. "ana@example.com" -> "a…@e…com".
func MaskEmail(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	i := strings.IndexByte(s, '@')
	if i <= 0 {
		if s == "" {
			return ""
		}
		if len(s) <= 3 {
			return "***"
		}
		return s[:1] + "…" + s[len(s)-1:]
	}
	user, dom := s[:i], s[i+1:]
	if len(user) > 1 {
		user = user[:1] + "…"
	}
	dparts := strings.Split(dom, ".")
	if len(dparts) > 0 && len(dparts[0]) > 1 {
		dparts[0] = dparts[0][:1] + "…"
	}
	return user + "@" + strings.Join(dparts, ".")
}

// MaskKey deja visible solo el prefijo de una API key ("ih_abc…").
func MaskKey(s string) string {
	if len(s) <= 6 {
		return "***"
	}
	return s[:6] + "…"
}
