// Package validation implementa validación declarativa de requests: cada
// regla registra una violación en lugar de cortar en la primera falla, y el
// resultado lista TODAS las violaciones con el campo que las produjo.
package validation

import (
	"fmt"
	"regexp"
	"strings"
)

// Violation es una regla incumplida sobre un campo puntual.
type Violation struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Checker acumula violaciones sobre un request. Zero value usable.
type Checker struct {
	violations []Violation
}

// Add registra una violación arbitraria.
func (c *Checker) Add(field, format string, args ...any) {
	c.violations = append(c.violations, Violation{Field: field, Message: fmt.Sprintf(format, args...)})
}

// Required exige un string no vacío (espacios no cuentan).
func (c *Checker) Required(field, value string) {
	if strings.TrimSpace(value) == "" {
		c.Add(field, "es requerido")
	}
}

// MaxLen exige largo máximo en runas, sólo si el valor no está vacío.
func (c *Checker) MaxLen(field, value string, max int) {
	if value != "" && len([]rune(value)) > max {
		c.Add(field, "supera el máximo de %d caracteres", max)
	}
}

// MinLen exige largo mínimo en runas, sólo si el valor no está vacío.
func (c *Checker) MinLen(field, value string, min int) {
	if value != "" && len([]rune(value)) < min {
		c.Add(field, "requiere al menos %d caracteres", min)
	}
}

// OneOf exige pertenencia a un conjunto cerrado, sólo si el valor no está vacío.
func (c *Checker) OneOf(field, value string, allowed ...string) {
	if value == "" {
		return
	}
	for _, a := range allowed {
		if value == a {
			return
		}
	}
	c.Add(field, "debe ser uno de: %s", strings.Join(allowed, ", "))
}

// Deliberadamente permisivo: RFC 5322 completo no vale los falsos negativos.
var emailRe = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

// Email exige formato de email plausible, sólo si el valor no está vacío.
func (c *Checker) Email(field, value string) {
	if value != "" && !emailRe.MatchString(value) {
		c.Add(field, "no es un email válido")
	}
}

// Err devuelve un *Error con todas las violaciones acumuladas, o nil si no hay.
func (c *Checker) Err() error {
	if len(c.violations) == 0 {
		return nil
	}
	return &Error{Violations: c.violations}
}

// Error agrupa las violaciones de un request. Implementa error.
type Error struct {
	Violations []Violation
}

func (e *Error) Error() string {
	parts := make([]string, 0, len(e.Violations))
	for _, v := range e.Violations {
		parts = append(parts, v.Field+": "+v.Message)
	}
	return "validation: " + strings.Join(parts, "; ")
}
