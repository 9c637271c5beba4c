// Package repository define las entidades del dominio y los contratos de
// persistencia de IssueHub. Las implementaciones viven en internal/store.
package repository
