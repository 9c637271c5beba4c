// Package apikey define los DTOs de emisión y listado de API keys.
package apikey

import "time"

type CreateRequest struct {
	Name string `json:"name"`
}

// CreatedResponse es la única respuesta que incluye la key en claro.
type CreatedResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Key       string    `json:"key"`
	CreatedAt time.Time `json:"created_at"`
}

type KeyInfo struct {
	ID         string     `json:"id"`
	Name       string     `json:"name"`
	CreatedAt  time.Time  `json:"created_at"`
	LastUsedAt *time.Time `json:"last_used_at,omitempty"`
}

type ListResponse struct {
	Keys []KeyInfo `json:"keys"`
}
