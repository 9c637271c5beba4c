// Package tracker define los DTOs de la conexión al issue tracker.
package tracker

import "time"

type ConnectResponse struct {
	AuthorizationURL string `json:"authorization_url"`
}

type StatusResponse struct {
	IsConnected bool       `json:"is_connected"`
	SiteURL     string     `json:"site_url,omitempty"`
	ConnectedAt *time.Time `json:"connected_at,omitempty"`
}

type DisconnectResponse struct {
	Disconnected bool `json:"disconnected"`
}

type Project struct {
	ID   string `json:"id"`
	Key  string `json:"key"`
	Name string `json:"name"`
}

type ProjectsResponse struct {
	Projects []Project `json:"projects"`
}
