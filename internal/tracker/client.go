// Package tracker es el wrapper del issue tracker externo (Jira Cloud):
// construcción de la URL de autorización, exchange code-por-token, refresh y
// las llamadas REST de issues. Sin estado local: cada método recibe lo que
// necesita y los errores remotos se propagan con su payload intacto.
package tracker

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	defaultAuthBase = "https://auth.atlassian.com"
	defaultAPIBase  = "https://api.atlassian.com"

	defaultTimeout = 15 * time.Second
)

// DefaultScopes son los scopes que pide el connect.
// offline_access es lo que habilita el refresh token.
var DefaultScopes = []string{"read:jira-work", "write:jira-work", "offline_access"}

// Client habla con el tracker. Crear con New.
type Client struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
	Scopes       []string

	// AuthBase y APIBase se sobreescriben sólo en tests.
	AuthBase string
	APIBase  string

	http *http.Client
}

// Config del cliente.
type Config struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
	Scopes       []string
	Timeout      time.Duration
}

func New(cfg Config) *Client {
	scopes := cfg.Scopes
	if len(scopes) == 0 {
		scopes = DefaultScopes
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		RedirectURL:  cfg.RedirectURL,
		Scopes:       scopes,
		AuthBase:     defaultAuthBase,
		APIBase:      defaultAPIBase,
		http:         &http.Client{Timeout: timeout},
	}
}

// AuthURL construye la URL de autorización con el state CSRF.
// prompt=consent fuerza la pantalla de consentimiento explícito.
func (c *Client) AuthURL(state string) string {
	u, _ := url.Parse(c.AuthBase + "/authorize")
	q := u.Query()
	q.Set("audience", "api.atlassian.com")
	q.Set("client_id", c.ClientID)
	q.Set("scope", strings.Join(c.Scopes, " "))
	q.Set("redirect_uri", c.RedirectURL)
	q.Set("state", state)
	q.Set("response_type", "code")
	q.Set("prompt", "consent")
	u.RawQuery = q.Encode()
	return u.String()
}

type tokenRequest struct {
	GrantType    string `json:"grant_type"`
	ClientID     string `json:"client_id"`
	ClientSecret string `json:"client_secret"`
	Code         string `json:"code,omitempty"`
	RedirectURI  string `json:"redirect_uri,omitempty"`
	RefreshToken string `json:"refresh_token,omitempty"`
}

// Exchange canjea el authorization code por un par de tokens. One-shot: un
// code usado no puede canjearse de nuevo.
func (c *Client) Exchange(ctx context.Context, code string) (*TokenSet, error) {
	return c.token(ctx, tokenRequest{
		GrantType:    "authorization_code",
		ClientID:     c.ClientID,
		ClientSecret: c.ClientSecret,
		Code:         code,
		RedirectURI:  c.RedirectURL,
	})
}

// Refresh obtiene un nuevo par de tokens a partir del refresh token.
// Mismo shape que Exchange.
func (c *Client) Refresh(ctx context.Context, refreshToken string) (*TokenSet, error) {
	return c.token(ctx, tokenRequest{
		GrantType:    "refresh_token",
		ClientID:     c.ClientID,
		ClientSecret: c.ClientSecret,
		RefreshToken: refreshToken,
	})
}

func (c *Client) token(ctx context.Context, body tokenRequest) (*TokenSet, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.AuthBase+"/oauth/token", bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if resp.StatusCode/100 != 2 {
		return nil, upstreamError(resp.StatusCode, raw)
	}

	var ts TokenSet
	if err := json.Unmarshal(raw, &ts); err != nil {
		return nil, fmt.Errorf("tracker: decode token response: %w", err)
	}
	if ts.AccessToken == "" {
		return nil, fmt.Errorf("tracker: token response without access_token")
	}
	return &ts, nil
}

// doJSON ejecuta una llamada autenticada y decodifica la respuesta en out.
func (c *Client) doJSON(ctx context.Context, method, fullURL, accessToken string, body any, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, fullURL, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if resp.StatusCode/100 != 2 {
		return upstreamError(resp.StatusCode, raw)
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("tracker: decode response: %w", err)
	}
	return nil
}

// upstreamError parsea el cuerpo de error estructurado del tracker
// ({errorMessages, errors}) y conserva el crudo siempre.
func upstreamError(status int, raw []byte) *UpstreamError {
	ue := &UpstreamError{StatusCode: status, Body: string(raw)}
	var parsed struct {
		ErrorMessages    []string          `json:"errorMessages"`
		Errors           map[string]string `json:"errors"`
		Error            string            `json:"error"`
		ErrorDescription string            `json:"error_description"`
	}
	if err := json.Unmarshal(raw, &parsed); err == nil {
		ue.ErrorMessages = parsed.ErrorMessages
		ue.FieldErrors = parsed.Errors
		// Shape OAuth ({error, error_description}) del endpoint de tokens.
		if parsed.Error != "" {
			msg := parsed.Error
			if parsed.ErrorDescription != "" {
				msg += ": " + parsed.ErrorDescription
			}
			ue.ErrorMessages = append(ue.ErrorMessages, msg)
		}
	}
	return ue
}
