package tracker

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

// AccessibleResources resuelve el workspace del usuario. Si el token no da
// acceso a ningún site retorna ErrNoAccessibleWorkspace.
func (c *Client) AccessibleResources(ctx context.Context, accessToken string) (*Workspace, error) {
	var sites []Workspace
	err := c.doJSON(ctx, http.MethodGet, c.APIBase+"/oauth/token/accessible-resources", accessToken, nil, &sites)
	if err != nil {
		return nil, err
	}
	if len(sites) == 0 {
		return nil, ErrNoAccessibleWorkspace
	}
	// Con múltiples sites autorizados nos quedamos con el primero: el
	// modelo es una sola conexión por usuario.
	return &sites[0], nil
}

func (c *Client) apiURL(cloudID, path string) string {
	return fmt.Sprintf("%s/ex/jira/%s/rest/api/3%s", c.APIBase, cloudID, path)
}

// ListProjects lista los proyectos visibles para el token.
func (c *Client) ListProjects(ctx context.Context, accessToken, cloudID string) ([]Project, error) {
	var out struct {
		Values []Project `json:"values"`
	}
	err := c.doJSON(ctx, http.MethodGet, c.apiURL(cloudID, "/project/search?maxResults=100"), accessToken, nil, &out)
	if err != nil {
		return nil, err
	}
	return out.Values, nil
}

// GetProjectSchema trae el create-meta de un proyecto (tipos de issue válidos).
func (c *Client) GetProjectSchema(ctx context.Context, accessToken, cloudID, projectKey string) (*ProjectSchema, error) {
	var out struct {
		Projects []ProjectSchema `json:"projects"`
	}
	u := c.apiURL(cloudID, "/issue/createmeta?projectKeys="+url.QueryEscape(projectKey))
	if err := c.doJSON(ctx, http.MethodGet, u, accessToken, nil, &out); err != nil {
		return nil, err
	}
	if len(out.Projects) == 0 {
		return nil, &UpstreamError{
			StatusCode:    http.StatusNotFound,
			ErrorMessages: []string{fmt.Sprintf("project %q not found or not visible", projectKey)},
		}
	}
	return &out.Projects[0], nil
}

// CreateIssue crea un issue. La descripción en texto plano se envía como
// documento ADF mínimo (el API v3 no acepta strings planos).
func (c *Client) CreateIssue(ctx context.Context, accessToken, cloudID string, fields IssueFields) (*CreatedIssue, error) {
	issueType := fields.IssueType
	if issueType == "" {
		issueType = "Task"
	}

	f := map[string]any{
		"project":   map[string]string{"key": fields.ProjectKey},
		"summary":   fields.Summary,
		"issuetype": map[string]string{"name": issueType},
	}
	if fields.Description != "" {
		f["description"] = adfDocument(fields.Description)
	}
	if fields.Priority != "" {
		f["priority"] = map[string]string{"name": fields.Priority}
	}
	if len(fields.Labels) > 0 {
		f["labels"] = fields.Labels
	}

	var created CreatedIssue
	err := c.doJSON(ctx, http.MethodPost, c.apiURL(cloudID, "/issue"), accessToken,
		map[string]any{"fields": f}, &created)
	if err != nil {
		return nil, err
	}
	return &created, nil
}

// SearchIssues ejecuta una búsqueda JQL.
func (c *Client) SearchIssues(ctx context.Context, accessToken, cloudID, jql string, maxResults int) (*SearchResult, error) {
	if maxResults <= 0 || maxResults > 100 {
		maxResults = 50
	}
	body := map[string]any{
		"jql":        jql,
		"maxResults": maxResults,
		"fields":     []string{"summary", "status", "created"},
	}
	var out SearchResult
	if err := c.doJSON(ctx, http.MethodPost, c.apiURL(cloudID, "/search"), accessToken, body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// BrowseURL arma la URL humana de un issue en el site conectado.
func BrowseURL(siteURL, issueKey string) string {
	return strings.TrimRight(siteURL, "/") + "/browse/" + issueKey
}

// adfDocument envuelve texto plano en un documento ADF de un solo párrafo
// por línea.
func adfDocument(text string) map[string]any {
	lines := strings.Split(text, "\n")
	content := make([]map[string]any, 0, len(lines))
	for _, line := range lines {
		para := map[string]any{"type": "paragraph"}
		if line != "" {
			para["content"] = []map[string]any{{"type": "text", "text": line}}
		}
		content = append(content, para)
	}
	return map[string]any{
		"type":    "doc",
		"version": 1,
		"content": content,
	}
}
