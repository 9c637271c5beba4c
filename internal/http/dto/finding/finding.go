// Package finding define los DTOs del endpoint de findings (clientes máquina).
package finding

type CreateRequest struct {
	ProjectKey  string   `json:"project_key"`
	Summary     string   `json:"summary"`
	Description string   `json:"description"`
	IssueType   string   `json:"issue_type,omitempty"`
	Priority    string   `json:"priority,omitempty"`
	Labels      []string `json:"labels,omitempty"`
}

type Ticket struct {
	ID  string `json:"id"`
	Key string `json:"key"`
	URL string `json:"url"`
}

type CreateResponse struct {
	Success bool   `json:"success"`
	Ticket  Ticket `json:"ticket"`
}

type SearchRequest struct {
	JQL        string `json:"jql,omitempty"`
	ProjectKey string `json:"project_key,omitempty"`
	MaxResults int    `json:"max_results,omitempty"`
}

type FoundIssue struct {
	Key     string `json:"key"`
	Summary string `json:"summary"`
	Status  string `json:"status"`
	URL     string `json:"url"`
}

type SearchResponse struct {
	Total  int          `json:"total"`
	Issues []FoundIssue `json:"issues"`
}
