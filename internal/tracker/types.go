package tracker

// TokenSet es el resultado de un exchange o refresh.
type TokenSet struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int    `json:"expires_in"` // segundos
	Scope        string `json:"scope"`
	TokenType    string `json:"token_type"`
}

// Workspace es un site accesible del tracker (endpoint accessible-resources).
type Workspace struct {
	CloudID string   `json:"id"`
	SiteURL string   `json:"url"`
	Name    string   `json:"name"`
	Scopes  []string `json:"scopes"`
}

// Project es un proyecto del tracker.
type Project struct {
	ID   string `json:"id"`
	Key  string `json:"key"`
	Name string `json:"name"`
}

// IssueType es un tipo de issue disponible en un proyecto.
type IssueType struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// ProjectSchema es el create-meta de un proyecto: qué tipos de issue acepta.
type ProjectSchema struct {
	ProjectID  string      `json:"id"`
	ProjectKey string      `json:"key"`
	IssueTypes []IssueType `json:"issuetypes"`
}

// IssueFields son los campos para crear un issue.
type IssueFields struct {
	ProjectKey  string
	Summary     string
	Description string
	IssueType   string // default "Task"
	Priority    string // opcional
	Labels      []string
}

// CreatedIssue es la referencia al issue recién creado.
type CreatedIssue struct {
	ID   string `json:"id"`
	Key  string `json:"key"`
	Self string `json:"self"`
}

// FoundIssue es un issue devuelto por búsqueda.
type FoundIssue struct {
	ID     string `json:"id"`
	Key    string `json:"key"`
	Fields struct {
		Summary string `json:"summary"`
		Status  struct {
			Name string `json:"name"`
		} `json:"status"`
		Created string `json:"created"`
	} `json:"fields"`
}

// SearchResult es el resultado de una búsqueda JQL.
type SearchResult struct {
	Total  int          `json:"total"`
	Issues []FoundIssue `json:"issues"`
}
