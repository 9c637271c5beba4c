package finding

import (
	"context"
	"fmt"
	"strings"

	"github.com/dropDatabas3/issuehub/internal/domain/repository"
	dto "github.com/dropDatabas3/issuehub/internal/http/dto/finding"
	"github.com/dropDatabas3/issuehub/internal/metrics"
	"github.com/dropDatabas3/issuehub/internal/observability/logger"
	trk "github.com/dropDatabas3/issuehub/internal/tracker"
	"github.com/dropDatabas3/issuehub/internal/validation"
)

// IssueClient es lo que el service necesita del cliente del tracker.
type IssueClient interface {
	CreateIssue(ctx context.Context, accessToken, cloudID string, fields trk.IssueFields) (*trk.CreatedIssue, error)
	SearchIssues(ctx context.Context, accessToken, cloudID, jql string, maxResults int) (*trk.SearchResult, error)
}

// TokenProvider entrega access tokens vigentes.
type TokenProvider interface {
	AccessToken(ctx context.Context, user *repository.User) (string, string, error)
}

const (
	maxSummaryLen     = 255
	maxDescriptionLen = 32_000
	maxLabels         = 20
	maxLabelLen       = 64
)

// Deps contiene las dependencias del service.
type Deps struct {
	Users  repository.UserRepository
	Client IssueClient
	Source TokenProvider
}

type service struct {
	deps Deps
}

// NewService crea el service de findings.
func NewService(deps Deps) Service {
	return &service{deps: deps}
}

func (s *service) Create(ctx context.Context, userID string, in dto.CreateRequest) (*dto.CreateResponse, error) {
	log := logger.From(ctx).With(
		logger.Layer("service"),
		logger.Component("finding"),
		logger.Op("Create"),
		logger.UserID(userID),
	)

	in.ProjectKey = strings.TrimSpace(in.ProjectKey)
	in.Summary = strings.TrimSpace(in.Summary)

	var c validation.Checker
	c.Required("project_key", in.ProjectKey)
	c.Required("summary", in.Summary)
	c.MaxLen("summary", in.Summary, maxSummaryLen)
	c.MaxLen("description", in.Description, maxDescriptionLen)
	c.OneOf("priority", in.Priority, "Highest", "High", "Medium", "Low", "Lowest")
	if len(in.Labels) > maxLabels {
		c.Add("labels", "admite a lo sumo %d labels", maxLabels)
	}
	for i, l := range in.Labels {
		if strings.ContainsAny(l, " \t\n") || len(l) > maxLabelLen {
			c.Add(fmt.Sprintf("labels[%d]", i), "label inválido: sin espacios, máximo %d caracteres", maxLabelLen)
		}
	}
	if err := c.Err(); err != nil {
		metrics.FindingCreated("rejected")
		return nil, err
	}

	user, cloudID, access, err := s.resolve(ctx, userID)
	if err != nil {
		return nil, err
	}

	created, err := s.deps.Client.CreateIssue(ctx, access, cloudID, trk.IssueFields{
		ProjectKey:  in.ProjectKey,
		Summary:     in.Summary,
		Description: in.Description,
		IssueType:   in.IssueType,
		Priority:    in.Priority,
		Labels:      in.Labels,
	})
	if err != nil {
		metrics.FindingCreated("error")
		return nil, err
	}

	metrics.FindingCreated("ok")
	log.Info("finding created",
		logger.ProjectKey(in.ProjectKey),
		logger.IssueKey(created.Key),
	)
	return &dto.CreateResponse{
		Success: true,
		Ticket: dto.Ticket{
			ID:  created.ID,
			Key: created.Key,
			URL: trk.BrowseURL(user.Tracker.SiteURL, created.Key),
		},
	}, nil
}

func (s *service) Search(ctx context.Context, userID string, in dto.SearchRequest) (*dto.SearchResponse, error) {
	in.JQL = strings.TrimSpace(in.JQL)
	in.ProjectKey = strings.TrimSpace(in.ProjectKey)

	var c validation.Checker
	if in.JQL == "" && in.ProjectKey == "" {
		c.Add("jql", "se requiere jql o project_key")
	}
	if err := c.Err(); err != nil {
		return nil, err
	}

	jql := in.JQL
	if jql == "" {
		jql = fmt.Sprintf("project = %q ORDER BY created DESC", in.ProjectKey)
	}

	user, cloudID, access, err := s.resolve(ctx, userID)
	if err != nil {
		return nil, err
	}

	res, err := s.deps.Client.SearchIssues(ctx, access, cloudID, jql, in.MaxResults)
	if err != nil {
		return nil, err
	}

	out := &dto.SearchResponse{
		Total:  res.Total,
		Issues: make([]dto.FoundIssue, 0, len(res.Issues)),
	}
	for _, is := range res.Issues {
		out.Issues = append(out.Issues, dto.FoundIssue{
			Key:     is.Key,
			Summary: is.Fields.Summary,
			Status:  is.Fields.Status.Name,
			URL:     trk.BrowseURL(user.Tracker.SiteURL, is.Key),
		})
	}
	return out, nil
}

// resolve carga el usuario y obtiene un access token vigente. El usuario
// retornado siempre tiene Tracker != nil.
func (s *service) resolve(ctx context.Context, userID string) (*repository.User, string, string, error) {
	user, err := s.deps.Users.GetByID(ctx, userID)
	if err != nil {
		if repository.IsNotFound(err) {
			// La key autenticó pero su dueño ya no existe.
			return nil, "", "", trk.ErrNotConnected
		}
		return nil, "", "", err
	}
	if user.Tracker == nil {
		return nil, "", "", trk.ErrNotConnected
	}
	access, cloudID, err := s.deps.Source.AccessToken(ctx, user)
	if err != nil {
		return nil, "", "", err
	}
	return user, cloudID, access, nil
}
