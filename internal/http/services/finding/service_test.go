package finding

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dropDatabas3/issuehub/internal/domain/repository"
	dto "github.com/dropDatabas3/issuehub/internal/http/dto/finding"
	"github.com/dropDatabas3/issuehub/internal/store/memrepo"
	trk "github.com/dropDatabas3/issuehub/internal/tracker"
	"github.com/dropDatabas3/issuehub/internal/validation"
)

type fakeIssueClient struct {
	creates    int
	lastFields trk.IssueFields
	createErr  error
}

func (f *fakeIssueClient) CreateIssue(ctx context.Context, accessToken, cloudID string, fields trk.IssueFields) (*trk.CreatedIssue, error) {
	f.creates++
	f.lastFields = fields
	if f.createErr != nil {
		return nil, f.createErr
	}
	return &trk.CreatedIssue{ID: "10001", Key: "OPS-42"}, nil
}

func (f *fakeIssueClient) SearchIssues(ctx context.Context, accessToken, cloudID, jql string, maxResults int) (*trk.SearchResult, error) {
	res := &trk.SearchResult{Total: 1, Issues: make([]trk.FoundIssue, 1)}
	res.Issues[0].Key = "OPS-1"
	res.Issues[0].Fields.Summary = "found"
	res.Issues[0].Fields.Status.Name = "Done"
	return res, nil
}

type staticTokenProvider struct{}

func (staticTokenProvider) AccessToken(ctx context.Context, user *repository.User) (string, string, error) {
	if user.Tracker == nil {
		return "", "", trk.ErrNotConnected
	}
	return "at-1", user.Tracker.CloudID, nil
}

func newFixture(t *testing.T, connected bool) (Service, *fakeIssueClient, string) {
	t.Helper()
	users := memrepo.NewUsers()
	u, err := users.Create(context.Background(), repository.CreateUserInput{
		Name: "Ana", Email: "ana@example.com", PasswordHash: "x",
	})
	require.NoError(t, err)
	if connected {
		require.NoError(t, users.SetTrackerConnection(context.Background(), u.ID, repository.TrackerConnection{
			CloudID: "cloud-1",
			SiteURL: "https://acme.atlassian.net",
		}))
	}
	client := &fakeIssueClient{}
	return NewService(Deps{Users: users, Client: client, Source: staticTokenProvider{}}), client, u.ID
}

func TestCreate_OK(t *testing.T) {
	svc, client, userID := newFixture(t, true)

	out, err := svc.Create(context.Background(), userID, dto.CreateRequest{
		ProjectKey:  "OPS",
		Summary:     "SQL injection en /login",
		Description: "detalle",
		Priority:    "High",
		Labels:      []string{"security", "automated"},
	})
	require.NoError(t, err)
	require.True(t, out.Success)
	require.Equal(t, "OPS-42", out.Ticket.Key)
	require.Equal(t, "https://acme.atlassian.net/browse/OPS-42", out.Ticket.URL)
	require.Equal(t, "OPS", client.lastFields.ProjectKey)
}

func TestCreate_ValidationListsAllViolations(t *testing.T) {
	svc, client, userID := newFixture(t, true)

	_, err := svc.Create(context.Background(), userID, dto.CreateRequest{
		ProjectKey: "",
		Summary:    "  ",
		Priority:   "Urgent",
	})
	var ve *validation.Error
	require.True(t, errors.As(err, &ve))

	fields := make(map[string]bool)
	for _, v := range ve.Violations {
		fields[v.Field] = true
	}
	require.True(t, fields["project_key"])
	require.True(t, fields["summary"])
	require.True(t, fields["priority"])

	// Nada llegó al tracker.
	require.Zero(t, client.creates)
}

func TestCreate_SummaryTooLong(t *testing.T) {
	svc, _, userID := newFixture(t, true)

	_, err := svc.Create(context.Background(), userID, dto.CreateRequest{
		ProjectKey: "OPS",
		Summary:    strings.Repeat("x", 256),
	})
	var ve *validation.Error
	require.True(t, errors.As(err, &ve))
	require.Equal(t, "summary", ve.Violations[0].Field)
}

func TestCreate_NotConnected(t *testing.T) {
	svc, client, userID := newFixture(t, false)

	_, err := svc.Create(context.Background(), userID, dto.CreateRequest{
		ProjectKey: "OPS",
		Summary:    "algo",
	})
	require.ErrorIs(t, err, trk.ErrNotConnected)
	require.Zero(t, client.creates)
}

func TestCreate_UpstreamErrorPropagates(t *testing.T) {
	svc, client, userID := newFixture(t, true)
	client.createErr = &trk.UpstreamError{StatusCode: 400, FieldErrors: map[string]string{"issuetype": "invalid"}}

	_, err := svc.Create(context.Background(), userID, dto.CreateRequest{
		ProjectKey: "OPS",
		Summary:    "algo",
	})
	var ue *trk.UpstreamError
	require.ErrorAs(t, err, &ue)
	require.Equal(t, "invalid", ue.FieldErrors["issuetype"])
}

func TestSearch_ByProjectKey(t *testing.T) {
	svc, _, userID := newFixture(t, true)

	out, err := svc.Search(context.Background(), userID, dto.SearchRequest{ProjectKey: "OPS"})
	require.NoError(t, err)
	require.Equal(t, 1, out.Total)
	require.Equal(t, "OPS-1", out.Issues[0].Key)
	require.Equal(t, "https://acme.atlassian.net/browse/OPS-1", out.Issues[0].URL)
}

func TestSearch_RequiresJQLOrProject(t *testing.T) {
	svc, _, userID := newFixture(t, true)

	_, err := svc.Search(context.Background(), userID, dto.SearchRequest{})
	var ve *validation.Error
	require.True(t, errors.As(err, &ve))
}
