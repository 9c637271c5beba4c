package tracker

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/dropDatabas3/issuehub/internal/cache"
	"github.com/dropDatabas3/issuehub/internal/domain/repository"
	"github.com/dropDatabas3/issuehub/internal/security/secretbox"
	"github.com/dropDatabas3/issuehub/internal/store/memrepo"
	"github.com/dropDatabas3/issuehub/internal/store/memstate"
	trk "github.com/dropDatabas3/issuehub/internal/tracker"
)

type fakeOAuthClient struct {
	exchanges    int
	exchangeErr  error
	listProjects int
}

func (f *fakeOAuthClient) AuthURL(state string) string {
	return "https://auth.example.com/authorize?state=" + state
}

func (f *fakeOAuthClient) Exchange(ctx context.Context, code string) (*trk.TokenSet, error) {
	f.exchanges++
	if f.exchangeErr != nil {
		return nil, f.exchangeErr
	}
	return &trk.TokenSet{AccessToken: "at-1", RefreshToken: "rt-1", ExpiresIn: 3600}, nil
}

func (f *fakeOAuthClient) AccessibleResources(ctx context.Context, accessToken string) (*trk.Workspace, error) {
	return &trk.Workspace{CloudID: "cloud-1", SiteURL: "https://acme.atlassian.net"}, nil
}

func (f *fakeOAuthClient) ListProjects(ctx context.Context, accessToken, cloudID string) ([]trk.Project, error) {
	f.listProjects++
	return []trk.Project{{ID: "1", Key: "OPS", Name: "Operations"}}, nil
}

type staticTokenProvider struct{}

func (staticTokenProvider) AccessToken(ctx context.Context, user *repository.User) (string, string, error) {
	if user.Tracker == nil {
		return "", "", trk.ErrNotConnected
	}
	return "at-1", user.Tracker.CloudID, nil
}

type fixture struct {
	svc    Service
	users  *memrepo.Users
	states *memstate.Ledger
	client *fakeOAuthClient
	userID string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	require.NoError(t, secretbox.UnsafeSetMasterKeyForTests(bytes.Repeat([]byte{9}, 32)))
	t.Cleanup(secretbox.UnsafeResetForTests)

	users := memrepo.NewUsers()
	u, err := users.Create(context.Background(), repository.CreateUserInput{
		Name: "Ana", Email: "ana@example.com", PasswordHash: "x",
	})
	require.NoError(t, err)

	states := memstate.New()
	client := &fakeOAuthClient{}
	mem := cache.NewMemory("test", time.Minute)

	svc := NewService(Deps{
		Users:  users,
		States: states,
		Client: client,
		Source: staticTokenProvider{},
		Cache:  mem,
	})
	return &fixture{svc: svc, users: users, states: states, client: client, userID: u.ID}
}

func stateFromURL(t *testing.T, authURL string) string {
	t.Helper()
	const marker = "state="
	i := len(authURL) - 1
	for ; i >= 0; i-- {
		if i+len(marker) <= len(authURL) && authURL[i:i+len(marker)] == marker {
			return authURL[i+len(marker):]
		}
	}
	t.Fatalf("no state in %s", authURL)
	return ""
}

func TestConnectCallback_HappyPath(t *testing.T) {
	f := newFixture(t)

	conn, err := f.svc.Connect(context.Background(), f.userID)
	require.NoError(t, err)
	state := stateFromURL(t, conn.AuthorizationURL)
	require.NotEmpty(t, state)

	st, err := f.svc.Callback(context.Background(), f.userID, state, "the-code")
	require.NoError(t, err)
	require.True(t, st.IsConnected)
	require.Equal(t, "https://acme.atlassian.net", st.SiteURL)

	// La conexión quedó persistida con tokens cifrados, nunca en claro.
	user, err := f.users.GetByID(context.Background(), f.userID)
	require.NoError(t, err)
	require.NotNil(t, user.Tracker)
	require.NotEqual(t, "at-1", user.Tracker.AccessTokenEnc)
	plain, err := secretbox.Decrypt(user.Tracker.AccessTokenEnc)
	require.NoError(t, err)
	require.Equal(t, "at-1", plain)
}

func TestCallback_TamperedStateLeavesUserDisconnected(t *testing.T) {
	f := newFixture(t)

	conn, err := f.svc.Connect(context.Background(), f.userID)
	require.NoError(t, err)
	state := stateFromURL(t, conn.AuthorizationURL)

	_, err = f.svc.Callback(context.Background(), f.userID, state+"x", "the-code")
	require.ErrorIs(t, err, ErrInvalidState)
	// El code jamás se canjeó.
	require.Zero(t, f.client.exchanges)

	user, err := f.users.GetByID(context.Background(), f.userID)
	require.NoError(t, err)
	require.Nil(t, user.Tracker)

	// El intento fallido quemó el handshake entero: ni siquiera el state
	// legítimo sobrevive en el ledger.
	ok, err := f.states.ValidateAndConsume(context.Background(), f.userID, state)
	require.NoError(t, err)
	require.False(t, ok)

	_, err = f.svc.Callback(context.Background(), f.userID, state, "the-code")
	require.ErrorIs(t, err, ErrInvalidState)
	require.Zero(t, f.client.exchanges)
}

func TestCallback_StateIsSingleUse(t *testing.T) {
	f := newFixture(t)

	conn, err := f.svc.Connect(context.Background(), f.userID)
	require.NoError(t, err)
	state := stateFromURL(t, conn.AuthorizationURL)

	_, err = f.svc.Callback(context.Background(), f.userID, state, "the-code")
	require.NoError(t, err)

	_, err = f.svc.Callback(context.Background(), f.userID, state, "the-code")
	require.ErrorIs(t, err, ErrInvalidState)
	require.Equal(t, 1, f.client.exchanges)
}

func TestConnect_ReplacesPriorState(t *testing.T) {
	f := newFixture(t)

	first, err := f.svc.Connect(context.Background(), f.userID)
	require.NoError(t, err)
	second, err := f.svc.Connect(context.Background(), f.userID)
	require.NoError(t, err)

	// El state viejo quedó invalidado por el nuevo connect.
	_, err = f.svc.Callback(context.Background(), f.userID, stateFromURL(t, first.AuthorizationURL), "the-code")
	require.ErrorIs(t, err, ErrInvalidState)

	_, err = f.svc.Callback(context.Background(), f.userID, stateFromURL(t, second.AuthorizationURL), "the-code")
	require.NoError(t, err)
}

func TestDisconnect_Idempotent(t *testing.T) {
	f := newFixture(t)

	require.NoError(t, f.svc.Disconnect(context.Background(), f.userID))
	require.NoError(t, f.svc.Disconnect(context.Background(), f.userID))

	st, err := f.svc.Status(context.Background(), f.userID)
	require.NoError(t, err)
	require.False(t, st.IsConnected)
}

func TestProjects_CachedAcrossCalls(t *testing.T) {
	f := newFixture(t)

	conn, err := f.svc.Connect(context.Background(), f.userID)
	require.NoError(t, err)
	_, err = f.svc.Callback(context.Background(), f.userID, stateFromURL(t, conn.AuthorizationURL), "the-code")
	require.NoError(t, err)

	p1, err := f.svc.Projects(context.Background(), f.userID)
	require.NoError(t, err)
	require.Len(t, p1.Projects, 1)

	p2, err := f.svc.Projects(context.Background(), f.userID)
	require.NoError(t, err)
	require.Equal(t, p1, p2)
	require.Equal(t, 1, f.client.listProjects)
}

func TestProjects_NotConnected(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Projects(context.Background(), f.userID)
	require.ErrorIs(t, err, trk.ErrNotConnected)
}
