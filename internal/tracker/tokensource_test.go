package tracker

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/dropDatabas3/issuehub/internal/domain/repository"
	"github.com/dropDatabas3/issuehub/internal/security/secretbox"
)

type fakeRefresher struct {
	calls int
	set   *TokenSet
	err   error
}

func (f *fakeRefresher) Refresh(ctx context.Context, refreshToken string) (*TokenSet, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.set, nil
}

// fakeUserRepo sólo implementa lo que el TokenSource toca.
type fakeUserRepo struct {
	repository.UserRepository

	updates   int
	updateErr error

	lastAccessEnc  string
	lastRefreshEnc string
	lastExpiresMs  int64
}

func (f *fakeUserRepo) UpdateTrackerTokens(ctx context.Context, userID, accessEnc, refreshEnc string, expiresAtMs int64) error {
	f.updates++
	if f.updateErr != nil {
		return f.updateErr
	}
	f.lastAccessEnc = accessEnc
	f.lastRefreshEnc = refreshEnc
	f.lastExpiresMs = expiresAtMs
	return nil
}

func setupKey(t *testing.T) {
	t.Helper()
	require.NoError(t, secretbox.UnsafeSetMasterKeyForTests(bytes.Repeat([]byte{7}, 32)))
	t.Cleanup(secretbox.UnsafeResetForTests)
}

func encOrFatal(t *testing.T, plain string) string {
	t.Helper()
	enc, err := secretbox.Encrypt(plain)
	require.NoError(t, err)
	return enc
}

func userWithConn(t *testing.T, expiresAt time.Time) *repository.User {
	t.Helper()
	return &repository.User{
		ID: "u-1",
		Tracker: &repository.TrackerConnection{
			CloudID:         "cloud-1",
			SiteURL:         "https://acme.atlassian.net",
			AccessTokenEnc:  encOrFatal(t, "at-fresh"),
			RefreshTokenEnc: encOrFatal(t, "rt-1"),
			ExpiresAtMs:     expiresAt.UnixMilli(),
		},
	}
}

func TestAccessToken_NotConnected(t *testing.T) {
	ts := NewTokenSource(&fakeUserRepo{}, &fakeRefresher{})

	_, _, err := ts.AccessToken(context.Background(), &repository.User{ID: "u-1"})
	require.ErrorIs(t, err, ErrNotConnected)
}

func TestAccessToken_FreshTokenNoRefresh(t *testing.T) {
	setupKey(t)
	now := time.Date(2026, 8, 25, 12, 0, 0, 0, time.UTC)
	ref := &fakeRefresher{}
	repo := &fakeUserRepo{}

	ts := NewTokenSource(repo, ref)
	ts.Now = func() time.Time { return now }

	access, cloudID, err := ts.AccessToken(context.Background(), userWithConn(t, now.Add(30*time.Minute)))
	require.NoError(t, err)
	require.Equal(t, "at-fresh", access)
	require.Equal(t, "cloud-1", cloudID)
	require.Zero(t, ref.calls)
	require.Zero(t, repo.updates)
}

func TestAccessToken_ExpiredRefreshesOnceAndPersists(t *testing.T) {
	setupKey(t)
	now := time.Date(2026, 8, 25, 12, 0, 0, 0, time.UTC)
	ref := &fakeRefresher{set: &TokenSet{AccessToken: "at-new", RefreshToken: "rt-new", ExpiresIn: 3600}}
	repo := &fakeUserRepo{}

	ts := NewTokenSource(repo, ref)
	ts.Now = func() time.Time { return now }

	user := userWithConn(t, now.Add(-time.Minute))
	access, cloudID, err := ts.AccessToken(context.Background(), user)
	require.NoError(t, err)
	require.Equal(t, "at-new", access)
	require.Equal(t, "cloud-1", cloudID)
	require.Equal(t, 1, ref.calls)
	require.Equal(t, 1, repo.updates)

	// Lo persistido descifra al par nuevo.
	gotAccess, err := secretbox.Decrypt(repo.lastAccessEnc)
	require.NoError(t, err)
	require.Equal(t, "at-new", gotAccess)
	gotRefresh, err := secretbox.Decrypt(repo.lastRefreshEnc)
	require.NoError(t, err)
	require.Equal(t, "rt-new", gotRefresh)
	require.Equal(t, now.Add(time.Hour).UnixMilli(), repo.lastExpiresMs)

	// El snapshot en memoria quedó coherente: una segunda llamada no refresca.
	access2, _, err := ts.AccessToken(context.Background(), user)
	require.NoError(t, err)
	require.Equal(t, "at-new", access2)
	require.Equal(t, 1, ref.calls)
}

func TestAccessToken_RefreshWithoutRotationKeepsOldRefreshToken(t *testing.T) {
	setupKey(t)
	now := time.Date(2026, 8, 25, 12, 0, 0, 0, time.UTC)
	ref := &fakeRefresher{set: &TokenSet{AccessToken: "at-new", ExpiresIn: 3600}}
	repo := &fakeUserRepo{}

	ts := NewTokenSource(repo, ref)
	ts.Now = func() time.Time { return now }

	_, _, err := ts.AccessToken(context.Background(), userWithConn(t, now.Add(-time.Minute)))
	require.NoError(t, err)

	gotRefresh, err := secretbox.Decrypt(repo.lastRefreshEnc)
	require.NoError(t, err)
	require.Equal(t, "rt-1", gotRefresh)
}

func TestAccessToken_RefreshRejectedIsReauth(t *testing.T) {
	setupKey(t)
	now := time.Date(2026, 8, 25, 12, 0, 0, 0, time.UTC)
	ref := &fakeRefresher{err: &UpstreamError{StatusCode: 403, ErrorMessages: []string{"invalid_grant"}}}
	repo := &fakeUserRepo{}

	ts := NewTokenSource(repo, ref)
	ts.Now = func() time.Time { return now }

	_, _, err := ts.AccessToken(context.Background(), userWithConn(t, now.Add(-time.Minute)))
	require.ErrorIs(t, err, ErrReauthRequired)
	require.Equal(t, 1, ref.calls)
	require.Zero(t, repo.updates)
}

func TestAccessToken_UndecryptableTokensAreReauth(t *testing.T) {
	setupKey(t)
	user := &repository.User{
		ID: "u-1",
		Tracker: &repository.TrackerConnection{
			CloudID:        "cloud-1",
			AccessTokenEnc: "garbage-not-a-ciphertext",
			ExpiresAtMs:    time.Now().Add(time.Hour).UnixMilli(),
		},
	}
	ts := NewTokenSource(&fakeUserRepo{}, &fakeRefresher{})

	_, _, err := ts.AccessToken(context.Background(), user)
	require.ErrorIs(t, err, ErrReauthRequired)
}

func TestAccessToken_PersistFailureStillReturnsToken(t *testing.T) {
	setupKey(t)
	now := time.Date(2026, 8, 25, 12, 0, 0, 0, time.UTC)
	ref := &fakeRefresher{set: &TokenSet{AccessToken: "at-new", RefreshToken: "rt-new", ExpiresIn: 3600}}
	repo := &fakeUserRepo{updateErr: errors.New("db down")}

	ts := NewTokenSource(repo, ref)
	ts.Now = func() time.Time { return now }

	access, _, err := ts.AccessToken(context.Background(), userWithConn(t, now.Add(-time.Minute)))
	require.NoError(t, err)
	require.Equal(t, "at-new", access)
}
