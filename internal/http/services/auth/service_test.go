package auth

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	dto "github.com/dropDatabas3/issuehub/internal/http/dto/auth"
	jwtx "github.com/dropDatabas3/issuehub/internal/jwt"
	"github.com/dropDatabas3/issuehub/internal/store/memrepo"
	"github.com/dropDatabas3/issuehub/internal/validation"
)

func newService(t *testing.T) (Service, *memrepo.Users, *jwtx.Issuer) {
	t.Helper()
	seed := make([]byte, 32)
	issuer, err := jwtx.NewIssuer("issuehub-test", seed)
	require.NoError(t, err)
	users := memrepo.NewUsers()
	return NewService(Deps{Users: users, Issuer: issuer}), users, issuer
}

func TestRegister_IssuesWorkingSession(t *testing.T) {
	svc, _, issuer := newService(t)

	out, err := svc.Register(context.Background(), dto.RegisterRequest{
		Name:     "Ana",
		Email:    "Ana@Example.com",
		Password: "correcthorse",
	})
	require.NoError(t, err)
	require.Equal(t, "Bearer", out.TokenType)
	require.Equal(t, "ana@example.com", out.User.Email)
	require.Positive(t, out.ExpiresIn)

	su, err := issuer.ParseSession(out.AccessToken)
	require.NoError(t, err)
	require.Equal(t, out.User.ID, su.ID)
}

func TestRegister_DuplicateEmail(t *testing.T) {
	svc, _, _ := newService(t)

	in := dto.RegisterRequest{Name: "Ana", Email: "ana@example.com", Password: "correcthorse"}
	_, err := svc.Register(context.Background(), in)
	require.NoError(t, err)

	// Mismo email con otra capitalización también choca.
	in.Email = "ANA@example.com"
	_, err = svc.Register(context.Background(), in)
	require.ErrorIs(t, err, ErrEmailInUse)
}

func TestRegister_ValidationListsEveryViolation(t *testing.T) {
	svc, _, _ := newService(t)

	_, err := svc.Register(context.Background(), dto.RegisterRequest{
		Name:     "",
		Email:    "not-an-email",
		Password: "short",
	})
	var ve *validation.Error
	require.True(t, errors.As(err, &ve))
	require.GreaterOrEqual(t, len(ve.Violations), 3)
}

func TestLogin_OKAndBadPassword(t *testing.T) {
	svc, _, _ := newService(t)

	_, err := svc.Register(context.Background(), dto.RegisterRequest{
		Name: "Ana", Email: "ana@example.com", Password: "correcthorse",
	})
	require.NoError(t, err)

	out, err := svc.Login(context.Background(), dto.LoginRequest{Email: "ana@example.com", Password: "correcthorse"})
	require.NoError(t, err)
	require.NotEmpty(t, out.AccessToken)

	_, err = svc.Login(context.Background(), dto.LoginRequest{Email: "ana@example.com", Password: "wrong"})
	require.ErrorIs(t, err, ErrInvalidCredentials)

	// Email desconocido responde exactamente igual que password incorrecta.
	_, err = svc.Login(context.Background(), dto.LoginRequest{Email: "nadie@example.com", Password: "correcthorse"})
	require.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestMe(t *testing.T) {
	svc, _, _ := newService(t)

	out, err := svc.Register(context.Background(), dto.RegisterRequest{
		Name: "Ana", Email: "ana@example.com", Password: "correcthorse",
	})
	require.NoError(t, err)

	me, err := svc.Me(context.Background(), out.User.ID)
	require.NoError(t, err)
	require.Equal(t, "Ana", me.Name)

	_, err = svc.Me(context.Background(), "missing-id")
	require.ErrorIs(t, err, ErrUserNotFound)
}
