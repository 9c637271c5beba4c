package apikey

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/dropDatabas3/issuehub/internal/domain/repository"
	dto "github.com/dropDatabas3/issuehub/internal/http/dto/apikey"
	"github.com/dropDatabas3/issuehub/internal/store/memrepo"
	"github.com/dropDatabas3/issuehub/internal/validation"
)

func newService(t *testing.T) (Service, *memrepo.APIKeys) {
	t.Helper()
	keys := memrepo.NewAPIKeys()
	svc := NewService(Deps{Keys: keys})
	return svc, keys
}

func TestCreateValidate_RoundTrip(t *testing.T) {
	svc, _ := newService(t)

	created, err := svc.Create(context.Background(), "u-1", dto.CreateRequest{Name: "ci-scanner"})
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(created.Key, KeyPrefix))

	key, err := svc.Validate(context.Background(), created.Key)
	require.NoError(t, err)
	require.Equal(t, created.ID, key.ID)
	require.Equal(t, "u-1", key.UserID)
}

func TestValidate_AcceptsBareSecretWithoutPrefix(t *testing.T) {
	svc, _ := newService(t)

	created, err := svc.Create(context.Background(), "u-1", dto.CreateRequest{Name: "ci"})
	require.NoError(t, err)

	// El prefijo es un marcador público, no parte del secreto: la key sin
	// "ih_" autentica igual.
	bare := strings.TrimPrefix(created.Key, KeyPrefix)
	key, err := svc.Validate(context.Background(), bare)
	require.NoError(t, err)
	require.Equal(t, created.ID, key.ID)
}

func TestValidate_SingleCharacterMutationFails(t *testing.T) {
	svc, _ := newService(t)

	created, err := svc.Create(context.Background(), "u-1", dto.CreateRequest{Name: "ci"})
	require.NoError(t, err)

	mutated := []byte(created.Key)
	last := len(mutated) - 1
	if mutated[last] == 'a' {
		mutated[last] = 'b'
	} else {
		mutated[last] = 'a'
	}

	_, err = svc.Validate(context.Background(), string(mutated))
	require.ErrorIs(t, err, repository.ErrNotFound)
}

func TestValidate_RevokedAndUnknownAreIndistinguishable(t *testing.T) {
	svc, _ := newService(t)

	created, err := svc.Create(context.Background(), "u-1", dto.CreateRequest{Name: "ci"})
	require.NoError(t, err)
	require.NoError(t, svc.Revoke(context.Background(), "u-1", created.ID))

	_, errRevoked := svc.Validate(context.Background(), created.Key)
	_, errUnknown := svc.Validate(context.Background(), "ih_totally-unknown")
	require.ErrorIs(t, errRevoked, repository.ErrNotFound)
	require.ErrorIs(t, errUnknown, repository.ErrNotFound)
}

func TestRevoke_OtherOwnersKeyLooksMissing(t *testing.T) {
	svc, _ := newService(t)

	created, err := svc.Create(context.Background(), "u-1", dto.CreateRequest{Name: "ci"})
	require.NoError(t, err)

	err = svc.Revoke(context.Background(), "u-2", created.ID)
	require.ErrorIs(t, err, ErrKeyNotFound)

	// La key del dueño real sigue viva.
	_, err = svc.Validate(context.Background(), created.Key)
	require.NoError(t, err)
}

func TestCreate_NameValidation(t *testing.T) {
	svc, _ := newService(t)

	_, err := svc.Create(context.Background(), "u-1", dto.CreateRequest{Name: "  "})
	var ve *validation.Error
	require.True(t, errors.As(err, &ve))
	require.Equal(t, "name", ve.Violations[0].Field)
}

func TestList_NeverExposesSecrets(t *testing.T) {
	svc, _ := newService(t)

	created, err := svc.Create(context.Background(), "u-1", dto.CreateRequest{Name: "ci"})
	require.NoError(t, err)

	list, err := svc.List(context.Background(), "u-1")
	require.NoError(t, err)
	require.Len(t, list.Keys, 1)
	require.Equal(t, created.ID, list.Keys[0].ID)
}

func TestValidate_TouchesLastUsed(t *testing.T) {
	keys := memrepo.NewAPIKeys()
	svc := NewService(Deps{Keys: keys, Now: func() time.Time {
		return time.Date(2026, 8, 25, 12, 0, 0, 0, time.UTC)
	}})

	created, err := svc.Create(context.Background(), "u-1", dto.CreateRequest{Name: "ci"})
	require.NoError(t, err)

	_, err = svc.Validate(context.Background(), created.Key)
	require.NoError(t, err)

	// El touch corre en background.
	require.Eventually(t, func() bool {
		list, err := keys.ListByUser(context.Background(), "u-1")
		return err == nil && len(list) == 1 && list[0].LastUsedAt != nil
	}, time.Second, 10*time.Millisecond)
}
