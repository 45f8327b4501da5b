package auth

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"agroledger.io/agroledger/internal/domain"
	apperrors "agroledger.io/agroledger/internal/pkg/errors"
	"agroledger.io/agroledger/internal/pkg/logger"
)

type fakeAccountStore struct {
	accounts        map[string]domain.Account
	passwordUpdates map[int64]string
	updateErr       error
}

func newFakeAccountStore() *fakeAccountStore {
	return &fakeAccountStore{
		accounts:        map[string]domain.Account{},
		passwordUpdates: map[int64]string{},
	}
}

func (f *fakeAccountStore) GetByLogin(_ context.Context, login string) (domain.Account, error) {
	a, ok := f.accounts[login]
	if !ok {
		return domain.Account{}, apperrors.NotFound(apperrors.CodeAccountNotFound, "account not found")
	}
	return a, nil
}

func (f *fakeAccountStore) UpdatePassword(_ context.Context, id int64, hash string) error {
	if f.updateErr != nil {
		return f.updateErr
	}
	f.passwordUpdates[id] = hash
	return nil
}

func TestHashAndAuthenticate(t *testing.T) {
	require.NoError(t, logger.Init("error", "console"))

	store := newFakeAccountStore()
	v := NewVerifier(store, bcrypt.MinCost)

	hash, err := v.Hash("s3cret")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(hash, "$2"))

	store.accounts["mvidal"] = domain.Account{ID: 7, Login: "mvidal", PasswordHash: hash}

	account, err := v.Authenticate(context.Background(), "mvidal", "s3cret")
	require.NoError(t, err)
	assert.Equal(t, int64(7), account.ID)

	// A verified hash never gets rewritten.
	assert.Empty(t, store.passwordUpdates)
}

func TestAuthenticate_WrongPassword(t *testing.T) {
	store := newFakeAccountStore()
	v := NewVerifier(store, bcrypt.MinCost)

	hash, err := v.Hash("s3cret")
	require.NoError(t, err)
	store.accounts["mvidal"] = domain.Account{ID: 7, Login: "mvidal", PasswordHash: hash}

	_, err = v.Authenticate(context.Background(), "mvidal", "wrong")
	appErr, ok := apperrors.IsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.CodeAuthFailed, appErr.Code)
}

func TestAuthenticate_UnknownAccountLooksTheSame(t *testing.T) {
	v := NewVerifier(newFakeAccountStore(), bcrypt.MinCost)

	_, err := v.Authenticate(context.Background(), "ghost", "anything")
	appErr, ok := apperrors.IsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.CodeAuthFailed, appErr.Code)
}

func TestAuthenticate_LegacyPlaintextUpgrade(t *testing.T) {
	store := newFakeAccountStore()
	v := NewVerifier(store, bcrypt.MinCost)

	store.accounts["legacy"] = domain.Account{ID: 3, Login: "legacy", PasswordHash: "plain-old-password"}

	account, err := v.Authenticate(context.Background(), "legacy", "plain-old-password")
	require.NoError(t, err)
	assert.Equal(t, int64(3), account.ID)

	upgraded, ok := store.passwordUpdates[3]
	require.True(t, ok, "expected a credential upgrade write")
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(upgraded), []byte("plain-old-password")))
	assert.Equal(t, upgraded, account.PasswordHash)
}

func TestAuthenticate_LegacyPlaintextWrongPassword(t *testing.T) {
	store := newFakeAccountStore()
	v := NewVerifier(store, bcrypt.MinCost)

	store.accounts["legacy"] = domain.Account{ID: 3, Login: "legacy", PasswordHash: "plain-old-password"}

	_, err := v.Authenticate(context.Background(), "legacy", "wrong")
	appErr, ok := apperrors.IsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.CodeAuthFailed, appErr.Code)
	assert.Empty(t, store.passwordUpdates)
}

func TestAuthenticate_UpgradeWriteFailureStillSignsIn(t *testing.T) {
	require.NoError(t, logger.Init("error", "console"))

	store := newFakeAccountStore()
	store.updateErr = apperrors.Unavailable(apperrors.CodeStorageUnreach, "db down")
	store.accounts["legacy"] = domain.Account{ID: 3, Login: "legacy", PasswordHash: "plain-old-password"}

	v := NewVerifier(store, bcrypt.MinCost)
	account, err := v.Authenticate(context.Background(), "legacy", "plain-old-password")
	require.NoError(t, err)
	assert.Equal(t, "plain-old-password", account.PasswordHash)
}

func TestVerify(t *testing.T) {
	v := NewVerifier(newFakeAccountStore(), bcrypt.MinCost)

	hashed, err := v.Hash("s3cret")
	require.NoError(t, err)

	assert.True(t, v.Verify("s3cret", hashed))
	assert.False(t, v.Verify("wrong", hashed))
	assert.True(t, v.Verify("plain-old-password", "plain-old-password"))
	assert.False(t, v.Verify("plain-old-password", "other"))
}
