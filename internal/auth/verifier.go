// Package auth verifies account credentials. Stored credentials are
// bcrypt hashes; plaintext passwords left over from legacy imports are
// accepted once and upgraded to a hash on the spot.
package auth

import (
	"context"
	"crypto/subtle"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"agroledger.io/agroledger/internal/domain"
	apperrors "agroledger.io/agroledger/internal/pkg/errors"
	"agroledger.io/agroledger/internal/pkg/logger"
)

// AccountStore is the slice of the account repository the verifier needs.
type AccountStore interface {
	GetByLogin(ctx context.Context, login string) (domain.Account, error)
	UpdatePassword(ctx context.Context, id int64, passwordHash string) error
}

// Verifier checks credentials against stored accounts.
type Verifier struct {
	accounts AccountStore
	cost     int
}

func NewVerifier(accounts AccountStore, cost int) *Verifier {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &Verifier{accounts: accounts, cost: cost}
}

// Hash derives the stored form of a password.
func (v *Verifier) Hash(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), v.cost)
	if err != nil {
		return "", apperrors.Wrap(err, apperrors.CodeAuthFailed, "hash password", 500)
	}
	return string(hashed), nil
}

// Verify reports whether a password matches a stored credential,
// hashed or legacy plaintext.
func (v *Verifier) Verify(password, stored string) bool {
	if isBcryptHash(stored) {
		return bcrypt.CompareHashAndPassword([]byte(stored), []byte(password)) == nil
	}
	return subtle.ConstantTimeCompare([]byte(stored), []byte(password)) == 1
}

// Authenticate resolves the account behind a login name or email and
// checks the password. A missing account and a wrong password are
// indistinguishable to the caller.
func (v *Verifier) Authenticate(ctx context.Context, login, password string) (domain.Account, error) {
	account, err := v.accounts.GetByLogin(ctx, login)
	if err != nil {
		if appErr, ok := apperrors.IsAppError(err); ok && appErr.Code == apperrors.CodeAccountNotFound {
			return domain.Account{}, invalidCredentials()
		}
		return domain.Account{}, err
	}

	stored := account.PasswordHash
	if isBcryptHash(stored) {
		if bcrypt.CompareHashAndPassword([]byte(stored), []byte(password)) != nil {
			return domain.Account{}, invalidCredentials()
		}
		return account, nil
	}

	// Legacy plaintext credential. Accept a matching password once and
	// replace it with a hash; the login still succeeds if the upgrade
	// write fails.
	if subtle.ConstantTimeCompare([]byte(stored), []byte(password)) != 1 {
		return domain.Account{}, invalidCredentials()
	}
	if hashed, err := v.Hash(password); err == nil {
		if err := v.accounts.UpdatePassword(ctx, account.ID, hashed); err != nil {
			logger.Warn("Legacy credential upgrade failed",
				zap.Int64("account_id", account.ID), zap.Error(err))
		} else {
			account.PasswordHash = hashed
		}
	}
	return account, nil
}

func invalidCredentials() *apperrors.AppError {
	return apperrors.Unauthorized(apperrors.CodeAuthFailed, "invalid login or password")
}

func isBcryptHash(s string) bool {
	return strings.HasPrefix(s, "$2a$") || strings.HasPrefix(s, "$2b$") || strings.HasPrefix(s, "$2y$")
}
