package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"agroledger.io/agroledger/internal/domain"
	"agroledger.io/agroledger/internal/infrastructure"
	apperrors "agroledger.io/agroledger/internal/pkg/errors"
)

// AccountRepository persists user accounts.
type AccountRepository struct {
	db *infrastructure.DB
}

func NewAccountRepository(db *infrastructure.DB) *AccountRepository {
	return &AccountRepository{db: db}
}

const accountColumns = `id, name, surname, email, login, password_hash, role, registered_on, active`

func scanAccount(row pgx.Row) (domain.Account, error) {
	var r accountRow
	err := row.Scan(&r.ID, &r.Name, &r.Surname, &r.Email, &r.Login, &r.PasswordHash,
		&r.Role, &r.RegisteredOn, &r.Active)
	if err != nil {
		return domain.Account{}, err
	}
	return accountFromRow(r)
}

// Create inserts a new account and returns it with the generated id.
func (r *AccountRepository) Create(ctx context.Context, a domain.Account) (domain.Account, error) {
	a.ApplyDefaults()
	if err := a.Validate(); err != nil {
		return domain.Account{}, err
	}

	err := r.db.QueryRow(ctx, `
		INSERT INTO account (name, surname, email, login, password_hash, role, registered_on, active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id`,
		a.Name, a.Surname, a.Email, a.Login, a.PasswordHash,
		a.Role.Token(), a.RegisteredOn, a.Active,
	).Scan(&a.ID)
	if err != nil {
		if dup := duplicateAccountError(err); dup != nil {
			return domain.Account{}, dup
		}
		return domain.Account{}, fmt.Errorf("insert account: %w", err)
	}
	return a, nil
}

// Update rewrites the mutable profile columns. Password and registration
// date are managed through their own operations.
func (r *AccountRepository) Update(ctx context.Context, a domain.Account) error {
	if err := a.Validate(); err != nil {
		return err
	}

	affected, err := r.db.Exec(ctx, `
		UPDATE account
		SET name = $2, surname = $3, email = $4, login = $5, role = $6, active = $7
		WHERE id = $1`,
		a.ID, a.Name, a.Surname, a.Email, a.Login, a.Role.Token(), a.Active,
	)
	if err != nil {
		if dup := duplicateAccountError(err); dup != nil {
			return dup
		}
		return fmt.Errorf("update account %d: %w", a.ID, err)
	}
	if affected == 0 {
		return apperrors.NotFound(apperrors.CodeAccountNotFound,
			fmt.Sprintf("account %d not found", a.ID))
	}
	return nil
}

// UpdatePassword swaps the stored credential without touching the profile.
func (r *AccountRepository) UpdatePassword(ctx context.Context, id int64, passwordHash string) error {
	affected, err := r.db.Exec(ctx,
		`UPDATE account SET password_hash = $2 WHERE id = $1`, id, passwordHash)
	if err != nil {
		return fmt.Errorf("update account %d password: %w", id, err)
	}
	if affected == 0 {
		return apperrors.NotFound(apperrors.CodeAccountNotFound,
			fmt.Sprintf("account %d not found", id))
	}
	return nil
}

// SetActive toggles the soft-disable flag.
func (r *AccountRepository) SetActive(ctx context.Context, id int64, active bool) error {
	affected, err := r.db.Exec(ctx,
		`UPDATE account SET active = $2 WHERE id = $1`, id, active)
	if err != nil {
		return fmt.Errorf("set account %d active: %w", id, err)
	}
	if affected == 0 {
		return apperrors.NotFound(apperrors.CodeAccountNotFound,
			fmt.Sprintf("account %d not found", id))
	}
	return nil
}

// Delete removes an account. Accounts that still own plots are protected
// by the foreign key and reported as a conflict instead of being removed.
func (r *AccountRepository) Delete(ctx context.Context, id int64) (bool, error) {
	affected, err := r.db.Exec(ctx, `DELETE FROM account WHERE id = $1`, id)
	if err != nil {
		if isForeignKeyViolation(err) {
			return false, apperrors.Conflict(apperrors.CodeAccountInUse,
				fmt.Sprintf("account %d still owns plots", id))
		}
		return false, fmt.Errorf("delete account %d: %w", id, err)
	}
	return affected > 0, nil
}

func (r *AccountRepository) GetByID(ctx context.Context, id int64) (domain.Account, error) {
	a, err := scanAccount(r.db.QueryRow(ctx,
		`SELECT `+accountColumns+` FROM account WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Account{}, apperrors.NotFound(apperrors.CodeAccountNotFound,
				fmt.Sprintf("account %d not found", id))
		}
		return domain.Account{}, fmt.Errorf("get account %d: %w", id, err)
	}
	return a, nil
}

// GetByLogin resolves an active account by login name or email, the way
// the sign-in form accepts either.
func (r *AccountRepository) GetByLogin(ctx context.Context, login string) (domain.Account, error) {
	a, err := scanAccount(r.db.QueryRow(ctx, `
		SELECT `+accountColumns+`
		FROM account
		WHERE (login = $1 OR email = $1) AND active`,
		strings.TrimSpace(login)))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Account{}, apperrors.NotFound(apperrors.CodeAccountNotFound,
				fmt.Sprintf("account %q not found", login))
		}
		return domain.Account{}, fmt.Errorf("get account by login: %w", err)
	}
	return a, nil
}

// List returns every account, newest registration first.
func (r *AccountRepository) List(ctx context.Context) ([]domain.Account, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+accountColumns+`
		FROM account
		ORDER BY registered_on DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	defer rows.Close()

	var out []domain.Account
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	return out, nil
}

func duplicateAccountError(err error) *apperrors.AppError {
	switch {
	case isUniqueViolation(err, "account_login_key"):
		return apperrors.Conflict(apperrors.CodeDuplicateLogin, "login already registered")
	case isUniqueViolation(err, "account_email_key"):
		return apperrors.Conflict(apperrors.CodeDuplicateEmail, "email already registered")
	default:
		return nil
	}
}
