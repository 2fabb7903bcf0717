package orchestrators

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"shepherd/internal/domain/account"
)

// AccountStoreForCreate defines the store interface needed by CreateAccount.
type AccountStoreForCreate interface {
	GetByEmail(ctx context.Context, email string) (account.Account, error)
	Save(ctx context.Context, a account.Account) error
	Count(ctx context.Context) (int, error)
}

// CreateAccountInput carries input for the orchestrator.
type CreateAccountInput struct {
	Email    string
	Password string
	Role     string
}

// CreateAccountDeps holds dependencies for CreateAccount.
type CreateAccountDeps struct {
	AccountStore AccountStoreForCreate
	Clock        Clock
	NewID        IDGenerator
}

var ErrEmailAlreadyExists = errors.New("an account with this email already exists")

// ExecuteCreateAccount coordinates staff account creation.
// PRE: Valid email, password >= 12 chars, valid role
// POST: Account created with hashed password
// INVARIANT: Email must be unique
func ExecuteCreateAccount(ctx context.Context, input CreateAccountInput, deps CreateAccountDeps) (string, error) {
	email := strings.ToLower(strings.TrimSpace(input.Email))
	if _, err := deps.AccountStore.GetByEmail(ctx, email); err == nil {
		return "", conflictOr(ErrEmailAlreadyExists, ErrEmailAlreadyExists)
	} else if !errors.Is(err, account.ErrNotFound) {
		return "", err
	}

	acct := account.Account{
		ID:        deps.NewID.next(),
		Email:     email,
		Role:      input.Role,
		CreatedAt: deps.Clock.now(),
	}
	if err := acct.Validate(); err != nil {
		return "", invalid(err)
	}
	if err := acct.SetPassword(input.Password); err != nil {
		return "", invalid(err)
	}
	if err := deps.AccountStore.Save(ctx, acct); err != nil {
		return "", err
	}

	slog.Info("auth_event", "event", "account_created", "account_id", acct.ID, "role", acct.Role)
	return acct.ID, nil
}

// ExecuteSeedAdmin creates the first admin account when no accounts exist.
// An empty password skips seeding so production never ships a default.
// PRE: Database is migrated
// POST: Admin account created if count == 0 and password != ""
func ExecuteSeedAdmin(ctx context.Context, deps CreateAccountDeps, email, password string) error {
	count, err := deps.AccountStore.Count(ctx)
	if err != nil {
		return err
	}
	if count > 0 {
		return nil
	}
	if password == "" {
		slog.Warn("auth_event", "event", "admin_seed_skipped", "reason", "no password configured")
		return nil
	}

	if _, err := ExecuteCreateAccount(ctx, CreateAccountInput{Email: email, Password: password, Role: account.RoleAdmin}, deps); err != nil {
		return err
	}
	slog.Info("auth_event", "event", "admin_seeded")
	return nil
}
