package orchestrators

import (
	"context"
	"fmt"
	"log/slog"

	"shepherd/internal/domain/account"
	"shepherd/internal/domain/checkin"
)

// ChangePasswordInput carries input for the change-password orchestrator.
type ChangePasswordInput struct {
	AccountID       string
	CurrentPassword string
	NewPassword     string
}

// AccountStoreForChangePassword defines the store interface needed by ChangePassword.
type AccountStoreForChangePassword interface {
	GetByID(ctx context.Context, id string) (account.Account, error)
	Save(ctx context.Context, a account.Account) error
}

// ChangePasswordDeps holds dependencies for ChangePassword.
type ChangePasswordDeps struct {
	AccountStore AccountStoreForChangePassword
}

// ExecuteChangePassword validates the current password and stores the new one.
// PRE: AccountID names the signed-in account
// POST: Password hash is replaced and failed-login state is cleared
func ExecuteChangePassword(ctx context.Context, input ChangePasswordInput, deps ChangePasswordDeps) error {
	if input.CurrentPassword == "" || input.NewPassword == "" {
		return checkin.NewError(checkin.CodeValidation, "current and new password are required")
	}
	if input.CurrentPassword == input.NewPassword {
		return checkin.NewError(checkin.CodeValidation, "new password must be different from the current one")
	}

	acct, err := deps.AccountStore.GetByID(ctx, input.AccountID)
	if err != nil {
		return lookupFailed(err, account.ErrNotFound, "account")
	}

	if err := acct.CheckPassword(input.CurrentPassword); err != nil {
		return checkin.NewError(checkin.CodeValidation, "current password is incorrect")
	}
	if err := acct.SetPassword(input.NewPassword); err != nil {
		return invalid(err)
	}
	acct.ResetFailedLogins()

	if err := deps.AccountStore.Save(ctx, acct); err != nil {
		return fmt.Errorf("save account: %w", err)
	}

	slog.Info("auth_event", "event", "password_changed", "account_id", input.AccountID)
	return nil
}
