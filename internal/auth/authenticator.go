package auth

import (
	"context"
	"strings"

	"github.com/mmynk/settleup/internal/models"
)

var _ Authenticator = (*PasswordAuthenticator)(nil)

// Authenticator registers and signs in SettleUp accounts.
//
// Accounts are keyed by email. Implementations compare and store emails in
// the form returned by NormalizeEmail, so "Alice@Example.com " and
// "alice@example.com" are the same account, and group invitations by email
// must look users up the same way.
type Authenticator interface {
	// Register creates an account. It returns ErrWeakPassword when
	// ValidateCredential rejects the credential and ErrEmailExists when the
	// normalized email is taken.
	Register(ctx context.Context, email, displayName, credential string) (*models.User, error)

	// Authenticate returns the account for email. Unknown emails and wrong
	// credentials both yield ErrInvalidCredentials.
	Authenticate(ctx context.Context, email, credential string) (*models.User, error)

	ValidateCredential(credential string) error
}

// NormalizeEmail is the canonical form of an account email.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
