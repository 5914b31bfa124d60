// Package storage provides abstractions for persistent data storage.
package storage

import (
	"context"
	"errors"

	"github.com/mmynk/settleup/internal/models"
)

// ErrNotFound is returned (wrapped) when a requested record does not exist.
var ErrNotFound = errors.New("not found")

// UserStore persists user accounts.
type UserStore interface {
	CreateUser(ctx context.Context, user *models.User) error

	// GetUserByEmail and GetUserByID return ErrNotFound for unknown users.
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUserByID(ctx context.Context, id string) (*models.User, error)

	// GetUsersByIDs returns the users that exist, keyed by ID.
	GetUsersByIDs(ctx context.Context, ids []string) (map[string]*models.User, error)
}

// Store defines the interface for all storage operations.
// This abstraction allows swapping storage backends without changing the
// service layer.
type Store interface {
	UserStore

	// CreateGroup persists a new group. ID and CreatedAt are populated by
	// the store when empty.
	CreateGroup(ctx context.Context, group *models.Group) error
	GetGroup(ctx context.Context, groupID string) (*models.Group, error)
	ListGroupsByMember(ctx context.Context, userID string) ([]*models.Group, error)
	// AddGroupMembers adds users to a group, ignoring those already present.
	AddGroupMembers(ctx context.Context, groupID string, userIDs []string) error
	// DeleteGroup removes a group with its expenses and settlements.
	DeleteGroup(ctx context.Context, groupID string) error

	CreateExpense(ctx context.Context, expense *models.Expense) error
	GetExpense(ctx context.Context, expenseID string) (*models.Expense, error)
	// ListExpensesByGroup returns the group's expenses, newest first.
	ListExpensesByGroup(ctx context.Context, groupID string) ([]*models.Expense, error)
	// ListExpensesSince returns expenses created at or after since (Unix
	// seconds), newest first.
	ListExpensesSince(ctx context.Context, groupID string, since int64) ([]*models.Expense, error)
	DeleteExpense(ctx context.Context, expenseID string) error

	CreateSettlement(ctx context.Context, settlement *models.Settlement) error
	GetSettlement(ctx context.Context, settlementID string) (*models.Settlement, error)
	ListSettlementsByGroup(ctx context.Context, groupID string) ([]*models.Settlement, error)
	DeleteSettlement(ctx context.Context, settlementID string) error

	// GroupRecords returns the group's expenses and settlements, both
	// newest first, read from a single consistent snapshot.
	GroupRecords(ctx context.Context, groupID string) ([]*models.Expense, []*models.Settlement, error)

	// Close releases any resources held by the store.
	Close() error
}
