// Package service implements the SettleUp Connect services on top of the
// storage layer and the settlement engine.
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"connectrpc.com/connect"
	"github.com/shopspring/decimal"

	"github.com/mmynk/settleup/internal/auth"
	"github.com/mmynk/settleup/internal/calculator"
	"github.com/mmynk/settleup/internal/middleware"
	"github.com/mmynk/settleup/internal/models"
	"github.com/mmynk/settleup/internal/storage"
	"github.com/mmynk/settleup/pkg/api"
)

var (
	errGroupIDRequired = errors.New("group_id is required")
	errNotMember       = errors.New("not a member of this group")
	errNotPositive     = errors.New("amount must be greater than zero")
	errSubCent         = errors.New("amount must be in whole cents")
)

// callerID returns the authenticated user, or Unauthenticated.
func callerID(ctx context.Context) (string, error) {
	userID := middleware.GetUserID(ctx)
	if userID == "" {
		return "", connect.NewError(connect.CodeUnauthenticated, auth.ErrMissingToken)
	}
	return userID, nil
}

// memberGroup loads a group the caller belongs to.
func memberGroup(ctx context.Context, store storage.Store, groupID, userID string) (*models.Group, error) {
	if strings.TrimSpace(groupID) == "" {
		return nil, connect.NewError(connect.CodeInvalidArgument, errGroupIDRequired)
	}
	group, err := store.GetGroup(ctx, groupID)
	if err != nil {
		return nil, storeError(err, "failed to load group")
	}
	if !group.HasMember(userID) {
		return nil, connect.NewError(connect.CodePermissionDenied, errNotMember)
	}
	return group, nil
}

// storeError maps storage failures onto Connect codes.
func storeError(err error, msg string) error {
	if errors.Is(err, storage.ErrNotFound) {
		return connect.NewError(connect.CodeNotFound, err)
	}
	return connect.NewError(connect.CodeInternal, fmt.Errorf("%s: %w", msg, err))
}

func invalidArgument(format string, args ...any) error {
	return connect.NewError(connect.CodeInvalidArgument, fmt.Errorf(format, args...))
}

// checkAmount enforces what the engine expects of stored money: positive
// and representable in cents.
func checkAmount(amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return connect.NewError(connect.CodeInvalidArgument, errNotPositive)
	}
	if !amount.Equal(amount.Round(calculator.TransferPlaces)) {
		return connect.NewError(connect.CodeInvalidArgument, errSubCent)
	}
	return nil
}

func toAPIUser(u *models.User) *api.User {
	return &api.User{
		ID:          u.ID,
		Email:       u.Email,
		DisplayName: u.DisplayName,
		CreatedAt:   u.CreatedAt,
	}
}

// toAPIGroup resolves member display info from users. Members missing from
// users are returned with only their ID.
func toAPIGroup(g *models.Group, users map[string]*models.User) *api.Group {
	members := make([]*api.Member, len(g.Members))
	for i, id := range g.Members {
		m := &api.Member{UserID: id}
		if u, ok := users[id]; ok {
			m.DisplayName = u.DisplayName
			m.Email = u.Email
		}
		members[i] = m
	}
	return &api.Group{
		ID:        g.ID,
		Name:      g.Name,
		Members:   members,
		CreatedAt: g.CreatedAt,
	}
}

func toAPIExpense(e *models.Expense) *api.Expense {
	splits := make([]*api.Split, len(e.Splits))
	for i, s := range e.Splits {
		splits[i] = &api.Split{UserID: s.UserID, Share: s.Share}
	}
	return &api.Expense{
		ID:          e.ID,
		GroupID:     e.GroupID,
		PayerID:     e.PayerID,
		Amount:      e.Amount,
		Splits:      splits,
		Description: e.Description,
		Category:    e.Category,
		CreatedAt:   e.CreatedAt,
	}
}

func toAPISettlement(s *models.Settlement) *api.Settlement {
	return &api.Settlement{
		ID:         s.ID,
		GroupID:    s.GroupID,
		FromUserID: s.FromUserID,
		ToUserID:   s.ToUserID,
		Amount:     s.Amount,
		Note:       s.Note,
		CreatedBy:  s.CreatedBy,
		CreatedAt:  s.CreatedAt,
	}
}

func toAPITransfers(transfers []calculator.Transfer) []*api.Transfer {
	out := make([]*api.Transfer, len(transfers))
	for i, t := range transfers {
		out[i] = &api.Transfer{From: string(t.From), To: string(t.To), Amount: t.Amount}
	}
	return out
}

func fromAPITransfers(transfers []*api.Transfer) []calculator.Transfer {
	out := make([]calculator.Transfer, 0, len(transfers))
	for _, t := range transfers {
		if t == nil {
			continue
		}
		out = append(out, calculator.Transfer{
			From:   calculator.MemberID(t.From),
			To:     calculator.MemberID(t.To),
			Amount: t.Amount,
		})
	}
	return out
}
