package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"connectrpc.com/connect"
	"github.com/shopspring/decimal"

	"github.com/mmynk/settleup/internal/assist"
	"github.com/mmynk/settleup/internal/calculator"
	"github.com/mmynk/settleup/internal/models"
	"github.com/mmynk/settleup/internal/storage"
	"github.com/mmynk/settleup/pkg/api"
)

var (
	errSplitMode       = errors.New("exactly one of splits, weights or split_equally is required")
	errSelfSettlement  = errors.New("from_user_id and to_user_id must differ")
	errExpenseRequired = errors.New("expense_id is required")
)

// ExpenseService implements the Connect ExpenseService: expenses, recorded
// settlements, and the transfers that settle a group.
type ExpenseService struct {
	store       storage.Store
	ledger      *Ledger
	categorizer assist.Categorizer
	logger      *slog.Logger
}

// NewExpenseService creates a new ExpenseService.
func NewExpenseService(store storage.Store, ledger *Ledger, categorizer assist.Categorizer, logger *slog.Logger) *ExpenseService {
	return &ExpenseService{
		store:       store,
		ledger:      ledger,
		categorizer: categorizer,
		logger:      logger,
	}
}

// CreateExpense validates and stores an expense. Shares come from exactly
// one of: explicit splits (which must sum to the amount), weights, or an
// equal split across all group members. A missing payer means the caller.
func (s *ExpenseService) CreateExpense(ctx context.Context, req *connect.Request[api.CreateExpenseRequest]) (*connect.Response[api.CreateExpenseResponse], error) {
	userID, err := callerID(ctx)
	if err != nil {
		return nil, err
	}
	group, err := memberGroup(ctx, s.store, req.Msg.GroupID, userID)
	if err != nil {
		return nil, err
	}

	if err := checkAmount(req.Msg.Amount); err != nil {
		return nil, err
	}
	payerID := req.Msg.PayerID
	if payerID == "" {
		payerID = userID
	}
	if !group.HasMember(payerID) {
		return nil, invalidArgument("payer %q is not a member of this group", payerID)
	}

	splits, err := buildSplits(group, req.Msg)
	if err != nil {
		return nil, err
	}

	description := strings.TrimSpace(req.Msg.Description)
	expense := &models.Expense{
		GroupID:     group.ID,
		PayerID:     payerID,
		Amount:      req.Msg.Amount,
		Splits:      splits,
		Description: description,
		Category:    s.categorize(ctx, description),
	}
	if err := s.store.CreateExpense(ctx, expense); err != nil {
		s.logger.Error("CreateExpense failed", "group_id", group.ID, "error", err)
		return nil, storeError(err, "failed to create expense")
	}
	s.ledger.Invalidate(ctx, group.ID)

	s.logger.Info("Expense created",
		"expense_id", expense.ID,
		"group_id", group.ID,
		"amount", expense.Amount.String(),
		"category", expense.Category,
	)
	return connect.NewResponse(&api.CreateExpenseResponse{Expense: toAPIExpense(expense)}), nil
}

func (s *ExpenseService) categorize(ctx context.Context, description string) string {
	if description == "" || s.categorizer == nil {
		return models.DefaultCategory
	}
	category, err := s.categorizer.Categorize(ctx, description)
	if err != nil || category == "" {
		s.logger.Warn("Categorization failed, using default", "error", err)
		return models.DefaultCategory
	}
	return category
}

// buildSplits turns the request's chosen split mode into cent-exact shares
// that sum to the amount.
func buildSplits(group *models.Group, msg *api.CreateExpenseRequest) ([]models.Split, error) {
	modes := 0
	if len(msg.Splits) > 0 {
		modes++
	}
	if len(msg.Weights) > 0 {
		modes++
	}
	if msg.SplitEqually {
		modes++
	}
	if modes != 1 {
		return nil, connect.NewError(connect.CodeInvalidArgument, errSplitMode)
	}

	var (
		shares []calculator.Split
		err    error
	)
	switch {
	case msg.SplitEqually:
		members := make([]calculator.MemberID, len(group.Members))
		for i, id := range group.Members {
			members[i] = calculator.MemberID(id)
		}
		shares, err = calculator.EqualSplit(msg.Amount, members)

	case len(msg.Weights) > 0:
		weights := make([]calculator.Weight, 0, len(msg.Weights))
		for _, w := range msg.Weights {
			if w == nil {
				return nil, invalidArgument("empty weight")
			}
			if !group.HasMember(w.UserID) {
				return nil, invalidArgument("weight for non-member %q", w.UserID)
			}
			weights = append(weights, calculator.Weight{Member: calculator.MemberID(w.UserID), Weight: w.Weight})
		}
		shares, err = calculator.WeightedSplit(msg.Amount, weights)

	default:
		return explicitSplits(group, msg)
	}
	if err != nil {
		return nil, connect.NewError(connect.CodeInvalidArgument, err)
	}

	out := make([]models.Split, len(shares))
	for i, sh := range shares {
		out[i] = models.Split{UserID: string(sh.Member), Share: sh.Share}
	}
	return out, nil
}

func explicitSplits(group *models.Group, msg *api.CreateExpenseRequest) ([]models.Split, error) {
	out := make([]models.Split, 0, len(msg.Splits))
	seen := make(map[string]bool, len(msg.Splits))
	sum := decimal.Zero
	for _, sp := range msg.Splits {
		if sp == nil {
			return nil, invalidArgument("empty split")
		}
		switch {
		case !group.HasMember(sp.UserID):
			return nil, invalidArgument("split for non-member %q", sp.UserID)
		case seen[sp.UserID]:
			return nil, invalidArgument("%w: %s", calculator.ErrDuplicateMember, sp.UserID)
		case sp.Share.IsNegative():
			return nil, invalidArgument("share for %s cannot be negative", sp.UserID)
		}
		seen[sp.UserID] = true
		sum = sum.Add(sp.Share)
		out = append(out, models.Split{UserID: sp.UserID, Share: sp.Share})
	}
	if !sum.Equal(msg.Amount) {
		return nil, invalidArgument("shares sum to %s, expected %s", sum, msg.Amount)
	}
	return out, nil
}

// ListExpenses returns the group's expenses, newest first.
func (s *ExpenseService) ListExpenses(ctx context.Context, req *connect.Request[api.ListExpensesRequest]) (*connect.Response[api.ListExpensesResponse], error) {
	userID, err := callerID(ctx)
	if err != nil {
		return nil, err
	}
	group, err := memberGroup(ctx, s.store, req.Msg.GroupID, userID)
	if err != nil {
		return nil, err
	}

	expenses, err := s.store.ListExpensesByGroup(ctx, group.ID)
	if err != nil {
		return nil, storeError(err, "failed to list expenses")
	}
	out := make([]*api.Expense, len(expenses))
	for i, e := range expenses {
		out[i] = toAPIExpense(e)
	}
	return connect.NewResponse(&api.ListExpensesResponse{Expenses: out}), nil
}

// DeleteExpense removes an expense from a group the caller belongs to.
func (s *ExpenseService) DeleteExpense(ctx context.Context, req *connect.Request[api.DeleteExpenseRequest]) (*connect.Response[api.DeleteExpenseResponse], error) {
	userID, err := callerID(ctx)
	if err != nil {
		return nil, err
	}
	if req.Msg.ExpenseID == "" {
		return nil, connect.NewError(connect.CodeInvalidArgument, errExpenseRequired)
	}

	expense, err := s.store.GetExpense(ctx, req.Msg.ExpenseID)
	if err != nil {
		return nil, storeError(err, "failed to load expense")
	}
	if _, err := memberGroup(ctx, s.store, expense.GroupID, userID); err != nil {
		return nil, err
	}

	if err := s.store.DeleteExpense(ctx, expense.ID); err != nil {
		s.logger.Error("DeleteExpense failed", "expense_id", expense.ID, "error", err)
		return nil, storeError(err, "failed to delete expense")
	}
	s.ledger.Invalidate(ctx, expense.GroupID)

	s.logger.Info("Expense deleted", "expense_id", expense.ID, "group_id", expense.GroupID, "user_id", userID)
	return connect.NewResponse(&api.DeleteExpenseResponse{}), nil
}

// GetSettlements returns the transfers that settle the group, taking
// recorded settlements into account.
func (s *ExpenseService) GetSettlements(ctx context.Context, req *connect.Request[api.GetSettlementsRequest]) (*connect.Response[api.GetSettlementsResponse], error) {
	userID, err := callerID(ctx)
	if err != nil {
		return nil, err
	}
	group, err := memberGroup(ctx, s.store, req.Msg.GroupID, userID)
	if err != nil {
		return nil, err
	}

	transfers, err := s.ledger.Transfers(ctx, group.ID)
	if err != nil {
		s.logger.Error("GetSettlements failed", "group_id", group.ID, "error", err)
		return nil, storeError(err, "failed to compute settlement")
	}
	return connect.NewResponse(&api.GetSettlementsResponse{Transfers: toAPITransfers(transfers)}), nil
}

// RecordSettlement stores a payment that one member made to another.
func (s *ExpenseService) RecordSettlement(ctx context.Context, req *connect.Request[api.RecordSettlementRequest]) (*connect.Response[api.RecordSettlementResponse], error) {
	userID, err := callerID(ctx)
	if err != nil {
		return nil, err
	}
	group, err := memberGroup(ctx, s.store, req.Msg.GroupID, userID)
	if err != nil {
		return nil, err
	}

	msg := req.Msg
	if err := checkAmount(msg.Amount); err != nil {
		return nil, err
	}
	if msg.FromUserID == msg.ToUserID {
		return nil, connect.NewError(connect.CodeInvalidArgument, errSelfSettlement)
	}
	for _, id := range []string{msg.FromUserID, msg.ToUserID} {
		if !group.HasMember(id) {
			return nil, invalidArgument("%q is not a member of this group", id)
		}
	}

	settlement := &models.Settlement{
		GroupID:    group.ID,
		FromUserID: msg.FromUserID,
		ToUserID:   msg.ToUserID,
		Amount:     msg.Amount,
		CreatedBy:  userID,
		Note:       strings.TrimSpace(msg.Note),
	}
	if err := s.store.CreateSettlement(ctx, settlement); err != nil {
		s.logger.Error("RecordSettlement failed", "group_id", group.ID, "error", err)
		return nil, storeError(err, "failed to record settlement")
	}
	s.ledger.Invalidate(ctx, group.ID)

	s.logger.Info("Settlement recorded",
		"settlement_id", settlement.ID,
		"group_id", group.ID,
		"from", settlement.FromUserID,
		"to", settlement.ToUserID,
		"amount", settlement.Amount.String(),
	)
	return connect.NewResponse(&api.RecordSettlementResponse{Settlement: toAPISettlement(settlement)}), nil
}

// ListSettlements returns the group's recorded settlements, newest first.
func (s *ExpenseService) ListSettlements(ctx context.Context, req *connect.Request[api.ListSettlementsRequest]) (*connect.Response[api.ListSettlementsResponse], error) {
	userID, err := callerID(ctx)
	if err != nil {
		return nil, err
	}
	group, err := memberGroup(ctx, s.store, req.Msg.GroupID, userID)
	if err != nil {
		return nil, err
	}

	settlements, err := s.store.ListSettlementsByGroup(ctx, group.ID)
	if err != nil {
		return nil, storeError(err, "failed to list settlements")
	}
	out := make([]*api.Settlement, len(settlements))
	for i, st := range settlements {
		out[i] = toAPISettlement(st)
	}
	return connect.NewResponse(&api.ListSettlementsResponse{Settlements: out}), nil
}

// DeleteSettlement removes a recorded settlement, restoring the debt it
// cleared.
func (s *ExpenseService) DeleteSettlement(ctx context.Context, req *connect.Request[api.DeleteSettlementRequest]) (*connect.Response[api.DeleteSettlementResponse], error) {
	userID, err := callerID(ctx)
	if err != nil {
		return nil, err
	}

	settlement, err := s.store.GetSettlement(ctx, req.Msg.SettlementID)
	if err != nil {
		return nil, storeError(err, "failed to load settlement")
	}
	if _, err := memberGroup(ctx, s.store, settlement.GroupID, userID); err != nil {
		return nil, err
	}

	if err := s.store.DeleteSettlement(ctx, settlement.ID); err != nil {
		s.logger.Error("DeleteSettlement failed", "settlement_id", settlement.ID, "error", err)
		return nil, storeError(err, "failed to delete settlement")
	}
	s.ledger.Invalidate(ctx, settlement.GroupID)

	s.logger.Info("Settlement deleted", "settlement_id", settlement.ID, "group_id", settlement.GroupID, "user_id", userID)
	return connect.NewResponse(&api.DeleteSettlementResponse{}), nil
}
