package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"connectrpc.com/connect"

	"github.com/mmynk/settleup/internal/assist"
	"github.com/mmynk/settleup/internal/calculator"
	"github.com/mmynk/settleup/internal/models"
	"github.com/mmynk/settleup/internal/storage"
	"github.com/mmynk/settleup/pkg/api"
)

var errTextRequired = errors.New("text is required")

// AssistService implements the Connect AssistService: categorization, free
// text parsing, and plain-language summaries.
type AssistService struct {
	store       storage.Store
	ledger      *Ledger
	categorizer assist.Categorizer
	logger      *slog.Logger
	now         func() time.Time
}

// NewAssistService creates a new AssistService.
func NewAssistService(store storage.Store, ledger *Ledger, categorizer assist.Categorizer, logger *slog.Logger) *AssistService {
	return &AssistService{
		store:       store,
		ledger:      ledger,
		categorizer: categorizer,
		logger:      logger,
		now:         time.Now,
	}
}

// Categorize returns the category for a description.
func (s *AssistService) Categorize(ctx context.Context, req *connect.Request[api.CategorizeRequest]) (*connect.Response[api.CategorizeResponse], error) {
	category, err := s.categorizer.Categorize(ctx, req.Msg.Description)
	if err != nil {
		s.logger.Warn("Categorize failed", "error", err)
		category = models.DefaultCategory
	}
	return connect.NewResponse(&api.CategorizeResponse{Category: category}), nil
}

// ParseExpensesText extracts expense drafts from free text. Nothing is
// stored; the client confirms drafts through CreateExpense.
func (s *AssistService) ParseExpensesText(ctx context.Context, req *connect.Request[api.ParseExpensesTextRequest]) (*connect.Response[api.ParseExpensesTextResponse], error) {
	if strings.TrimSpace(req.Msg.Text) == "" {
		return nil, connect.NewError(connect.CodeInvalidArgument, errTextRequired)
	}

	found := assist.ParseExpenses(req.Msg.Text)
	drafts := make([]*api.ExpenseDraft, len(found))
	for i, d := range found {
		category, err := s.categorizer.Categorize(ctx, d.Description)
		if err != nil {
			category = models.DefaultCategory
		}
		drafts[i] = &api.ExpenseDraft{
			PayerName:   d.PayerName,
			Amount:      d.Amount,
			Description: d.Description,
			Category:    category,
		}
	}
	s.logger.Debug("Parsed expense text", "drafts", len(drafts))
	return connect.NewResponse(&api.ParseExpensesTextResponse{Drafts: drafts}), nil
}

// ExplainSettlements describes transfers in plain language. With a group ID
// it explains the group's current settlement using member display names;
// otherwise it explains the transfers and names given in the request.
func (s *AssistService) ExplainSettlements(ctx context.Context, req *connect.Request[api.ExplainSettlementsRequest]) (*connect.Response[api.ExplainSettlementsResponse], error) {
	transfers := fromAPITransfers(req.Msg.Transfers)
	names := make(map[calculator.MemberID]string, len(req.Msg.Names))
	for id, name := range req.Msg.Names {
		names[calculator.MemberID(id)] = name
	}

	if req.Msg.GroupID != "" {
		userID, err := callerID(ctx)
		if err != nil {
			return nil, err
		}
		group, err := memberGroup(ctx, s.store, req.Msg.GroupID, userID)
		if err != nil {
			return nil, err
		}
		if transfers, err = s.ledger.Transfers(ctx, group.ID); err != nil {
			return nil, storeError(err, "failed to compute settlement")
		}
		users, err := s.store.GetUsersByIDs(ctx, group.Members)
		if err != nil {
			return nil, storeError(err, "failed to load members")
		}
		for id, u := range users {
			names[calculator.MemberID(id)] = u.DisplayName
		}
	}

	return connect.NewResponse(&api.ExplainSettlementsResponse{
		Explanation: assist.ExplainTransfers(transfers, names),
	}), nil
}

// GetMonthlyInsights summarizes the group's spending over the last month.
func (s *AssistService) GetMonthlyInsights(ctx context.Context, req *connect.Request[api.GetMonthlyInsightsRequest]) (*connect.Response[api.GetMonthlyInsightsResponse], error) {
	userID, err := callerID(ctx)
	if err != nil {
		return nil, err
	}
	group, err := memberGroup(ctx, s.store, req.Msg.GroupID, userID)
	if err != nil {
		return nil, err
	}

	since := s.now().Add(-assist.InsightsWindow).Unix()
	expenses, err := s.store.ListExpensesSince(ctx, group.ID, since)
	if err != nil {
		return nil, storeError(err, "failed to list expenses")
	}

	stats := assist.Summarize(expenses)
	byCategory := make([]*api.CategoryTotal, len(stats.ByCategory))
	for i, c := range stats.ByCategory {
		byCategory[i] = &api.CategoryTotal{Category: c.Category, Total: c.Total}
	}
	return connect.NewResponse(&api.GetMonthlyInsightsResponse{
		Total:      stats.Total,
		Count:      int32(stats.Count),
		ByCategory: byCategory,
		Summary:    assist.InsightsText(stats),
	}), nil
}
