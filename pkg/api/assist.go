package api

import "github.com/shopspring/decimal"

type CategorizeRequest struct {
	Description string `json:"description"`
}

type CategorizeResponse struct {
	Category string `json:"category"`
}

// ExpenseDraft is an expense extracted from free text, not yet saved.
type ExpenseDraft struct {
	PayerName   string          `json:"payer_name"`
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description"`
	Category    string          `json:"category"`
}

type ParseExpensesTextRequest struct {
	Text string `json:"text"`
}

type ParseExpensesTextResponse struct {
	Drafts []*ExpenseDraft `json:"drafts"`
}

// ExplainSettlementsRequest explains either the given transfers with the
// given names, or, when GroupID is set, the group's current settlement.
type ExplainSettlementsRequest struct {
	GroupID   string            `json:"group_id,omitempty"`
	Transfers []*Transfer       `json:"transfers,omitempty"`
	Names     map[string]string `json:"names,omitempty"`
}

type ExplainSettlementsResponse struct {
	Explanation string `json:"explanation"`
}

type CategoryTotal struct {
	Category string          `json:"category"`
	Total    decimal.Decimal `json:"total"`
}

type GetMonthlyInsightsRequest struct {
	GroupID string `json:"group_id"`
}

type GetMonthlyInsightsResponse struct {
	Total      decimal.Decimal  `json:"total"`
	Count      int32            `json:"count"`
	ByCategory []*CategoryTotal `json:"by_category"`
	Summary    string           `json:"summary"`
}
