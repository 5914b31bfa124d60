package api

import "github.com/shopspring/decimal"

type Split struct {
	UserID string          `json:"user_id"`
	Share  decimal.Decimal `json:"share"`
}

// Weight is a relative portion used to derive shares server-side.
type Weight struct {
	UserID string          `json:"user_id"`
	Weight decimal.Decimal `json:"weight"`
}

type Expense struct {
	ID          string          `json:"id"`
	GroupID     string          `json:"group_id"`
	PayerID     string          `json:"payer_id"`
	Amount      decimal.Decimal `json:"amount"`
	Splits      []*Split        `json:"splits"`
	Description string          `json:"description,omitempty"`
	Category    string          `json:"category"`
	CreatedAt   int64           `json:"created_at"`
}

// CreateExpenseRequest carries exactly one way of dividing the amount:
// explicit Splits, Weights, or SplitEqually across all group members.
type CreateExpenseRequest struct {
	GroupID      string          `json:"group_id"`
	PayerID      string          `json:"payer_id"`
	Amount       decimal.Decimal `json:"amount"`
	Splits       []*Split        `json:"splits,omitempty"`
	Weights      []*Weight       `json:"weights,omitempty"`
	SplitEqually bool            `json:"split_equally,omitempty"`
	Description  string          `json:"description,omitempty"`
}

type CreateExpenseResponse struct {
	Expense *Expense `json:"expense"`
}

type ListExpensesRequest struct {
	GroupID string `json:"group_id"`
}

type ListExpensesResponse struct {
	Expenses []*Expense `json:"expenses"`
}

type DeleteExpenseRequest struct {
	ExpenseID string `json:"expense_id"`
}

type DeleteExpenseResponse struct{}

// Transfer is a recommended payment: From pays To Amount.
type Transfer struct {
	From   string          `json:"from"`
	To     string          `json:"to"`
	Amount decimal.Decimal `json:"amount"`
}

type GetSettlementsRequest struct {
	GroupID string `json:"group_id"`
}

type GetSettlementsResponse struct {
	Transfers []*Transfer `json:"transfers"`
}

// Settlement is a payment that has actually been made.
type Settlement struct {
	ID         string          `json:"id"`
	GroupID    string          `json:"group_id"`
	FromUserID string          `json:"from_user_id"`
	ToUserID   string          `json:"to_user_id"`
	Amount     decimal.Decimal `json:"amount"`
	Note       string          `json:"note,omitempty"`
	CreatedBy  string          `json:"created_by"`
	CreatedAt  int64           `json:"created_at"`
}

type RecordSettlementRequest struct {
	GroupID    string          `json:"group_id"`
	FromUserID string          `json:"from_user_id"`
	ToUserID   string          `json:"to_user_id"`
	Amount     decimal.Decimal `json:"amount"`
	Note       string          `json:"note,omitempty"`
}

type RecordSettlementResponse struct {
	Settlement *Settlement `json:"settlement"`
}

type ListSettlementsRequest struct {
	GroupID string `json:"group_id"`
}

type ListSettlementsResponse struct {
	Settlements []*Settlement `json:"settlements"`
}

type DeleteSettlementRequest struct {
	SettlementID string `json:"settlement_id"`
}

type DeleteSettlementResponse struct{}
