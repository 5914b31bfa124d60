package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/mmynk/settleup/internal/models"
)

// CreateExpense persists a new expense and its splits in one transaction.
func (s *SQLiteStore) CreateExpense(ctx context.Context, expense *models.Expense) error {
	if expense.ID == "" {
		expense.ID = uuid.New().String()
	}
	if expense.CreatedAt == 0 {
		expense.CreatedAt = time.Now().Unix()
	}
	if expense.Category == "" {
		expense.Category = models.DefaultCategory
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO expenses (id, group_id, payer_id, amount, description, category, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		expense.ID, expense.GroupID, expense.PayerID, expense.Amount,
		expense.Description, expense.Category, expense.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert expense: %w", err)
	}

	for i, split := range expense.Splits {
		_, err = tx.ExecContext(ctx,
			"INSERT INTO expense_splits (expense_id, user_id, share, position) VALUES (?, ?, ?, ?)",
			expense.ID, split.UserID, split.Share, i,
		)
		if err != nil {
			return fmt.Errorf("failed to insert expense split: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// GetExpense retrieves an expense by ID, including its splits.
func (s *SQLiteStore) GetExpense(ctx context.Context, expenseID string) (*models.Expense, error) {
	expense := &models.Expense{}
	err := s.db.QueryRowContext(ctx,
		`SELECT id, group_id, payer_id, amount, description, category, created_at
		 FROM expenses WHERE id = ?`,
		expenseID,
	).Scan(&expense.ID, &expense.GroupID, &expense.PayerID, &expense.Amount,
		&expense.Description, &expense.Category, &expense.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound("expense", expenseID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get expense: %w", err)
	}

	rows, err := s.db.QueryContext(ctx,
		"SELECT user_id, share FROM expense_splits WHERE expense_id = ? ORDER BY position",
		expenseID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get expense splits: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var split models.Split
		if err := rows.Scan(&split.UserID, &split.Share); err != nil {
			return nil, fmt.Errorf("failed to scan expense split: %w", err)
		}
		expense.Splits = append(expense.Splits, split)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate expense splits: %w", err)
	}
	return expense, nil
}

// ListExpensesByGroup retrieves all expenses of a group, newest first.
func (s *SQLiteStore) ListExpensesByGroup(ctx context.Context, groupID string) ([]*models.Expense, error) {
	return s.ListExpensesSince(ctx, groupID, 0)
}

// ListExpensesSince retrieves the group's expenses created at or after since.
func (s *SQLiteStore) ListExpensesSince(ctx context.Context, groupID string, since int64) ([]*models.Expense, error) {
	var expenses []*models.Expense
	err := s.readTx(ctx, func(q querier) error {
		var err error
		expenses, err = listExpenses(ctx, q, groupID, since)
		return err
	})
	if err != nil {
		return nil, err
	}
	return expenses, nil
}

// GroupRecords loads the group's expenses and settlements from one snapshot.
func (s *SQLiteStore) GroupRecords(ctx context.Context, groupID string) ([]*models.Expense, []*models.Settlement, error) {
	var expenses []*models.Expense
	var settlements []*models.Settlement
	err := s.readTx(ctx, func(q querier) error {
		var err error
		if expenses, err = listExpenses(ctx, q, groupID, 0); err != nil {
			return err
		}
		settlements, err = listSettlements(ctx, q, groupID)
		return err
	})
	if err != nil {
		return nil, nil, err
	}
	return expenses, settlements, nil
}

// listExpenses loads splits with a single query rather than one per expense.
// Callers run it inside a transaction so both queries agree.
func listExpenses(ctx context.Context, q querier, groupID string, since int64) ([]*models.Expense, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT id, group_id, payer_id, amount, description, category, created_at
		 FROM expenses WHERE group_id = ? AND created_at >= ?
		 ORDER BY created_at DESC, rowid DESC`,
		groupID, since,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list expenses: %w", err)
	}

	var expenses []*models.Expense
	byID := make(map[string]*models.Expense)
	for rows.Next() {
		expense := &models.Expense{}
		if err := rows.Scan(&expense.ID, &expense.GroupID, &expense.PayerID, &expense.Amount,
			&expense.Description, &expense.Category, &expense.CreatedAt); err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan expense: %w", err)
		}
		expenses = append(expenses, expense)
		byID[expense.ID] = expense
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate expenses: %w", err)
	}
	if len(expenses) == 0 {
		return expenses, nil
	}

	splitRows, err := q.QueryContext(ctx,
		`SELECT s.expense_id, s.user_id, s.share
		 FROM expense_splits s JOIN expenses e ON e.id = s.expense_id
		 WHERE e.group_id = ? AND e.created_at >= ?
		 ORDER BY s.expense_id, s.position`,
		groupID, since,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list expense splits: %w", err)
	}
	defer splitRows.Close()

	for splitRows.Next() {
		var expenseID string
		var split models.Split
		if err := splitRows.Scan(&expenseID, &split.UserID, &split.Share); err != nil {
			return nil, fmt.Errorf("failed to scan expense split: %w", err)
		}
		if expense, ok := byID[expenseID]; ok {
			expense.Splits = append(expense.Splits, split)
		}
	}
	if err := splitRows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate expense splits: %w", err)
	}
	return expenses, nil
}

// DeleteExpense removes an expense by ID. Splits cascade.
func (s *SQLiteStore) DeleteExpense(ctx context.Context, expenseID string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM expenses WHERE id = ?", expenseID)
	if err != nil {
		return fmt.Errorf("failed to delete expense: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return notFound("expense", expenseID)
	}
	return nil
}
