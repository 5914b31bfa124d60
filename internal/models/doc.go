// Package models defines the domain models persisted by SettleUp.
//
// # Models
//
//   - User: a registered account; members of groups are user IDs
//   - Group: a set of members who share expenses
//   - Expense: one payment made by a member, with the shares owed by members
//   - Settlement: a payment actually made between two members to clear debt
//
// Money is represented with shopspring decimals. Relationships use ID
// strings rather than pointers.
//
// Expenses and settlements are both fed to the settlement engine in
// internal/calculator; see Expense.Record and Settlement.Record.
package models
