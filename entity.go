package ledgergo

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
)

// AccountKind is a closed tag; the engine dispatches on it with a switch.
// There are exactly two kinds and no provision for adding more at runtime.
type AccountKind string

const (
	KindCurrent AccountKind = "current"
	KindSavings AccountKind = "savings"
)

// OperationType carries the sign of an operation; stored amounts are
// always positive.
type OperationType string

const (
	OpDebit  OperationType = "debit"
	OpCredit OperationType = "credit"
)

// Account is a ledger account. Balance is only ever written by the
// Repository inside an atomic unit; everything else is immutable after
// creation except the updated* audit fields.
type Account struct {
	ID             snowflake.ID    `json:"id"`
	Kind           AccountKind     `json:"kind"`
	Balance        decimal.Decimal `json:"balance"`
	OverdraftLimit decimal.Decimal `json:"overdraft_limit"`
	InterestRate   decimal.Decimal `json:"interest_rate"`
	CustomerID     snowflake.ID    `json:"customer_id"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
	CreatedBy      string          `json:"created_by"`
	UpdatedBy      string          `json:"updated_by"`
}

// Floor returns the minimum balance the account may reach: zero for
// savings accounts, the negated overdraft limit for current accounts.
func (a *Account) Floor() decimal.Decimal {
	switch a.Kind {
	case KindCurrent:
		return a.OverdraftLimit.Neg()
	default:
		return decimal.Zero
	}
}

// Operation is one immutable balance-changing event. IDs are assigned by
// the store while the affected account row is locked, so per-account ID
// order matches commit order.
type Operation struct {
	ID          int64           `json:"id"`
	AcctID      snowflake.ID    `json:"account_id"`
	Type        OperationType   `json:"type"`
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description"`
	PerformedBy string          `json:"performed_by"`
	Timestamp   time.Time       `json:"timestamp"`
}

// Customer is the external directory entity an account is attached to.
// The ledger only ever reads it through a CustomerDirectory.
type Customer struct {
	ID    snowflake.ID `json:"id"`
	Name  string       `json:"name"`
	Email string       `json:"email"`
}

// OperationPage is one page of an account's history, most recent first.
type OperationPage struct {
	Operations []Operation `json:"operations"`
	Page       int         `json:"page"`
	Size       int         `json:"size"`
	Total      int64       `json:"total"`
}

// ReplayBalance folds operations (oldest first) over an opening balance.
// For any account the fold over its full log equals the stored balance;
// reconciliation jobs and the test suite rely on this.
func ReplayBalance(opening decimal.Decimal, ops []Operation) decimal.Decimal {
	bal := opening
	for _, op := range ops {
		switch op.Type {
		case OpDebit:
			bal = bal.Sub(op.Amount)
		case OpCredit:
			bal = bal.Add(op.Amount)
		}
	}
	return bal
}
