package ledgergo

import (
	"errors"
	"fmt"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
)

var (
	ErrInternalServer  = errors.New("internal server error")
	ErrTooManyRequests = errors.New("service over capacity")
)

type ErrBadRequest struct {
	Fields map[string]string `json:"fields"`
}

func (e ErrBadRequest) Error() string {
	return fmt.Sprintf("missing/invalid params: %v", e.Fields)
}

type ErrAccountNotFound struct {
	ID snowflake.ID `json:"id"`
}

func (e ErrAccountNotFound) Error() string {
	return fmt.Sprintf("account `%v` not found", e.ID)
}

type ErrCustomerNotFound struct {
	ID snowflake.ID `json:"id"`
}

func (e ErrCustomerNotFound) Error() string {
	return fmt.Sprintf("customer `%v` not found", e.ID)
}

// ErrInsufficientFunds is returned when a debit would push the balance
// below the account kind's floor. Rejected, never retried.
type ErrInsufficientFunds struct {
	AcctID    snowflake.ID    `json:"account_id"`
	Requested decimal.Decimal `json:"requested"`
	Floor     decimal.Decimal `json:"floor"`
}

func (e ErrInsufficientFunds) Error() string {
	return fmt.Sprintf("account `%v`: debit of %s would breach floor %s", e.AcctID, e.Requested, e.Floor)
}

type ErrInvalidAmount struct {
	Amount decimal.Decimal `json:"amount"`
}

func (e ErrInvalidAmount) Error() string {
	return fmt.Sprintf("amount must be positive, got %s", e.Amount)
}

// ErrStorageFailure wraps a durability-layer error. The atomic unit it
// interrupted is guaranteed rolled back; retrying is the caller's call.
type ErrStorageFailure struct {
	Err error `json:"-"`
}

func (e ErrStorageFailure) Error() string {
	return fmt.Sprintf("storage failure: %v", e.Err)
}

func (e ErrStorageFailure) Unwrap() error {
	return e.Err
}
