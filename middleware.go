package ledgergo

import (
	"errors"
	"fmt"
	"io"

	"github.com/bwmarrin/snowflake"
	"github.com/sony/gobreaker/v2"
	"golang.org/x/sync/semaphore"
)

type Middleware func(Service) Service

// validationMiddleware rejects malformed requests before they reach any
// state. Business rules (floors, existence) stay in the engine and the
// store; only request shape is checked here.
type validationMiddleware struct {
	next Service
}

var (
	_ Service = (*validationMiddleware)(nil)
)

func NewValidationMiddleware() Middleware {
	return func(svc Service) Service {
		return &validationMiddleware{next: svc}
	}
}

func (v *validationMiddleware) OpenCurrentAccount(req OpenCurrentReq) (*Account, error) {
	if req.Actor == "" {
		return nil, ErrBadRequest{Fields: map[string]string{"actor": "missing"}}
	}
	if req.InitialBalance.IsNegative() {
		return nil, ErrBadRequest{Fields: map[string]string{"initial_balance": "must be non-negative"}}
	}
	if req.OverdraftLimit.IsNegative() {
		return nil, ErrBadRequest{Fields: map[string]string{"overdraft_limit": "must be non-negative"}}
	}
	return v.next.OpenCurrentAccount(req)
}

func (v *validationMiddleware) OpenSavingAccount(req OpenSavingReq) (*Account, error) {
	if req.Actor == "" {
		return nil, ErrBadRequest{Fields: map[string]string{"actor": "missing"}}
	}
	if req.InitialBalance.IsNegative() {
		return nil, ErrBadRequest{Fields: map[string]string{"initial_balance": "must be non-negative"}}
	}
	if req.InterestRate.IsNegative() {
		return nil, ErrBadRequest{Fields: map[string]string{"interest_rate": "must be non-negative"}}
	}
	return v.next.OpenSavingAccount(req)
}

func (v *validationMiddleware) GetAccount(id snowflake.ID) (*Account, error) {
	return v.next.GetAccount(id)
}

func (v *validationMiddleware) Debit(req ChargeReq) (*Operation, error) {
	if req.Actor == "" {
		return nil, ErrBadRequest{Fields: map[string]string{"actor": "missing"}}
	}
	if !req.Amount.IsPositive() {
		return nil, ErrInvalidAmount{Amount: req.Amount}
	}
	return v.next.Debit(req)
}

func (v *validationMiddleware) Credit(req ChargeReq) (*Operation, error) {
	if req.Actor == "" {
		return nil, ErrBadRequest{Fields: map[string]string{"actor": "missing"}}
	}
	if !req.Amount.IsPositive() {
		return nil, ErrInvalidAmount{Amount: req.Amount}
	}
	return v.next.Credit(req)
}

func (v *validationMiddleware) Transfer(req TransferReq) (*TransferReceipt, error) {
	if req.Actor == "" {
		return nil, ErrBadRequest{Fields: map[string]string{"actor": "missing"}}
	}
	if !req.Amount.IsPositive() {
		return nil, ErrInvalidAmount{Amount: req.Amount}
	}
	return v.next.Transfer(req)
}

func (v *validationMiddleware) History(req HistoryReq) (*OperationPage, error) {
	if req.Page < 0 {
		return nil, ErrBadRequest{Fields: map[string]string{"page": "must be non-negative"}}
	}
	if req.Size <= 0 || req.Size > maxPageSize {
		return nil, ErrBadRequest{Fields: map[string]string{"size": fmt.Sprintf("must be in 1..%d", maxPageSize)}}
	}
	return v.next.History(req)
}

func (v *validationMiddleware) Statement(w io.Writer, id snowflake.ID) error {
	return v.next.Statement(w, id)
}

//
// Load shedding middlewares
//

// ServiceLimits caps in-flight requests per operation. Static weights
// keep the implementation simple; tuning is a deployment concern.
type ServiceLimits struct {
	Open     *semaphore.Weighted
	Charge   *semaphore.Weighted
	Transfer *semaphore.Weighted
	Query    *semaphore.Weighted
}

func DefaultServiceLimits() *ServiceLimits {
	return &ServiceLimits{
		Open:     semaphore.NewWeighted(64),
		Charge:   semaphore.NewWeighted(256),
		Transfer: semaphore.NewWeighted(256),
		Query:    semaphore.NewWeighted(512),
	}
}

type limitMiddleware struct {
	next   Service
	limits *ServiceLimits
}

var (
	_ Service = (*limitMiddleware)(nil)
)

func NewLimitMiddleware(limits *ServiceLimits) Middleware {
	return func(next Service) Service {
		return &limitMiddleware{
			next:   next,
			limits: limits,
		}
	}
}

func (l *limitMiddleware) OpenCurrentAccount(req OpenCurrentReq) (*Account, error) {
	if !l.limits.Open.TryAcquire(1) {
		return nil, ErrTooManyRequests
	}
	defer l.limits.Open.Release(1)
	return l.next.OpenCurrentAccount(req)
}

func (l *limitMiddleware) OpenSavingAccount(req OpenSavingReq) (*Account, error) {
	if !l.limits.Open.TryAcquire(1) {
		return nil, ErrTooManyRequests
	}
	defer l.limits.Open.Release(1)
	return l.next.OpenSavingAccount(req)
}

func (l *limitMiddleware) GetAccount(id snowflake.ID) (*Account, error) {
	if !l.limits.Query.TryAcquire(1) {
		return nil, ErrTooManyRequests
	}
	defer l.limits.Query.Release(1)
	return l.next.GetAccount(id)
}

func (l *limitMiddleware) Debit(req ChargeReq) (*Operation, error) {
	if !l.limits.Charge.TryAcquire(1) {
		return nil, ErrTooManyRequests
	}
	defer l.limits.Charge.Release(1)
	return l.next.Debit(req)
}

func (l *limitMiddleware) Credit(req ChargeReq) (*Operation, error) {
	if !l.limits.Charge.TryAcquire(1) {
		return nil, ErrTooManyRequests
	}
	defer l.limits.Charge.Release(1)
	return l.next.Credit(req)
}

func (l *limitMiddleware) Transfer(req TransferReq) (*TransferReceipt, error) {
	if !l.limits.Transfer.TryAcquire(1) {
		return nil, ErrTooManyRequests
	}
	defer l.limits.Transfer.Release(1)
	return l.next.Transfer(req)
}

func (l *limitMiddleware) History(req HistoryReq) (*OperationPage, error) {
	if !l.limits.Query.TryAcquire(1) {
		return nil, ErrTooManyRequests
	}
	defer l.limits.Query.Release(1)
	return l.next.History(req)
}

func (l *limitMiddleware) Statement(w io.Writer, id snowflake.ID) error {
	if !l.limits.Query.TryAcquire(1) {
		return ErrTooManyRequests
	}
	defer l.limits.Query.Release(1)
	return l.next.Statement(w, id)
}

// ServiceBreaker trips per operation group when the storage layer keeps
// failing. Business rejections (insufficient funds, not found) are
// successes as far as the breaker is concerned.
type ServiceBreaker struct {
	Open     *gobreaker.TwoStepCircuitBreaker[*Account]
	Charge   *gobreaker.TwoStepCircuitBreaker[*Operation]
	Transfer *gobreaker.TwoStepCircuitBreaker[*TransferReceipt]
	Query    *gobreaker.TwoStepCircuitBreaker[*OperationPage]
}

func DefaultServiceBreaker() *ServiceBreaker {
	return &ServiceBreaker{
		Open:     gobreaker.NewTwoStepCircuitBreaker[*Account](gobreaker.Settings{Name: "open"}),
		Charge:   gobreaker.NewTwoStepCircuitBreaker[*Operation](gobreaker.Settings{Name: "charge"}),
		Transfer: gobreaker.NewTwoStepCircuitBreaker[*TransferReceipt](gobreaker.Settings{Name: "transfer"}),
		Query:    gobreaker.NewTwoStepCircuitBreaker[*OperationPage](gobreaker.Settings{Name: "query"}),
	}
}

type circuitBreakMiddleware struct {
	next  Service
	brkrs *ServiceBreaker
}

var (
	_ Service = (*circuitBreakMiddleware)(nil)
)

func NewCircuitBreakMiddleware(brkrs *ServiceBreaker) Middleware {
	return func(next Service) Service {
		return &circuitBreakMiddleware{
			next:  next,
			brkrs: brkrs,
		}
	}
}

func (c *circuitBreakMiddleware) OpenCurrentAccount(req OpenCurrentReq) (*Account, error) {
	done, err := c.brkrs.Open.Allow()
	if err != nil {
		return nil, ErrTooManyRequests
	}
	acct, err := c.next.OpenCurrentAccount(req)
	done(!isStorageFailure(err))
	return acct, err
}

func (c *circuitBreakMiddleware) OpenSavingAccount(req OpenSavingReq) (*Account, error) {
	done, err := c.brkrs.Open.Allow()
	if err != nil {
		return nil, ErrTooManyRequests
	}
	acct, err := c.next.OpenSavingAccount(req)
	done(!isStorageFailure(err))
	return acct, err
}

func (c *circuitBreakMiddleware) GetAccount(id snowflake.ID) (*Account, error) {
	done, err := c.brkrs.Query.Allow()
	if err != nil {
		return nil, ErrTooManyRequests
	}
	acct, err := c.next.GetAccount(id)
	done(!isStorageFailure(err))
	return acct, err
}

func (c *circuitBreakMiddleware) Debit(req ChargeReq) (*Operation, error) {
	done, err := c.brkrs.Charge.Allow()
	if err != nil {
		return nil, ErrTooManyRequests
	}
	op, err := c.next.Debit(req)
	done(!isStorageFailure(err))
	return op, err
}

func (c *circuitBreakMiddleware) Credit(req ChargeReq) (*Operation, error) {
	done, err := c.brkrs.Charge.Allow()
	if err != nil {
		return nil, ErrTooManyRequests
	}
	op, err := c.next.Credit(req)
	done(!isStorageFailure(err))
	return op, err
}

func (c *circuitBreakMiddleware) Transfer(req TransferReq) (*TransferReceipt, error) {
	done, err := c.brkrs.Transfer.Allow()
	if err != nil {
		return nil, ErrTooManyRequests
	}
	rcpt, err := c.next.Transfer(req)
	done(!isStorageFailure(err))
	return rcpt, err
}

func (c *circuitBreakMiddleware) History(req HistoryReq) (*OperationPage, error) {
	done, err := c.brkrs.Query.Allow()
	if err != nil {
		return nil, ErrTooManyRequests
	}
	page, err := c.next.History(req)
	done(!isStorageFailure(err))
	return page, err
}

func (c *circuitBreakMiddleware) Statement(w io.Writer, id snowflake.ID) error {
	done, err := c.brkrs.Query.Allow()
	if err != nil {
		return ErrTooManyRequests
	}
	err = c.next.Statement(w, id)
	done(!isStorageFailure(err))
	return err
}

func isStorageFailure(err error) bool {
	if err == nil {
		return false
	}
	var sf ErrStorageFailure
	return errors.As(err, &sf)
}
