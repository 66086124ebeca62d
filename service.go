package ledgergo

import (
	"errors"
	"fmt"
	"io"

	"github.com/bwmarrin/snowflake"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

const maxPageSize = 100

type OpenCurrentReq struct {
	InitialBalance decimal.Decimal `json:"initial_balance"`
	OverdraftLimit decimal.Decimal `json:"overdraft_limit"`
	CustomerID     snowflake.ID    `json:"customer_id"`
	Actor          string          `json:"-"`
}

type OpenSavingReq struct {
	InitialBalance decimal.Decimal `json:"initial_balance"`
	InterestRate   decimal.Decimal `json:"interest_rate"`
	CustomerID     snowflake.ID    `json:"customer_id"`
	Actor          string          `json:"-"`
}

type ChargeReq struct {
	AcctID      snowflake.ID    `json:"-"`
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description"`
	Actor       string          `json:"-"`
}

type TransferReq struct {
	SourceID    snowflake.ID    `json:"source_id"`
	DestID      snowflake.ID    `json:"dest_id"`
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description"`
	Actor       string          `json:"-"`

	// per-leg descriptions, filled in by the service before the
	// repository sees the request
	DebitDescription  string `json:"-"`
	CreditDescription string `json:"-"`
}

type HistoryReq struct {
	AcctID snowflake.ID
	Page   int
	Size   int
}

type TransferReceipt struct {
	Debit  *Operation `json:"debit"`
	Credit *Operation `json:"credit"`
}

type Service interface {
	OpenCurrentAccount(req OpenCurrentReq) (*Account, error)
	OpenSavingAccount(req OpenSavingReq) (*Account, error)
	GetAccount(id snowflake.ID) (*Account, error)
	Debit(req ChargeReq) (*Operation, error)
	Credit(req ChargeReq) (*Operation, error)
	Transfer(req TransferReq) (*TransferReceipt, error)
	History(req HistoryReq) (*OperationPage, error)
	Statement(w io.Writer, id snowflake.ID) error
}

func NewService(repo Repository, dir CustomerDirectory, node *snowflake.Node, log *zerolog.Logger) (*serviceImpl, error) {
	if repo == nil || dir == nil || node == nil {
		return nil, errors.New("repository, directory, and snowflake node are required")
	}
	return &serviceImpl{
		repo: repo,
		dir:  dir,
		node: node,
		log:  log,
	}, nil
}

var (
	_ Service = (*serviceImpl)(nil)
)

type serviceImpl struct {
	repo Repository
	dir  CustomerDirectory
	node *snowflake.Node
	log  *zerolog.Logger
}

func (s *serviceImpl) OpenCurrentAccount(req OpenCurrentReq) (*Account, error) {
	if req.InitialBalance.IsNegative() {
		return nil, ErrInvalidAmount{Amount: req.InitialBalance}
	}
	if req.OverdraftLimit.IsNegative() {
		return nil, ErrInvalidAmount{Amount: req.OverdraftLimit}
	}
	cust, err := s.dir.Resolve(req.CustomerID)
	if err != nil {
		return nil, err
	}

	// the initial balance is a provisioning fact, not a ledger event;
	// no opening operation is recorded
	acct := &Account{
		ID:             s.node.Generate(),
		Kind:           KindCurrent,
		Balance:        req.InitialBalance,
		OverdraftLimit: req.OverdraftLimit,
		CustomerID:     cust.ID,
		CreatedBy:      req.Actor,
		UpdatedBy:      req.Actor,
	}
	return s.repo.CreateAccount(acct)
}

func (s *serviceImpl) OpenSavingAccount(req OpenSavingReq) (*Account, error) {
	if req.InitialBalance.IsNegative() {
		return nil, ErrInvalidAmount{Amount: req.InitialBalance}
	}
	if req.InterestRate.IsNegative() {
		return nil, ErrInvalidAmount{Amount: req.InterestRate}
	}
	cust, err := s.dir.Resolve(req.CustomerID)
	if err != nil {
		return nil, err
	}

	acct := &Account{
		ID:           s.node.Generate(),
		Kind:         KindSavings,
		Balance:      req.InitialBalance,
		InterestRate: req.InterestRate,
		CustomerID:   cust.ID,
		CreatedBy:    req.Actor,
		UpdatedBy:    req.Actor,
	}
	return s.repo.CreateAccount(acct)
}

func (s *serviceImpl) GetAccount(id snowflake.ID) (*Account, error) {
	return s.repo.GetAccount(id)
}

func (s *serviceImpl) Debit(req ChargeReq) (*Operation, error) {
	if !req.Amount.IsPositive() {
		return nil, ErrInvalidAmount{Amount: req.Amount}
	}
	return s.repo.Debit(req)
}

func (s *serviceImpl) Credit(req ChargeReq) (*Operation, error) {
	if !req.Amount.IsPositive() {
		return nil, ErrInvalidAmount{Amount: req.Amount}
	}
	return s.repo.Credit(req)
}

// Transfer debits the source and credits the destination as one atomic
// unit spanning both accounts. A self-transfer is permitted; it nets to
// zero but still records both legs.
func (s *serviceImpl) Transfer(req TransferReq) (*TransferReceipt, error) {
	if !req.Amount.IsPositive() {
		return nil, ErrInvalidAmount{Amount: req.Amount}
	}
	req.DebitDescription = req.Description
	req.CreditDescription = req.Description
	if req.Description == "" {
		req.DebitDescription = fmt.Sprintf("Transfer to %v", req.DestID)
		req.CreditDescription = fmt.Sprintf("Transfer from %v", req.SourceID)
	}
	deb, cred, err := s.repo.Transfer(req)
	if err != nil {
		return nil, err
	}
	return &TransferReceipt{Debit: deb, Credit: cred}, nil
}

func (s *serviceImpl) History(req HistoryReq) (*OperationPage, error) {
	if req.Page < 0 {
		return nil, ErrBadRequest{Fields: map[string]string{"page": "must be non-negative"}}
	}
	if req.Size <= 0 || req.Size > maxPageSize {
		return nil, ErrBadRequest{Fields: map[string]string{"size": fmt.Sprintf("must be in 1..%d", maxPageSize)}}
	}
	ops, total, err := s.repo.Operations(req)
	if err != nil {
		return nil, err
	}
	return &OperationPage{
		Operations: ops,
		Page:       req.Page,
		Size:       req.Size,
		Total:      total,
	}, nil
}

// Statement renders a PDF statement of the account's full history.
func (s *serviceImpl) Statement(w io.Writer, id snowflake.ID) error {
	acct, err := s.repo.GetAccount(id)
	if err != nil {
		return err
	}
	var ops []Operation
	for page := 0; ; page++ {
		batch, _, err := s.repo.Operations(HistoryReq{AcctID: id, Page: page, Size: maxPageSize})
		if err != nil {
			return err
		}
		ops = append(ops, batch...)
		if len(batch) < maxPageSize {
			break
		}
	}
	return renderStatement(w, acct, ops)
}
