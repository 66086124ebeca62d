package ledgergo

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
)

// MemoryEndpoint is an in-memory Repository with the same locking
// discipline as the Postgres endpoint: one mutex per account, two-account
// transfers lock in ascending ID order. It backs the test suite and
// local development runs.
type MemoryEndpoint struct {
	mu    sync.Mutex
	accts map[snowflake.ID]*memAccount
	opSeq int64
}

type memAccount struct {
	mu   sync.Mutex
	acct Account
	ops  []Operation
}

var (
	_ Repository = (*MemoryEndpoint)(nil)
)

func NewMemoryEndpoint() *MemoryEndpoint {
	return &MemoryEndpoint{
		accts: make(map[snowflake.ID]*memAccount),
	}
}

func (m *MemoryEndpoint) CreateAccount(acct *Account) (*Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now()
	acct.CreatedAt = now
	acct.UpdatedAt = now
	m.accts[acct.ID] = &memAccount{acct: *acct}
	out := *acct
	return &out, nil
}

func (m *MemoryEndpoint) GetAccount(id snowflake.ID) (*Account, error) {
	ma, err := m.lookup(id)
	if err != nil {
		return nil, err
	}
	ma.mu.Lock()
	defer ma.mu.Unlock()
	out := ma.acct
	return &out, nil
}

func (m *MemoryEndpoint) Debit(req ChargeReq) (*Operation, error) {
	return m.charge(OpDebit, req)
}

func (m *MemoryEndpoint) Credit(req ChargeReq) (*Operation, error) {
	return m.charge(OpCredit, req)
}

func (m *MemoryEndpoint) charge(typ OperationType, req ChargeReq) (*Operation, error) {
	ma, err := m.lookup(req.AcctID)
	if err != nil {
		return nil, err
	}
	ma.mu.Lock()
	defer ma.mu.Unlock()

	var newBal decimal.Decimal
	if typ == OpDebit {
		newBal = ma.acct.Balance.Sub(req.Amount)
		if newBal.LessThan(ma.acct.Floor()) {
			return nil, ErrInsufficientFunds{
				AcctID:    req.AcctID,
				Requested: req.Amount,
				Floor:     ma.acct.Floor(),
			}
		}
	} else {
		newBal = ma.acct.Balance.Add(req.Amount)
	}

	op := m.appendOp(ma, typ, req.Amount, req.Description, req.Actor)
	ma.acct.Balance = newBal
	ma.acct.UpdatedAt = op.Timestamp
	ma.acct.UpdatedBy = req.Actor
	return op, nil
}

func (m *MemoryEndpoint) Transfer(req TransferReq) (*Operation, *Operation, error) {
	src, err := m.lookup(req.SourceID)
	if err != nil {
		return nil, nil, err
	}
	dst, err := m.lookup(req.DestID)
	if err != nil {
		return nil, nil, err
	}

	// ascending ID order, same as the row-lock order in Postgres
	first, second := src, dst
	if req.DestID < req.SourceID {
		first, second = dst, src
	}
	first.mu.Lock()
	defer first.mu.Unlock()
	if first != second {
		second.mu.Lock()
		defer second.mu.Unlock()
	}

	newSrcBal := src.acct.Balance.Sub(req.Amount)
	if newSrcBal.LessThan(src.acct.Floor()) {
		return nil, nil, ErrInsufficientFunds{
			AcctID:    req.SourceID,
			Requested: req.Amount,
			Floor:     src.acct.Floor(),
		}
	}

	deb := m.appendOp(src, OpDebit, req.Amount, req.DebitDescription, req.Actor)
	cred := m.appendOp(dst, OpCredit, req.Amount, req.CreditDescription, req.Actor)
	if src != dst {
		src.acct.Balance = newSrcBal
		dst.acct.Balance = dst.acct.Balance.Add(req.Amount)
	}
	src.acct.UpdatedAt = deb.Timestamp
	src.acct.UpdatedBy = req.Actor
	dst.acct.UpdatedAt = cred.Timestamp
	dst.acct.UpdatedBy = req.Actor
	return deb, cred, nil
}

func (m *MemoryEndpoint) Operations(req HistoryReq) ([]Operation, int64, error) {
	ma, err := m.lookup(req.AcctID)
	if err != nil {
		return nil, 0, err
	}
	ma.mu.Lock()
	defer ma.mu.Unlock()

	// ops are stored in commit order; a page of the descending view is
	// a reversed slice window
	total := len(ma.ops)
	// compared, not multiplied, so a huge page cannot overflow
	if req.Page > total/req.Size {
		return []Operation{}, int64(total), nil
	}
	out := make([]Operation, 0, req.Size)
	for i := 0; i < req.Size; i++ {
		j := total - 1 - req.Page*req.Size - i
		if j < 0 {
			break
		}
		out = append(out, ma.ops[j])
	}
	return out, int64(total), nil
}

func (m *MemoryEndpoint) lookup(id snowflake.ID) (*memAccount, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ma, ok := m.accts[id]
	if !ok {
		return nil, ErrAccountNotFound{ID: id}
	}
	return ma, nil
}

// appendOp must be called with the account's mutex held; the sequence is
// drawn inside the critical section so per-account ID order matches
// commit order.
func (m *MemoryEndpoint) appendOp(ma *memAccount, typ OperationType, amount decimal.Decimal, desc, actor string) *Operation {
	op := Operation{
		ID:          atomic.AddInt64(&m.opSeq, 1),
		AcctID:      ma.acct.ID,
		Type:        typ,
		Amount:      amount,
		Description: desc,
		PerformedBy: actor,
		Timestamp:   time.Now(),
	}
	ma.ops = append(ma.ops, op)
	out := op
	return &out
}
