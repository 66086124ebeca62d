package ledgergo_test

import (
	"bytes"
	"math"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/bwmarrin/snowflake"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/jmllr/ledgergo"
	"github.com/jmllr/ledgergo/mocks"
)

// newTestLedger wires the real service to the in-memory repository with
// a directory that resolves every customer.
func newTestLedger(t *testing.T) ledgergo.Service {
	t.Helper()
	log := zerolog.Nop()
	node, err := snowflake.NewNode(111)
	require.New(t).Nil(err)
	ctrl := gomock.NewController(t)
	dir := mocks.NewMockCustomerDirectory(ctrl)
	dir.EXPECT().
		Resolve(gomock.Any()).
		DoAndReturn(func(id snowflake.ID) (*ledgergo.Customer, error) {
			return &ledgergo.Customer{ID: id, Name: "Test"}, nil
		}).
		AnyTimes()
	repo := ledgergo.NewMemoryEndpoint()
	svc, err := ledgergo.NewService(repo, dir, node, &log)
	require.New(t).Nil(err)
	return svc
}

func openCurrent(t *testing.T, svc ledgergo.Service, balance, overdraft int64) *ledgergo.Account {
	t.Helper()
	acct, err := svc.OpenCurrentAccount(ledgergo.OpenCurrentReq{
		InitialBalance: decimal.NewFromInt(balance),
		OverdraftLimit: decimal.NewFromInt(overdraft),
		CustomerID:     snowflake.ParseInt64(42),
		Actor:          "seed",
	})
	require.New(t).Nil(err)
	return acct
}

func TestOverdraftFloor(t *testing.T) {
	t.Run("a current account may go negative down to its overdraft limit", func(tt *testing.T) {
		as := assert.New(tt)
		reqrd := require.New(tt)
		svc := newTestLedger(tt)
		acct := openCurrent(tt, svc, 100, 50)

		op, err := svc.Debit(ledgergo.ChargeReq{AcctID: acct.ID, Amount: decimal.NewFromInt(130), Description: "x", Actor: "alice"})
		reqrd.Nil(err)
		as.Equal(ledgergo.OpDebit, op.Type)

		got, err := svc.GetAccount(acct.ID)
		reqrd.Nil(err)
		as.True(got.Balance.Equal(decimal.NewFromInt(-30)), "balance %s", got.Balance)
		as.Equal("alice", got.UpdatedBy)

		_, err = svc.Debit(ledgergo.ChargeReq{AcctID: acct.ID, Amount: decimal.NewFromInt(25), Description: "x", Actor: "alice"})
		as.ErrorAs(err, &ledgergo.ErrInsufficientFunds{})

		got, err = svc.GetAccount(acct.ID)
		reqrd.Nil(err)
		as.True(got.Balance.Equal(decimal.NewFromInt(-30)))
	})

	t.Run("a savings account never goes below zero", func(tt *testing.T) {
		as := assert.New(tt)
		reqrd := require.New(tt)
		svc := newTestLedger(tt)
		acct, err := svc.OpenSavingAccount(ledgergo.OpenSavingReq{
			InitialBalance: decimal.NewFromInt(10),
			InterestRate:   decimal.NewFromFloat(0.02),
			CustomerID:     snowflake.ParseInt64(42),
			Actor:          "seed",
		})
		reqrd.Nil(err)

		_, err = svc.Debit(ledgergo.ChargeReq{AcctID: acct.ID, Amount: decimal.NewFromInt(11), Actor: "alice"})
		as.ErrorAs(err, &ledgergo.ErrInsufficientFunds{})

		_, err = svc.Debit(ledgergo.ChargeReq{AcctID: acct.ID, Amount: decimal.NewFromInt(10), Actor: "alice"})
		as.Nil(err)
	})
}

func TestDebitCreditRoundTrip(t *testing.T) {
	as := assert.New(t)
	reqrd := require.New(t)
	svc := newTestLedger(t)
	acct := openCurrent(t, svc, 100, 0)

	_, err := svc.Debit(ledgergo.ChargeReq{AcctID: acct.ID, Amount: decimal.NewFromInt(30), Actor: "alice"})
	reqrd.Nil(err)
	_, err = svc.Credit(ledgergo.ChargeReq{AcctID: acct.ID, Amount: decimal.NewFromInt(30), Actor: "alice"})
	reqrd.Nil(err)

	got, err := svc.GetAccount(acct.ID)
	reqrd.Nil(err)
	as.True(got.Balance.Equal(decimal.NewFromInt(100)))

	page, err := svc.History(ledgergo.HistoryReq{AcctID: acct.ID, Page: 0, Size: 10})
	reqrd.Nil(err)
	as.Equal(int64(2), page.Total)
	as.Len(page.Operations, 2)
}

func TestTransferAtomicity(t *testing.T) {
	t.Run("moves the amount and records both legs", func(tt *testing.T) {
		as := assert.New(tt)
		reqrd := require.New(tt)
		svc := newTestLedger(tt)
		a := openCurrent(tt, svc, 40, 0)
		b := openCurrent(tt, svc, 0, 0)

		rcpt, err := svc.Transfer(ledgergo.TransferReq{
			SourceID: a.ID,
			DestID:   b.ID,
			Amount:   decimal.NewFromInt(40),
			Actor:    "alice",
		})
		reqrd.Nil(err)
		as.Equal(ledgergo.OpDebit, rcpt.Debit.Type)
		as.Equal(a.ID, rcpt.Debit.AcctID)
		as.Equal(ledgergo.OpCredit, rcpt.Credit.Type)
		as.Equal(b.ID, rcpt.Credit.AcctID)
		as.True(rcpt.Debit.Amount.Equal(rcpt.Credit.Amount))

		gotA, err := svc.GetAccount(a.ID)
		reqrd.Nil(err)
		as.True(gotA.Balance.Equal(decimal.Zero))
		gotB, err := svc.GetAccount(b.ID)
		reqrd.Nil(err)
		as.True(gotB.Balance.Equal(decimal.NewFromInt(40)))

		pa, err := svc.History(ledgergo.HistoryReq{AcctID: a.ID, Page: 0, Size: 10})
		reqrd.Nil(err)
		as.Equal(int64(1), pa.Total)
		pb, err := svc.History(ledgergo.HistoryReq{AcctID: b.ID, Page: 0, Size: 10})
		reqrd.Nil(err)
		as.Equal(int64(1), pb.Total)
	})

	t.Run("a missing destination leaves the source untouched", func(tt *testing.T) {
		as := assert.New(tt)
		reqrd := require.New(tt)
		svc := newTestLedger(tt)
		a := openCurrent(tt, svc, 100, 0)

		_, err := svc.Transfer(ledgergo.TransferReq{
			SourceID: a.ID,
			DestID:   snowflake.ParseInt64(999),
			Amount:   decimal.NewFromInt(40),
			Actor:    "alice",
		})
		as.ErrorAs(err, &ledgergo.ErrAccountNotFound{})

		got, err := svc.GetAccount(a.ID)
		reqrd.Nil(err)
		as.True(got.Balance.Equal(decimal.NewFromInt(100)))
		page, err := svc.History(ledgergo.HistoryReq{AcctID: a.ID, Page: 0, Size: 10})
		reqrd.Nil(err)
		as.Equal(int64(0), page.Total)
	})

	t.Run("an insufficient source leaves both accounts untouched", func(tt *testing.T) {
		as := assert.New(tt)
		reqrd := require.New(tt)
		svc := newTestLedger(tt)
		a := openCurrent(tt, svc, 10, 0)
		b := openCurrent(tt, svc, 0, 0)

		_, err := svc.Transfer(ledgergo.TransferReq{
			SourceID: a.ID,
			DestID:   b.ID,
			Amount:   decimal.NewFromInt(40),
			Actor:    "alice",
		})
		as.ErrorAs(err, &ledgergo.ErrInsufficientFunds{})

		gotB, err := svc.GetAccount(b.ID)
		reqrd.Nil(err)
		as.True(gotB.Balance.Equal(decimal.Zero))
		pb, err := svc.History(ledgergo.HistoryReq{AcctID: b.ID, Page: 0, Size: 10})
		reqrd.Nil(err)
		as.Equal(int64(0), pb.Total)
	})

	// self-transfers are deliberately permitted: a harmless no-op on the
	// balance that still records both legs
	t.Run("a self-transfer nets to zero but records two operations", func(tt *testing.T) {
		as := assert.New(tt)
		reqrd := require.New(tt)
		svc := newTestLedger(tt)
		a := openCurrent(tt, svc, 100, 0)

		rcpt, err := svc.Transfer(ledgergo.TransferReq{
			SourceID: a.ID,
			DestID:   a.ID,
			Amount:   decimal.NewFromInt(40),
			Actor:    "alice",
		})
		reqrd.Nil(err)
		as.Equal(ledgergo.OpDebit, rcpt.Debit.Type)
		as.Equal(ledgergo.OpCredit, rcpt.Credit.Type)

		got, err := svc.GetAccount(a.ID)
		reqrd.Nil(err)
		as.True(got.Balance.Equal(decimal.NewFromInt(100)))
		page, err := svc.History(ledgergo.HistoryReq{AcctID: a.ID, Page: 0, Size: 10})
		reqrd.Nil(err)
		as.Equal(int64(2), page.Total)
	})
}

func TestReplayReconstructsBalance(t *testing.T) {
	as := assert.New(t)
	reqrd := require.New(t)
	svc := newTestLedger(t)
	a := openCurrent(t, svc, 100, 50)
	b := openCurrent(t, svc, 200, 0)

	_, err := svc.Debit(ledgergo.ChargeReq{AcctID: a.ID, Amount: decimal.NewFromInt(30), Actor: "alice"})
	reqrd.Nil(err)
	_, err = svc.Credit(ledgergo.ChargeReq{AcctID: a.ID, Amount: decimal.NewFromFloat(12.5), Actor: "bob"})
	reqrd.Nil(err)
	_, err = svc.Transfer(ledgergo.TransferReq{SourceID: b.ID, DestID: a.ID, Amount: decimal.NewFromInt(75), Actor: "alice"})
	reqrd.Nil(err)
	_, err = svc.Debit(ledgergo.ChargeReq{AcctID: a.ID, Amount: decimal.NewFromInt(140), Actor: "carol"})
	reqrd.Nil(err)

	for _, acct := range []*ledgergo.Account{a, b} {
		page, err := svc.History(ledgergo.HistoryReq{AcctID: acct.ID, Page: 0, Size: 100})
		reqrd.Nil(err)
		// History is newest-first; replay wants oldest-first.
		ops := make([]ledgergo.Operation, 0, len(page.Operations))
		for i := len(page.Operations) - 1; i >= 0; i-- {
			ops = append(ops, page.Operations[i])
		}
		got, err := svc.GetAccount(acct.ID)
		reqrd.Nil(err)
		replayed := ledgergo.ReplayBalance(acct.Balance, ops)
		as.True(replayed.Equal(got.Balance), "replayed %s, stored %s", replayed, got.Balance)
	}
}

func TestConcurrentDebitsRespectFloor(t *testing.T) {
	as := assert.New(t)
	reqrd := require.New(t)
	svc := newTestLedger(t)
	acct := openCurrent(t, svc, 50, 0)

	const workers = 20
	var ok, insufficient int64
	var wg sync.WaitGroup
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			_, err := svc.Debit(ledgergo.ChargeReq{AcctID: acct.ID, Amount: decimal.NewFromInt(10), Actor: "alice"})
			if err == nil {
				atomic.AddInt64(&ok, 1)
				return
			}
			var e ledgergo.ErrInsufficientFunds
			if assert.ErrorAs(t, err, &e) {
				atomic.AddInt64(&insufficient, 1)
			}
		}()
	}
	wg.Wait()

	as.Equal(int64(5), ok)
	as.Equal(int64(workers-5), insufficient)

	got, err := svc.GetAccount(acct.ID)
	reqrd.Nil(err)
	as.True(got.Balance.Equal(decimal.Zero))
	page, err := svc.History(ledgergo.HistoryReq{AcctID: acct.ID, Page: 0, Size: 100})
	reqrd.Nil(err)
	as.Equal(int64(5), page.Total)
}

func TestHistoryPagination(t *testing.T) {
	as := assert.New(t)
	reqrd := require.New(t)
	svc := newTestLedger(t)
	acct := openCurrent(t, svc, 0, 0)

	const n = 25
	for i := 1; i <= n; i++ {
		_, err := svc.Credit(ledgergo.ChargeReq{AcctID: acct.ID, Amount: decimal.NewFromInt(int64(i)), Actor: "alice"})
		reqrd.Nil(err)
	}

	var all []ledgergo.Operation
	for p := 0; ; p++ {
		page, err := svc.History(ledgergo.HistoryReq{AcctID: acct.ID, Page: p, Size: 10})
		reqrd.Nil(err)
		as.Equal(int64(n), page.Total)
		if len(page.Operations) == 0 {
			break
		}
		all = append(all, page.Operations...)
	}
	reqrd.Len(all, n)

	// newest first, no duplicates, no omissions
	seen := make(map[int64]bool, n)
	for i, op := range all {
		as.False(seen[op.ID], "duplicate operation %d", op.ID)
		seen[op.ID] = true
		if i > 0 {
			as.True(all[i-1].ID > op.ID, "ordering violated at index %d", i)
		}
	}

	page, err := svc.History(ledgergo.HistoryReq{AcctID: acct.ID, Page: 7, Size: 10})
	reqrd.Nil(err)
	as.Empty(page.Operations)

	// a page number near the int ceiling is valid input and must yield an
	// empty page, not wrap around
	page, err = svc.History(ledgergo.HistoryReq{AcctID: acct.ID, Page: math.MaxInt, Size: 100})
	reqrd.Nil(err)
	as.Empty(page.Operations)
	as.Equal(int64(n), page.Total)

	_, err = svc.History(ledgergo.HistoryReq{AcctID: snowflake.ParseInt64(999), Page: 0, Size: 10})
	as.ErrorAs(err, &ledgergo.ErrAccountNotFound{})
}

func TestStatementPDF(t *testing.T) {
	as := assert.New(t)
	reqrd := require.New(t)
	svc := newTestLedger(t)
	acct := openCurrent(t, svc, 100, 0)
	_, err := svc.Debit(ledgergo.ChargeReq{AcctID: acct.ID, Amount: decimal.NewFromInt(30), Description: "groceries", Actor: "alice"})
	reqrd.Nil(err)

	buf := &bytes.Buffer{}
	reqrd.Nil(svc.Statement(buf, acct.ID))
	as.True(bytes.HasPrefix(buf.Bytes(), []byte("%PDF")))

	err = svc.Statement(&bytes.Buffer{}, snowflake.ParseInt64(999))
	as.ErrorAs(err, &ledgergo.ErrAccountNotFound{})
}
