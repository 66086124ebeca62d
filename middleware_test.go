package ledgergo_test

import (
	"errors"
	"testing"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"go.uber.org/mock/gomock"
	"golang.org/x/sync/semaphore"

	"github.com/jmllr/ledgergo"
	"github.com/jmllr/ledgergo/mocks"
)

func TestValidationMiddleware(t *testing.T) {
	t.Run("rejects a request with no actor", func(tt *testing.T) {
		as := assert.New(tt)
		ctrl := gomock.NewController(tt)
		next := mocks.NewMockService(ctrl)
		svc := ledgergo.NewValidationMiddleware()(next)

		_, err := svc.Debit(ledgergo.ChargeReq{
			AcctID: snowflake.ParseInt64(1),
			Amount: decimal.NewFromInt(10),
		})
		as.ErrorAs(err, &ledgergo.ErrBadRequest{})

		_, err = svc.Transfer(ledgergo.TransferReq{
			SourceID: snowflake.ParseInt64(1),
			DestID:   snowflake.ParseInt64(2),
			Amount:   decimal.NewFromInt(10),
		})
		as.ErrorAs(err, &ledgergo.ErrBadRequest{})

		_, err = svc.OpenCurrentAccount(ledgergo.OpenCurrentReq{
			InitialBalance: decimal.NewFromInt(10),
		})
		as.ErrorAs(err, &ledgergo.ErrBadRequest{})
	})

	t.Run("rejects a non-positive amount", func(tt *testing.T) {
		as := assert.New(tt)
		ctrl := gomock.NewController(tt)
		next := mocks.NewMockService(ctrl)
		svc := ledgergo.NewValidationMiddleware()(next)

		_, err := svc.Credit(ledgergo.ChargeReq{
			AcctID: snowflake.ParseInt64(1),
			Amount: decimal.NewFromInt(-10),
			Actor:  "alice",
		})
		as.ErrorAs(err, &ledgergo.ErrInvalidAmount{})
	})

	t.Run("rejects an out-of-range history request", func(tt *testing.T) {
		as := assert.New(tt)
		ctrl := gomock.NewController(tt)
		next := mocks.NewMockService(ctrl)
		svc := ledgergo.NewValidationMiddleware()(next)

		_, err := svc.History(ledgergo.HistoryReq{AcctID: snowflake.ParseInt64(1), Page: -1, Size: 10})
		as.ErrorAs(err, &ledgergo.ErrBadRequest{})

		_, err = svc.History(ledgergo.HistoryReq{AcctID: snowflake.ParseInt64(1), Page: 0, Size: 101})
		as.ErrorAs(err, &ledgergo.ErrBadRequest{})
	})

	t.Run("passes a well-formed request through", func(tt *testing.T) {
		as := assert.New(tt)
		ctrl := gomock.NewController(tt)
		next := mocks.NewMockService(ctrl)
		svc := ledgergo.NewValidationMiddleware()(next)

		req := ledgergo.ChargeReq{
			AcctID: snowflake.ParseInt64(1),
			Amount: decimal.NewFromInt(10),
			Actor:  "alice",
		}
		next.EXPECT().Debit(req).Return(&ledgergo.Operation{ID: 1}, nil)
		op, err := svc.Debit(req)
		as.Nil(err)
		as.Equal(int64(1), op.ID)
	})
}

func TestLimitMiddleware(t *testing.T) {
	t.Run("sheds load when the operation group is saturated", func(tt *testing.T) {
		as := assert.New(tt)
		ctrl := gomock.NewController(tt)
		next := mocks.NewMockService(ctrl)
		limits := &ledgergo.ServiceLimits{
			Open:     semaphore.NewWeighted(0),
			Charge:   semaphore.NewWeighted(0),
			Transfer: semaphore.NewWeighted(0),
			Query:    semaphore.NewWeighted(0),
		}
		svc := ledgergo.NewLimitMiddleware(limits)(next)

		_, err := svc.Debit(ledgergo.ChargeReq{})
		as.ErrorIs(err, ledgergo.ErrTooManyRequests)
		_, err = svc.Transfer(ledgergo.TransferReq{})
		as.ErrorIs(err, ledgergo.ErrTooManyRequests)
		_, err = svc.History(ledgergo.HistoryReq{})
		as.ErrorIs(err, ledgergo.ErrTooManyRequests)
		_, err = svc.OpenCurrentAccount(ledgergo.OpenCurrentReq{})
		as.ErrorIs(err, ledgergo.ErrTooManyRequests)
	})

	t.Run("releases permits after each call", func(tt *testing.T) {
		as := assert.New(tt)
		ctrl := gomock.NewController(tt)
		next := mocks.NewMockService(ctrl)
		svc := ledgergo.NewLimitMiddleware(ledgergo.DefaultServiceLimits())(next)

		next.EXPECT().Credit(gomock.Any()).Return(&ledgergo.Operation{}, nil).Times(3)
		for i := 0; i < 3; i++ {
			_, err := svc.Credit(ledgergo.ChargeReq{})
			as.Nil(err)
		}
	})
}

func TestCircuitBreakMiddleware(t *testing.T) {
	t.Run("opens after consecutive storage failures", func(tt *testing.T) {
		as := assert.New(tt)
		ctrl := gomock.NewController(tt)
		next := mocks.NewMockService(ctrl)
		svc := ledgergo.NewCircuitBreakMiddleware(ledgergo.DefaultServiceBreaker())(next)

		boom := ledgergo.ErrStorageFailure{Err: errors.New("connection refused")}
		next.EXPECT().Debit(gomock.Any()).Return(nil, boom).Times(6)
		for i := 0; i < 6; i++ {
			_, err := svc.Debit(ledgergo.ChargeReq{})
			as.ErrorAs(err, &ledgergo.ErrStorageFailure{})
		}

		// breaker is open now; the store is not reached
		_, err := svc.Debit(ledgergo.ChargeReq{})
		as.ErrorIs(err, ledgergo.ErrTooManyRequests)
	})

	t.Run("business rejections never trip it", func(tt *testing.T) {
		as := assert.New(tt)
		ctrl := gomock.NewController(tt)
		next := mocks.NewMockService(ctrl)
		svc := ledgergo.NewCircuitBreakMiddleware(ledgergo.DefaultServiceBreaker())(next)

		rejected := ledgergo.ErrInsufficientFunds{AcctID: snowflake.ParseInt64(1)}
		next.EXPECT().Debit(gomock.Any()).Return(nil, rejected).Times(10)
		for i := 0; i < 10; i++ {
			_, err := svc.Debit(ledgergo.ChargeReq{})
			as.ErrorAs(err, &ledgergo.ErrInsufficientFunds{})
		}

		next.EXPECT().Debit(gomock.Any()).Return(&ledgergo.Operation{}, nil)
		_, err := svc.Debit(ledgergo.ChargeReq{})
		as.Nil(err)
	})

	t.Run("operation groups trip independently", func(tt *testing.T) {
		as := assert.New(tt)
		ctrl := gomock.NewController(tt)
		next := mocks.NewMockService(ctrl)
		svc := ledgergo.NewCircuitBreakMiddleware(ledgergo.DefaultServiceBreaker())(next)

		boom := ledgergo.ErrStorageFailure{Err: errors.New("connection refused")}
		next.EXPECT().Debit(gomock.Any()).Return(nil, boom).Times(6)
		for i := 0; i < 6; i++ {
			_, _ = svc.Debit(ledgergo.ChargeReq{})
		}
		_, err := svc.Debit(ledgergo.ChargeReq{})
		as.ErrorIs(err, ledgergo.ErrTooManyRequests)

		// queries still flow
		next.EXPECT().GetAccount(gomock.Any()).Return(&ledgergo.Account{}, nil)
		_, err = svc.GetAccount(snowflake.ParseInt64(1))
		as.Nil(err)
	})
}
