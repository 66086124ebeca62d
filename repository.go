package ledgergo

import (
	"github.com/bwmarrin/snowflake"
)

// Repository is the only gateway to the account store and the operation
// log. Each mutating method runs as one atomic unit: the balance write
// and the appended operation(s) commit together or not at all.
type Repository interface {
	CreateAccount(acct *Account) (*Account, error)
	GetAccount(id snowflake.ID) (*Account, error)
	Debit(req ChargeReq) (*Operation, error)
	Credit(req ChargeReq) (*Operation, error)
	Transfer(req TransferReq) (*Operation, *Operation, error)
	Operations(req HistoryReq) ([]Operation, int64, error)
}

// CustomerDirectory resolves a customer reference during provisioning.
// The directory itself (CRUD, search) lives outside the ledger.
type CustomerDirectory interface {
	Resolve(id snowflake.ID) (*Customer, error)
}
