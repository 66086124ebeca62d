package ledgergo

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

var (
	pgSelectAcctSQL = `
		SELECT kind, balance, overdraft_limit, interest_rate, customer_id,
			created_at, updated_at, created_by, updated_by
		FROM accounts
		WHERE id = $1;
	`

	// row lock held until commit; per-account mutations serialize here
	pgSelectAcctForUpdateSQL = `
		SELECT kind, balance, overdraft_limit, interest_rate, customer_id,
			created_at, updated_at, created_by, updated_by
		FROM accounts
		WHERE id = $1
		FOR UPDATE;
	`

	// ts defaults to clock_timestamp() so it reflects insert time inside
	// the lock region, not transaction start
	pgInsertOpSQL = `
		INSERT INTO operations (acct_id, typ, amount, description, performed_by)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, ts;
	`

	pgUpdateBalanceSQL = `
		UPDATE accounts
		SET balance = $1, updated_at = now(), updated_by = $2
		WHERE id = $3;
	`

	pgInsertAcctSQL = `
		INSERT INTO accounts (id, kind, balance, overdraft_limit, interest_rate,
			customer_id, created_by, updated_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at, updated_at;
	`

	pgCountOpsSQL = `
		SELECT count(*)
		FROM operations
		WHERE acct_id = $1;
	`

	pgSelectOpsSQL = `
		SELECT id, typ, amount, description, performed_by, ts
		FROM operations
		WHERE acct_id = $1
		ORDER BY ts DESC, id DESC
		LIMIT $2 OFFSET $3;
	`

	pgSelectCustomerSQL = `
		SELECT name, email
		FROM customers
		WHERE id = $1;
	`
)

// PgxPool is the slice of pgxpool.Pool the endpoint uses. pgxmock
// satisfies it, which is how the endpoint is unit tested without a
// running database.
type PgxPool interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Ping(ctx context.Context) error
}

type PostgresEndpoint struct {
	db  PgxPool
	log *zerolog.Logger
}

var (
	_ Repository = (*PostgresEndpoint)(nil)
)

func NewPostgresEndpoint(connStr string, log *zerolog.Logger) (*PostgresEndpoint, error) {
	cfg, err := pgxpool.ParseConfig(connStr)
	if err != nil {
		return nil, err
	}
	pool, err := pgxpool.NewWithConfig(context.Background(), cfg)
	if err != nil {
		return nil, err
	}
	if err = pool.Ping(context.Background()); err != nil {
		return nil, err
	}

	return &PostgresEndpoint{db: pool, log: log}, nil
}

// NewPostgresEndpointWithPool wires an existing pool (or a mock).
func NewPostgresEndpointWithPool(db PgxPool, log *zerolog.Logger) *PostgresEndpoint {
	return &PostgresEndpoint{db: db, log: log}
}

// Pool exposes the underlying pool so other database-backed components,
// the customer directory in particular, can share connections.
func (pg *PostgresEndpoint) Pool() PgxPool {
	return pg.db
}

func (pg *PostgresEndpoint) CreateAccount(acct *Account) (*Account, error) {
	ctx := context.Background()
	row := pg.db.QueryRow(ctx, pgInsertAcctSQL,
		acct.ID, acct.Kind, acct.Balance, acct.OverdraftLimit, acct.InterestRate,
		acct.CustomerID, acct.CreatedBy, acct.UpdatedBy,
	)
	if err := row.Scan(&acct.CreatedAt, &acct.UpdatedAt); err != nil {
		return nil, ErrStorageFailure{Err: err}
	}
	return acct, nil
}

func (pg *PostgresEndpoint) GetAccount(id snowflake.ID) (*Account, error) {
	ctx := context.Background()
	return scanAccount(pg.db.QueryRow(ctx, pgSelectAcctSQL, id), id)
}

func (pg *PostgresEndpoint) Debit(req ChargeReq) (*Operation, error) {
	return pg.charge(OpDebit, req)
}

func (pg *PostgresEndpoint) Credit(req ChargeReq) (*Operation, error) {
	return pg.charge(OpCredit, req)
}

func (pg *PostgresEndpoint) charge(typ OperationType, req ChargeReq) (*Operation, error) {
	ctx := context.Background()
	tx, err := pg.db.Begin(ctx)
	if err != nil {
		return nil, ErrStorageFailure{Err: err}
	}
	defer pg.rollback(ctx, tx)

	acct, err := scanAccount(tx.QueryRow(ctx, pgSelectAcctForUpdateSQL, req.AcctID), req.AcctID)
	if err != nil {
		return nil, err
	}

	var newBal decimal.Decimal
	if typ == OpDebit {
		newBal = acct.Balance.Sub(req.Amount)
		if newBal.LessThan(acct.Floor()) {
			return nil, ErrInsufficientFunds{
				AcctID:    req.AcctID,
				Requested: req.Amount,
				Floor:     acct.Floor(),
			}
		}
	} else {
		newBal = acct.Balance.Add(req.Amount)
	}

	op := &Operation{
		AcctID:      req.AcctID,
		Type:        typ,
		Amount:      req.Amount,
		Description: req.Description,
		PerformedBy: req.Actor,
	}
	row := tx.QueryRow(ctx, pgInsertOpSQL, req.AcctID, typ, req.Amount, req.Description, req.Actor)
	if err = row.Scan(&op.ID, &op.Timestamp); err != nil {
		return nil, ErrStorageFailure{Err: err}
	}

	if _, err = tx.Exec(ctx, pgUpdateBalanceSQL, newBal, req.Actor, req.AcctID); err != nil {
		return nil, ErrStorageFailure{Err: err}
	}

	if err = tx.Commit(ctx); err != nil {
		return nil, ErrStorageFailure{Err: err}
	}
	return op, nil
}

// Transfer locks both rows in ascending account-ID order regardless of
// transfer direction so two opposing transfers cannot deadlock.
func (pg *PostgresEndpoint) Transfer(req TransferReq) (*Operation, *Operation, error) {
	ctx := context.Background()
	tx, err := pg.db.Begin(ctx)
	if err != nil {
		return nil, nil, ErrStorageFailure{Err: err}
	}
	defer pg.rollback(ctx, tx)

	lockOrder := []snowflake.ID{req.SourceID, req.DestID}
	if lockOrder[1] < lockOrder[0] {
		lockOrder[0], lockOrder[1] = lockOrder[1], lockOrder[0]
	}
	accts := make(map[snowflake.ID]*Account, 2)
	for _, id := range lockOrder {
		if _, ok := accts[id]; ok {
			continue
		}
		acct, err := scanAccount(tx.QueryRow(ctx, pgSelectAcctForUpdateSQL, id), id)
		if err != nil {
			return nil, nil, err
		}
		accts[id] = acct
	}

	src, dst := accts[req.SourceID], accts[req.DestID]
	newSrcBal := src.Balance.Sub(req.Amount)
	if newSrcBal.LessThan(src.Floor()) {
		return nil, nil, ErrInsufficientFunds{
			AcctID:    req.SourceID,
			Requested: req.Amount,
			Floor:     src.Floor(),
		}
	}

	deb := &Operation{
		AcctID:      req.SourceID,
		Type:        OpDebit,
		Amount:      req.Amount,
		Description: req.DebitDescription,
		PerformedBy: req.Actor,
	}
	row := tx.QueryRow(ctx, pgInsertOpSQL, req.SourceID, OpDebit, req.Amount, req.DebitDescription, req.Actor)
	if err = row.Scan(&deb.ID, &deb.Timestamp); err != nil {
		return nil, nil, ErrStorageFailure{Err: err}
	}

	cred := &Operation{
		AcctID:      req.DestID,
		Type:        OpCredit,
		Amount:      req.Amount,
		Description: req.CreditDescription,
		PerformedBy: req.Actor,
	}
	row = tx.QueryRow(ctx, pgInsertOpSQL, req.DestID, OpCredit, req.Amount, req.CreditDescription, req.Actor)
	if err = row.Scan(&cred.ID, &cred.Timestamp); err != nil {
		return nil, nil, ErrStorageFailure{Err: err}
	}

	if req.SourceID == req.DestID {
		// net no-op on balance; still touch the audit fields
		if _, err = tx.Exec(ctx, pgUpdateBalanceSQL, src.Balance, req.Actor, req.SourceID); err != nil {
			return nil, nil, ErrStorageFailure{Err: err}
		}
	} else {
		if _, err = tx.Exec(ctx, pgUpdateBalanceSQL, newSrcBal, req.Actor, req.SourceID); err != nil {
			return nil, nil, ErrStorageFailure{Err: err}
		}
		if _, err = tx.Exec(ctx, pgUpdateBalanceSQL, dst.Balance.Add(req.Amount), req.Actor, req.DestID); err != nil {
			return nil, nil, ErrStorageFailure{Err: err}
		}
	}

	if err = tx.Commit(ctx); err != nil {
		return nil, nil, ErrStorageFailure{Err: err}
	}
	return deb, cred, nil
}

// Operations runs its existence check, count, and page select in one read
// transaction so the total and the page agree on a single snapshot.
func (pg *PostgresEndpoint) Operations(req HistoryReq) ([]Operation, int64, error) {
	ctx := context.Background()
	tx, err := pg.db.Begin(ctx)
	if err != nil {
		return nil, 0, ErrStorageFailure{Err: err}
	}
	defer pg.rollback(ctx, tx)

	if _, err = scanAccount(tx.QueryRow(ctx, pgSelectAcctSQL, req.AcctID), req.AcctID); err != nil {
		return nil, 0, err
	}

	var total int64
	if err = tx.QueryRow(ctx, pgCountOpsSQL, req.AcctID).Scan(&total); err != nil {
		return nil, 0, ErrStorageFailure{Err: err}
	}

	// past the end of the log; compared, not multiplied, so a huge page
	// cannot overflow into a negative OFFSET
	if int64(req.Page) > total/int64(req.Size) {
		if err = tx.Commit(ctx); err != nil {
			return nil, 0, ErrStorageFailure{Err: err}
		}
		return []Operation{}, total, nil
	}

	rows, err := tx.Query(ctx, pgSelectOpsSQL, req.AcctID, req.Size, req.Page*req.Size)
	if err != nil {
		return nil, 0, ErrStorageFailure{Err: err}
	}
	defer rows.Close()

	ops := make([]Operation, 0, req.Size)
	for rows.Next() {
		op := Operation{AcctID: req.AcctID}
		if err = rows.Scan(&op.ID, &op.Type, &op.Amount, &op.Description, &op.PerformedBy, &op.Timestamp); err != nil {
			return nil, 0, ErrStorageFailure{Err: err}
		}
		ops = append(ops, op)
	}
	if err = rows.Err(); err != nil {
		return nil, 0, ErrStorageFailure{Err: err}
	}
	if err = tx.Commit(ctx); err != nil {
		return nil, 0, ErrStorageFailure{Err: err}
	}
	return ops, total, nil
}

func (pg *PostgresEndpoint) rollback(ctx context.Context, tx pgx.Tx) {
	if err := tx.Rollback(ctx); err != nil && !errors.Is(err, pgx.ErrTxClosed) {
		pg.log.Err(err).Msg("transaction rollback fail")
	}
}

func scanAccount(row pgx.Row, id snowflake.ID) (*Account, error) {
	acct := &Account{ID: id}
	var custID int64
	err := row.Scan(
		&acct.Kind, &acct.Balance, &acct.OverdraftLimit, &acct.InterestRate, &custID,
		&acct.CreatedAt, &acct.UpdatedAt, &acct.CreatedBy, &acct.UpdatedBy,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAccountNotFound{ID: id}
		}
		return nil, ErrStorageFailure{Err: err}
	}
	acct.CustomerID = snowflake.ParseInt64(custID)
	return acct, nil
}

// PostgresDirectory resolves customers from the customers table. Customer
// management itself happens elsewhere; the ledger only reads.
type PostgresDirectory struct {
	db PgxPool
}

var (
	_ CustomerDirectory = (*PostgresDirectory)(nil)
)

func NewPostgresDirectory(db PgxPool) *PostgresDirectory {
	return &PostgresDirectory{db: db}
}

func (pd *PostgresDirectory) Resolve(id snowflake.ID) (*Customer, error) {
	cust := &Customer{ID: id}
	row := pd.db.QueryRow(context.Background(), pgSelectCustomerSQL, id)
	if err := row.Scan(&cust.Name, &cust.Email); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrCustomerNotFound{ID: id}
		}
		return nil, ErrStorageFailure{Err: err}
	}
	return cust, nil
}
