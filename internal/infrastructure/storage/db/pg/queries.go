package postgresdb

import (
	"context"

	"github.com/jackc/pgconn"
	"github.com/jackc/pgx/v4"
)

const (
	insertAccount = `
INSERT INTO account (master_key, nonce, derived_children)
VALUES ($1, $2, $3)`

	selectAccount = `
SELECT master_key, nonce, derived_children FROM account
WHERE master_key = $1`

	selectAccountForUpdate = selectAccount + `
FOR UPDATE`

	updateAccount = `
UPDATE account SET nonce = $2, derived_children = $3
WHERE master_key = $1`

	countAccounts = `SELECT COUNT(*) FROM account`
)

type dbtx interface {
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
}

type accountRow struct {
	MasterKey       []byte
	Nonce           int64
	DerivedChildren [][]byte
}

type queries struct {
	db dbtx
}

func newQueries(db dbtx) *queries {
	return &queries{db}
}

func (q *queries) withTx(tx pgx.Tx) *queries {
	return &queries{tx}
}

func (q *queries) insertAccount(ctx context.Context, row accountRow) error {
	_, err := q.db.Exec(
		ctx, insertAccount, row.MasterKey, row.Nonce, row.DerivedChildren,
	)
	return err
}

func (q *queries) getAccount(
	ctx context.Context, masterKey []byte,
) (accountRow, error) {
	return q.scanAccount(ctx, selectAccount, masterKey)
}

func (q *queries) getAccountForUpdate(
	ctx context.Context, masterKey []byte,
) (accountRow, error) {
	return q.scanAccount(ctx, selectAccountForUpdate, masterKey)
}

func (q *queries) updateAccount(ctx context.Context, row accountRow) error {
	_, err := q.db.Exec(
		ctx, updateAccount, row.MasterKey, row.Nonce, row.DerivedChildren,
	)
	return err
}

func (q *queries) countAccounts(ctx context.Context) (int64, error) {
	var count int64
	err := q.db.QueryRow(ctx, countAccounts).Scan(&count)
	return count, err
}

func (q *queries) scanAccount(
	ctx context.Context, query string, masterKey []byte,
) (accountRow, error) {
	var row accountRow
	err := q.db.QueryRow(ctx, query, masterKey).Scan(
		&row.MasterKey, &row.Nonce, &row.DerivedChildren,
	)
	return row, err
}
