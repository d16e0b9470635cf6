package postgresdb

import (
	"context"
	"errors"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/jackc/pgconn"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
	log "github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"
	"github.com/tdex-network/xpubd/internal/core/domain"
	"github.com/tdex-network/xpubd/internal/core/ports"
	"github.com/tdex-network/xpubd/pkg/circuitbreaker"
)

const (
	postgresDriver = "pgx"

	uniqueViolation = "23505"
)

// errors returned by transaction bodies that must not trip the circuit
// breaker
var domainErrors = []error{
	domain.ErrAccountNotFound,
	domain.ErrDuplicateAccount,
	domain.ErrCapacityExceeded,
	domain.ErrNonceMismatch,
	domain.ErrNonceExhausted,
	domain.ErrNullMasterKey,
	domain.ErrNullDerivedChild,
}

type DbConfig struct {
	DataSourceURL      string
	MigrationSourceURL string
}

type repoManager struct {
	pgxPool *pgxpool.Pool
	querier *queries
	cb      *gobreaker.CircuitBreaker

	accountRepository domain.AccountRepository
}

// NewService connects to the given postgres database, applies the pending
// migrations and returns a repo manager backed by it.
func NewService(dbConfig DbConfig) (ports.RepoManager, error) {
	pgxPool, err := connect(dbConfig.DataSourceURL)
	if err != nil {
		return nil, err
	}

	if err = migrateDb(dbConfig.DataSourceURL, dbConfig.MigrationSourceURL); err != nil {
		pgxPool.Close()
		return nil, err
	}

	rm := &repoManager{
		pgxPool: pgxPool,
		querier: newQueries(pgxPool),
		cb:      circuitbreaker.NewCircuitBreaker("postgres"),
	}
	rm.accountRepository = NewAccountRepositoryImpl(rm.querier, rm.execTx)

	return rm, nil
}

func (r *repoManager) AccountRepository() domain.AccountRepository {
	return r.accountRepository
}

func (r *repoManager) Close() {
	r.pgxPool.Close()
}

// execTx runs txBody in a db transaction through the circuit breaker.
func (r *repoManager) execTx(
	ctx context.Context,
	txBody func(*queries) error,
) error {
	return execute(r.cb, func() error {
		return r.runTx(ctx, txBody)
	})
}

// execute runs fn through cb. Domain errors returned by fn are propagated
// without being counted as failures.
func execute(cb *gobreaker.CircuitBreaker, fn func() error) error {
	res, err := cb.Execute(func() (interface{}, error) {
		err := fn()
		if isDomainError(err) {
			return err, nil
		}
		return nil, err
	})
	if err != nil {
		return err
	}
	if domainErr, ok := res.(error); ok {
		return domainErr
	}
	return nil
}

func (r *repoManager) runTx(
	ctx context.Context,
	txBody func(*queries) error,
) error {
	conn, err := r.pgxPool.Acquire(ctx)
	if err != nil {
		return err
	}
	defer conn.Release()

	tx, err := conn.Begin(ctx)
	if err != nil {
		return err
	}

	// Rollback is safe to call even if the tx is already closed, so if
	// the tx commits successfully, this is a no-op.
	defer func() {
		err := tx.Rollback(ctx)
		switch {
		case errors.Is(err, pgx.ErrTxClosed):
			return
		case err != nil:
			log.Errorf("unable to rollback db tx: %v", err)
		}
	}()

	if err := txBody(r.querier.withTx(tx)); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

// insertError maps a unique violation to domain.ErrDuplicateAccount.
func insertError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return domain.ErrDuplicateAccount
	}
	return err
}

func isDomainError(err error) bool {
	if err == nil {
		return false
	}
	for _, domainErr := range domainErrors {
		if errors.Is(err, domainErr) {
			return true
		}
	}
	return false
}

func connect(dataSource string) (*pgxpool.Pool, error) {
	return pgxpool.Connect(context.Background(), dataSource)
}

func migrateDb(dataSource, migrationSourceUrl string) error {
	pg := postgres.Postgres{}

	d, err := pg.Open(dataSource)
	if err != nil {
		return err
	}

	m, err := migrate.NewWithDatabaseInstance(
		migrationSourceUrl,
		postgresDriver,
		d,
	)
	if err != nil {
		return err
	}

	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return err
	}

	return nil
}
