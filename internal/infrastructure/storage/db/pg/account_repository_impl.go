package postgresdb

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v4"
	"github.com/tdex-network/xpubd/internal/core/domain"
	"github.com/tdex-network/xpubd/pkg/wallet"
)

type accountRepositoryImpl struct {
	querier *queries
	execTx  func(
		ctx context.Context,
		txBody func(*queries) error,
	) error
}

func NewAccountRepositoryImpl(
	querier *queries,
	execTx func(ctx context.Context, txBody func(*queries) error) error,
) domain.AccountRepository {
	return &accountRepositoryImpl{
		querier: querier,
		execTx:  execTx,
	}
}

func (a *accountRepositoryImpl) AddAccount(
	ctx context.Context, account *domain.Account,
) error {
	if account.IsZero() {
		return domain.ErrNullMasterKey
	}

	txBody := func(querierWithTx *queries) error {
		return insertError(
			querierWithTx.insertAccount(ctx, toAccountRow(account)),
		)
	}

	return a.execTx(ctx, txBody)
}

func (a *accountRepositoryImpl) GetAccount(
	ctx context.Context, masterKey wallet.ExtendedPublicKey,
) (*domain.Account, error) {
	row, err := a.querier.getAccount(ctx, masterKey.Bytes())
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrAccountNotFound
		}
		return nil, err
	}
	return row.toDomain()
}

func (a *accountRepositoryImpl) UpdateAccount(
	ctx context.Context, masterKey wallet.ExtendedPublicKey,
	updateFn func(a *domain.Account) (*domain.Account, error),
) (*domain.Account, error) {
	var updated *domain.Account

	txBody := func(querierWithTx *queries) error {
		row, err := querierWithTx.getAccountForUpdate(ctx, masterKey.Bytes())
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return domain.ErrAccountNotFound
			}
			return err
		}

		current, err := row.toDomain()
		if err != nil {
			return err
		}
		result, err := updateFn(current)
		if err != nil {
			return err
		}
		if result.MasterKey != masterKey {
			return fmt.Errorf(
				"master key of account %s can't be changed", masterKey.Hex(),
			)
		}

		if err := querierWithTx.updateAccount(ctx, toAccountRow(result)); err != nil {
			return err
		}
		updated = result
		return nil
	}

	if err := a.execTx(ctx, txBody); err != nil {
		return nil, err
	}
	return updated, nil
}

func (a *accountRepositoryImpl) CountAccounts(ctx context.Context) (int, error) {
	count, err := a.querier.countAccounts(ctx)
	if err != nil {
		return -1, err
	}
	return int(count), nil
}

func toAccountRow(account *domain.Account) accountRow {
	children := make([][]byte, 0, len(account.DerivedChildren))
	for _, child := range account.DerivedChildren {
		children = append(children, child.Bytes())
	}
	return accountRow{
		MasterKey:       account.MasterKey.Bytes(),
		Nonce:           int64(account.Nonce),
		DerivedChildren: children,
	}
}

func (r accountRow) toDomain() (*domain.Account, error) {
	masterKey, err := wallet.DecodeExtendedPublicKey(r.MasterKey)
	if err != nil {
		return nil, fmt.Errorf("stored account is corrupted: %w", err)
	}
	children := make([]wallet.ExtendedPublicKey, 0, len(r.DerivedChildren))
	for _, c := range r.DerivedChildren {
		child, err := wallet.DecodeExtendedPublicKey(c)
		if err != nil {
			return nil, fmt.Errorf("stored account is corrupted: %w", err)
		}
		children = append(children, child)
	}
	return &domain.Account{
		MasterKey:       masterKey,
		Nonce:           uint32(r.Nonce),
		DerivedChildren: children,
	}, nil
}
