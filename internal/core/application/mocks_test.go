package application_test

import (
	"context"

	"github.com/stretchr/testify/mock"
	"github.com/tdex-network/xpubd/internal/core/domain"
	"github.com/tdex-network/xpubd/pkg/wallet"
)

// **** Account repository ****

type mockAccountRepository struct {
	mock.Mock
}

func (m *mockAccountRepository) AddAccount(
	ctx context.Context, account *domain.Account,
) error {
	args := m.Called(ctx, account)
	return args.Error(0)
}

func (m *mockAccountRepository) GetAccount(
	ctx context.Context, masterKey wallet.ExtendedPublicKey,
) (*domain.Account, error) {
	args := m.Called(ctx, masterKey)

	var res *domain.Account
	if a := args.Get(0); a != nil {
		res = a.(*domain.Account)
	}
	return res, args.Error(1)
}

func (m *mockAccountRepository) UpdateAccount(
	ctx context.Context, masterKey wallet.ExtendedPublicKey,
	updateFn func(a *domain.Account) (*domain.Account, error),
) (*domain.Account, error) {
	args := m.Called(ctx, masterKey, updateFn)

	var res *domain.Account
	if a := args.Get(0); a != nil {
		res = a.(*domain.Account)
	}
	return res, args.Error(1)
}

func (m *mockAccountRepository) CountAccounts(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

// **** Session store ****

type mockSessionStore struct {
	mock.Mock
}

func (m *mockSessionStore) Get(
	ctx context.Context, sessionID, field string,
) ([]byte, error) {
	args := m.Called(ctx, sessionID, field)

	var res []byte
	if a := args.Get(0); a != nil {
		res = a.([]byte)
	}
	return res, args.Error(1)
}

func (m *mockSessionStore) Set(
	ctx context.Context, sessionID, field string, value []byte,
) error {
	args := m.Called(ctx, sessionID, field, value)
	return args.Error(0)
}

func (m *mockSessionStore) Delete(
	ctx context.Context, sessionID, field string,
) error {
	args := m.Called(ctx, sessionID, field)
	return args.Error(0)
}

func (m *mockSessionStore) Close() {}
