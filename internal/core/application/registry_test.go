package application_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/tdex-network/xpubd/internal/core/application"
	"github.com/tdex-network/xpubd/internal/core/domain"
)

func TestAccountRegistry(t *testing.T) {
	t.Run("CreateAndFind", testRegistryCreateAndFind())
	t.Run("AdvanceNonce", testRegistryAdvanceNonce())
	t.Run("StoreErrors", testRegistryStoreErrors())
}

func testRegistryCreateAndFind() func(*testing.T) {
	return func(t *testing.T) {
		registry := newTestConfig(t).AccountRegistry()
		client := newTestClient(t)

		_, err := registry.FindByKey(ctx, client.xpub)
		require.ErrorIs(t, err, domain.ErrAccountNotFound)

		account, err := registry.CreateWithKeyAndNonce(ctx, client.xpub, 10)
		require.NoError(t, err)
		require.Equal(t, uint32(10), account.Nonce)

		_, err = registry.CreateWithKeyAndNonce(ctx, client.xpub, 0)
		require.ErrorIs(t, err, domain.ErrDuplicateAccount)

		found, err := registry.FindByKey(ctx, client.xpub)
		require.NoError(t, err)
		require.Equal(t, account, found)
	}
}

func testRegistryAdvanceNonce() func(*testing.T) {
	return func(t *testing.T) {
		registry := newTestConfig(t).AccountRegistry()
		client := newTestClient(t)

		_, err := registry.AdvanceNonce(ctx, client.xpub)
		require.ErrorIs(t, err, domain.ErrAccountNotFound)

		_, err = registry.CreateWithKeyAndNonce(ctx, client.xpub, 0)
		require.NoError(t, err)

		account, err := registry.AdvanceNonce(ctx, client.xpub)
		require.NoError(t, err)
		require.Equal(t, uint32(1), account.Nonce)

		account, err = registry.ConsumeNonce(ctx, client.xpub, 1)
		require.NoError(t, err)
		require.Equal(t, uint32(2), account.Nonce)

		_, err = registry.ConsumeNonce(ctx, client.xpub, 1)
		require.ErrorIs(t, err, domain.ErrNonceMismatch)
	}
}

func testRegistryStoreErrors() func(*testing.T) {
	return func(t *testing.T) {
		client := newTestClient(t)
		storeErr := errors.New("disk full")

		repo := &mockAccountRepository{}
		repo.On("GetAccount", mock.Anything, client.xpub).Return(nil, storeErr)
		repo.On("AddAccount", mock.Anything, mock.Anything).Return(storeErr)
		repo.On("UpdateAccount", mock.Anything, client.xpub, mock.Anything).
			Return(nil, domain.ErrCapacityExceeded)
		repo.On("CountAccounts", mock.Anything).Return(0, storeErr)

		registry := application.NewAccountRegistry(repo)

		_, err := registry.FindByKey(ctx, client.xpub)
		require.ErrorIs(t, err, application.ErrServiceUnavailable)

		_, err = registry.CreateWithKeyAndNonce(ctx, client.xpub, 0)
		require.ErrorIs(t, err, application.ErrServiceUnavailable)

		_, err = registry.AppendDerivedChild(ctx, client.xpub, client.child(t, 0, 0))
		require.ErrorIs(t, err, domain.ErrCapacityExceeded)
		require.NotErrorIs(t, err, application.ErrServiceUnavailable)

		_, err = registry.CountAccounts(ctx)
		require.ErrorIs(t, err, application.ErrServiceUnavailable)

		repo.AssertExpectations(t)
	}
}
