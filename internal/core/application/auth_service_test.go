package application_test

import (
	"context"
	"errors"
	"math"
	"sync/atomic"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/tdex-network/xpubd/internal/core/application"
	"github.com/tdex-network/xpubd/internal/core/domain"
	"github.com/tdex-network/xpubd/pkg/wallet"
	"golang.org/x/sync/errgroup"
)

var ctx = context.Background()

func TestAuthService(t *testing.T) {
	t.Run("NewAccount", testAuthenticateNewAccount())
	t.Run("ExistingAccount", testAuthenticateExistingAccount())
	t.Run("Replay", testAuthenticateReplay())
	t.Run("ConcurrentReplay", testAuthenticateConcurrentReplay())
	t.Run("BadCredentials", testAuthenticateBadCredentials())
	t.Run("NonceExhausted", testAuthenticateNonceExhausted())
	t.Run("LoginLogout", testLoginLogout())
	t.Run("StoreFailures", testAuthStoreFailures())
}

func testAuthenticateNewAccount() func(*testing.T) {
	return func(t *testing.T) {
		svc := newTestConfig(t).AuthService()
		client := newTestClient(t)

		account, err := svc.Authenticate(ctx, client.credentials(t, 41))
		require.NoError(t, err)
		require.Equal(t, client.xpub, account.MasterKey)
		require.Equal(t, uint32(42), account.Nonce)
		require.Empty(t, account.DerivedChildren)
	}
}

func testAuthenticateExistingAccount() func(*testing.T) {
	return func(t *testing.T) {
		svc := newTestConfig(t).AuthService()
		client := newTestClient(t)

		account, err := svc.Authenticate(ctx, client.credentials(t, 0))
		require.NoError(t, err)
		require.Equal(t, uint32(1), account.Nonce)

		for nonce := uint32(1); nonce < 5; nonce++ {
			account, err = svc.Authenticate(ctx, client.credentials(t, nonce))
			require.NoError(t, err)
			require.Equal(t, nonce+1, account.Nonce)
		}
	}
}

func testAuthenticateReplay() func(*testing.T) {
	return func(t *testing.T) {
		cfg := newTestConfig(t)
		svc := cfg.AuthService()
		client := newTestClient(t)

		creds := client.credentials(t, 0)
		_, err := svc.Authenticate(ctx, creds)
		require.NoError(t, err)

		_, err = svc.Authenticate(ctx, creds)
		require.ErrorIs(t, err, domain.ErrNonceMismatch)

		// skipping a nonce is rejected as well
		_, err = svc.Authenticate(ctx, client.credentials(t, 2))
		require.ErrorIs(t, err, domain.ErrNonceMismatch)

		account, err := cfg.AccountRegistry().FindByKey(ctx, client.xpub)
		require.NoError(t, err)
		require.Equal(t, uint32(1), account.Nonce)

		_, err = svc.Authenticate(ctx, client.credentials(t, 1))
		require.NoError(t, err)
	}
}

func testAuthenticateConcurrentReplay() func(*testing.T) {
	return func(t *testing.T) {
		const numOfReplays = 10

		cfg := newTestConfig(t)
		svc := cfg.AuthService()
		client := newTestClient(t)

		for _, nonce := range []uint32{0, 1} {
			creds := client.credentials(t, nonce)

			var succeeded int32
			eg := &errgroup.Group{}
			for i := 0; i < numOfReplays; i++ {
				eg.Go(func() error {
					_, err := svc.Authenticate(ctx, creds)
					if err == nil {
						atomic.AddInt32(&succeeded, 1)
						return nil
					}
					if errors.Is(err, domain.ErrNonceMismatch) {
						return nil
					}
					return err
				})
			}
			require.NoError(t, eg.Wait())
			require.Equal(t, int32(1), succeeded)
		}

		account, err := cfg.AccountRegistry().FindByKey(ctx, client.xpub)
		require.NoError(t, err)
		require.Equal(t, uint32(2), account.Nonce)
	}
}

func testAuthenticateBadCredentials() func(*testing.T) {
	return func(t *testing.T) {
		cfg := newTestConfig(t)
		svc := cfg.AuthService()
		client := newTestClient(t)
		otherClient := newTestClient(t)

		tests := []struct {
			name  string
			creds func() application.Credentials
			err   error
		}{
			{
				name: "invalid key encoding",
				creds: func() application.Credentials {
					creds := client.credentials(t, 0)
					creds.ClaimedKey = creds.ClaimedKey[1:]
					return creds
				},
				err: wallet.ErrInvalidKeyEncoding,
			},
			{
				name: "malformed witness",
				creds: func() application.Credentials {
					creds := client.credentials(t, 0)
					creds.Witness = creds.Witness[:64]
					return creds
				},
				err: application.ErrBadSignature,
			},
			{
				name: "witness for other nonce",
				creds: func() application.Credentials {
					creds := client.credentials(t, 0)
					creds.ClaimedNonce = 1
					return creds
				},
				err: application.ErrBadSignature,
			},
			{
				name: "witness by other key",
				creds: func() application.Credentials {
					creds := otherClient.credentials(t, 0)
					creds.ClaimedKey = client.xpub.Bytes()
					return creds
				},
				err: application.ErrBadSignature,
			},
			{
				name: "child key claimed",
				creds: func() application.Credentials {
					creds := client.credentials(t, 0)
					creds.ClaimedKey = client.child(t, 0, 0).Bytes()
					return creds
				},
				err: application.ErrBadSignature,
			},
		}

		for _, tt := range tests {
			tt := tt
			t.Run(tt.name, func(t *testing.T) {
				account, err := svc.Authenticate(ctx, tt.creds())
				require.ErrorIs(t, err, tt.err)
				require.Nil(t, account)
			})
		}

		// failed attempts have no side effects
		_, err := cfg.AccountRegistry().FindByKey(ctx, client.xpub)
		require.ErrorIs(t, err, domain.ErrAccountNotFound)
	}
}

func testAuthenticateNonceExhausted() func(*testing.T) {
	return func(t *testing.T) {
		svc := newTestConfig(t).AuthService()
		client := newTestClient(t)

		_, err := svc.Authenticate(ctx, client.credentials(t, math.MaxUint32))
		require.ErrorIs(t, err, domain.ErrNonceExhausted)

		account, err := svc.Authenticate(ctx, client.credentials(t, math.MaxUint32-1))
		require.NoError(t, err)
		require.Equal(t, uint32(math.MaxUint32), account.Nonce)

		_, err = svc.Authenticate(ctx, client.credentials(t, math.MaxUint32))
		require.ErrorIs(t, err, domain.ErrNonceExhausted)
	}
}

func testLoginLogout() func(*testing.T) {
	return func(t *testing.T) {
		svc := newTestConfig(t).AuthService()
		client := newTestClient(t)
		sessionID := uuid.New().String()

		_, err := svc.SessionAccount(ctx, sessionID)
		require.ErrorIs(t, err, application.ErrUnauthorized)
		_, err = svc.SessionAccount(ctx, "")
		require.ErrorIs(t, err, application.ErrUnauthorized)

		_, err = svc.Login(ctx, "", client.credentials(t, 0))
		require.ErrorIs(t, err, application.ErrNullSessionID)

		_, err = svc.Login(ctx, sessionID, client.credentials(t, 1))
		require.NoError(t, err)

		// a failed login doesn't touch the session
		_, err = svc.Login(ctx, sessionID, client.credentials(t, 1))
		require.ErrorIs(t, err, domain.ErrNonceMismatch)

		account, err := svc.SessionAccount(ctx, sessionID)
		require.NoError(t, err)
		require.Equal(t, client.xpub, account.MasterKey)
		require.Equal(t, uint32(2), account.Nonce)

		_, err = svc.SessionAccount(ctx, uuid.New().String())
		require.ErrorIs(t, err, application.ErrUnauthorized)

		err = svc.Logout(ctx, sessionID)
		require.NoError(t, err)

		_, err = svc.SessionAccount(ctx, sessionID)
		require.ErrorIs(t, err, application.ErrUnauthorized)
	}
}

func testAuthStoreFailures() func(*testing.T) {
	return func(t *testing.T) {
		client := newTestClient(t)
		storeErr := errors.New("connection refused")

		repo := &mockAccountRepository{}
		repo.On("GetAccount", mock.Anything, client.xpub).Return(nil, storeErr)
		sessions := &mockSessionStore{}
		sessions.On("Get", mock.Anything, "broken", mock.Anything).
			Return(nil, storeErr)
		sessions.On("Get", mock.Anything, "valid", mock.Anything).
			Return(client.xpub.Bytes(), nil)

		svc := application.NewAuthService(
			application.NewAccountRegistry(repo), sessions, identityProfile,
		)

		_, err := svc.Authenticate(ctx, client.credentials(t, 0))
		require.ErrorIs(t, err, application.ErrServiceUnavailable)

		_, err = svc.SessionAccount(ctx, "broken")
		require.ErrorIs(t, err, application.ErrServiceUnavailable)

		_, err = svc.SessionAccount(ctx, "valid")
		require.ErrorIs(t, err, application.ErrServiceUnavailable)

		repo.AssertNotCalled(t, "AddAccount", mock.Anything, mock.Anything)
		repo.AssertNotCalled(
			t, "UpdateAccount", mock.Anything, mock.Anything, mock.Anything,
		)
	}
}
