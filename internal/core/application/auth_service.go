package application

import (
	"context"
	"errors"
	"fmt"
	"math"

	log "github.com/sirupsen/logrus"
	"github.com/tdex-network/xpubd/internal/core/domain"
	"github.com/tdex-network/xpubd/internal/core/ports"
	"github.com/tdex-network/xpubd/pkg/wallet"
)

// AuthService authenticates clients through the challenge-response protocol
// and binds authenticated accounts to sessions.
type AuthService interface {
	// Authenticate verifies the credentials and returns the account they
	// prove control of, creating it on first use. The account nonce is
	// advanced on success so that the same credentials can't be replayed.
	Authenticate(ctx context.Context, creds Credentials) (*domain.Account, error)
	Login(
		ctx context.Context, sessionID string, creds Credentials,
	) (*domain.Account, error)
	Logout(ctx context.Context, sessionID string) error
	// SessionAccount returns the account bound to the given session, or
	// ErrUnauthorized.
	SessionAccount(ctx context.Context, sessionID string) (*domain.Account, error)
}

type authService struct {
	registry        AccountRegistry
	sessions        ports.SessionStore
	identityProfile wallet.ScriptProfile
}

func NewAuthService(
	registry AccountRegistry,
	sessions ports.SessionStore,
	identityProfile wallet.ScriptProfile,
) AuthService {
	return &authService{registry, sessions, identityProfile}
}

func (s *authService) Authenticate(
	ctx context.Context, creds Credentials,
) (*domain.Account, error) {
	key, err := wallet.DecodeExtendedPublicKey(creds.ClaimedKey)
	if err != nil {
		return nil, err
	}

	if err := s.verifyWitness(key, creds); err != nil {
		return nil, err
	}

	account, err := s.registry.FindByKey(ctx, key)
	if err != nil {
		if !errors.Is(err, domain.ErrAccountNotFound) {
			return nil, err
		}
		return s.createAccount(ctx, key, creds.ClaimedNonce)
	}

	account, err = s.registry.ConsumeNonce(ctx, account.MasterKey, creds.ClaimedNonce)
	if err != nil {
		return nil, err
	}

	log.Debugf("authenticated account %s, next nonce %d", key, account.Nonce)
	return account, nil
}

func (s *authService) Login(
	ctx context.Context, sessionID string, creds Credentials,
) (*domain.Account, error) {
	if sessionID == "" {
		return nil, ErrNullSessionID
	}

	account, err := s.Authenticate(ctx, creds)
	if err != nil {
		return nil, err
	}

	if err := s.sessions.Set(
		ctx, sessionID, identityField, account.MasterKey.Bytes(),
	); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrServiceUnavailable, err)
	}
	return account, nil
}

func (s *authService) Logout(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return nil
	}
	if err := s.sessions.Delete(ctx, sessionID, identityField); err != nil {
		return fmt.Errorf("%w: %s", ErrServiceUnavailable, err)
	}
	return nil
}

func (s *authService) SessionAccount(
	ctx context.Context, sessionID string,
) (*domain.Account, error) {
	if sessionID == "" {
		return nil, ErrUnauthorized
	}

	identity, err := s.sessions.Get(ctx, sessionID, identityField)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrServiceUnavailable, err)
	}
	if identity == nil {
		return nil, ErrUnauthorized
	}

	key, err := wallet.DecodeExtendedPublicKey(identity)
	if err != nil {
		log.WithError(err).Warnf("invalid identity for session %s", sessionID)
		return nil, ErrUnauthorized
	}

	account, err := s.registry.FindByKey(ctx, key)
	if err != nil {
		if errors.Is(err, domain.ErrAccountNotFound) {
			return nil, ErrUnauthorized
		}
		return nil, err
	}
	return account, nil
}

func (s *authService) verifyWitness(
	key wallet.ExtendedPublicKey, creds Credentials,
) error {
	identity, err := wallet.AddressFor(key, s.identityProfile)
	if err != nil {
		return err
	}

	message := wallet.ChallengeMessage(key, creds.ClaimedNonce)
	ok, err := wallet.VerifyMessage(
		creds.Witness, message, identity, s.identityProfile,
	)
	if err != nil {
		if errors.Is(err, wallet.ErrMalformedWitness) {
			return fmt.Errorf("%w: %s", ErrBadSignature, err)
		}
		return err
	}
	if !ok {
		return ErrBadSignature
	}
	return nil
}

// createAccount registers an unseen master key with the nonce following the
// claimed one. Losing a creation race against the same credentials is
// reported as a replay.
func (s *authService) createAccount(
	ctx context.Context, key wallet.ExtendedPublicKey, claimedNonce uint32,
) (*domain.Account, error) {
	if claimedNonce == math.MaxUint32 {
		return nil, domain.ErrNonceExhausted
	}

	account, err := s.registry.CreateWithKeyAndNonce(ctx, key, claimedNonce+1)
	if err != nil {
		if errors.Is(err, domain.ErrDuplicateAccount) {
			return nil, domain.ErrNonceMismatch
		}
		return nil, err
	}

	log.Debugf("registered account %s", key)
	return account, nil
}
