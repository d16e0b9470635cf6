package application

import (
	"context"

	log "github.com/sirupsen/logrus"
	"github.com/tdex-network/xpubd/internal/core/domain"
	"github.com/tdex-network/xpubd/pkg/wallet"
)

// AccountService serves the account bound to a session.
type AccountService interface {
	GetAccount(ctx context.Context, sessionID string) (*AccountInfo, error)
	// DeriveAddress derives a new child of the session account's master key
	// along path, records it and returns its payment address.
	DeriveAddress(
		ctx context.Context, sessionID string, path wallet.DerivationPath,
	) (*DerivedAddress, error)
	CountAccounts(ctx context.Context) (int, error)
}

type accountService struct {
	auth           AuthService
	registry       AccountRegistry
	paymentProfile wallet.ScriptProfile
}

func NewAccountService(
	auth AuthService,
	registry AccountRegistry,
	paymentProfile wallet.ScriptProfile,
) AccountService {
	return &accountService{auth, registry, paymentProfile}
}

func (s *accountService) GetAccount(
	ctx context.Context, sessionID string,
) (*AccountInfo, error) {
	account, err := s.auth.SessionAccount(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return accountInfo(account, s.paymentProfile)
}

func (s *accountService) DeriveAddress(
	ctx context.Context, sessionID string, path wallet.DerivationPath,
) (*DerivedAddress, error) {
	account, err := s.auth.SessionAccount(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if len(account.DerivedChildren) >= domain.MaxDerivedChildren {
		return nil, domain.ErrCapacityExceeded
	}

	child, err := wallet.DeriveChild(account.MasterKey, path)
	if err != nil {
		return nil, err
	}
	addr, err := wallet.AddressFor(child, s.paymentProfile)
	if err != nil {
		return nil, err
	}

	account, err = s.registry.AppendDerivedChild(ctx, account.MasterKey, child)
	if err != nil {
		return nil, err
	}

	info, err := accountInfo(account, s.paymentProfile)
	if err != nil {
		return nil, err
	}

	log.Debugf("derived child %s of account %s", path, account.MasterKey)
	return &DerivedAddress{
		Address: addr,
		Child:   child,
		Account: *info,
	}, nil
}

func (s *accountService) CountAccounts(ctx context.Context) (int, error) {
	return s.registry.CountAccounts(ctx)
}
