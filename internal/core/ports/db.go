package ports

import (
	"github.com/tdex-network/xpubd/internal/core/domain"
)

// RepoManager interface defines the methods to access the repositories of
// the domain entities and to release the underlying resources.
type RepoManager interface {
	AccountRepository() domain.AccountRepository
	Close()
}
