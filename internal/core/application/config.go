package application

import (
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/tdex-network/xpubd/internal/core/ports"
	sessionstore "github.com/tdex-network/xpubd/internal/infrastructure/session/badger"
	sessionpg "github.com/tdex-network/xpubd/internal/infrastructure/session/pg"
	dbbadger "github.com/tdex-network/xpubd/internal/infrastructure/storage/db/badger"
	postgresdb "github.com/tdex-network/xpubd/internal/infrastructure/storage/db/pg"
	"github.com/tdex-network/xpubd/pkg/wallet"
)

const (
	DBBadger   = "badger"
	DBPostgres = "postgres"
)

var (
	SupportedDBType = map[string]struct{}{
		DBBadger:   {},
		DBPostgres: {},
	}
)

// Config holds the params to build the application services. DBConfig is
// the datadir (string) for badger, or a postgresdb.DbConfig for postgres.
type Config struct {
	DBType          string
	DBConfig        interface{}
	SessionTTL      time.Duration
	PaymentProfile  wallet.ScriptProfile
	IdentityProfile wallet.ScriptProfile

	repo        ports.RepoManager
	sessions    ports.SessionStore
	registry    AccountRegistry
	auth        AuthService
	account     AccountService
	transaction TransactionService
}

func (c *Config) Validate() error {
	if _, ok := SupportedDBType[c.DBType]; !ok {
		return fmt.Errorf("db type not supported, must be one of %v", supportedDBTypes())
	}
	if c.PaymentProfile.Network == nil {
		return fmt.Errorf("missing payment network")
	}
	if c.IdentityProfile.Network == nil {
		return fmt.Errorf("missing identity network")
	}
	if _, err := c.repoManager(); err != nil {
		return err
	}
	if _, err := c.sessionStore(); err != nil {
		return err
	}
	return nil
}

func (c *Config) RepoManager() ports.RepoManager {
	repo, _ := c.repoManager()
	return repo
}

func (c *Config) SessionStore() ports.SessionStore {
	sessions, _ := c.sessionStore()
	return sessions
}

func (c *Config) AccountRegistry() AccountRegistry {
	if c.registry == nil {
		c.registry = NewAccountRegistry(c.RepoManager().AccountRepository())
	}
	return c.registry
}

func (c *Config) AuthService() AuthService {
	if c.auth == nil {
		c.auth = NewAuthService(
			c.AccountRegistry(), c.SessionStore(), c.IdentityProfile,
		)
	}
	return c.auth
}

func (c *Config) AccountService() AccountService {
	if c.account == nil {
		c.account = NewAccountService(
			c.AuthService(), c.AccountRegistry(), c.PaymentProfile,
		)
	}
	return c.account
}

func (c *Config) TransactionService() TransactionService {
	if c.transaction == nil {
		c.transaction = NewTransactionService(c.AuthService(), c.PaymentProfile)
	}
	return c.transaction
}

// Close releases the stores opened by the config.
func (c *Config) Close() {
	if c.sessions != nil {
		c.sessions.Close()
	}
	if c.repo != nil {
		c.repo.Close()
	}
}

func (c *Config) repoManager() (ports.RepoManager, error) {
	if c.repo == nil {
		switch c.DBType {
		case DBBadger:
			datadir, _ := c.DBConfig.(string)
			repo, err := dbbadger.NewRepoManager(datadir, badgerLogger())
			if err != nil {
				return nil, err
			}
			c.repo = repo
		case DBPostgres:
			dbConfig, ok := c.DBConfig.(postgresdb.DbConfig)
			if !ok {
				return nil, fmt.Errorf("invalid postgres db config")
			}
			repo, err := postgresdb.NewService(dbConfig)
			if err != nil {
				return nil, err
			}
			c.repo = repo
		}
	}
	return c.repo, nil
}

// sessionStore returns the session store matching the db type. Postgres
// sessions are shared by every process connected to the same database,
// while badger ones live in the memory of this process.
func (c *Config) sessionStore() (ports.SessionStore, error) {
	if c.sessions == nil {
		var (
			sessions ports.SessionStore
			err      error
		)
		switch c.DBType {
		case DBPostgres:
			// the session table is created by the account store migrations.
			if _, err := c.repoManager(); err != nil {
				return nil, err
			}
			dbConfig, _ := c.DBConfig.(postgresdb.DbConfig)
			sessions, err = sessionpg.NewSessionStore(
				dbConfig.DataSourceURL, c.SessionTTL,
			)
		default:
			sessions, err = sessionstore.NewSessionStore(
				c.SessionTTL, badgerLogger(),
			)
		}
		if err != nil {
			return nil, err
		}
		c.sessions = sessions
	}
	return c.sessions, nil
}

// badgerLogger returns a logger for badger stores that only reports
// warnings and errors.
func badgerLogger() *log.Logger {
	logger := log.New()
	logger.SetLevel(log.WarnLevel)
	return logger
}

func supportedDBTypes() []string {
	types := make([]string, 0, len(SupportedDBType))
	for t := range SupportedDBType {
		types = append(types, t)
	}
	return types
}
