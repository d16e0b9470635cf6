package db_test

import (
	"crypto/rand"
	"os"
	"testing"

	"github.com/btcsuite/btcd/chaincfg"
	"github.com/stretchr/testify/require"
	"github.com/tdex-network/xpubd/internal/core/domain"
	"github.com/tdex-network/xpubd/internal/core/ports"
	dbbadger "github.com/tdex-network/xpubd/internal/infrastructure/storage/db/badger"
	postgresdb "github.com/tdex-network/xpubd/internal/infrastructure/storage/db/pg"
	"github.com/tdex-network/xpubd/pkg/wallet"
)

const pgAddrEnv = "XPUBD_TEST_PG_ADDR"

type repository struct {
	name        string
	repoManager ports.RepoManager
}

func (r repository) accounts() domain.AccountRepository {
	return r.repoManager.AccountRepository()
}

// createRepositories returns an in-memory and an on-disk badger repo manager,
// plus a postgres one if XPUBD_TEST_PG_ADDR is defined.
func createRepositories(t *testing.T) []repository {
	inMemory, err := dbbadger.NewRepoManager("", nil)
	require.NoError(t, err)
	onDisk, err := dbbadger.NewRepoManager(t.TempDir(), nil)
	require.NoError(t, err)

	repositories := []repository{
		{name: "badger_inmemory", repoManager: inMemory},
		{name: "badger", repoManager: onDisk},
	}

	if pgAddr := os.Getenv(pgAddrEnv); pgAddr != "" {
		pg, err := postgresdb.NewService(postgresdb.DbConfig{
			DataSourceURL:      pgAddr,
			MigrationSourceURL: "file://../pg/migration",
		})
		require.NoError(t, err)
		repositories = append(repositories, repository{
			name: "postgres", repoManager: pg,
		})
	}

	t.Cleanup(func() {
		for _, r := range repositories {
			r.repoManager.Close()
		}
	})
	return repositories
}

func randomMasterKey(t *testing.T) wallet.ExtendedPublicKey {
	seed := make([]byte, 32)
	_, err := rand.Read(seed)
	require.NoError(t, err)

	_, key, err := wallet.NewMasterKey(wallet.NewMasterKeyOpts{
		Seed:    seed,
		Network: &chaincfg.MainNetParams,
	})
	require.NoError(t, err)
	return key
}

func deriveChild(
	t *testing.T, key wallet.ExtendedPublicKey, first, second uint32,
) wallet.ExtendedPublicKey {
	child, err := wallet.DeriveChild(key, wallet.DerivationPath{first, second})
	require.NoError(t, err)
	return child
}
