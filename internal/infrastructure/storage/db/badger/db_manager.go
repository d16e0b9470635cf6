package dbbadger

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/dgraph-io/badger/v3"
	"github.com/dgraph-io/badger/v3/options"
	log "github.com/sirupsen/logrus"
	"github.com/tdex-network/xpubd/internal/core/domain"
	"github.com/tdex-network/xpubd/internal/core/ports"
	"github.com/timshannon/badgerhold/v4"
)

const (
	accountsDir = "accounts"

	valueLogGCInterval     = 30 * time.Minute
	valueLogGCDiscardRatio = 0.5
)

type repoManager struct {
	store       *badgerhold.Store
	accountRepo domain.AccountRepository
	stopGC      chan struct{}
}

// NewRepoManager opens (or creates if not exists) the badger store on disk.
// It expects a base data dir and an optional logger. An empty base dir opens
// an in-memory store.
func NewRepoManager(
	baseDbDir string, logger badger.Logger,
) (ports.RepoManager, error) {
	var dbDir string
	if len(baseDbDir) > 0 {
		dbDir = filepath.Join(baseDbDir, accountsDir)
	}

	store, err := createDb(dbDir, logger)
	if err != nil {
		return nil, fmt.Errorf("opening accounts db: %w", err)
	}

	stopGC := make(chan struct{})
	if len(dbDir) > 0 {
		go runValueLogGC(store, stopGC)
	}

	return &repoManager{
		store:       store,
		accountRepo: NewAccountRepositoryImpl(store),
		stopGC:      stopGC,
	}, nil
}

func (r *repoManager) AccountRepository() domain.AccountRepository {
	return r.accountRepo
}

func (r *repoManager) Close() {
	close(r.stopGC)
	r.store.Close()
}

func createDb(dbDir string, logger badger.Logger) (*badgerhold.Store, error) {
	isInMemory := len(dbDir) <= 0

	opts := badger.DefaultOptions(dbDir)
	opts.Logger = logger

	if isInMemory {
		opts.InMemory = true
	} else {
		opts.Compression = options.ZSTD
	}

	return badgerhold.Open(badgerhold.Options{
		Encoder:          badgerhold.DefaultEncode,
		Decoder:          badgerhold.DefaultDecode,
		SequenceBandwith: 100,
		Options:          opts,
	})
}

func runValueLogGC(store *badgerhold.Store, stop <-chan struct{}) {
	ticker := time.NewTicker(valueLogGCInterval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			if err := store.Badger().RunValueLogGC(valueLogGCDiscardRatio); err != nil &&
				err != badger.ErrNoRewrite {
				log.Error(err)
			}
		}
	}
}
