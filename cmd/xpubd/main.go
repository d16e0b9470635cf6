package main

import (
	"context"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	log "github.com/sirupsen/logrus"
	"github.com/tdex-network/xpubd/internal/config"
	"github.com/tdex-network/xpubd/internal/core/application"
	httpinterface "github.com/tdex-network/xpubd/internal/interfaces/http"
	"github.com/tdex-network/xpubd/pkg/stats"
)

const countAccountsTimeout = 5 * time.Second

func main() {
	if err := config.InitConfig(); err != nil {
		log.WithError(err).Fatal("failed to initialize config")
	}
	log.SetLevel(log.Level(config.GetInt(config.LogLevelKey)))

	appConfig := &application.Config{
		DBType:          config.GetString(config.DBTypeKey),
		DBConfig:        config.GetDBConfig(),
		SessionTTL:      config.GetSessionTTL(),
		PaymentProfile:  config.GetPaymentProfile(),
		IdentityProfile: config.GetIdentityProfile(),
	}
	if err := appConfig.Validate(); err != nil {
		log.WithError(err).Fatal("invalid application config")
	}
	defer appConfig.Close()

	var metrics *stats.Metrics
	if config.GetBool(config.EnableMetricsKey) {
		metrics = stats.NewMetrics()
		accountSvc := appConfig.AccountService()
		if err := metrics.RegisterAccountsGauge(func() float64 {
			ctx, cancel := context.WithTimeout(
				context.Background(), countAccountsTimeout,
			)
			defer cancel()

			count, err := accountSvc.CountAccounts(ctx)
			if err != nil {
				log.WithError(err).Warn("failed to count accounts")
				return 0
			}
			return float64(count)
		}); err != nil {
			log.WithError(err).Fatal("failed to register metrics")
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var statsDone <-chan struct{}
	if config.GetBool(config.EnableProfilerKey) {
		var dumpPath string
		var gatherer prometheus.Gatherer
		if metrics != nil {
			gatherer = metrics.Gatherer()
			dumpPath = filepath.Join(
				config.GetDatadir(), config.ProfilerLocation, "metrics",
			)
		}
		statsDone = stats.EnableMemoryStatistics(
			ctx, config.GetStatsInterval(), gatherer, dumpPath,
		)
	}

	svc, err := httpinterface.NewService(httpinterface.ServiceOpts{
		Port:            config.GetInt(config.ListeningPortKey),
		AuthSvc:         appConfig.AuthService(),
		AccountSvc:      appConfig.AccountService(),
		TransactionSvc:  appConfig.TransactionService(),
		PaymentProfile:  appConfig.PaymentProfile,
		IdentityProfile: appConfig.IdentityProfile,
		SessionTTL:      appConfig.SessionTTL,
		LoginRateLimit:  config.GetInt(config.LoginRateLimitKey),
		Metrics:         metrics,
	})
	if err != nil {
		log.WithError(err).Fatal("failed to create http interface")
	}

	if err := svc.Start(); err != nil {
		log.WithError(err).Fatal("failed to start http interface")
	}
	defer svc.Stop()

	log.Infof(
		"xpubd started with %s store, payment profile %s, identity profile %s",
		appConfig.DBType, appConfig.PaymentProfile, appConfig.IdentityProfile,
	)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGTERM, syscall.SIGINT)
	<-sigChan

	log.Info("shutting down xpubd")

	cancel()
	if statsDone != nil {
		<-statsDone
	}
}
