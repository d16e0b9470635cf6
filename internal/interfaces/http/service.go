package httpinterface

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/tdex-network/xpubd/internal/core/application"
	interfaces "github.com/tdex-network/xpubd/internal/interfaces"
	"github.com/tdex-network/xpubd/pkg/stats"
	"github.com/tdex-network/xpubd/pkg/wallet"
)

const (
	readTimeout     = 10 * time.Second
	writeTimeout    = 30 * time.Second
	shutdownTimeout = 5 * time.Second
	maxBodySize     = 1 << 20
)

type ServiceOpts struct {
	Port int

	AuthSvc        application.AuthService
	AccountSvc     application.AccountService
	TransactionSvc application.TransactionService

	PaymentProfile  wallet.ScriptProfile
	IdentityProfile wallet.ScriptProfile
	// SessionTTL is the lifetime of the session cookie.
	SessionTTL time.Duration
	// LoginRateLimit is the max number of login requests per second, 0
	// disables throttling.
	LoginRateLimit int
	// Metrics, if defined, are updated by every handler and served at
	// /metrics.
	Metrics *stats.Metrics
}

func (o ServiceOpts) validate() error {
	if o.Port <= 0 || o.Port > 65535 {
		return fmt.Errorf("invalid listening port %d", o.Port)
	}
	return o.validateRouter()
}

func (o ServiceOpts) validateRouter() error {
	if o.AuthSvc == nil {
		return fmt.Errorf("auth app service must not be null")
	}
	if o.AccountSvc == nil {
		return fmt.Errorf("account app service must not be null")
	}
	if o.TransactionSvc == nil {
		return fmt.Errorf("transaction app service must not be null")
	}
	if o.PaymentProfile.Network == nil || o.IdentityProfile.Network == nil {
		return fmt.Errorf("payment and identity profiles must not be null")
	}
	if o.SessionTTL <= 0 {
		return fmt.Errorf("session ttl must be a positive duration")
	}
	if o.LoginRateLimit < 0 {
		return fmt.Errorf("login rate limit must not be negative")
	}
	return nil
}

type service struct {
	opts   ServiceOpts
	server *http.Server
}

func NewService(opts ServiceOpts) (interfaces.Service, error) {
	if err := opts.validate(); err != nil {
		return nil, fmt.Errorf("invalid opts: %s", err)
	}

	router, err := NewRouter(opts)
	if err != nil {
		return nil, err
	}

	return &service{
		opts: opts,
		server: &http.Server{
			Addr:         fmt.Sprintf(":%d", opts.Port),
			Handler:      router,
			ReadTimeout:  readTimeout,
			WriteTimeout: writeTimeout,
		},
	}, nil
}

func (s *service) Start() error {
	lis, err := net.Listen("tcp", s.server.Addr)
	if err != nil {
		return err
	}

	go func() {
		if err := s.server.Serve(lis); err != nil &&
			!errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Error("http server stopped unexpectedly")
		}
	}()

	log.Infof("http interface is listening on %s", s.server.Addr)
	return nil
}

func (s *service) Stop() {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := s.server.Shutdown(ctx); err != nil {
		log.WithError(err).Warn("failed to gracefully stop http interface")
		return
	}
	log.Debug("stopped http interface")
}

// NewRouter returns the handler serving the daemon's HTTP surface.
func NewRouter(opts ServiceOpts) (http.Handler, error) {
	if err := opts.validateRouter(); err != nil {
		return nil, fmt.Errorf("invalid opts: %s", err)
	}

	h := &handler{opts}
	login := h.login
	if opts.LoginRateLimit > 0 {
		login = withRateLimit(opts.LoginRateLimit, login)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /info", h.info)
	mux.HandleFunc("POST /login", login)
	mux.HandleFunc("POST /logout", h.logout)
	mux.HandleFunc("GET /account", h.account)
	mux.HandleFunc("POST /derive_address/{first}/{second}", h.deriveAddress)
	mux.HandleFunc("POST /create_psbt", h.createPsbt)
	mux.HandleFunc("POST /finalize_psbt", h.finalizePsbt)
	if opts.Metrics != nil {
		mux.Handle("GET /metrics", opts.Metrics.Handler())
	}

	return withLogger(mux), nil
}
