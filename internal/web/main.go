package web

import (
	"errors"
	"net/http"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/GoParcAdmin/GoParcAdmin/internal/config"
	"github.com/GoParcAdmin/GoParcAdmin/internal/directory"
	"github.com/GoParcAdmin/GoParcAdmin/internal/identity"
	"github.com/GoParcAdmin/GoParcAdmin/internal/settings"
	adminsettings "github.com/GoParcAdmin/GoParcAdmin/internal/web/handler/admin/settings"
	adminwhitelist "github.com/GoParcAdmin/GoParcAdmin/internal/web/handler/admin/whitelist"
	"github.com/GoParcAdmin/GoParcAdmin/internal/web/handler/dashboard"
	"github.com/GoParcAdmin/GoParcAdmin/internal/web/handler/health"
	"github.com/GoParcAdmin/GoParcAdmin/internal/web/handler/login"
	"github.com/GoParcAdmin/GoParcAdmin/internal/web/handler/logout"
	"github.com/GoParcAdmin/GoParcAdmin/internal/web/middleware/gate"
	"github.com/GoParcAdmin/GoParcAdmin/internal/whitelist"
)

// Service represents the web service.
type Service struct {
	App          *fiber.App
	cfg          *config.Config
	fastShutDown bool
	alive        atomic.Bool
	db           *gorm.DB
}

// Start starts the web service on the given address.
func (s *Service) Start(addr string) error {
	var doneFiber = make(chan bool)

	go func() {
		if err := s.App.Listen(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Msgf("fiber listen error: %v", err)
		}

		doneFiber <- true
	}()

	<-doneFiber // wait for fiber to stop

	return nil
}

// WaitShutdown waits for graceful shutdown of the web service.
func (s *Service) WaitShutdown() {
	irqSig := make(chan os.Signal, 1)
	signal.Notify(irqSig, syscall.SIGINT, syscall.SIGTERM)

	sig := <-irqSig
	log.Info().Msgf("shutdown request (signal: %v)", sig)

	// Graceful shutdown for reverse proxies: set status to fail, so the
	// liveness endpoint returns fail while the LB drains this instance.
	if !s.fastShutDown {
		log.Info().Msgf(
			"graceful shutdown: return 503 while %d seconds to let LB to remove this pod from active targets",
			s.cfg.Webserver.ShutDownTime,
		)

		s.alive.Store(false)
		time.Sleep(time.Duration(s.cfg.Webserver.ShutDownTime) * time.Second)
	}

	serverShutdown := make(chan struct{})

	go func() {
		log.Info().Msg("stopping http server ...")

		err := s.App.Shutdown()
		if err != nil {
			log.Error().Err(err).Msg("")
		}

		serverShutdown <- struct{}{}
	}()

	<-serverShutdown
	log.Info().Msg("http server was stopped ... good bye...")
}

// New creates a new web service with the given configuration.
func New(cfg *config.Config, db *gorm.DB) *Service {
	if cfg == nil {
		panic("config cannot be nil")
	}

	if db == nil {
		panic("db cannot be nil")
	}

	app := fiber.New(
		fiber.Config{
			ReadBufferSize: 8192,
			AppName:        "GoParcAdmin",
			CaseSensitive:  true,
			Prefork:        false,
			Immutable:      true,
		},
	)

	// domain services shared by the handlers
	settingsSvc := settings.NewService(db, cfg.Directory)
	whitelistSvc := whitelist.NewService(db)
	resolver := identity.NewResolver(db, settingsSvc, whitelistSvc,
		directory.NewClient, cfg.Admin.Username)
	chain := identity.NewChain(settingsSvc, resolver)

	service := &Service{
		cfg: cfg,
		App: app,
		db:  db,
	}

	// liveness and metrics are registered before the gate so they stay
	// reachable in every access mode
	health.Handler.Init(app, &service.alive)

	// every other route goes through the access gate
	app.Use(gate.New(settingsSvc, resolver))

	if err := login.Handler.Init(app, cfg, chain, settingsSvc); err != nil {
		log.Fatal().Err(err).Msg("failed to init login handler")
	}

	logout.Handler.Init(app, cfg)
	dashboard.Handler.Init(app, cfg)
	adminsettings.Handler.Init(app, cfg, settingsSvc, directory.NewClient)
	adminwhitelist.Handler.Init(app, cfg, whitelistSvc)

	// redirect root to dashboard
	app.Get("/", func(c *fiber.Ctx) error {
		return c.Redirect(dashboard.Path)
	})

	return service
}
