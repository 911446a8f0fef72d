// Package bootstrap wires all dependencies and starts the application.
package bootstrap

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/movesion/cardsim/adapters/clock"
	cardsimhttp "github.com/movesion/cardsim/adapters/http"
	"github.com/movesion/cardsim/adapters/idgen"
	"github.com/movesion/cardsim/adapters/metrics"
	"github.com/movesion/cardsim/adapters/sqlite"
	"github.com/movesion/cardsim/app"
	"github.com/movesion/cardsim/config"
	"github.com/movesion/cardsim/domain/plan"
)

// App represents the running application.
type App struct {
	Config     *config.Config
	Logger     zerolog.Logger
	DB         *sqlite.DB
	Plans      *config.PlanHolder
	Metrics    *metrics.Collector
	HTTPServer *http.Server
	Simulator  *app.SimulatorService
	Presets    *app.PresetService
}

// New loads configuration and initializes the application.
func New(configPath string) (*App, error) {
	cfg, err := config.LoadWithFallback(configPath)
	if err != nil {
		return nil, err
	}
	return NewFromConfig(cfg)
}

// NewFromConfig initializes the application from an already loaded config.
func NewFromConfig(cfg *config.Config) (*App, error) {
	logger := setupLogger(cfg.Logging)

	logger.Info().Msg("initializing cardsim")

	a := &App{
		Config: cfg,
		Logger: logger,
	}

	if cfg.Metrics.Enabled {
		a.Metrics = metrics.New()
		logger.Info().Str("path", cfg.Metrics.Path).Msg("prometheus metrics enabled")
	}

	if err := a.initPlanHolder(); err != nil {
		return nil, fmt.Errorf("init pricing plan: %w", err)
	}

	if err := a.initDatabase(); err != nil {
		return nil, fmt.Errorf("init database: %w", err)
	}

	a.initServices()

	if err := a.seedPresets(); err != nil {
		logger.Warn().Err(err).Msg("preset seeding failed, continuing without seeds")
	}

	a.initHTTPServer()

	return a, nil
}

func (a *App) initPlanHolder() error {
	holder, err := config.NewPlanHolder(a.Config.Pricing.PlanPath, a.Logger)
	if err != nil {
		return err
	}

	if a.Metrics != nil {
		m := a.Metrics
		holder.OnChange(func(plan.Plan) {
			m.PlanReloads.Inc()
			m.PlanLastReload.SetToCurrentTime()
		})
		holder.OnReloadError(func(error) {
			m.PlanReloadErrors.Inc()
		})
	}

	if a.Config.Pricing.Watch {
		if err := holder.WatchFile(); err != nil {
			a.Logger.Warn().Err(err).Msg("plan file watch unavailable, reload via SIGHUP only")
		}
	}
	holder.WatchSignals()

	a.Plans = holder
	a.Logger.Info().
		Str("path", a.Config.Pricing.PlanPath).
		Str("plan", holder.Plan().ID).
		Msg("pricing plan loaded")
	return nil
}

func (a *App) initDatabase() error {
	db, err := sqlite.Open(a.Config.Database.DSN)
	if err != nil {
		return err
	}

	if err := db.Migrate(); err != nil {
		db.Close()
		return fmt.Errorf("migrate: %w", err)
	}

	a.DB = db
	a.Logger.Info().Str("dsn", a.Config.Database.DSN).Msg("database initialized")
	return nil
}

func (a *App) initServices() {
	a.Simulator = app.NewSimulatorService(
		a.Plans,
		clock.Real{},
		idgen.RunID{},
		a.Logger,
		a.Config.Simulation.MaxHorizonMonths,
	)
	a.Simulator.SetDefaultHorizon(a.Config.Simulation.DefaultHorizonMonths)

	a.Presets = app.NewPresetService(sqlite.NewPresetStore(a.DB), clock.Real{}, a.Logger)
}

func (a *App) seedPresets() error {
	path := a.Config.Presets.SeedPath
	if path == "" {
		return nil
	}

	seeds, err := config.LoadPresetSeeds(path)
	if err != nil {
		return fmt.Errorf("load preset seeds: %w", err)
	}

	appSeeds := make([]app.Seed, 0, len(seeds))
	for _, s := range seeds {
		appSeeds = append(appSeeds, app.Seed{
			Name:        s.Name,
			Description: s.Description,
			Scenario:    s.Scenario,
		})
	}

	added, err := a.Presets.SeedMissing(context.Background(), appSeeds)
	if err != nil {
		return err
	}
	a.Logger.Info().Int("added", added).Str("path", path).Msg("preset seeds applied")
	return nil
}

func (a *App) initHTTPServer() {
	simHandler := cardsimhttp.NewSimulationHandler(a.Simulator, a.Logger, a.Metrics)
	pricingHandler := cardsimhttp.NewPricingHandler(a.Plans, a.Logger)
	presetHandler := cardsimhttp.NewPresetHandler(a.Presets, a.Logger, a.Metrics)

	router := cardsimhttp.NewRouterWithConfig(simHandler, pricingHandler, presetHandler, a.Logger, cardsimhttp.RouterConfig{
		Metrics:     a.Metrics,
		MetricsPath: a.Config.Metrics.Path,
	})

	addr := fmt.Sprintf("%s:%d", a.Config.Server.Host, a.Config.Server.Port)
	a.HTTPServer = &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  a.Config.Server.ReadTimeout,
		WriteTimeout: a.Config.Server.WriteTimeout,
	}

	a.Logger.Info().Str("addr", addr).Msg("http server configured")
}

// Run starts the HTTP server and blocks until interrupted.
func (a *App) Run() error {
	errCh := make(chan error, 1)
	go func() {
		a.Logger.Info().
			Str("addr", a.HTTPServer.Addr).
			Msg("starting http server")
		if err := a.HTTPServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case sig := <-quit:
		a.Logger.Info().Str("signal", sig.String()).Msg("shutting down")
	}

	return a.Shutdown()
}

// Shutdown gracefully stops the application.
func (a *App) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if a.HTTPServer != nil {
		if err := a.HTTPServer.Shutdown(ctx); err != nil {
			a.Logger.Error().Err(err).Msg("http server shutdown error")
		}
	}

	if a.Plans != nil {
		a.Plans.Stop()
	}

	if a.DB != nil {
		if err := a.DB.Close(); err != nil {
			a.Logger.Error().Err(err).Msg("database close error")
		}
	}

	a.Logger.Info().Msg("shutdown complete")
	return nil
}

func setupLogger(cfg config.LoggingConfig) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	if cfg.Format == "console" {
		output := zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
		return zerolog.New(output).With().Timestamp().Logger()
	}

	return zerolog.New(os.Stdout).With().Timestamp().Logger()
}
