package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/medpraxis/praxis/internal/config"
	"github.com/medpraxis/praxis/internal/domain/doctor"
	"github.com/medpraxis/praxis/internal/domain/role"
	"github.com/medpraxis/praxis/internal/platform/ability"
	"github.com/medpraxis/praxis/internal/platform/auth"
	"github.com/medpraxis/praxis/internal/platform/db"
	"github.com/medpraxis/praxis/internal/platform/middleware"
)

const version = "0.1.0"

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer()
		},
	}
}

func runServer() error {
	logger := newLogger(os.Getenv("ENV"))

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load config")
	}
	if err := cfg.Validate(); err != nil {
		logger.Fatal().Err(err).Msg("invalid config")
	}

	ctx := context.Background()
	pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.PoolOptions())
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer pool.Close()
	logger.Info().Msg("connected to database")

	setup, err := ability.NewSetup(cfg.RolePolicyFile, cfg.DefaultLanguage)
	if err != nil {
		logger.Fatal().Err(err).Str("policy", cfg.RolePolicyFile).Msg("failed to load role policy")
	}

	// Every stored role must resolve before the first request is served.
	names, err := role.NewRepoPG(pool).ListNames(ctx)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to list roles")
	}
	if err := setup.Registry.Validate(names); err != nil {
		logger.Fatal().Err(err).Strs("roles", names).Msg("role without permission handler")
	}
	setup.Registry.Freeze()
	logger.Info().Strs("roles", setup.Registry.Names()).Str("auth", cfg.AuthMode()).Msg("roles loaded")

	e := newServer(cfg, logger, pool, setup)

	go func() {
		addr := ":" + cfg.Port
		logger.Info().Str("addr", addr).Msg("starting server")
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Fatal().Err(err).Msg("server shutdown failed")
	}
	logger.Info().Msg("server stopped")
	return nil
}

// newServer wires middleware and routes. pool may be nil in tests that do
// not reach the database.
func newServer(cfg *config.Config, logger zerolog.Logger, pool *pgxpool.Pool, setup *ability.Setup) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recovery(logger))
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(logger))

	jwtCfg := auth.JWTConfig{
		Issuer:         cfg.AuthIssuer,
		Audience:       cfg.AuthAudience,
		JWKSURL:        cfg.AuthJWKSURL,
		SigningKey:     []byte(cfg.AuthSigningKey),
		AllowAnonymous: true,
		Skipper:        auth.AuthSkipper,
	}
	if cfg.IsDev() {
		e.Use(auth.DevAuthMiddleware())
		if cfg.AuthSigningKey != "" {
			e.Use(auth.JWTMiddleware(jwtCfg))
		}
	} else {
		e.Use(auth.JWTMiddleware(jwtCfg))
	}

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"status":  "ok",
			"version": version,
		})
	})
	if pool != nil {
		e.GET("/health/db", db.HealthHandler(pool))
	}

	apiV1 := e.Group("/api/v1", ability.Middleware(ability.NewResolver(setup.Registry), logger))

	ability.NewHandler().RegisterRoutes(apiV1)

	roleSvc := role.NewService(role.NewRepoPG(pool), setup.Registry)
	role.NewHandler(roleSvc, setup.Labels).RegisterRoutes(apiV1)

	doctorSvc := doctor.NewService(doctor.NewRepoPG(pool))
	doctorSvc.SetTxRunner(func(ctx context.Context, fn func(context.Context) error) error {
		return db.WithTx(ctx, pool, fn)
	})
	doctor.NewHandler(doctorSvc).RegisterRoutes(apiV1)

	return e
}

func openPool(ctx context.Context) (*config.Config, *pgxpool.Pool, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.PoolOptions())
	if err != nil {
		return nil, nil, fmt.Errorf("connect to database: %w", err)
	}
	return cfg, pool, nil
}
