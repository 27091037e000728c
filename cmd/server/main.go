// cmd/server/main.go
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/codr1/plantfloor/internal/api/auth"
	"github.com/codr1/plantfloor/internal/config"
	"github.com/codr1/plantfloor/internal/db"
	"github.com/codr1/plantfloor/internal/email"
	"github.com/codr1/plantfloor/internal/ratelimit"
	"github.com/codr1/plantfloor/internal/scheduler"
)

const startupTimeout = 30 * time.Second

func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		return config.FromEnv()
	}
	return config.Load(path)
}

func getEnvAsInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return fallback
}

func setupLogger(environment string) {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	if environment == "development" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}
}

func main() {
	configPath := flag.String("config", os.Getenv("CONFIG_FILE"), "Path to config.yaml (environment only when empty)")
	flag.Parse()

	cfg, err := loadConfig(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	setupLogger(cfg.App.Environment)

	database, err := db.NewFromConfig(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open database")
	}
	defer database.Close()

	startupCtx, cancelStartup := context.WithTimeout(context.Background(), startupTimeout)
	if err := bootstrap(startupCtx, database, cfg); err != nil {
		cancelStartup()
		log.Fatal().Err(err).Msg("Failed to prepare database")
	}
	cancelStartup()

	sesClient, err := email.NewSESClientFromConfig(cfg.Email)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create SES client")
	}
	var sender email.EmailSender
	if sesClient != nil {
		sender = sesClient
	} else {
		log.Warn().Msg("Email is not configured; inquiry notifications are disabled")
	}

	limiter := ratelimit.New(ratelimit.DefaultConfig())
	defer limiter.Close()

	if cfg.Digest.Enabled {
		if err := startDigest(database, sender, cfg); err != nil {
			log.Fatal().Err(err).Msg("Failed to schedule inquiry digest")
		}
		defer func() {
			if err := scheduler.Stop(); err != nil {
				log.Error().Err(err).Msg("Failed to stop scheduler")
			}
		}()
	}

	server, err := newServer(cfg, database, sender, limiter)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to build server")
	}

	// Setup graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info().Int("port", cfg.App.Port).Str("environment", cfg.App.Environment).Msg("Starting server")
		if err := server.ListenAndServe(); err != http.ErrServerClosed {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		shutdownTimeout := time.Duration(getEnvAsInt("SHUTDOWN_TIMEOUT_SECONDS", 30)) * time.Second
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		log.Info().Msg("Shutting down server")
		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown error: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		log.Error().Err(err).Msg("Server terminated with error")
		os.Exit(1)
	}
}

// bootstrap seeds the built-in themes and the first admin account.
func bootstrap(ctx context.Context, database *db.DB, cfg *config.Config) error {
	themes, err := db.ParseThemesFile()
	if err != nil {
		return err
	}
	if _, err := database.SeedThemes(ctx, themes); err != nil {
		return fmt.Errorf("seed themes: %w", err)
	}

	if _, err := auth.EnsureAdmin(ctx, database.Queries, cfg); err != nil {
		return fmt.Errorf("bootstrap admin: %w", err)
	}
	return nil
}

func startDigest(database *db.DB, sender email.EmailSender, cfg *config.Config) error {
	if err := scheduler.Init(); err != nil {
		return err
	}
	if err := scheduler.RegisterDigestJob(database.Queries, sender, cfg.Email.SalesInbox, cfg.Digest.Cron); err != nil {
		return err
	}
	return scheduler.Start()
}
