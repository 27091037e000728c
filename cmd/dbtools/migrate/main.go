// cmd/dbtools/migrate/main.go
package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/sqlite3"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/codr1/plantfloor/internal/config"
	"github.com/codr1/plantfloor/internal/db"
)

func main() {
	var (
		configPath     = flag.String("config", "", "Path to config.yaml; supplies the database file when -db is empty")
		dbPath         = flag.String("db", "", "Path to SQLite database")
		migrationsPath = flag.String("migrations", "", "Migrations directory (defaults to the migrations built into the binary)")
		command        = flag.String("command", "", "Command to run (up, down, steps, force, version)")
		n              = flag.Int("n", 0, "Step count for steps, target version for force")
	)
	flag.Parse()

	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	if *command == "" {
		flag.Usage()
		os.Exit(1)
	}

	path, err := resolveDBPath(*dbPath, *configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid database path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		log.Fatal().Err(err).Msg("Failed to create database directory")
	}

	m, err := newMigrator(path, *migrationsPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Migration init failed")
	}
	defer m.Close()

	if err := run(m, *command, *n); err != nil {
		log.Fatal().Err(err).Str("command", *command).Msg("Migration failed")
	}
}

func resolveDBPath(dbPath, configPath string) (string, error) {
	if dbPath == "" && configPath != "" {
		cfg, err := config.Load(configPath)
		if err != nil {
			return "", err
		}
		dbPath = cfg.Database.Filename
	}
	if dbPath == "" {
		return "", errors.New("-db or -config is required")
	}
	return filepath.Abs(dbPath)
}

func newMigrator(dbPath, migrationsPath string) (*migrate.Migrate, error) {
	databaseURL := fmt.Sprintf("sqlite3://%s?_fk=1", dbPath)
	if migrationsPath != "" {
		absMigrations, err := filepath.Abs(migrationsPath)
		if err != nil {
			return nil, err
		}
		if _, err := os.Stat(absMigrations); err != nil {
			return nil, fmt.Errorf("migrations directory: %w", err)
		}
		return migrate.New("file://"+absMigrations, databaseURL)
	}

	src, err := db.MigrationSource()
	if err != nil {
		return nil, err
	}
	return migrate.NewWithSourceInstance("iofs", src, databaseURL)
}

func run(m *migrate.Migrate, command string, n int) error {
	switch command {
	case "up":
		if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
			return err
		}
	case "down":
		if err := m.Down(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
			return err
		}
	case "steps":
		if n == 0 {
			return errors.New("steps needs a non-zero -n")
		}
		if err := m.Steps(n); err != nil {
			return err
		}
	case "force":
		if err := m.Force(n); err != nil {
			return err
		}
	case "version":
		version, dirty, err := m.Version()
		if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
			return err
		}
		log.Info().Uint("version", version).Bool("dirty", dirty).Msg("Current schema version")
		return nil
	default:
		return fmt.Errorf("unknown command: %s", command)
	}

	version, dirty, err := m.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		return err
	}
	log.Info().Str("command", command).Uint("version", version).Bool("dirty", dirty).Msg("Migration complete")
	return nil
}
