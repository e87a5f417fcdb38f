package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strconv"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"github.com/codershubham350/discover-places-backend/internal/infrastructure/observability"
	"github.com/codershubham350/discover-places-backend/pkg/config"
)

func main() {
	_ = godotenv.Load()

	path := flag.String("path", getEnv("MIGRATIONS_PATH", "./migrations"), "directory holding the .sql migrations")
	flag.Usage = usage
	flag.Parse()
	args := flag.Args()
	if len(args) == 0 {
		usage()
		os.Exit(1)
	}

	observability.InitLogger("discover-places-migrate", getEnv("APP_ENV", "development"), getEnv("LOG_LEVEL", "info"))

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		dbCfg := config.LoadDatabase()
		dbURL = dbCfg.DatabaseURL()
	}

	m, err := migrate.New("file://"+*path, dbURL)
	if err != nil {
		log.Fatal().Err(err).Str("path", *path).Msg("migration init failed")
	}
	defer m.Close()

	m.Log = migrateLogger{}

	switch args[0] {
	case "up":
		if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
			log.Fatal().Err(err).Msg("up failed")
		}
		log.Info().Msg("migrations applied")

	case "down":
		steps := 1
		if len(args) > 1 {
			n, err := strconv.Atoi(args[1])
			if err != nil || n < 1 {
				log.Fatal().Str("arg", args[1]).Msg("down: invalid steps argument")
			}
			steps = n
		}
		if err := m.Steps(-steps); err != nil && !errors.Is(err, migrate.ErrNoChange) {
			log.Fatal().Err(err).Msg("down failed")
		}
		log.Info().Int("steps", steps).Msg("migrations rolled back")

	case "version":
		v, dirty, err := m.Version()
		if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
			log.Fatal().Err(err).Msg("version failed")
		}
		fmt.Printf("version: %d  dirty: %v\n", v, dirty)

	case "force":
		if len(args) < 2 {
			log.Fatal().Msg("force: version argument required")
		}
		v, err := strconv.Atoi(args[1])
		if err != nil {
			log.Fatal().Str("arg", args[1]).Msg("force: invalid version")
		}
		if err := m.Force(v); err != nil {
			log.Fatal().Err(err).Msg("force failed")
		}
		log.Info().Int("version", v).Msg("migration version forced")

	default:
		usage()
		os.Exit(1)
	}
}

type migrateLogger struct{}

func (migrateLogger) Printf(format string, v ...any) {
	log.Info().Msgf(format, v...)
}

func (migrateLogger) Verbose() bool { return false }

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func usage() {
	fmt.Fprintln(os.Stderr, `Usage: migrate [-path DIR] <command> [args]

Commands:
  up           Apply all pending migrations
  down [N]     Roll back N migrations (default: 1)
  version      Print the current migration version
  force <V>    Set the migration version without running it (clears dirty state)

Environment:
  DATABASE_URL      Full postgres URL. Built from DB_* when unset.
  MIGRATIONS_PATH   Migrations directory (default: ./migrations)`)
}
