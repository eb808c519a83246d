package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/bardoun7894/basplast/internal/infra"
	"github.com/bardoun7894/basplast/internal/migration"
)

func main() {
	_ = godotenv.Load()

	var (
		directionFlag string
		stepsFlag     int
		backendFlag   string
		dsnFlag       string
	)
	flag.StringVar(&directionFlag, "direction", "up", "migration direction (up, down)")
	flag.IntVar(&stepsFlag, "steps", 0, "number of migrations to apply or roll back (0 = all)")
	flag.StringVar(&backendFlag, "backend", "", "postgres or sqlite (defaults to RECORD_STORE)")
	flag.StringVar(&dsnFlag, "dsn", "", "database URL or sqlite path (defaults to DATABASE_URL / SQLITE_PATH)")
	flag.Parse()

	direction := strings.ToLower(strings.TrimSpace(directionFlag))
	if direction != "up" && direction != "down" {
		exitWithError(fmt.Errorf("unsupported direction %q", directionFlag))
	}
	if stepsFlag < 0 {
		exitWithError(errors.New("-steps must not be negative"))
	}

	backend, dsn, err := resolveTarget(backendFlag, dsnFlag)
	if err != nil {
		exitWithError(err)
	}

	logger := infra.NewLogger("cli", "").With().Str("cmd", "dbmigrate").Str("backend", string(backend)).Logger()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	mig, err := migration.Open(ctx, backend, dsn)
	if err != nil {
		exitWithError(err)
	}
	defer func() {
		if err := mig.Close(); err != nil {
			logger.Warn().Err(err).Msg("close migrator")
		}
	}()

	if err := run(mig, direction, stepsFlag); err != nil {
		exitWithError(err)
	}
	version, dirty, err := mig.Version()
	if err != nil {
		exitWithError(err)
	}
	logger.Info().Str("direction", direction).Int("steps", stepsFlag).Uint("version", version).Bool("dirty", dirty).Msg("migrations applied")
}

type stepper interface {
	Up() error
	Down() error
	Steps(n int) error
}

func run(m stepper, direction string, steps int) error {
	switch {
	case steps == 0 && direction == "up":
		return m.Up()
	case steps == 0:
		return m.Down()
	case direction == "up":
		return m.Steps(steps)
	default:
		return m.Steps(-steps)
	}
}

// resolveTarget fills the backend and DSN from the environment when the flags
// are empty.
func resolveTarget(backendFlag, dsnFlag string) (migration.Backend, string, error) {
	backend := strings.ToLower(strings.TrimSpace(backendFlag))
	if backend == "" {
		backend = strings.ToLower(strings.TrimSpace(os.Getenv("RECORD_STORE")))
	}
	if backend == "" {
		backend = string(migration.BackendSQLite)
		if os.Getenv("DATABASE_URL") != "" {
			backend = string(migration.BackendPostgres)
		}
	}
	dsn := strings.TrimSpace(dsnFlag)
	switch migration.Backend(backend) {
	case migration.BackendPostgres:
		if dsn == "" {
			dsn = strings.TrimSpace(os.Getenv("DATABASE_URL"))
		}
	case migration.BackendSQLite:
		if dsn == "" {
			dsn = strings.TrimSpace(os.Getenv("SQLITE_PATH"))
		}
		if dsn == "" {
			dsn = "./data/basplast.db"
		}
	default:
		return "", "", fmt.Errorf("unsupported backend %q", backend)
	}
	if dsn == "" {
		return "", "", fmt.Errorf("no DSN for backend %s", backend)
	}
	return migration.Backend(backend), dsn, nil
}

func exitWithError(err error) {
	fmt.Fprintln(os.Stderr, err)
	os.Exit(1)
}
