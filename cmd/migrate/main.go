package main

import (
	"errors"
	"os"
	"path/filepath"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/joho/godotenv"
	"github.com/saeid-a/CoachBookingBack/internal/logging"
)

func main() {
	logger := logging.New("coach-booking-migrate", os.Getenv("APP_ENV"))

	if err := godotenv.Load(); err != nil {
		logger.Info("no .env file found")
	}

	dbUrl := os.Getenv("DB_URL")
	if dbUrl == "" {
		logger.Error("DB_URL environment variable is required")
		os.Exit(1)
	}

	migrationsPath, err := findMigrations()
	if err != nil {
		logger.Error("migrations directory not found", "err", err)
		os.Exit(1)
	}

	m, err := migrate.New("file://"+migrationsPath, dbUrl)
	if err != nil {
		logger.Error("failed to open migrations", "err", err)
		os.Exit(1)
	}
	defer m.Close()

	cmd := "up"
	if len(os.Args) > 1 {
		cmd = os.Args[1]
	}

	switch cmd {
	case "up":
		if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
			logger.Error("migration up failed", "err", err)
			os.Exit(1)
		}
		logger.Info("migration up successful")
	case "down":
		if err := m.Down(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
			logger.Error("migration down failed", "err", err)
			os.Exit(1)
		}
		logger.Info("migration down successful")
	case "version":
		version, dirty, err := m.Version()
		if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
			logger.Error("failed to read migration version", "err", err)
			os.Exit(1)
		}
		logger.Info("migration version", "version", version, "dirty", dirty)
	default:
		logger.Error("unknown command, expected up, down or version", "command", cmd)
		os.Exit(2)
	}
}

// findMigrations walks up from the working directory and the executable
// location looking for a migrations directory.
func findMigrations() (string, error) {
	candidates := []string{}
	if cwd, err := os.Getwd(); err == nil {
		current := cwd
		for i := 0; i < 6; i++ {
			candidates = append(candidates, filepath.Join(current, "migrations"))
			parent := filepath.Dir(current)
			if parent == current {
				break
			}
			current = parent
		}
	}
	if exePath, err := os.Executable(); err == nil {
		exeDir := filepath.Dir(exePath)
		candidates = append(candidates,
			filepath.Join(exeDir, "migrations"),
			filepath.Join(exeDir, "..", "migrations"),
		)
	}

	for _, candidate := range candidates {
		info, err := os.Stat(candidate)
		if err == nil && info.IsDir() {
			return filepath.Abs(candidate)
		}
	}
	return "", os.ErrNotExist
}
