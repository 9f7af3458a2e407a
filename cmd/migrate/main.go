package main

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/mysql"
	_ "github.com/golang-migrate/migrate/v4/source/file"

	"github.com/ManuelReschke/EventFox/internal/pkg/database"
	"github.com/ManuelReschke/EventFox/internal/pkg/env"
)

type command struct {
	usage string
	run   func(m *migrate.Migrate, args []string) error
}

var commands = map[string]command{
	"up":     {usage: "up        apply all pending migrations", run: runUp},
	"down":   {usage: "down      roll back the last migration", run: runDown},
	"goto":   {usage: "goto N    migrate to version N", run: runGoto},
	"force":  {usage: "force N   mark version N as applied and clear the dirty flag", run: runForce},
	"status": {usage: "status    print the current migration version", run: runStatus},
}

func main() {
	env.SetupEnvFile()

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}
	cmd, ok := commands[os.Args[1]]
	if !ok {
		printUsage()
		os.Exit(1)
	}

	cfg := database.ConfigFromEnv()
	log.Printf("[Migrate] Connecting to database: %s", cfg)

	m, err := migrate.New("file://"+env.GetEnv("MIGRATIONS_PATH", "migrations"), cfg.MigrateURL())
	if err != nil {
		log.Fatalf("[Migrate] Failed to initialize migrations: %v", err)
	}

	runErr := cmd.run(m, os.Args[2:])
	if sourceErr, dbErr := m.Close(); sourceErr != nil || dbErr != nil {
		log.Printf("[Migrate] Failed to close migration resources: %v, %v", sourceErr, dbErr)
	}
	if runErr != nil {
		log.Fatalf("[Migrate] %s failed: %v", os.Args[1], runErr)
	}
}

func runUp(m *migrate.Migrate, _ []string) error {
	err := m.Up()
	if errors.Is(err, migrate.ErrNoChange) {
		log.Println("[Migrate] No change: database is up to date")
		return nil
	}
	if err != nil {
		return err
	}
	log.Println("[Migrate] Migrations applied")
	return nil
}

func runDown(m *migrate.Migrate, _ []string) error {
	if err := m.Steps(-1); err != nil {
		return err
	}
	log.Println("[Migrate] Last migration rolled back")
	return nil
}

func runGoto(m *migrate.Migrate, args []string) error {
	version, err := versionArg(args)
	if err != nil {
		return err
	}
	err = m.Migrate(uint(version))
	if errors.Is(err, migrate.ErrNoChange) {
		log.Printf("[Migrate] No change: database already at version %d", version)
		return nil
	}
	if err != nil {
		return err
	}
	log.Printf("[Migrate] Migrated to version %d", version)
	return nil
}

func runForce(m *migrate.Migrate, args []string) error {
	version, err := versionArg(args)
	if err != nil {
		return err
	}
	if err := m.Force(int(version)); err != nil {
		return err
	}
	log.Printf("[Migrate] Forced version %d", version)
	return nil
}

func runStatus(m *migrate.Migrate, _ []string) error {
	version, dirty, err := m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		log.Println("[Migrate] No migrations applied yet")
		return nil
	}
	if err != nil {
		return err
	}
	suffix := ""
	if dirty {
		suffix = " (dirty, fix the schema and run force)"
	}
	log.Printf("[Migrate] Current migration version: %d%s", version, suffix)
	return nil
}

func versionArg(args []string) (uint64, error) {
	if len(args) < 1 {
		return 0, errors.New("missing version number")
	}
	version, err := strconv.ParseUint(args[0], 10, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid version number %q: %w", args[0], err)
	}
	return version, nil
}

func printUsage() {
	fmt.Println("Usage: go run ./cmd/migrate <command>")
	fmt.Println("Commands:")
	for _, name := range []string{"up", "down", "goto", "force", "status"} {
		fmt.Println("  " + commands[name].usage)
	}
}
