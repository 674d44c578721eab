package main

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"

	"voltscan/internal/config"
)

const usage = "usage: migrate up | down | steps <n> | version"

func main() {
	if err := run(os.Args[1:]); err != nil {
		log.Fatalf("migrate: %v", err)
	}
}

func run(args []string) error {
	if len(args) == 0 {
		return errors.New(usage)
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	m, err := migrate.New("file://db/migrations", cfg.DB.DSN())
	if err != nil {
		return fmt.Errorf("opening migration source: %w", err)
	}
	defer m.Close()

	switch args[0] {
	case "up":
		if err := m.Up(); err != nil {
			if errors.Is(err, migrate.ErrNoChange) {
				log.Println("migrate: bill store schema is current")
				return nil
			}
			return fmt.Errorf("applying migrations: %w", err)
		}
		log.Println("migrate: bill store schema updated")
		return nil

	case "down":
		if err := m.Down(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
			return fmt.Errorf("reverting migrations: %w", err)
		}
		log.Println("migrate: bill store schema reverted")
		return nil

	case "steps":
		if len(args) < 2 {
			return errors.New("steps requires a count")
		}
		n, err := strconv.Atoi(args[1])
		if err != nil {
			return fmt.Errorf("parsing step count %q: %w", args[1], err)
		}
		if err := m.Steps(n); err != nil && !errors.Is(err, migrate.ErrNoChange) {
			return fmt.Errorf("stepping migrations: %w", err)
		}
		log.Printf("migrate: stepped bill store schema by %d", n)
		return nil

	case "version":
		v, dirty, err := m.Version()
		if err != nil {
			return fmt.Errorf("reading schema version: %w", err)
		}
		fmt.Printf("schema version %d (dirty=%v)\n", v, dirty)
		return nil

	default:
		return fmt.Errorf("unknown command %q\n%s", args[0], usage)
	}
}
