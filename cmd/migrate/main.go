package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sort"

	"github.com/urfave/cli/v3"

	"github.com/pageza/nutrimatch/backend/internal/database"
	"github.com/pageza/nutrimatch/backend/internal/logging"
)

func main() {
	app := &cli.Command{
		Name:  "migrate",
		Usage: "Apply or roll back the versioned SQL migrations",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "database-url",
				Usage:    "Postgres connection string",
				Sources:  cli.EnvVars("DATABASE_URL"),
				Required: true,
			},
			&cli.StringFlag{
				Name:    "dir",
				Usage:   "Directory holding the migration files",
				Value:   "migrations",
				Sources: cli.EnvVars("MIGRATIONS_DIR"),
			},
		},
		Commands: []*cli.Command{
			{
				Name:  "up",
				Usage: "Apply every pending migration",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					m, closeDB, err := open(cmd)
					if err != nil {
						return err
					}
					defer closeDB()

					applied, err := m.Up(ctx)
					if err != nil {
						return err
					}
					for _, file := range applied {
						fmt.Printf("Applied migration: %s\n", file)
					}
					fmt.Println("All migrations applied successfully.")
					return nil
				},
			},
			{
				Name:  "rollback",
				Usage: "Roll back the most recently applied migration",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					m, closeDB, err := open(cmd)
					if err != nil {
						return err
					}
					defer closeDB()

					file, err := m.Rollback(ctx)
					if errors.Is(err, database.ErrNoMigrations) {
						fmt.Println("No migrations to rollback")
						return nil
					}
					if err != nil {
						return err
					}
					fmt.Printf("Successfully rolled back migration: %s\n", file)
					return nil
				},
			},
			{
				Name:  "status",
				Usage: "List migrations that have been applied",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					m, closeDB, err := open(cmd)
					if err != nil {
						return err
					}
					defer closeDB()

					applied, err := m.Applied(ctx)
					if err != nil {
						return err
					}
					versions := make([]string, 0, len(applied))
					for v := range applied {
						versions = append(versions, v)
					}
					sort.Strings(versions)
					for _, v := range versions {
						fmt.Println(v)
					}
					return nil
				},
			},
		},
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		logging.Fatal().Err(err).Msg("migration failed")
	}
}

func open(cmd *cli.Command) (*database.Migrator, func(), error) {
	db, err := database.New(cmd.String("database-url"))
	if err != nil {
		return nil, nil, err
	}
	return database.NewMigrator(db.DB, cmd.String("dir")), func() { db.Close() }, nil
}
