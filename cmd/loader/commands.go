package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/urfave/cli/v3"

	"github.com/pageza/nutrimatch/backend/config"
	"github.com/pageza/nutrimatch/backend/internal/loader"
	"github.com/pageza/nutrimatch/backend/internal/logging"
	"github.com/pageza/nutrimatch/backend/internal/server"
	"github.com/pageza/nutrimatch/backend/internal/service"
	"github.com/pageza/nutrimatch/backend/internal/types"
)

func newApp() *cli.Command {
	return &cli.Command{
		Name:  "loader",
		Usage: "Load ingredients and recipes into the NutriMatch catalog",
		Commands: []*cli.Command{
			ingestCmd(),
			importRecipesCmd(),
			tokenCmd(),
		},
	}
}

// session is an open catalog plus the loader built on it.
type session struct {
	cfg     *config.Config
	deps    server.Deps
	catalog *service.CatalogService
	loader  *loader.Loader
}

func openSession(ctx context.Context) (*session, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, err
	}
	logging.Init(logging.Config{Level: cfg.Log.Level, Format: cfg.Log.Format})

	deps, err := server.Connect(ctx, cfg)
	if err != nil {
		return nil, err
	}
	catalog := service.NewCatalogService(deps.DB)
	return &session{
		cfg:     cfg,
		deps:    deps,
		catalog: catalog,
		loader:  server.NewLoader(cfg, catalog, deps.Archive),
	}, nil
}

func (s *session) Close() {
	if s.deps.Redis != nil {
		s.deps.Redis.Close()
	}
	if sqlDB, err := s.deps.DB.DB(); err == nil {
		sqlDB.Close()
	}
}

func ingestCmd() *cli.Command {
	return &cli.Command{
		Name:  "ingest",
		Usage: "Fetch ingredients from an external provider",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "provider",
				Aliases:  []string{"p"},
				Usage:    "Provider name (usda, edamam, openfoodfacts)",
				Required: true,
			},
			&cli.StringSliceFlag{
				Name:    "query",
				Aliases: []string{"q"},
				Usage:   "Ingredient search query, repeatable",
			},
			&cli.StringFlag{
				Name:    "file",
				Aliases: []string{"f"},
				Usage:   "File with one query per line",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			queries := cmd.StringSlice("query")
			if path := cmd.String("file"); path != "" {
				f, err := os.Open(path)
				if err != nil {
					return fmt.Errorf("failed to open query file: %w", err)
				}
				more, err := readQueries(f)
				f.Close()
				if err != nil {
					return err
				}
				queries = append(queries, more...)
			}
			if len(queries) == 0 {
				return fmt.Errorf("no queries given, use --query or --file")
			}

			s, err := openSession(ctx)
			if err != nil {
				return err
			}
			defer s.Close()

			var src *loader.Source
			var names []string
			for _, candidate := range server.Sources(s.cfg, s.deps.Redis) {
				names = append(names, candidate.Name())
				if candidate.Name() == cmd.String("provider") {
					src = candidate
				}
			}
			if src == nil {
				return fmt.Errorf("unknown or unconfigured provider %q (available: %s)", cmd.String("provider"), strings.Join(names, ", "))
			}

			result := s.loader.LoadBatch(ctx, src, queries)
			return writeJSON(cmd.Root().Writer, result)
		},
	}
}

func importRecipesCmd() *cli.Command {
	return &cli.Command{
		Name:      "import-recipes",
		Usage:     "Import hand-maintained ingredients and recipes from a YAML file",
		ArgsUsage: "<file.yaml>",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			path := cmd.Args().First()
			if path == "" {
				return fmt.Errorf("recipe file path is required")
			}
			f, err := os.Open(path)
			if err != nil {
				return fmt.Errorf("failed to open recipe file: %w", err)
			}
			defer f.Close()

			file, err := loader.ParseRecipeFile(f)
			if err != nil {
				return err
			}

			s, err := openSession(ctx)
			if err != nil {
				return err
			}
			defer s.Close()

			ingredients := s.loader.ImportIngredients(ctx, file.Ingredients)
			recipes := s.loader.ImportRecipes(ctx, file.Recipes)
			logging.Info().
				Int("ingredients", len(ingredients.Successes)).
				Int("ingredient_failures", len(ingredients.Failures)).
				Int("recipes", len(recipes.Successes)).
				Int("recipe_failures", len(recipes.Failures)).
				Msg("recipe file imported")

			return writeJSON(cmd.Root().Writer, map[string]any{
				"ingredients": ingredients,
				"recipes":     recipes,
			})
		},
	}
}

func tokenCmd() *cli.Command {
	return &cli.Command{
		Name:  "token",
		Usage: "Mint a bearer token for local testing",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "secret",
				Usage:    "JWT signing secret",
				Sources:  cli.EnvVars("JWT_SECRET"),
				Required: true,
			},
			&cli.StringFlag{
				Name:  "user",
				Usage: "User id (random when empty)",
			},
			&cli.StringFlag{
				Name:  "username",
				Usage: "Username claim",
			},
			&cli.StringFlag{
				Name:  "role",
				Usage: "Role claim (user or admin)",
				Value: types.RoleUser,
			},
			&cli.DurationFlag{
				Name:  "ttl",
				Usage: "Token lifetime",
				Value: 24 * time.Hour,
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			role := cmd.String("role")
			if role != types.RoleUser && role != types.RoleAdmin {
				return fmt.Errorf("invalid role %q", role)
			}
			userID := uuid.New()
			if raw := cmd.String("user"); raw != "" {
				parsed, err := uuid.Parse(raw)
				if err != nil {
					return fmt.Errorf("invalid user id: %w", err)
				}
				userID = parsed
			}

			tokens := service.NewTokenService(cmd.String("secret"), cmd.Duration("ttl"))
			token, err := tokens.GenerateToken(&types.TokenClaims{
				UserID:   userID,
				Username: cmd.String("username"),
				Role:     role,
			})
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.Root().Writer, token)
			return err
		},
	}
}

// readQueries returns the non-empty lines of r; lines starting with # are skipped.
func readQueries(r io.Reader) ([]string, error) {
	var out []string
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		out = append(out, line)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("failed to read queries: %w", err)
	}
	return out, nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
