package main

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"

	"github.com/dropDatabas3/issuehub/internal/config"
	migrations "github.com/dropDatabas3/issuehub/migrations/postgres"
)

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate [up|down]",
		Short: "Aplica las migraciones embebidas de Postgres",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			action := "up"
			if len(args) == 1 {
				action = strings.ToLower(args[0])
			}
			return runMigrate(cmd.Context(), action)
		},
	}
}

func runMigrate(ctx context.Context, action string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if cfg.Storage.DSN == "" {
		return fmt.Errorf("migrate requiere storage.dsn (o DATABASE_URL)")
	}

	var suffix string
	switch action {
	case "up":
		suffix = "_up.sql"
	case "down":
		suffix = "_down.sql"
	default:
		return fmt.Errorf("acción desconocida %q: up | down", action)
	}

	files, err := listEmbedded(suffix)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		fmt.Println("sin migraciones que aplicar")
		return nil
	}
	sort.Strings(files)
	if action == "down" {
		// Las down corren de la más nueva a la más vieja.
		for i, j := 0, len(files)-1; i < j; i, j = i+1, j-1 {
			files[i], files[j] = files[j], files[i]
		}
	}

	pool, err := pgxpool.New(ctx, cfg.Storage.DSN)
	if err != nil {
		return err
	}
	defer pool.Close()

	for _, name := range files {
		sql, err := migrations.FS.ReadFile(name)
		if err != nil {
			return err
		}
		start := time.Now()
		if _, err := pool.Exec(ctx, string(sql)); err != nil {
			return fmt.Errorf("exec %s: %w", name, err)
		}
		fmt.Printf("OK %s (%s)\n", name, time.Since(start).Truncate(time.Millisecond))
	}
	return nil
}

func listEmbedded(suffix string) ([]string, error) {
	entries, err := migrations.FS.ReadDir(".")
	if err != nil {
		return nil, err
	}
	var out []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), suffix) {
			out = append(out, e.Name())
		}
	}
	return out, nil
}
