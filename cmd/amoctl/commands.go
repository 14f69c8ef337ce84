package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/localnerve/amo-catalog/data"
	"github.com/localnerve/amo-catalog/internal/bootstrap"
	"github.com/localnerve/amo-catalog/internal/config"
	"github.com/localnerve/amo-catalog/internal/database"
	"github.com/localnerve/amo-catalog/internal/models"
	"github.com/localnerve/amo-catalog/internal/services"
	"github.com/localnerve/amo-catalog/internal/tasks"
	"github.com/localnerve/amo-catalog/internal/versions"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/spf13/cobra"
)

var errNoQueue = errors.New("NATS_URL is not set, tasks run inside the server")

func newRootCmd() *cobra.Command {
	var verbose bool

	root := &cobra.Command{
		Use:           "amoctl",
		Short:         "Administer the add-on catalog",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			level := slog.LevelInfo
			if verbose {
				level = slog.LevelDebug
			}
			slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
		},
	}
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")

	root.AddCommand(
		newMigrateCmd(),
		newSeedCmd(),
		newSetupMappingCmd(),
		newReindexCmd(),
		newWorkerCmd(),
		newVersionIntCmd(),
		newTokenCmd(),
	)
	return root
}

// withBackends opens the configured backends around fn.
func withBackends(cmd *cobra.Command, fn func(ctx context.Context, b *bootstrap.Backends) error) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	b, err := bootstrap.Open(ctx, cfg, slog.Default())
	if err != nil {
		return err
	}
	defer b.Close()

	return fn(ctx, b)
}

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database tables",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withBackends(cmd, func(ctx context.Context, b *bootstrap.Backends) error {
				if err := database.AutoMigrate(b.DB); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "migrated")
				return nil
			})
		},
	}
}

func newSeedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Load the bundled application versions and categories",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withBackends(cmd, func(ctx context.Context, b *bootstrap.Backends) error {
				created, err := seed(ctx, b)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "created %d app versions, %d categories\n", created[0], created[1])
				return nil
			})
		},
	}
}

func seed(ctx context.Context, b *bootstrap.Backends) ([2]int64, error) {
	var created [2]int64

	appVersions, err := data.AppVersions()
	if err != nil {
		return created, err
	}
	var inputs []services.AppVersionInput
	for _, s := range appVersions {
		app, _ := models.ApplicationByShort(s.App)
		for _, v := range s.Versions {
			inputs = append(inputs, services.AppVersionInput{Application: app, Version: v})
		}
	}
	if created[0], err = services.SeedAppVersions(ctx, b.DB, inputs); err != nil {
		return created, err
	}

	categories, err := data.Categories()
	if err != nil {
		return created, err
	}
	created[1], err = services.SeedCategories(ctx, b.DB, categories)
	return created, err
}

func newSetupMappingCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "setup-mapping",
		Short: "Create the search index with the add-on mapping",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withBackends(cmd, func(ctx context.Context, b *bootstrap.Backends) error {
				if !b.Config.SearchEnabled() {
					return errors.New("ES_URL is not set")
				}
				if err := b.Indexer.SetupMapping(ctx); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "index %s ready\n", b.Config.ESIndex)
				return nil
			})
		},
	}
}

func newReindexCmd() *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:   "reindex [--all | ADDON_ID...]",
		Short: "Queue add-ons for search indexing",
		RunE: func(cmd *cobra.Command, args []string) error {
			ids, err := reindexIDs(all, args)
			if err != nil {
				return err
			}
			return withBackends(cmd, func(ctx context.Context, b *bootstrap.Backends) error {
				queued, err := b.AddonService().Reindex(ctx, ids)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "queued %d tasks\n", queued)
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&all, "all", false, "reindex every add-on")
	return cmd
}

// reindexIDs validates the reindex arguments. A nil result means every add-on.
func reindexIDs(all bool, args []string) ([]uint64, error) {
	if all {
		if len(args) > 0 {
			return nil, errors.New("--all does not take add-on ids")
		}
		return nil, nil
	}
	if len(args) == 0 {
		return nil, errors.New("pass add-on ids or --all")
	}

	ids := make([]uint64, 0, len(args))
	for _, arg := range args {
		id, err := strconv.ParseUint(arg, 10, 64)
		if err != nil || id == 0 {
			return nil, fmt.Errorf("invalid add-on id %q", arg)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func newWorkerCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "worker",
		Short: "Run queued tasks from the NATS stream",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withBackends(cmd, func(ctx context.Context, b *bootstrap.Backends) error {
				if b.NATS == nil {
					return errNoQueue
				}
				js, err := jetstream.New(b.NATS)
				if err != nil {
					return fmt.Errorf("failed to create jetstream context: %w", err)
				}

				worker := tasks.NewWorker(js, b.Config.TaskStream, b.Runner, b.Config.TaskWorkers, b.Logger)
				slog.Info("worker started", "stream", b.Config.TaskStream, "concurrency", b.Config.TaskWorkers)
				return worker.Run(ctx)
			})
		},
	}
}

func newVersionIntCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version-int VERSION...",
		Short: "Print the sortable integer of application versions",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, v := range args {
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%d\n", v, versions.Int(v))
			}
			return nil
		},
	}
}

func newTokenCmd() *cobra.Command {
	var (
		userID uint64
		role   string
		ttl    time.Duration
	)

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue an API token signed with JWT_SECRET",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			secret := os.Getenv("JWT_SECRET")
			if secret == "" {
				return errors.New("JWT_SECRET is not set")
			}
			token, err := services.GenerateToken(secret, userID, role, ttl)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	cmd.Flags().Uint64Var(&userID, "user", 0, "user id the token is issued to")
	cmd.Flags().StringVar(&role, "role", services.RoleUser, "admin or user")
	cmd.Flags().DurationVar(&ttl, "ttl", services.DefaultTokenTTL, "token lifetime")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}
