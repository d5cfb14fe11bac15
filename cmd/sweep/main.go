// Command sweep runs the settlement sweeps once and applies database migrations.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/Satyam1013/Free-Health-Camp-sub000/internal/adapters/database"
	"github.com/Satyam1013/Free-Health-Camp-sub000/internal/adapters/events"
	"github.com/Satyam1013/Free-Health-Camp-sub000/internal/adapters/locks"
	"github.com/Satyam1013/Free-Health-Camp-sub000/internal/adapters/search"
	"github.com/Satyam1013/Free-Health-Camp-sub000/internal/application/services"
	"github.com/Satyam1013/Free-Health-Camp-sub000/internal/domain/providers"
	"github.com/Satyam1013/Free-Health-Camp-sub000/internal/infrastructure/clients/postgres"
	"github.com/Satyam1013/Free-Health-Camp-sub000/internal/infrastructure/clients/redis"
	"github.com/Satyam1013/Free-Health-Camp-sub000/internal/infrastructure/clients/typesense"
	"github.com/Satyam1013/Free-Health-Camp-sub000/internal/infrastructure/observability"
	"github.com/Satyam1013/Free-Health-Camp-sub000/migrations"
	"github.com/Satyam1013/Free-Health-Camp-sub000/pkg/config"
)

func main() {
	_ = godotenv.Load()

	rootCmd := &cobra.Command{
		Use:           "sweep",
		Short:         "Run settlement sweeps and schema migrations",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.AddCommand(sweepCmd(services.SweepBalance, "Suspend labs and hospitals with unpaid fees"))
	rootCmd.AddCommand(sweepCmd(services.SweepVisits, "Suspend visit doctors whose latest slot ended with unpaid fees"))
	rootCmd.AddCommand(sweepCmd(services.SweepExpiry, "Remove expired organizer events"))
	rootCmd.AddCommand(allCmd())
	rootCmd.AddCommand(migrateCmd())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		log.Error().Err(err).Msg("sweep command failed")
		os.Exit(1)
	}
}

func sweepCmd(name, short string) *cobra.Command {
	return &cobra.Command{
		Use:   name,
		Short: short,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withScheduler(cmd.Context(), func(s *services.Scheduler) error {
				return runAndPrint(cmd.Context(), s, name)
			})
		},
	}
}

func allCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "all",
		Short: "Run every sweep in order",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withScheduler(cmd.Context(), func(s *services.Scheduler) error {
				for _, name := range []string{services.SweepBalance, services.SweepVisits, services.SweepExpiry} {
					if err := runAndPrint(cmd.Context(), s, name); err != nil {
						return err
					}
				}
				return nil
			})
		},
	}
}

func migrateCmd() *cobra.Command {
	var list bool
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply the embedded SQL schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			if list {
				names, err := migrations.Names()
				if err != nil {
					return err
				}
				for _, n := range names {
					fmt.Println(n)
				}
				return nil
			}

			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			pgClient, err := postgres.NewClient(&cfg.Database)
			if err != nil {
				return fmt.Errorf("failed to connect to PostgreSQL: %w", err)
			}
			defer pgClient.Close()

			applied, err := migrations.Apply(cmd.Context(), pgClient.DB())
			if err != nil {
				return err
			}
			for _, n := range applied {
				log.Info().Str("migration", n).Msg("applied")
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&list, "list", false, "list migrations without applying them")
	return cmd
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	observability.InitLogger(cfg.OTEL.ServiceName+"-sweep", cfg.Env)
	return cfg, nil
}

// withScheduler wires the sweepers behind a scheduler so CLI runs take the same lock as the server
func withScheduler(ctx context.Context, fn func(*services.Scheduler) error) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	metrics, err := observability.InitMetrics()
	if err != nil {
		return err
	}

	pgClient, err := postgres.NewClient(&cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to connect to PostgreSQL: %w", err)
	}
	defer pgClient.Close()

	redisClient, err := redis.NewClient(&cfg.Redis)
	if err != nil {
		return fmt.Errorf("failed to connect to Redis: %w", err)
	}
	defer redisClient.Close()

	var index providers.OfferingIndex
	if tsClient, err := typesense.NewClient(&cfg.Typesense); err != nil {
		log.Warn().Err(err).Msg("Typesense unavailable, expired events stay indexed")
	} else {
		index = search.NewTypesenseAdapter(tsClient)
	}

	providerRepo := database.NewProviderAdapter(pgClient)
	eventBus := events.NewRedisEventBus(redisClient)
	suspension := services.NewSuspensionSweeper(providerRepo, database.NewVisitSlotAdapter(pgClient), eventBus, metrics, cfg.Settlement.MaxCASRetries)
	expiry := services.NewExpirySweeper(providerRepo, database.NewEventAdapter(pgClient), index, eventBus, metrics)

	s := services.NewScheduler(locks.NewRedisLocker(redisClient), cfg.Sweeper.LockTTL)
	for name, run := range map[string]services.SweepFunc{
		services.SweepBalance: suspension.RunBalanceSweep,
		services.SweepVisits:  suspension.RunVisitSweep,
		services.SweepExpiry:  expiry.RunExpirySweep,
	} {
		if err := s.Register(name, "", run); err != nil {
			return err
		}
	}
	return fn(s)
}

func runAndPrint(ctx context.Context, s *services.Scheduler, name string) error {
	report, err := s.Run(ctx, name)
	if err != nil {
		return fmt.Errorf("sweep %s: %w", name, err)
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(report)
}
