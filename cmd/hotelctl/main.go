package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"

	_ "github.com/go-sql-driver/mysql"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"hotel_inventory/internal/adapters/apiclient"
	"hotel_inventory/internal/adapters/observability"
	"hotel_inventory/internal/app"
	"hotel_inventory/internal/domain"
	"hotel_inventory/internal/seed"
	"hotel_inventory/internal/shared"
	mysqlrepo "hotel_inventory/internal/storage/mysql"
)

func main() {
	cfg := shared.Load()
	log.Logger = observability.NewLogger(cfg.AppEnv, cfg.LogLevel)

	rootCmd := &cobra.Command{
		Use:          "hotelctl",
		Short:        "Schema and reference data tooling for the hotel inventory",
		SilenceUsage: true,
	}
	rootCmd.AddCommand(migrateCmd(cfg), seedCmd(cfg), importCmd(cfg))

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func openStore(ctx context.Context, cfg shared.Config) (*mysqlrepo.Store, error) {
	db, err := sql.Open("mysql", cfg.MySQLDSN)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return mysqlrepo.New(db), nil
}

func migrateCmd(cfg shared.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending schema migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openStore(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer s.DB().Close()

			n, err := s.Migrate(cmd.Context())
			if err != nil {
				return err
			}
			log.Info().Int("applied", n).Msg("migrations done")
			return nil
		},
	}
}

func seedCmd(cfg shared.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load the room catalog, optionally with demo hotels",
		RunE: func(cmd *cobra.Command, args []string) error {
			demo, _ := cmd.Flags().GetBool("demo")
			workers, _ := cmd.Flags().GetInt("workers")

			s, err := openStore(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer s.DB().Close()

			if err := s.SeedCatalog(cmd.Context(), seed.Catalog()); err != nil {
				return fmt.Errorf("seed catalog: %w", err)
			}
			log.Info().Msg("catalog seeded")
			if !demo {
				return nil
			}

			catalog := app.NewCatalogService(s, nil, cfg.CatalogTTL)
			n, err := seed.Hotels(cmd.Context(), app.NewCommandService(s, catalog, nil), seed.DemoHotels(), workers)
			if err != nil {
				return fmt.Errorf("seed demo hotels: %w", err)
			}
			log.Info().Int("created", n).Msg("demo hotels seeded")
			return nil
		},
	}
	cmd.Flags().Bool("demo", false, "Also create the demo hotels")
	cmd.Flags().Int("workers", cfg.SeedWorkers, "Concurrent hotel writes")
	return cmd
}

// apiCreator creates hotels through a running API instead of the database.
type apiCreator struct{ c *apiclient.Client }

func (a apiCreator) CreateHotel(ctx context.Context, in domain.HotelInput) (domain.Hotel, error) {
	hv, err := a.c.CreateHotel(ctx, in)
	if errors.Is(err, apiclient.ErrConflict) {
		return domain.Hotel{}, fmt.Errorf("%s: %w", err, domain.ErrDuplicateHotel)
	}
	return hv.Hotel, err
}

func importCmd(cfg shared.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import FILE",
		Short: "Create the hotels listed in a YAML file through the API",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			base, _ := cmd.Flags().GetString("api")
			rps, _ := cmd.Flags().GetInt("rps")
			workers, _ := cmd.Flags().GetInt("workers")

			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()
			hotels, err := seed.LoadHotels(f)
			if err != nil {
				return err
			}

			client, err := apiclient.New(base, rps)
			if err != nil {
				return err
			}
			n, err := seed.Hotels(cmd.Context(), apiCreator{client.WithLanguage(cfg.Locale)}, hotels, workers)
			log.Info().Int("created", n).Int("listed", len(hotels)).Msg("import finished")
			return err
		},
	}
	cmd.Flags().String("api", "http://localhost"+cfg.HTTPAddr, "Base URL of the hotel API")
	cmd.Flags().Int("rps", 5, "Client-side request rate limit")
	cmd.Flags().Int("workers", cfg.SeedWorkers, "Concurrent requests")
	return cmd
}
