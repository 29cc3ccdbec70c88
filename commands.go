package main

import (
	"context"
	"fmt"
	"log"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"doner/internal/app"
	"doner/internal/config"
	"doner/internal/database"
	"doner/internal/handlers"
	"doner/internal/repositories"
	"doner/internal/services"
	"doner/pkg/payments"
	"doner/pkg/rabbitmq"

	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

// openDatabase connects, migrates and optionally seeds the catalog.
func openDatabase(ctx context.Context, cfg *config.Config) (*gorm.DB, error) {
	db, err := database.Open(cfg.DBDriver, cfg.DBDSN)
	if err != nil {
		return nil, err
	}
	if err := database.Migrate(db); err != nil {
		return nil, err
	}
	if cfg.SeedCatalog {
		if err := database.Seed(ctx, repositories.NewGORMCatalogRepository(db)); err != nil {
			return nil, fmt.Errorf("failed to seed catalog: %w", err)
		}
	}
	return db, nil
}

func closeDatabase(db *gorm.DB) {
	if sqlDB, err := db.DB(); err == nil {
		if err := sqlDB.Close(); err != nil {
			log.Printf("Error closing database: %v", err)
		}
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API, the payment consumer and the reaper",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			return serve(cmd.Context(), cfg)
		},
	}
}

func serve(parent context.Context, cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := openDatabase(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeDatabase(db)

	if cfg.BotToken == "" || cfg.ProviderToken == "" {
		log.Println("Warning: BOT_TOKEN or PROVIDER_TOKEN is not set, invoices will fail")
	}
	gateway := payments.NewClient(payments.Config{
		BaseURL:       cfg.GatewayBaseURL,
		BotToken:      cfg.BotToken,
		ProviderToken: cfg.ProviderToken,
		Timeout:       cfg.GatewayTimeout,
	})

	deps := app.Deps{DB: db, Gateway: gateway}

	var mqClient *rabbitmq.Client
	if cfg.RabbitMQURL != "" {
		mqClient, err = rabbitmq.NewClient(rabbitmq.Config{
			URL:            cfg.RabbitMQURL,
			PaymentQueue:   cfg.PaymentQueue,
			EventsExchange: cfg.EventsExchange,
		})
		if err != nil {
			return fmt.Errorf("failed to initialize RabbitMQ client: %w", err)
		}
		deps.Publisher = mqClient
		deps.Broker = "connected"
	} else {
		log.Println("RABBITMQ_URL is not set, AMQP consumer and event publishing disabled")
	}

	server := app.NewServer(cfg, deps)

	go server.Reaper.Run(ctx)

	if mqClient != nil {
		// In-flight reconciliations finish on shutdown; the reconcile timeout bounds them.
		consumer := handlers.NewPaymentConsumer(context.WithoutCancel(ctx), server.Confirmations)
		if err := mqClient.ConsumePaymentConfirmations(ctx, cfg.ConsumerWorkers, consumer.HandleDelivery); err != nil {
			mqClient.Close()
			return fmt.Errorf("failed to start payment consumer: %w", err)
		}
	}

	listenErr := make(chan error, 1)
	go func() {
		log.Printf("Starting server on port %s", cfg.AppPort)
		listenErr <- server.Fiber.Listen(cfg.AppPort)
	}()

	select {
	case err := <-listenErr:
		stop()
		if mqClient != nil {
			mqClient.Close()
		}
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	log.Println("Shutting down server...")
	if err := server.Fiber.ShutdownWithTimeout(10 * time.Second); err != nil {
		log.Printf("Error during Fiber shutdown: %v", err)
	}
	if mqClient != nil {
		if err := mqClient.Close(); err != nil {
			log.Printf("Error closing RabbitMQ client: %v", err)
		}
	}
	log.Println("Server gracefully stopped")
	return nil
}

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the schema and seed an empty catalog",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			db, err := openDatabase(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer closeDatabase(db)

			fmt.Fprintf(cmd.OutOrStdout(), "Schema migrated (%s)\n", cfg.DBDriver)
			return nil
		},
	}
}

func reapCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reap",
		Short: "Expire abandoned staged carts and prune old tombstones once",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			db, err := database.Open(cfg.DBDriver, cfg.DBDSN)
			if err != nil {
				return err
			}
			defer closeDatabase(db)

			reaper := services.NewReaper(repositories.NewGORMStagingLedger(db), services.ReaperConfig{
				StageTTL:     cfg.StageTTL,
				TombstoneTTL: cfg.TombstoneTTL,
				Interval:     cfg.ReapInterval,
				Batch:        cfg.ReapBatch,
			})
			expired, pruned, err := reaper.RunOnce(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Expired %d staged carts, pruned %d tombstones\n", expired, pruned)
			return nil
		},
	}
}

func tokenCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "token <user-id>",
		Short: "Mint an identity token for the bot relay",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			userID, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil || userID == 0 {
				return fmt.Errorf("invalid user id %q", args[0])
			}
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			token, err := services.NewIdentityService(cfg.IdentitySecret, cfg.IdentityTTL).Issue(userID)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
}
