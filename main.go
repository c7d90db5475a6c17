package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/BookClub/BookClub-Backend/src/config"
	"github.com/BookClub/BookClub-Backend/src/db"
	"github.com/BookClub/BookClub-Backend/src/routes"
	"github.com/BookClub/BookClub-Backend/src/seed"
	"github.com/BookClub/BookClub-Backend/src/services"
	"github.com/gin-gonic/gin"
	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

const shutdownTimeout = 10 * time.Second

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

// app is what every subcommand needs once configuration is loaded
type app struct {
	cfg *config.Config
	log *slog.Logger
	db  *gorm.DB
}

func setup(migrate bool) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	log := cfg.NewLogger()

	// Database connection
	conn, err := db.Connect(cfg, log)
	if err != nil {
		return nil, err
	}
	if migrate {
		if err := db.Migrate(conn); err != nil {
			log.Error("error during auto-migration", "error", err)
			return nil, err
		}
	}
	return &app{cfg: cfg, log: log, db: conn}, nil
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "bookclub",
		Short:        "BookClub lending platform backend",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context())
		},
	}
	root.AddCommand(newServeCmd(), newMigrateCmd(), newSeedCmd(), newCreateAdminCmd())
	return root
}

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Migrate the database and start the HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context())
		},
	}
}

func runServe(ctx context.Context) error {
	a, err := setup(true)
	if err != nil {
		return err
	}
	gin.SetMode(a.cfg.GinMode)

	registry := services.NewRegistry(a.db, a.log, a.cfg.JWTSecret, a.cfg.TokenTTL)

	scheduler := cron.New()
	if _, err := registry.Cache.Schedule(scheduler); err != nil {
		return fmt.Errorf("schedule cache cleanup: %w", err)
	}
	scheduler.Start()
	defer scheduler.Stop()

	server := &http.Server{
		Addr:              a.cfg.ServerHost,
		Handler:           routes.SetupRouter(a.cfg, a.log, registry),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	serverErr := make(chan error, 1)
	go func() {
		a.log.Info("server is running", "addr", a.cfg.ServerHost)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case err := <-serverErr:
		if err != nil {
			a.log.Error("error starting server", "addr", a.cfg.ServerHost, "error", err)
			return err
		}
		return nil
	case <-ctx.Done():
		a.log.Info("shutdown signal received, draining requests")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		a.log.Error("graceful shutdown failed", "error", err)
		return err
	}
	a.log.Info("server stopped")
	return nil
}

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := setup(true)
			if err != nil {
				return err
			}
			a.log.Info("migration finished")
			return nil
		},
	}
}

func newSeedCmd() *cobra.Command {
	var email, password string
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Insert a super admin and a demo club with members and books",
		RunE: func(cmd *cobra.Command, args []string) error {
			if password == "" {
				return errors.New("--password is required")
			}
			a, err := setup(true)
			if err != nil {
				return err
			}
			registry := services.NewRegistry(a.db, a.log, a.cfg.JWTSecret, a.cfg.TokenTTL)
			return seed.Seed(cmd.Context(), a.db, a.log, registry, email, password)
		},
	}
	cmd.Flags().StringVar(&email, "email", "admin@bookclub.local", "super admin email")
	cmd.Flags().StringVar(&password, "password", os.Getenv("SEED_PASSWORD"), "password for the seeded accounts")
	return cmd
}

func newCreateAdminCmd() *cobra.Command {
	var name, email, password string
	cmd := &cobra.Command{
		Use:   "create-admin",
		Short: "Create the super admin account if it does not exist",
		RunE: func(cmd *cobra.Command, args []string) error {
			if email == "" || password == "" {
				return errors.New("--email and --password are required")
			}
			a, err := setup(true)
			if err != nil {
				return err
			}

			users := services.NewUserService(a.db, a.cfg.JWTSecret, a.cfg.TokenTTL)
			user, created, err := users.EnsureSuperAdmin(cmd.Context(), name, email, password)
			if err != nil {
				return err
			}
			if !created {
				a.log.Info("user already exists", "email", user.Email)
				return nil
			}
			a.log.Info("super admin created", "email", user.Email, "id", user.Id)
			return nil
		},
	}
	cmd.Flags().StringVar(&name, "name", "Super Admin", "display name")
	cmd.Flags().StringVar(&email, "email", "", "login email")
	cmd.Flags().StringVar(&password, "password", "", "login password")
	return cmd
}
