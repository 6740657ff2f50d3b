package main

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/salescoach/salescoach/internal/api"
	"github.com/salescoach/salescoach/internal/learning"
	"github.com/salescoach/salescoach/internal/llm"
	"github.com/salescoach/salescoach/internal/logging"
	"github.com/salescoach/salescoach/internal/metrics"
	"github.com/salescoach/salescoach/internal/storage"
)

const shutdownTimeout = 10 * time.Second

func serveCmd() *cobra.Command {
	var (
		host string
		port int
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("host") {
				cfg.Server.Host = host
			}
			if cmd.Flags().Changed("port") {
				cfg.Server.Port = port
			}

			db, err := openDB(cfg)
			if err != nil {
				return err
			}
			defer db.Close()

			if n, err := storage.NewReferenceStore(db).Seed(cmd.Context()); err != nil {
				logging.WithField("error", err.Error()).Warn("reference data not seeded")
			} else if n > 0 {
				logging.WithField("rows", n).Info("reference data seeded")
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			learningService := learning.NewService(db, learning.DefaultServiceConfig())
			if err := learningService.Start(ctx); err != nil {
				return err
			}
			defer learningService.Stop()

			var chat *llm.Coach
			if cfg.Features.EnableChat {
				client := llm.NewClient(llm.Config{
					APIKey:  cfg.LLM.APIKey,
					BaseURL: cfg.LLM.BaseURL,
					Model:   cfg.LLM.Model,
				})
				if client.IsConfigured() {
					chat = llm.NewCoach(client, cfg.Coach.HistoryTurns)
				} else {
					logging.Warn("ANTHROPIC_API_KEY not set, chat endpoints disabled")
				}
			}

			var m *metrics.Metrics
			if cfg.Features.EnableMetrics {
				m = metrics.Default()
			}

			server, err := api.New(api.Config{
				Host:            cfg.Server.Host,
				Port:            cfg.Server.Port,
				DB:              db,
				DealValue:       cfg.Coach.DealValue,
				LearningService: learningService,
				Chat:            chat,
				Metrics:         m,
			})
			if err != nil {
				return err
			}

			g, gctx := errgroup.WithContext(ctx)
			g.Go(func() error {
				logging.WithFields(map[string]interface{}{
					"db":        cfg.DatabasePath(),
					"log_level": logging.GetLevel().String(),
				}).Info("sales coach ready")
				return server.Start()
			})
			g.Go(func() error {
				<-gctx.Done()
				logging.Info("shutting down")
				shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
				defer cancel()
				return server.Stop(shutdownCtx)
			})

			if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
				return fmt.Errorf("server: %w", err)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&host, "host", "localhost", "listen host")
	cmd.Flags().IntVar(&port, "port", 8080, "listen port")
	return cmd
}
