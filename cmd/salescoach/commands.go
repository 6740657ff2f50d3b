package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/salescoach/salescoach/internal/coach"
	"github.com/salescoach/salescoach/internal/core"
	"github.com/salescoach/salescoach/internal/learning"
	"github.com/salescoach/salescoach/internal/ledger"
	"github.com/salescoach/salescoach/internal/metrics"
	"github.com/salescoach/salescoach/internal/storage"
)

// migrateCmd creates or upgrades the database schema
func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or upgrade the database schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			db, err := openDB(cfg)
			if err != nil {
				return err
			}
			defer db.Close()

			fmt.Fprintf(cmd.OutOrStdout(), "✅ Schema up to date: %s\n", cfg.DatabasePath())
			return nil
		},
	}
}

// seedCmd loads the support resources and motivational phrases
func seedCmd() *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load reference data (support resources, motivational phrases)",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			db, err := openDB(cfg)
			if err != nil {
				return err
			}
			defer db.Close()

			ref := storage.NewReferenceStore(db)
			var added int
			if file == "" {
				added, err = ref.Seed(cmd.Context())
			} else {
				added, err = loadReferenceFile(cmd, ref, file)
			}
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "✅ %d reference rows added\n", added)
			return nil
		},
	}

	cmd.Flags().StringVar(&file, "file", "", "YAML file to load instead of the built-in data")
	return cmd
}

// decideCmd runs the decision pipeline once and prints the result
func decideCmd() *cobra.Command {
	var (
		userID  string
		message bool
	)

	cmd := &cobra.Command{
		Use:   "decide",
		Short: "Produce today's decision for a user",
		RunE: func(cmd *cobra.Command, args []string) error {
			userID = strings.TrimSpace(userID)
			if userID == "" {
				return fmt.Errorf("--user: %w", core.ErrMissingRequired)
			}

			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			db, err := openDB(cfg)
			if err != nil {
				return err
			}
			defer db.Close()

			engine, err := coach.NewEngine(storage.NewRecordStore(db), coach.Options{
				DealValue: cfg.Coach.DealValue,
				Logger:    ledger.NewRecorder(ledger.NewStore(db.Conn())),
			})
			if err != nil {
				return err
			}

			res, err := engine.Decide(cmd.Context(), userID)
			if err != nil {
				if errors.Is(err, core.ErrProfileNotFound) {
					return fmt.Errorf("no profile for %q, complete the wizard first: %w", userID, err)
				}
				return err
			}

			if message {
				fmt.Fprintln(cmd.OutOrStdout(), res.Message)
				return nil
			}
			return printJSON(cmd, res)
		},
	}

	cmd.Flags().StringVar(&userID, "user", "", "user id")
	cmd.Flags().BoolVar(&message, "message", false, "print only the coaching message")
	return cmd
}

// learnCmd runs pattern detection now instead of waiting for the background pass
func learnCmd() *cobra.Command {
	var userID string

	cmd := &cobra.Command{
		Use:   "learn",
		Short: "Detect what works from past interactions",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			db, err := openDB(cfg)
			if err != nil {
				return err
			}
			defer db.Close()

			svc := learning.NewService(db, learning.DefaultServiceConfig())
			recorder := ledger.NewRecorder(ledger.NewStore(db.Conn()))
			m := metrics.Default()

			var stored int
			if userID == "" {
				stored, err = svc.LearnAll(cmd.Context())
			} else {
				stored, err = svc.Learn(cmd.Context(), userID)
				if err == nil {
					err = recorder.RecordPatternsLearned(cmd.Context(), userID, stored)
				}
			}
			if err != nil {
				return err
			}
			m.AddLearned(stored)

			fmt.Fprintf(cmd.OutOrStdout(), "🧠 %d patterns stored\n", stored)
			if userID == "" {
				return nil
			}

			ww, err := svc.WhatWorks(cmd.Context(), userID)
			if err != nil {
				return err
			}
			return printJSON(cmd, ww)
		},
	}

	cmd.Flags().StringVar(&userID, "user", "", "user id (default every user with a profile)")
	return cmd
}

// ledgerCmd inspects the decision audit trail
func ledgerCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ledger",
		Short: "Inspect the audit ledger",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "verify",
		Short: "Verify the hash chain",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			db, err := openDB(cfg)
			if err != nil {
				return err
			}
			defer db.Close()

			store := ledger.NewStore(db.Conn())
			count, err := store.Count(cmd.Context())
			if err != nil {
				return err
			}
			if err := store.VerifyChain(cmd.Context()); err != nil {
				fmt.Fprintf(cmd.OutOrStdout(), "❌ Ledger invalid after checking %d entries\n", count)
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "✅ Ledger valid (%d entries)\n", count)
			return nil
		},
	})

	var limit int
	recent := &cobra.Command{
		Use:   "recent",
		Short: "Show the most recent entries",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			db, err := openDB(cfg)
			if err != nil {
				return err
			}
			defer db.Close()

			entries, err := ledger.NewStore(db.Conn()).GetRecent(cmd.Context(), limit)
			if err != nil {
				return err
			}
			for _, e := range entries {
				fmt.Fprintf(cmd.OutOrStdout(), "%6d  %s  %-18s %-6s %s/%s\n",
					e.Seq, e.Timestamp.Format("2006-01-02 15:04:05"), e.Action, e.Actor, e.EntityType, e.EntityID)
			}
			return nil
		},
	}
	recent.Flags().IntVar(&limit, "limit", 20, "number of entries")
	cmd.AddCommand(recent)

	return cmd
}

func printJSON(cmd *cobra.Command, v interface{}) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
