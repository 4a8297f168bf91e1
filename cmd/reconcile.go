/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/fichaje-app/apiserver/config"
	"github.com/fichaje-app/apiserver/internal/db"
	"github.com/fichaje-app/apiserver/internal/export"
	"github.com/fichaje-app/apiserver/internal/mq"
	"github.com/fichaje-app/apiserver/internal/server"
	"github.com/fichaje-app/apiserver/internal/services"
	"github.com/fichaje-app/apiserver/internal/store"
	"github.com/spf13/cobra"
)

// reconcileCmd runs the repair worker for export artifacts. The clock
// service publishes a message here whenever an inline export sync
// fails; the worker rebuilds the affected user/day from the event log.
var reconcileCmd = &cobra.Command{
	Use:   "reconcile",
	Short: "Run the export reconciliation worker",
	Long: `Consumes export repair requests from the configured broker and
regenerates the affected daily spreadsheets from the event log. Usage:

	fichaje reconcile
`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		cfg := config.LoadConfig()

		broker, err := server.NewBroker(ctx, cfg)
		if err != nil {
			return err
		}
		if broker == nil {
			return errors.New("MQ_BACKEND is required for the reconcile worker")
		}
		defer broker.Close()

		dbConn, err := db.Open(ctx, cfg)
		if err != nil {
			return err
		}
		defer dbConn.Close()

		loc, err := time.LoadLocation(cfg.Clock.Timezone)
		if err != nil {
			return fmt.Errorf("load timezone %q: %w", cfg.Clock.Timezone, err)
		}

		objectStore, err := server.NewObjectStorage(ctx, cfg)
		if err != nil {
			return err
		}

		userRepo := store.NewUserRepository(dbConn)
		rebuilder := export.NewRebuilder(
			store.NewClockEventRepository(dbConn),
			userRepo,
			objectStore,
			loc,
		)

		log.Printf("reconcile worker consuming %s", cfg.MQ.ReconcileChannel)
		return broker.Subscribe(ctx, cfg.MQ.ReconcileChannel, func(ctx context.Context, msg mq.Message) error {
			var req services.ReconcileRequest
			if err := json.Unmarshal(msg.Data, &req); err != nil {
				// Drop malformed messages instead of redelivering forever.
				log.Printf("discard malformed reconcile message %s: %v", msg.ID, err)
				return nil
			}

			user, err := userRepo.GetByID(ctx, req.UserID)
			if err != nil {
				if errors.Is(err, store.ErrNotFound) {
					log.Printf("discard reconcile for deleted user %d", req.UserID)
					return nil
				}
				return err
			}

			if err := rebuilder.RebuildUserDay(ctx, user, req.Date); err != nil {
				return err
			}
			log.Printf("rebuilt %s for user %d (%s)", req.Date, user.ID, user.FacilityID)
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(reconcileCmd)
}
