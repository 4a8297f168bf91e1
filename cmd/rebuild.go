/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"fmt"
	"time"

	"github.com/fichaje-app/apiserver/config"
	"github.com/fichaje-app/apiserver/internal/db"
	"github.com/fichaje-app/apiserver/internal/export"
	"github.com/fichaje-app/apiserver/internal/server"
	"github.com/fichaje-app/apiserver/internal/store"
	"github.com/spf13/cobra"
)

var (
	rebuildFacility string
	rebuildPIN      string
)

// rebuildCmd regenerates export artifacts from the event log, which is
// the source of truth. Use it after storage incidents or schema fixes.
var rebuildCmd = &cobra.Command{
	Use:   "rebuild",
	Short: "Regenerate export spreadsheets from the event log",
	Long: `Regenerates the per-user daily spreadsheets in object storage from
the clock-event log. Rebuilds one user when --pin is given, otherwise
every user of the facility. Usage:

	fichaje rebuild --facility almacen1 [--pin 0066]
`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		cfg := config.LoadConfig()

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
		if err := objectStore.EnsureBucket(ctx); err != nil {
			return fmt.Errorf("ensure bucket: %w", err)
		}

		rebuilder := export.NewRebuilder(
			store.NewClockEventRepository(dbConn),
			store.NewUserRepository(dbConn),
			objectStore,
			loc,
		)

		if rebuildPIN != "" {
			n, err := rebuilder.RebuildUserByPIN(ctx, rebuildPIN, rebuildFacility)
			if err != nil {
				return err
			}
			fmt.Printf("rebuilt %d day(s) for pin %s in %s\n", n, rebuildPIN, rebuildFacility)
			return nil
		}

		n, err := rebuilder.RebuildFacility(ctx, rebuildFacility)
		if err != nil {
			return err
		}
		fmt.Printf("rebuilt %d day(s) across facility %s\n", n, rebuildFacility)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(rebuildCmd)

	rebuildCmd.Flags().StringVar(&rebuildFacility, "facility", "", "facility whose exports to rebuild")
	rebuildCmd.Flags().StringVar(&rebuildPIN, "pin", "", "rebuild only the user with this PIN")
	_ = rebuildCmd.MarkFlagRequired("facility")
}
