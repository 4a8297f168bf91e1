/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"fmt"

	"github.com/fichaje-app/apiserver/config"
	"github.com/fichaje-app/apiserver/internal/db"
	"github.com/fichaje-app/apiserver/internal/services"
	"github.com/fichaje-app/apiserver/internal/store"
	"github.com/fichaje-app/apiserver/types"
	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"
)

var (
	useraddName     string
	useraddPIN      string
	useraddRole     string
	useraddFacility string
	useraddPassword string
)

// useraddCmd bootstraps accounts from the CLI. The management API needs
// an existing admin to create users, so the first admin comes from here.
var useraddCmd = &cobra.Command{
	Use:   "useradd",
	Short: "Create a user account",
	Long: `Creates a user account directly in the database. Admin accounts
require a password for the management API. Usage:

	fichaje useradd --name "Ana García" --pin 0042 --facility almacen1
	fichaje useradd --name admin --pin 0001 --facility almacen1 --role admin --password secret
`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.LoadConfig()

		dbConn, err := db.Open(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer dbConn.Close()

		user := types.User{
			Name:       useraddName,
			PIN:        useraddPIN,
			Role:       useraddRole,
			FacilityID: useraddFacility,
		}
		if useraddRole == types.RoleAdmin {
			if useraddPassword == "" {
				return fmt.Errorf("admin accounts require --password")
			}
			hashed, err := bcrypt.GenerateFromPassword([]byte(useraddPassword), bcrypt.DefaultCost)
			if err != nil {
				return err
			}
			user.PasswordHash = string(hashed)
		}

		userService := services.NewUserService(store.NewUserRepository(dbConn))
		created, err := userService.Create(cmd.Context(), user)
		if err != nil {
			return err
		}

		fmt.Printf("created %s user %q (pin %s) in %s\n", created.Role, created.Name, created.PIN, created.FacilityID)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(useraddCmd)

	useraddCmd.Flags().StringVar(&useraddName, "name", "", "display name")
	useraddCmd.Flags().StringVar(&useraddPIN, "pin", "", "4-digit kiosk PIN")
	useraddCmd.Flags().StringVar(&useraddRole, "role", types.RoleWorker, "account role (worker or admin)")
	useraddCmd.Flags().StringVar(&useraddFacility, "facility", "", "facility the user belongs to")
	useraddCmd.Flags().StringVar(&useraddPassword, "password", "", "password for admin accounts")
	_ = useraddCmd.MarkFlagRequired("name")
	_ = useraddCmd.MarkFlagRequired("pin")
	_ = useraddCmd.MarkFlagRequired("facility")
}
