package cmd

import (
	"errors"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
	"github.com/terpworks/campusevents/config"
	"github.com/terpworks/campusevents/database"
)

var superuserCmdFlags struct {
	Revoke bool
}

// The first superuser can't be created through the web UI, role management
// is itself superuser-gated. This command bootstraps one from the CLI.
var superuserCmd = &cobra.Command{
	Use:   "superuser <username>",
	Short: "Grant (or revoke) the superuser role for a user",
	Args:  cobra.ExactArgs(1),
	Run:   superuser,
}

func init() {
	superuserCmd.Flags().BoolVar(&superuserCmdFlags.Revoke, "revoke", false, "Revoke the superuser role instead of granting it")
	rootCmd.AddCommand(superuserCmd)
}

func superuser(cmd *cobra.Command, args []string) {
	cfg, err := config.Load(rootCmdPersistentFlags.ConfigFile)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	db, err := database.New(cfg.Database.Path)
	if err != nil {
		log.Fatalf("failed to initialize database: %v", err)
	}
	defer db.Close() //nolint:errcheck

	username := args[0]
	user, err := db.SetSuperuser(cmd.Context(), username, !superuserCmdFlags.Revoke)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			log.Fatalf("user %q not found; they must sign in once before roles can be assigned", username)
		}
		log.Fatalf("failed to update roles: %v", err)
	}

	log.Info("superuser role updated", "username", user.Username, "superuser", user.Roles.Superuser)
}
