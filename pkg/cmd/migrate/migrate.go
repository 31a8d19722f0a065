package migrate

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/velora-sim/velora/log"
	"github.com/velora-sim/velora/pkg/config"
	"github.com/velora-sim/velora/pkg/db/migrate"
	"github.com/velora-sim/velora/pkg/utils"
)

var waitForDB string

func NewMigrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "performs database migration",
		RunE: func(cmd *cobra.Command, args []string) error {
			return startMigration()
		},
	}

	cmd.Flags().StringVar(&waitForDB,
		"wait-for-db",
		"60s",
		"how long to wait for the database to become ready")

	return cmd
}

func startMigration() error {
	// wait for database
	timeout, err := time.ParseDuration(waitForDB)
	if err != nil {
		log.Warn("Invalid duration value. Setting default 60s", log.ErrorField(err))
		timeout = 60 * time.Second
	}
	postgresAddr := utils.ExtractFromDBURL(config.DB)
	if err = utils.WaitForTCP(postgresAddr, timeout); err != nil {
		log.Fatal("database not ready", log.ErrorField(err))
	}

	log.Info("Performing database migration")
	if err = migrate.MigrateDb(config.DB); err != nil {
		log.Fatal("Could not migrate database", log.ErrorField(err))
	}
	log.Info("Database migration done")
	return nil
}
