package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/justestif/go-sparkify/internal/db"
	"github.com/justestif/go-sparkify/internal/logging"
)

type CreateTablesCmd struct {
	app *app
}

func NewCreateTablesCmd(a *app) *CreateTablesCmd {
	return &CreateTablesCmd{app: a}
}

func (c *CreateTablesCmd) Command() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "create-tables",
		Short: "Drop and create the star schema tables",
		RunE: func(cmd *cobra.Command, args []string) error {
			recreate, err := cmd.Flags().GetBool("recreate-database")
			if err != nil {
				return fmt.Errorf("failed to get recreate-database flag: %w", err)
			}
			ctx := cmd.Context()
			cfg := c.app.cfg.Database

			if recreate {
				adminURL, err := cfg.AdminURL()
				if err != nil {
					return err
				}
				if err := db.RecreateDatabase(ctx, adminURL, cfg.Name); err != nil {
					return err
				}
				logging.Info().Str("database", cfg.Name).Msg("database recreated")
			}

			database, err := c.app.openDB(ctx)
			if err != nil {
				return err
			}
			defer database.Close()

			if err := database.Reset(ctx); err != nil {
				return err
			}
			logging.Info().Strs("tables", db.Tables).Msg("tables created")
			return nil
		},
	}

	cmd.Flags().Bool("recreate-database", false, "drop and recreate the database itself first")

	return cmd
}
