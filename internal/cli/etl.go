package cli

import (
	"github.com/spf13/cobra"

	"github.com/justestif/go-sparkify/internal/etl"
	"github.com/justestif/go-sparkify/internal/logging"
)

type ETLCmd struct {
	app *app
}

func NewETLCmd(a *app) *ETLCmd {
	return &ETLCmd{app: a}
}

func (c *ETLCmd) Command() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "etl",
		Short: "Load the song and log datasets into the database",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := c.app.cfg
			skip, err := boolFlag(cmd.Flags(), "skip-failed-files", cfg.ETL.SkipFailedFiles)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			database, err := c.app.openDB(ctx)
			if err != nil {
				return err
			}
			defer database.Close()

			pipeline := etl.New(etl.NewStore(database),
				etl.WithExtension(cfg.Data.Extension),
				etl.WithSkipFailedFiles(skip),
			)
			res, err := pipeline.Run(ctx, cfg.Data.SongDir, cfg.Data.LogDir)
			if err != nil {
				return err
			}

			failed := len(res.Songs.Failed) + len(res.Logs.Failed)
			for _, phase := range []*etl.PhaseResult{res.Songs, res.Logs} {
				for _, f := range phase.Failed {
					logging.Warn().Str("path", f.Path).Err(f.Err).Msg("file skipped")
				}
			}
			logging.Info().
				Str("run_id", res.RunID.String()).
				Int("songplays", res.Logs.Rows.Songplays).
				Int("unresolved", res.Logs.Rows.Unresolved).
				Int("failed_files", failed).
				Msg("etl finished")
			return nil
		},
	}

	cmd.Flags().Bool("skip-failed-files", false, "roll back and skip files that fail instead of aborting (default from etl.skip_failed_files)")

	return cmd
}
