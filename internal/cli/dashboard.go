package cli

import (
	"fmt"
	"io/fs"

	"github.com/spf13/cobra"

	"github.com/justestif/go-sparkify/internal/dashboard"
	"github.com/justestif/go-sparkify/internal/web"
	webfs "github.com/justestif/go-sparkify/web"
)

type DashboardCmd struct {
	app *app
}

func NewDashboardCmd(a *app) *DashboardCmd {
	return &DashboardCmd{app: a}
}

func (c *DashboardCmd) Command() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dashboard",
		Short: "Load the datasets in memory and serve the dashboard",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := c.app.cfg
			addr, err := stringFlag(cmd.Flags(), "addr", cfg.Dashboard.Addr)
			if err != nil {
				return err
			}

			tables, err := dashboard.Load(cfg.Data.SongDir, cfg.Data.LogDir, cfg.Data.Extension)
			if err != nil {
				return err
			}

			templates, err := fs.Sub(webfs.TemplatesFS, "templates")
			if err != nil {
				return fmt.Errorf("creating templates filesystem: %w", err)
			}
			static, err := fs.Sub(webfs.StaticFS, "static")
			if err != nil {
				return fmt.Errorf("creating static filesystem: %w", err)
			}

			server, err := web.NewServer(web.ServerConfig{
				Addr:        addr,
				TemplatesFS: templates,
				StaticFS:    static,
				TableRows:   cfg.Dashboard.TableRows,
				TopN:        cfg.Dashboard.TopN,
			}, tables)
			if err != nil {
				return fmt.Errorf("creating server: %w", err)
			}

			return server.Run(cmd.Context())
		},
	}

	cmd.Flags().String("addr", web.DefaultAddr, "listen address (default from dashboard.addr)")

	return cmd
}
