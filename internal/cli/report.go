package cli

import (
	"context"
	"fmt"
	"io"
	"strconv"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/justestif/go-sparkify/internal/dashboard"
	"github.com/justestif/go-sparkify/internal/db"
	"github.com/justestif/go-sparkify/internal/model"
)

const (
	sourceFiles = "files"
	sourceDB    = "db"
)

type ReportCmd struct {
	app *app
}

func NewReportCmd(a *app) *ReportCmd {
	return &ReportCmd{app: a}
}

// report is what the report command prints, whatever its source.
type report struct {
	counts     map[string]int64
	previews   []dashboard.Preview
	aggregates dashboard.Aggregates
}

func (c *ReportCmd) Command() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Print table counts and songplay aggregates",
		RunE: func(cmd *cobra.Command, args []string) error {
			source, err := cmd.Flags().GetString("source")
			if err != nil {
				return fmt.Errorf("failed to get source flag: %w", err)
			}
			rows, err := cmd.Flags().GetInt("rows")
			if err != nil {
				return fmt.Errorf("failed to get rows flag: %w", err)
			}

			var r *report
			switch source {
			case sourceFiles:
				r, err = c.fromFiles(rows)
			case sourceDB:
				r, err = c.fromDB(cmd.Context())
			default:
				return fmt.Errorf("invalid source %q: want %s or %s", source, sourceFiles, sourceDB)
			}
			if err != nil {
				return err
			}

			printReport(cmd.OutOrStdout(), r)
			return nil
		},
	}

	cmd.Flags().StringP("source", "s", sourceFiles, "where to read the star schema from (files, db)")
	cmd.Flags().Int("rows", 0, "rows per table preview, files source only (default from dashboard.table_rows)")

	return cmd
}

func (c *ReportCmd) fromFiles(rows int) (*report, error) {
	cfg := c.app.cfg
	if rows <= 0 {
		rows = cfg.Dashboard.TableRows
	}
	tables, err := dashboard.Load(cfg.Data.SongDir, cfg.Data.LogDir, cfg.Data.Extension)
	if err != nil {
		return nil, err
	}
	counts := make(map[string]int64)
	for name, n := range tables.Counts() {
		counts[name] = int64(n)
	}
	return &report{
		counts:     counts,
		previews:   tables.Previews(rows),
		aggregates: tables.Aggregate(cfg.Dashboard.TopN),
	}, nil
}

func (c *ReportCmd) fromDB(ctx context.Context) (*report, error) {
	database, err := c.app.openDB(ctx)
	if err != nil {
		return nil, err
	}
	defer database.Close()

	counts, err := database.Counts(ctx)
	if err != nil {
		return nil, err
	}
	top, err := database.Songplays().TopUsers(ctx, c.app.cfg.Dashboard.TopN)
	if err != nil {
		return nil, err
	}
	byLevel, err := database.Songplays().ByLevel(ctx)
	if err != nil {
		return nil, err
	}
	byGender, err := database.Songplays().ByGender(ctx)
	if err != nil {
		return nil, err
	}
	return &report{
		counts: counts,
		aggregates: dashboard.Aggregates{
			TopUsers: top,
			ByLevel:  byLevel,
			ByGender: dashboard.LabelGenders(byGender),
			Total:    int(counts["songplays"]),
		},
	}, nil
}

func printReport(w io.Writer, r *report) {
	fmt.Fprintln(w, "Tables")
	counts := newTable(w, []string{"table", "rows"})
	for _, name := range db.Tables {
		counts.Append([]string{name, strconv.FormatInt(r.counts[name], 10)})
	}
	counts.Render()

	for _, p := range r.previews {
		fmt.Fprintf(w, "\n%s\n", p.Name)
		t := newTable(w, p.Columns)
		t.AppendBulk(p.Rows)
		t.Render()
	}

	printCounts(w, "Top listeners", "user", r.aggregates.TopUsers)
	printCounts(w, "Plays by level", "level", r.aggregates.ByLevel)
	printCounts(w, "Plays by gender", "gender", r.aggregates.ByGender)
	fmt.Fprintf(w, "\n%d songplays in total.\n", r.aggregates.Total)
}

func printCounts(w io.Writer, title, column string, counts []model.PlayCount) {
	fmt.Fprintf(w, "\n%s\n", title)
	t := newTable(w, []string{column, "plays"})
	for _, c := range counts {
		t.Append([]string{c.Label, strconv.Itoa(c.Plays)})
	}
	t.Render()
}

func newTable(w io.Writer, header []string) *tablewriter.Table {
	t := tablewriter.NewWriter(w)
	t.SetAutoWrapText(false)
	t.SetHeaderAlignment(tablewriter.ALIGN_CENTER)
	t.SetAutoFormatHeaders(false)
	t.SetBorder(true)
	t.SetHeader(header)
	return t
}
