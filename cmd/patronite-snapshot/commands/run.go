package commands

import (
	"log/slog"

	"patronite-snapshot/internal/chrono"
	"patronite-snapshot/internal/harvest"
	"patronite-snapshot/internal/serviceutil"
	"patronite-snapshot/internal/snapshot"
	"patronite-snapshot/internal/telemetry"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(runCmd)
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Harvests every category and appends the creators seen for the first time into the store.",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()
		cfg := loadConfig()

		shutdown := setupTelemetry(ctx, cfg)
		defer shutdown()
		telemetry.InstrumentPerfStats(ctx)

		database := openDB(cfg)
		defer database.Close()

		tel := telemetry.SlogAPI{}
		clock := chrono.NewStandardTime()
		harvester := harvest.NewHarvester(
			newScraper(cfg, tel),
			snapshot.NewStore(database, clock, tel),
			harvest.Options{Workers: cfg.Workers},
			clock,
			tel,
		)

		report, err := harvester.Run(ctx)
		renderReport(report)
		if err != nil {
			shutdown()
			serviceutil.Fatal("harvest failed", err)
		}

		slog.Info(
			"harvest finished",
			"run", report.RunID,
			"emitted", report.Emitted,
			"took", report.Finished.Sub(report.Started).String(),
		)
	},
}

func renderReport(report harvest.Report) {
	t := newTable()
	t.SetTitle("run " + report.RunID)
	t.AppendHeader(table.Row{"ID", "Category", "Extracted", "Emitted", "Suppressed", "Defaulted", "Done"})
	for _, c := range report.Categories {
		done := "yes"
		if !c.Done {
			done = "no"
		}
		t.AppendRow(table.Row{c.Category.ID, c.Category.Name, c.Extracted, c.Emitted, c.Suppressed, c.Defaulted, done})
	}
	t.AppendFooter(table.Row{"", "Total", report.Extracted, report.Emitted, report.Suppressed, report.Defaulted, ""})
	t.Render()
}
