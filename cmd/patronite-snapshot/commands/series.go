package commands

import (
	"time"

	"patronite-snapshot/internal/serviceutil"
	"patronite-snapshot/internal/telemetry"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(seriesCmd)
}

var seriesCmd = &cobra.Command{
	Use:   "series <identity>",
	Short: "Prints every stored observation of a creator, ex. `series /jan-kowalski`.",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()
		cfg := loadConfig()

		database := openDB(cfg)
		defer database.Close()

		points, err := newStore(database, telemetry.SlogAPI{}).Series(ctx, args[0])
		if err != nil {
			serviceutil.Fatal("failed to read series", err)
		}

		t := newTable()
		t.SetTitle(args[0])
		t.AppendHeader(table.Row{"Observed", "Category", "Featured", "Patrons", "Monthly", "Total", "Defaulted", "Run"})
		for _, p := range points {
			t.AppendRow(table.Row{
				p.Time.Format(time.DateTime),
				p.CategoryID,
				formatFeatured(p.IsFeatured),
				p.PatronCount,
				p.MonthlyAmount,
				p.TotalAmount,
				p.Defaulted,
				p.RunID,
			})
		}
		t.Render()
	},
}
