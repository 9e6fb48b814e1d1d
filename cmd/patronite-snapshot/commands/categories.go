package commands

import (
	"patronite-snapshot/internal/serviceutil"
	"patronite-snapshot/internal/telemetry"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

var categoriesStored bool

func init() {
	categoriesCmd.Flags().BoolVar(&categoriesStored, "stored", false, "List the categories in the store instead of the live site.")
	rootCmd.AddCommand(categoriesCmd)
}

var categoriesCmd = &cobra.Command{
	Use:   "categories [--stored]",
	Short: "Lists the categories of the site.",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()
		cfg := loadConfig()
		tel := telemetry.SlogAPI{}

		t := newTable()
		t.AppendHeader(table.Row{"ID", "Name", "Url"})

		if categoriesStored {
			database := openDB(cfg)
			defer database.Close()
			categories, err := newStore(database, tel).Categories(ctx)
			if err != nil {
				serviceutil.Fatal("failed to read categories", err)
			}
			for _, c := range categories {
				t.AppendRow(table.Row{c.ID, c.Name, c.Url})
			}
			t.Render()
			return
		}

		categories, err := newScraper(cfg, tel).Categories(ctx)
		if err != nil {
			serviceutil.Fatal("failed to list categories", err)
		}
		for _, c := range categories {
			t.AppendRow(table.Row{c.ID, c.Name, c.Url})
		}
		t.Render()
	},
}
