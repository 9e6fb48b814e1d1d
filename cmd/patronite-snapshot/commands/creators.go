package commands

import (
	"patronite-snapshot/internal/serviceutil"
	"patronite-snapshot/internal/telemetry"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(creatorsCmd)
}

var creatorsCmd = &cobra.Command{
	Use:   "creators <category-url>",
	Short: "Crawls a single category and prints its creators without storing them.",
	Long: `Crawls every page of a single category and prints the creators in the order
they were extracted. Featured creators are listed twice, once from the
carousel and once from the general list, nothing is deduplicated.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()
		cfg := loadConfig()
		scraper := newScraper(cfg, telemetry.SlogAPI{})

		category, err := scraper.CategoryFromUrl(args[0])
		if err != nil {
			serviceutil.Fatal("invalid category url", err)
		}
		creators, err := scraper.Creators(ctx, category)
		if err != nil {
			serviceutil.Fatal("failed to crawl category", err)
		}

		t := newTable()
		t.SetTitle(category.Url)
		t.AppendHeader(table.Row{"Identity", "Name", "Featured", "Patrons", "Monthly", "Total", "Tags"})
		for _, c := range creators {
			t.AppendRow(table.Row{
				c.Identity,
				c.Name,
				formatFeatured(c.IsFeatured),
				formatAmount(c.PatronCount),
				formatAmount(c.MonthlyAmount),
				formatAmount(c.TotalAmount),
				formatTags(c.Tags),
			})
		}
		t.AppendFooter(table.Row{"", "", "", "", "", "Creators", len(creators)})
		t.Render()
	},
}
