package commands

import (
	"os"
	"strconv"
	"strings"

	"patronite-snapshot/internal/scrapers/patronite"

	"github.com/jedib0t/go-pretty/v6/table"
)

func newTable() table.Writer {
	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	t.SetOutputMirror(os.Stdout)
	return t
}

func formatAmount(a patronite.Amount) string {
	if a.Defaulted {
		return "- (" + a.Reason + ")"
	}
	return strconv.FormatInt(a.Value, 10)
}

func formatFeatured(featured bool) string {
	if featured {
		return "★"
	}
	return ""
}

func formatTags(tags []string) string {
	return strings.Join(tags, ", ")
}
