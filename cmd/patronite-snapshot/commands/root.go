package commands

import (
	"context"
	"fmt"
	"os"

	"patronite-snapshot/internal/config"
	"patronite-snapshot/internal/telemetry"

	"github.com/spf13/cobra"
)

var (
	configPath string
	verbose    bool
	dumpHttp   string
)

var rootCmd = &cobra.Command{
	Use:   "patronite-snapshot",
	Short: "patronite-snapshot records the creators listed on patronite.pl into a time series.",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		telemetry.InitSlog(verbose)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", config.DefaultName, "The config file, <name>.local.json5 is merged over it when present.")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log debug information.")
	rootCmd.PersistentFlags().StringVar(&dumpHttp, "dump-http", "", "Write every HTTP exchange into this directory (it is emptied first).")
}

func ExecuteContext(ctx context.Context) {
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
