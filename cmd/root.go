// Package cmd implements the command-line interface for the competitor
// intelligence service.
package cmd

import (
	"context"
	"fmt"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/rivalscan/rivalscan/cmd/analyze"
	"github.com/rivalscan/rivalscan/cmd/crawl"
	"github.com/rivalscan/rivalscan/cmd/discover"
	"github.com/rivalscan/rivalscan/cmd/httpd"
)

const version = "0.1.0"

var (
	// cfgFile holds the path to the configuration file.
	cfgFile string

	rootCmd = &cobra.Command{
		Use:   "rivalscan",
		Short: "Competitor discovery, analysis and price monitoring",
		Long: `rivalscan crawls competitor websites, extracts their offerings,
matches them against your product catalog, and monitors their prices.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}
)

// Execute runs the root command.
func Execute() error {
	// Load .env early so the config layer sees its variables.
	_ = godotenv.Load()

	return rootCmd.ExecuteContext(context.Background())
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "",
		"config file (default is ./config.yaml)")

	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the version number",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("rivalscan version %s\n", version)
		},
	})

	rootCmd.AddCommand(crawl.Command())
	rootCmd.AddCommand(discover.Command())
	rootCmd.AddCommand(analyze.Command())
	rootCmd.AddCommand(httpd.Command())
}
