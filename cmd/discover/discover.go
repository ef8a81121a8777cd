// Package discover implements the discover command: run the competitor
// discovery pipeline for a domain and print the results as a table.
package discover

import (
	"fmt"
	"os"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	cmdcommon "github.com/rivalscan/rivalscan/cmd/common"
	"github.com/rivalscan/rivalscan/internal/discovery"
	"github.com/rivalscan/rivalscan/internal/domain"
)

// Command returns the discover command.
func Command() *cobra.Command {
	var (
		userID       string
		businessType string
		known        []string
		catalogURL   string
	)

	cmd := &cobra.Command{
		Use:   "discover <domain>",
		Short: "Discover competitors of a domain",
		Long: `Discover profiles the given domain, generates search queries,
collects candidate competitor domains, and analyzes each one.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			deps, err := cmdcommon.New(cmd.Flag("config").Value.String())
			if err != nil {
				return err
			}

			result, err := deps.Discovery.Discover(cmd.Context(), discovery.Input{
				Domain:            args[0],
				UserID:            userID,
				BusinessType:      businessType,
				KnownCompetitors:  known,
				ProductCatalogURL: catalogURL,
			})
			if err != nil {
				return fmt.Errorf("discovery failed: %w", err)
			}

			printResult(result)
			return nil
		},
	}

	cmd.Flags().StringVar(&userID, "user", "cli", "user id to record results under")
	cmd.Flags().StringVar(&businessType, "business-type", "", "business type hint, e.g. 'hotel'")
	cmd.Flags().StringSliceVar(&known, "known", nil, "already-known competitor domains")
	cmd.Flags().StringVar(&catalogURL, "catalog", "", "product catalog URL to derive match targets from")

	return cmd
}

// printResult renders the discovery result to stdout.
func printResult(result *domain.DiscoveryResult) {
	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.AppendHeader(table.Row{"Domain", "Score", "Products", "Reasons"})

	for _, insight := range result.Competitors {
		t.AppendRow(table.Row{
			insight.Domain,
			insight.MatchScore,
			len(insight.Products),
			strings.Join(insight.MatchReasons, "; "),
		})
	}
	t.Render()

	fmt.Printf("\nStrategy: %s\n", result.SearchStrategy)
	fmt.Printf("Discovered: %d (new %d, existing %d, failed %d)\n",
		result.Stats.TotalDiscovered,
		result.Stats.NewCompetitors,
		result.Stats.ExistingCompetitors,
		result.Stats.FailedAnalyses)
	if len(result.RecommendedSources) > 0 {
		fmt.Printf("Listing sources worth checking: %s\n",
			strings.Join(result.RecommendedSources, ", "))
	}
}
