// Package analyze implements the analyze command: run a single-domain
// competitor analysis and print the extracted offerings and matches.
package analyze

import (
	"fmt"
	"os"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	cmdcommon "github.com/rivalscan/rivalscan/cmd/common"
	"github.com/rivalscan/rivalscan/internal/domain"
)

// Command returns the analyze command.
func Command() *cobra.Command {
	var businessType string

	cmd := &cobra.Command{
		Use:   "analyze <domain>",
		Short: "Analyze one competitor domain",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			deps, err := cmdcommon.New(cmd.Flag("config").Value.String())
			if err != nil {
				return err
			}

			var businessCtx *domain.BusinessContext
			if businessType != "" {
				businessCtx = &domain.BusinessContext{BusinessType: businessType}
			}

			insight, err := deps.Engine.AnalyzeCompetitor(
				cmd.Context(), args[0], businessCtx, nil, nil)
			if err != nil {
				return fmt.Errorf("analysis failed: %w", err)
			}

			printInsight(insight)
			return nil
		},
	}

	cmd.Flags().StringVar(&businessType, "business-type", "", "business type hint, e.g. 'hotel'")

	return cmd
}

// printInsight renders one competitor insight to stdout.
func printInsight(insight *domain.CompetitorInsight) {
	fmt.Printf("Domain: %s\nScore:  %d\n", insight.Domain, insight.MatchScore)
	if len(insight.MatchReasons) > 0 {
		fmt.Printf("Why:    %s\n", strings.Join(insight.MatchReasons, "; "))
	}
	if insight.SuggestedApproach != "" {
		fmt.Printf("Next:   %s\n", insight.SuggestedApproach)
	}
	if len(insight.DataGaps) > 0 {
		fmt.Printf("Gaps:   %s\n", strings.Join(insight.DataGaps, ", "))
	}

	if len(insight.Products) == 0 {
		return
	}

	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.AppendHeader(table.Row{"Offering", "Price", "Matched Product", "Name Score", "Price Diff %"})

	for _, product := range insight.Products {
		price := ""
		if product.Price != nil {
			price = fmt.Sprintf("%.2f %s", *product.Price, product.Currency)
		}
		for _, matched := range product.MatchedProducts {
			diff := ""
			if matched.PriceDiff != nil {
				diff = fmt.Sprintf("%+.1f", *matched.PriceDiff)
			}
			t.AppendRow(table.Row{product.Name, price, matched.Name, matched.MatchScore, diff})
		}
	}
	t.Render()
}
