// Package crawl implements the crawl command: run the depth-bounded site
// crawler against one domain and print the merged content summary.
package crawl

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	cmdcommon "github.com/rivalscan/rivalscan/cmd/common"
	"github.com/rivalscan/rivalscan/internal/crawler"
	"github.com/rivalscan/rivalscan/internal/domain"
)

// Command returns the crawl command.
func Command() *cobra.Command {
	return &cobra.Command{
		Use:   "crawl <domain>",
		Short: "Crawl one domain and print what was found",
		Long: `Crawl fetches the domain's robots.txt and sitemap, walks the site
depth by depth honoring crawl delays, and prints the merged content.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			deps, err := cmdcommon.New(cmd.Flag("config").Value.String())
			if err != nil {
				return err
			}

			domainName := args[0]
			ctx := cmd.Context()

			rules, err := deps.Robots.Read(ctx, domainName)
			if err != nil {
				return fmt.Errorf("read robots.txt: %w", err)
			}

			sitemapURLs, err := deps.Robots.ReadSitemap(ctx, domainName)
			if err != nil {
				deps.Logger.Warn("Sitemap read failed", "domain", domainName, "error", err)
			}

			c := crawler.New(deps.Pages, deps.Completer, deps.Config.Crawler, deps.Logger)
			content, err := c.Crawl(ctx, domainName, rules, sitemapURLs)
			if err != nil {
				return fmt.Errorf("crawl failed: %w", err)
			}

			printContent(content)
			return nil
		},
	}
}

// printContent renders the merged site content to stdout.
func printContent(content *domain.SiteContent) {
	fmt.Printf("URL:         %s\n", content.URL)
	fmt.Printf("Title:       %s\n", content.Title)
	fmt.Printf("Description: %s\n", content.Description)
	fmt.Printf("Products:    %s\n", strings.Join(content.Products, ", "))
	fmt.Printf("Services:    %s\n", strings.Join(content.Services, ", "))
	fmt.Printf("Categories:  %s\n", strings.Join(content.Categories, ", "))
	fmt.Printf("Prices:      %d extracted (pricing found: %t)\n",
		len(content.Metadata.Prices), content.Metadata.HasPricing)
	if content.Metadata.ContactInfo != nil {
		fmt.Printf("Contact:     %s\n", strings.Join(append(
			append([]string(nil), content.Metadata.ContactInfo.Emails...),
			content.Metadata.ContactInfo.Phones...), ", "))
	}
}
