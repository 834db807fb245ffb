package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kailas-cloud/patentdex/internal/app"
	chiTransport "github.com/kailas-cloud/patentdex/internal/transport/chi"
)

var searchK int

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Find the documents closest to a free-text query",
	Long: `Embeds the query and ranks every embedded document by cosine distance to it.
Results are ordered by ascending distance, ties by ascending ID. Documents that
have not been through enrich and embed are never returned.`,
	Example: `  patentdex search "solid state battery electrolyte" -k 5 --human`,
	Args:    cobra.MinimumNArgs(1),
	RunE:    runSearch,
}

func init() {
	searchCmd.Flags().IntVarP(&searchK, "k", "k", 0, "Number of results (default: search.default_k)")
	rootCmd.AddCommand(searchCmd)
}

func runSearch(_ *cobra.Command, args []string) error {
	query := strings.Join(args, " ")
	ctx, stop := signalContext()
	defer stop()

	return withApp(ctx, func(ctx context.Context, a *app.App, _ *zap.Logger) error {
		k := searchK
		if k == 0 {
			k = a.Search.DefaultK()
		}
		results, err := a.Search.Search(ctx, query, k)
		if err != nil {
			return err
		}
		items := chiTransport.SearchItemsFrom(results)
		if !humanOutput {
			return outputJSON(chiTransport.SearchResponse{Query: strings.TrimSpace(query), K: k, Results: items})
		}
		if len(items) == 0 {
			fmt.Println("No results.")
			return nil
		}
		for i, it := range items {
			fmt.Printf("%d. [%.4f] %s\n", i+1, it.Distance, it.ID)
			fmt.Printf("   %s\n", truncateString(it.Title, TitleMaxLen))
			fmt.Printf("   %s\n\n", truncateString(it.Abstract, AbstractMaxLen))
		}
		return nil
	})
}
