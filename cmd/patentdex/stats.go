package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kailas-cloud/patentdex/internal/app"
	chiTransport "github.com/kailas-cloud/patentdex/internal/transport/chi"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show corpus progress and token budget usage",
	Args:  cobra.NoArgs,
	RunE: func(_ *cobra.Command, _ []string) error {
		ctx, stop := signalContext()
		defer stop()
		return withApp(ctx, func(ctx context.Context, a *app.App, _ *zap.Logger) error {
			rep, err := a.Stats.Report(ctx)
			if err != nil {
				return err
			}
			resp := chiTransport.StatsFrom(&rep)
			if !humanOutput {
				return outputJSON(resp)
			}
			printKV("Documents", resp.Documents, "Summaries", resp.Summaries, "Embeddings", resp.Embeddings,
				"Unenriched", resp.Unenriched, "Unembedded", resp.Unembedded)
			if resp.Daily != nil {
				printKV("Daily tokens", fmt.Sprintf("%d used / %d limit", resp.Daily.Used, resp.Daily.Limit),
					"Monthly tokens", fmt.Sprintf("%d used / %d limit", resp.Monthly.Used, resp.Monthly.Limit))
			}
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(statsCmd)
}
