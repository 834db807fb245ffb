package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kailas-cloud/patentdex/internal/app"
	"github.com/kailas-cloud/patentdex/internal/domain"
	"github.com/kailas-cloud/patentdex/internal/domain/batch"
	chiTransport "github.com/kailas-cloud/patentdex/internal/transport/chi"
	"github.com/kailas-cloud/patentdex/internal/usecase/scheduler"
)

var (
	stageBatchSize int
	drainMaxRounds int
)

// DrainResponse is the JSON output of the drain command.
type DrainResponse struct {
	Rounds     int    `json:"rounds"`
	Enriched   int    `json:"enriched"`
	Embedded   int    `json:"embedded"`
	Failed     int    `json:"failed"`
	DurationMs int64  `json:"duration_ms"`
	Error      string `json:"error,omitempty"`
}

var enrichCmd = &cobra.Command{
	Use:   "enrich",
	Short: "Summarize one batch of documents that have no summary yet",
	Long: `Selects up to --batch-size documents without a summary, in ascending ID order,
and asks the generation model for a keyword summary of each abstract.

Failed documents stay pending and are retried by the next run.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runStage(cmd, func(a *app.App) stageFunc { return a.Enrich.Run })
	},
}

var embedCmd = &cobra.Command{
	Use:   "embed",
	Short: "Embed one batch of summaries that have no embedding yet",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runStage(cmd, func(a *app.App) stageFunc { return a.Embed.Run })
	},
}

var drainCmd = &cobra.Command{
	Use:   "drain",
	Short: "Run enrich and embed batches until nothing more can be processed",
	Args:  cobra.NoArgs,
	RunE:  runDrain,
}

func init() {
	for _, c := range []*cobra.Command{enrichCmd, embedCmd, drainCmd} {
		c.Flags().IntVarP(&stageBatchSize, "batch-size", "b", 0, "Documents per batch (default: pipeline.batch_size)")
		rootCmd.AddCommand(c)
	}
	drainCmd.Flags().IntVar(&drainMaxRounds, "max-rounds", -1, "Stop after this many rounds (default: pipeline.max_batches)")
}

type stageFunc func(ctx context.Context, batchSize int) (batch.Report, error)

// signalContext is canceled on SIGINT/SIGTERM; a canceled batch leaves unfinished
// documents pending.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func runStage(_ *cobra.Command, pick func(a *app.App) stageFunc) error {
	ctx, stop := signalContext()
	defer stop()

	return withApp(ctx, func(ctx context.Context, a *app.App, logger *zap.Logger) error {
		size := stageBatchSize
		if size <= 0 {
			size = a.Config.Pipeline.BatchSize
		}
		ctx, usage := domain.NewContextWithUsage(ctx)
		rep, err := pick(a)(ctx, size)
		logger.Debug("Stage tokens", zap.Int64("tokens", usage.TotalTokens()))
		if err != nil {
			return err
		}
		if humanOutput {
			printReport(&rep, usage.TotalTokens())
			return nil
		}
		return outputJSON(chiTransport.BatchReportFrom(&rep))
	})
}

func runDrain(_ *cobra.Command, _ []string) error {
	ctx, stop := signalContext()
	defer stop()

	return withApp(ctx, func(ctx context.Context, a *app.App, logger *zap.Logger) error {
		drainer := a.Drainer
		if stageBatchSize > 0 || drainMaxRounds >= 0 {
			size, rounds := a.Config.Pipeline.BatchSize, a.Config.Pipeline.MaxBatches
			if stageBatchSize > 0 {
				size = stageBatchSize
			}
			if drainMaxRounds >= 0 {
				rounds = drainMaxRounds
			}
			drainer = scheduler.NewDrainer(a.Enrich, a.Embed, size, rounds).WithLogger(logger)
		}

		res, err := drainer.Drain(ctx)
		resp := DrainResponse{
			Rounds:     res.Rounds,
			Enriched:   res.Enriched,
			Embedded:   res.Embedded,
			Failed:     res.Failed,
			DurationMs: res.Duration.Milliseconds(),
		}
		if err != nil {
			resp.Error = err.Error()
		}
		if humanOutput {
			printKV("Rounds", resp.Rounds, "Enriched", resp.Enriched, "Embedded", resp.Embedded,
				"Failed", resp.Failed, "Duration", res.Duration.Round(time.Millisecond))
		} else if oerr := outputJSON(resp); oerr != nil {
			return oerr
		}
		return err
	})
}

func printReport(rep *batch.Report, tokens int64) {
	fmt.Printf("%s run %s: %d selected, %d processed, %d skipped, %d failed in %s (%d tokens)\n",
		rep.Stage, rep.RunID, rep.Selected(), rep.Processed(), rep.Skipped(), rep.Failed(),
		rep.Duration.Round(time.Millisecond), tokens)
	if rep.Failed() == 0 {
		return
	}
	tw := newTable()
	fmt.Fprintln(tw, "ID\tSTATUS\tERROR")
	for _, it := range rep.Items {
		if it.Err() != nil {
			fmt.Fprintf(tw, "%s\t%s\t%s\n", it.ID(), it.Status(), it.Err())
		}
	}
	_ = tw.Flush()
}
