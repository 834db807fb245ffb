package main

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kailas-cloud/patentdex/internal/app"
	"github.com/kailas-cloud/patentdex/internal/importer"
)

// ImportResponse is the JSON output of the import command.
type ImportResponse struct {
	Files  map[string]importer.Report `json:"files"`
	Totals importer.Report            `json:"totals"`
}

var importCmd = &cobra.Command{
	Use:   "import <file.jsonl|file.parquet>...",
	Short: "Load documents from JSONL or Parquet files",
	Long: `Inserts every valid row whose ID is not loaded yet. Existing documents are left
untouched, so re-running an import is safe. Recognized fields: id or
publication_number, title, abstract, cpc or classification, filing_date,
claims_count.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runImport,
}

func init() {
	rootCmd.AddCommand(importCmd)
}

func runImport(_ *cobra.Command, args []string) error {
	ctx, stop := signalContext()
	defer stop()

	return withApp(ctx, func(ctx context.Context, a *app.App, logger *zap.Logger) error {
		resp := ImportResponse{Files: make(map[string]importer.Report, len(args))}
		for _, path := range args {
			rep, err := a.Importer.ImportFile(ctx, path)
			resp.Files[path] = rep
			resp.Totals.Read += rep.Read
			resp.Totals.Inserted += rep.Inserted
			resp.Totals.Existing += rep.Existing
			resp.Totals.Invalid += rep.Invalid
			if err != nil {
				logger.Error("Import failed", zap.String("file", path), zap.Error(err))
				return err
			}
		}
		if humanOutput {
			tw := newTable()
			printImportRow(tw, "FILE", "READ", "INSERTED", "EXISTING", "INVALID")
			for _, path := range args {
				r := resp.Files[path]
				printImportRow(tw, path, r.Read, r.Inserted, r.Existing, r.Invalid)
			}
			t := resp.Totals
			printImportRow(tw, "total", t.Read, t.Inserted, t.Existing, t.Invalid)
			return tw.Flush()
		}
		return outputJSON(resp)
	})
}

func printImportRow(w io.Writer, cols ...any) {
	for i, c := range cols {
		if i > 0 {
			fmt.Fprint(w, "\t")
		}
		fmt.Fprint(w, c)
	}
	fmt.Fprintln(w)
}
