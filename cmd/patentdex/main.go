// Command patentdex loads patent abstracts, derives keyword summaries and embeddings
// for them, and answers similarity queries over the result.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/kailas-cloud/patentdex/internal/version"
)

// Exit codes.
const (
	ExitOK          = 0
	ExitError       = 1
	ExitConfigError = 2
)

var (
	configPath  string
	humanOutput bool
	logLevel    string
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(exitCode(err))
	}
}

var rootCmd = &cobra.Command{
	Use:   "patentdex",
	Short: "Semantic search over patent abstracts",
	Long: `patentdex turns a corpus of patent abstracts into a searchable index.

  import   load documents from JSONL or Parquet
  enrich   summarize documents with the generation model
  embed    vectorize summaries with the embedding model
  drain    run enrich and embed until nothing is pending
  search   rank documents by cosine distance to a query
  serve    run the HTTP API (and the scheduled drain)

Commands print JSON by default; pass --human for tables.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "",
		"Path to a YAML config file (default: config/$ENV.yaml)")
	rootCmd.PersistentFlags().BoolVar(&humanOutput, "human", false, "Use human-readable output instead of JSON")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Override logging.level (debug, info, warn, error)")
	rootCmd.Version = version.Version
	rootCmd.SetVersionTemplate(version.String() + "\n")
}
