package cmd

import (
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var v = viper.New()

var rootCmd = &cobra.Command{
	Use:   "tonotes",
	Short: "Notes service with full-text search",
	Long: `toNotes stores notes in MongoDB and keeps a search index
(embedded bleve or a remote OpenSearch cluster) in step with them.

  tonotes serve                 run the HTTP API
  tonotes resync --resume       rebuild the search index from MongoDB
  tonotes ensure-index          create the search index if it is missing`,
	SilenceUsage: true,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().String("log-level", "info", "log level: debug, info, warn or error")
	rootCmd.PersistentFlags().String("search-backend", "bleve", "search backend: bleve or opensearch")
	cobra.CheckErr(v.BindPFlag("log_level", rootCmd.PersistentFlags().Lookup("log-level")))
	cobra.CheckErr(v.BindPFlag("search_backend", rootCmd.PersistentFlags().Lookup("search-backend")))
}
