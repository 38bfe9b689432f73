// internal/commands/index.go
package reviewrag

import (
	"fmt"

	"github.com/spf13/cobra"
)

var indexForce bool

// indexCmd builds the review index without starting the question loop.
var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Build the review index if it does not exist",
	Long: `The 'index' command loads the dataset and stores its embeddings when the
storage location does not exist yet. An existing index is left alone unless
--force is given, in which case it is dropped and rebuilt.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := GetConfig()
		if cfg == nil {
			return fmt.Errorf("config is nil")
		}
		store, result, err := openIndex(commandContext(cmd), cfg, indexForce, statusPrinter(cmd.OutOrStdout()))
		if err != nil {
			return err
		}
		defer store.Close()

		switch {
		case result.Ingested:
			fmt.Fprintf(cmd.OutOrStdout(), "Indexed %d reviews into %s (%s)\n", result.Units, cfg.VectorStore.Path, store.Name())
		case result.Stale:
			fmt.Fprintf(cmd.OutOrStdout(), "Index at %s is older than %s; rerun with --force to rebuild\n", cfg.VectorStore.Path, cfg.Dataset)
		default:
			fmt.Fprintf(cmd.OutOrStdout(), "Index at %s already exists\n", cfg.VectorStore.Path)
		}
		return nil
	},
}

func init() {
	indexCmd.Flags().BoolVar(&indexForce, "force", false, "drop the existing index and rebuild it")
	rootCmd.AddCommand(indexCmd)
}
