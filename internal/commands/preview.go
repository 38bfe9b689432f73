// internal/commands/preview.go
package reviewrag

import (
	"fmt"
	"strings"

	"github.com/mwiater/reviewrag/internal/prompt"
	"github.com/mwiater/reviewrag/internal/util"
	"github.com/spf13/cobra"
)

var (
	previewShowPrompt bool
	previewWidth      int
)

// previewCmd shows what a question would retrieve without calling the generation model.
var previewCmd = &cobra.Command{
	Use:   "preview <question>",
	Short: "Preview retrieval and the rendered prompt for a question",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		question := strings.TrimSpace(strings.Join(args, " "))
		if question == "" {
			return fmt.Errorf("question is required")
		}

		cfg := GetConfig()
		if cfg == nil {
			return fmt.Errorf("config is nil")
		}
		out := cmd.OutOrStdout()
		status := statusPrinter(out)

		status("[PREVIEW] question: %s", question)
		status("[PREVIEW] dataset: %s", cfg.Dataset)
		status("[PREVIEW] index: %s (%s, collection %s)", cfg.VectorStore.Path, cfg.VectorStore.Type, cfg.VectorStore.Collection)
		status("[PREVIEW] embedding: %s %s", cfg.Embedding.Provider, cfg.Embedding.Model)
		status("[PREVIEW] topK: %d", cfg.TopK)

		ctx := commandContext(cmd)
		store, result, err := openIndex(ctx, cfg, false, status)
		if err != nil {
			return err
		}
		defer store.Close()

		retrieval, err := result.Retriever.Retrieve(ctx, question)
		if err != nil {
			return err
		}
		status("[PREVIEW] retrieval_ms: %d", retrieval.Elapsed.Milliseconds())
		status("[PREVIEW] matches: %d", len(retrieval.Matches))
		for i, m := range retrieval.Matches {
			fmt.Fprintf(out, "%d. score=%.6f id=%s rating=%g date=%s\n", i+1, m.Score, m.Unit.ID, m.Unit.Metadata.Rating, m.Unit.Metadata.Date)
			fmt.Fprintln(out, util.Indent(util.WrapToWidth(util.Snippet(m.Unit.Text, 4*previewWidth), previewWidth), "   "))
		}

		if previewShowPrompt {
			tmpl, err := prompt.Load(cfg.PromptTemplate)
			if err != nil {
				return err
			}
			rendered, err := tmpl.Render(retrieval.Matches, question)
			if err != nil {
				return err
			}
			fmt.Fprintln(out, "\n--- prompt ---")
			fmt.Fprintln(out, rendered)
		}
		return nil
	},
}

func init() {
	previewCmd.Flags().BoolVar(&previewShowPrompt, "prompt", false, "also print the prompt that would be sent")
	previewCmd.Flags().IntVar(&previewWidth, "width", 100, "wrap review text to this many columns")
	rootCmd.AddCommand(previewCmd)
}
