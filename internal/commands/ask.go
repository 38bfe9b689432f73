// internal/commands/ask.go
package reviewrag

import (
	"context"
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/mwiater/reviewrag/internal/appconfig"
	"github.com/mwiater/reviewrag/internal/chat"
	"github.com/mwiater/reviewrag/internal/index"
	"github.com/mwiater/reviewrag/internal/prompt"
	"github.com/mwiater/reviewrag/internal/providerfactory"
	"github.com/mwiater/reviewrag/internal/retry"
	"github.com/mwiater/reviewrag/internal/vectorstore"
	"github.com/spf13/cobra"
)

var (
	// Constructors and loop runners are package vars so tests can swap them.
	newStore     = providerfactory.NewStore
	newEmbedder  = providerfactory.NewEmbedder
	newGenerator = providerfactory.NewGenerator
	runREPL      = chat.RunREPL
	runTUI       = chat.RunTUI

	errorColor  = color.New(color.FgRed)
	statusColor = color.New(color.FgHiBlack)
)

// askCmd starts the question loop. It is also what the root command runs.
var askCmd = &cobra.Command{
	Use:   "ask",
	Short: "Index the reviews if needed, then answer questions until q",
	Long: `The 'ask' command builds the review index when its storage location does not
exist yet, then reads questions from stdin. Each question retrieves the five most
relevant reviews and asks the generation model. Enter q or end the input to exit.`,
	Args: cobra.NoArgs,
	RunE: runAsk,
}

func init() {
	rootCmd.AddCommand(askCmd)
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

// statusPrinter echoes progress lines to w.
func statusPrinter(w io.Writer) func(format string, args ...any) {
	return func(format string, args ...any) {
		statusColor.Fprintln(w, fmt.Sprintf(format, args...))
	}
}

// openIndex opens the configured store and makes sure it holds an index.
// The caller closes the returned store.
func openIndex(ctx context.Context, cfg *appconfig.Config, force bool, status func(string, ...any)) (vectorstore.Store, *index.Result, error) {
	store, err := newStore(cfg)
	if err != nil {
		return nil, nil, err
	}
	embedder, err := newEmbedder(cfg)
	if err != nil {
		_ = store.Close()
		return nil, nil, err
	}
	result, err := index.Ensure(ctx, index.Options{
		Store:          store,
		Embedder:       embedder,
		DatasetPath:    cfg.Dataset,
		ManifestDir:    providerfactory.ManifestDir(cfg),
		Collection:     cfg.VectorStore.Collection,
		EmbeddingModel: embedder.Name(),
		TopK:           cfg.TopK,
		Force:          force,
		Status:         status,
	})
	if err != nil {
		_ = store.Close()
		return nil, nil, err
	}
	return store, result, nil
}

func runAsk(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()
	if cfg == nil {
		return fmt.Errorf("config is nil")
	}
	ctx := commandContext(cmd)

	tmpl, err := prompt.Load(cfg.PromptTemplate)
	if err != nil {
		return err
	}

	store, result, err := openIndex(ctx, cfg, false, statusPrinter(cmd.ErrOrStderr()))
	if err != nil {
		return err
	}
	defer store.Close()

	generator, err := newGenerator(cfg)
	if err != nil {
		return err
	}
	defer generator.Close()

	session := chat.NewSession(result.Retriever, generator, tmpl, chat.Options{
		QuitToken: cfg.QuitToken,
		Timeout:   cfg.RequestTimeout(),
		Retry:     retry.Policy{Retries: cfg.RetryAttempts(), Backoff: cfg.RetryBackoff()},
	})

	if cfg.TUI {
		title := fmt.Sprintf("reviewrag · %s · %d reviews", generator.Name(), result.Units)
		return runTUI(ctx, session, title)
	}
	return runREPL(ctx, session, cmd.InOrStdin(), cmd.OutOrStdout())
}
