// internal/commands/models.go
package reviewrag

import (
	"fmt"

	"github.com/mwiater/reviewrag/internal/models"
	"github.com/spf13/cobra"
)

// modelsCmd groups commands that manage the models on the configured Ollama hosts.
var modelsCmd = &cobra.Command{
	Use:   "models",
	Short: "Check or pull the configured Ollama models",
}

var modelsListCmd = &cobra.Command{
	Use:   "list",
	Short: "Show whether the configured models are installed",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := GetConfig()
		if cfg == nil {
			return fmt.Errorf("config is nil")
		}
		statuses := models.Check(commandContext(cmd), models.Required(cfg), cfg.RequestTimeout())
		models.WriteStatus(cmd.OutOrStdout(), statuses)
		return nil
	},
}

var modelsPullCmd = &cobra.Command{
	Use:   "pull",
	Short: "Pull configured models that are not installed yet",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := GetConfig()
		if cfg == nil {
			return fmt.Errorf("config is nil")
		}
		ctx := commandContext(cmd)
		out := cmd.OutOrStdout()
		for _, s := range models.Check(ctx, models.Required(cfg), cfg.RequestTimeout()) {
			if s.Err != nil {
				return s.Err
			}
			if s.Present {
				fmt.Fprintf(out, "%s already installed on %s\n", s.Model, s.Host)
				continue
			}
			fmt.Fprintf(out, "Pulling %s on %s...\n", s.Model, s.Host)
			if err := models.NewOllamaHost(s.Host, cfg.RequestTimeout()).PullModel(ctx, s.Model); err != nil {
				return err
			}
			fmt.Fprintf(out, "Pulled %s\n", s.Model)
		}
		return nil
	},
}

func init() {
	modelsCmd.AddCommand(modelsListCmd)
	modelsCmd.AddCommand(modelsPullCmd)
	rootCmd.AddCommand(modelsCmd)
}
