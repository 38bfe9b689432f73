// internal/commands/show_metrics.go
package reviewrag

import (
	"errors"
	"fmt"
	"os"

	"github.com/mwiater/reviewrag/internal/metrics"
	"github.com/spf13/cobra"
)

// showMetricsCmd prints the generation metrics recorded with --metrics.
var showMetricsCmd = &cobra.Command{
	Use:   "metrics",
	Short: "Show recorded generation metrics",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := GetConfig()
		if cfg == nil {
			return fmt.Errorf("config is nil")
		}
		models, err := metrics.Load(cfg.MetricsFilePath())
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			return err
		}
		metrics.WriteReport(cmd.OutOrStdout(), models)
		return nil
	},
}

func init() {
	showCmd.AddCommand(showMetricsCmd)
}
