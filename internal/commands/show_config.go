// internal/commands/show_config.go
package reviewrag

import (
	"encoding/json"
	"fmt"

	"github.com/k0kubun/pp"
	"github.com/mwiater/reviewrag/internal/appconfig"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

var (
	showConfigFormat string
	showConfigRaw    bool
)

// showConfigCmd implements the 'show config' command, which displays the merged configuration.
var showConfigCmd = &cobra.Command{
	Use:   "config",
	Short: "Show config settings",
	Long:  `Show config settings ensuring that the config file is loaded properly and overridden by flags accordingly.`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := GetConfig()
		if cfg == nil {
			fallback := appconfig.Default()
			cfg = &fallback
		}
		out := cmd.OutOrStdout()

		if showConfigRaw {
			_, err := pp.Fprintln(out, cfg)
			return err
		}

		switch showConfigFormat {
		case "", "text":
			appconfig.ShowConfig(out, viper.ConfigFileUsed(), cfg)
		case "json":
			data, err := json.MarshalIndent(cfg, "", "  ")
			if err != nil {
				return err
			}
			fmt.Fprintln(out, string(data))
		case "yaml":
			enc := yaml.NewEncoder(out)
			enc.SetIndent(2)
			if err := enc.Encode(cfg); err != nil {
				return err
			}
			return enc.Close()
		default:
			return fmt.Errorf("unknown format %q (want text, json or yaml)", showConfigFormat)
		}
		return nil
	},
}

func init() {
	showConfigCmd.Flags().StringVar(&showConfigFormat, "format", "text", "output format: text, json or yaml")
	showConfigCmd.Flags().BoolVar(&showConfigRaw, "raw", false, "dump the config struct as-is")
	showCmd.AddCommand(showConfigCmd)
}
