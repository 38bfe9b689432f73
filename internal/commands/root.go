// internal/commands/root.go
package reviewrag

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"os/signal"

	"github.com/joho/godotenv"
	"github.com/mwiater/reviewrag/internal/appconfig"
	"github.com/mwiater/reviewrag/internal/logging"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	cfgFile       string
	envFile       string
	currentConfig *appconfig.Config
	appVersion    = "dev"
	appCommit     = "none"
	appDate       = "unknown"
)

// flagKeys maps persistent flag names to their configuration keys.
var flagKeys = map[string]string{
	"debug":     "debug",
	"tui":       "tui",
	"metrics":   "metrics",
	"logFile":   "logFile",
	"dataset":   "dataset",
	"store":     "vectorStore.type",
	"indexPath": "vectorStore.path",
	"topK":      "topK",
	"quitToken": "quitToken",
	"prompt":    "promptTemplate",
	"retries":   "retries",
	"timeout":   "timeout",
}

// rootCmd represents the base command. Without a subcommand it runs the question loop.
var rootCmd = &cobra.Command{
	Use:   "reviewrag",
	Short: "reviewrag: ask questions about a restaurant's reviews",
	Long: `reviewrag indexes a CSV of restaurant reviews into a vector store the first
time it runs, then answers questions by retrieving the most relevant reviews
and handing them to a language model.`,
	Args:          cobra.NoArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := loadEnvFile(envFile); err != nil {
			return err
		}
		if err := ensureConfigLoaded(); err != nil {
			return err
		}

		var cfg appconfig.Config
		if err := viper.Unmarshal(&cfg); err != nil {
			return fmt.Errorf("unmarshal config: %w", err)
		}
		cfg.ConfigPath = viper.ConfigFileUsed()
		cfg.ApplyDefaults()
		if err := appconfig.Validate(cfg); err != nil {
			return err
		}
		currentConfig = &cfg

		var console io.Writer
		if cfg.Debug {
			console = cmd.ErrOrStderr()
		}
		if err := logging.Init(currentConfig.LogFilePath(), console); err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		logging.LogEvent("reviewrag %s starting: %s", appVersion, cmd.CommandPath())
		return nil
	},
	RunE: runAsk,
}

// Execute runs the root command and exits non-zero on failure.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	rootCmd.Version = fmt.Sprintf("%s (commit: %s, built: %s)", appVersion, appCommit, appDate)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	err := rootCmd.ExecuteContext(ctx)
	if err != nil {
		logging.LogEvent("command failed: %v", err)
		fmt.Fprintln(rootCmd.ErrOrStderr(), errorColor.Sprintf("Error: %v", err))
	}
	_ = logging.Close()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&cfgFile, "config", "c", appconfig.DefaultConfigPath, "config file (JSON or YAML)")
	flags.StringVar(&envFile, "env-file", ".env", "dotenv file with API keys (ignored when missing)")

	flags.Bool("debug", false, "mirror log lines to stderr")
	flags.Bool("tui", false, "run the question loop as a full-screen terminal UI")
	flags.Bool("metrics", false, "record generation metrics")
	flags.String("logFile", "", "path to the log file")
	flags.String("dataset", "", "review CSV to index on first run")
	flags.String("store", "", "vector store: jsonl, sqlite, qdrant or memory")
	flags.String("indexPath", "", "storage location of the index")
	flags.Int("topK", 0, "number of reviews retrieved per question")
	flags.String("quitToken", "", "input that ends the question loop")
	flags.String("prompt", "", "prompt template file with {{.Reviews}} and {{.Question}} slots")
	flags.Int("retries", 0, "extra attempts for failed retrieval or generation calls")
	flags.Int("timeout", 0, "seconds allowed for each retrieval or generation call")

	for name, key := range flagKeys {
		_ = viper.BindPFlag(key, flags.Lookup(name))
	}
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	}
}

// ensureConfigLoaded reads the config file. A missing file means defaults.
func ensureConfigLoaded() error {
	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) || errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to load config: %w", err)
	}
	return nil
}

func loadEnvFile(path string) error {
	if path == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}

// GetConfig returns the loaded application configuration for other packages.
func GetConfig() *appconfig.Config {
	return currentConfig
}

// SetVersionInfo allows the main package to inject build-time variables.
func SetVersionInfo(version, commit, date string) {
	appVersion = version
	appCommit = commit
	appDate = date
}
