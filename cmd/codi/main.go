// Package main provides the Codi CLI entry point.
// Codi is a conversational coding assistant reachable from the terminal, Slack and HTTP.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/tognete/codi/internal/config"
	"github.com/tognete/codi/internal/logger"
	"github.com/tognete/codi/internal/output"
	"github.com/tognete/codi/internal/version"
)

var (
	logLevel   string
	logFile    string
	configFile string

	cfg *config.Config
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "codi",
	Short: "Codi - AI Senior Software Developer",
	Long: `Codi is a conversational coding assistant. Chat with it in the terminal or in Slack,
or send it analysis, generation and review tasks over HTTP.`,
	SilenceUsage: true,
	RunE:         runInteractive,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Run: func(_ *cobra.Command, _ []string) {
		output.Println(version.GetFormattedVersion())
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&logLevel, "log-level", "", "Set log level (debug|info|warn|error) [default: info]")
	flags.StringVar(&logFile, "log-file", "", "Write logs to file instead of stderr")
	flags.StringVar(&configFile, "config", "", "Config file (default: ./codi.yaml or $XDG_CONFIG_HOME/codi/codi.yaml)")
	flags.Bool("test-mode", false, "Run in deterministic test mode")
	flags.String("provider", "", "Completion provider (openai|anthropic|gemini|local)")
	flags.String("model", "", "Model name passed to the provider")
	flags.String("workspace", "", "Workspace directory (default: detected)")
	flags.Bool("debug-http", false, "Log and record provider HTTP traffic")

	for flag, key := range map[string]string{
		"test-mode":  config.KeyTestMode,
		"provider":   config.KeyProvider,
		"model":      config.KeyModel,
		"workspace":  config.KeyWorkspace,
		"debug-http": config.KeyDebugHTTP,
	} {
		if err := viper.BindPFlag(key, flags.Lookup(flag)); err != nil {
			fmt.Fprintf(os.Stderr, "Error binding %s flag: %v\n", flag, err)
			os.Exit(1)
		}
	}

	rootCmd.AddCommand(runCmd, serveCmd, prCmd, conversationsCmd, versionCmd)

	cobra.OnInitialize(initConfig)
}

func initConfig() {
	var err error
	cfg, err = config.Load(viper.GetViper(), config.Options{ConfigFile: configFile})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading configuration: %v\n", err)
		os.Exit(1)
	}

	if err := logger.Configure(logLevel, logFile, cfg.TestMode); err != nil {
		fmt.Fprintf(os.Stderr, "Error configuring logger: %v\n", err)
		os.Exit(1)
	}

	configureOutput(cfg.TestMode)
}

func configureOutput(testMode bool) {
	output.ConfigureGlobal(output.ForTerminal(testMode))
}
