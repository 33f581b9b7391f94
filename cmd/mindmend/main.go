// Package main provides the MindMend CLI application entry point.
// MindMend is a supportive chat companion for students that keeps an archive of past conversations.
package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"mindmend/internal/config"
	"mindmend/internal/logger"
	"mindmend/internal/shell"
	"mindmend/internal/version"
)

var (
	logLevel   string
	logFile    string
	testMode   bool
	configFile string
	detailed   bool

	settings = config.NewViper()
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "mindmend",
	Short: "MindMend - supportive AI chat for students",
	Long: `MindMend is a terminal chat companion for student wellbeing.
Conversations are saved locally; start a new one at any time and revisit old ones from the history.`,
	RunE: runShell, // Default behavior is to run the interactive shell
}

// shellCmd represents the shell command (explicit version of default behavior)
var shellCmd = &cobra.Command{
	Use:   "shell",
	Short: "Start an interactive chat",
	RunE:  runShell,
}

// askCmd sends a single message and prints the reply
var askCmd = &cobra.Command{
	Use:   "ask <message>",
	Short: "Send one message in the current chat and print the reply",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runAsk,
}

// historyCmd lists archived chats
var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List archived chats",
	Args:  cobra.NoArgs,
	RunE:  runHistory,
}

// versionCmd represents the version command
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Run: func(cmd *cobra.Command, _ []string) {
		if detailed {
			fmt.Fprintln(cmd.OutOrStdout(), version.GetDetailedVersion())
			return
		}
		fmt.Fprintln(cmd.OutOrStdout(), version.GetFormattedVersion())
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Set log level (debug|info|warn|error) [default: warn]")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "Write logs to file instead of stderr")
	rootCmd.PersistentFlags().BoolVar(&testMode, "test-mode", false, "Run in deterministic test mode")
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "Path to a config.yaml file")
	rootCmd.PersistentFlags().String("provider", "", "Inference provider (endpoint|openai|anthropic|gemini)")
	rootCmd.PersistentFlags().String("endpoint", "", "Override the chat endpoint URL")
	rootCmd.PersistentFlags().String("storage", "", "Storage backend (file|sqlite|memory)")
	versionCmd.Flags().BoolVar(&detailed, "detailed", false, "Show build and schema details")

	// Bind flags to viper
	for key, flag := range map[string]string{
		config.KeyTestMode:       "test-mode",
		config.KeyProvider:       "provider",
		config.KeyEndpoint:       "endpoint",
		config.KeyStorageBackend: "storage",
	} {
		if err := settings.BindPFlag(key, rootCmd.PersistentFlags().Lookup(flag)); err != nil {
			fmt.Fprintf(os.Stderr, "Error binding %s flag: %v\n", flag, err)
			os.Exit(1)
		}
	}

	rootCmd.AddCommand(shellCmd)
	rootCmd.AddCommand(askCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(versionCmd)

	// Configure logger before any command execution
	cobra.OnInitialize(initConfig)
}

func initConfig() {
	if err := logger.Configure(logLevel, logFile, testMode); err != nil {
		fmt.Fprintf(os.Stderr, "Error configuring logger: %v\n", err)
		os.Exit(1)
	}
}

func loadApp(cmd *cobra.Command) (*app, error) {
	cfg, err := config.Load(settings, config.Options{ConfigFile: configFile})
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	return newApp(cfg, cmd.OutOrStdout())
}

func runShell(cmd *cobra.Command, _ []string) error {
	a, err := loadApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	logger.Info("Starting MindMend", "version", version.Version, "provider", a.manager.ProviderName())
	return shell.Run(a.handler, fmt.Sprintf("MindMend v%s - a supportive space to talk things through", version.Version))
}

func runAsk(cmd *cobra.Command, args []string) error {
	a, err := loadApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	return a.ask(context.Background(), strings.Join(args, " "))
}

func runHistory(cmd *cobra.Command, _ []string) error {
	a, err := loadApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	a.printHistory()
	return nil
}
