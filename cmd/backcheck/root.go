package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/backcheck/backcheck/pkg/backcheck/config"
	"github.com/backcheck/backcheck/pkg/backcheck/logging"
)

var (
	cfgFile string
	rootCmd = &cobra.Command{
		Use:   "backcheck",
		Short: "Verify restored backups against content digests",
		Long: `Backcheck records a digest for every file in a directory tree and
later verifies a restored copy against those digests.

A build walks the tree, hashes every file with SHA-256, and writes a
manifest of relative paths and digests. A verify rehashes a restored
tree and reports which files matched, changed, went missing, or
appeared since the manifest was built.

Examples:
  backcheck build /srv/backups/photos        # Write backup_hashes.txt
  backcheck verify /restore/photos           # Check against backup_hashes.txt
  backcheck verify -o json /restore/photos   # Machine-readable report
  backcheck config show                      # Show configuration`,
		SilenceUsage:      true,
		PersistentPreRunE: bootstrap,
	}
)

func init() {
	cobra.OnInitialize(initConfig)

	// Persistent flags (available to all commands)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ~/.config/backcheck/config.yaml)")
	rootCmd.PersistentFlags().StringP("output", "o", "", "output format (pretty, plain, json)")
	rootCmd.PersistentFlags().StringP("manifest", "m", "", "manifest file path (default: backup_hashes.txt in the working directory)")
	rootCmd.PersistentFlags().String("chunk-size", "", "read buffer size for hashing (e.g., 64K, 1MiB)")
	rootCmd.PersistentFlags().BoolP("follow-symlinks", "L", false, "follow symbolic links during scans")
	rootCmd.PersistentFlags().BoolP("quiet", "q", false, "minimal output")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "debug output")
	rootCmd.PersistentFlags().Bool("no-color", false, "disable colored output")
	rootCmd.PersistentFlags().Bool("no-progress", false, "disable the progress bar")
	rootCmd.PersistentFlags().Bool("no-summary-file", false, "do not write the verification summary file")

	// Bind flags to viper
	_ = viper.BindPFlag("output", rootCmd.PersistentFlags().Lookup("output"))
	_ = viper.BindPFlag("manifest", rootCmd.PersistentFlags().Lookup("manifest"))
	_ = viper.BindPFlag("chunk_size", rootCmd.PersistentFlags().Lookup("chunk-size"))
	_ = viper.BindPFlag("follow_symlinks", rootCmd.PersistentFlags().Lookup("follow-symlinks"))
	_ = viper.BindPFlag("quiet", rootCmd.PersistentFlags().Lookup("quiet"))
	_ = viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))
	_ = viper.BindPFlag("no_color", rootCmd.PersistentFlags().Lookup("no-color"))
	_ = viper.BindPFlag("no_progress", rootCmd.PersistentFlags().Lookup("no-progress"))
	_ = viper.BindPFlag("no_summary_file", rootCmd.PersistentFlags().Lookup("no-summary-file"))
}

// initConfig reads in config file and environment variables.
func initConfig() {
	if cfgFile != "" {
		// Use config file from the flag
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")

		// Add config paths in order of precedence
		if xdgConfigHome := os.Getenv("XDG_CONFIG_HOME"); xdgConfigHome != "" {
			viper.AddConfigPath(filepath.Join(xdgConfigHome, "backcheck"))
		}

		homeDir, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(homeDir, ".config", "backcheck"))
		}
	}

	// Set environment variable prefix and enable auto env binding
	viper.SetEnvPrefix("BACKCHECK")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()

	// Set defaults from config package
	viper.SetDefault("manifest_name", config.DefaultManifestName)
	viper.SetDefault("summary_name", config.DefaultSummaryName)
	viper.SetDefault("output", config.DefaultOutput)
	viper.SetDefault("chunk_size", config.DefaultChunkSize)
	viper.SetDefault("follow_symlinks", config.DefaultFollowSymlinks)
	viper.SetDefault("logging.level", "info")
	viper.SetDefault("logging.path", "")
	viper.SetDefault("logging.console_level", "")

	// Read config file (ignore if not found)
	_ = viper.ReadInConfig()
}

// bootstrap prepares logging and terminal styling before any command
// runs.
func bootstrap(_ *cobra.Command, _ []string) error {
	logCfg := logging.Config{
		Level: viper.GetString("logging.level"),
		Path:  viper.GetString("logging.path"),
	}
	if getVerbose() {
		logCfg.Level = "debug"
		logCfg.ConsoleLevel = "debug"
	} else if consoleLevel := viper.GetString("logging.console_level"); consoleLevel != "" {
		logCfg.ConsoleLevel = consoleLevel
	}

	if err := logging.Init(logCfg); err != nil {
		return fmt.Errorf("failed to initialize logging: %w", err)
	}

	if viper.GetBool("no_color") {
		lipgloss.SetColorProfile(termenv.Ascii)
	}

	return nil
}

// Execute runs the root command.
func Execute() error {
	defer func() { _ = logging.Close() }()
	return rootCmd.Execute()
}

// getVerbose returns true if verbose mode is enabled.
func getVerbose() bool {
	return viper.GetBool("verbose")
}

// getQuiet returns true if quiet mode is enabled.
func getQuiet() bool {
	return viper.GetBool("quiet")
}

// printVerbose prints a message if verbose mode is enabled.
func printVerbose(format string, args ...interface{}) {
	if getVerbose() && !getQuiet() {
		fmt.Fprintf(os.Stderr, "[DEBUG] "+format+"\n", args...)
	}
}

// printInfo prints a message if quiet mode is not enabled.
func printInfo(format string, args ...interface{}) {
	if !getQuiet() {
		fmt.Printf(format+"\n", args...)
	}
}

// printError prints an error message to stderr.
func printError(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "Error: "+format+"\n", args...)
}
