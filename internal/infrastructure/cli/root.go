package cli

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/felixgeelhaar/flowgate/internal/infrastructure/config"
	"github.com/felixgeelhaar/flowgate/internal/infrastructure/logging"
	inframcp "github.com/felixgeelhaar/flowgate/internal/infrastructure/mcp"
	"github.com/spf13/cobra"
)

var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

var (
	projectPath string
	verbose     bool
	logFormat   string
)

// RootCmd represents the base command when called without any subcommands
var RootCmd = &cobra.Command{
	Use:     "flowgate",
	Version: Version,
	Short:   "A phase gate for AI coding agents",
	Long: `Flowgate keeps coding agents on a research → plan → implement → validate
workflow. Planning requires research, implementation requires an approved
plan, and validation requires an implementation.

Run 'flowgate mcp' to expose the workflow to an MCP client, or drive it
directly with the commands below.`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: configureLogging,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the RootCmd.
func Execute() error {
	err := RootCmd.Execute()
	if err != nil {
		printError(err)
	}
	return err
}

// SetBuildInfo stamps the release version on the CLI and the MCP server.
func SetBuildInfo(version, commit, date string) {
	Version, Commit, Date = version, commit, date
	inframcp.Version, inframcp.BuildCommit, inframcp.BuildDate = version, commit, date
	RootCmd.Version = version
	RootCmd.SetVersionTemplate(fmt.Sprintf("flowgate %s (commit %s, built %s)\n", version, commit, date))
}

// ExitCode returns the process exit code for err.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	var cliErr *CLIError
	if errors.As(err, &cliErr) && cliErr.ExitCode != 0 {
		return cliErr.ExitCode
	}
	return 1
}

func printError(err error) {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	var cliErr *CLIError
	if errors.As(err, &cliErr) && cliErr.Hint != "" {
		fmt.Fprintf(os.Stderr, "Hint: %s\n", cliErr.Hint)
	}
}

// configureLogging installs the process logger from the root's config,
// with command line flags taking precedence.
func configureLogging(cmd *cobra.Command, _ []string) error {
	cfg := config.Default()
	if root, err := getProjectRoot(); err == nil {
		if loaded, err := config.Load(root); err == nil {
			cfg = loaded
		}
	}

	level, err := logging.ParseLevel(cfg.LogLevel)
	if err != nil {
		return err
	}
	format := cfg.LogFormat
	if cmd.Flags().Changed("log-format") {
		format = logFormat
	}
	switch strings.ToLower(format) {
	case "text", "json":
	default:
		return NewCLIError(fmt.Sprintf("unknown log format %q", format), "Use --log-format text or --log-format json", nil)
	}

	logging.Configure(logging.Options{
		Level:   level,
		JSON:    strings.EqualFold(format, "json"),
		Verbose: verbose,
	})
	return nil
}

func init() {
	RootCmd.PersistentFlags().StringVarP(&projectPath, "project", "C", "", "Project root (defaults to the nearest directory holding .flowgate, else the current directory)")
	RootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	RootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "text", "Log format (text, json)")
	RootCmd.SetVersionTemplate(fmt.Sprintf("flowgate %s (commit %s, built %s)\n", Version, Commit, Date))
}
