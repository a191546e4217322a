// Package cli provides the command-line interface for joinspace: a single
// batch command that reads a file of SQL queries and writes the enumerated
// subquery workload to a CSV file.
package cli

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/joinspace/joinspace/internal/config"
	"github.com/joinspace/joinspace/internal/driver"
	"github.com/joinspace/joinspace/internal/observability"
	"github.com/joinspace/joinspace/internal/validate"
)

// Exit codes.
const (
	ExitSuccess = 0
	ExitFailure = 1
)

// CLI holds the command-line interface state.
type CLI struct {
	rootCmd *cobra.Command
	cfg     *config.Config

	configPath string
}

// New creates a new CLI instance.
func New() *CLI {
	c := &CLI{}
	c.rootCmd = c.newRootCmd()
	return c
}

// Execute runs the CLI and returns the process exit code.
func (c *CLI) Execute() int {
	if err := c.rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, color.RedString("error: %v", err))
		return ExitFailure
	}
	return ExitSuccess
}

func (c *CLI) newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "joinspace <input-file>",
		Short: "Enumerate join-subset counting queries for a relational workload",
		Long: `joinspace reads a file of SQL queries and, for each one, enumerates every
connected subset of its base relations in bottom-up dynamic-programming
order, emitting a self-contained counting query for each subset. The
result is an offline workload a downstream tool can replay to measure
cardinalities or costs at every point in the join search space.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return c.initConfig()
		},
		RunE: c.runJoinspace,
	}

	cmd.PersistentFlags().StringVar(&c.configPath, "config", "", "config file (default: joinspace.yaml in $HOME/.joinspace or the current directory)")

	cmd.Flags().StringP("output", "o", "", "output CSV file (default: joinspace-output.csv)")
	cmd.Flags().Bool("semicolon-separated", false, "input file has semicolon-separated queries (default: one per line)")
	cmd.Flags().Bool("stop-on-error", false, "stop processing on first error (default: continue)")
	cmd.Flags().Int("max-level", 0, "maximum enumeration level (default: 20)")
	cmd.Flags().String("dialect", "", "SQL dialect passed to the parser: generic, mysql, postgres, or ansi (default: generic)")
	cmd.Flags().BoolP("verbose", "v", false, "print a per-run summary table (queries found/processed/failed, rows written)")
	cmd.Flags().Bool("validate", false, "syntax-check every rendered query")
	cmd.Flags().String("schema", "", "YAML schema file for --validate (table -> column list)")

	return cmd
}

func (c *CLI) initConfig() error {
	cfg, err := config.Load(c.configPath)
	if err != nil {
		return err
	}
	c.cfg = cfg
	return nil
}

func (c *CLI) runJoinspace(cmd *cobra.Command, args []string) error {
	output, _ := cmd.Flags().GetString("output")
	if output == "" {
		output = c.cfg.Output
	}
	semicolon, _ := cmd.Flags().GetBool("semicolon-separated")
	if !cmd.Flags().Changed("semicolon-separated") {
		semicolon = c.cfg.SemicolonSeparated
	}
	stopOnError, _ := cmd.Flags().GetBool("stop-on-error")
	if !cmd.Flags().Changed("stop-on-error") {
		stopOnError = c.cfg.StopOnError
	}
	maxLevel, _ := cmd.Flags().GetInt("max-level")
	if maxLevel <= 0 {
		maxLevel = c.cfg.MaxLevel
	}
	verbose, _ := cmd.Flags().GetBool("verbose")
	if !cmd.Flags().Changed("verbose") {
		verbose = c.cfg.Verbose
	}
	doValidate, _ := cmd.Flags().GetBool("validate")
	if !cmd.Flags().Changed("validate") {
		doValidate = c.cfg.Validate
	}
	schemaPath, _ := cmd.Flags().GetString("schema")
	if schemaPath == "" {
		schemaPath = c.cfg.Schema
	}
	dialect, _ := cmd.Flags().GetString("dialect")
	if dialect == "" {
		dialect = c.cfg.Dialect
	}

	opts := driver.RunOptions{
		InputPath:          args[0],
		OutputPath:         output,
		SemicolonSeparated: semicolon,
		StopOnError:        stopOnError,
		MaxLevel:           maxLevel,
		Dialect:            dialect,
	}

	logger := observability.RunLogger(observability.NewJSONLogger(os.Stderr))

	result, err := driver.Run(opts, logger)
	if err != nil {
		return err
	}

	if doValidate {
		if verr := validate.RenderedOutput(output, schemaPath); verr != nil {
			fmt.Fprintln(os.Stderr, color.YellowString("validation warning: %v", verr))
		}
	}

	if verbose {
		printSummary(result)
	}

	fmt.Printf("%s %d/%d queries, %d rows written to %s\n",
		color.GreenString("done:"), result.QueriesProcessed, result.QueriesFound, result.RowsWritten, output)

	if result.QueriesFailed > 0 {
		fmt.Printf("%s %d queries failed\n", color.RedString("errors:"), result.QueriesFailed)
	}

	return nil
}

func printSummary(result driver.RunResult) {
	table := tablewriter.NewTable(os.Stdout)
	table.Header([]string{"metric", "value"})
	table.Append([]string{"queries found", fmt.Sprintf("%d", result.QueriesFound)})
	table.Append([]string{"queries processed", fmt.Sprintf("%d", result.QueriesProcessed)})
	table.Append([]string{"queries failed", fmt.Sprintf("%d", result.QueriesFailed)})
	table.Append([]string{"rows written", fmt.Sprintf("%d", result.RowsWritten)})
	table.Render()
}
