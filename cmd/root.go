// Package cmd provides the root command and CLI setup for flog.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"flog.dev/pkg/flog/internal/adapter"
	"flog.dev/pkg/flog/internal/controller"
	"flog.dev/pkg/flog/internal/domain"
	m "flog.dev/pkg/flog/internal/model"
)

var sourceFSAdapter adapter.SourceFSAdapter
var sourceParser adapter.SourceParser
var reportStore adapter.ReportStore
var workflow domain.Workflow
var ui controller.UI

// reportsOutputDirFlag is a root-level flag shared by commands that read/write runs.
var reportsOutputDirFlag string

// excludePatterns is a root-level flag that filters files for applicable commands.
var excludePatterns []string

// verboseFlag switches the log file to debug level.
var verboseFlag bool

func init() {
	configureRootFlags(rootCmd)

	// Initialize shared dependencies.
	ui = controller.NewUI(rootCmd, controller.IsTTY(os.Stdout))
	sourceFSAdapter = adapter.NewLocalSourceFSAdapter()
	sourceParser = adapter.NewFormatParser()
	reportStore = adapter.NewYAMLReportStore()
	workflow = domain.NewWorkflow(
		sourceFSAdapter,
		sourceParser,
		reportStore,
		ui,
		domain.DefaultScoreTable(),
	)
}

const pathPatternsHelp = `Path arguments:
  -              read Ruby source from standard input (default)
  lib            score every *.rb file directly in lib
  lib/...        recursively score every *.rb file under lib
  tree.sexp      score a pre-parsed tree (.sexp, .yaml, .yml, .json)`

const rootLongDescription = `Flog reports the most tortured code in an easy to read pain report.
The higher the score, the more pain the code is in.

` + pathPatternsHelp

const reportLongDescription = `Score the given Ruby sources and print the flog report.

` + pathPatternsHelp

const listLongDescription = `List every scope of the given sources with its score and heaviest construct.

` + pathPatternsHelp

// rootCmd represents the base command when called without any subcommands.
var rootCmd = baseRootCmd()

func baseRootCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "flog",
		Short: "Ruby code complexity reporter",
		Long:  rootLongDescription,
		PersistentPreRun: func(_ *cobra.Command, _ []string) {
			configureLogger(viper.GetString(logFilenameKey), verboseFlag || viper.GetBool(logVerboseKey))
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}
}

func newRootCmd() *cobra.Command {
	cmd := baseRootCmd()
	configureRootFlags(cmd)

	return cmd
}

func configureRootFlags(cmd *cobra.Command) {
	cmd.PersistentFlags().
		StringVarP(
			&reportsOutputDirFlag, outputFlagName, "o",
			viper.GetString(outputFlagName),
			"directory for saved runs",
		)
	bindFlagToConfig(cmd.PersistentFlags().Lookup(outputFlagName), outputFlagName)

	cmd.PersistentFlags().StringArrayVarP(&excludePatterns, excludeFlagName, "x", viper.GetStringSlice(excludeConfigKey), "exclude files matching regex (can be repeated)")
	bindFlagToConfig(cmd.PersistentFlags().Lookup(excludeFlagName), excludeConfigKey)

	cmd.PersistentFlags().BoolVarP(&verboseFlag, verboseFlagName, "v", false, "write debug logs")
}

// bindFlagToConfig wires a Cobra flag to a Viper key so config/env values feed the flag.
func bindFlagToConfig(flag *pflag.Flag, key string) {
	if flag == nil {
		cobra.CheckErr(fmt.Errorf("flag for config key %q not found", key))
		return
	}

	cobra.CheckErr(viper.BindPFlag(key, flag))
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

// parsePaths converts arguments to paths; no arguments means standard input.
func parsePaths(args []string) []m.Path {
	if len(args) == 0 {
		return []m.Path{m.StdinPath}
	}

	paths := make([]m.Path, 0, len(args))
	for _, arg := range args {
		paths = append(paths, m.Path(arg))
	}

	return paths
}

func analyzeArgs(args []string) domain.AnalyzeArgs {
	return domain.AnalyzeArgs{
		Paths:   parsePaths(args),
		Exclude: viper.GetStringSlice(excludeConfigKey),
		Threads: viper.GetInt(runParallelConfigKey),
	}
}
