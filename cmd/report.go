package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"flog.dev/pkg/flog/internal/domain"
	m "flog.dev/pkg/flog/internal/model"
)

var reportThresholdFlag float64
var reportParallelFlag int
var reportSaveFlag bool

// reportCmd represents the report command.
var reportCmd = newReportCmd()

func newReportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report [paths...]",
		Short: "Score Ruby sources and print the flog report",
		Long:  reportLongDescription,
		RunE: func(cmd *cobra.Command, args []string) error {
			threshold := viper.GetFloat64(thresholdConfigKey)
			if err := validateThreshold(threshold); err != nil {
				return err
			}

			return workflow.Report(cmd.Context(), domain.ReportArgs{
				AnalyzeArgs: analyzeArgs(args),
				Threshold:   threshold,
				Save:        reportSaveFlag,
				Reports:     m.Path(viper.GetString(outputFlagName)),
			})
		},
	}

	configureReportFlags(cmd)

	return cmd
}

func init() {
	rootCmd.AddCommand(reportCmd)
}

func configureReportFlags(cmd *cobra.Command) {
	cmd.Flags().Float64VarP(&reportThresholdFlag, thresholdFlagName, "t", viper.GetFloat64(thresholdConfigKey), "fraction of the total score to report, in (0, 1]")
	bindFlagToConfig(cmd.Flags().Lookup(thresholdFlagName), thresholdConfigKey)

	cmd.Flags().IntVarP(&reportParallelFlag, runParallelFlagName, "p", viper.GetInt(runParallelConfigKey), "number of parallel parse workers")
	bindFlagToConfig(cmd.Flags().Lookup(runParallelFlagName), runParallelConfigKey)

	cmd.Flags().BoolVar(&reportSaveFlag, saveFlagName, false, "save the run to the output directory")
}

func validateThreshold(threshold float64) error {
	if threshold <= 0 || threshold > 1 {
		return fmt.Errorf("threshold must be in (0, 1], got %v", threshold)
	}

	return nil
}
