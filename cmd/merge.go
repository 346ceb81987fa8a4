package cmd

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"flog.dev/pkg/flog/internal/domain"
	m "flog.dev/pkg/flog/internal/model"
)

var mergeIntoFlag string

// mergeCmd represents the merge command.
var mergeCmd = newMergeCmd()

func newMergeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "merge",
		Short: "Combine every saved run into one report",
		Long: `Sum the scores of every run in the output directory and print the combined
report. With --into the combined run is also saved to another directory.`,
		Args: cobra.ExactArgs(0),
		RunE: func(cmd *cobra.Command, _ []string) error {
			threshold := viper.GetFloat64(thresholdConfigKey)
			if err := validateThreshold(threshold); err != nil {
				return err
			}

			return workflow.Merge(cmd.Context(), domain.MergeArgs{
				Reports:   m.Path(viper.GetString(outputFlagName)),
				Output:    m.Path(mergeIntoFlag),
				Threshold: threshold,
			})
		},
	}

	cmd.Flags().StringVar(&mergeIntoFlag, intoFlagName, "", "directory to save the merged run in")

	return cmd
}

func init() {
	rootCmd.AddCommand(mergeCmd)
}
