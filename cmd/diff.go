package cmd

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"flog.dev/pkg/flog/internal/domain"
	m "flog.dev/pkg/flog/internal/model"
)

// diffCmd represents the diff command.
var diffCmd = newDiffCmd()

func newDiffCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "diff",
		Short: "Compare the two latest saved runs",
		Long:  "Print a unified diff between the reports of the two most recent saved runs.",
		Args:  cobra.ExactArgs(0),
		RunE: func(cmd *cobra.Command, _ []string) error {
			reportsPath := m.Path(viper.GetString(outputFlagName))
			return workflow.Diff(cmd.Context(), domain.DiffArgs{Reports: reportsPath})
		},
	}

	return cmd
}

func init() {
	rootCmd.AddCommand(diffCmd)
}
