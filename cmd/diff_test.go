package cmd

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"flog.dev/pkg/flog/internal/domain"
	m "flog.dev/pkg/flog/internal/model"
)

func TestDiffCmd_UsesOutputDirectory(t *testing.T) {
	mockWorkflow := withMockWorkflow(t)

	mockWorkflow.On("Diff", mock.Anything, mock.MatchedBy(func(args domain.DiffArgs) bool {
		return args.Reports == m.Path("./history")
	})).Return(nil)

	cmd := newRootCmd()
	cmd.AddCommand(newDiffCmd())
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"-o", "./history", "diff"})
	require.NoError(t, cmd.Execute())
}

func TestDiffCmd_NotEnoughRunsIsReturned(t *testing.T) {
	mockWorkflow := withMockWorkflow(t)
	mockWorkflow.On("Diff", mock.Anything, mock.Anything).Return(domain.ErrNotEnoughRuns)

	cmd := newRootCmd()
	cmd.AddCommand(newDiffCmd())
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"diff"})
	require.ErrorIs(t, cmd.Execute(), domain.ErrNotEnoughRuns)
}
