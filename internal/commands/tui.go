package commands

import (
	"io"

	"github.com/nconklindev/freightmap/internal/ui"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
)

func newTUICmd(a *app) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "tui",
		Short: "Pick a workbook and map its columns interactively (default)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			// The alternate screen owns the terminal; only a log file gets output.
			if a.cfg.LogFile == "" {
				a.logger.SetOutput(io.Discard)
			}

			m := ui.InitialModel(a.processor(), output, a.logger)
			p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithMouseCellMotion())
			_, err := p.Run()
			return err
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default: processed_data.xlsx next to the input)")
	return cmd
}
