package cmd

import (
	"fmt"

	"github.com/lcharvet/energiedw/internal/app"
	"github.com/lcharvet/energiedw/internal/orchestrator"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
)

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Interactive progress UI over the pipeline stages.",
	RunE: func(cmd *cobra.Command, args []string) error {
		pipeline := orchestrator.New(getConfig(), getLogger(), getDB())
		model := app.NewAppModel(pipeline)
		p := tea.NewProgram(model, tea.WithAltScreen())
		if _, err := p.Run(); err != nil {
			return fmt.Errorf("tui: %w", err)
		}
		return nil
	},
}
