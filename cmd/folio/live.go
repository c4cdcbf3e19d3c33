package main

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/bamdow/folio/internal/dom/memdom"
	"github.com/bamdow/folio/internal/frame"
	"github.com/bamdow/folio/internal/gravity"
	"github.com/bamdow/folio/internal/tui"
)

func runLive(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	doc, err := memdom.Open(fixturePath(args))
	if err != nil {
		return err
	}

	frames := frame.NewManual()
	ctrl, err := gravity.NewController(doc, frames, cfg,
		gravity.WithoutRunner(), gravity.WithLogger(logger.Named("gravity")))
	if err != nil {
		return err
	}
	m, err := tui.NewModel(cmd.Context(), ctrl, doc, frames)
	if err != nil {
		return err
	}

	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithMouseCellMotion())
	_, err = p.Run()
	return err
}
