package main

import (
	"context"
	"errors"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/pders01/fotag/internal/media"
	"github.com/pders01/fotag/internal/tui"
)

func runGallery(cmd *cobra.Command, o *options) error {
	if !o.quiet {
		tui.ShowBanner(Version)
	}

	cfg, err := o.load()
	if err != nil {
		return err
	}

	svc, err := openServices(cfg)
	if err != nil {
		return err
	}
	defer svc.Close()

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	pipeline, err := svc.newPipeline(ctx)
	if err != nil {
		return err
	}

	app := tui.NewApp(cfg, pipeline, media.NewLauncher(cfg), svc.searcher())
	defer app.Close()

	p := tea.NewProgram(app, tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return fmt.Errorf("running gallery: %w", err)
	}
	return nil
}
