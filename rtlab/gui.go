package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"
	"github.com/spf13/cobra"

	"github.com/itohio/rtlab/pkg/config"
	"github.com/itohio/rtlab/pkg/report"
	"github.com/itohio/rtlab/pkg/scope"
)

func newGUICmd(g *globalOpts) *cobra.Command {
	return &cobra.Command{
		Use:   "gui",
		Short: "Run the pipeline with a scope window",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := g.load()
			if err != nil {
				return err
			}
			runGUI(cfg, g)
			return nil
		},
	}
}

// appState holds the application state.
type appState struct {
	cfg         *config.Config
	configPath  string
	useMock     bool
	window      fyne.Window
	scopeWidget *scope.ScopeWidget
	connectBtn  *widget.Button
	statusLabel *widget.Label

	// Current run (nil if not connected)
	session *session
	cancel  context.CancelFunc
	done    chan struct{}
}

func runGUI(cfg *config.Config, g *globalOpts) {
	application := app.NewWithID("com.itohio.rtlab")

	window := application.NewWindow("RTOS Lab Scope")
	window.Resize(fyne.NewSize(1200, 800))
	window.CenterOnScreen()

	state := &appState{
		cfg:        cfg,
		configPath: g.configPath,
		useMock:    g.mock,
		window:     window,
	}

	toolbar := createToolbar(state)
	state.scopeWidget = scope.New(mapperTable(cfg), scope.DefaultWindow)
	state.statusLabel = widget.NewLabel("Disconnected")

	window.SetContent(container.NewBorder(
		toolbar,
		state.statusLabel,
		nil,
		nil,
		state.scopeWidget,
	))
	window.SetOnClosed(func() {
		disconnect(state)
	})
	window.ShowAndRun()
}

// createToolbar creates the toolbar with Connect, Settings and Clear buttons.
func createToolbar(state *appState) fyne.CanvasObject {
	connectBtn := widget.NewButtonWithIcon("", theme.LoginIcon(), func() {
		handleConnect(state)
	})
	state.connectBtn = connectBtn

	settingsBtn := widget.NewButtonWithIcon("", theme.SettingsIcon(), func() {
		showSettingsDialog(state)
	})

	clearBtn := widget.NewButtonWithIcon("", theme.DeleteIcon(), func() {
		state.scopeWidget.Reset()
	})

	return container.NewHBox(connectBtn, settingsBtn, clearBtn)
}

// handleConnect handles the connect/disconnect button click.
func handleConnect(state *appState) {
	if state.session != nil {
		disconnect(state)
		state.connectBtn.SetIcon(theme.LoginIcon())
		state.statusLabel.SetText("Disconnected")
		return
	}

	dev, err := openDevice(state.cfg, state.useMock)
	if err != nil {
		dialog.ShowError(err, state.window)
		return
	}

	s, err := newSession(state.cfg, dev, os.Stdout)
	if err != nil {
		dev.Close()
		dialog.ShowError(err, state.window)
		return
	}

	state.scopeWidget.SetTable(mapperTable(state.cfg))

	// Register before starting so the first report is plotted.
	s.pipeline.Reporter.OnReport(func(rec report.Record) {
		st := s.pipeline.Stats.Snapshot()
		status := fmt.Sprintf("Mean %d | samples %d | faults %d | dropped %d",
			rec.Aggregate.Value(), st.Samples, st.Faults, st.Dropped)
		fyne.Do(func() {
			state.scopeWidget.Add(rec)
			state.statusLabel.SetText(status)
		})
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := s.Run(ctx); err != nil {
			log.Printf("Pipeline stopped: %v", err)
		}
	}()

	state.session = s
	state.cancel = cancel
	state.done = done
	state.connectBtn.SetIcon(theme.LogoutIcon())
	state.statusLabel.SetText("Connected")
}

// disconnect stops the current run and waits for its tasks to return.
func disconnect(state *appState) {
	if state.session == nil {
		return
	}

	state.cancel()
	<-state.done
	state.session.Close()

	state.session = nil
	state.cancel = nil
	state.done = nil
}
