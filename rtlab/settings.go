package main

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/widget"

	"github.com/itohio/rtlab/pkg/actuate"
	"github.com/itohio/rtlab/pkg/adc"
	"github.com/itohio/rtlab/pkg/board"
	"github.com/itohio/rtlab/pkg/config"
)

// showSettingsDialog displays a settings dialog with one tab per section.
func showSettingsDialog(state *appState) {
	tabs := container.NewAppTabs(
		createSerialTab(state),
		createPipelineTab(state),
		createMapperTab(state),
		createReportTab(state),
	)

	content := container.NewBorder(nil, nil, nil, nil, tabs)
	content.Resize(fyne.NewSize(600, 500))

	d := dialog.NewCustom("Settings", "Close", content, state.window)
	d.Resize(fyne.NewSize(600, 500))
	d.Show()
}

// applySettings validates a modified copy of the configuration, then saves
// it and restarts the run if one is active.
func applySettings(state *appState, modify func(cfg *config.Config) error) {
	next := *state.cfg
	if err := modify(&next); err != nil {
		dialog.ShowError(err, state.window)
		return
	}
	if err := next.Validate(); err != nil {
		dialog.ShowError(err, state.window)
		return
	}
	if err := next.Save(state.configPath); err != nil {
		dialog.ShowError(fmt.Errorf("failed to save config: %w", err), state.window)
		return
	}
	*state.cfg = next
	state.scopeWidget.SetTable(mapperTable(state.cfg))

	if state.session != nil {
		handleConnect(state) // disconnect
		handleConnect(state) // reconnect with new settings
	}
}

// createSerialTab creates the Serial configuration tab.
func createSerialTab(state *appState) *container.TabItem {
	ports, err := board.Ports()
	portOptions := []string{}
	if err == nil {
		for _, port := range ports {
			portOptions = append(portOptions, port.Name)
		}
	}

	currentPort := state.cfg.Serial.Port
	found := false
	for _, opt := range portOptions {
		if opt == currentPort {
			found = true
			break
		}
	}
	if !found && currentPort != "" {
		portOptions = append(portOptions, currentPort)
	}

	portSelect := widget.NewSelect(portOptions, nil)
	portSelect.SetSelected(currentPort)

	baudEntry := widget.NewEntry()
	baudEntry.SetText(strconv.Itoa(state.cfg.Serial.BaudRate))

	form := &widget.Form{
		Items: []*widget.FormItem{
			{Text: "Serial Port", Widget: portSelect},
			{Text: "Baud Rate", Widget: baudEntry},
		},
		OnSubmit: func() {
			applySettings(state, func(cfg *config.Config) error {
				baud, err := strconv.Atoi(strings.TrimSpace(baudEntry.Text))
				if err != nil {
					return fmt.Errorf("invalid baud rate: %w", err)
				}
				if portSelect.Selected != "" {
					cfg.Serial.Port = portSelect.Selected
				}
				cfg.Serial.BaudRate = baud
				return nil
			})
		},
	}

	return container.NewTabItem("Serial", form)
}

// createPipelineTab creates the task period and buffer size tab.
func createPipelineTab(state *appState) *container.TabItem {
	p := state.cfg.Pipeline

	sampleEntry := widget.NewEntry()
	sampleEntry.SetText(p.SamplePeriod.String())
	aggregateEntry := widget.NewEntry()
	aggregateEntry.SetText(p.AggregatePeriod.String())
	historyEntry := widget.NewEntry()
	historyEntry.SetText(strconv.Itoa(p.HistorySize))
	queueEntry := widget.NewEntry()
	queueEntry.SetText(strconv.Itoa(p.QueueSize))

	form := &widget.Form{
		Items: []*widget.FormItem{
			{Text: "Sample Period", Widget: sampleEntry, HintText: "e.g. 500ms"},
			{Text: "Aggregate Period", Widget: aggregateEntry, HintText: "e.g. 500ms"},
			{Text: "History Size", Widget: historyEntry, HintText: "readings averaged"},
			{Text: "Queue Size", Widget: queueEntry, HintText: "pending reports"},
		},
		OnSubmit: func() {
			applySettings(state, func(cfg *config.Config) error {
				var err error
				if cfg.Pipeline.SamplePeriod, err = time.ParseDuration(strings.TrimSpace(sampleEntry.Text)); err != nil {
					return fmt.Errorf("invalid sample period: %w", err)
				}
				if cfg.Pipeline.AggregatePeriod, err = time.ParseDuration(strings.TrimSpace(aggregateEntry.Text)); err != nil {
					return fmt.Errorf("invalid aggregate period: %w", err)
				}
				if cfg.Pipeline.HistorySize, err = strconv.Atoi(strings.TrimSpace(historyEntry.Text)); err != nil {
					return fmt.Errorf("invalid history size: %w", err)
				}
				if cfg.Pipeline.QueueSize, err = strconv.Atoi(strings.TrimSpace(queueEntry.Text)); err != nil {
					return fmt.Errorf("invalid queue size: %w", err)
				}
				return nil
			})
		},
	}

	return container.NewTabItem("Pipeline", form)
}

// mapperForm holds the Mapper tab's field values.
type mapperForm struct {
	enabled    bool
	mode       string
	thresholds string
	fractions  string
	min        string
	max        string
	pwmTop     string
	drive      bool
}

// apply parses the form into cfg.Mapper.
func (f mapperForm) apply(cfg *config.Config) error {
	mode, err := actuate.ParseMode(f.mode)
	if err != nil {
		return err
	}
	thresholds, err := parseReadings(f.thresholds)
	if err != nil {
		return err
	}
	fractions, err := parseFractions(f.fractions)
	if err != nil {
		return err
	}
	lo, err := strconv.ParseUint(strings.TrimSpace(f.min), 10, 32)
	if err != nil {
		return fmt.Errorf("invalid min: %w", err)
	}
	hi, err := strconv.ParseUint(strings.TrimSpace(f.max), 10, 32)
	if err != nil {
		return fmt.Errorf("invalid max: %w", err)
	}
	top, err := strconv.ParseUint(strings.TrimSpace(f.pwmTop), 10, 32)
	if err != nil {
		return fmt.Errorf("invalid PWM top: %w", err)
	}

	cfg.Mapper.Enabled = f.enabled
	cfg.Mapper.Mode = mode
	cfg.Mapper.Thresholds = thresholds
	cfg.Mapper.Fractions = fractions
	cfg.Mapper.Min = adc.Reading(lo)
	cfg.Mapper.Max = adc.Reading(hi)
	cfg.Mapper.PWMTop = uint32(top)
	cfg.Mapper.DriveOutputs = f.drive
	return nil
}

// createMapperTab creates the actuation table tab.
func createMapperTab(state *appState) *container.TabItem {
	m := state.cfg.Mapper

	enabledCheck := widget.NewCheck("", nil)
	enabledCheck.SetChecked(m.Enabled)
	modeSelect := widget.NewSelect([]string{actuate.Stepped.String(), actuate.Linear.String()}, nil)
	modeSelect.SetSelected(m.Mode.String())
	thresholdsEntry := widget.NewEntry()
	thresholdsEntry.SetText(formatReadings(m.Thresholds))
	fractionsEntry := widget.NewEntry()
	fractionsEntry.SetText(formatFractions(m.Fractions))
	minEntry := widget.NewEntry()
	minEntry.SetText(strconv.FormatUint(uint64(m.Min), 10))
	maxEntry := widget.NewEntry()
	maxEntry.SetText(strconv.FormatUint(uint64(m.Max), 10))
	pwmEntry := widget.NewEntry()
	pwmEntry.SetText(strconv.FormatUint(uint64(m.PWMTop), 10))
	driveCheck := widget.NewCheck("", nil)
	driveCheck.SetChecked(m.DriveOutputs)

	form := &widget.Form{
		Items: []*widget.FormItem{
			{Text: "Enabled", Widget: enabledCheck},
			{Text: "Mode", Widget: modeSelect},
			{Text: "Thresholds", Widget: thresholdsEntry, HintText: "ascending, comma-separated"},
			{Text: "Fractions", Widget: fractionsEntry, HintText: "one per tier (stepped)"},
			{Text: "Min", Widget: minEntry, HintText: "lower clamp (linear)"},
			{Text: "Max", Widget: maxEntry, HintText: "upper clamp (linear)"},
			{Text: "PWM Top", Widget: pwmEntry, HintText: "PWM period in counts"},
			{Text: "Drive Outputs", Widget: driveCheck, HintText: "send results to the board"},
		},
		OnSubmit: func() {
			applySettings(state, mapperForm{
				enabled:    enabledCheck.Checked,
				mode:       modeSelect.Selected,
				thresholds: thresholdsEntry.Text,
				fractions:  fractionsEntry.Text,
				min:        minEntry.Text,
				max:        maxEntry.Text,
				pwmTop:     pwmEntry.Text,
				drive:      driveCheck.Checked,
			}.apply)
		},
	}

	return container.NewTabItem("Mapper", form)
}

// createReportTab creates the report line options tab.
func createReportTab(state *appState) *container.TabItem {
	r := state.cfg.Report

	echoCheck := widget.NewCheck("", nil)
	echoCheck.SetChecked(r.EchoHistory)
	dutyCheck := widget.NewCheck("", nil)
	dutyCheck.SetChecked(r.DutyLine)
	decimalsEntry := widget.NewEntry()
	decimalsEntry.SetText(strconv.Itoa(r.Decimals))

	form := &widget.Form{
		Items: []*widget.FormItem{
			{Text: "Echo History", Widget: echoCheck},
			{Text: "Duty Line", Widget: dutyCheck},
			{Text: "Decimals", Widget: decimalsEntry, HintText: "0 prints the integer mean"},
		},
		OnSubmit: func() {
			applySettings(state, func(cfg *config.Config) error {
				decimals, err := strconv.Atoi(strings.TrimSpace(decimalsEntry.Text))
				if err != nil {
					return fmt.Errorf("invalid decimals: %w", err)
				}
				cfg.Report.EchoHistory = echoCheck.Checked
				cfg.Report.DutyLine = dutyCheck.Checked
				cfg.Report.Decimals = decimals
				return nil
			})
		},
	}

	return container.NewTabItem("Report", form)
}
