package wizard

import (
	"fmt"
	"io"
	"math"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/felixgeelhaar/covergate/internal/application"
	"github.com/felixgeelhaar/covergate/internal/domain"
)

type (
	wizardState int

	initWizardModel struct {
		state     wizardState
		base      application.Config
		metrics   []wizardMetric
		cursor    int
		confirmed bool
		aborted   bool
	}

	wizardMetric struct {
		metric  domain.Metric
		min     float64
		enabled bool
	}
)

const (
	stateIntro wizardState = iota
	stateEdit
	stateConfirm
)

// defaultMin seeds metrics that have neither a configured nor a measured value.
const defaultMin = 80

// Run lets the user review the global thresholds of cfg before it is
// written. The returned bool is false when the wizard was cancelled.
func Run(cfg application.Config, stdout io.Writer, stdin io.Reader) (application.Config, bool, error) {
	return runInitWizard(cfg, stdout, stdin)
}

// Suggest derives global minimums from measured coverage, rounded down to
// the nearest multiple of five so the current state passes.
func Suggest(summary map[domain.Metric]float64) domain.SingleThreshold {
	suggested := make(domain.SingleThreshold, len(summary))
	for _, metric := range domain.Metrics {
		percent, ok := summary[metric]
		if !ok {
			continue
		}
		suggested[metric] = math.Floor(percent/5) * 5
	}
	return suggested
}

func runInitWizard(cfg application.Config, stdout io.Writer, stdin io.Reader) (application.Config, bool, error) {
	model := newInitWizardModel(cfg)
	program := tea.NewProgram(model, tea.WithInput(stdin), tea.WithOutput(stdout))
	res, err := program.Run()
	if err != nil {
		return cfg, false, err
	}
	finalModel, ok := res.(*initWizardModel)
	if !ok {
		return cfg, false, fmt.Errorf("unexpected wizard state")
	}
	if finalModel.aborted || !finalModel.confirmed {
		return cfg, false, nil
	}
	return finalModel.toConfig(), true, nil
}

func newInitWizardModel(cfg application.Config) *initWizardModel {
	global, hasGlobal := cfg.Thresholds.Global()
	metrics := make([]wizardMetric, len(domain.Metrics))
	for i, metric := range domain.Metrics {
		metrics[i] = wizardMetric{metric: metric, min: defaultMin, enabled: !hasGlobal}
		if value, ok := global[metric]; ok {
			metrics[i].min = value
			metrics[i].enabled = true
		}
	}
	return &initWizardModel{
		state:   stateIntro,
		base:    cfg,
		metrics: metrics,
	}
}

func (m *initWizardModel) Init() tea.Cmd {
	return nil
}

func (m *initWizardModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			m.aborted = true
			return m, tea.Quit
		case "enter":
			switch m.state {
			case stateIntro:
				m.state = stateEdit
			case stateEdit:
				m.state = stateConfirm
			case stateConfirm:
				m.confirmed = true
				return m, tea.Quit
			}
		case "esc":
			if m.state == stateConfirm {
				m.state = stateEdit
			}
		case "up":
			if m.state == stateEdit {
				m.moveCursor(-1)
			}
		case "down":
			if m.state == stateEdit {
				m.moveCursor(1)
			}
		case "left", "-":
			if m.state == stateEdit {
				m.adjustSelection(-5)
			}
		case "right", "+":
			if m.state == stateEdit {
				m.adjustSelection(5)
			}
		case " ":
			if m.state == stateEdit {
				m.toggleSelection()
			}
		}
	}
	return m, nil
}

func (m *initWizardModel) View() string {
	switch m.state {
	case stateIntro:
		return m.viewIntro()
	case stateEdit:
		return m.viewEdit()
	case stateConfirm:
		return m.viewConfirm()
	default:
		return ""
	}
}

func (m *initWizardModel) moveCursor(delta int) {
	m.cursor += delta
	if m.cursor < 0 {
		m.cursor = 0
	}
	if last := len(m.metrics) - 1; m.cursor > last {
		m.cursor = last
	}
}

func (m *initWizardModel) adjustSelection(delta float64) {
	row := &m.metrics[m.cursor]
	row.min = clamp(row.min+delta, 0, 100)
	row.enabled = true
}

func (m *initWizardModel) toggleSelection() {
	m.metrics[m.cursor].enabled = !m.metrics[m.cursor].enabled
}

func (m *initWizardModel) viewIntro() string {
	var b strings.Builder
	fmt.Fprintf(&b, "\ncovergate init wizard\n\n")
	fmt.Fprintf(&b, "The wizard sets the global coverage thresholds checked against %d report(s).\n", len(m.base.Report.Paths))
	if others := m.base.Thresholds.Len() - m.globalCount(); others > 0 {
		fmt.Fprintf(&b, "%d selector threshold(s) are kept as they are.\n", others)
	}
	fmt.Fprintf(&b, "\nPress Enter to continue, or Ctrl+C to cancel.\n")
	return b.String()
}

func (m *initWizardModel) viewEdit() string {
	var b strings.Builder
	fmt.Fprintf(&b, "\nReview and adjust global thresholds\n\n")
	fmt.Fprintf(&b, "Use ↑/↓ to move, ←/→ or +/- to change values, space to toggle.\n\n")
	for idx, row := range m.metrics {
		prefix := "  "
		if m.cursor == idx {
			prefix = "> "
		}
		if !row.enabled {
			fmt.Fprintf(&b, "%s%s: off\n", prefix, row.metric)
			continue
		}
		fmt.Fprintf(&b, "%s%s: %.0f%%\n", prefix, row.metric, row.min)
	}
	fmt.Fprintf(&b, "\nEnter to continue, q to cancel.\n")
	return b.String()
}

func (m *initWizardModel) viewConfirm() string {
	var b strings.Builder
	fmt.Fprintf(&b, "\nReady to write configuration\n\n")
	fmt.Fprintf(&b, "Global thresholds:\n")
	global := m.global()
	if len(global) == 0 {
		fmt.Fprintf(&b, "  none\n")
	}
	for _, metric := range domain.Metrics {
		if value, ok := global[metric]; ok {
			fmt.Fprintf(&b, "  %s: %.0f%%\n", metric, value)
		}
	}
	if len(m.base.Report.Paths) > 0 {
		fmt.Fprintf(&b, "\nReports:\n")
		for _, path := range m.base.Report.Paths {
			fmt.Fprintf(&b, "  - %s\n", path)
		}
	} else {
		fmt.Fprintf(&b, "\nNo reports configured.\n")
	}
	fmt.Fprintf(&b, "\nPress Enter to save, Esc to go back, q to cancel.\n")
	return b.String()
}

func (m *initWizardModel) global() domain.SingleThreshold {
	global := make(domain.SingleThreshold, len(m.metrics))
	for _, row := range m.metrics {
		if row.enabled {
			global[row.metric] = row.min
		}
	}
	return global
}

func (m *initWizardModel) globalCount() int {
	if _, ok := m.base.Thresholds.Global(); ok {
		return 1
	}
	return 0
}

// toConfig returns the base config with the edited global threshold. The
// global selector keeps its position; it is dropped when every metric is off.
func (m *initWizardModel) toConfig() application.Config {
	cfg := m.base
	global := m.global()

	var spec domain.ThresholdSpec
	for _, entry := range m.base.Thresholds.Entries {
		if entry.IsGlobal() {
			if len(global) > 0 {
				spec.Set(domain.GlobalSelector, global)
			}
			continue
		}
		spec.Set(entry.Selector, entry.Threshold)
	}
	if _, ok := spec.Global(); !ok && len(global) > 0 {
		spec.Set(domain.GlobalSelector, global)
	}
	cfg.Thresholds = spec
	return cfg
}

func clamp(value, min, max float64) float64 {
	if value < min {
		return min
	}
	if value > max {
		return max
	}
	return value
}
