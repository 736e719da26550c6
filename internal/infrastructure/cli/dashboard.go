package cli

import (
	"fmt"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/felixgeelhaar/flowgate/pkg/application"
	"github.com/spf13/cobra"
)

const dashboardRefresh = 2 * time.Second

var dashboardCmd = &cobra.Command{
	Use:   "dashboard",
	Short: "Live view of the workflow status",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		services, err := loadServicesForCurrentDir()
		if err != nil {
			return err
		}
		if os.Getenv("FLOWGATE_SKIP_DASHBOARD_RUN") == "true" {
			return nil
		}
		p := tea.NewProgram(newDashboardModel(services.Workflow))
		if _, err := p.Run(); err != nil {
			return fmt.Errorf("dashboard run failed: %w", err)
		}
		return nil
	},
}

type tickMsg time.Time

type dashboardModel struct {
	workflow *application.WorkflowService
	status   application.WorkflowStatus
	err      error
	updated  time.Time
}

func newDashboardModel(wf *application.WorkflowService) dashboardModel {
	return dashboardModel{workflow: wf}.refresh()
}

func (m dashboardModel) refresh() dashboardModel {
	m.workflow.Reload()
	m.err = m.workflow.SyncToFileSystem()
	m.status = m.workflow.Status()
	m.updated = time.Now()
	return m
}

func tick() tea.Cmd {
	return tea.Tick(dashboardRefresh, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func (m dashboardModel) Init() tea.Cmd { return tick() }

func (m dashboardModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case "r":
			return m.refresh(), nil
		}
	case tickMsg:
		return m.refresh(), tick()
	}
	return m, nil
}

func (m dashboardModel) View() string {
	footer := fmt.Sprintf("\nUpdated %s  [r] Refresh  [q] Quit", m.updated.Format("15:04:05"))
	body := renderStatus(m.status)
	if m.err != nil {
		body += "\n" + errStyle.Render(fmt.Sprintf("sync failed: %v", m.err))
	}
	return baseStyle.Render(lipgloss.JoinVertical(lipgloss.Left, body, footer)) + "\n"
}

func init() {
	RootCmd.AddCommand(dashboardCmd)
}
