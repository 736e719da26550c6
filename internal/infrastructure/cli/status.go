package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/felixgeelhaar/flowgate/pkg/application"
	"github.com/spf13/cobra"
)

var statusJSON bool

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the workflow phase and what to do next",
	Long: `Show the workflow phase and what to do next.

The status first picks up research and plan documents that have appeared on
disk, exactly as the workflow_status tool does.

Examples:
  flowgate status
  flowgate status --json`,
	Args: cobra.NoArgs,
	RunE: runStatusCmd,
}

func runStatusCmd(cmd *cobra.Command, args []string) error {
	services, err := loadServicesForCurrentDir()
	if err != nil {
		return err
	}
	if err := services.Workflow.SyncToFileSystem(); err != nil {
		return MapError(err)
	}
	status := services.Workflow.Status()

	if statusJSON {
		data, err := json.MarshalIndent(status, "", "  ")
		if err != nil {
			return fmt.Errorf("encode status: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(data))
		return nil
	}

	fmt.Fprintln(cmd.OutOrStdout(), renderStatus(status))
	return nil
}

func renderStatus(st application.WorkflowStatus) string {
	row := func(label, value string) string {
		return lipgloss.JoinHorizontal(lipgloss.Top, labelStyle.Render(label), value)
	}

	task := st.TaskDescription
	if task == "" {
		task = "-"
	}
	if st.TaskID != "" {
		task = st.TaskID + ": " + task
	}

	lines := []string{
		headerStyle.Render("flowgate " + phaseStyle(st.CurrentPhase).Render(st.CurrentPhase.DisplayName())),
		row("Task", task),
		row("Research", check(st.HasResearch)+pathSuffix(st.ResearchPath)),
		row("Plan", check(st.HasPlan)+pathSuffix(st.PlanPath)),
		row("Plan approved", check(st.PlanApproved)),
		row("Implementing", check(st.ImplementationStarted)),
		row("Validated", check(st.ValidationComplete)),
		"",
		hintStyle.Render(st.Status),
	}
	return strings.Join(lines, "\n")
}

func pathSuffix(path string) string {
	if path == "" {
		return ""
	}
	return "  " + path
}

func init() {
	statusCmd.Flags().BoolVar(&statusJSON, "json", false, "Output in JSON format")
	RootCmd.AddCommand(statusCmd)
}
