package cli

import (
	"fmt"
	"path/filepath"

	"github.com/felixgeelhaar/flowgate/pkg/application"
	"github.com/spf13/cobra"
)

// blockedExitCode is returned when a prerequisite of the action is missing.
const blockedExitCode = 2

// runAction executes req and prints the text meant for the agent.
func runAction(cmd *cobra.Command, req application.Request) error {
	services, err := loadServicesForCurrentDir()
	if err != nil {
		return err
	}
	return printResult(cmd, services.Gatekeeper.Handle(cmd.Context(), req))
}

func printResult(cmd *cobra.Command, res application.Result) error {
	if res.IsError {
		if res.Err != nil {
			return MapError(res.Err)
		}
		return fmt.Errorf("%s", res.Text)
	}
	fmt.Fprintln(cmd.OutOrStdout(), res.Text)
	if res.Blocked {
		e := NewCLIError("action blocked", "Run 'flowgate status' to see what is missing", nil)
		e.ExitCode = blockedExitCode
		return e
	}
	return nil
}

var researchTicket string

var researchCmd = &cobra.Command{
	Use:   "research <task description>",
	Short: "Start the research phase for a task",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runAction(cmd, application.ResearchRequest{
			TaskDescription: args[0],
			TicketID:        researchTicket,
		})
	},
}

var planTicketFile string

var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Start the planning phase (requires research)",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runAction(cmd, application.CreatePlanRequest{TicketFile: planTicketFile})
	},
}

var (
	approveReject   bool
	approveFeedback string
)

var approveCmd = &cobra.Command{
	Use:   "approve",
	Short: "Approve (or with --reject, reject) the implementation plan",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runAction(cmd, application.ApprovePlanRequest{
			Approved: !approveReject,
			Feedback: approveFeedback,
		})
	},
}

var implementCmd = &cobra.Command{
	Use:   "implement",
	Short: "Start implementing the approved plan",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runAction(cmd, application.ImplementRequest{})
	},
}

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Start validating the implementation",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runAction(cmd, application.ValidateRequest{})
	},
}

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Reset the workflow for a new task",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runAction(cmd, application.ResetRequest{})
	},
}

var completeCmd = &cobra.Command{
	Use:   "complete",
	Short: "Mark a phase as complete",
}

var completeImplementationCmd = &cobra.Command{
	Use:   "implementation",
	Short: "Finish implementation and start validation",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runAction(cmd, application.CompleteImplementationRequest{})
	},
}

var (
	validationPassed  bool
	validationFailed  bool
	validationSummary string
)

var completeValidationCmd = &cobra.Command{
	Use:   "validation",
	Short: "Record the validation result (--passed or --failed)",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if validationPassed == validationFailed {
			return NewCLIError("exactly one of --passed or --failed is required", "", nil)
		}
		return runAction(cmd, application.CompleteValidationRequest{
			Passed:  validationPassed,
			Summary: validationSummary,
		})
	},
}

var completeResearchCmd = &cobra.Command{
	Use:   "research <path>",
	Short: "Register a research document and leave the research phase",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return completeDocument(cmd, args[0], func(svc *application.WorkflowService, path string) error {
			return svc.CompleteResearch(path)
		})
	},
}

var completePlanCmd = &cobra.Command{
	Use:   "plan <path>",
	Short: "Register a plan document and leave the plan phase",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return completeDocument(cmd, args[0], func(svc *application.WorkflowService, path string) error {
			return svc.CompletePlanning(path)
		})
	},
}

func completeDocument(cmd *cobra.Command, path string, complete func(*application.WorkflowService, string) error) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("resolve %s: %w", path, err)
	}
	services, err := loadServicesForCurrentDir()
	if err != nil {
		return err
	}
	if err := complete(services.Workflow, abs); err != nil {
		return MapError(err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Recorded %s\n%s\n", abs, services.Workflow.StatusMessage())
	return nil
}

func init() {
	researchCmd.Flags().StringVarP(&researchTicket, "ticket", "t", "", "Ticket or issue ID (e.g. ENG-1234)")
	planCmd.Flags().StringVar(&planTicketFile, "ticket-file", "", "Path to a ticket file or detailed requirements")
	approveCmd.Flags().BoolVar(&approveReject, "reject", false, "Reject the plan instead of approving it")
	approveCmd.Flags().StringVarP(&approveFeedback, "feedback", "m", "", "Feedback on the plan")
	completeValidationCmd.Flags().BoolVar(&validationPassed, "passed", false, "Validation passed")
	completeValidationCmd.Flags().BoolVar(&validationFailed, "failed", false, "Validation found issues")
	completeValidationCmd.Flags().StringVarP(&validationSummary, "summary", "m", "", "Summary of the validation results")

	completeCmd.AddCommand(completeImplementationCmd)
	completeCmd.AddCommand(completeValidationCmd)
	completeCmd.AddCommand(completeResearchCmd)
	completeCmd.AddCommand(completePlanCmd)

	RootCmd.AddCommand(researchCmd)
	RootCmd.AddCommand(planCmd)
	RootCmd.AddCommand(approveCmd)
	RootCmd.AddCommand(implementCmd)
	RootCmd.AddCommand(validateCmd)
	RootCmd.AddCommand(resetCmd)
	RootCmd.AddCommand(completeCmd)
}
