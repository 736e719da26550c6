package cli

import (
	"encoding/json"
	"fmt"

	"github.com/felixgeelhaar/flowgate/pkg/application"
	"github.com/spf13/cobra"
)

var callList bool

var callCmd = &cobra.Command{
	Use:   "call <tool> [json-args]",
	Short: "Invoke a workflow tool by name, exactly as an MCP client would",
	Example: `  flowgate call workflow_status
  flowgate call research_codebase '{"task_description":"Add OAuth login","ticket_id":"ENG-42"}'
  flowgate call approve_plan '{"approved":true}'`,
	Args: cobra.RangeArgs(0, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if callList {
			for _, a := range application.AllActions() {
				fmt.Fprintln(cmd.OutOrStdout(), a)
			}
			return nil
		}
		if len(args) == 0 {
			return NewCLIError("tool name required", "Run 'flowgate call --list' to see the available tools", nil)
		}

		var raw json.RawMessage
		if len(args) == 2 {
			if !json.Valid([]byte(args[1])) {
				return NewCLIError("arguments are not valid JSON", `Quote the object, e.g. '{"approved":true}'`, nil)
			}
			raw = json.RawMessage(args[1])
		}

		services, err := loadServicesForCurrentDir()
		if err != nil {
			return err
		}
		return printResult(cmd, services.Gatekeeper.Call(cmd.Context(), args[0], raw))
	},
}

func init() {
	callCmd.Flags().BoolVar(&callList, "list", false, "List the available tools")
	RootCmd.AddCommand(callCmd)
}
