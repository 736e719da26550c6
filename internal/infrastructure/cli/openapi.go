package cli

import (
	"fmt"
	"os"

	mcpserver "github.com/felixgeelhaar/flowgate/internal/infrastructure/mcp"
	"github.com/spf13/cobra"
)

var openapiOutput string

var openapiCmd = &cobra.Command{
	Use:   "openapi",
	Short: "Print the workflow tools as an OpenAPI 3.0 document",
	Long: `Print the workflow tools as an OpenAPI 3.0 document.

Each tool becomes POST /tools/{name}, tagged with the phase it drives.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		root, err := getProjectRoot()
		if err != nil {
			return err
		}
		srv, err := mcpserver.NewServer(root)
		if err != nil {
			return MapError(fmt.Errorf("failed to initialize server: %w", err))
		}

		data, err := srv.OpenAPI()
		if err != nil {
			return MapError(fmt.Errorf("failed to generate OpenAPI document: %w", err))
		}

		if openapiOutput == "" {
			fmt.Fprintln(cmd.OutOrStdout(), string(data))
			return nil
		}
		if err := os.WriteFile(openapiOutput, append(data, '\n'), 0o600); err != nil {
			return MapError(fmt.Errorf("write %s: %w", openapiOutput, err))
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", openapiOutput)
		return nil
	},
}

func init() {
	openapiCmd.Flags().StringVarP(&openapiOutput, "output", "o", "", "Write the document to a file instead of stdout")
	RootCmd.AddCommand(openapiCmd)
}
