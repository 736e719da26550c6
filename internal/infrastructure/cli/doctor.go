package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/felixgeelhaar/flowgate/internal/infrastructure/config"
	"github.com/felixgeelhaar/flowgate/internal/infrastructure/wiring"
	"github.com/felixgeelhaar/flowgate/pkg/domain/workflow"
	"github.com/felixgeelhaar/flowgate/pkg/storage"
	"github.com/spf13/cobra"
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check the health of the flowgate state directory",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		fmt.Fprintln(out, "Running flowgate doctor...")

		root, err := getProjectRoot()
		if err != nil {
			return err
		}
		workspace, _ := wiring.NewWorkspace(root)
		repo := workspace.Repo

		hasIssues := false
		check := func(name string, fn func() error) {
			fmt.Fprintf(out, "Checking %s... ", name)
			if err := fn(); err != nil {
				fmt.Fprintf(out, "FAIL\n  Error: %v\n", err)
				hasIssues = true
			} else {
				fmt.Fprintf(out, "PASS\n")
			}
		}

		check("Configuration", func() error {
			_, err := config.Load(root)
			return err
		})

		check("State Directory", func() error {
			if !repo.IsInitialized() {
				return fmt.Errorf("%s not found (run 'flowgate status' to create it)", storage.StateDir)
			}
			return nil
		})

		check("Workflow State", func() error {
			data, err := repo.ReadStateFile()
			if errors.Is(err, storage.ErrStateNotFound) {
				return nil
			}
			if err != nil {
				return err
			}
			if err := storage.ValidateStateDocument(data); err != nil {
				return err
			}
			_, err = repo.LoadState()
			return err
		})

		for _, kind := range []workflow.ArtifactKind{workflow.ArtifactResearch, workflow.ArtifactPlan} {
			dir := repo.ArtifactDir(kind)
			check(kind.String()+" directory", func() error {
				info, err := os.Stat(dir)
				if os.IsNotExist(err) {
					return nil
				}
				if err != nil {
					return err
				}
				if !info.IsDir() {
					return fmt.Errorf("%s is not a directory", dir)
				}
				return nil
			})
		}

		check("Transition History", func() error {
			if workspace.Events == nil {
				return fmt.Errorf("%s could not be parsed", storage.EventsFile)
			}
			violations, err := workspace.Events.VerifyIntegrity()
			if err != nil {
				return err
			}
			if len(violations) > 0 {
				return fmt.Errorf("%d integrity violations found: %v", len(violations), violations)
			}
			return nil
		})

		if hasIssues {
			fmt.Fprintln(out, "\nissues found! Please fix them before continuing.")
			return fmt.Errorf("doctor found issues")
		}
		fmt.Fprintln(out, "\nEverything looks good!")
		return nil
	},
}

func init() {
	RootCmd.AddCommand(doctorCmd)
}
