package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os/signal"
	"syscall"
	"time"

	"github.com/felixgeelhaar/flowgate/internal/infrastructure/watch"
	"github.com/felixgeelhaar/flowgate/pkg/application"
	"github.com/felixgeelhaar/flowgate/pkg/domain/workflow"
	"github.com/spf13/cobra"
)

var watchDebounce time.Duration

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Watch the research and plan directories and advance the workflow when documents appear",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		services, err := loadServicesForCurrentDir()
		if err != nil {
			return err
		}
		repo := services.Workspace.Repo
		for _, kind := range []workflow.ArtifactKind{workflow.ArtifactResearch, workflow.ArtifactPlan} {
			if _, err := repo.EnsureArtifactDir(kind); err != nil {
				return err
			}
		}

		out := cmd.OutOrStdout()
		w, err := watch.NewDocumentWatcher(watchDebounce, watch.DocumentFilter(), func(paths []string) {
			syncAfterChange(services.Workflow, out, paths)
		})
		if err != nil {
			return err
		}
		if err := w.Watch(repo.DocsDir()); err != nil {
			_ = w.Close()
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		fmt.Fprintf(out, "Watching %s for research and plan documents... (Ctrl+C to stop)\n", repo.DocsDir())
		syncAfterChange(services.Workflow, out, nil)

		if err := w.Run(ctx); err != nil && err != context.Canceled {
			return err
		}
		return nil
	},
}

// syncAfterChange reloads the record written by other processes and lets
// the workflow pick up documents that appeared on disk.
func syncAfterChange(svc *application.WorkflowService, out io.Writer, paths []string) {
	for _, p := range paths {
		slog.Debug("document changed", "path", p)
	}

	svc.Reload()
	before := svc.CurrentPhase()
	if err := svc.SyncToFileSystem(); err != nil {
		fmt.Fprintf(out, "sync failed: %v\n", err)
		return
	}
	if after := svc.CurrentPhase(); after != before {
		fmt.Fprintf(out, "[%s] %s → %s: %s\n", time.Now().Format("15:04:05"), before, after, svc.StatusMessage())
	}
}

func init() {
	watchCmd.Flags().DurationVar(&watchDebounce, "debounce", watch.DefaultDebounce, "Quiet period before reacting to changes")
	RootCmd.AddCommand(watchCmd)
}
