package cli

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/table"
	"github.com/felixgeelhaar/flowgate/pkg/domain/events"
	"github.com/felixgeelhaar/flowgate/pkg/storage"
	"github.com/spf13/cobra"
)

var (
	historyTask  string
	historySince time.Duration
	historyLimit int
	historyJSON  bool
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show the recorded workflow transitions",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		services, err := loadServicesForCurrentDir()
		if err != nil {
			return err
		}
		store := services.Workspace.Events
		if store == nil {
			return NewCLIError("transition history is unreadable", "Run 'flowgate doctor' for details", nil)
		}

		filter := storage.HistoryFilter{TaskID: historyTask, Limit: historyLimit}
		if historySince > 0 {
			filter.Since = time.Now().Add(-historySince)
		}
		all, err := store.Query(filter)
		if err != nil {
			return fmt.Errorf("load history: %w", err)
		}

		if historyJSON {
			data, err := json.MarshalIndent(all, "", "  ")
			if err != nil {
				return fmt.Errorf("encode history: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(data))
			return nil
		}

		if len(all) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No transitions recorded yet.")
			return nil
		}
		fmt.Fprintln(cmd.OutOrStdout(), baseStyle.Render(historyTable(all).View()))
		return nil
	},
}

func historyTable(evts []*events.Event) table.Model {
	columns := []table.Column{
		{Title: "Time", Width: 20},
		{Title: "Event", Width: 24},
		{Title: "Phase", Width: 22},
		{Title: "Actor", Width: 8},
		{Title: "Details", Width: 40},
	}

	rows := make([]table.Row, 0, len(evts))
	for _, e := range evts {
		phase := string(e.From)
		if e.PhaseChanged() {
			phase = fmt.Sprintf("%s → %s", e.From, e.To)
		}
		rows = append(rows, table.Row{
			e.Timestamp.Local().Format("2006-01-02 15:04:05"),
			e.Type,
			phase,
			e.Actor,
			formatMetadata(e.Metadata),
		})
	}

	t := table.New(
		table.WithColumns(columns),
		table.WithRows(rows),
		table.WithHeight(len(rows)+1),
	)
	s := table.DefaultStyles()
	s.Selected = s.Cell
	t.SetStyles(s)
	return t
}

func formatMetadata(m map[string]interface{}) string {
	if len(m) == 0 {
		return ""
	}
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%v", k, m[k]))
	}
	return strings.Join(parts, " ")
}

func init() {
	historyCmd.Flags().StringVarP(&historyTask, "task", "t", "", "Show only transitions of this task id")
	historyCmd.Flags().DurationVar(&historySince, "since", 0, "Show only transitions newer than this (e.g. 24h)")
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 0, "Show only the last n transitions")
	historyCmd.Flags().BoolVar(&historyJSON, "json", false, "Output in JSON format")
	RootCmd.AddCommand(historyCmd)
}
