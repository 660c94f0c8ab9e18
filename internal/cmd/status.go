package cmd

import (
	"fmt"
	"sort"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/BANCS-Norway/session-coordinator/internal/coordinator"
	"github.com/BANCS-Norway/session-coordinator/internal/util"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the session slot registry for this machine and project",
	Long: `Display the slot registry and active session summaries for the
current machine and project. Reading status does not claim a slot.`,
	RunE: runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

var (
	statusHeaderStyle    = lipgloss.NewStyle().Bold(true)
	statusTakenStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#FBBF24")) // Yellow
	statusAvailableStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#10B981")) // Green
	statusMutedStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7280")) // Gray
)

func runStatus(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	coord, cleanup, err := buildCoordinator(ctx)
	if err != nil {
		return err
	}
	defer cleanup()

	info, err := coord.ContextInfo(ctx)
	if err != nil {
		return fmt.Errorf("read coordination context: %w", err)
	}

	fmt.Println(statusHeaderStyle.Render(fmt.Sprintf("%s : %s", info.Machine, info.Project)))
	fmt.Println()

	fmt.Println(statusHeaderStyle.Render("Instances"))
	for _, id := range sortedInstanceIDs(info.Instances) {
		status := info.Instances[id]
		style := statusAvailableStyle
		if status == coordinator.StatusTaken {
			style = statusTakenStyle
		}
		fmt.Printf("  %s  %s\n", id, style.Render(status))
	}
	if info.FirstAvailable != "" {
		fmt.Printf("  %s\n", statusMutedStyle.Render("next sign-on claims "+info.FirstAvailable))
	} else {
		fmt.Printf("  %s\n", statusMutedStyle.Render("all slots taken"))
	}
	fmt.Println()

	if len(info.ActiveSessions) == 0 {
		fmt.Println(statusMutedStyle.Render("No active sessions"))
		return nil
	}

	fmt.Println(statusHeaderStyle.Render("Active Sessions"))
	for _, s := range info.ActiveSessions {
		fmt.Printf("  %s\n", s.Instance)
		if s.CurrentIssue != nil {
			fmt.Printf("    issue: %s\n", util.TruncateString(fmt.Sprint(s.CurrentIssue), 60))
		}
		fmt.Printf("    todos: %d\n", s.TodoCount)
	}

	return nil
}

// sortedInstanceIDs returns the registry slot ids in display order.
func sortedInstanceIDs(instances map[string]string) []string {
	ids := make([]string, 0, len(instances))
	for id := range instances {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
