package main

import (
	"fmt"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	crucible "github.com/m0n0x41d/crucible"
	"github.com/m0n0x41d/crucible/internal/types"
)

var (
	blockingStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)
	importantStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	minorStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	closedStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Bold(true)
	openStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)
	flagStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("13"))
)

func styleSeverity(s types.Severity) string {
	switch s {
	case types.SeverityBlocking:
		return blockingStyle.Render("blocking ")
	case types.SeverityImportant:
		return importantStyle.Render("important")
	default:
		return minorStyle.Render("minor    ")
	}
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the active set, pending gates, and convergence state",
	Run: func(cmd *cobra.Command, args []string) {
		requireProposal()
		snap, err := crucible.LoadSnapshot(rootCtx, store, proposalID)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading snapshot: %v\n", err)
			os.Exit(1)
		}

		active := crucible.ActiveSet(snap)
		pending := crucible.PendingFlags(snap)
		convergence := crucible.Convergence(snap)

		if jsonOutput {
			outputJSON(map[string]any{
				"proposal_id":       proposalID,
				"active_set":        active,
				"pending_flags":     pending,
				"convergence_state": convergence,
			})
			return
		}

		if convergence == types.ConvergenceClosed {
			fmt.Printf("Convergence: %s\n", closedStyle.Render("closed"))
		} else {
			fmt.Printf("Convergence: %s\n", openStyle.Render("open"))
		}

		fmt.Printf("Active items (%d):\n", len(active))
		for _, id := range active {
			item := snap.Items[id]
			fmt.Printf("  %s  [%s] r%d/%s  %s\n",
				styleSeverity(item.Severity), item.DisplayID, item.Round, item.Role, item.Title)
		}
		if len(pending) > 0 {
			fmt.Printf("%s (%d):\n", flagStyle.Render("Open ⚑ gates"), len(pending))
			for _, id := range pending {
				if item, ok := snap.Items[id]; ok {
					fmt.Printf("  [%s] %s\n", item.DisplayID, item.Title)
				} else {
					fmt.Printf("  [%s]\n", id)
				}
			}
		}
	},
}
