package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	crucible "github.com/m0n0x41d/crucible"
)

var lineageRound int

var lineageCmd = &cobra.Command{
	Use:   "lineage",
	Short: "Build lineage cards for the active set",
	Long: `Produces the per-leaf lineage cards fed to the synthesis prompt:
root-to-leaf derivation chains with effective dispositions, stall metrics,
and superseded model records.`,
	Run: func(cmd *cobra.Command, args []string) {
		requireProposal()
		snap, err := crucible.LoadSnapshot(rootCtx, store, proposalID)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading snapshot: %v\n", err)
			os.Exit(1)
		}

		cards := crucible.LineageCards(snap, lineageRound)
		if jsonOutput {
			outputJSON(cards)
			return
		}

		for _, card := range cards {
			fmt.Printf("%s  [%s] %s\n", styleSeverity(card.Item.Severity), card.Item.DisplayID, card.Item.Title)
			for _, lineage := range card.Lineages {
				fmt.Printf("  root %s:\n", displayID(lineage.RootID))
				for _, entry := range lineage.Entries {
					decision := string(entry.Decision)
					if decision == "" {
						decision = "—"
					}
					fmt.Printf("    [%s] r%d %s  %s", entry.DisplayID, entry.Round, decision, entry.Title)
					if entry.DeferredCount > 0 {
						fmt.Printf("  (deferred ×%d)", entry.DeferredCount)
					}
					if entry.RoundsActive > 0 {
						fmt.Printf("  (active %d rounds)", entry.RoundsActive)
					}
					fmt.Println()
					for _, sup := range entry.SupersededModelRecords {
						fmt.Printf("      superseded %s by %s: %s\n",
							sup.Record.DecidedBy, sup.Superseded.By, sup.Record.Decision)
					}
				}
			}
		}
	},
}

func init() {
	lineageCmd.Flags().IntVar(&lineageRound, "round", 1, "current round (for stall metrics)")
}

func displayID(id string) string {
	if len(id) > 12 {
		return id[:12]
	}
	return id
}
